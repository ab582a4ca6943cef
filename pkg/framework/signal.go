package framework

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

// ForceExitCode is the exit status used on a second stop request.
const ForceExitCode = 2

// exit is replaced in tests.
var exit = os.Exit

// HandleSignals derives a context canceled on CtrlC or SIGTERM.
// A second signal exits the process immediately.
func HandleSignals(parent context.Context) (context.Context, context.CancelFunc) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	return watchSignals(parent, sigCh, func() { signal.Stop(sigCh) })
}

func watchSignals(parent context.Context, sigCh <-chan os.Signal, stop func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			glog.Info("stop requested")
			cancel()
		case <-done:
			return
		}
		select {
		case <-sigCh:
			glog.Error("stop requested again, force exit")
			exit(ForceExitCode)
		case <-done:
		}
	}()
	var once sync.Once
	return ctx, func() {
		cancel()
		once.Do(func() {
			close(done)
			stop()
		})
	}
}
