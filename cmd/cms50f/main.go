package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
	"github.com/robotalks/cms50f.go/pkg/download"
	"github.com/robotalks/cms50f.go/pkg/framework"
)

func init() {
	download.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := download.Load()
	if err != nil {
		glog.Exitf("%v", err)
	}
	ctx, cancel := framework.HandleSignals(context.Background())
	_, err = conf.Run(ctx)
	cancel()
	if err != nil {
		glog.Errorf("%v", err)
		if cms50f.NeedsReconnect(err) {
			glog.Error("the device is out of sync, disconnect and reconnect it before retrying")
		}
		glog.Flush()
		os.Exit(1)
	}
}
