package sink

import (
	"bufio"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
)

// recordFile is an output file created on the first sample and named
// after its timestamp.
type recordFile struct {
	dir    string
	layout string

	path string
	file *os.File
	w    *bufio.Writer
	done bool
	err  error
}

// open creates the file unless already opened. It returns false if the
// file is unusable.
func (f *recordFile) open(first time.Time) bool {
	if f.err != nil || f.done {
		return false
	}
	if f.file != nil {
		return true
	}
	f.path = filepath.Join(f.dir, first.Format(f.layout))
	if f.file, f.err = os.Create(f.path); f.err != nil {
		glog.Warningf("could not open outputfile: %v", f.err)
		return false
	}
	f.w = bufio.NewWriter(f.file)
	glog.V(1).Infof("outputfile %s opened", f.path)
	return true
}

func (f *recordFile) fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

func (f *recordFile) finish() error {
	if f.file == nil || f.done {
		return f.err
	}
	f.done = true
	f.fail(f.w.Flush())
	f.fail(f.file.Close())
	if f.err == nil {
		glog.V(1).Infof("outputfile %s closed", f.path)
	}
	return f.err
}
