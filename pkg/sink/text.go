package sink

import (
	"io"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
)

// TextFileLayout names text files after the first sample.
const TextFileLayout = "20060102_150405.txt"

// TextFile writes console formatted lines to a file.
type TextFile struct {
	recordFile
}

// NewTextFile creates a TextFile writing into dir.
func NewTextFile(dir string) *TextFile {
	return &TextFile{recordFile{dir: dir, layout: TextFileLayout}}
}

// Path returns the path of the file once created.
func (t *TextFile) Path() string {
	return t.path
}

// HandleSample implements cms50f.Sink.
func (t *TextFile) HandleSample(s cms50f.Sample) {
	if !t.open(s.Time) {
		return
	}
	if _, err := io.WriteString(t.w, FormatLine(s)); err != nil {
		t.fail(err)
	}
	if s.Last() {
		t.finish()
	}
}

// Close implements io.Closer.
func (t *TextFile) Close() error {
	return t.finish()
}
