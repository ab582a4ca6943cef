package sink

import (
	"encoding/csv"
	"strconv"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
)

// CSV layouts and header.
const (
	CSVFileLayout = "20060102150405.csv"
	CSVDateLayout = "2006-01-02"
	CSVTimeLayout = "15:04:05"
)

// CSVHeader is the first record of a CSV file.
var CSVHeader = []string{"DATE", "TIME", "SPO2", "PULSE"}

// CSVFile writes samples as CSV records.
type CSVFile struct {
	recordFile
	csv *csv.Writer
}

// NewCSVFile creates a CSVFile writing into dir.
func NewCSVFile(dir string) *CSVFile {
	return &CSVFile{recordFile: recordFile{dir: dir, layout: CSVFileLayout}}
}

// Path returns the path of the file once created.
func (c *CSVFile) Path() string {
	return c.path
}

// HandleSample implements cms50f.Sink.
func (c *CSVFile) HandleSample(s cms50f.Sample) {
	if !c.open(s.Time) {
		return
	}
	if c.csv == nil {
		c.csv = csv.NewWriter(c.w)
		c.fail(c.csv.Write(CSVHeader))
	}
	c.fail(c.csv.Write([]string{
		s.Time.Format(CSVDateLayout),
		s.Time.Format(CSVTimeLayout),
		strconv.Itoa(int(s.SpO2)),
		strconv.Itoa(int(s.Pulse)),
	}))
	if s.Last() {
		c.finish()
	}
}

func (c *CSVFile) finish() error {
	if c.csv != nil && c.file != nil && !c.done {
		c.csv.Flush()
		c.fail(c.csv.Error())
	}
	return c.recordFile.finish()
}

// Close implements io.Closer.
func (c *CSVFile) Close() error {
	return c.finish()
}
