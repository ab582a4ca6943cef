package sink

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"text/template"

	"github.com/golang/glog"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
)

// PlotFileLayout names the data file. The script and the image share its base name.
const PlotFileLayout = "20060102_150405.dat"

const plotTimeLayout = "2006-01-02T15:04:05"

var plotScript = template.Must(template.New("gnuplot").Parse(`set terminal png size 1600,600
set output "{{.Image}}"
set title "{{.Title}}"
set xdata time
set timefmt "%Y-%m-%dT%H:%M:%S"
set format x "%H:%M"
set ylabel "SpO2 (%)"
set y2label "Pulse (bpm)"
set y2tics
set yrange [50:100]
set datafile missing "0"
set grid
plot "{{.Data}}" using 1:2 axes x1y1 with lines title "SpO2", \
     "{{.Data}}" using 1:3 axes x1y2 with lines title "Pulse"
`))

// Plot writes a gnuplot report: a data file, a script and optionally
// the rendered image.
type Plot struct {
	recordFile
	// Gnuplot is the gnuplot executable, the report is not rendered if empty.
	Gnuplot string

	stats  Stats
	script string
	image  string
}

// NewPlot creates a Plot writing into dir.
func NewPlot(dir string) *Plot {
	return &Plot{recordFile: recordFile{dir: dir, layout: PlotFileLayout}}
}

// Script returns the path of the gnuplot script once written.
func (p *Plot) Script() string {
	return p.script
}

// Image returns the path of the image once rendered.
func (p *Plot) Image() string {
	return p.image
}

// DataPath returns the path of the data file once created.
func (p *Plot) DataPath() string {
	return p.path
}

// HandleSample implements cms50f.Sink.
func (p *Plot) HandleSample(s cms50f.Sample) {
	if !p.open(s.Time) {
		return
	}
	p.stats.HandleSample(s)
	if _, err := fmt.Fprintf(p.w, "%s %d %d\n", s.Time.Format(plotTimeLayout), s.SpO2, s.Pulse); err != nil {
		p.fail(err)
	}
}

// Close finishes the data file, writes the script and renders it.
func (p *Plot) Close() error {
	if p.file == nil || p.done {
		return p.err
	}
	if err := p.finish(); err != nil {
		return err
	}
	base := strings.TrimSuffix(p.path, ".dat")
	p.script = base + ".gp"
	err := p.writeScript(base + ".png")
	if err != nil {
		p.fail(err)
		return p.err
	}
	if p.Gnuplot == "" {
		return nil
	}
	out, err := exec.Command(p.Gnuplot, p.script).CombinedOutput()
	if err != nil {
		p.fail(fmt.Errorf("%s: %v: %s", p.Gnuplot, err, out))
		return p.err
	}
	p.image = base + ".png"
	glog.V(1).Infof("report %s rendered", p.image)
	return nil
}

func (p *Plot) writeScript(image string) error {
	f, err := os.Create(p.script)
	if err != nil {
		return err
	}
	err = plotScript.Execute(f, map[string]string{
		"Image": image,
		"Data":  p.path,
		"Title": p.stats.Summary(),
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// LookupGnuplot finds gnuplot in PATH, empty if not installed.
func LookupGnuplot() string {
	path, err := exec.LookPath("gnuplot")
	if err != nil {
		return ""
	}
	return path
}
