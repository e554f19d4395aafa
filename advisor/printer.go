package advisor

import (
	"fmt"
	"io"
	"os"

	"github.com/brequin/brequin/advising/catalog"
	"github.com/brequin/brequin/advising/config"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// ColorEnabled resolves mode against out: auto colours only terminals.
func ColorEnabled(mode config.ColorMode, out *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return out != nil && term.IsTerminal(int(out.Fd()))
	}
}

// Printer formats courses for the console.
type Printer struct {
	w       io.Writer
	heading *color.Color
	id      *color.Color
	notice  *color.Color
}

func NewPrinter(w io.Writer, colored bool) *Printer {
	p := &Printer{
		w:       w,
		heading: color.New(color.Bold),
		id:      color.New(color.FgCyan),
		notice:  color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.heading, p.id, p.notice} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) Line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Heading(s string) {
	p.heading.Fprintln(p.w, s)
}

func (p *Printer) Notice(format string, args ...interface{}) {
	p.notice.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Prompt(s string) {
	fmt.Fprint(p.w, s)
}

// Summary prints "<id>, <title>".
func (p *Printer) Summary(course catalog.Course) {
	p.id.Fprint(p.w, course.ID)
	fmt.Fprintf(p.w, ", %s\n", course.Title)
}

// Course prints the summary line followed by the prerequisite list.
func (p *Printer) Course(course catalog.Course) {
	p.Summary(course)
	fmt.Fprintf(p.w, "prerequisites: %s\n", course.PrerequisiteList())
}

// Schedule prints every course in id order and returns how many it printed.
func (p *Printer) Schedule(ix *catalog.Index) int {
	printed := 0
	next := ix.Sorted()
	for course, ok := next(); ok; course, ok = next() {
		p.Summary(course)
		printed++
	}
	return printed
}
