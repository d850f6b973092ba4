// Package report выводит действия над файловой системой.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/AnNingUI/treegen/internal/plan"
)

// Event — одно выполненное (или, в режиме dry-run, показанное) действие.
type Event struct {
	Action plan.Action
	DryRun bool
}

// Reporter получает события по одному, в порядке выполнения.
type Reporter interface {
	Report(Event)
}

// Console печатает по строке на действие. Без verbose печатаются только
// события dry-run: при настоящем запуске достаточно итоговой строки.
type Console struct {
	w       io.Writer
	verbose bool

	dry      *color.Color
	create   *color.Color
	clean    *color.Color
	mode     *color.Color
	conflict *color.Color
}

// NewConsole включает цвет, только если w — терминал.
func NewConsole(w io.Writer, verbose bool) *Console {
	c := &Console{
		w:        w,
		verbose:  verbose,
		dry:      color.New(color.FgCyan),
		create:   color.New(color.FgGreen),
		clean:    color.New(color.FgYellow),
		mode:     color.New(color.FgBlue),
		conflict: color.New(color.FgRed, color.Bold),
	}
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	for _, col := range []*color.Color{c.dry, c.create, c.clean, c.mode, c.conflict} {
		if tty {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

func (c *Console) Report(e Event) {
	if !e.DryRun && !c.verbose {
		return
	}
	if e.DryRun {
		c.dry.Fprint(c.w, "[dry-run] ")
	}
	fmt.Fprintln(c.w, c.line(e.Action))
}

func (c *Console) line(a plan.Action) string {
	if a.WouldConflict {
		return c.conflict.Sprintf("conflict %s (уже существует: %s)", a.Path, a.Existing)
	}
	switch a.Kind {
	case plan.CreateDir:
		if a.Exists {
			return fmt.Sprintf("dir exists: %s", a.Path)
		}
		return c.create.Sprintf("mkdir %s", a.Path)
	case plan.CreateFile:
		if a.Exists {
			return c.create.Sprintf("overwrite %s", a.Path)
		}
		return c.create.Sprintf("touch %s", a.Path)
	case plan.Clean:
		return c.clean.Sprintf("rm -rf %s", a.Path)
	case plan.SetMode:
		return c.mode.Sprintf("chmod %04o %s", a.Mode.Perm(), a.Path)
	}
	return fmt.Sprintf("%s %s", a.Kind, a.Path)
}

// Recorder запоминает все события.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Report(e Event) { r.Events = append(r.Events, e) }

// Count возвращает число событий вида k, не считая конфликтов
// и уже существующих каталогов.
func (r *Recorder) Count(k plan.Kind) int {
	n := 0
	for _, e := range r.Events {
		a := e.Action
		if a.Kind != k || a.WouldConflict || (k == plan.CreateDir && a.Exists) {
			continue
		}
		n++
	}
	return n
}

// Reset очищает записанные события.
func (r *Recorder) Reset() { r.Events = nil }

type tee []Reporter

func (t tee) Report(e Event) {
	for _, r := range t {
		r.Report(e)
	}
}

// Tee раздаёт каждое событие всем rs по порядку.
func Tee(rs ...Reporter) Reporter { return tee(rs) }

type discard struct{}

func (discard) Report(Event) {}

// Discard игнорирует события.
var Discard Reporter = discard{}
