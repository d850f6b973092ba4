package plan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/AnNingUI/treegen/internal/errs"
	"github.com/AnNingUI/treegen/internal/safety"
	"github.com/AnNingUI/treegen/internal/tree"
)

// Kind — вид действия над файловой системой.
type Kind int

const (
	CreateDir Kind = iota
	CreateFile
	Clean
	SetMode
)

func (k Kind) String() string {
	switch k {
	case CreateDir:
		return "mkdir"
	case CreateFile:
		return "create"
	case Clean:
		return "clean"
	case SetMode:
		return "chmod"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action — одно запланированное действие.
type Action struct {
	Kind    Kind
	Path    string      // абсолютный путь
	Rel     string      // путь от выходного каталога через "/"
	Mode    os.FileMode // для SetMode
	Content []byte      // для CreateFile

	// Exists — по пути уже есть элемент (для CreateDir: каталог остаётся,
	// для CreateFile: файл перезаписывается).
	Exists bool
	// WouldConflict — по пути лежит элемент другого вида, а очистка
	// не включена. Existing описывает, что именно там лежит.
	WouldConflict bool
	Existing      string
	// Link — по пути символическая ссылка; очистка её не удаляет.
	Link bool
}

// Plan — корень вывода и действия в порядке выполнения.
type Plan struct {
	Root    string
	Actions []Action
}

// Conflicts возвращает действия, которые не могут быть выполнены.
func (p *Plan) Conflicts() []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.WouldConflict {
			out = append(out, a)
		}
	}
	return out
}

// Options — параметры построения плана.
type Options struct {
	Clean     bool        // удалять существующие элементы по путям узлов
	FileMode  os.FileMode // права файлов (0 — не менять)
	DirMode   os.FileMode // права каталогов (0 — не менять)
	ExecGlobs []string    // файлы, подходящие под шаблоны, получают 0755
}

// Stater отдаёт сведения об элементе без перехода по ссылкам.
// billy.Filesystem ему удовлетворяет.
type Stater interface {
	Lstat(name string) (os.FileInfo, error)
}

// posixModes — есть ли на платформе биты прав POSIX.
var posixModes = runtime.GOOS != "windows"

// Build вычисляет полный список действий, ничего не меняя на диске.
// Потомки очищенного, только что созданного или конфликтного каталога
// заведомо не существуют и повторно не проверяются.
func Build(root string, targets []safety.Target, st Stater, o Options) (*Plan, error) {
	p := &Plan{Root: root}
	absent := make(map[string]bool)

	for _, t := range targets {
		var info os.FileInfo
		if !absent[path.Dir(t.Rel)] {
			fi, err := st.Lstat(t.Rel)
			switch {
			case err == nil:
				info = fi
			case errors.Is(err, fs.ErrNotExist):
			default:
				return nil, errs.Filesystem("stat", t.Path, err)
			}
		}

		// 1) Очистка. Ссылки не удаляются: файловая система вывода
		// разрешает их сама, и удалилась бы цель, а не ссылка.
		if info != nil && o.Clean && info.Mode()&os.ModeSymlink == 0 {
			p.add(Action{Kind: Clean, Path: t.Path, Rel: t.Rel})
			info = nil
		}

		// 2) Каталог или файл.
		a := Action{Path: t.Path, Rel: t.Rel, Exists: info != nil}
		a.Link = info != nil && info.Mode()&os.ModeSymlink != 0
		if t.Node.IsDir() {
			a.Kind = CreateDir
			if info != nil && (!info.IsDir() || info.Mode()&os.ModeSymlink != 0) {
				a.WouldConflict, a.Existing = true, describe(info)
			}
		} else {
			a.Kind = CreateFile
			a.Content = t.Node.Content
			if info != nil && !info.Mode().IsRegular() {
				a.WouldConflict, a.Existing = true, describe(info)
			}
		}
		p.add(a)
		if t.Node.IsDir() && (info == nil || a.WouldConflict) {
			absent[t.Rel] = true
		}
		if a.WouldConflict {
			continue
		}

		// 3) Права.
		if m := resolveMode(t, o); m != 0 && posixModes {
			p.add(Action{Kind: SetMode, Path: t.Path, Rel: t.Rel, Mode: m})
		}
	}
	return p, nil
}

func (p *Plan) add(a Action) { p.Actions = append(p.Actions, a) }

// resolveMode: права узла важнее шаблонов, шаблоны важнее общих флагов.
func resolveMode(t safety.Target, o Options) os.FileMode {
	if t.Node.Mode != 0 {
		return t.Node.Mode
	}
	if t.Node.Kind == tree.Dir {
		return o.DirMode
	}
	for _, pat := range o.ExecGlobs {
		if ok, _ := doublestar.Match(pat, t.Rel); ok {
			return 0o755
		}
	}
	return o.FileMode
}

func describe(info os.FileInfo) string {
	switch m := info.Mode(); {
	case m&os.ModeSymlink != 0:
		return "символическая ссылка"
	case m.IsDir():
		return "каталог"
	case m.IsRegular():
		return "файл"
	default:
		return "специальный файл"
	}
}
