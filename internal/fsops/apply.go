package fsops

import (
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/AnNingUI/treegen/internal/errs"
	"github.com/AnNingUI/treegen/internal/log"
	"github.com/AnNingUI/treegen/internal/plan"
	"github.com/AnNingUI/treegen/internal/report"
)

// Права, с которыми элементы создаются до отдельного chmod.
const (
	defaultDirPerm  os.FileMode = 0o755
	defaultFilePerm os.FileMode = 0o644
)

// Args — параметры применения плана к файловой системе.
type Args struct {
	// FS привязана к выходному каталогу: пути действий берутся из Action.Rel.
	FS       billy.Filesystem
	Plan     *plan.Plan
	DryRun   bool
	Reporter report.Reporter
}

// Apply выполняет действия плана по порядку и сообщает о каждом.
// Первая же ошибка прерывает работу, сделанное не откатывается.
// В режиме DryRun ничего не меняется: показывается весь план, а если
// в нём есть конфликты, возвращается первый из них.
func Apply(a Args) error {
	// Без получателя событий действия видны только в отладочном логе.
	rep, logActions := a.Reporter, a.Reporter == nil
	if rep == nil {
		rep = report.Discard
	}

	var firstConflict error
	for _, act := range a.Plan.Actions {
		if act.WouldConflict {
			conflict := errs.Conflict(act.Path, act.Existing, !act.Link)
			if !a.DryRun {
				return conflict
			}
			if firstConflict == nil {
				firstConflict = conflict
			}
		} else if !a.DryRun {
			if err := execute(a.FS, act); err != nil {
				return err
			}
		}
		if logActions {
			log.Debug("%s %s", act.Kind, act.Rel)
		}
		rep.Report(report.Event{Action: act, DryRun: a.DryRun})
	}
	return firstConflict
}

func execute(fs billy.Filesystem, act plan.Action) error {
	switch act.Kind {
	case plan.Clean:
		if err := util.RemoveAll(fs, act.Rel); err != nil {
			return errs.Filesystem("rm", act.Path, err)
		}
	case plan.CreateDir:
		// Уже существующий каталог — не ошибка.
		if err := fs.MkdirAll(act.Rel, defaultDirPerm); err != nil {
			return errs.Filesystem("mkdir", act.Path, err)
		}
	case plan.CreateFile:
		return writeFile(fs, act)
	case plan.SetMode:
		return chmod(fs, act)
	}
	return nil
}

// writeFile создаёт файл или усекает существующий и пишет содержимое.
func writeFile(fs billy.Filesystem, act plan.Action) error {
	f, err := fs.OpenFile(act.Rel, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, defaultFilePerm)
	if err != nil {
		return errs.Filesystem("create", act.Path, err)
	}
	if len(act.Content) > 0 {
		if _, err := f.Write(act.Content); err != nil {
			_ = f.Close()
			return errs.Filesystem("write", act.Path, err)
		}
	}
	if err := f.Close(); err != nil {
		return errs.Filesystem("close", act.Path, err)
	}
	return nil
}

func chmod(fs billy.Filesystem, act plan.Action) error {
	ch, ok := fs.(billy.Chmod)
	if !ok {
		log.Warn("файловая система не поддерживает chmod, права %s не изменены", act.Rel)
		return nil
	}
	// Бит типа сохраняется: иначе память billy теряет признак каталога.
	info, err := fs.Lstat(act.Rel)
	if err != nil {
		return errs.Filesystem("stat", act.Path, err)
	}
	if err := ch.Chmod(act.Rel, info.Mode().Type()|act.Mode.Perm()); err != nil {
		return errs.Filesystem("chmod", act.Path, err)
	}
	return nil
}
