package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/AnNingUI/treegen/internal/errs"
	"github.com/AnNingUI/treegen/internal/fsops"
	"github.com/AnNingUI/treegen/internal/log"
	"github.com/AnNingUI/treegen/internal/parser"
	"github.com/AnNingUI/treegen/internal/plan"
	"github.com/AnNingUI/treegen/internal/report"
	"github.com/AnNingUI/treegen/internal/safety"
)

// StdinName — имя входа, которое означает стандартный ввод.
const StdinName = "-"

// Options — все настройки запуска утилиты.
type Options struct {
	Inputs    []string    // файлы со структурой, по порядку
	Format    string      // принудительный формат; пусто — по расширению
	OutDir    string      // выходной каталог; пусто — текущий
	DryRun    bool
	Verbose   bool
	Quiet     bool
	Clean     bool        // удалять мешающие существующие элементы
	FileMode  os.FileMode // 0 — права файлов не менять
	DirMode   os.FileMode // 0 — права каталогов не менять
	ExecGlobs []string

	Stdin  io.Reader        // по умолчанию os.Stdin
	Stdout io.Writer        // по умолчанию os.Stdout
	FS     billy.Filesystem // по умолчанию osfs, привязанная к OutDir
}

// Validate проверяет настройки до того, как что-либо прочитано.
func (o Options) Validate() error {
	verr := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&o,
			validation.Field(&o.Inputs,
				validation.Required.Error("не указан ни один входной файл"),
				validation.Each(validation.Required.Error("пустое имя входного файла")),
				validation.By(stdinNeedsFormat(o.Format)),
			),
			validation.Field(&o.Format, validation.By(knownFormat)),
			validation.Field(&o.FileMode, validation.By(validMode)),
			validation.Field(&o.DirMode, validation.By(validMode)),
			validation.Field(&o.ExecGlobs, validation.Each(validation.By(validGlob))),
		)
	}, "некорректные параметры запуска")
	if verr != nil {
		return verr
	}
	return nil
}

func stdinNeedsFormat(format string) validation.RuleFunc {
	return func(v any) error {
		n := 0
		for _, in := range v.([]string) {
			if in == StdinName {
				n++
			}
		}
		switch {
		case n > 1:
			return validation.NewError("validation_stdin_twice", "стандартный ввод можно указать только один раз")
		case n == 1 && format == "":
			return validation.NewError("validation_stdin_format", "для чтения из stdin укажите --format")
		}
		return nil
	}
}

func knownFormat(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if _, err := parser.ParseFormat(s); err != nil {
		return validation.NewError("validation_format", err.Error())
	}
	return nil
}

func validMode(v any) error {
	if m, _ := v.(os.FileMode); m > 0o777 {
		return validation.NewError("validation_mode", fmt.Sprintf("права %o вне диапазона 0..777", uint32(m)))
	}
	return nil
}

func validGlob(v any) error {
	s, _ := v.(string)
	if !doublestar.ValidatePattern(s) {
		return validation.NewError("validation_glob", fmt.Sprintf("некорректный шаблон %q", s))
	}
	return nil
}

// Run — главная функция приложения: для каждого входного файла читает,
// разбирает, проверяет пути, строит план и применяет его.
// Файлы обрабатываются строго по очереди; первая ошибка останавливает запуск.
func Run(o Options) error {
	if err := o.Validate(); err != nil {
		return err
	}
	log.SetVerbosity(o.Verbose, o.Quiet)

	stdout := o.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	outDir := o.OutDir
	if outDir == "" {
		outDir = "."
	}
	outDir, err := filepath.Abs(outDir)
	if err != nil {
		return errs.Path(o.OutDir, err)
	}
	fs := o.FS
	if fs == nil {
		fs = osfs.New(outDir, osfs.WithBoundOS())
	}

	rec := &report.Recorder{}
	var rep report.Reporter = rec
	if !o.Quiet {
		rep = report.Tee(report.NewConsole(stdout, o.Verbose), rec)
	}

	r := runner{opts: o, outDir: outDir, fs: fs, rep: rep, rec: rec}
	for _, in := range o.Inputs {
		if err := r.runOne(in); err != nil {
			return errs.InFile(displayName(in), err)
		}
	}

	if !o.Quiet && !o.DryRun {
		fmt.Fprintf(stdout, "Готово: %s\n", outDir)
	}
	return nil
}

type runner struct {
	opts   Options
	outDir string
	fs     billy.Filesystem
	rep    report.Reporter
	rec    *report.Recorder
}

func (r *runner) runOne(in string) error {
	r.rec.Reset()

	// 1) Читаем вход: файл или stdin.
	data, err := r.read(in)
	if err != nil {
		return err
	}

	// 2) Определяем формат и разбираем дерево.
	format, err := r.format(in)
	if err != nil {
		return err
	}
	log.Debug("%s: формат %s", displayName(in), format)
	root, err := parser.Parse(format, data)
	if err != nil {
		return err
	}

	// 3) Проверяем имена и вычисляем пути. До этого места диск не тронут.
	targets, err := safety.Resolve(root, r.outDir)
	if err != nil {
		return err
	}

	// 4) План и его применение.
	p, err := plan.Build(r.outDir, targets, r.fs, plan.Options{
		Clean:     r.opts.Clean,
		FileMode:  r.opts.FileMode,
		DirMode:   r.opts.DirMode,
		ExecGlobs: r.opts.ExecGlobs,
	})
	if err != nil {
		return err
	}
	if err := fsops.Apply(fsops.Args{FS: r.fs, Plan: p, DryRun: r.opts.DryRun, Reporter: r.rep}); err != nil {
		return err
	}

	// 5) Итог по файлу.
	verb := "создано"
	if r.opts.DryRun {
		verb = "будет создано"
	}
	log.Info("%s: %s каталогов: %d, файлов: %d", displayName(in), verb,
		r.rec.Count(plan.CreateDir), r.rec.Count(plan.CreateFile))
	return nil
}

func (r *runner) read(in string) ([]byte, error) {
	if in == StdinName {
		stdin := r.opts.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errs.Filesystem("read", "stdin", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, errs.Filesystem("read", in, err)
	}
	return data, nil
}

func (r *runner) format(in string) (parser.Format, error) {
	if r.opts.Format != "" {
		f, err := parser.ParseFormat(r.opts.Format)
		if err != nil {
			return "", errs.Parse(0, err)
		}
		return f, nil
	}
	return parser.DetectFormat(in)
}

func displayName(in string) string {
	if in == StdinName {
		return "stdin"
	}
	return in
}

// SplitGlobs разбирает список шаблонов через запятую.
func SplitGlobs(values ...string) []string {
	var out []string
	for _, s := range values {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
