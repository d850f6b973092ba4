package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AnNingUI/treegen/internal/app"
	"github.com/AnNingUI/treegen/internal/log"
	"github.com/AnNingUI/treegen/internal/parser"
	"github.com/AnNingUI/treegen/internal/tree"
)

// Версию можно переопределить через -ldflags "-X main.version=1.0.0"
var version = "dev"

func main() {
	err := newRootCmd().Execute()
	log.Sync()
	if err != nil {
		fail(err)
	}
}

func newRootCmd() *cobra.Command {
	var (
		opts      app.Options
		fileMode  string
		dirMode   string
		execGlobs []string
	)

	cmd := &cobra.Command{
		Use:   "treegen [flags] SPEC...",
		Short: "Создаёт каталоги и файлы по описанию структуры",
		Long: `treegen создаёт дерево каталогов и файлов по описанию в одном из форматов:
Markdown (листинг tree или маркированный список), YAML, JSON, TOML, JSON5.

Каталог обозначается "/" в конце имени (Markdown) или вложенным отображением
(структурированные форматы). Строковое значение в YAML/JSON/TOML/JSON5 —
содержимое файла.`,
		Example: `  treegen layout.md
  treegen -o ./dst --dry-run layout.yaml
  cat layout.json | treegen -f json -
  treegen --clean --mode 0644 --exec-glob "**/*.sh" a.toml b.json5`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			// Разбор прав доступа
			if opts.FileMode, err = parsePerm(fileMode); err != nil {
				return fmt.Errorf("неверные права --mode: %w", err)
			}
			if opts.DirMode, err = parsePerm(dirMode); err != nil {
				return fmt.Errorf("неверные права --dir-mode: %w", err)
			}
			opts.ExecGlobs = app.SplitGlobs(execGlobs...)
			opts.Inputs = args
			opts.Stdin = cmd.InOrStdin()
			opts.Stdout = cmd.OutOrStdout()
			return app.Run(opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.OutDir, "out", "o", ".", "Выходной каталог")
	f.BoolVar(&opts.DryRun, "dry-run", false, "Только показать, что будет сделано")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Строка на каждое действие")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "Подавить обычные сообщения")
	f.BoolVar(&opts.Clean, "clean", false, "Удалять существующие элементы по путям из описания")
	f.StringVar(&fileMode, "mode", "", "Права для файлов (восьмерично, например 0644)")
	f.StringVar(&dirMode, "dir-mode", "", "Права для каталогов (восьмерично, например 0755)")
	f.StringArrayVar(&execGlobs, "exec-glob", nil, `Шаблоны исполняемых файлов (0755), например "**/*.sh,bin/*"`)
	f.StringVarP(&opts.Format, "format", "f", "", "Формат входа: "+formatNames()+" (обязателен для stdin)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	cmd.SetVersionTemplate("{{.Version}}\n")
	return cmd
}

func parsePerm(s string) (os.FileMode, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return tree.ParseMode(s)
}

func formatNames() string {
	var names []string
	for _, f := range parser.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "ошибка: %v\n", err)
	os.Exit(1)
}
