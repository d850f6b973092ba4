package app

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnNingUI/treegen/internal/errs"
)

func writeLayout(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func assertDir(t *testing.T, p string) {
	t.Helper()
	fi, err := os.Stat(p)
	require.NoError(t, err)
	assert.True(t, fi.IsDir(), "%s должен быть каталогом", p)
}

func assertFile(t *testing.T, p, content string) {
	t.Helper()
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, content, string(data), p)
}

func TestRunJSON(t *testing.T) {
	dir, out := t.TempDir(), t.TempDir()
	in := writeLayout(t, dir, "layout.json",
		`{ "project": { "src": { "main.txt": null, "lib.txt": null }, "README.md": null } }`)

	var buf bytes.Buffer
	err := Run(Options{Inputs: []string{in}, OutDir: out, Stdout: &buf})
	require.NoError(t, err)

	assertDir(t, filepath.Join(out, "project"))
	assertDir(t, filepath.Join(out, "project", "src"))
	assertFile(t, filepath.Join(out, "project", "src", "main.txt"), "")
	assertFile(t, filepath.Join(out, "project", "src", "lib.txt"), "")
	assertFile(t, filepath.Join(out, "project", "README.md"), "")
	assert.Equal(t, "Готово: "+out+"\n", buf.String())
}

func TestRunMarkdown(t *testing.T) {
	dir, out := t.TempDir(), t.TempDir()
	in := writeLayout(t, dir, "layout.md", strings.Join([]string{
		"project/",
		"├── src/",
		"│   └── main.rs",
		"└── README.md",
	}, "\n"))

	require.NoError(t, Run(Options{Inputs: []string{in}, OutDir: out, Quiet: true}))

	assertDir(t, filepath.Join(out, "project", "src"))
	assertFile(t, filepath.Join(out, "project", "src", "main.rs"), "")
	assertFile(t, filepath.Join(out, "project", "README.md"), "")
}

func TestRunFilesInOrder(t *testing.T) {
	dir, out := t.TempDir(), t.TempDir()
	a := writeLayout(t, dir, "a.yaml", "app:\n  f.txt: one\n  only-a.txt: a\n")
	b := writeLayout(t, dir, "b.toml", "[app]\n\"f.txt\" = \"two\"\n")

	require.NoError(t, Run(Options{Inputs: []string{a, b}, OutDir: out, Quiet: true}))

	assertFile(t, filepath.Join(out, "app", "f.txt"), "two")
	assertFile(t, filepath.Join(out, "app", "only-a.txt"), "a")
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	dir, out := t.TempDir(), t.TempDir()
	a := writeLayout(t, dir, "a.json", `{"first": {"x": null}}`)
	b := writeLayout(t, dir, "b.json", `{"broken": `)
	c := writeLayout(t, dir, "c.json", `{"third": {"x": null}}`)

	err := Run(Options{Inputs: []string{a, b, c}, OutDir: out, Quiet: true})
	require.Error(t, err)
	assert.True(t, errs.IsParse(err))

	assertDir(t, filepath.Join(out, "first"))
	assert.NoDirExists(t, filepath.Join(out, "third"))
}

func TestRunPathEscapeTouchesNothing(t *testing.T) {
	dir, out := t.TempDir(), t.TempDir()
	in := writeLayout(t, dir, "evil.json", `{"ok.txt": null, "..": {"x": null}}`)

	err := Run(Options{Inputs: []string{in}, OutDir: out, Quiet: true})
	require.Error(t, err)
	assert.True(t, errs.IsPath(err))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunConflictAndClean(t *testing.T) {
	dir, out := t.TempDir(), t.TempDir()
	in := writeLayout(t, dir, "layout.json", `{"app": {"main.go": "package main\n"}}`)
	require.NoError(t, os.WriteFile(filepath.Join(out, "app"), []byte("старый файл"), 0o644))

	err := Run(Options{Inputs: []string{in}, OutDir: out, Quiet: true})
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))
	assertFile(t, filepath.Join(out, "app"), "старый файл")

	require.NoError(t, Run(Options{Inputs: []string{in}, OutDir: out, Quiet: true, Clean: true}))
	assertFile(t, filepath.Join(out, "app", "main.go"), "package main\n")
}

func TestRunDryRun(t *testing.T) {
	dir, out := t.TempDir(), t.TempDir()
	in := writeLayout(t, dir, "layout.yaml", "project:\n  README.md:\n")

	var buf bytes.Buffer
	require.NoError(t, Run(Options{Inputs: []string{in}, OutDir: out, DryRun: true, Stdout: &buf}))

	assert.Equal(t, []string{
		"[dry-run] mkdir " + filepath.Join(out, "project"),
		"[dry-run] touch " + filepath.Join(out, "project", "README.md"),
	}, strings.Split(strings.TrimRight(buf.String(), "\n"), "\n"))
	assert.NoDirExists(t, filepath.Join(out, "project"))
}

func TestRunDryRunReportsConflict(t *testing.T) {
	dir, out := t.TempDir(), t.TempDir()
	in := writeLayout(t, dir, "layout.json", `{"app": {"x": null}}`)
	require.NoError(t, os.WriteFile(filepath.Join(out, "app"), nil, 0o644))

	var buf bytes.Buffer
	err := Run(Options{Inputs: []string{in}, OutDir: out, DryRun: true, Stdout: &buf})
	assert.True(t, errs.IsConflict(err))
	assert.Contains(t, buf.String(), "[dry-run] conflict "+filepath.Join(out, "app"))
	assert.Contains(t, buf.String(), "[dry-run] touch "+filepath.Join(out, "app", "x"))
}

func TestRunVerbose(t *testing.T) {
	dir, out := t.TempDir(), t.TempDir()
	in := writeLayout(t, dir, "layout.json", `{"a": {"b.txt": null}}`)

	var buf bytes.Buffer
	require.NoError(t, Run(Options{Inputs: []string{in}, OutDir: out, Verbose: true, Stdout: &buf}))

	assert.Contains(t, buf.String(), "mkdir "+filepath.Join(out, "a")+"\n")
	assert.Contains(t, buf.String(), "touch "+filepath.Join(out, "a", "b.txt")+"\n")
	assert.NotContains(t, buf.String(), "[dry-run]")
}

func TestRunQuiet(t *testing.T) {
	dir, out := t.TempDir(), t.TempDir()
	in := writeLayout(t, dir, "layout.json", `{"a": null}`)

	var buf bytes.Buffer
	require.NoError(t, Run(Options{Inputs: []string{in}, OutDir: out, Quiet: true, Stdout: &buf}))
	assert.Empty(t, buf.String())
	assertFile(t, filepath.Join(out, "a"), "")
}

func TestRunStdin(t *testing.T) {
	out := t.TempDir()
	err := Run(Options{
		Inputs: []string{StdinName},
		Format: "yaml",
		OutDir: out,
		Quiet:  true,
		Stdin:  strings.NewReader("docs:\n  - intro.md\n  - api/\n"),
	})
	require.NoError(t, err)

	assertFile(t, filepath.Join(out, "docs", "intro.md"), "")
	assertDir(t, filepath.Join(out, "docs", "api"))
}

func TestRunModes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("нет битов прав POSIX")
	}
	dir, out := t.TempDir(), t.TempDir()
	in := writeLayout(t, dir, "layout.json", `{"bin": {"run.sh": null, "notes.txt": null}}`)

	err := Run(Options{
		Inputs:    []string{in},
		OutDir:    out,
		Quiet:     true,
		FileMode:  0o600,
		DirMode:   0o750,
		ExecGlobs: []string{"**/*.sh"},
	})
	require.NoError(t, err)

	perm := func(p string) os.FileMode {
		fi, err := os.Stat(filepath.Join(out, p))
		require.NoError(t, err)
		return fi.Mode().Perm()
	}
	assert.Equal(t, os.FileMode(0o750), perm("bin"))
	assert.Equal(t, os.FileMode(0o755), perm("bin/run.sh"))
	assert.Equal(t, os.FileMode(0o600), perm("bin/notes.txt"))
}

func TestRunUnknownExtension(t *testing.T) {
	dir, out := t.TempDir(), t.TempDir()
	in := writeLayout(t, dir, "layout.ini", "[x]")

	err := Run(Options{Inputs: []string{in}, OutDir: out, Quiet: true})
	require.Error(t, err)
	assert.True(t, errs.IsParse(err))
}

func TestRunMissingInput(t *testing.T) {
	err := Run(Options{Inputs: []string{filepath.Join(t.TempDir(), "нет.json")}, OutDir: t.TempDir(), Quiet: true})
	require.Error(t, err)
	assert.True(t, errs.IsFilesystem(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"ok", Options{Inputs: []string{"a.md"}}, false},
		{"stdin with format", Options{Inputs: []string{"-"}, Format: "json"}, false},
		{"globs", Options{Inputs: []string{"a.md"}, ExecGlobs: []string{"**/*.sh", "bin/*"}}, false},
		{"modes", Options{Inputs: []string{"a.md"}, FileMode: 0o644, DirMode: 0o777}, false},
		{"no inputs", Options{}, true},
		{"empty input", Options{Inputs: []string{""}}, true},
		{"stdin without format", Options{Inputs: []string{"-"}}, true},
		{"stdin twice", Options{Inputs: []string{"-", "-"}, Format: "yaml"}, true},
		{"unknown format", Options{Inputs: []string{"a.md"}, Format: "xml"}, true},
		{"mode out of range", Options{Inputs: []string{"a.md"}, FileMode: 0o1777}, true},
		{"dir mode out of range", Options{Inputs: []string{"a.md"}, DirMode: 0o4755}, true},
		{"bad glob", Options{Inputs: []string{"a.md"}, ExecGlobs: []string{"bin/["}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitGlobs(t *testing.T) {
	assert.Equal(t, []string{"**/*.sh", "bin/*", "tools/*"},
		SplitGlobs("**/*.sh, bin/*", "", " tools/* ,"))
	assert.Nil(t, SplitGlobs())
}
