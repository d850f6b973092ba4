package safety

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnNingUI/treegen/internal/errs"
	"github.com/AnNingUI/treegen/internal/tree"
)

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"main.go", ".env", "..hidden", "a b", "файл.txt"} {
		assert.NoError(t, ValidateName(ok), ok)
	}
	for _, bad := range []string{"", ".", "..", "a/b", `a\b`, "/etc", "a\x00b"} {
		assert.Error(t, ValidateName(bad), "%q", bad)
	}
}

func TestSafeJoin(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")

	p, err := SafeJoin(root, "a", "b.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "b.txt"), p)

	_, err = SafeJoin(root, "a", "..", "..", "x")
	require.Error(t, err)
	assert.True(t, errs.IsPath(err))
	assert.Contains(t, err.Error(), errs.CodePathEscape)
}

func TestResolve(t *testing.T) {
	out := t.TempDir()
	root := tree.NewRoot()
	project := tree.NewDir("project")
	src := tree.NewDir("src")
	require.NoError(t, root.Add(project))
	require.NoError(t, project.Add(src))
	require.NoError(t, src.Add(tree.NewFile("main.go")))
	require.NoError(t, project.Add(tree.NewFile("README.md")))

	targets, err := Resolve(root, out)
	require.NoError(t, err)

	var rels []string
	for _, tg := range targets {
		rels = append(rels, tg.Rel)
		assert.Equal(t, filepath.Join(out, filepath.FromSlash(tg.Rel)), tg.Path)
		assert.True(t, strings.HasPrefix(tg.Path, out+string(filepath.Separator)))
		assert.Equal(t, strings.Count(tg.Rel, "/"), tg.Depth)
	}
	assert.Equal(t, []string{"project", "project/src", "project/src/main.go", "project/README.md"}, rels)
	assert.Same(t, src, targets[1].Node)
}

func TestResolveRejectsBadSegments(t *testing.T) {
	for _, name := range []string{"..", ".", "a/../../b", `..\x`, "", "nul\x00"} {
		t.Run(name, func(t *testing.T) {
			root := tree.NewRoot()
			dir := tree.NewDir("ok")
			root.Children = append(root.Children, dir)
			dir.Children = append(dir.Children, tree.NewFile(name))

			targets, err := Resolve(root, t.TempDir())
			require.Error(t, err)
			assert.Nil(t, targets)
			assert.True(t, errs.IsPath(err))
		})
	}
}

func TestResolveRelativeOutDir(t *testing.T) {
	root := tree.NewRoot()
	root.Children = append(root.Children, tree.NewFile("a.txt"))

	targets, err := Resolve(root, ".")
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.True(t, filepath.IsAbs(targets[0].Path))
	assert.Equal(t, "a.txt", targets[0].Rel)
}
