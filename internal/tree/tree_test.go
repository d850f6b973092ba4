package tree

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Node {
	t.Helper()
	root := NewRoot()
	project := NewDir("project")
	src := NewDir("src")
	require.NoError(t, root.Add(project))
	require.NoError(t, project.Add(src))
	require.NoError(t, src.Add(NewFile("main.go")))
	require.NoError(t, src.Add(NewFile("lib.go")))
	require.NoError(t, project.Add(NewFile("README.md")))
	return root
}

func TestAddRejectsDuplicates(t *testing.T) {
	d := NewDir("d")
	require.NoError(t, d.Add(NewFile("a")))

	err := d.Add(NewDir("a"))
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.Len(t, d.Children, 1)
}

func TestAddToFile(t *testing.T) {
	f := NewFile("f")
	assert.ErrorIs(t, f.Add(NewFile("x")), ErrFileChildren)
}

func TestWalkPreOrder(t *testing.T) {
	var got []string
	err := Walk(sample(t), func(parents []string, n *Node) error {
		got = append(got, strings.Join(append(parents, n.Name), "/"))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"project",
		"project/src",
		"project/src/main.go",
		"project/src/lib.go",
		"project/README.md",
	}, got)
}

func TestWalkStops(t *testing.T) {
	visited := 0
	err := Walk(sample(t), func(_ []string, n *Node) error {
		visited++
		if n.Name == "src" {
			return os.ErrInvalid
		}
		return nil
	})
	assert.ErrorIs(t, err, os.ErrInvalid)
	assert.Equal(t, 2, visited)
}

func TestCount(t *testing.T) {
	dirs, files := Count(sample(t))
	assert.Equal(t, 2, dirs)
	assert.Equal(t, 3, files)

	dirs, files = Count(NewRoot())
	assert.Zero(t, dirs)
	assert.Zero(t, files)
}

func TestLookup(t *testing.T) {
	root := sample(t)
	project := root.Lookup("project")
	require.NotNil(t, project)
	assert.True(t, project.IsDir())
	assert.NotNil(t, project.Lookup("README.md"))
	assert.Nil(t, project.Lookup("missing"))
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]os.FileMode{
		"644":   0o644,
		"0644":  0o644,
		"0o755": 0o755,
		"0O700": 0o700,
		" 600 ": 0o600,
		"0":     0,
		"777":   0o777,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "0o", "8", "0x1ff", "1000", "rwx"} {
		_, err := ParseMode(in)
		assert.Error(t, err, in)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "dir", Dir.String())
	assert.Equal(t, "file", File.String())
}
