package errs

import (
	"errors"
	"io/fs"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsLineAndSource(t *testing.T) {
	base := errors.New("boom")
	err := Parse(7, base)

	require.NotNil(t, err)
	assert.True(t, IsParse(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, CodeParseFailed, err.TextCode)
	assert.Equal(t, 7, err.Metadata["line"])
	assert.Contains(t, err.Error(), "строка 7")
}

func TestParseNil(t *testing.T) {
	assert.Nil(t, Parse(1, nil))
}

func TestInFileKeepsCategory(t *testing.T) {
	err := InFile("layout.json", Escape("../x"))

	assert.True(t, IsPath(err))
	assert.False(t, IsParse(err))
	assert.Contains(t, err.Error(), "layout.json")

	var e *goerrors.Error
	require.True(t, goerrors.As(err, &e))
	assert.Equal(t, CodePathEscape, e.TextCode)
	assert.Equal(t, "layout.json", e.Metadata["file"])
	assert.Equal(t, "../x", e.Metadata["path"])
}

func TestFilesystemAndConflict(t *testing.T) {
	err := Filesystem("mkdir", "/tmp/x", fs.ErrPermission)
	assert.True(t, IsFilesystem(err))
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.False(t, IsConflict(err))

	c := Conflict("/tmp/x", "файл", true)
	assert.True(t, IsFilesystem(c))
	assert.True(t, IsConflict(c))
	assert.True(t, IsConflict(InFile("a.yaml", c)))
	assert.Contains(t, c.Error(), "используйте --clean")

	link := Conflict("/tmp/x", "символическая ссылка", false)
	assert.True(t, IsConflict(link))
	assert.NotContains(t, link.Error(), "используйте --clean")
	assert.Contains(t, link.Error(), "не удаляется и с --clean")
}

func TestPathInvalid(t *testing.T) {
	err := Path("a/..", errors.New("bad"))
	assert.True(t, IsPath(err))
	assert.Equal(t, CodePathInvalid, err.TextCode)
}
