// Package errs описывает три вида ошибок treegen поверх go-errors:
// разбор входа, недопустимый путь и операция с файловой системой.
package errs

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	CategoryParse      goerrors.Category = "parse"
	CategoryPath       goerrors.Category = "path"
	CategoryFilesystem goerrors.Category = "filesystem"
)

const (
	CodeParseFailed   = "PARSE_FAILED"
	CodePathInvalid   = "PATH_INVALID"
	CodePathEscape    = "PATH_ESCAPE"
	CodeConflict      = "FS_CONFLICT"
	CodeOperationFail = "FS_OPERATION_FAILED"
)

// Parse — ошибка разбора. line <= 0 означает, что строка неизвестна.
func Parse(line int, err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	msg := "ошибка разбора"
	if line > 0 {
		msg = fmt.Sprintf("строка %d", line)
	}
	e := goerrors.Wrap(err, CategoryParse, msg)
	if e.TextCode == "" {
		e = e.WithTextCode(CodeParseFailed)
	}
	if line > 0 {
		e = e.WithMetadata(map[string]any{"line": line})
	}
	return e
}

// Parsef — то же, что Parse, но с сообщением по формату.
func Parsef(line int, format string, args ...any) *goerrors.Error {
	return Parse(line, fmt.Errorf(format, args...))
}

// InFile дописывает имя входного файла к любой ошибке.
// Категория исходной ошибки сохраняется.
func InFile(file string, err error) error {
	if err == nil {
		return nil
	}
	e := goerrors.Wrap(err, CategoryParse, fmt.Sprintf("файл %s", file))
	return e.WithMetadata(map[string]any{"file": file})
}

// Path — недопустимый сегмент пути.
func Path(path string, err error) *goerrors.Error {
	return goerrors.Wrap(err, CategoryPath, fmt.Sprintf("недопустимый путь %q", path)).
		WithTextCode(CodePathInvalid).
		WithMetadata(map[string]any{"path": path})
}

// Escape — путь выходит за пределы выходного каталога.
func Escape(path string) *goerrors.Error {
	return goerrors.New(fmt.Sprintf("попытка выхода за пределы корня: %s", path), CategoryPath).
		WithTextCode(CodePathEscape).
		WithMetadata(map[string]any{"path": path})
}

// Filesystem — ошибка операции op над path.
func Filesystem(op, path string, err error) *goerrors.Error {
	return goerrors.Wrap(err, CategoryFilesystem, fmt.Sprintf("%s %s", op, path)).
		WithTextCode(CodeOperationFail).
		WithMetadata(map[string]any{"op": op, "path": path})
}

// Conflict — по пути уже есть элемент другого вида. cleanable — устранит
// ли конфликт флаг --clean; от этого зависит подсказка.
func Conflict(path, existing string, cleanable bool) *goerrors.Error {
	hint := "используйте --clean"
	if !cleanable {
		hint = "не удаляется и с --clean"
	}
	msg := fmt.Sprintf("конфликт: по пути %s уже существует %s (%s)", path, existing, hint)
	return goerrors.New(msg, CategoryFilesystem).
		WithTextCode(CodeConflict).
		WithMetadata(map[string]any{"path": path})
}

func IsParse(err error) bool      { return goerrors.IsCategory(err, CategoryParse) }
func IsPath(err error) bool       { return goerrors.IsCategory(err, CategoryPath) }
func IsFilesystem(err error) bool { return goerrors.IsCategory(err, CategoryFilesystem) }

// IsConflict сообщает, что ошибка — конфликт занятого пути.
func IsConflict(err error) bool {
	var e *goerrors.Error
	return goerrors.As(err, &e) && e.TextCode == CodeConflict
}
