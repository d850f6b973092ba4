package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AnNingUI/treegen/internal/errs"
	"github.com/AnNingUI/treegen/internal/tree"
)

// Format — поддерживаемый формат входного файла.
type Format string

const (
	Markdown Format = "markdown"
	YAML     Format = "yaml"
	JSON     Format = "json"
	TOML     Format = "toml"
	JSON5    Format = "json5"
)

// Parser превращает текст входного файла в каноническое дерево.
type Parser interface {
	Parse(data []byte) (*tree.Node, error)
}

var parsers = map[Format]Parser{
	Markdown: markdownParser{},
	YAML:     yamlParser{},
	JSON:     jsonParser{},
	TOML:     tomlParser{},
	JSON5:    json5Parser{},
}

var extensions = map[string]Format{
	".md":       Markdown,
	".markdown": Markdown,
	".tree":     Markdown,
	".txt":      Markdown,
	".yaml":     YAML,
	".yml":      YAML,
	".json":     JSON,
	".toml":     TOML,
	".json5":    JSON5,
}

// Formats возвращает все известные форматы (для справки и валидации).
func Formats() []Format {
	return []Format{Markdown, YAML, JSON, TOML, JSON5}
}

// ParseFormat разбирает имя формата, заданное пользователем.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "md":
		return Markdown, nil
	case "yml":
		return YAML, nil
	}
	if _, ok := parsers[f]; !ok {
		return "", fmt.Errorf("неизвестный формат %q", s)
	}
	return f, nil
}

// DetectFormat определяет формат по расширению файла.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", errs.Parsef(0, "неподдерживаемое расширение %q (укажите --format)", filepath.Base(path))
}

// Parse разбирает data в формате f.
func Parse(f Format, data []byte) (*tree.Node, error) {
	p, ok := parsers[f]
	if !ok {
		return nil, errs.Parsef(0, "неизвестный формат %q", f)
	}
	return p.Parse(data)
}
