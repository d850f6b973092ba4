package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/AnNingUI/treegen/internal/errs"
	"github.com/AnNingUI/treegen/internal/tree"
)

type valueKind int

const (
	nullValue valueKind = iota
	scalarValue
	mapValue
	listValue
)

// value — общее промежуточное представление YAML/JSON/TOML/JSON5.
// В отличие от map[string]any сохраняет порядок ключей и номер строки.
type value struct {
	kind    valueKind
	text    string // текст скаляра (для строк — уже без кавычек)
	str     bool   // скаляр — строка
	num     int64  // целое, уже приведённое декодером (TOML)
	hasNum  bool
	entries []entry
	items   []value
	line    int
}

type entry struct {
	key  string
	val  value
	line int
}

// Ключи помеченной формы: {type: file|dir, mode: 0644, content: "...", children: {...}}.
const (
	tagType     = "type"
	tagMode     = "mode"
	tagContent  = "content"
	tagChildren = "children"
)

// buildTree превращает разобранный документ в каноническое дерево.
// Правило: null, скаляр или пустое отображение — файл;
// непустое отображение или список — каталог.
func buildTree(doc value) (*tree.Node, error) {
	root := tree.NewRoot()
	switch doc.kind {
	case nullValue:
		return root, nil
	case mapValue:
		if err := addEntries(root, doc.entries); err != nil {
			return nil, err
		}
	case listValue:
		if err := addItems(root, doc.items); err != nil {
			return nil, err
		}
	default:
		return nil, errs.Parsef(doc.line, "документ должен быть отображением имён, а не скаляром")
	}
	return root, nil
}

func addEntries(parent *tree.Node, entries []entry) error {
	for _, e := range entries {
		n, err := buildNode(e.key, e.val, e.line)
		if err != nil {
			return err
		}
		if err := parent.Add(n); err != nil {
			return errs.Parse(e.line, err)
		}
	}
	return nil
}

func addItems(parent *tree.Node, items []value) error {
	for _, it := range items {
		switch it.kind {
		case scalarValue:
			name := strings.TrimSpace(it.text)
			n := tree.NewFile(name)
			if strings.HasSuffix(name, "/") {
				n = tree.NewDir(strings.TrimRight(name, "/"))
			}
			if err := parent.Add(n); err != nil {
				return errs.Parse(it.line, err)
			}
		case mapValue:
			if isTagged(it) {
				return errs.Parsef(it.line, "помеченный узел в списке должен быть значением ключа")
			}
			if err := addEntries(parent, it.entries); err != nil {
				return err
			}
		case nullValue:
			return errs.Parsef(it.line, "пустой элемент списка в %q", parent.Name)
		default:
			return errs.Parsef(it.line, "вложенные списки не поддерживаются (%q)", parent.Name)
		}
	}
	return nil
}

func buildNode(name string, v value, line int) (*tree.Node, error) {
	// Как и в Markdown, "/" в конце ключа явно обозначает каталог.
	if strings.HasSuffix(name, "/") {
		name = strings.TrimRight(name, "/")
		if v.kind == scalarValue || (v.kind == mapValue && isTagged(v)) {
			return nil, errs.Parsef(line, "%q: каталог не может иметь содержимое", name)
		}
		d := tree.NewDir(name)
		return d, fill(d, v)
	}

	switch v.kind {
	case nullValue:
		return tree.NewFile(name), nil
	case scalarValue:
		f := tree.NewFile(name)
		if v.text != "" {
			f.Content = []byte(v.text)
		}
		return f, nil
	case listValue:
		d := tree.NewDir(name)
		return d, addItems(d, v.items)
	}

	if isTagged(v) {
		return buildTagged(name, v, line)
	}
	if len(v.entries) == 0 {
		return tree.NewFile(name), nil
	}
	d := tree.NewDir(name)
	return d, addEntries(d, v.entries)
}

// fill наполняет каталог d потомками из v.
func fill(d *tree.Node, v value) error {
	switch v.kind {
	case mapValue:
		return addEntries(d, v.entries)
	case listValue:
		return addItems(d, v.items)
	}
	return nil
}

// isTagged — отображение в помеченной форме: есть строковый type
// со значением file/dir и нет посторонних ключей.
func isTagged(v value) bool {
	if v.kind != mapValue {
		return false
	}
	typed := false
	for _, e := range v.entries {
		switch e.key {
		case tagType:
			if e.val.kind != scalarValue || !e.val.str {
				return false
			}
			if _, ok := tagKind(e.val.text); !ok {
				return false
			}
			typed = true
		case tagMode, tagContent, tagChildren:
		default:
			return false
		}
	}
	return typed
}

func tagKind(s string) (tree.Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "file":
		return tree.File, true
	case "dir", "directory":
		return tree.Dir, true
	}
	return 0, false
}

func buildTagged(name string, v value, line int) (*tree.Node, error) {
	var (
		kind     tree.Kind
		mode     os.FileMode
		content  *value
		children *value
	)
	for i := range v.entries {
		e := &v.entries[i]
		switch e.key {
		case tagType:
			kind, _ = tagKind(e.val.text)
		case tagMode:
			m, err := modeOf(e.val)
			if err != nil {
				return nil, errs.Parse(e.line, fmt.Errorf("%q: %w", name, err))
			}
			mode = m
		case tagContent:
			content = &e.val
		case tagChildren:
			children = &e.val
		}
	}

	if kind == tree.File {
		if children != nil && children.kind != nullValue {
			return nil, errs.Parse(line, fmt.Errorf("%q: %w", name, tree.ErrFileChildren))
		}
		f := tree.NewFile(name)
		f.Mode = mode
		if content != nil {
			if content.kind != scalarValue && content.kind != nullValue {
				return nil, errs.Parsef(content.line, "%q: content должен быть строкой", name)
			}
			if content.text != "" {
				f.Content = []byte(content.text)
			}
		}
		return f, nil
	}

	if content != nil {
		return nil, errs.Parsef(content.line, "%q: каталог не может иметь содержимое", name)
	}
	d := tree.NewDir(name)
	d.Mode = mode
	if children != nil {
		if children.kind == scalarValue {
			return nil, errs.Parsef(children.line, "%q: children должен быть отображением или списком", name)
		}
		if err := fill(d, *children); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func modeOf(v value) (os.FileMode, error) {
	if v.kind != scalarValue {
		return 0, fmt.Errorf("mode должен быть восьмеричным числом")
	}
	if v.hasNum {
		if v.num < 0 || v.num > 0o777 {
			return 0, fmt.Errorf("недопустимые права %d: ожидается 0o000..0o777", v.num)
		}
		return os.FileMode(v.num), nil
	}
	return tree.ParseMode(v.text)
}
