package parser

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	yamlparser "github.com/goccy/go-yaml/parser"

	"github.com/AnNingUI/treegen/internal/errs"
	"github.com/AnNingUI/treegen/internal/tree"
)

// yamlParser идёт по AST, а не по map: так сохраняется порядок ключей,
// исходный текст скаляров (0755 остаётся "0755") и номера строк.
type yamlParser struct{}

func (yamlParser) Parse(data []byte) (*tree.Node, error) {
	f, err := yamlparser.ParseBytes(data, 0)
	if err != nil {
		return nil, errs.Parse(yamlErrLine(err), errors.New(yaml.FormatError(err, false, false)))
	}
	var docs []*ast.DocumentNode
	for _, d := range f.Docs {
		if d == nil || d.Body == nil {
			continue
		}
		if _, ok := d.Body.(*ast.CommentGroupNode); ok {
			continue
		}
		docs = append(docs, d)
	}
	switch len(docs) {
	case 0:
		return tree.NewRoot(), nil
	case 1:
	default:
		return nil, errs.Parsef(nodeLine(docs[1].Body), "ожидается один YAML-документ, найдено %d", len(docs))
	}

	v, err := yamlValue(docs[0].Body)
	if err != nil {
		return nil, err
	}
	return buildTree(v)
}

func yamlValue(n ast.Node) (value, error) {
	v := value{line: nodeLine(n)}
	switch n := n.(type) {
	case nil, *ast.NullNode:
		v.kind = nullValue
	case *ast.AnchorNode:
		return yamlValue(n.Value)
	case *ast.TagNode:
		return yamlValue(n.Value)
	case *ast.AliasNode:
		return v, errs.Parsef(v.line, "алиасы YAML не поддерживаются")
	case *ast.MappingNode:
		v.kind = mapValue
		for _, mv := range n.Values {
			e, err := yamlEntry(mv)
			if err != nil {
				return v, err
			}
			v.entries = append(v.entries, e)
		}
	case *ast.MappingValueNode:
		v.kind = mapValue
		e, err := yamlEntry(n)
		if err != nil {
			return v, err
		}
		v.entries = []entry{e}
	case *ast.SequenceNode:
		v.kind = listValue
		for _, item := range n.Values {
			iv, err := yamlValue(item)
			if err != nil {
				return v, err
			}
			v.items = append(v.items, iv)
		}
	case *ast.LiteralNode:
		v.kind, v.str = scalarValue, true
		if n.Value != nil {
			v.text = n.Value.Value
		}
	case *ast.StringNode:
		v.kind, v.str = scalarValue, true
		v.text = n.Value
	case ast.ScalarNode:
		// Числа и булевы значения — как записаны в файле.
		v.kind = scalarValue
		v.text = n.GetToken().Value
	default:
		return v, errs.Parsef(v.line, "неподдерживаемый узел YAML: %s", n.Type())
	}
	return v, nil
}

func yamlEntry(mv *ast.MappingValueNode) (entry, error) {
	line := nodeLine(mv.Key)
	if mv.Key.IsMergeKey() {
		return entry{}, errs.Parsef(line, "ключ слияния << не поддерживается")
	}
	key, err := yamlKey(mv.Key)
	if err != nil {
		return entry{}, errs.Parse(line, err)
	}
	val, err := yamlValue(mv.Value)
	if err != nil {
		return entry{}, err
	}
	return entry{key: key, val: val, line: line}, nil
}

func yamlKey(k ast.Node) (string, error) {
	switch k := k.(type) {
	case *ast.MappingKeyNode:
		return yamlKey(k.Value)
	case *ast.AnchorNode:
		return yamlKey(k.Value)
	case *ast.TagNode:
		return yamlKey(k.Value)
	case *ast.StringNode:
		return k.Value, nil
	case nil, *ast.NullNode:
		return "", fmt.Errorf("пустой ключ")
	case ast.ScalarNode:
		return k.GetToken().Value, nil
	}
	return "", fmt.Errorf("неподдерживаемый ключ %s", k.String())
}

func nodeLine(n ast.Node) int {
	if n == nil {
		return 0
	}
	if t := n.GetToken(); t != nil && t.Position != nil {
		return t.Position.Line
	}
	return 0
}

func yamlErrLine(err error) int {
	var ye yaml.Error
	if errors.As(err, &ye) {
		if t := ye.GetToken(); t != nil && t.Position != nil {
			return t.Position.Line
		}
	}
	return 0
}
