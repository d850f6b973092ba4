package parser

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/ohler55/ojg/oj"
	"github.com/titanous/json5"

	"github.com/AnNingUI/treegen/internal/errs"
	"github.com/AnNingUI/treegen/internal/tree"
)

// jsonParser: сначала строгая проверка синтаксиса (oj.Validator сообщает
// строку ошибки), затем обход jsonparser.ObjectEach, который отдаёт ключи
// в порядке объявления, включая повторы.
type jsonParser struct{}

func (jsonParser) Parse(data []byte) (*tree.Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return tree.NewRoot(), nil
	}
	if err := validateJSON(data); err != nil {
		return nil, err
	}
	return parseJSONDoc(data)
}

// validateJSON пропускает только строгий JSON: без комментариев,
// ключей без кавычек, висячих запятых и шестнадцатеричных чисел.
func validateJSON(src []byte) error {
	v := oj.Validator{OnlyOne: true}
	err := v.Validate(src)
	if err == nil {
		return nil
	}
	var pe *oj.ParseError
	if errors.As(err, &pe) {
		return errs.Parse(pe.Line, errors.New(pe.Message))
	}
	return errs.Parse(0, err)
}

// validateJSON5 проверяет синтаксис JSON5 и переводит смещение ошибки в строку.
func validateJSON5(src []byte) error {
	var probe any
	err := json5.Unmarshal(src, &probe)
	if err == nil {
		return nil
	}
	var se *json5.SyntaxError
	if errors.As(err, &se) {
		return errs.Parse(lineAt(src, int(se.Offset)), err)
	}
	return errs.Parse(0, err)
}

func parseJSONDoc(data []byte) (*tree.Node, error) {
	raw, typ, end, err := jsonparser.Get(data)
	if err != nil {
		return nil, errs.Parse(0, err)
	}
	v, err := jsonValue(data, raw, typ, valueStart(end, raw, typ))
	if err != nil {
		return nil, err
	}
	return buildTree(v)
}

// jsonValue строит value из raw; base — смещение raw внутри data.
func jsonValue(data, raw []byte, typ jsonparser.ValueType, base int) (value, error) {
	v := value{line: lineAt(data, base)}
	switch typ {
	case jsonparser.Null:
		v.kind = nullValue
	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return v, errs.Parse(v.line, err)
		}
		v.kind, v.str, v.text = scalarValue, true, s
	case jsonparser.Number, jsonparser.Boolean:
		v.kind, v.text = scalarValue, string(raw)
	case jsonparser.Object:
		v.kind = mapValue
		err := jsonparser.ObjectEach(raw, func(key, val []byte, t jsonparser.ValueType, end int) error {
			child, err := jsonValue(data, val, t, base+valueStart(end, val, t))
			if err != nil {
				return err
			}
			// key может ссылаться на временный буфер — копируем сразу.
			v.entries = append(v.entries, entry{key: string(key), val: child, line: child.line})
			return nil
		})
		if err != nil {
			return v, wrapJSON(v.line, err)
		}
	case jsonparser.Array:
		v.kind = listValue
		var inner error
		_, err := jsonparser.ArrayEach(raw, func(val []byte, t jsonparser.ValueType, off int, e error) {
			if inner != nil {
				return
			}
			if e != nil {
				inner = e
				return
			}
			child, err := jsonValue(data, val, t, base+off)
			if err != nil {
				inner = err
				return
			}
			v.items = append(v.items, child)
		})
		if inner != nil {
			return v, wrapJSON(v.line, inner)
		}
		if err != nil {
			return v, wrapJSON(v.line, err)
		}
	default:
		return v, errs.Parsef(v.line, "неожиданное значение JSON: %s", typ)
	}
	return v, nil
}

// valueStart переводит смещение конца значения в смещение начала.
func valueStart(end int, raw []byte, t jsonparser.ValueType) int {
	start := end - len(raw)
	if t == jsonparser.String {
		start -= 2 // кавычки не входят в raw
	}
	if start < 0 {
		return 0
	}
	return start
}

func wrapJSON(line int, err error) error {
	if errs.IsParse(err) {
		return err
	}
	return errs.Parse(line, fmt.Errorf("JSON: %w", err))
}

func lineAt(data []byte, off int) int {
	if off > len(data) {
		off = len(data)
	}
	if off < 0 {
		off = 0
	}
	return bytes.Count(data[:off], []byte{'\n'}) + 1
}
