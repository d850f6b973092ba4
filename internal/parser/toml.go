package parser

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/AnNingUI/treegen/internal/errs"
	"github.com/AnNingUI/treegen/internal/tree"
)

// tomlParser декодирует документ в map, а порядок ключей восстанавливает
// по MetaData.Keys. Повторное определение ключа toml отвергает сам.
// Позиции значений декодер не отдаёт, поэтому номер строки есть только
// у синтаксических ошибок.
type tomlParser struct{}

func (tomlParser) Parse(data []byte) (*tree.Node, error) {
	var doc map[string]any
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		var pe toml.ParseError
		if errors.As(err, &pe) {
			return nil, errs.Parse(pe.Position.Line, errors.New(pe.Message))
		}
		return nil, errs.Parse(0, err)
	}

	order := make(map[string][]string)
	seen := make(map[string]bool)
	for _, k := range md.Keys() {
		full := k.String()
		if seen[full] {
			continue
		}
		seen[full] = true
		parent := k[:len(k)-1].String()
		order[parent] = append(order[parent], k[len(k)-1])
	}

	v, err := tomlValue(doc, nil, order)
	if err != nil {
		return nil, err
	}
	return buildTree(v)
}

func tomlValue(x any, path toml.Key, order map[string][]string) (value, error) {
	switch x := x.(type) {
	case nil:
		return value{kind: nullValue}, nil
	case map[string]any:
		v := value{kind: mapValue}
		for _, k := range tomlKeys(x, path, order) {
			child, err := tomlValue(x[k], append(path[:len(path):len(path)], k), order)
			if err != nil {
				return v, err
			}
			v.entries = append(v.entries, entry{key: k, val: child})
		}
		return v, nil
	case []map[string]any:
		v := value{kind: listValue}
		for _, m := range x {
			item, err := tomlValue(m, path, order)
			if err != nil {
				return v, err
			}
			v.items = append(v.items, item)
		}
		return v, nil
	case []any:
		v := value{kind: listValue}
		for _, it := range x {
			item, err := tomlValue(it, path, order)
			if err != nil {
				return v, err
			}
			v.items = append(v.items, item)
		}
		return v, nil
	case string:
		return value{kind: scalarValue, str: true, text: x}, nil
	case int64:
		return value{kind: scalarValue, text: strconv.FormatInt(x, 10), num: x, hasNum: true}, nil
	case float64:
		return value{kind: scalarValue, text: strconv.FormatFloat(x, 'g', -1, 64)}, nil
	case bool:
		return value{kind: scalarValue, text: strconv.FormatBool(x)}, nil
	case time.Time:
		return value{kind: scalarValue, text: x.Format(time.RFC3339Nano)}, nil
	case fmt.Stringer:
		// toml.LocalDate, LocalTime, LocalDatetime
		return value{kind: scalarValue, text: x.String()}, nil
	}
	return value{}, errs.Parsef(0, "%s: неподдерживаемое значение TOML %T", path, x)
}

// tomlKeys возвращает ключи m в порядке объявления. Ключи, которых нет
// в MetaData (например, из встроенных таблиц в массивах), идут следом
// по алфавиту.
func tomlKeys(m map[string]any, path toml.Key, order map[string][]string) []string {
	keys := make([]string, 0, len(m))
	used := make(map[string]bool, len(m))
	for _, k := range order[path.String()] {
		if _, ok := m[k]; ok && !used[k] {
			keys = append(keys, k)
			used[k] = true
		}
	}
	var rest []string
	for k := range m {
		if !used[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
