package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AnNingUI/treegen/internal/errs"
	"github.com/AnNingUI/treegen/internal/tree"
)

// json5Parser: многострочные строки в обратных кавычках выравниваются
// и превращаются в обычные, json5 проверяет синтаксис, затем документ
// переписывается в строгий JSON и проходит тот же обход, что и .json.
// Номера строк при всех преобразованиях сохраняются.
type json5Parser struct{}

func (json5Parser) Parse(data []byte) (*tree.Node, error) {
	src, err := expandBackticks(data)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(stripComments(src))) == 0 {
		return tree.NewRoot(), nil
	}
	if err := validateJSON5(src); err != nil {
		return nil, err
	}
	out, err := json5ToJSON(src)
	if err != nil {
		return nil, err
	}
	return parseJSONDoc(out)
}

// expandBackticks заменяет `...` на строку в двойных кавычках с
// выровненным текстом. Кавычки внутри строк и комментариев не трогаются.
func expandBackticks(src []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(src))
	for i := 0; i < len(src); {
		switch c := src[i]; {
		case c == '"' || c == '\'':
			j := skipString(src, i)
			out.Write(src[i:j])
			i = j
		case c == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*'):
			j := skipComment(src, i)
			out.Write(src[i:j])
			i = j
		case c == '`':
			end := bytes.IndexByte(src[i+1:], '`')
			if end < 0 {
				return nil, errs.Parsef(lineAt(src, i), "незакрытая строка в обратных кавычках")
			}
			body := src[i+1 : i+1+end]
			q, err := json.Marshal(dedent(string(body)))
			if err != nil {
				return nil, errs.Parse(lineAt(src, i), err)
			}
			out.Write(q)
			// Переводы строк после значения — чтобы не сбить нумерацию.
			out.Write(bytes.Repeat([]byte{'\n'}, bytes.Count(body, []byte{'\n'})))
			i += end + 2
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.Bytes(), nil
}

// dedent убирает пустые строки в начале и конце и общий отступ из пробелов.
func dedent(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return ""
	}
	minIndent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " "))
		if minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	if minIndent < 0 {
		minIndent = 0
	}
	for i, l := range lines {
		if len(l) >= minIndent {
			lines[i] = l[minIndent:]
		} else {
			lines[i] = strings.TrimLeft(l, " ")
		}
	}
	return strings.Join(lines, "\n")
}

// skipString возвращает индекс сразу за строкой, начинающейся в src[i].
// Незакрытая строка тянется до конца: ошибку сообщит валидатор.
func skipString(src []byte, i int) int {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j + 1
		}
	}
	return len(src)
}

func skipComment(src []byte, i int) int {
	if src[i+1] == '/' {
		if j := bytes.IndexByte(src[i:], '\n'); j >= 0 {
			return i + j
		}
		return len(src)
	}
	if j := bytes.Index(src[i+2:], []byte("*/")); j >= 0 {
		return i + 2 + j + 2
	}
	return len(src)
}

// stripComments оставляет от src только значимый текст.
func stripComments(src []byte) []byte {
	var out []byte
	for i := 0; i < len(src); {
		switch c := src[i]; {
		case c == '"' || c == '\'':
			j := skipString(src, i)
			out = append(out, src[i:j]...)
			i = j
		case c == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*'):
			i = skipComment(src, i)
		default:
			out = append(out, c)
			i++
		}
	}
	return out
}

// skipSpace пропускает пробелы (включая пробельные символы Unicode)
// и комментарии.
func skipSpace(src []byte, i int) int {
	for i < len(src) {
		c := src[i]
		if c == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*') {
			i = skipComment(src, i)
			continue
		}
		if c < utf8.RuneSelf {
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '\v' && c != '\f' {
				return i
			}
			i++
			continue
		}
		r, n := utf8.DecodeRune(src[i:])
		if !isJSON5Space(r) {
			return i
		}
		i += n
	}
	return i
}

func isJSON5Space(r rune) bool {
	return r == '\uFEFF' || r == '\u2028' || r == '\u2029' || unicode.Is(unicode.Zs, r)
}

var jsonNumberRe = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// json5ToJSON переписывает проверенный JSON5 в строгий JSON: ключи
// берутся в кавычки, строки в одинарных кавычках перекодируются,
// висячие запятые и комментарии убираются. Числа, которых нет в JSON
// (0x1F, .5, +1, Infinity, NaN), становятся строками с исходным текстом.
func json5ToJSON(src []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(src))
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*'):
			j := skipComment(src, i)
			out.Write(bytes.Repeat([]byte{'\n'}, bytes.Count(src[i:j], []byte{'\n'})))
			i = j
		case c == '\n' || c == ' ' || c == '\t' || c == '\r':
			out.WriteByte(c)
			i++
		case c == '{' || c == '}' || c == '[' || c == ']' || c == ':':
			out.WriteByte(c)
			i++
		case c == ',':
			if j := skipSpace(src, i+1); j < len(src) && (src[j] == '}' || src[j] == ']') {
				i++
				continue
			}
			out.WriteByte(c)
			i++
		case c == '"' || c == '\'':
			j := skipString(src, i)
			s, err := unquoteJSON5(src[i:j])
			if err != nil {
				return nil, errs.Parse(lineAt(src, i), err)
			}
			writeJSONString(&out, s)
			out.Write(bytes.Repeat([]byte{'\n'}, bytes.Count(src[i:j], []byte{'\n'})))
			i = j
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < len(src) && isNumberByte(src[j]) {
				j++
			}
			tok := string(src[i:j])
			if jsonNumberRe.MatchString(tok) {
				out.WriteString(tok)
			} else {
				writeJSONString(&out, tok)
			}
			i = j
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			word := string(src[i:j])
			k := skipSpace(src, j)
			switch {
			case k < len(src) && src[k] == ':':
				writeJSONString(&out, word)
			case word == "true" || word == "false" || word == "null":
				out.WriteString(word)
			default:
				writeJSONString(&out, word)
			}
			i = j
		case c >= utf8.RuneSelf:
			r, n := utf8.DecodeRune(src[i:])
			if !isJSON5Space(r) {
				return nil, errs.Parsef(lineAt(src, i), "неожиданный символ %q", r)
			}
			out.WriteByte(' ')
			i += n
		default:
			if c == '\v' || c == '\f' {
				out.WriteByte(' ')
				i++
				continue
			}
			return nil, errs.Parsef(lineAt(src, i), "неожиданный символ %q", c)
		}
	}
	return out.Bytes(), nil
}

func isNumberByte(c byte) bool {
	return c == '.' || c == '+' || c == '-' || c == '_' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func writeJSONString(out *bytes.Buffer, s string) {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encode дописывает перевод строки.
	out.Truncate(out.Len() - 1)
}

// unquoteJSON5 раскрывает строку JSON5 вместе с кавычками.
func unquoteJSON5(lit []byte) (string, error) {
	if len(lit) < 2 || lit[len(lit)-1] != lit[0] {
		return "", fmt.Errorf("незакрытая строка")
	}
	body := string(lit[1 : len(lit)-1])
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("обрыв escape-последовательности")
		}
		switch body[i] {
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case '\n':
			// продолжение строки
		case '\r':
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case 'x':
			if i+3 > len(body) {
				return "", fmt.Errorf("неполная последовательность \\x")
			}
			v, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("\\x%s: %w", body[i+1:i+3], err)
			}
			sb.WriteRune(rune(v))
			i += 2
		case 'u':
			r, n, err := readUnicodeEscape(body[i+1:])
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
			i += n
		default:
			// \' \" \\ \/ и любой другой символ означают сам символ,
			// разделители строк U+2028/U+2029 после \ продолжают строку.
			r, n := utf8.DecodeRuneInString(body[i:])
			if r != '\u2028' && r != '\u2029' {
				sb.WriteRune(r)
			}
			i += n - 1
		}
	}
	return sb.String(), nil
}

// readUnicodeEscape читает XXXX после \u, включая суррогатную пару.
func readUnicodeEscape(s string) (rune, int, error) {
	if len(s) < 4 {
		return 0, 0, fmt.Errorf("неполная последовательность \\u")
	}
	v, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("\\u%s: %w", s[:4], err)
	}
	r := rune(v)
	if r >= 0xD800 && r < 0xDC00 && len(s) >= 10 && s[4] == '\\' && s[5] == 'u' {
		if lo, err := strconv.ParseUint(s[6:10], 16, 16); err == nil && lo >= 0xDC00 && lo < 0xE000 {
			return (r-0xD800)<<10 + (rune(lo) - 0xDC00) + 0x10000, 10, nil
		}
	}
	return r, 4, nil
}
