package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/AnNingUI/treegen/internal/errs"
	"github.com/AnNingUI/treegen/internal/tree"
)

// Ширина одного уровня в выводе tree: "│   ", "|   " или четыре пробела.
const treeIndent = 4

var (
	// Маркеры ветвления: псевдографика и ASCII-варианты (tree --charset=ascii).
	treeMarkers      = []string{"├── ", "└── ", "|-- ", "`-- ", "+-- "}
	treeMarkersTight = []string{"├──", "└──", "|--", "`--", "+--"}
	bulletMarkers    = []string{"- ", "* ", "+ "}

	summaryRe = regexp.MustCompile(`^\d+ director(y|ies)(, \d+ files?)?$`)
	// Комментарий отделяется от имени минимум двумя пробелами или табуляцией:
	// "notes # draft.txt" остаётся именем.
	commentRe = regexp.MustCompile(`(?:\s{2,}|\t)#(?:\s.*)?$`)

	errIndent = errors.New("отступ не кратен уровню вложенности")
)

// markdownParser разбирает tree-подобный листинг:
//
//	project/
//	├── src/
//	│   └── main.rs
//	└── README.md
//
// а также маркированный список Markdown ("- src/", вложенность — отступом).
// Каталог определяется только по суффиксу "/".
type markdownParser struct{}

func (markdownParser) Parse(data []byte) (*tree.Node, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 1024), 1024*1024)

	root := tree.NewRoot()
	// stack[d] — каталог, в который попадают узлы глубины d.
	stack := []*tree.Node{root}
	st := lineState{markerBase: -1}
	lastDepth, lastFile := -1, false
	lineNum := 0

	for sc.Scan() {
		lineNum++
		raw := strings.TrimRight(sc.Text(), "\r")
		if lineNum == 1 {
			raw = strings.TrimPrefix(raw, "\uFEFF")
		}
		if skipLine(strings.TrimSpace(raw)) {
			continue
		}

		depth, name, err := st.parseLine(raw)
		if err != nil {
			return nil, errs.Parse(lineNum, err)
		}
		name = cleanName(name)

		isDir := strings.HasSuffix(name, "/")
		name = strings.TrimRight(name, "/")
		if name == "" {
			return nil, errs.Parsef(lineNum, "пустое имя")
		}

		if depth > len(stack)-1 {
			if lastFile && depth == lastDepth+1 {
				return nil, errs.Parse(lineNum, tree.ErrFileChildren)
			}
			return nil, errs.Parsef(lineNum, "некорректная вложенность: уровень %d после уровня %d", depth, len(stack)-1)
		}
		stack = stack[:depth+1]

		node := tree.NewFile(name)
		if isDir {
			node = tree.NewDir(name)
		}
		if err := stack[depth].Add(node); err != nil {
			return nil, errs.Parse(lineNum, err)
		}
		if isDir {
			stack = append(stack, node)
		}
		lastDepth, lastFile = depth, !isDir
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Parse(lineNum, err)
	}
	return root, nil
}

// lineState хранит то, что выясняется по первым строкам файла.
type lineState struct {
	// markerBase — глубина строк с маркером без отступа: 1, если листинг
	// начинается с корневой строки ("project/"), иначе 0. -1 — ещё не известно.
	markerBase int
	// unit — ширина отступа одного уровня для списков и простых строк.
	unit int
}

// parseLine возвращает глубину строки и имя узла (ещё не очищенное).
func (s *lineState) parseLine(line string) (int, string, error) {
	if idx, marker := findMarker(line); idx >= 0 {
		prefix := line[:idx]
		if strings.TrimLeft(prefix, " \t│|") != "" {
			return 0, "", fmt.Errorf("не похоже на строку дерева: %q", line)
		}
		w := indentWidth(prefix)
		if w%treeIndent != 0 {
			return 0, "", errIndent
		}
		if s.markerBase < 0 {
			s.markerBase = 0
		}
		return w/treeIndent + s.markerBase, strings.TrimSpace(line[idx+len(marker):]), nil
	}

	if s.markerBase < 0 {
		s.markerBase = 1
	}
	body := strings.TrimLeft(line, " \t")
	w := indentWidth(line[:len(line)-len(body)])
	for _, b := range bulletMarkers {
		if strings.HasPrefix(body, b) {
			body = body[len(b):]
			break
		}
	}
	if w == 0 {
		return 0, strings.TrimSpace(body), nil
	}
	// Единицу отступа задаёт первая строка с отступом.
	if s.unit == 0 {
		s.unit = w
	}
	if w%s.unit != 0 {
		return 0, "", errIndent
	}
	return w / s.unit, strings.TrimSpace(body), nil
}

// findMarker ищет самый левый маркер ветвления.
func findMarker(line string) (int, string) {
	idx, used := -1, ""
	for _, set := range [][]string{treeMarkers, treeMarkersTight} {
		for _, m := range set {
			if i := strings.Index(line, m); i != -1 && (idx == -1 || i < idx) {
				idx, used = i, m
			}
		}
		if idx != -1 {
			break
		}
	}
	return idx, used
}

// indentWidth считает ширину префикса в символах, табуляция — за уровень.
func indentWidth(prefix string) int {
	w := 0
	for _, r := range prefix {
		if r == '\t' {
			w += treeIndent
			continue
		}
		w++
	}
	return w
}

func skipLine(line string) bool {
	switch {
	case line == "", line == ".":
		return true
	case strings.Trim(line, "│| \t") == "":
		// Строка из одних соединителей: "│" между ветками.
		return true
	case strings.HasPrefix(line, "```"), strings.HasPrefix(line, "~~~"):
		return true
	}
	// Итоговая строка tree: "3 directories, 5 files".
	return summaryRe.MatchString(line)
}

// cleanName убирает комментарий в конце строки и обрамляющие обратные кавычки.
func cleanName(name string) string {
	name = strings.TrimSpace(commentRe.ReplaceAllString(name, ""))
	if len(name) >= 2 && strings.HasPrefix(name, "`") && strings.HasSuffix(name, "`") {
		name = strings.TrimSpace(name[1 : len(name)-1])
	}
	return name
}
