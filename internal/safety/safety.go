package safety

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AnNingUI/treegen/internal/errs"
	"github.com/AnNingUI/treegen/internal/tree"
)

// ValidateName проверяет, что имя — один путь-сегмент без разделителей,
// не ".", не ".." и не абсолютный путь.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("пустое имя")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("недопустимое имя: %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("имя не должно содержать разделителей пути: %q", name)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("имя содержит NUL: %q", name)
	}
	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return fmt.Errorf("абсолютные пути запрещены: %q", name)
	}
	return nil
}

// SafeJoin объединяет root и parts и убеждается, что результат остаётся внутри root.
func SafeJoin(root string, parts ...string) (string, error) {
	p := filepath.Join(append([]string{root}, parts...)...)
	cleanRoot := filepath.Clean(root)
	cleanP := filepath.Clean(p)

	rel, err := filepath.Rel(cleanRoot, cleanP)
	if err != nil {
		return "", errs.Path(p, err)
	}
	relSl := filepath.ToSlash(rel)
	if relSl == ".." || strings.HasPrefix(relSl, "../") {
		return "", errs.Escape(p)
	}
	return cleanP, nil
}

// Target — узел дерева вместе с его местом на диске.
type Target struct {
	Node  *tree.Node
	Rel   string // путь от выходного каталога через "/"
	Path  string // абсолютный путь
	Depth int    // 0 — прямой потомок корня
}

// Resolve проверяет каждое имя дерева и вычисляет целевые пути.
// Порядок — прямой обход: каталог раньше своих потомков.
// Ошибка возвращается до того, как что-либо тронуто на диске.
func Resolve(root *tree.Node, outDir string) ([]Target, error) {
	if root == nil {
		return nil, errors.New("пустое дерево")
	}
	base, err := filepath.Abs(outDir)
	if err != nil {
		return nil, errs.Path(outDir, err)
	}

	var targets []Target
	err = tree.Walk(root, func(parents []string, n *tree.Node) error {
		segs := append(parents[:len(parents):len(parents)], n.Name)
		rel := strings.Join(segs, "/")
		if err := ValidateName(n.Name); err != nil {
			return errs.Path(rel, err)
		}
		p, err := SafeJoin(base, segs...)
		if err != nil {
			return err
		}
		targets = append(targets, Target{Node: n, Rel: rel, Path: p, Depth: len(parents)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return targets, nil
}
