package tree

import (
	"errors"
	"fmt"
	"os"
)

// Kind — вид узла: каталог или файл.
type Kind int

const (
	Dir Kind = iota
	File
)

func (k Kind) String() string {
	switch k {
	case Dir:
		return "dir"
	case File:
		return "file"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrDuplicateName — в каталоге уже есть узел с таким именем.
	ErrDuplicateName = errors.New("повторяющееся имя")
	// ErrFileChildren — у файла не может быть вложенных узлов.
	ErrFileChildren = errors.New("файл не может содержать вложенные элементы")
)

// Node — один элемент канонического дерева.
type Node struct {
	Name     string      // один сегмент пути, без разделителей
	Kind     Kind        // каталог или файл
	Children []*Node     // только для каталогов, в порядке объявления
	Mode     os.FileMode // права для этого узла (0 — не заданы)
	Content  []byte      // содержимое файла (nil — пустой файл)
}

// NewRoot возвращает синтетический корень — каталог без имени,
// соответствующий выходному каталогу.
func NewRoot() *Node {
	return &Node{Kind: Dir, Children: []*Node{}}
}

func NewDir(name string) *Node {
	return &Node{Name: name, Kind: Dir, Children: []*Node{}}
}

func NewFile(name string) *Node {
	return &Node{Name: name, Kind: File}
}

func (n *Node) IsDir() bool { return n.Kind == Dir }

// Lookup ищет прямого потомка по имени.
func (n *Node) Lookup(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Add добавляет потомка в конец списка.
// Повторяющиеся имена не сливаются — это ошибка построения.
func (n *Node) Add(child *Node) error {
	if n.Kind != Dir {
		return fmt.Errorf("%q: %w", n.Name, ErrFileChildren)
	}
	if n.Lookup(child.Name) != nil {
		return fmt.Errorf("%w: %q", ErrDuplicateName, child.Name)
	}
	n.Children = append(n.Children, child)
	return nil
}

// WalkFunc получает узел и имена его предков (без синтетического корня).
type WalkFunc func(parents []string, n *Node) error

// Walk обходит дерево в прямом порядке: родитель раньше потомков,
// соседи — в порядке объявления. Сам root не посещается.
func Walk(root *Node, fn WalkFunc) error {
	return walk(nil, root, fn)
}

func walk(parents []string, n *Node, fn WalkFunc) error {
	for _, c := range n.Children {
		if err := fn(parents, c); err != nil {
			return err
		}
		if c.Kind == Dir {
			// Отдельный срез, чтобы потомки не делили общий буфер.
			next := make([]string, len(parents)+1)
			copy(next, parents)
			next[len(parents)] = c.Name
			if err := walk(next, c, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Count считает каталоги и файлы под root.
func Count(root *Node) (dirs, files int) {
	_ = Walk(root, func(_ []string, n *Node) error {
		if n.IsDir() {
			dirs++
		} else {
			files++
		}
		return nil
	})
	return dirs, files
}
