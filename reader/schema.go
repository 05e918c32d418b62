package reader

import (
	"fmt"

	"github.com/parquet-go/parquet-go/format"

	"github.com/vegasq/parqsee/value"
)

// Repetition is the repetition type of a schema node.
type Repetition int

const (
	Required Repetition = iota
	Optional
	Repeated
)

func (r Repetition) String() string {
	switch r {
	case Optional:
		return "OPTIONAL"
	case Repeated:
		return "REPEATED"
	default:
		return "REQUIRED"
	}
}

// Node is one element of a file schema rebuilt as a tree.
type Node struct {
	Name       string
	Repetition Repetition
	Tags       TypeTags
	Children   []*Node

	// Column is the leaf column index, -1 for groups.
	Column int
	// DefLevel and RepLevel are the maximum definition and repetition levels
	// reached at this node.
	DefLevel int
	RepLevel int

	firstLeaf int
	numLeaves int
}

// IsLeaf reports whether n is a primitive column.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0 && n.Tags.Physical != nil
}

// ValueKind returns the variant a field of this node decodes to.
func (n *Node) ValueKind() value.Kind {
	if n.Repetition == Repeated {
		return value.KindList
	}
	if n.IsLeaf() {
		return n.Tags.ValueKind()
	}
	switch {
	case n.Tags.Logical == LogicalList && isListShape(n):
		return value.KindList
	case (n.Tags.Logical == LogicalMap || n.Tags.Logical == LogicalMapKeyValue) && isMapShape(n):
		return value.KindMap
	}
	return value.KindRecord
}

// Child returns the direct child with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func isListShape(n *Node) bool {
	return n.numLeaves > 0 && len(n.Children) == 1 && n.Children[0].Repetition == Repeated
}

func isMapShape(n *Node) bool {
	if n.numLeaves == 0 || len(n.Children) != 1 {
		return false
	}
	kv := n.Children[0]
	return kv.Repetition == Repeated && !kv.IsLeaf() && len(kv.Children) > 0 && len(kv.Children) <= 2
}

// Schema is the tree form of a file schema. Root's children are the
// top-level fields in on-disk order.
type Schema struct {
	Root   *Node
	Leaves []*Node
}

// Fields returns the top-level fields.
func (s *Schema) Fields() []*Node {
	return s.Root.Children
}

// BuildSchema rebuilds the depth-first element list of a footer into a tree.
// The first element is the root.
func BuildSchema(elements []format.SchemaElement) (*Schema, error) {
	if len(elements) == 0 {
		return nil, fmt.Errorf("schema has no root element")
	}

	s := &Schema{}
	pos := 0
	root, err := s.build(elements, &pos, nil)
	if err != nil {
		return nil, err
	}
	if pos != len(elements) {
		return nil, fmt.Errorf("schema has %d trailing elements", len(elements)-pos)
	}
	s.Root = root
	return s, nil
}

func (s *Schema) build(elements []format.SchemaElement, pos *int, parent *Node) (*Node, error) {
	if *pos >= len(elements) {
		return nil, fmt.Errorf("schema ended inside group %q", parent.Name)
	}
	el := &elements[*pos]
	*pos++

	n := &Node{
		Name:      el.Name,
		Tags:      ResolveTags(el),
		Column:    -1,
		firstLeaf: len(s.Leaves),
	}

	if parent != nil {
		n.DefLevel, n.RepLevel = parent.DefLevel, parent.RepLevel
		if el.RepetitionType != nil {
			switch *el.RepetitionType {
			case format.Optional:
				n.Repetition = Optional
				n.DefLevel++
			case format.Repeated:
				n.Repetition = Repeated
				n.DefLevel++
				n.RepLevel++
			}
		}
	}

	if el.NumChildren < 0 {
		return nil, fmt.Errorf("element %q has negative child count", el.Name)
	}
	if el.NumChildren == 0 && parent != nil {
		if el.Type == nil {
			return nil, fmt.Errorf("leaf %q has no physical type", el.Name)
		}
		n.Column = len(s.Leaves)
		s.Leaves = append(s.Leaves, n)
	}

	for i := int32(0); i < el.NumChildren; i++ {
		child, err := s.build(elements, pos, n)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}

	n.numLeaves = len(s.Leaves) - n.firstLeaf
	return n, nil
}
