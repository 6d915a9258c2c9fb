package ast

import "strconv"

// Node is one element of a parsed syntax tree. Children hold either nested
// nodes or scalar leaves (string, int64, float64, bool or nil).
type Node struct {
	Kind       Kind
	Flags      Flags
	Lineno     int
	EndLineno  int
	DocComment string
	Children   Children
}

// Child is a single named slot of a node. List nodes name their slots by
// position ("0", "1", ...).
type Child struct {
	Name  string
	Value any
}

// Children is an ordered, possibly sparse collection of named slots.
type Children struct {
	items []Child
}

// New builds a node. It is mostly used by tests and tree decoders.
func New(kind Kind, flags Flags, line int, children ...Child) *Node {
	return &Node{
		Kind:     kind,
		Flags:    flags,
		Lineno:   line,
		Children: NewChildren(children...),
	}
}

// C is shorthand for a named child slot.
func C(name string, value any) Child {
	return Child{Name: name, Value: normalizeValue(value)}
}

// List builds a list node whose children are named by position.
func List(kind Kind, line int, items ...any) *Node {
	children := make([]Child, 0, len(items))
	for i, item := range items {
		children = append(children, C(strconv.Itoa(i), item))
	}
	return New(kind, 0, line, children...)
}

func NewChildren(children ...Child) Children {
	out := Children{items: make([]Child, 0, len(children))}
	for _, c := range children {
		out.Set(c.Name, c.Value)
	}
	return out
}

// Set replaces the slot with the given name or appends a new one.
func (c *Children) Set(name string, value any) {
	value = normalizeValue(value)
	for i := range c.items {
		if c.items[i].Name == name {
			c.items[i].Value = value
			return
		}
	}
	c.items = append(c.items, Child{Name: name, Value: value})
}

// Get returns the raw slot value and whether the slot exists at all.
func (c Children) Get(name string) (any, bool) {
	for _, item := range c.items {
		if item.Name == name {
			return item.Value, true
		}
	}
	return nil, false
}

// Has reports whether the slot exists and holds a non-nil value.
func (c Children) Has(name string) bool {
	v, ok := c.Get(name)
	return ok && v != nil
}

// Node returns the slot value if it is a node.
func (c Children) Node(name string) *Node {
	v, _ := c.Get(name)
	n, _ := v.(*Node)
	return n
}

// String returns the slot value if it is a string leaf.
func (c Children) String(name string) string {
	v, _ := c.Get(name)
	s, _ := v.(string)
	return s
}

func (c Children) Len() int {
	return len(c.items)
}

// Each calls fn for every slot in order.
func (c Children) Each(fn func(name string, value any)) {
	for _, item := range c.items {
		fn(item.Name, item.Value)
	}
}

// Nodes returns the node-valued slots in order, skipping leaves and gaps.
func (c Children) Nodes() []*Node {
	out := make([]*Node, 0, len(c.items))
	for _, item := range c.items {
		if n, ok := item.Value.(*Node); ok && n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Line returns the node's line, or 0 for a nil node.
func (n *Node) Line() int {
	if n == nil {
		return 0
	}
	return n.Lineno
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case *Node:
		if v == nil {
			return nil
		}
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	}
	return value
}
