package parser

import (
	"fmt"
	"strings"
)

type NodeKind int

const (
	KindRoot NodeKind = iota
	KindResource
	KindClass
	KindClassReference
	KindClassParameter
	KindVariable
	KindVariableDefinition
	KindString
	KindResourceAttribute
	KindArray
	KindHash
	KindRegexp
	KindTypeReference
	KindBlob
	KindDefine
	KindNode
	KindCase
	KindCondition
	KindFunction
	KindIdentifier
	KindNumber
	KindFloat
	KindError
	KindResourceReference
)

var nodeKindNames = map[NodeKind]string{
	KindRoot:               "Root",
	KindResource:           "Resource",
	KindClass:              "Class",
	KindClassReference:     "ClassReference",
	KindClassParameter:     "ClassParameter",
	KindVariable:           "Variable",
	KindVariableDefinition: "VariableDefinition",
	KindString:             "String",
	KindResourceAttribute:  "ResourceAttribute",
	KindArray:              "Array",
	KindHash:               "Hash",
	KindRegexp:             "Regexp",
	KindTypeReference:      "TypeReference",
	KindBlob:               "Blob",
	KindDefine:             "Define",
	KindNode:               "Node",
	KindCase:               "Case",
	KindCondition:          "Condition",
	KindFunction:           "Function",
	KindIdentifier:         "Identifier",
	KindNumber:             "Number",
	KindFloat:              "Float",
	KindError:              "Error",
	KindResourceReference:  "ResourceReference",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// hasExplicitEnd reports whether nodes of kind k carry their own end offset
// instead of deriving it from their last child.
func (k NodeKind) hasExplicitEnd() bool {
	switch k {
	case KindNumber, KindFloat, KindTypeReference, KindBlob,
		KindString, KindRegexp, KindVariable, KindVariableDefinition,
		KindIdentifier, KindError:
		return true
	}
	return false
}

// NodeID addresses a node inside its Tree.
type NodeID int32

const NoNode NodeID = -1

const (
	flagDataType uint8 = 1 << iota
	flagClass
	flagResource
)

type nodeData struct {
	kind     NodeKind
	offset   int
	end      int
	parent   NodeID
	children []NodeID

	// Payload. Which fields are used depends on kind, see the accessors in
	// query.go.
	text  string
	ival  int64
	fval  float64
	flags uint8
	a     NodeID
	b     NodeID
	c     NodeID
	items []NodeID
	extra []NodeID
	names []string
}

// Tree owns every node of one parse. Nodes refer to each other by NodeID, so
// parent links never form pointer cycles.
type Tree struct {
	nodes []nodeData
	root  NodeID
	lines *LineIndex
}

func NewTree() *Tree {
	t := &Tree{}
	t.root = t.add(KindRoot, 0)
	return t
}

func (t *Tree) Root() Node {
	return Node{t: t, id: t.root}
}

// Lines returns the line index recorded with WithPositions, or nil.
func (t *Tree) Lines() *LineIndex {
	return t.lines
}

// Len returns the number of nodes in the arena, detached ones included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return Node{}
	}
	return Node{t: t, id: id}
}

func (t *Tree) add(kind NodeKind, offset int) NodeID {
	t.nodes = append(t.nodes, nodeData{
		kind:   kind,
		offset: offset,
		end:    offset,
		parent: NoNode,
		a:      NoNode,
		b:      NoNode,
		c:      NoNode,
	})
	return NodeID(len(t.nodes) - 1)
}

// NewNode creates a detached node and attaches it to parent unless parent
// is NoNode.
func (t *Tree) NewNode(kind NodeKind, offset int, parent NodeID) NodeID {
	id := t.add(kind, offset)
	if parent != NoNode {
		t.SetParent(id, parent)
	}
	return id
}

// NewLeaf creates a token leaf spanning [offset, offset+len(text)).
func (t *Tree) NewLeaf(kind NodeKind, offset int, text string, parent NodeID) NodeID {
	id := t.NewNode(kind, offset, parent)
	t.nodes[id].text = text
	t.nodes[id].end = offset + len(text)
	return id
}

func (t *Tree) SetEnd(id NodeID, end int) {
	t.nodes[id].end = end
}

// SetParent detaches child from its current parent and appends it to
// parent's children. Attaching a node below itself panics.
func (t *Tree) SetParent(child, parent NodeID) {
	for p := parent; p != NoNode; p = t.nodes[p].parent {
		if p == child {
			panic(fmt.Sprintf("parser: attaching %s node %d below itself", t.nodes[child].kind, child))
		}
	}
	if old := t.nodes[child].parent; old != NoNode {
		t.removeChild(old, child)
	}
	t.nodes[child].parent = parent
	if parent != NoNode {
		t.nodes[parent].children = append(t.nodes[parent].children, child)
	}
}

func (t *Tree) removeChild(parent, child NodeID) {
	kids := t.nodes[parent].children
	for i, id := range kids {
		if id == child {
			t.nodes[parent].children = append(kids[:i:i], kids[i+1:]...)
			return
		}
	}
}

func (t *Tree) data(id NodeID) *nodeData {
	return &t.nodes[id]
}

// Node is a lightweight handle to a node in a Tree. The zero Node is nil.
type Node struct {
	t  *Tree
	id NodeID
}

func (n Node) IsNil() bool {
	return n.t == nil || n.id == NoNode
}

func (n Node) ID() NodeID {
	if n.t == nil {
		return NoNode
	}
	return n.id
}

func (n Node) Tree() *Tree {
	return n.t
}

func (n Node) ref(id NodeID) Node {
	if id == NoNode {
		return Node{}
	}
	return Node{t: n.t, id: id}
}

func (n Node) Kind() NodeKind {
	return n.t.nodes[n.id].kind
}

func (n Node) Offset() int {
	return n.t.nodes[n.id].offset
}

// EndOffset is the explicit end for token leaves, numbers, type references
// and blobs. Other nodes end where their last child ends, or at their start
// when they have none.
func (n Node) EndOffset() int {
	d := &n.t.nodes[n.id]
	if d.kind.hasExplicitEnd() {
		return d.end
	}
	if len(d.children) == 0 {
		return d.offset
	}
	return n.ref(d.children[len(d.children)-1]).EndOffset()
}

func (n Node) Parent() Node {
	return n.ref(n.t.nodes[n.id].parent)
}

func (n Node) Children() []Node {
	kids := n.t.nodes[n.id].children
	out := make([]Node, len(kids))
	for i, id := range kids {
		out[i] = Node{t: n.t, id: id}
	}
	return out
}

func (n Node) ChildCount() int {
	return len(n.t.nodes[n.id].children)
}

// SetParent reparents n below parent. Both must belong to the same tree.
func (n Node) SetParent(parent Node) {
	if parent.t != n.t {
		panic("parser: reparenting across trees")
	}
	n.t.SetParent(n.id, parent.id)
}

func (n Node) String() string {
	var sb strings.Builder
	n.writeIndent(&sb, 0, false)
	return sb.String()
}

func (n Node) StringWithPositions() string {
	var sb strings.Builder
	n.writeIndent(&sb, 0, true)
	return sb.String()
}

func (n Node) writeIndent(sb *strings.Builder, indent int, showPositions bool) {
	if n.IsNil() {
		return
	}
	sb.WriteString(strings.Repeat("  ", indent))
	sb.WriteString(n.Kind().String())
	if showPositions {
		fmt.Fprintf(sb, " [%d-%d]", n.Offset(), n.EndOffset())
	}
	if label := n.label(); label != "" {
		sb.WriteString(" ")
		sb.WriteString(label)
	}
	sb.WriteString("\n")
	for _, child := range n.Children() {
		child.writeIndent(sb, indent+1, showPositions)
	}
}

// label is the short payload rendering used by tree dumps.
func (n Node) label() string {
	d := &n.t.nodes[n.id]
	switch d.kind {
	case KindNumber:
		return fmt.Sprint(d.ival)
	case KindFloat:
		return fmt.Sprint(d.fval)
	case KindError:
		return "ERROR: " + d.text
	case KindNode:
		return strings.Join(d.names, ",")
	}
	return d.text
}
