package parser

import "strings"

// FindNodeAtOffset descends into the first child whose inclusive range
// [Offset, EndOffset] contains pos and returns the deepest such node.
func (n Node) FindNodeAtOffset(pos int) Node {
	for _, child := range n.Children() {
		if child.Offset() <= pos && pos <= child.EndOffset() {
			return child.FindNodeAtOffset(pos)
		}
	}
	return n
}

// CollectByKind returns the nodes of the given kind below n in pre-order. n
// itself is never included. Without recursive only direct children are
// examined.
func (n Node) CollectByKind(kind NodeKind, recursive bool) []Node {
	var out []Node
	n.collect(kind, recursive, &out)
	return out
}

func (n Node) collect(kind NodeKind, recursive bool, out *[]Node) {
	for _, child := range n.Children() {
		if child.Kind() == kind {
			*out = append(*out, child)
		}
		if recursive {
			child.collect(kind, recursive, out)
		}
	}
}

// SkipParentsOfKind returns the nearest ancestor whose kind is not one of
// kinds, or the nil Node when every ancestor matches.
func (n Node) SkipParentsOfKind(kinds ...NodeKind) Node {
	p := n.Parent()
	for !p.IsNil() && kindIn(p.Kind(), kinds) {
		p = p.Parent()
	}
	return p
}

// Ancestor returns the nearest ancestor of the given kind.
func (n Node) Ancestor(kind NodeKind) Node {
	for p := n.Parent(); !p.IsNil(); p = p.Parent() {
		if p.Kind() == kind {
			return p
		}
	}
	return Node{}
}

func kindIn[K comparable](k K, kinds []K) bool {
	for _, kind := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func (n Node) Walk(fn func(Node) bool) {
	if n.IsNil() || !fn(n) {
		return
	}
	for _, child := range n.Children() {
		child.Walk(fn)
	}
}

func (n Node) list(ids []NodeID) []Node {
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, Node{t: n.t, id: id})
	}
	return out
}

func (n Node) d() *nodeData {
	return &n.t.nodes[n.id]
}

// Text is the source text of token leaves (String, Regexp, Variable,
// VariableDefinition, Identifier). Strings keep their quotes.
func (n Node) Text() string {
	switch n.Kind() {
	case KindString, KindRegexp, KindVariable, KindVariableDefinition, KindIdentifier:
		return n.d().text
	}
	return ""
}

// Name returns the name a node is known by: the declared name of classes
// and defines, the referenced name of references, the function name of
// calls, the attribute name, the canonical type name, the variable text of
// a parameter, or the leaf text.
func (n Node) Name() string {
	d := n.d()
	switch d.kind {
	case KindClass, KindDefine:
		if d.a == NoNode {
			return ""
		}
		return n.t.nodes[d.a].text
	case KindNode:
		return strings.Join(d.names, ",")
	case KindClassParameter:
		if d.a == NoNode {
			return ""
		}
		return n.t.nodes[d.a].text
	case KindResource:
		if d.a == NoNode {
			return ""
		}
		return n.t.nodes[d.a].text
	case KindClassReference, KindResourceReference, KindFunction,
		KindResourceAttribute, KindTypeReference, KindString, KindRegexp,
		KindVariable, KindVariableDefinition, KindIdentifier:
		return d.text
	}
	return ""
}

// NameNode is the Identifier naming a class or define.
func (n Node) NameNode() Node {
	switch n.Kind() {
	case KindClass, KindDefine:
		return n.ref(n.d().a)
	}
	return Node{}
}

func (n Node) IntValue() int64 {
	return n.d().ival
}

func (n Node) FloatValue() float64 {
	return n.d().fval
}

func (n Node) Message() string {
	if n.Kind() != KindError {
		return ""
	}
	return n.d().text
}

// TypeName is the canonical name of a type reference.
func (n Node) TypeName() string {
	if n.Kind() != KindTypeReference {
		return ""
	}
	return n.d().text
}

// IsDataType reports whether the type reference was written with a leading
// capital, as in `String` rather than the resource type `file`.
func (n Node) IsDataType() bool {
	return n.d().flags&flagDataType != 0
}

func (n Node) RepresentsClass() bool {
	return n.d().flags&flagClass != 0
}

func (n Node) RepresentsResource() bool {
	return n.d().flags&flagResource != 0
}

// Params returns the parameters of a type reference in order.
func (n Node) Params() []Node {
	if n.Kind() != KindTypeReference {
		return nil
	}
	return n.list(n.d().items)
}

// ResourceType is the TypeReference of a resource declaration.
func (n Node) ResourceType() Node {
	if n.Kind() != KindResource {
		return Node{}
	}
	return n.ref(n.d().a)
}

// Titles returns the title blobs of a resource declaration.
func (n Node) Titles() []Node {
	if n.Kind() != KindResource {
		return nil
	}
	return n.list(n.d().items)
}

func (n Node) Attributes() []Node {
	if n.Kind() != KindResource {
		return nil
	}
	return n.list(n.d().extra)
}

// Value is the value blob of a resource attribute. It is nil when the
// attribute has a name only.
func (n Node) Value() Node {
	if n.Kind() != KindResourceAttribute {
		return Node{}
	}
	return n.ref(n.d().a)
}

func (n Node) Inherits() Node {
	if n.Kind() != KindClass {
		return Node{}
	}
	return n.ref(n.d().b)
}

// Body is the body blob of a class, define or node declaration.
func (n Node) Body() Node {
	switch n.Kind() {
	case KindClass, KindDefine, KindNode:
		return n.ref(n.d().c)
	}
	return Node{}
}

func (n Node) Parameters() []Node {
	switch n.Kind() {
	case KindClass, KindDefine:
		return n.list(n.d().items)
	}
	return nil
}

// Names returns the host name texts of a node declaration.
func (n Node) Names() []string {
	if n.Kind() != KindNode {
		return nil
	}
	return append([]string(nil), n.d().names...)
}

func (n Node) HostNames() []Node {
	if n.Kind() != KindNode {
		return nil
	}
	return n.list(n.d().items)
}

// ParamType is the declared type text of a parameter, `Any` when absent.
func (n Node) ParamType() string {
	if n.Kind() != KindClassParameter {
		return ""
	}
	return n.d().text
}

// Variable is the VariableDefinition of a parameter.
func (n Node) Variable() Node {
	if n.Kind() != KindClassParameter {
		return Node{}
	}
	return n.ref(n.d().a)
}

func (n Node) DefaultValue() Node {
	if n.Kind() != KindClassParameter {
		return Node{}
	}
	return n.ref(n.d().b)
}

func (n Node) Condition() Node {
	if n.Kind() != KindCondition {
		return Node{}
	}
	return n.ref(n.d().a)
}

func (n Node) Consequence() Node {
	if n.Kind() != KindCondition {
		return Node{}
	}
	return n.ref(n.d().b)
}

// Otherwise is the else branch: a Condition for elsif, a Blob for else.
func (n Node) Otherwise() Node {
	if n.Kind() != KindCondition {
		return Node{}
	}
	return n.ref(n.d().c)
}

// Control is the blob a case statement switches on.
func (n Node) Control() Node {
	if n.Kind() != KindCase {
		return Node{}
	}
	return n.ref(n.d().a)
}

type CaseBranch struct {
	Match Node
	Body  Node
}

func (n Node) Cases() []CaseBranch {
	if n.Kind() != KindCase {
		return nil
	}
	d := n.d()
	out := make([]CaseBranch, 0, len(d.items))
	for i, m := range d.items {
		branch := CaseBranch{Match: n.ref(m)}
		if i < len(d.extra) {
			branch.Body = n.ref(d.extra[i])
		}
		out = append(out, branch)
	}
	return out
}
