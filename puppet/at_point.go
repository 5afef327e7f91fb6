package puppet

import (
	"strings"

	"github.com/dhamidi/pup/puppet/parser"
)

// Reference is the named thing under a position in a manifest.
type Reference struct {
	// Node is the ClassReference, ResourceReference, Variable,
	// VariableDefinition, TypeReference or declaration found.
	Node parser.Node
	// Owner is the nearest ancestor that gives the reference meaning, such
	// as the Function of an include or the Resource of a title.
	Owner parser.Node
	Kind  ReferenceKind
	Name  string
	Type  string
}

// ReferenceAtPoint returns the reference at offset, or nil when the offset
// is not on a class, resource, type or variable.
func ReferenceAtPoint(root parser.Node, offset int) *Reference {
	if root.IsNil() {
		return nil
	}
	from := parser.Node{}
	n := root.FindNodeAtOffset(offset)
	for !n.IsNil() {
		switch n.Kind() {
		case parser.KindString, parser.KindIdentifier:
			from, n = n, n.Parent()
			continue
		case parser.KindClassReference:
			return newReference(n, ReferenceClass, strings.TrimPrefix(n.Name(), "::"), "Class")
		case parser.KindResourceReference:
			return newReference(n, ReferenceResource, n.Name(), ResourceReferenceType(n))
		case parser.KindVariable, parser.KindVariableDefinition:
			return newReference(n, ReferenceVariable, strings.TrimPrefix(n.Text(), "$"), "")
		case parser.KindTypeReference:
			return newReference(n, ReferenceType, n.TypeName(), n.TypeName())
		case parser.KindClass, parser.KindDefine:
			if from.IsNil() || from.ID() != n.NameNode().ID() {
				return nil
			}
			return newReference(n, ReferenceClass, strings.TrimPrefix(n.Name(), "::"), "Class")
		}
		return nil
	}
	return nil
}

func newReference(n parser.Node, kind ReferenceKind, name, typ string) *Reference {
	return &Reference{
		Node:  n,
		Owner: n.SkipParentsOfKind(parser.KindBlob, parser.KindString, parser.KindIdentifier),
		Kind:  kind,
		Name:  name,
		Type:  typ,
	}
}

// ResourceReferenceType returns the resource type a ResourceReference
// refers to: File for File['/tmp/a'], the inner type for
// Resource['file', '/tmp/a'], or the declared type for a resource title.
func ResourceReferenceType(ref parser.Node) string {
	if ref.IsNil() {
		return ""
	}
	if ref.Kind() == parser.KindClassReference {
		return "Class"
	}
	parent := ref.Parent()
	if parent.IsNil() {
		return ""
	}
	switch parent.Kind() {
	case parser.KindTypeReference:
		if parent.TypeName() == "Resource" {
			params := parent.Params()
			if len(params) > 0 && params[0].Kind() == parser.KindTypeReference {
				return params[0].TypeName()
			}
			return ""
		}
		return parent.TypeName()
	case parser.KindResource:
		if typ := parent.ResourceType(); !typ.IsNil() {
			return typ.TypeName()
		}
	}
	return ""
}

type CompletionContextKind int

const (
	CompleteNone CompletionContextKind = iota
	CompleteClass
	CompleteVariable
	CompleteAttribute
)

func (k CompletionContextKind) String() string {
	switch k {
	case CompleteClass:
		return "class"
	case CompleteVariable:
		return "variable"
	case CompleteAttribute:
		return "attribute"
	}
	return "none"
}

// CompletionContext describes what may be typed at a position.
type CompletionContext struct {
	Kind   CompletionContextKind
	Prefix string
	// ResourceType is set for attribute completion.
	ResourceType string
}

// CompletionContextAt works out from the tree alone whether offset sits on
// a class name, a variable or an attribute name, and how much of it has
// been typed.
func CompletionContextAt(root parser.Node, offset int) CompletionContext {
	if root.IsNil() {
		return CompletionContext{}
	}
	n := root.FindNodeAtOffset(offset)
	switch n.Kind() {
	case parser.KindVariable, parser.KindVariableDefinition:
		return CompletionContext{
			Kind:   CompleteVariable,
			Prefix: strings.TrimPrefix(prefixOf(n.Text(), n.Offset(), offset), "$"),
		}
	case parser.KindIdentifier, parser.KindString:
		leaf := n
		for !n.IsNil() && (n.Kind() == parser.KindIdentifier || n.Kind() == parser.KindString) {
			n = n.Parent()
		}
		if n.IsNil() || n.Kind() != parser.KindClassReference {
			return CompletionContext{}
		}
		text, start := leaf.Text(), leaf.Offset()
		if leaf.Kind() == parser.KindString {
			text, start = strings.Trim(text, `'"`), start+1
		}
		return CompletionContext{Kind: CompleteClass, Prefix: prefixOf(text, start, offset)}
	case parser.KindResourceAttribute:
		if offset > n.Offset()+len(n.Name()) {
			return CompletionContext{}
		}
		ctx := CompletionContext{
			Kind:   CompleteAttribute,
			Prefix: prefixOf(n.Name(), n.Offset(), offset),
		}
		if typ := n.Parent().ResourceType(); !typ.IsNil() {
			ctx.ResourceType = typ.TypeName()
		}
		return ctx
	case parser.KindResource:
		if offset <= resourceHeaderEnd(n) {
			return CompletionContext{}
		}
		ctx := CompletionContext{Kind: CompleteAttribute}
		if typ := n.ResourceType(); !typ.IsNil() {
			ctx.ResourceType = typ.TypeName()
		}
		return ctx
	}
	return CompletionContext{}
}

// resourceHeaderEnd is where the type name and titles of a resource end.
func resourceHeaderEnd(res parser.Node) int {
	end := res.Offset()
	if typ := res.ResourceType(); !typ.IsNil() {
		end = typ.EndOffset()
	}
	for _, title := range res.Titles() {
		if e := title.EndOffset(); e > end {
			end = e
		}
	}
	return end
}

func prefixOf(text string, start, offset int) string {
	n := offset - start
	if n <= 0 {
		return ""
	}
	if n > len(text) {
		n = len(text)
	}
	return text[:n]
}

// EnclosingDeclaration returns the innermost class, define or node whose
// range holds offset.
func EnclosingDeclaration(root parser.Node, offset int) parser.Node {
	if root.IsNil() {
		return parser.Node{}
	}
	for n := root.FindNodeAtOffset(offset); !n.IsNil(); n = n.Parent() {
		switch n.Kind() {
		case parser.KindClass, parser.KindDefine, parser.KindNode:
			return n
		}
	}
	return parser.Node{}
}
