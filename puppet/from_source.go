package puppet

import (
	"context"
	"fmt"
	"strings"

	"github.com/dhamidi/pup/puppet/parser"
)

// Source is a parsed manifest together with what is needed to map nodes back
// to the text they came from.
type Source struct {
	File   string
	Data   []byte
	Tokens []parser.Token
	Root   parser.Node
	Lines  *parser.LineIndex
}

// ParseSource lexes and parses data. The returned Source keeps the token
// sequence so that comments can be attached to declarations.
func ParseSource(data []byte, opts ...parser.Option) (*Source, error) {
	return ParseSourceContext(context.Background(), data, opts...)
}

// ParseSourceContext is like ParseSource but cancels the parser when ctx is
// done. The parser stops at the next top-level statement.
func ParseSourceContext(ctx context.Context, data []byte, opts ...parser.Option) (*Source, error) {
	tokens := parser.Tokenize(data, "")
	p := parser.ParseTokens(parser.NewCursor(tokens, len(data)), opts...)
	stop := context.AfterFunc(ctx, p.Cancel)
	root := p.Finish()
	stop()
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.File(), err)
	}
	return &Source{
		File:   p.File(),
		Data:   data,
		Tokens: tokens,
		Root:   root,
		Lines:  parser.NewLineIndex(data),
	}, nil
}

// ManifestFromSource parses data and flattens the tree into a ManifestModel.
func ManifestFromSource(data []byte, opts ...parser.Option) (*ManifestModel, error) {
	src, err := ParseSource(data, opts...)
	if err != nil {
		return nil, err
	}
	return src.Model(), nil
}

// Location maps n to a source range.
func (s *Source) Location(n parser.Node) Location {
	if n.IsNil() {
		return Location{File: s.File}
	}
	return s.Span(n.Offset(), n.EndOffset())
}

// Span maps a byte range to a Location.
func (s *Source) Span(offset, end int) Location {
	start, stop := s.Lines.Position(offset), s.Lines.Position(end)
	return Location{
		File:      s.File,
		Offset:    offset,
		End:       end,
		Line:      start.Line,
		Column:    start.Column,
		EndLine:   stop.Line,
		EndColumn: stop.Column,
	}
}

// Text returns the source covered by n.
func (s *Source) Text(n parser.Node) string {
	if n.IsNil() {
		return ""
	}
	start, end := n.Offset(), n.EndOffset()
	if start > len(s.Data) {
		start = len(s.Data)
	}
	if end > len(s.Data) {
		end = len(s.Data)
	}
	if end < start {
		return ""
	}
	return string(s.Data[start:end])
}

// blobText is the trimmed text of a blob. Blobs cover the token that ended
// them; it is dropped when it is one of stops.
func (s *Source) blobText(n parser.Node, stops string) string {
	t := strings.TrimSpace(s.Text(n))
	if t != "" && strings.IndexByte(stops, t[len(t)-1]) >= 0 {
		t = strings.TrimSpace(t[:len(t)-1])
	}
	return t
}

// Model flattens the tree into a ManifestModel.
func (s *Source) Model() *ManifestModel {
	b := &modelBuilder{
		src:  s,
		docs: newDocFinder(s.Tokens, s.Lines),
		m:    &ManifestModel{File: s.File},
	}
	b.walk(s.Root, "")
	return b.m
}

type modelBuilder struct {
	src  *Source
	docs *docFinder
	m    *ManifestModel
}

func (b *modelBuilder) walk(n parser.Node, container string) {
	for _, child := range n.Children() {
		switch child.Kind() {
		case parser.KindClass, parser.KindDefine:
			cm := b.declaration(child, container)
			if cm.Kind == DeclarationClass {
				b.m.Classes = append(b.m.Classes, cm)
			} else {
				b.m.Defines = append(b.m.Defines, cm)
			}
			b.walk(child, cm.Name)
			continue
		case parser.KindNode:
			b.m.Nodes = append(b.m.Nodes, NodeModel{
				Names:    child.Names(),
				Location: b.src.Location(child),
			})
		case parser.KindResource:
			b.m.Resources = append(b.m.Resources, b.resource(child, container))
		case parser.KindFunction:
			b.includes(child, container)
		case parser.KindClassReference:
			b.m.References = append(b.m.References, ReferenceModel{
				Kind:     ReferenceClass,
				Type:     "Class",
				Name:     child.Name(),
				Location: b.src.Location(child),
			})
		case parser.KindResourceReference:
			b.m.References = append(b.m.References, ReferenceModel{
				Kind:     ReferenceResource,
				Type:     ResourceReferenceType(child),
				Name:     child.Name(),
				Location: b.src.Location(child),
			})
		case parser.KindVariable, parser.KindVariableDefinition:
			b.m.Variables = append(b.m.Variables, VariableModel{
				Name:       strings.TrimPrefix(child.Text(), "$"),
				Definition: child.Kind() == parser.KindVariableDefinition,
				Container:  container,
				Location:   b.src.Location(child),
			})
		case parser.KindError:
			b.m.Errors = append(b.m.Errors, DiagnosticModel{
				Message:  child.Message(),
				Location: b.src.Location(child),
			})
		}
		b.walk(child, container)
	}
}

func (b *modelBuilder) declaration(n parser.Node, container string) *ClassModel {
	cm := &ClassModel{
		Name:      n.Name(),
		Kind:      DeclarationClass,
		Doc:       b.docs.ForOffset(n.Offset()),
		Location:  b.src.Location(n),
		Enclosing: container,
	}
	if n.Kind() == parser.KindDefine {
		cm.Kind = DeclarationDefine
	}
	// class outer { class inner {} } declares outer::inner.
	if container != "" && cm.Name != "" && !strings.HasPrefix(cm.Name, "::") {
		cm.Name = container + "::" + cm.Name
	}
	cm.Name = strings.TrimPrefix(cm.Name, "::")
	if name := n.NameNode(); !name.IsNil() {
		cm.NameLocation = b.src.Location(name)
	}
	if inh := n.Inherits(); !inh.IsNil() {
		cm.Inherits = strings.TrimPrefix(inh.Name(), "::")
	}
	for _, p := range n.Parameters() {
		pm := ParameterModel{
			Type:     p.ParamType(),
			Location: b.src.Location(p),
		}
		if v := p.Variable(); !v.IsNil() {
			pm.Name = strings.TrimPrefix(v.Text(), "$")
		}
		if def := p.DefaultValue(); !def.IsNil() {
			pm.Default = b.src.blobText(def, ",)")
		}
		cm.Parameters = append(cm.Parameters, pm)
	}
	return cm
}

func (b *modelBuilder) resource(n parser.Node, container string) ResourceModel {
	rm := ResourceModel{
		Container: container,
		Location:  b.src.Location(n),
	}
	if typ := n.ResourceType(); !typ.IsNil() {
		rm.Type = typ.TypeName()
		rm.IsDefaults = typ.IsDataType()
	}
	for _, title := range n.Titles() {
		switch title.Kind() {
		case parser.KindClassReference, parser.KindResourceReference:
			rm.Titles = append(rm.Titles, title.Name())
		default:
			rm.Titles = append(rm.Titles, b.src.blobText(title, ":,]"))
		}
	}
	for _, attr := range n.Attributes() {
		rm.Attributes = append(rm.Attributes, AttributeModel{
			Name:     attr.Name(),
			Value:    b.src.blobText(attr.Value(), ",;}"),
			Location: b.src.Location(attr),
		})
	}
	return rm
}

func (b *modelBuilder) includes(fn parser.Node, container string) {
	switch fn.Name() {
	case "include", "require", "contain":
	default:
		return
	}
	for _, ref := range fn.CollectByKind(parser.KindClassReference, false) {
		b.m.Includes = append(b.m.Includes, IncludeModel{
			Function:  fn.Name(),
			Class:     strings.TrimPrefix(ref.Name(), "::"),
			Container: container,
			Location:  b.src.Location(ref),
		})
	}
}

// docFinder attaches `#` comment blocks to the declaration on the line
// directly below them.
type docFinder struct {
	lines    *parser.LineIndex
	comments []parser.Token
}

func newDocFinder(tokens []parser.Token, lines *parser.LineIndex) *docFinder {
	var comments []parser.Token
	for i, tok := range tokens {
		if tok.Kind != parser.TokenLineComment {
			continue
		}
		// Comments trailing code on the same line are not docs.
		own := i == 0
		if i > 0 {
			prev := tokens[i-1]
			own = prev.Kind == parser.TokenWhitespace && (i == 1 || strings.Contains(prev.Literal, "\n"))
		}
		if own {
			comments = append(comments, tok)
		}
	}
	return &docFinder{lines: lines, comments: comments}
}

// ForOffset returns the comment lines directly above the line holding
// offset, without their `#` markers.
func (df *docFinder) ForOffset(offset int) string {
	want := df.lines.Position(offset).Line - 1
	last := -1
	for i := len(df.comments) - 1; i >= 0; i-- {
		if df.comments[i].Offset() < offset {
			last = i
			break
		}
	}
	if last < 0 || df.comments[last].Span.Start.Line != want {
		return ""
	}

	var block []string
	for i := last; i >= 0 && df.comments[i].Span.Start.Line == want; i-- {
		text := strings.TrimPrefix(df.comments[i].Literal, "#")
		block = append(block, strings.TrimSpace(text))
		want--
	}
	for i, j := 0, len(block)-1; i < j; i, j = i+1, j-1 {
		block[i], block[j] = block[j], block[i]
	}
	return strings.Join(block, "\n")
}
