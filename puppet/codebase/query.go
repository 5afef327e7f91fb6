package codebase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dhamidi/pup/puppet"
)

type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

type Diagnostic struct {
	Location puppet.Location
	Severity Severity
	Message  string
}

// Diagnostics reports the syntax errors of path and the classes it names
// that no scanned manifest declares.
func (c *Codebase) Diagnostics(path string) []Diagnostic {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f := c.files[path]
	if f == nil || f.Model == nil {
		return nil
	}

	var out []Diagnostic
	for _, e := range f.Model.Errors {
		out = append(out, Diagnostic{Location: e.Location, Severity: SeverityError, Message: e.Message})
	}
	unknown := func(name string, loc puppet.Location) {
		if name == "" || c.classes[normalizeName(name)] != nil {
			return
		}
		out = append(out, Diagnostic{
			Location: loc,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("unknown class %s", name),
		})
	}
	for _, inc := range f.Model.Includes {
		unknown(inc.Class, inc.Location)
	}
	for _, cls := range f.Model.Classes {
		if cls.Inherits != "" {
			unknown(cls.Inherits, cls.NameLocation)
		}
	}
	for _, res := range f.Model.Resources {
		if res.Type != "Class" || res.IsDefaults {
			continue
		}
		for _, title := range res.Titles {
			unknown(title, res.Location)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Location.Offset < out[j].Location.Offset
	})
	return out
}

// DefinitionAt resolves the reference at offset in path to the location of
// its declaration.
func (c *Codebase) DefinitionAt(path string, offset int) *puppet.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f := c.files[path]
	if f == nil || f.Source == nil {
		return nil
	}
	ref := puppet.ReferenceAtPoint(f.Source.Root, offset)
	if ref == nil {
		return nil
	}

	switch ref.Kind {
	case puppet.ReferenceClass:
		if cls := c.classes[normalizeName(ref.Name)]; cls != nil {
			return locationOf(cls.NameLocation)
		}
	case puppet.ReferenceResource:
		if def := c.defines[normalizeName(ref.Type)]; def != nil {
			return locationOf(def.NameLocation)
		}
	case puppet.ReferenceType:
		if def := c.defines[normalizeName(ref.Name)]; def != nil {
			return locationOf(def.NameLocation)
		}
	case puppet.ReferenceVariable:
		return c.variableDefinitionLocked(f, ref, offset)
	}
	return nil
}

// variableDefinitionLocked finds where a variable is assigned: in the named
// class for `$apache::port`, otherwise in the enclosing declaration, its
// parent classes and finally at top level.
func (c *Codebase) variableDefinitionLocked(f *FileInfo, ref *puppet.Reference, offset int) *puppet.Location {
	name := strings.TrimPrefix(ref.Name, "::")
	if i := strings.LastIndex(name, "::"); i >= 0 {
		cls := c.classes[normalizeName(name[:i])]
		if cls == nil {
			return nil
		}
		return c.findAssignmentLocked(cls, name[i+2:])
	}

	if decl := puppet.EnclosingDeclaration(f.Source.Root, offset); !decl.IsNil() {
		if cls := f.Model.DeclarationAt(decl.Offset()); cls != nil {
			if loc := c.findAssignmentLocked(cls, name); loc != nil {
				return loc
			}
		}
	}
	for _, v := range f.Model.Variables {
		if v.Definition && v.Container == "" && v.Name == name {
			return locationOf(v.Location)
		}
	}
	return nil
}

// findAssignmentLocked looks for name in cls and then along its inherits
// chain.
func (c *Codebase) findAssignmentLocked(cls *puppet.ClassModel, name string) *puppet.Location {
	seen := make(map[string]bool)
	for cls != nil && !seen[cls.Name] {
		seen[cls.Name] = true
		if f := c.files[cls.Location.File]; f != nil && f.Model != nil {
			for _, v := range f.Model.Variables {
				if v.Definition && v.Container == cls.Name && v.Name == name {
					return locationOf(v.Location)
				}
			}
		}
		if cls.Inherits == "" {
			return nil
		}
		cls = c.classes[normalizeName(cls.Inherits)]
	}
	return nil
}

func locationOf(loc puppet.Location) *puppet.Location {
	return &loc
}

// HoverAt describes the reference at offset as markdown.
func (c *Codebase) HoverAt(path string, offset int) string {
	c.mu.RLock()
	f := c.files[path]
	c.mu.RUnlock()
	if f == nil || f.Source == nil {
		return ""
	}
	ref := puppet.ReferenceAtPoint(f.Source.Root, offset)
	if ref == nil {
		return ""
	}

	var decl *puppet.ClassModel
	switch ref.Kind {
	case puppet.ReferenceClass:
		decl = c.FindClass(ref.Name)
	case puppet.ReferenceResource:
		decl = c.FindDefine(ref.Type)
	case puppet.ReferenceType:
		decl = c.FindDefine(ref.Name)
	case puppet.ReferenceVariable:
		return "```puppet\n$" + ref.Name + "\n```"
	}
	if decl == nil {
		if ref.Type != "" && ref.Type != ref.Name {
			return "```puppet\n" + ref.Type + "['" + ref.Name + "']\n```"
		}
		return ""
	}
	return formatDeclaration(decl)
}

func formatDeclaration(decl *puppet.ClassModel) string {
	var sb strings.Builder
	sb.WriteString("```puppet\n")
	sb.WriteString(formatSignature(decl))
	sb.WriteString("\n```")
	if decl.Doc != "" {
		sb.WriteString("\n\n")
		sb.WriteString(decl.Doc)
	}
	return sb.String()
}

func formatSignature(decl *puppet.ClassModel) string {
	var params []string
	for _, p := range decl.Parameters {
		s := p.Type + " $" + p.Name
		if p.Default != "" {
			s += " = " + p.Default
		}
		params = append(params, s)
	}
	sig := string(decl.Kind) + " " + decl.Name
	if len(params) > 0 {
		sig += "(" + strings.Join(params, ", ") + ")"
	}
	if decl.Inherits != "" {
		sig += " inherits " + decl.Inherits
	}
	return sig
}

type SymbolKind int

const (
	SymbolClass SymbolKind = iota
	SymbolDefine
	SymbolNode
	SymbolResource
)

type Symbol struct {
	Name     string
	Kind     SymbolKind
	Detail   string
	Location puppet.Location
	// Selection is the range of the symbol's name.
	Selection puppet.Location
}

// Symbols lists the declarations and resources of path in source order.
func (c *Codebase) Symbols(path string) []Symbol {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f := c.files[path]
	if f == nil || f.Model == nil {
		return nil
	}

	var out []Symbol
	add := func(cls *puppet.ClassModel, kind SymbolKind) {
		sel := cls.NameLocation
		if sel.End == 0 {
			sel = cls.Location
		}
		out = append(out, Symbol{
			Name:      cls.Name,
			Kind:      kind,
			Detail:    formatSignature(cls),
			Location:  cls.Location,
			Selection: sel,
		})
	}
	for _, cls := range f.Model.Classes {
		add(cls, SymbolClass)
	}
	for _, def := range f.Model.Defines {
		add(def, SymbolDefine)
	}
	for _, n := range f.Model.Nodes {
		out = append(out, Symbol{
			Name:      "node " + strings.Join(n.Names, ", "),
			Kind:      SymbolNode,
			Location:  n.Location,
			Selection: n.Location,
		})
	}
	for _, res := range f.Model.Resources {
		name := res.Type
		if len(res.Titles) > 0 {
			name += "['" + strings.Join(res.Titles, "', '") + "']"
		}
		out = append(out, Symbol{
			Name:      name,
			Kind:      SymbolResource,
			Detail:    res.Container,
			Location:  res.Location,
			Selection: res.Location,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Location.Offset < out[j].Location.Offset
	})
	return out
}
