package codebase

import (
	"sort"
	"strings"

	"github.com/dhamidi/pup/puppet"
)

type CompletionKind int

const (
	CompletionKindClass CompletionKind = iota
	CompletionKindDefine
	CompletionKindVariable
	CompletionKindAttribute
)

type CompletionItem struct {
	Label      string
	Kind       CompletionKind
	Detail     string
	InsertText string
}

// metaparameters are accepted by every resource type.
var metaparameters = []string{
	"alias", "audit", "before", "loglevel", "noop", "notify",
	"require", "schedule", "stage", "subscribe", "tag",
}

var builtinVariables = []string{"facts", "trusted", "server_facts", "environment"}

// CompletionsAt proposes class names, variables or attribute names for the
// position offset in path.
func (c *Codebase) CompletionsAt(path string, offset int) []CompletionItem {
	f := c.GetFile(path)
	if f == nil || f.Source == nil {
		return nil
	}

	ctx := puppet.CompletionContextAt(f.Source.Root, offset)
	if ctx.Kind == puppet.CompleteNone {
		ctx = textContext(f.Content, offset)
	}
	log.Debugf("completion at %s:%d: %s %q", path, offset, ctx.Kind, ctx.Prefix)

	switch ctx.Kind {
	case puppet.CompleteClass:
		return c.classCompletions(ctx.Prefix)
	case puppet.CompleteVariable:
		return c.variableCompletions(f, offset, ctx.Prefix)
	case puppet.CompleteAttribute:
		return c.attributeCompletions(ctx.ResourceType, ctx.Prefix)
	}
	return nil
}

// textContext looks at the text before offset for what the tree cannot show
// yet, such as a lone `$` or an include without a class name.
func textContext(content []byte, offset int) puppet.CompletionContext {
	if offset > len(content) {
		offset = len(content)
	}
	if offset < 0 {
		return puppet.CompletionContext{}
	}
	start := offset
	for start > 0 && isNameByte(content[start-1]) {
		start--
	}
	word := string(content[start:offset])
	if start > 0 && content[start-1] == '$' {
		return puppet.CompletionContext{Kind: puppet.CompleteVariable, Prefix: word}
	}

	lineStart := start
	for lineStart > 0 && content[lineStart-1] != '\n' {
		lineStart--
	}
	fields := strings.Fields(string(content[lineStart:start]))
	if len(fields) > 0 {
		switch fields[len(fields)-1] {
		case "include", "require", "contain":
			return puppet.CompletionContext{Kind: puppet.CompleteClass, Prefix: word}
		}
	}
	return puppet.CompletionContext{}
}

func isNameByte(b byte) bool {
	return b == '_' || b == ':' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (c *Codebase) classCompletions(prefix string) []CompletionItem {
	prefix = strings.TrimPrefix(prefix, "::")
	var items []CompletionItem
	for _, cls := range c.AllClasses() {
		if cls.Kind != puppet.DeclarationClass || !strings.HasPrefix(cls.Name, prefix) {
			continue
		}
		items = append(items, CompletionItem{
			Label:      cls.Name,
			Kind:       CompletionKindClass,
			Detail:     formatSignature(cls),
			InsertText: cls.Name,
		})
	}
	return items
}

func (c *Codebase) variableCompletions(f *FileInfo, offset int, prefix string) []CompletionItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	var items []CompletionItem
	add := func(name, detail string) {
		if seen[name] || !strings.HasPrefix(name, prefix) {
			return
		}
		seen[name] = true
		items = append(items, CompletionItem{
			Label:      name,
			Kind:       CompletionKindVariable,
			Detail:     detail,
			InsertText: name,
		})
	}

	if decl := puppet.EnclosingDeclaration(f.Source.Root, offset); !decl.IsNil() {
		cls := f.Model.DeclarationAt(decl.Offset())
		visited := make(map[string]bool)
		for cls != nil && !visited[cls.Name] {
			visited[cls.Name] = true
			if owner := c.files[cls.Location.File]; owner != nil && owner.Model != nil {
				for _, v := range owner.Model.Variables {
					if v.Definition && v.Container == cls.Name {
						add(v.Name, cls.Name)
					}
				}
			}
			if cls.Inherits == "" {
				break
			}
			cls = c.classes[normalizeName(cls.Inherits)]
		}
	}
	for _, v := range f.Model.Variables {
		if v.Definition && v.Container == "" {
			add(v.Name, "top scope")
		}
	}
	for _, name := range builtinVariables {
		add(name, "built-in")
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Label < items[j].Label
	})
	return items
}

func (c *Codebase) attributeCompletions(resourceType, prefix string) []CompletionItem {
	var items []CompletionItem
	if def := c.FindDefine(resourceType); def != nil {
		for _, p := range def.Parameters {
			if !strings.HasPrefix(p.Name, prefix) {
				continue
			}
			items = append(items, CompletionItem{
				Label:      p.Name,
				Kind:       CompletionKindAttribute,
				Detail:     p.Type,
				InsertText: p.Name + " => ",
			})
		}
	}
	for _, name := range metaparameters {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		items = append(items, CompletionItem{
			Label:      name,
			Kind:       CompletionKindAttribute,
			Detail:     "metaparameter",
			InsertText: name + " => ",
		})
	}
	return items
}
