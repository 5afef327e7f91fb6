package puppet

type DeclarationKind string

const (
	DeclarationClass  DeclarationKind = "class"
	DeclarationDefine DeclarationKind = "define"
	DeclarationNode   DeclarationKind = "node"
)

type ReferenceKind string

const (
	ReferenceClass    ReferenceKind = "class"
	ReferenceResource ReferenceKind = "resource"
	ReferenceType     ReferenceKind = "type"
	ReferenceVariable ReferenceKind = "variable"
)

// Location is a source range. Line and Column are 1-based and refer to
// Offset; EndLine and EndColumn refer to End.
type Location struct {
	File      string
	Offset    int
	End       int
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

// ManifestModel is the flattened, tree-independent view of one manifest.
type ManifestModel struct {
	File       string
	Classes    []*ClassModel
	Defines    []*ClassModel
	Nodes      []NodeModel
	Resources  []ResourceModel
	Includes   []IncludeModel
	References []ReferenceModel
	Variables  []VariableModel
	Errors     []DiagnosticModel
}

// ClassModel describes a class or a defined type.
type ClassModel struct {
	Name         string
	Kind         DeclarationKind
	Inherits     string
	Parameters   []ParameterModel
	Doc          string
	Location     Location
	NameLocation Location
	// Enclosing is the name of the class a nested class is declared in.
	Enclosing string
}

type ParameterModel struct {
	Name     string
	Type     string
	Default  string
	Location Location
}

type NodeModel struct {
	Names    []string
	Location Location
}

type ResourceModel struct {
	Type       string
	Titles     []string
	Attributes []AttributeModel
	// IsDefaults marks `File { ... }` statements, which set attribute
	// defaults instead of declaring resources.
	IsDefaults bool
	Container  string
	Location   Location
}

type AttributeModel struct {
	Name     string
	Value    string
	Location Location
}

// IncludeModel is one class named by include, require or contain.
type IncludeModel struct {
	Function  string
	Class     string
	Container string
	Location  Location
}

type ReferenceModel struct {
	Kind     ReferenceKind
	Type     string
	Name     string
	Location Location
}

type VariableModel struct {
	Name       string
	Definition bool
	Container  string
	Location   Location
}

type DiagnosticModel struct {
	Message  string
	Location Location
}

// FindClass returns the class or define with the given name.
func (m *ManifestModel) FindClass(name string) *ClassModel {
	for _, c := range m.Classes {
		if c.Name == name {
			return c
		}
	}
	for _, d := range m.Defines {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Parameter returns the named parameter, with or without its leading `$`.
func (c *ClassModel) Parameter(name string) *ParameterModel {
	if len(name) > 0 && name[0] == '$' {
		name = name[1:]
	}
	for i := range c.Parameters {
		if c.Parameters[i].Name == name {
			return &c.Parameters[i]
		}
	}
	return nil
}

// DeclarationAt returns the class or define that starts at offset.
func (m *ManifestModel) DeclarationAt(offset int) *ClassModel {
	for _, c := range m.Classes {
		if c.Location.Offset == offset {
			return c
		}
	}
	for _, d := range m.Defines {
		if d.Location.Offset == offset {
			return d
		}
	}
	return nil
}
