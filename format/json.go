package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/pup/puppet"
)

type JSONEncoder struct {
	w     io.Writer
	model *puppet.ManifestModel
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(m *puppet.ManifestModel) error {
	e.model = m
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(e.buildManifestData(), "", "  ")
}

type jsonManifest struct {
	File      string         `json:"file,omitempty"`
	Classes   []jsonClass    `json:"classes,omitempty"`
	Defines   []jsonClass    `json:"defines,omitempty"`
	Nodes     []jsonNode     `json:"nodes,omitempty"`
	Resources []jsonResource `json:"resources,omitempty"`
	Includes  []jsonInclude  `json:"includes,omitempty"`
	Errors    []jsonError    `json:"errors,omitempty"`
}

type jsonPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type jsonClass struct {
	Name       string          `json:"name"`
	Inherits   string          `json:"inherits,omitempty"`
	Doc        string          `json:"doc,omitempty"`
	Parameters []jsonParameter `json:"parameters,omitempty"`
	Position   jsonPosition    `json:"position"`
}

type jsonParameter struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default string `json:"default,omitempty"`
}

type jsonNode struct {
	Names    []string     `json:"names"`
	Position jsonPosition `json:"position"`
}

type jsonResource struct {
	Type       string            `json:"type"`
	Titles     []string          `json:"titles,omitempty"`
	Defaults   bool              `json:"defaults,omitempty"`
	Container  string            `json:"container,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Position   jsonPosition      `json:"position"`
}

type jsonInclude struct {
	Function string       `json:"function"`
	Class    string       `json:"class"`
	Position jsonPosition `json:"position"`
}

type jsonError struct {
	Message  string       `json:"message"`
	Position jsonPosition `json:"position"`
}

func position(loc puppet.Location) jsonPosition {
	return jsonPosition{Line: loc.Line, Column: loc.Column}
}

func (e *JSONEncoder) buildManifestData() jsonManifest {
	m := e.model
	data := jsonManifest{
		File:    m.File,
		Classes: buildClasses(m.Classes),
		Defines: buildClasses(m.Defines),
	}
	for _, n := range m.Nodes {
		data.Nodes = append(data.Nodes, jsonNode{Names: n.Names, Position: position(n.Location)})
	}
	for _, r := range m.Resources {
		res := jsonResource{
			Type:      r.Type,
			Titles:    r.Titles,
			Defaults:  r.IsDefaults,
			Container: r.Container,
			Position:  position(r.Location),
		}
		if len(r.Attributes) > 0 {
			res.Attributes = make(map[string]string, len(r.Attributes))
			for _, a := range r.Attributes {
				res.Attributes[a.Name] = a.Value
			}
		}
		data.Resources = append(data.Resources, res)
	}
	for _, inc := range m.Includes {
		data.Includes = append(data.Includes, jsonInclude{
			Function: inc.Function,
			Class:    inc.Class,
			Position: position(inc.Location),
		})
	}
	for _, err := range m.Errors {
		data.Errors = append(data.Errors, jsonError{Message: err.Message, Position: position(err.Location)})
	}
	return data
}

func buildClasses(classes []*puppet.ClassModel) []jsonClass {
	result := make([]jsonClass, len(classes))
	for i, c := range classes {
		result[i] = jsonClass{
			Name:     c.Name,
			Inherits: c.Inherits,
			Doc:      c.Doc,
			Position: position(c.NameLocation),
		}
		for _, p := range c.Parameters {
			result[i].Parameters = append(result[i].Parameters, jsonParameter{
				Name:    p.Name,
				Type:    p.Type,
				Default: p.Default,
			})
		}
	}
	return result
}
