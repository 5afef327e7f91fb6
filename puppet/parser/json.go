package parser

import "encoding/json"

type jsonNode struct {
	Kind     string      `json:"kind"`
	Offset   int         `json:"offset"`
	End      int         `json:"end"`
	Span     *jsonSpan   `json:"span,omitempty"`
	Name     string      `json:"name,omitempty"`
	Int      *int64      `json:"int,omitempty"`
	Float    *float64    `json:"float,omitempty"`
	Type     string      `json:"type,omitempty"`
	Flags    []string    `json:"flags,omitempty"`
	Error    string      `json:"error,omitempty"`
	Children []*jsonNode `json:"children,omitempty"`
}

type jsonSpan struct {
	Start jsonPosition `json:"start"`
	End   jsonPosition `json:"end"`
}

type jsonPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	if n.IsNil() {
		return []byte("null"), nil
	}
	return json.Marshal(n.toJSON())
}

func (n Node) toJSON() *jsonNode {
	jn := &jsonNode{
		Kind:   n.Kind().String(),
		Offset: n.Offset(),
		End:    n.EndOffset(),
	}

	if lines := n.t.lines; lines != nil {
		start, end := lines.Position(jn.Offset), lines.Position(jn.End)
		jn.Span = &jsonSpan{
			Start: jsonPosition{Line: start.Line, Column: start.Column},
			End:   jsonPosition{Line: end.Line, Column: end.Column},
		}
	}

	d := n.d()
	switch d.kind {
	case KindNumber:
		v := d.ival
		jn.Int = &v
	case KindFloat:
		v := d.fval
		jn.Float = &v
	case KindError:
		jn.Error = d.text
	case KindClassParameter:
		jn.Type = d.text
	case KindTypeReference:
		jn.Name = d.text
		if d.flags&flagDataType != 0 {
			jn.Flags = append(jn.Flags, "datatype")
		}
		if d.flags&flagClass != 0 {
			jn.Flags = append(jn.Flags, "class")
		}
		if d.flags&flagResource != 0 {
			jn.Flags = append(jn.Flags, "resource")
		}
	default:
		jn.Name = n.Name()
	}

	for _, child := range n.Children() {
		jn.Children = append(jn.Children, child.toJSON())
	}
	return jn
}
