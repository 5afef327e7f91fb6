package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/pup/puppet"
)

// LineEncoder writes one tab-separated record per declaration, resource,
// include and error, for use with grep and cut. Empty fields are written
// as "-".
type LineEncoder struct {
	w     io.Writer
	model *puppet.ManifestModel
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(m *puppet.ManifestModel) error {
	e.model = m
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	m := e.model

	for _, c := range m.Classes {
		e.writeClass(&sb, c)
	}
	for _, d := range m.Defines {
		e.writeClass(&sb, d)
	}

	for _, n := range m.Nodes {
		fmt.Fprintf(&sb, "node\t%s\t%s\n", strings.Join(n.Names, ","), e.pos(n.Location))
	}

	for _, r := range m.Resources {
		kind := "resource"
		if r.IsDefaults {
			kind = "defaults"
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\t%s\n",
			kind,
			r.Type,
			orDash(strings.Join(r.Titles, ",")),
			orDash(r.Container),
			e.pos(r.Location),
		)
	}

	for _, inc := range m.Includes {
		fmt.Fprintf(&sb, "%s\t%s\t%s\n", inc.Function, inc.Class, e.pos(inc.Location))
	}

	for _, err := range m.Errors {
		fmt.Fprintf(&sb, "error\t%s\t%s\n", e.pos(err.Location), err.Message)
	}

	return []byte(sb.String()), nil
}

func (e *LineEncoder) writeClass(sb *strings.Builder, c *puppet.ClassModel) {
	fmt.Fprintf(sb, "%s\t%s\t%s\t%s\n", c.Kind, c.Name, orDash(c.Inherits), e.pos(c.NameLocation))
	for _, p := range c.Parameters {
		fmt.Fprintf(sb, "param\t%s\t%s\t%s\n", p.Name, p.Type, orDash(p.Default))
	}
}

func (e *LineEncoder) pos(loc puppet.Location) string {
	file := e.model.File
	if file == "" {
		return fmt.Sprintf("%d:%d", loc.Line, loc.Column)
	}
	return fmt.Sprintf("%s:%d:%d", file, loc.Line, loc.Column)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
