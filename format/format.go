package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/pup/puppet"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(m *puppet.ManifestModel) error
}

// Names lists the formats accepted by NewEncoder.
var Names = []string{"line", "json"}

func NewEncoder(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "line", "":
		return NewLineEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format %q", name)
}
