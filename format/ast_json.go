package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/pup/puppet/parser"
)

// ASTJSONEncoder writes a parse tree as indented JSON. Spans are included
// when the tree was parsed with parser.WithPositions.
type ASTJSONEncoder struct {
	w io.Writer
}

func NewASTJSONEncoder(w io.Writer) *ASTJSONEncoder {
	return &ASTJSONEncoder{w: w}
}

func (e *ASTJSONEncoder) Encode(node parser.Node) error {
	text, err := e.MarshalText(node)
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *ASTJSONEncoder) MarshalText(node parser.Node) ([]byte, error) {
	return json.MarshalIndent(node, "", "  ")
}
