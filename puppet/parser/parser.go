package parser

import (
	"fmt"
	"io"
	"sync/atomic"
)

type Option func(*Parser)

func WithFile(path string) Option {
	return func(p *Parser) {
		p.file = path
	}
}

// WithPositions records line and column information on the resulting tree.
// It only has an effect when the parser reads source text itself.
func WithPositions() Option {
	return func(p *Parser) {
		p.includePositions = true
	}
}

type Parser struct {
	file             string
	includePositions bool
	reader           io.Reader
	input            []byte
	cur              *Cursor
	t                *Tree
	cancelled        atomic.Bool
	err              error
}

// ParseManifest returns a parser that reads a whole manifest from r when
// Finish is called.
func ParseManifest(r io.Reader, opts ...Option) *Parser {
	p := &Parser{reader: r}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseTokens returns a parser over an already lexed token sequence.
func ParseTokens(c *Cursor, opts ...Option) *Parser {
	p := &Parser{cur: c}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Parser) File() string {
	return p.file
}

// Err reports the error that prevented reading the source, if any.
func (p *Parser) Err() error {
	return p.err
}

// Cancel asks the parser to stop. The flag is checked between top-level
// statements only, so a statement in progress always completes.
func (p *Parser) Cancel() {
	p.cancelled.Store(true)
}

func (p *Parser) Cancelled() bool {
	return p.cancelled.Load()
}

// Finish runs the parse and returns the root node. The result is never nil
// unless reading the source failed; malformed input yields Error nodes.
func (p *Parser) Finish() Node {
	if p.cur == nil {
		if p.reader == nil {
			p.err = fmt.Errorf("parser: no input")
			return Node{}
		}
		data, err := io.ReadAll(p.reader)
		if err != nil {
			p.err = fmt.Errorf("reading %s: %w", p.displayName(), err)
			return Node{}
		}
		p.input = data
		p.cur = NewCursorFromSource(data, p.file)
	}
	p.t = NewTree()
	if p.includePositions && p.input != nil {
		p.t.lines = NewLineIndex(p.input)
	}
	p.parseManifest()
	return p.t.Root()
}

func (p *Parser) displayName() string {
	if p.file == "" {
		return "<input>"
	}
	return p.file
}

// topLevelStops end a run of top-level statements so the engine can dispatch
// the next declaration.
var topLevelStops = []TokenKind{TokenClass, TokenDefine, TokenNode}

func (p *Parser) parseManifest() {
	root := p.t.root
	tok := p.cur.Next()
	for tok != nil && p.cur.Valid() && !p.cancelled.Load() {
		switch tok.Kind {
		case TokenClass:
			if p.cur.PeekKind() == TokenIdent {
				p.parseClass(root)
			} else {
				p.parseStatements(root)
			}
		case TokenDefine:
			p.parseDefine(root)
		case TokenNode:
			p.parseNode(root)
		default:
			p.parseStatements(root)
		}
		tok = p.cur.Next()
	}
}

// parseStatements scans free-standing top-level code, as found in site.pp,
// into a Blob. The blob ends before the next class, define or node keyword.
func (p *Parser) parseStatements(parent NodeID) {
	blob := p.t.NewNode(KindBlob, p.cur.Offset(), parent)
	p.fillBlob(blob, true, true, topLevelStops)
	if p.cur.AtEnd() {
		return
	}
	p.cur.Prev()
	p.t.SetEnd(blob, p.cur.End())
}

func (p *Parser) errorAt(parent NodeID, tok *Token, format string, args ...any) NodeID {
	offset, end := p.cur.Offset(), p.cur.Offset()
	if tok != nil {
		offset, end = tok.Offset(), tok.End()
	}
	id := p.t.NewNode(KindError, offset, parent)
	p.t.nodes[id].text = fmt.Sprintf(format, args...)
	p.t.SetEnd(id, end)
	return id
}
