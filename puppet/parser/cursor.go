package parser

import "sync/atomic"

// Cursor is a single-position view over a token sequence. It starts before
// the first token. Trivia tokens are visible through MoveNext/MovePrevious
// and skipped by Next/Prev.
type Cursor struct {
	tokens  []Token
	size    int
	pos     int
	invalid atomic.Bool
}

// Mark is an opaque cursor position returned by Mark and accepted by Rewind.
type Mark int

// NewCursor returns a cursor over tokens. size is the length of the source
// the tokens were lexed from and is reported as the offset past the end.
func NewCursor(tokens []Token, size int) *Cursor {
	return &Cursor{tokens: tokens, size: size, pos: -1}
}

// NewCursorFromSource lexes input and returns a cursor over the result.
func NewCursorFromSource(input []byte, file string) *Cursor {
	return NewCursor(Tokenize(input, file), len(input))
}

func (c *Cursor) inRange() bool {
	return c.pos >= 0 && c.pos < len(c.tokens)
}

// Current returns the token under the cursor or nil when the cursor is
// outside the sequence.
func (c *Cursor) Current() *Token {
	if !c.inRange() {
		return nil
	}
	return &c.tokens[c.pos]
}

func (c *Cursor) Kind() TokenKind {
	if !c.inRange() {
		return TokenEOF
	}
	return c.tokens[c.pos].Kind
}

func (c *Cursor) Text() string {
	if !c.inRange() {
		return ""
	}
	return c.tokens[c.pos].Literal
}

func (c *Cursor) Len() int {
	if !c.inRange() {
		return 0
	}
	return len(c.tokens[c.pos].Literal)
}

// Offset returns the start offset of the current token. Before the first
// token it is 0, past the last token it is the source size.
func (c *Cursor) Offset() int {
	switch {
	case c.pos < 0:
		return 0
	case c.pos >= len(c.tokens):
		return c.size
	}
	return c.tokens[c.pos].Span.Start.Offset
}

// End returns the offset just past the current token.
func (c *Cursor) End() int {
	return c.Offset() + c.Len()
}

func (c *Cursor) MoveNext() bool {
	if c.pos < len(c.tokens) {
		c.pos++
	}
	return c.pos < len(c.tokens)
}

func (c *Cursor) MovePrevious() bool {
	if c.pos >= 0 {
		c.pos--
	}
	return c.pos >= 0
}

// Next moves to the next significant token and returns it, or nil once the
// sequence is exhausted.
func (c *Cursor) Next() *Token {
	for c.MoveNext() {
		if !c.tokens[c.pos].Kind.IsTrivia() {
			return &c.tokens[c.pos]
		}
	}
	return nil
}

// Prev moves to the previous significant token and returns it, or nil at the
// start of the sequence.
func (c *Cursor) Prev() *Token {
	for c.MovePrevious() {
		if !c.tokens[c.pos].Kind.IsTrivia() {
			return &c.tokens[c.pos]
		}
	}
	return nil
}

// PeekKind returns the kind of the next significant token without moving.
func (c *Cursor) PeekKind() TokenKind {
	for i := c.pos + 1; i < len(c.tokens); i++ {
		if !c.tokens[i].Kind.IsTrivia() {
			return c.tokens[i].Kind
		}
	}
	return TokenEOF
}

func (c *Cursor) Mark() Mark {
	return Mark(c.pos)
}

func (c *Cursor) Rewind(m Mark) {
	c.pos = int(m)
}

// Valid reports whether the token source is still current. Editors
// invalidate a cursor when the document changes under a running parse.
func (c *Cursor) Valid() bool {
	return !c.invalid.Load()
}

func (c *Cursor) Invalidate() {
	c.invalid.Store(true)
}

func (c *Cursor) AtEnd() bool {
	return c.pos >= len(c.tokens)
}
