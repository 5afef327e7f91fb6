package parser

import "strings"

// parseClass parses `class name (params) inherits parent { body }` with the
// cursor on the class keyword and the name as the next token.
func (p *Parser) parseClass(parent NodeID) {
	cls := p.t.NewNode(KindClass, p.cur.Offset(), parent)
	p.cur.Next()
	p.parseClassRest(cls)
}

// parseClassRest continues a class declaration from its name.
func (p *Parser) parseClassRest(cls NodeID) {
	p.parseDeclRest(cls, true)
}

// parseDefine parses `define name (params) { body }`.
func (p *Parser) parseDefine(parent NodeID) {
	def := p.t.NewNode(KindDefine, p.cur.Offset(), parent)
	m := p.cur.Mark()
	if tok := p.cur.Next(); tok == nil || tok.Kind != TokenIdent {
		p.cur.Rewind(m)
		return
	}
	p.parseDeclRest(def, false)
}

// parseDeclRest reads the name under the cursor, then the optional parameter
// list, the optional inherits clause and the body. A declaration without
// `{` simply ends; the cursor is put back on the last token that belonged to
// it so the caller sees the offending token.
func (p *Parser) parseDeclRest(decl NodeID, allowInherits bool) {
	name := p.cur.Current()
	id := p.t.NewLeaf(KindIdentifier, name.Offset(), name.Literal, decl)
	p.t.data(decl).a = id

	m := p.cur.Mark()
	tok := p.cur.Next()
	if tok != nil && tok.Kind == TokenLParen {
		p.parseParams(decl)
		m = p.cur.Mark()
		tok = p.cur.Next()
	}
	if allowInherits && tok != nil && tok.Kind == TokenInherits {
		m = p.cur.Mark()
		tok = p.cur.Next()
		if tok == nil || tok.Kind != TokenIdent {
			p.cur.Rewind(m)
			return
		}
		ref := p.newReference(KindClassReference, decl, tok)
		p.t.data(decl).b = ref
		m = p.cur.Mark()
		tok = p.cur.Next()
	}
	if tok == nil || tok.Kind != TokenLBrace {
		p.cur.Rewind(m)
		return
	}
	p.cur.Next()
	body := p.scanBlob(decl, true, TokenRBrace)
	p.t.data(decl).c = body
}

// parseParams parses a parenthesised parameter list with the cursor on `(`
// and leaves it on the closing `)`. Each parameter is `Type $name = default`
// with type and default optional; commas inside the type's brackets do not
// separate parameters.
func (p *Parser) parseParams(decl NodeID) {
	var (
		typeText strings.Builder
		typeOff  = -1
		typeTok  *Token
		varID    = NoNode
		varOff   int
		defID    = NoNode
		depth    int
	)

	finish := func() {
		switch {
		case varID != NoNode:
			off := varOff
			if typeOff >= 0 {
				off = typeOff
			}
			param := p.t.NewNode(KindClassParameter, off, decl)
			p.t.SetParent(varID, param)
			d := p.t.data(param)
			d.text = "Any"
			if typeOff >= 0 {
				d.text = typeText.String()
			}
			d.a = varID
			if defID != NoNode {
				p.t.SetParent(defID, param)
				p.t.data(param).b = defID
			}
			dd := p.t.data(decl)
			dd.items = append(dd.items, param)
		case typeOff >= 0:
			p.errorAt(decl, typeTok, "parameter type %s without a variable", typeText.String())
		}
		typeText.Reset()
		typeOff, typeTok, varID, defID, depth = -1, nil, NoNode, NoNode, 0
	}

	tok := p.cur.Next()
	for tok != nil && !(tok.Kind == TokenRParen && depth == 0) {
		switch {
		case tok.Kind == TokenVariable && varID == NoNode:
			varID = p.t.NewLeaf(KindVariableDefinition, tok.Offset(), tok.Literal, NoNode)
			varOff = tok.Offset()
			depth = 0
		case tok.Kind == TokenAssign && varID != NoNode:
			p.cur.Next()
			defID = p.scanBlob(NoNode, false, TokenComma, TokenRParen)
			if p.cur.Kind() == TokenComma {
				finish()
			}
			tok = p.cur.Current()
			if tok == nil || tok.Kind == TokenRParen {
				continue
			}
		case tok.Kind == TokenComma && depth == 0:
			finish()
		case varID == NoNode && (typeOff >= 0 || tok.Kind == TokenIdent):
			if typeOff < 0 {
				typeOff, typeTok = tok.Offset(), tok
			}
			switch tok.Kind {
			case TokenLBracket:
				depth++
			case TokenRBracket:
				depth--
			}
			typeText.WriteString(tok.Literal)
			if tok.Kind == TokenComma {
				typeText.WriteString(" ")
			}
		}
		tok = p.cur.Next()
	}
	finish()
}

// nodeNameKinds may appear in a node's host names. Adjacent tokens are
// joined, so `web01.example.com` is one name.
var nodeNameKinds = []TokenKind{
	TokenIdent, TokenDefault, TokenIntLiteral, TokenFloatLiteral, TokenDot, TokenMinus,
}

// parseNode parses `node name, 'name', /regexp/ { body }`.
func (p *Parser) parseNode(parent NodeID) {
	n := p.t.NewNode(KindNode, p.cur.Offset(), parent)

	var (
		part    strings.Builder
		partOff = -1
		partEnd int
	)
	flush := func() {
		if partOff < 0 {
			return
		}
		id := p.t.NewLeaf(KindIdentifier, partOff, part.String(), n)
		p.t.SetEnd(id, partEnd)
		d := p.t.data(n)
		d.items = append(d.items, id)
		d.names = append(d.names, part.String())
		part.Reset()
		partOff = -1
	}
	addLeaf := func(kind NodeKind, tok *Token, name string) {
		id := p.t.NewLeaf(kind, tok.Offset(), tok.Literal, n)
		d := p.t.data(n)
		d.items = append(d.items, id)
		d.names = append(d.names, name)
	}

	m := p.cur.Mark()
	tok := p.cur.Next()
	for tok != nil && tok.Kind != TokenLBrace {
		switch {
		case tok.Kind == TokenComma:
			flush()
		case tok.Kind == TokenStringLiteral:
			flush()
			addLeaf(KindString, tok, unquote(tok.Literal))
		case tok.Kind == TokenRegexpLiteral:
			flush()
			addLeaf(KindRegexp, tok, tok.Literal)
		case kindIn(tok.Kind, nodeNameKinds):
			if partOff < 0 {
				partOff = tok.Offset()
			}
			part.WriteString(tok.Literal)
			partEnd = tok.End()
		default:
			flush()
			p.cur.Rewind(m)
			return
		}
		m = p.cur.Mark()
		tok = p.cur.Next()
	}
	flush()
	if tok == nil {
		return
	}
	p.cur.Next()
	body := p.scanBlob(n, true, TokenRBrace)
	p.t.data(n).c = body
}
