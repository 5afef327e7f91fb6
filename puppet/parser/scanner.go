package parser

// scanBlob creates a Blob at the current token and fills it. See fillBlob.
func (p *Parser) scanBlob(parent NodeID, allowResources bool, stops ...TokenKind) NodeID {
	blob := p.t.NewNode(KindBlob, p.cur.Offset(), parent)
	p.fillBlob(blob, allowResources, false, stops)
	return blob
}

// fillBlob consumes tokens into blob until one of stops appears while no
// brace, bracket or paren is open. The cursor is left on the stop token, or
// past the end of input, and the blob's end covers the stop token. When
// first is set the current token is taken as content even if it is a stop.
// Resource declarations are only recognised when allowResources is set.
func (p *Parser) fillBlob(blob NodeID, allowResources, first bool, stops []TokenKind) {
	var braces, brackets, parens int
	ignore := first
	tok := p.cur.Current()

	for tok != nil && (ignore || !kindIn(tok.Kind, stops)) {
		switch tok.Kind {
		case TokenLBrace:
			braces++
		case TokenRBrace:
			braces--
		case TokenLBracket:
			brackets++
		case TokenRBracket:
			brackets--
		case TokenLParen:
			parens++
		case TokenRParen:
			parens--

		case TokenStringLiteral:
			p.t.NewLeaf(KindString, tok.Offset(), tok.Literal, blob)
		case TokenRegexpLiteral:
			p.t.NewLeaf(KindRegexp, tok.Offset(), tok.Literal, blob)
		case TokenIntLiteral:
			p.newNumber(blob, tok)
		case TokenFloatLiteral:
			p.newFloat(blob, tok)

		case TokenVariable:
			p.scanVariable(blob, tok)

		case TokenInclude, TokenRequire, TokenContain:
			p.parseRelationship(blob, tok)

		case TokenIdent, TokenClass:
			p.scanName(blob, tok, allowResources && brackets == 0 && parens == 0)

		case TokenCase:
			p.parseCase(blob)
		case TokenIf:
			p.parseCondition(blob, true)
		case TokenUnless:
			p.parseCondition(blob, false)

		case TokenDot:
			p.scanMethodCall(blob)

		default:
			if tok.Kind.Category() == CategoryFunction {
				p.scanCall(blob, tok)
			}
		}

		tok = p.cur.Next()
		ignore = braces > 0 || brackets > 0 || parens > 0
	}
	p.t.SetEnd(blob, p.cur.End())
}

// scanVariable records a variable use, or a definition when the next token
// is `=`. A use leaves the cursor on the variable so the lookahead token is
// scanned normally.
func (p *Parser) scanVariable(blob NodeID, tok *Token) {
	m := p.cur.Mark()
	next := p.cur.Next()
	if next != nil && next.Kind == TokenAssign {
		p.t.NewLeaf(KindVariableDefinition, tok.Offset(), tok.Literal, blob)
		return
	}
	p.cur.Rewind(m)
	p.t.NewLeaf(KindVariable, tok.Offset(), tok.Literal, blob)
}

// scanName disambiguates an identifier or the class keyword: a call, a type
// reference, a resource declaration, a nested class, or plain content.
func (p *Parser) scanName(blob NodeID, tok *Token, resources bool) {
	name, off := tok.Literal, tok.Offset()
	isClass := tok.Kind == TokenClass
	ref := NoNode

	if !isClass {
		m := p.cur.Mark()
		next := p.cur.Next()
		switch {
		case next != nil && next.Kind == TokenLParen:
			p.parseCallArgs(p.newFunction(blob, off, name))
			return
		case startsUpper(name):
			p.cur.Rewind(m)
			ref = p.parseTypeReference()
		default:
			p.cur.Rewind(m)
		}
	}

	if !resources {
		if ref != NoNode {
			p.t.SetParent(ref, blob)
		}
		return
	}

	m := p.cur.Mark()
	next := p.cur.Next()
	switch {
	case next != nil && next.Kind == TokenLBrace:
		if ref == NoNode {
			ref = p.newTypeReference(off, name, NoNode)
		}
		if isClass {
			p.t.data(ref).flags |= flagClass
		}
		p.parseResource(blob, ref, off)
	case isClass && next != nil && next.Kind == TokenIdent:
		cls := p.t.NewNode(KindClass, off, blob)
		p.parseClassRest(cls)
	default:
		if ref != NoNode {
			p.t.SetParent(ref, blob)
		}
		p.cur.Rewind(m)
	}
}

func (p *Parser) newFunction(parent NodeID, offset int, name string) NodeID {
	fn := p.t.NewNode(KindFunction, offset, parent)
	p.t.data(fn).text = name
	return fn
}

// parseCallArgs scans call arguments with the cursor on `(`, leaving it on
// the matching `)`.
func (p *Parser) parseCallArgs(fn NodeID) {
	p.cur.Next()
	p.scanBlob(fn, false, TokenRParen)
}

// scanCall handles a function-category token: a call when followed by `(`,
// plain content otherwise.
func (p *Parser) scanCall(blob NodeID, tok *Token) {
	m := p.cur.Mark()
	next := p.cur.Next()
	if next != nil && next.Kind == TokenLParen {
		p.parseCallArgs(p.newFunction(blob, tok.Offset(), tok.Literal))
		return
	}
	p.cur.Rewind(m)
}

// scanMethodCall handles `.name` and `.name(args)` with the cursor on the dot.
func (p *Parser) scanMethodCall(blob NodeID) {
	dot := p.cur.Mark()
	tok := p.cur.Next()
	if tok == nil || (tok.Kind != TokenIdent && tok.Kind.Category() != CategoryFunction) {
		p.cur.Rewind(dot)
		return
	}
	fn := p.newFunction(blob, tok.Offset(), tok.Literal)
	m := p.cur.Mark()
	next := p.cur.Next()
	if next != nil && next.Kind == TokenLParen {
		p.parseCallArgs(fn)
		return
	}
	p.cur.Rewind(m)
}

// parseRelationship parses include, require and contain with the cursor on
// the keyword. Every class named becomes a ClassReference of a Function.
func (p *Parser) parseRelationship(blob NodeID, tok *Token) {
	fn := p.newFunction(blob, tok.Offset(), tok.Literal)
	m := p.cur.Mark()
	next := p.cur.Next()
	if next == nil {
		p.cur.Rewind(m)
		return
	}
	switch next.Kind {
	case TokenIdent, TokenStringLiteral:
		p.parseClassList(fn)
	case TokenLBracket:
		m = p.cur.Mark()
		if item := p.cur.Next(); item == nil || (item.Kind != TokenIdent && item.Kind != TokenStringLiteral) {
			p.cur.Rewind(m)
			return
		}
		p.parseClassList(fn)
		m = p.cur.Mark()
		if end := p.cur.Next(); end == nil || end.Kind != TokenRBracket {
			p.cur.Rewind(m)
		}
	case TokenLParen:
		p.parseCallArgs(fn)
	default:
		p.cur.Rewind(m)
	}
}

// parseClassList reads comma separated class names starting at the current
// token. The cursor rests on the last name consumed.
func (p *Parser) parseClassList(fn NodeID) {
	for {
		tok := p.cur.Current()
		switch {
		case tok.Kind == TokenIdent && tok.Literal == "Class":
			if !p.parseClassShorthand(fn) {
				return
			}
		case tok.Kind == TokenIdent || tok.Kind == TokenStringLiteral:
			p.newReference(KindClassReference, fn, tok)
		default:
			return
		}

		last := p.cur.Mark()
		if sep := p.cur.Next(); sep == nil || sep.Kind != TokenComma {
			p.cur.Rewind(last)
			return
		}
		if item := p.cur.Next(); item == nil || (item.Kind != TokenIdent && item.Kind != TokenStringLiteral) {
			p.cur.Rewind(last)
			return
		}
	}
}

// parseClassShorthand reads `Class['name']` with the cursor on `Class`. It
// reports false when the form is incomplete, leaving the cursor on the last
// token that still belonged to it.
func (p *Parser) parseClassShorthand(fn NodeID) bool {
	m := p.cur.Mark()
	if tok := p.cur.Next(); tok == nil || tok.Kind != TokenLBracket {
		p.cur.Rewind(m)
		return false
	}
	m = p.cur.Mark()
	name := p.cur.Next()
	if name == nil || name.Kind != TokenStringLiteral {
		p.cur.Rewind(m)
		return false
	}
	p.newReference(KindClassReference, fn, name)
	m = p.cur.Mark()
	if tok := p.cur.Next(); tok == nil || tok.Kind != TokenRBracket {
		p.cur.Rewind(m)
		return false
	}
	return true
}
