package parser

// parseResource parses a resource declaration with the cursor on `{`. ref is
// the detached type reference and offset the start of the type name. On
// success the Resource is attached to parent and the cursor rests on the
// closing `}`. A `}` before the title's `:` or a comma outside brackets
// records an Error on parent and abandons the resource.
//
// Each `title: attributes` body after a `;` becomes a Resource of its own.
// Its TypeReference is an empty copy of ref placed at the body's first title.
func (p *Parser) parseResource(parent, ref NodeID, offset int) {
	d := p.t.data(ref)
	if d.text == "Class" {
		d.flags |= flagClass
	} else {
		d.flags |= flagResource
	}

	if d.flags&flagDataType != 0 {
		// File { mode => '0644' } sets defaults and has no titles.
		res := p.newResource(parent, ref, offset, nil)
		p.parseAttributes(res, false)
		return
	}

	for {
		res := p.parseTitles(parent, ref, offset)
		if res == NoNode || !p.parseAttributes(res, true) {
			return
		}
		m := p.cur.Mark()
		offset = p.cur.Next().Offset()
		p.cur.Rewind(m)
		ref = p.bodyReference(ref, offset)
	}
}

// parseTitles reads the titles up to `:` and returns the new Resource, or
// NoNode when the declaration was abandoned.
func (p *Parser) parseTitles(parent, ref NodeID, offset int) NodeID {
	var titles []NodeID
	inBracket := false
	tok := p.cur.Next()
	for tok != nil {
		switch tok.Kind {
		case TokenColon:
			if inBracket {
				p.errorAt(parent, tok, "missing ] before :")
			}
			return p.newResource(parent, ref, offset, titles)
		case TokenRBrace:
			p.errorAt(parent, tok, "missing : after resource title")
			return NoNode
		case TokenStringLiteral, TokenVariable:
			kind := KindResourceReference
			if p.t.data(ref).flags&flagClass != 0 {
				kind = KindClassReference
			}
			titles = append(titles, p.newReference(kind, NoNode, tok))
		case TokenLBracket:
			inBracket = true
		case TokenRBracket:
			inBracket = false
		case TokenComma:
			if !inBracket {
				p.errorAt(parent, tok, "unexpected , in resource title")
				return NoNode
			}
		default:
			stops := []TokenKind{TokenColon, TokenComma}
			if inBracket {
				stops = append(stops, TokenRBracket)
			}
			titles = append(titles, p.scanBlob(NoNode, false, stops...))
			if p.cur.AtEnd() {
				return NoNode
			}
			// Let the loop see the stop token.
			p.cur.Prev()
		}
		tok = p.cur.Next()
	}
	return NoNode
}

// bodyReference copies ref for a further body of the same declaration. The
// copy spans no source text.
func (p *Parser) bodyReference(ref NodeID, offset int) NodeID {
	text, flags := p.t.data(ref).text, p.t.data(ref).flags
	id := p.t.NewNode(KindTypeReference, offset, NoNode)
	d := p.t.data(id)
	d.text = text
	d.flags = flags
	d.end = offset
	return id
}

// nextIsBody reports whether the tokens after the `;` under the cursor are
// the titles of another body, that is whether a `:` comes before any `=>`,
// `;` or brace. The cursor does not move.
func (p *Parser) nextIsBody() bool {
	m := p.cur.Mark()
	defer p.cur.Rewind(m)
	for tok := p.cur.Next(); tok != nil; tok = p.cur.Next() {
		switch tok.Kind {
		case TokenColon:
			return true
		case TokenArrow, TokenPlusArrow, TokenSemicolon, TokenLBrace, TokenRBrace:
			return false
		}
	}
	return false
}

func (p *Parser) newResource(parent, ref NodeID, offset int, titles []NodeID) NodeID {
	res := p.t.NewNode(KindResource, offset, parent)
	p.t.SetParent(ref, res)
	for _, title := range titles {
		p.t.SetParent(title, res)
	}
	d := p.t.data(res)
	d.a = ref
	d.items = titles
	return res
}

// parseAttributes reads `name => value` pairs up to the closing `}`. A comma
// or semicolon ends an attribute; `+>` is accepted like `=>`. With bodies
// set it stops on a `;` that starts another body and returns true.
func (p *Parser) parseAttributes(res NodeID, bodies bool) bool {
	var (
		name    string
		nameOff = -1
		val     = NoNode
	)
	finish := func() {
		if nameOff < 0 && val == NoNode {
			return
		}
		off := nameOff
		if off < 0 {
			off = p.t.data(val).offset
		}
		attr := p.t.NewNode(KindResourceAttribute, off, res)
		p.t.data(attr).text = name
		if val != NoNode {
			p.t.SetParent(val, attr)
			p.t.data(attr).a = val
		}
		d := p.t.data(res)
		d.extra = append(d.extra, attr)
		name, nameOff, val = "", -1, NoNode
	}

	tok := p.cur.Next()
	for tok != nil && tok.Kind != TokenRBrace {
		switch tok.Kind {
		case TokenArrow, TokenPlusArrow:
			p.cur.Next()
			val = p.scanBlob(NoNode, false, TokenComma, TokenRBrace, TokenSemicolon)
			tok = p.cur.Current()
			continue
		case TokenComma:
			finish()
		case TokenSemicolon:
			finish()
			if bodies && p.nextIsBody() {
				return true
			}
		case TokenIdent, TokenUnless, TokenRequire:
			if nameOff < 0 {
				name, nameOff = tok.Literal, tok.Offset()
			}
		}
		tok = p.cur.Next()
	}
	finish()
	return false
}
