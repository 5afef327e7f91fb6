package parser

// parseCase parses `case control { match: { body } ... }` with the cursor on
// the case keyword, leaving it on the closing `}`.
func (p *Parser) parseCase(parent NodeID) {
	c := p.t.NewNode(KindCase, p.cur.Offset(), parent)
	p.cur.Next()
	control := p.scanBlob(c, false, TokenLBrace)
	p.t.data(c).a = control
	if p.cur.AtEnd() {
		return
	}

	tok := p.cur.Next()
	for tok != nil && tok.Kind != TokenRBrace {
		match := p.scanBlob(c, false, TokenColon, TokenRBrace)
		if p.cur.Kind() != TokenColon {
			p.errorAt(c, p.cur.Current(), "missing : after case match")
			return
		}
		tok = p.cur.Next()
		if tok == nil {
			p.addCase(c, match, NoNode)
			return
		}
		if tok.Kind != TokenLBrace {
			p.errorAt(c, tok, "missing { after case match")
			p.addCase(c, match, NoNode)
			continue
		}
		p.cur.Next()
		body := p.scanBlob(c, true, TokenRBrace)
		p.addCase(c, match, body)
		tok = p.cur.Next()
	}
}

func (p *Parser) addCase(c, match, body NodeID) {
	d := p.t.data(c)
	d.items = append(d.items, match)
	d.extra = append(d.extra, body)
}

// parseCondition parses if and unless with the cursor on the keyword. elsif
// chains become nested Conditions linked through the otherwise slot and are
// only recognised for if. When no else or elsif follows, the cursor is left
// on the consequence's `}` so the caller sees the next token untouched.
func (p *Parser) parseCondition(parent NodeID, allowElsif bool) {
	cond := p.t.NewNode(KindCondition, p.cur.Offset(), parent)
	if !p.parseBranch(cond) {
		return
	}
	for {
		m := p.cur.Mark()
		tok := p.cur.Next()
		switch {
		case tok != nil && tok.Kind == TokenElse:
			m = p.cur.Mark()
			if next := p.cur.Next(); next == nil || next.Kind != TokenLBrace {
				p.errorAt(cond, tok, "missing { after else")
				p.cur.Rewind(m)
				return
			}
			p.cur.Next()
			otherwise := p.scanBlob(cond, true, TokenRBrace)
			p.t.data(cond).c = otherwise
			return
		case tok != nil && tok.Kind == TokenElsif && allowElsif:
			next := p.t.NewNode(KindCondition, tok.Offset(), cond)
			p.t.data(cond).c = next
			cond = next
			if !p.parseBranch(cond) {
				return
			}
		default:
			p.cur.Rewind(m)
			return
		}
	}
}

// parseBranch fills the condition and consequence of cond with the cursor
// on the if, unless or elsif keyword. It reports false when input ran out.
func (p *Parser) parseBranch(cond NodeID) bool {
	p.cur.Next()
	test := p.scanBlob(cond, false, TokenLBrace)
	p.t.data(cond).a = test
	if p.cur.AtEnd() {
		return false
	}
	p.cur.Next()
	body := p.scanBlob(cond, true, TokenRBrace)
	p.t.data(cond).b = body
	return !p.cur.AtEnd()
}
