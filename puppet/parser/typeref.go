package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// typeRule describes the bracketed parameter list a type name accepts.
// positions[i] lists the token kinds allowed for the i-th parameter. In a
// variadic rule the last position repeats indefinitely.
type typeRule struct {
	positions [][]TokenKind
	variadic  bool
	role      uint8
	opaque    bool
}

var (
	intBound     = []TokenKind{TokenIntLiteral, TokenDefault}
	floatBound   = []TokenKind{TokenFloatLiteral, TokenDefault}
	numericBound = []TokenKind{TokenIntLiteral, TokenFloatLiteral, TokenDefault}
	typeParam    = []TokenKind{TokenIdent}
	noParams     = typeRule{}
)

// typeRules is keyed by the name as written, so `file` and `File` differ:
// only the former falls through to the resource type rule.
var typeRules = map[string]typeRule{
	"String":       {positions: [][]TokenKind{{TokenIntLiteral}, {TokenIntLiteral}}},
	"Integer":      {positions: [][]TokenKind{intBound, intBound}},
	"Float":        {positions: [][]TokenKind{floatBound, floatBound}},
	"Numeric":      {positions: [][]TokenKind{numericBound, numericBound}},
	"Boolean":      noParams,
	"Undef":        noParams,
	"Default":      noParams,
	"Scalar":       noParams,
	"Data":         noParams,
	"Collection":   noParams,
	"Catalogentry": noParams,
	"CatalogEntry": noParams,
	"Any":          noParams,
	"Array":        {positions: [][]TokenKind{typeParam, intBound, intBound}},
	"Hash":         {positions: [][]TokenKind{typeParam, typeParam, intBound, intBound}},
	"Regexp":       {positions: [][]TokenKind{{TokenRegexpLiteral}}},
	"Optional":     {positions: [][]TokenKind{{TokenIdent, TokenStringLiteral}}},
	"NotUndef":     {positions: [][]TokenKind{{TokenIdent, TokenStringLiteral}}},
	"Variant":      {positions: [][]TokenKind{typeParam}, variadic: true},
	"Pattern":      {positions: [][]TokenKind{{TokenRegexpLiteral}}, variadic: true},
	"Enum":         {positions: [][]TokenKind{{TokenStringLiteral}}, variadic: true},
	"Tuple":        {positions: [][]TokenKind{typeParam}, variadic: true},
	"Type":         {positions: [][]TokenKind{typeParam}},
	"Class":        {positions: [][]TokenKind{{TokenStringLiteral}}, role: flagClass},
	"Resource": {
		positions: [][]TokenKind{
			{TokenStringLiteral, TokenIdent},
			{TokenStringLiteral, TokenVariable},
		},
		variadic: true,
		role:     flagResource,
	},
	"Struct": {opaque: true},
}

// resourceTypeRule applies to every name without an entry in typeRules:
// `File['/tmp/a', $b]`, `apache::vhost['x']`.
var resourceTypeRule = typeRule{
	positions: [][]TokenKind{{TokenStringLiteral, TokenVariable}},
	variadic:  true,
	role:      flagResource,
}

func lookupTypeRule(name string) typeRule {
	if rule, ok := typeRules[name]; ok {
		return rule
	}
	return resourceTypeRule
}

// CanonicalTypeName upper-cases the first character of every `::` segment.
func CanonicalTypeName(name string) string {
	segments := strings.Split(name, "::")
	for i, s := range segments {
		if s == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(s)
		segments[i] = string(unicode.ToUpper(r)) + s[size:]
	}
	return strings.Join(segments, "::")
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// newTypeReference creates a detached TypeReference spanning name.
func (p *Parser) newTypeReference(offset int, name string, parent NodeID) NodeID {
	id := p.t.NewNode(KindTypeReference, offset, parent)
	d := p.t.data(id)
	d.text = CanonicalTypeName(name)
	if startsUpper(name) {
		d.flags |= flagDataType
	}
	d.end = offset + len(name)
	return id
}

// parseTypeReference parses the type name under the cursor together with
// its optional parameter list. The result is detached; callers attach it.
// The cursor rests on the last token of the reference.
func (p *Parser) parseTypeReference() NodeID {
	tok := p.cur.Current()
	ref := p.newTypeReference(tok.Offset(), tok.Literal, NoNode)
	p.parseTypeParams(ref, tok.Literal)
	return ref
}

func (p *Parser) parseTypeParams(ref NodeID, name string) {
	rule := lookupTypeRule(name)
	d := p.t.data(ref)
	d.flags |= rule.role

	m := p.cur.Mark()
	tok := p.cur.Next()
	if tok == nil || tok.Kind != TokenLBracket {
		p.cur.Rewind(m)
		return
	}
	if rule.opaque {
		p.cur.Next()
		p.skipToClose(false)
		p.t.SetEnd(ref, p.cur.End())
		return
	}

	tok = p.cur.Next()
	index := 0
	consumed := false
	failed := false
	for tok != nil && index < len(rule.positions) && kindIn(tok.Kind, rule.positions[index]) {
		if tok.Kind == TokenIdent && !startsUpper(tok.Literal) {
			p.errorAt(ref, tok, "%s is not a type name", tok.Literal)
			failed = true
			break
		}
		p.addTypeParam(ref, tok)
		consumed = true
		tok = p.cur.Next()
		if tok == nil || tok.Kind != TokenComma {
			break
		}
		tok = p.cur.Next()
		if !rule.variadic || index+1 < len(rule.positions) {
			index++
		}
	}

	switch {
	case failed:
		p.skipToClose(true)
	case tok == nil || tok.Kind != TokenRBracket:
		p.errorAt(ref, tok, "unexpected %s in %s parameters", describe(tok), p.t.data(ref).text)
		p.skipToClose(true)
	case !consumed:
		p.errorAt(ref, tok, "missing parameters in %s[]", p.t.data(ref).text)
	}
	p.t.SetEnd(ref, p.cur.End())
}

func describe(tok *Token) string {
	if tok == nil {
		return "end of input"
	}
	return strconv.Quote(tok.Literal)
}

// skipToClose moves forward from the current token to the `]` closing the
// enclosing bracket. When strict, it gives up before tokens that cannot occur
// inside a type, leaving the cursor on the last token it consumed.
func (p *Parser) skipToClose(strict bool) {
	depth := 1
	for tok := p.cur.Current(); tok != nil; tok = p.cur.Next() {
		switch tok.Kind {
		case TokenLBracket:
			depth++
		case TokenRBracket:
			depth--
			if depth == 0 {
				return
			}
		case TokenLBrace, TokenRBrace, TokenSemicolon, TokenAssign, TokenArrow, TokenColon:
			if strict {
				p.cur.Prev()
				return
			}
		}
	}
}

// addTypeParam turns one parameter token into a child of ref. Only the token
// kinds listed in typeRules reach this point; anything else means the table
// and this switch disagree.
func (p *Parser) addTypeParam(ref NodeID, tok *Token) {
	d := p.t.data(ref)
	role := d.flags & (flagClass | flagResource)
	off := tok.Offset()
	var param NodeID

	switch tok.Kind {
	case TokenIntLiteral:
		param = p.newNumber(ref, tok)
	case TokenFloatLiteral:
		param = p.newFloat(ref, tok)
	case TokenIdent:
		param = p.newTypeReference(off, tok.Literal, ref)
	case TokenDefault:
		param = p.t.NewLeaf(KindIdentifier, off, tok.Literal, ref)
	case TokenRegexpLiteral:
		param = p.t.NewLeaf(KindRegexp, off, tok.Literal, ref)
	case TokenStringLiteral:
		switch {
		case role == flagClass:
			param = p.newReference(KindClassReference, ref, tok)
		case role == flagResource && d.text == "Resource" && len(d.items) == 0:
			name := unquote(tok.Literal)
			param = p.newTypeReference(off+1, CanonicalTypeName(name), ref)
		case role == flagResource:
			param = p.newReference(KindResourceReference, ref, tok)
		default:
			param = p.t.NewLeaf(KindString, off, tok.Literal, ref)
		}
	case TokenVariable:
		switch role {
		case flagClass:
			param = p.newReference(KindClassReference, ref, tok)
		case flagResource:
			param = p.newReference(KindResourceReference, ref, tok)
		default:
			param = p.t.NewLeaf(KindVariable, off, tok.Literal, ref)
		}
	default:
		panic(fmt.Sprintf("parser: no %s type parameter can be built from %s token %q", d.text, tok.Kind, tok.Literal))
	}

	// d may be stale after the arena grew.
	d = p.t.data(ref)
	d.items = append(d.items, param)
}

// newReference builds a ClassReference or ResourceReference for a title
// token. Quoted titles keep their string literal with the bare name nested
// inside it; variable titles wrap the Variable.
func (p *Parser) newReference(kind NodeKind, parent NodeID, tok *Token) NodeID {
	off := tok.Offset()
	ref := p.t.NewNode(kind, off, parent)
	var name string
	switch tok.Kind {
	case TokenStringLiteral:
		name = unquote(tok.Literal)
		s := p.t.NewLeaf(KindString, off, tok.Literal, ref)
		p.t.NewLeaf(KindIdentifier, off+1, name, s)
	case TokenVariable:
		name = strings.TrimPrefix(tok.Literal, "$")
		p.t.NewLeaf(KindVariable, off, tok.Literal, ref)
	default:
		name = tok.Literal
		p.t.NewLeaf(KindIdentifier, off, tok.Literal, ref)
	}
	p.t.data(ref).text = name
	return ref
}

func (p *Parser) newNumber(parent NodeID, tok *Token) NodeID {
	id := p.t.NewNode(KindNumber, tok.Offset(), parent)
	v, _ := strconv.ParseInt(tok.Literal, 0, 64)
	d := p.t.data(id)
	d.ival = v
	d.text = tok.Literal
	d.end = tok.End()
	return id
}

func (p *Parser) newFloat(parent NodeID, tok *Token) NodeID {
	id := p.t.NewNode(KindFloat, tok.Offset(), parent)
	v, _ := strconv.ParseFloat(tok.Literal, 64)
	d := p.t.data(id)
	d.fval = v
	d.text = tok.Literal
	d.end = tok.End()
	return id
}

// unquote strips the surrounding quotes of a string literal without
// interpreting escapes. An unterminated literal loses its opening quote only.
func unquote(s string) string {
	if len(s) == 0 || (s[0] != '\'' && s[0] != '"') {
		return s
	}
	if len(s) >= 2 && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s[1:]
}
