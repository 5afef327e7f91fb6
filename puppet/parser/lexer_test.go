package parser

import (
	"testing"
)

func significantKinds(input string) []TokenKind {
	var got []TokenKind
	for _, tok := range Tokenize([]byte(input), "test.pp") {
		if !tok.Kind.IsTrivia() {
			got = append(got, tok.Kind)
		}
	}
	return got
}

func TestLexer(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenKind
	}{
		{"", nil},
		{"class", []TokenKind{TokenClass}},
		{"class apache {}", []TokenKind{TokenClass, TokenIdent, TokenLBrace, TokenRBrace}},
		{"apache::params", []TokenKind{TokenIdent}},
		{"::apache::params", []TokenKind{TokenIdent}},
		{"$x", []TokenKind{TokenVariable}},
		{"$::osfamily", []TokenKind{TokenVariable}},
		{"$apache::params::port", []TokenKind{TokenVariable}},
		{"$x = 1", []TokenKind{TokenVariable, TokenAssign, TokenIntLiteral}},
		{"0x1F 017 3.14 1e10 2.5e-3", []TokenKind{TokenIntLiteral, TokenIntLiteral, TokenFloatLiteral, TokenFloatLiteral, TokenFloatLiteral}},
		{"'single'", []TokenKind{TokenStringLiteral}},
		{`"double $x"`, []TokenKind{TokenStringLiteral}},
		{`"a ${b["c"]} d"`, []TokenKind{TokenStringLiteral}},
		{`'it\'s'`, []TokenKind{TokenStringLiteral}},
		{"# comment\nclass", []TokenKind{TokenClass}},
		{"/* block */ class", []TokenKind{TokenClass}},
		{"$x = /foo/", []TokenKind{TokenVariable, TokenAssign, TokenRegexpLiteral}},
		{"$a =~ /^b[0-9]+$/", []TokenKind{TokenVariable, TokenMatch, TokenRegexpLiteral}},
		{"$a / 2 / 3", []TokenKind{TokenVariable, TokenSlash, TokenIntLiteral, TokenSlash, TokenIntLiteral}},
		{"$a = -1", []TokenKind{TokenVariable, TokenAssign, TokenIntLiteral}},
		{"$a -1", []TokenKind{TokenVariable, TokenMinus, TokenIntLiteral}},
		{"} /x/: {", []TokenKind{TokenRBrace, TokenRegexpLiteral, TokenColon, TokenLBrace}},
		{"( ) [ ] { } , ; : . ? | @ @@", []TokenKind{
			TokenLParen, TokenRParen, TokenLBracket, TokenRBracket, TokenLBrace, TokenRBrace,
			TokenComma, TokenSemicolon, TokenColon, TokenDot, TokenQuestion, TokenPipe, TokenAt, TokenAtAt,
		}},
		{"= += => +> == != =~ !~", []TokenKind{
			TokenAssign, TokenAppend, TokenArrow, TokenPlusArrow, TokenEQ, TokenNE, TokenMatch, TokenNoMatch,
		}},
		{"$a < $b <= $c > $d >= $e", []TokenKind{
			TokenVariable, TokenLT, TokenVariable, TokenLE, TokenVariable, TokenGT, TokenVariable, TokenGE, TokenVariable,
		}},
		{"-> ~> <- <~", []TokenKind{TokenInEdge, TokenInEdgeSub, TokenOutEdge, TokenOutEdgeSub}},
		{"<| |> <<| |>>", []TokenKind{TokenLCollect, TokenRCollect, TokenLLCollect, TokenRRCollect}},
		{"include foo", []TokenKind{TokenInclude, TokenIdent}},
		{"notice('x')", []TokenKind{TokenFunctionName, TokenLParen, TokenStringLiteral, TokenRParen}},
		{"file { '/tmp': }", []TokenKind{TokenIdent, TokenLBrace, TokenStringLiteral, TokenColon, TokenRBrace}},
		// Heredocs are not recognised: the tag and body are ordinary tokens.
		{"@(EOT)\n}\nEOT", []TokenKind{TokenAt, TokenLParen, TokenIdent, TokenRParen, TokenRBrace, TokenIdent}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := significantKinds(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(tt.expected), tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("token %d: got %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestLexerKeywords(t *testing.T) {
	for word, kind := range keywords {
		t.Run(word, func(t *testing.T) {
			tok := NewLexer([]byte(word), "test.pp").NextToken()
			if tok.Kind != kind {
				t.Errorf("Kind = %v, want %v", tok.Kind, kind)
			}
			if tok.Literal != word {
				t.Errorf("Literal = %q, want %q", tok.Literal, word)
			}
		})
	}
}

func TestLexerLiterals(t *testing.T) {
	tests := []struct {
		input   string
		kind    TokenKind
		literal string
	}{
		{"-42,", TokenIntLiteral, "-42"},
		{"-4.5]", TokenFloatLiteral, "-4.5"},
		{"'a b' x", TokenStringLiteral, "'a b'"},
		{`"x ${y} z" w`, TokenStringLiteral, `"x ${y} z"`},
		{"/a\\/b/ x", TokenRegexpLiteral, "/a\\/b/"},
		{"'unterminated", TokenStringLiteral, "'unterminated"},
		{"$foo::bar-", TokenVariable, "$foo::bar"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewLexer([]byte(tt.input), "test.pp").NextToken()
			if tok.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tok.Kind, tt.kind)
			}
			if tok.Literal != tt.literal {
				t.Errorf("Literal = %q, want %q", tok.Literal, tt.literal)
			}
		})
	}
}

func TestLexerPositions(t *testing.T) {
	tokens := Tokenize([]byte("class foo {\n  $x = 1\n}"), "init.pp")

	var vars []Token
	for _, tok := range tokens {
		if tok.Kind == TokenVariable {
			vars = append(vars, tok)
		}
	}
	if len(vars) != 1 {
		t.Fatalf("got %d variables, want 1", len(vars))
	}

	start := vars[0].Span.Start
	if start.File != "init.pp" {
		t.Errorf("File = %q, want %q", start.File, "init.pp")
	}
	if start.Line != 2 || start.Column != 3 {
		t.Errorf("position = %s, want 2:3", start)
	}
	if start.Offset != 14 {
		t.Errorf("Offset = %d, want 14", start.Offset)
	}
	if vars[0].End() != 16 {
		t.Errorf("End = %d, want 16", vars[0].End())
	}
}

func TestLexerCoversInput(t *testing.T) {
	input := "node 'a', /b/ { $x = \"${y}\" # c\n file { 'z': mode => '0644' } }"
	offset := 0
	for _, tok := range Tokenize([]byte(input), "") {
		if tok.Offset() != offset {
			t.Fatalf("token %v %q at %d, want %d", tok.Kind, tok.Literal, tok.Offset(), offset)
		}
		offset = tok.End()
	}
	if offset != len(input) {
		t.Errorf("tokens end at %d, want %d", offset, len(input))
	}
}

func TestTokenKindString(t *testing.T) {
	tests := []struct {
		kind TokenKind
		want string
	}{
		{TokenClass, "class"},
		{TokenArrow, "=>"},
		{TokenKind(-1), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestTokenCategory(t *testing.T) {
	tests := []struct {
		kind TokenKind
		want TokenCategory
	}{
		{TokenInclude, CategoryFunction},
		{TokenRequire, CategoryFunction},
		{TokenContain, CategoryFunction},
		{TokenFunctionName, CategoryFunction},
		{TokenClass, CategoryKeyword},
		{TokenIdent, CategoryIdentifier},
		{TokenStringLiteral, CategoryLiteral},
		{TokenLineComment, CategoryComment},
		{TokenArrow, CategoryOperator},
		{TokenComma, CategorySeparator},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Category(); got != tt.want {
				t.Errorf("Category = %v, want %v", got, tt.want)
			}
		})
	}
}
