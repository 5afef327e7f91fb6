package parser

import "strconv"

type Position struct {
	File   string
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

type Span struct {
	Start Position
	End   Position
}

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenError
	TokenWhitespace
	TokenComment
	TokenLineComment

	// Literals and names
	TokenIdent
	TokenVariable
	TokenIntLiteral
	TokenFloatLiteral
	TokenStringLiteral
	TokenRegexpLiteral

	// Keywords
	TokenAnd
	TokenCase
	TokenClass
	TokenContain
	TokenDefault
	TokenDefine
	TokenElse
	TokenElsif
	TokenFalse
	TokenFunction
	TokenIf
	TokenIn
	TokenInclude
	TokenInherits
	TokenNode
	TokenOr
	TokenRequire
	TokenTrue
	TokenUndef
	TokenUnless

	// Built-in function names
	TokenFunctionName

	// Operators and punctuation
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenComma
	TokenColon
	TokenSemicolon
	TokenDot
	TokenQuestion
	TokenPipe
	TokenAt
	TokenAtAt

	TokenAssign
	TokenAppend
	TokenArrow
	TokenPlusArrow
	TokenEQ
	TokenNE
	TokenMatch
	TokenNoMatch
	TokenLT
	TokenLE
	TokenGT
	TokenGE
	TokenNot
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenShl
	TokenShr
	TokenInEdge
	TokenInEdgeSub
	TokenOutEdge
	TokenOutEdgeSub
	TokenLCollect
	TokenRCollect
	TokenLLCollect
	TokenRRCollect
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:           "EOF",
	TokenError:         "Error",
	TokenWhitespace:    "Whitespace",
	TokenComment:       "Comment",
	TokenLineComment:   "LineComment",
	TokenIdent:         "Identifier",
	TokenVariable:      "Variable",
	TokenIntLiteral:    "IntLiteral",
	TokenFloatLiteral:  "FloatLiteral",
	TokenStringLiteral: "StringLiteral",
	TokenRegexpLiteral: "RegexpLiteral",
	TokenAnd:           "and",
	TokenCase:          "case",
	TokenClass:         "class",
	TokenContain:       "contain",
	TokenDefault:       "default",
	TokenDefine:        "define",
	TokenElse:          "else",
	TokenElsif:         "elsif",
	TokenFalse:         "false",
	TokenFunction:      "function",
	TokenIf:            "if",
	TokenIn:            "in",
	TokenInclude:       "include",
	TokenInherits:      "inherits",
	TokenNode:          "node",
	TokenOr:            "or",
	TokenRequire:       "require",
	TokenTrue:          "true",
	TokenUndef:         "undef",
	TokenUnless:        "unless",
	TokenFunctionName:  "FunctionName",
	TokenLParen:        "(",
	TokenRParen:        ")",
	TokenLBrace:        "{",
	TokenRBrace:        "}",
	TokenLBracket:      "[",
	TokenRBracket:      "]",
	TokenComma:         ",",
	TokenColon:         ":",
	TokenSemicolon:     ";",
	TokenDot:           ".",
	TokenQuestion:      "?",
	TokenPipe:          "|",
	TokenAt:            "@",
	TokenAtAt:          "@@",
	TokenAssign:        "=",
	TokenAppend:        "+=",
	TokenArrow:         "=>",
	TokenPlusArrow:     "+>",
	TokenEQ:            "==",
	TokenNE:            "!=",
	TokenMatch:         "=~",
	TokenNoMatch:       "!~",
	TokenLT:            "<",
	TokenLE:            "<=",
	TokenGT:            ">",
	TokenGE:            ">=",
	TokenNot:           "!",
	TokenPlus:          "+",
	TokenMinus:         "-",
	TokenStar:          "*",
	TokenSlash:         "/",
	TokenPercent:       "%",
	TokenShl:           "<<",
	TokenShr:           ">>",
	TokenInEdge:        "->",
	TokenInEdgeSub:     "~>",
	TokenOutEdge:       "<-",
	TokenOutEdgeSub:    "<~",
	TokenLCollect:      "<|",
	TokenRCollect:      "|>",
	TokenLLCollect:     "<<|",
	TokenRRCollect:     "|>>",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// TokenCategory groups token kinds the way an editor colours them. The parser
// only cares about CategoryFunction: any such token followed by '(' is a call.
type TokenCategory int

const (
	CategoryOther TokenCategory = iota
	CategoryWhitespace
	CategoryComment
	CategoryIdentifier
	CategoryLiteral
	CategoryKeyword
	CategoryFunction
	CategoryOperator
	CategorySeparator
)

func (k TokenKind) Category() TokenCategory {
	switch {
	case k == TokenWhitespace:
		return CategoryWhitespace
	case k == TokenComment || k == TokenLineComment:
		return CategoryComment
	case k == TokenIdent || k == TokenVariable:
		return CategoryIdentifier
	case k >= TokenIntLiteral && k <= TokenRegexpLiteral:
		return CategoryLiteral
	case k == TokenInclude || k == TokenRequire || k == TokenContain || k == TokenFunctionName:
		return CategoryFunction
	case k >= TokenAnd && k <= TokenUnless:
		return CategoryKeyword
	case k >= TokenLParen && k <= TokenAtAt:
		return CategorySeparator
	case k >= TokenAssign && k <= TokenRRCollect:
		return CategoryOperator
	}
	return CategoryOther
}

// IsTrivia reports whether the parser skips tokens of this kind.
func (k TokenKind) IsTrivia() bool {
	return k == TokenWhitespace || k == TokenComment || k == TokenLineComment
}

type Token struct {
	Kind    TokenKind
	Span    Span
	Literal string
}

func (t *Token) Offset() int {
	return t.Span.Start.Offset
}

func (t *Token) Len() int {
	return len(t.Literal)
}

func (t *Token) End() int {
	return t.Span.Start.Offset + len(t.Literal)
}

var keywords = map[string]TokenKind{
	"and":      TokenAnd,
	"case":     TokenCase,
	"class":    TokenClass,
	"contain":  TokenContain,
	"default":  TokenDefault,
	"define":   TokenDefine,
	"else":     TokenElse,
	"elsif":    TokenElsif,
	"false":    TokenFalse,
	"function": TokenFunction,
	"if":       TokenIf,
	"in":       TokenIn,
	"include":  TokenInclude,
	"inherits": TokenInherits,
	"node":     TokenNode,
	"or":       TokenOr,
	"require":  TokenRequire,
	"true":     TokenTrue,
	"undef":    TokenUndef,
	"unless":   TokenUnless,
}

// builtinFunctions lists functions shipped with Puppet. Names that double as
// resource types or metaparameters (file, tag, notify) are left out so that
// `file { ... }` still lexes as an identifier.
var builtinFunctions = map[string]bool{
	"alert":            true,
	"assert_type":      true,
	"create_resources": true,
	"crit":             true,
	"debug":            true,
	"defined":          true,
	"each":             true,
	"emerg":            true,
	"epp":              true,
	"err":              true,
	"fail":             true,
	"filter":           true,
	"fqdn_rand":        true,
	"generate":         true,
	"hiera":            true,
	"hiera_array":      true,
	"hiera_hash":       true,
	"hiera_include":    true,
	"info":             true,
	"inline_epp":       true,
	"inline_template":  true,
	"lookup":           true,
	"map":              true,
	"md5":              true,
	"notice":           true,
	"realize":          true,
	"reduce":           true,
	"regsubst":         true,
	"sha1":             true,
	"shellquote":       true,
	"split":            true,
	"sprintf":          true,
	"tagged":           true,
	"template":         true,
	"versioncmp":       true,
	"warning":          true,
}

func LookupKeyword(ident string) TokenKind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	if builtinFunctions[ident] {
		return TokenFunctionName
	}
	return TokenIdent
}
