package compiler

// Token kinds recognised by the lexer. The grammar is small enough that a
// flat enum (rather than a generated table) is easier to read and to keep
// in lockstep with the hand-written scanner in lexer.go.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInteger
	tokFloat
	tokString
	tokInterval // e.g. "5h", "1h30m", "45m"

	tokLBrace // {
	tokRBrace // }
	tokLBrack // [
	tokRBrack // ]
	tokLParen // (
	tokRParen // )
	tokComma
	tokColon
	tokPipe
	tokDots // ...

	tokPlus
	tokMinus
	tokStar
	tokSlash

	tokEq
	tokNeq
	tokGt
	tokGte
	tokLt
	tokLte

	// keywords
	tokAnd
	tokOr
	tokNot
	tokIn
	tokTrue
	tokFalse
)

var keywords = map[string]tokenKind{
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
	"in":    tokIn,
	"true":  tokTrue,
	"false": tokFalse,
}

type token struct {
	kind   tokenKind
	text   string
	offset int
}

func isLetter(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isIdentByte(c byte) bool {
	return isLetter(c) || isDigit(c)
}
