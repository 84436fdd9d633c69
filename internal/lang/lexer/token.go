// Package lexer tokenizes hexbait grammar-description source text.
package lexer

// Kind identifies the lexical class of a Token. Kind and cst.NodeKind are
// kept small enough to together pack into a single u16 if a caller wants a
// compact on-disk CST encoding; Kind alone is kept well under half of that
// budget.
type Kind int

const (
	// Special
	Illegal Kind = iota
	EOF

	// Trivia
	Whitespace
	LineComment
	BlockComment

	// Literals and names
	IntLiteral     // 123, 0b1010, 0o17, 0xFF
	BytePairHex    // two hex digits inside a <...> byte-concat expression
	StringLiteral  // "..."
	Ident

	// Punctuators
	LBrace    // {
	RBrace    // }
	LParen    // (
	RParen    // )
	LBracket  // [
	RBracket  // ]
	LAngle    // <
	RAngle    // >
	Bang      // !
	Underscore
	Amp    // &
	Pipe   // |
	Plus   // +
	Minus  // -
	Star   // *
	Slash  // /
	Percent // %
	Eq     // =
	Caret  // ^
	Colon  // :
	Semi   // ;
	Comma  // ,
	Dot    // .
	Dollar // $
	Hash   // #

	keywordBeg
	KwBytes
	KwStruct
	KwLet
	KwPeek
	KwSwitch
	KwTrue
	KwFalse
	keywordEnd
)

var keywords = map[string]Kind{
	"bytes":  KwBytes,
	"struct": KwStruct,
	"let":    KwLet,
	"peek":   KwPeek,
	"switch": KwSwitch,
	"true":   KwTrue,
	"false":  KwFalse,
}

func (k Kind) String() string {
	switch k {
	case Illegal:
		return "Illegal"
	case EOF:
		return "EOF"
	case Whitespace:
		return "Whitespace"
	case LineComment:
		return "LineComment"
	case BlockComment:
		return "BlockComment"
	case IntLiteral:
		return "IntLiteral"
	case BytePairHex:
		return "BytePairHex"
	case StringLiteral:
		return "StringLiteral"
	case Ident:
		return "Ident"
	case LBrace:
		return "LBrace"
	case RBrace:
		return "RBrace"
	case LParen:
		return "LParen"
	case RParen:
		return "RParen"
	case LBracket:
		return "LBracket"
	case RBracket:
		return "RBracket"
	case LAngle:
		return "LAngle"
	case RAngle:
		return "RAngle"
	case Bang:
		return "Bang"
	case Underscore:
		return "Underscore"
	case Amp:
		return "Amp"
	case Pipe:
		return "Pipe"
	case Plus:
		return "Plus"
	case Minus:
		return "Minus"
	case Star:
		return "Star"
	case Slash:
		return "Slash"
	case Percent:
		return "Percent"
	case Eq:
		return "Eq"
	case Caret:
		return "Caret"
	case Colon:
		return "Colon"
	case Semi:
		return "Semi"
	case Comma:
		return "Comma"
	case Dot:
		return "Dot"
	case Dollar:
		return "Dollar"
	case Hash:
		return "Hash"
	case KwBytes:
		return "KwBytes"
	case KwStruct:
		return "KwStruct"
	case KwLet:
		return "KwLet"
	case KwPeek:
		return "KwPeek"
	case KwSwitch:
		return "KwSwitch"
	case KwTrue:
		return "KwTrue"
	case KwFalse:
		return "KwFalse"
	default:
		return "Unknown"
	}
}

// IsTrivia reports whether a token of this kind carries no syntactic
// meaning on its own.
func (k Kind) IsTrivia() bool {
	return k == Whitespace || k == LineComment || k == BlockComment
}

// IsKeyword reports whether k is one of the reserved words.
func (k Kind) IsKeyword() bool {
	return k > keywordBeg && k < keywordEnd
}

// Token is one lexed unit of source text: a byte range tagged with a Kind.
// Start/End are byte offsets into the original source; Text is the exact
// slice for that range, so re-concatenating every token's Text reproduces
// the input byte-for-byte.
type Token struct {
	Kind  Kind
	Start int
	End   int
	Text  string
}
