package cst

import "github.com/standardbeagle/hexbait/internal/lang/lexer"

// HighlightCategory classifies a span of source text for syntax
// coloring. It plays the role a tree-sitter highlight query's capture
// names (@keyword, @string, ...) would play for a language with a bundled
// grammar; hexbait's grammar-description language has no such bundled
// tree-sitter grammar (it is invented for this tool, not a pre-existing
// language tree-sitter ships bindings for), so this walks the CST this
// package already builds instead of a compiled tree-sitter query.
type HighlightCategory int

const (
	HighlightNone HighlightCategory = iota
	HighlightKeyword
	HighlightIdent
	HighlightNumber
	HighlightString
	HighlightComment
	HighlightOperator
	HighlightPunctuation
	HighlightError
)

func (c HighlightCategory) String() string {
	switch c {
	case HighlightKeyword:
		return "keyword"
	case HighlightIdent:
		return "ident"
	case HighlightNumber:
		return "number"
	case HighlightString:
		return "string"
	case HighlightComment:
		return "comment"
	case HighlightOperator:
		return "operator"
	case HighlightPunctuation:
		return "punctuation"
	case HighlightError:
		return "error"
	default:
		return "none"
	}
}

// HighlightSpan is one colorable region of source text.
type HighlightSpan struct {
	Start    int
	End      int
	Category HighlightCategory
}

// HighlightQuery walks root's leaves in source order and returns one
// HighlightSpan per non-trivial token, trivia (whitespace) dropped and
// comments kept. It is the editor-assist entry point for the grammar
// source shown in an editor pane, not anything the evaluator depends on.
func HighlightQuery(root *Node) []HighlightSpan {
	var spans []HighlightSpan
	collectHighlights(root, &spans)
	return spans
}

func collectHighlights(n *Node, out *[]HighlightSpan) {
	if n == nil {
		return
	}
	if n.Token != nil {
		if cat, ok := categorize(n.Token.Kind); ok {
			*out = append(*out, HighlightSpan{
				Start:    n.Token.Start,
				End:      n.Token.End,
				Category: cat,
			})
		}
		return
	}
	if n.Kind == NodeError {
		if start, end, ok := n.Span(); ok {
			*out = append(*out, HighlightSpan{Start: start, End: end, Category: HighlightError})
			return
		}
	}
	for _, c := range n.Children {
		collectHighlights(c, out)
	}
}

func categorize(k lexer.Kind) (HighlightCategory, bool) {
	switch {
	case k == lexer.Whitespace:
		return HighlightNone, false
	case k == lexer.LineComment || k == lexer.BlockComment:
		return HighlightComment, true
	case k.IsKeyword():
		return HighlightKeyword, true
	case k == lexer.Ident || k == lexer.Underscore:
		return HighlightIdent, true
	case k == lexer.IntLiteral || k == lexer.BytePairHex:
		return HighlightNumber, true
	case k == lexer.StringLiteral:
		return HighlightString, true
	case isOperatorKind(k):
		return HighlightOperator, true
	case k == lexer.EOF || k == lexer.Illegal:
		return HighlightNone, false
	default:
		return HighlightPunctuation, true
	}
}

func isOperatorKind(k lexer.Kind) bool {
	switch k {
	case lexer.Amp, lexer.Pipe, lexer.Plus, lexer.Minus, lexer.Star, lexer.Slash,
		lexer.Percent, lexer.Eq, lexer.Caret, lexer.Bang, lexer.LAngle, lexer.RAngle:
		return true
	default:
		return false
	}
}
