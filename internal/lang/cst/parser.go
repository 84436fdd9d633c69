package cst

import (
	"fmt"

	"github.com/standardbeagle/hexbait/internal/lang/lexer"
)

// Parse tokenizes and parses src into a File node plus any diagnostics
// recorded along the way. Parsing never aborts: unexpected input produces
// an Error node and the parser resynchronizes on the next `;`, so Parse always
// returns a usable (if partially erroneous) tree.
func Parse(src string) (*Node, []Diagnostic) {
	p := &parser{src: src, toks: lexer.Lex(src)}
	children := p.parseContentsUntil(lexer.EOF)
	p.takeTrivia(&children)
	return composite(NodeFile, children...), p.diags
}

type parser struct {
	src   string
	toks  []lexer.Token
	pos   int
	diags []Diagnostic
}

func (p *parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *parser) bump() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// takeTrivia consumes consecutive leading trivia tokens, appending each as
// a leaf to children, so no byte of the source is ever dropped.
func (p *parser) takeTrivia(children *[]*Node) {
	for p.cur().Kind.IsTrivia() {
		*children = append(*children, leaf(p.bump()))
	}
}

// peekSignificant looks past any trivia (without consuming it) to the
// kind of the next significant token.
func (p *parser) peekSignificant() lexer.Kind {
	i := p.pos
	for i < len(p.toks) && p.toks[i].Kind.IsTrivia() {
		i++
	}
	if i >= len(p.toks) {
		return lexer.EOF
	}
	return p.toks[i].Kind
}

func (p *parser) peekSignificantText() string {
	i := p.pos
	for i < len(p.toks) && p.toks[i].Kind.IsTrivia() {
		i++
	}
	if i >= len(p.toks) {
		return ""
	}
	return p.toks[i].Text
}

// bumpSignificant consumes leading trivia into children, then the next
// significant token as a leaf.
func (p *parser) bumpSignificant(children *[]*Node) lexer.Token {
	p.takeTrivia(children)
	tok := p.bump()
	*children = append(*children, leaf(tok))
	return tok
}

// expect consumes trivia, then requires the next token be kind; on
// mismatch it records a diagnostic and leaves the stream positioned at the
// offending token (the caller decides how to recover).
func (p *parser) expect(kind lexer.Kind, children *[]*Node) (lexer.Token, bool) {
	p.takeTrivia(children)
	if p.cur().Kind != kind {
		p.errorf("expected %s, found %s", kind, p.cur().Kind)
		return lexer.Token{}, false
	}
	return p.bumpSignificant(children), true
}

func (p *parser) errorf(format string, args ...any) {
	tok := p.cur()
	p.diags = append(p.diags, Diagnostic{Message: fmt.Sprintf(format, args...), Start: tok.Start, End: tok.End})
}

// recoverToSemi consumes tokens (wrapped as leaves under an Error node)
// until it finds and consumes a `;`, or hits EOF, synchronizing- token recovery
// rule.
func (p *parser) recoverToSemi() *Node {
	var children []*Node
	for {
		p.takeTrivia(&children)
		if p.cur().Kind == lexer.EOF {
			break
		}
		tok := p.bump()
		children = append(children, leaf(tok))
		if tok.Kind == lexer.Semi {
			break
		}
	}
	return composite(NodeError, children...)
}

// parseContentsUntil parses StructContent nodes until the next
// significant token is stop (not consumed) or EOF.
func (p *parser) parseContentsUntil(stop lexer.Kind) []*Node {
	var out []*Node
	for {
		var lead []*Node
		p.takeTrivia(&lead)
		if len(lead) > 0 {
			out = append(out, lead...)
		}
		k := p.cur().Kind
		if k == stop || k == lexer.EOF {
			break
		}
		out = append(out, p.parseStructContent())
	}
	return out
}

func (p *parser) parseStructContent() *Node {
	switch p.cur().Kind {
	case lexer.Bang:
		return p.parseDeclaration()
	case lexer.KwLet:
		return p.parseLetStatement()
	case lexer.Ident:
		return p.parseField()
	default:
		p.errorf("unexpected token %s in struct content", p.cur().Kind)
		return p.recoverToSemi()
	}
}

// parseDeclaration parses a `!name ...;` or `!scope_at expr { content* }`
// form. The declaration name is a contextual identifier, not a reserved
// keyword.
func (p *parser) parseDeclaration() *Node {
	var children []*Node
	p.bumpSignificant(&children) // '!'

	p.takeTrivia(&children)
	nameTok := p.cur()
	if nameTok.Kind != lexer.Ident {
		p.errorf("expected declaration name after '!', found %s", nameTok.Kind)
		return mergeError(children, p.recoverToSemi())
	}
	p.bumpSignificant(&children)

	switch nameTok.Text {
	case "endian":
		p.takeTrivia(&children)
		if p.cur().Kind == lexer.Ident {
			p.bumpSignificant(&children)
		} else {
			p.errorf("expected 'le' or 'be' after !endian")
		}
		p.expect(lexer.Semi, &children)
		return composite(NodeEndiannessDeclaration, children...)
	case "align":
		children = append(children, p.parseExpr(0))
		p.expect(lexer.Semi, &children)
		return composite(NodeAlignDeclaration, children...)
	case "seek_by":
		children = append(children, p.parseExpr(0))
		p.expect(lexer.Semi, &children)
		return composite(NodeSeekByDeclaration, children...)
	case "seek_to":
		children = append(children, p.parseExpr(0))
		p.expect(lexer.Semi, &children)
		return composite(NodeSeekToDeclaration, children...)
	case "scope_at":
		children = append(children, p.parseExpr(0))
		if _, ok := p.expect(lexer.LBrace, &children); ok {
			children = append(children, p.parseContentsUntil(lexer.RBrace)...)
			p.expect(lexer.RBrace, &children)
		}
		return composite(NodeScopeAtDeclaration, children...)
	default:
		p.errorf("unknown declaration '!%s'", nameTok.Text)
		return composite(NodeError, children...)
	}
}

func mergeError(prefix []*Node, errNode *Node) *Node {
	return composite(NodeError, append(prefix, errNode.Children...)...)
}

func (p *parser) parseLetStatement() *Node {
	var children []*Node
	p.bumpSignificant(&children) // 'let'
	if _, ok := p.expect(lexer.Ident, &children); !ok {
		return mergeError(children, p.recoverToSemi())
	}
	if _, ok := p.expect(lexer.Eq, &children); !ok {
		return mergeError(children, p.recoverToSemi())
	}
	children = append(children, p.parseExpr(0))
	p.expect(lexer.Semi, &children)
	return composite(NodeLetStatement, children...)
}

// parseField parses `name type (= expected)? ;`.
func (p *parser) parseField() *Node {
	var children []*Node
	p.bumpSignificant(&children) // field name (Ident)

	children = append(children, p.parseParseType())

	p.takeTrivia(&children)
	if p.cur().Kind == lexer.Eq {
		p.bumpSignificant(&children)
		children = append(children, p.parseExpr(0))
	}
	p.expect(lexer.Semi, &children)
	return composite(NodeStructField, children...)
}

// parseParseType parses one of Named, Bytes, (inline) Struct, or Switch,
// each optionally suffixed by a `[...]` repetition clause turning it into
// a RepeatParseType.
func (p *parser) parseParseType() *Node {
	var lead []*Node
	p.takeTrivia(&lead)

	var base *Node
	switch p.cur().Kind {
	case lexer.KwBytes:
		ch := lead
		p.bumpSignificant(&ch)
		base = composite(NodeBytesParseType, ch...)
	case lexer.KwStruct:
		ch := lead
		p.bumpSignificant(&ch)
		if _, ok := p.expect(lexer.LBrace, &ch); ok {
			ch = append(ch, p.parseContentsUntil(lexer.RBrace)...)
			p.expect(lexer.RBrace, &ch)
		}
		base = composite(NodeStruct, ch...)
	case lexer.KwSwitch:
		base = p.parseSwitchParseType(lead)
	case lexer.Ident:
		ch := lead
		p.bumpSignificant(&ch)
		base = composite(NodeNamedParseType, ch...)
	default:
		p.errorf("expected a type, found %s", p.cur().Kind)
		return composite(NodeError, lead...)
	}

	if p.peekSignificant() == lexer.LBracket {
		var ch []*Node
		ch = append(ch, base)
		p.bumpSignificant(&ch) // '['
		ch = append(ch, p.parseRepeatClause())
		p.expect(lexer.RBracket, &ch)
		return composite(NodeRepeatParseType, ch...)
	}
	return base
}

func (p *parser) parseRepeatClause() *Node {
	if p.peekSignificantText() == "while" && p.peekSignificant() == lexer.Ident {
		var ch []*Node
		p.bumpSignificant(&ch) // 'while'
		ch = append(ch, p.parseExpr(0))
		return composite(NodeRepeatWhileDecl, ch...)
	}
	return composite(NodeRepeatLenDecl, p.parseExpr(0))
}

func (p *parser) parseSwitchParseType(lead []*Node) *Node {
	children := lead
	p.bumpSignificant(&children) // 'switch'
	if _, ok := p.expect(lexer.LParen, &children); ok {
		children = append(children, p.parseExpr(0))
		p.expect(lexer.RParen, &children)
	}
	if _, ok := p.expect(lexer.LBrace, &children); ok {
		for {
			p.takeTrivia(&children)
			k := p.cur().Kind
			if k == lexer.RBrace || k == lexer.EOF {
				break
			}
			children = append(children, p.parseSwitchBranch())
		}
		p.expect(lexer.RBrace, &children)
	}
	return composite(NodeSwitchParseType, children...)
}

func (p *parser) parseSwitchBranch() *Node {
	var children []*Node
	if p.cur().Kind == lexer.Underscore {
		p.bumpSignificant(&children)
	} else {
		children = append(children, p.parseExpr(0))
	}
	p.expect(lexer.Colon, &children)
	children = append(children, p.parseStructContent())
	return composite(NodeSwitchBranch, children...)
}
