package cst

import "github.com/standardbeagle/hexbait/internal/lang/lexer"

// Binding powers: bitwise `&`/`|` (1,2), comparisons (3,4), additive (5,6),
// multiplicative (7,8), unary prefix (_,9). Bitwise `&`/`|` are placed below
// comparisons, the conventional C-family precedence, since nothing else
// constrains where they sit relative to the other operator classes.
const unaryRBP = 9

// parseExpr parses an expression with Pratt binding powers, stopping once
// the next infix operator's left binding power is below minBP.
func (p *parser) parseExpr(minBP int) *Node {
	if p.peekSignificant() == lexer.Ident && p.peekSignificantText() == "if" {
		return p.parseIfExpr()
	}

	lhs := p.parseUnary()

	for {
		i1, tokCount, lbp, rbp, ok := p.peekInfixOp()
		if !ok || lbp < minBP {
			break
		}
		_ = i1
		opNode := p.consumeInfixOp(tokCount)
		rhs := p.parseExpr(rbp)
		lhs = composite(NodeInfixExpr, lhs, opNode, rhs)
	}
	return lhs
}

func (p *parser) parseUnary() *Node {
	k := p.peekSignificant()
	if k == lexer.Minus || k == lexer.Plus || k == lexer.Bang {
		var opChildren []*Node
		p.bumpSignificant(&opChildren)
		opNode := composite(NodeOp, opChildren...)
		operand := p.parseExpr(unaryRBP)
		return composite(NodePrefixExpr, opNode, operand)
	}
	return p.parsePostfix(p.parsePrimary())
}

// parsePostfix handles `.field` chains, which bind tighter than any
// binary operator.
func (p *parser) parsePostfix(base *Node) *Node {
	for p.peekSignificant() == lexer.Dot {
		var children []*Node
		children = append(children, base)
		p.bumpSignificant(&children) // '.'
		var fieldChildren []*Node
		if _, ok := p.expect(lexer.Ident, &fieldChildren); !ok {
			children = append(children, composite(NodeError, fieldChildren...))
			base = composite(NodeInfixExpr, children...)
			break
		}
		children = append(children, composite(NodeAtom, fieldChildren...))
		base = composite(NodeInfixExpr, children...)
	}
	return base
}

func (p *parser) parsePrimary() *Node {
	var lead []*Node
	p.takeTrivia(&lead)

	switch p.cur().Kind {
	case lexer.IntLiteral, lexer.StringLiteral, lexer.KwTrue, lexer.KwFalse, lexer.KwPeek:
		ch := lead
		p.bumpSignificant(&ch)
		return composite(NodeAtom, ch...)
	case lexer.Ident:
		ch := lead
		p.bumpSignificant(&ch)
		return composite(NodeAtom, ch...)
	case lexer.LParen:
		ch := lead
		p.bumpSignificant(&ch)
		ch = append(ch, p.parseExpr(0))
		p.expect(lexer.RParen, &ch)
		return composite(NodeParenExpr, ch...)
	case lexer.LAngle:
		return p.parseByteConcat(lead)
	default:
		p.errorf("expected an expression, found %s", p.cur().Kind)
		return composite(NodeError, lead...)
	}
}

// parseByteConcat parses `<hex hex ...>`, re-lexing the raw text between
// the angle brackets as byte-pair hex literals.
func (p *parser) parseByteConcat(lead []*Node) *Node {
	children := lead
	langle := p.bumpSignificant(&children)

	bodyStart := langle.End
	for p.cur().Kind != lexer.RAngle && p.cur().Kind != lexer.EOF {
		p.bump()
	}
	bodyEnd := p.cur().Start
	if bodyEnd < bodyStart {
		bodyEnd = bodyStart
	}

	bodyText := p.src[bodyStart:bodyEnd]
	for _, t := range lexer.LexByteConcatBody(bodyText) {
		if t.Kind == lexer.EOF {
			continue
		}
		t.Start += bodyStart
		t.End += bodyStart
		children = append(children, leaf(t))
	}

	p.expect(lexer.RAngle, &children)
	return composite(NodeByteConcat, children...)
}

// parseIfExpr parses `if cond then conseq else alt`. "if"/"then"/"else"
// are contextual identifiers, not reserved keywords, recognized here by their
// text.
func (p *parser) parseIfExpr() *Node {
	var children []*Node
	p.bumpSignificant(&children) // 'if'
	children = append(children, p.parseExpr(0))

	if p.peekSignificantText() == "then" {
		p.bumpSignificant(&children)
	} else {
		p.errorf("expected 'then' in if-expression")
	}
	children = append(children, p.parseExpr(0))

	if p.peekSignificantText() == "else" {
		p.bumpSignificant(&children)
	} else {
		p.errorf("expected 'else' in if-expression")
	}
	children = append(children, p.parseExpr(0))

	return composite(NodeIfExpr, children...)
}

// peekInfixOp reports the infix operator starting at the current
// position, if any: its start-token index, how many tokens it consumes (1
// or 2), and its (left, right) binding powers. Two-token operators (==, !=,
// >=, <=) require the two characters to be textually adjacent.
func (p *parser) peekInfixOp() (startIdx, tokCount, lbp, rbp int, ok bool) {
	i1 := p.findSignificant(p.pos)
	if i1 >= len(p.toks) {
		return 0, 0, 0, 0, false
	}
	t1 := p.toks[i1]

	if i1+1 < len(p.toks) {
		t2 := p.toks[i1+1]
		if t2.Start == t1.End {
			switch {
			case t1.Kind == lexer.Eq && t2.Kind == lexer.Eq:
				return i1, 2, 3, 4, true
			case t1.Kind == lexer.Bang && t2.Kind == lexer.Eq:
				return i1, 2, 3, 4, true
			case t1.Kind == lexer.LAngle && t2.Kind == lexer.Eq:
				return i1, 2, 3, 4, true
			case t1.Kind == lexer.RAngle && t2.Kind == lexer.Eq:
				return i1, 2, 3, 4, true
			}
		}
	}

	switch t1.Kind {
	case lexer.LAngle:
		return i1, 1, 3, 4, true
	case lexer.RAngle:
		return i1, 1, 3, 4, true
	case lexer.Plus:
		return i1, 1, 5, 6, true
	case lexer.Minus:
		return i1, 1, 5, 6, true
	case lexer.Star:
		return i1, 1, 7, 8, true
	case lexer.Slash:
		return i1, 1, 7, 8, true
	case lexer.Percent:
		return i1, 1, 7, 8, true
	case lexer.Amp:
		return i1, 1, 1, 2, true
	case lexer.Pipe:
		return i1, 1, 1, 2, true
	}
	return 0, 0, 0, 0, false
}

func (p *parser) findSignificant(from int) int {
	i := from
	for i < len(p.toks) && p.toks[i].Kind.IsTrivia() {
		i++
	}
	return i
}

func (p *parser) consumeInfixOp(tokCount int) *Node {
	var children []*Node
	for i := 0; i < tokCount; i++ {
		p.bumpSignificant(&children)
	}
	return composite(NodeOp, children...)
}
