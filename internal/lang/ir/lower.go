package ir

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/hexbait/internal/lang/cst"
	"github.com/standardbeagle/hexbait/internal/lang/lexer"
)

// namedIntegerPattern recognizes the built-in fixed-width integer names:
// a Named parse-type whose name matches this lowers to Integer{bit_width, signed}.
var namedIntegerPattern = regexp.MustCompile(`^([iu])(8|16|32|64)$`)

// Diagnostic is a lowering-time problem, separate from cst.Diagnostic
// (parse-time) so callers can tell which pass produced it.
type Diagnostic struct {
	Message string
	Start   int
	End     int
}

// Lower walks a parsed cst.Node tree (the root returned by cst.Parse) and
// produces the IR::File it describes, plus any lowering diagnostics. Lower
// never fails outright: unresolvable constructs become ErrorContent nodes
// so a caller can surface partial results.
func Lower(root *cst.Node) (File, []Diagnostic) {
	l := &lowerer{}
	content := l.lowerContents(root.SignificantChildren())
	// Only top-level field names count as declared definitions reachable
	// by a Named{name} lookup elsewhere in the file.
	for _, c := range content {
		if c.Field != nil {
			l.declaredName = append(l.declaredName, c.Field.Name)
		}
	}
	l.checkNamedReferences(content)
	return File{Content: content}, l.diags
}

type lowerer struct {
	diags        []Diagnostic
	declaredName []string // top-level field names, reachable via Named{name}
}

func (l *lowerer) errorf(n *cst.Node, format string, args ...any) {
	start, end, _ := n.Span()
	l.diags = append(l.diags, Diagnostic{Message: fmt.Sprintf(format, args...), Start: start, End: end})
}

func (l *lowerer) lowerContents(nodes []*cst.Node) []StructContent {
	out := make([]StructContent, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, l.lowerStructContent(n))
	}
	return out
}

func (l *lowerer) lowerStructContent(n *cst.Node) StructContent {
	switch n.Kind {
	case cst.NodeStructField:
		f := l.lowerField(n)
		return StructContent{Field: &f}
	case cst.NodeLetStatement:
		let := l.lowerLetStatement(n)
		return StructContent{Let: &let}
	case cst.NodeEndiannessDeclaration, cst.NodeAlignDeclaration, cst.NodeSeekByDeclaration,
		cst.NodeSeekToDeclaration, cst.NodeScopeAtDeclaration:
		d := l.lowerDeclaration(n)
		return StructContent{Declaration: &d}
	case cst.NodeError:
		return StructContent{Error: &ErrorContent{Text: n.Text()}}
	default:
		l.errorf(n, "unexpected node %s in struct content", n.Kind)
		return StructContent{Error: &ErrorContent{Text: n.Text()}}
	}
}

func (l *lowerer) lowerField(n *cst.Node) Field {
	ch := n.SignificantChildren()
	if len(ch) < 2 {
		l.errorf(n, "malformed field")
		return Field{}
	}
	name := ch[0].Text()
	typ := l.lowerParseType(ch[1])
	var expected *Expr
	if len(ch) >= 4 {
		// name, type, '=', expr
		e := l.lowerExpr(ch[3])
		expected = &e
	}
	f := Field{Name: name, Type: typ}
	if expected != nil {
		f.Expected = *expected
	}
	return f
}

func (l *lowerer) lowerLetStatement(n *cst.Node) LetStatement {
	ch := n.SignificantChildren()
	// 'let', ident, '=', expr
	if len(ch) < 4 {
		l.errorf(n, "malformed let statement")
		return LetStatement{}
	}
	name := ch[1].Text()
	value := l.lowerExpr(ch[3])
	return LetStatement{Name: name, Value: value}
}

func (l *lowerer) lowerDeclaration(n *cst.Node) Declaration {
	ch := n.SignificantChildren()
	switch n.Kind {
	case cst.NodeEndiannessDeclaration:
		// '!', 'endian', le|be, ';'
		e := LittleEndian
		if len(ch) >= 3 && ch[2].Text() == "be" {
			e = BigEndian
		}
		return Declaration{Kind: DeclEndianness, Endianness: e}
	case cst.NodeAlignDeclaration:
		return Declaration{Kind: DeclAlign, Amount: l.lowerExpr(firstExpr(ch))}
	case cst.NodeSeekByDeclaration:
		return Declaration{Kind: DeclSeekBy, Amount: l.lowerExpr(firstExpr(ch))}
	case cst.NodeSeekToDeclaration:
		return Declaration{Kind: DeclSeekTo, Amount: l.lowerExpr(firstExpr(ch))}
	case cst.NodeScopeAtDeclaration:
		var start Expr
		var body []StructContent
		for _, c := range ch {
			if isExprNode(c) {
				start = l.lowerExpr(c)
				continue
			}
			if isStructContentNode(c) {
				body = append(body, l.lowerStructContent(c))
			}
		}
		return Declaration{Kind: DeclScopeAt, ScopeStart: start, ScopeBody: body}
	}
	return Declaration{}
}

// firstExpr finds the first child of ch that is an expression node (skips
// the leading '!'/name leaves and the trailing ';').
func firstExpr(ch []*cst.Node) *cst.Node {
	for _, c := range ch {
		if isExprNode(c) {
			return c
		}
	}
	return nil
}

func isExprNode(n *cst.Node) bool {
	switch n.Kind {
	case cst.NodeAtom, cst.NodeByteConcat, cst.NodeInfixExpr, cst.NodePrefixExpr, cst.NodeParenExpr, cst.NodeIfExpr:
		return true
	}
	return false
}

func isStructContentNode(n *cst.Node) bool {
	switch n.Kind {
	case cst.NodeStructField, cst.NodeLetStatement, cst.NodeError,
		cst.NodeEndiannessDeclaration, cst.NodeAlignDeclaration, cst.NodeSeekByDeclaration,
		cst.NodeSeekToDeclaration, cst.NodeScopeAtDeclaration:
		return true
	}
	return false
}

func (l *lowerer) lowerParseType(n *cst.Node) ParseType {
	switch n.Kind {
	case cst.NodeNamedParseType:
		name := n.Text()
		if m := namedIntegerPattern.FindStringSubmatch(name); m != nil {
			width, _ := strconv.Atoi(m[2])
			return ParseType{Kind: ParseTypeInteger, Integer: IntegerType{BitWidth: width, Signed: m[1] == "i"}}
		}
		return ParseType{Kind: ParseTypeNamed, Named: name}
	case cst.NodeBytesParseType:
		return ParseType{Kind: ParseTypeBytes, Bytes: Repetition{Kind: RepetitionNone}}
	case cst.NodeStruct:
		return ParseType{Kind: ParseTypeStruct, Struct: l.lowerContents(n.SignificantChildren())}
	case cst.NodeSwitchParseType:
		return ParseType{Kind: ParseTypeSwitch, Switch: l.lowerSwitch(n)}
	case cst.NodeRepeatParseType:
		ch := n.SignificantChildren()
		if len(ch) < 2 {
			l.errorf(n, "malformed repeat type")
			return ParseType{Kind: ParseTypeNamed, Named: "<error>"}
		}
		inner := l.lowerParseType(ch[0])
		rep := l.lowerRepetition(ch[1])
		return ParseType{Kind: ParseTypeRepeating, Repeat: &RepeatType{Inner: inner, Repetition: rep}}
	case cst.NodeError:
		l.errorf(n, "unrecognized parse type")
		return ParseType{Kind: ParseTypeNamed, Named: "<error>"}
	default:
		l.errorf(n, "unexpected node %s as parse type", n.Kind)
		return ParseType{Kind: ParseTypeNamed, Named: "<error>"}
	}
}

func (l *lowerer) lowerRepetition(n *cst.Node) Repetition {
	switch n.Kind {
	case cst.NodeRepeatWhileDecl:
		ch := n.SignificantChildren()
		var cond *cst.Node
		for _, c := range ch {
			if isExprNode(c) {
				cond = c
			}
		}
		return Repetition{Kind: RepetitionWhile, Condition: l.lowerExpr(cond)}
	case cst.NodeRepeatLenDecl:
		ch := n.SignificantChildren()
		var count *cst.Node
		if len(ch) > 0 {
			count = ch[0]
		}
		return Repetition{Kind: RepetitionLen, Count: l.lowerExpr(count)}
	}
	l.errorf(n, "unexpected repetition node %s", n.Kind)
	return Repetition{Kind: RepetitionNone}
}

func (l *lowerer) lowerSwitch(n *cst.Node) *SwitchType {
	ch := n.SignificantChildren()
	sw := &SwitchType{}
	scrutineeTaken := false
	for _, c := range ch {
		switch {
		case c.Kind == cst.NodeSwitchBranch:
			branch := l.lowerSwitchBranch(c)
			if branch == nil {
				continue
			}
			if branch.isDefault {
				sw.Default = branch.content
			} else {
				sw.Branches = append(sw.Branches, SwitchBranch{Value: branch.value, Content: branch.content})
			}
		case isExprNode(c) && !scrutineeTaken:
			sw.Scrutinee = l.lowerExpr(c)
			scrutineeTaken = true
		}
	}
	return sw
}

type loweredBranch struct {
	isDefault bool
	value     Expr
	content   []StructContent
}

func (l *lowerer) lowerSwitchBranch(n *cst.Node) *loweredBranch {
	ch := n.SignificantChildren()
	if len(ch) == 0 {
		return nil
	}
	// underscore default branch: leaf(_), ':', content
	if ch[0].IsLeaf() && ch[0].Token.Kind == lexer.Underscore {
		content := l.lowerStructContent(ch[len(ch)-1])
		return &loweredBranch{isDefault: true, content: []StructContent{content}}
	}
	value := l.lowerExpr(ch[0])
	content := l.lowerStructContent(ch[len(ch)-1])
	return &loweredBranch{value: value, content: []StructContent{content}}
}

func (l *lowerer) lowerExpr(n *cst.Node) Expr {
	if n == nil {
		return Expr{Kind: ExprIdent, Ident: "<error>"}
	}
	switch n.Kind {
	case cst.NodeAtom:
		return l.lowerAtom(n)
	case cst.NodeByteConcat:
		return Expr{Kind: ExprByteConcat, Bytes: lowerByteConcat(n)}
	case cst.NodeParenExpr:
		ch := n.SignificantChildren()
		for _, c := range ch {
			if isExprNode(c) {
				inner := l.lowerExpr(c)
				return Expr{Kind: ExprParen, Paren: &inner}
			}
		}
		return Expr{Kind: ExprIdent, Ident: "<error>"}
	case cst.NodePrefixExpr:
		ch := n.SignificantChildren()
		if len(ch) != 2 {
			return Expr{Kind: ExprIdent, Ident: "<error>"}
		}
		op := unaryOpFromText(ch[0].Text())
		operand := l.lowerExpr(ch[1])
		return Expr{Kind: ExprUnary, Unary: &UnaryExpr{Op: op, Operand: &operand}}
	case cst.NodeInfixExpr:
		return l.lowerInfix(n)
	case cst.NodeIfExpr:
		return l.lowerIf(n)
	default:
		l.errorf(n, "unexpected node %s as expression", n.Kind)
		return Expr{Kind: ExprIdent, Ident: "<error>"}
	}
}

// fieldNameOf extracts the plain identifier text of an Atom node built
// from a postfix `.field` access, ignoring any leading trivia the atom's
// leaf collected.
func fieldNameOf(atom *cst.Node) string {
	sig := atom.SignificantChildren()
	if len(sig) == 0 {
		return ""
	}
	return sig[0].Text()
}

func (l *lowerer) lowerAtom(n *cst.Node) Expr {
	ch := n.SignificantChildren()
	if len(ch) == 0 {
		return Expr{Kind: ExprIdent, Ident: "<error>"}
	}
	tok := ch[0]
	if !tok.IsLeaf() {
		l.errorf(n, "malformed atom")
		return Expr{Kind: ExprIdent, Ident: "<error>"}
	}
	switch tok.Token.Kind {
	case lexer.IntLiteral:
		return Expr{Kind: ExprIntLiteral, IntLiteral: tok.Text()}
	case lexer.StringLiteral:
		return Expr{Kind: ExprStringLiteral, StringLiteral: unescapeString(tok.Text())}
	case lexer.KwTrue:
		return Expr{Kind: ExprBoolLiteral, BoolLiteral: true}
	case lexer.KwFalse:
		return Expr{Kind: ExprBoolLiteral, BoolLiteral: false}
	case lexer.KwPeek:
		return Expr{Kind: ExprIdent, Ident: "peek"}
	case lexer.Ident:
		return Expr{Kind: ExprIdent, Ident: tok.Text()}
	default:
		l.errorf(n, "unexpected atom token %s", tok.Token.Kind)
		return Expr{Kind: ExprIdent, Ident: "<error>"}
	}
}

func (l *lowerer) lowerInfix(n *cst.Node) Expr {
	ch := n.SignificantChildren()
	if len(ch) != 3 {
		l.errorf(n, "malformed infix expression")
		return Expr{Kind: ExprIdent, Ident: "<error>"}
	}
	opText := ch[1].Text()
	if opText == "." {
		base := l.lowerExpr(ch[0])
		field := fieldNameOf(ch[2])
		return Expr{Kind: ExprFieldAccess, Field: &FieldAccess{Base: &base, Field: field}}
	}
	lhs := l.lowerExpr(ch[0])
	rhs := l.lowerExpr(ch[2])
	op, ok := binaryOpFromText(opText)
	if !ok {
		l.errorf(n, "unknown operator %q", opText)
	}
	return Expr{Kind: ExprBinary, Binop: &BinaryExpr{Op: op, Lhs: &lhs, Rhs: &rhs}}
}

func (l *lowerer) lowerIf(n *cst.Node) Expr {
	ch := n.SignificantChildren()
	// 'if', cond, 'then', conseq, 'else', alt
	var exprs []*cst.Node
	for _, c := range ch {
		if isExprNode(c) {
			exprs = append(exprs, c)
		}
	}
	if len(exprs) != 3 {
		l.errorf(n, "malformed if-expression")
		return Expr{Kind: ExprIdent, Ident: "<error>"}
	}
	cond := l.lowerExpr(exprs[0])
	then := l.lowerExpr(exprs[1])
	alt := l.lowerExpr(exprs[2])
	return Expr{Kind: ExprIf, If: &IfExpr{Cond: &cond, Then: &then, Else: &alt}}
}

func unaryOpFromText(s string) UnaryOp {
	switch s {
	case "-":
		return UnaryNeg
	case "!":
		return UnaryNot
	default:
		return UnaryPlus
	}
}

func binaryOpFromText(s string) (BinaryOp, bool) {
	switch s {
	case "+":
		return BinAdd, true
	case "-":
		return BinSub, true
	case "*":
		return BinMul, true
	case "/":
		return BinDiv, true
	case "%":
		return BinMod, true
	case "&":
		return BinAnd, true
	case "|":
		return BinOr, true
	case "==":
		return BinEq, true
	case "!=":
		return BinNeq, true
	case "<":
		return BinLt, true
	case ">":
		return BinGt, true
	case "<=":
		return BinLe, true
	case ">=":
		return BinGe, true
	}
	return 0, false
}

func lowerByteConcat(n *cst.Node) []byte {
	var out []byte
	for _, c := range n.SignificantChildren() {
		if !c.IsLeaf() || c.Token.Kind != lexer.BytePairHex {
			continue
		}
		v, err := strconv.ParseUint(c.Text(), 16, 8)
		if err != nil {
			continue
		}
		out = append(out, byte(v))
	}
	return out
}

func unescapeString(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	inner := raw[1 : len(raw)-1]
	var b []byte
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				b = append(b, '\n')
			case 't':
				b = append(b, '\t')
			case 'r':
				b = append(b, '\r')
			case '"':
				b = append(b, '"')
			case '\\':
				b = append(b, '\\')
			default:
				b = append(b, inner[i])
			}
			continue
		}
		b = append(b, inner[i])
	}
	return string(b)
}

// checkNamedReferences walks the already-lowered content for ParseTypeNamed
// references that don't match any declared field/struct name known so far
// and records a "did you mean" diagnostic using edlib's Levenshtein
// distance against the declared-name set.
func (l *lowerer) checkNamedReferences(content []StructContent) {
	declared := make(map[string]bool, len(l.declaredName))
	for _, n := range l.declaredName {
		declared[n] = true
	}
	var walk func([]StructContent)
	walk = func(cs []StructContent) {
		for _, c := range cs {
			if c.Field == nil {
				continue
			}
			l.checkParseType(c.Field.Type, declared)
		}
	}
	walk(content)
}

func (l *lowerer) checkParseType(t ParseType, declared map[string]bool) {
	switch t.Kind {
	case ParseTypeNamed:
		if declared[t.Named] {
			return
		}
		best, bestSim := "", float32(0)
		for name := range declared {
			sim, err := edlib.StringsSimilarity(t.Named, name, edlib.Levenshtein)
			if err != nil {
				continue
			}
			if sim > bestSim {
				best, bestSim = name, sim
			}
		}
		if best != "" && bestSim >= 0.5 {
			l.diags = append(l.diags, Diagnostic{Message: fmt.Sprintf("unknown type %q, did you mean %q?", t.Named, best)})
		}
	case ParseTypeRepeating:
		if t.Repeat != nil {
			l.checkParseType(t.Repeat.Inner, declared)
		}
	case ParseTypeStruct:
		l.checkNamedReferences(t.Struct)
	case ParseTypeSwitch:
		if t.Switch == nil {
			return
		}
		for _, b := range t.Switch.Branches {
			l.checkNamedReferences(b.Content)
		}
		l.checkNamedReferences(t.Switch.Default)
	}
}
