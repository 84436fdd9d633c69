// Package cst builds a lossless concrete syntax tree over grammar-
// description source: every lexed token, trivia included, is a leaf
// somewhere in the tree, so re-concatenating the leaves' text reproduces
// the source byte-for-byte.
package cst

import (
	"strings"

	"github.com/standardbeagle/hexbait/internal/lang/lexer"
)

// NodeKind identifies the syntactic construct a composite Node represents.
// It is a separate enumeration from lexer.Kind (leaves carry a lexer.Kind
// instead); together the two enums describe every element of the tree.
type NodeKind int

const (
	NodeFile NodeKind = iota
	NodeStruct
	NodeStructField
	NodeLetStatement
	NodeError

	// Parse-types
	NodeNamedParseType
	NodeBytesParseType
	NodeRepeatParseType
	NodeSwitchParseType
	NodeSwitchBranch

	// Repetition clauses
	NodeRepeatLenDecl
	NodeRepeatWhileDecl

	// Declarations
	NodeEndiannessDeclaration
	NodeAlignDeclaration
	NodeSeekByDeclaration
	NodeSeekToDeclaration
	NodeScopeAtDeclaration

	// Expressions
	NodeAtom
	NodeByteConcat
	NodeInfixExpr
	NodePrefixExpr
	NodeParenExpr
	NodeOp
	NodeIfExpr
)

func (k NodeKind) String() string {
	names := [...]string{
		"File", "Struct", "StructField", "LetStatement", "Error",
		"NamedParseType", "BytesParseType", "RepeatParseType", "SwitchParseType", "SwitchBranch",
		"RepeatLenDecl", "RepeatWhileDecl",
		"EndiannessDeclaration", "AlignDeclaration", "SeekByDeclaration",
		"SeekToDeclaration", "ScopeAtDeclaration",
		"Atom", "ByteConcat", "InfixExpr", "PrefixExpr", "ParenExpr", "Op", "IfExpr",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Node is one element of the concrete syntax tree. A leaf wraps exactly
// one lexer.Token (Token != nil, Children == nil); a composite node has
// NodeKind set and zero or more Children, which may themselves be leaves
// or composites, including leading/trailing trivia leaves.
type Node struct {
	Kind     NodeKind
	Token    *lexer.Token
	Children []*Node
}

// IsLeaf reports whether n wraps a single token rather than other nodes.
func (n *Node) IsLeaf() bool { return n.Token != nil }

// Text recursively concatenates every leaf's token text under n, so
// n.Text() on the root File node always equals the original source.
func (n *Node) Text() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	if n == nil {
		return
	}
	if n.Token != nil {
		b.WriteString(n.Token.Text)
		return
	}
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// Span returns the [start,end) byte range this node covers, derived from
// its leaf tokens.
func (n *Node) Span() (start, end int, ok bool) {
	if n == nil {
		return 0, 0, false
	}
	if n.Token != nil {
		return n.Token.Start, n.Token.End, true
	}
	found := false
	for _, c := range n.Children {
		s, e, cok := c.Span()
		if !cok {
			continue
		}
		if !found {
			start, end = s, e
			found = true
			continue
		}
		if s < start {
			start = s
		}
		if e > end {
			end = e
		}
	}
	return start, end, found
}

// SignificantChildren returns n's direct children with trivia leaves
// filtered out, for callers walking the tree structurally.
func (n *Node) SignificantChildren() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Token != nil && c.Token.Kind.IsTrivia() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Diagnostic is a recoverable parse-time problem attached to a span of the
// source.
type Diagnostic struct {
	Message string
	Start   int
	End     int
}

func leaf(tok lexer.Token) *Node {
	t := tok
	return &Node{Token: &t}
}

func composite(kind NodeKind, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}
