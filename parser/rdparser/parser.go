// Copyright © 2024 The nxt authors

// Package rdparser is a recursive-descent parser for the Nix expression
// language. It never fails: syntax errors are recorded on the returned root
// and unparseable input is wrapped in Error nodes so that the tree stays
// lossless.
package rdparser

import (
	"fmt"
	"sort"

	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
)

// Binding powers, loosest first. Prefix operators parse their operand at
// the level given here.
const (
	precPipe = iota + 1
	precImpl
	precOr
	precAnd
	precEquality
	precCompare
	precUpdate
	precNot
	precAdd
	precMul
	precConcat
	precHasAttr
	precNegate
)

type binOp struct {
	prec  int
	right bool
}

var binOps = map[token.Type]binOp{
	token.PIPE_RIGHT:  {precPipe, false},
	token.PIPE_LEFT:   {precPipe, true},
	token.IMPLICATION: {precImpl, true},
	token.OR_OR:       {precOr, false},
	token.AND:         {precAnd, false},
	token.EQUAL:       {precEquality, false},
	token.NOT_EQUAL:   {precEquality, false},
	token.LESS:        {precCompare, false},
	token.LESS_OR_EQ:  {precCompare, false},
	token.MORE:        {precCompare, false},
	token.MORE_OR_EQ:  {precCompare, false},
	token.UPDATE:      {precUpdate, true},
	token.ADD:         {precAdd, false},
	token.SUB:         {precAdd, false},
	token.MUL:         {precMul, false},
	token.DIV:         {precMul, false},
	token.CONCAT:      {precConcat, true},
}

// Parser is a Nix parser. A Parser is used for a single source.
type Parser struct {
	file   string
	source []byte
	src    *TokenSource
	b      builder
	errs   []*syntax.Error
	seen   map[int]bool
}

// New initializes and returns a Parser for the named source.
func New(file string, source []byte) *Parser {
	src := NewTokenSource(token.NewScanner(file, source))
	return &Parser{
		file:   file,
		source: source,
		src:    src,
		b:      builder{src: src},
		seen:   make(map[int]bool),
	}
}

// Parse parses the source as a single expression.
func (p *Parser) Parse() *syntax.Root {
	for _, err := range p.src.LexErrors() {
		p.error(err.Span, err.Message)
	}
	p.b.start(syntax.KindRoot)
	p.parseExpr()
	if !p.src.IsEOF() {
		p.b.start(syntax.KindError)
		p.unexpected("end of input")
		for !p.src.IsEOF() {
			p.b.bump()
		}
		p.b.finish()
	}
	p.b.flushTrivia()
	node := p.b.finish()
	sort.SliceStable(p.errs, func(i, j int) bool {
		return p.errs[i].Span.Start < p.errs[j].Span.Start
	})
	return &syntax.Root{
		Filename: p.file,
		Source:   p.source,
		Node:     node,
		Errors:   p.errs,
	}
}

func (p *Parser) parseExpr() {
	switch p.peek() {
	case token.LET:
		if p.src.PeekN(1).Type != token.BRACE_L {
			p.parseLetIn()
			return
		}
	case token.WITH:
		p.parseWith()
		return
	case token.ASSERT:
		p.parseAssert()
		return
	case token.IF:
		p.parseIfElse()
		return
	case token.IDENT:
		switch p.src.PeekN(1).Type {
		case token.COLON:
			p.parseSimpleLambda()
			return
		case token.AT:
			if p.src.PeekN(2).Type == token.BRACE_L {
				p.parsePatternLambda()
				return
			}
		}
	case token.BRACE_L:
		if p.looksLikePattern() {
			p.parsePatternLambda()
			return
		}
	}
	p.parseBinary(0)
}

func (p *Parser) parseLetIn() {
	p.b.start(syntax.KindLetIn)
	p.b.bump()
	p.parseBindings(token.IN)
	p.expect(token.IN)
	p.parseExpr()
	p.b.finish()
}

func (p *Parser) parseWith() {
	p.b.start(syntax.KindWith)
	p.b.bump()
	p.parseExpr()
	p.expect(token.SEMICOLON)
	p.parseExpr()
	p.b.finish()
}

func (p *Parser) parseAssert() {
	p.b.start(syntax.KindAssert)
	p.b.bump()
	p.parseExpr()
	p.expect(token.SEMICOLON)
	p.parseExpr()
	p.b.finish()
}

func (p *Parser) parseIfElse() {
	p.b.start(syntax.KindIfElse)
	p.b.bump()
	p.parseExpr()
	p.expect(token.THEN)
	p.parseExpr()
	p.expect(token.ELSE)
	p.parseExpr()
	p.b.finish()
}

func (p *Parser) parseSimpleLambda() {
	p.b.start(syntax.KindLambda)
	p.parseName()
	p.b.bump()
	p.parseExpr()
	p.b.finish()
}

func (p *Parser) parsePatternLambda() {
	p.b.start(syntax.KindLambda)
	p.b.start(syntax.KindPattern)
	if p.peek() == token.IDENT {
		p.b.start(syntax.KindPatBind)
		p.parseName()
		p.b.bump()
		p.b.finish()
	}
	p.parsePatternEntries()
	if p.peek() == token.AT {
		p.b.start(syntax.KindPatBind)
		p.b.bump()
		if p.peek() == token.IDENT {
			p.parseName()
		} else {
			p.unexpected("parameter name")
		}
		p.b.finish()
	}
	p.b.finish()
	p.expect(token.COLON)
	p.parseExpr()
	p.b.finish()
}

func (p *Parser) parsePatternEntries() {
	if !p.expect(token.BRACE_L) {
		return
	}
	for {
		switch p.peek() {
		case token.BRACE_R, token.COLON, token.EOF:
			p.expect(token.BRACE_R)
			return
		case token.ELLIPSIS:
			p.b.bump()
		case token.IDENT, token.OR:
			p.b.start(syntax.KindPatEntry)
			p.parseName()
			if p.peek() == token.QUESTION {
				p.b.bump()
				p.parseExpr()
			}
			p.b.finish()
		default:
			p.b.start(syntax.KindError)
			p.unexpected("pattern field")
			p.b.bump()
			p.b.finish()
			continue
		}
		if p.peek() == token.COMMA {
			p.b.bump()
			continue
		}
		p.expect(token.BRACE_R)
		return
	}
}

// looksLikePattern decides whether the brace at the current position opens
// a lambda pattern rather than an attribute set.
func (p *Parser) looksLikePattern() bool {
	afterClose := func(n int) bool {
		typ := p.src.PeekN(n).Type
		return typ == token.COLON || typ == token.AT
	}
	switch p.src.PeekN(1).Type {
	case token.BRACE_R:
		return afterClose(2)
	case token.ELLIPSIS:
		return true
	case token.IDENT, token.OR:
		switch p.src.PeekN(2).Type {
		case token.COMMA, token.QUESTION:
			return true
		case token.BRACE_R:
			return afterClose(3)
		}
	}
	return false
}

func (p *Parser) parseBinary(minPrec int) {
	cp := p.b.checkpoint()
	p.parsePrefix()
	for {
		typ := p.peek()
		if typ == token.QUESTION && precHasAttr >= minPrec {
			p.b.startAt(cp, syntax.KindHasAttr)
			p.b.bump()
			p.parseAttrpath()
			p.b.finish()
			continue
		}
		op, ok := binOps[typ]
		if !ok || op.prec < minPrec {
			return
		}
		p.b.startAt(cp, syntax.KindBinOp)
		p.b.bump()
		next := op.prec + 1
		if op.right {
			next = op.prec
		}
		p.parseBinary(next)
		p.b.finish()
	}
}

func (p *Parser) parsePrefix() {
	switch p.peek() {
	case token.NOT:
		p.b.start(syntax.KindUnaryOp)
		p.b.bump()
		p.parseBinary(precNot + 1)
		p.b.finish()
	case token.SUB:
		p.b.start(syntax.KindUnaryOp)
		p.b.bump()
		p.parseBinary(precNegate)
		p.b.finish()
	default:
		p.parseApply()
	}
}

func (p *Parser) parseApply() {
	cp := p.b.checkpoint()
	p.parseSelect()
	for p.startsArgument() {
		p.b.startAt(cp, syntax.KindApply)
		p.parseSelect()
		p.b.finish()
	}
}

func (p *Parser) startsArgument() bool {
	switch p.peek() {
	case token.IDENT, token.INT, token.FLOAT, token.URI, token.PATH,
		token.STRING_START, token.IND_STRING_START,
		token.PAREN_L, token.BRACKET_L, token.BRACE_L, token.REC:
		return true
	case token.LET:
		return p.src.PeekN(1).Type == token.BRACE_L
	}
	return false
}

func (p *Parser) parseSelect() {
	cp := p.b.checkpoint()
	p.parseAtom()
	if p.peek() != token.DOT {
		return
	}
	p.b.startAt(cp, syntax.KindSelect)
	p.b.bump()
	p.parseAttrpath()
	if p.peek() == token.OR {
		p.b.bump()
		p.parseSelect()
	}
	p.b.finish()
}

func (p *Parser) parseAtom() {
	switch p.peek() {
	case token.IDENT, token.OR:
		p.leaf(syntax.KindIdent)
	case token.INT, token.FLOAT, token.URI:
		p.leaf(syntax.KindLiteral)
	case token.PATH:
		p.parsePath()
	case token.STRING_START:
		p.parseString(token.STRING_END)
	case token.IND_STRING_START:
		p.parseString(token.IND_STRING_END)
	case token.PAREN_L:
		p.b.start(syntax.KindParen)
		p.b.bump()
		p.parseExpr()
		p.expect(token.PAREN_R)
		p.b.finish()
	case token.BRACKET_L:
		p.parseList()
	case token.REC:
		p.b.start(syntax.KindAttrSet)
		p.b.bump()
		p.parseSetBody()
		p.b.finish()
	case token.BRACE_L:
		p.b.start(syntax.KindAttrSet)
		p.parseSetBody()
		p.b.finish()
	case token.LET:
		p.b.start(syntax.KindLegacyLet)
		p.b.bump()
		p.parseSetBody()
		p.b.finish()
	default:
		p.errorNode("expression")
	}
}

func (p *Parser) leaf(kind syntax.Kind) {
	p.b.start(kind)
	p.b.bump()
	p.b.finish()
}

func (p *Parser) parseName() {
	p.leaf(syntax.KindName)
}

func (p *Parser) parseList() {
	p.b.start(syntax.KindList)
	p.b.bump()
	for {
		switch {
		case p.peek() == token.BRACKET_R:
			p.b.bump()
			p.b.finish()
			return
		case p.startsArgument():
			p.parseSelect()
		case p.recoveryPoint():
			p.expect(token.BRACKET_R)
			p.b.finish()
			return
		default:
			p.errorNode("list element")
		}
	}
}

func (p *Parser) parsePath() {
	p.b.start(syntax.KindPath)
	p.b.bump()
	afterInterpol := false
	for p.src.Adjacent() {
		switch {
		case p.peek() == token.INTERPOL_START:
			p.parseInterpol()
			afterInterpol = true
			continue
		case p.peek() == token.PATH && afterInterpol:
			p.b.bump()
			afterInterpol = false
			continue
		}
		break
	}
	p.b.finish()
}

func (p *Parser) parseString(end token.Type) {
	p.b.start(syntax.KindString)
	p.b.bump()
	for {
		switch p.peek() {
		case token.STRING_CONTENT:
			p.b.bump()
		case token.INTERPOL_START:
			p.parseInterpol()
		case end:
			p.b.bump()
			p.b.finish()
			return
		default:
			p.error(p.src.Peek().Span, "unterminated string")
			p.b.finish()
			return
		}
	}
}

func (p *Parser) parseInterpol() {
	p.b.start(syntax.KindInterpol)
	p.b.bump()
	p.parseExpr()
	p.expect(token.INTERPOL_END)
	p.b.finish()
}

func (p *Parser) parseSetBody() {
	if !p.expect(token.BRACE_L) {
		return
	}
	p.parseBindings(token.BRACE_R)
	p.expect(token.BRACE_R)
}

// parseBindings parses bindings and inherits until end. Tokens that cannot
// start a binding are skipped up to the next semicolon.
func (p *Parser) parseBindings(end token.Type) {
	for {
		typ := p.peek()
		switch {
		case typ == end || typ == token.EOF:
			return
		case typ == token.INHERIT:
			p.parseInherit()
		case startsAttr(typ):
			p.parseBinding()
		case typ == token.BRACE_R || typ == token.IN:
			return
		default:
			p.b.start(syntax.KindError)
			p.unexpected("binding")
			p.b.bump()
			for !p.recoveryPoint() {
				p.b.bump()
			}
			if p.peek() == token.SEMICOLON {
				p.b.bump()
			}
			p.b.finish()
		}
	}
}

func (p *Parser) parseBinding() {
	p.b.start(syntax.KindBinding)
	p.parseAttrpath()
	p.expect(token.ASSIGN)
	p.parseExpr()
	p.expect(token.SEMICOLON)
	p.b.finish()
}

func (p *Parser) parseInherit() {
	p.b.start(syntax.KindInherit)
	p.b.bump()
	if p.peek() == token.PAREN_L {
		p.b.start(syntax.KindInheritFrom)
		p.b.bump()
		p.parseExpr()
		p.expect(token.PAREN_R)
		p.b.finish()
	}
	for startsAttr(p.peek()) {
		p.parseAttr()
	}
	p.expect(token.SEMICOLON)
	p.b.finish()
}

func startsAttr(typ token.Type) bool {
	switch typ {
	case token.IDENT, token.OR, token.STRING_START, token.INTERPOL_START:
		return true
	}
	return false
}

func (p *Parser) parseAttrpath() {
	p.b.start(syntax.KindAttrpath)
	p.parseAttr()
	for p.peek() == token.DOT {
		p.b.bump()
		p.parseAttr()
	}
	p.b.finish()
}

func (p *Parser) parseAttr() {
	switch p.peek() {
	case token.IDENT, token.OR:
		p.parseName()
	case token.STRING_START:
		p.parseString(token.STRING_END)
	case token.INTERPOL_START:
		p.b.start(syntax.KindDynamic)
		p.b.bump()
		p.parseExpr()
		p.expect(token.INTERPOL_END)
		p.b.finish()
	default:
		p.unexpected("attribute name")
	}
}

// recoveryPoint reports whether the next token closes an enclosing
// construct, where error recovery stops.
func (p *Parser) recoveryPoint() bool {
	switch p.peek() {
	case token.EOF, token.SEMICOLON, token.IN, token.THEN, token.ELSE,
		token.PAREN_R, token.BRACE_R, token.BRACKET_R,
		token.INTERPOL_END, token.STRING_END, token.IND_STRING_END:
		return true
	}
	return false
}

// errorNode records an error and wraps the offending token in an Error
// node. At a recovery point nothing is consumed and the node is empty.
func (p *Parser) errorNode(expected string) {
	p.b.start(syntax.KindError)
	if p.peek() != token.ERROR {
		p.unexpected(expected)
	}
	if !p.recoveryPoint() {
		p.b.bump()
	}
	p.b.finish()
}

func (p *Parser) peek() token.Type {
	return p.src.PeekType()
}

func (p *Parser) expect(typ token.Type) bool {
	if p.peek() == typ {
		p.b.bump()
		return true
	}
	p.unexpected(fmt.Sprintf("%q", typ.String()))
	return false
}

func (p *Parser) unexpected(expected string) {
	tok := p.src.Peek()
	p.error(tok.Span, fmt.Sprintf("expected %s, found %s", expected, describe(tok)))
}

// error records a syntax error. Only the first error at an offset is kept.
func (p *Parser) error(span token.Span, msg string) {
	if p.seen[span.Start] {
		return
	}
	p.seen[span.Start] = true
	p.errs = append(p.errs, &syntax.Error{Span: span, Message: msg})
}

func describe(tok *token.Token) string {
	switch tok.Type {
	case token.EOF:
		return tok.Type.String()
	case token.IDENT, token.INT, token.FLOAT, token.PATH, token.URI, token.ERROR:
		return fmt.Sprintf("%s %q", tok.Type, tok.Text)
	}
	return fmt.Sprintf("%q", tok.Text)
}
