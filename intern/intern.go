// Copyright © 2024 The nxt authors

// Package intern maps identifier text to small integer symbols so that name
// equality during analysis is an integer comparison.
//
// An Interner belongs to a single analysis pass. It is not safe for
// concurrent writers; lint analyzers only read from it.
package intern

import (
	"fmt"
	"slices"
	"sync/atomic"

	"fortio.org/safecast"
)

// Symbol is the interned form of an identifier. The high 32 bits hold the
// session of the Interner that issued it and the low 32 bits its index in
// that Interner, so symbols from different sessions never compare equal.
type Symbol uint64

// NoSymbol is the zero Symbol. It is never issued by Intern.
const NoSymbol Symbol = 0

func makeSymbol(session, index uint32) Symbol {
	return Symbol(uint64(session)<<32 | uint64(index))
}

// Session returns the session of the Interner that issued s.
func (s Symbol) Session() uint32 {
	return uint32(s >> 32)
}

// Index returns the position of s within its Interner.
func (s Symbol) Index() uint32 {
	return uint32(s)
}

var sessionCounter atomic.Uint32

// Interner is a grow-only table of identifier text.
type Interner struct {
	session uint32
	names   []string // names[0] is reserved for NoSymbol
	index   map[string]Symbol
}

// New returns an empty Interner with a process-wide unique session.
func New() *Interner {
	return &Interner{
		session: sessionCounter.Add(1),
		names:   []string{""},
		index:   make(map[string]Symbol),
	}
}

// Session returns the session tag carried by every Symbol it issues.
func (in *Interner) Session() uint32 {
	return in.session
}

// Intern returns the Symbol for text, issuing a new one the first time text
// is seen. Intern never fails.
func (in *Interner) Intern(text string) Symbol {
	if sym, ok := in.index[text]; ok {
		return sym
	}
	sym := makeSymbol(in.session, safecast.MustConv[uint32](len(in.names)))
	// Copy so the table does not pin the caller's source buffer.
	text = string([]byte(text))
	in.names = append(in.names, text)
	in.index[text] = sym
	return sym
}

// Find returns the Symbol already issued for text without interning it.
func (in *Interner) Find(text string) (Symbol, bool) {
	sym, ok := in.index[text]
	return sym, ok
}

// Has reports whether sym was issued by in. Symbols of other sessions are
// never reported as present.
func (in *Interner) Has(sym Symbol) bool {
	return sym.Session() == in.session && sym.Index() != 0 && int(sym.Index()) < len(in.names)
}

// Lookup returns the text of sym.
func (in *Interner) Lookup(sym Symbol) (string, bool) {
	if !in.Has(sym) {
		return "", false
	}
	return in.names[sym.Index()], true
}

// MustLookup returns the text of sym. It panics with *UnknownSymbolError when
// sym was never issued by in, including symbols of another session.
func (in *Interner) MustLookup(sym Symbol) string {
	text, ok := in.Lookup(sym)
	if !ok {
		panic(&UnknownSymbolError{Symbol: sym, Session: in.session, Len: in.Len()})
	}
	return text
}

// Len returns the number of issued symbols.
func (in *Interner) Len() int {
	return len(in.names) - 1
}

// Snapshot returns a copy of every issued name, indexed by Symbol-1.
func (in *Interner) Snapshot() []string {
	return slices.Clone(in.names[1:])
}

// UnknownSymbolError reports a lookup of a Symbol the Interner never issued.
type UnknownSymbolError struct {
	Symbol  Symbol
	Session uint32 // session of the Interner that was asked
	Len     int
}

func (err *UnknownSymbolError) Error() string {
	if err.Symbol.Session() != err.Session {
		return fmt.Sprintf("intern: symbol %d belongs to session %d, not session %d",
			err.Symbol.Index(), err.Symbol.Session(), err.Session)
	}
	return fmt.Sprintf("intern: unknown symbol %d (table holds %d symbols)", err.Symbol.Index(), err.Len)
}
