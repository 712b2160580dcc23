// Package symbols stores the names declared by a block tree, keyed by the
// identity of the declaring block and namespaced by scope prefix.
package symbols

import (
	"strconv"
	"strings"
)

type Type int

const (
	TypeBool Type = iota
	TypeInt
	TypeUint
)

// Tags are the values carried by a declaration block's TYPE field.
var tags = map[Type]string{
	TypeBool: "TYPE_BOOL",
	TypeInt:  "TYPE_INT",
	TypeUint: "TYPE_UINT",
}

var keywords = map[Type]string{
	TypeBool: "bool",
	TypeInt:  "int",
	TypeUint: "uint",
}

var zeroValues = map[Type]string{
	TypeBool: "false",
	TypeInt:  "0",
	TypeUint: "0",
}

func (t Type) Tag() string     { return tags[t] }
func (t Type) String() string  { return keywords[t] }
func (t Type) Keyword() string { return keywords[t] }

// Zero is the literal used for a declaration with no initializer.
func (t Type) Zero() string { return zeroValues[t] }

// Check is the connection check a value of this type satisfies.
func (t Type) Check() string {
	if t == TypeBool {
		return "Boolean"
	}
	return "Number"
}

// ParseTag maps a TYPE field value back to a Type.
func ParseTag(tag string) (Type, bool) {
	for t, s := range tags {
		if s == tag {
			return t, true
		}
	}
	return TypeBool, false
}

// Symbol is a declared name. ID is the identity of the declaring block.
type Symbol struct {
	ID     string
	Prefix string
	Name   string // always Prefix + display name
	Type   Type
}

func (s *Symbol) DisplayName() string { return strings.TrimPrefix(s.Name, s.Prefix) }

// Table keeps symbols in creation order and indexes them by identity and
// by stored name.
type Table struct {
	syms   []*Symbol
	byID   map[string]*Symbol
	byName map[string]*Symbol
}

func NewTable() *Table {
	return &Table{
		byID:   make(map[string]*Symbol),
		byName: make(map[string]*Symbol),
	}
}

func (t *Table) Len() int { return len(t.syms) }

// All returns the symbols in creation order.
func (t *Table) All() []*Symbol {
	out := make([]*Symbol, len(t.syms))
	copy(out, t.syms)
	return out
}

func (t *Table) ByID(id string) *Symbol     { return t.byID[id] }
func (t *Table) ByName(name string) *Symbol { return t.byName[name] }

// Lookup finds the symbol stored as prefix+name.
func (t *Table) Lookup(prefix, name string) *Symbol { return t.byName[prefix+name] }

// Visible returns the symbols declared under prefix, in creation order.
func (t *Table) Visible(prefix string) []*Symbol {
	var out []*Symbol
	for _, s := range t.syms {
		if s.Prefix == prefix {
			out = append(out, s)
		}
	}
	return out
}

// Create registers a new symbol. An existing symbol with the same identity
// is renamed and retyped instead, so there is never more than one symbol
// per declaring block.
func (t *Table) Create(id, prefix, name string, typ Type) *Symbol {
	if s := t.byID[id]; s != nil {
		t.Rename(s, prefix, name)
		s.Type = typ
		return s
	}
	s := &Symbol{ID: id, Prefix: prefix, Name: prefix + name, Type: typ}
	t.syms = append(t.syms, s)
	t.byID[id] = s
	t.byName[s.Name] = s
	return s
}

func (t *Table) Rename(s *Symbol, prefix, name string) {
	if t.byName[s.Name] == s {
		delete(t.byName, s.Name)
	}
	s.Prefix, s.Name = prefix, prefix+name
	t.byName[s.Name] = s
}

func (t *Table) SetType(id string, typ Type) bool {
	s := t.byID[id]
	if s == nil {
		return false
	}
	s.Type = typ
	return true
}

func (t *Table) Delete(id string) bool {
	s := t.byID[id]
	if s == nil {
		return false
	}
	delete(t.byID, id)
	if t.byName[s.Name] == s {
		delete(t.byName, s.Name)
	}
	for i, sym := range t.syms {
		if sym == s {
			t.syms = append(t.syms[:i], t.syms[i+1:]...)
			break
		}
	}
	return true
}

// Resolve picks the name a declaration owned by owner receives under
// prefix: requested itself when free, otherwise requested1, requested2, ...
// The owner's own symbol never counts as a collision.
func (t *Table) Resolve(prefix, requested, owner string) string {
	if t.free(prefix+requested, owner) {
		return requested
	}
	for n := 1; ; n++ {
		candidate := requested + strconv.Itoa(n)
		if t.free(prefix+candidate, owner) {
			return candidate
		}
	}
}

func (t *Table) free(stored, owner string) bool {
	s := t.byName[stored]
	return s == nil || s.ID == owner
}
