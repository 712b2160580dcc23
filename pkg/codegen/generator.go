// Package codegen turns the blocks of a workspace into contract source.
//
// A Generator holds the emitter table and the configuration; every call to
// Generate opens a fresh Session carrying the per-run state (helper pool
// and naming scratch database), so runs never share mutable state.
package codegen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xplshn/blocksol/pkg/block"
	"github.com/xplshn/blocksol/pkg/config"
	"github.com/xplshn/blocksol/pkg/order"
	"github.com/xplshn/blocksol/pkg/symbols"
)

var (
	ErrNoEmitter       = errors.New("no emitter registered")
	ErrWrongKind       = errors.New("emitter kind does not match block shape")
	ErrUnknownOperator = errors.New("unknown operator")
)

// Error is a configuration error: a block type without an emitter, or a
// field tag an emitter does not recognize. It aborts the whole run.
type Error struct {
	Type   block.Type
	Block  string // ID of the offending block, empty at construction time
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	fmt.Fprintf(&sb, " for '%s'", e.Type)
	if e.Block != "" {
		fmt.Fprintf(&sb, " (block %s)", e.Block)
	}
	if e.Detail != "" {
		sb.WriteString(": " + e.Detail)
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// fail aborts the current run. Only Generate recovers it.
func fail(b *block.Block, err error, format string, args ...interface{}) {
	panic(&Error{Type: b.Type, Block: b.ID, Detail: fmt.Sprintf(format, args...), Err: err})
}

type (
	ValueFunc     func(s *Session, b *block.Block) (string, order.Order)
	StatementFunc func(s *Session, b *block.Block) string
)

// Emitter renders one block type. Value blocks set Value, everything else
// sets Statement.
type Emitter struct {
	Value     ValueFunc
	Statement StatementFunc
}

type Table map[block.Type]Emitter

// Builtins returns the emitters of every block type this package knows.
func Builtins() Table {
	t := make(Table, block.TypeCount)
	for typ, e := range contractEmitters {
		t[typ] = e
	}
	for typ, e := range mathEmitters {
		t[typ] = e
	}
	for typ, e := range variableEmitters {
		t[typ] = e
	}
	return t
}

type Generator struct {
	cfg   *config.Config
	table Table
}

// New checks that table covers every block type with an emitter of the
// right kind.
func New(cfg *config.Config, table Table) (*Generator, error) {
	for t := block.Type(0); t < block.TypeCount; t++ {
		e, ok := table[t]
		if !ok || (e.Value == nil && e.Statement == nil) {
			return nil, &Error{Type: t, Err: ErrNoEmitter}
		}
		if block.Definitions[t].HasOutput != (e.Value != nil) {
			return nil, &Error{Type: t, Err: ErrWrongKind}
		}
	}
	return &Generator{cfg: cfg, table: table}, nil
}

// Session is the state of a single generation run.
type Session struct {
	cfg   *config.Config
	table Table
	ws    *block.Workspace
	names *symbols.Names
	pool  *helperPool
}

func (g *Generator) newSession(ws *block.Workspace) *Session {
	return &Session{
		cfg:   g.cfg,
		table: g.table,
		ws:    ws,
		names: symbols.NewNames(g.cfg.ReservedWords),
		pool:  newHelperPool(),
	}
}

func (s *Session) Config() *config.Config      { return s.cfg }
func (s *Session) Workspace() *block.Workspace { return s.ws }
func (s *Session) Names() *symbols.Names       { return s.names }

// Generate renders every top block of ws and returns the source text.
func (g *Generator) Generate(ws *block.Workspace) (code string, err error) {
	s := g.newSession(ws)
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*Error)
			if !ok {
				panic(r)
			}
			code, err = "", e
		}
	}()

	var parts []string
	for _, b := range ws.TopBlocks() {
		line, _, isValue := s.blockToCode(b)
		if line == "" {
			continue
		}
		if isValue {
			s.warn(config.WarnNakedValue, b, "value block is not connected to anything")
			line += ";\n"
		}
		parts = append(parts, line)
	}
	return s.finish(strings.Join(parts, "\n")), nil
}

// finish puts the helper definitions in front of the body and cleans up
// surrounding whitespace.
func (s *Session) finish(body string) string {
	code := strings.Join(s.pool.definitions(), "\n\n") + "\n\n\n" + body
	return tidy(code)
}

func tidy(code string) string {
	lines := strings.Split(code, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	// A single trailing newline survives, blank lines before it do not.
	for len(lines) > 1 && lines[len(lines)-1] == "" && lines[len(lines)-2] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
