// Package loader builds a workspace from a JSON description. Blocks are
// created, filled in and connected through the workspace API one at a
// time, so listeners see the same events interactive editing produces.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/xplshn/blocksol/pkg/block"
	"github.com/xplshn/blocksol/pkg/config"
	"github.com/xplshn/blocksol/pkg/scope"
	"github.com/xplshn/blocksol/pkg/symbols"
)

var ErrUnknownInput = errors.New("unknown input")

// Document is a saved workspace.
type Document struct {
	// Flags are -W/-F generator flags the workspace wants, e.g. "Fone-based-index".
	Flags     []string   `json:"flags,omitempty"`
	Variables []Variable `json:"variables,omitempty"`
	Blocks    []*Block   `json:"blocks"`
}

// Variable is a local variable created from the toolbox rather than by a
// declaration block.
type Variable struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

type Block struct {
	Type     string            `json:"type"`
	ID       string            `json:"id,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Comment  string            `json:"comment,omitempty"`
	Disabled bool              `json:"disabled,omitempty"`
	Inputs   map[string]*Block `json:"inputs,omitempty"`
	Next     *Block            `json:"next,omitempty"`
}

// Parse decodes a document. Unknown keys are rejected.
func Parse(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding workspace: %w", err)
	}
	return &doc, nil
}

func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Configure applies the document's flags to cfg. They are applied after
// the command line, so they win over it.
func (d *Document) Configure(cfg *config.Config) error {
	if err := cfg.ProcessFlagString(strings.Join(d.Flags, " ")); err != nil {
		return fmt.Errorf("workspace flags: %w", err)
	}
	return nil
}

// Build adds the document's variables and blocks to ws, in document order.
func (d *Document) Build(ws *block.Workspace) error {
	for _, v := range d.Variables {
		typ := symbols.TypeBool
		if v.Type != "" {
			t, ok := symbols.ParseTag(v.Type)
			if !ok {
				return fmt.Errorf("variable %s: unknown type '%s'", v.ID, v.Type)
			}
			typ = t
		}
		ws.CreateVariable(v.ID, scope.VarPrefix(nil), v.Name, typ)
	}
	for _, top := range d.Blocks {
		if _, err := buildChain(ws, top); err != nil {
			return err
		}
	}
	return nil
}

// buildChain builds desc and everything chained after it, returning the
// head of the chain.
func buildChain(ws *block.Workspace, desc *Block) (*block.Block, error) {
	head, err := build(ws, desc)
	if err != nil {
		return nil, err
	}
	prev := head
	for next := desc.Next; next != nil; next = next.Next {
		b, err := build(ws, next)
		if err != nil {
			return nil, err
		}
		if err := ws.ConnectNext(prev, b); err != nil {
			return nil, err
		}
		prev = b
	}
	return head, nil
}

// build creates a single block with its fields and inputs. Fields are
// set in the order the block type declares them.
func build(ws *block.Workspace, desc *Block) (*block.Block, error) {
	t, ok := block.ParseType(desc.Type)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", block.ErrUnknownType, desc.Type)
	}
	b, err := ws.NewBlock(t, desc.ID)
	if err != nil {
		return nil, err
	}

	for _, name := range sortedKeys(desc.Fields) {
		if b.Field(name) == nil {
			return nil, fmt.Errorf("%w: %s.%s", block.ErrNoField, b, name)
		}
	}
	for _, f := range b.Fields {
		if v, ok := desc.Fields[f.Name]; ok {
			if err := ws.SetFieldValue(b, f.Name, v); err != nil {
				return nil, err
			}
		}
	}
	if desc.Comment != "" {
		if err := ws.SetComment(b, desc.Comment); err != nil {
			return nil, err
		}
	}

	for _, name := range sortedKeys(desc.Inputs) {
		if b.Input(name) == nil {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownInput, b, name)
		}
	}
	for _, in := range b.Inputs {
		child, ok := desc.Inputs[in.Name]
		if !ok || child == nil {
			continue
		}
		if err := connect(ws, b, in, child); err != nil {
			return nil, err
		}
	}

	if desc.Disabled {
		if err := ws.SetDisabled(b, true); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func connect(ws *block.Workspace, parent *block.Block, in *block.Input, desc *Block) error {
	if in.Kind == block.InputStatement {
		head, err := buildChain(ws, desc)
		if err != nil {
			return err
		}
		return ws.ConnectStatement(parent, in.Name, head)
	}
	if desc.Next != nil {
		return fmt.Errorf("%s.%s: value blocks cannot have a next block", parent, in.Name)
	}
	child, err := build(ws, desc)
	if err != nil {
		return err
	}
	return ws.ConnectValue(parent, in.Name, child)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
