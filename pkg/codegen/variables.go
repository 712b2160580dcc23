package codegen

import (
	"github.com/xplshn/blocksol/pkg/block"
	"github.com/xplshn/blocksol/pkg/order"
	"github.com/xplshn/blocksol/pkg/symbols"
)

var variableEmitters = map[block.Type]Emitter{
	block.VariablesGet: {Value: emitVariableGet},
	block.VariablesSet: {Statement: emitVariableSet},
}

// localName maps the local variable selected in b's VAR field to a legal
// identifier of this run.
func (s *Session) localName(b *block.Block) (string, bool) {
	sym := s.Symbol(b, "VAR")
	if sym == nil {
		return "", false
	}
	return s.names.Name(sym.DisplayName(), symbols.NameVariable), true
}

func emitVariableGet(s *Session, b *block.Block) (string, order.Order) {
	name, ok := s.localName(b)
	if !ok {
		return "", order.Atomic
	}
	return name, order.Atomic
}

func emitVariableSet(s *Session, b *block.Block) string {
	value := s.ValueOr(b, "VALUE", order.Assignment, "0")
	name, ok := s.localName(b)
	if !ok {
		return ""
	}
	return name + " = " + value + ";\n"
}
