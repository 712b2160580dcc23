package codegen

import (
	"strings"

	"github.com/xplshn/blocksol/pkg/block"
	"github.com/xplshn/blocksol/pkg/config"
	"github.com/xplshn/blocksol/pkg/order"
	"github.com/xplshn/blocksol/pkg/scope"
	"github.com/xplshn/blocksol/pkg/symbols"
)

var contractEmitters = map[block.Type]Emitter{
	block.Contract:                   {Statement: emitContract},
	block.ContractState:              {Statement: emitState},
	block.ContractStateGet:           {Value: emitStateGet},
	block.ContractStateSet:           {Statement: emitStateSet},
	block.ContractMethod:             {Statement: emitMethod},
	block.ContractCtor:               {Statement: emitCtor},
	block.ContractMethodParameter:    {Statement: emitParameter},
	block.ContractMethodParameterGet: {Value: emitParameterGet},
	block.ContractMethodCall:         {Statement: emitMethodCall},
	block.ContractIntrinsicSha3:      {Value: emitSha3},
}

// fieldType reads a TYPE dropdown. An unknown tag is a configuration error.
func fieldType(b *block.Block) symbols.Type {
	tag := b.FieldValue("TYPE")
	t, ok := symbols.ParseTag(tag)
	if !ok {
		fail(b, ErrUnknownOperator, "type tag '%s'", tag)
	}
	return t
}

// Symbol returns the symbol a selector field points at, warning when it
// does not exist.
func (s *Session) Symbol(b *block.Block, field string) *symbols.Symbol {
	id := b.FieldValue(field)
	sym := s.ws.Symbols().ByID(id)
	if sym == nil {
		s.warn(config.WarnUnresolvedSymbol, b, "%s does not name a declared symbol", field)
	}
	return sym
}

func emitContract(s *Session, b *block.Block) string {
	seen := make(map[string]bool)
	for m := b.InputTarget("METHODS"); m != nil; m = m.NextBlock() {
		if m.Type != block.ContractMethod || m.Disabled {
			continue
		}
		name := m.FieldValue("NAME")
		if seen[name] {
			s.warn(config.WarnExtra, m, "method '%s' is declared more than once", name)
		}
		seen[name] = true
	}

	var sb strings.Builder
	sb.WriteString("pragma solidity " + s.cfg.PragmaVersion + ";\n\n")
	sb.WriteString("contract " + b.FieldValue("NAME") + " {\n")
	sb.WriteString(s.StatementToCode(b, "STATES"))
	sb.WriteString(s.cfg.Indent + "function () { throw; }\n")
	sb.WriteString(s.StatementToCode(b, "CTOR"))
	sb.WriteString(s.StatementToCode(b, "METHODS"))
	sb.WriteString("}\n")
	return sb.String()
}

func emitState(s *Session, b *block.Block) string {
	t := fieldType(b)
	if b.InputTarget("VALUE") == nil {
		s.warn(config.WarnPedantic, b, "state '%s' has no initializer, using %s", b.FieldValue("NAME"), t.Zero())
	}
	value := s.ValueOr(b, "VALUE", order.Assignment, t.Zero())
	return t.Keyword() + " " + b.FieldValue("NAME") + " = " + value + ";\n"
}

func emitStateGet(s *Session, b *block.Block) (string, order.Order) {
	sym := s.Symbol(b, "STATE_NAME")
	if sym == nil {
		return "", order.Atomic
	}
	return "this." + sym.DisplayName(), order.Atomic
}

func emitStateSet(s *Session, b *block.Block) string {
	value := s.ValueOr(b, "STATE_VALUE", order.Assignment, "0")
	sym := s.Symbol(b, "STATE_NAME")
	if sym == nil {
		return ""
	}
	return "this." + sym.DisplayName() + " = " + value + ";\n"
}

func callable(s *Session, name string, b *block.Block) string {
	params := strings.TrimSpace(s.StatementToCode(b, "PARAMS"))
	body := s.StatementToCode(b, "STACK")
	return "function " + name + "(" + params + ") {\n" + body + "}\n"
}

func emitMethod(s *Session, b *block.Block) string {
	return callable(s, b.FieldValue("NAME"), b)
}

// emitCtor names the constructor after the contract around it. A
// constructor outside a contract renders nothing.
func emitCtor(s *Session, b *block.Block) string {
	parent := b.SurroundParent()
	if parent == nil {
		s.warn(config.WarnDetachedCtor, b, "constructor is not inside a contract")
		return ""
	}
	return callable(s, parent.FieldValue("NAME"), b)
}

func emitParameter(s *Session, b *block.Block) string {
	sep := ""
	if next := b.NextBlock(); next != nil && next.Type == b.Type {
		sep = ", "
	}
	return fieldType(b).Keyword() + " " + b.FieldValue("NAME") + sep
}

// emitParameterGet only reads parameters of the method it sits in.
func emitParameterGet(s *Session, b *block.Block) (string, order.Order) {
	sym := s.Symbol(b, "PARAM_NAME")
	if sym == nil {
		return "", order.Atomic
	}
	if sym.Prefix != scope.ParamPrefix(b) {
		s.warn(config.WarnUnresolvedSymbol, b, "parameter '%s' is not in scope", sym.DisplayName())
		return "", order.Atomic
	}
	return sym.DisplayName(), order.Atomic
}

// emitMethodCall calls the method block selected by ID.
func emitMethodCall(s *Session, b *block.Block) string {
	id := b.FieldValue("METHOD_NAME")
	m := s.ws.Block(id)
	if m == nil || m.Type != block.ContractMethod {
		s.warn(config.WarnUnresolvedSymbol, b, "METHOD_NAME does not name a method")
		return ""
	}
	return "this." + m.FieldValue("NAME") + "();\n"
}

func emitSha3(s *Session, b *block.Block) (string, order.Order) {
	return "sha3(" + s.ValueOr(b, "VALUE", order.Assignment, "0") + ")", order.Atomic
}
