package scope

import (
	"github.com/xplshn/blocksol/pkg/block"
	"github.com/xplshn/blocksol/pkg/config"
	"github.com/xplshn/blocksol/pkg/util"
)

// reconcile installs opts as the menu of a selector field. A selector that
// never picked anything takes the first option; otherwise the selection is
// kept by value and its current text is shown. A selection that no longer
// exists keeps its value and shows nothing.
func (s *Synchronizer) reconcile(b *block.Block, field string, opts []block.Option) {
	f := b.Field(field)
	if f == nil || len(opts) == 0 {
		return
	}
	f.SetOptions(opts)
	if f.Value() == block.Undefined {
		// Fails only for a foreign block or a missing field; neither applies to b.
		_ = s.ws.SetFieldValue(b, field, opts[0].Value)
		return
	}
	text := ""
	for _, o := range opts {
		if o.Value == f.Value() {
			text = o.Text
			break
		}
	}
	f.SetText(text)
}

// refreshNames rebuilds the menus of every selector of kind k from the
// symbols visible to it.
func (s *Synchronizer) refreshNames(k Kind) {
	info := kinds[k]
	tab := s.ws.Symbols()
	for _, b := range s.ws.AllBlocks() {
		if b.Field(info.field) == nil {
			continue
		}
		var opts []block.Option
		for _, sym := range tab.Visible(k.Prefix(b)) {
			opts = append(opts, block.Option{Text: sym.DisplayName(), Value: sym.ID})
		}
		s.reconcile(b, info.field, opts)
	}
}

// refreshTypes constrains setters' value inputs, and getters' outputs, to
// the type of the symbol they select, and declarations' initializers to
// the declared type. Local variables are left unconstrained.
func (s *Synchronizer) refreshTypes(k Kind) {
	info := kinds[k]
	outputs := s.cfg.IsFeatureEnabled(config.FeatOutputTypes)
	s.ws.Batch(func() {
		for _, b := range s.ws.AllBlocks() {
			s.constrain(b, k, info, outputs)
		}
	})
}

func (s *Synchronizer) constrain(b *block.Block, k Kind, info kindInfo, outputs bool) {
	if b.Type == info.decl {
		// The initializer of a declaration takes the declared type.
		check := []string{declaredType(b).Check()}
		if in := b.Input("VALUE"); in != nil && !sameCheck(in.Check, check) {
			s.ws.SetInputCheck(b, "VALUE", check)
		}
		return
	}
	f := b.Field(info.field)
	if f == nil || f.Value() == block.Undefined {
		return
	}
	sym := s.ws.Symbols().ByID(f.Value())
	if sym == nil {
		if s.warned[b.ID] != f.Value() {
			s.warned[b.ID] = f.Value()
			util.Warn(s.cfg, config.WarnUnresolvedSymbol, b, "selected %s '%s' no longer exists", k, f.Value())
		}
		return
	}
	delete(s.warned, b.ID)
	if !info.typed {
		return
	}

	check := []string{sym.Type.Check()}
	if in := b.Input(info.value); in != nil && in.Kind == block.InputValue && !sameCheck(in.Check, check) {
		s.ws.SetInputCheck(b, info.value, check)
	}
	if outputs && b.HasOutput && !sameCheck(b.OutputCheck, check) {
		s.ws.SetOutputCheck(b, check)
	}
}

// refreshMethodCalls lists the methods of the surrounding contract in
// every method call selector.
func (s *Synchronizer) refreshMethodCalls() {
	for _, b := range s.ws.AllBlocks() {
		if b.Type != block.ContractMethodCall {
			continue
		}
		var opts []block.Option
		root := b.Root()
		if root.Type == block.Contract {
			for m := root.InputTarget("METHODS"); m != nil; m = m.NextBlock() {
				if m.Type == block.ContractMethod {
					opts = append(opts, block.Option{Text: m.FieldValue("NAME"), Value: m.ID})
				}
			}
		}
		s.reconcile(b, "METHOD_NAME", opts)
	}
}

func sameCheck(a, b []string) bool {
	if len(a) != len(b) || (a == nil) != (b == nil) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
