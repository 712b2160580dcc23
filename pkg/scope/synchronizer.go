// Package scope keeps the symbol table of a workspace consistent with its
// blocks while they are edited: declarations own symbols, selectors list
// the symbols visible to them, and setters accept only values of the
// selected symbol's type.
package scope

import (
	"github.com/xplshn/blocksol/pkg/block"
	"github.com/xplshn/blocksol/pkg/config"
	"github.com/xplshn/blocksol/pkg/symbols"
)

type Synchronizer struct {
	ws  *block.Workspace
	cfg *config.Config

	// warned remembers the stale selection already reported per block.
	warned map[string]string
}

// New attaches a synchronizer to ws. Blocks already present get their
// validators and are brought up to date immediately.
func New(ws *block.Workspace, cfg *config.Config) *Synchronizer {
	s := &Synchronizer{ws: ws, cfg: cfg, warned: make(map[string]string)}
	for _, b := range ws.AllBlocks() {
		s.install(b)
	}
	ws.AddChangeListener(s.OnEvent)
	s.refreshAll()
	return s
}

// install hooks the field validators of b.
func (s *Synchronizer) install(b *block.Block) {
	if _, ok := declaring(b.Type); ok {
		if f := b.Field("NAME"); f != nil {
			f.Validator = func(name string) string { return s.DeclareVariable(b, name, false) }
		}
	}
	if b.Type == block.ContractStateSet {
		// The selection is stored only after the validator returns, so the
		// type refresh has to wait for the commit.
		b.Field("STATE_NAME").Validator = func(id string) string {
			s.ws.Defer(func() { s.refreshTypes(KindState) })
			return id
		}
	}
}

func declaredType(b *block.Block) symbols.Type {
	t, ok := symbols.ParseTag(b.FieldValue("TYPE"))
	if !ok {
		return symbols.TypeBool
	}
	return t
}

// DeclareVariable resolves the name requested for the declaration block b
// and returns the name it gets. The first call creates b's symbol. Later
// calls without force keep a parented block's symbol untouched when the
// name does not change. With force the final name is also written back
// into b's NAME field.
func (s *Synchronizer) DeclareVariable(b *block.Block, requested string, force bool) string {
	k, ok := declaring(b.Type)
	if !ok {
		return requested
	}
	tab := s.ws.Symbols()
	sym := tab.ByID(b.ID)
	if requested == "" {
		if sym != nil {
			return sym.DisplayName()
		}
		return b.FieldValue("NAME")
	}
	if sym != nil && !force && b.Parent() != nil && requested == sym.DisplayName() {
		return requested
	}

	prefix := k.Prefix(b)
	name := tab.Resolve(prefix, requested, b.ID)
	if sym == nil {
		tab.Create(b.ID, prefix, name, declaredType(b))
	} else {
		tab.Rename(sym, prefix, name)
	}
	if force {
		b.Field("NAME").SetText(name)
	}

	s.refreshNames(k)
	s.refreshTypes(k)
	return name
}

// OnEvent brings selectors and checks up to date after a mutation, then
// applies the mutation's own consequences to the symbol table.
func (s *Synchronizer) OnEvent(ev block.Event) {
	if ev.Kind == block.EventCreate {
		if b := s.ws.Block(ev.BlockID); b != nil {
			s.install(b)
		}
	}
	s.refreshAll()

	switch ev.Kind {
	case block.EventMove:
		if b := s.ws.Block(ev.BlockID); b != nil && ev.NewParentID != "" {
			s.redeclareMoved(b)
		}
	case block.EventChange:
		if ev.Element == block.ElementField && ev.Name == "TYPE" {
			s.retype(s.ws.Block(ev.BlockID))
		}
	case block.EventDelete:
		if s.cfg.IsFeatureEnabled(config.FeatDeleteSymbols) {
			removed := false
			for _, id := range ev.IDs {
				removed = s.ws.Symbols().Delete(id) || removed
				delete(s.warned, id)
			}
			if removed {
				s.refreshAll()
			}
		}
	}
}

func (s *Synchronizer) refreshAll() {
	for k := Kind(0); k < KindCount; k++ {
		s.refreshNames(k)
		s.refreshTypes(k)
	}
	s.refreshMethodCalls()
}

// redeclareMoved gives declarations arriving in a new scope a name that is
// free there. The chain below the moved block moves with it.
func (s *Synchronizer) redeclareMoved(moved *block.Block) {
	for _, b := range moved.Descendants(false) {
		k, ok := declaring(b.Type)
		if !ok {
			continue
		}
		sym := s.ws.Symbols().ByID(b.ID)
		rescoped := sym != nil && s.cfg.IsFeatureEnabled(config.FeatForceRedeclare) && sym.Prefix != k.Prefix(b)
		if sym == nil || rescoped {
			s.DeclareVariable(b, b.FieldValue("NAME"), true)
		}
	}
}

func (s *Synchronizer) retype(b *block.Block) {
	if b == nil {
		return
	}
	k, ok := declaring(b.Type)
	if !ok {
		return
	}
	if s.ws.Symbols().SetType(b.ID, declaredType(b)) {
		s.refreshTypes(k)
	}
}
