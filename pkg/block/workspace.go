package block

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/xplshn/blocksol/pkg/symbols"
)

var (
	ErrUnknownType  = errors.New("unknown block type")
	ErrUnknownBlock = errors.New("block not in workspace")
	ErrDuplicateID  = errors.New("duplicate block id")
	ErrNoInput      = errors.New("no such input")
	ErrNoField      = errors.New("no such field")
	ErrIncompatible = errors.New("incompatible connection")
	ErrCycle        = errors.New("connection would create a cycle")
)

// Workspace owns a block tree and its symbol table. It is the single
// writer of the topology: every mutation goes through it and is announced
// to the change listeners once the mutation is committed.
//
// Listeners run one event at a time. Mutations made by a listener are
// queued behind the event being dispatched, never delivered re-entrantly.
// Tasks scheduled with Defer run after the queued events of the current
// mutation have been dispatched and before the mutating call returns.
type Workspace struct {
	blocks    map[string]*Block
	top       []*Block
	symbols   *symbols.Table
	listeners []func(Event)
	events    []Event
	deferred  []func()
	recheck   []*Block
	depth     int
	firing    bool
	nextID    int
}

func NewWorkspace() *Workspace {
	return &Workspace{
		blocks:  make(map[string]*Block),
		symbols: symbols.NewTable(),
	}
}

func (w *Workspace) Symbols() *symbols.Table { return w.symbols }

func (w *Workspace) AddChangeListener(fn func(Event)) { w.listeners = append(w.listeners, fn) }

func (w *Workspace) Block(id string) *Block { return w.blocks[id] }

func (w *Workspace) Len() int { return len(w.blocks) }

// TopBlocks returns the unattached blocks in workspace order.
func (w *Workspace) TopBlocks() []*Block {
	out := make([]*Block, len(w.top))
	copy(out, w.top)
	return out
}

// AllBlocks returns every block, top blocks first, each followed by its
// descendants depth first.
func (w *Workspace) AllBlocks() []*Block {
	var out []*Block
	for _, b := range w.top {
		out = append(out, b.Descendants(false)...)
	}
	return out
}

// Defer schedules fn to run once the current mutation has been committed
// and announced. Outside a mutation it runs immediately.
func (w *Workspace) Defer(fn func()) {
	w.begin()
	defer w.end()
	w.deferred = append(w.deferred, fn)
}

func (w *Workspace) begin() { w.depth++ }

func (w *Workspace) end() {
	w.depth--
	if w.depth == 0 {
		w.verifyChecks()
		w.flush()
	}
}

// Batch runs fn as a single mutation. Check changes made inside it are
// verified together once fn returns.
func (w *Workspace) Batch(fn func()) {
	w.begin()
	defer w.end()
	fn()
}

func (w *Workspace) fire(ev Event) { w.events = append(w.events, ev) }

func (w *Workspace) flush() {
	if w.firing {
		return
	}
	w.firing = true
	defer func() { w.firing = false }()

	for len(w.events) > 0 || len(w.deferred) > 0 {
		for len(w.events) > 0 {
			ev := w.events[0]
			w.events = w.events[1:]
			for _, l := range w.listeners {
				l(ev)
			}
		}
		if len(w.deferred) > 0 {
			fn := w.deferred[0]
			w.deferred = w.deferred[1:]
			fn()
		}
	}
}

func (w *Workspace) genID() string {
	for {
		w.nextID++
		id := "b" + strconv.Itoa(w.nextID)
		if _, taken := w.blocks[id]; !taken {
			return id
		}
	}
}

func (w *Workspace) owns(b *Block) error {
	if b == nil {
		return ErrUnknownBlock
	}
	if w.blocks[b.ID] != b {
		return fmt.Errorf("%w: %s", ErrUnknownBlock, b)
	}
	return nil
}

// NewBlock creates a detached block of type t. An empty id gets a
// generated one.
func (w *Workspace) NewBlock(t Type, id string) (*Block, error) {
	if t < 0 || t >= TypeCount {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	if id == "" {
		id = w.genID()
	}
	if _, taken := w.blocks[id]; taken {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	w.begin()
	defer w.end()
	b := instantiate(t, id)
	w.blocks[id] = b
	w.top = append(w.top, b)
	w.fire(Event{Kind: EventCreate, BlockID: id})
	return b, nil
}

func (w *Workspace) removeTop(b *Block) {
	for i, t := range w.top {
		if t == b {
			w.top = append(w.top[:i], w.top[i+1:]...)
			return
		}
	}
}

// detach cuts b (and the chain after it) loose from its parent.
func (w *Workspace) detach(b *Block) string {
	p := b.parent
	if p == nil {
		return ""
	}
	if b.inInput != nil {
		b.inInput.target = nil
	} else {
		p.next = nil
	}
	b.parent, b.inInput = nil, nil
	return p.ID
}

func isAncestor(candidate, b *Block) bool {
	for cur := b; cur != nil; cur = cur.parent {
		if cur == candidate {
			return true
		}
	}
	return false
}

// bump turns a displaced block into a top block.
func (w *Workspace) bump(b *Block, oldParent string) {
	b.parent, b.inInput = nil, nil
	w.top = append(w.top, b)
	w.fire(Event{Kind: EventMove, BlockID: b.ID, OldParentID: oldParent})
}

// reattach hangs a displaced chain off the end of the chain starting at
// head when the checks allow it, and bumps it otherwise.
func (w *Workspace) reattach(displaced, head *Block, oldParent string) {
	tail := head.LastInChain()
	if tail.HasNext && displaced.HasPrevious && Compatible(tail.NextCheck, displaced.PrevCheck) {
		tail.next = displaced
		displaced.parent, displaced.inInput = tail, nil
		w.fire(Event{Kind: EventMove, BlockID: displaced.ID, OldParentID: oldParent, NewParentID: tail.ID})
		return
	}
	w.bump(displaced, oldParent)
}

func (w *Workspace) prepare(parent, b *Block) error {
	if err := w.owns(parent); err != nil {
		return err
	}
	if err := w.owns(b); err != nil {
		return err
	}
	if isAncestor(b, parent) {
		return fmt.Errorf("%w: %s under %s", ErrCycle, b, parent)
	}
	return nil
}

// ConnectNext chains b (with its own chain) after prev. A chain that
// already followed prev is appended to the end of b's chain when the
// checks allow it.
func (w *Workspace) ConnectNext(prev, b *Block) error {
	if err := w.prepare(prev, b); err != nil {
		return err
	}
	if !prev.HasNext || !b.HasPrevious || !Compatible(prev.NextCheck, b.PrevCheck) {
		return fmt.Errorf("%w: %s after %s", ErrIncompatible, b, prev)
	}

	w.begin()
	defer w.end()
	oldParent := w.detach(b)
	w.removeTop(b)
	displaced := prev.next
	prev.next = b
	b.parent, b.inInput = prev, nil
	w.fire(Event{Kind: EventMove, BlockID: b.ID, OldParentID: oldParent, NewParentID: prev.ID})
	if displaced != nil {
		w.reattach(displaced, b, prev.ID)
	}
	return nil
}

// ConnectStatement plugs the chain headed by b into a statement input.
func (w *Workspace) ConnectStatement(parent *Block, input string, b *Block) error {
	if err := w.prepare(parent, b); err != nil {
		return err
	}
	in := parent.Input(input)
	if in == nil || in.Kind != InputStatement {
		return fmt.Errorf("%w: %s.%s", ErrNoInput, parent, input)
	}
	if !b.HasPrevious || !Compatible(in.Check, b.PrevCheck) {
		return fmt.Errorf("%w: %s into %s.%s", ErrIncompatible, b, parent, input)
	}

	w.begin()
	defer w.end()
	oldParent := w.detach(b)
	w.removeTop(b)
	displaced := in.target
	in.target = b
	b.parent, b.inInput = parent, in
	w.fire(Event{Kind: EventMove, BlockID: b.ID, OldParentID: oldParent, NewParentID: parent.ID, InputName: input})
	if displaced != nil {
		displaced.parent, displaced.inInput = nil, nil
		w.reattach(displaced, b, parent.ID)
	}
	return nil
}

// ConnectValue plugs the value block b into a value input. A block that
// was there before becomes a top block.
func (w *Workspace) ConnectValue(parent *Block, input string, b *Block) error {
	if err := w.prepare(parent, b); err != nil {
		return err
	}
	in := parent.Input(input)
	if in == nil || in.Kind != InputValue {
		return fmt.Errorf("%w: %s.%s", ErrNoInput, parent, input)
	}
	if !b.HasOutput || !Compatible(in.Check, b.OutputCheck) {
		return fmt.Errorf("%w: %s into %s.%s", ErrIncompatible, b, parent, input)
	}

	w.begin()
	defer w.end()
	oldParent := w.detach(b)
	w.removeTop(b)
	displaced := in.target
	in.target = b
	b.parent, b.inInput = parent, in
	w.fire(Event{Kind: EventMove, BlockID: b.ID, OldParentID: oldParent, NewParentID: parent.ID, InputName: input})
	if displaced != nil {
		w.bump(displaced, parent.ID)
	}
	return nil
}

// Unplug detaches b (and whatever is chained after it) to the top level.
func (w *Workspace) Unplug(b *Block) error {
	if err := w.owns(b); err != nil {
		return err
	}
	if b.parent == nil {
		return nil
	}
	w.begin()
	defer w.end()
	w.bump(b, w.detach(b))
	return nil
}

// Delete removes b and every block below it, including its chain.
func (w *Workspace) Delete(b *Block) error {
	if err := w.owns(b); err != nil {
		return err
	}
	w.begin()
	defer w.end()
	w.detach(b)
	w.removeTop(b)
	gone := b.Descendants(false)
	ids := make([]string, 0, len(gone))
	for _, d := range gone {
		delete(w.blocks, d.ID)
		ids = append(ids, d.ID)
	}
	w.fire(Event{Kind: EventDelete, BlockID: b.ID, IDs: ids})
	return nil
}

// SetFieldValue runs the field's validator on v and stores the result.
// A change event is announced only when the stored value changes.
func (w *Workspace) SetFieldValue(b *Block, name, v string) error {
	if err := w.owns(b); err != nil {
		return err
	}
	f := b.Field(name)
	if f == nil {
		return fmt.Errorf("%w: %s.%s", ErrNoField, b, name)
	}

	w.begin()
	defer w.end()
	if f.Validator != nil {
		v = f.Validator(v)
	}
	old := f.value
	if old == v {
		return nil
	}
	f.value = v
	if t, ok := f.optionText(v); ok {
		f.text = t
	} else {
		f.text = v
	}
	w.fire(Event{Kind: EventChange, BlockID: b.ID, Element: ElementField, Name: name, OldValue: old, NewValue: v})
	return nil
}

func (w *Workspace) SetComment(b *Block, comment string) error {
	if err := w.owns(b); err != nil {
		return err
	}
	if b.Comment == comment {
		return nil
	}
	w.begin()
	defer w.end()
	old := b.Comment
	b.Comment = comment
	w.fire(Event{Kind: EventChange, BlockID: b.ID, Element: ElementComment, OldValue: old, NewValue: comment})
	return nil
}

func (w *Workspace) SetDisabled(b *Block, disabled bool) error {
	if err := w.owns(b); err != nil {
		return err
	}
	if b.Disabled == disabled {
		return nil
	}
	w.begin()
	defer w.end()
	b.Disabled = disabled
	w.fire(Event{Kind: EventChange, BlockID: b.ID, Element: ElementDisabled,
		OldValue: strconv.FormatBool(!disabled), NewValue: strconv.FormatBool(disabled)})
	return nil
}

// SetInputCheck changes what an input accepts. A connected block that no
// longer fits is unplugged when the mutation commits.
func (w *Workspace) SetInputCheck(b *Block, input string, check []string) error {
	in := b.Input(input)
	if in == nil {
		return fmt.Errorf("%w: %s.%s", ErrNoInput, b, input)
	}
	w.begin()
	defer w.end()
	in.Check = check
	w.recheck = append(w.recheck, b)
	return nil
}

// SetOutputCheck changes what a value block produces. The block is
// unplugged when its input no longer accepts it once the mutation commits.
func (w *Workspace) SetOutputCheck(b *Block, check []string) {
	w.begin()
	defer w.end()
	b.OutputCheck = check
	w.recheck = append(w.recheck, b)
}

// verifyChecks unplugs the blocks whose connections no longer satisfy the
// checks changed during the mutation.
func (w *Workspace) verifyChecks() {
	pending := w.recheck
	w.recheck = nil
	for _, b := range pending {
		if w.blocks[b.ID] != b {
			continue
		}
		if in := b.inInput; in != nil && in.Kind == InputValue && !Compatible(in.Check, b.OutputCheck) {
			w.bump(b, w.detach(b))
		}
		for _, in := range b.Inputs {
			t := in.target
			if t == nil {
				continue
			}
			other := t.PrevCheck
			if in.Kind == InputValue {
				other = t.OutputCheck
			}
			if !Compatible(in.Check, other) {
				w.bump(t, w.detach(t))
			}
		}
	}
}

// CreateVariable registers a symbol that no block declares, such as a
// local variable created from the editor's toolbox.
func (w *Workspace) CreateVariable(id, prefix, name string, typ symbols.Type) *symbols.Symbol {
	w.begin()
	defer w.end()
	s := w.symbols.Create(id, prefix, w.symbols.Resolve(prefix, name, id), typ)
	w.fire(Event{Kind: EventVarCreate, BlockID: id, Name: s.Name})
	return s
}
