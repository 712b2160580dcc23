// Package block defines the block tree the generator walks and the
// in-process workspace that owns it.
package block

import "fmt"

// Type is the tag of a block. It selects the emitter and the mutation
// rules that apply to the block.
type Type int

// Block types enum
const (
	// Contract structure
	Contract Type = iota
	ContractState
	ContractStateGet
	ContractStateSet
	ContractMethod
	ContractCtor
	ContractMethodParameter
	ContractMethodParameterGet
	ContractMethodCall
	ContractIntrinsicSha3

	// Math
	MathNumber
	MathArithmetic
	MathSingle
	MathRound
	MathTrig
	MathConstant
	MathNumberProperty
	MathChange
	MathOnList
	MathModulo
	MathConstrain
	MathRandomInt
	MathRandomFloat

	// Local variables
	VariablesGet
	VariablesSet

	TypeCount // Just to get the number of block types
)

var typeNames = [TypeCount]string{
	Contract:                   "contract",
	ContractState:              "contract_state",
	ContractStateGet:           "contract_state_get",
	ContractStateSet:           "contract_state_set",
	ContractMethod:             "contract_method",
	ContractCtor:               "contract_ctor",
	ContractMethodParameter:    "contract_method_parameter",
	ContractMethodParameterGet: "contract_method_parameter_get",
	ContractMethodCall:         "contract_method_call",
	ContractIntrinsicSha3:      "contract_intrinsic_sha3",
	MathNumber:                 "math_number",
	MathArithmetic:             "math_arithmetic",
	MathSingle:                 "math_single",
	MathRound:                  "math_round",
	MathTrig:                   "math_trig",
	MathConstant:               "math_constant",
	MathNumberProperty:         "math_number_property",
	MathChange:                 "math_change",
	MathOnList:                 "math_on_list",
	MathModulo:                 "math_modulo",
	MathConstrain:              "math_constrain",
	MathRandomInt:              "math_random_int",
	MathRandomFloat:            "math_random_float",
	VariablesGet:               "variables_get",
	VariablesSet:               "variables_set",
}

func (t Type) String() string {
	if t >= 0 && t < TypeCount {
		return typeNames[t]
	}
	return fmt.Sprintf("block_type(%d)", int(t))
}

// ParseType maps an editor tag such as "contract_state" to its Type.
func ParseType(tag string) (Type, bool) {
	for i, name := range typeNames {
		if name == tag {
			return Type(i), true
		}
	}
	return 0, false
}

// Option is one entry of a dropdown: the text shown and the value stored.
type Option struct{ Text, Value string }

// Field is a named editable value on a block. Text inputs keep Text and
// Value equal; dropdowns store an option value and display its text.
type Field struct {
	Name      string
	Editable  bool
	Validator func(string) string

	value   string
	text    string
	options []Option
}

func (f *Field) Value() string     { return f.value }
func (f *Field) Text() string      { return f.text }
func (f *Field) Options() []Option { return f.options }

// SetText changes what the field displays without validation or events.
// Text inputs store what they display.
func (f *Field) SetText(text string) {
	f.text = text
	if f.Editable {
		f.value = text
	}
}

// SetOptions replaces a dropdown's menu. The stored value is kept even
// when it is no longer among the options.
func (f *Field) SetOptions(opts []Option) {
	f.options = append([]Option(nil), opts...)
}

func (f *Field) optionText(value string) (string, bool) {
	for _, o := range f.options {
		if o.Value == value {
			return o.Text, true
		}
	}
	return "", false
}

type InputKind int

const (
	InputDummy InputKind = iota
	InputValue
	InputStatement
)

// Input is a named child slot. A value input holds one expression block,
// a statement input holds the head of a statement chain.
type Input struct {
	Name  string
	Kind  InputKind
	Check []string

	target *Block
}

func (in *Input) Target() *Block { return in.target }

// Block is a node of the program tree.
type Block struct {
	ID       string
	Type     Type
	Comment  string
	Disabled bool

	Fields []*Field
	Inputs []*Input

	HasOutput   bool
	OutputCheck []string
	HasPrevious bool
	PrevCheck   []string
	HasNext     bool
	NextCheck   []string

	next    *Block
	parent  *Block
	inInput *Input // the input of parent holding this block, nil when chained via next
}

func (b *Block) String() string { return b.Type.String() + "#" + b.ID }

func (b *Block) Field(name string) *Field {
	for _, f := range b.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldValue returns the stored value of a field, "" when there is none.
func (b *Block) FieldValue(name string) string {
	if f := b.Field(name); f != nil {
		return f.value
	}
	return ""
}

func (b *Block) FieldText(name string) string {
	if f := b.Field(name); f != nil {
		return f.text
	}
	return ""
}

func (b *Block) Input(name string) *Input {
	for _, in := range b.Inputs {
		if in.Name == name {
			return in
		}
	}
	return nil
}

// InputTarget returns the block plugged into the named input.
func (b *Block) InputTarget(name string) *Block {
	if in := b.Input(name); in != nil {
		return in.target
	}
	return nil
}

func (b *Block) NextBlock() *Block { return b.next }

// Parent is the previous block of a chain, or the block owning the input
// this block is plugged into.
func (b *Block) Parent() *Block { return b.parent }

// ParentInput is the input holding this block, nil for chained blocks.
func (b *Block) ParentInput() *Input { return b.inInput }

// PreviousBlock returns the block this one is chained after.
func (b *Block) PreviousBlock() *Block {
	if b.parent != nil && b.inInput == nil {
		return b.parent
	}
	return nil
}

// SurroundParent returns the block whose input (directly or through a
// statement chain) contains this block.
func (b *Block) SurroundParent() *Block {
	cur := b
	for cur.parent != nil {
		if cur.inInput != nil {
			return cur.parent
		}
		cur = cur.parent
	}
	return nil
}

// Root walks parents up to the top-level block.
func (b *Block) Root() *Block {
	cur := b
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// IsInline reports whether the block's output is plugged into another block.
func (b *Block) IsInline() bool { return b.HasOutput && b.parent != nil }

// Children returns the blocks in this block's inputs followed by the next
// block, in input order.
func (b *Block) Children() []*Block {
	var out []*Block
	for _, in := range b.Inputs {
		if in.target != nil {
			out = append(out, in.target)
		}
	}
	if b.next != nil {
		out = append(out, b.next)
	}
	return out
}

// Descendants returns the block and everything below it, depth first. With
// ignoreNext the statement chain following the block is left out.
func (b *Block) Descendants(ignoreNext bool) []*Block {
	out := []*Block{b}
	for _, in := range b.Inputs {
		if in.target != nil {
			out = append(out, in.target.Descendants(false)...)
		}
	}
	if !ignoreNext && b.next != nil {
		out = append(out, b.next.Descendants(false)...)
	}
	return out
}

// LastInChain follows next links to the end of the chain.
func (b *Block) LastInChain() *Block {
	cur := b
	for cur.next != nil {
		cur = cur.next
	}
	return cur
}

// Compatible reports whether two connection checks accept each other. A
// nil check accepts anything.
func Compatible(a, b []string) bool {
	if a == nil || b == nil {
		return true
	}
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
