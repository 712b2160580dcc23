package scope

import "github.com/xplshn/blocksol/pkg/block"

// StatePrefix namespaces contract state variables.
func StatePrefix(*block.Block) string { return "__state_" }

// ParamPrefix namespaces parameters per method instance: the ID of the
// nearest enclosing method or constructor, or the block's own ID outside
// of one.
func ParamPrefix(b *block.Block) string {
	m := b
	for m != nil && m.Type != block.ContractMethod && m.Type != block.ContractCtor {
		m = m.Parent()
	}
	if m == nil {
		m = b
	}
	return "__param_function(" + m.ID + ")_"
}

// VarPrefix namespaces local variables.
func VarPrefix(*block.Block) string { return "__var_" }

// Kind is a family of symbols sharing a prefix function, a declaring block
// type and the selector field that references them.
type Kind int

const (
	KindState Kind = iota
	KindParam
	KindVar
	KindCount
)

type kindInfo struct {
	name   string
	prefix func(*block.Block) string
	decl   block.Type // declaring block, -1 when symbols are created by the host
	field  string     // selector field of reference blocks
	value  string     // value input of setters
	typed  bool       // setters and getters follow the symbol's type
}

var kinds = [KindCount]kindInfo{
	KindState: {"state", StatePrefix, block.ContractState, "STATE_NAME", "STATE_VALUE", true},
	KindParam: {"param", ParamPrefix, block.ContractMethodParameter, "PARAM_NAME", "PARAM_VALUE", true},
	KindVar:   {"var", VarPrefix, -1, "VAR", "VALUE", false},
}

func (k Kind) String() string { return kinds[k].name }

// Prefix returns the prefix of symbols of kind k seen from b.
func (k Kind) Prefix(b *block.Block) string { return kinds[k].prefix(b) }

// declaring returns the kind declared by blocks of type t.
func declaring(t block.Type) (Kind, bool) {
	for k, info := range kinds {
		if info.decl == t {
			return Kind(k), true
		}
	}
	return 0, false
}
