package codegen

import (
	"strconv"
	"strings"

	"github.com/xplshn/blocksol/pkg/block"
	"github.com/xplshn/blocksol/pkg/config"
	"github.com/xplshn/blocksol/pkg/order"
	"github.com/xplshn/blocksol/pkg/util"
)

func (s *Session) warn(wt config.Warning, b *block.Block, format string, args ...interface{}) {
	util.Warn(s.cfg, wt, b, format, args...)
}

func (s *Session) emitter(b *block.Block) Emitter {
	e, ok := s.table[b.Type]
	if !ok {
		fail(b, ErrNoEmitter, "")
	}
	return e
}

// blockToCode renders b and the chain after it. Disabled blocks are
// skipped over.
func (s *Session) blockToCode(b *block.Block) (code string, ord order.Order, isValue bool) {
	for b != nil && b.Disabled {
		b = b.NextBlock()
	}
	if b == nil {
		return "", order.Atomic, false
	}

	e := s.emitter(b)
	if b.HasOutput {
		if e.Value == nil {
			fail(b, ErrWrongKind, "value block has a statement emitter")
		}
		code, ord = e.Value(s, b)
		return s.scrub(b, code), ord, true
	}
	if e.Statement == nil {
		fail(b, ErrWrongKind, "statement block has a value emitter")
	}
	return s.scrub(b, e.Statement(s, b)), order.Atomic, false
}

// BlockToCode renders a statement chain starting at b.
func (s *Session) BlockToCode(b *block.Block) string {
	code, _, _ := s.blockToCode(b)
	return code
}

// ValueToCode renders the block plugged into the named value input,
// parenthesized when the position demands tighter binding than the block
// provides. An empty input renders as "".
func (s *Session) ValueToCode(b *block.Block, input string, outer order.Order) string {
	target := b.InputTarget(input)
	if target == nil {
		return ""
	}
	code, inner, isValue := s.blockToCode(target)
	if code == "" {
		return ""
	}
	if !isValue {
		fail(target, ErrWrongKind, "statement block in value input %s", input)
	}
	return order.Wrap(code, outer, inner)
}

// ValueOr is ValueToCode with def standing in for an empty input.
func (s *Session) ValueOr(b *block.Block, input string, outer order.Order, def string) string {
	if code := s.ValueToCode(b, input, outer); code != "" {
		return code
	}
	return def
}

// StatementToCode renders the chain plugged into a statement input,
// indented one level.
func (s *Session) StatementToCode(b *block.Block, input string) string {
	code := s.BlockToCode(b.InputTarget(input))
	if code == "" {
		return ""
	}
	return util.PrefixLines(code, s.cfg.Indent)
}

func isCallable(t block.Type) bool { return t == block.ContractMethod || t == block.ContractCtor }

// scrub adds the comments of b and of its value inputs in front of code,
// then appends the rest of the chain.
func (s *Session) scrub(b *block.Block, code string) string {
	var comments strings.Builder
	if !b.IsInline() && s.cfg.IsFeatureEnabled(config.FeatComments) {
		if c := util.Wrap(b.Comment, s.cfg.CommentWrap-3); c != "" {
			if isCallable(b.Type) {
				comments.WriteString("/**\n" + util.PrefixLines(c+"\n", " * ") + " */\n")
			} else {
				comments.WriteString(util.PrefixLines(c+"\n", "// "))
			}
		}
		for _, in := range b.Inputs {
			if in.Kind != block.InputValue || in.Target() == nil {
				continue
			}
			if c := nestedComments(in.Target()); c != "" {
				comments.WriteString(util.PrefixLines(c, "// "))
			}
		}
	}
	return comments.String() + code + s.BlockToCode(b.NextBlock())
}

// nestedComments joins the comments of b and everything below it, one per
// line, with a trailing newline.
func nestedComments(b *block.Block) string {
	var out []string
	for _, d := range b.Descendants(false) {
		if d.Comment != "" {
			out = append(out, d.Comment)
		}
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

// Adjusted renders a numeric input shifted by delta and optionally
// negated. Literal inputs are folded into a new literal; anything else is
// adjusted in the emitted expression, parenthesized against outer.
func (s *Session) Adjusted(b *block.Block, input string, delta int, negate bool, outer order.Order) string {
	def := "0"
	if s.cfg.IsFeatureEnabled(config.FeatOneBasedIndex) {
		delta--
		def = "1"
	}

	var at string
	switch {
	case delta > 0:
		at = s.ValueOr(b, input, order.Addition, def)
	case delta < 0:
		at = s.ValueOr(b, input, order.Subtraction, def)
	case negate:
		at = s.ValueOr(b, input, order.UnaryNegation, def)
	default:
		at = s.ValueOr(b, input, outer, def)
	}

	if util.IsNumber(at) {
		f, _ := util.ParseNumber(at)
		f += float64(delta)
		if negate {
			f = -f
		}
		return util.FormatNumber(f)
	}

	inner, adjusted := order.Atomic, false
	switch {
	case delta > 0:
		at, inner, adjusted = at+" + "+strconv.Itoa(delta), order.Addition, true
	case delta < 0:
		at, inner, adjusted = at+" - "+strconv.Itoa(-delta), order.Subtraction, true
	}
	if negate {
		if delta != 0 {
			at = "-(" + at + ")"
		} else {
			at = "-" + at
		}
		inner, adjusted = order.UnaryNegation, true
	}
	if adjusted {
		at = order.Wrap(at, outer, inner)
	}
	return at
}
