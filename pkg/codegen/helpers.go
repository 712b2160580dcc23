package codegen

import (
	"strings"

	"github.com/xplshn/blocksol/pkg/symbols"
)

// FunctionNamePlaceholder marks where a helper's final name goes in the
// lines passed to ProvideFunction.
const FunctionNamePlaceholder = "{leCUI8hutHZI4480Dc}"

// helperPool keeps the generated helper functions of one run, each
// registered once and kept in first-registration order.
type helperPool struct {
	order []string
	names map[string]string
	defs  map[string]string
}

func newHelperPool() *helperPool {
	return &helperPool{names: make(map[string]string), defs: make(map[string]string)}
}

func (p *helperPool) definitions() []string {
	out := make([]string, 0, len(p.order))
	for _, desired := range p.order {
		out = append(out, p.defs[desired])
	}
	return out
}

// ProvideFunction registers a helper under a name derived from desired and
// returns that name. Later calls with the same desired name return the
// same name without registering the body again.
func (s *Session) ProvideFunction(desired string, lines []string) string {
	if name, ok := s.pool.names[desired]; ok {
		return name
	}
	name := s.names.DistinctName(desired, symbols.NameProcedure)
	s.pool.names[desired] = name
	s.pool.defs[desired] = strings.ReplaceAll(strings.Join(lines, "\n"), FunctionNamePlaceholder, name)
	s.pool.order = append(s.pool.order, desired)
	return name
}
