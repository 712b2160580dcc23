package scope

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/blocksol/pkg/block"
	"github.com/xplshn/blocksol/pkg/config"
	"github.com/xplshn/blocksol/pkg/symbols"
	"github.com/xplshn/blocksol/pkg/util"
)

type fixture struct {
	t   *testing.T
	ws  *block.Workspace
	cfg *config.Config
	s   *Synchronizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	prev := util.SetOutput(io.Discard)
	t.Cleanup(func() { util.SetOutput(prev) })
	ws := block.NewWorkspace()
	cfg := config.NewConfig()
	return &fixture{t: t, ws: ws, cfg: cfg, s: New(ws, cfg)}
}

func (f *fixture) add(typ block.Type, id string) *block.Block {
	f.t.Helper()
	b, err := f.ws.NewBlock(typ, id)
	if err != nil {
		f.t.Fatalf("NewBlock(%v, %q): %v", typ, id, err)
	}
	return b
}

func (f *fixture) must(err error) {
	f.t.Helper()
	if err != nil {
		f.t.Fatalf("unexpected error: %v", err)
	}
}

func (f *fixture) displayName(id string) string {
	sym := f.ws.Symbols().ByID(id)
	if sym == nil {
		return ""
	}
	return sym.DisplayName()
}

// contract builds a contract holding one state per name, chained in order.
func (f *fixture) contract(names ...string) (*block.Block, []*block.Block) {
	c := f.add(block.Contract, "c")
	var states []*block.Block
	for i, name := range names {
		st := f.add(block.ContractState, "s"+string(rune('0'+i)))
		f.must(f.ws.SetFieldValue(st, "NAME", name))
		if i == 0 {
			f.must(f.ws.ConnectStatement(c, "STATES", st))
		} else {
			f.must(f.ws.ConnectNext(states[i-1], st))
		}
		states = append(states, st)
	}
	return c, states
}

func TestDeclareVariable(t *testing.T) {
	t.Run("CollisionGetsSuffix", func(t *testing.T) {
		f := newFixture(t)
		_, states := f.contract("a", "a")
		if got := f.displayName("s0"); got != "a" {
			t.Errorf("first state: expected 'a', got '%s'", got)
		}
		if got := f.displayName("s1"); got != "a1" {
			t.Errorf("second state: expected 'a1', got '%s'", got)
		}
		if got := states[1].FieldValue("NAME"); got != "a1" {
			t.Errorf("second state NAME field: expected 'a1', got '%s'", got)
		}
	})

	t.Run("RenameKeepsIdentity", func(t *testing.T) {
		f := newFixture(t)
		_, states := f.contract("a")
		f.must(f.ws.SetFieldValue(states[0], "NAME", "total"))
		if got := f.displayName("s0"); got != "total" {
			t.Errorf("expected 'total', got '%s'", got)
		}
		if n := f.ws.Symbols().Len(); n != 1 {
			t.Errorf("expected 1 symbol, got %d", n)
		}
	})

	t.Run("SameNameIsNoop", func(t *testing.T) {
		f := newFixture(t)
		_, states := f.contract("a")
		if got := f.s.DeclareVariable(states[0], "a", false); got != "a" {
			t.Errorf("expected 'a', got '%s'", got)
		}
		if got := f.displayName("s0"); got != "a" {
			t.Errorf("symbol renamed to '%s'", got)
		}
	})

	t.Run("EmptyNameRejected", func(t *testing.T) {
		f := newFixture(t)
		_, states := f.contract("a")
		f.must(f.ws.SetFieldValue(states[0], "NAME", ""))
		if got := states[0].FieldValue("NAME"); got != "a" {
			t.Errorf("expected NAME to stay 'a', got '%s'", got)
		}
	})

	t.Run("ForceWritesField", func(t *testing.T) {
		f := newFixture(t)
		_, states := f.contract("a", "b")
		if got := f.s.DeclareVariable(states[1], "a", true); got != "a1" {
			t.Errorf("expected 'a1', got '%s'", got)
		}
		if got := states[1].FieldValue("NAME"); got != "a1" {
			t.Errorf("NAME field: expected 'a1', got '%s'", got)
		}
	})

	t.Run("NotADeclaration", func(t *testing.T) {
		f := newFixture(t)
		n := f.add(block.MathNumber, "n")
		if got := f.s.DeclareVariable(n, "x", true); got != "x" {
			t.Errorf("expected the request back, got '%s'", got)
		}
		if f.ws.Symbols().Len() != 0 {
			t.Errorf("expected no symbols")
		}
	})
}

func TestReparentParameter(t *testing.T) {
	f := newFixture(t)
	c := f.add(block.Contract, "c")
	m1 := f.add(block.ContractMethod, "m1")
	m2 := f.add(block.ContractMethod, "m2")
	f.must(f.ws.ConnectStatement(c, "METHODS", m1))
	f.must(f.ws.ConnectNext(m1, m2))

	p1 := f.add(block.ContractMethodParameter, "p1")
	p2 := f.add(block.ContractMethodParameter, "p2")
	f.must(f.ws.ConnectStatement(m1, "PARAMS", p1))
	f.must(f.ws.ConnectStatement(m2, "PARAMS", p2))
	if f.displayName("p1") != "a" || f.displayName("p2") != "a" {
		t.Fatalf("parameters of different methods should both be 'a', got '%s' and '%s'",
			f.displayName("p1"), f.displayName("p2"))
	}

	f.must(f.ws.Unplug(p1))
	f.must(f.ws.ConnectNext(p2, p1))
	if got := f.displayName("p1"); got != "a1" {
		t.Errorf("moved parameter: expected 'a1', got '%s'", got)
	}
	if got := p1.FieldValue("NAME"); got != "a1" {
		t.Errorf("moved parameter NAME field: expected 'a1', got '%s'", got)
	}
	if got, want := f.ws.Symbols().ByID("p1").Prefix, ParamPrefix(m2); got != want {
		t.Errorf("prefix: expected '%s', got '%s'", want, got)
	}
}

func TestSelectors(t *testing.T) {
	t.Run("SentinelPicksFirst", func(t *testing.T) {
		f := newFixture(t)
		f.contract("x", "y")
		get := f.add(block.ContractStateGet, "g")
		if got := get.FieldValue("STATE_NAME"); got != "s0" {
			t.Errorf("expected selection 's0', got '%s'", got)
		}
		if got := get.FieldText("STATE_NAME"); got != "x" {
			t.Errorf("expected text 'x', got '%s'", got)
		}
		want := []block.Option{{Text: "x", Value: "s0"}, {Text: "y", Value: "s1"}}
		if diff := cmp.Diff(want, get.Field("STATE_NAME").Options()); diff != "" {
			t.Errorf("options mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("NoSymbolsKeepsSentinel", func(t *testing.T) {
		f := newFixture(t)
		get := f.add(block.ContractStateGet, "g")
		if got := get.FieldValue("STATE_NAME"); got != block.Undefined {
			t.Errorf("expected the sentinel, got '%s'", got)
		}
	})

	t.Run("SelectionFollowsRename", func(t *testing.T) {
		f := newFixture(t)
		_, states := f.contract("x")
		get := f.add(block.ContractStateGet, "g")
		f.must(f.ws.SetFieldValue(states[0], "NAME", "z"))
		if got := get.FieldText("STATE_NAME"); got != "z" {
			t.Errorf("expected text 'z', got '%s'", got)
		}
		if got := get.FieldValue("STATE_NAME"); got != "s0" {
			t.Errorf("expected selection 's0', got '%s'", got)
		}
	})

	t.Run("StaleSelection", func(t *testing.T) {
		f := newFixture(t)
		var out strings.Builder
		util.SetOutput(&out)
		_, states := f.contract("x", "y")
		get := f.add(block.ContractStateGet, "g")
		f.must(f.ws.SetFieldValue(get, "STATE_NAME", "s1"))
		f.must(f.ws.Delete(states[1]))
		if got := get.FieldValue("STATE_NAME"); got != "s1" {
			t.Errorf("expected stale selection 's1' to stay, got '%s'", got)
		}
		if got := get.FieldText("STATE_NAME"); got != "" {
			t.Errorf("expected empty text, got '%s'", got)
		}
		if n := strings.Count(out.String(), "no longer exists"); n != 1 {
			t.Errorf("expected one warning, got %d:\n%s", n, out.String())
		}
		f.must(f.ws.SetComment(get, "still stale"))
		if n := strings.Count(out.String(), "no longer exists"); n != 1 {
			t.Errorf("warning repeated:\n%s", out.String())
		}
	})

	t.Run("ParametersScopedToMethod", func(t *testing.T) {
		f := newFixture(t)
		m1 := f.add(block.ContractMethod, "m1")
		m2 := f.add(block.ContractMethod, "m2")
		p := f.add(block.ContractMethodParameter, "p")
		f.must(f.ws.ConnectStatement(m1, "PARAMS", p))
		get := f.add(block.ContractMethodParameterGet, "g")
		set := f.add(block.ContractStateSet, "set")
		f.must(f.ws.ConnectStatement(m2, "STACK", set))
		f.must(f.ws.ConnectValue(set, "STATE_VALUE", get))
		if got := get.FieldValue("PARAM_NAME"); got != block.Undefined {
			t.Errorf("getter in m2 saw a parameter of m1: '%s'", got)
		}
		f.must(f.ws.Unplug(set))
		f.must(f.ws.ConnectStatement(m1, "STACK", set))
		if got := get.FieldValue("PARAM_NAME"); got != "p" {
			t.Errorf("getter in m1: expected 'p', got '%s'", got)
		}
	})

	t.Run("MethodCalls", func(t *testing.T) {
		f := newFixture(t)
		c := f.add(block.Contract, "c")
		m1 := f.add(block.ContractMethod, "m1")
		m2 := f.add(block.ContractMethod, "m2")
		f.must(f.ws.SetFieldValue(m2, "NAME", "other"))
		f.must(f.ws.ConnectStatement(c, "METHODS", m1))
		f.must(f.ws.ConnectNext(m1, m2))
		call := f.add(block.ContractMethodCall, "call")
		f.must(f.ws.ConnectStatement(m1, "STACK", call))
		want := []block.Option{{Text: "myMethod", Value: "m1"}, {Text: "other", Value: "m2"}}
		if diff := cmp.Diff(want, call.Field("METHOD_NAME").Options()); diff != "" {
			t.Errorf("options mismatch (-want +got):\n%s", diff)
		}
		if got := call.FieldValue("METHOD_NAME"); got != "m1" {
			t.Errorf("expected 'm1', got '%s'", got)
		}
	})
}

func TestTypePropagation(t *testing.T) {
	t.Run("SetterInputFollowsState", func(t *testing.T) {
		f := newFixture(t)
		_, states := f.contract("flag", "count")
		f.must(f.ws.SetFieldValue(states[1], "TYPE", "TYPE_UINT"))
		set := f.add(block.ContractStateSet, "set")
		if diff := cmp.Diff([]string{"Boolean"}, set.Input("STATE_VALUE").Check); diff != "" {
			t.Errorf("bool check mismatch (-want +got):\n%s", diff)
		}
		f.must(f.ws.SetFieldValue(set, "STATE_NAME", "s1"))
		if diff := cmp.Diff([]string{"Number"}, set.Input("STATE_VALUE").Check); diff != "" {
			t.Errorf("number check mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("TypeChangeUnplugsValue", func(t *testing.T) {
		f := newFixture(t)
		_, states := f.contract("n")
		f.must(f.ws.SetFieldValue(states[0], "TYPE", "TYPE_INT"))
		set := f.add(block.ContractStateSet, "set")
		num := f.add(block.MathNumber, "num")
		f.must(f.ws.ConnectValue(set, "STATE_VALUE", num))
		f.must(f.ws.SetFieldValue(states[0], "TYPE", "TYPE_BOOL"))
		if got := f.ws.Symbols().ByID("s0").Type; got != symbols.TypeBool {
			t.Errorf("symbol type: expected bool, got %v", got)
		}
		if num.Parent() != nil {
			t.Errorf("number should have been unplugged from a bool setter")
		}
	})

	t.Run("InitializerFollowsDeclaration", func(t *testing.T) {
		f := newFixture(t)
		_, states := f.contract("n")
		if diff := cmp.Diff([]string{"Boolean"}, states[0].Input("VALUE").Check); diff != "" {
			t.Errorf("bool check mismatch (-want +got):\n%s", diff)
		}
		f.must(f.ws.SetFieldValue(states[0], "TYPE", "TYPE_UINT"))
		num := f.add(block.MathNumber, "num")
		f.must(f.ws.ConnectValue(states[0], "VALUE", num))
		f.must(f.ws.SetFieldValue(states[0], "TYPE", "TYPE_BOOL"))
		if num.Parent() != nil {
			t.Errorf("number should have been unplugged from a bool initializer")
		}
	})

	t.Run("LocalSetterUntyped", func(t *testing.T) {
		f := newFixture(t)
		f.ws.CreateVariable("v", VarPrefix(nil), "x", symbols.TypeUint)
		set := f.add(block.VariablesSet, "set")
		f.must(f.ws.SetFieldValue(set, "VAR", "v"))
		even := f.add(block.MathNumberProperty, "even")
		f.must(f.ws.ConnectValue(set, "VALUE", even))
		if check := set.Input("VALUE").Check; check != nil {
			t.Errorf("expected no check on a local setter, got %v", check)
		}
		if even.Parent() != set {
			t.Errorf("a boolean should stay in a uint variable's setter")
		}
	})

	t.Run("GetterOutput", func(t *testing.T) {
		f := newFixture(t)
		f.contract("flag")
		get := f.add(block.ContractStateGet, "g")
		if diff := cmp.Diff([]string{"Boolean"}, get.OutputCheck); diff != "" {
			t.Errorf("output check mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("GetterStaysInSetter", func(t *testing.T) {
		f := newFixture(t)
		_, states := f.contract("n")
		set := f.add(block.ContractStateSet, "set")
		get := f.add(block.ContractStateGet, "g")
		f.must(f.ws.ConnectValue(set, "STATE_VALUE", get))
		f.must(f.ws.SetFieldValue(states[0], "TYPE", "TYPE_UINT"))
		if get.Parent() != set {
			t.Errorf("getter of the same state should stay connected")
		}
		if diff := cmp.Diff([]string{"Number"}, get.OutputCheck); diff != "" {
			t.Errorf("output check mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("GetterOutputDisabled", func(t *testing.T) {
		f := newFixture(t)
		f.cfg.SetFeature(config.FeatOutputTypes, false)
		f.contract("flag")
		get := f.add(block.ContractStateGet, "g")
		if get.OutputCheck != nil {
			t.Errorf("expected no output check, got %v", get.OutputCheck)
		}
	})
}

func TestDeferredRefresh(t *testing.T) {
	f := newFixture(t)
	ws := block.NewWorkspace()
	add := func(typ block.Type, id string) *block.Block {
		b, err := ws.NewBlock(typ, id)
		f.must(err)
		return b
	}
	c := add(block.Contract, "c")
	st := add(block.ContractState, "s")
	f.must(ws.SetFieldValue(st, "TYPE", "TYPE_INT"))
	f.must(ws.ConnectStatement(c, "STATES", st))

	// No change listener is attached, so only the selector's deferred
	// task can type the setter.
	s := &Synchronizer{ws: ws, cfg: f.cfg, warned: make(map[string]string)}
	s.DeclareVariable(st, "count", true)
	set := add(block.ContractStateSet, "set")
	s.install(set)

	var seen [][]string
	ws.AddChangeListener(func(ev block.Event) {
		if ev.Kind != block.EventChange || ev.BlockID != "set" {
			return
		}
		seen = append(seen, set.Input("STATE_VALUE").Check)
		ws.Defer(func() { seen = append(seen, set.Input("STATE_VALUE").Check) })
	})
	f.must(ws.SetFieldValue(set, "STATE_NAME", "s"))

	// The event is delivered untyped, the refresh queued by the selector
	// runs next, and the listener's own task sees its result.
	want := [][]string{nil, {"Number"}}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("checks seen around the commit mismatch (-want +got):\n%s", diff)
	}

	// The task was consumed: the next commit does not retype the setter.
	f.must(ws.SetInputCheck(set, "STATE_VALUE", nil))
	if check := set.Input("STATE_VALUE").Check; check != nil {
		t.Errorf("expected the refresh not to run again, got check %v", check)
	}
	if len(seen) != 2 {
		t.Errorf("expected 2 observations, got %d", len(seen))
	}
}

func TestDeleteSymbols(t *testing.T) {
	t.Run("Enabled", func(t *testing.T) {
		f := newFixture(t)
		c, _ := f.contract("a", "b")
		f.must(f.ws.Delete(c))
		if n := f.ws.Symbols().Len(); n != 0 {
			t.Errorf("expected symbols to be removed, %d left", n)
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		f := newFixture(t)
		f.cfg.SetFeature(config.FeatDeleteSymbols, false)
		_, states := f.contract("a", "b")
		f.must(f.ws.Delete(states[1]))
		if n := f.ws.Symbols().Len(); n != 2 {
			t.Errorf("expected 2 symbols, got %d", n)
		}
	})

	t.Run("NameFreedForReuse", func(t *testing.T) {
		f := newFixture(t)
		c, states := f.contract("a")
		f.must(f.ws.Delete(states[0]))
		st := f.add(block.ContractState, "again")
		f.must(f.ws.ConnectStatement(c, "STATES", st))
		if got := f.displayName("again"); got != "a" {
			t.Errorf("expected freed name 'a', got '%s'", got)
		}
	})
}

func TestPrefixes(t *testing.T) {
	f := newFixture(t)
	m := f.add(block.ContractMethod, "m")
	p := f.add(block.ContractMethodParameter, "p")
	loose := f.add(block.ContractMethodParameter, "loose")
	f.must(f.ws.ConnectStatement(m, "PARAMS", p))

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"state", KindState.Prefix(p), "__state_"},
		{"param", KindParam.Prefix(p), "__param_function(m)_"},
		{"loose param", KindParam.Prefix(loose), "__param_function(loose)_"},
		{"var", KindVar.Prefix(p), "__var_"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected '%s', got '%s'", tt.name, tt.want, tt.got)
		}
	}
}
