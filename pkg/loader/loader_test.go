package loader

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/blocksol/pkg/block"
	"github.com/xplshn/blocksol/pkg/codegen"
	"github.com/xplshn/blocksol/pkg/config"
	"github.com/xplshn/blocksol/pkg/scope"
	"github.com/xplshn/blocksol/pkg/util"
)

const counter = `{
  "blocks": [
    {"type": "contract", "id": "c", "fields": {"NAME": "Counter"},
     "inputs": {
       "STATES": {"type": "contract_state", "id": "s0", "fields": {"TYPE": "TYPE_UINT", "NAME": "count"},
                  "next": {"type": "contract_state", "id": "s1", "fields": {"NAME": "count"}}},
       "METHODS": {"type": "contract_method", "id": "m", "fields": {"NAME": "bump"}, "comment": "Adds one.",
         "inputs": {
           "PARAMS": {"type": "contract_method_parameter", "id": "p0",
                      "next": {"type": "contract_method_parameter", "id": "p1", "fields": {"TYPE": "TYPE_UINT"}}},
           "STACK": {"type": "contract_state_set", "id": "set", "fields": {"STATE_NAME": "s0"},
             "inputs": {"STATE_VALUE": {"type": "math_arithmetic", "fields": {"OP": "ADD"},
               "inputs": {"A": {"type": "contract_state_get", "fields": {"STATE_NAME": "s0"}},
                          "B": {"type": "math_number", "fields": {"NUM": "1"}}}}}}
         }}
     }}
  ]
}`

func load(t *testing.T, src string) (*block.Workspace, *config.Config) {
	t.Helper()
	prev := util.SetOutput(io.Discard)
	t.Cleanup(func() { util.SetOutput(prev) })

	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg := config.NewConfig()
	if err := doc.Configure(cfg); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	ws := block.NewWorkspace()
	scope.New(ws, cfg)
	if err := doc.Build(ws); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ws, cfg
}

func TestBuild(t *testing.T) {
	ws, cfg := load(t, counter)

	if n := ws.Len(); n != 10 {
		t.Errorf("expected 10 blocks, got %d", n)
	}
	if n := len(ws.TopBlocks()); n != 1 {
		t.Errorf("expected 1 top block, got %d", n)
	}
	names := map[string]string{"s0": "count", "s1": "count1", "p0": "a", "p1": "a1"}
	for id, want := range names {
		sym := ws.Symbols().ByID(id)
		if sym == nil {
			t.Errorf("%s: expected a symbol", id)
			continue
		}
		if got := sym.DisplayName(); got != want {
			t.Errorf("%s: expected '%s', got '%s'", id, want, got)
		}
	}

	g, err := codegen.New(cfg, codegen.Builtins())
	if err != nil {
		t.Fatalf("codegen.New: %v", err)
	}
	got, err := g.Generate(ws)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := strings.Join([]string{
		"pragma solidity ^0.4.2;",
		"",
		"contract Counter {",
		"  uint count = 0;",
		"  bool count1 = false;",
		"  function () { throw; }",
		"  /**",
		"   * Adds one.",
		"   */",
		"  function bump(bool a, uint a1) {",
		"    this.count = this.count + 1;",
		"  }",
		"}",
		"",
	}, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestVariablesAndFlags(t *testing.T) {
	ws, cfg := load(t, `{
	  "flags": ["Fno-comments", "Wnaked-value"],
	  "variables": [{"id": "v", "name": "total", "type": "TYPE_UINT"}],
	  "blocks": [
	    {"type": "variables_set", "fields": {"VAR": "v"}, "comment": "hidden",
	     "inputs": {"VALUE": {"type": "math_number", "fields": {"NUM": "3"}}}}
	  ]
	}`)
	if cfg.IsFeatureEnabled(config.FeatComments) {
		t.Errorf("comments should be disabled by the document")
	}
	if !cfg.IsWarningEnabled(config.WarnNakedValue) {
		t.Errorf("naked-value should be enabled by the document")
	}
	if sym := ws.Symbols().ByID("v"); sym == nil || sym.DisplayName() != "total" {
		t.Fatalf("expected variable 'total', got %+v", sym)
	}

	g, err := codegen.New(cfg, codegen.Builtins())
	if err != nil {
		t.Fatalf("codegen.New: %v", err)
	}
	got, err := g.Generate(ws)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff("total = 3;\n", got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestUntypedVariable(t *testing.T) {
	ws, cfg := load(t, `{
	  "variables": [{"id": "v", "name": "x"}],
	  "blocks": [
	    {"type": "variables_set", "id": "set", "fields": {"VAR": "v"},
	     "inputs": {"VALUE": {"type": "math_number", "fields": {"NUM": "5"}}}}
	  ]
	}`)
	if check := ws.Block("set").Input("VALUE").Check; check != nil {
		t.Errorf("expected a local setter to accept any value, got check %v", check)
	}

	g, err := codegen.New(cfg, codegen.Builtins())
	if err != nil {
		t.Fatalf("codegen.New: %v", err)
	}
	got, err := g.Generate(ws)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff("x = 5;\n", got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"UnknownType", `{"blocks": [{"type": "logic_boolean"}]}`, block.ErrUnknownType},
		{"UnknownField", `{"blocks": [{"type": "math_number", "fields": {"NUMBER": "1"}}]}`, block.ErrNoField},
		{"UnknownInput", `{"blocks": [{"type": "math_single", "inputs": {"X": {"type": "math_number"}}}]}`, ErrUnknownInput},
		{"DuplicateID", `{"blocks": [{"type": "math_number", "id": "n"}, {"type": "math_number", "id": "n"}]}`, block.ErrDuplicateID},
		{"Incompatible", `{"blocks": [{"type": "contract", "inputs": {"STATES": {"type": "contract_method"}}}]}`, block.ErrIncompatible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(strings.NewReader(tt.src))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if err := doc.Build(block.NewWorkspace()); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("UnknownKey", func(t *testing.T) {
		if _, err := Parse(strings.NewReader(`{"blocks": [], "xml": ""}`)); err == nil {
			t.Errorf("expected an error for an unknown key")
		}
	})

	t.Run("UnknownFlag", func(t *testing.T) {
		doc, err := Parse(strings.NewReader(`{"flags": ["Fno-comments", "Fsparkles"], "blocks": []}`))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if err := doc.Configure(config.NewConfig()); err == nil {
			t.Errorf("expected an error for an unknown flag")
		}
	})

	t.Run("BadVariableType", func(t *testing.T) {
		doc, err := Parse(strings.NewReader(`{"variables": [{"id": "v", "name": "x", "type": "TYPE_STRING"}], "blocks": []}`))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if err := doc.Build(block.NewWorkspace()); err == nil {
			t.Errorf("expected an error for an unknown variable type")
		}
	})
}
