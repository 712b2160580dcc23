package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	fs := NewFlagSet("test")
	var (
		out    string
		wrap   int
		dump   bool
		skip   []string
		strict bool
	)
	fs.String(&out, "output", "o", "", "Output file.", "file")
	fs.Int(&wrap, "wrap", "", 60, "Comment wrap column.", "n")
	fs.Bool(&dump, "dump-symbols", "d", false, "Dump symbols.")
	fs.Bool(&strict, "pedantic", "", false, "Issue every warning.")
	fs.List(&skip, "skip", "s", "Skip a fixture.", "file")

	err := fs.Parse([]string{"-o", "out.sol", "--wrap=40", "-d", "-sa.json", "-s", "b.json", "-pedantic", "rest", "--", "-x"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if out != "out.sol" || wrap != 40 || !dump || !strict {
		t.Errorf("unexpected values: out=%q wrap=%d dump=%v pedantic=%v", out, wrap, dump, strict)
	}
	if diff := cmp.Diff([]string{"a.json", "b.json"}, skip); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"rest", "-x"}, fs.Args()); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	fs := NewFlagSet("test")
	var (
		n int
		v bool
	)
	fs.Int(&n, "jobs", "j", 1, "Workers.", "n")
	fs.Bool(&v, "verbose", "v", false, "Chatty.")

	for _, args := range [][]string{{"--jobs=x"}, {"--nope"}, {"-j"}, {"-q"}, {"-vx"}, {"--verbose=maybe"}} {
		if err := fs.Parse(args); err == nil {
			t.Errorf("Parse(%v): expected an error", args)
		}
	}
}

func TestArgCount(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		args     []string
		wantErr  bool
	}{
		{"ExactlyOne", 1, 1, []string{"a.json"}, false},
		{"Missing", 1, 1, nil, true},
		{"TooMany", 1, 1, []string{"a.json", "b.json"}, true},
		{"Unbounded", 0, -1, []string{"a", "b", "c"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp("blocksol")
			app.MinArgs, app.MaxArgs = tt.min, tt.max
			var out, errOut bytes.Buffer
			app.Stdout, app.Stderr = &out, &errOut
			ran := false
			app.Action = func([]string) error { ran = true; return nil }

			err := app.Run(tt.args)
			if tt.wantErr {
				if !errors.Is(err, ErrArgCount) {
					t.Errorf("expected %v, got %v", ErrArgCount, err)
				}
				if ran {
					t.Errorf("action ran with a bad argument count")
				}
				return
			}
			if err != nil || !ran {
				t.Errorf("expected the action to run, got err=%v ran=%v", err, ran)
			}
		})
	}
}

func TestHelpPage(t *testing.T) {
	app := NewApp("blocksol")
	app.Synopsis = "[options] <workspace.json>"
	app.Authors = []string{"someone"}
	app.MinArgs = 1
	var out, errOut bytes.Buffer
	app.Stdout, app.Stderr = &out, &errOut

	enabled, disabled := true, false
	app.FlagSet.AddGroup(FlagGroup{Title: "Warning Flags", Prefix: "W", Kind: "warning", Entries: []GroupEntry{
		{Name: "bad-number", Usage: "Warn on bad numbers.", Enabled: &enabled, Disabled: &disabled},
	}})

	ran := false
	app.Action = func([]string) error { ran = true; return nil }
	if err := app.Run([]string{"--help"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ran {
		t.Errorf("action ran after --help")
	}
	page := out.String()
	for _, want := range []string{"Synopsis", "blocksol <options> <workspace.json>", "Warning Flags", "-W<warning>", "bad-number", "|x|", "someone and contributors"} {
		if !strings.Contains(page, want) {
			t.Errorf("help page is missing %q", want)
		}
	}
	if strings.Contains(page, "--Wbad-number") {
		t.Errorf("group flags should not be listed as options")
	}
}

func TestUsageOnError(t *testing.T) {
	app := NewApp("soltest")
	app.Synopsis = "[options] <fixtures>"
	var out, errOut bytes.Buffer
	app.Stdout, app.Stderr = &out, &errOut

	if err := app.Run([]string{"--bogus"}); err == nil {
		t.Fatalf("expected an error")
	}
	if !strings.Contains(errOut.String(), "Usage: soltest [options] <fixtures>") {
		t.Errorf("usage page not printed: %q", errOut.String())
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"a bb ccc dddd", 6, []string{"a bb", "ccc", "dddd"}},
		{"unbreakable", 4, []string{"unbreakable"}},
		{"  ", 10, nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, wrapText(tt.text, tt.width)); diff != "" {
			t.Errorf("wrapText(%q, %d) mismatch (-want +got):\n%s", tt.text, tt.width, diff)
		}
	}
}
