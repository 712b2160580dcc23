package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type Feature int

const (
	FeatOneBasedIndex Feature = iota
	FeatComments
	FeatOutputTypes
	FeatDeleteSymbols
	FeatForceRedeclare
	FeatCount
)

type Warning int

const (
	WarnUnresolvedSymbol Warning = iota
	WarnDetachedCtor
	WarnBadNumber
	WarnNakedValue
	WarnPedantic
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning

	PragmaVersion string
	CommentWrap   int
	Indent        string
	ReservedWords []string
}

// reservedWords are names generated identifiers must never take.
var reservedWords = []string{
	"abstract", "after", "anonymous", "as", "assembly", "break", "case", "catch", "constant",
	"continue", "contract", "default", "delete", "do", "else", "enum", "event", "external",
	"final", "for", "function", "if", "import", "in", "indexed", "inline", "interface",
	"internal", "is", "let", "library", "mapping", "match", "memory", "modifier", "new",
	"null", "of", "payable", "pragma", "private", "public", "pure", "relocatable", "return",
	"returns", "static", "storage", "struct", "switch", "this", "throw", "try", "type",
	"typeof", "using", "var", "view", "while",
	"address", "bool", "byte", "bytes", "int", "string", "uint", "fixed", "ufixed",
	"msg", "block", "tx", "now", "sha3", "keccak256", "sha256", "ripemd160", "ecrecover",
	"addmod", "mulmod", "selfdestruct", "suicide", "super", "true", "false", "wei", "ether",
	"finney", "szabo", "seconds", "minutes", "hours", "days", "weeks", "years",
	"Math",
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),

		PragmaVersion: "^0.4.2",
		CommentWrap:   60,
		Indent:        "  ",
		ReservedWords: append([]string(nil), reservedWords...),
	}

	features := map[Feature]Info{
		FeatOneBasedIndex:  {"one-based-index", false, "Treat list indices as one-based when adjusting numeric inputs."},
		FeatComments:       {"comments", true, "Emit block comments into the generated source."},
		FeatOutputTypes:    {"output-types", true, "Constrain getter outputs to the type of the symbol they read."},
		FeatDeleteSymbols:  {"delete-symbols", true, "Remove a symbol when its declaring block is deleted."},
		FeatForceRedeclare: {"force-redeclare", true, "Re-resolve a declaration's name when it moves into another scope."},
	}

	warnings := map[Warning]Info{
		WarnUnresolvedSymbol: {"unresolved-symbol", true, "Warn when a selector references a symbol that does not exist."},
		WarnDetachedCtor:     {"detached-ctor", true, "Warn when a constructor is not placed inside a contract."},
		WarnBadNumber:        {"bad-number", true, "Warn when a number field does not hold a number."},
		WarnNakedValue:       {"naked-value", false, "Warn about value blocks left at the top level."},
		WarnPedantic:         {"pedantic", false, "Issue every warning, including the noisy ones."},
		WarnExtra:            {"extra", true, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

var pragmaRe = regexp.MustCompile(`^(\^|>=|<=|>|<|=)?\d+\.\d+\.\d+$`)

// SetPragma sets the compiler version constraint written after `pragma solidity`.
func (c *Config) SetPragma(version string) error {
	version = strings.TrimSpace(version)
	if !pragmaRe.MatchString(version) {
		return fmt.Errorf("invalid pragma version '%s'. Expected something like '^0.4.2'", version)
	}
	c.PragmaVersion = version
	return nil
}

// SetCommentWrap sets the column block comments are wrapped at.
func (c *Config) SetCommentWrap(width int) error {
	if width < 10 {
		return fmt.Errorf("comment wrap width %d is too small, minimum is 10", width)
	}
	c.CommentWrap = width
	return nil
}

func (c *Config) SetIndent(spaces int) error {
	if spaces < 0 || spaces > 16 {
		return fmt.Errorf("indent of %d spaces is out of range [0, 16]", spaces)
	}
	c.Indent = strings.Repeat(" ", spaces)
	return nil
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// ApplyFlag applies one switch: -W<name>, -Wno-<name>, -Wall, -Wno-all,
// -pedantic, -F<name> or -Fno-<name>. It reports whether the switch names
// a known warning or feature.
func (c *Config) ApplyFlag(flag string) bool {
	body := strings.TrimPrefix(flag, "-")
	if body == "pedantic" {
		for w := Warning(0); w < WarnCount; w++ {
			c.SetWarning(w, true)
		}
		return true
	}
	if body == "" {
		return false
	}
	name, off := strings.CutPrefix(body[1:], "no-")
	switch body[0] {
	case 'W':
		if name == "all" {
			// -Wall leaves -pedantic alone.
			for w := Warning(0); w < WarnCount; w++ {
				if w != WarnPedantic {
					c.SetWarning(w, !off)
				}
			}
			return true
		}
		w, ok := c.WarningMap[name]
		if ok {
			c.SetWarning(w, !off)
		}
		return ok
	case 'F':
		f, ok := c.FeatureMap[name]
		if ok {
			c.SetFeature(f, !off)
		}
		return ok
	}
	return false
}

func umbrella(flag string) bool {
	switch strings.TrimPrefix(flag, "-") {
	case "Wall", "Wno-all", "pedantic":
		return true
	}
	return false
}

// ProcessFlagString applies a whitespace separated list of switches, as
// found in a workspace description's "flags" entry. -Wall, -Wno-all and
// -pedantic are applied before the rest whatever their position, so the
// individual switches refine them.
func (c *Config) ProcessFlagString(flagStr string) error {
	flags := strings.Fields(flagStr)
	sort.SliceStable(flags, func(i, j int) bool { return umbrella(flags[i]) && !umbrella(flags[j]) })
	for _, f := range flags {
		if !c.ApplyFlag(f) {
			return fmt.Errorf("unknown flag '%s'", f)
		}
	}
	return nil
}
