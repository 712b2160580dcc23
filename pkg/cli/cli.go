// Package cli parses command lines of the form
//
//	name [options] [-W<warning>] [-F<feature>] args...
//
// and renders the usage and help pages of the blocksol tools.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
)

var ErrArgCount = errors.New("wrong number of arguments")

// Value is the storage behind a flag.
type Value interface {
	String() string
	Set(string) error
}

type stringValue struct{ p *string }

func (v stringValue) Set(s string) error { *v.p = s; return nil }
func (v stringValue) String() string     { return *v.p }

type boolValue struct{ p *bool }

func (v boolValue) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean '%s'", s)
	}
	*v.p = b
	return nil
}
func (v boolValue) String() string { return strconv.FormatBool(*v.p) }

type intValue struct{ p *int }

func (v intValue) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer '%s'", s)
	}
	*v.p = n
	return nil
}
func (v intValue) String() string { return strconv.Itoa(*v.p) }

// listValue collects every occurrence of a repeatable flag.
type listValue struct{ p *[]string }

func (v listValue) Set(s string) error { *v.p = append(*v.p, s); return nil }
func (v listValue) String() string     { return strings.Join(*v.p, ",") }

func isBool(v Value) bool {
	_, ok := v.(boolValue)
	return ok
}

type Flag struct {
	Name        string
	Short       string
	Usage       string
	Value       Value
	Default     string
	Placeholder string // shown as --name <placeholder> on the help page
}

// GroupEntry is one member of a flag group. Parsing sets Enabled for
// -<prefix><name> and Disabled for -<prefix>no-<name>.
type GroupEntry struct {
	Name     string
	Usage    string
	Enabled  *bool
	Disabled *bool
}

// FlagGroup is a family of on/off switches sharing a prefix, like the
// -W warnings and -F features.
type FlagGroup struct {
	Title   string
	Prefix  string
	Kind    string
	Entries []GroupEntry
}

func (g FlagGroup) owns(name string) bool {
	rest, ok := strings.CutPrefix(name, g.Prefix)
	if !ok {
		return false
	}
	rest = strings.TrimPrefix(rest, "no-")
	for _, e := range g.Entries {
		if e.Name == rest {
			return true
		}
	}
	return false
}

type FlagSet struct {
	name   string
	flags  map[string]*Flag
	short  map[string]*Flag
	args   []string
	groups []FlagGroup
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{
		name:  name,
		flags: make(map[string]*Flag),
		short: make(map[string]*Flag),
	}
}

// Args returns the arguments left after the flags.
func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) String(p *string, name, short, value, usage, placeholder string) {
	*p = value
	f.Var(stringValue{p}, name, short, usage, value, placeholder)
}

func (f *FlagSet) Bool(p *bool, name, short string, value bool, usage string) {
	*p = value
	f.Var(boolValue{p}, name, short, usage, strconv.FormatBool(value), "")
}

func (f *FlagSet) Int(p *int, name, short string, value int, usage, placeholder string) {
	*p = value
	f.Var(intValue{p}, name, short, usage, strconv.Itoa(value), placeholder)
}

// List defines a repeatable flag; each occurrence appends to *p.
func (f *FlagSet) List(p *[]string, name, short string, usage, placeholder string) {
	*p = nil
	f.Var(listValue{p}, name, short, usage, "", placeholder)
}

// Var defines a flag. Redefining a name or a shorthand panics.
func (f *FlagSet) Var(v Value, name, short, usage, def, placeholder string) {
	if name == "" {
		panic("cli: empty flag name")
	}
	if _, dup := f.flags[name]; dup {
		panic("cli: flag redefined: " + name)
	}
	fl := &Flag{Name: name, Short: short, Usage: usage, Value: v, Default: def, Placeholder: placeholder}
	f.flags[name] = fl
	if short == "" {
		return
	}
	if _, dup := f.short[short]; dup {
		panic("cli: shorthand redefined: " + short)
	}
	f.short[short] = fl
}

// AddGroup defines -<prefix><name> and -<prefix>no-<name> for every entry
// that has the corresponding pointer set.
func (f *FlagSet) AddGroup(g FlagGroup) {
	for _, e := range g.Entries {
		if e.Enabled != nil {
			f.Bool(e.Enabled, g.Prefix+e.Name, "", *e.Enabled, e.Usage)
		}
		if e.Disabled != nil {
			f.Bool(e.Disabled, g.Prefix+"no-"+e.Name, "", *e.Disabled, "Disable '"+e.Name+"'")
		}
	}
	f.groups = append(f.groups, g)
}

// Parse accepts --name, --name=value, -name, -name=value, -x, -xvalue and
// "-x value". Everything after "--" is an argument.
func (f *FlagSet) Parse(arguments []string) error {
	f.args = nil
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		if arg == "--" {
			f.args = append(f.args, arguments[i+1:]...)
			return nil
		}
		if len(arg) < 2 || arg[0] != '-' {
			f.args = append(f.args, arg)
			continue
		}

		fl, value, hasValue, err := f.resolve(arg)
		if err != nil {
			return err
		}
		if !hasValue {
			switch {
			case isBool(fl.Value):
				value = "true"
			case i+1 < len(arguments):
				i++
				value = arguments[i]
			default:
				return fmt.Errorf("flag needs an argument: %s", arg)
			}
		}
		if err := fl.Value.Set(value); err != nil {
			return fmt.Errorf("flag %s: %w", arg, err)
		}
	}
	return nil
}

// resolve finds the flag named by arg and the value attached to it, if
// any. A single dash tries a full name first, then a shorthand.
func (f *FlagSet) resolve(arg string) (fl *Flag, value string, hasValue bool, err error) {
	if body, ok := strings.CutPrefix(arg, "--"); ok {
		name, value, hasValue := strings.Cut(body, "=")
		if fl = f.flags[name]; fl == nil {
			return nil, "", false, fmt.Errorf("unknown flag: --%s", name)
		}
		return fl, value, hasValue, nil
	}

	body := arg[1:]
	name, value, hasValue := strings.Cut(body, "=")
	if fl = f.flags[name]; fl != nil {
		return fl, value, hasValue, nil
	}
	fl = f.short[body[:1]]
	if fl == nil || (isBool(fl.Value) && len(body) > 1) {
		return nil, "", false, fmt.Errorf("unknown flag: %s", arg)
	}
	if len(body) > 1 {
		return fl, body[1:], true, nil
	}
	return fl, "", false, nil
}

type App struct {
	Name        string
	Synopsis    string
	Description string
	Authors     []string
	Repository  string
	Since       int
	// MinArgs and MaxArgs bound the positional arguments. A negative
	// MaxArgs means no upper bound.
	MinArgs int
	MaxArgs int
	FlagSet *FlagSet
	Action  func(args []string) error

	Stdout io.Writer
	Stderr io.Writer
}

func NewApp(name string) *App {
	return &App{
		Name:    name,
		MaxArgs: -1,
		FlagSet: NewFlagSet(name),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Run parses arguments and calls the action. Parse errors and a wrong
// argument count print the usage page to Stderr.
func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	err := a.FlagSet.Parse(arguments)
	if err == nil && !help {
		err = a.checkArgs(len(a.FlagSet.Args()))
	}
	if err != nil {
		fmt.Fprintln(a.Stderr, err)
		a.usagePage(a.Stderr)
		return err
	}
	if help {
		a.helpPage(a.Stdout)
		return nil
	}
	if a.Action == nil {
		return nil
	}
	return a.Action(a.FlagSet.Args())
}

func (a *App) checkArgs(n int) error {
	switch {
	case n < a.MinArgs:
		return fmt.Errorf("%w: expected at least %d, got %d", ErrArgCount, a.MinArgs, n)
	case a.MaxArgs >= 0 && n > a.MaxArgs:
		return fmt.Errorf("%w: expected at most %d, got %d", ErrArgCount, a.MaxArgs, n)
	}
	return nil
}

// options returns the flags that do not belong to a group, sorted by name.
func (a *App) options() []*Flag {
	var out []*Flag
	for _, fl := range a.FlagSet.flags {
		grouped := false
		for _, g := range a.FlagSet.groups {
			if g.owns(fl.Name) {
				grouped = true
				break
			}
		}
		if !grouped {
			out = append(out, fl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (a *App) usagePage(w io.Writer) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Usage: %s %s\n", a.Name, a.Synopsis)

	opts := a.options()
	if len(opts) > 0 {
		l := newLayout()
		for _, fl := range opts {
			l.fit(flagSpec(fl), fl.Usage)
		}
		fmt.Fprintf(&sb, "\n%sOptions\n", indent(1))
		for _, fl := range opts {
			l.row(&sb, flagSpec(fl), fl.Usage, flagDefault(fl))
		}
	}
	fmt.Fprintf(&sb, "\nRun '%s --help' for all available options and flags.\n", a.Name)
	io.WriteString(w, sb.String())
}

func (a *App) helpPage(w io.Writer) {
	var sb strings.Builder
	opts := a.options()

	l := newLayout()
	for _, fl := range opts {
		l.fit(flagSpec(fl), fl.Usage)
	}
	for _, g := range a.FlagSet.groups {
		l.fit(fmt.Sprintf("-%sno-<%s>", g.Prefix, g.Kind), "")
		for _, e := range g.Entries {
			l.fit(e.Name, e.Usage)
		}
	}

	now := time.Now().Year()
	years := strconv.Itoa(now)
	if a.Since != 0 && a.Since < now {
		years = fmt.Sprintf("%d-%d", a.Since, now)
	}
	fmt.Fprintf(&sb, "\n%sCopyright (c) %s: %s\n", indent(1), years, strings.Join(a.Authors, ", ")+" and contributors")
	if a.Repository != "" {
		fmt.Fprintf(&sb, "%sFor more details refer to %s\n", indent(1), a.Repository)
	}
	if a.Synopsis != "" {
		synopsis := strings.NewReplacer("[", "<", "]", ">").Replace(a.Synopsis)
		fmt.Fprintf(&sb, "\n%sSynopsis\n%s%s %s\n", indent(1), indent(2), a.Name, synopsis)
	}
	if a.Description != "" {
		fmt.Fprintf(&sb, "\n%sDescription\n%s%s\n", indent(1), indent(2), a.Description)
	}

	if len(opts) > 0 {
		fmt.Fprintf(&sb, "\n%sOptions\n", indent(1))
		for _, fl := range opts {
			l.row(&sb, flagSpec(fl), fl.Usage, flagDefault(fl))
		}
	}

	groups := append([]FlagGroup(nil), a.FlagSet.groups...)
	sort.Slice(groups, func(i, j int) bool { return groups[i].Title < groups[j].Title })
	for _, g := range groups {
		fmt.Fprintf(&sb, "\n%s%s\n", indent(1), g.Title)
		l.row(&sb, fmt.Sprintf("-%s<%s>", g.Prefix, g.Kind), "Enable a specific "+g.Kind, "")
		l.row(&sb, fmt.Sprintf("-%sno-<%s>", g.Prefix, g.Kind), "Disable a specific "+g.Kind, "")
		fmt.Fprintf(&sb, "%sAvailable %ss:\n", indent(1), g.Kind)

		entries := append([]GroupEntry(nil), g.Entries...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		for _, e := range entries {
			state := "|-|"
			if e.Enabled != nil && *e.Enabled && (e.Disabled == nil || !*e.Disabled) {
				state = "|x|"
			}
			l.row(&sb, e.Name, e.Usage, state)
		}
	}
	io.WriteString(w, sb.String())
}

// flagSpec renders how a flag is spelled, e.g. "-o <file>, --output <file>".
func flagSpec(fl *Flag) string {
	arg := ""
	if !isBool(fl.Value) && fl.Placeholder != "" {
		arg = " <" + fl.Placeholder + ">"
	}
	if fl.Short == "" {
		return "--" + fl.Name + arg
	}
	return "-" + fl.Short + arg + ", --" + fl.Name + arg
}

func flagDefault(fl *Flag) string {
	if isBool(fl.Value) || fl.Default == "" {
		return ""
	}
	return "|" + fl.Default + "|"
}

const indentWidth = 4

func indent(level int) string { return strings.Repeat(" ", indentWidth*level) }

// layout aligns help rows into a flag column, a usage column wrapped to
// the terminal, and an optional trailing marker.
type layout struct {
	width int
	left  int
	usage int
}

func newLayout() *layout { return &layout{width: terminalWidth()} }

func (l *layout) fit(left, usage string) {
	l.left = max(l.left, len(left))
	l.usage = max(l.usage, len(usage))
}

func (l *layout) row(sb *strings.Builder, left, usage, right string) {
	room := l.width - len(indent(2)) - l.left - 1
	if right != "" {
		room -= len(right) + 2
	}
	room = max(room, 10)

	lines := wrapText(usage, room)
	first := ""
	if len(lines) > 0 {
		first = lines[0]
	}
	if right == "" {
		fmt.Fprintf(sb, "%s%-*s %s\n", indent(2), l.left, left, first)
	} else {
		fmt.Fprintf(sb, "%s%-*s %-*s  %s\n", indent(2), l.left, left, min(l.usage, room), first, right)
	}
	pad := strings.Repeat(" ", l.left+1)
	for _, line := range lines[min(1, len(lines)):] {
		fmt.Fprintf(sb, "%s%s%s\n", indent(2), pad, line)
	}
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return max(w, 20)
}

// wrapText greedily fills lines of at most width columns. A word longer
// than width gets a line of its own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
