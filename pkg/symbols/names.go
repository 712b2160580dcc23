package symbols

import (
	"regexp"
	"strconv"
)

// NameKind separates the namespaces of the scratch database.
type NameKind int

const (
	NameVariable NameKind = iota
	NameProcedure
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Names is the per-generation naming scratch state: it hands out legal,
// distinct identifiers for local variables and generated helpers.
type Names struct {
	reserved map[string]bool
	db       map[nameKey]string
	used     map[string]bool
}

type nameKey struct {
	name string
	kind NameKind
}

func NewNames(reserved []string) *Names {
	n := &Names{reserved: make(map[string]bool)}
	for _, w := range reserved {
		n.reserved[w] = true
	}
	n.Reset()
	return n
}

func (n *Names) Reset() {
	n.db = make(map[nameKey]string)
	n.used = make(map[string]bool)
}

// Name returns the identifier assigned to name, allocating one on first use.
func (n *Names) Name(name string, kind NameKind) string {
	key := nameKey{name, kind}
	if safe, ok := n.db[key]; ok {
		return safe
	}
	safe := n.DistinctName(name, kind)
	n.db[key] = safe
	return safe
}

// DistinctName returns an identifier not handed out before in this session
// and not reserved: foo, foo2, foo3, ...
func (n *Names) DistinctName(name string, kind NameKind) string {
	safe := SafeName(name)
	candidate := safe
	for i := 2; n.used[candidate] || n.reserved[candidate]; i++ {
		candidate = safe + strconv.Itoa(i)
	}
	n.used[candidate] = true
	return candidate
}

// SafeName turns arbitrary text into a legal identifier.
func SafeName(name string) string {
	if name == "" {
		return "unnamed"
	}
	safe := unsafeChars.ReplaceAllString(name, "_")
	if safe[0] >= '0' && safe[0] <= '9' {
		safe = "my_" + safe
	}
	return safe
}
