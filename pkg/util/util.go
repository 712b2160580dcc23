package util

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/xplshn/blocksol/pkg/block"
	"github.com/xplshn/blocksol/pkg/config"
)

var (
	output io.Writer = os.Stderr
	exit             = os.Exit
)

// SetOutput redirects diagnostics, returning the previous writer
func SetOutput(w io.Writer) io.Writer {
	prev := output
	output = w
	return prev
}

func location(b *block.Block) string {
	if b == nil {
		return "blocksol"
	}
	return "block " + b.String()
}

// Error prints a formatted error message and exits the program
func Error(b *block.Block, format string, args ...interface{}) {
	fmt.Fprintf(output, "%s: \033[31merror:\033[0m ", location(b))
	fmt.Fprintf(output, format, args...)
	fmt.Fprintln(output)
	exit(1)
}

// Warn prints a formatted warning message if the corresponding warning is enabled
func Warn(cfg *config.Config, wt config.Warning, b *block.Block, format string, args ...interface{}) {
	if cfg == nil || !cfg.IsWarningEnabled(wt) {
		return
	}
	fmt.Fprintf(output, "%s: \033[33mwarning:\033[0m ", location(b))
	fmt.Fprintf(output, format, args...)
	fmt.Fprintf(output, " [-W%s]\n", cfg.Warnings[wt].Name)
}

// PrefixLines puts prefix in front of every line of text. A trailing
// newline does not start a new line.
func PrefixLines(text, prefix string) string {
	if text == "" {
		return prefix
	}
	trailing := strings.HasSuffix(text, "\n")
	body := strings.TrimSuffix(text, "\n")
	out := prefix + strings.ReplaceAll(body, "\n", "\n"+prefix)
	if trailing {
		out += "\n"
	}
	return out
}

// Wrap breaks every line of text so that no line is longer than limit,
// splitting on spaces only. Existing line breaks are kept.
func Wrap(text string, limit int) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = wrapLine(line, limit)
	}
	return strings.Join(lines, "\n")
}

func wrapLine(line string, limit int) string {
	words := strings.Fields(line)
	if len(words) == 0 || limit <= 0 {
		return line
	}
	var sb strings.Builder
	cur := 0
	for _, w := range words {
		if cur > 0 && cur+1+len(w) > limit {
			sb.WriteString("\n")
			cur = 0
		}
		if cur > 0 {
			sb.WriteString(" ")
			cur++
		}
		sb.WriteString(w)
		cur += len(w)
	}
	return sb.String()
}

var numberRe = regexp.MustCompile(`^\s*-?\d+(\.\d+)?\s*$`)

// IsNumber reports whether s is a plain decimal literal such as "-3" or "2.5".
func IsNumber(s string) bool { return numberRe.MatchString(s) }

var leadingNumberRe = regexp.MustCompile(`^\s*[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)

// ParseNumber reads the leading number of s the way a lenient float parser
// does ("3.50" is 3.5, "12abc" is 12). ok is false when s does not start
// with a number.
func ParseNumber(s string) (f float64, ok bool) {
	m := leadingNumberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatNumber prints f in its shortest decimal form.
func FormatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
