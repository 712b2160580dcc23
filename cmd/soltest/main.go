// Command soltest runs workspace fixtures through the generator and
// compares the result with golden files: foo.json is expected to produce
// foo.sol, or to fail with the error text in foo.err.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/blocksol/pkg/block"
	"github.com/xplshn/blocksol/pkg/cli"
	"github.com/xplshn/blocksol/pkg/codegen"
	"github.com/xplshn/blocksol/pkg/config"
	"github.com/xplshn/blocksol/pkg/loader"
	"github.com/xplshn/blocksol/pkg/scope"
	"github.com/xplshn/blocksol/pkg/util"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	Pass  Status = "PASS"
	Fail  Status = "FAIL"
	Skip  Status = "SKIP"
	Error Status = "ERROR"
)

type FixtureResult struct {
	File     string        `json:"file"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Diff     string        `json:"diff,omitempty"`
	Hash     string        `json:"hash,omitempty"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output,omitempty"`
}

func (r *FixtureResult) failed() bool { return r.Status == Fail || r.Status == Error }

// Report maps fixture paths to their results. It is what the JSON report
// file holds.
type Report map[string]*FixtureResult

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

type runner struct {
	report   string
	jobs     int
	verbose  bool
	cached   bool
	update   bool
	skip     []string
	ignore   []string
	previous Report
}

func main() {
	log.SetFlags(0)

	app := cli.NewApp("soltest")
	app.Synopsis = "[options] [fixture patterns...]"
	app.Description = "Generates every workspace fixture and compares it with its .sol or .err golden file."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/blocksol>"
	app.Since = 2025

	var r runner
	fs := app.FlagSet
	fs.String(&r.report, "output", "o", ".soltest_results.json", "Write the JSON report to <file>.", "file")
	fs.Int(&r.jobs, "jobs", "j", 4, "Run <n> fixtures in parallel.", "n")
	fs.Bool(&r.verbose, "verbose", "v", false, "Show generation times.")
	fs.Bool(&r.cached, "cached", "", false, "Skip fixtures unchanged since their last passing run.")
	fs.Bool(&r.update, "update", "u", false, "Rewrite golden files with the current output.")
	fs.List(&r.skip, "skip", "s", "Skip <file>. May be repeated.", "file")
	fs.List(&r.ignore, "ignore-lines", "", "Ignore output lines containing <text>. May be repeated.", "text")

	app.Action = func(patterns []string) error {
		if len(patterns) == 0 {
			patterns = []string{"testdata/*.json"}
		}
		r.jobs = max(r.jobs, 1)
		// Diagnostics of concurrent runs would interleave.
		util.SetOutput(io.Discard)

		files, err := expandGlobPatterns(patterns)
		if err != nil {
			log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
		}
		if len(files) == 0 {
			log.Println("No fixtures found matching the pattern(s).")
			return nil
		}
		r.loadPrevious()

		results := r.run(files)
		printSummary(results, r.verbose)
		if r.writeReport(results).failed() {
			os.Exit(1)
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func (r *runner) loadPrevious() {
	r.previous = make(Report)
	data, err := os.ReadFile(r.report)
	if err != nil {
		return
	}
	if json.Unmarshal(data, &r.previous) != nil {
		log.Printf("%s[WARN]%s Could not parse previous results file %s. Cache will not be used.\n", cYellow, cNone, r.report)
		r.previous = make(Report)
	}
}

// run tests files on a pool of r.jobs workers. Fixtures whose content
// repeats an earlier one are skipped.
func (r *runner) run(files []string) []*FixtureResult {
	skipped := make(map[string]bool, len(r.skip))
	for _, f := range r.skip {
		skipped[f] = true
	}

	out := make(chan *FixtureResult, len(files))
	var pool errgroup.Group
	pool.SetLimit(r.jobs)

	seen := make(map[string]string)
	for _, file := range files {
		if skipped[file] {
			out <- &FixtureResult{File: file, Status: Skip, Message: "Explicitly skipped"}
			continue
		}
		hash, err := hashFiles(file)
		if err != nil {
			out <- &FixtureResult{File: file, Status: Error, Message: fmt.Sprintf("Failed to read fixture for hashing: %v", err)}
			continue
		}
		if first, dup := seen[hash]; dup {
			out <- &FixtureResult{File: file, Status: Skip, Message: fmt.Sprintf("Content is identical to %s", first)}
			continue
		}
		seen[hash] = file
		file := file
		pool.Go(func() error {
			out <- r.testFile(file, hash)
			return nil
		})
	}
	pool.Wait()
	close(out)

	var results []*FixtureResult
	for res := range out {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })
	return results
}

// goldenPaths returns the expected-output file and the expected-error file
// of a fixture: foo.json pairs with foo.sol or foo.err.
func goldenPaths(fixture string) (sol, errFile string) {
	base := strings.TrimSuffix(fixture, filepath.Ext(fixture))
	return base + ".sol", base + ".err"
}

// hashFiles computes the xxhash of a fixture together with whichever
// golden files exist next to it.
func hashFiles(fixture string) (string, error) {
	h := xxhash.New()
	sol, errFile := goldenPaths(fixture)
	for i, path := range []string{fixture, sol, errFile} {
		f, err := os.Open(path)
		if err != nil {
			if i > 0 && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", err
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", err
		}
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

// generate loads a fixture into a fresh workspace and generates it with
// the flags the fixture carries.
func generate(fixture string) (string, error) {
	doc, err := loader.ReadFile(fixture)
	if err != nil {
		return "", err
	}
	cfg := config.NewConfig()
	if err := doc.Configure(cfg); err != nil {
		return "", err
	}
	ws := block.NewWorkspace()
	scope.New(ws, cfg)
	if err := doc.Build(ws); err != nil {
		return "", err
	}
	g, err := codegen.New(cfg, codegen.Builtins())
	if err != nil {
		return "", err
	}
	return g.Generate(ws)
}

func (r *runner) testFile(file, hash string) *FixtureResult {
	if prev := r.previous[file]; r.cached && !r.update && prev != nil && prev.Status == Pass && prev.Hash == hash {
		return &FixtureResult{File: file, Status: Pass, Message: "Unchanged since last passing run (cached)", Hash: hash}
	}

	start := time.Now()
	code, genErr := generate(file)
	res := &FixtureResult{File: file, Hash: hash, Duration: time.Since(start), Output: code}

	sol, errFile := goldenPaths(file)
	if r.update {
		return updateGolden(res, code, genErr, sol, errFile)
	}

	if expected, err := os.ReadFile(errFile); err == nil {
		want := strings.TrimSpace(string(expected))
		switch {
		case genErr == nil:
			res.Status, res.Message = Fail, "Generation succeeded, but an error was expected"
			res.Diff = fmt.Sprintf("Expected error:\n%s\n", want)
		case genErr.Error() != want:
			res.Status, res.Message = Fail, "Generation failed with a different error"
			res.Diff = cmp.Diff(want, genErr.Error())
		default:
			res.Status, res.Message = Pass, "Failed as expected"
		}
		return res
	}

	expected, err := os.ReadFile(sol)
	if err != nil {
		res.Status, res.Message = Skip, "Cannot test without a corresponding .sol or .err golden file"
		return res
	}
	if genErr != nil {
		res.Status, res.Message = Fail, "Generation failed, but golden file expected success"
		res.Diff = genErr.Error()
		return res
	}
	if filterOutput(string(expected), r.ignore) != filterOutput(code, r.ignore) {
		res.Status, res.Message = Fail, "Generated source differs from golden file"
		// The diff is of the unfiltered text.
		res.Diff = cmp.Diff(string(expected), code)
		return res
	}
	res.Status, res.Message = Pass, "Generated source matches golden file"
	return res
}

// updateGolden writes whichever golden file matches the outcome and
// removes the other one.
func updateGolden(res *FixtureResult, code string, genErr error, sol, errFile string) *FixtureResult {
	target, data, stale := sol, code, errFile
	if genErr != nil {
		target, data, stale = errFile, genErr.Error()+"\n", sol
	}
	if err := os.WriteFile(target, []byte(data), 0644); err != nil {
		res.Status, res.Message = Error, fmt.Sprintf("Could not write golden file %s: %v", target, err)
		return res
	}
	if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		res.Status, res.Message = Error, fmt.Sprintf("Could not remove stale golden file %s: %v", stale, err)
		return res
	}
	if hash, err := hashFiles(res.File); err == nil {
		res.Hash = hash
	}
	res.Status, res.Message = Pass, fmt.Sprintf("Golden file written to %s", target)
	return res
}

// filterOutput drops the lines containing any of ignored.
func filterOutput(output string, ignored []string) string {
	if len(ignored) == 0 || output == "" {
		return output
	}
	var kept []string
	for _, line := range strings.Split(output, "\n") {
		if !containsAny(line, ignored) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%6dµs", d.Microseconds())
	}
	return fmt.Sprintf("%6dms", d.Milliseconds())
}

const rule = "----------------------------------------------------------------------"

func printSummary(results []*FixtureResult, verbose bool) {
	counts := make(map[Status]int)
	var total time.Duration

	for _, res := range results {
		fmt.Println(rule)
		fmt.Printf("Testing %s%s%s...\n", cCyan, res.File, cNone)
		color := cGreen
		switch res.Status {
		case Fail, Error:
			color = cRed
		case Skip:
			color = cYellow
		}
		fmt.Printf("  [%s%s%s] %s\n", color, res.Status, cNone, res.Message)
		if res.Status == Fail {
			fmt.Println(formatDiff(res.Diff))
		}
		counts[res.Status]++
		total += res.Duration
		if verbose && res.Duration > 0 {
			fmt.Printf("  [generate: %s]\n", formatDuration(res.Duration))
		}
	}

	fmt.Println(rule)
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, counts[Pass], cNone, cRed, counts[Fail], cNone, cYellow, counts[Skip], cNone, cRed, counts[Error], cNone, len(results))
	if verbose {
		fmt.Printf("Total generation time: %s\n", formatDuration(total))
	}
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		switch t := strings.TrimSpace(line); {
		case strings.HasPrefix(t, "-"):
			sb.WriteString(cRed)
		case strings.HasPrefix(t, "+"):
			sb.WriteString(cGreen)
		}
		sb.WriteString("    " + line + cNone + "\n")
	}
	return sb.String()
}

func (r *runner) writeReport(results []*FixtureResult) Report {
	report := make(Report, len(results))
	for _, res := range results {
		report[res.File] = res
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return report
	}
	if err := os.WriteFile(r.report, data, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, r.report, err)
	} else {
		fmt.Printf("Full test report saved to %s\n", r.report)
	}
	return report
}

func (rep Report) failed() bool {
	for _, res := range rep {
		if res.failed() {
			return true
		}
	}
	return false
}

func expandGlobPatterns(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range matches {
			if seen[file] {
				continue
			}
			if info, err := os.Stat(file); err == nil && info.Mode().IsRegular() {
				files = append(files, file)
				seen[file] = true
			}
		}
	}
	return files, nil
}
