// Command report_gen merges `go test -json` output with the TestPurpose
// annotations found above each test function.
//
//	go test -json ./... > test.json
//	go run ./scripts/testing -input test.json -out-json report.json -out-md report.md
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TestMetadata is the annotation block of one test function.
type TestMetadata struct {
	Name       string `json:"name"`
	Purpose    string `json:"purpose,omitempty"`
	Scope      string `json:"scope,omitempty"`
	Security   string `json:"security,omitempty"`
	Expected   string `json:"expected,omitempty"`
	TestCaseID string `json:"test_case_id,omitempty"`
	Package    string `json:"package"`
	Category   string `json:"category"`
}

// GoTestEvent is one line of `go test -json`.
type GoTestEvent struct {
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test"`
	Elapsed float64 `json:"Elapsed"`
	Output  string  `json:"Output"`
}

type Result struct {
	Name        string       `json:"name"`
	Status      string       `json:"status"`
	Elapsed     float64      `json:"elapsed_seconds"`
	Package     string       `json:"package"`
	Failure     string       `json:"failure_reason,omitempty"`
	Annotations TestMetadata `json:"annotations"`
}

type Summary struct {
	GeneratedAt time.Time `json:"generated_at"`
	Total       int       `json:"total"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Results     []Result  `json:"results"`
}

var annotationKeys = []string{"TestPurpose:", "Scope:", "Security:", "Expected:", "Test Case ID:"}

func main() {
	input := flag.String("input", "", "go test -json output")
	outJSON := flag.String("out-json", "", "JSON report path")
	outMD := flag.String("out-md", "", "Markdown report path")
	title := flag.String("title", "Test Report", "report title")
	category := flag.String("category", "", "only include this category")
	flag.Parse()

	if *input == "" || (*outJSON == "" && *outMD == "") {
		fmt.Fprintln(os.Stderr, "usage: report_gen -input test.json [-out-json report.json] [-out-md report.md]")
		os.Exit(2)
	}

	module, err := modulePath("go.mod")
	if err != nil {
		fmt.Fprintf(os.Stderr, "report_gen: %v\n", err)
		os.Exit(1)
	}
	meta := scanAnnotations(module)
	results, err := readResults(*input, meta)
	if err != nil {
		fmt.Fprintf(os.Stderr, "report_gen: %v\n", err)
		os.Exit(1)
	}
	if *category != "" {
		kept := results[:0]
		for _, r := range results {
			if strings.EqualFold(r.Annotations.Category, *category) {
				kept = append(kept, r)
			}
		}
		results = kept
	}

	summary := summarize(results)
	if *outJSON != "" {
		if err := writeJSON(summary, *outJSON); err != nil {
			fmt.Fprintf(os.Stderr, "report_gen: %v\n", err)
			os.Exit(1)
		}
	}
	if *outMD != "" {
		if err := os.WriteFile(*outMD, []byte(markdown(summary, *title)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "report_gen: %v\n", err)
			os.Exit(1)
		}
	}

	if summary.Failed > 0 {
		fmt.Printf("%d of %d tests failed\n", summary.Failed, summary.Total)
		os.Exit(1)
	}
}

func modulePath(gomod string) (string, error) {
	data, err := os.ReadFile(gomod)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "module "); ok {
			return strings.TrimSpace(rest), nil
		}
	}
	return "", fmt.Errorf("no module line in %s", gomod)
}

func scanAnnotations(module string) map[string]TestMetadata {
	out := make(map[string]TestMetadata)
	fset := token.NewFileSet()

	_ = filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && (strings.HasPrefix(d.Name(), "_") || d.Name() == ".git" || d.Name() == "vendor") {
			return filepath.SkipDir
		}
		if d.IsDir() || !strings.HasSuffix(path, "_test.go") {
			return nil
		}
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil
		}
		pkg := module
		if dir := filepath.ToSlash(filepath.Dir(path)); dir != "." {
			pkg += "/" + dir
		}
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || !strings.HasPrefix(fn.Name.Name, "Test") || fn.Name.Name == "TestMain" {
				continue
			}
			m := TestMetadata{Name: fn.Name.Name, Package: pkg, Category: categoryOf(pkg)}
			if fn.Doc != nil {
				for _, c := range fn.Doc.List {
					annotate(&m, strings.TrimSpace(strings.TrimPrefix(c.Text, "//")))
				}
			}
			out[pkg+"."+fn.Name.Name] = m
		}
		return nil
	})
	return out
}

func annotate(m *TestMetadata, line string) {
	for _, key := range annotationKeys {
		value, ok := strings.CutPrefix(line, key)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "TestPurpose:":
			m.Purpose = value
		case "Scope:":
			m.Scope = value
		case "Security:":
			m.Security = value
		case "Expected:":
			m.Expected = value
		case "Test Case ID:":
			m.TestCaseID = value
		}
		return
	}
}

func categoryOf(pkg string) string {
	switch {
	case strings.HasSuffix(pkg, "/tenant"), strings.HasSuffix(pkg, "/authz"):
		return "Tenancy"
	case strings.HasSuffix(pkg, "/oidc"):
		return "AuthN"
	case strings.HasSuffix(pkg, "/sqlscope"), strings.Contains(pkg, "/store/"):
		return "Storage"
	case strings.HasSuffix(pkg, "/ledger"):
		return "Ledger"
	case strings.HasSuffix(pkg, "/cache"), strings.HasSuffix(pkg, "/events"):
		return "Cache"
	case strings.Contains(pkg, "/transport/"):
		return "API"
	case strings.Contains(pkg, "/observability/"), strings.HasSuffix(pkg, "/audit"):
		return "Observability"
	}
	return "Other"
}

func readResults(path string, meta map[string]TestMetadata) ([]Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	states := make(map[string]*Result, len(meta))
	for key, m := range meta {
		states[key] = &Result{Name: m.Name, Package: m.Package, Status: "not run", Annotations: m}
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var ev GoTestEvent
		if json.Unmarshal(sc.Bytes(), &ev) != nil || ev.Test == "" {
			continue
		}
		key := ev.Package + "." + ev.Test
		res, ok := states[key]
		if !ok {
			parent, _, _ := strings.Cut(ev.Test, "/")
			ann := meta[ev.Package+"."+parent]
			ann.Name = ev.Test
			ann.Package = ev.Package
			if ann.Category == "" {
				ann.Category = "Other"
			}
			res = &Result{Name: ev.Test, Package: ev.Package, Annotations: ann}
			states[key] = res
		}
		switch ev.Action {
		case "pass", "fail":
			res.Status = ev.Action
			res.Elapsed = ev.Elapsed
		case "skip":
			res.Status = "skip"
		case "output":
			if res.Status != "pass" {
				res.Failure += ev.Output
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	list := make([]Result, 0, len(states))
	for _, r := range states {
		if r.Status != "fail" {
			r.Failure = ""
		}
		list = append(list, *r)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Package != list[j].Package {
			return list[i].Package < list[j].Package
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func summarize(results []Result) Summary {
	s := Summary{GeneratedAt: time.Now().UTC(), Results: results}
	for _, r := range results {
		s.Total++
		switch r.Status {
		case "pass":
			s.Passed++
		case "fail":
			s.Failed++
		case "skip":
			s.Skipped++
		}
	}
	return s
}

func writeJSON(s Summary, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func markdown(s Summary, title string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# myAdmin %s\n\n", title)
	fmt.Fprintf(&sb, "Generated %s. **%d** tests: %d passed, %d failed, %d skipped.\n\n",
		s.GeneratedAt.Format(time.RFC3339), s.Total, s.Passed, s.Failed, s.Skipped)

	byCategory := make(map[string][]Result)
	for _, r := range s.Results {
		byCategory[r.Annotations.Category] = append(byCategory[r.Annotations.Category], r)
	}
	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	for _, c := range cats {
		fmt.Fprintf(&sb, "## %s\n\n", c)
		sb.WriteString("| ID | Test | Status | Purpose | Security |\n|---|---|---|---|---|\n")
		for _, r := range byCategory[c] {
			fmt.Fprintf(&sb, "| %s | `%s` | %s | %s | %s |\n",
				r.Annotations.TestCaseID, r.Name, status(r.Status), r.Annotations.Purpose, r.Annotations.Security)
		}
		sb.WriteString("\n")
	}

	for _, r := range s.Results {
		if r.Status == "fail" {
			fmt.Fprintf(&sb, "### FAIL %s\n\n```\n%s```\n\n", r.Name, r.Failure)
		}
	}
	return sb.String()
}

func status(s string) string {
	switch s {
	case "pass":
		return "✅ pass"
	case "fail":
		return "❌ fail"
	case "skip":
		return "⏭ skip"
	}
	return s
}
