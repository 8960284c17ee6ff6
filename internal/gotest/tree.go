package gotest

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AndreyAkinshin/ontap/internal/testparser"
)

// node is one test or subtest of a package.
type node struct {
	name     string // full name, "TestFoo/case"
	label    string // name relative to the parent
	children []*node
	action   string // terminal action, "" when the test never finished
	elapsed  float64
	end      time.Time
	output   []string
}

func (n *node) failed() bool {
	return n.action == testparser.ActionFail || n.action == ""
}

// descendantFailed reports whether any test below n failed.
func (n *node) descendantFailed() bool {
	for _, c := range n.children {
		if c.failed() || c.descendantFailed() {
			return true
		}
	}
	return false
}

// examples counts the test documents n produces.
func (n *node) examples() int {
	if len(n.children) == 0 {
		return 1
	}
	count := 0
	for _, c := range n.children {
		count += c.examples()
	}
	if n.failed() && !n.descendantFailed() {
		count++
	}
	return count
}

// pkgRun collects the events of one package.
type pkgRun struct {
	name        string
	tests       map[string]*node
	roots       []*node
	output      []string
	action      string
	elapsed     float64
	end         time.Time
	failedBuild string
	seen        int // order of first event
	done        int // order of terminal event, -1 while running
}

func newPkgRun(name string, seen int) *pkgRun {
	return &pkgRun{name: name, tests: make(map[string]*node), seen: seen, done: -1}
}

func (p *pkgRun) test(name string) *node {
	if n, ok := p.tests[name]; ok {
		return n
	}
	n := &node{name: name, label: name}
	p.tests[name] = n

	var parent *node
	for i := strings.LastIndex(name, "/"); i > 0; i = strings.LastIndex(name[:i], "/") {
		if candidate, ok := p.tests[name[:i]]; ok {
			parent = candidate
			break
		}
	}
	if parent == nil {
		if top, _, nested := strings.Cut(name, "/"); nested {
			parent = p.test(top)
		}
	}
	if parent != nil {
		n.label = name[len(parent.name)+1:]
		parent.children = append(parent.children, n)
	} else {
		p.roots = append(p.roots, n)
	}
	return n
}

func (p *pkgRun) failedTests() bool {
	for _, n := range p.tests {
		if n.failed() {
			return true
		}
	}
	return false
}

func (p *pkgRun) examples() int {
	count := 0
	for _, n := range p.roots {
		count += n.examples()
	}
	if p.name != "" && p.action == testparser.ActionFail && !p.failedTests() {
		count++
	}
	return count
}

// run is a whole go test invocation sorted into packages.
type run struct {
	packages    []*pkgRun
	buildOutput map[string][]string // ImportPath -> output
	buildOrder  []string
	seed        *int64
	first, last time.Time
}

var shuffleLine = regexp.MustCompile(`^-test\.shuffle (-?\d+)$`)

func collect(events []testparser.TestEvent) *run {
	r := &run{buildOutput: make(map[string][]string)}
	byName := make(map[string]*pkgRun)
	done := 0

	pkg := func(name string) *pkgRun {
		p, ok := byName[name]
		if !ok {
			p = newPkgRun(name, len(byName))
			byName[name] = p
		}
		return p
	}

	for _, e := range events {
		if !e.Time.IsZero() {
			if r.first.IsZero() || e.Time.Before(r.first) {
				r.first = e.Time
			}
			if e.Time.After(r.last) {
				r.last = e.Time
			}
		}

		switch e.Action {
		case testparser.ActionBuildOutput:
			if _, ok := r.buildOutput[e.ImportPath]; !ok {
				r.buildOrder = append(r.buildOrder, e.ImportPath)
			}
			r.buildOutput[e.ImportPath] = append(r.buildOutput[e.ImportPath], e.Output)
			continue
		case testparser.ActionBuildFail:
			continue
		}

		p := pkg(e.Package)
		if e.Test == "" {
			switch {
			case e.Action == testparser.ActionOutput:
				p.output = append(p.output, e.Output)
				if r.seed == nil {
					if m := shuffleLine.FindStringSubmatch(strings.TrimSpace(e.Output)); m != nil {
						if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
							r.seed = &v
						}
					}
				}
			case e.Terminal():
				p.action = e.Action
				p.elapsed = e.Elapsed
				p.end = e.Time
				p.failedBuild = e.FailedBuild
				p.done = done
				done++
			}
			continue
		}

		n := p.test(e.Test)
		switch {
		case e.Action == testparser.ActionOutput:
			n.output = append(n.output, e.Output)
		case e.Terminal():
			n.action = e.Action
			n.elapsed = e.Elapsed
			n.end = e.Time
		}
	}

	for _, p := range byName {
		r.packages = append(r.packages, p)
	}
	// Finished packages in completion order, then the rest as first seen.
	sort.Slice(r.packages, func(i, j int) bool {
		a, b := r.packages[i], r.packages[j]
		if (a.done < 0) != (b.done < 0) {
			return a.done >= 0
		}
		if a.done >= 0 {
			return a.done < b.done
		}
		return a.seen < b.seen
	})
	return r
}

func (r *run) examples() int {
	count := 0
	for _, p := range r.packages {
		count += p.examples()
	}
	return count
}

// boilerplate matches go test's own lines, which carry nothing beyond what
// the documents already say.
var boilerplate = regexp.MustCompile(`^(PASS|FAIL|ok\s+\S+.*|FAIL\s+\S+.*|\?\s+\S+\s+\[.*\]|exit status \d+|-test\.shuffle -?\d+|coverage: .*|testing: warning: no tests to run|=== (RUN|PAUSE|CONT|NAME)\b.*|--- (PASS|FAIL|SKIP): .*)$`)

// meaningful drops empty and boilerplate lines and joins the rest.
func meaningful(output []string) string {
	var lines []string
	for _, chunk := range output {
		for _, line := range strings.Split(strings.TrimRight(chunk, "\n"), "\n") {
			line = strings.TrimRight(line, "\r")
			if strings.TrimSpace(line) == "" || boilerplate.MatchString(strings.TrimSpace(line)) {
				continue
			}
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// testOutput drops the framing lines go test prints around a test.
func testOutput(output []string) []string {
	kept := make([]string, 0, len(output))
	for _, chunk := range output {
		trimmed := strings.TrimSpace(chunk)
		if strings.HasPrefix(trimmed, "=== ") || strings.HasPrefix(trimmed, "--- PASS: ") ||
			strings.HasPrefix(trimmed, "--- FAIL: ") || strings.HasPrefix(trimmed, "--- SKIP: ") {
			continue
		}
		kept = append(kept, chunk)
	}
	return kept
}
