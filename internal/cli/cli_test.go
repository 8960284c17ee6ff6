package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreyAkinshin/ontap/internal/config"
	"github.com/AndreyAkinshin/ontap/internal/project"
	"github.com/AndreyAkinshin/ontap/internal/schema"
	"github.com/AndreyAkinshin/ontap/internal/sink"
	"github.com/AndreyAkinshin/ontap/internal/testparser"
)

const passingRun = `{"Time":"2024-01-01T00:00:00Z","Action":"start","Package":"example.com/demo"}
{"Time":"2024-01-01T00:00:00Z","Action":"run","Package":"example.com/demo","Test":"TestFoo"}
{"Time":"2024-01-01T00:00:01Z","Action":"pass","Package":"example.com/demo","Test":"TestFoo","Elapsed":0.1}
{"Time":"2024-01-01T00:00:01Z","Action":"run","Package":"example.com/demo","Test":"TestBar"}
{"Time":"2024-01-01T00:00:02Z","Action":"pass","Package":"example.com/demo","Test":"TestBar","Elapsed":0.2}
{"Time":"2024-01-01T00:00:02Z","Action":"pass","Package":"example.com/demo","Elapsed":0.3}
`

const failingRun = `{"Time":"2024-01-01T00:00:00Z","Action":"run","Package":"example","Test":"TestFoo"}
{"Time":"2024-01-01T00:00:01Z","Action":"pass","Package":"example","Test":"TestFoo","Elapsed":0.1}
{"Time":"2024-01-01T00:00:01Z","Action":"run","Package":"example","Test":"TestBar"}
{"Time":"2024-01-01T00:00:02Z","Action":"output","Package":"example","Test":"TestBar","Output":"    foo_test.go:42: expected 1, got 2\n"}
{"Time":"2024-01-01T00:00:02Z","Action":"fail","Package":"example","Test":"TestBar","Elapsed":0.2}
{"Time":"2024-01-01T00:00:02Z","Action":"fail","Package":"example","Elapsed":0.3}
`

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := RunWithIO(args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func fixture(name string) string {
	return filepath.Join("..", "gotest", "testdata", name)
}

func TestRun_Version(t *testing.T) {
	for _, args := range [][]string{{"version"}, {"--version"}} {
		r := run(t, "", args...)
		assert.Equal(t, 0, r.code, "args %v", args)
		assert.Equal(t, "ontap dev\n", r.stdout, "args %v", args)
	}
}

func TestRun_Help(t *testing.T) {
	r := run(t, "", "--help")
	assert.Equal(t, 0, r.code)
	for _, want := range []string{"TAP-Y", "convert", "validate", "summary", "--log-level"} {
		assert.Contains(t, r.stdout, want)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"convert", "--bogus"}},
		{"too many arguments", []string{"validate", "a.tapy", "b.tapy"}},
		{"bad radius", []string{"convert", "--radius", "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, "", tt.args...)
			assert.Equal(t, 2, r.code)
			assert.Contains(t, r.stderr, "ontap:")
		})
	}
}

func TestConvert_JSONFixture(t *testing.T) {
	r := run(t, "", "convert", "--format", "tapj", "--root", fixture("calc"), fixture("calc.jsonl"))
	require.Equal(t, 1, r.code, "stderr: %s", r.stderr)

	docs, err := sink.ReadStream(strings.NewReader(r.stdout))
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.Empty(t, schema.ValidateStream(docs))
	assert.Equal(t, "suite", docs[0]["type"])
	assert.Equal(t, "final", docs[len(docs)-1]["type"])

	var located bool
	for _, doc := range docs {
		if doc["type"] == "test" && doc["label"] == "TestAdd" {
			assert.Equal(t, "fail", doc["status"])
			assert.Equal(t, "calc_test.go", doc["file"])
			located = true
		}
	}
	assert.True(t, located, "TestAdd document not found")
}

func TestConvert_TextToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.tapy")
	r := run(t, "", "convert", "--input", "text", "--output", out, "--root", fixture("calc"), fixture("calc.txt"))
	require.Equal(t, 1, r.code, "stderr: %s", r.stderr)
	assert.Empty(t, r.stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "---\n"), "stream should start with ---")
	assert.True(t, strings.HasSuffix(string(data), "...\n"), "stream should end with ...")

	docs, err := sink.ReadStream(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, schema.ValidateStream(docs))
}

func TestConvert_PassingFromStdin(t *testing.T) {
	r := run(t, passingRun, "convert", "--format", "tapj", "--validate")
	require.Equal(t, 0, r.code, "stderr: %s", r.stderr)

	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	// suite, case, two tests, final
	assert.Len(t, lines, 5)
	assert.Contains(t, lines[len(lines)-1], `"pass":2`)
}

func TestConvert_EmptyInputWarns(t *testing.T) {
	r := run(t, "", "convert", "--format", "tapj", "-")
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.stderr, "no go test events")
}

func TestConvert_InvalidFormat(t *testing.T) {
	r := run(t, passingRun, "convert", "--format", "xml")
	assert.Equal(t, 2, r.code)
	assert.Contains(t, r.stderr, "format")
}

func TestConvert_MissingFile(t *testing.T) {
	r := run(t, "", "convert", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "cannot read input")
}

func TestValidate(t *testing.T) {
	stream := run(t, passingRun, "convert", "--format", "tapj")
	require.Equal(t, 0, stream.code)

	r := run(t, stream.stdout, "validate")
	assert.Equal(t, 0, r.code, "stderr: %s", r.stderr)
	assert.Contains(t, r.stdout, "stream is valid (5 documents)")

	r = run(t, stream.stdout, "--quiet", "validate")
	assert.Equal(t, 0, r.code)
	assert.Empty(t, r.stdout)
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		stream string
	}{
		{"test without suite", "---\ntype: test\nsubtype: it\nstatus: pass\nlabel: x\ntime: 0.1\n"},
		{"undecodable", "---\n: [\n"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, tt.stream, "validate")
			assert.Equal(t, 2, r.code)
			assert.NotEmpty(t, r.stderr)
		})
	}
}

func TestSummary_GoTestOutput(t *testing.T) {
	r := run(t, failingRun, "summary")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stdout, "Test Summary")
	assert.Contains(t, r.stdout, "TestBar")
	assert.Contains(t, r.stdout, "expected 1, got 2")
	assert.Contains(t, r.stdout, "1 of 2 tests failed.")
}

func TestSummary_Stream(t *testing.T) {
	stream := run(t, passingRun, "convert")
	require.Equal(t, 0, stream.code)

	r := run(t, stream.stdout, "summary")
	assert.Equal(t, 0, r.code, "stderr: %s", r.stderr)
	assert.Contains(t, r.stdout, "All 2 tests passed.")
}

func TestSummary_FailingStream(t *testing.T) {
	stream := run(t, "", "convert", "--format", "tapj", "--root", fixture("calc"), fixture("calc.jsonl"))
	require.Equal(t, 1, stream.code)

	r := run(t, stream.stdout, "summary")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stdout, "TestAdd")
	assert.Contains(t, r.stdout, "calc_test.go:5")
	assert.Contains(t, r.stdout, "2 of 4 tests failed.")
}

func TestSummary_NoResults(t *testing.T) {
	r := run(t, "not test output at all", "summary")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "no test results found")
}

func TestIsTAPStream(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"tap-y", "---\ntype: suite\n", true},
		{"tap-j", `{"type":"suite","rev":4}` + "\n", true},
		{"go test json", `{"Action":"run","Test":"TestFoo"}` + "\n", false},
		{"go test text", "=== RUN   TestFoo\n", false},
		{"leading blank lines", "\n\n---\n", true},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTAPStream([]byte(tt.input)))
		})
	}
}

func TestResolveRoot(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	proj := &project.Project{Root: filepath.Join(wd, "proj")}

	a := &app{registry: testparser.NewRegistry()}
	cmd := a.convertCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--root", fixture("calc")}))

	cfg := config.Default()
	applyConvertFlags(cmd, cfg, &convertOptions{root: fixture("calc")})
	assert.Equal(t, filepath.Join(wd, fixture("calc")), resolveRoot(proj, cfg.Root),
		"a --root flag is relative to the working directory")

	cfg = config.Default()
	cfg.Root = "sub"
	assert.Equal(t, filepath.Join(wd, "proj", "sub"), resolveRoot(proj, cfg.Root),
		"a configured root is relative to the project root")

	assert.Equal(t, proj.Root, resolveRoot(proj, ""))
}
