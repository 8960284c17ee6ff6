package ontap_test

import (
	"bytes"
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreyAkinshin/ontap/internal/capture"
	"github.com/AndreyAkinshin/ontap/internal/errors"
	"github.com/AndreyAkinshin/ontap/internal/report"
	"github.com/AndreyAkinshin/ontap/internal/schema"
	"github.com/AndreyAkinshin/ontap/internal/sink"
	"github.com/AndreyAkinshin/ontap/pkg/ontap"
)

const calcSource = `package calc

func TestAdd() {
	check(2 + 2)
}

func TestSub() {
	check(3 - 1)
}
`

// stepClock returns a clock starting at 2024-03-01 10:00:00 UTC that
// advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func writeSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "calc_test.go"), []byte(calcSource), 0o644))
	return dir
}

func readDocs(t *testing.T, r io.Reader) []map[string]any {
	t.Helper()
	docs, err := sink.ReadStream(r)
	require.NoError(t, err)
	assert.Empty(t, schema.ValidateStream(docs))
	return docs
}

func TestReporter_EndToEnd(t *testing.T) {
	dir := writeSource(t)
	var stream bytes.Buffer
	r, err := ontap.New(&stream, ontap.Options{
		Format:   ontap.FormatTAPJ,
		Root:     dir,
		Clock:    stepClock(100 * time.Millisecond),
		Validate: true,
	})
	require.NoError(t, err)

	require.NoError(t, r.Seed(7))
	require.NoError(t, r.Start(4))
	require.NoError(t, r.GroupStarted("calc", "Calc"))

	add := ontap.Example{ID: "add", Description: "adds", Location: filepath.Join(dir, "calc_test.go") + ":3"}
	require.NoError(t, r.Run(add, func(t *ontap.Recorder) {
		fmt.Println("hello from add")
		fmt.Fprintln(os.Stderr, "careful")
	}))

	sub := ontap.Example{ID: "sub", Description: "subtracts", Location: "calc_test.go:7"}
	require.NoError(t, r.Run(sub, func(t *ontap.Recorder) {
		assert.Equal(t, 2, 3)
	}))

	div := ontap.Example{ID: "div", Description: "divides"}
	require.NoError(t, r.Run(div, func(t *ontap.Recorder) {
		panic("boom")
	}))

	require.NoError(t, r.ExampleStarted("mul"))
	require.NoError(t, r.ExamplePending(ontap.Example{ID: "mul", Description: "multiplies"}))

	require.NoError(t, r.Message("calc done"))
	require.NoError(t, r.GroupFinished("calc"))

	counts, err := r.Summary()
	require.NoError(t, err)
	assert.Equal(t, ontap.Counts{Total: 4, Pass: 1, Fail: 1, Error: 1, Todo: 1}, counts)

	docs := readDocs(t, &stream)
	var types []string
	for _, doc := range docs {
		kind, _ := doc["type"].(string)
		if status, ok := doc["status"].(string); ok {
			kind += ":" + status
		}
		types = append(types, kind)
	}
	assert.Equal(t, []string{"suite", "case", "test:pass", "test:fail", "test:error", "test:todo", "note", "final"}, types)

	assert.Equal(t, float64(7), docs[0]["seed"])
	assert.Equal(t, float64(4), docs[0]["count"])

	passed := docs[2]
	assert.Equal(t, "adds", passed["label"])
	assert.Equal(t, "calc_test.go", passed["file"])
	assert.Equal(t, float64(3), passed["line"])
	assert.Equal(t, "func TestAdd() {", passed["source"])
	assert.Equal(t, "hello from add", passed["stdout"])
	assert.Equal(t, "careful", passed["stderr"])

	failed := docs[3]
	assert.Equal(t, "2", failed["expected"])
	assert.Equal(t, "3", failed["returned"])
	exception, ok := failed["exception"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ExpectationNotMetError", exception["class"])

	errored := docs[4]
	exception, ok = errored["exception"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "PanicError", exception["class"])
	assert.Contains(t, exception["message"], "boom")
}

func TestReporter_BufferCapture(t *testing.T) {
	var stream bytes.Buffer
	buf := capture.NewBuffer()
	r, err := ontap.New(&stream, ontap.Options{Capturer: buf, Root: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, r.Start(1))
	require.NoError(t, r.Run(ontap.Example{ID: "a", Description: "writes"}, func(*ontap.Recorder) {
		_, _ = io.WriteString(buf.Stdout(), "captured\n")
	}))
	counts, err := r.Summary()
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Pass)

	out := stream.String()
	assert.Contains(t, out, "stdout: captured")
	assert.Regexp(t, `\.\.\.\n$`, out)

	docs := readDocs(t, &stream)
	assert.Len(t, docs, 3)
}

func TestReporter_ProtocolViolation(t *testing.T) {
	r, err := ontap.New(io.Discard, ontap.Options{Capturer: capture.NewBuffer()})
	require.NoError(t, err)

	err = r.ExamplePassed(ontap.Example{ID: "early"})
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, errors.ErrProtocolViolation))
	assert.True(t, errors.IsFatal(err))

	require.NoError(t, r.Start(0))
	err = r.Start(0)
	assert.True(t, goerrors.Is(err, errors.ErrProtocolViolation))
}

func TestReporter_Dispatch(t *testing.T) {
	var stream bytes.Buffer
	r, err := ontap.New(&stream, ontap.Options{Format: "json", Capturer: capture.NewBuffer(), Root: t.TempDir()})
	require.NoError(t, err)

	seed := int64(99)
	ex := ontap.Example{ID: "x", Description: "x"}
	events := []ontap.Event{
		report.StartEvent{Count: 1, Seed: &seed},
		report.GroupStartedEvent{ID: "g", Description: "group"},
		report.ExampleStartedEvent{ID: "x"},
		report.ExamplePassedEvent{Example: ex},
		report.GroupFinishedEvent{ID: "g"},
		report.SummaryEvent{All: []report.Example{ex}, Duration: time.Second},
	}
	for _, e := range events {
		require.NoError(t, r.Dispatch(e), report.EventName(e))
	}
	assert.Error(t, r.Dispatch(nil))

	docs := readDocs(t, &stream)
	require.Len(t, docs, 4)
	assert.Equal(t, float64(99), docs[0]["seed"])
	assert.Equal(t, float64(1), docs[3]["time"])
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := ontap.New(io.Discard, ontap.Options{Format: "xml"})
	require.Error(t, err)
	assert.Equal(t, ontap.ExitConfigError, errors.GetExitCode(err))
}

func TestReporter_RequireFailureIsFail(t *testing.T) {
	var stream bytes.Buffer
	r, err := ontap.New(&stream, ontap.Options{Format: ontap.FormatTAPJ, Capturer: capture.NewBuffer(), Root: t.TempDir()})
	require.NoError(t, err)

	type cart struct{ total int }
	var c *cart

	require.NoError(t, r.Start(1))
	require.NoError(t, r.Run(ontap.Example{ID: "total", Description: "has a total"}, func(rt *ontap.Recorder) {
		require.NotNil(rt, c)
		assert.Equal(rt, 0, c.total)
	}))
	counts, err := r.Summary()
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Fail)
	assert.Equal(t, 0, counts.Error)

	docs := readDocs(t, &stream)
	require.Len(t, docs, 3)
	assert.Equal(t, "fail", docs[1]["status"])
	exception, ok := docs[1]["exception"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ExpectationNotMetError", exception["class"])
}
