package report

import (
	"github.com/AndreyAkinshin/ontap/internal/errors"
	"github.com/AndreyAkinshin/ontap/internal/failure"
)

// Example is one executed test as reported by the engine.
type Example struct {
	ID          string
	Description string
	// Location is "file:line" of the test's declaration.
	Location string
}

// FailedExample pairs an example with the failure it raised.
type FailedExample struct {
	Example
	Failure *failure.Failure
}

// Counts is the run-wide tally written into the final document.
type Counts struct {
	Total int
	Pass  int
	Fail  int
	Error int
	Omit  int
	Todo  int
}

// Sum returns Pass+Fail+Error+Omit+Todo.
func (c Counts) Sum() int {
	return c.Pass + c.Fail + c.Error + c.Omit + c.Todo
}

// Failed reports whether any test failed or errored.
func (c Counts) Failed() bool {
	return c.Fail > 0 || c.Error > 0
}

// Document renders the counts mapping of a final document.
func (c Counts) Document() *Document {
	d := &Document{}
	d.Set("total", c.Total)
	d.Set("pass", c.Pass)
	d.Set("fail", c.Fail)
	d.Set("error", c.Error)
	d.Set("omit", c.Omit)
	d.Set("todo", c.Todo)
	return d
}

// Summarize tallies a run. failed holds every example that neither passed
// nor is pending; each is counted as fail or error by classifying its
// failure. A negative pass count means the inputs are inconsistent and
// yields an error matching errors.ErrSummaryInvariantViolation.
func Summarize(all []Example, failed []FailedExample, pending int) (Counts, error) {
	if pending < 0 {
		return Counts{}, errors.SummaryInvariant("pending count %d is negative", pending)
	}

	c := Counts{Total: len(all), Todo: pending}
	for _, fe := range failed {
		if failure.Classify(fe.Failure).Status == failure.StatusFail {
			c.Fail++
		} else {
			c.Error++
		}
	}

	c.Pass = c.Total - c.Fail - c.Error - c.Todo
	if c.Pass < 0 {
		return Counts{}, errors.SummaryInvariant(
			"%d examples cannot hold %d failures, %d errors and %d pending",
			c.Total, c.Fail, c.Error, c.Todo)
	}
	return c, nil
}
