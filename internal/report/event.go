package report

import (
	"time"

	"github.com/AndreyAkinshin/ontap/internal/errors"
	"github.com/AndreyAkinshin/ontap/internal/failure"
)

// Event is one lifecycle notification delivered as data. The concrete types
// below are the only implementations.
type Event interface {
	eventName() string
}

// StartEvent begins the run. A non-nil Seed is recorded first.
type StartEvent struct {
	Count int
	Seed  *int64
}

// SeedEvent records the randomization seed.
type SeedEvent struct {
	Seed int64
}

// GroupStartedEvent opens a group.
type GroupStartedEvent struct {
	ID          string
	Description string
}

// GroupFinishedEvent closes the innermost group.
type GroupFinishedEvent struct {
	ID string
}

// ExampleStartedEvent marks an example as running.
type ExampleStartedEvent struct {
	ID string
}

// ExamplePassedEvent reports a passing example.
type ExamplePassedEvent struct {
	Example Example
}

// ExamplePendingEvent reports a skipped or pending example.
type ExamplePendingEvent struct {
	Example Example
}

// ExampleFailedEvent reports a failing example.
type ExampleFailedEvent struct {
	Example Example
	Failure *failure.Failure
}

// MessageEvent carries free-form text for a note document.
type MessageEvent struct {
	Text string
}

// SummaryEvent ends the run.
type SummaryEvent struct {
	All      []Example
	Failed   []FailedExample
	Pending  int
	Duration time.Duration
}

func (StartEvent) eventName() string          { return "start" }
func (SeedEvent) eventName() string           { return "seed" }
func (GroupStartedEvent) eventName() string   { return "groupStarted" }
func (GroupFinishedEvent) eventName() string  { return "groupFinished" }
func (ExampleStartedEvent) eventName() string { return "exampleStarted" }
func (ExamplePassedEvent) eventName() string  { return "examplePassed" }
func (ExamplePendingEvent) eventName() string { return "examplePending" }
func (ExampleFailedEvent) eventName() string  { return "exampleFailed" }
func (MessageEvent) eventName() string        { return "message" }
func (SummaryEvent) eventName() string        { return "summary" }

// EventName returns the lifecycle name of e, as used in error messages.
func EventName(e Event) string {
	if e == nil {
		return ""
	}
	return e.eventName()
}

// Dispatch routes e to the matching Builder method. The returned document is
// nil for events that produce none.
func (b *Builder) Dispatch(e Event) (*Document, error) {
	switch e := e.(type) {
	case StartEvent:
		if e.Seed != nil {
			if _, err := b.Seed(*e.Seed); err != nil {
				return nil, err
			}
		}
		return b.Start(e.Count)
	case SeedEvent:
		return b.Seed(e.Seed)
	case GroupStartedEvent:
		return b.GroupStarted(e.ID, e.Description)
	case GroupFinishedEvent:
		return b.GroupFinished(e.ID)
	case ExampleStartedEvent:
		return b.ExampleStarted(e.ID)
	case ExamplePassedEvent:
		return b.ExamplePassed(e.Example)
	case ExamplePendingEvent:
		return b.ExamplePending(e.Example)
	case ExampleFailedEvent:
		return b.ExampleFailed(e.Example, e.Failure)
	case MessageEvent:
		return b.Message(e.Text)
	case SummaryEvent:
		return b.Summary(e.All, e.Failed, e.Pending, e.Duration)
	default:
		return nil, errors.Protocol("dispatch", "unknown event %T", e)
	}
}
