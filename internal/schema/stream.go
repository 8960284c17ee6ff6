package schema

import (
	"fmt"

	"github.com/AndreyAkinshin/ontap/internal/errors"
)

// StreamError reports a problem with one document of a stream. Index is -1
// for problems with the stream as a whole.
type StreamError struct {
	Index int
	Type  string
	Err   error
}

func (e *StreamError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("stream: %v", e.Err)
	}
	if e.Type == "" {
		return fmt.Sprintf("document %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("document %d (%s): %v", e.Index, e.Type, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// ValidateStream validates every document and the stream structure: a
// suite first, a final last, nothing after the final, and final counts that
// add up and match the number of test documents. It returns nil when the
// stream is valid.
func ValidateStream(docs []map[string]any) []error {
	if len(docs) == 0 {
		return []error{&StreamError{Index: -1, Err: errors.Validation("empty stream", nil)}}
	}

	var errs []error
	add := func(i int, doc map[string]any, err error) {
		errs = append(errs, &StreamError{Index: i, Type: typeOf(doc), Err: err})
	}

	tests := 0
	finals := 0
	for i, doc := range docs {
		if err := ValidateDocument(doc); err != nil {
			add(i, doc, err)
			continue
		}
		switch typeOf(doc) {
		case "suite":
			if i != 0 {
				add(i, doc, errors.Validation("suite document must be first", nil))
			}
		case "test":
			tests++
		case "final":
			finals++
			if i != len(docs)-1 {
				add(i, doc, errors.Validation("final document must be last", nil))
			}
			if err := checkCounts(doc, tests); err != nil {
				add(i, doc, err)
			}
		}
	}

	if typeOf(docs[0]) != "suite" {
		errs = append(errs, &StreamError{Index: -1, Err: errors.Validation("stream does not start with a suite document", nil)})
	}
	if finals == 0 {
		errs = append(errs, &StreamError{Index: -1, Err: errors.Validation("stream has no final document", nil)})
	}
	return errs
}

func checkCounts(doc map[string]any, tests int) error {
	counts, _ := doc["counts"].(map[string]any)
	n := func(key string) int {
		switch v := counts[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case int64:
			return int(v)
		default:
			return 0
		}
	}

	total := n("total")
	sum := n("pass") + n("fail") + n("error") + n("omit") + n("todo")
	if total != sum {
		return errors.Validation(fmt.Sprintf("counts total %d does not equal the sum of statuses %d", total, sum), nil)
	}
	if n("omit") != 0 {
		return errors.Validation(fmt.Sprintf("counts omit is %d, want 0", n("omit")), nil)
	}
	if total != tests {
		return errors.Validation(fmt.Sprintf("counts total %d does not match %d test documents", total, tests), nil)
	}
	return nil
}
