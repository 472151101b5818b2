package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s", event.Step, event.Op, event.ID)
		if event.OK != nil {
			fmt.Fprintf(&buf, " -> %t", *event.OK)
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. An empty slice means all passed.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertFinalCount:
			err = assertFinalCount(result, a)
		case AssertFinalContains:
			err = assertFinalContains(result, a)
		case AssertTraceCount:
			err = assertTraceCount(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func assertFinalCount(result *Result, a Assertion) error {
	if len(result.Final) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalCount,
		Expected: fmt.Sprintf("%d items", a.Count),
		Actual:   fmt.Sprintf("%d items", len(result.Final)),
		Trace:    result.Trace,
	}
}

func assertFinalContains(result *Result, a Assertion) error {
	present := make(map[string]bool, len(result.Final))
	for _, it := range result.Final {
		present[it.ID] = true
	}

	var missing []string
	for _, id := range a.IDs {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalContains,
		Expected: fmt.Sprintf("ids %v", a.IDs),
		Actual:   fmt.Sprintf("missing %v", missing),
		Trace:    result.Trace,
	}
}

// assertTraceCount counts events with the given op, and with the given
// outcome when OK is set.
func assertTraceCount(result *Result, a Assertion) error {
	n := 0
	for _, event := range result.Trace {
		if event.Op != a.Op {
			continue
		}
		if a.OK != nil && (event.OK == nil || *event.OK != *a.OK) {
			continue
		}
		n++
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d %s events", a.Count, a.Op),
		Actual:   fmt.Sprintf("%d", n),
		Trace:    result.Trace,
	}
}
