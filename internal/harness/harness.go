package harness

import (
	"context"
	"fmt"
	"reflect"

	"github.com/roach88/mine/internal/item"
	"github.com/roach88/mine/internal/repository"
	"github.com/roach88/mine/internal/store"
)

// Harness executes scenario steps against one item store.
type Harness struct {
	items *repository.Store[item.Item]
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// A step whose outcome differs from its expectation is recorded as an
// error in the result; only infrastructure failures are returned as err.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	db, err := store.Open(ctx, store.DefaultOptions(store.MemoryPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer db.Close()

	items, err := repository.New(ctx, db, store.NewInitializer(db), item.Mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create item store: %w", err)
	}

	h := &Harness{items: items}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}

	final, err := items.Index(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read final state: %w", err)
	}
	result.Final = final

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	event := TraceEvent{Step: i, Op: step.Op}

	switch step.Op {
	case OpCreate, OpUpdate, OpDelete:
		var ok bool
		var err error
		switch step.Op {
		case OpCreate:
			ok, err = h.items.Create(ctx, cloneItem(step.Item))
			event.ID = itemID(step.Item)
		case OpUpdate:
			ok, err = h.items.Update(ctx, cloneItem(step.Item))
			event.ID = itemID(step.Item)
		case OpDelete:
			ok, err = h.items.Delete(ctx, step.ID)
			event.ID = step.ID
		}
		if err != nil {
			return err
		}
		event.OK = &ok
		if step.Expect != nil && *step.Expect != ok {
			result.AddError(fmt.Sprintf("step %d: %s %q returned %t, expected %t", i, step.Op, event.ID, ok, *step.Expect))
		}

	case OpRead:
		got, err := h.items.Read(ctx, step.ID)
		if err != nil {
			return err
		}
		event.ID = step.ID
		event.Item = got
		switch {
		case step.ExpectAbsent && got != nil:
			result.AddError(fmt.Sprintf("step %d: read %q returned %+v, expected absent", i, step.ID, *got))
		case step.ExpectItem != nil && got == nil:
			result.AddError(fmt.Sprintf("step %d: read %q returned absent, expected %+v", i, step.ID, *step.ExpectItem))
		case step.ExpectItem != nil && !reflect.DeepEqual(*step.ExpectItem, *got):
			result.AddError(fmt.Sprintf("step %d: read %q returned %+v, expected %+v", i, step.ID, *got, *step.ExpectItem))
		}

	case OpIndex:
		all, err := h.items.Index(ctx, step.ForceRefresh)
		if err != nil {
			return err
		}
		n := len(all)
		event.Count = &n
		if step.ExpectCount != nil && *step.ExpectCount != n {
			result.AddError(fmt.Sprintf("step %d: index returned %d items, expected %d", i, n, *step.ExpectCount))
		}

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	result.Trace = append(result.Trace, event)
	return nil
}

// cloneItem keeps the store from sharing memory with the scenario.
func cloneItem(it *item.Item) *item.Item {
	if it == nil {
		return nil
	}
	c := *it
	return &c
}

func itemID(it *item.Item) string {
	if it == nil {
		return ""
	}
	return it.ID
}
