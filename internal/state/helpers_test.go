package state

import (
	"time"

	"github.com/five82/statekit/internal/retry"
)

type item struct {
	ID   int
	Name string
	Done bool
}

func (i item) Key() int { return i.ID }

var (
	nameField = NewField("name",
		func(i item) string { return i.Name },
		func(i item, v string) item { i.Name = v; return i },
	)
	doneField = NewField("done",
		func(i item) bool { return i.Done },
		func(i item, v bool) item { i.Done = v; return i },
	)
)

func testConfig() Config {
	return Config{MaxUndoSteps: 50, PageSize: 2}
}

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}
