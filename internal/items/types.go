package items

import "github.com/five82/statekit/internal/state"

// Status values understood by the items API.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

var statusCycle = []string{StatusOpen, StatusInProgress, StatusDone}

// Item is one entry served by /api/items.
type Item struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// Key identifies the item inside a collection store.
func (i Item) Key() int64 { return i.ID }

// ListResponse is the payload of GET /api/items.
type ListResponse struct {
	Items []Item `json:"items"`
}

// Field descriptors for staging edits on a state.Store[int64, Item].
var (
	NameField = state.NewField("name",
		func(i Item) string { return i.Name },
		func(i Item, v string) Item { i.Name = v; return i },
	)
	StatusField = state.NewField("status",
		func(i Item) string { return i.Status },
		func(i Item, v string) Item { i.Status = v; return i },
	)
	NotesField = state.NewField("notes",
		func(i Item) string { return i.Notes },
		func(i Item, v string) Item { i.Notes = v; return i },
	)
)

// NextStatus cycles open → in_progress → done → open. Unknown values
// restart at open.
func NextStatus(status string) string {
	for i, s := range statusCycle {
		if s == status {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return StatusOpen
}
