package models

// ChangeKind is the kind of row change carried by a change notification.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ListingsTable is the table name listing change events are keyed by.
const ListingsTable = "properties"

// ChangeEvent is a remote-originated notification that a row changed.
// Receivers treat it as a signal only; the payload is never merged.
type ChangeEvent struct {
	Table string     `json:"table"`
	Kind  ChangeKind `json:"kind"`
	ID    string     `json:"id,omitempty"`
}
