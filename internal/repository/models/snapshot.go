package models

import "time"

// Snapshot is one row of quizbook_snapshots: the whole collection blob under a store key.
type Snapshot struct {
	StoreKey  string    `db:"store_key"`
	Payload   string    `db:"payload"`
	UpdatedAt time.Time `db:"updated_at"`
}
