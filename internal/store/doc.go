// Package store persists survey state in SQLite: in-flight session snapshots,
// append-only rating rows, favorite picks, and completed-theme marks. It holds
// no survey logic; snapshot repair and stage transitions live elsewhere.
package store
