// Package audit keeps a trail of dispatched requests.
//
// The audit Behavior writes one Record per dispatch to a Store. Stores are
// in memory (MemoryStore) or relational through gorm (GormStore on sqlite
// or postgres, chosen with Open).
package audit
