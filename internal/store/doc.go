// Package store persists match and link records in SQLite. It is the single
// durable record of what each source file resolved to and where its link
// lives, and the only component allowed to write that state.
package store
