// Package store persists run history to SQLite.
//
// Each run records the scenario name, every executed path's verdict, and
// the per-path event traces. History is append-only: a new run always gets
// a fresh ID, and existing rows are never rewritten. This makes the store
// safe to share between a finished run and a reader inspecting it.
package store
