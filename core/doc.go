// Package core contains the domain types shared by every component of the
// batch execution engine: batch contexts, content hashing, and the typed
// error taxonomy used for retry classification.
package core
