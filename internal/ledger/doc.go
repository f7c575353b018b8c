// Package ledger persists the history of launched jobs in SQLite.
//
// Every training or data-preparation launch gets a row when it starts and is
// updated when it finishes, so `trainsweep history` can show what ran, under
// which condition, and how it exited. The sweep never reads the ledger to
// decide what to launch; it is an audit trail only.
package ledger
