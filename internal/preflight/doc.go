// Package preflight provides readiness checks for the filesystem paths and
// external programs a sweep depends on.
//
// The CLI "trainsweep check" command prints every result; "trainsweep run"
// refuses to start when a required check fails so a sweep does not die
// halfway through the first dataset.
package preflight
