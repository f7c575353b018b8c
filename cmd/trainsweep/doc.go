// Package main hosts the trainsweep CLI entrypoint and command graph.
//
// "run" scans the configured root for the target dataset and launches the
// training program once per condition. "plan" shows the same job list without
// launching anything, "history" reads the run ledger, and "check" reports
// whether the scan root and external programs are usable.
//
// Commands stay thin: scanning, launching and recording live in the internal
// packages and are only wired together here.
package main
