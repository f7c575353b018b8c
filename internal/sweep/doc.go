// Package sweep launches training jobs for dataset folders found under the
// scan root.
//
// For every folder whose derived dataset name equals the configured target,
// the sweep prints the dataset name, then for each condition (in configured
// order) prints "Running <dataset> under condition <condition>" and runs the
// training program synchronously with --dataset, --condition and --device.
// An optional data-preparation step runs before each training job.
//
// What happens when a job exits non-zero is governed by the failure policy:
// continue (log and move on), abort (stop the sweep) or retry (re-run, then
// move on). A program that cannot be started always stops the sweep.
package sweep
