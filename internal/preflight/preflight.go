package preflight

import (
	"context"

	"trainsweep/internal/config"
	"trainsweep/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results never block a run.
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// A missing root is not fatal: the sweep simply finds nothing.
	root := CheckReadableDirectory("Scan root", cfg.Sweep.Root)
	root.Optional = true
	results = append(results, root)

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.Trainer.WorkDir != "" {
		results = append(results, CheckReadableDirectory("Trainer workdir", cfg.Trainer.WorkDir))
	}
	if cfg.Sweep.RunDataPrep && cfg.DataPrep.WorkDir != "" {
		results = append(results, CheckReadableDirectory("Data prep workdir", cfg.DataPrep.WorkDir))
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		detail := status.Path
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Detail:   detail,
			Optional: status.Optional,
		})
	}
	return results
}

// Failed returns the non-optional results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// CheckSystemDeps evaluates the external programs the configured sweep will launch.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "Training program",
			Command:     cfg.TrainerBinary(),
			Description: "Launched once per dataset and condition",
		},
	}
	if cfg.Sweep.RunDataPrep {
		requirements = append(requirements, deps.Requirement{
			Name:        "Data preparation program",
			Command:     cfg.DataPrepBinary(),
			Description: "Launched before each training job",
		})
	}
	return deps.CheckBinaries(requirements)
}
