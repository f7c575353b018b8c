package sweep

import (
	"fmt"
	"strings"

	"trainsweep/internal/config"
)

// Policy decides what a non-zero job exit does to the rest of the sweep.
type Policy string

const (
	PolicyContinue Policy = config.PolicyContinue
	PolicyAbort    Policy = config.PolicyAbort
	PolicyRetry    Policy = config.PolicyRetry
)

// ParsePolicy converts a configuration value into a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(value))); p {
	case PolicyContinue, PolicyAbort, PolicyRetry:
		return p, nil
	case "":
		return PolicyContinue, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", value)
	}
}
