package submit

import "fmt"

// ReadFailurePolicy decides what happens when the badge read fails.
type ReadFailurePolicy string

const (
	// PolicyClaim treats a failed read as a count below the threshold.
	PolicyClaim ReadFailurePolicy = "claim"
	// PolicyAbort ends the submission without sending anything.
	PolicyAbort ReadFailurePolicy = "abort"
)

// Config holds orchestrator settings.
type Config struct {
	ReadFailurePolicy ReadFailurePolicy `mapstructure:"read_failure_policy" yaml:"read_failure_policy"`
	// ImagePath replaces the bundled wizard image when set.
	ImagePath string `mapstructure:"image_path" yaml:"image_path"`
}

func DefaultConfig() Config {
	return Config{ReadFailurePolicy: PolicyClaim}
}

func (c Config) Validate() error {
	switch c.ReadFailurePolicy {
	case PolicyClaim, PolicyAbort:
		return nil
	default:
		return fmt.Errorf("submit.read_failure_policy must be %q or %q, got %q",
			PolicyClaim, PolicyAbort, c.ReadFailurePolicy)
	}
}
