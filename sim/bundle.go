// PolicyBundle holds the baseline-driver and placement policy selection,
// loadable from a YAML file with strict parsing (unknown keys rejected).
// Grounded directly on the teacher's PolicyBundle (sim/bundle.go): same
// nested-config-plus-name-registry shape, generalized from
// admission/routing/priority/scheduler policy names to
// placement/driver/scaling policy names.

package sim

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// PlacementConfig selects and parameterizes the VM placement policy.
type PlacementConfig struct {
	Policy string `yaml:"policy"`
}

// DriverConfig selects and parameterizes a baseline driver's assignment
// policy (cmd/random.go, cmd/roundrobin.go, cmd/leastconn.go,
// cmd/horizontalscale.go).
type DriverConfig struct {
	Policy                    string   `yaml:"policy"`
	ScaleUpUtilizationThreshold *float64 `yaml:"scale_up_utilization_threshold"`
	ScaleDownUtilizationThreshold *float64 `yaml:"scale_down_utilization_threshold"`
}

// RewardConfig holds optional overrides for the reward-decomposition
// coefficients (sim/bridge.go's ComputeReward), layered on top of
// Config's defaults so a bundle author doesn't have to restate every
// coefficient to change one. Nil fields leave Config's value untouched.
type RewardConfig struct {
	WaitTimeCoef      *float64 `yaml:"wait_time_coef"`
	UnutilizationCoef *float64 `yaml:"unutilization_coef"`
	CostCoef          *float64 `yaml:"cost_coef"`
	QueuePenaltyCoef  *float64 `yaml:"queue_penalty_coef"`
	InvalidActionCoef *float64 `yaml:"invalid_action_coef"`
}

// PolicyBundle is the unified policy configuration for a run. Nil pointer
// fields mean "not set in YAML" and do not override Config defaults.
type PolicyBundle struct {
	Placement PlacementConfig `yaml:"placement"`
	Driver    DriverConfig    `yaml:"driver"`
	Reward    RewardConfig    `yaml:"reward"`
}

// ApplyRewardOverrides layers any reward-coefficient overrides the bundle
// sets onto cfg, leaving Config's existing value wherever the bundle left
// a field nil. Safe to call with a nil bundle (e.g. a Driver built without
// one).
func (b *PolicyBundle) ApplyRewardOverrides(cfg *Config) {
	if b == nil {
		return
	}
	if v := b.Reward.WaitTimeCoef; v != nil {
		cfg.RewardWaitTimeCoef = *v
	}
	if v := b.Reward.UnutilizationCoef; v != nil {
		cfg.RewardUnutilizationCoef = *v
	}
	if v := b.Reward.CostCoef; v != nil {
		cfg.RewardCostCoef = *v
	}
	if v := b.Reward.QueuePenaltyCoef; v != nil {
		cfg.RewardQueuePenaltyCoef = *v
	}
	if v := b.Reward.InvalidActionCoef; v != nil {
		cfg.RewardInvalidActionCoef = *v
	}
}

// LoadPolicyBundle reads and strictly parses a YAML policy bundle file.
func LoadPolicyBundle(path string) (*PolicyBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy bundle: %w", err)
	}
	var bundle PolicyBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing policy bundle: %w", err)
	}
	return &bundle, nil
}

var (
	validPlacementPolicies = map[string]bool{"": true, "targeted-round-robin": true}
	validDriverPolicies    = map[string]bool{"": true, "random": true, "round-robin": true, "least-connections": true, "horizontal-scale": true}
)

// IsValidPlacementPolicy returns true if name is a recognized placement
// policy.
func IsValidPlacementPolicy(name string) bool { return validPlacementPolicies[name] }

// IsValidDriverPolicy returns true if name is a recognized baseline
// driver policy.
func IsValidDriverPolicy(name string) bool { return validDriverPolicies[name] }

// ValidPlacementPolicyNames returns sorted valid placement policy names.
func ValidPlacementPolicyNames() []string { return validNamesList(validPlacementPolicies) }

// ValidDriverPolicyNames returns sorted valid baseline driver names.
func ValidDriverPolicyNames() []string { return validNamesList(validDriverPolicies) }

func validNamesList(m map[string]bool) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

func validNames(m map[string]bool) string {
	return strings.Join(validNamesList(m), ", ")
}

// Validate checks that every policy name in the bundle is recognized and
// that any set thresholds are sane fractions.
func (b *PolicyBundle) Validate() error {
	if !validPlacementPolicies[b.Placement.Policy] {
		return fmt.Errorf("unknown placement policy %q; valid options: %s", b.Placement.Policy, validNames(validPlacementPolicies))
	}
	if !validDriverPolicies[b.Driver.Policy] {
		return fmt.Errorf("unknown driver policy %q; valid options: %s", b.Driver.Policy, validNames(validDriverPolicies))
	}
	if err := validateFraction("scale_up_utilization_threshold", b.Driver.ScaleUpUtilizationThreshold); err != nil {
		return err
	}
	if err := validateFraction("scale_down_utilization_threshold", b.Driver.ScaleDownUtilizationThreshold); err != nil {
		return err
	}
	if b.Driver.ScaleUpUtilizationThreshold != nil && b.Driver.ScaleDownUtilizationThreshold != nil {
		if *b.Driver.ScaleDownUtilizationThreshold >= *b.Driver.ScaleUpUtilizationThreshold {
			return fmt.Errorf("scale_down_utilization_threshold (%.2f) must be below scale_up_utilization_threshold (%.2f)",
				*b.Driver.ScaleDownUtilizationThreshold, *b.Driver.ScaleUpUtilizationThreshold)
		}
	}
	for _, nv := range []struct {
		name string
		val  *float64
	}{
		{"reward.wait_time_coef", b.Reward.WaitTimeCoef},
		{"reward.unutilization_coef", b.Reward.UnutilizationCoef},
		{"reward.cost_coef", b.Reward.CostCoef},
		{"reward.queue_penalty_coef", b.Reward.QueuePenaltyCoef},
		{"reward.invalid_action_coef", b.Reward.InvalidActionCoef},
	} {
		if nv.val != nil && *nv.val < 0 {
			return fmt.Errorf("%s must be >= 0, got %f", nv.name, *nv.val)
		}
	}
	return nil
}

func validateFraction(name string, val *float64) error {
	if val == nil {
		return nil
	}
	if *val < 0 || *val > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %f", name, *val)
	}
	return nil
}
