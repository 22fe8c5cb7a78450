// Package stack ranks catalog components (inference servers, vector stores, frameworks) against
// a project's requirements and derives an architecture suggestion from them.
package stack

import (
	"fmt"
	"slices"
	"strings"
)

// Budget is a spending tier; tiers are totally ordered.
type Budget string

const (
	BudgetMinimal    Budget = "minimal"
	BudgetSmall      Budget = "small"
	BudgetMedium     Budget = "medium"
	BudgetLarge      Budget = "large"
	BudgetEnterprise Budget = "enterprise"
)

var budgetOrder = []Budget{BudgetMinimal, BudgetSmall, BudgetMedium, BudgetLarge, BudgetEnterprise}

// Rank returns the tier's position (minimal=0) or -1 when unknown.
func (b Budget) Rank() int {
	return slices.Index(budgetOrder, Budget(strings.ToLower(string(b))))
}

// Enumerations for single-valued axes and component metadata.
var (
	ScalabilityLevels = []string{"prototype", "single-node", "horizontal", "distributed", "cloud-native"}
	DataSizes         = []string{"small", "medium", "large", "massive"}
	SecurityLevels    = []string{"basic", "standard", "high", "critical"}
	Profiles          = []string{"low", "medium", "high"}
	ProjectTypes      = []string{"personal", "startup", "research", "enterprise"}
)

var (
	maturityScore    = map[string]float64{"experimental": 3, "beta": 8, "stable": 12, "mature": 15}
	learningScore    = map[string]float64{"easy": 10, "moderate": 7, "steep": 4, "expert": 2}
	integrationScore = map[string]float64{"simple": 5, "moderate": 4, "complex": 2, "expert": 1}
)

// Component is one catalog entry. Each slice lists what the component supports on that axis.
type Component struct {
	Name                  string   `yaml:"name" json:"name"`
	Category              string   `yaml:"category" json:"category"`
	Description           string   `yaml:"description" json:"description"`
	Languages             []string `yaml:"languages" json:"languages"`
	UseCases              []string `yaml:"use_cases" json:"use_cases"`
	Scalability           []string `yaml:"scalability" json:"scalability"`
	DeploymentTargets     []string `yaml:"deployment_targets" json:"deployment_targets"`
	MinBudget             Budget   `yaml:"min_budget" json:"min_budget"`
	DataTypes             []string `yaml:"data_types" json:"data_types"`
	DataSizes             []string `yaml:"data_sizes" json:"data_sizes"`
	Compliance            []string `yaml:"compliance" json:"compliance"`
	SecurityLevels        []string `yaml:"security_levels" json:"security_levels"`
	Maturity              string   `yaml:"maturity" json:"maturity"`
	LearningCurve         string   `yaml:"learning_curve" json:"learning_curve"`
	Popularity            float64  `yaml:"popularity" json:"popularity"`
	LatencyProfile        string   `yaml:"latency_profile" json:"latency_profile"`
	ThroughputProfile     string   `yaml:"throughput_profile" json:"throughput_profile"`
	IntegrationComplexity string   `yaml:"integration_complexity" json:"integration_complexity"`
	MonthlyCostUSD        float64  `yaml:"monthly_cost_usd" json:"monthly_cost_usd"`
}

// Requirements is what a project needs. An empty field or list places no constraint on that axis.
type Requirements struct {
	ProjectName       string   `yaml:"project_name" json:"project_name,omitempty"`
	ProjectType       string   `yaml:"project_type" json:"project_type,omitempty"`
	TeamSize          int      `yaml:"team_size" json:"team_size,omitempty"`
	Languages         []string `yaml:"languages" json:"languages,omitempty"`
	UseCases          []string `yaml:"use_cases" json:"use_cases,omitempty"`
	Scalability       string   `yaml:"scalability" json:"scalability,omitempty"`
	DeploymentTargets []string `yaml:"deployment_targets" json:"deployment_targets,omitempty"`
	Budget            Budget   `yaml:"budget" json:"budget,omitempty"`
	DataTypes         []string `yaml:"data_types" json:"data_types,omitempty"`
	DataSize          string   `yaml:"data_size" json:"data_size,omitempty"`
	Compliance        []string `yaml:"compliance" json:"compliance,omitempty"`
	SecurityLevel     string   `yaml:"security_level" json:"security_level,omitempty"`
	Latency           string   `yaml:"latency" json:"latency,omitempty"`
	Throughput        string   `yaml:"throughput" json:"throughput,omitempty"`
}

// Validate rejects misspelled enumerations; unknown list values are allowed and simply match nothing.
func (r Requirements) Validate() error {
	if r.Budget != "" && r.Budget.Rank() < 0 {
		return fmt.Errorf("unknown budget tier %q (want one of %s)", r.Budget, joinBudgets())
	}
	for _, f := range []struct {
		name  string
		value string
		known []string
	}{
		{"scalability", r.Scalability, ScalabilityLevels},
		{"data size", r.DataSize, DataSizes},
		{"security level", r.SecurityLevel, SecurityLevels},
		{"latency", r.Latency, Profiles},
		{"throughput", r.Throughput, Profiles},
		{"project type", r.ProjectType, ProjectTypes},
	} {
		if f.value != "" && !slices.Contains(f.known, strings.ToLower(f.value)) {
			return fmt.Errorf("unknown %s %q (want one of %s)", f.name, f.value, strings.Join(f.known, ", "))
		}
	}
	if r.TeamSize < 0 {
		return fmt.Errorf("team size must not be negative, got %d", r.TeamSize)
	}
	return nil
}

func joinBudgets() string {
	names := make([]string, len(budgetOrder))
	for i, b := range budgetOrder {
		names[i] = string(b)
	}
	return strings.Join(names, ", ")
}

// ComponentScore is a component's match against one set of requirements.
type ComponentScore struct {
	Component Component `json:"component"`
	Score     float64   `json:"score"`
	Reasons   []string  `json:"reasons"`
	Concerns  []string  `json:"concerns"`
}
