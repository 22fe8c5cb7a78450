package stack

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// MaxScore caps a component score.
const MaxScore = 100

// Eligible reports whether a component passes every axis: overlap on list axes, membership on
// single-valued axes, budget ordering, and support for every required compliance regime.
func Eligible(req Requirements, c Component) bool {
	return overlaps(req.Languages, c.Languages) &&
		overlaps(req.UseCases, c.UseCases) &&
		overlaps(req.DeploymentTargets, c.DeploymentTargets) &&
		overlaps(req.DataTypes, c.DataTypes) &&
		member(req.Scalability, c.Scalability) &&
		member(req.DataSize, c.DataSizes) &&
		member(req.SecurityLevel, c.SecurityLevels) &&
		withinBudget(req.Budget, c.MinBudget) &&
		subset(req.Compliance, c.Compliance)
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func contains(list []string, v string) bool {
	return slices.ContainsFunc(list, func(x string) bool { return normalize(x) == normalize(v) })
}

func overlaps(want, have []string) bool {
	if len(want) == 0 {
		return true
	}
	return slices.ContainsFunc(want, func(w string) bool { return contains(have, w) })
}

func member(want string, have []string) bool {
	return want == "" || contains(have, want)
}

func subset(want, have []string) bool {
	for _, w := range want {
		if !contains(have, w) {
			return false
		}
	}
	return true
}

func withinBudget(req, min Budget) bool {
	return req == "" || min.Rank() <= req.Rank()
}

// fraction is the share of wanted values the component supports; no preference counts as full.
func fraction(want, have []string) (float64, int) {
	if len(want) == 0 {
		return 1, 0
	}
	n := 0
	for _, w := range want {
		if contains(have, w) {
			n++
		}
	}
	return float64(n) / float64(len(want)), n
}

// Score rates a component 0–100 against the requirements. It does not check eligibility.
func Score(req Requirements, c Component) ComponentScore {
	var reasons, concerns []string
	total := 0.0

	langFrac, langN := fraction(req.Languages, c.Languages)
	total += langFrac * 20
	if len(req.Languages) > 0 {
		reasons = append(reasons, fmt.Sprintf("Supports %d/%d requested languages", langN, len(req.Languages)))
	}
	ucFrac, ucN := fraction(req.UseCases, c.UseCases)
	total += ucFrac * 25
	if len(req.UseCases) > 0 {
		reasons = append(reasons, fmt.Sprintf("Covers %d/%d use cases", ucN, len(req.UseCases)))
	}

	total += maturityScore[c.Maturity]
	switch c.Maturity {
	case "mature", "stable":
		reasons = append(reasons, "Production-proven ("+c.Maturity+")")
	default:
		concerns = append(concerns, "Maturity is "+c.Maturity)
	}

	total += learningScore[c.LearningCurve]
	if c.LearningCurve == "steep" || c.LearningCurve == "expert" {
		concerns = append(concerns, "Learning curve is "+c.LearningCurve)
	}

	total += math.Max(0, math.Min(10, c.Popularity))

	if req.Latency != "" && normalize(req.Latency) == normalize(c.LatencyProfile) {
		total += 5
		reasons = append(reasons, "Matches "+c.LatencyProfile+"-latency profile")
	}
	if req.Throughput != "" && normalize(req.Throughput) == normalize(c.ThroughputProfile) {
		total += 5
		reasons = append(reasons, "Matches "+c.ThroughputProfile+"-throughput profile")
	}

	total += integrationScore[c.IntegrationComplexity]
	if c.IntegrationComplexity == "complex" || c.IntegrationComplexity == "expert" {
		concerns = append(concerns, "Integration is "+c.IntegrationComplexity)
	}

	total += budgetFit(req.Budget, c.MinBudget)
	if req.Budget != "" && c.MinBudget.Rank() > req.Budget.Rank() {
		concerns = append(concerns, fmt.Sprintf("Typically needs a %s budget", c.MinBudget))
	}

	return ComponentScore{
		Component: c,
		Score:     math.Min(MaxScore, total),
		Reasons:   reasons,
		Concerns:  concerns,
	}
}

// budgetFit is 5 within budget, 3 one tier above, 1 otherwise.
func budgetFit(req, min Budget) float64 {
	if req == "" {
		return 5
	}
	switch d := min.Rank() - req.Rank(); {
	case d <= 0:
		return 5
	case d == 1:
		return 3
	}
	return 1
}
