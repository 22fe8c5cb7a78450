package stack

import (
	"slices"
	"strings"
)

// ArchitecturePattern is the suggested system shape.
type ArchitecturePattern string

const (
	PatternEdgeCloud     ArchitecturePattern = "edge-cloud"
	PatternServerless    ArchitecturePattern = "serverless"
	PatternMicroservices ArchitecturePattern = "microservices"
	PatternHybrid        ArchitecturePattern = "hybrid"
	PatternMonolithic    ArchitecturePattern = "monolithic"
)

// LargeTeamSize is the team size from which microservices are suggested.
const LargeTeamSize = 20

// SelectArchitecture applies the rules in order; the first match wins.
func SelectArchitecture(req Requirements) ArchitecturePattern {
	targets := make([]string, len(req.DeploymentTargets))
	for i, t := range req.DeploymentTargets {
		targets[i] = strings.ToLower(t)
	}
	scal := strings.ToLower(req.Scalability)
	switch {
	case slices.Contains(targets, "edge") || slices.Contains(targets, "mobile"):
		return PatternEdgeCloud
	case scal == "cloud-native":
		return PatternServerless
	case scal == "distributed" || req.TeamSize >= LargeTeamSize:
		return PatternMicroservices
	case strings.EqualFold(req.ProjectType, "enterprise"):
		return PatternHybrid
	}
	return PatternMonolithic
}

// Description is a one-line summary of the pattern.
func (p ArchitecturePattern) Description() string {
	switch p {
	case PatternEdgeCloud:
		return "Small quantized models on device, larger models behind a cloud endpoint"
	case PatternServerless:
		return "Managed, autoscaled inference endpoints with event-driven glue"
	case PatternMicroservices:
		return "Independently deployed inference, retrieval and orchestration services"
	case PatternHybrid:
		return "Sensitive workloads on-prem, burst capacity in the cloud"
	default:
		return "One deployable service wrapping model, retrieval and API"
	}
}
