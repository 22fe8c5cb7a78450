package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shayne-snap/llmroof/internal/display"
	"github.com/shayne-snap/llmroof/internal/stack"
)

var (
	stackFile   string
	stackReq    stack.Requirements
	stackBudget string
)

var stackCmd = &cobra.Command{
	Use:   "stack",
	Short: "Suggest an LLM application stack for a set of project requirements",
	Long: "Scores the component catalog against the requirements and prints the top picks per category, " +
		"an architecture pattern, a monthly cost estimate, a timeline and risks. " +
		"Requirements come from flags, a YAML --file, or both (flags win).",
	Args: cobra.NoArgs,
	RunE: runStack,
}

func init() {
	f := stackCmd.Flags()
	f.StringVarP(&stackFile, "file", "f", "", "YAML requirements file")
	f.StringVar(&stackReq.ProjectName, "name", "", "Project name")
	f.StringVar(&stackReq.ProjectType, "project-type", "", "personal, startup, research, enterprise")
	f.IntVar(&stackReq.TeamSize, "team-size", 0, "Number of engineers")
	f.StringSliceVar(&stackReq.Languages, "languages", nil, "Programming languages (comma separated)")
	f.StringSliceVar(&stackReq.UseCases, "use-cases", nil, "Use cases, e.g. rag,chatbot,agents")
	f.StringVar(&stackReq.Scalability, "scalability", "", "prototype, single-node, horizontal, distributed, cloud-native")
	f.StringSliceVar(&stackReq.DeploymentTargets, "deploy", nil, "Deployment targets, e.g. cloud,on-prem,edge")
	f.StringVar(&stackBudget, "budget", "", "minimal, small, medium, large, enterprise")
	f.StringSliceVar(&stackReq.DataTypes, "data-types", nil, "Data types, e.g. text,code,images")
	f.StringVar(&stackReq.DataSize, "data-size", "", "small, medium, large, massive")
	f.StringSliceVar(&stackReq.Compliance, "compliance", nil, "Compliance regimes, e.g. gdpr,hipaa,soc2")
	f.StringVar(&stackReq.SecurityLevel, "security", "", "basic, standard, high, critical")
	f.StringVar(&stackReq.Latency, "latency", "", "Latency requirement: low, medium, high")
	f.StringVar(&stackReq.Throughput, "throughput", "", "Throughput requirement: low, medium, high")
}

// stackRequirements merges the YAML file with the flags the user set.
func stackRequirements(cmd *cobra.Command) (stack.Requirements, error) {
	var req stack.Requirements
	if stackFile != "" {
		body, err := os.ReadFile(stackFile)
		if err != nil {
			return req, fmt.Errorf("read requirements: %w", err)
		}
		if err := yaml.Unmarshal(body, &req); err != nil {
			return req, fmt.Errorf("parse requirements %s: %w", stackFile, err)
		}
	}
	fl := cmd.Flags()
	set := func(name string) bool { return fl.Changed(name) }
	if set("name") {
		req.ProjectName = stackReq.ProjectName
	}
	if set("project-type") {
		req.ProjectType = stackReq.ProjectType
	}
	if set("team-size") {
		req.TeamSize = stackReq.TeamSize
	}
	if set("languages") {
		req.Languages = stackReq.Languages
	}
	if set("use-cases") {
		req.UseCases = stackReq.UseCases
	}
	if set("scalability") {
		req.Scalability = stackReq.Scalability
	}
	if set("deploy") {
		req.DeploymentTargets = stackReq.DeploymentTargets
	}
	if set("budget") {
		req.Budget = stack.Budget(stackBudget)
	}
	if set("data-types") {
		req.DataTypes = stackReq.DataTypes
	}
	if set("data-size") {
		req.DataSize = stackReq.DataSize
	}
	if set("compliance") {
		req.Compliance = stackReq.Compliance
	}
	if set("security") {
		req.SecurityLevel = stackReq.SecurityLevel
	}
	if set("latency") {
		req.Latency = stackReq.Latency
	}
	if set("throughput") {
		req.Throughput = stackReq.Throughput
	}
	return req, nil
}

func runStack(cmd *cobra.Command, args []string) error {
	req, err := stackRequirements(cmd)
	if err != nil {
		return err
	}
	catalog, err := stack.LoadCatalog()
	if err != nil {
		return err
	}
	s, err := stack.NewEngine(catalog).Recommend(req)
	if err != nil {
		return err
	}
	display.Stack(cmd.OutOrStdout(), s, globalJSON)
	return nil
}
