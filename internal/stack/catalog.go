package stack

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shayne-snap/llmroof/data"
)

// Catalog is the read-only component list, grouped by category in file order.
type Catalog struct {
	components []Component
	categories []string
}

type catalogFile struct {
	Components []Component `yaml:"components"`
}

// LoadCatalog parses the embedded component catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(data.ComponentsYAML)
}

// ParseCatalog decodes and validates a YAML component list.
func ParseCatalog(body []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("parse component catalog: %w", err)
	}
	return NewCatalog(f.Components)
}

// NewCatalog validates components and records category order.
func NewCatalog(list []Component) (*Catalog, error) {
	c := &Catalog{}
	seen := make(map[string]bool, len(list))
	for _, comp := range list {
		if err := validateComponent(comp); err != nil {
			return nil, err
		}
		key := strings.ToLower(comp.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate component %q", comp.Name)
		}
		seen[key] = true
		if !slices.Contains(c.categories, comp.Category) {
			c.categories = append(c.categories, comp.Category)
		}
		c.components = append(c.components, comp)
	}
	return c, nil
}

func validateComponent(c Component) error {
	if c.Name == "" || c.Category == "" {
		return fmt.Errorf("component %q: name and category are required", c.Name)
	}
	if c.MinBudget.Rank() < 0 {
		return fmt.Errorf("component %s: unknown min_budget %q", c.Name, c.MinBudget)
	}
	if _, ok := maturityScore[c.Maturity]; !ok {
		return fmt.Errorf("component %s: unknown maturity %q", c.Name, c.Maturity)
	}
	if _, ok := learningScore[c.LearningCurve]; !ok {
		return fmt.Errorf("component %s: unknown learning_curve %q", c.Name, c.LearningCurve)
	}
	if _, ok := integrationScore[c.IntegrationComplexity]; !ok {
		return fmt.Errorf("component %s: unknown integration_complexity %q", c.Name, c.IntegrationComplexity)
	}
	if c.Popularity < 0 || c.Popularity > 10 {
		return fmt.Errorf("component %s: popularity must be within 0-10, got %v", c.Name, c.Popularity)
	}
	if c.MonthlyCostUSD < 0 {
		return fmt.Errorf("component %s: monthly_cost_usd must not be negative", c.Name)
	}
	return nil
}

// Components returns a copy of every component in file order.
func (c *Catalog) Components() []Component {
	return append([]Component(nil), c.components...)
}

// Categories returns category names in order of first appearance.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// InCategory returns the components of one category.
func (c *Catalog) InCategory(category string) []Component {
	var out []Component
	for _, comp := range c.components {
		if comp.Category == category {
			out = append(out, comp)
		}
	}
	return out
}
