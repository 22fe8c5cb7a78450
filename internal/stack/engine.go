package stack

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	recommendedPerCategory  = 3
	alternativesPerCategory = 3
)

// CategoryRecommendation is the ranked shortlist for one category.
type CategoryRecommendation struct {
	Category     string           `json:"category"`
	Recommended  []ComponentScore `json:"recommended"`
	Alternatives []ComponentScore `json:"alternatives"`
	MeanScore    float64          `json:"mean_score"`
}

// Suggestion is the full recommendation for one set of requirements.
type Suggestion struct {
	Requirements   Requirements             `json:"requirements"`
	Categories     []CategoryRecommendation `json:"categories"`
	AggregateScore float64                  `json:"aggregate_score"`
	Architecture   ArchitecturePattern      `json:"architecture"`
	Cost           CostEstimate             `json:"cost"`
	Timeline       Timeline                 `json:"timeline"`
	Risks          []string                 `json:"risks"`
}

// Engine ranks the components of one catalog.
type Engine struct {
	catalog *Catalog
}

// NewEngine binds an engine to a catalog.
func NewEngine(c *Catalog) *Engine {
	return &Engine{catalog: c}
}

// Recommend filters, scores and ranks every category. Only malformed requirements are errors;
// a category with no eligible component is present with empty lists.
func (e *Engine) Recommend(req Requirements) (*Suggestion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s := &Suggestion{Requirements: req}
	sum, counted := 0.0, 0
	for _, cat := range e.catalog.Categories() {
		rec := rankCategory(req, cat, e.catalog.InCategory(cat))
		if len(rec.Recommended) > 0 {
			sum += rec.MeanScore
			counted++
		}
		s.Categories = append(s.Categories, rec)
	}
	if counted > 0 {
		s.AggregateScore = sum / float64(counted)
	}
	s.Architecture = SelectArchitecture(req)
	s.Cost = estimateCost(req, s.Categories)
	s.Timeline = estimateTimeline(req, s.Categories)
	s.Risks = assessRisks(req, s.Categories)
	return s, nil
}

func rankCategory(req Requirements, category string, comps []Component) CategoryRecommendation {
	var scored []ComponentScore
	for _, c := range comps {
		if Eligible(req, c) {
			scored = append(scored, Score(req, c))
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return strings.ToLower(scored[i].Component.Name) < strings.ToLower(scored[j].Component.Name)
	})
	rec := CategoryRecommendation{Category: category, Recommended: []ComponentScore{}, Alternatives: []ComponentScore{}}
	for i, sc := range scored {
		switch {
		case i < recommendedPerCategory:
			rec.Recommended = append(rec.Recommended, sc)
		case i < recommendedPerCategory+alternativesPerCategory:
			rec.Alternatives = append(rec.Alternatives, sc)
		}
	}
	if len(rec.Recommended) > 0 {
		total := 0.0
		for _, sc := range rec.Recommended {
			total += sc.Score
		}
		rec.MeanScore = total / float64(len(rec.Recommended))
	}
	return rec
}

// top returns the first recommended component of each non-empty category.
func top(cats []CategoryRecommendation) []Component {
	var out []Component
	for _, c := range cats {
		if len(c.Recommended) > 0 {
			out = append(out, c.Recommended[0].Component)
		}
	}
	return out
}

// CostEstimate is the monthly run cost of the top pick per category, scaled by data size.
type CostEstimate struct {
	MonthlyUSD decimal.Decimal            `json:"monthly_usd"`
	Breakdown  map[string]decimal.Decimal `json:"breakdown"`
	Multiplier decimal.Decimal            `json:"multiplier"`
}

var dataSizeMultiplier = map[string]decimal.Decimal{
	"":        decimal.NewFromInt(1),
	"small":   decimal.NewFromInt(1),
	"medium":  decimal.NewFromFloat(1.5),
	"large":   decimal.NewFromFloat(2.5),
	"massive": decimal.NewFromInt(4),
}

func estimateCost(req Requirements, cats []CategoryRecommendation) CostEstimate {
	m := dataSizeMultiplier[strings.ToLower(req.DataSize)]
	est := CostEstimate{MonthlyUSD: decimal.Zero, Breakdown: map[string]decimal.Decimal{}, Multiplier: m}
	for _, c := range top(cats) {
		cost := decimal.NewFromFloat(c.MonthlyCostUSD).Mul(m).Round(2)
		est.Breakdown[c.Category] = cost
		est.MonthlyUSD = est.MonthlyUSD.Add(cost)
	}
	return est
}

// Phase is one step of the delivery timeline.
type Phase struct {
	Name  string `json:"name"`
	Weeks int    `json:"weeks"`
}

// Timeline is a rule-based delivery plan.
type Timeline struct {
	TotalWeeks int     `json:"total_weeks"`
	Phases     []Phase `json:"phases"`
}

var integrationWeeks = map[string]int{"simple": 1, "moderate": 2, "complex": 3, "expert": 4}

func estimateTimeline(req Requirements, cats []CategoryRecommendation) Timeline {
	integration := 0
	for _, c := range top(cats) {
		integration += integrationWeeks[c.IntegrationComplexity]
	}
	if integration == 0 {
		integration = 1
	}
	hardening := 1 + len(req.Compliance)
	switch strings.ToLower(req.SecurityLevel) {
	case "high":
		hardening++
	case "critical":
		hardening += 2
	}
	launch := 1
	if sc := strings.ToLower(req.Scalability); sc == "distributed" || sc == "cloud-native" {
		launch = 2
	}
	phases := []Phase{
		{Name: "Prototype", Weeks: 2},
		{Name: "Integration", Weeks: integration},
		{Name: "Hardening", Weeks: hardening},
		{Name: "Launch", Weeks: launch},
	}
	t := Timeline{Phases: phases}
	for _, p := range phases {
		t.TotalWeeks += p.Weeks
	}
	return t
}

func assessRisks(req Requirements, cats []CategoryRecommendation) []string {
	var risks []string
	for _, c := range cats {
		if len(c.Recommended) == 0 {
			risks = append(risks, "No eligible "+c.Category+" for these requirements; relax a constraint or build in-house")
		}
	}
	for _, c := range top(cats) {
		if c.Maturity == "experimental" || c.Maturity == "beta" {
			risks = append(risks, c.Name+" is "+c.Maturity+"; expect breaking changes")
		}
		if (c.LearningCurve == "steep" || c.LearningCurve == "expert") && req.TeamSize > 0 && req.TeamSize < 5 {
			risks = append(risks, c.Name+" has a "+c.LearningCurve+" learning curve for a team of this size")
		}
	}
	if len(req.Compliance) > 0 {
		risks = append(risks, "Compliance ("+strings.Join(req.Compliance, ", ")+") needs an audit of every self-hosted component")
	}
	size := strings.ToLower(req.DataSize)
	if req.Budget.Rank() >= 0 && req.Budget.Rank() <= 1 && (size == "large" || size == "massive") {
		risks = append(risks, "A "+string(req.Budget)+" budget is tight for "+size+" data volumes")
	}
	return risks
}
