package stack

import (
	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func component(name, category string) Component {
	return Component{
		Name:                  name,
		Category:              category,
		Languages:             []string{"python", "go"},
		UseCases:              []string{"rag", "chatbot"},
		Scalability:           []string{"single-node", "horizontal"},
		DeploymentTargets:     []string{"cloud", "on-prem"},
		MinBudget:             BudgetSmall,
		DataTypes:             []string{"text"},
		DataSizes:             []string{"small", "medium"},
		Compliance:            []string{"gdpr", "soc2"},
		SecurityLevels:        []string{"standard", "high"},
		Maturity:              "stable",
		LearningCurve:         "moderate",
		Popularity:            8,
		LatencyProfile:        "low",
		ThroughputProfile:     "high",
		IntegrationComplexity: "moderate",
		MonthlyCostUSD:        100,
	}
}

func baseRequirements() Requirements {
	return Requirements{
		Languages:         []string{"python"},
		UseCases:          []string{"rag"},
		Scalability:       "horizontal",
		DeploymentTargets: []string{"cloud"},
		Budget:            BudgetMedium,
		DataTypes:         []string{"text"},
		DataSize:          "medium",
		SecurityLevel:     "standard",
	}
}

var _ = Describe("Eligible", func() {
	var req Requirements
	var comp Component

	BeforeEach(func() {
		req = baseRequirements()
		comp = component("A", "inference-server")
	})

	It("accepts a component that passes every axis", func() {
		Expect(Eligible(req, comp)).To(BeTrue())
	})

	It("treats empty requirement axes as wildcards", func() {
		Expect(Eligible(Requirements{}, comp)).To(BeTrue())
	})

	DescribeTable("rejects a mismatch on any axis",
		func(mutate func(*Requirements)) {
			mutate(&req)
			Expect(Eligible(req, comp)).To(BeFalse())
		},
		Entry("language", func(r *Requirements) { r.Languages = []string{"rust"} }),
		Entry("use case", func(r *Requirements) { r.UseCases = []string{"agents"} }),
		Entry("deployment target", func(r *Requirements) { r.DeploymentTargets = []string{"edge"} }),
		Entry("data type", func(r *Requirements) { r.DataTypes = []string{"audio"} }),
		Entry("scalability", func(r *Requirements) { r.Scalability = "distributed" }),
		Entry("data size", func(r *Requirements) { r.DataSize = "massive" }),
		Entry("security level", func(r *Requirements) { r.SecurityLevel = "critical" }),
		Entry("budget below the component tier", func(r *Requirements) { r.Budget = BudgetMinimal }),
		Entry("unsupported compliance", func(r *Requirements) { r.Compliance = []string{"gdpr", "hipaa"} }),
	)

	It("needs only one overlapping value on list axes", func() {
		req.Languages = []string{"rust", "Go"}
		Expect(Eligible(req, comp)).To(BeTrue())
	})

	It("requires every compliance regime, not just one", func() {
		req.Compliance = []string{"gdpr", "soc2"}
		Expect(Eligible(req, comp)).To(BeTrue())
		req.Compliance = append(req.Compliance, "fedramp")
		Expect(Eligible(req, comp)).To(BeFalse())
	})

	It("is monotonic in compliance across the shipped catalog", func() {
		c, err := LoadCatalog()
		Expect(err).NotTo(HaveOccurred())
		regimes := []string{"gdpr", "soc2", "hipaa", "pci-dss", "fedramp"}
		var prev map[string]bool
		var reqs Requirements
		for i := 0; i <= len(regimes); i++ {
			reqs.Compliance = regimes[:i]
			cur := map[string]bool{}
			for _, comp := range c.Components() {
				if Eligible(reqs, comp) {
					cur[comp.Name] = true
				}
			}
			if prev != nil {
				for name := range cur {
					Expect(prev).To(HaveKey(name), "adding a compliance requirement made %s eligible", name)
				}
				Expect(len(cur)).To(BeNumerically("<=", len(prev)))
			}
			prev = cur
		}
	})
})

var _ = Describe("Score", func() {
	It("sums every dimension and caps at 100", func() {
		req := baseRequirements()
		req.Latency, req.Throughput = "low", "high"
		comp := component("A", "x")
		comp.Maturity, comp.LearningCurve, comp.Popularity, comp.IntegrationComplexity = "mature", "easy", 10, "simple"
		Expect(Score(req, comp).Score).To(Equal(100.0))
	})

	It("weights language and use-case match by fraction", func() {
		req := Requirements{Languages: []string{"python", "rust"}, UseCases: []string{"rag", "agents"}}
		comp := component("A", "x")
		// 10 + 12.5 + stable 12 + moderate 7 + popularity 8 + moderate integration 4 + budget 5
		sc := Score(req, comp)
		Expect(sc.Score).To(BeNumerically("~", 58.5, 1e-9))
		Expect(sc.Reasons).To(ContainElement("Supports 1/2 requested languages"))
	})

	DescribeTable("budget fit",
		func(req, min Budget, want float64) {
			Expect(budgetFit(req, min)).To(Equal(want))
		},
		Entry("within", BudgetMedium, BudgetSmall, 5.0),
		Entry("equal", BudgetMedium, BudgetMedium, 5.0),
		Entry("one tier above", BudgetSmall, BudgetMedium, 3.0),
		Entry("far above", BudgetMinimal, BudgetEnterprise, 1.0),
	)

	It("records concerns for immature, hard-to-learn components", func() {
		comp := component("A", "x")
		comp.Maturity, comp.LearningCurve, comp.IntegrationComplexity = "experimental", "expert", "expert"
		sc := Score(Requirements{}, comp)
		Expect(sc.Concerns).To(ContainElements("Maturity is experimental", "Learning curve is expert", "Integration is expert"))
		Expect(sc.Score).To(BeNumerically("~", 20+25+3+2+8+1+5, 1e-9))
	})
})

var _ = Describe("Engine.Recommend", func() {
	var engine *Engine

	BeforeEach(func() {
		var comps []Component
		for i, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
			c := component(name, "inference-server")
			c.Popularity = float64(i)
			comps = append(comps, c)
		}
		vec := component("vec", "vector-database")
		vec.Languages = []string{"java"}
		comps = append(comps, vec)
		cat, err := NewCatalog(comps)
		Expect(err).NotTo(HaveOccurred())
		engine = NewEngine(cat)
	})

	It("keeps the top three as recommended and the next three as alternatives", func() {
		s, err := engine.Recommend(baseRequirements())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Categories).To(HaveLen(2))
		inf := s.Categories[0]
		Expect(inf.Category).To(Equal("inference-server"))
		Expect(inf.Recommended).To(HaveLen(3))
		Expect(inf.Alternatives).To(HaveLen(3))
		Expect(inf.Recommended[0].Component.Name).To(Equal("h"))
		Expect(inf.Alternatives[2].Component.Name).To(Equal("c"))
	})

	It("averages only categories with recommendations", func() {
		s, err := engine.Recommend(baseRequirements())
		Expect(err).NotTo(HaveOccurred())
		vec := s.Categories[1]
		Expect(vec.Recommended).To(BeEmpty())
		Expect(s.AggregateScore).To(Equal(s.Categories[0].MeanScore))
		Expect(s.Risks).To(ContainElement(ContainSubstring("No eligible vector-database")))
	})

	It("returns an empty suggestion, not an error, when nothing is eligible", func() {
		req := baseRequirements()
		req.Languages = []string{"cobol"}
		s, err := engine.Recommend(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.AggregateScore).To(BeZero())
		for _, c := range s.Categories {
			Expect(c.Recommended).To(BeEmpty())
		}
		Expect(s.Cost.MonthlyUSD.IsZero()).To(BeTrue())
	})

	It("rejects malformed requirements", func() {
		req := baseRequirements()
		req.Budget = "huge"
		_, err := engine.Recommend(req)
		Expect(err).To(MatchError(ContainSubstring("unknown budget tier")))
		req = baseRequirements()
		req.SecurityLevel = "paranoid"
		_, err = engine.Recommend(req)
		Expect(err).To(MatchError(ContainSubstring("unknown security level")))
	})

	It("prices the top pick of each category by data size", func() {
		req := baseRequirements()
		req.DataSize = "medium"
		s, err := engine.Recommend(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Cost.MonthlyUSD.Equal(decimal.NewFromInt(150))).To(BeTrue(), s.Cost.MonthlyUSD.String())
		Expect(s.Cost.Breakdown).To(HaveKey("inference-server"))
	})

	It("is deterministic", func() {
		a, _ := engine.Recommend(baseRequirements())
		b, _ := engine.Recommend(baseRequirements())
		Expect(a).To(Equal(b))
	})
})

var _ = Describe("SelectArchitecture", func() {
	DescribeTable("first matching rule wins",
		func(req Requirements, want ArchitecturePattern) {
			Expect(SelectArchitecture(req)).To(Equal(want))
		},
		Entry("edge beats everything", Requirements{DeploymentTargets: []string{"Edge"}, Scalability: "cloud-native", ProjectType: "enterprise"}, PatternEdgeCloud),
		Entry("mobile", Requirements{DeploymentTargets: []string{"mobile"}}, PatternEdgeCloud),
		Entry("cloud-native", Requirements{Scalability: "cloud-native", TeamSize: 50}, PatternServerless),
		Entry("distributed", Requirements{Scalability: "distributed", ProjectType: "enterprise"}, PatternMicroservices),
		Entry("large team", Requirements{TeamSize: LargeTeamSize}, PatternMicroservices),
		Entry("enterprise", Requirements{ProjectType: "enterprise", TeamSize: 5}, PatternHybrid),
		Entry("default", Requirements{}, PatternMonolithic),
	)
})

var _ = Describe("Catalog", func() {
	It("loads the embedded catalog", func() {
		c, err := LoadCatalog()
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Categories()).To(ContainElements("inference-server", "vector-database", "orchestration"))
		Expect(c.InCategory("inference-server")).NotTo(BeEmpty())
	})

	DescribeTable("rejects invalid components",
		func(body, want string) {
			_, err := ParseCatalog([]byte(body))
			Expect(err).To(MatchError(ContainSubstring(want)))
		},
		Entry("unknown maturity", "components:\n  - {name: a, category: x, min_budget: small, maturity: ancient, learning_curve: easy, integration_complexity: simple}\n", "maturity"),
		Entry("popularity out of range", "components:\n  - {name: a, category: x, min_budget: small, maturity: beta, learning_curve: easy, integration_complexity: simple, popularity: 11}\n", "popularity"),
		Entry("unknown budget", "components:\n  - {name: a, category: x, min_budget: lavish, maturity: beta, learning_curve: easy, integration_complexity: simple}\n", "min_budget"),
		Entry("duplicate", "components:\n  - {name: a, category: x, min_budget: small, maturity: beta, learning_curve: easy, integration_complexity: simple}\n  - {name: A, category: y, min_budget: small, maturity: beta, learning_curve: easy, integration_complexity: simple}\n", "duplicate"),
	)
})
