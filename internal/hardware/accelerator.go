// Package hardware holds the accelerator catalog and detects the GPUs of the current machine.
package hardware

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shayne-snap/llmroof/data"
)

// Accelerator is one device the roofline engine can evaluate against. Figures use decimal units.
type Accelerator struct {
	Name                string   `json:"name" yaml:"name"`
	Vendor              string   `json:"vendor" yaml:"vendor"`
	ComputeTFLOPS       float64  `json:"compute_tflops" yaml:"compute_tflops"`
	MemoryBandwidthGBps float64  `json:"memory_bandwidth_gbps" yaml:"memory_bandwidth_gbps"`
	MemoryGB            float64  `json:"memory_gb" yaml:"memory_gb"`
	PricePerHour        *float64 `json:"price_per_hour,omitempty" yaml:"price_per_hour,omitempty"`
}

// FLOPs returns peak compute in FLOP/s.
func (a Accelerator) FLOPs() float64 { return a.ComputeTFLOPS * 1e12 }

// BandwidthBps returns memory bandwidth in bytes/s.
func (a Accelerator) BandwidthBps() float64 { return a.MemoryBandwidthGBps * 1e9 }

// CapacityBytes returns on-device memory in bytes.
func (a Accelerator) CapacityBytes() float64 { return a.MemoryGB * 1e9 }

// Validate reports the first non-positive or non-finite figure.
func (a Accelerator) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("accelerator name is empty")
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"compute_tflops", a.ComputeTFLOPS},
		{"memory_bandwidth_gbps", a.MemoryBandwidthGBps},
		{"memory_gb", a.MemoryGB},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v <= 0 {
			return fmt.Errorf("accelerator %s: %s must be a positive number, got %v", a.Name, f.name, f.v)
		}
	}
	if a.PricePerHour != nil && (*a.PricePerHour < 0 || math.IsNaN(*a.PricePerHour)) {
		return fmt.Errorf("accelerator %s: price_per_hour must not be negative", a.Name)
	}
	return nil
}

// Catalog is the read-only accelerator list loaded once at startup.
type Catalog struct {
	accelerators []Accelerator
}

type catalogFile struct {
	Accelerators []Accelerator `yaml:"accelerators"`
}

// LoadCatalog parses the embedded accelerator catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(data.AcceleratorsYAML)
}

// ParseCatalog decodes and validates a YAML accelerator list. Names must be unique (case-insensitive).
func ParseCatalog(body []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("parse accelerator catalog: %w", err)
	}
	seen := make(map[string]bool, len(f.Accelerators))
	for _, a := range f.Accelerators {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(a.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate accelerator %q", a.Name)
		}
		seen[key] = true
	}
	return &Catalog{accelerators: f.Accelerators}, nil
}

// NewCatalog builds a catalog from an explicit list (tests, custom devices).
func NewCatalog(list []Accelerator) *Catalog {
	return &Catalog{accelerators: append([]Accelerator(nil), list...)}
}

// All returns a copy of every accelerator in catalog order.
func (c *Catalog) All() []Accelerator {
	return append([]Accelerator(nil), c.accelerators...)
}

// Find returns accelerators whose name or vendor contains the query (case-insensitive).
// An exact name match is returned alone.
func (c *Catalog) Find(query string) []Accelerator {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Accelerator
	for _, a := range c.accelerators {
		if strings.ToLower(a.Name) == q {
			return []Accelerator{a}
		}
		if strings.Contains(strings.ToLower(a.Name), q) || strings.Contains(strings.ToLower(a.Vendor), q) {
			out = append(out, a)
		}
	}
	return out
}

// Get resolves a query to exactly one accelerator.
func (c *Catalog) Get(query string) (Accelerator, error) {
	found := c.Find(query)
	switch len(found) {
	case 0:
		return Accelerator{}, fmt.Errorf("no accelerator matching %q", query)
	case 1:
		return found[0], nil
	}
	names := make([]string, 0, len(found))
	for _, a := range found {
		names = append(names, a.Name)
	}
	return Accelerator{}, fmt.Errorf("%q is ambiguous: %s", query, strings.Join(names, ", "))
}

// Vendors returns the distinct vendor names, sorted.
func (c *Catalog) Vendors() []string {
	set := make(map[string]bool)
	for _, a := range c.accelerators {
		set[a.Vendor] = true
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// FilterByVendor keeps accelerators of the given vendor (case-insensitive); empty keeps all.
func FilterByVendor(list []Accelerator, vendor string) []Accelerator {
	if strings.TrimSpace(vendor) == "" {
		return list
	}
	var out []Accelerator
	for _, a := range list {
		if strings.EqualFold(a.Vendor, vendor) {
			out = append(out, a)
		}
	}
	return out
}
