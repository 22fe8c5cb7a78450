package hardware

import (
	"regexp"
	"strings"
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	memorySize = regexp.MustCompile(`^\d+gb$`)
)

// qualifier tokens narrow a match (form factor, memory size) but are not required.
func isQualifier(tok string) bool {
	return tok == "sxm" || tok == "pcie" || memorySize.MatchString(tok)
}

func tokens(s string) []string {
	return strings.Fields(nonAlnum.ReplaceAllString(strings.ToLower(s), " "))
}

// MatchName finds the catalog accelerator a driver-reported device name refers to.
// Every non-qualifier token of the catalog name (vendor excluded) must appear in the device name;
// the candidate matching the most qualifiers wins, ties go to catalog order.
func (c *Catalog) MatchName(device string) (Accelerator, bool) {
	have := make(map[string]bool)
	for _, t := range tokens(device) {
		have[t] = true
		// "sxm4", "sxm5" count as "sxm"
		if strings.HasPrefix(t, "sxm") {
			have["sxm"] = true
		}
	}
	best, bestScore := -1, -1
	for i, a := range c.accelerators {
		vendor := strings.ToLower(a.Vendor)
		score, ok := 0, true
		for _, t := range tokens(a.Name) {
			if t == vendor {
				continue
			}
			switch {
			case have[t] && isQualifier(t):
				score++
			case have[t]:
			case isQualifier(t):
			default:
				ok = false
			}
			if !ok {
				break
			}
		}
		if ok && score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Accelerator{}, false
	}
	return c.accelerators[best], true
}

// MatchHost maps the primary GPU to a catalog accelerator. Memory is replaced by the detected
// per-device figure when the driver reported one (unified-memory hosts differ per SKU).
func (c *Catalog) MatchHost(h *Host) (Accelerator, bool) {
	g := h.Primary()
	if g == nil {
		return Accelerator{}, false
	}
	acc, ok := c.MatchName(g.Name)
	if !ok {
		return Accelerator{}, false
	}
	if g.VRAMGB != nil && *g.VRAMGB > 0 {
		acc.MemoryGB = *g.VRAMGB
	}
	return acc, true
}
