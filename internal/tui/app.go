// Package tui is the interactive what-if explorer: one model evaluated on every catalog
// accelerator, recomputed whenever the workload changes.
package tui

import (
	"math"
	"sort"
	"strings"

	"github.com/shayne-snap/llmroof/internal/compare"
	"github.com/shayne-snap/llmroof/internal/hardware"
	"github.com/shayne-snap/llmroof/internal/models"
	"github.com/shayne-snap/llmroof/internal/roofline"
)

// InputMode is the current TUI input mode (normal, search, or vendor popup).
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeSearch
	InputModeVendorPopup
)

// FitFilter filters the accelerator list by fit level (All, Runnable, Perfect, Good, Marginal; cycle with same key).
type FitFilter int

const (
	FitFilterAll FitFilter = iota
	FitFilterRunnable
	FitFilterPerfect
	FitFilterGood
	FitFilterMarginal
)

func (f FitFilter) Label() string {
	switch f {
	case FitFilterAll:
		return "All"
	case FitFilterRunnable:
		return "Runnable"
	case FitFilterPerfect:
		return "Perfect"
	case FitFilterGood:
		return "Good"
	case FitFilterMarginal:
		return "Marginal"
	default:
		return "All"
	}
}

func (f FitFilter) Next() FitFilter {
	switch f {
	case FitFilterAll:
		return FitFilterRunnable
	case FitFilterRunnable:
		return FitFilterPerfect
	case FitFilterPerfect:
		return FitFilterGood
	case FitFilterGood:
		return FitFilterMarginal
	default:
		return FitFilterAll
	}
}

func (f FitFilter) matches(level compare.FitLevel) bool {
	switch f {
	case FitFilterRunnable:
		return level != compare.FitTooTight
	case FitFilterPerfect:
		return level == compare.FitPerfect
	case FitFilterGood:
		return level == compare.FitGood
	case FitFilterMarginal:
		return level == compare.FitMarginal
	}
	return true
}

// Workload limits for the adjust keys.
const (
	maxBatch       = 4096
	maxTokens      = 1 << 20
	minEfficiency  = 5
	maxEfficiency  = 200
	efficiencyStep = 5
)

// Setup is what the explorer starts from.
type Setup struct {
	Host          *hardware.Host // nil when detection failed
	Models        []*models.LlmModel
	ModelIndex    int
	Accelerators  []hardware.Accelerator
	Table         models.QuantTable
	Workload      roofline.Workload
	Options       roofline.Options
	Overhead      roofline.Overhead // zero phases default to 100%
	Approximate   bool
}

// App holds the TUI state (workload, rows, filters, selection, vendors).
type App struct {
	ShouldQuit     bool
	InputMode      InputMode
	SearchQuery    string
	CursorPosition int

	Host          *hardware.Host
	Models        []*models.LlmModel
	ModelIndex    int
	Accelerators  []hardware.Accelerator
	Workload      roofline.Workload
	Options       roofline.Options
	Overhead      roofline.Overhead
	Approximate   bool

	table  models.QuantTable
	engine *roofline.Engine

	Spec         roofline.ModelSpec
	Err          error // spec or engine error for the current model
	Rows         []*compare.Row
	FilteredRows []int // indices into Rows

	Vendors         []string
	SelectedVendors []bool

	FitFilter    FitFilter
	SelectedRow  int
	ShowDetail   bool
	VendorCursor int

	Width  int
	Height int
}

// NewApp builds app state and runs the first evaluation.
func NewApp(s Setup) (*App, error) {
	if s.Overhead.PrefillPct == 0 {
		s.Overhead.PrefillPct = 100
	}
	if s.Overhead.DecodePct == 0 {
		s.Overhead.DecodePct = 100
	}
	engine, err := roofline.New(s.Table, s.Options)
	if err != nil {
		return nil, err
	}
	vendorSet := make(map[string]struct{})
	for _, acc := range s.Accelerators {
		vendorSet[acc.Vendor] = struct{}{}
	}
	vendors := make([]string, 0, len(vendorSet))
	for v := range vendorSet {
		vendors = append(vendors, v)
	}
	sort.Strings(vendors)
	selected := make([]bool, len(vendors))
	for i := range selected {
		selected[i] = true
	}
	app := &App{
		Host:            s.Host,
		Models:          s.Models,
		ModelIndex:      s.ModelIndex,
		Accelerators:    s.Accelerators,
		Workload:        s.Workload,
		Options:         s.Options,
		Overhead:        s.Overhead,
		Approximate:     s.Approximate,
		table:           s.Table,
		engine:          engine,
		Vendors:         vendors,
		SelectedVendors: selected,
		FitFilter:       FitFilterAll,
	}
	if app.ModelIndex < 0 || app.ModelIndex >= len(app.Models) {
		app.ModelIndex = 0
	}
	app.Recompute()
	return app, nil
}

// Model returns the model under evaluation, or nil with an empty catalog.
func (a *App) Model() *models.LlmModel {
	if len(a.Models) == 0 {
		return nil
	}
	return a.Models[a.ModelIndex]
}

// Recompute re-evaluates the current model on every accelerator and re-applies filters.
func (a *App) Recompute() {
	a.Rows, a.Err = nil, nil
	m := a.Model()
	if m == nil {
		a.ApplyFilters()
		return
	}
	spec, err := roofline.SpecFor(m, a.Workload)
	if err != nil {
		a.Spec, a.Err = roofline.ModelSpec{Name: m.Name}, err
		a.ApplyFilters()
		return
	}
	a.Spec = spec
	overhead := a.Overhead
	rows := compare.Compare(a.engine, a.Accelerators, spec, compare.Options{
		Approximate: a.Approximate,
		Overhead:    &overhead,
	})
	a.Rows = compare.RankByThroughput(rows)
	a.ApplyFilters()
}

// ApplyFilters updates FilteredRows from search, vendor, and fit filters; clamps SelectedRow.
func (a *App) ApplyFilters() {
	query := strings.ToLower(a.SearchQuery)
	var out []int
	for i, row := range a.Rows {
		acc := row.Accelerator
		matchesSearch := query == "" ||
			strings.Contains(strings.ToLower(acc.Name), query) ||
			strings.Contains(strings.ToLower(acc.Vendor), query)
		vendorIdx := sort.SearchStrings(a.Vendors, acc.Vendor)
		matchesVendor := vendorIdx >= len(a.Vendors) || a.Vendors[vendorIdx] != acc.Vendor || a.SelectedVendors[vendorIdx]
		if matchesSearch && matchesVendor && a.FitFilter.matches(row.Fit) {
			out = append(out, i)
		}
	}
	a.FilteredRows = out
	if len(a.FilteredRows) == 0 {
		a.SelectedRow = 0
	} else if a.SelectedRow >= len(a.FilteredRows) {
		a.SelectedRow = len(a.FilteredRows) - 1
	}
}

// SelectedRowData returns the currently selected row or nil.
func (a *App) SelectedRowData() *compare.Row {
	if len(a.FilteredRows) == 0 || a.SelectedRow < 0 || a.SelectedRow >= len(a.FilteredRows) {
		return nil
	}
	return a.Rows[a.FilteredRows[a.SelectedRow]]
}

func (a *App) MoveUp() {
	if a.SelectedRow > 0 {
		a.SelectedRow--
	}
}

func (a *App) MoveDown() {
	if len(a.FilteredRows) > 0 && a.SelectedRow < len(a.FilteredRows)-1 {
		a.SelectedRow++
	}
}

func (a *App) PageUp() {
	a.SelectedRow -= 10
	if a.SelectedRow < 0 {
		a.SelectedRow = 0
	}
}

func (a *App) PageDown() {
	if len(a.FilteredRows) == 0 {
		return
	}
	a.SelectedRow += 10
	if a.SelectedRow >= len(a.FilteredRows) {
		a.SelectedRow = len(a.FilteredRows) - 1
	}
}

func (a *App) Home() {
	a.SelectedRow = 0
}

func (a *App) End() {
	if len(a.FilteredRows) > 0 {
		a.SelectedRow = len(a.FilteredRows) - 1
	}
}

// NextModel and PrevModel step through the catalog, wrapping around.
func (a *App) NextModel() {
	if len(a.Models) == 0 {
		return
	}
	a.ModelIndex = (a.ModelIndex + 1) % len(a.Models)
	a.Recompute()
}

func (a *App) PrevModel() {
	if len(a.Models) == 0 {
		return
	}
	a.ModelIndex = (a.ModelIndex - 1 + len(a.Models)) % len(a.Models)
	a.Recompute()
}

// AdjustBatch doubles or halves the batch size within 1..maxBatch.
func (a *App) AdjustBatch(up bool) {
	b := a.Workload.BatchSize
	if up && b < maxBatch {
		b *= 2
	} else if !up && b > 1 {
		b /= 2
	}
	if b == 0 {
		b = 1
	}
	a.Workload.BatchSize = b
	a.Recompute()
}

func stepTokens(v uint32, up bool) uint32 {
	switch {
	case up && v == 0:
		return 1
	case up && v < maxTokens:
		return v * 2
	case !up:
		return v / 2
	}
	return v
}

// AdjustPrompt doubles or halves the prompt tokens (halving reaches 0).
func (a *App) AdjustPrompt(up bool) {
	a.Workload.PromptTokens = stepTokens(a.Workload.PromptTokens, up)
	a.Recompute()
}

// AdjustOutput doubles or halves the output tokens (halving reaches 0).
func (a *App) AdjustOutput(up bool) {
	a.Workload.OutputTokens = stepTokens(a.Workload.OutputTokens, up)
	a.Recompute()
}

// CycleQuant steps model default → FP32 → FP16 → INT8 → INT4 → model default.
func (a *App) CycleQuant() {
	cycle := append([]models.Quantization{""}, models.QuantHierarchy...)
	next := 0
	for i, q := range cycle {
		if q == a.Workload.Quantization {
			next = (i + 1) % len(cycle)
			break
		}
	}
	a.Workload.Quantization = cycle[next]
	a.Recompute()
}

// AdjustEfficiency moves both phase efficiencies by efficiencyStep, each clamped to its bounds.
func (a *App) AdjustEfficiency(up bool) {
	step := float64(efficiencyStep)
	if !up {
		step = -step
	}
	a.Overhead.PrefillPct = clampEfficiency(a.Overhead.PrefillPct + step)
	a.Overhead.DecodePct = clampEfficiency(a.Overhead.DecodePct + step)
	a.Recompute()
}

func clampEfficiency(pct float64) float64 {
	return math.Min(math.Max(pct, minEfficiency), maxEfficiency)
}

func (a *App) rebuildEngine() {
	engine, err := roofline.New(a.table, a.Options)
	if err != nil {
		a.Err = err
		return
	}
	a.engine = engine
	a.Recompute()
}

// ToggleStrict switches between strict and lenient architecture handling.
func (a *App) ToggleStrict() {
	a.Options.StrictArchitecture = !a.Options.StrictArchitecture
	a.rebuildEngine()
}

// ToggleKVBasis switches the KV cache between actual tokens and the full context window.
func (a *App) ToggleKVBasis() {
	if a.Options.KVBasis == roofline.KVBasisActualTokens {
		a.Options.KVBasis = roofline.KVBasisContextLength
	} else {
		a.Options.KVBasis = roofline.KVBasisActualTokens
	}
	a.rebuildEngine()
}

// ToggleApproximate enables the weights-only fallback for rows that fail precise evaluation.
func (a *App) ToggleApproximate() {
	a.Approximate = !a.Approximate
	a.Recompute()
}

func (a *App) CycleFitFilter() {
	a.FitFilter = a.FitFilter.Next()
	a.ApplyFilters()
}

func (a *App) EnterSearch() {
	a.InputMode = InputModeSearch
}

func (a *App) ExitSearch() {
	a.InputMode = InputModeNormal
}

func (a *App) SearchInput(r rune) {
	runes := []rune(a.SearchQuery)
	if a.CursorPosition > len(runes) {
		a.CursorPosition = len(runes)
	}
	runes = append(runes[:a.CursorPosition], append([]rune{r}, runes[a.CursorPosition:]...)...)
	a.SearchQuery = string(runes)
	a.CursorPosition++
	a.ApplyFilters()
}

func (a *App) SearchBackspace() {
	runes := []rune(a.SearchQuery)
	if a.CursorPosition <= 0 || a.CursorPosition > len(runes) {
		return
	}
	runes = append(runes[:a.CursorPosition-1], runes[a.CursorPosition:]...)
	a.SearchQuery = string(runes)
	a.CursorPosition--
	a.ApplyFilters()
}

func (a *App) SearchDelete() {
	runes := []rune(a.SearchQuery)
	if a.CursorPosition < 0 || a.CursorPosition >= len(runes) {
		return
	}
	runes = append(runes[:a.CursorPosition], runes[a.CursorPosition+1:]...)
	a.SearchQuery = string(runes)
	a.ApplyFilters()
}

func (a *App) ClearSearch() {
	a.SearchQuery = ""
	a.CursorPosition = 0
	a.ApplyFilters()
}

func (a *App) ToggleDetail() {
	a.ShowDetail = !a.ShowDetail
}

func (a *App) OpenVendorPopup() {
	a.InputMode = InputModeVendorPopup
}

func (a *App) CloseVendorPopup() {
	a.InputMode = InputModeNormal
}

func (a *App) VendorPopupUp() {
	if a.VendorCursor > 0 {
		a.VendorCursor--
	}
}

func (a *App) VendorPopupDown() {
	if a.VendorCursor+1 < len(a.Vendors) {
		a.VendorCursor++
	}
}

func (a *App) VendorPopupToggle() {
	if a.VendorCursor < len(a.SelectedVendors) {
		a.SelectedVendors[a.VendorCursor] = !a.SelectedVendors[a.VendorCursor]
		a.ApplyFilters()
	}
}

func (a *App) VendorPopupSelectAll() {
	allSelected := true
	for _, s := range a.SelectedVendors {
		if !s {
			allSelected = false
			break
		}
	}
	val := !allSelected
	for i := range a.SelectedVendors {
		a.SelectedVendors[i] = val
	}
	a.ApplyFilters()
}
