package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shayne-snap/llmroof/internal/compare"
	"github.com/shayne-snap/llmroof/internal/roofline"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleNormal  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	styleCyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	styleYellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleGreen   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleMagenta = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	styleRed     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleStatus  = lipgloss.NewStyle().Background(lipgloss.Color("10")).Foreground(lipgloss.Color("0")).Bold(true)
	styleBlock   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
)

// Render returns the full TUI view for the app.
func Render(app *App) string {
	w := app.Width
	if w <= 0 {
		w = 80
	}
	h := app.Height
	if h <= 0 {
		h = 24
	}

	sysBar := renderSystemBar(app)
	workloadBar := renderWorkloadBar(app)
	searchBar := renderSearchAndFilters(app)
	chrome := 3 + 3 + 3
	statusHeight := 1
	mainHeight := h - chrome - statusHeight
	if mainHeight < 5 {
		mainHeight = 5
	}

	var main string
	if app.ShowDetail {
		main = renderDetail(app)
	} else {
		main = renderTable(app, mainHeight)
	}
	statusBar := renderStatusBar(app)

	body := lipgloss.JoinVertical(lipgloss.Left, sysBar, workloadBar, searchBar, main, statusBar)
	if app.InputMode == InputModeVendorPopup {
		body = overlay(body, renderVendorPopup(app, w, h), w)
	}
	return body
}

// overlay centers popup over body line by line.
func overlay(body, popup string, width int) string {
	bodyLines := strings.Split(body, "\n")
	popupLines := strings.Split(popup, "\n")
	if len(popupLines) == 0 || len(bodyLines) < len(popupLines) {
		return body
	}
	startRow := (len(bodyLines) - len(popupLines)) / 2
	padLeft := (width - lipgloss.Width(popup)) / 2
	if padLeft < 0 {
		padLeft = 0
	}
	for i, pl := range popupLines {
		bodyLines[startRow+i] = strings.Repeat(" ", padLeft) + pl
	}
	return strings.Join(bodyLines, "\n")
}

func renderSystemBar(app *App) string {
	title := styleTitle.Render(" llmroof ")
	host := app.Host
	if host == nil {
		return styleBlock.Render(title + " " + styleDim.Render("host not detected"))
	}
	gpuInfo := "GPU: none"
	if g := host.Primary(); g != nil {
		vram := "VRAM unknown"
		if g.VRAMGB != nil {
			vram = fmt.Sprintf("%.1f GB", *g.VRAMGB)
		}
		gpuInfo = fmt.Sprintf("GPU: %s (%s)", g.Name, vram)
		if g.Count > 1 {
			gpuInfo = fmt.Sprintf("GPU: %s x%d (%s each)", g.Name, g.Count, vram)
		}
		if extra := len(host.GPUs) - 1; extra > 0 {
			gpuInfo += fmt.Sprintf(" +%d more", extra)
		}
	}
	ramStr := fmt.Sprintf("%.1f GB avail / %.1f GB total", host.AvailableRAMGB, host.TotalRAMGB)
	line := styleDim.Render(" CPU: ") +
		styleNormal.Render(fmt.Sprintf("%s (%d cores)", host.CPUName, host.CPUCores)) +
		styleDim.Render("  │  ") +
		styleDim.Render("RAM: ") +
		styleCyan.Render(ramStr) +
		styleDim.Render("  │  ") +
		styleYellow.Render(gpuInfo)
	return styleBlock.Render(title + " " + line)
}

func renderWorkloadBar(app *App) string {
	m := app.Model()
	if m == nil {
		return styleBlock.Render(styleDim.Render("No models in catalog"))
	}
	quant := string(app.Workload.Quantization)
	if quant == "" {
		quant = string(app.Spec.Quantization) + " (model)"
	}
	approx := ""
	if app.Approximate {
		approx = styleDim.Render("  │  ") + styleMagenta.Render("approx fallback")
	}
	line := styleNormal.Bold(true).Render(m.Name) +
		styleDim.Render(fmt.Sprintf(" [%d/%d]", app.ModelIndex+1, len(app.Models))) +
		styleDim.Render("  │  Quant: ") + styleCyan.Render(quant) +
		styleDim.Render("  Batch: ") + styleCyan.Render(fmt.Sprintf("%d", app.Workload.BatchSize)) +
		styleDim.Render("  Tokens: ") + styleCyan.Render(fmt.Sprintf("%d+%d", app.Workload.PromptTokens, app.Workload.OutputTokens)) +
		styleDim.Render("  Ctx: ") + styleCyan.Render(fmt.Sprintf("%d", app.Spec.ContextLength)) +
		styleDim.Render("  Eff: ") + styleCyan.Render(efficiencyLabel(app.Overhead)) +
		styleDim.Render("  │  ") + styleYellow.Render(app.Options.Mode()+", kv "+app.Options.KVBasis.String()) +
		approx
	return styleBlock.Render(line)
}

func renderSearchAndFilters(app *App) string {
	searchTitle := " Search "
	if app.InputMode == InputModeSearch {
		searchTitle = styleYellow.Render(searchTitle)
	} else {
		searchTitle = styleDim.Render(searchTitle)
	}
	searchContent := "Press / to search..."
	if app.InputMode == InputModeSearch || app.SearchQuery != "" {
		searchContent = styleNormal.Render(app.SearchQuery)
	} else {
		searchContent = styleDim.Render(searchContent)
	}
	searchBox := styleBlock.Render(searchTitle + " " + searchContent)

	activeCount := 0
	for _, s := range app.SelectedVendors {
		if s {
			activeCount++
		}
	}
	totalCount := len(app.Vendors)
	vendorText := "All"
	if activeCount != totalCount {
		vendorText = fmt.Sprintf("%d/%d", activeCount, totalCount)
	}
	vendorStyle := styleGreen
	if activeCount == 0 {
		vendorStyle = styleRed
	} else if activeCount < totalCount {
		vendorStyle = styleYellow
	}
	vendorBox := styleBlock.Width(20).Render(styleDim.Render(" Vendors (v) ") + " " + vendorStyle.Render(vendorText))

	fitStyle := styleNormal
	switch app.FitFilter {
	case FitFilterRunnable, FitFilterPerfect:
		fitStyle = styleGreen
	case FitFilterGood:
		fitStyle = styleYellow
	case FitFilterMarginal:
		fitStyle = styleMagenta
	}
	fitBox := styleBlock.Width(18).Render(styleDim.Render(" Fit [f] ") + " " + fitStyle.Render(app.FitFilter.Label()))

	return lipgloss.JoinHorizontal(lipgloss.Top, searchBox, " ", vendorBox, " ", fitBox)
}

func fitColor(level compare.FitLevel) lipgloss.Style {
	switch level {
	case compare.FitPerfect:
		return styleGreen
	case compare.FitGood:
		return styleYellow
	case compare.FitMarginal:
		return styleMagenta
	case compare.FitTooTight:
		return styleRed
	default:
		return styleNormal
	}
}

func boundColor(b roofline.BoundType) lipgloss.Style {
	if b == roofline.BoundMemory {
		return styleCyan
	}
	return styleYellow
}

func utilization(pct float64) string {
	if pct >= roofline.UtilizationDisplayCap {
		return fmt.Sprintf(">%d%%", roofline.UtilizationDisplayCap)
	}
	return fmt.Sprintf("%.0f%%", pct)
}

func renderTable(app *App, height int) string {
	if app.Err != nil {
		return styleBlock.Render(styleRed.Render(" " + app.Err.Error() + " "))
	}
	headers := []string{"", "Accelerator", "Vendor", "tok/s", "ms/tok", "Prefill", "Bound", "Mem%", "MaxBatch", "$/1M", "Fit"}
	colWidths := []int{2, 22, 8, 8, 7, 8, 8, 6, 9, 7, 10}
	headerLine := ""
	for i, h := range headers {
		headerLine += truncPad(h, colWidths[i]) + " "
	}
	headerLine = styleCyan.Bold(true).Render(headerLine)

	var rows []string
	start := 0
	end := len(app.FilteredRows)
	visible := height - 2
	if visible < 1 {
		visible = 1
	}
	if end > visible {
		if app.SelectedRow >= end-visible {
			start = end - visible
		} else if app.SelectedRow > 0 {
			start = app.SelectedRow
		}
		end = start + visible
		if end > len(app.FilteredRows) {
			end = len(app.FilteredRows)
		}
	}
	for rowIdx := start; rowIdx < end; rowIdx++ {
		row := app.Rows[app.FilteredRows[rowIdx]]
		cellStyle := fitColor(row.Fit)
		cells := rowCells(row, colWidths, cellStyle)
		line := ""
		for i, c := range cells {
			line += lipgloss.NewStyle().Width(colWidths[i]).Render(c) + " "
		}
		if rowIdx == app.SelectedRow {
			line = lipgloss.NewStyle().Background(lipgloss.Color("8")).Bold(true).Render("▶ " + line)
		} else {
			line = "  " + line
		}
		rows = append(rows, line)
	}

	title := fmt.Sprintf(" Accelerators (%d/%d) ", len(app.FilteredRows), len(app.Rows))
	body := headerLine + "\n" + strings.Join(rows, "\n")
	return styleBlock.Render(styleNormal.Render(title) + "\n" + body)
}

func rowCells(row *compare.Row, colWidths []int, cellStyle lipgloss.Style) []string {
	cost := "-"
	if row.CostPer1M != nil {
		cost = row.CostPer1M.StringFixed(2)
	}
	cells := []string{
		cellStyle.Render("●"),
		styleNormal.Render(truncPad(row.Accelerator.Name, colWidths[1])),
		styleDim.Render(truncPad(row.Accelerator.Vendor, colWidths[2])),
	}
	switch {
	case row.Result != nil:
		r := row.Result
		cells = append(cells,
			styleNormal.Render(truncPad(fmt.Sprintf("%.1f", r.ThroughputTPS), colWidths[3])),
			styleNormal.Render(truncPad(fmt.Sprintf("%.2f", r.PerTokenMs), colWidths[4])),
			styleDim.Render(truncPad(fmt.Sprintf("%.1f", r.PrefillMs), colWidths[5])),
			boundColor(r.Bound).Render(truncPad(r.Bound.String(), colWidths[6])),
			cellStyle.Render(truncPad(utilization(r.MemoryUtilizationPct), colWidths[7])),
			styleNormal.Render(truncPad(fmt.Sprintf("%d", r.MaxBatchSize), colWidths[8])),
			styleDim.Render(truncPad(cost, colWidths[9])),
		)
	case row.Estimate != nil:
		e := row.Estimate
		cells = append(cells,
			styleMagenta.Render(truncPad(fmt.Sprintf("~%.1f", e.ThroughputTPS), colWidths[3])),
			styleMagenta.Render(truncPad(fmt.Sprintf("~%.2f", e.PerTokenMs), colWidths[4])),
			styleDim.Render(truncPad("-", colWidths[5])),
			styleDim.Render(truncPad("approx", colWidths[6])),
			cellStyle.Render(truncPad(utilization(e.MemoryUtilizationPct), colWidths[7])),
			styleDim.Render(truncPad("-", colWidths[8])),
			styleDim.Render(truncPad(cost, colWidths[9])),
		)
	default:
		for i := 3; i <= 9; i++ {
			cells = append(cells, styleRed.Render(truncPad("-", colWidths[i])))
		}
	}
	return append(cells, cellStyle.Render(truncPad(row.Fit.String(), colWidths[10])))
}

func truncPad(s string, w int) string {
	runes := []rune(s)
	if len(runes) <= w {
		return s + strings.Repeat(" ", w-len(runes))
	}
	return string(runes[:w-1]) + "…"
}

func renderStatusBar(app *App) string {
	var keys, modeText string
	switch app.InputMode {
	case InputModeNormal:
		detailKey := "Enter:detail"
		if app.ShowDetail {
			detailKey = "Enter:table"
		}
		keys = fmt.Sprintf(" ↑↓:nav  [ ]:model  b/B:batch  i/I:prompt  o/O:output  t:quant  +/-:eff  s:strict  c:kv  a:approx  %s  /:search  f:fit  v:vendors  q:quit", detailKey)
		modeText = "NORMAL"
	case InputModeSearch:
		keys = "  Type to search  Esc:done  Ctrl-U:clear"
		modeText = "SEARCH"
	case InputModeVendorPopup:
		keys = "  ↑↓/jk:navigate  Space:toggle  a:all/none  Esc:close"
		modeText = "VENDORS"
	}
	return styleStatus.Render(" "+modeText+" ") + styleDim.Render(keys)
}

func label(s string) string {
	return styleDim.Render(fmt.Sprintf("  %-14s", s))
}

func renderDetail(app *App) string {
	row := app.SelectedRowData()
	if row == nil {
		return styleBlock.Render(" No accelerator selected ")
	}
	acc := row.Accelerator
	cellStyle := fitColor(row.Fit)
	lines := []string{
		"",
		label("Accelerator:") + styleNormal.Bold(true).Render(acc.Name),
		label("Vendor:") + styleNormal.Render(acc.Vendor),
		label("Compute:") + styleNormal.Render(fmt.Sprintf("%.0f TFLOPS", acc.ComputeTFLOPS)),
		label("Bandwidth:") + styleNormal.Render(fmt.Sprintf("%.0f GB/s", acc.MemoryBandwidthGBps)),
		label("Memory:") + styleNormal.Render(fmt.Sprintf("%.0f GB", acc.MemoryGB)),
		label("Fit:") + cellStyle.Bold(true).Render("● "+row.Fit.String()),
		"",
	}
	switch {
	case row.Result != nil:
		r := row.Result
		mem := r.Memory
		lines = append(lines,
			styleCyan.Render("  ── Roofline ──"),
			"",
			label("Ops:Byte:")+styleNormal.Render(fmt.Sprintf("%.2f", r.OpsToByteRatio)),
			label("Intensity:")+styleNormal.Render(fmt.Sprintf("%.2f", r.ArithmeticIntensity)),
			label("Bound:")+boundColor(r.Bound).Render(r.Bound.String()+"-bound"),
			"",
			styleCyan.Render("  ── Latency ──"),
			"",
			label("Prefill:")+styleNormal.Render(fmt.Sprintf("%.2f ms", r.PrefillMs)),
			label("Per Token:")+styleNormal.Render(fmt.Sprintf("%.2f ms", r.PerTokenMs)),
			label("Total:")+styleNormal.Render(fmt.Sprintf("%.2f ms", r.TotalMs)),
			label("Throughput:")+styleGreen.Render(fmt.Sprintf("%.2f tok/s", r.ThroughputTPS)),
			"",
			styleCyan.Render("  ── Memory ──"),
			"",
			label("Weights:")+styleNormal.Render(fmt.Sprintf("%.2f GB", mem.ModelSizeGB)),
			label("KV Cache:")+styleNormal.Render(fmt.Sprintf("%.2f GB", mem.KVCacheGB))+
				styleDim.Render(fmt.Sprintf("  (%.0f B/token x %d tokens)", mem.KVPerTokenBytes, mem.SequenceTokens)),
			label("Activations:")+styleNormal.Render(fmt.Sprintf("%.2f GB", mem.ActivationGB)),
			label("Overhead:")+styleNormal.Render(fmt.Sprintf("%.2f GB", mem.OverheadGB)),
			label("Total:")+cellStyle.Render(fmt.Sprintf("%.2f / %.0f GB (%s)", mem.TotalGB, mem.CapacityGB, utilization(r.MemoryUtilizationPct))),
			label("Max Batch:")+styleNormal.Render(fmt.Sprintf("%d", r.MaxBatchSize)),
			label("Max KV:")+styleNormal.Render(fmt.Sprintf("%d tokens", r.MaxKVCacheTokens)),
		)
	case row.Estimate != nil:
		e := row.Estimate
		lines = append(lines,
			styleMagenta.Render("  ── Approximate (weights only) ──"),
			"",
			label("Weights:")+styleNormal.Render(fmt.Sprintf("%.2f GB", e.ModelSizeGB)),
			label("Mem Usage:")+cellStyle.Render(utilization(e.MemoryUtilizationPct)),
			label("Per Token:")+styleNormal.Render(fmt.Sprintf("%.2f ms", e.PerTokenMs)),
			label("Throughput:")+styleNormal.Render(fmt.Sprintf("%.2f tok/s", e.ThroughputTPS)),
		)
	}
	if row.Error != "" {
		lines = append(lines, "", styleRed.Render("  "+row.Error))
	}
	if len(row.Notes) > 0 {
		lines = append(lines, "", styleCyan.Render("  ── Notes ──"), "")
		for _, n := range row.Notes {
			lines = append(lines, styleNormal.Render("  "+n))
		}
	}
	return styleBlock.Render(styleNormal.Bold(true).Render(" "+acc.Name+" ") + "\n" + strings.Join(lines, "\n"))
}

func renderVendorPopup(app *App, width, height int) string {
	maxNameLen := 10
	for _, v := range app.Vendors {
		if len(v) > maxNameLen {
			maxNameLen = len(v)
		}
	}
	popupW := maxNameLen + 10
	if popupW > width-4 {
		popupW = width - 4
	}
	popupH := len(app.Vendors) + 2
	if popupH > height-4 {
		popupH = height - 4
	}
	innerH := popupH - 2
	scrollOffset := 0
	if app.VendorCursor >= innerH {
		scrollOffset = app.VendorCursor - innerH + 1
	}
	activeCount := 0
	for _, s := range app.SelectedVendors {
		if s {
			activeCount++
		}
	}
	title := fmt.Sprintf(" Vendors (%d/%d) ", activeCount, len(app.Vendors))
	block := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("11")).
		Padding(0, 1).
		Width(popupW)
	var lines []string
	for i := scrollOffset; i < len(app.Vendors) && len(lines) < innerH; i++ {
		cb := "[ ]"
		if app.SelectedVendors[i] {
			cb = "[x]"
		}
		line := cb + " " + app.Vendors[i]
		if i == app.VendorCursor {
			line = styleYellow.Bold(true).Render(line)
		} else if app.SelectedVendors[i] {
			line = styleGreen.Render(line)
		} else {
			line = styleDim.Render(line)
		}
		lines = append(lines, line)
	}
	return block.Render(styleYellow.Bold(true).Render(title) + "\n" + strings.Join(lines, "\n"))
}

// efficiencyLabel shows one figure when both phases match, else prefill/decode.
func efficiencyLabel(o roofline.Overhead) string {
	if o.PrefillPct == o.DecodePct {
		return fmt.Sprintf("%.0f%%", o.DecodePct)
	}
	return fmt.Sprintf("%.0f/%.0f%%", o.PrefillPct, o.DecodePct)
}
