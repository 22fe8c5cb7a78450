package hardware

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"k8s.io/utils/ptr"
)

// GPU is one detected device group (identical cards are merged with Count > 1).
type GPU struct {
	Name          string   `json:"name"`
	Vendor        string   `json:"vendor"`
	VRAMGB        *float64 `json:"vram_gb,omitempty"`
	Count         uint32   `json:"count"`
	UnifiedMemory bool     `json:"unified_memory"`
}

// Host holds detected RAM, CPU and GPUs. Memory figures are decimal GB.
type Host struct {
	TotalRAMGB     float64 `json:"total_ram_gb"`
	AvailableRAMGB float64 `json:"available_ram_gb"`
	CPUCores       int     `json:"cpu_cores"`
	CPUName        string  `json:"cpu_name"`
	GPUs           []GPU   `json:"gpus"`
}

const (
	gb  = 1e9
	mib = 1024 * 1024
)

// Primary returns the GPU with the most per-device memory, or nil without a GPU.
func (h *Host) Primary() *GPU {
	if len(h.GPUs) == 0 {
		return nil
	}
	return &h.GPUs[0]
}

// Detect probes the current machine: RAM and CPU through gopsutil, GPUs through vendor tools.
func Detect() (*Host, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("mem: %w", err)
	}
	host := &Host{
		TotalRAMGB:     float64(v.Total) / gb,
		AvailableRAMGB: float64(v.Available) / gb,
		CPUCores:       runtime.NumCPU(),
		CPUName:        "Unknown CPU",
	}
	if v.Available == 0 && v.Total > 0 {
		host.AvailableRAMGB = host.TotalRAMGB * 0.8
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		host.CPUName = infos[0].ModelName
		if host.CPUName == "" {
			host.CPUName = infos[0].VendorID
		}
	}
	host.GPUs = detectGPUs(host)
	sortByVRAM(host.GPUs)
	return host, nil
}

func sortByVRAM(gpus []GPU) {
	sort.SliceStable(gpus, func(i, j int) bool {
		return ptr.Deref(gpus[i].VRAMGB, 0) > ptr.Deref(gpus[j].VRAMGB, 0)
	})
}

func detectGPUs(host *Host) []GPU {
	var gpus []GPU
	if out, err := exec.Command("nvidia-smi", "--query-gpu=memory.total,name", "--format=csv,noheader,nounits").Output(); err == nil {
		gpus = append(gpus, parseNvidiaSMI(string(out))...)
	}
	if amd := detectROCm(); amd != nil {
		gpus = append(gpus, *amd)
	} else if amd := detectAMDSysfs(); amd != nil {
		gpus = append(gpus, *amd)
	}
	if runtime.GOOS == "windows" {
		ps := `Get-CimInstance Win32_VideoController | Select-Object Name,AdapterRAM | ForEach-Object { $_.Name + '|' + $_.AdapterRAM }`
		if out, err := exec.Command("powershell", "-NoProfile", "-Command", ps).Output(); err == nil {
			gpus = mergeUnique(gpus, parseWindowsGPUList(string(out)))
		}
	}
	if runtime.GOOS == "darwin" && isAppleSilicon() {
		name := "Apple Silicon"
		if strings.Contains(strings.ToLower(host.CPUName), "apple") {
			name = host.CPUName
		}
		gpus = append(gpus, GPU{
			Name: name, Vendor: "Apple", VRAMGB: ptr.To(host.TotalRAMGB), Count: 1, UnifiedMemory: true,
		})
	}
	return gpus
}

// parseNvidiaSMI reads "memory.total [MiB], name" lines and groups identical cards.
func parseNvidiaSMI(text string) []GPU {
	var gpus []GPU
	index := make(map[string]int)
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		vramMiB, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			continue
		}
		name := "NVIDIA GPU"
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			name = strings.TrimSpace(parts[1])
		}
		if i, ok := index[name]; ok {
			gpus[i].Count++
			continue
		}
		vram := vramMiB * mib / gb
		if vram < 0.1 {
			vram = estimateVRAMFromName(name)
		}
		g := GPU{Name: name, Vendor: "NVIDIA", Count: 1}
		if vram > 0 {
			g.VRAMGB = ptr.To(vram)
		}
		index[name] = len(gpus)
		gpus = append(gpus, g)
	}
	return gpus
}

func detectROCm() *GPU {
	out, err := exec.Command("rocm-smi", "--showmeminfo", "vram").Output()
	if err != nil {
		return nil
	}
	name := "AMD GPU"
	if names, err := exec.Command("rocm-smi", "--showproductname").Output(); err == nil {
		if n := parseROCmProductName(string(names)); n != "" {
			name = n
		}
	}
	totalBytes, count := parseROCmVRAM(string(out))
	g := &GPU{Name: name, Vendor: "AMD", Count: count}
	if totalBytes > 0 {
		g.VRAMGB = ptr.To(float64(totalBytes) / float64(count) / gb)
	} else if est := estimateVRAMFromName(name); est > 0 {
		g.VRAMGB = ptr.To(est)
	}
	return g
}

// parseROCmVRAM sums "Total Memory" lines; each line is one card.
func parseROCmVRAM(text string) (uint64, uint32) {
	var total uint64
	var count uint32
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := sc.Text()
		l := strings.ToLower(line)
		if !strings.Contains(l, "total") || strings.Contains(l, "used") {
			continue
		}
		fields := strings.Fields(line)
		for i := len(fields) - 1; i >= 0; i-- {
			if n, err := strconv.ParseUint(fields[i], 10, 64); err == nil && n > 0 {
				total += n
				count++
				break
			}
		}
	}
	if count == 0 {
		count = 1
	}
	return total, count
}

func parseROCmProductName(text string) string {
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := sc.Text()
		l := strings.ToLower(line)
		if !strings.Contains(l, "card series") && !strings.Contains(l, "card model") {
			continue
		}
		if idx := strings.LastIndex(line, ":"); idx >= 0 {
			if name := strings.TrimSpace(line[idx+1:]); name != "" {
				return name
			}
		}
	}
	return ""
}

func detectAMDSysfs() *GPU {
	if runtime.GOOS != "linux" {
		return nil
	}
	entries, err := os.ReadDir("/sys/class/drm")
	if err != nil {
		return nil
	}
	for _, e := range entries {
		card := e.Name()
		if !strings.HasPrefix(card, "card") || strings.Contains(card, "-") {
			continue
		}
		dev := filepath.Join("/sys/class/drm", card, "device")
		vendor, _ := os.ReadFile(filepath.Join(dev, "vendor"))
		if strings.TrimSpace(string(vendor)) != "0x1002" {
			continue
		}
		g := &GPU{Name: "AMD GPU", Vendor: "AMD", Count: 1}
		if raw, err := os.ReadFile(filepath.Join(dev, "mem_info_vram_total")); err == nil {
			if n, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64); err == nil && n > 0 {
				g.VRAMGB = ptr.To(float64(n) / gb)
			}
		}
		return g
	}
	return nil
}

// parseWindowsGPUList reads "Name|AdapterRAM" lines from Win32_VideoController.
func parseWindowsGPUList(text string) []GPU {
	var gpus []GPU
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		name := strings.TrimSpace(parts[0])
		l := strings.ToLower(name)
		if l == "" || strings.Contains(l, "microsoft") || strings.Contains(l, "basic") || strings.Contains(l, "virtual") {
			continue
		}
		var raw uint64
		if len(parts) > 1 {
			raw, _ = strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		}
		gpus = append(gpus, GPU{Name: name, Vendor: vendorFromName(name), VRAMGB: resolveAdapterRAM(raw, name), Count: 1})
	}
	return gpus
}

// resolveAdapterRAM prefers the name estimate when AdapterRAM is missing or clamped at 4 GB (32-bit field).
func resolveAdapterRAM(rawBytes uint64, name string) *float64 {
	vram := float64(rawBytes) / gb
	est := estimateVRAMFromName(name)
	if (vram < 0.1 || (vram <= 4.3 && est > 4.3)) && est > 0 {
		vram = est
	}
	if vram > 0 {
		return ptr.To(vram)
	}
	return nil
}

func mergeUnique(have, more []GPU) []GPU {
	for _, m := range more {
		dup := false
		ml := strings.ToLower(m.Name)
		for _, h := range have {
			hl := strings.ToLower(h.Name)
			if strings.Contains(hl, ml) || strings.Contains(ml, hl) {
				dup = true
				break
			}
		}
		if !dup {
			have = append(have, m)
		}
	}
	return have
}

func vendorFromName(name string) string {
	l := strings.ToLower(name)
	switch {
	case strings.Contains(l, "nvidia") || strings.Contains(l, "geforce") || strings.Contains(l, "quadro") ||
		strings.Contains(l, "tesla") || strings.Contains(l, "rtx"):
		return "NVIDIA"
	case strings.Contains(l, "amd") || strings.Contains(l, "radeon") || strings.Contains(l, "instinct"):
		return "AMD"
	case strings.Contains(l, "intel") || strings.Contains(l, "arc") || strings.Contains(l, "gaudi"):
		return "Intel"
	case strings.Contains(l, "apple"):
		return "Apple"
	}
	return "Unknown"
}

func isAppleSilicon() bool {
	out, err := exec.Command("system_profiler", "SPDisplaysDataType").Output()
	if err != nil {
		return false
	}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		l := strings.ToLower(sc.Text())
		if strings.Contains(l, "apple m") || strings.Contains(l, "apple gpu") {
			return true
		}
	}
	return false
}

// vramByName maps name fragments to memory in GB; more specific fragments come first.
var vramByName = []struct {
	fragment string
	gb       float64
}{
	{"5090", 32}, {"5080", 16}, {"5070 ti", 16}, {"5070", 12},
	{"4090", 24}, {"4080", 16}, {"4070 ti", 12}, {"4070", 12}, {"4060 ti", 16}, {"4060", 8},
	{"3090", 24}, {"3080 ti", 12}, {"3080", 10}, {"3070", 8}, {"3060 ti", 8}, {"3060", 12},
	{"h200", 141}, {"h100", 80}, {"a100", 80}, {"l40", 48}, {"a10", 24}, {"l4", 24}, {"t4", 16},
	{"mi300", 192}, {"mi250", 128},
	{"7900 xtx", 24}, {"7900", 20}, {"7800", 16}, {"7700", 12}, {"7600", 8},
	{"6900", 16}, {"6800", 16}, {"6700", 12}, {"6600", 8},
	{"rtx", 8}, {"gtx", 4}, {"radeon", 8},
}

// estimateVRAMFromName guesses memory from a marketing name when the driver does not report it.
func estimateVRAMFromName(name string) float64 {
	l := strings.ToLower(name)
	for _, e := range vramByName {
		if strings.Contains(l, e.fragment) {
			return e.gb
		}
	}
	return 0
}
