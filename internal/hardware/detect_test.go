package hardware

import (
	"math"
	"testing"
)

func TestParseNvidiaSMI(t *testing.T) {
	text := "81559, NVIDIA H100 80GB HBM3\n81559, NVIDIA H100 80GB HBM3\n\n24564, NVIDIA GeForce RTX 4090\n"
	gpus := parseNvidiaSMI(text)
	if len(gpus) != 2 {
		t.Fatalf("parseNvidiaSMI len = %d, want 2", len(gpus))
	}
	if gpus[0].Name != "NVIDIA H100 80GB HBM3" || gpus[0].Count != 2 {
		t.Errorf("gpus[0] = %q x%d, want H100 x2", gpus[0].Name, gpus[0].Count)
	}
	if gpus[0].VRAMGB == nil || math.Abs(*gpus[0].VRAMGB-81559*1048576/1e9) > 1e-9 {
		t.Errorf("gpus[0].VRAMGB = %v", gpus[0].VRAMGB)
	}
	if gpus[1].Vendor != "NVIDIA" || gpus[1].Count != 1 {
		t.Errorf("gpus[1] = %+v", gpus[1])
	}
}

func TestParseNvidiaSMI_ZeroMemoryUsesNameEstimate(t *testing.T) {
	gpus := parseNvidiaSMI("0, NVIDIA GeForce RTX 3090\n")
	if len(gpus) != 1 || gpus[0].VRAMGB == nil || *gpus[0].VRAMGB != 24 {
		t.Fatalf("parseNvidiaSMI = %+v, want one RTX 3090 with 24 GB", gpus)
	}
}

func TestParseROCm(t *testing.T) {
	vram := "GPU[0]\t\t: VRAM Total Memory (B): 206141652992\nGPU[0]\t\t: VRAM Total Used Memory (B): 10\n" +
		"GPU[1]\t\t: VRAM Total Memory (B): 206141652992\n"
	total, count := parseROCmVRAM(vram)
	if count != 2 || total != 2*206141652992 {
		t.Errorf("parseROCmVRAM = %d, %d", total, count)
	}
	if _, count := parseROCmVRAM(""); count != 1 {
		t.Errorf("parseROCmVRAM(empty) count = %d, want 1", count)
	}
	names := "GPU[0]\t\t: Card Series: \t\tAMD Instinct MI300X\n"
	if got := parseROCmProductName(names); got != "AMD Instinct MI300X" {
		t.Errorf("parseROCmProductName = %q", got)
	}
}

func TestParseWindowsGPUList(t *testing.T) {
	text := "NVIDIA GeForce RTX 4090|4293918720\nMicrosoft Basic Display|0\n\nAMD Radeon RX 7800|17179869184\n"
	gpus := parseWindowsGPUList(text)
	if len(gpus) != 2 {
		t.Fatalf("parseWindowsGPUList len = %d, want 2", len(gpus))
	}
	if gpus[0].Vendor != "NVIDIA" || *gpus[0].VRAMGB != 24 {
		t.Errorf("gpus[0] = %+v, want NVIDIA with clamped AdapterRAM replaced by 24", gpus[0])
	}
	if gpus[1].Vendor != "AMD" || math.Abs(*gpus[1].VRAMGB-17.179869184) > 1e-9 {
		t.Errorf("gpus[1] = %+v", gpus[1])
	}
}

func TestResolveAdapterRAM(t *testing.T) {
	if got := resolveAdapterRAM(0, "Unknown Adapter"); got != nil {
		t.Errorf("resolveAdapterRAM(0, unknown) = %v, want nil", *got)
	}
	if got := resolveAdapterRAM(32e9, "Unknown Adapter"); got == nil || *got != 32 {
		t.Errorf("resolveAdapterRAM(32e9, unknown) = %v, want 32", got)
	}
}

func TestVendorFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"NVIDIA GeForce RTX 3080", "NVIDIA"},
		{"AMD Radeon RX 7900", "AMD"},
		{"Intel Arc A770", "Intel"},
		{"Apple M2 Max", "Apple"},
		{"Mystery Adapter", "Unknown"},
	}
	for _, tt := range tests {
		if got := vendorFromName(tt.name); got != tt.want {
			t.Errorf("vendorFromName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestEstimateVRAMFromName(t *testing.T) {
	tests := []struct {
		name string
		want float64
	}{
		{"NVIDIA GeForce RTX 4090", 24},
		{"RTX 4070 Ti", 12},
		{"NVIDIA A100-SXM4-40GB", 80},
		{"NVIDIA A10", 24},
		{"NVIDIA L40S", 48},
		{"AMD Radeon RX 7900 XTX", 24},
		{"Unknown", 0},
	}
	for _, tt := range tests {
		if got := estimateVRAMFromName(tt.name); got != tt.want {
			t.Errorf("estimateVRAMFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSortByVRAM(t *testing.T) {
	small, big := 8.0, 24.0
	gpus := []GPU{{Name: "none"}, {Name: "small", VRAMGB: &small}, {Name: "big", VRAMGB: &big}}
	sortByVRAM(gpus)
	if gpus[0].Name != "big" || gpus[1].Name != "small" || gpus[2].Name != "none" {
		t.Errorf("sortByVRAM order = %s, %s, %s", gpus[0].Name, gpus[1].Name, gpus[2].Name)
	}
}
