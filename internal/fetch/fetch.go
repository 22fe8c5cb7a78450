// Package fetch resolves model metadata (parameter count, architecture, context window)
// from the HuggingFace Hub, and downloads the shared model list.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/shayne-snap/llmroof/internal/models"
)

const (
	requestTimeout = 30 * time.Second
	configTimeout  = 15 * time.Second
	userAgent      = "llmroof"
)

// hfAPIResponse is the subset of GET /api/models/{repo_id} we read.
type hfAPIResponse struct {
	Config      configJSON `json:"config"`
	PipelineTag string     `json:"pipeline_tag"`
	Safetensors *struct {
		Total      *uint64           `json:"total"`
		Parameters map[string]uint64 `json:"parameters"`
	} `json:"safetensors"`
}

// configJSON is a decoded config.json.
type configJSON map[string]any

var providerMap = map[string]string{
	"meta-llama": "Meta", "mistralai": "Mistral AI", "qwen": "Alibaba",
	"microsoft": "Microsoft", "google": "Google", "deepseek-ai": "DeepSeek",
	"bigcode": "BigCode", "cohereforai": "Cohere", "tinyllama": "Community",
	"nomic-ai": "Nomic", "baai": "BAAI", "01-ai": "01.ai", "tiiuae": "TII",
	"huggingfaceh4": "HuggingFace", "nousresearch": "NousResearch",
	"allenai": "Allen Institute", "ibm-granite": "IBM", "moonshotai": "Moonshot",
	"thudm": "Zhipu AI", "xai-org": "xAI", "nvidia": "NVIDIA",
}

// apiBaseForTest, when set by tests, overrides the HuggingFace base URL.
var apiBaseForTest string

func apiBase() string {
	if apiBaseForTest != "" {
		return apiBaseForTest
	}
	return "https://huggingface.co"
}

func get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return http.DefaultClient.Do(req)
}

// FetchModelList downloads a raw model list (the models.json format). The caller validates it.
func FetchModelList(ctx context.Context, url string) ([]byte, error) {
	resp, err := get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("could not update list: %w (check network)", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("could not update list: HTTP %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not update list: %w", err)
	}
	return body, nil
}

// FetchModel resolves one repo into a catalog entry. Architecture fields the Hub does not
// report are left nil; nothing is guessed.
func FetchModel(ctx context.Context, repoID string) (*models.LlmModel, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := get(ctx, apiBase()+"/api/models/"+repoID)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", repoID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %s", repoID, resp.Status)
	}
	var info hfAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("fetch %s: invalid JSON: %w", repoID, err)
	}

	total := totalParams(info)
	if total == 0 {
		return nil, fmt.Errorf("fetch %s: no parameter count in API response (gated or private repo?)", repoID)
	}

	cfg := fetchConfigJSON(ctx, repoID)
	if cfg == nil {
		cfg = info.Config
	}
	ctxLen := inferContextLength(cfg)
	if ctxLen == 0 {
		ctxLen = inferContextLength(info.Config)
	}

	return &models.LlmModel{
		Name:           repoID,
		Provider:       extractProvider(repoID),
		ParameterCount: formatParamCount(total),
		ParametersRaw:  &total,
		Quantization:   string(inferQuantization(cfg)),
		ContextLength:  ctxLen,
		UseCase:        inferUseCase(repoID, info.PipelineTag),
		Architecture:   ParseArchitecture(cfg),
	}, nil
}

func totalParams(info hfAPIResponse) uint64 {
	if info.Safetensors == nil {
		return 0
	}
	if info.Safetensors.Total != nil {
		return *info.Safetensors.Total
	}
	var largest uint64
	for _, v := range info.Safetensors.Parameters {
		if v > largest {
			largest = v
		}
	}
	return largest
}

// fetchConfigJSON returns the repo's config.json, or nil on any failure.
func fetchConfigJSON(ctx context.Context, repoID string) configJSON {
	ctx, cancel := context.WithTimeout(ctx, configTimeout)
	defer cancel()
	resp, err := get(ctx, apiBase()+"/"+repoID+"/resolve/main/config.json")
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	var c configJSON
	if json.NewDecoder(resp.Body).Decode(&c) != nil {
		return nil
	}
	return c
}

// section returns the nested text_config of multimodal configs, or nil.
func (c configJSON) section() configJSON {
	if c == nil {
		return nil
	}
	if tc, ok := c["text_config"].(map[string]any); ok {
		return configJSON(tc)
	}
	return nil
}

// uint32Field returns the first key holding a finite positive integer, checking the top level
// then text_config. Anything else counts as absent.
func (c configJSON) uint32Field(keys ...string) *uint32 {
	for _, src := range []configJSON{c, c.section()} {
		if src == nil {
			continue
		}
		for _, k := range keys {
			if n, ok := positiveUint32(src[k]); ok {
				return &n
			}
		}
	}
	return nil
}

func positiveUint32(v any) (uint32, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 || f != math.Trunc(f) || f > math.MaxUint32 {
		return 0, false
	}
	return uint32(f), true
}

// ParseArchitecture reads transformer shape fields from a config.json. head_dim falls back to
// hidden_size / num_attention_heads only when both exist and divide evenly.
func ParseArchitecture(c configJSON) models.Architecture {
	a := models.Architecture{
		Layers:           c.uint32Field("num_hidden_layers", "n_layer", "num_layers"),
		Heads:            c.uint32Field("num_attention_heads", "n_head"),
		KVHeads:          c.uint32Field("num_key_value_heads", "multi_query_group_num"),
		HiddenSize:       c.uint32Field("hidden_size", "n_embd", "d_model"),
		IntermediateSize: c.uint32Field("intermediate_size", "n_inner", "ffn_dim"),
		HeadDim:          c.uint32Field("head_dim"),
	}
	if a.HeadDim == nil && a.HiddenSize != nil && a.Heads != nil && *a.HiddenSize%*a.Heads == 0 {
		d := *a.HiddenSize / *a.Heads
		a.HeadDim = &d
	}
	return a
}

func inferContextLength(c configJSON) uint32 {
	if p := c.uint32Field("max_position_embeddings", "max_sequence_length", "seq_length", "n_positions"); p != nil {
		return *p
	}
	return 0
}

// inferQuantization maps torch_dtype / quantization_config to a format, FP16 when unknown.
func inferQuantization(c configJSON) models.Quantization {
	if c == nil {
		return models.QuantFP16
	}
	if qc, ok := c["quantization_config"].(map[string]any); ok {
		if bits, ok := positiveUint32(qc["bits"]); ok {
			switch {
			case bits <= 4:
				return models.QuantINT4
			case bits <= 8:
				return models.QuantINT8
			}
		}
		if m, _ := qc["quant_method"].(string); m != "" {
			if q, err := models.ParseQuantization(m); err == nil {
				return q
			}
		}
	}
	if dt, _ := c["torch_dtype"].(string); dt != "" {
		if q, err := models.ParseQuantization(dt); err == nil {
			return q
		}
	}
	return models.QuantFP16
}

func formatParamCount(n uint64) string {
	if n >= 1_000_000_000 {
		val := float64(n) / 1e9
		if val == math.Trunc(val) {
			return strconv.Itoa(int(val)) + "B"
		}
		return fmt.Sprintf("%.1fB", val)
	}
	if n >= 1_000_000 {
		return fmt.Sprintf("%.0fM", float64(n)/1e6)
	}
	return fmt.Sprintf("%.0fK", float64(n)/1e3)
}

func inferUseCase(repoID, pipelineTag string) string {
	rid := strings.ToLower(repoID)
	switch {
	case strings.Contains(rid, "embed") || strings.Contains(rid, "bge") || pipelineTag == "feature-extraction":
		return "Text embeddings for RAG"
	case strings.Contains(rid, "coder") || strings.Contains(rid, "code"):
		return "Code generation and completion"
	case strings.Contains(rid, "r1") || strings.Contains(rid, "reason"):
		return "Advanced reasoning, chain-of-thought"
	case strings.Contains(rid, "vision") || pipelineTag == "image-text-to-text":
		return "Multimodal, vision and text"
	case strings.Contains(rid, "instruct") || strings.Contains(rid, "chat"):
		return "Instruction following, chat"
	case pipelineTag == "text-generation":
		return "General purpose text generation"
	}
	return "General purpose"
}

func extractProvider(repoID string) string {
	i := strings.Index(repoID, "/")
	if i <= 0 {
		return repoID
	}
	org := strings.ToLower(repoID[:i])
	if p, ok := providerMap[org]; ok {
		return p
	}
	return org
}
