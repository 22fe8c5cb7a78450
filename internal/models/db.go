package models

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/shayne-snap/llmroof/data"
)

// CachePath returns the user cache file path for the model list (config dir/llmroof/models.json).
func CachePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "llmroof", "models.json"), nil
}

// ParseModelList decodes a JSON model list (the embedded format and the update-list payload).
func ParseModelList(body []byte) ([]*LlmModel, error) {
	var entries []*LlmModel
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if e != nil && e.Name != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// mergeModels merges overlay into base by name (overlay overwrites or appends). Returns a new slice.
func mergeModels(base, overlay []*LlmModel) []*LlmModel {
	byName := make(map[string]*LlmModel, len(base)+len(overlay))
	for _, m := range overlay {
		byName[m.Name] = m
	}
	out := make([]*LlmModel, 0, len(base)+len(overlay))
	seen := make(map[string]bool, len(base))
	for _, m := range base {
		if o, ok := byName[m.Name]; ok {
			out = append(out, o)
		} else {
			out = append(out, m)
		}
		seen[m.Name] = true
	}
	for _, m := range overlay {
		if !seen[m.Name] {
			out = append(out, m)
			seen[m.Name] = true
		}
	}
	return out
}

// NewDB loads the embedded model list and merges the optional user cache over it by name.
func NewDB() (*ModelDatabase, error) {
	base, err := ParseModelList(data.ModelsJSON)
	if err != nil {
		return nil, err
	}
	cachePath, err := CachePath()
	if err != nil {
		return &ModelDatabase{models: base}, nil
	}
	body, err := os.ReadFile(cachePath)
	if err != nil {
		return &ModelDatabase{models: base}, nil
	}
	overlay, err := ParseModelList(body)
	if err != nil {
		slog.Warn("could not parse model cache, using embedded list", "path", cachePath, "error", err)
		return &ModelDatabase{models: base}, nil
	}
	return &ModelDatabase{models: mergeModels(base, overlay)}, nil
}

// NewDBFromModels builds a database from an explicit list (tests, fetched models).
func NewDBFromModels(list []*LlmModel) *ModelDatabase {
	return &ModelDatabase{models: list}
}

// GetAllModels returns all models.
func (db *ModelDatabase) GetAllModels() []*LlmModel {
	return db.models
}

// FindModel returns models whose name, provider, or parameter_count contains the query (case-insensitive).
// An exact (case-insensitive) name match wins and is returned alone.
func (db *ModelDatabase) FindModel(query string) []*LlmModel {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []*LlmModel
	for _, m := range db.models {
		if strings.ToLower(m.Name) == q {
			return []*LlmModel{m}
		}
		if strings.Contains(strings.ToLower(m.Name), q) ||
			strings.Contains(strings.ToLower(m.Provider), q) ||
			strings.Contains(strings.ToLower(m.ParameterCount), q) {
			out = append(out, m)
		}
	}
	return out
}

// FilterByUseCase keeps models whose inferred use case matches useCase; unknown names return all.
func FilterByUseCase(list []*LlmModel, useCase string) []*LlmModel {
	uc, ok := UseCaseFromString(useCase)
	if !ok {
		return list
	}
	var out []*LlmModel
	for _, m := range list {
		if UseCaseFromModel(m) == uc {
			out = append(out, m)
		}
	}
	return out
}

// WriteCacheFile writes raw JSON bytes to the user cache path (e.g. for update-list). Creates parent dir if needed.
func WriteCacheFile(body []byte) error {
	cachePath, err := CachePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(cachePath, body, 0644)
}

// AppendModelToCache reads the current cache file (overlay-only), adds or replaces m by name, writes back.
func AppendModelToCache(m *LlmModel) error {
	cachePath, err := CachePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return err
	}
	var overlay []*LlmModel
	if body, err := os.ReadFile(cachePath); err == nil {
		if parsed, err := ParseModelList(body); err == nil {
			overlay = parsed
		}
	}
	found := false
	for i, existing := range overlay {
		if existing.Name == m.Name {
			overlay[i] = m
			found = true
			break
		}
	}
	if !found {
		overlay = append(overlay, m)
	}
	body, err := json.MarshalIndent(overlay, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(cachePath, body, 0644)
}
