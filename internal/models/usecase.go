package models

import "strings"

// UseCaseFromModel infers the use case from the model name and use_case string.
func UseCaseFromModel(m *LlmModel) UseCase {
	name := strings.ToLower(m.Name)
	uc := strings.ToLower(m.UseCase)
	switch {
	case strings.Contains(uc, "embedding") || strings.Contains(name, "embed") || strings.Contains(name, "bge"):
		return UseCaseEmbedding
	case strings.Contains(name, "code") || strings.Contains(uc, "code"):
		return UseCaseCoding
	case strings.Contains(uc, "vision") || strings.Contains(uc, "multimodal"):
		return UseCaseMultimodal
	case strings.Contains(uc, "reason") || strings.Contains(name, "-r1"):
		return UseCaseReasoning
	case strings.Contains(uc, "chat") || strings.Contains(uc, "instruction"):
		return UseCaseChat
	}
	return UseCaseGeneral
}

// UseCaseFromString parses a CLI use-case name.
func UseCaseFromString(s string) (UseCase, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "general":
		return UseCaseGeneral, true
	case "coding", "code":
		return UseCaseCoding, true
	case "reasoning", "reason":
		return UseCaseReasoning, true
	case "chat":
		return UseCaseChat, true
	case "multimodal", "vision":
		return UseCaseMultimodal, true
	case "embedding", "embed":
		return UseCaseEmbedding, true
	}
	return 0, false
}
