package openai

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"autofill-backend/internal/llm"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const (
	systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."

	// Keep prompts bounded; a longer excerpt adds cost without adding signal.
	maxResumeExcerptChars = 8000
)

// BuildPrompt creates the chat messages for a field-mapping request. The
// system message carries the rules plus candidate data; the user message
// carries only the field descriptors, serialized compactly.
func BuildPrompt(promptVersion string, input llm.MapInput) []Message {
	return []Message{
		{Role: "system", Content: renderSystemPrompt(promptVersion, input)},
		{Role: "user", Content: buildUserPrompt(input.Fields)},
	}
}

func buildFixPrompt(raw []byte) []Message {
	return []Message{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "user", Content: fixUserPrompt(raw)},
	}
}

func renderSystemPrompt(promptVersion string, input llm.MapInput) string {
	version := strings.TrimSpace(promptVersion)
	template, ok := llm.PromptTemplate(version)
	if !ok && version != "" {
		log.Printf("unknown prompt version %q, defaulting to map_v1", version)
	}

	profileJSON := input.ProfileJSON
	if strings.TrimSpace(profileJSON) == "" {
		profileJSON = "{}"
	}
	customJSON := input.CustomAnswersJSON
	if strings.TrimSpace(customJSON) == "" {
		customJSON = "{}"
	}
	resume := strings.TrimSpace(input.ResumeExcerpt)
	if resume == "" {
		resume = "No resume text provided."
	} else if len(resume) > maxResumeExcerptChars {
		resume = resume[:maxResumeExcerptChars]
	}

	replacer := strings.NewReplacer(
		"{{PROFILE_JSON}}", profileJSON,
		"{{CUSTOM_ANSWERS_JSON}}", customJSON,
		"{{RESUME_TEXT}}", resume,
	)
	return replacer.Replace(template)
}

func buildUserPrompt(fields []llm.FieldDescriptor) string {
	desc, err := json.Marshal(fields)
	if err != nil {
		desc = []byte("[]")
	}
	return fmt.Sprintf("Form fields:\n%s", desc)
}

func fixUserPrompt(raw []byte) string {
	return fmt.Sprintf("Fix this JSON to match the schema exactly. Output JSON only:\n%s", string(raw))
}
