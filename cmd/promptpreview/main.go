package main

// Render the field-mapping prompt for a fields file without calling a model:
//   go run ./cmd/promptpreview -fields fields.json

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"autofill-backend/internal/llm"
	openai "autofill-backend/internal/llm/openai"
	"autofill-backend/internal/shared/config"
)

type previewFile struct {
	Fields        []llm.FieldDescriptor `json:"fields"`
	Profile       map[string]string     `json:"profile"`
	CustomAnswers map[string]string     `json:"custom_answers"`
	ResumeExcerpt string                `json:"resume_excerpt"`
}

func main() {
	cfg := config.Load()

	fieldsPath := flag.String("fields", "", "Path to JSON file with fields, profile, custom_answers, resume_excerpt")
	promptVersion := flag.String("prompt-version", cfg.PromptVersion, "Prompt version")
	outPath := flag.String("out", "", "Path to write the rendered prompt (optional)")
	flag.Parse()

	if strings.TrimSpace(*fieldsPath) == "" {
		exitErr("fields path is required")
	}

	raw, err := os.ReadFile(*fieldsPath)
	if err != nil {
		exitErr(fmt.Sprintf("read fields: %v", err))
	}

	var file previewFile
	if err := json.Unmarshal(raw, &file); err != nil {
		exitErr(fmt.Sprintf("parse fields: %v", err))
	}
	if len(file.Fields) == 0 {
		exitErr("at least one field is required")
	}

	input := llm.MapInput{
		Fields:            file.Fields,
		ProfileJSON:       marshalObject(file.Profile),
		CustomAnswersJSON: marshalObject(file.CustomAnswers),
		ResumeExcerpt:     file.ResumeExcerpt,
		PromptVersion:     *promptVersion,
	}

	var b strings.Builder
	for i, msg := range openai.BuildPrompt(*promptVersion, input) {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "--- %s ---\n%s\n", msg.Role, msg.Content)
	}
	rendered := b.String()

	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(rendered), 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.WriteString(rendered); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func marshalObject(m map[string]string) string {
	if len(m) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
