package llm

import _ "embed"

//go:embed prompts/map_v1.txt
var promptMapV1 string

// PromptTemplate returns the prompt template text and whether the version was
// recognized.
func PromptTemplate(version string) (string, bool) {
	switch version {
	case "map_v1":
		return promptMapV1, true
	default:
		return promptMapV1, false
	}
}
