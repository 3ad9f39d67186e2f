package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for form-field mapping.
type Client interface {
	MapFields(ctx context.Context, input MapInput) (json.RawMessage, error)
}

// FieldDescriptor is the minimal per-field payload sent to the model.
// Fields are addressed by Index in the response so answers cannot bleed
// between fields with similar labels.
type FieldDescriptor struct {
	Index    int      `json:"index"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required,omitempty"`
}

// MapInput captures the inputs for one batched mapping request.
type MapInput struct {
	Fields            []FieldDescriptor
	ProfileJSON       string
	CustomAnswersJSON string
	ResumeExcerpt     string
	PromptVersion     string
}

type fixJSONKey struct{}

// WithFixJSON returns a context signaling a fix-JSON retry with the given raw output.
func WithFixJSON(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, fixJSONKey{}, raw)
}

// FixJSONFromContext returns the raw JSON to repair, if any.
func FixJSONFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(fixJSONKey{})
	raw, ok := val.(string)
	return raw, ok
}

type promptHashSinkKey struct{}

// WithPromptHashSink returns a context carrying a destination for the hash of
// the rendered prompt, so callers can log which prompt a response came from.
func WithPromptHashSink(ctx context.Context, sink *string) context.Context {
	return context.WithValue(ctx, promptHashSinkKey{}, sink)
}

// PromptHashSinkFromContext returns the prompt-hash sink, if any.
func PromptHashSinkFromContext(ctx context.Context) (*string, bool) {
	sink, ok := ctx.Value(promptHashSinkKey{}).(*string)
	return sink, ok
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is the stub used when no provider is configured. The
// cascade treats its error as "capability unavailable" and degrades to null
// values for the affected fields.
type PlaceholderClient struct{}

// MapFields returns ErrNotImplemented.
func (PlaceholderClient) MapFields(ctx context.Context, input MapInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}
