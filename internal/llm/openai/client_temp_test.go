package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"autofill-backend/internal/llm"
)

func mapInputFixture() llm.MapInput {
	return llm.MapInput{
		Fields: []llm.FieldDescriptor{
			{Index: 0, Label: "Email Address", Type: "email"},
		},
		ProfileJSON:   `{"email":"ada@x.com"}`,
		PromptVersion: "map_v1",
	}
}

func TestMapFieldsOmitsTemperatureForDenylist(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	var bodyMu sync.Mutex
	var lastBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		bodyMu.Lock()
		lastBody = payload
		bodyMu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"mappings\":{}}"}}]}`))
	}))
	defer server.Close()

	apiURL = server.URL
	_ = os.Setenv("LLM_NO_TEMP0_MODELS", "gpt-4o-strict")
	t.Cleanup(func() { _ = os.Unsetenv("LLM_NO_TEMP0_MODELS") })

	client, err := NewClient("test-key", "gpt-4o-strict")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.MapFields(context.Background(), mapInputFixture()); err != nil {
		t.Fatalf("MapFields: %v", err)
	}

	bodyMu.Lock()
	_, hasTemp := lastBody["temperature"]
	bodyMu.Unlock()
	if hasTemp {
		t.Fatalf("expected temperature to be omitted for denylisted model")
	}
}

func TestMapFieldsRetriesWithoutTemperature(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	var mu sync.Mutex
	var reqBodies []map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		mu.Lock()
		reqBodies = append(reqBodies, payload)
		callNum := len(reqBodies)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if callNum == 1 {
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported value: 'temperature' does not support 0 with this model.","type":"invalid_request_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"mappings\":{}}"}}]}`))
	}))
	defer server.Close()

	apiURL = server.URL
	_ = os.Unsetenv("LLM_NO_TEMP0_MODELS")

	client, err := NewClient("test-key", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.MapFields(context.Background(), mapInputFixture()); err != nil {
		t.Fatalf("MapFields: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reqBodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqBodies))
	}
	if _, ok := reqBodies[0]["temperature"]; !ok {
		t.Fatalf("expected first request to include temperature")
	}
	if _, ok := reqBodies[1]["temperature"]; ok {
		t.Fatalf("expected retry request to omit temperature")
	}
}

func TestMapFieldsRepairsInvalidJSON(t *testing.T) {
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	var mu sync.Mutex
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		callNum := calls
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if callNum == 1 {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"mappings: not json"}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"mappings\":{\"0\":{\"value\":\"ada@x.com\",\"confidence\":0.97,\"reason\":\"profile email\"}}}"}}]}`))
	}))
	defer server.Close()

	apiURL = server.URL
	client, err := NewClient("test-key", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	raw, err := client.MapFields(context.Background(), mapInputFixture())
	if err != nil {
		t.Fatalf("MapFields: %v", err)
	}
	mu.Lock()
	got := calls
	mu.Unlock()
	if got != 2 {
		t.Fatalf("expected a repair round-trip, got %d calls", got)
	}
	if !json.Valid(raw) {
		t.Fatalf("repaired output still invalid: %s", raw)
	}
}
