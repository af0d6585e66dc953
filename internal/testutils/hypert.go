package testutils

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/areknoster/hypert"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract/llm"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
)

// ShouldUpdate returns true if tests should re-record HTTP interactions.
// Set UPDATE_TESTS=true to update them.
func ShouldUpdate() bool {
	return os.Getenv("UPDATE_TESTS") == "true"
}

// NewHypertClient returns a client that replays recorded responses from
// testdata/<subDir>, or records them when ShouldUpdate is true.
func NewHypertClient(t *testing.T, subDir string) *http.Client {
	t.Helper()
	dir := filepath.Join("testdata", subDir)

	namingScheme, err := hypert.NewContentHashNamingScheme(dir)
	if err != nil {
		t.Fatalf("failed to create naming scheme: %v", err)
	}

	return hypert.TestClient(t, ShouldUpdate(),
		hypert.WithNamingScheme(namingScheme),
		hypert.WithRequestValidator(hypert.ComposedRequestValidator(
			hypert.PathValidator(),
			hypert.QueryParamsValidator(),
			hypert.MethodValidator(),
		)),
	)
}

// SkipWithoutRecordings skips integration tests in -short mode and when
// nothing was recorded for subDir and recording is off.
func SkipWithoutRecordings(t *testing.T, subDir string) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	if ShouldUpdate() {
		if os.Getenv("GEMINI_API_KEY") == "" {
			t.Skip("GEMINI_API_KEY is required to record")
		}
		return
	}
	entries, err := os.ReadDir(filepath.Join("testdata", subDir))
	if err != nil || len(entries) == 0 {
		t.Skipf("no recordings in testdata/%s; run with UPDATE_TESTS=true to record", subDir)
	}
}

// NewRecordedGenerator builds a genai generator whose traffic goes through
// hypert.
func NewRecordedGenerator(t *testing.T, subDir string) llm.Generator {
	t.Helper()
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = "replay"
	}
	gen, err := llm.New(context.Background(), model.LLMConfig{
		Provider:     llm.ProviderGenAI,
		Model:        "gemini-2.5-flash",
		Temperature:  0,
		MaxTokens:    2000,
		GeminiAPIKey: apiKey,
	}, llm.WithHTTPClient(NewHypertClient(t, subDir)))
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	return gen
}
