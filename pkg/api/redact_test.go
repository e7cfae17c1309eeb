package api

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestEvaluationLogValueHidesAPIKeys(t *testing.T) {
	modelConfig := &ModelConfiguration{Type: "azure_openai", AzureEndpoint: "https://aoai.example.com", APIKey: "secret-1"}
	evaluation := &Evaluation{
		ID:          "eval-1",
		DisplayName: "eval-cloud-via-sdk-test",
		Evaluators: map[string]*EvaluatorConfiguration{
			"coherence": {ID: "coherence", InitParams: map[string]any{"model_config": modelConfig}},
			// decoded from a service response
			"fluency": {ID: "fluency", InitParams: map[string]any{"model_config": map[string]any{"api_key": "secret-2", "azure_deployment": "gpt-4o"}}},
			"empty":   nil,
		},
	}

	buf := &bytes.Buffer{}
	slog.New(slog.NewJSONHandler(buf, nil)).Info("Evaluation record", "evaluation", evaluation)
	logs := buf.String()

	if strings.Contains(logs, "secret-1") || strings.Contains(logs, "secret-2") {
		t.Errorf("expected the api keys to be redacted: %s", logs)
	}
	for _, want := range []string{"eval-cloud-via-sdk-test", "gpt-4o", "https://aoai.example.com", redacted} {
		if !strings.Contains(logs, want) {
			t.Errorf("expected %q in %s", want, logs)
		}
	}
	if modelConfig.APIKey != "secret-1" {
		t.Errorf("expected the evaluation to be left unchanged, got %q", modelConfig.APIKey)
	}
	if evaluation.Evaluators["fluency"].InitParams["model_config"].(map[string]any)["api_key"] != "secret-2" {
		t.Errorf("expected the decoded params to be left unchanged")
	}
}

func TestModelConfigurationLogValue(t *testing.T) {
	buf := &bytes.Buffer{}
	slog.New(slog.NewJSONHandler(buf, nil)).Info("model", "config", ModelConfiguration{APIVersion: "2024-08-01-preview", APIKey: "secret"})
	if strings.Contains(buf.String(), "secret") || !strings.Contains(buf.String(), "2024-08-01-preview") {
		t.Errorf("unexpected log %s", buf.String())
	}
}
