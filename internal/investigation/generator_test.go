package investigation

import (
	"context"
	"errors"
	"testing"

	"github.com/Amitabh1998/sre-ai/internal/llm"
)

// fakeCompleter returns a canned response or error
type fakeCompleter struct {
	response string
	err      error

	lastMessages []llm.Message
	lastOpts     llm.Options
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	f.lastMessages = messages
	f.lastOpts = opts
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestGenerateParsesWellFormedResponse(t *testing.T) {
	completer := &fakeCompleter{
		response: "```json\n{\"hypotheses\": [{\"title\": \"Connection pool exhausted\", \"confidence\": 85, \"evidence\": [\"pool at 98%\"], \"suggestedFix\": \"Raise pool size\"}]}\n```",
	}
	gen := NewGenerator(completer)

	hypotheses, err := gen.Generate(context.Background(), promptInput{
		Title: "Timeouts", Service: "api", Severity: "P1",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(hypotheses) != 1 {
		t.Fatalf("expected 1 hypothesis, got %d", len(hypotheses))
	}
	h := hypotheses[0]
	if h.Title != "Connection pool exhausted" {
		t.Errorf("unexpected title: %q", h.Title)
	}
	if h.Confidence != 85 {
		t.Errorf("expected confidence 85, got %d", h.Confidence)
	}
	if len(h.Evidence) != 1 || h.Evidence[0] != "pool at 98%" {
		t.Errorf("unexpected evidence: %v", h.Evidence)
	}
	if h.SuggestedFix != "Raise pool size" {
		t.Errorf("unexpected fix: %q", h.SuggestedFix)
	}
}

func TestGenerateRequestShape(t *testing.T) {
	completer := &fakeCompleter{response: `{"hypotheses": []}`}
	gen := NewGenerator(completer)

	if _, err := gen.Generate(context.Background(), promptInput{Title: "T", Service: "s", Severity: "P2"}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(completer.lastMessages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(completer.lastMessages))
	}
	if completer.lastMessages[0].Role != "system" {
		t.Errorf("expected first message role system, got %q", completer.lastMessages[0].Role)
	}
	if completer.lastOpts.Temperature != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", completer.lastOpts.Temperature)
	}
	if completer.lastOpts.MaxTokens != 2000 {
		t.Errorf("expected max tokens 2000, got %d", completer.lastOpts.MaxTokens)
	}
}

func TestGenerateCoercesMalformedFields(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"hypotheses": [{"confidence": 150}, {"title": "Low", "confidence": -5, "suggestedFix": "restart"}]}`,
	}
	gen := NewGenerator(completer)

	hypotheses, err := gen.Generate(context.Background(), promptInput{Title: "T", Service: "s", Severity: "P3"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(hypotheses) != 2 {
		t.Fatalf("expected 2 hypotheses, got %d", len(hypotheses))
	}

	first := hypotheses[0]
	if first.Title != "Unknown root cause" {
		t.Errorf("expected default title, got %q", first.Title)
	}
	if first.Confidence != 100 {
		t.Errorf("expected confidence clamped to 100, got %d", first.Confidence)
	}
	if first.Evidence == nil || len(first.Evidence) != 0 {
		t.Errorf("expected empty evidence slice, got %v", first.Evidence)
	}
	if first.SuggestedFix != "No fix suggested" {
		t.Errorf("expected default fix, got %q", first.SuggestedFix)
	}

	second := hypotheses[1]
	if second.Confidence != 0 {
		t.Errorf("expected confidence clamped to 0, got %d", second.Confidence)
	}
}

func TestGenerateMissingConfidenceDefaults(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"hypotheses": [{"title": "No score given"}]}`,
	}
	gen := NewGenerator(completer)

	hypotheses, err := gen.Generate(context.Background(), promptInput{Title: "T", Service: "s", Severity: "P3"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if hypotheses[0].Confidence != 50 {
		t.Errorf("expected default confidence 50, got %d", hypotheses[0].Confidence)
	}
}

func TestGenerateMistypedFieldsDoNotFailBatch(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"hypotheses": [` +
			`{"title": "Real cause", "confidence": "high", "evidence": "pool saturated", "suggestedFix": "Raise pool size"}, ` +
			`{"title": "Other", "confidence": 80, "evidence": ["retry storm"], "suggestedFix": "Add backoff"}]}`,
	}
	gen := NewGenerator(completer)

	hypotheses, err := gen.Generate(context.Background(), promptInput{Title: "T", Service: "s", Severity: "P1"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(hypotheses) != 2 {
		t.Fatalf("expected both hypotheses preserved, got %d", len(hypotheses))
	}

	first := hypotheses[0]
	if first.Title != "Real cause" {
		t.Errorf("unexpected title: %q", first.Title)
	}
	if first.Confidence != 50 {
		t.Errorf("expected non-numeric confidence to default to 50, got %d", first.Confidence)
	}
	if len(first.Evidence) != 1 || first.Evidence[0] != "pool saturated" {
		t.Errorf("expected bare-string evidence preserved as a list, got %v", first.Evidence)
	}

	second := hypotheses[1]
	if second.Confidence != 80 {
		t.Errorf("expected second hypothesis untouched, got confidence %d", second.Confidence)
	}
}

func TestGenerateConfidenceCoercion(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
	}{
		{"numeric string", `{"hypotheses": [{"title": "x", "confidence": "85"}]}`, 85},
		{"non-numeric string", `{"hypotheses": [{"title": "x", "confidence": "high"}]}`, 50},
		{"boolean", `{"hypotheses": [{"title": "x", "confidence": true}]}`, 50},
		{"null", `{"hypotheses": [{"title": "x", "confidence": null}]}`, 50},
		{"mistyped object", `{"hypotheses": [{"title": "x", "confidence": {"value": 90}}]}`, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewGenerator(&fakeCompleter{response: tt.response})
			hypotheses, err := gen.Generate(context.Background(), promptInput{Title: "T", Service: "s", Severity: "P2"})
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if len(hypotheses) != 1 {
				t.Fatalf("expected 1 hypothesis, got %d", len(hypotheses))
			}
			if hypotheses[0].Title != "x" {
				t.Errorf("expected entry preserved, got title %q", hypotheses[0].Title)
			}
			if hypotheses[0].Confidence != tt.want {
				t.Errorf("expected confidence %d, got %d", tt.want, hypotheses[0].Confidence)
			}
		})
	}
}

func TestGenerateSkipsNonObjectEntries(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"hypotheses": ["just a string", {"title": "Kept", "confidence": 60}]}`,
	}
	gen := NewGenerator(completer)

	hypotheses, err := gen.Generate(context.Background(), promptInput{Title: "T", Service: "s", Severity: "P2"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(hypotheses) != 1 {
		t.Fatalf("expected 1 hypothesis, got %d", len(hypotheses))
	}
	if hypotheses[0].Title != "Kept" {
		t.Errorf("expected the object entry kept, got %q", hypotheses[0].Title)
	}
}

func TestGenerateUnparseableResponseFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose only", "I was unable to analyze the incident."},
		{"broken json", `{"hypotheses": [{"title": "x"`},
		{"missing hypotheses key", `{"analysis": "inconclusive"}`},
		{"empty hypotheses array", `{"hypotheses": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewGenerator(&fakeCompleter{response: tt.response})
			hypotheses, err := gen.Generate(context.Background(), promptInput{Title: "T", Service: "s", Severity: "P4"})
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if len(hypotheses) != 1 {
				t.Fatalf("expected single fallback hypothesis, got %d", len(hypotheses))
			}
			h := hypotheses[0]
			if h.Title != "Root cause analysis in progress" {
				t.Errorf("unexpected fallback title: %q", h.Title)
			}
			if h.Confidence != 50 {
				t.Errorf("expected fallback confidence 50, got %d", h.Confidence)
			}
			if len(h.Evidence) != 1 || h.Evidence[0] != "Insufficient data to determine root cause" {
				t.Errorf("unexpected fallback evidence: %v", h.Evidence)
			}
			if h.SuggestedFix != "Gather more logs and metrics" {
				t.Errorf("unexpected fallback fix: %q", h.SuggestedFix)
			}
		})
	}
}

func TestGenerateTransportErrorPropagates(t *testing.T) {
	wantErr := errors.New("model unavailable")
	gen := NewGenerator(&fakeCompleter{err: wantErr})

	_, err := gen.Generate(context.Background(), promptInput{Title: "T", Service: "s", Severity: "P1"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected transport error to propagate, got %v", err)
	}
}
