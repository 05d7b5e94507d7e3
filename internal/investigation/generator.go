package investigation

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/Amitabh1998/sre-ai/internal/llm"
)

// GeneratedHypothesis is one root-cause candidate produced by the model
type GeneratedHypothesis struct {
	Title        string   `json:"title"`
	Confidence   int      `json:"confidence"`
	Evidence     []string `json:"evidence"`
	SuggestedFix string   `json:"suggestedFix"`
}

// Completer is the model surface the generator depends on
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error)
}

// Generator turns gathered telemetry into ranked root-cause hypotheses
type Generator struct {
	client Completer
}

// NewGenerator creates a new Generator
func NewGenerator(client Completer) *Generator {
	return &Generator{client: client}
}

// fallbackHypotheses is what callers get when the model output cannot be
// used: a single honest placeholder rather than a fabricated root cause.
func fallbackHypotheses() []GeneratedHypothesis {
	return []GeneratedHypothesis{
		{
			Title:        "Root cause analysis in progress",
			Confidence:   50,
			Evidence:     []string{"Insufficient data to determine root cause"},
			SuggestedFix: "Gather more logs and metrics",
		},
	}
}

// Generate asks the model for root-cause hypotheses. Model transport
// errors propagate; malformed or unparseable model output degrades to the
// fallback hypothesis instead.
func (g *Generator) Generate(ctx context.Context, in promptInput) ([]GeneratedHypothesis, error) {
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: investigationPrompt(in)},
	}

	response, err := g.client.Complete(ctx, messages, llm.Options{
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, err
	}

	return parseHypotheses(response), nil
}

// rawHypothesis tolerates missing and mistyped fields in model output.
// Fields stay untyped so one bad field cannot fail the whole batch; each
// is coerced individually below.
type rawHypothesis struct {
	Title        interface{} `json:"title"`
	Confidence   interface{} `json:"confidence"`
	Evidence     interface{} `json:"evidence"`
	SuggestedFix interface{} `json:"suggestedFix"`
}

func parseHypotheses(response string) []GeneratedHypothesis {
	jsonContent := llm.ExtractJSON(response)
	if jsonContent == "" {
		log.Printf("Hypothesis generation: no JSON found in model response, using fallback")
		return fallbackHypotheses()
	}

	var parsed struct {
		Hypotheses []json.RawMessage `json:"hypotheses"`
	}
	if err := json.Unmarshal([]byte(jsonContent), &parsed); err != nil {
		log.Printf("Hypothesis generation: failed to parse model response: %v", err)
		return fallbackHypotheses()
	}
	if len(parsed.Hypotheses) == 0 {
		log.Printf("Hypothesis generation: response missing hypotheses array, using fallback")
		return fallbackHypotheses()
	}

	hypotheses := make([]GeneratedHypothesis, 0, len(parsed.Hypotheses))
	for _, entry := range parsed.Hypotheses {
		var raw rawHypothesis
		if err := json.Unmarshal(entry, &raw); err != nil {
			log.Printf("Hypothesis generation: skipping non-object hypothesis entry: %v", err)
			continue
		}
		hypotheses = append(hypotheses, GeneratedHypothesis{
			Title:        coerceString(raw.Title, "Unknown root cause"),
			Confidence:   coerceConfidence(raw.Confidence),
			Evidence:     coerceEvidence(raw.Evidence),
			SuggestedFix: coerceString(raw.SuggestedFix, "No fix suggested"),
		})
	}
	if len(hypotheses) == 0 {
		log.Printf("Hypothesis generation: no usable hypothesis entries, using fallback")
		return fallbackHypotheses()
	}
	return hypotheses
}

func coerceString(v interface{}, placeholder string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return placeholder
}

// coerceConfidence accepts numbers and numeric strings; anything else
// defaults to 50. The result is clamped to [0, 100].
func coerceConfidence(v interface{}) int {
	confidence := 50
	switch n := v.(type) {
	case float64:
		confidence = int(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			confidence = int(f)
		}
	}
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}

// coerceEvidence accepts a string array, a bare string, or nothing.
// Non-string array elements are dropped.
func coerceEvidence(v interface{}) []string {
	switch val := v.(type) {
	case []interface{}:
		evidence := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				evidence = append(evidence, s)
			}
		}
		return evidence
	case string:
		if val != "" {
			return []string{val}
		}
	}
	return []string{}
}
