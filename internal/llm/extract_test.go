package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "fenced json block",
			input:    "Here is the analysis:\n```json\n{\"title\": \"OOM\"}\n```\nDone.",
			expected: `{"title": "OOM"}`,
		},
		{
			name:     "fenced block without language tag",
			input:    "```\n{\"confidence\": 80}\n```",
			expected: `{"confidence": 80}`,
		},
		{
			name:     "bare fence markers around whole response",
			input:    "```json\n{\"a\": 1,\n \"b\": 2}",
			expected: "{\"a\": 1,\n \"b\": 2}",
		},
		{
			name:     "prose around raw object",
			input:    "Sure! The result is {\"title\": \"Leak\", \"confidence\": 70} as requested.",
			expected: `{"title": "Leak", "confidence": 70}`,
		},
		{
			name:     "plain object",
			input:    `{"hypotheses": []}`,
			expected: `{"hypotheses": []}`,
		},
		{
			name:     "no json at all",
			input:    "I could not determine a root cause.",
			expected: "",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.input)
			if got != tt.expected {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNewClientProviderSelection(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		provider string
		wantErr  bool
	}{
		{"openai only", Config{OpenAIAPIKey: "sk-test"}, providerOpenAI, false},
		{"anthropic only", Config{AnthropicAPIKey: "sk-ant"}, providerAnthropic, false},
		{"openai wins when both set", Config{OpenAIAPIKey: "sk-test", AnthropicAPIKey: "sk-ant"}, providerOpenAI, false},
		{"no credentials", Config{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			if c.Provider() != tt.provider {
				t.Errorf("Provider() = %q, want %q", c.Provider(), tt.provider)
			}
		})
	}
}
