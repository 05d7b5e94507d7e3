package investigation

import (
	"fmt"
	"strings"

	"github.com/Amitabh1998/sre-ai/internal/utils"
)

const systemPrompt = "You are an expert SRE engineer analyzing incidents. Provide structured, actionable hypotheses based on the data provided."

// promptInput is everything the investigation prompt interpolates
type promptInput struct {
	Title             string
	Service           string
	Severity          string
	Description       string
	Logs              []string
	Metrics           map[string]interface{}
	RecentDeployments []string
}

const maxPromptLogs = 50

// investigationPrompt renders the user-turn prompt for hypothesis
// generation. At most 50 log lines are included; empty sections are omitted.
func investigationPrompt(in promptInput) string {
	var b strings.Builder

	b.WriteString("You are an AI SRE agent investigating an incident. Analyze the following data and generate hypotheses about the root cause.\n\n")
	b.WriteString("Incident Details:\n")
	fmt.Fprintf(&b, "- Title: %s\n", in.Title)
	fmt.Fprintf(&b, "- Service: %s\n", in.Service)
	fmt.Fprintf(&b, "- Severity: %s\n", in.Severity)
	if in.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", in.Description)
	}

	if len(in.Logs) > 0 {
		logs := in.Logs[:utils.Min(len(in.Logs), maxPromptLogs)]
		b.WriteString("\nRelevant Logs:\n")
		b.WriteString(strings.Join(logs, "\n"))
		b.WriteString("\n")
	}

	if len(in.Metrics) > 0 {
		b.WriteString("\nMetrics:\n")
		b.WriteString(formatMetrics(in.Metrics))
		b.WriteString("\n")
	}

	if len(in.RecentDeployments) > 0 {
		b.WriteString("\nRecent Deployments:\n")
		b.WriteString(strings.Join(in.RecentDeployments, "\n"))
		b.WriteString("\n")
	}

	b.WriteString(`
Generate 2-4 hypotheses about the root cause. For each hypothesis, provide:
1. A clear title describing the root cause
2. A confidence score (0-100)
3. Evidence supporting the hypothesis (3-5 bullet points)
4. A suggested fix

Format your response as JSON:
{
  "hypotheses": [
    {
      "title": "Root cause description",
      "confidence": 85,
      "evidence": [
        "Evidence point 1",
        "Evidence point 2"
      ],
      "suggestedFix": "Detailed fix recommendation"
    }
  ]
}`)

	return b.String()
}
