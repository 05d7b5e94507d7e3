// Package notify pushes incident lifecycle notifications to Slack.
// Notification delivery is best effort: a Slack outage never blocks the
// pipeline.
package notify

import (
	"fmt"
	"log"

	"github.com/slack-go/slack"

	"github.com/Amitabh1998/sre-ai/internal/database"
	"github.com/Amitabh1998/sre-ai/internal/utils"
)

// slackAPI is the subset of the Slack client the notifier uses
type slackAPI interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts incident notifications to a configured channel.
// A nil *SlackNotifier is valid and drops all notifications.
type SlackNotifier struct {
	client  slackAPI
	channel string
}

// NewSlackNotifier creates a notifier, or nil when no bot token is
// configured
func NewSlackNotifier(botToken, channel string) *SlackNotifier {
	if botToken == "" || channel == "" {
		return nil
	}
	return &SlackNotifier{
		client:  slack.New(botToken),
		channel: channel,
	}
}

func (n *SlackNotifier) post(text string) {
	if n == nil {
		return
	}
	if _, _, err := n.client.PostMessage(n.channel, slack.MsgOptionText(text, false)); err != nil {
		log.Printf("Failed to post Slack notification: %v", err)
	}
}

// Incident titles come from webhook payloads and can be long
const maxNotificationTitle = 120

// IncidentCreated announces a new incident
func (n *SlackNotifier) IncidentCreated(incident *database.Incident) {
	n.post(fmt.Sprintf("🚨 *New %s incident*: %s\nService: `%s`, status: %s",
		incident.Severity, utils.TruncateText(incident.Title, maxNotificationTitle),
		incident.Service, incident.Status))
}

// InvestigationCompleted announces the outcome of an investigation run
func (n *SlackNotifier) InvestigationCompleted(incident *database.Incident, hypothesisCount, highestConfidence int) {
	n.post(fmt.Sprintf("🔍 *Investigation complete*: %s\nGenerated %d hypotheses (highest confidence %d%%). Human review needed.",
		utils.TruncateText(incident.Title, maxNotificationTitle), hypothesisCount, highestConfidence))
}

// InvestigationFailed announces a failed investigation run
func (n *SlackNotifier) InvestigationFailed(incidentUUID string, err error) {
	n.post(fmt.Sprintf("❌ *Investigation failed* for incident `%s`: %v\nIncident moved to human-intervention.", incidentUUID, err))
}

// IncidentResolved announces a resolved incident
func (n *SlackNotifier) IncidentResolved(incident *database.Incident) {
	n.post(fmt.Sprintf("✅ *Incident resolved*: %s (MTTR: %s)",
		utils.TruncateText(incident.Title, maxNotificationTitle), incident.MTTR))
}
