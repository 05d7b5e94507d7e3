package investigation

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Amitabh1998/sre-ai/internal/database"
)

// ErrAlreadyInvestigating is returned when an investigation is requested
// for an incident that already holds the investigation claim
var ErrAlreadyInvestigating = errors.New("incident is already under investigation")

// Broadcaster pushes activity-feed entries to live subscribers. Nil is a
// valid Broadcaster target; the orchestrator skips broadcasting then.
type Broadcaster interface {
	BroadcastActivity(activity *database.AIActivity)
}

// Result is what one completed investigation run produced
type Result struct {
	IncidentUUID string
	Hypotheses   []database.Hypothesis
	Status       database.IncidentStatus
}

// Orchestrator drives an incident through a full investigation: claim,
// gather, generate, persist, hand off to a human.
type Orchestrator struct {
	store       *database.Store
	gatherer    *Gatherer
	generator   *Generator
	broadcaster Broadcaster
}

// NewOrchestrator creates a new Orchestrator. broadcaster may be nil.
func NewOrchestrator(store *database.Store, gatherer *Gatherer, generator *Generator, broadcaster Broadcaster) *Orchestrator {
	return &Orchestrator{
		store:       store,
		gatherer:    gatherer,
		generator:   generator,
		broadcaster: broadcaster,
	}
}

// Investigate runs the full investigation pipeline for one incident.
//
// The claim on the incident is taken atomically; a second concurrent call
// for the same incident gets ErrAlreadyInvestigating. Every run ends in
// human-intervention: on success the hypotheses await human review, and on
// failure a human needs to look regardless.
func (o *Orchestrator) Investigate(ctx context.Context, incidentUUID string) (*Result, error) {
	incident, err := o.store.GetIncidentByUUID(incidentUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load incident %s: %w", incidentUUID, err)
	}

	claimed, err := o.store.BeginInvestigation(incidentUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim incident %s: %w", incidentUUID, err)
	}
	if !claimed {
		return nil, ErrAlreadyInvestigating
	}

	return o.finish(ctx, incident)
}

// InvestigateClaimed runs the pipeline for an incident that already holds
// the investigation claim, such as one the alert front door created
// directly in ai-investigating
func (o *Orchestrator) InvestigateClaimed(ctx context.Context, incidentUUID string) (*Result, error) {
	incident, err := o.store.GetIncidentByUUID(incidentUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load incident %s: %w", incidentUUID, err)
	}
	return o.finish(ctx, incident)
}

func (o *Orchestrator) finish(ctx context.Context, incident *database.Incident) (*Result, error) {
	result, err := o.run(ctx, incident)
	if err != nil {
		log.Printf("Investigation failed for incident %s: %v", incident.UUID, err)
		if statusErr := o.store.SetIncidentStatus(incident.UUID, database.IncidentStatusHumanIntervention); statusErr != nil {
			log.Printf("Failed to move incident %s to human-intervention: %v", incident.UUID, statusErr)
		}
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, incident *database.Incident) (*Result, error) {
	err := o.store.AppendTimelineEvent(&database.TimelineEvent{
		IncidentID:  incident.ID,
		Type:        database.TimelineEventInvestigationStep,
		Title:       "AI Agent started investigation",
		Description: "Analyzing logs, metrics, and recent changes",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record investigation start: %w", err)
	}

	err = o.recordActivity(&database.AIActivity{
		OrganizationID: incident.OrganizationID,
		IncidentID:     &incident.ID,
		Type:           database.AIActivityInvestigating,
		Title:          fmt.Sprintf("Investigating %s", incident.Title),
		Description:    fmt.Sprintf("Analyzing %s logs for anomalies", incident.Service),
		Details:        database.StringList{"scanning_logs: in progress"},
		IsLive:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record investigation activity: %w", err)
	}

	telemetry := o.gatherer.Gather(ctx, incident.OrganizationID, incident.Service, incident.Title, DefaultWindow())
	log.Printf("Gathered telemetry for incident %s: %d logs, %d metrics",
		incident.UUID, len(telemetry.Logs), len(telemetry.Metrics))

	generated, err := o.generator.Generate(ctx, promptInput{
		Title:             incident.Title,
		Service:           incident.Service,
		Severity:          string(incident.Severity),
		Description:       incident.Description,
		Logs:              telemetry.Logs,
		Metrics:           telemetry.Metrics,
		RecentDeployments: telemetry.RecentDeployments,
	})
	if err != nil {
		return nil, fmt.Errorf("hypothesis generation failed: %w", err)
	}

	stored := make([]database.Hypothesis, 0, len(generated))
	highestConfidence := 0
	for _, h := range generated {
		row := database.Hypothesis{
			IncidentID:   incident.ID,
			Title:        h.Title,
			Confidence:   h.Confidence,
			Evidence:     database.StringList(h.Evidence),
			SuggestedFix: h.SuggestedFix,
		}
		if err := o.store.AppendHypothesis(&row); err != nil {
			return nil, fmt.Errorf("failed to store hypothesis %q: %w", h.Title, err)
		}
		stored = append(stored, row)
		if row.Confidence > highestConfidence {
			highestConfidence = row.Confidence
		}
	}

	err = o.recordActivity(&database.AIActivity{
		OrganizationID: incident.OrganizationID,
		IncidentID:     &incident.ID,
		Type:           database.AIActivityInvestigating,
		Title:          fmt.Sprintf("Investigation complete: %s", incident.Title),
		Description:    fmt.Sprintf("Generated %d hypotheses", len(stored)),
		Details: database.StringList{
			fmt.Sprintf("hypotheses_generated: %d", len(stored)),
			fmt.Sprintf("highest_confidence: %d%%", highestConfidence),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record completion activity: %w", err)
	}

	if err := o.store.SetIncidentStatus(incident.UUID, database.IncidentStatusHumanIntervention); err != nil {
		return nil, fmt.Errorf("failed to update incident status: %w", err)
	}

	return &Result{
		IncidentUUID: incident.UUID,
		Hypotheses:   stored,
		Status:       database.IncidentStatusHumanIntervention,
	}, nil
}

func (o *Orchestrator) recordActivity(activity *database.AIActivity) error {
	if err := o.store.CreateAIActivity(activity); err != nil {
		return err
	}
	if o.broadcaster != nil {
		o.broadcaster.BroadcastActivity(activity)
	}
	return nil
}
