// Package jobs contains background maintenance tasks.
package jobs

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/Amitabh1998/sre-ai/internal/database"
)

// StaleInvestigationMonitor escalates incidents whose AI investigation has
// been running too long. An investigation that never reports back (crashed
// worker, lost model response) would otherwise hold the incident in
// ai-investigating forever.
type StaleInvestigationMonitor struct {
	db         *gorm.DB
	maxRuntime time.Duration
}

// NewStaleInvestigationMonitor creates a new stale investigation monitor
func NewStaleInvestigationMonitor(db *gorm.DB, maxRuntime time.Duration) *StaleInvestigationMonitor {
	return &StaleInvestigationMonitor{db: db, maxRuntime: maxRuntime}
}

// CheckAndTransition finds stale investigations and escalates them to
// human-intervention. Returns the number of incidents transitioned.
func (m *StaleInvestigationMonitor) CheckAndTransition() (int, error) {
	cutoff := time.Now().Add(-m.maxRuntime)

	var incidents []database.Incident
	err := m.db.Where("status IN ? AND updated_at < ?",
		[]database.IncidentStatus{
			database.IncidentStatusAIInvestigating,
			database.IncidentStatusLegacyInvestigating,
		}, cutoff).Find(&incidents).Error
	if err != nil {
		return 0, err
	}

	transitioned := 0
	for _, incident := range incidents {
		err := m.db.Model(&incident).
			Update("status", database.IncidentStatusHumanIntervention).Error
		if err != nil {
			log.Printf("Failed to escalate stale incident %s: %v", incident.UUID, err)
			continue
		}

		event := &database.TimelineEvent{
			IncidentID:  incident.ID,
			Type:        database.TimelineEventInvestigationStep,
			Title:       "Investigation timed out",
			Description: "AI investigation exceeded the maximum runtime and was escalated for human intervention",
			Timestamp:   time.Now(),
		}
		if err := m.db.Create(event).Error; err != nil {
			log.Printf("Failed to record timeout event for incident %s: %v", incident.UUID, err)
		}

		transitioned++
		log.Printf("Escalated stale incident %s to human-intervention", incident.UUID)
	}

	return transitioned, nil
}

// Start begins the periodic monitoring
func (m *StaleInvestigationMonitor) Start(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			transitioned, err := m.CheckAndTransition()
			if err != nil {
				log.Printf("Stale investigation monitor error: %v", err)
			} else if transitioned > 0 {
				log.Printf("Stale investigation monitor: escalated %d incidents", transitioned)
			}
		case <-stop:
			log.Println("Stale investigation monitor stopped")
			return
		}
	}
}
