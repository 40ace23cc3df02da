package publisher

import (
	"encoding/json"
	"time"

	"sjsage522/jobworker/internal/crawler"
	"sjsage522/jobworker/logger"
	apperrors "sjsage522/jobworker/pkg/errors"
)

// JobMessageKey is the stream field holding a base64 encoded JobMessage
const JobMessageKey = "b64_job"

// JobMessage is the payload published for every new job
type JobMessage struct {
	RunID       string             `json:"run_id"`
	PublishedAt time.Time          `json:"published_at"`
	Job         crawler.ItemRecord `json:"job"`
}

// PublishJobs publishes one message per job and returns how many were sent.
// It stops at the first failure.
func PublishJobs(p Publisher, runID string, jobs []crawler.ItemRecord) (int, error) {
	log := logger.ForPublisher().WithField("run_id", runID)

	sent := 0
	for _, job := range jobs {
		payload, err := json.Marshal(JobMessage{
			RunID:       runID,
			PublishedAt: time.Now().UTC(),
			Job:         job,
		})
		if err != nil {
			return sent, apperrors.NewPublisher("encoding job "+job.URL, err)
		}

		if err := p.Publish(JobMessageKey, payload); err != nil {
			return sent, err
		}
		sent++
	}

	log.Info().Int("published", sent).Msg("Published new jobs")
	return sent, nil
}
