package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// BatchJob tracks one batch request for the lifetime of its message. It is
// never persisted; retry accounting rides on the broker's redelivery
// headers.
type BatchJob struct {
	ID            uuid.UUID
	UserID        string
	VideoKeys     []string
	ArchiveKey    string
	Status        JobStatus
	TotalFrames   int
	TotalDuration float64
	Attempt       int
	MaxAttempts   int
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func NewBatchJob(id uuid.UUID, userID string, videoKeys []string, attempt, maxAttempts int) *BatchJob {
	now := time.Now().UTC()
	return &BatchJob{
		ID:          id,
		UserID:      userID,
		VideoKeys:   videoKeys,
		Status:      JobStatusPending,
		Attempt:     attempt,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *BatchJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.UpdatedAt = time.Now().UTC()
}

func (j *BatchJob) MarkCompleted(archiveKey string, totalFrames int, totalDuration float64) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ArchiveKey = archiveKey
	j.TotalFrames = totalFrames
	j.TotalDuration = totalDuration
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *BatchJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *BatchJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
