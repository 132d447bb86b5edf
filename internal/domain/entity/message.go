package entity

import "github.com/google/uuid"

// BatchRequestMessage is the inbound message from the batch.request queue.
// One message describes one batch: a set of uploaded video keys plus the
// sampling configuration shared by all of them.
type BatchRequestMessage struct {
	JobID           uuid.UUID `json:"job_id"`
	UserID          string    `json:"user_id"`
	VideoKeys       []string  `json:"video_keys"`
	TargetFPS       float64   `json:"target_fps"`
	IntervalSeconds int       `json:"interval_seconds,omitempty"`
	ResizeWidth     int       `json:"resize_width,omitempty"`
	ResizeHeight    int       `json:"resize_height,omitempty"`
	JPEGQuality     int       `json:"jpeg_quality,omitempty"`
	UserEmail       string    `json:"user_email,omitempty"`
}

// VideoOutcome is the per-video slice of a status message.
type VideoOutcome struct {
	VideoName       string  `json:"video_name"`
	Status          string  `json:"status"`
	SavedFrames     int     `json:"saved_frames"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// BatchStatusMessage is the outbound message published to the batch.status
// queue. It always lists every submitted video with its individual outcome;
// totals cover successful extractions only.
type BatchStatusMessage struct {
	JobID         uuid.UUID      `json:"job_id"`
	UserID        string         `json:"user_id"`
	Status        JobStatus      `json:"status"`
	ArchiveKey    string         `json:"archive_key,omitempty"`
	Videos        []VideoOutcome `json:"videos,omitempty"`
	TotalFrames   int            `json:"total_frames"`
	TotalDuration float64        `json:"total_duration_seconds,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	Attempt       int            `json:"attempt"`
	MaxAttempts   int            `json:"max_attempts"`
}

// ProgressMessage is the fire-and-forget per-video progress event published
// to the batch.progress routing key.
type ProgressMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	VideoName string    `json:"video_name"`
	Fraction  float64   `json:"fraction"`
}
