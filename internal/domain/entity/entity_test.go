package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsSupportedVideo(t *testing.T) {
	supported := []string{"clip.mp4", "clip.AVI", "a/b/clip.mkv", "clip.mov", "clip.flv", "clip.webm"}
	for _, name := range supported {
		assert.True(t, IsSupportedVideo(name), name)
	}

	unsupported := []string{"clip.gif", "clip.mp3", "document.txt", "clip", "clip.mp4.txt"}
	for _, name := range unsupported {
		assert.False(t, IsSupportedVideo(name), name)
	}
}

func TestBatchJobLifecycle(t *testing.T) {
	job := NewBatchJob(uuid.New(), "user-1", []string{"a.mp4"}, 1, 3)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.True(t, job.CanRetry())

	job.MarkProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)

	job.MarkCompleted("user-1/frames_x.zip", 42, 12.5)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, 42, job.TotalFrames)
	assert.NotNil(t, job.CompletedAt)
}

func TestBatchJobRetryExhaustion(t *testing.T) {
	job := NewBatchJob(uuid.New(), "user-1", []string{"a.mp4"}, 3, 3)
	assert.False(t, job.CanRetry())

	job.MarkFailed("download timed out")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "download timed out", job.ErrorMessage)
}
