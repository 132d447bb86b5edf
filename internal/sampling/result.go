package sampling

type Status string

const (
	StatusOK         Status = "OK"
	StatusSkippedFPS Status = "SKIPPED_UNREADABLE_FPS"
	StatusFailed     Status = "FAILED"
)

// VideoResult is the per-video outcome of one engine run.
type VideoResult struct {
	VideoName       string
	SavedFrames     int
	DurationSeconds float64
	Status          Status
	Reason          string // set only for StatusFailed
}

// BatchResult aggregates all video outcomes of one orchestrator run.
// Videos are ordered by completion, not submission, since runs are
// concurrent. Totals cover StatusOK entries only.
type BatchResult struct {
	TotalSavedFrames     int
	TotalDurationSeconds float64
	Videos               []VideoResult
}

func (b *BatchResult) add(r VideoResult) {
	b.Videos = append(b.Videos, r)
	if r.Status == StatusOK {
		b.TotalSavedFrames += r.SavedFrames
		b.TotalDurationSeconds += r.DurationSeconds
	}
}
