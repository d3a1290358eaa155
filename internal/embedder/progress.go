package embedder

import "time"

// Stage identifies a point in the batched embedding lifecycle.
type Stage string

const (
	// StageScheduled fires once after cache partitioning, before any
	// provider call, with the total batch count.
	StageScheduled Stage = "scheduled"
	// StageBatchDone fires after each batch completes.
	StageBatchDone Stage = "batch_done"
	// StageDone fires once when every text has a vector.
	StageDone Stage = "done"
)

// Progress is a snapshot passed to the OnProgress callback.
type Progress struct {
	Stage        Stage
	TotalTexts   int
	TotalBatches int
	DoneBatches  int
	CacheHits    int
	Retries      int
	// Elapsed is the wall time since the run started. Set on StageDone.
	Elapsed time.Duration
}

// ProgressFunc observes embedding progress. Callbacks must not block;
// panics and errors inside them are swallowed so reporting can never
// fail an embedding run.
type ProgressFunc func(Progress)

func emitProgress(fn ProgressFunc, p Progress) {
	if fn == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	fn(p)
}
