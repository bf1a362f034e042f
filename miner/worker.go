package main

import (
	"log/slog"
	"time"

	"ferrominer/block"
	"ferrominer/difficulty"
	"ferrominer/telemetry"
)

// idleSleep is how long an idle worker sleeps when there is no connection,
// so a disconnected miner does not peg every CPU doing nothing.
const idleSleep = 100 * time.Millisecond

// worker is one mining thread. It owns a private copy of the current job
// and shares no mutable state with other workers; the only cross-worker
// state it touches is the atomic telemetry counters.
type worker struct {
	id        uint8
	jobs      <-chan notification
	solutions chan<- *block.Template
	counters  *telemetry.Counters
	log       *slog.Logger
}

// run is the worker main loop. It polls its broadcast handle for jobs,
// searches until the job goes stale or a solution is found, and exits on
// the exit notification. Runs until then; one goroutine per worker.
func (w *worker) run() {
	w.log.Info("mining worker started", "worker", w.id)
	for {
		select {
		case n := <-w.jobs:
			switch n.kind {
			case notifyExit:
				w.log.Info("mining worker exiting", "worker", w.id)
				return
			case notifyNewJob:
				w.log.Debug("worker received new job", "worker", w.id, "height", n.template.Height)
				w.search(n)
			}
		default:
			if !w.counters.Connected() {
				time.Sleep(idleSleep)
			}
		}
	}
}

// search hunts for a nonce satisfying the job's difficulty. It returns when
// a solution has been handed off, when a newer notification is pending,
// when the connection drops, or when the job's difficulty is malformed.
func (w *worker) search(n notification) {
	// Private working copy; the broadcast template is never mutated.
	job := *n.template

	// Stamp the worker id into the extra-nonce region so no two workers
	// walk the same nonce sequence for this job.
	job.ExtraNonce[block.ExtraNonceSize-1] = w.id

	digest := job.Hash()
	w.counters.CountHash()
	for {
		solved, err := difficulty.Check(digest, n.difficulty)
		if err != nil {
			// A malformed job must not take down a solving thread.
			w.log.Error("difficulty check failed, abandoning job",
				"worker", w.id, "difficulty", n.difficulty, "error", err)
			return
		}
		if solved {
			break
		}

		// Stale work is abandoned before the next attempt, not after a
		// batch: a pending notification or a dropped connection makes
		// further effort on this template worthless.
		if len(w.jobs) > 0 || !w.counters.Connected() {
			return
		}

		job.Nonce++
		job.Timestamp = uint64(time.Now().UnixMilli())
		digest = job.Hash()
		w.counters.CountHash()
	}

	w.log.Info("block found",
		"worker", w.id, "height", job.Height, "digest", digest.String())

	// Blocking send: pausing one worker to deliver a solution is fine, and
	// the channel is sized so concurrent finders do not wedge each other.
	w.solutions <- &job
}
