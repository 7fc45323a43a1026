// Package workers implements the completion-event consumer that drains the
// Redis Streams queue the Lifecycle Engine enqueues into on every terminal
// transition, grounded on the teacher's PirepQueueWorker
// (internal/workers/pirep_queue_worker.go): the same
// processQueue/claimStaleMessages shape, adapted from per-VA PIREP sync
// queues to the single completion-event stream this domain uses.
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vatpac-net/ingestd/internal/completion"
	"github.com/vatpac-net/ingestd/internal/events"
	"github.com/vatpac-net/ingestd/internal/logging"
	"github.com/vatpac-net/ingestd/internal/metrics"
)

// staleClaimInterval is how often the claimer goroutine scans for messages
// abandoned by a worker that died mid-processing.
const staleClaimInterval = 2 * time.Minute

// staleClaimMinIdle is how long a message must sit unacknowledged before a
// different consumer is allowed to claim it.
const staleClaimMinIdle = 5 * time.Minute

// dequeueBlockTime bounds how long a single XReadGroup call blocks waiting
// for the next message before looping to check ctx.Done().
const dequeueBlockTime = 5 * time.Second

// CompletionWorker processes completion events from the queue, computing
// and persisting each flight's summary row via a completion.SummaryBuilder.
type CompletionWorker struct {
	workerID string
	queue    *events.Queue
	builder  *completion.SummaryBuilder
}

// NewCompletionWorker builds a CompletionWorker.
func NewCompletionWorker(workerID string, queue *events.Queue, builder *completion.SummaryBuilder) *CompletionWorker {
	return &CompletionWorker{workerID: workerID, queue: queue, builder: builder}
}

// Start ensures the consumer group exists, then spawns numWorkers consumer
// goroutines plus one stale-message claimer, blocking until ctx is
// cancelled.
func (w *CompletionWorker) Start(ctx context.Context, numWorkers int) error {
	log := logging.GetLogger()

	if err := w.queue.EnsureGroup(ctx); err != nil {
		return fmt.Errorf("workers: ensuring completion consumer group: %w", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		consumerName := fmt.Sprintf("%s-worker-%d", w.workerID, i)
		wg.Add(1)
		go func(consumerName string) {
			defer wg.Done()
			w.processQueue(ctx, consumerName)
		}(consumerName)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.claimStaleMessages(ctx)
	}()

	log.Infow("completion worker started", "worker_id", w.workerID, "consumers", numWorkers)
	wg.Wait()
	log.Infow("completion worker stopped", "worker_id", w.workerID)
	return nil
}

// processQueue continuously dequeues and processes completion events until
// ctx is cancelled.
func (w *CompletionWorker) processQueue(ctx context.Context, consumerName string) {
	log := logging.GetLogger()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev, messageID, err := w.queue.Dequeue(ctx, consumerName, dequeueBlockTime)
		if err != nil {
			log.Errorw("completion worker dequeue failed", "consumer", consumerName, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if ev == nil {
			continue
		}

		if err := w.builder.Process(ctx, *ev); err != nil {
			log.Errorw("completion worker processing failed", "consumer", consumerName, "callsign", ev.Callsign, "error", err)
			metrics.CompletionEventsProcessedTotal.WithLabelValues("error").Inc()
			// Acknowledged regardless: a permanently malformed or
			// unresolvable event would otherwise block the stream
			// forever. A dead-letter stream is a reasonable follow-up
			// if this starts masking real failures.
		} else {
			metrics.CompletionEventsProcessedTotal.WithLabelValues("success").Inc()
		}

		if err := w.queue.Ack(ctx, messageID); err != nil {
			log.Errorw("completion worker ack failed", "consumer", consumerName, "message_id", messageID, "error", err)
		}
	}
}

// claimStaleMessages periodically reclaims and processes messages left
// pending by a consumer that crashed before acknowledging.
func (w *CompletionWorker) claimStaleMessages(ctx context.Context) {
	log := logging.GetLogger()
	claimerName := fmt.Sprintf("%s-claimer", w.workerID)

	ticker := time.NewTicker(staleClaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evs, ids, err := w.queue.ClaimStale(ctx, claimerName, staleClaimMinIdle)
			if err != nil {
				log.Errorw("completion worker stale claim failed", "error", err)
				continue
			}
			if len(evs) == 0 {
				continue
			}
			log.Warnw("completion worker claimed stale messages", "count", len(evs))
			metrics.CompletionEventsClaimedTotal.Add(float64(len(evs)))

			for i, ev := range evs {
				if err := w.builder.Process(ctx, ev); err != nil {
					log.Errorw("completion worker processing claimed event failed", "callsign", ev.Callsign, "error", err)
					metrics.CompletionEventsProcessedTotal.WithLabelValues("error").Inc()
				} else {
					metrics.CompletionEventsProcessedTotal.WithLabelValues("success").Inc()
				}
				if err := w.queue.Ack(ctx, ids[i]); err != nil {
					log.Errorw("completion worker ack claimed message failed", "message_id", ids[i], "error", err)
				}
			}
		}
	}
}
