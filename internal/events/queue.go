// Package events implements the completion-event queue that decouples the
// Lifecycle Engine's transition detection from the Correlator's coverage
// computation, grounded on the teacher's Redis Streams queue
// (internal/common/redis_queue_service.go's consumer-group pattern).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vatpac-net/ingestd/internal/dbmodels"
)

const streamName = "ingestd:flight-completions"
const groupName = "completion-workers"

// CompletionEvent is enqueued whenever a flight transitions into a terminal
// status (spec §4.E "Completion event handling"). It carries a snapshot of
// the flight's identifying fields because by the time a worker dequeues it
// the flight has already been removed from the in-memory Coalescer.
type CompletionEvent struct {
	Callsign         string                    `json:"callsign"`
	PilotID          int64                     `json:"pilot_id"`
	PilotName        string                    `json:"pilot_name"`
	AircraftType     string                    `json:"aircraft_type"`
	Departure        string                    `json:"departure"`
	Arrival          string                    `json:"arrival"`
	Route            string                    `json:"route"`
	FlightRules      string                    `json:"flight_rules"`
	DisconnectMethod dbmodels.DisconnectMethod `json:"disconnect_method"`
	T0               time.Time                 `json:"t0"`
	T1               time.Time                 `json:"t1"`
}

// Queue wraps a Redis Stream used as an at-least-once completion-event
// queue, following the same XAdd/XReadGroup/XAck/XClaim shape as the
// teacher's RedisQueueService.
type Queue struct {
	client *redis.Client
}

// New builds a Queue over an already-connected redis.Client.
func New(client *redis.Client) *Queue {
	return &Queue{client: client}
}

// EnsureGroup creates the consumer group if it does not already exist.
func (q *Queue) EnsureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, streamName, groupName, "0").Err()
	if err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists" {
		return nil
	}
	return err
}

// Enqueue adds a completion event to the stream.
func (q *Queue) Enqueue(ctx context.Context, ev CompletionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshal completion event: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]interface{}{"data": string(data)},
	}
	if _, err := q.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("events: enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks for up to blockTime waiting for the next unclaimed
// message. A nil event with a nil error means the block timed out.
func (q *Queue) Dequeue(ctx context.Context, consumerName string, blockTime time.Duration) (*CompletionEvent, string, error) {
	args := &redis.XReadGroupArgs{
		Group:    groupName,
		Consumer: consumerName,
		Streams:  []string{streamName, ">"},
		Count:    1,
		Block:    blockTime,
	}

	streams, err := q.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("events: dequeue: %w", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, "", nil
	}

	msg := streams[0].Messages[0]
	dataStr, ok := msg.Values["data"].(string)
	if !ok {
		return nil, "", fmt.Errorf("events: malformed message: missing data field")
	}

	var ev CompletionEvent
	if err := json.Unmarshal([]byte(dataStr), &ev); err != nil {
		return nil, "", fmt.Errorf("events: unmarshal completion event: %w", err)
	}
	return &ev, msg.ID, nil
}

// Ack acknowledges successful processing of a message.
func (q *Queue) Ack(ctx context.Context, messageID string) error {
	return q.client.XAck(ctx, streamName, groupName, messageID).Err()
}

// ClaimStale reclaims messages that have been pending longer than
// minIdleTime, recovering work from a consumer that died mid-processing
// (grounded on the teacher's ClaimStalePireps).
func (q *Queue) ClaimStale(ctx context.Context, consumerName string, minIdleTime time.Duration) ([]CompletionEvent, []string, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: streamName,
		Group:  groupName,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("events: list pending: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil, nil
	}

	var staleIDs []string
	for _, p := range pending {
		if p.Idle >= minIdleTime {
			staleIDs = append(staleIDs, p.ID)
		}
	}
	if len(staleIDs) == 0 {
		return nil, nil, nil
	}

	messages, err := q.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   streamName,
		Group:    groupName,
		Consumer: consumerName,
		MinIdle:  minIdleTime,
		Messages: staleIDs,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("events: claim stale: %w", err)
	}

	var events []CompletionEvent
	var ids []string
	for _, msg := range messages {
		dataStr, ok := msg.Values["data"].(string)
		if !ok {
			continue
		}
		var ev CompletionEvent
		if err := json.Unmarshal([]byte(dataStr), &ev); err != nil {
			log.Printf("events: dropping unparseable claimed message %s: %v", msg.ID, err)
			continue
		}
		events = append(events, ev)
		ids = append(ids, msg.ID)
	}
	return events, ids, nil
}
