package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSQueue implements Queue interface using NATS JetStream
type NATSQueue struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	group         string
	subscriptions map[string]*nats.Subscription
	mu            sync.RWMutex
}

// newNATSQueue creates a new NATS queue instance with JetStream enabled.
// group names the durable consumer; when empty, a name is derived from
// the subject at subscribe time.
func newNATSQueue(url, group string) (*NATSQueue, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSQueue{
		conn:          conn,
		js:            js,
		group:         group,
		subscriptions: make(map[string]*nats.Subscription),
	}, nil
}

// newNATSQueueWithConn creates a new NATS queue instance with existing connection (used in tests)
func newNATSQueueWithConn(conn *nats.Conn, group string) (*NATSQueue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSQueue{
		conn:          conn,
		js:            js,
		group:         group,
		subscriptions: make(map[string]*nats.Subscription),
	}, nil
}

// Publish publishes a message to a subject using JetStream
func (q *NATSQueue) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := q.js.PublishAsync(subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// PublishBatch publishes multiple messages asynchronously and waits for all to
// complete. All messages are queued immediately and acknowledged in a single
// round-trip, so this is cheaper than repeated Publish calls.
func (q *NATSQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	futures := make([]nats.PubAckFuture, 0, len(messages))

	for _, msg := range messages {
		future, err := q.js.PublishAsync(msg.Subject, msg.Data)
		if err != nil {
			// If we fail to queue a message, continue with others
			continue
		}
		futures = append(futures, future)
	}

	select {
	case <-q.js.PublishAsyncComplete():
		// All messages acknowledged
	case <-ctx.Done():
		return len(futures), fmt.Errorf("timeout waiting for batch publish: %w", ctx.Err())
	}

	successCount := 0
	for _, future := range futures {
		select {
		case <-future.Ok():
			successCount++
		case <-future.Err():
			// Individual failure, don't fail the entire batch
		default:
			// Still pending, count as success since we got PublishAsyncComplete
			successCount++
		}
	}

	return successCount, nil
}

// Subscribe subscribes to a subject with a message handler using a JetStream
// durable consumer. Messages are persisted, redelivered on NAK and flow
// controlled at 100 in-flight.
func (q *NATSQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	// Create or get stream for this subject
	streamName := "driftwatch-" + sanitizeConsumerName(subject)
	_, err := q.js.StreamInfo(streamName)
	if err != nil {
		_, err = q.js.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{subject},
			Storage:  nats.FileStorage,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream for subject %s: %w", subject, err)
		}
	}

	// Consumer names can only contain A-Z, a-z, 0-9, dash and underscore
	durableName := "consumer-" + sanitizeConsumerName(subject)
	if q.group != "" {
		durableName = sanitizeConsumerName(q.group)
	}

	sub, err := q.js.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			// NAK so the message can be redelivered
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(durableName),    // Durable consumer - survives restarts
		nats.ManualAck(),             // Require explicit ACK
		nats.MaxAckPending(100),      // Max 100 unacked messages (flow control)
		nats.AckWait(30*time.Second), // Redeliver after 30s if not acked
		nats.MaxDeliver(3),           // Max 3 delivery attempts
		nats.DeliverAll(),            // Start from beginning (replay all messages)
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	q.subscriptions[subject] = sub
	return nil
}

// Unsubscribe unsubscribes from a subject
func (q *NATSQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	sub, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}

	delete(q.subscriptions, subject)
	return nil
}

// Close closes the NATS connection and all subscriptions
func (q *NATSQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, sub := range q.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			continue
		}
		delete(q.subscriptions, subject)
	}

	q.conn.Close()
	return nil
}

// sanitizeConsumerName replaces characters that are invalid in stream and
// consumer names (anything outside A-Z, a-z, 0-9, dash, underscore).
func sanitizeConsumerName(subject string) string {
	result := make([]byte, 0, len(subject))
	for i := 0; i < len(subject); i++ {
		c := subject[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
