package utils

import "time"

// HTTP Handler Timeouts
const (
	// DefaultRequestTimeout is the default timeout for HTTP requests
	DefaultRequestTimeout = 30 * time.Second

	// PublishTimeout is the timeout for publishing a single queue message
	PublishTimeout = 5 * time.Second
)

// Retry and Backoff Constants
const (
	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the default backoff duration between retries
	DefaultRetryBackoff = 100 * time.Millisecond
)

// Batch Size Constants
const (
	// MaxBatchSize is the maximum number of samples accepted per batch request
	MaxBatchSize = 10000
)

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue (default)
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)
