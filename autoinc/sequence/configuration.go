package sequence

import (
	"fmt"
	"time"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

// NewAllocatorFromConfiguration reads the [sequence] section of sequence.toml.
func NewAllocatorFromConfiguration(store seqstore.SequenceStore, configuration util.Configuration) (*Allocator, error) {
	configuration.SetDefault("sequence.collection", seqstore.DefaultCollection)
	configuration.SetDefault("sequence.max_attempts", DefaultMaxAttempts)
	configuration.SetDefault("sequence.backoff_initial_ms", 0)
	configuration.SetDefault("sequence.backoff_max_ms", 0)
	configuration.SetDefault("sequence.durable", true)

	collection := configuration.GetString("sequence.collection")
	if collection == "" {
		return nil, fmt.Errorf("sequence.collection is empty")
	}
	maxAttempts := configuration.GetInt("sequence.max_attempts")
	if maxAttempts < 1 {
		return nil, fmt.Errorf("sequence.max_attempts %d should be at least 1", maxAttempts)
	}
	backoffInitial := time.Duration(configuration.GetInt("sequence.backoff_initial_ms")) * time.Millisecond
	backoffMax := time.Duration(configuration.GetInt("sequence.backoff_max_ms")) * time.Millisecond
	if backoffInitial < 0 || backoffMax < 0 {
		return nil, fmt.Errorf("sequence backoff should not be negative")
	}

	return NewAllocator(store,
		WithCollection(collection),
		WithMaxAttempts(maxAttempts),
		WithBackoff(backoffInitial, backoffMax),
		WithDurable(configuration.GetBool("sequence.durable")),
	), nil
}
