package sequence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

func TestNewAllocatorFromConfigurationDefaults(t *testing.T) {
	allocator, err := NewAllocatorFromConfiguration(newFaultyStore(), util.NewViperProxy())
	require.Nil(t, err)
	assert.Equal(t, seqstore.DefaultCollection, allocator.Collection())
	assert.Equal(t, DefaultMaxAttempts, allocator.maxAttempts)
	assert.True(t, allocator.durable)
	assert.Zero(t, allocator.backoffInitial)
}

func TestNewAllocatorFromConfiguration(t *testing.T) {
	config := util.NewViperProxy()
	config.Set("sequence.collection", "blog_entries")
	config.Set("sequence.max_attempts", 3)
	config.Set("sequence.backoff_initial_ms", 5)
	config.Set("sequence.backoff_max_ms", 50)
	config.Set("sequence.durable", false)

	store := newFaultyStore()
	store.insertFault = func(call int32) (bool, error) {
		return false, errInjected
	}
	allocator, err := NewAllocatorFromConfiguration(store, config)
	require.Nil(t, err)
	assert.Equal(t, "blog_entries", allocator.Collection())
	assert.False(t, allocator.durable)

	_, err = allocator.NextValue(context.Background(), "entries")
	assert.ErrorIs(t, err, ErrExhaustedRetries)
	assert.Equal(t, int32(3), store.insertCalls.Load())
}

func TestNewAllocatorFromConfigurationInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value interface{}
	}{
		{"sequence.collection", ""},
		{"sequence.max_attempts", 0},
		{"sequence.backoff_initial_ms", -1},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			config := util.NewViperProxy()
			config.Set(tt.key, tt.value)
			_, err := NewAllocatorFromConfiguration(newFaultyStore(), config)
			assert.NotNil(t, err)
		})
	}
}
