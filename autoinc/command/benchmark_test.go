package command

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore/memory"
	"github.com/JuhQ/MongoHelper/autoinc/sequence"
)

func TestBenchmarkAllocator(t *testing.T) {
	store := memory.NewMemoryStore()
	allocators := make(map[*sequence.Allocator]bool)
	newAllocator := func() *sequence.Allocator {
		allocator := sequence.NewAllocator(store)
		allocators[allocator] = true
		return allocator
	}

	result, err := benchmarkAllocator(context.Background(), newAllocator, "benchmark", 4, 200)
	require.Nil(t, err)
	assert.Len(t, allocators, 4, "one allocator per worker")
	assert.Len(t, result.values, 200)
	assert.Len(t, result.latencies, 200)
	assert.Zero(t, result.failed)
	assert.Empty(t, result.duplicates())
}

func TestBenchmarkResultDuplicates(t *testing.T) {
	result := &benchmarkResult{values: []int64{1, 2, 3, 2, 5, 5, 5}}
	assert.Equal(t, []int64{2, 5, 5}, result.duplicates())
}

func TestBenchmarkResultPrintStats(t *testing.T) {
	result := &benchmarkResult{
		values:    []int64{1, 2, 4},
		latencies: []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond},
		failed:    1,
		taken:     time.Second,
	}
	var buf bytes.Buffer
	result.printStats(&buf, 2)

	out := buf.String()
	assert.Contains(t, out, "Completed allocations:  3")
	assert.Contains(t, out, "Failed allocations:     1")
	assert.Contains(t, out, "Value range:            1 - 4, 1 skipped")
	assert.Contains(t, out, "100%      3.0 ms")
}
