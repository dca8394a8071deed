// Package sequence hands out increasing integer ids per named sequence.
//
// Every allocation reads the latest record of the sequence, inserts a record
// with the next value and, once that insert won and is still the latest,
// deletes the superseded record. The unique index on (name, value) in the
// store is the only coordination between callers, so any number of processes
// may allocate from the same store. A value is never handed out twice; a value
// may be skipped when an insert succeeded but its acknowledgement was lost.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/JuhQ/MongoHelper/autoinc/glog"
	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/stats"
)

const (
	DefaultMaxAttempts = 100
)

type Allocator struct {
	store          seqstore.SequenceStore
	collection     string
	maxAttempts    int
	backoffInitial time.Duration
	backoffMax     time.Duration
	durable        bool

	indexEnsured atomic.Bool
}

type Option func(*Allocator)

// WithCollection sets the collection holding the records. Defaults to seqstore.DefaultCollection.
func WithCollection(collection string) Option {
	return func(a *Allocator) {
		a.collection = collection
	}
}

// WithMaxAttempts bounds the attempts of one allocation. Values below 1 keep the default.
func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		if n >= 1 {
			a.maxAttempts = n
		}
	}
}

// WithBackoff waits between attempts, growing exponentially with jitter from
// initial up to max. A zero initial interval retries immediately.
func WithBackoff(initial, max time.Duration) Option {
	return func(a *Allocator) {
		a.backoffInitial = initial
		a.backoffMax = max
	}
}

func WithDurable(durable bool) Option {
	return func(a *Allocator) {
		a.durable = durable
	}
}

func NewAllocator(store seqstore.SequenceStore, opts ...Option) *Allocator {
	a := &Allocator{
		store:       store,
		collection:  seqstore.DefaultCollection,
		maxAttempts: DefaultMaxAttempts,
		durable:     true,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.backoffMax < a.backoffInitial {
		a.backoffMax = a.backoffInitial
	}
	return a
}

func (a *Allocator) Collection() string {
	return a.collection
}

// NextValue allocates the next value of the sequence, starting at 1.
func (a *Allocator) NextValue(ctx context.Context, name string) (int64, error) {
	return a.Next(ctx, name, 0)
}

// Next allocates the next value of the named sequence. A sequence without
// records starts at initialValue+1.
//
// The error wraps ErrExhaustedRetries once every attempt failed, or is the
// context error if ctx is done first.
func (a *Allocator) Next(ctx context.Context, name string, initialValue int64) (value int64, err error) {
	if name == "" {
		return 0, ErrEmptySequenceName
	}

	start := time.Now()
	attempts := 0
	var reason string

	value, err = backoff.RetryNotifyWithData(
		func() (int64, error) {
			if err := ctx.Err(); err != nil {
				return 0, backoff.Permanent(err)
			}
			attempts++
			v, failure, attemptErr := a.attempt(ctx, name, initialValue)
			reason = failure
			return v, attemptErr
		},
		backoff.WithContext(backoff.WithMaxRetries(a.newBackOff(), uint64(a.maxAttempts-1)), ctx),
		func(err error, next time.Duration) {
			stats.SequenceRetryCounter.WithLabelValues(reason).Inc()
			glog.V(1).InfofCtx(ctx, "allocate %s attempt %d failed (%s), retry in %v: %v", name, attempts, reason, next, err)
		},
	)

	stats.SequenceAttemptHistogram.Observe(float64(attempts))
	stats.SequenceAllocateHistogram.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		stats.SequenceAllocateCounter.WithLabelValues("ok").Inc()
		glog.V(2).InfofCtx(ctx, "allocated %s = %d after %d attempts", name, value, attempts)
		return value, nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		stats.SequenceAllocateCounter.WithLabelValues("canceled").Inc()
		return 0, err
	case errors.Is(err, ErrSequenceOverflow):
		stats.SequenceAllocateCounter.WithLabelValues("overflow").Inc()
		return 0, err
	}

	stats.SequenceRetryCounter.WithLabelValues(reason).Inc()
	stats.SequenceAllocateCounter.WithLabelValues("exhausted").Inc()
	glog.WarningfCtx(ctx, "allocate %s: giving up after %d attempts: %v", name, attempts, err)
	return 0, &ExhaustedRetriesError{Name: name, Attempts: attempts, Err: err}
}

func (a *Allocator) newBackOff() backoff.BackOff {
	if a.backoffInitial <= 0 {
		return &backoff.ZeroBackOff{}
	}
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = a.backoffInitial
	exponentialBackoff.MaxInterval = a.backoffMax
	exponentialBackoff.MaxElapsedTime = 0
	return exponentialBackoff
}

// attempt runs one read-insert-cleanup round. reason labels a failure for metrics.
func (a *Allocator) attempt(ctx context.Context, name string, initialValue int64) (value int64, reason string, err error) {

	if !a.indexEnsured.Load() {
		if err = a.store.EnsureUniqueIndex(ctx, a.collection); err != nil {
			return 0, "index", err
		}
		a.indexEnsured.Store(true)
	}

	records, err := a.store.FindLatest(ctx, a.collection, name, 1)
	if err != nil {
		return 0, "read", err
	}

	previous, previousId := initialValue, ""
	if len(records) > 0 {
		previous, previousId = records[0].Value, records[0].Id
	}
	if previous == math.MaxInt64 {
		return 0, "overflow", backoff.Permanent(fmt.Errorf("allocate %s: %w", name, ErrSequenceOverflow))
	}

	record := &seqstore.SequenceRecord{
		Name:  name,
		Value: previous + 1,
	}
	if err = a.store.InsertRecord(ctx, a.collection, record, a.durable); err != nil {
		if errors.Is(err, seqstore.ErrDuplicateKey) {
			return 0, "duplicate", err
		}
		return 0, "insert", err
	}

	// A record is deleted only after a higher one exists, so the maximum never
	// decreases. If it is above our value now, the value may have been handed
	// out and cleaned up while we were reading, and our insert recreated it.
	latest, err := a.store.FindLatest(ctx, a.collection, name, 1)
	if err != nil {
		return 0, "read", err
	}
	if len(latest) > 0 && latest[0].Value > record.Value {
		a.cleanup(ctx, name, record.Id)
		return 0, "superseded", fmt.Errorf("allocate %s: %d superseded by %d", name, record.Value, latest[0].Value)
	}

	if previousId != "" {
		a.cleanup(ctx, name, previousId)
	}
	return record.Value, "", nil
}

// cleanup deletes a superseded record. A leftover record only costs space,
// since reads always pick the highest value.
func (a *Allocator) cleanup(ctx context.Context, name, recordId string) {
	err := a.store.DeleteRecord(context.WithoutCancel(ctx), a.collection, recordId)
	if err == nil || errors.Is(err, seqstore.ErrNotFound) {
		return
	}
	stats.SequenceCleanupFailureCounter.Inc()
	glog.V(1).InfofCtx(ctx, "cleanup %s record %s: %v", name, recordId, err)
}

// Peek returns the highest allocated value of the sequence without allocating.
// found is false if the sequence has no records.
func (a *Allocator) Peek(ctx context.Context, name string) (value int64, found bool, err error) {
	if name == "" {
		return 0, false, ErrEmptySequenceName
	}
	records, err := a.store.FindLatest(ctx, a.collection, name, 1)
	if err != nil {
		return 0, false, fmt.Errorf("peek %s: %w", name, err)
	}
	if len(records) == 0 {
		return 0, false, nil
	}
	return records[0].Value, true, nil
}

// Counter is an Allocator bound to one sequence name.
type Counter struct {
	allocator    *Allocator
	name         string
	initialValue int64
}

func (a *Allocator) For(name string) *Counter {
	return &Counter{allocator: a, name: name}
}

// StartingAfter makes a fresh sequence begin at initialValue+1.
func (c *Counter) StartingAfter(initialValue int64) *Counter {
	return &Counter{allocator: c.allocator, name: c.name, initialValue: initialValue}
}

func (c *Counter) Name() string {
	return c.name
}

func (c *Counter) Next(ctx context.Context) (int64, error) {
	return c.allocator.Next(ctx, c.name, c.initialValue)
}

func (c *Counter) Peek(ctx context.Context) (int64, bool, error) {
	return c.allocator.Peek(ctx, c.name)
}
