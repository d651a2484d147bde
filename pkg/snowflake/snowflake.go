// Package snowflake mints unique, time-ordered 64-bit identifiers without
// external coordination. An id is composed of a millisecond timestamp delta
// from a fixed epoch, a deployment-assigned worker id and a per-millisecond
// sequence counter:
//
//	[timestamp delta: 41+ bits][worker id: 10 bits][sequence: 12 bits]
//
// Identifiers exceed the 53-bit safe range of float-backed JSON numbers, so
// they are always produced and transported as decimal strings. Consumers must
// never route them through a floating-point type.
package snowflake

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Epoch is the zero point of the timestamp component, in Unix milliseconds
// (2025-01-01T00:00:00Z). Changing it after ids have been issued breaks the
// ordering guarantee for existing data.
const Epoch int64 = 1735689600000

const (
	workerIDBits = 10
	sequenceBits = 12

	// MaxWorkerID is the highest worker id a deployment may assign.
	MaxWorkerID = -1 ^ (-1 << workerIDBits) // 1023

	maxSequence = -1 ^ (-1 << sequenceBits) // 4095

	workerIDShift  = sequenceBits
	timestampShift = workerIDBits + sequenceBits
)

// Generator issues unique identifiers for a single worker. It is safe for
// concurrent use; all state is guarded by one mutex and each call holds it
// for at most one clock tick.
//
// Worker id uniqueness across processes is a deployment invariant: two live
// generators sharing a worker id silently break global uniqueness. This is
// not verified at runtime.
type Generator struct {
	mu            sync.Mutex
	workerID      int64
	lastTimestamp int64
	sequence      int64

	now func() int64
}

// New constructs a Generator for the given worker id in [0, MaxWorkerID].
func New(workerID int64) (*Generator, error) {
	if workerID < 0 || workerID > MaxWorkerID {
		return nil, fmt.Errorf("snowflake: worker id %d out of range [0, %d]", workerID, MaxWorkerID)
	}
	return &Generator{
		workerID:      workerID,
		lastTimestamp: -1,
		now:           nowMillis,
	}, nil
}

// NextID returns the next identifier as a decimal string. It never fails.
//
// When the wall clock moves backward the generator clamps to the last
// observed millisecond instead of erroring, trading sequence pressure while
// the clock lags for a monotonic, error-free contract. Sustained demand above
// 4096 ids within one millisecond spin-waits until the clock advances.
func (g *Generator) NextID() string {
	return strconv.FormatInt(g.next(), 10)
}

func (g *Generator) next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now()
	if ts < g.lastTimestamp {
		ts = g.lastTimestamp
	}

	if ts == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			for ts <= g.lastTimestamp {
				ts = g.now()
			}
		}
	} else {
		g.sequence = 0
	}

	g.lastTimestamp = ts

	return (ts-Epoch)<<timestampShift | g.workerID<<workerIDShift | g.sequence
}

// WorkerID returns the configured worker id.
func (g *Generator) WorkerID() int64 {
	return g.workerID
}

// Parts holds the decomposed fields of an identifier.
type Parts struct {
	Timestamp time.Time
	WorkerID  int64
	Sequence  int64
}

// Decompose extracts the timestamp, worker id and sequence from a decimal
// string identifier. Intended for diagnostics; parsing stays in 64-bit
// integer arithmetic throughout.
func Decompose(id string) (Parts, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Parts{}, fmt.Errorf("snowflake: parse id %q: %w", id, err)
	}
	ms := (n >> timestampShift) + Epoch
	return Parts{
		Timestamp: time.UnixMilli(ms).UTC(),
		WorkerID:  (n >> workerIDShift) & MaxWorkerID,
		Sequence:  n & maxSequence,
	}, nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
