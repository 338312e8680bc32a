package ids

import (
	"sync"
	"time"
)

// Generator supplies unique, roughly time-ordered identifiers for
// purchases and transactions.
type Generator interface {
	Next() int64
}

const (
	nodeBits = 10
	seqBits  = 12
	nodeMax  = (1 << nodeBits) - 1
	seqMask  = (1 << seqBits) - 1
)

// customEpoch is 2024-01-01T00:00:00Z in Unix milliseconds.
const customEpoch int64 = 1704067200000

// Snowflake packs a millisecond timestamp, a node id and a sequence
// counter into an int64, so ids sort by creation time.
type Snowflake struct {
	mu     sync.Mutex
	node   int64
	lastMs int64
	seq    int64
}

func NewSnowflake(node int64) *Snowflake {
	if node < 0 || node > nodeMax {
		node = node & nodeMax
	}
	return &Snowflake{node: node}
}

func (s *Snowflake) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < s.lastMs {
		// Clock went backwards; hold the last timestamp and keep
		// incrementing the sequence until real time catches up.
		now = s.lastMs
	}

	if now == s.lastMs {
		s.seq = (s.seq + 1) & seqMask
		if s.seq == 0 {
			for now <= s.lastMs {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.seq = 0
	}
	s.lastMs = now

	return (now-customEpoch)<<(nodeBits+seqBits) | s.node<<seqBits | s.seq
}
