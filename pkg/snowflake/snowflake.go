// Package snowflake hands out process-wide, time-ordered int64 ids.
package snowflake

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	mu   sync.RWMutex
	node *snowflake.Node
)

// Init configures the generator for the given node id (0-1023).
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("init snowflake node %d: %w", nodeID, err)
	}
	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

// NextID returns the next id. Ids from one node strictly increase.
// If Init was never called, node 0 is used.
func NextID() int64 {
	mu.RLock()
	n := node
	mu.RUnlock()
	if n == nil {
		mu.Lock()
		if node == nil {
			node, _ = snowflake.NewNode(0)
		}
		n = node
		mu.Unlock()
	}
	return n.Generate().Int64()
}

// Time returns the millisecond timestamp embedded in id, in UTC.
// Ordering ids orders their times.
func Time(id int64) time.Time {
	return time.UnixMilli(snowflake.ID(id).Time()).UTC()
}
