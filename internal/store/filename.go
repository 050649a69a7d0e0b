package store

import (
	"crypto/rand"
	"fmt"
	"sync/atomic"
	"time"
)

// ext is the suffix for persisted message files. Only files carrying it
// are enumerated, so partial or foreign files in the spool are ignored.
const ext = ".eml"

// deliveryCounter ensures unique filenames even when the random source
// fails within the same second.
var deliveryCounter uint64

// generateFilename creates a unique spool filename. The UTC timestamp
// prefix keeps lexical order equal to delivery order; the random suffix
// guarantees no collision for deliveries within the same clock tick.
// Format: 20060102150405_<random>.eml
func generateFilename(now time.Time) string {
	stamp := now.UTC().Format("20060102150405")

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		counter := atomic.AddUint64(&deliveryCounter, 1)
		return fmt.Sprintf("%s_%09d.%d%s", stamp, now.Nanosecond()/1000, counter, ext)
	}

	return fmt.Sprintf("%s_%x%s", stamp, randomBytes, ext)
}
