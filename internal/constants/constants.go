// Package constants holds shared defaults and bounds for the block copier.
package constants

import "time"

// Block size bounds, in bytes. The working block size must be a
// multiple of MinBlockSize.
const (
	MinBlockSize     = 512
	MaxBlockSize     = 16 * 1024 * 1024
	DefaultBlockSize = 1024 * 1024
)

// Queue depth bounds, applied symmetrically to both directions before the
// seekability clamp (a non-seekable side always runs at depth 1).
const (
	MinQueueSize     = 1
	MaxQueueSize     = 32
	DefaultQueueSize = 4
)

// AlignmentSize is the minimum buffer/offset alignment required when a
// descriptor was opened with O_DIRECT semantics.
const AlignmentSize = 512

// DefaultPollInterval is how long the scheduler blocks on the completion
// notifier between scans when nothing has signalled. Short enough that a
// missed wakeup does not stall the copy.
const DefaultPollInterval = 100 * time.Microsecond
