package aioblkcopy

import (
	"time"

	"github.com/nstaroverov/aioblkcopy/internal/constants"
	"github.com/nstaroverov/aioblkcopy/internal/interfaces"
)

// Config is the explicit, immutable configuration passed to Copy. It
// carries no global or process-wide state: every parameter the
// scheduler needs travels through this value.
type Config struct {
	// Source and Destination are filesystem paths. An empty Source
	// means stdin; an empty Destination means stdout. Either standard
	// stream is always classified non-seekable.
	Source      string
	Destination string

	// BlockSize is the unit of submission for both directions, in
	// bytes. Must be a multiple of 512 in [512, 16*1024*1024].
	BlockSize int

	// MaxQueueSize bounds outstanding operations per direction before
	// seekability clamping (a non-seekable side is always clamped to
	// 1 regardless of this value). Must be in [1, 32].
	MaxQueueSize int

	// DirectIOInput and DirectIOOutput request O_DIRECT semantics on
	// the corresponding side. Ignored (silently) on a non-seekable
	// side.
	DirectIOInput  bool
	DirectIOOutput bool

	// PollInterval overrides the scheduler's bounded-wait timeout.
	// Zero selects the default.
	PollInterval time.Duration

	// Logger and Observer are optional collaborators; nil disables the
	// corresponding behavior without error.
	Logger   interfaces.Logger
	Observer interfaces.Observer

	// UseThreadEngine forces the portable goroutine-based engine even
	// on platforms where the io_uring engine is available. Leave false
	// to let Copy pick the fastest engine the platform supports.
	UseThreadEngine bool
}

// Validate checks Config against the bounds the scheduler requires,
// returning a *Error with CodeInvalidConfig describing the first
// violation found.
func (c *Config) Validate() error {
	if c.BlockSize < constants.MinBlockSize || c.BlockSize > constants.MaxBlockSize {
		return NewError("validate config", CodeInvalidConfig,
			"block size out of range [512, 16MiB]")
	}
	if c.BlockSize%constants.MinBlockSize != 0 {
		return NewError("validate config", CodeInvalidConfig,
			"block size must be a multiple of 512")
	}
	if c.MaxQueueSize < constants.MinQueueSize || c.MaxQueueSize > constants.MaxQueueSize {
		return NewError("validate config", CodeInvalidConfig,
			"queue size out of range [1, 32]")
	}
	return nil
}

// withDefaults returns a copy of c with zero-value optional fields
// filled in.
func (c Config) withDefaults() Config {
	if c.BlockSize == 0 {
		c.BlockSize = constants.DefaultBlockSize
	}
	if c.MaxQueueSize == 0 {
		c.MaxQueueSize = constants.DefaultQueueSize
	}
	if c.PollInterval == 0 {
		c.PollInterval = constants.DefaultPollInterval
	}
	return c
}
