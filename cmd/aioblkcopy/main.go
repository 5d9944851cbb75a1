package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/nstaroverov/aioblkcopy"
	"github.com/nstaroverov/aioblkcopy/internal/logging"
)

func main() {
	var (
		input        = flag.String("i", "", "input file (default: stdin)")
		output       = flag.String("o", "", "output file (default: stdout)")
		blockSizeStr = flag.String("b", "1M", "block size in bytes, with optional K or M suffix, multiple of 512")
		queueSize    = flag.Int("q", 4, "maximum queue size per direction, 1-32")
		withoutDIIn  = flag.Bool("without-directio-input", false, "do not use direct io for input file")
		withoutDIOut = flag.Bool("without-directio-output", false, "do not use direct io for output file")
		verbose      = flag.Bool("v", false, "verbose logging")
	)
	flag.Usage = usage
	flag.Parse()

	blockSize, err := parseBlockSize(*blockSizeStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *queueSize < 1 || *queueSize > 32 {
		fmt.Fprintln(os.Stderr, "maximum queue size must be between 1 and 32")
		os.Exit(1)
	}

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	cfg := aioblkcopy.Config{
		Source:         *input,
		Destination:    *output,
		BlockSize:      blockSize,
		MaxQueueSize:   *queueSize,
		DirectIOInput:  !*withoutDIIn,
		DirectIOOutput: !*withoutDIOut,
		Logger:         logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()
	defer cancel()

	summary, err := aioblkcopy.Copy(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		fmt.Fprintln(os.Stderr, summary.String())
		os.Exit(2)
	}

	fmt.Fprintln(os.Stderr, summary.String())
}

// parseBlockSize parses a decimal byte count with an optional K or M
// suffix (matching the original tool's -b flag), validating it is a
// positive multiple of 512 no larger than 16 MiB.
func parseBlockSize(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("block size must not be empty")
	}
	mult := 1
	numStr := s
	switch s[len(s)-1] {
	case 'K', 'k':
		mult = 1024
		numStr = s[:len(s)-1]
	case 'M', 'm':
		mult = 1024 * 1024
		numStr = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block size %q: %w", s, err)
	}
	size := n * int64(mult)
	if size <= 0 || size%512 != 0 {
		return 0, fmt.Errorf("block size must be a positive multiple of 512")
	}
	if size > 16*1024*1024 {
		return 0, fmt.Errorf("block size too big, must be at most 16 megabytes")
	}
	return int(size), nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: aioblkcopy [options]

Copies bytes from an input to an output using a bounded pool of
concurrent reads and writes.

Options:
  -i FILE                         input file (default: stdin)
  -o FILE                         output file (default: stdout)
  -b SIZE                         block size, e.g. 512, 64K, 1M (default 1M)
  -q N                            maximum queue size per direction, 1-32 (default 4)
  --without-directio-input        do not use direct io for input file
  --without-directio-output       do not use direct io for output file
  -v                               verbose logging
`)
}
