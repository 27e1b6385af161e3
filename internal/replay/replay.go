// Package replay runs a recorded command stream through the simulator
// offline. Input is one JSON command per line; output is one reply per
// command.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/service"
)

// maxLine is the longest accepted input line.
const maxLine = 4 << 20

// Dispatcher runs decoded commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) (service.Reply, error)
}

// Options tune a replay run.
type Options struct {
	// StopOnError aborts at the first rejected command instead of
	// recording the error and moving on.
	StopOnError bool
}

// Stats summarizes a replay run.
type Stats struct {
	Lines  int `json:"lines"`
	Failed int `json:"failed"`
}

type line struct {
	Line int `json:"line"`
	service.Reply
}

// Run reads commands from r until EOF and writes a reply line to w for each.
// Blank lines are skipped. Command errors are part of the output; Run only
// fails on I/O errors, cancellation or, with StopOnError, a rejected
// command.
func Run(ctx context.Context, r io.Reader, w io.Writer, d Dispatcher, opts Options, logger *slog.Logger) (Stats, error) {
	var stats Stats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	enc := json.NewEncoder(w)

	n := 0
	for sc.Scan() {
		n++
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		stats.Lines++

		out := line{Line: n}
		cmd, err := domain.ParseCommand(raw)
		if err == nil {
			out.Reply, err = d.Dispatch(ctx, cmd)
		} else {
			out.Reply = service.Reply{Results: []service.AccountResult{}, Error: err.Error()}
		}
		if err != nil {
			stats.Failed++
			logger.Debug("command rejected", slog.Int("line", n), slog.String("error", err.Error()))
		}

		if werr := enc.Encode(out); werr != nil {
			return stats, fmt.Errorf("writing reply for line %d: %w", n, werr)
		}
		if err != nil && opts.StopOnError {
			return stats, fmt.Errorf("line %d: %w", n, err)
		}
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("reading commands: %w", err)
	}

	logger.Info("replay finished", slog.Int("lines", stats.Lines), slog.Int("failed", stats.Failed))
	return stats, nil
}
