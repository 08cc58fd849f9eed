// Package transfer wraps a single request/response exchange over a
// stream-family transport with the retry, backoff, and cancellation policy
// every stream-oriented driver needs: corrupted or late frames are
// discarded and the whole exchange is resent, up to a fixed retry bound.
package transfer

import (
	"context"

	"github.com/tamzrod/divecomputer/framing"
	"github.com/tamzrod/divecomputer/status"
	"github.com/tamzrod/divecomputer/transport"
)

// MaxRetries is the number of additional attempts made after the first,
// corrupted or timed-out, exchange before giving up.
const MaxRetries = 4

// backoff is how long the transfer sleeps before purging input and
// resending, giving a slow or noisy device time to settle.
const backoff = 100

// Port is the subset of transport.Transport a Transfer needs: full-duplex
// byte I/O plus the two side effects (sleep, purge) the retry policy uses
// between attempts.
type Port interface {
	Write(ctx context.Context, p []byte) (int, status.Status)
	Read(ctx context.Context, p []byte) (int, status.Status)
	Purge(direction transport.Direction) status.Status
	Sleep(ms int)
}

// Logger receives a diagnostic message for every retried or aborted
// exchange. A nil Logger discards messages.
type Logger interface {
	Logf(format string, args ...any)
}

// Transfer sends cmd and reads exactly expectedLen bytes back, validating
// the answer as a stream-family envelope (leading '{', trailing '}', CRC
// match). Corrupted or timed-out answers are retried, up to MaxRetries
// times, after a short sleep and an input purge. A cooperative cancellation
// observed on ctx short-circuits the loop immediately, without issuing a
// transport read.
func Transfer(ctx context.Context, port Port, cmd []byte, expectedLen int, logger Logger) ([]byte, status.Status) {
	nretries := 0
	for {
		if ctx.Err() != nil {
			return nil, status.Cancelled
		}

		answer, st := exchange(ctx, port, cmd, expectedLen)
		if st == status.Success {
			return answer, status.Success
		}

		if st != status.Protocol && st != status.Timeout {
			return nil, st
		}

		if nretries >= MaxRetries {
			logf(logger, "transfer: giving up after %d retries: %v", nretries, st)
			return nil, st
		}

		logf(logger, "transfer: discarding corrupted frame (%v), retrying", st)
		nretries++
		port.Sleep(backoff)
		port.Purge(transport.DirectionInput)
	}
}

func exchange(ctx context.Context, port Port, cmd []byte, expectedLen int) ([]byte, status.Status) {
	if st := writeFull(ctx, port, cmd); st != status.Success {
		return nil, st
	}

	answer := make([]byte, expectedLen)
	if st := readFull(ctx, port, answer); st != status.Success {
		return nil, st
	}

	if _, st := framing.Decode(answer); st != status.Success {
		return nil, st
	}

	return answer, status.Success
}

func writeFull(ctx context.Context, port Port, p []byte) status.Status {
	written := 0
	for written < len(p) {
		n, st := port.Write(ctx, p[written:])
		written += n
		if st != status.Success {
			return st
		}
	}
	return status.Success
}

func readFull(ctx context.Context, port Port, p []byte) status.Status {
	read := 0
	for read < len(p) {
		n, st := port.Read(ctx, p[read:])
		read += n
		if st != status.Success {
			return st
		}
	}
	return status.Success
}

func logf(logger Logger, format string, args ...any) {
	if logger == nil {
		return
	}
	logger.Logf(format, args...)
}
