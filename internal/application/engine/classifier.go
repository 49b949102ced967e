package engine

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/drawsync/pipeline/internal/domain"
)

// ErrorClass is one of the seven buckets the pipeline sorts every
// failure into before a retry loop decides whether to run again.
type ErrorClass string

const (
	// ClassTransientTransport is a network/HTTP/DB connectivity failure
	// expected to clear on its own: dial timeout, connection reset,
	// 5xx from a source, temporary DNS failure.
	ClassTransientTransport ErrorClass = "transient_transport"

	// ClassTerminalTransport is a transport failure that retrying will
	// not fix within this process's lifetime: 4xx other than 429, TLS
	// certificate failure, context cancellation.
	ClassTerminalTransport ErrorClass = "terminal_transport"

	// ClassDataInvariant is a parsed response that violates a domain
	// invariant (digit sum mismatch, out-of-range digit, malformed
	// issue) -- never retryable, the draw is dropped.
	ClassDataInvariant ErrorClass = "data_invariant"

	// ClassIdempotentDuplicate is a unique-violation on an
	// already-committed issue -- treated as success, never retried.
	ClassIdempotentDuplicate ErrorClass = "idempotent_duplicate"

	// ClassParseFailure is a poller response or an LLM reply that
	// couldn't be parsed into the expected shape at all.
	ClassParseFailure ErrorClass = "parse_failure"

	// ClassStatefulInvariant is a lock-busy or stale-issue rejection
	// from the dedup/lock layer -- expected under concurrent sources,
	// never retried.
	ClassStatefulInvariant ErrorClass = "stateful_invariant"

	// ClassFatalConfiguration means the process cannot proceed at all:
	// bad DSN, missing API key, migration failure. The caller should
	// abort startup rather than retry.
	ClassFatalConfiguration ErrorClass = "fatal_configuration"
)

// Classify sorts err into one of the seven buckets above. It is the
// single place that decides retryability; call sites check the
// result's Retryable() in their own retry loops rather than
// reimplementing their own heuristics.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassDataInvariant
	}

	switch {
	case errors.Is(err, domain.ErrDuplicateIssue):
		return ClassIdempotentDuplicate
	case errors.Is(err, domain.ErrLockBusy), errors.Is(err, domain.ErrStale):
		return ClassStatefulInvariant
	case errors.Is(err, domain.ErrParseGrammar):
		return ClassParseFailure
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ClassDataInvariant
	}

	if errors.Is(err, context.Canceled) {
		return ClassTerminalTransport
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransientTransport
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTransientTransport
		}
		return ClassTransientTransport
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "eof"),
		strings.Contains(msg, "too many connections"),
		strings.Contains(msg, "status 5"),
		strings.Contains(msg, "status code: 5"),
		strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"):
		return ClassTransientTransport
	case strings.Contains(msg, "unmarshal"),
		strings.Contains(msg, "unexpected end of json"),
		strings.Contains(msg, "no such table"),
		strings.Contains(msg, "selector not found"):
		return ClassParseFailure
	case strings.Contains(msg, "dsn"),
		strings.Contains(msg, "api key"),
		strings.Contains(msg, "migration"):
		return ClassFatalConfiguration
	}

	return ClassTerminalTransport
}

// Retryable reports whether the pipeline's retry policy should attempt
// this class again. Only transient transport failures are retried;
// everything else either succeeded already (idempotent duplicate),
// cannot succeed by retrying (data/stateful invariant, parse failure,
// terminal transport), or needs operator intervention (fatal config).
func (c ErrorClass) Retryable() bool {
	return c == ClassTransientTransport
}
