package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	RelayErrorBadInput       = "RELAY_BAD_INPUT"
	RelayErrorAuthFailed     = "RELAY_AUTH_FAILED"
	RelayErrorFetchFailed    = "RELAY_FETCH_FAILED"
	RelayErrorDispatchFailed = "RELAY_DISPATCH_FAILED"
	RelayErrorPersistFailed  = "RELAY_PERSIST_FAILED"
	RelayErrorRunLocked      = "RELAY_RUN_LOCKED"
	RelayErrorInternal       = "RELAY_INTERNAL_ERROR"
)

// ErrWatermarkRegression is returned by watermark stores when an advance
// would move the cursor backwards.
var ErrWatermarkRegression = errors.New("core: watermark would regress")

// ErrRunLeaseHeld is returned when a run lease for the account is already
// held by another in-flight run.
var ErrRunLeaseHeld = errors.New("core: run lease already held")

// NewAuthError marks a run-fatal authentication failure: both session
// resume and credential login were rejected.
func NewAuthError(message string, cause error) *goerrors.Error {
	return wrapRelayError(message, cause, goerrors.CategoryAuth, RelayErrorAuthFailed)
}

// NewFetchError marks a run-fatal feed retrieval failure; the watermark is
// untouched.
func NewFetchError(message string, cause error) *goerrors.Error {
	return wrapRelayError(message, cause, goerrors.CategoryOperation, RelayErrorFetchFailed)
}

// NewDispatchError marks a webhook delivery failure. It halts the dispatch
// loop but not the watermark persist.
func NewDispatchError(message string, cause error) *goerrors.Error {
	return wrapRelayError(message, cause, goerrors.CategoryOperation, RelayErrorDispatchFailed)
}

// NewPersistError marks a watermark write failure; the next run recovers
// from the last durable value.
func NewPersistError(message string, cause error) *goerrors.Error {
	return wrapRelayError(message, cause, goerrors.CategoryInternal, RelayErrorPersistFailed)
}

// NewLoadError marks a failure reading relay state (watermark or session
// lookup). No write was attempted, so it is kept out of the persist-failure
// taxonomy.
func NewLoadError(message string, cause error) *goerrors.Error {
	return wrapRelayError(message, cause, goerrors.CategoryInternal, RelayErrorInternal)
}

// NormalizeError coerces any error crossing the relay's public boundary
// into the RELAY_* envelope. Rich errors pass through with their code and
// text code filled in; sentinels and plain errors are classified. The
// original error stays reachable through errors.Is/As.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}
	return relayErrorMapper(err)
}

func wrapRelayError(message string, cause error, category goerrors.Category, textCode string) *goerrors.Error {
	if cause != nil {
		return ensureRelayErrorEnvelope(
			goerrors.Wrap(cause, category, message).WithTextCode(textCode),
		)
	}
	return newRelayError(message, category, textCode)
}

func relayErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureRelayErrorEnvelope(richErr)
	}

	if errors.Is(err, ErrRunLeaseHeld) {
		return ensureRelayErrorEnvelope(
			goerrors.Wrap(err, goerrors.CategoryConflict, "relay: run already in flight").
				WithTextCode(RelayErrorRunLocked),
		)
	}
	if errors.Is(err, ErrWatermarkRegression) {
		return ensureRelayErrorEnvelope(
			goerrors.Wrap(err, goerrors.CategoryConflict, "relay: watermark advance rejected").
				WithTextCode(RelayErrorPersistFailed),
		)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "login failed"), strings.Contains(msg, "unauthorized"), strings.Contains(msg, "authentication"):
		return classifyRelayError(err, goerrors.CategoryAuth, RelayErrorAuthFailed)
	case strings.Contains(msg, "fetch"), strings.Contains(msg, "feed"):
		return classifyRelayError(err, goerrors.CategoryOperation, RelayErrorFetchFailed)
	case strings.Contains(msg, "webhook"), strings.Contains(msg, "dispatch"):
		return classifyRelayError(err, goerrors.CategoryOperation, RelayErrorDispatchFailed)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return classifyRelayError(err, goerrors.CategoryBadInput, RelayErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureRelayErrorEnvelope(mapped)
}

// classifyRelayError envelopes a plain error while keeping it reachable
// through errors.Is/As.
func classifyRelayError(err error, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureRelayErrorEnvelope(
		goerrors.Wrap(err, category, err.Error()).
			WithTextCode(textCode),
	)
}

func newRelayError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureRelayErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureRelayErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = relayHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultRelayTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultRelayTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return RelayErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return RelayErrorAuthFailed
	case goerrors.CategoryConflict:
		return RelayErrorRunLocked
	case goerrors.CategoryOperation:
		return RelayErrorDispatchFailed
	default:
		return RelayErrorInternal
	}
}

func relayHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
