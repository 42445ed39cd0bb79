// Package kerrors defines KyroQL's closed error taxonomy: validation,
// execution, transport, and internal errors, each a fixed set of variants
// with a retryability classification. Callers pattern-match with errors.As
// against the *Kind types below rather than comparing error strings.
package kerrors

import (
	"errors"
	"fmt"
)

// Kind groups an error into one of the four top-level taxonomy buckets.
type Kind string

const (
	KindValidation Kind = "validation"
	KindExecution  Kind = "execution"
	KindTransport  Kind = "transport"
	KindInternal   Kind = "internal"
)

// ── Validation ───────────────────────────────────────────────────────────

// ValidationError is the closed set of rejections raised while building or
// deserializing IR and domain values. It never reaches durable state.
type ValidationError struct {
	Variant string // discriminator, e.g. "confidence_out_of_range"
	Field   string
	Reason  string
	Value   float64
	HasValue bool
	Max     int
	Actual  int
	Expected int
}

func (e *ValidationError) Error() string {
	switch e.Variant {
	case "confidence_out_of_range":
		return fmt.Sprintf("confidence out of range: %v", e.Value)
	case "invalid_time_range":
		return "invalid time range: from must be <= to"
	case "empty_entity_name":
		return "entity name must not be empty"
	case "empty_predicate":
		return "predicate must not be empty"
	case "missing_field":
		return fmt.Sprintf("missing field: %s", e.Field)
	case "field_too_long":
		return fmt.Sprintf("field %s too long: max %d", e.Field, e.Max)
	case "invalid_embedding_dimension":
		return fmt.Sprintf("invalid embedding dimension: got %d, expected %d", e.Actual, e.Expected)
	case "invalid_pattern_rule":
		return fmt.Sprintf("invalid pattern rule: %s", e.Reason)
	case "invalid_conflict_resolution_policy":
		return fmt.Sprintf("invalid conflict resolution policy: %s", e.Reason)
	case "invalid_simulation_constraints":
		return fmt.Sprintf("invalid simulation constraints: %s", e.Reason)
	case "invalid_field":
		return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
	default:
		return fmt.Sprintf("validation error (%s): %s", e.Variant, e.Reason)
	}
}

func (e *ValidationError) Kind() Kind       { return KindValidation }
func (e *ValidationError) IsRetryable() bool { return false }

func ConfidenceOutOfRange(value float64) error {
	return &ValidationError{Variant: "confidence_out_of_range", Value: value, HasValue: true}
}

func InvalidTimeRange() error {
	return &ValidationError{Variant: "invalid_time_range"}
}

func EmptyEntityName() error {
	return &ValidationError{Variant: "empty_entity_name"}
}

func EmptyPredicate() error {
	return &ValidationError{Variant: "empty_predicate"}
}

func MissingField(field string) error {
	return &ValidationError{Variant: "missing_field", Field: field}
}

func FieldTooLong(field string, max int) error {
	return &ValidationError{Variant: "field_too_long", Field: field, Max: max}
}

func InvalidEmbeddingDimension(actual, expected int) error {
	return &ValidationError{Variant: "invalid_embedding_dimension", Actual: actual, Expected: expected}
}

func InvalidPatternRule(reason string) error {
	return &ValidationError{Variant: "invalid_pattern_rule", Reason: reason}
}

func InvalidConflictResolutionPolicy(reason string) error {
	return &ValidationError{Variant: "invalid_conflict_resolution_policy", Reason: reason}
}

func InvalidSimulationConstraints(reason string) error {
	return &ValidationError{Variant: "invalid_simulation_constraints", Reason: reason}
}

func InvalidField(field, reason string) error {
	return &ValidationError{Variant: "invalid_field", Field: field, Reason: reason}
}

// ── Execution ────────────────────────────────────────────────────────────

// ExecutionError is the closed set of failures raised while applying a
// validated operation against storage or the monitor subsystem.
type ExecutionError struct {
	Variant       string
	ID            string
	LimitType     string
	Max           int
	Actual        int
	DurationMS    int64
	Message       string
	Reason        string
	Name          string
	Path          string
}

func (e *ExecutionError) Error() string {
	switch e.Variant {
	case "entity_not_found":
		return fmt.Sprintf("entity not found: %s", e.ID)
	case "belief_not_found":
		return fmt.Sprintf("belief not found: %s", e.ID)
	case "simulation_not_found":
		return fmt.Sprintf("simulation not found: %s", e.ID)
	case "simulation_limit_exceeded":
		return fmt.Sprintf("simulation limit exceeded: %s (max %d, actual %d)", e.LimitType, e.Max, e.Actual)
	case "timeout":
		return fmt.Sprintf("timeout after %dms", e.DurationMS)
	case "storage":
		return fmt.Sprintf("storage error: %s", e.Message)
	case "index":
		return fmt.Sprintf("index error: %s", e.Message)
	case "conflict_resolution_failed":
		return fmt.Sprintf("conflict resolution failed: %s", e.Reason)
	case "pattern_violation":
		return fmt.Sprintf("pattern violation (%s): %s", e.Name, e.Reason)
	case "disconnected":
		return fmt.Sprintf("disconnected: %s", e.Path)
	default:
		return fmt.Sprintf("execution error (%s)", e.Variant)
	}
}

func (e *ExecutionError) Kind() Kind { return KindExecution }
func (e *ExecutionError) IsRetryable() bool {
	return e.Variant == "timeout"
}

func EntityNotFound(id string) error       { return &ExecutionError{Variant: "entity_not_found", ID: id} }
func BeliefNotFound(id string) error       { return &ExecutionError{Variant: "belief_not_found", ID: id} }
func SimulationNotFound(id string) error   { return &ExecutionError{Variant: "simulation_not_found", ID: id} }

func SimulationLimitExceeded(limitType string, max, actual int) error {
	return &ExecutionError{Variant: "simulation_limit_exceeded", LimitType: limitType, Max: max, Actual: actual}
}

func Timeout(durationMS int64) error {
	return &ExecutionError{Variant: "timeout", DurationMS: durationMS}
}

func Storage(message string) error { return &ExecutionError{Variant: "storage", Message: message} }
func Index(message string) error   { return &ExecutionError{Variant: "index", Message: message} }

func ConflictResolutionFailed(reason string) error {
	return &ExecutionError{Variant: "conflict_resolution_failed", Reason: reason}
}

func PatternViolation(name, reason string) error {
	return &ExecutionError{Variant: "pattern_violation", Name: name, Reason: reason}
}

func Disconnected(path string) error {
	return &ExecutionError{Variant: "disconnected", Path: path}
}

// ── Transport ────────────────────────────────────────────────────────────

// TransportError is the closed set of wire-level failures. Only
// ConnectionFailed and ServerError with code >= 500 are retryable.
type TransportError struct {
	Variant string
	Code    int
	Message string
}

func (e *TransportError) Error() string {
	switch e.Variant {
	case "connection_failed":
		return "connection failed"
	case "serialization_failed":
		return "serialization failed"
	case "deserialization_failed":
		return "deserialization failed"
	case "server_error":
		return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
	default:
		return fmt.Sprintf("transport error (%s)", e.Variant)
	}
}

func (e *TransportError) Kind() Kind { return KindTransport }
func (e *TransportError) IsRetryable() bool {
	switch e.Variant {
	case "connection_failed":
		return true
	case "server_error":
		return e.Code >= 500
	default:
		return false
	}
}

func ConnectionFailed() error      { return &TransportError{Variant: "connection_failed"} }
func SerializationFailed() error   { return &TransportError{Variant: "serialization_failed"} }
func DeserializationFailed() error { return &TransportError{Variant: "deserialization_failed"} }
func ServerError(code int, message string) error {
	return &TransportError{Variant: "server_error", Code: code, Message: message}
}

// ── Internal ─────────────────────────────────────────────────────────────

// InternalError carries a free-form message for invariant violations that
// don't fit the other three kinds. Never retryable.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string      { return fmt.Sprintf("internal error: %s", e.Message) }
func (e *InternalError) Kind() Kind         { return KindInternal }
func (e *InternalError) IsRetryable() bool  { return false }

func Internal(message string) error { return &InternalError{Message: message} }

// ── Retryability ─────────────────────────────────────────────────────────

// Classified is implemented by every error kind in this package.
type Classified interface {
	error
	Kind() Kind
	IsRetryable() bool
}

// IsRetryable reports whether err (or a wrapped cause) is retryable under
// the taxonomy's classification. Non-taxonomy errors are never retryable.
func IsRetryable(err error) bool {
	var c Classified
	if errors.As(err, &c) {
		return c.IsRetryable()
	}
	return false
}

// KindOf returns the taxonomy kind of err, or "" if err is not classified.
func KindOf(err error) Kind {
	var c Classified
	if errors.As(err, &c) {
		return c.Kind()
	}
	return ""
}
