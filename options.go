package kyroql

import (
	"log/slog"

	"github.com/kyrodb/kyroql/internal/policy"
)

// Option configures an Engine.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	logger                   *slog.Logger
	embeddingProvider        EmbeddingProvider
	patternEvaluator         PatternEvaluator
	eventHooks               []EventHook
	otelEndpoint             string
	otelInsecure             bool
	serviceName              string
	maxSegmentSize           int64
	maxSegmentRecs           int
	maxWALSize               int64
	syncEveryWrite           bool
	observationQueueCapacity int
	controlQueueCapacity     int
	streamCapacity           int
	defaultResolveLimit      int
	defaultConflictPolicy    policy.Policy
}

// WithLogger sets the structured logger for the Engine. If not set, the
// default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithEmbeddingProvider replaces the deterministic lexical fallback used
// for RESOLVE queries that don't supply their own embedding. ASSERTs are
// not embedded by the Engine.
func WithEmbeddingProvider(p EmbeddingProvider) Option {
	return func(o *resolvedOptions) { o.embeddingProvider = p }
}

// WithPatternEvaluator stores a pattern-matching rule engine collaborator
// on the Engine. Execute does not call it, so pattern_violation triggers
// receive no observations with or without one.
func WithPatternEvaluator(pe PatternEvaluator) Option {
	return func(o *resolvedOptions) { o.patternEvaluator = pe }
}

// WithEventHook registers a hook to receive every committed ASSERT; other
// operations do not notify hooks. Multiple hooks may be registered; all
// registered hooks receive every event.
func WithEventHook(hook EventHook) Option {
	return func(o *resolvedOptions) { o.eventHooks = append(o.eventHooks, hook) }
}

// WithOTELEndpoint enables OTLP export of KyroQL's traces and metrics to
// the given collector endpoint. Unset, telemetry is a no-op.
func WithOTELEndpoint(endpoint string) Option {
	return func(o *resolvedOptions) { o.otelEndpoint = endpoint }
}

// WithOTELInsecure uses plaintext HTTP instead of HTTPS for the OTLP exporter.
func WithOTELInsecure(insecure bool) Option {
	return func(o *resolvedOptions) { o.otelInsecure = insecure }
}

// WithServiceName sets the service name reported in telemetry resource attributes.
func WithServiceName(name string) Option {
	return func(o *resolvedOptions) { o.serviceName = name }
}

// WithMaxSegmentSize overrides the segment rotation size threshold in bytes.
func WithMaxSegmentSize(bytes int64) Option {
	return func(o *resolvedOptions) { o.maxSegmentSize = bytes }
}

// WithMaxSegmentRecords overrides the segment rotation record-count threshold.
func WithMaxSegmentRecords(n int) Option {
	return func(o *resolvedOptions) { o.maxSegmentRecs = n }
}

// WithMaxWALSize overrides the overall unsealed-WAL size budget in bytes.
func WithMaxWALSize(bytes int64) Option {
	return func(o *resolvedOptions) { o.maxWALSize = bytes }
}

// WithSyncEveryWrite forces an fsync after every WAL append, trading
// throughput for a tighter durability window.
func WithSyncEveryWrite(sync bool) Option {
	return func(o *resolvedOptions) { o.syncEveryWrite = sync }
}

// WithObservationQueueCapacity overrides the monitor dispatcher's inbound
// observation queue bound.
func WithObservationQueueCapacity(n int) Option {
	return func(o *resolvedOptions) { o.observationQueueCapacity = n }
}

// WithControlQueueCapacity overrides the monitor dispatcher's
// register/unregister control queue bound.
func WithControlQueueCapacity(n int) Option {
	return func(o *resolvedOptions) { o.controlQueueCapacity = n }
}

// WithStreamCapacity overrides each monitor subscription's outbound event
// channel bound.
func WithStreamCapacity(n int) Option {
	return func(o *resolvedOptions) { o.streamCapacity = n }
}

// WithDefaultResolveLimit sets the Engine's fallback RESOLVE limit (10
// unless overridden here). Execute rejects a RESOLVE whose limit is not
// positive, and ResolveBuilder sets a limit of 10, so a validated RESOLVE
// always carries its own limit and this fallback is not reached.
func WithDefaultResolveLimit(n int) Option {
	return func(o *resolvedOptions) { o.defaultResolveLimit = n }
}

// WithDefaultConflictPolicy overrides RESOLVE's default conflict
// resolution policy (highest_confidence unless overridden here or
// per-query).
func WithDefaultConflictPolicy(p policy.Policy) Option {
	return func(o *resolvedOptions) { o.defaultConflictPolicy = p }
}
