// Package kyroql is the public API for embedding KyroQL's belief store.
//
// Callers construct an Engine, then execute IR operations against it:
//
//	engine, err := kyroql.Open("./data",
//	    kyroql.WithLogger(logger),
//	    kyroql.WithOTELEndpoint(endpoint),
//	)
//	if err != nil { ... }
//	defer engine.Close()
//
//	op, _ := ir.NewAssertBuilder(entityID, "likes", value.OfString("coffee"), 0.9, source).Build()
//	result, err := engine.Execute(ctx, op)
//
// The import graph enforces a strict no-cycle rule: kyroql (root) imports
// internal/*, but internal/* never imports kyroql (root).
package kyroql

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/kyrodb/kyroql/internal/belief"
	"github.com/kyrodb/kyroql/internal/config"
	"github.com/kyrodb/kyroql/internal/confidence"
	"github.com/kyrodb/kyroql/internal/embedding"
	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/ir"
	"github.com/kyrodb/kyroql/internal/kerrors"
	"github.com/kyrodb/kyroql/internal/monitor"
	"github.com/kyrodb/kyroql/internal/policy"
	"github.com/kyrodb/kyroql/internal/storage/persistent"
	"github.com/kyrodb/kyroql/internal/telemetry"
	"github.com/kyrodb/kyroql/internal/timesrc"
)

// version is set at build time via -ldflags.
var version = "dev"

// Engine is a single embedded KyroQL belief store: storage, monitor
// dispatcher, and telemetry wired together. Construct with Open, execute
// operations with Execute, release resources with Close.
type Engine struct {
	cfg          config.Config
	store        *persistent.Store
	dispatcher   *monitor.Dispatcher
	otelShutdown telemetry.Shutdown
	logger       *slog.Logger

	embeddingProvider     EmbeddingProvider
	patternEvaluator      PatternEvaluator
	eventHooks            []EventHook
	defaultConflictPolicy policy.Policy
	defaultResolveLimit   int
}

// Open initializes a KyroQL Engine rooted at path: it loads environment
// configuration, initializes telemetry, opens (and if necessary recovers)
// the persistent store, and starts the monitor dispatcher's worker. It does
// not block on anything beyond that startup sequence.
func Open(path string, opts ...Option) (*Engine, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	config.LoadDotEnv(".env")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if path != "" {
		cfg.DataDir = path
	}
	if o.otelEndpoint != "" {
		cfg.OTELEndpoint = o.otelEndpoint
	}
	if o.otelInsecure {
		cfg.OTELInsecure = true
	}
	if o.serviceName != "" {
		cfg.ServiceName = o.serviceName
	}
	if o.maxSegmentSize != 0 {
		cfg.MaxSegmentSize = o.maxSegmentSize
	}
	if o.maxSegmentRecs != 0 {
		cfg.MaxSegmentRecs = o.maxSegmentRecs
	}
	if o.maxWALSize != 0 {
		cfg.MaxWALSize = o.maxWALSize
	}
	if o.syncEveryWrite {
		cfg.SyncEveryWrite = true
	}
	if o.observationQueueCapacity != 0 {
		cfg.ObservationQueueCapacity = o.observationQueueCapacity
	}
	if o.controlQueueCapacity != 0 {
		cfg.ControlQueueCapacity = o.controlQueueCapacity
	}
	if o.streamCapacity != 0 {
		cfg.StreamCapacity = o.streamCapacity
	}
	if o.defaultResolveLimit != 0 {
		cfg.DefaultResolveLimit = o.defaultResolveLimit
	}

	logger.Info("kyroql starting", "version", version, "data_dir", cfg.DataDir)

	otelShutdown, err := telemetry.Init(context.Background(), cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	store, err := persistent.Open(persistent.Config{
		Dir:            cfg.DataDir,
		MaxSegmentSize: cfg.MaxSegmentSize,
		MaxSegmentRecs: cfg.MaxSegmentRecs,
		MaxWALSize:     cfg.MaxWALSize,
		SyncEveryWrite: cfg.SyncEveryWrite,
		Logger:         logger,
	})
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("storage: %w", err)
	}

	dispatcher := monitor.NewDispatcher(monitor.Config{
		ObservationQueueCapacity: cfg.ObservationQueueCapacity,
		ControlQueueCapacity:     cfg.ControlQueueCapacity,
		StreamCapacity:           cfg.StreamCapacity,
		Logger:                   logger,
	})
	dispatcher.Run()

	defaultPolicy := o.defaultConflictPolicy
	if defaultPolicy.Kind == "" {
		defaultPolicy = policy.Default()
	}
	resolveLimit := cfg.DefaultResolveLimit
	if resolveLimit <= 0 {
		resolveLimit = 10
	}

	return &Engine{
		cfg:                   cfg,
		store:                 store,
		dispatcher:            dispatcher,
		otelShutdown:          otelShutdown,
		logger:                logger,
		embeddingProvider:     o.embeddingProvider,
		patternEvaluator:      o.patternEvaluator,
		eventHooks:            o.eventHooks,
		defaultConflictPolicy: defaultPolicy,
		defaultResolveLimit:   resolveLimit,
	}, nil
}

// Close shuts down the monitor dispatcher, closes the store, and flushes
// telemetry, in that order. It does not write a checkpoint.
func (e *Engine) Close() error {
	e.dispatcher.Shutdown()
	storeErr := e.store.Close()
	telErr := e.otelShutdown(context.Background())
	if storeErr != nil {
		return fmt.Errorf("close storage: %w", storeErr)
	}
	if telErr != nil {
		return fmt.Errorf("close telemetry: %w", telErr)
	}
	return nil
}

// Execute applies a validated IR operation to the Engine and returns its
// outcome. ASSERT durably commits to the WAL before the resulting
// observation is handed to the monitor dispatcher (spec.md §5 "Ordering
// guarantees"); every other operation's storage side effect is similarly
// durable before Execute returns.
func (e *Engine) Execute(ctx context.Context, op ir.Operation) (Result, error) {
	if err := op.Validate(); err != nil {
		return Result{}, err
	}

	switch op.Type {
	case ir.OpAssert:
		return e.executeAssert(op.Assert)
	case ir.OpResolve:
		return e.executeResolve(op.Resolve)
	case ir.OpRetract:
		return e.executeRetract(op.Retract)
	case ir.OpDefinePattern:
		return e.executeDefinePattern(op.DefinePattern)
	case ir.OpSimulate:
		return e.executeSimulate(op.Simulate)
	case ir.OpMonitor:
		return e.executeMonitor(op.Monitor)
	case ir.OpDerive:
		return e.executeDerive(op.Derive)
	default:
		return Result{}, kerrors.Internal(fmt.Sprintf("unknown operation type %q", op.Type))
	}
}

func (e *Engine) executeAssert(p *ir.AssertPayload) (Result, error) {
	now := time.Now().UTC()
	conf, err := confidence.New(p.ConfidenceValue, confidenceCalibration(p), confidenceSourceFromTimesrc(p.Source))
	if err != nil {
		return Result{}, err
	}

	validTime := timesrc.FromNow(now)
	if p.ValidTime != nil {
		validTime = *p.ValidTime
	}

	b, err := belief.New(p.EntityID, p.Predicate, p.Value, conf, p.Source, validTime, now, p.Embedding, belief.ConsistencyMode(p.ConsistencyMode))
	if err != nil {
		return Result{}, err
	}

	if err := e.store.AssertBelief(b); err != nil {
		return Result{}, err
	}

	e.dispatcher.Observe(monitor.Observation{
		EntityID:      b.EntityID,
		Predicate:     b.Predicate,
		NewConfidence: floatPtr(b.Confidence.Value),
		Timestamp:     b.TxTime,
	})
	for _, hook := range e.eventHooks {
		hook.OnCommitted(string(ir.OpAssert), b.EntityID)
	}

	return Result{Assert: &AssertResult{BeliefID: b.ID}}, nil
}

func (e *Engine) executeRetract(p *ir.RetractPayload) (Result, error) {
	if err := e.store.RetractBelief(p.BeliefID, p.Reason); err != nil {
		return Result{}, err
	}
	return Result{Retract: &RetractResult{BeliefID: p.BeliefID}}, nil
}

func (e *Engine) executeDefinePattern(p *ir.DefinePatternPayload) (Result, error) {
	pattern := belief.Pattern{ID: ids.NewPatternId(), Name: p.Name, Description: p.Description, Rule: p.Rule}
	if err := e.store.DefinePattern(pattern); err != nil {
		return Result{}, err
	}
	return Result{DefinePattern: &DefinePatternResult{PatternID: pattern.ID}}, nil
}

// executeSimulate never runs a simulation: the sandbox itself is an
// out-of-scope external collaborator (spec.md §1). By the time this runs,
// Execute has already validated p.Constraints via op.Validate(), so a
// caller that reaches here has a well-formed request ready to hand to that
// collaborator.
func (e *Engine) executeSimulate(p *ir.SimulatePayload) (Result, error) {
	return Result{}, kerrors.Internal("simulation execution is delegated to an external sandbox collaborator; Execute only validates constraints")
}

func (e *Engine) executeMonitor(p *ir.MonitorPayload) (Result, error) {
	triggers := p.Triggers
	if p.ThresholdSpec != nil {
		expanded, err := monitor.ExpandThresholdSpec(p.ThresholdSpec)
		if err != nil {
			return Result{}, err
		}
		triggers = expanded
	}

	stream, err := e.dispatcher.Register(triggers, p.ExpiresAt)
	if err != nil {
		return Result{}, err
	}
	return Result{Monitor: &MonitorResult{SubscriptionID: stream.ID(), Stream: stream}}, nil
}

func (e *Engine) executeDerive(p *ir.DerivePayload) (Result, error) {
	record, err := p.ToRecord(time.Now().UTC())
	if err != nil {
		return Result{}, err
	}
	if err := e.store.RecordDerivation(record); err != nil {
		return Result{}, err
	}
	return Result{Derive: &DeriveResult{DerivationID: record.ID}}, nil
}

// executeResolve implements spec.md §4.4's filter → rank → truncate →
// group-and-resolve → gaps pipeline: candidates are filtered by entity,
// predicate, minimum confidence, and as-of validity time; ranked by cosine
// similarity against the query embedding (synthesizing a lexical fallback
// when the caller supplied text but no vector); truncated to Limit; then
// grouped by (entity_id, predicate) and reduced through the requested
// conflict resolution policy.
func (e *Engine) executeResolve(p *ir.ResolvePayload) (Result, error) {
	queryEmbedding := p.QueryEmbedding
	if len(queryEmbedding) == 0 && p.Query != nil && *p.Query != "" {
		if e.embeddingProvider != nil {
			vec, err := e.embeddingProvider.Embed(*p.Query)
			if err != nil {
				return Result{}, fmt.Errorf("resolve: embed query: %w", err)
			}
			queryEmbedding = vec
		} else {
			queryEmbedding = embedding.Lexical(*p.Query)
		}
	}

	candidates := e.filterCandidates(p)
	ranked := rankByEmbedding(candidates, queryEmbedding)

	limit := p.Limit
	if limit <= 0 {
		limit = e.defaultResolveLimit
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	policyToUse := p.ConflictPolicy
	if policyToUse.Kind == "" {
		policyToUse = e.defaultConflictPolicy
	}

	matches, counterEvidence, err := groupAndResolve(ranked, policyToUse)
	if err != nil {
		return Result{}, err
	}

	result := ResolveResult{Matches: matches}
	if p.IncludeCounterEvidence {
		result.CounterEvidence = counterEvidence
	}
	if p.IncludeGaps {
		result.Gaps = findGaps(matches)
	}
	return Result{Resolve: &result}, nil
}

func (e *Engine) filterCandidates(p *ir.ResolvePayload) []belief.Belief {
	var entityIDs []ids.EntityId
	if p.EntityID != nil {
		entityIDs = []ids.EntityId{*p.EntityID}
	} else {
		entityIDs = e.store.AllEntityIDs()
	}

	var out []belief.Belief
	for _, entityID := range entityIDs {
		for _, b := range e.store.BeliefsForEntity(entityID) {
			if e.store.IsRetracted(b.ID) {
				continue
			}
			if p.Predicate != nil && b.Predicate != *p.Predicate {
				continue
			}
			if p.MinConfidence != nil && b.Confidence.Value < *p.MinConfidence {
				continue
			}
			if p.AsOf != nil && !b.ValidTime.Contains(*p.AsOf) {
				continue
			}
			out = append(out, b)
		}
	}
	return out
}

// rankByEmbedding sorts candidates by descending cosine similarity against
// query, leaving order unchanged (insertion order) when query is empty.
func rankByEmbedding(candidates []belief.Belief, query []float32) []belief.Belief {
	if len(query) == 0 {
		return candidates
	}
	type scored struct {
		b     belief.Belief
		score float64
	}
	withScores := make([]scored, 0, len(candidates))
	for _, b := range candidates {
		withScores = append(withScores, scored{b: b, score: cosineSimilarity(b.Embedding, query)})
	}
	sort.SliceStable(withScores, func(i, j int) bool { return withScores[i].score > withScores[j].score })
	out := make([]belief.Belief, len(withScores))
	for i, s := range withScores {
		out[i] = s.b
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// groupAndResolve buckets candidates by (entity_id, predicate) and applies
// policy within each bucket. The losing beliefs of every bucket accumulate
// as counter-evidence.
func groupAndResolve(candidates []belief.Belief, p policy.Policy) (winners, losers []belief.Belief, err error) {
	type key struct {
		entity    ids.EntityId
		predicate string
	}
	buckets := make(map[key][]belief.Belief)
	order := make([]key, 0)
	for _, b := range candidates {
		k := key{entity: b.EntityID, predicate: b.Predicate}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], b)
	}

	for _, k := range order {
		bucket := buckets[k]
		resolved, rerr := policy.Resolve(p, bucket)
		if rerr != nil {
			return nil, nil, rerr
		}
		winners = append(winners, resolved...)
		if len(resolved) < len(bucket) {
			resolvedIDs := make(map[ids.BeliefId]bool, len(resolved))
			for _, b := range resolved {
				resolvedIDs[b.ID] = true
			}
			for _, b := range bucket {
				if !resolvedIDs[b.ID] {
					losers = append(losers, b)
				}
			}
		}
	}
	return winners, losers, nil
}

// findGaps reports, per (entity_id, predicate) pair present in matches, any
// stretch of valid-time not covered by a contiguous belief — a simple
// sweep over each bucket's sorted valid-time intervals.
func findGaps(matches []belief.Belief) []Gap {
	type key struct {
		entity    ids.EntityId
		predicate string
	}
	buckets := make(map[key][]belief.Belief)
	order := make([]key, 0)
	for _, b := range matches {
		k := key{entity: b.EntityID, predicate: b.Predicate}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], b)
	}

	var gaps []Gap
	for _, k := range order {
		bucket := buckets[k]
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].ValidTime.From.Before(bucket[j].ValidTime.From) })
		for i := 1; i < len(bucket); i++ {
			prevEnd := bucket[i-1].ValidTime.To
			curStart := bucket[i].ValidTime.From
			if curStart.After(prevEnd) {
				gaps = append(gaps, Gap{EntityID: k.entity, Predicate: k.predicate, From: prevEnd, To: curStart})
			}
		}
	}
	return gaps
}

func floatPtr(f float64) *float64 { return &f }

func confidenceCalibration(p *ir.AssertPayload) confidence.Calibration {
	if p.ConfidenceCalib != "" {
		return confidence.Calibration(p.ConfidenceCalib)
	}
	return confidence.CalibrationProbability
}

// confidenceSourceFromTimesrc maps a belief's provenance source onto the
// confidence kernel's own (distinct but parallel) provenance taxonomy —
// the two are deliberately separate types (spec.md §3) since a belief's
// source and the calibration of its confidence number can diverge (e.g. a
// human-asserted belief with a model-computed confidence score).
func confidenceSourceFromTimesrc(s timesrc.Source) confidence.ConfidenceSource {
	switch s.Kind {
	case timesrc.SourceAgent:
		return confidence.ConfidenceSource{Kind: confidence.SourceAssertedByAgent, AgentID: s.AgentID}
	case timesrc.SourceHuman:
		return confidence.ConfidenceSource{Kind: confidence.SourceAssertedByHuman, AgentID: s.UserID}
	case timesrc.SourceSensor:
		return confidence.ConfidenceSource{Kind: confidence.SourceAssertedBySensor, AgentID: s.SensorID}
	case timesrc.SourceModel:
		return confidence.ConfidenceSource{Kind: confidence.SourceComputedByModel, ModelID: s.ModelID, ModelVersion: s.ModelVersion}
	case timesrc.SourceAggregated:
		return confidence.ConfidenceSource{Kind: confidence.SourceAggregatedFromSources}
	case timesrc.SourceDerived:
		return confidence.ConfidenceSource{Kind: confidence.SourceDerivedFromPremises, PremiseIDs: s.PremiseIDs, PropagationRule: s.Rule}
	default:
		return confidence.ConfidenceSource{Kind: confidence.SourceUnknown}
	}
}
