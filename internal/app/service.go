// Package service composes the decision engine: it normalizes a payload,
// routes it, fans out to the evaluators and synthesizes the final decision.
// It also owns the audit pipeline and implements the HTTP API dependencies.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/overcall/internal/adapters/mq/queue"
	"github.com/okian/overcall/internal/adapters/mq/worker"
	"github.com/okian/overcall/internal/adapters/repository"
	"github.com/okian/overcall/internal/domain/dedupe"
	"github.com/okian/overcall/internal/domain/fanout"
	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/normalize"
	"github.com/okian/overcall/internal/domain/replacement"
	"github.com/okian/overcall/internal/domain/routing"
	"github.com/okian/overcall/internal/domain/safety"
	"github.com/okian/overcall/internal/domain/synthesis"
	"github.com/okian/overcall/internal/domain/types"
	"github.com/okian/overcall/pkg/logger"
	"github.com/okian/overcall/pkg/metrics"
)

// Service defaults.
const (
	defaultBaselineTimeout = 2 * time.Second
	defaultMaxCandidates   = 5
	defaultWorkerCount     = 2
	stopTimeout            = 15 * time.Second
)

// Service implements the API dependencies for the advice engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	router     *routing.Router
	executor   *fanout.Executor
	deduper    dedupe.Deduper
	auditQueue *queue.InMemoryQueue
	workerPool *worker.Pool

	// Configuration
	evaluators       map[types.Agent]fanout.Evaluator
	remote           routing.RemoteRouter
	evaluatorTimeout time.Duration
	routerTimeout    time.Duration
	baselineTimeout  time.Duration
	maxCandidates    int
	queueSize        int
	workerCount      int
	dedupeSize       int
	newID            func() string
	now              func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a Service. Without WithStore it keeps baselines and the audit trail in memory.
func New(opts ...Option) *Service {
	s := &Service{
		evaluators:       make(map[types.Agent]fanout.Evaluator),
		evaluatorTimeout: fanout.DefaultTimeout,
		routerTimeout:    routing.DefaultRemoteTimeout,
		baselineTimeout:  defaultBaselineTimeout,
		maxCandidates:    defaultMaxCandidates,
		queueSize:        queue.DefaultCapacity,
		workerCount:      defaultWorkerCount,
		dedupeSize:       dedupe.DefaultCapacity,
		newID:            uuid.NewString,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}

	routerOpts := []routing.Option{routing.WithTimeout(s.routerTimeout)}
	if s.remote != nil {
		routerOpts = append(routerOpts, routing.WithRemote(s.remote))
	}
	s.router = routing.New(routerOpts...)

	execOpts := []fanout.Option{fanout.WithTimeout(s.evaluatorTimeout)}
	for a, ev := range s.evaluators {
		execOpts = append(execOpts, fanout.WithEvaluator(a, ev))
	}
	s.executor = fanout.New(execOpts...)
	return s
}

// Start starts the audit pipeline. Advise works without it but records nothing.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting advice service...")

	s.deduper = dedupe.New(dedupe.WithCapacity(s.dedupeSize))
	s.auditQueue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithClock(s.now),
	)
	s.workerPool = worker.NewPool(s.workerCount, s.auditQueue, s.store,
		worker.WithLogger(s.logger),
		worker.WithDeduper(s.deduper),
	)
	// Workers outlive the request context so that Stop can drain the queue.
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "advice service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("evaluators", len(s.evaluators)),
		logger.Bool("remoteRouter", s.remote != nil),
	)
	return nil
}

// Stop drains the audit queue and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping advice service...")
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "audit workers did not drain", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "advice service stopped")
}

// Advise answers one advice request. The only error is ErrEmptyRequest; every
// other failure is absorbed into the response as a fallback.
func (s *Service) Advise(ctx context.Context, payload map[string]any, requestID string) (types.AdviceResponse, error) {
	start := time.Now()
	req := normalize.Normalize(payload)
	metrics.RecordAdviceRequest(string(req.Schema))
	if req.Schema == model.SchemaEmpty {
		return types.AdviceResponse{}, ErrEmptyRequest
	}
	req.RequestID = s.requestID(requestID, req.RequestID)
	req.CandidateLimit = min(req.CandidateLimit, s.maxCandidates)

	resp := s.orchestrate(ctx, req, start)

	for _, d := range resp.Degraded {
		metrics.RecordDegraded(d.Layer)
	}
	metrics.RecordFinalDecision(resp.FinalDecision.Source, resp.Safety.NoEligibleReplacement)
	metrics.RecordAdviceLatency(float64(time.Since(start).Microseconds()) / 1000)

	s.logger.Info(ctx, "advice served",
		logger.String("request_id", resp.RequestID),
		logger.String("schema", string(resp.Schema)),
		logger.String("intent", string(resp.RouterDecision.Intent)),
		logger.String("routing_source", resp.RouterDecision.Source),
		logger.String("decision_source", resp.FinalDecision.Source),
		logger.Int("errors", len(resp.Errors)),
		logger.Int("degraded", len(resp.Degraded)),
		logger.Duration("elapsed", time.Since(start)),
	)

	s.audit(ctx, resp)
	return resp, nil
}

// Safety builds the roster safety report for a payload without consulting evaluators.
func (s *Service) Safety(ctx context.Context, payload map[string]any, requestID string) (types.SafetyResponse, error) {
	req := normalize.Normalize(payload)
	if req.Schema == model.SchemaEmpty {
		return types.SafetyResponse{}, ErrEmptyRequest
	}
	req.RequestID = s.requestID(requestID, req.RequestID)
	req.CandidateLimit = min(req.CandidateLimit, s.maxCandidates)

	e := s.enrich(ctx, req)
	req.Telemetry.Baseline, req.Roster = e.telemetry, e.roster
	return types.SafetyResponse{
		RequestID: req.RequestID,
		Schema:    req.Schema,
		Safety:    SafetyReport(req),
		Degraded:  append([]types.Degraded{}, e.degraded...),
	}, nil
}

// orchestrate runs the pipeline. A panic anywhere in it yields the conservative response.
func (s *Service) orchestrate(ctx context.Context, req model.NormalizedRequest, start time.Time) (resp types.AdviceResponse) { //nolint:gocritic // hugeParam
	defer func() {
		if r := recover(); r != nil {
			resp = s.conservative(ctx, req, start, r)
		}
	}()

	resp = types.AdviceResponse{
		RequestID: req.RequestID,
		Schema:    req.Schema,
		Errors:    []types.AgentError{},
		Degraded:  []types.Degraded{},
		Timing:    types.Timing{StartedAt: s.now(), PerAgentMs: map[types.Agent]int64{}},
	}

	// Routing and baseline enrichment are independent; both settle before the fan-out.
	routeStart := time.Now()
	var (
		routed      routing.Result
		enriched    enrichment
		routePanic  any
		enrichPanic any
	)
	var g errgroup.Group
	g.Go(func() error {
		routePanic = settle(func() { routed = s.router.Route(ctx, req) })
		return nil
	})
	g.Go(func() error {
		enrichPanic = settle(func() { enriched = s.enrich(ctx, req) })
		return nil
	})
	_ = g.Wait()
	if routePanic != nil {
		panic(routePanic)
	}
	if enrichPanic != nil {
		panic(enrichPanic)
	}
	resp.Timing.RoutingMs = time.Since(routeStart).Milliseconds()

	req.Telemetry.Baseline, req.Roster = enriched.telemetry, enriched.roster
	resp.Degraded = append(resp.Degraded, routed.Degraded...)
	resp.Degraded = append(resp.Degraded, enriched.degraded...)

	decision := routed.Decision
	resp.RouterDecision = decision
	metrics.RecordRoutingDecision(string(decision.Intent), decision.Source, decision.FallbackUsed)
	if decision.FallbackUsed {
		s.logger.Warn(ctx, "routing fell back to local rules",
			logger.String("request_id", req.RequestID),
			logger.String("reason", decision.FallbackReason))
	}

	report := SafetyReport(req)
	resp.Safety = report

	fan := s.executor.Run(ctx, decision.SelectedAgents, func(a types.Agent) types.EvaluatorRequest {
		return evaluatorRequest(req, decision, report, a)
	})
	resp.Timing.FanOutMs = fan.ElapsedMs
	resp.Outputs = outputs(fan)
	resp.Errors = append(resp.Errors, fan.Errors...)

	verdicts := make(map[types.Agent]*types.Verdict, len(decision.SelectedAgents))
	for _, a := range decision.SelectedAgents {
		if v, ok := fan.Verdict(a); ok {
			verdicts[a] = v
		}
	}
	for a, o := range resp.Outputs {
		if !o.Skipped {
			resp.Timing.PerAgentMs[a] = o.ElapsedMs
		}
	}
	if len(decision.SelectedAgents) > 0 && len(verdicts) == 0 {
		resp.Degraded = append(resp.Degraded, types.Degraded{
			Layer:  types.LayerEvaluators,
			Reason: "no evaluator returned a verdict; rules fallback applied",
		})
	}

	resp.FinalDecision = synthesis.Synthesize(synthesis.Input{
		Request:  req,
		Decision: decision,
		Verdicts: verdicts,
		Safety:   report,
		Eligible: replacement.Eligible(req.Roster, req.Telemetry.PlayerID, req.EffectiveTeamMode(), req.Match.Intensity),
	})
	resp.Timing.TotalMs = time.Since(start).Milliseconds()
	return resp
}

// conservative is the response served after a recovered panic.
func (s *Service) conservative(ctx context.Context, req model.NormalizedRequest, start time.Time, cause any) types.AdviceResponse { //nolint:gocritic // hugeParam
	reason := fanout.Sanitize(fmt.Sprintf("%v: %v", errPanic, cause))
	s.logger.Error(ctx, "orchestration failed; serving conservative fallback",
		logger.String("request_id", req.RequestID),
		logger.String("reason", reason))
	metrics.RecordErrorByComponent("orchestrator", "panic")
	metrics.RecordErrorByType("panic", "critical")

	report := types.SafetyReport{
		Mode:                  req.Match.TeamMode,
		Ranking:               []types.Candidate{},
		Injuries:              []types.InjuryRisk{},
		Replacements:          []types.Candidate{},
		NoEligibleReplacement: true,
	}
	outs := make(map[types.Agent]types.EvaluatorOutcome, len(types.AllAgents))
	for _, a := range types.AllAgents {
		outs[a] = types.EvaluatorOutcome{Agent: a, Skipped: true}
	}
	return types.AdviceResponse{
		RequestID: req.RequestID,
		Schema:    req.Schema,
		RouterDecision: types.RouterDecision{
			Intent:         types.IntentGeneral,
			SelectedAgents: []types.Agent{types.AgentTactical},
			RulesFired:     []string{routing.RuleFallbackRouting},
			InputsUsed:     map[string]any{},
			Rationale:      "orchestration failed; conservative fallback",
			Source:         types.SourceLocal,
			FallbackUsed:   true,
			FallbackReason: reason,
		},
		Outputs:       outs,
		Safety:        report,
		FinalDecision: synthesis.Fallback(req, report),
		Errors:        []types.AgentError{},
		Degraded:      []types.Degraded{{Layer: types.LayerOrchestrator, Reason: reason}},
		Timing: types.Timing{
			StartedAt:  s.now(),
			TotalMs:    time.Since(start).Milliseconds(),
			PerAgentMs: map[types.Agent]int64{},
		},
	}
}

// SafetyReport ranks the roster, infers injury types and selects replacements.
func SafetyReport(req model.NormalizedRequest) types.SafetyReport { //nolint:gocritic // hugeParam
	mode := req.EffectiveTeamMode()
	intensity := req.Match.Intensity
	repl := replacement.Select(req.Roster, req.Telemetry.PlayerID, mode, intensity, req.CandidateLimit)
	return types.SafetyReport{
		Mode:                  mode,
		Ranking:               safety.Rank(req.Roster, mode, intensity, req.CandidateLimit),
		Injuries:              safety.InferInjuries(req.Telemetry, req.Match.Format),
		Replacements:          repl,
		NoEligibleReplacement: len(repl) == 0,
	}
}

func evaluatorRequest(req model.NormalizedRequest, d types.RouterDecision, report types.SafetyReport, a types.Agent) types.EvaluatorRequest { //nolint:gocritic // hugeParam
	er := types.EvaluatorRequest{
		RequestID:    req.RequestID,
		Agent:        a,
		Intent:       d.Intent,
		Telemetry:    req.Telemetry,
		MatchContext: req.Match,
		Injuries:     report.Injuries,
		Rationale:    d.Rationale,
	}
	if a == types.AgentTactical {
		er.Ranking = report.Ranking
		er.Replacements = report.Replacements
	}
	return er
}

// outputs reports one outcome per agent; agents that were not routed are marked skipped.
func outputs(fan fanout.Result) map[types.Agent]types.EvaluatorOutcome {
	out := make(map[types.Agent]types.EvaluatorOutcome, len(types.AllAgents))
	for _, a := range types.AllAgents {
		o, ok := fan.Outcomes[a]
		switch {
		case !ok:
			o = types.EvaluatorOutcome{Agent: a, Skipped: true}
			metrics.RecordEvaluatorCall(string(a), "skipped", 0)
		case o.Present:
			metrics.RecordEvaluatorCall(string(a), "ok", float64(o.ElapsedMs))
		default:
			metrics.RecordEvaluatorCall(string(a), "error", float64(o.ElapsedMs))
		}
		out[a] = o
	}
	return out
}

// settle runs fn and returns a recovered panic so it can be re-raised on the calling goroutine.
func settle(fn func()) (p any) {
	defer func() { p = recover() }()
	fn()
	return nil
}

func (s *Service) requestID(header, payload string) string {
	if id := strings.TrimSpace(header); id != "" {
		return id
	}
	if payload != "" {
		return payload
	}
	return s.newID()
}

// audit enqueues the response for persistence. Drops are logged, never surfaced.
func (s *Service) audit(ctx context.Context, resp types.AdviceResponse) { //nolint:gocritic // hugeParam
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error(ctx, "error encoding audit record", logger.String("request_id", resp.RequestID), logger.Error(err))
		return
	}
	agents := make([]string, len(resp.RouterDecision.SelectedAgents))
	for i, a := range resp.RouterDecision.SelectedAgents {
		agents[i] = string(a)
	}
	rec := repository.AuditRecord{
		RequestID:      resp.RequestID,
		CreatedAt:      s.now().UTC(),
		Intent:         string(resp.RouterDecision.Intent),
		Agents:         agents,
		RulesFired:     resp.RouterDecision.RulesFired,
		RoutingSource:  resp.RouterDecision.Source,
		FallbackUsed:   resp.RouterDecision.FallbackUsed,
		Action:         resp.FinalDecision.ImmediateAction,
		Confidence:     resp.FinalDecision.Confidence,
		DecisionSource: resp.FinalDecision.Source,
		ErrorCount:     len(resp.Errors),
		Response:       raw,
	}
	if err := s.auditQueue.Enqueue(ctx, rec); err != nil {
		s.logger.Warn(ctx, "audit record dropped",
			logger.String("request_id", resp.RequestID),
			logger.Error(err))
	}
}

// GetBaseline returns the stored baseline for a player.
func (s *Service) GetBaseline(ctx context.Context, playerID string) (model.Baseline, error) {
	return s.store.GetBaseline(ctx, playerID)
}

// PutBaseline stores a baseline for a player.
func (s *Service) PutBaseline(ctx context.Context, playerID string, b model.Baseline) error {
	return s.store.PutBaseline(ctx, playerID, b)
}

// GetDecision returns the audit record of a served request.
func (s *Service) GetDecision(ctx context.Context, requestID string) (repository.AuditRecord, error) {
	return s.store.GetDecision(ctx, requestID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	configured := make([]string, 0, len(types.AllAgents))
	for _, a := range types.AllAgents {
		if s.executor.Configured(a) {
			configured = append(configured, string(a))
		}
	}
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"evaluators":    configured,
		"remoteRouter":  s.remote != nil,
		"maxCandidates": s.maxCandidates,
	}

	if s.started {
		queueLen := s.auditQueue.Len(ctx)
		audited := s.store.CountDecisions(ctx)

		stats["queueLength"] = queueLen
		stats["auditedDecisions"] = audited
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRepositoryRecords("decisions", audited)
		metrics.UpdateWorkerCount(s.workerPool.Size())
	}

	return stats
}
