package trigger

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
)

const tracerName = "github.com/linnemanlabs/mikey/internal/trigger"

// ProcessEvent describes one completed Process call.
type ProcessEvent struct {
	Outcome   Outcome
	Duration  float64
	Keywords  int
	Protocols int
	CacheSize int
}

// ServiceHooks are optional callbacks for observability.
type ServiceHooks struct {
	OnProcess func(*ProcessEvent)
}

type sizer interface {
	Len() int
}

// Service is the entry point for prompt processing.
type Service struct {
	engine *Engine
	cache  DedupCache
	logger log.Logger
	hooks  ServiceHooks
}

// NewService creates a service. The cache is shared by every call made
// through the service.
func NewService(engine *Engine, cache DedupCache, logger log.Logger, hooks ServiceHooks) *Service {
	if engine == nil {
		panic(xerrors.New("trigger engine is required"))
	}
	if cache == nil {
		cache = NewCache(SystemClock{}, DefaultDedupWindow, DefaultSweepThreshold)
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		engine: engine,
		cache:  cache,
		logger: logger.With("component", "trigger"),
		hooks:  hooks,
	}
}

// Process validates the prompt, short-circuits repeats and trivial prompts,
// and otherwise runs the engine. Invalid input is reported in the result;
// the error return is reserved for registry failures.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "trigger.process")
	defer span.End()

	res, err := s.process(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("mikey.prompt.outcome", string(OutcomeError)))
		s.observe(start, OutcomeError, nil)
		return nil, err
	}

	outcome := res.Outcome()
	span.SetAttributes(
		attribute.String("mikey.prompt.outcome", string(outcome)),
		attribute.Int("mikey.prompt.keywords", len(res.MatchedKeywords)),
		attribute.Int("mikey.prompt.protocols", len(res.TriggeredProtocols)),
	)
	s.observe(start, outcome, res)
	return res, nil
}

// observe fires OnProcess. res is nil for failed runs.
func (s *Service) observe(start time.Time, outcome Outcome, res *Result) {
	if s.hooks.OnProcess == nil {
		return
	}
	ev := &ProcessEvent{
		Outcome:  outcome,
		Duration: time.Since(start).Seconds(),
	}
	if res != nil {
		ev.Keywords = len(res.MatchedKeywords)
		ev.Protocols = len(res.TriggeredProtocols)
	}
	if c, ok := s.cache.(sizer); ok {
		ev.CacheSize = c.Len()
	}
	s.hooks.OnProcess(ev)
}

func (s *Service) process(ctx context.Context, req Request) (*Result, error) {
	prompt, ok := req.Prompt.(string)
	if !ok || prompt == "" {
		return skipResult(false, "", ErrMsgNoPrompt), nil
	}

	fp := FingerprintOf(prompt)
	if s.cache.SeenOrRecord(fp) {
		return skipResult(true, ReasonDuplicate, ""), nil
	}

	if isQuickResponse(normalize(prompt)) {
		return skipResult(true, ReasonQuick, ""), nil
	}

	L := s.logger.With("analysis_id", ulid.Make().String(), "fingerprint", fp.String())

	res, err := s.engine.Analyze(ctx, prompt)
	if err != nil {
		L.Error(ctx, err, "prompt analysis failed")
		return nil, err
	}

	L.Info(ctx, "prompt analyzed",
		"prompt_length", res.PromptLength,
		"keywords", res.MatchedKeywords,
		"protocols", len(res.TriggeredProtocols),
	)
	return res, nil
}
