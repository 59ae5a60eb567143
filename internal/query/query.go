// Package query runs the channel question pipeline: classify, fetch, enrich,
// summarize and render. Run never fails; every outcome is a Response.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brewgator/lightning-channel-assistant/internal/analytics"
	"github.com/brewgator/lightning-channel-assistant/internal/channel"
	"github.com/brewgator/lightning-channel-assistant/internal/enrich"
	"github.com/brewgator/lightning-channel-assistant/internal/intent"
	"github.com/brewgator/lightning-channel-assistant/internal/report"
	"github.com/brewgator/lightning-channel-assistant/pkg/db"
	"github.com/brewgator/lightning-channel-assistant/pkg/lnd"
)

// TypeError is the response type of a failed query
const TypeError = "error"

// DataSource provides channel snapshots and peer aliases
type DataSource interface {
	ListChannels(ctx context.Context) ([]lnd.Channel, error)
	LookupNodeAlias(ctx context.Context, pubkey string) (lnd.NodeInfo, error)
}

// Recorder stores an audit row per answered query
type Recorder interface {
	InsertQueryRecord(record *db.QueryRecord) error
}

// Stage is a step of the per-query state machine
type Stage string

const (
	StageReceived    Stage = "received"
	StageClassified  Stage = "classified"
	StageDataFetched Stage = "data_fetched"
	StageSummarized  Stage = "summarized"
	StageFormatted   Stage = "formatted"
	StageCompleted   Stage = "completed"
	StageFailed      Stage = "failed"
)

// ErrorInfo describes why a query failed
type ErrorInfo struct {
	Message string `json:"message"`
	Stage   Stage  `json:"stage"`
}

// Response is the unified result envelope
type Response struct {
	ID     string      `json:"id"`
	Type   string      `json:"type"`
	Intent intent.Type `json:"intent"`
	Query  string      `json:"query"`
	Text   string      `json:"text"`
	Data   any         `json:"data"`
	Error  *ErrorInfo  `json:"error,omitempty"`
}

// Failed reports whether the response is an error result
func (r Response) Failed() bool {
	return r.Type == TypeError
}

// Service answers channel questions against a DataSource
type Service struct {
	source      DataSource
	classifier  *intent.Classifier
	enricher    *enrich.Enricher
	criteria    analytics.HealthCriteria
	concurrency int
	recorder    Recorder
	timeout     time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithCriteria sets the health criteria used for summaries and reports
func WithCriteria(c analytics.HealthCriteria) Option {
	return func(s *Service) {
		s.criteria = c
	}
}

// WithEnrichConcurrency bounds concurrent alias lookups
func WithEnrichConcurrency(n int) Option {
	return func(s *Service) {
		s.concurrency = n
	}
}

// WithRecorder stores a history record for every query
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithTimeout bounds the node calls of a single query. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

// WithLogger sets the logger
func WithLogger(lg *slog.Logger) Option {
	return func(s *Service) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// NewService creates a query service backed by src
func NewService(src DataSource, opts ...Option) *Service {
	s := &Service{
		source:      src,
		criteria:    analytics.DefaultHealthCriteria(),
		concurrency: enrich.DefaultConcurrency,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.classifier = intent.NewClassifier(s.logger)
	s.enricher = enrich.New(src, enrich.WithConcurrency(s.concurrency), enrich.WithLogger(s.logger))
	return s
}

// Run classifies text and answers it
func (s *Service) Run(ctx context.Context, text string) Response {
	in := s.classifier.Classify(text)
	return s.run(ctx, in)
}

// RunIntent answers text as the given intent, skipping classification
func (s *Service) RunIntent(ctx context.Context, t intent.Type, text string) Response {
	in := intent.Intent{Type: t, Query: text}
	if !t.Valid() {
		err := fmt.Errorf("unsupported intent %q", string(t))
		s.logger.ErrorContext(ctx, "query rejected", "query", text, "error", err)
		return errorResponse(uuid.NewString(), in, StageReceived, err)
	}
	return s.run(ctx, in)
}

func (s *Service) run(ctx context.Context, in intent.Intent) Response {
	id := uuid.NewString()
	start := s.now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	lg := s.logger.With("request_id", id, "intent", string(in.Type))
	lg.DebugContext(ctx, "query classified", "query", in.Query, "stage", StageClassified)

	var (
		resp     Response
		channels int
	)
	if in.Type == intent.Unknown {
		resp = unknownResponse(id, in)
	} else {
		resp, channels = s.answer(ctx, lg, id, in)
	}

	s.record(ctx, lg, resp, channels, s.now().Sub(start))
	return resp
}

// answer runs the data path. Panics past this point are converted into an
// error response.
func (s *Service) answer(ctx context.Context, lg *slog.Logger, id string, in intent.Intent) (resp Response, count int) {
	stage := StageClassified
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("unexpected failure: %v", r)
			lg.ErrorContext(ctx, "query panicked", "query", in.Query, "stage", stage, "error", err)
			resp = errorResponse(id, in, stage, err)
		}
	}()

	result, err := s.snapshot(ctx, lg, &stage)
	if err != nil {
		return s.fail(ctx, lg, id, in, stage, err), 0
	}
	channels := result.Channels

	text, err := report.Render(in.Type, *result)
	if err != nil {
		return s.fail(ctx, lg, id, in, stage, err), len(channels)
	}
	stage = StageFormatted
	lg.DebugContext(ctx, "rendered report", "stage", stage)

	return Response{
		ID:     id,
		Type:   string(in.Type),
		Intent: in.Type,
		Query:  in.Query,
		Text:   text,
		Data:   result,
	}, len(channels)
}

// Snapshot fetches, enriches and summarizes the node's channels without
// rendering a report.
func (s *Service) Snapshot(ctx context.Context) (*report.Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	stage := StageClassified
	return s.snapshot(ctx, s.logger, &stage)
}

// snapshot advances stage as each step completes
func (s *Service) snapshot(ctx context.Context, lg *slog.Logger, stage *Stage) (*report.Result, error) {
	fetchStart := s.now()
	raw, err := s.source.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channels: %w", err)
	}
	channels, err := channel.FromRawList(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read channels: %w", err)
	}
	lg.InfoContext(ctx, "fetched channels", "channels", len(channels), "duration", s.now().Sub(fetchStart))

	enrichStart := s.now()
	channels = s.enricher.Enrich(ctx, channels)
	*stage = StageDataFetched
	lg.DebugContext(ctx, "enriched channels", "channels", len(channels), "duration", s.now().Sub(enrichStart), "stage", *stage)

	summaryStart := s.now()
	summary := analytics.Summarize(channels, s.criteria)
	*stage = StageSummarized
	lg.InfoContext(ctx, "summarized channels",
		"channels", len(channels),
		"healthy", summary.HealthyChannels,
		"unhealthy", summary.UnhealthyChannels,
		"duration", s.now().Sub(summaryStart))

	return &report.Result{Channels: channels, Summary: summary, Criteria: s.criteria}, nil
}

func (s *Service) fail(ctx context.Context, lg *slog.Logger, id string, in intent.Intent, stage Stage, err error) Response {
	lg.ErrorContext(ctx, "query failed", "query", in.Query, "stage", stage, "error", err)
	return errorResponse(id, in, stage, err)
}

// record writes the history row. Recorder failures never affect the response.
func (s *Service) record(ctx context.Context, lg *slog.Logger, resp Response, channels int, elapsed time.Duration) {
	stage := StageCompleted
	if resp.Failed() {
		stage = StageFailed
	}
	lg.InfoContext(ctx, "query finished", "type", resp.Type, "stage", stage, "duration", elapsed)

	if s.recorder == nil {
		return
	}
	rec := &db.QueryRecord{
		RequestID:    resp.ID,
		Timestamp:    s.now().UTC(),
		Query:        resp.Query,
		Intent:       string(resp.Intent),
		ResultType:   resp.Type,
		ChannelCount: channels,
		DurationMs:   elapsed.Milliseconds(),
	}
	if resp.Error != nil {
		rec.Error = resp.Error.Message
	}
	if err := s.recorder.InsertQueryRecord(rec); err != nil {
		lg.WarnContext(ctx, "failed to record query history", "error", err)
	}
}

func errorResponse(id string, in intent.Intent, stage Stage, err error) Response {
	return Response{
		ID:     id,
		Type:   TypeError,
		Intent: in.Type,
		Query:  in.Query,
		Text: fmt.Sprintf("Sorry, I couldn't answer %q because something went wrong while talking to your node: %s",
			in.Query, err.Error()),
		Data:  map[string]any{},
		Error: &ErrorInfo{Message: err.Error(), Stage: stage},
	}
}

func unknownResponse(id string, in intent.Intent) Response {
	text := fmt.Sprintf(`I'm not sure how to answer %q. I can answer questions about your Lightning channels, for example:
- "Show me all my channels"
- "How healthy are my channels?"
- "What does my channel liquidity look like?"
- "Which channels need attention?"`, in.Query)

	return Response{
		ID:     id,
		Type:   string(intent.Unknown),
		Intent: intent.Unknown,
		Query:  in.Query,
		Text:   text,
		Data:   map[string]any{},
	}
}
