// Package orchestrator sequences one research run: ensure a session, submit
// the query, parse the answer, persist the records. Every failure is
// converted into a RunResult; nothing propagates to the process level.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"capscout/internal/browser"
	"capscout/internal/history"
	"capscout/internal/record"
)

// Querier is the automated client surface the orchestrator drives. Ask
// creates the session lazily; Dispose clears it so the next run starts
// fresh.
type Querier interface {
	Ask(ctx context.Context, prompt string) (string, error)
	Dispose()
}

// Appender persists extracted records.
type Appender interface {
	Append(records []record.StockRecord) error
}

// Recorder stores run outcomes for the status surface.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// RunResult is the transient outcome of one run, returned to the trigger
// and discarded.
type RunResult struct {
	RunID      string               `json:"run_id"`
	Success    bool                 `json:"success"`
	Records    int                  `json:"records"`
	Error      string               `json:"error,omitempty"`
	StartedAt  time.Time            `json:"started_at"`
	DurationMs int64                `json:"duration_ms"`
	Stocks     []record.StockRecord `json:"stocks,omitempty"`
}

// Parser is the extraction entry point.
type Parser interface {
	Parse(text string) []record.StockRecord
}

// Config holds the run parameters.
type Config struct {
	Prompt       string `yaml:"prompt"`
	MinAnswerLen int    `yaml:"min_answer_len"`
}

// DefaultConfig returns the standing research prompt and validation bounds.
func DefaultConfig() Config {
	return Config{
		Prompt: "List currently notable small-cap stocks with a market capitalization under $2 billion. " +
			"For each, give the ticker symbol, the company name, and the market cap in billions of dollars.",
		MinAnswerLen: 100,
	}
}

// Orchestrator composes the session, parser, and writer into runs. Runs are
// serialized: a caller arriving while another run is active is rejected.
type Orchestrator struct {
	cfg     Config
	session Querier
	parser  Parser
	writer  Appender
	hist    Recorder // optional
	logger  *zap.Logger

	runMu sync.Mutex
}

// New wires an orchestrator. hist may be nil when run history is disabled.
func New(cfg Config, session Querier, p Parser, w Appender, hist Recorder, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultConfig().Prompt
	}
	if cfg.MinAnswerLen == 0 {
		cfg.MinAnswerLen = DefaultConfig().MinAnswerLen
	}
	return &Orchestrator{
		cfg:     cfg,
		session: session,
		parser:  p,
		writer:  w,
		hist:    hist,
		logger:  logger,
	}
}

// Run executes one full pipeline pass. It never returns an error: failures
// are reported inside the RunResult.
func (o *Orchestrator) Run(ctx context.Context) RunResult {
	if !o.runMu.TryLock() {
		return RunResult{
			RunID:     uuid.NewString(),
			StartedAt: time.Now(),
			Error:     ErrRunInProgress.Error(),
		}
	}
	defer o.runMu.Unlock()

	runID := uuid.NewString()
	start := time.Now()
	o.logger.Info("Run started", zap.String("run_id", runID))

	stocks, err := o.pipeline(ctx)
	result := RunResult{
		RunID:      runID,
		StartedAt:  start,
		DurationMs: time.Since(start).Milliseconds(),
		Records:    len(stocks),
		Stocks:     stocks,
		Success:    err == nil,
	}
	if err != nil {
		result.Error = err.Error()
		result.Records = 0
		result.Stocks = nil
		if tearsDownSession(err) {
			o.logger.Warn("Run failed, tearing down session",
				zap.String("run_id", runID), zap.Error(err))
			o.session.Dispose()
		} else {
			o.logger.Warn("Run failed, session kept alive",
				zap.String("run_id", runID), zap.Error(err))
		}
	} else {
		o.logger.Info("Run succeeded",
			zap.String("run_id", runID),
			zap.Int("records", len(stocks)),
			zap.Int64("duration_ms", result.DurationMs))
	}

	o.record(ctx, result)
	return result
}

// pipeline walks the per-run state machine and returns the persisted
// records or the taxonomy error describing where it stopped.
func (o *Orchestrator) pipeline(ctx context.Context) ([]record.StockRecord, error) {
	text, err := o.session.Ask(ctx, o.cfg.Prompt)
	if err != nil {
		if errors.Is(err, browser.ErrAnswerTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrQueryTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSession, err)
	}

	if len(strings.TrimSpace(text)) < o.cfg.MinAnswerLen {
		return nil, fmt.Errorf("%w: got %d characters", ErrShortResponse, len(strings.TrimSpace(text)))
	}

	stocks := o.parser.Parse(text)
	if len(stocks) == 0 {
		return nil, fmt.Errorf("%w: response had %d characters but no strategy matched", ErrNoRecords, len(text))
	}

	if err := o.writer.Append(stocks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return stocks, nil
}

// record stores the run outcome; history failures are logged, never fatal.
func (o *Orchestrator) record(ctx context.Context, r RunResult) {
	if o.hist == nil {
		return
	}
	entry := history.Entry{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		DurationMs: r.DurationMs,
		Success:    r.Success,
		Records:    r.Records,
		Error:      r.Error,
	}
	if err := o.hist.Record(ctx, entry); err != nil {
		o.logger.Warn("Failed to record run history", zap.String("run_id", r.RunID), zap.Error(err))
	}
}
