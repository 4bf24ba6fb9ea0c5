package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/claimtrust/internal/cache"
	"github.com/ppiankov/claimtrust/internal/classify"
	"github.com/ppiankov/claimtrust/internal/compare"
	"github.com/ppiankov/claimtrust/internal/compliance"
	"github.com/ppiankov/claimtrust/internal/extract"
	"github.com/ppiankov/claimtrust/internal/index"
	"github.com/ppiankov/claimtrust/internal/intake"
	"github.com/ppiankov/claimtrust/internal/ledger"
	"github.com/ppiankov/claimtrust/internal/llm"
	"github.com/ppiankov/claimtrust/internal/logger"
	"github.com/ppiankov/claimtrust/internal/metrics"
	"github.com/ppiankov/claimtrust/internal/model"
	"github.com/ppiankov/claimtrust/internal/pairing"
	"github.com/ppiankov/claimtrust/internal/report"
	"github.com/ppiankov/claimtrust/internal/textextract"
	"github.com/ppiankov/claimtrust/internal/worker"
)

// Pipeline orchestrates a complete claims run
type Pipeline struct {
	config     *model.Config
	logger     *zap.Logger
	metrics    *metrics.Metrics
	intake     *intake.Loader
	ledger     *ledger.Loader
	text       *textextract.Service
	classifier *classify.Classifier
	index      *index.Index
	compliance *compliance.Analyzer
	pairer     *pairing.Pairer
	engine     *compare.Engine
	narrator   *llm.Narrator
	store      *report.Store
	batch      *worker.BatchProcessor

	groundTruthLoaded bool
}

// NewPipeline builds every service once for the run. Invalid classifier
// patterns, an unknown embedder or an unusable output directory are errors;
// a narrator that cannot be built is disabled with a warning.
func NewPipeline(cfg *model.Config, log *zap.Logger, m *metrics.Metrics) (*Pipeline, error) {
	log = logger.OrNop(log)

	c := cache.FromConfig(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.MemoryTTL, cfg.Cache.DiskTTL)

	limiter := worker.NewLimiter(cfg.Index.RequestsPerSecond, cfg.Index.Burst)
	limiter.SetRate(worker.ServiceNarrative, cfg.LLM.RequestsPerSecond, 1)

	embedder, err := index.NewEmbedder(cfg.Index, c, cfg.Cache.DiskTTL, limiter)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	ix := index.New(embedder)

	classifier, err := classify.New(cfg.Classifier, extract.New(cfg.Extraction))
	if err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}

	narrator, err := llm.NewNarrator(llm.ConfigFromModel(cfg.LLM), limiter, log, m)
	if err != nil {
		log.Warn("narrative generation disabled", zap.Error(err))
		narrator, _ = llm.NewNarrator(llm.Config{}, nil, log, m)
	}
	if narrator.IsEnabled() {
		log.Info("narrative generation enabled", zap.String("provider", narrator.ProviderName()))
	}

	store, err := report.NewStore(cfg.Output, log)
	if err != nil {
		return nil, fmt.Errorf("create report store: %w", err)
	}

	p := &Pipeline{
		config:     cfg,
		logger:     log,
		metrics:    m,
		intake:     intake.NewLoader(cfg.Input.Extensions, log),
		ledger:     ledger.NewLoader(cfg.Ledger, log),
		text:       textextract.NewService(c, log),
		classifier: classifier,
		index:      ix,
		compliance: compliance.NewAnalyzer(ix, cfg.Index.ComplianceK, log, m),
		pairer:     pairing.New(cfg.Thresholds.PairingAmountTolerance),
		engine:     compare.NewEngine(cfg.Thresholds),
		narrator:   narrator,
		store:      store,
	}
	p.batch = worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	return p, nil
}

// RunResult summarizes one run
type RunResult struct {
	RunID       string
	StartedAt   time.Time
	Duration    time.Duration
	Envelopes   int
	Records     []*model.ClaimRecord
	Paths       []report.Paths
	SummaryPath string
	Failures    int // directories that could not be read plus records that could not be written
}

// Run processes every claim directory. Only configuration problems (an
// unreadable ledger) abort the run; per-claim failures are logged and
// counted.
func (p *Pipeline) Run(ctx context.Context, dirs []string) (*RunResult, error) {
	result := &RunResult{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	log := p.logger.With(zap.String("run_id", result.RunID))

	if err := p.LoadGroundTruth(ctx); err != nil {
		return nil, err
	}

	envelopes, err := p.intake.LoadAll(dirs)
	if err != nil {
		result.Failures += len(dirs) - len(envelopes)
		log.Warn("some claim directories could not be read", zap.Error(err))
	}
	result.Envelopes = len(envelopes)

	for _, env := range envelopes {
		if ctx.Err() != nil {
			break
		}
		for _, rec := range p.ProcessEnvelope(ctx, result.RunID, env) {
			paths, err := p.store.Write(rec)
			if err != nil {
				result.Failures++
				log.Error("failed to write claim record", zap.String("claim_id", rec.ClaimID), zap.Error(err))
				continue
			}
			p.metrics.Claim(string(rec.Status), rec.Metrics.TrustScore)
			result.Records = append(result.Records, rec)
			result.Paths = append(result.Paths, paths)
		}
	}

	if p.config.Output.SummaryWorkbook && len(result.Records) > 0 {
		path, err := p.store.WriteSummary(result.Records)
		if err != nil {
			log.Error("failed to write run summary", zap.Error(err))
		} else {
			result.SummaryPath = path
		}
	}

	result.Duration = time.Since(result.StartedAt)
	log.Info("run complete",
		zap.Int("envelopes", result.Envelopes),
		zap.Int("records", len(result.Records)),
		zap.Int("failures", result.Failures),
		zap.Duration("elapsed", result.Duration),
	)
	return result, ctx.Err()
}

// LoadGroundTruth loads the ledger into the index once. A missing ledger
// path only warns: compliance and reconciliation then run without ground
// truth.
func (p *Pipeline) LoadGroundTruth(ctx context.Context) error {
	if p.groundTruthLoaded {
		return nil
	}
	if p.config.Ledger.Path == "" {
		p.logger.Warn("no ledger configured, ground truth data not available")
		p.groundTruthLoaded = true
		return nil
	}

	records, err := p.ledger.Load(p.config.Ledger.Path)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	start := time.Now()
	if err := p.index.AddRecords(ctx, records); err != nil {
		return fmt.Errorf("index ledger: %w", err)
	}
	p.logger.Info("indexed ground truth",
		zap.Int("records", len(records)),
		zap.Int("vectors", p.index.Len()),
		zap.String("embedder", p.index.Embedder().Name()),
		zap.Duration("elapsed", time.Since(start)),
	)
	p.groundTruthLoaded = true
	return nil
}
