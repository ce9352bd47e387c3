package batch

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	baseline "github.com/teo1264/enel-system/internal/baseline/domain"
	invoice "github.com/teo1264/enel-system/internal/invoice/domain"
	"github.com/teo1264/enel-system/internal/invoice/extract"
	ledger "github.com/teo1264/enel-system/internal/ledger/domain"
	"github.com/teo1264/enel-system/internal/observability/metrics"
	registry "github.com/teo1264/enel-system/internal/registry/domain"
)

// TextReader extracts the text layer of a document on disk.
type TextReader func(path string) (string, error)

// AlertNotifier delivers high consumption alerts. Delivery is best
// effort: failures are logged, never fail the run.
type AlertNotifier interface {
	HighConsumption(ctx context.Context, o Outcome) error
}

// Clock provides time for accepted-at stamps.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

const defaultWorkers = 4

// Processor runs the pipeline. Text extraction fans out to a worker
// pool; ledger acceptance, history updates and summary aggregation
// run strictly in input order, so the first document wins every
// duplicate race deterministically.
type Processor struct {
	reader    TextReader
	extractor *extract.Extractor
	table     *registry.Table
	ledger    ledger.Store
	history   baseline.HistoryStore
	engine    *baseline.Engine
	alerts    AlertNotifier
	clock     Clock
	workers   int
	logger    *log.Logger
}

// Option configures the processor.
type Option func(*Processor)

// WithWorkers sets the text extraction pool size.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(p *Processor) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithEngine overrides the default scoring engine.
func WithEngine(e *baseline.Engine) Option {
	return func(p *Processor) {
		if e != nil {
			p.engine = e
		}
	}
}

// WithAlertNotifier attaches an alert sink.
func WithAlertNotifier(n AlertNotifier) Option {
	return func(p *Processor) {
		p.alerts = n
	}
}

// WithTextReader overrides the PDF text reader.
func WithTextReader(r TextReader) Option {
	return func(p *Processor) {
		if r != nil {
			p.reader = r
		}
	}
}

// NewProcessor constructs a processor. The registry table, ledger
// store and history store are required.
func NewProcessor(table *registry.Table, ledgerStore ledger.Store, historyStore baseline.HistoryStore, logger *log.Logger, opts ...Option) (*Processor, error) {
	if table == nil {
		return nil, errors.New("batch: nil registry table")
	}
	if ledgerStore == nil {
		return nil, errors.New("batch: nil ledger store")
	}
	if historyStore == nil {
		return nil, errors.New("batch: nil history store")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	p := &Processor{
		reader:    extract.ReadPDFText,
		extractor: extract.NewExtractor(),
		table:     table,
		ledger:    ledgerStore,
		history:   historyStore,
		engine:    baseline.NewEngine(),
		clock:     realClock{},
		workers:   defaultWorkers,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// extraction is the stage-one result for one input file.
type extraction struct {
	done    bool
	record  invoice.InvoiceRecord
	failure *extract.Failure
}

// Run processes files against period. Cancellation stops the run
// between documents and yields a summary marked partial, covering
// only the documents already decided.
func (p *Processor) Run(ctx context.Context, period invoice.BillingPeriod, files []string) (Summary, error) {
	startedAt := p.clock.Now()
	p.logger.Printf("batch run started: period=%s documents=%d", period, len(files))

	extracted := p.extractAll(ctx, files)

	detector, err := p.seedDetector(ctx, period, extracted)
	if err != nil {
		return Summary{}, err
	}

	outcomes := make([]Outcome, 0, len(files))
	partial := false
	for i, file := range files {
		if ctx.Err() != nil {
			partial = true
			break
		}
		ex := extracted[i]
		if !ex.done {
			partial = true
			break
		}
		outcome := p.decide(ctx, detector, ex, file)
		outcomes = append(outcomes, outcome)
		metrics.IncDocument(string(outcome.Status))
		switch outcome.Status {
		case StatusDuplicate:
			metrics.IncDuplicate(outcome.DuplicateReason)
			p.logger.Printf("duplicate: file=%s reason=%s", file, outcome.DuplicateReason)
		case StatusFailed:
			p.logger.Printf("failed: file=%s field=%s reason=%s", file, outcome.FailureField, outcome.FailureReason)
		case StatusAccepted:
			if outcome.Unmapped {
				metrics.IncUnmapped()
			}
			if outcome.Alerting() {
				metrics.IncAlert()
				p.notify(ctx, outcome)
			}
		}
	}

	finishedAt := p.clock.Now()
	summary := BuildSummary(period, outcomes, p.table, startedAt, finishedAt, partial)

	result := metrics.ResultSuccess
	if partial {
		result = metrics.ResultPartial
	}
	metrics.ObserveRun(result, finishedAt.Sub(startedAt), finishedAt)
	metrics.SetMissingSites(len(summary.MissingSites))
	p.logger.Printf("batch run finished: run=%s period=%s total=%d accepted=%d duplicates=%d failed=%d unmapped=%d alerts=%d missing=%d partial=%v",
		summary.RunID, period, summary.Total, summary.Accepted, summary.Duplicates, summary.Failed,
		summary.Unmapped, summary.Alerts, len(summary.MissingSites), summary.Partial)
	return summary, nil
}

// extractAll runs stage one: concurrent read and field extraction.
// Results are indexed by input position; stage two consumes them in
// input order.
func (p *Processor) extractAll(ctx context.Context, files []string) []extraction {
	results := make([]extraction, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := p.workers
	if workers > len(files) {
		workers = len(files)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.extractOne(files[i])
			}
		}()
	}

dispatch:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (p *Processor) extractOne(file string) extraction {
	start := time.Now()
	defer func() { metrics.ObserveExtract(time.Since(start)) }()

	text, err := p.reader(file)
	if err != nil {
		return extraction{done: true, failure: &extract.Failure{
			Field:  "document",
			Reason: extract.ReasonUnreadable,
		}}
	}
	rec, failure := p.extractor.Parse(text, file)
	return extraction{done: true, record: rec, failure: failure}
}

// seedDetector loads persisted ledger entries for every period that
// appears in the batch, so cross-run duplicates are caught.
func (p *Processor) seedDetector(ctx context.Context, period invoice.BillingPeriod, extracted []extraction) (*ledger.Detector, error) {
	periods := map[string]invoice.BillingPeriod{period.Key(): period}
	for _, ex := range extracted {
		if ex.done && ex.failure == nil && !ex.record.Period.IsZero() {
			periods[ex.record.Period.Key()] = ex.record.Period
		}
	}
	var entries []ledger.Entry
	for _, per := range periods {
		list, err := p.ledger.List(ctx, per)
		if err != nil {
			return nil, err
		}
		entries = append(entries, list...)
	}
	return ledger.NewDetector(entries), nil
}

// decide runs stage two for one document: reconcile, deduplicate,
// persist and score.
func (p *Processor) decide(ctx context.Context, detector *ledger.Detector, ex extraction, file string) Outcome {
	if ex.failure != nil {
		return Outcome{
			SourceFile:    file,
			Status:        StatusFailed,
			FailureField:  ex.failure.Field,
			FailureReason: ex.failure.Reason,
		}
	}
	rec := ex.record
	outcome := Outcome{SourceFile: file, Record: &rec}

	if entry, ok := p.table.Lookup(rec.AccountID); ok {
		outcome.SiteName = entry.SiteName
	} else {
		outcome.Unmapped = true
	}

	if reason, dup := detector.Check(rec); dup {
		outcome.Status = StatusDuplicate
		outcome.DuplicateReason = reason
		return outcome
	}

	acceptedAt := p.clock.Now()
	if err := p.ledger.Append(ctx, ledger.FromRecord(rec, acceptedAt)); err != nil {
		if errors.Is(err, ledger.ErrAlreadyAccepted) {
			outcome.Status = StatusDuplicate
			outcome.DuplicateReason = ledger.ReasonAccountBilled
			return outcome
		}
		outcome.Status = StatusFailed
		outcome.FailureField = "ledger"
		outcome.FailureReason = err.Error()
		return outcome
	}
	detector.Note(rec)
	outcome.Status = StatusAccepted

	history, err := p.history.Load(ctx, rec.AccountID)
	if err != nil {
		p.logger.Printf("history load failed: account=%s err=%v", rec.AccountID, err)
		return outcome
	}
	assessment := p.engine.Assess(history, rec.Period, rec.ConsumptionKWh)
	outcome.Assessment = &assessment

	point := baseline.Point{Period: rec.Period, ConsumptionKWh: rec.ConsumptionKWh}
	if err := p.history.Record(ctx, rec.AccountID, point); err != nil {
		p.logger.Printf("history record failed: account=%s err=%v", rec.AccountID, err)
	}
	return outcome
}

func (p *Processor) notify(ctx context.Context, o Outcome) {
	if p.alerts == nil {
		return
	}
	if err := p.alerts.HighConsumption(ctx, o); err != nil {
		metrics.IncNotify(metrics.ResultError)
		p.logger.Printf("alert notification failed: file=%s err=%v", o.SourceFile, err)
		return
	}
	metrics.IncNotify(metrics.ResultSuccess)
}
