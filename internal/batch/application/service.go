// Package application coordinates pipeline runs: registry loading,
// document discovery, processing and report generation.
package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	baseline "github.com/teo1264/enel-system/internal/baseline/domain"
	"github.com/teo1264/enel-system/internal/batch"
	"github.com/teo1264/enel-system/internal/config"
	invoice "github.com/teo1264/enel-system/internal/invoice/domain"
	ledger "github.com/teo1264/enel-system/internal/ledger/domain"
	"github.com/teo1264/enel-system/internal/observability/metrics"
	registry "github.com/teo1264/enel-system/internal/registry/domain"
	registryexcel "github.com/teo1264/enel-system/internal/registry/infrastructure/excel"
	"github.com/teo1264/enel-system/internal/report"
)

// ErrRunInProgress is returned when a run is already executing.
var ErrRunInProgress = errors.New("pipeline: run already in progress")

// ErrNoSummary is returned when no run has completed yet.
var ErrNoSummary = errors.New("pipeline: no completed run")

// RegistryLoader loads the site registry.
type RegistryLoader interface {
	Load(path string) (*registry.Table, error)
}

// Service owns the pipeline lifecycle. Runs are serialized: invoices
// for a period must settle into the ledger one batch at a time.
type Service struct {
	cfg      config.Config
	loader   RegistryLoader
	ledger   ledger.Store
	history  baseline.HistoryStore
	notifier batch.AlertNotifier
	logger   *log.Logger

	mu      sync.Mutex
	table   *registry.Table
	latest  *batch.Summary
	running bool
}

// NewService constructs the service and loads the registry. A
// registry that fails to load is fatal: no pipeline can run without
// it.
func NewService(cfg config.Config, loader RegistryLoader, ledgerStore ledger.Store, historyStore baseline.HistoryStore, notifier batch.AlertNotifier, logger *log.Logger) (*Service, error) {
	if loader == nil {
		loader = &registryexcel.Loader{Sheet: cfg.RegistrySheet}
	}
	if ledgerStore == nil {
		return nil, errors.New("pipeline: nil ledger store")
	}
	if historyStore == nil {
		return nil, errors.New("pipeline: nil history store")
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Service{
		cfg:      cfg,
		loader:   loader,
		ledger:   ledgerStore,
		history:  historyStore,
		notifier: notifier,
		logger:   logger,
	}
	if err := s.ReloadRegistry(); err != nil {
		return nil, err
	}
	return s, nil
}

// ReloadRegistry re-reads the registry workbook.
func (s *Service) ReloadRegistry() error {
	table, err := s.loader.Load(s.cfg.RegistryPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.table = table
	s.mu.Unlock()
	metrics.SetRegistrySize(table.Len())
	s.logger.Printf("registry loaded: %d sites from %s", table.Len(), s.cfg.RegistryPath)
	return nil
}

// Registry returns the current registry table.
func (s *Service) Registry() *registry.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

// Latest returns the most recent run summary.
func (s *Service) Latest() (batch.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return batch.Summary{}, ErrNoSummary
	}
	return *s.latest, nil
}

// Run executes one pipeline run over the invoice directory for the
// given period and writes the control workbook and PDF report.
func (s *Service) Run(ctx context.Context, period invoice.BillingPeriod) (batch.Summary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return batch.Summary{}, ErrRunInProgress
	}
	s.running = true
	table := s.table
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	files, err := listDocuments(s.cfg.InvoiceDir)
	if err != nil {
		metrics.ObserveRun(metrics.ResultError, 0, time.Time{})
		return batch.Summary{}, err
	}

	engine := &baseline.Engine{ThresholdPct: s.cfg.ThresholdPct, Window: s.cfg.BaselineWindow}
	opts := []batch.Option{
		batch.WithWorkers(s.cfg.Workers),
		batch.WithEngine(engine),
	}
	if s.notifier != nil {
		opts = append(opts, batch.WithAlertNotifier(s.notifier))
	}
	processor, err := batch.NewProcessor(table, s.ledger, s.history, s.logger, opts...)
	if err != nil {
		return batch.Summary{}, err
	}

	summary, err := processor.Run(ctx, period, files)
	if err != nil {
		return batch.Summary{}, err
	}

	s.mu.Lock()
	s.latest = &summary
	s.mu.Unlock()

	s.writeReports(summary)
	return summary, nil
}

// ExportXLSX renders the latest summary as a control workbook.
func (s *Service) ExportXLSX() ([]byte, error) {
	summary, err := s.Latest()
	if err != nil {
		return nil, err
	}
	return report.BuildControlXLSX(summary)
}

// ExportPDF renders the latest summary as a PDF report.
func (s *Service) ExportPDF() ([]byte, error) {
	summary, err := s.Latest()
	if err != nil {
		return nil, err
	}
	return report.BuildRunPDF(summary)
}

// writeReports persists run artifacts to the report directory. Report
// write failures are logged, never fail the run: the summary already
// exists in memory and over the API.
func (s *Service) writeReports(summary batch.Summary) {
	if s.cfg.ReportDir == "" {
		return
	}
	if err := os.MkdirAll(s.cfg.ReportDir, 0o755); err != nil {
		s.logger.Printf("report dir: %v", err)
		return
	}
	key := summary.Period.Key()

	start := time.Now()
	data, err := report.BuildControlXLSX(summary)
	if err == nil {
		err = os.WriteFile(filepath.Join(s.cfg.ReportDir, fmt.Sprintf("controle_%s.xlsx", key)), data, 0o644)
	}
	if err != nil {
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(start))
		s.logger.Printf("control workbook: %v", err)
	} else {
		metrics.ObserveExport("xlsx", metrics.ResultSuccess, time.Since(start))
	}

	start = time.Now()
	data, err = report.BuildRunPDF(summary)
	if err == nil {
		err = os.WriteFile(filepath.Join(s.cfg.ReportDir, fmt.Sprintf("run_%s.pdf", key)), data, 0o644)
	}
	if err != nil {
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(start))
		s.logger.Printf("run report: %v", err)
	} else {
		metrics.ObserveExport("pdf", metrics.ResultSuccess, time.Since(start))
	}
}

// listDocuments returns the PDF files of the invoice directory in
// name order, which fixes the first-wins order for duplicates. A
// missing directory yields an empty run, not an error.
func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
