// Package backup writes scheduled CSV snapshots of a repository.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"rehabinv-cli/internal/export"
	"rehabinv-cli/internal/model"
	"rehabinv-cli/internal/store"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultKeep is how many backup files survive pruning.
const DefaultKeep = 14

const filePrefix = "rehabinv-inventory_"

// Source is what a backup reads from.
type Source interface {
	GetAll(ctx context.Context) ([]model.Item, error)
}

type Scheduler struct {
	cron   *cron.Cron
	src    Source
	dir    string
	spec   string
	keep   int
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Scheduler)

func WithKeep(n int) Option {
	return func(s *Scheduler) { s.keep = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler validates spec (standard 5-field cron) and returns an unstarted scheduler.
func NewScheduler(spec, dir string, src Source, logger *zap.Logger, opts ...Option) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	spec = strings.TrimSpace(spec)
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("backup directory is required")
	}
	s := &Scheduler{
		cron:   cron.New(),
		src:    src,
		dir:    dir,
		spec:   spec,
		keep:   DefaultKeep,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Scheduler) Start() error {
	s.logger.Info("starting backup scheduler", zap.String("schedule", s.spec), zap.String("dir", s.dir))
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("schedule backup: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping backup scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	path, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("backup failed", zap.Error(err))
		return
	}
	s.logger.Info("backup written", zap.String("path", path))
}

// RunOnce writes one CSV snapshot and prunes old ones. It returns the file path.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	items, err := s.src.GetAll(ctx)
	if err != nil {
		return "", fmt.Errorf("read inventory: %w", err)
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, items); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, export.Filename(s.now()))
	if err := store.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := s.prune(); err != nil {
		s.logger.Warn("failed to prune old backups", zap.Error(err))
	}
	return path, nil
}

// prune removes the oldest backups beyond keep. File names sort chronologically.
func (s *Scheduler) prune() error {
	if s.keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasPrefix(n, filePrefix) || !strings.HasSuffix(n, ".csv") {
			continue
		}
		names = append(names, n)
	}
	if len(names) <= s.keep {
		return nil
	}
	sort.Strings(names)
	var errs []error
	for _, n := range names[:len(names)-s.keep] {
		if err := os.Remove(filepath.Join(s.dir, n)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
