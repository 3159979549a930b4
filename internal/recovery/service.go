package recovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pinrecover/internal/config"
	"github.com/fyrsmithlabs/pinrecover/internal/extraction"
	"github.com/fyrsmithlabs/pinrecover/internal/logging"
	"github.com/fyrsmithlabs/pinrecover/internal/scanner"
)

// Report describes one recovery attempt.
type Report struct {
	// ScanID correlates logs, traces and API responses for this attempt.
	ScanID string

	// Path is the file that was scanned, or would have been.
	Path string

	// Result is the scan outcome. For a missing save it carries ErrOpen.
	Result *scanner.Result
}

// Found reports whether a PIN was recovered.
func (r *Report) Found() bool {
	return r != nil && r.Result != nil && r.Result.Found()
}

// Candidate returns the recovered PIN, or "" when none was found.
func (r *Report) Candidate() extraction.Candidate {
	if !r.Found() {
		return ""
	}
	return r.Result.Match.Candidate
}

// Service runs recoveries against a Scanner.
type Service struct {
	scanner  *scanner.Scanner
	preparer Preparer
	savePath string
	logger   *logging.Logger
	status   StatusFunc
	newID    func() string
}

// Option configures a Service.
type Option func(*Service)

// WithPreparer sets how the SYSTEM volume is obtained for Recover.
func WithPreparer(p Preparer) Option {
	return func(s *Service) {
		s.preparer = p
	}
}

// WithSavePath overrides the save location relative to the volume root.
func WithSavePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.savePath = path
		}
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStatus registers a progress callback.
func WithStatus(f StatusFunc) Option {
	return func(s *Service) {
		s.status = f
	}
}

// NewService creates a recovery Service.
func NewService(sc *scanner.Scanner, opts ...Option) (*Service, error) {
	if sc == nil {
		return nil, errors.New("scanner is required")
	}
	s := &Service{
		scanner:  sc,
		savePath: config.DefaultSavePath,
		logger:   logging.NewNop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !filepath.IsLocal(filepath.FromSlash(s.savePath)) {
		return nil, fmt.Errorf("save path must be local to the volume root: %s", s.savePath)
	}
	return s, nil
}

// Run prepares the volume, scans the pin save and releases the volume.
// The error is non-nil only when the volume could not be prepared; a
// missing save or an unreadable file is reported on the Report.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	if s.preparer == nil {
		return nil, fmt.Errorf("%w: no preparer configured", ErrVolume)
	}

	ctx, report := s.begin(ctx, "")

	vol, err := s.preparer.Prepare(ctx, s.status)
	if err != nil {
		s.logger.Error(ctx, "failed to prepare SYSTEM volume", zap.Error(err))
		s.status.report(StatusNotFound)
		return nil, err
	}
	defer func() {
		if err := vol.Close(); err != nil {
			s.logger.Warn(ctx, "failed to release SYSTEM volume", zap.Error(err))
		}
	}()

	report.Path = filepath.Join(vol.Root(), filepath.FromSlash(s.savePath))
	ctx = logging.WithSource(ctx, report.Path)

	if _, err := os.Stat(report.Path); err != nil {
		report.Result = &scanner.Result{Err: fmt.Errorf("%w: %w", scanner.ErrOpen, err)}
		s.logger.Warn(ctx, "pin save missing", zap.Error(err))
		s.status.report(StatusSaveMissing)
		s.finish(ctx, report)
		return report, nil
	}
	s.logger.Info(ctx, "found pin save")
	s.status.report(StatusFoundSave)

	report.Result = s.scanner.ScanFile(ctx, report.Path)
	s.finish(ctx, report)
	return report, nil
}

// Recover runs the full flow and collapses every failure to ok=false.
func (s *Service) Recover(ctx context.Context) (extraction.Candidate, bool) {
	report, err := s.Run(ctx)
	if err != nil {
		return "", false
	}
	return report.Candidate(), report.Found()
}

// ScanFile scans a single file that is already readable.
func (s *Service) ScanFile(ctx context.Context, path string) *Report {
	ctx, report := s.begin(ctx, path)
	report.Result = s.scanner.ScanFile(ctx, path)
	s.finish(ctx, report)
	return report
}

// ScanReader scans an already open stream. name labels it in logs.
func (s *Service) ScanReader(ctx context.Context, name string, r io.Reader) *Report {
	ctx, report := s.begin(ctx, name)
	report.Result = s.scanner.ScanReader(ctx, r)
	s.finish(ctx, report)
	return report
}

// RecoverFile scans path and returns the first candidate.
func (s *Service) RecoverFile(ctx context.Context, path string) (extraction.Candidate, bool) {
	report := s.ScanFile(ctx, path)
	return report.Candidate(), report.Found()
}

func (s *Service) begin(ctx context.Context, path string) (context.Context, *Report) {
	report := &Report{ScanID: s.newID(), Path: path}
	ctx = logging.WithScanID(ctx, report.ScanID)
	if path != "" {
		ctx = logging.WithSource(ctx, path)
	}
	return ctx, report
}

func (s *Service) finish(ctx context.Context, report *Report) {
	if report.Found() {
		s.status.report(StatusFound)
		return
	}
	s.logger.Info(ctx, "pin not found", zap.String("reason", report.Result.Outcome()))
	s.status.report(StatusNotFound)
}

var (
	defaultService     *Service
	defaultServiceErr  error
	defaultServiceOnce sync.Once
)

// Recover scans the file at path with the default configuration.
func Recover(ctx context.Context, path string) (extraction.Candidate, bool) {
	defaultServiceOnce.Do(func() {
		var sc *scanner.Scanner
		sc, defaultServiceErr = scanner.New(scanner.DefaultConfig(), extraction.Default())
		if defaultServiceErr == nil {
			defaultService, defaultServiceErr = NewService(sc)
		}
	})
	if defaultServiceErr != nil {
		return "", false
	}
	return defaultService.RecoverFile(ctx, path)
}
