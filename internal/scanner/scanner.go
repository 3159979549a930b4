package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/pinrecover/internal/extraction"
	"github.com/fyrsmithlabs/pinrecover/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/pinrecover/internal/scanner"

// Result describes one finished scan.
type Result struct {
	// Match is the extraction result. Zero unless Found.
	Match extraction.Match

	// Offset is the absolute input offset of Match.Offset.
	Offset int64

	// BytesRead counts bytes delivered by the reader, including any
	// discarded by a failed read.
	BytesRead int64

	// Windows counts windows handed to the extractor.
	Windows int

	Duration time.Duration

	// Err is nil when a candidate was found, otherwise one of ErrOpen,
	// ErrRead, ErrAlloc or ErrNotFound, possibly wrapped.
	Err error
}

// Found reports whether the scan produced a candidate.
func (r *Result) Found() bool {
	return r.Err == nil && r.Match.Candidate != ""
}

// Outcome returns a stable label for metrics and logs.
func (r *Result) Outcome() string {
	switch {
	case r.Found():
		return "found"
	case errors.Is(r.Err, ErrOpen):
		return "open_error"
	case errors.Is(r.Err, ErrRead):
		return "read_error"
	case errors.Is(r.Err, ErrAlloc):
		return "alloc_error"
	default:
		return "not_found"
	}
}

// Scanner streams inputs through an Extractor in overlapping windows.
//
// A Scanner is safe for concurrent use: each scan owns its window. The
// read limiter, when configured, is shared by all scans.
type Scanner struct {
	cfg       Config
	extractor *extraction.Extractor
	opener    Opener
	logger    *logging.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	limiter   *rate.Limiter
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithOpener replaces the default OSOpener.
func WithOpener(o Opener) Option {
	return func(s *Scanner) {
		if o != nil {
			s.opener = o
		}
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records scans on m. Without it no Prometheus metrics are kept.
func WithMetrics(m *Metrics) Option {
	return func(s *Scanner) {
		s.metrics = m
	}
}

// WithTracer replaces the global OTEL tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scanner) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New creates a Scanner. The overlap must cover ex.MaxSpan().
func New(cfg Config, ex *extraction.Extractor, opts ...Option) (*Scanner, error) {
	if ex == nil || len(ex.Strategies()) == 0 {
		return nil, errors.New("extractor with at least one strategy is required")
	}
	if err := cfg.Validate(ex.MaxSpan()); err != nil {
		return nil, fmt.Errorf("invalid scanner config: %w", err)
	}

	s := &Scanner{
		cfg:       cfg,
		extractor: ex,
		opener:    OSOpener{},
		logger:    logging.NewNop(),
		tracer:    otel.Tracer(instrumentationName),
		limiter:   newLimiter(cfg.ReadRateBytes),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the scanner configuration.
func (s *Scanner) Config() Config {
	return s.cfg
}

// Scan scans the file at path and returns the first candidate. Every
// failure reports ok=false.
func (s *Scanner) Scan(ctx context.Context, path string) (extraction.Candidate, bool) {
	res := s.ScanFile(ctx, path)
	return res.Match.Candidate, res.Found()
}

// ScanFile opens path through the Opener and scans it. The file is closed
// before returning.
func (s *Scanner) ScanFile(ctx context.Context, path string) *Result {
	ctx = logging.WithSource(ctx, path)
	ctx, span := s.tracer.Start(ctx, "scanner.ScanFile")
	defer span.End()
	span.SetAttributes(attribute.String("scan.source", path))

	start := time.Now()
	f, err := s.opener.Open(path)
	if err != nil {
		res := &Result{
			Err:      fmt.Errorf("%w: %s: %w", ErrOpen, path, err),
			Duration: time.Since(start),
		}
		s.finish(ctx, span, res)
		return res
	}
	defer f.Close()

	return s.scan(ctx, span, f, start)
}

// ScanReader scans r until a candidate is found, r is exhausted, or a
// read fails. The caller owns r.
func (s *Scanner) ScanReader(ctx context.Context, r io.Reader) *Result {
	ctx, span := s.tracer.Start(ctx, "scanner.ScanReader")
	defer span.End()
	return s.scan(ctx, span, r, time.Now())
}

func (s *Scanner) scan(ctx context.Context, span trace.Span, r io.Reader, start time.Time) *Result {
	s.metrics.begin()
	defer s.metrics.end()

	res := &Result{}
	defer func() {
		res.Duration = time.Since(start)
		s.finish(ctx, span, res)
	}()

	s.logger.Debug(ctx, "scan started",
		zap.Int("chunk_size", s.cfg.ChunkSize),
		zap.Int("overlap", s.cfg.Overlap),
		zap.Strings("strategies", s.extractor.Names()))

	win, err := allocWindow(s.cfg.ChunkSize + s.cfg.Overlap)
	if err != nil {
		res.Err = err
		return res
	}

	r = throttle(r, s.limiter)

	var (
		valid int
		base  int64 // input offset of win[0]
	)
	for {
		head := 0
		if res.Windows > 0 {
			head = carry(win, valid, s.cfg.Overlap)
			base += int64(valid - head)
		}

		n, err := io.ReadFull(r, win[head:head+s.cfg.ChunkSize])
		res.BytesRead += int64(n)
		last := errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
		if err != nil && !last {
			res.Err = fmt.Errorf("%w at offset %d: %w", ErrRead, base+int64(head), err)
			return res
		}
		if n == 0 {
			res.Err = ErrNotFound
			return res
		}

		valid = head + n
		res.Windows++
		s.logger.Trace(ctx, "window scanned",
			zap.Int64("offset", base),
			zap.Int("length", valid))

		if m, ok := s.extractor.Extract(win[:valid]); ok {
			res.Match = m
			res.Offset = base + int64(m.Offset)
			return res
		}
		if last {
			res.Err = ErrNotFound
			return res
		}
	}
}

func (s *Scanner) finish(ctx context.Context, span trace.Span, res *Result) {
	s.metrics.observe(res)

	outcome := res.Outcome()
	span.SetAttributes(
		attribute.String("scan.outcome", outcome),
		attribute.Int64("scan.bytes_read", res.BytesRead),
		attribute.Int("scan.windows", res.Windows),
	)

	fields := []zap.Field{
		zap.String("outcome", outcome),
		zap.Int64("bytes_read", res.BytesRead),
		zap.Int("windows", res.Windows),
		zap.Duration("duration", res.Duration),
	}

	switch {
	case res.Found():
		span.SetAttributes(
			attribute.String("scan.strategy", res.Match.Strategy),
			attribute.Int64("scan.match_offset", res.Offset),
		)
		s.logger.Info(ctx, "pin candidate found", append(fields,
			zap.String("strategy", res.Match.Strategy),
			zap.Int64("match_offset", res.Offset),
			logging.Candidate("pin", res.Match.Candidate))...)
	case errors.Is(res.Err, ErrNotFound):
		s.logger.Debug(ctx, "pin not found", fields...)
	default:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, outcome)
		s.logger.Warn(ctx, "scan aborted", append(fields, zap.Error(res.Err))...)
	}
}
