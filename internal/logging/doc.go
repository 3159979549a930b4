// Package logging provides structured logging for pinrecover.
//
// # Overview
//
// Logger wraps Zap with:
//   - A Trace level (-2, below Debug) for per-window scanner detail
//   - Stdout output, plus optional OpenTelemetry output via the otelzap bridge
//   - Context field injection (trace_id, scan.id, scan.source, request.id)
//   - PIN redaction at the encoder, by field name and by value pattern
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithScanID(ctx, id)
//	logger.Info(ctx, "pin save found", zap.String("path", path))
//
// Recovered candidates redact themselves when logged with zap.Stringer. A
// field whose key is in the redaction list ("pin", "pin_code", "candidate")
// is replaced with [REDACTED] whatever its value.
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	svc := recovery.New(cfg, recovery.WithLogger(tl.Logger))
//	...
//	tl.AssertLogged(t, zapcore.InfoLevel, "pin recovered")
//	tl.AssertNoValue(t, "1234")
package logging
