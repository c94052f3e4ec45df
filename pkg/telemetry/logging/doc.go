// Package logging builds the structured logger used across tabular.
//
// Loggers wrap log/slog with JSON, text or console output. Fields stored in
// the context with WithRequestID, WithExport and WithTrigger are appended to
// every record logged through a ...Context method, including records logged
// through the *slog.Logger returned by Slog:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	logger.SetDefault()
//
//	ctx = logging.WithExport(ctx, "customers")
//	slog.InfoContext(ctx, "export complete", "rows", 42)
package logging
