// Package logger builds the service's slog.Logger: JSON or text output,
// service attributes, and a handler decorator that injects request-scoped
// attributes (request ID, tenant ID) from context into every log line.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "webhookd"),
//		logger.WithContextExtractors(
//			requestid.LoggerExtractor(),
//			tenant.LoggerExtractor(),
//		),
//	)
//	logger.SetAsDefault(log)
//
// With the extractors installed, a plain log.InfoContext(ctx, ...) inside a
// bound request automatically carries tenant_id and request_id.
package logger
