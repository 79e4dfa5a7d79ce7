// Package logger builds *slog.Logger instances with functional options and
// keeps attribute naming consistent across the service.
//
// New picks a text or JSON handler, applies static attributes and wraps the
// handler with LogHandlerDecorator, which runs registered ContextExtractor
// callbacks (for example the request id extractor) on every record.
//
// # Usage
//
//	log := logger.New(
//		logger.WithLevelName(cfg.LogLevel),
//		logger.WithEnvironment(cfg.Env, "authd"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "otp issued",
//		logger.Component("otp"),
//		logger.Email(email),
//		logger.Purpose(purpose),
//	)
//
// Attribute helpers in attr.go cover the auth domain: Email, Purpose,
// Action, ClientIP, Reason and Provider, next to the generic Error,
// UserID, RequestID, Component and Event.
package logger
