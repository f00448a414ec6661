// Package logger builds slog loggers for the broker and provides attribute
// helpers so log keys stay consistent across packages.
//
//	log := logger.New(
//		logger.WithProduction("wspubsub"),
//		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
//	)
//	log.Info("topic created", logger.Component("admin"), logger.Topic("orders"))
//
// Helpers return an empty slog.Attr for nil or empty values, which slog
// drops, so callers can pass optional values without checks:
//
//	log.Warn("delivery failed", logger.Topic(t), logger.ClientID(id), logger.Error(err))
package logger
