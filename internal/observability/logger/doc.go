// Package logger provides a process-wide zap logger with request-scoped children.
//
// Init once in the serve command:
//
//	logger.Init(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// Inside handlers and the broker, use the logger carried by the request context:
//
//	logger.From(ctx).Info("registration succeeded", logger.Domain(inst.Domain))
//
// Never pass client secrets or tokens to a field constructor.
package logger
