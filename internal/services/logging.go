package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
	config LogConfig
}

type LogConfig struct {
	Service     string
	Component   string
	EnableDebug bool
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
		config: config,
	}
}

// operationStatus classifies an operation outcome for the status attribute
func operationStatus(err error) (slog.Level, string) {
	switch {
	case err == nil:
		return slog.LevelInfo, "success"
	case IsValidation(err):
		return slog.LevelWarn, "validation_error"
	case IsPreconditionFailed(err):
		return slog.LevelInfo, "precondition_failed"
	case IsInvalidState(err):
		return slog.LevelWarn, "invalid_state"
	case IsNotEligible(err):
		return slog.LevelWarn, "not_eligible"
	case IsUnauthorized(err):
		return slog.LevelWarn, "unauthorized"
	case IsNotFound(err):
		return slog.LevelInfo, "not_found"
	default:
		return slog.LevelError, "error"
	}
}

// ===== OPERATION LOGGING =====

func (l *ServiceLogger) LogOperation(ctx context.Context, operation, learnerID, resourceID, resourceType string, duration time.Duration, err error) {
	level, status := operationStatus(err)

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("learner_id", learnerID),
		slog.String("resource_id", resourceID),
		slog.String("resource_type", resourceType),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))

		var validationErr ValidationErrors
		var permErr *PermissionError
		if errors.As(err, &validationErr) {
			attrs = append(attrs, slog.Int("validation_errors_count", len(validationErr)))
		} else if errors.As(err, &permErr) {
			attrs = append(attrs, slog.String("permission_action", permErr.Action))
		} else if reason := PreconditionReason(err); reason != "" {
			attrs = append(attrs, slog.String("reason", reason))
		}
	}

	// Caller information only matters for unexpected failures
	if level == slog.LevelError {
		if pc, file, line, ok := runtime.Caller(2); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				attrs = append(attrs,
					slog.String("caller_func", fn.Name()),
					slog.String("caller_file", file),
					slog.Int("caller_line", line),
				)
			}
		}
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), attrs...)
}

func (l *ServiceLogger) Debug(ctx context.Context, msg string, args ...any) {
	if l.config.EnableDebug {
		l.logger.DebugContext(ctx, msg, args...)
	}
}

// ===== MIDDLEWARE AND HELPERS =====

// ContextualLogger wraps operations with automatic logging
type ContextualLogger struct {
	logger    *ServiceLogger
	operation string
	learnerID string
	startTime time.Time
	ctx       context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation, learnerID string) *ContextualLogger {
	return &ContextualLogger{
		logger:    l,
		operation: operation,
		learnerID: learnerID,
		startTime: time.Now(),
		ctx:       ctx,
	}
}

func (cl *ContextualLogger) LogResult(resourceID, resourceType string, err error) {
	cl.logger.LogOperation(cl.ctx, cl.operation, cl.learnerID, resourceID, resourceType, time.Since(cl.startTime), err)
}
