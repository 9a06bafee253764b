package grpc

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/services/svc-matching/internal/config"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	MetadataKeyRequestID     = "request-id"
	MetadataKeyCorrelationID = "correlation-id"
	MetadataKeyCompanyID     = "company-id"

	healthServicePrefix = "/grpc.health.v1.Health/"
)

// ContextExtractorInterceptor copies request, correlation and company ids
// from incoming metadata into the context keys the logger reads. A missing
// request id is generated.
func ContextExtractorInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		var requestID string

		if md, ok := metadata.FromIncomingContext(ctx); ok {
			requestID = first(md, MetadataKeyRequestID)

			if correlationID := first(md, MetadataKeyCorrelationID); correlationID != "" {
				ctx = context.WithValue(ctx, logger.ContextKeyCorrelationID, correlationID)
			}

			if companyID := first(md, MetadataKeyCompanyID); companyID != "" {
				ctx = context.WithValue(ctx, logger.ContextKeyCompanyID, companyID)
			}
		}

		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = context.WithValue(ctx, logger.ContextKeyRequestID, requestID)

		return handler(ctx, req)
	}
}

func GetRequestID(ctx context.Context) string {
	return contextString(ctx, logger.ContextKeyRequestID)
}

func GetCorrelationID(ctx context.Context) string {
	return contextString(ctx, logger.ContextKeyCorrelationID)
}

// AccessLogInterceptor writes one line per call with the ids the logger
// finds in ctx. Caller mistakes log at warn, everything else that failed at
// error.
func AccessLogInterceptor(log logger.Logger, cfg config.AccessLog) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !cfg.Enabled || (!cfg.LogHealthChecks && isHealthCheck(info.FullMethod)) {
			return handler(ctx, req)
		}

		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		reqLog := log.WithContext(ctx)

		var event *zerolog.Event

		switch {
		case err == nil:
			event = reqLog.Info()
		case isCallerError(code):
			event = reqLog.Warn()
		default:
			event = reqLog.Error()
		}

		event = event.
			Str("method", info.FullMethod).
			Str("grpc_code", code.String()).
			Dur("duration", time.Since(start))

		if cfg.IncludeMetadata {
			if md, ok := metadata.FromIncomingContext(ctx); ok {
				event = event.Any("metadata", sanitizeMetadata(md))
			}
		}

		if err != nil {
			event.Str("error", status.Convert(err).Message()).Msg("gRPC request failed")

			return resp, err
		}

		event.Msg("gRPC request completed")

		return resp, nil
	}
}

func contextString(ctx context.Context, key any) string {
	if value, ok := ctx.Value(key).(string); ok {
		return value
	}

	return ""
}

func first(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}

	return ""
}

func isHealthCheck(fullMethod string) bool {
	return strings.HasPrefix(fullMethod, healthServicePrefix)
}

func isCallerError(code codes.Code) bool {
	switch code {
	case codes.InvalidArgument, codes.NotFound, codes.FailedPrecondition:
		return true
	default:
		return false
	}
}

var sensitiveMetadata = []string{"authorization", "api-key", "cookie"}

// sanitizeMetadata flattens md for logging. Credentials are redacted and
// transport pseudo headers dropped.
func sanitizeMetadata(md metadata.MD) map[string]string {
	sanitized := make(map[string]string, len(md))

	for key, values := range md {
		key = strings.ToLower(key)

		switch {
		case strings.HasPrefix(key, ":"):
			continue
		case slices.Contains(sensitiveMetadata, key):
			sanitized[key] = "[REDACTED]"
		case len(values) > 0:
			sanitized[key] = strings.Join(values, ",")
		}
	}

	return sanitized
}
