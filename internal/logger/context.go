package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	teamIDKey    ctxKey = "team_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithTeam tags every log line produced through FromCtx with the team id.
// It is a logging concern only; services always take the team id as a parameter.
func WithTeam(ctx context.Context, teamID int64) context.Context {
	return context.WithValue(ctx, teamIDKey, teamID)
}

// FromCtx returns the global logger enriched with request_id and team_id.
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if teamID, ok := ctx.Value(teamIDKey).(int64); ok {
		l = l.With(zap.Int64("team_id", teamID))
	}
	return l
}
