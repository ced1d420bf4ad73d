package utils

import (
	"context"

	"github.com/amand4priscil4/DetectaBB-Backend-3/appctx"
)

var (
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyAnalysisId    = appctx.ContextKeyAnalysisId
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.WithString(ctx, ContextKeyCorrelationId, correlationId)
}

func GetAnalysisIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyAnalysisId)
}

func SetAnalysisIdInContext(ctx context.Context, analysisId string) context.Context {
	return appctx.WithString(ctx, ContextKeyAnalysisId, analysisId)
}
