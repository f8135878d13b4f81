package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/storefront_backend/appctx"
)

var (
	ContextKeyOperatorId    = appctx.ContextKeyOperatorId
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetOperatorIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyOperatorId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetOperatorIdInContext(ctx context.Context, operatorId int) context.Context {
	return appctx.Set(ctx, ContextKeyOperatorId, operatorId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}
