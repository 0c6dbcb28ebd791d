package handler

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	authorizationHeader = "authorization"
	bearerPrefix        = "Bearer "
	healthServicePrefix = "/grpc.health.v1.Health/"
)

// RequestObserver は gRPC リクエストの結果を記録します。
type RequestObserver interface {
	ObserveRequest(method, code string, elapsed time.Duration)
}

// AuthInterceptor は authorization メタデータの Bearer トークンを検証します。
// token が空の場合は検証を行いません。ヘルスチェックは常に許可されます。
func AuthInterceptor(token string) grpc.UnaryServerInterceptor {
	expected := []byte(token)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if token == "" || strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			return next(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		values := md.Get(authorizationHeader)
		if len(values) == 0 || !strings.HasPrefix(values[0], bearerPrefix) {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}

		presented := []byte(strings.TrimPrefix(values[0], bearerPrefix))
		if subtle.ConstantTimeCompare(presented, expected) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid bearer token")
		}

		return next(ctx, req)
	}
}

// LoggingInterceptor は 1 リクエストにつき 1 行のアクセスログを出力します。
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		code := status.Code(err)
		logFields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}

		switch code {
		case codes.OK:
			logger.Info("grpc request", logFields...)
		case codes.Internal, codes.Unknown:
			logger.Error("grpc request", append(logFields, zap.Error(err))...)
		default:
			logger.Warn("grpc request", append(logFields, zap.Error(err))...)
		}

		return resp, err
	}
}

// MetricsInterceptor はリクエスト数と所要時間を observer に記録します。
func MetricsInterceptor(observer RequestObserver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		observer.ObserveRequest(info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}
