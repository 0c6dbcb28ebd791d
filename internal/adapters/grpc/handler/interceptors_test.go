package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func okHandler(ctx context.Context, req any) (any, error) {
	return "ok", nil
}

func TestAuthInterceptor(t *testing.T) {
	t.Parallel()

	staffingInfo := &grpc.UnaryServerInfo{FullMethod: "/" + ServiceName + "/GetWorker"}
	healthInfo := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	withToken := func(value string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", value))
	}

	tests := []struct {
		name  string
		token string
		ctx   context.Context
		info  *grpc.UnaryServerInfo
		want  codes.Code
	}{
		{name: "disabled", token: "", ctx: context.Background(), info: staffingInfo, want: codes.OK},
		{name: "valid token", token: "secret", ctx: withToken("Bearer secret"), info: staffingInfo, want: codes.OK},
		{name: "missing metadata", token: "secret", ctx: context.Background(), info: staffingInfo, want: codes.Unauthenticated},
		{name: "wrong scheme", token: "secret", ctx: withToken("Basic secret"), info: staffingInfo, want: codes.Unauthenticated},
		{name: "wrong token", token: "secret", ctx: withToken("Bearer nope"), info: staffingInfo, want: codes.Unauthenticated},
		{name: "health exempt", token: "secret", ctx: context.Background(), info: healthInfo, want: codes.OK},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := AuthInterceptor(tc.token)(tc.ctx, nil, tc.info, okHandler)
			if got := status.Code(err); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestLoggingInterceptor(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	interceptor := LoggingInterceptor(zap.New(core))
	info := &grpc.UnaryServerInfo{FullMethod: "/" + ServiceName + "/ChangeEmployer"}

	if _, err := interceptor(context.Background(), nil, info, okHandler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _ = interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "worker: not found")
	})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[0].ContextMap()["code"] != "OK" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Level != zapcore.WarnLevel || entries[1].ContextMap()["code"] != "NotFound" {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
	if entries[1].ContextMap()["method"] != info.FullMethod {
		t.Fatalf("unexpected method %v", entries[1].ContextMap()["method"])
	}
}

type recordedRequest struct {
	method string
	code   string
}

type recordingRequestObserver struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *recordingRequestObserver) ObserveRequest(method, code string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, recordedRequest{method: method, code: code})
}

func TestMetricsInterceptor(t *testing.T) {
	t.Parallel()

	rec := &recordingRequestObserver{}
	interceptor := MetricsInterceptor(rec)
	info := &grpc.UnaryServerInfo{FullMethod: "/" + ServiceName + "/ChangeEmployer"}

	_, _ = interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.Aborted, "worker: concurrent modification")
	})

	if len(rec.requests) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(rec.requests))
	}
	if rec.requests[0] != (recordedRequest{method: info.FullMethod, code: "Aborted"}) {
		t.Fatalf("unexpected observation %+v", rec.requests[0])
	}
}
