package serviceutil

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/otelconnect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const shutdownTimeout = 10 * time.Second

// SignalContext returns a context that is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// StartHttpServer serves handler over h2c, with a /healthz endpoint next to
// it, until ctx is cancelled. The server is then shut down gracefully.
func StartHttpServer(ctx context.Context, port int, handler http.Handler) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Handle("/", handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			slog.Warn("http server did not shut down cleanly", "err", err.Error())
		}
	}()

	slog.Info("serving connect requests", "addr", server.Addr)
	err := server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}

func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

// ProvideAccessTokenInterceptor attaches a bearer token to outgoing requests.
func ProvideAccessTokenInterceptor(accessToken string) connect.UnaryInterceptorFunc {
	header := "Bearer " + accessToken
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Set("Authorization", header)
			return next(ctx, req)
		}
	}
}

// VerifyAccessTokenInterceptor rejects requests without the given bearer
// token, an empty token disables the check.
func VerifyAccessTokenInterceptor(accessToken string) connect.UnaryInterceptorFunc {
	expected := []byte(accessToken)
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		if accessToken == "" {
			return next
		}
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			token, ok := strings.CutPrefix(req.Header().Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("invalid access token"))
			}
			return next(ctx, req)
		}
	}
}

func NewConnectOtelInterceptor() (*otelconnect.Interceptor, error) {
	return otelconnect.NewInterceptor(
		otelconnect.WithTrustRemote(),
		otelconnect.WithoutServerPeerAttributes(),
	)
}
