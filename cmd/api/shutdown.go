package main

import (
	"context"
	"net/http"
	"time"

	"go-chi-calculator/internal/observability"
)

func waitForShutdown(srv *http.Server, timeout time.Duration) error {
	observability.Logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return srv.Shutdown(ctx)
}
