package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gastro-elite/backend/internal/logger"
	"github.com/gastro-elite/backend/internal/metrics"
)

const emailTimeout = 30 * time.Second

// dispatch runs send in the background. The request may finish before the
// mail is delivered, so the goroutine keeps the request's values but not its
// cancellation.
func dispatch(ctx context.Context, kind string, send func(context.Context) error) {
	bg := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(bg, emailTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			metrics.ObserveEmail(kind, "error")
			logger.Error(ctx, "failed to send email", zap.String("email", kind), zap.Error(err))
			return
		}
		metrics.ObserveEmail(kind, "success")
	}()
}
