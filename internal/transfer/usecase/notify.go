package usecase

import (
	"context"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/feed"
	"github.com/fekuna/mystery-kit-service/internal/metrics"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"go.uber.org/zap"
)

// notifier publishes change events after a successful write. A failed publish
// never fails the write; watchers catch up on their next refetch.
type notifier struct {
	publisher feed.Publisher
	metrics   *metrics.Metrics
	logger    logger.ZapLogger
}

func (n notifier) notify(ctx context.Context, ev feed.Event) {
	if n.publisher == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if err := n.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		n.metrics.FeedPublishFailed()
		n.logger.Warn("Failed to publish change event",
			zap.String("organization_id", ev.OrganizationID),
			zap.String("kind", string(ev.Kind)),
			zap.Error(err),
		)
	}
}
