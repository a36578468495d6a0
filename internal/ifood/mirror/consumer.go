package mirror

import (
	"context"
	"encoding/json"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/comandahub/comanda-backend/internal/ifood/feed"
	ifoodorders "github.com/comandahub/comanda-backend/internal/ifood/orders"
	pkgerrors "github.com/comandahub/comanda-backend/pkg/errors"
	"github.com/comandahub/comanda-backend/pkg/logger"
)

// SnapshotLoader hands the consumer a fresh full state to start from.
type SnapshotLoader interface {
	ListAllActive(ctx context.Context) ([]ifoodorders.OrderView, error)
}

type repoLoader struct {
	repo ifoodorders.Repository
}

// NewRepoLoader adapts the orders repository as a snapshot loader.
func NewRepoLoader(repo ifoodorders.Repository) SnapshotLoader {
	return &repoLoader{repo: repo}
}

func (l *repoLoader) ListAllActive(ctx context.Context) ([]ifoodorders.OrderView, error) {
	rows, err := l.repo.ListAllActive(ctx)
	if err != nil {
		return nil, err
	}
	return ifoodorders.NewOrderViews(rows), nil
}

type ConsumerParams struct {
	Subscription *pubsub.Subscriber
	Cache        *Cache
	Loader       SnapshotLoader
	Logger       *logger.Logger
}

// Consumer keeps the mirror cache fed from the order feed subscription.
type Consumer struct {
	sub    *pubsub.Subscriber
	cache  *Cache
	loader SnapshotLoader
	logg   *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Subscription == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "feed subscription required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cache required")
	}
	if params.Loader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "snapshot loader required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Consumer{
		sub:    params.Subscription,
		cache:  params.Cache,
		loader: params.Loader,
		logg:   params.Logger,
	}, nil
}

// Run rehydrates the cache from a full snapshot, then folds feed changes in
// until the context is cancelled. Changes that raced the snapshot are
// reconciled by the cache's last-write-wins rule.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.Rehydrate(ctx); err != nil {
		return err
	}
	return c.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		var change feed.Change
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			// A poison message would redeliver forever; drop it.
			c.logg.Error(ctx, "decoding feed change", err)
			msg.Ack()
			return
		}
		c.cache.Apply(change)
		msg.Ack()
	})
}

// Rehydrate replaces the entire cache with the loader's current state.
func (c *Consumer) Rehydrate(ctx context.Context) error {
	snapshot, err := c.loader.ListAllActive(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading mirror snapshot")
	}
	c.cache.ReplaceAll(snapshot)
	c.logg.Info(c.logg.WithField(ctx, "orders", len(snapshot)), "mirror cache rehydrated")
	return nil
}
