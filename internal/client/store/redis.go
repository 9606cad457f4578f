package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mzaverin/dropspace/internal/client/models"
	"github.com/mzaverin/dropspace/internal/common"
	"github.com/mzaverin/dropspace/internal/logging"
)

var tracer = otel.Tracer("dropspace/store")

// RedisStore keeps each collection in a Redis hash keyed by record id and
// signals changes over pub/sub. Subscribers re-fetch the full set on every
// signal, matching the full-snapshot contract.
type RedisStore struct {
	client *redis.Client
	logger logging.Logger
}

func NewRedis(client *redis.Client, logger logging.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func collectionKey(collection string) string {
	return "dropspace:" + collection
}

func channelKey(collection string) string {
	return "dropspace:" + collection + ":events"
}

// serverNow reads the Redis server clock, so uploadedAt never depends on a
// possibly skewed client clock.
func (s *RedisStore) serverNow(ctx context.Context) (time.Time, error) {
	return s.client.Time(ctx).Result()
}

func (s *RedisStore) Create(ctx context.Context, collection string, rec *models.MetadataRecord) error {
	ctx, span := tracer.Start(ctx, "store.create",
		trace.WithAttributes(
			attribute.String("collection", collection),
			attribute.String("record_id", rec.ID),
			attribute.String("file_name", rec.FileName),
		),
	)
	defer span.End()

	now, err := s.serverNow(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: reading server time: %v", common.ErrWrite, err)
	}
	rec.UploadedAt = now.UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: encoding record: %v", common.ErrWrite, err)
	}

	if err := s.client.HSet(ctx, collectionKey(collection), rec.ID, data).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", common.ErrWrite, err)
	}

	// The record is durable at this point. A lost change signal only delays
	// other subscribers until their next refresh, so it is not a write error.
	if err := s.client.Publish(ctx, channelKey(collection), rec.ID).Err(); err != nil {
		s.logger.Warn(ctx, "change notification failed", "collection", collection, "record_id", rec.ID, "error", err)
	}
	return nil
}

func (s *RedisStore) Subscribe(ctx context.Context, collection string) (Subscription, error) {
	pubsub := s.client.Subscribe(ctx, channelKey(collection))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrSync, err)
	}

	sub := &redisSubscription{
		snapshots: make(chan []models.MetadataRecord, 1),
		errs:      make(chan error, 1),
		done:      make(chan struct{}),
		pubsub:    pubsub,
	}
	go sub.run(ctx, s, collection)
	return sub, nil
}

// fetchAll reads the complete current set for a collection.
func (s *RedisStore) fetchAll(ctx context.Context, collection string) ([]models.MetadataRecord, error) {
	ctx, span := tracer.Start(ctx, "store.fetch_all",
		trace.WithAttributes(attribute.String("collection", collection)),
	)
	defer span.End()

	raw, err := s.client.HGetAll(ctx, collectionKey(collection)).Result()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	recs := make([]models.MetadataRecord, 0, len(raw))
	for id, data := range raw {
		var rec models.MetadataRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			s.logger.Warn(ctx, "skipping undecodable record", "collection", collection, "record_id", id, "error", err)
			continue
		}
		rec.ID = id
		recs = append(recs, rec)
	}
	span.SetAttributes(attribute.Int("record_count", len(recs)))
	return recs, nil
}

type redisSubscription struct {
	snapshots chan []models.MetadataRecord
	errs      chan error
	done      chan struct{}
	once      sync.Once
	pubsub    *redis.PubSub
}

func (sub *redisSubscription) run(ctx context.Context, s *RedisStore, collection string) {
	defer close(sub.snapshots)

	refresh := func() bool {
		recs, err := s.fetchAll(ctx, collection)
		if err != nil {
			sub.reportErr(fmt.Errorf("%w: %v", common.ErrSync, err))
			return false
		}
		sub.deliver(recs)
		return true
	}

	if !refresh() {
		return
	}

	msgs := sub.pubsub.Channel()
	for {
		select {
		case _, ok := <-msgs:
			if !ok {
				select {
				case <-sub.done:
				default:
					sub.reportErr(fmt.Errorf("%w: change feed closed", common.ErrSync))
				}
				return
			}
			if !refresh() {
				return
			}
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		}
	}
}

// deliver replaces a pending stale snapshot with the newer one instead of
// blocking the feed goroutine.
func (sub *redisSubscription) deliver(recs []models.MetadataRecord) {
	for {
		select {
		case sub.snapshots <- recs:
			return
		default:
			select {
			case <-sub.snapshots:
			default:
			}
		}
	}
}

func (sub *redisSubscription) reportErr(err error) {
	select {
	case sub.errs <- err:
	default:
	}
}

func (sub *redisSubscription) Snapshots() <-chan []models.MetadataRecord { return sub.snapshots }

func (sub *redisSubscription) Errs() <-chan error { return sub.errs }

func (sub *redisSubscription) Unsubscribe() {
	sub.once.Do(func() {
		close(sub.done)
		_ = sub.pubsub.Close()
	})
}
