package streamlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// payloadField is the single hash field every entry is stored under. Redis
// Streams entries are field/value maps; the wire payload is always a full
// JSON envelope, so one field suffices (mirrors the approach in the
// retrieved darshilgit/learning-redis streams example, where each XAdd call
// carries a small flat map — here collapsed to one opaque blob field since
// the payload is already a self-describing envelope).
const payloadField = "payload"

// RedisStore implements StreamLog over Redis Streams. One RedisStore talks
// to exactly one Redis instance, i.e. exactly one plane (spec.md §4.5):
// the compute-plane RedisStore and the trade-plane RedisStore are
// constructed from two separate *redis.Client values and never share one.
type RedisStore struct {
	client *redis.Client
}

var _ StreamLog = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Dial builds a *redis.Client from a connection URL
// (redis://[:password@]host:port/db) and wraps it in a RedisStore.
func Dial(url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("streamlog: parse redis url: %w", err)
	}
	return NewRedisStore(redis.NewClient(opt)), nil
}

func (s *RedisStore) Append(ctx context.Context, stream string, payload []byte) (Offset, error) {
	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{payloadField: payload},
	}).Result()
	if err != nil {
		return "", wrapUnavailable(err)
	}
	return Offset(id), nil
}

func (s *RedisStore) ReadRange(ctx context.Context, stream string, from Offset, limit int) ([]Entry, error) {
	start := "-"
	if from != "" {
		start = string(from)
	}
	msgs, err := s.client.XRangeN(ctx, stream, start, "+", int64(limit)).Result()
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	return toEntries(msgs), nil
}

func (s *RedisStore) CreateGroup(ctx context.Context, stream, group string, start GroupStart, at Offset) error {
	id := "$"
	switch start {
	case StartBeginning:
		id = "0"
	case StartOffset:
		id = string(at)
	case StartEnd:
		id = "$"
	}
	err := s.client.XGroupCreateMkStream(ctx, stream, group, id).Err()
	if err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			return nil // idempotent: group already exists.
		}
		return wrapUnavailable(err)
	}
	return nil
}

func (s *RedisStore) GroupRead(ctx context.Context, stream, group, consumer string, count int, block time.Duration) ([]Entry, error) {
	var blockArg time.Duration
	if block <= 0 {
		blockArg = -1 // non-blocking poll: go-redis treats a negative Block as "return immediately".
	} else {
		blockArg = block
	}

	res, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    int64(count),
		Block:    blockArg,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, wrapUnavailable(err)
	}
	if len(res) == 0 {
		return nil, nil
	}
	return toEntries(res[0].Messages), nil
}

func (s *RedisStore) Ack(ctx context.Context, stream, group string, offset Offset) error {
	if err := s.client.XAck(ctx, stream, group, string(offset)).Err(); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

func (s *RedisStore) ClaimStale(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int) ([]Entry, error) {
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  group,
		Start:  "-",
		End:    "+",
		Count:  int64(count),
		Idle:   minIdle,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, wrapUnavailable(err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		ids = append(ids, p.ID)
	}

	msgs, _, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0",
		Count:    int64(count),
	}).Result()
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	return toEntries(msgs), nil
}

func toEntries(msgs []redis.XMessage) []Entry {
	out := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		v, ok := m.Values[payloadField]
		if !ok {
			continue
		}
		var b []byte
		switch t := v.(type) {
		case string:
			b = []byte(t)
		case []byte:
			b = t
		default:
			continue
		}
		out = append(out, Entry{Offset: Offset(m.ID), Bytes: b})
	}
	return out
}

func wrapUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
