package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/netprof/netprof/pkg/snapshot"
	"github.com/netprof/netprof/pkg/util"
)

// Redis key layout:
//
//	netprof:snapshot:<id>  hash {data, source, count, saved_at}
//	netprof:snapshots      sorted set of ids scored by save time (unix seconds)
const (
	snapshotKeyPrefix = "netprof:snapshot:"
	indexKey          = "netprof:snapshots"
)

func snapshotKey(id string) string {
	return snapshotKeyPrefix + id
}

// Info describes a stored snapshot.
type Info struct {
	ID      string
	SavedAt time.Time
	Source  string
	Count   int
}

// RedisStore keeps snapshots in Redis.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", addr, err)
	}
	return NewRedisStore(client), nil
}

// Close closes the connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Save stores records under a new id and returns it.
func (s *RedisStore) Save(ctx context.Context, source string, records []snapshot.Record) (string, error) {
	var buf bytes.Buffer
	if err := snapshot.WriteJSON(&buf, records); err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	id := uuid.NewString()
	savedAt := s.now().UTC()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, snapshotKey(id),
		"data", buf.String(),
		"source", source,
		"count", len(records),
		"saved_at", savedAt.Format(time.RFC3339),
	)
	pipe.ZAdd(ctx, indexKey, &redis.Z{Score: float64(savedAt.Unix()), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("saving snapshot %s: %w", id, err)
	}

	util.WithField("id", id).Debugf("stored %d records", len(records))
	return id, nil
}

// Load returns the snapshot stored under id as a structured snapshot.
func (s *RedisStore) Load(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, util.InvalidInputf("load snapshot", "", "%q is not a snapshot id", id)
	}

	data, err := s.client.HGet(ctx, snapshotKey(id), "data").Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("snapshot %s: %w", id, util.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %s: %w", id, err)
	}

	records, err := snapshot.ReadJSON(bytes.NewBufferString(data))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", id, err)
	}
	snap := snapshot.NewStructured(records)
	snap.Source = "redis:" + id
	return snap, nil
}

// List returns stored snapshots, newest first.
func (s *RedisStore) List(ctx context.Context) ([]Info, error) {
	members, err := s.client.ZRevRangeWithScores(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.SliceCmd, len(members))
	for i, m := range members {
		cmds[i] = pipe.HMGet(ctx, snapshotKey(fmt.Sprint(m.Member)), "source", "count")
	}
	if len(members) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("listing snapshots: %w", err)
		}
	}

	infos := make([]Info, 0, len(members))
	for i, m := range members {
		info := Info{
			ID:      fmt.Sprint(m.Member),
			SavedAt: time.Unix(int64(m.Score), 0).UTC(),
		}
		vals := cmds[i].Val()
		if len(vals) == 2 {
			if src, ok := vals[0].(string); ok {
				info.Source = src
			}
			if cnt, ok := vals[1].(string); ok {
				info.Count, _ = strconv.Atoi(cnt)
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}
