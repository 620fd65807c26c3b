package export

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	errs "github.com/matzehuels/menuboard/pkg/errors"
	"github.com/matzehuels/menuboard/pkg/observability"
)

const (
	redisLatestKey   = "menuboard:latest"
	redisArtifactKey = "menuboard:artifact:"
)

// RedisConfig configures a [RedisStore].
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL bounds how long artifacts are kept; 0 keeps them forever.
	TTL time.Duration
}

// RedisStore keeps artifacts in Redis under menuboard:artifact:<name> and
// the name of the newest one under menuboard:latest.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errs.Wrap(errs.ErrCodeUpstream, err, "connect to redis at %s", cfg.Addr)
	}
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

// Save implements Store. The artifact and the latest pointer are written in
// one transaction.
func (s *RedisStore) Save(ctx context.Context, a Artifact) error {
	if _, err := ParseFileName(a.Name); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisArtifactKey+a.Name, a.Data, s.ttl)
		pipe.Set(ctx, redisLatestKey, a.Name, s.ttl)
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.ErrCodeUpstream, err, "save %s to redis", a.Name)
	}
	observability.Store().OnSave(ctx, "redis", len(a.Data))
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, name string) (Artifact, error) {
	created, err := ParseFileName(name)
	if err != nil {
		return Artifact{}, err
	}
	data, err := s.client.Get(ctx, redisArtifactKey+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return Artifact{}, notFound(name)
	}
	if err != nil {
		return Artifact{}, errs.Wrap(errs.ErrCodeUpstream, err, "read %s from redis", name)
	}
	return Artifact{Name: name, ContentType: ContentTypePNG, Data: data, CreatedAt: created}, nil
}

// Latest implements Store.
func (s *RedisStore) Latest(ctx context.Context) (Artifact, error) {
	name, err := s.client.Get(ctx, redisLatestKey).Result()
	if errors.Is(err, redis.Nil) {
		observability.Store().OnLatest(ctx, "redis", false)
		return Artifact{}, notFound("")
	}
	if err != nil {
		return Artifact{}, errs.Wrap(errs.ErrCodeUpstream, err, "read latest export from redis")
	}
	observability.Store().OnLatest(ctx, "redis", true)
	return s.Get(ctx, name)
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
