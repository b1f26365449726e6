package cache

import (
	"context"
	"fmt"

	"github.com/masmgr/vcsview-go/config"
)

// NewStoreFromConfig creates a Store based on the cache config type. A nil
// Store means caching is disabled. The returned close func releases any
// resources the store holds and is never nil.
func NewStoreFromConfig(ctx context.Context, cfg config.CacheConfig) (Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Type {
	case "", "none":
		return nil, noop, nil
	case "memory":
		return NewMemoryStore(), noop, nil
	case "filesystem":
		if cfg.Dir == "" {
			return nil, noop, fmt.Errorf("filesystem cache requires dir to be set")
		}
		s, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, noop, fmt.Errorf("sqlite cache requires path to be set")
		}
		s, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case "s3":
		s, err := NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache type: %s", cfg.Type)
	}
}
