package workspace

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gestaozabele/painelpregao/internal/config"
	"github.com/gestaozabele/painelpregao/internal/db"
	"github.com/gestaozabele/painelpregao/internal/kv"
)

// Resources guarda as conexões abertas para o backend escolhido.
type Resources struct {
	Backend kv.Backend
	Redis   *redis.Client
	closers []func() error
}

// Close encerra as conexões na ordem inversa de abertura.
func (r *Resources) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// OpenBackend cria o backend de armazenamento configurado.
func OpenBackend(ctx context.Context, cfg config.StoreConfig) (*Resources, error) {
	res := &Resources{}

	switch cfg.Backend {
	case config.BackendMemory:
		res.Backend = kv.NewMemoryBackend()
	case config.BackendFile:
		fb, err := kv.NewFileBackend(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("kv arquivo: %w", err)
		}
		res.Backend = fb
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis parse: %w", err)
		}
		client := redis.NewClient(opts)
		res.closers = append(res.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		res.Redis = client
		res.Backend = kv.NewRedisBackend(client, "painel:")
	case config.BackendPostgres:
		conn, err := db.Open(ctx, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, conn.Close)
		pg := kv.NewPostgresBackend(conn)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("kv schema: %w", err)
		}
		res.Backend = pg
	default:
		return nil, fmt.Errorf("backend %q não suportado", cfg.Backend)
	}
	return res, nil
}
