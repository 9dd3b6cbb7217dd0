package api

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/nkoval/parley/internal/models"
	"github.com/nkoval/parley/internal/redis"
	"github.com/nkoval/parley/internal/snowflake"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClientFromAddr(mr.Addr())
}

func testGenerator(t *testing.T) *snowflake.Generator {
	t.Helper()
	gen, err := snowflake.NewGenerator(2)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return gen
}

// memUserRepo is an in-memory UserRepository for handler tests.
type memUserRepo struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	byName map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:   make(map[int64]*models.User),
		byName: make(map[string]*models.User),
	}
}

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := *user
	r.byID[u.ID] = &u
	r.byName[u.Username] = &u
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName[username], nil
}
