package database

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nkoval/parley/internal/models"
)

// testPool returns a pgxpool.Pool connected to the test database, skipping
// the test when DATABASE_URL is not set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting to test database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

// testIDCounter provides unique IDs across the package's tests, starting
// well above anything seeded data would use.
var testIDCounter int64 = 500000

func nextID() int64 {
	return atomic.AddInt64(&testIDCounter, 1)
}

func createTestUser(t *testing.T, users UserRepository) *models.User {
	t.Helper()
	ctx := context.Background()
	u := &models.User{
		ID:           nextID(),
		Username:     "user-" + time.Now().Format("150405.000000"),
		DisplayName:  "Test User",
		PasswordHash: "x",
		CreatedAt:    time.Now().Truncate(time.Microsecond),
	}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return u
}

func createTestGuild(t *testing.T, guilds GuildRepository, ownerID int64) *models.Guild {
	t.Helper()
	ctx := context.Background()
	g := &models.Guild{
		ID:        nextID(),
		Name:      "Test Guild",
		OwnerID:   ownerID,
		CreatedAt: time.Now().Truncate(time.Microsecond),
	}
	if err := guilds.Create(ctx, g); err != nil {
		t.Fatalf("creating test guild: %v", err)
	}
	t.Cleanup(func() { _ = guilds.Delete(ctx, g.ID) })
	return g
}

func createTestChannel(t *testing.T, channels ChannelRepository, guildID int64) *models.Channel {
	t.Helper()
	ctx := context.Background()
	c := &models.Channel{
		ID:      nextID(),
		GuildID: guildID,
		Name:    "general",
		Type:    models.ChannelTypeGuildText,
	}
	if err := channels.Create(ctx, c); err != nil {
		t.Fatalf("creating test channel: %v", err)
	}
	t.Cleanup(func() { _ = channels.Delete(ctx, c.ID) })
	return c
}
