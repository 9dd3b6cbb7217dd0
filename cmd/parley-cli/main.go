package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/nkoval/parley/internal/auth"
	"github.com/nkoval/parley/internal/database"
	"github.com/nkoval/parley/internal/models"
	"github.com/nkoval/parley/internal/permissions"
	"github.com/nkoval/parley/internal/redis"
	"github.com/nkoval/parley/internal/snowflake"
)

const usage = `parley-cli <command>

Commands:
  migrate up        apply all pending migrations
  migrate down      roll back one migration
  seed              create the initial admin user and guild
  health            check postgres and redis connectivity
`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "migrate":
		if len(args) < 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = runMigrate(logger, args[1])
	case "seed":
		err = runSeed(logger)
	case "health":
		err = runHealth(logger)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("command failed", "command", args[0], "error", err)
		os.Exit(1)
	}
}

func runMigrate(logger *slog.Logger, direction string) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}

	m, err := migrate.New("file://"+migrationsDir, databaseURL)
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	defer m.Close()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	default:
		return fmt.Errorf("unknown migrate direction %q", direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("reading version: %w", err)
	}
	logger.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}

// runSeed creates an admin user and a starter guild with its @everyone
// role and general channel. Idempotent: it refuses to run twice.
func runSeed(logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		return fmt.Errorf("SEED_ADMIN_PASSWORD is not set")
	}

	pool, err := database.NewPostgresPool(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	users := database.NewUserRepository(pool)
	guilds := database.NewGuildRepository(pool)
	roles := database.NewRoleRepository(pool)
	channels := database.NewChannelRepository(pool, database.NewOverwriteRepository(pool))
	members := database.NewMemberRepository(pool)

	existing, err := users.GetByUsername(ctx, "admin")
	if err != nil {
		return fmt.Errorf("checking admin user: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("already seeded: admin user exists")
	}

	gen, err := snowflake.NewGenerator(0)
	if err != nil {
		return fmt.Errorf("snowflake: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	admin := &models.User{
		ID:           gen.Generate().Int64(),
		Username:     "admin",
		DisplayName:  "Admin",
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	guild := &models.Guild{
		ID:        gen.Generate().Int64(),
		Name:      "parley",
		OwnerID:   admin.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := guilds.Create(ctx, guild); err != nil {
		return fmt.Errorf("creating guild: %w", err)
	}
	if err := roles.Create(ctx, &models.Role{
		ID:          gen.Generate().Int64(),
		GuildID:     guild.ID,
		Name:        "@everyone",
		Permissions: int64(permissions.DefaultEveryonePerms),
		IsDefault:   true,
	}); err != nil {
		return fmt.Errorf("creating everyone role: %w", err)
	}
	if err := channels.Create(ctx, &models.Channel{
		ID:      gen.Generate().Int64(),
		GuildID: guild.ID,
		Name:    "general",
		Type:    models.ChannelTypeGuildText,
	}); err != nil {
		return fmt.Errorf("creating general channel: %w", err)
	}
	if err := members.Create(ctx, &models.Member{
		GuildID:  guild.ID,
		UserID:   admin.ID,
		JoinedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("creating owner membership: %w", err)
	}

	logger.Info("seeded", "user_id", admin.ID, "guild_id", guild.ID)
	return nil
}

func runHealth(logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	pool, err := database.NewPostgresPool(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("postgres ok")

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	rc, err := redis.NewClient(redisURL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rc.Close()
	logger.Info("redis ok")

	return nil
}
