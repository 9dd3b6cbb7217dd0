package database

import (
	"context"
	"testing"

	"github.com/nkoval/parley/internal/models"
)

func TestOverwriteRepo_SetIsUpsert(t *testing.T) {
	pool := testPool(t)
	users := NewUserRepository(pool)
	guilds := NewGuildRepository(pool)
	overwrites := NewOverwriteRepository(pool)
	channels := NewChannelRepository(pool, overwrites)
	ctx := context.Background()

	owner := createTestUser(t, users)
	guild := createTestGuild(t, guilds, owner.ID)
	ch := createTestChannel(t, channels, guild.ID)

	targetID := nextID()
	ow := &models.PermissionOverwrite{
		ChannelID:  ch.ID,
		TargetID:   targetID,
		TargetKind: models.OverwriteRole,
		Allow:      1,
		Deny:       2,
	}
	if err := overwrites.Set(ctx, ow); err != nil {
		t.Fatalf("Set: %v", err)
	}
	t.Cleanup(func() { _ = overwrites.Delete(ctx, ch.ID, targetID) })

	// Second Set for the same target replaces the masks.
	ow.Allow = 4
	ow.Deny = 8
	ow.TargetKind = models.OverwriteMember
	if err := overwrites.Set(ctx, ow); err != nil {
		t.Fatalf("Set (update): %v", err)
	}

	got, err := overwrites.GetByChannel(ctx, ch.ID)
	if err != nil {
		t.Fatalf("GetByChannel: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected a single overwrite, got %d", len(got))
	}
	if got[0].Allow != 4 || got[0].Deny != 8 || got[0].TargetKind != models.OverwriteMember {
		t.Errorf("Set did not replace the overwrite: %+v", got[0])
	}
}

func TestChannelRepo_GetByID_AttachesOverwrites(t *testing.T) {
	pool := testPool(t)
	users := NewUserRepository(pool)
	guilds := NewGuildRepository(pool)
	overwrites := NewOverwriteRepository(pool)
	channels := NewChannelRepository(pool, overwrites)
	ctx := context.Background()

	owner := createTestUser(t, users)
	guild := createTestGuild(t, guilds, owner.ID)
	ch := createTestChannel(t, channels, guild.ID)

	targetID := nextID()
	err := overwrites.Set(ctx, &models.PermissionOverwrite{
		ChannelID:  ch.ID,
		TargetID:   targetID,
		TargetKind: models.OverwriteRole,
		Allow:      1,
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	t.Cleanup(func() { _ = overwrites.Delete(ctx, ch.ID, targetID) })

	got, err := channels.GetByID(ctx, ch.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("channel not found")
	}
	ow, ok := got.Overwrites[targetID]
	if !ok {
		t.Fatal("loaded channel missing its overwrite")
	}
	if ow.ChannelID != ch.ID {
		t.Errorf("overwrite back-reference = %d, want %d", ow.ChannelID, ch.ID)
	}
}
