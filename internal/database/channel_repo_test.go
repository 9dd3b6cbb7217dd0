package database

import (
	"context"
	"testing"

	"github.com/nkoval/parley/internal/models"
)

func TestGetDMByRecipients(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	users := NewUserRepository(pool)
	channels := NewChannelRepository(pool, NewOverwriteRepository(pool))

	alice := createTestUser(t, users)
	bob := createTestUser(t, users)
	carol := createTestUser(t, users)

	dm := &models.Channel{ID: nextID(), Type: models.ChannelTypeDM}
	if err := channels.Create(ctx, dm); err != nil {
		t.Fatalf("creating dm channel: %v", err)
	}
	t.Cleanup(func() { _ = channels.Delete(ctx, dm.ID) })
	for _, uid := range []int64{alice.ID, bob.ID} {
		if err := channels.AddRecipient(ctx, dm.ID, uid); err != nil {
			t.Fatalf("adding recipient %d: %v", uid, err)
		}
	}

	got, err := channels.GetDMByRecipients(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetDMByRecipients: %v", err)
	}
	if got == nil || got.ID != dm.ID {
		t.Fatalf("got %+v, want channel %d", got, dm.ID)
	}
	if len(got.Recipients) != 2 {
		t.Fatalf("got %d recipients, want 2", len(got.Recipients))
	}

	// Symmetric in the argument order.
	got, err = channels.GetDMByRecipients(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetDMByRecipients reversed: %v", err)
	}
	if got == nil || got.ID != dm.ID {
		t.Fatalf("reversed lookup got %+v, want channel %d", got, dm.ID)
	}

	// No channel between a pair that never opened one.
	got, err = channels.GetDMByRecipients(ctx, alice.ID, carol.ID)
	if err != nil {
		t.Fatalf("GetDMByRecipients miss: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown pair, got %+v", got)
	}
}
