//go:build !integration

package memory

import (
	"context"
	"testing"
	"time"

	"telegram-relay-bot/internal/domain/model"
)

func TestPendingReplyRepo_SetGetClear(t *testing.T) {
	ctx := context.Background()
	repo := NewPendingReplyRepo(time.Minute)

	if p, err := repo.GetPending(ctx, 1); p != nil || err != nil {
		t.Fatalf("expected nothing, got %+v, %v", p, err)
	}
	_ = repo.SetPending(ctx, 1, &model.PendingReply{TargetID: 555, AnchorMessageID: 7})
	_ = repo.SetPending(ctx, 1, &model.PendingReply{TargetID: 556, AnchorMessageID: 8})

	p, _ := repo.GetPending(ctx, 1)
	if p == nil || p.TargetID != 556 || p.AnchorMessageID != 8 {
		t.Fatalf("latest press must win, got %+v", p)
	}
	_ = repo.ClearPending(ctx, 1)
	if p, _ := repo.GetPending(ctx, 1); p != nil {
		t.Errorf("expected cleared, got %+v", p)
	}
}

func TestPendingReplyRepo_Expiry(t *testing.T) {
	ctx := context.Background()
	repo := NewPendingReplyRepo(time.Minute)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	_ = repo.SetPending(ctx, 1, &model.PendingReply{TargetID: 555})
	clock = clock.Add(30 * time.Second)
	if p, _ := repo.GetPending(ctx, 1); p == nil {
		t.Fatal("intent must still be live")
	}
	clock = clock.Add(time.Minute)
	if p, _ := repo.GetPending(ctx, 1); p != nil {
		t.Errorf("intent must have expired, got %+v", p)
	}
}
