package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestProgressRepo(t *testing.T) *ProgressRepo {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewProgressRepo(client)
}

func TestStageAndPosition(t *testing.T) {
	repo := newTestProgressRepo(t)
	ctx := context.Background()

	if err := repo.Stage(ctx, 7, 42, 95); err != nil {
		t.Fatalf("stage checkpoint: %v", err)
	}

	seconds, found, err := repo.Position(ctx, 7, 42)
	if err != nil {
		t.Fatalf("read position: %v", err)
	}
	if !found || seconds != 95 {
		t.Fatalf("unexpected position: found=%v seconds=%d", found, seconds)
	}

	_, found, err = repo.Position(ctx, 7, 43)
	if err != nil {
		t.Fatalf("read missing position: %v", err)
	}
	if found {
		t.Fatalf("expected no buffered position for unseen video")
	}
}

func TestStageKeepsLatestPosition(t *testing.T) {
	repo := newTestProgressRepo(t)
	ctx := context.Background()

	for _, seconds := range []int{10, 25, 40} {
		if err := repo.Stage(ctx, 7, 42, seconds); err != nil {
			t.Fatalf("stage checkpoint: %v", err)
		}
	}

	seconds, found, err := repo.Position(ctx, 7, 42)
	if err != nil {
		t.Fatalf("read position: %v", err)
	}
	if !found || seconds != 40 {
		t.Fatalf("unexpected position after overwrites: found=%v seconds=%d", found, seconds)
	}
}

func TestDrainReturnsOneRecordPerPair(t *testing.T) {
	repo := newTestProgressRepo(t)
	ctx := context.Background()

	if err := repo.Stage(ctx, 7, 42, 10); err != nil {
		t.Fatalf("stage checkpoint: %v", err)
	}
	if err := repo.Stage(ctx, 7, 42, 35); err != nil {
		t.Fatalf("stage checkpoint: %v", err)
	}
	if err := repo.Stage(ctx, 8, 42, 5); err != nil {
		t.Fatalf("stage checkpoint: %v", err)
	}

	records, err := repo.Drain(ctx, 100)
	if err != nil {
		t.Fatalf("drain checkpoints: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("unexpected record count: %d", len(records))
	}

	byUser := map[int64]int{}
	for _, rec := range records {
		byUser[rec.UserID] = rec.Seconds
	}
	if byUser[7] != 35 {
		t.Fatalf("expected latest position 35 for user 7, got %d", byUser[7])
	}
	if byUser[8] != 5 {
		t.Fatalf("expected position 5 for user 8, got %d", byUser[8])
	}

	records, err = repo.Drain(ctx, 100)
	if err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty second drain, got %d records", len(records))
	}
}
