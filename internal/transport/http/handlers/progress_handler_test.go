package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	redrepo "github.com/ivankudzin/vodapp/backend/internal/repo/redis"
	progresssvc "github.com/ivankudzin/vodapp/backend/internal/services/progress"
)

type checkpointStoreStub struct {
	positions map[int64]int
}

func (s *checkpointStoreStub) UpsertCheckpoint(_ context.Context, _, videoID int64, seconds int) (bool, error) {
	if s.positions == nil {
		s.positions = make(map[int64]int)
	}
	s.positions[videoID] = seconds
	return true, nil
}

func (s *checkpointStoreStub) LastPosition(_ context.Context, _, videoID int64) (int, error) {
	return s.positions[videoID], nil
}

type progressBufferStub struct {
	staged    map[int64]int
	unhealthy bool
}

func (b *progressBufferStub) Stage(_ context.Context, _, videoID int64, seconds int) error {
	if b.unhealthy {
		return errors.New("redis unavailable")
	}
	if b.staged == nil {
		b.staged = make(map[int64]int)
	}
	b.staged[videoID] = seconds
	return nil
}

func (b *progressBufferStub) Position(_ context.Context, _, videoID int64) (int, bool, error) {
	if b.unhealthy {
		return 0, false, errors.New("redis unavailable")
	}
	seconds, ok := b.staged[videoID]
	return seconds, ok, nil
}

func (b *progressBufferStub) Drain(_ context.Context, _ int) ([]redrepo.CheckpointRecord, error) {
	return nil, nil
}

func newProgressHandlerForTest(store *checkpointStoreStub, buffer *progressBufferStub) *ProgressHandler {
	return NewProgressHandler(progresssvc.NewService(store, buffer))
}

func checkpointRequest(videoID string, userID int64, body []byte) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/videos/"+videoID+"/progress", bytes.NewReader(body))
	ctx := withURLParam(context.Background(), "video_id", videoID)
	if userID > 0 {
		ctx = withViewer(ctx, userID)
	}
	return req.WithContext(ctx)
}

func TestCheckpointStagesProgress(t *testing.T) {
	store := &checkpointStoreStub{}
	buffer := &progressBufferStub{}
	h := newProgressHandlerForTest(store, buffer)

	body, _ := json.Marshal(map[string]any{"seconds": 95})
	rr := httptest.NewRecorder()
	h.Checkpoint(rr, checkpointRequest("42", 7, body))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if buffer.staged[42] != 95 {
		t.Fatalf("expected checkpoint staged at 95, got %d", buffer.staged[42])
	}
}

func TestCheckpointFallsBackWhenBufferDown(t *testing.T) {
	store := &checkpointStoreStub{}
	buffer := &progressBufferStub{unhealthy: true}
	h := newProgressHandlerForTest(store, buffer)

	body, _ := json.Marshal(map[string]any{"seconds": 30})
	rr := httptest.NewRecorder()
	h.Checkpoint(rr, checkpointRequest("42", 7, body))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if store.positions[42] != 30 {
		t.Fatalf("expected direct write of 30, got %d", store.positions[42])
	}
}

func TestCheckpointRejectsNegativeSeconds(t *testing.T) {
	h := newProgressHandlerForTest(&checkpointStoreStub{}, &progressBufferStub{})

	body, _ := json.Marshal(map[string]any{"seconds": -1})
	rr := httptest.NewRecorder()
	h.Checkpoint(rr, checkpointRequest("42", 7, body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestLastPositionDefaultsToZero(t *testing.T) {
	h := newProgressHandlerForTest(&checkpointStoreStub{}, &progressBufferStub{})

	req := httptest.NewRequest(http.MethodGet, "/videos/42/progress", nil)
	req = req.WithContext(withURLParam(withViewer(context.Background(), 7), "video_id", "42"))

	rr := httptest.NewRecorder()
	h.LastPosition(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload struct {
		VideoID int64 `json:"video_id"`
		Seconds int   `json:"seconds"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.VideoID != 42 || payload.Seconds != 0 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestProgressRequiresAuthentication(t *testing.T) {
	h := newProgressHandlerForTest(&checkpointStoreStub{}, &progressBufferStub{})

	body, _ := json.Marshal(map[string]any{"seconds": 10})
	rr := httptest.NewRecorder()
	h.Checkpoint(rr, checkpointRequest("42", 0, body))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}
