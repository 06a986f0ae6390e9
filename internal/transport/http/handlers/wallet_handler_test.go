package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/vodapp/backend/internal/repo/postgres"
	walletsvc "github.com/ivankudzin/vodapp/backend/internal/services/wallet"
)

type walletUserStoreStub struct {
	user model.User
	err  error
}

func (s walletUserStoreStub) FindByID(_ context.Context, _ int64) (model.User, error) {
	if s.err != nil {
		return model.User{}, s.err
	}
	return s.user, nil
}

type walletLedgerStoreStub struct {
	entries []model.CoinLedgerEntry
}

func (s walletLedgerStoreStub) ListByUser(_ context.Context, _ int64, _ int) ([]model.CoinLedgerEntry, error) {
	return s.entries, nil
}

func walletRequest(userID int64) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/me/wallet", nil)
	if userID > 0 {
		return req.WithContext(withViewer(context.Background(), userID))
	}
	return req
}

func TestWalletReturnsBalanceAndEntries(t *testing.T) {
	videoID := int64(42)
	h := NewWalletHandler(walletsvc.NewService(
		walletUserStoreStub{user: model.User{ID: 7, CoinBalance: 98}},
		walletLedgerStoreStub{entries: []model.CoinLedgerEntry{
			{ID: "e1", UserID: 7, Delta: -2, Reason: model.LedgerReasonVideoPurchase, VideoID: &videoID},
		}},
	))

	rr := httptest.NewRecorder()
	h.Get(rr, walletRequest(7))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload struct {
		Balance int64 `json:"balance"`
		Entries []struct {
			ID      string `json:"id"`
			Delta   int64  `json:"delta"`
			Reason  string `json:"reason"`
			VideoID *int64 `json:"video_id"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Balance != 98 {
		t.Fatalf("unexpected balance: %d", payload.Balance)
	}
	if len(payload.Entries) != 1 || payload.Entries[0].Delta != -2 {
		t.Fatalf("unexpected entries: %+v", payload.Entries)
	}
	if payload.Entries[0].VideoID == nil || *payload.Entries[0].VideoID != 42 {
		t.Fatalf("unexpected entry video id: %+v", payload.Entries[0].VideoID)
	}
}

func TestWalletRequiresAuthentication(t *testing.T) {
	h := NewWalletHandler(walletsvc.NewService(walletUserStoreStub{}, walletLedgerStoreStub{}))

	rr := httptest.NewRecorder()
	h.Get(rr, walletRequest(0))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestWalletUnknownUser(t *testing.T) {
	h := NewWalletHandler(walletsvc.NewService(
		walletUserStoreStub{err: pgrepo.ErrUserNotFound},
		walletLedgerStoreStub{},
	))

	rr := httptest.NewRecorder()
	h.Get(rr, walletRequest(7))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}
}
