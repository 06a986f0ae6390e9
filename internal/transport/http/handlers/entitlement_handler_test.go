package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ivankudzin/vodapp/backend/internal/domain/enums"
	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/vodapp/backend/internal/repo/postgres"
	entsvc "github.com/ivankudzin/vodapp/backend/internal/services/entitlements"
)

type videoStoreStub struct {
	videos map[int64]model.Video
}

func (s videoStoreStub) FindByID(_ context.Context, videoID int64) (model.Video, error) {
	video, ok := s.videos[videoID]
	if !ok {
		return model.Video{}, pgrepo.ErrVideoNotFound
	}
	return video, nil
}

type grantStoreStub struct {
	grants map[int64]model.ViewGrant
}

func (s grantStoreStub) Find(_ context.Context, _, videoID int64) (model.ViewGrant, error) {
	grant, ok := s.grants[videoID]
	if !ok {
		return model.ViewGrant{}, pgrepo.ErrGrantNotFound
	}
	return grant, nil
}

type subscriptionStoreStub struct {
	sub model.Subscription
	err error
}

func (s subscriptionStoreStub) FindByUser(_ context.Context, _ int64) (model.Subscription, error) {
	if s.err != nil {
		return model.Subscription{}, s.err
	}
	return s.sub, nil
}

func newEntitlementHandlerForTest(videos videoStoreStub, grants grantStoreStub, subs subscriptionStoreStub) *EntitlementHandler {
	svc := entsvc.NewService(videos, grants, subs, entsvc.Config{VideoCoinPrice: 2})
	return NewEntitlementHandler(svc)
}

func TestEntitlementPaymentRequiredForPremiumVideo(t *testing.T) {
	h := newEntitlementHandlerForTest(
		videoStoreStub{videos: map[int64]model.Video{42: {ID: 42, IsPremium: true}}},
		grantStoreStub{},
		subscriptionStoreStub{err: pgrepo.ErrSubscriptionNotFound},
	)

	req := httptest.NewRequest(http.MethodGet, "/videos/42/entitlement", nil)
	req = req.WithContext(withURLParam(withViewer(context.Background(), 7), "video_id", "42"))

	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload struct {
		Authorized  bool   `json:"authorized"`
		Reason      string `json:"reason"`
		Remediation *struct {
			Kind          string `json:"kind"`
			CoinsRequired int64  `json:"coins_required"`
		} `json:"remediation"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Authorized {
		t.Fatal("expected denial for premium video without grant")
	}
	if payload.Reason != "PAYMENT_REQUIRED" {
		t.Fatalf("unexpected reason: %q", payload.Reason)
	}
	if payload.Remediation == nil || payload.Remediation.Kind != "PAY_COINS" || payload.Remediation.CoinsRequired != 2 {
		t.Fatalf("unexpected remediation: %+v", payload.Remediation)
	}
}

func TestEntitlementAnonymousViewerGetsLoginRequired(t *testing.T) {
	h := newEntitlementHandlerForTest(
		videoStoreStub{videos: map[int64]model.Video{42: {ID: 42, IsPremium: true}}},
		grantStoreStub{},
		subscriptionStoreStub{err: pgrepo.ErrSubscriptionNotFound},
	)

	req := httptest.NewRequest(http.MethodGet, "/videos/42/entitlement", nil)
	req = req.WithContext(withURLParam(context.Background(), "video_id", "42"))

	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload struct {
		Authorized bool   `json:"authorized"`
		Reason     string `json:"reason"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Authorized || payload.Reason != "LOGIN_REQUIRED" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestEntitlementGrantedViewerSeesGrant(t *testing.T) {
	grant := model.ViewGrant{
		ID:           "3f0c4b4e-9a47-4a2b-a650-7c52b49c8c01",
		UserID:       7,
		VideoID:      42,
		AccessMethod: enums.AccessMethodPointPayment,
		CreatedAt:    time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	h := newEntitlementHandlerForTest(
		videoStoreStub{videos: map[int64]model.Video{42: {ID: 42, IsPremium: true}}},
		grantStoreStub{grants: map[int64]model.ViewGrant{42: grant}},
		subscriptionStoreStub{err: pgrepo.ErrSubscriptionNotFound},
	)

	req := httptest.NewRequest(http.MethodGet, "/videos/42/entitlement", nil)
	req = req.WithContext(withURLParam(withViewer(context.Background(), 7), "video_id", "42"))

	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload struct {
		Authorized bool   `json:"authorized"`
		Reason     string `json:"reason"`
		Grant      *struct {
			ID           string `json:"id"`
			AccessMethod string `json:"access_method"`
		} `json:"grant"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Authorized || payload.Reason != "GRANTED" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Grant == nil || payload.Grant.ID != grant.ID || payload.Grant.AccessMethod != "POINT_PAYMENT" {
		t.Fatalf("unexpected grant: %+v", payload.Grant)
	}
}

func TestEntitlementUnknownVideoReturns404(t *testing.T) {
	h := newEntitlementHandlerForTest(
		videoStoreStub{},
		grantStoreStub{},
		subscriptionStoreStub{err: pgrepo.ErrSubscriptionNotFound},
	)

	req := httptest.NewRequest(http.MethodGet, "/videos/999/entitlement", nil)
	req = req.WithContext(withURLParam(context.Background(), "video_id", "999"))

	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}
}

func TestEntitlementBadVideoIDReturns400(t *testing.T) {
	h := newEntitlementHandlerForTest(videoStoreStub{}, grantStoreStub{}, subscriptionStoreStub{})

	req := httptest.NewRequest(http.MethodGet, "/videos/abc/entitlement", nil)
	req = req.WithContext(withURLParam(context.Background(), "video_id", "abc"))

	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}
