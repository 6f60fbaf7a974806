package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	storefrontevents "github.com/appetiteclub/storefront/internal/events"
	"github.com/appetiteclub/storefront/internal/pricing"
)

func newTestHandler(t *testing.T) (*Handler, *MockCampaignRepo, *MockPublisher) {
	t.Helper()
	repo := NewMockCampaignRepo()
	publisher := &MockPublisher{}
	h := NewHandler(HandlerDeps{
		Sessions:     NewSessions(nil, nil),
		CampaignRepo: repo,
		Publisher:    publisher,
	}, apt.NewConfig(), nil)
	return h, repo, publisher
}

func decodeState(t *testing.T, body []byte) State {
	t.Helper()
	var resp struct {
		Data State `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("cannot decode cart state: %v", err)
	}
	return resp.Data
}

func seedCoupon(t *testing.T, repo *MockCampaignRepo, code string, percent float64) {
	t.Helper()
	coupon := &pricing.Campaign{
		Name:          "Coupon " + code,
		Code:          code,
		Type:          pricing.DiscountPercentage,
		DiscountValue: percent,
		TargetType:    pricing.TargetAll,
		IsActive:      true,
	}
	coupon.BeforeCreate()
	if err := repo.Create(context.Background(), coupon); err != nil {
		t.Fatalf("cannot seed coupon: %v", err)
	}
}

func addItemRequest(sessionID, payload string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBufferString(payload))
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	return req
}

func TestHandlerSessionMinting(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{
			name:   "missingHeader",
			header: "",
		},
		{
			name:   "malformedHeader",
			header: "not-a-uuid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestHandler(t)

			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if tt.header != "" {
				req.Header.Set(SessionHeader, tt.header)
			}
			w := httptest.NewRecorder()
			h.GetCart(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("GetCart() status = %d, want %d", w.Code, http.StatusOK)
			}
			echoed := w.Header().Get(SessionHeader)
			if _, err := uuid.Parse(echoed); err != nil {
				t.Errorf("minted session header %q is not a uuid: %v", echoed, err)
			}
			if echoed == tt.header {
				t.Error("malformed header should have been replaced")
			}
		})
	}
}

func TestHandlerSessionStickiness(t *testing.T) {
	h, _, _ := newTestHandler(t)
	sessionID := uuid.New().String()

	w := httptest.NewRecorder()
	h.AddItem(w, addItemRequest(sessionID, `{"menu_item_id":"nasi-goreng","name":"Nasi Goreng","price":"25000"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("AddItem() status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if got := w.Header().Get(SessionHeader); got != sessionID {
		t.Errorf("echoed session = %q, want %q", got, sessionID)
	}

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(SessionHeader, sessionID)
	w = httptest.NewRecorder()
	h.GetCart(w, req)

	state := decodeState(t, w.Body.Bytes())
	if len(state.Items) != 1 {
		t.Errorf("cart has %d items, want 1", len(state.Items))
	}
}

func TestHandlerAddItem(t *testing.T) {
	tests := []struct {
		name           string
		payload        string
		expectedStatus int
		expectedPrice  string
	}{
		{
			name:           "stringPrice",
			payload:        `{"menu_item_id":"nasi-goreng","name":"Nasi Goreng","price":"Rp 25.000"}`,
			expectedStatus: http.StatusCreated,
			expectedPrice:  "Rp 25.000",
		},
		{
			name:           "numericPrice",
			payload:        `{"menu_item_id":"nasi-goreng","name":"Nasi Goreng","price":25000}`,
			expectedStatus: http.StatusCreated,
			expectedPrice:  "25000",
		},
		{
			name:           "missingMenuItemID",
			payload:        `{"name":"Nasi Goreng","price":"25000"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalidJSON",
			payload:        `{not json`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestHandler(t)

			w := httptest.NewRecorder()
			h.AddItem(w, addItemRequest(uuid.New().String(), tt.payload))

			if w.Code != tt.expectedStatus {
				t.Fatalf("AddItem() status = %d, want %d: %s", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.expectedStatus != http.StatusCreated {
				return
			}

			state := decodeState(t, w.Body.Bytes())
			if len(state.Items) != 1 {
				t.Fatalf("cart has %d items, want 1", len(state.Items))
			}
			if state.Items[0].Price != tt.expectedPrice {
				t.Errorf("captured price = %q, want %q", state.Items[0].Price, tt.expectedPrice)
			}
			if !state.Open {
				t.Error("adding an item should open the cart")
			}
		})
	}
}

func TestHandlerRemoveItem(t *testing.T) {
	h, _, _ := newTestHandler(t)
	sessionID := uuid.New().String()

	w := httptest.NewRecorder()
	h.AddItem(w, addItemRequest(sessionID, `{"menu_item_id":"nasi-goreng","name":"Nasi Goreng","price":"25000"}`))

	req := httptest.NewRequest(http.MethodDelete, "/cart/items/nasi-goreng", nil)
	req.Header.Set(SessionHeader, sessionID)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "nasi-goreng")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w = httptest.NewRecorder()
	h.RemoveItem(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("RemoveItem() status = %d, want %d", w.Code, http.StatusOK)
	}
	state := decodeState(t, w.Body.Bytes())
	if len(state.Items) != 0 {
		t.Errorf("cart has %d items, want 0", len(state.Items))
	}
}

func TestHandlerUpdateQuantity(t *testing.T) {
	tests := []struct {
		name          string
		delta         int
		expectedCount int
		expectedQty   int
	}{
		{
			name:          "increment",
			delta:         2,
			expectedCount: 1,
			expectedQty:   3,
		},
		{
			name:          "decrementBelowZeroRemoves",
			delta:         -5,
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestHandler(t)
			sessionID := uuid.New().String()

			w := httptest.NewRecorder()
			h.AddItem(w, addItemRequest(sessionID, `{"menu_item_id":"nasi-goreng","name":"Nasi Goreng","price":"25000"}`))

			payload, _ := json.Marshal(QuantityRequest{Delta: tt.delta})
			req := httptest.NewRequest(http.MethodPatch, "/cart/items/nasi-goreng/quantity", bytes.NewBuffer(payload))
			req.Header.Set(SessionHeader, sessionID)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "nasi-goreng")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w = httptest.NewRecorder()
			h.UpdateQuantity(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("UpdateQuantity() status = %d, want %d", w.Code, http.StatusOK)
			}
			state := decodeState(t, w.Body.Bytes())
			if len(state.Items) != tt.expectedCount {
				t.Fatalf("cart has %d items, want %d", len(state.Items), tt.expectedCount)
			}
			if tt.expectedCount > 0 && state.Items[0].Quantity != tt.expectedQty {
				t.Errorf("Quantity = %d, want %d", state.Items[0].Quantity, tt.expectedQty)
			}
		})
	}
}

func TestHandlerClearCart(t *testing.T) {
	h, _, _ := newTestHandler(t)
	sessionID := uuid.New().String()

	w := httptest.NewRecorder()
	h.AddItem(w, addItemRequest(sessionID, `{"menu_item_id":"nasi-goreng","name":"Nasi Goreng","price":"25000"}`))

	req := httptest.NewRequest(http.MethodDelete, "/cart", nil)
	req.Header.Set(SessionHeader, sessionID)
	w = httptest.NewRecorder()
	h.ClearCart(w, req)

	state := decodeState(t, w.Body.Bytes())
	if len(state.Items) != 0 {
		t.Errorf("cart has %d items, want 0", len(state.Items))
	}
}

func TestHandlerToggleCart(t *testing.T) {
	h, _, _ := newTestHandler(t)
	sessionID := uuid.New().String()

	req := httptest.NewRequest(http.MethodPost, "/cart/toggle", nil)
	req.Header.Set(SessionHeader, sessionID)
	w := httptest.NewRecorder()
	h.ToggleCart(w, req)

	state := decodeState(t, w.Body.Bytes())
	if !state.Open {
		t.Error("first toggle should open the cart")
	}
}

func TestHandlerCheckoutEmptyCart(t *testing.T) {
	h, _, publisher := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/cart/checkout", bytes.NewBufferString(`{}`))
	req.Header.Set(SessionHeader, uuid.New().String())
	w := httptest.NewRecorder()
	h.Checkout(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Checkout() status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if len(publisher.Published()) != 0 {
		t.Error("no events should be published for an empty cart")
	}
}

func TestHandlerCheckoutInvalidCouponKeepsCart(t *testing.T) {
	h, _, publisher := newTestHandler(t)
	sessionID := uuid.New().String()

	w := httptest.NewRecorder()
	h.AddItem(w, addItemRequest(sessionID, `{"menu_item_id":"nasi-goreng","name":"Nasi Goreng","price":"25000"}`))

	req := httptest.NewRequest(http.MethodPost, "/cart/checkout", bytes.NewBufferString(`{"coupon_code":"BADCODE"}`))
	req.Header.Set(SessionHeader, sessionID)
	w = httptest.NewRecorder()
	h.Checkout(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Checkout() status = %d, want %d: %s", w.Code, http.StatusUnprocessableEntity, w.Body.String())
	}
	if len(publisher.Published()) != 0 {
		t.Error("no events should be published for a rejected checkout")
	}

	// the cart survives a rejected coupon
	getReq := httptest.NewRequest(http.MethodGet, "/cart", nil)
	getReq.Header.Set(SessionHeader, sessionID)
	w = httptest.NewRecorder()
	h.GetCart(w, getReq)

	state := decodeState(t, w.Body.Bytes())
	if len(state.Items) != 1 {
		t.Errorf("cart has %d items after rejected checkout, want 1", len(state.Items))
	}
}

func TestHandlerCheckout(t *testing.T) {
	h, repo, publisher := newTestHandler(t)
	seedCoupon(t, repo, "SAVE10", 10)
	sessionID := uuid.New().String()

	w := httptest.NewRecorder()
	h.AddItem(w, addItemRequest(sessionID, `{"menu_item_id":"nasi-goreng","name":"Nasi Goreng","price":"25000"}`))
	w = httptest.NewRecorder()
	h.AddItem(w, addItemRequest(sessionID, `{"menu_item_id":"nasi-goreng","name":"Nasi Goreng","price":"25000"}`))

	req := httptest.NewRequest(http.MethodPost, "/cart/checkout", bytes.NewBufferString(`{"coupon_code":"save10"}`))
	req.Header.Set(SessionHeader, sessionID)
	w = httptest.NewRecorder()
	h.Checkout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Checkout() status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Data CheckoutResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("cannot decode checkout response: %v", err)
	}
	if resp.Data.Subtotal != 50000 {
		t.Errorf("Subtotal = %v, want 50000", resp.Data.Subtotal)
	}
	if resp.Data.CouponDiscount != 5000 {
		t.Errorf("CouponDiscount = %v, want 5000", resp.Data.CouponDiscount)
	}
	if resp.Data.TotalDue != 45000 {
		t.Errorf("TotalDue = %v, want 45000", resp.Data.TotalDue)
	}

	published := publisher.Published()
	if len(published) != 2 {
		t.Fatalf("published %d events, want coupon + checkout", len(published))
	}
	for _, msg := range published {
		if msg.Topic != storefrontevents.CartTopic {
			t.Errorf("event topic = %q, want %q", msg.Topic, storefrontevents.CartTopic)
		}
	}

	var couponEvt storefrontevents.CartCouponEvent
	if err := json.Unmarshal(published[0].Payload, &couponEvt); err != nil {
		t.Fatalf("cannot decode coupon event: %v", err)
	}
	if couponEvt.EventType != storefrontevents.EventCouponApplied {
		t.Errorf("first event type = %q, want %q", couponEvt.EventType, storefrontevents.EventCouponApplied)
	}

	var checkoutEvt storefrontevents.CartCheckoutEvent
	if err := json.Unmarshal(published[1].Payload, &checkoutEvt); err != nil {
		t.Fatalf("cannot decode checkout event: %v", err)
	}
	if checkoutEvt.EventType != storefrontevents.EventCheckoutCompleted {
		t.Errorf("second event type = %q, want %q", checkoutEvt.EventType, storefrontevents.EventCheckoutCompleted)
	}
	if len(checkoutEvt.Lines) != 1 {
		t.Errorf("checkout event has %d lines, want 1", len(checkoutEvt.Lines))
	}

	// checkout clears the cart
	getReq := httptest.NewRequest(http.MethodGet, "/cart", nil)
	getReq.Header.Set(SessionHeader, sessionID)
	w = httptest.NewRecorder()
	h.GetCart(w, getReq)

	state := decodeState(t, w.Body.Bytes())
	if len(state.Items) != 0 {
		t.Errorf("cart has %d items after checkout, want 0", len(state.Items))
	}
}

func TestHandlerCheckoutWithoutCoupon(t *testing.T) {
	h, _, publisher := newTestHandler(t)
	sessionID := uuid.New().String()

	w := httptest.NewRecorder()
	h.AddItem(w, addItemRequest(sessionID, `{"menu_item_id":"nasi-goreng","name":"Nasi Goreng","price":"25000"}`))

	req := httptest.NewRequest(http.MethodPost, "/cart/checkout", nil)
	req.Header.Set(SessionHeader, sessionID)
	w = httptest.NewRecorder()
	h.Checkout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Checkout() status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Data CheckoutResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("cannot decode checkout response: %v", err)
	}
	if resp.Data.TotalDue != 25000 {
		t.Errorf("TotalDue = %v, want 25000", resp.Data.TotalDue)
	}

	if len(publisher.Published()) != 1 {
		t.Errorf("published %d events, want only the checkout event", len(publisher.Published()))
	}
}
