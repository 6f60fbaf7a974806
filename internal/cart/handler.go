package cart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	storefrontevents "github.com/appetiteclub/storefront/internal/events"
	"github.com/appetiteclub/storefront/internal/pricing"
)

const MaxBodyBytes = 1 << 20

// SessionHeader carries the browsing session identity. A missing or
// malformed value mints a fresh session; the minted id is echoed back so
// the client can stick to it.
const SessionHeader = "X-Session-ID"

type Handler struct {
	sessions     *Sessions
	campaignRepo pricing.CampaignRepo
	publisher    events.Publisher
	logger       apt.Logger
	config       *apt.Config
	tlm          *telemetry.HTTP
}

type HandlerDeps struct {
	Sessions     *Sessions
	CampaignRepo pricing.CampaignRepo
	Publisher    events.Publisher
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	sessions := hd.Sessions
	if sessions == nil {
		sessions = NewSessions(nil, logger)
	}
	return &Handler{
		sessions:     sessions,
		campaignRepo: hd.CampaignRepo,
		publisher:    hd.Publisher,
		logger:       logger,
		config:       config,
		tlm:          telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/toggle", h.ToggleCart)
		r.Post("/checkout", h.Checkout)

		r.Route("/items", func(r chi.Router) {
			r.Post("/", h.AddItem)
			r.Delete("/{id}", h.RemoveItem)
			r.Patch("/{id}/quantity", h.UpdateQuantity)
		})
	})
}

// State is the cart as presented to the storefront UI.
type State struct {
	SessionID string     `json:"session_id"`
	Items     []LineItem `json:"items"`
	Total     float64    `json:"total"`
	Open      bool       `json:"open"`
}

// GetCart handles GET /cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetCart")
	defer finish()
	ctx := r.Context()

	sessionID := h.sessionID(w, r)

	var state State
	_ = h.sessions.With(ctx, sessionID, func(c *Cart) error {
		state = snapshotState(sessionID, c)
		return nil
	})

	apt.Respond(w, http.StatusOK, state, nil)
}

// AddItem handles POST /cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeAddItemPayload(w, r, log)
	if !ok {
		return
	}

	if req.MenuItemID == "" {
		log.Debug("missing menu_item_id in add item request")
		apt.RespondError(w, http.StatusBadRequest, "menu_item_id is required")
		return
	}

	sessionID := h.sessionID(w, r)

	candidate := Candidate{
		MenuItemID: req.MenuItemID,
		Name:       req.Name,
		Category:   req.Category,
		Variant:    req.Variant,
		Price:      rawPriceString(req.Price),
		BasePrice:  req.BasePrice,
	}

	var state State
	_ = h.sessions.With(ctx, sessionID, func(c *Cart) error {
		c.AddItem(ctx, candidate)
		state = snapshotState(sessionID, c)
		return nil
	})

	apt.Respond(w, http.StatusCreated, state, nil)
}

// RemoveItem handles DELETE /cart/items/{id}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return
	}

	sessionID := h.sessionID(w, r)

	var state State
	_ = h.sessions.With(ctx, sessionID, func(c *Cart) error {
		c.RemoveItem(ctx, id)
		state = snapshotState(sessionID, c)
		return nil
	})

	apt.Respond(w, http.StatusOK, state, nil)
}

// UpdateQuantity handles PATCH /cart/items/{id}/quantity
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateQuantity")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return
	}

	req, ok := h.decodeQuantityPayload(w, r, log)
	if !ok {
		return
	}

	sessionID := h.sessionID(w, r)

	var state State
	_ = h.sessions.With(ctx, sessionID, func(c *Cart) error {
		c.UpdateQuantity(ctx, id, req.Delta)
		state = snapshotState(sessionID, c)
		return nil
	})

	apt.Respond(w, http.StatusOK, state, nil)
}

// ClearCart handles DELETE /cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearCart")
	defer finish()
	ctx := r.Context()

	sessionID := h.sessionID(w, r)

	var state State
	_ = h.sessions.With(ctx, sessionID, func(c *Cart) error {
		c.Clear(ctx)
		state = snapshotState(sessionID, c)
		return nil
	})

	apt.Respond(w, http.StatusOK, state, nil)
}

// ToggleCart handles POST /cart/toggle
func (h *Handler) ToggleCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ToggleCart")
	defer finish()
	ctx := r.Context()

	sessionID := h.sessionID(w, r)

	var state State
	_ = h.sessions.With(ctx, sessionID, func(c *Cart) error {
		c.ToggleOpen()
		state = snapshotState(sessionID, c)
		return nil
	})

	apt.Respond(w, http.StatusOK, state, nil)
}

// CheckoutResponse summarizes a completed checkout.
type CheckoutResponse struct {
	SessionID      string     `json:"session_id"`
	Items          []LineItem `json:"items"`
	Subtotal       float64    `json:"subtotal"`
	CouponCode     string     `json:"coupon_code,omitempty"`
	CouponDiscount float64    `json:"coupon_discount,omitempty"`
	TotalDue       float64    `json:"total_due"`
}

// Checkout handles POST /cart/checkout. An optional coupon code is
// redeemed against the cart subtotal; the balance due is clamped at
// zero. On success the cart is cleared and a checkout event is
// published for the order pipeline.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Checkout")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeCheckoutPayload(w, r, log)
	if !ok {
		return
	}

	sessionID := h.sessionID(w, r)

	var resp CheckoutResponse
	var couponErr error

	_ = h.sessions.With(ctx, sessionID, func(c *Cart) error {
		if c.Len() == 0 {
			couponErr = errEmptyCart
			return nil
		}

		items := c.Items()
		subtotal := c.Total()

		resp = CheckoutResponse{
			SessionID: sessionID.String(),
			Items:     items,
			Subtotal:  subtotal,
			TotalDue:  subtotal,
		}

		if req.CouponCode != "" {
			result, err := h.redeemCoupon(ctx, subtotal, req.CouponCode)
			if err != nil {
				couponErr = err
				return nil
			}
			resp.CouponCode = result.Coupon.Code
			resp.CouponDiscount = result.Discount
			resp.TotalDue = math.Max(0, subtotal-result.Discount)
			h.publishCouponApplied(ctx, sessionID, result, subtotal, log)
		}

		h.publishCheckout(ctx, sessionID, resp, log)
		c.Clear(ctx)
		return nil
	})

	if couponErr != nil {
		switch {
		case errors.Is(couponErr, errEmptyCart):
			log.Debug("checkout on empty cart", "session_id", sessionID.String())
			apt.RespondError(w, http.StatusBadRequest, "Cart is empty")
		case errors.Is(couponErr, pricing.ErrInvalidCoupon):
			log.Debug("invalid coupon at checkout", "code", req.CouponCode)
			apt.RespondError(w, http.StatusUnprocessableEntity, "Coupon is invalid or expired")
		default:
			log.Error("checkout failed", "error", couponErr)
			apt.RespondError(w, http.StatusInternalServerError, "Could not complete checkout")
		}
		return
	}

	apt.Respond(w, http.StatusOK, resp, nil)
}

var errEmptyCart = errors.New("cart is empty")

func (h *Handler) redeemCoupon(ctx context.Context, subtotal float64, code string) (pricing.CouponResult, error) {
	if h.campaignRepo == nil {
		return pricing.CouponResult{}, pricing.ErrInvalidCoupon
	}
	records, err := h.campaignRepo.List(ctx)
	if err != nil {
		return pricing.CouponResult{}, err
	}
	campaigns := make([]pricing.Campaign, 0, len(records))
	for _, record := range records {
		if record != nil {
			campaigns = append(campaigns, *record)
		}
	}
	return pricing.ApplyCoupon(subtotal, code, campaigns)
}

func (h *Handler) publishCheckout(ctx context.Context, sessionID uuid.UUID, resp CheckoutResponse, log apt.Logger) {
	if h.publisher == nil {
		return
	}

	lines := make([]storefrontevents.CheckoutLine, 0, len(resp.Items))
	for i := range resp.Items {
		item := resp.Items[i]
		lines = append(lines, storefrontevents.CheckoutLine{
			LineID:     item.ID,
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Category:   item.Category,
			Variant:    item.Variant,
			UnitPrice:  item.UnitPrice(),
			Quantity:   item.Quantity,
		})
	}

	evt := storefrontevents.CartCheckoutEvent{
		EventType:      storefrontevents.EventCheckoutCompleted,
		OccurredAt:     time.Now(),
		SessionID:      sessionID.String(),
		Lines:          lines,
		Subtotal:       resp.Subtotal,
		CouponCode:     resp.CouponCode,
		CouponDiscount: resp.CouponDiscount,
		TotalDue:       resp.TotalDue,
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		log.Error("cannot serialize checkout event", "error", err)
		return
	}

	if err := h.publisher.Publish(ctx, storefrontevents.CartTopic, payload); err != nil {
		log.Error("cannot publish checkout event", "error", err)
	}
}

func (h *Handler) publishCouponApplied(ctx context.Context, sessionID uuid.UUID, result pricing.CouponResult, subtotal float64, log apt.Logger) {
	if h.publisher == nil {
		return
	}

	evt := storefrontevents.CartCouponEvent{
		EventType:  storefrontevents.EventCouponApplied,
		OccurredAt: time.Now(),
		SessionID:  sessionID.String(),
		CouponCode: result.Coupon.Code,
		Discount:   result.Discount,
		Subtotal:   subtotal,
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		log.Error("cannot serialize coupon event", "error", err)
		return
	}

	if err := h.publisher.Publish(ctx, storefrontevents.CartTopic, payload); err != nil {
		log.Error("cannot publish coupon event", "error", err)
	}
}

// Payload decoders

type AddItemRequest struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Variant    string          `json:"variant,omitempty"`
	Price      json.RawMessage `json:"price"`
	BasePrice  float64         `json:"base_price"`
}

type QuantityRequest struct {
	Delta int `json:"delta"`
}

type CheckoutRequest struct {
	CouponCode string `json:"coupon_code,omitempty"`
}

func (h *Handler) decodeAddItemPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (AddItemRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return AddItemRequest{}, false
	}

	var req AddItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return AddItemRequest{}, false
	}

	return req, true
}

func (h *Handler) decodeQuantityPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (QuantityRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return QuantityRequest{}, false
	}

	var req QuantityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return QuantityRequest{}, false
	}

	return req, true
}

func (h *Handler) decodeCheckoutPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (CheckoutRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return CheckoutRequest{}, false
	}

	if len(body) == 0 {
		return CheckoutRequest{}, true
	}

	var req CheckoutRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return CheckoutRequest{}, false
	}

	return req, true
}

// Helpers

func snapshotState(sessionID uuid.UUID, c *Cart) State {
	return State{
		SessionID: sessionID.String(),
		Items:     c.Items(),
		Total:     c.Total(),
		Open:      c.IsOpen(),
	}
}

// sessionID resolves the browsing session from the request header,
// minting a fresh one when absent or malformed. The resolved id is
// always echoed on the response.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) uuid.UUID {
	raw := r.Header.Get(SessionHeader)
	id, err := uuid.Parse(raw)
	if raw == "" || err != nil {
		id = apt.GenerateNewID()
	}
	w.Header().Set(SessionHeader, id.String())
	return id
}

// rawPriceString keeps the wire shape of a price: quoted strings keep
// their text, numbers keep their literal rendering. The cart stores it
// verbatim; coercion happens only when totals are read.
func rawPriceString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
