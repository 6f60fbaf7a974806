package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

// Handler handles HTTP requests for campaigns and price resolution
type Handler struct {
	repo   CampaignRepo
	logger apt.Logger
	config *apt.Config
	tlm    *telemetry.HTTP
}

// NewHandler creates a new Handler for pricing operations
func NewHandler(repo CampaignRepo, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
		config: config,
		tlm:    telemetry.NewHTTP(),
	}
}

// RegisterRoutes registers campaign and pricing routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", h.CreateCampaign)
		r.Get("/", h.ListCampaigns)
		r.Get("/{id}", h.GetCampaign)
		r.Put("/{id}", h.UpdateCampaign)
		r.Delete("/{id}", h.DeleteCampaign)
	})

	r.Route("/pricing", func(r chi.Router) {
		r.Post("/quote", h.QuotePrice)
		r.Post("/coupon", h.RedeemCoupon)
	})
}

// Campaign Handlers

// CreateCampaign handles POST /campaigns
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateCampaign")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	campaign, ok := h.decodeCampaignPayload(w, r, log)
	if !ok {
		return
	}

	campaign.BeforeCreate()

	if validationErrors := ValidateCampaign(campaign); len(validationErrors) > 0 {
		log.Debug("campaign validation failed", "errors", validationErrors)
		h.respondValidationErrors(w, validationErrors)
		return
	}

	if err := h.repo.Create(ctx, campaign); err != nil {
		log.Error("cannot create campaign", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create campaign")
		return
	}

	links := apt.RESTfulLinksFor(campaign)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, campaign, links...)
}

// GetCampaign handles GET /campaigns/{id}
func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetCampaign")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	campaign, err := h.repo.Get(ctx, id)
	if err != nil {
		log.Error("error loading campaign", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Campaign not found")
		return
	}

	if campaign == nil {
		apt.RespondError(w, http.StatusNotFound, "Campaign not found")
		return
	}

	links := apt.RESTfulLinksFor(campaign)
	apt.RespondSuccess(w, campaign, links...)
}

// ListCampaigns handles GET /campaigns
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListCampaigns")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	activeOnly := r.URL.Query().Get("active") == "true"

	var campaigns []*Campaign
	var err error

	if activeOnly {
		campaigns, err = h.repo.ListActive(ctx)
	} else {
		campaigns, err = h.repo.List(ctx)
	}

	if err != nil {
		log.Error("error retrieving campaigns", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve campaigns")
		return
	}

	apt.RespondCollection(w, campaigns, "campaign")
}

// UpdateCampaign handles PUT /campaigns/{id}
func (h *Handler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateCampaign")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	existing, err := h.repo.Get(ctx, id)
	if err != nil || existing == nil {
		log.Error("campaign not found", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Campaign not found")
		return
	}

	campaign, ok := h.decodeCampaignPayload(w, r, log)
	if !ok {
		return
	}

	campaign.ID = id
	campaign.CreatedAt = existing.CreatedAt
	campaign.CreatedBy = existing.CreatedBy
	campaign.BeforeUpdate()

	if validationErrors := ValidateCampaign(campaign); len(validationErrors) > 0 {
		log.Debug("campaign validation failed", "errors", validationErrors)
		h.respondValidationErrors(w, validationErrors)
		return
	}

	if err := h.repo.Save(ctx, campaign); err != nil {
		log.Error("cannot update campaign", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update campaign")
		return
	}

	links := apt.RESTfulLinksFor(campaign)
	apt.RespondSuccess(w, campaign, links...)
}

// DeleteCampaign handles DELETE /campaigns/{id}
func (h *Handler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteCampaign")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		log.Error("cannot delete campaign", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete campaign")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]string{"status": "deleted"}, nil)
}

// Pricing Handlers

// QuotePrice handles POST /pricing/quote
func (h *Handler) QuotePrice(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.QuotePrice")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeQuotePayload(w, r, log)
	if !ok {
		return
	}

	if req.ItemID == "" {
		log.Debug("missing item_id in quote request")
		apt.RespondError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	campaigns, err := h.activeCampaigns(ctx)
	if err != nil {
		log.Error("error retrieving campaigns for quote", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not resolve price")
		return
	}

	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	ref := ItemRef{ID: req.ItemID, Category: req.Category}
	quote := ResolveRawPrice(rawValue(req.BasePrice), ref, campaigns, asOf)

	apt.Respond(w, http.StatusOK, quote, nil)
}

// RedeemCoupon handles POST /pricing/coupon
func (h *Handler) RedeemCoupon(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RedeemCoupon")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeCouponPayload(w, r, log)
	if !ok {
		return
	}

	campaigns, err := h.allCampaigns(ctx)
	if err != nil {
		log.Error("error retrieving campaigns for coupon", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not redeem coupon")
		return
	}

	result, err := ApplyCoupon(req.Total, req.Code, campaigns)
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			log.Debug("invalid coupon code", "code", req.Code)
			apt.RespondError(w, http.StatusUnprocessableEntity, "Coupon is invalid or expired")
			return
		}
		log.Error("error applying coupon", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not redeem coupon")
		return
	}

	apt.Respond(w, http.StatusOK, result, nil)
}

// Payload decoders

type QuoteRequest struct {
	ItemID    string          `json:"item_id"`
	Category  string          `json:"category"`
	BasePrice json.RawMessage `json:"base_price"`
	AsOf      *time.Time      `json:"as_of,omitempty"`
}

type CouponRequest struct {
	Total float64 `json:"total"`
	Code  string  `json:"code"`
}

func (h *Handler) decodeCampaignPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (*Campaign, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return nil, false
	}

	var campaign Campaign
	if err := json.Unmarshal(body, &campaign); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return nil, false
	}

	return &campaign, true
}

func (h *Handler) decodeQuotePayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (QuoteRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return QuoteRequest{}, false
	}

	var req QuoteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return QuoteRequest{}, false
	}

	return req, true
}

func (h *Handler) decodeCouponPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (CouponRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return CouponRequest{}, false
	}

	var req CouponRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return CouponRequest{}, false
	}

	return req, true
}

// Helpers

func (h *Handler) activeCampaigns(ctx context.Context) ([]Campaign, error) {
	records, err := h.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return dereference(records), nil
}

func (h *Handler) allCampaigns(ctx context.Context) ([]Campaign, error) {
	records, err := h.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return dereference(records), nil
}

func dereference(records []*Campaign) []Campaign {
	campaigns := make([]Campaign, 0, len(records))
	for _, record := range records {
		if record != nil {
			campaigns = append(campaigns, *record)
		}
	}
	return campaigns
}

// rawValue unwraps a JSON value into the shape ResolveRawPrice expects:
// quoted strings become strings, numbers become float64, anything else
// passes through as the raw text so parse failures degrade gracefully.
func rawValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	return string(raw)
}

func (h *Handler) respondValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  "Validation failed",
		"errors": errors,
	})
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
