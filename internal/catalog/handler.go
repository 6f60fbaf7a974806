package catalog

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/storefront/internal/pricing"
)

const MaxBodyBytes = 1 << 20

// Handler handles HTTP requests for the storefront menu
type Handler struct {
	itemRepo     MenuItemRepo
	campaignRepo pricing.CampaignRepo
	logger       apt.Logger
	config       *apt.Config
	tlm          *telemetry.HTTP
}

func NewHandler(itemRepo MenuItemRepo, campaignRepo pricing.CampaignRepo, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		itemRepo:     itemRepo,
		campaignRepo: campaignRepo,
		logger:       logger,
		config:       config,
		tlm:          telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/menu", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Post("/", h.CreateMenuItem)
			r.Get("/", h.ListMenuItems)
			r.Get("/{id}", h.GetMenuItem)
			r.Put("/{id}", h.UpdateMenuItem)
			r.Delete("/{id}", h.DeleteMenuItem)
			r.Get("/code/{shortCode}", h.GetMenuItemByCode)
		})
	})
}

// PricedVariant is a variant decorated with its effective price.
type PricedVariant struct {
	Variant
	Discounted float64           `json:"discounted"`
	Applied    *pricing.Campaign `json:"applied_campaign,omitempty"`
}

// PricedMenuItem is a menu item decorated with the resolver's output so
// the storefront can render struck-through base prices.
type PricedMenuItem struct {
	*MenuItem
	Pricing        pricing.Quote   `json:"pricing"`
	PricedVariants []PricedVariant `json:"priced_variants,omitempty"`
}

// CreateMenuItem handles POST /menu/items
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateMenuItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	item, ok := h.decodeMenuItemPayload(w, r, log)
	if !ok {
		return
	}

	if msg, ok := validateMenuItem(item); !ok {
		log.Debug("menu item validation failed", "reason", msg)
		apt.RespondError(w, http.StatusBadRequest, msg)
		return
	}

	item.EnsureID()
	item.BeforeCreate()

	if err := h.itemRepo.Create(ctx, item); err != nil {
		log.Error("cannot create menu item", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create menu item")
		return
	}

	links := apt.RESTfulLinksFor(item)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, item, links...)
}

// GetMenuItem handles GET /menu/items/{id}
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetMenuItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	item, err := h.itemRepo.Get(ctx, id)
	if err != nil {
		log.Error("error loading menu item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Menu item not found")
		return
	}

	if item == nil {
		apt.RespondError(w, http.StatusNotFound, "Menu item not found")
		return
	}

	priced := h.decorate(r, []*MenuItem{item})
	links := apt.RESTfulLinksFor(item)
	apt.RespondSuccess(w, priced[0], links...)
}

// GetMenuItemByCode handles GET /menu/items/code/{shortCode}
func (h *Handler) GetMenuItemByCode(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetMenuItemByCode")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	shortCode := chi.URLParam(r, "shortCode")
	if shortCode == "" {
		log.Debug("missing shortCode parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing shortCode parameter")
		return
	}

	item, err := h.itemRepo.GetByShortCode(ctx, shortCode)
	if err != nil {
		log.Error("error loading menu item by code", "error", err, "code", shortCode)
		apt.RespondError(w, http.StatusNotFound, "Menu item not found")
		return
	}

	if item == nil {
		apt.RespondError(w, http.StatusNotFound, "Menu item not found")
		return
	}

	priced := h.decorate(r, []*MenuItem{item})
	links := apt.RESTfulLinksFor(item)
	apt.RespondSuccess(w, priced[0], links...)
}

// ListMenuItems handles GET /menu/items
func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListMenuItems")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	activeOnly := r.URL.Query().Get("active") == "true"
	category := r.URL.Query().Get("category")

	var items []*MenuItem
	var err error

	if category != "" {
		items, err = h.itemRepo.ListByCategory(ctx, category)
	} else if activeOnly {
		items, err = h.itemRepo.ListActive(ctx)
	} else {
		items, err = h.itemRepo.List(ctx)
	}

	if err != nil {
		log.Error("error retrieving menu items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve menu items")
		return
	}

	apt.RespondCollection(w, h.decorate(r, items), "menu/item")
}

// UpdateMenuItem handles PUT /menu/items/{id}
func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateMenuItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	existing, err := h.itemRepo.Get(ctx, id)
	if err != nil || existing == nil {
		log.Error("menu item not found", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Menu item not found")
		return
	}

	item, ok := h.decodeMenuItemPayload(w, r, log)
	if !ok {
		return
	}

	if msg, ok := validateMenuItem(item); !ok {
		log.Debug("menu item validation failed", "reason", msg)
		apt.RespondError(w, http.StatusBadRequest, msg)
		return
	}

	item.ID = id
	item.CreatedAt = existing.CreatedAt
	item.CreatedBy = existing.CreatedBy
	item.BeforeUpdate()

	if err := h.itemRepo.Save(ctx, item); err != nil {
		log.Error("cannot update menu item", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update menu item")
		return
	}

	links := apt.RESTfulLinksFor(item)
	apt.RespondSuccess(w, item, links...)
}

// DeleteMenuItem handles DELETE /menu/items/{id}
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteMenuItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if err := h.itemRepo.Delete(ctx, id); err != nil {
		log.Error("cannot delete menu item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete menu item")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]string{"status": "deleted"}, nil)
}

// decorate runs items through the pricing resolver against the currently
// active campaigns. A failed campaign lookup degrades to undecorated
// base prices; the menu always renders.
func (h *Handler) decorate(r *http.Request, items []*MenuItem) []PricedMenuItem {
	now := time.Now()
	priced := make([]PricedMenuItem, 0, len(items))

	var campaigns []pricing.Campaign
	if h.campaignRepo != nil {
		records, err := h.campaignRepo.ListActive(r.Context())
		if err != nil {
			h.log(r).Error("cannot load campaigns for menu pricing", "error", err)
		} else {
			for _, record := range records {
				if record != nil {
					campaigns = append(campaigns, *record)
				}
			}
		}
	}

	for _, item := range items {
		if item == nil {
			continue
		}
		ref := item.PricingRef()
		entry := PricedMenuItem{
			MenuItem: item,
			Pricing:  pricing.ResolveEffectivePrice(item.Price, ref, campaigns, now),
		}
		for _, variant := range item.Variants {
			quote := pricing.ResolveEffectivePrice(variant.Price, ref, campaigns, now)
			entry.PricedVariants = append(entry.PricedVariants, PricedVariant{
				Variant:    variant,
				Discounted: quote.Discounted,
				Applied:    quote.Applied,
			})
		}
		priced = append(priced, entry)
	}

	return priced
}

func validateMenuItem(item *MenuItem) (string, bool) {
	if strings.TrimSpace(item.Name) == "" {
		return "name is required", false
	}
	if strings.TrimSpace(item.ShortCode) == "" {
		return "short_code is required", false
	}
	if strings.TrimSpace(item.Category) == "" {
		return "category is required", false
	}
	if item.Price < 0 {
		return "price cannot be negative", false
	}
	for _, variant := range item.Variants {
		if strings.TrimSpace(variant.Label) == "" {
			return "variant label is required", false
		}
		if variant.Price < 0 {
			return "variant price cannot be negative", false
		}
	}
	return "", true
}

func (h *Handler) decodeMenuItemPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (*MenuItem, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("error reading request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return nil, false
	}

	var item MenuItem
	if err := json.Unmarshal(body, &item); err != nil {
		log.Debug("error decoding JSON", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return nil, false
	}

	return &item, true
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
		log.Debug("invalid id parameter", "id", idStr, "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
