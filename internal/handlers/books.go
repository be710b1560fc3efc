package handlers

import (
	"net/http"

	"github.com/diewo77/bookbuddy/httpx"
	"github.com/diewo77/bookbuddy/internal/models"
	"github.com/diewo77/bookbuddy/internal/services"
)

type BookHandler struct {
	catalog *services.CatalogService
}

func NewBookHandler(catalog *services.CatalogService) *BookHandler {
	return &BookHandler{catalog: catalog}
}

// bookRequest accepts the shelf count under either of the names clients use.
type bookRequest struct {
	Title           string              `json:"title"`
	Author          string              `json:"author"`
	ISBN            string              `json:"isbn"`
	Category        string              `json:"category"`
	Description     string              `json:"description"`
	TotalCopies     int                 `json:"totalCopies"`
	AvailableCopies *int                `json:"availableCopies"`
	CopiesAvailable *int                `json:"copiesAvailable"`
	Price           float64             `json:"price"`
	Pricing         models.PricingTiers `json:"pricing"`
}

func (req bookRequest) input() services.BookInput {
	avail := req.AvailableCopies
	if avail == nil {
		avail = req.CopiesAvailable
	}
	return services.BookInput{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Category:        req.Category,
		Description:     req.Description,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: avail,
		Price:           req.Price,
		Pricing:         req.Pricing,
	}
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, books)
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	b, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bookView(b))
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	b, err := h.catalog.Create(r.Context(), req.input())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, bookView(b))
}

func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req bookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	b, err := h.catalog.Update(r.Context(), id, req.input())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bookView(b))
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, successResponse{Success: true})
}

// bookDetail adds the effective pricing so clients never see an empty tier list.
type bookDetail struct {
	*models.Book
	Pricing models.PricingTiers `json:"pricing"`
}

func bookView(b *models.Book) bookDetail {
	return bookDetail{Book: b, Pricing: b.EffectivePricing()}
}
