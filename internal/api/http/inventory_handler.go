package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/service"
)

type InventoryHandler struct {
	inventory service.InventoryService
}

func NewInventoryHandler(inventory service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

type createItemRequest struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    domain.Category `json:"category"`
	Description string          `json:"description"`
	DailyRate   decimal.Decimal `json:"dailyRate"`
	ImageURL    string          `json:"imageUrl"`
	Quantity    int             `json:"quantity"`
}

type updateItemRequest struct {
	Name        *string          `json:"name"`
	Category    *domain.Category `json:"category"`
	Description *string          `json:"description"`
	DailyRate   *decimal.Decimal `json:"dailyRate"`
	ImageURL    *string          `json:"imageUrl"`
}

type operationRequest struct {
	Kind        domain.OperationKind `json:"kind"`
	Quantity    int                  `json:"quantity"`
	OperationID string               `json:"operationId"`
}

// itemView hides the idempotency records stored on the item
func itemView(item *domain.InventoryItem) *domain.InventoryItem {
	out := *item
	out.AppliedOps = nil
	return &out
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.ListItems(r.Context(), domain.Category(r.URL.Query().Get("category")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]*domain.InventoryItem, 0, len(items))
	for i := range items {
		out = append(out, itemView(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.inventory.GetItem(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemView(item))
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.inventory.AddItem(r.Context(), service.NewItemRequest{
		ID:          req.ID,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		DailyRate:   req.DailyRate,
		ImageURL:    req.ImageURL,
		Quantity:    req.Quantity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemView(item))
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.inventory.UpdateItem(r.Context(), mux.Vars(r)["id"], service.UpdateItemRequest{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		DailyRate:   req.DailyRate,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemView(item))
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.DeleteItem(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InventoryHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	created, err := h.inventory.Bootstrap(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

// ApplyOperation runs a single ledger operation. A repeated operation id
// returns the earlier result with 200.
func (h *InventoryHandler) ApplyOperation(w http.ResponseWriter, r *http.Request) {
	var req operationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.inventory.ApplyOperation(r.Context(), mux.Vars(r)["id"], req.Kind, req.Quantity, req.OperationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
