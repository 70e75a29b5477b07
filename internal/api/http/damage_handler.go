package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/service"
)

type DamageHandler struct {
	damage    service.DamageService
	media     service.MediaService
	maxUpload int64
}

func NewDamageHandler(damage service.DamageService, media service.MediaService, maxUpload int64) *DamageHandler {
	return &DamageHandler{damage: damage, media: media, maxUpload: maxUpload}
}

type reportDamageRequest struct {
	ItemRef             string          `json:"itemRef"`
	BookingID           string          `json:"bookingId"`
	Severity            domain.Severity `json:"severity"`
	Description         string          `json:"description"`
	EstimatedRepairCost decimal.Decimal `json:"estimatedRepairCost"`
	CustomerName        string          `json:"customerName"`
	CustomerEmail       string          `json:"customerEmail"`
}

type damageStatusRequest struct {
	Status     domain.DamageStatus `json:"status"`
	RepairCost *decimal.Decimal    `json:"repairCost"`
}

type reportDamageResponse struct {
	Report *domain.DamageReport `json:"report"`
	// NotificationError is set when the customer email could not be sent
	NotificationError string `json:"notificationError,omitempty"`
}

func (h *DamageHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.damage.ListReports(r.Context(), domain.DamageStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reports == nil {
		reports = []domain.DamageReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *DamageHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.damage.GetReport(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *DamageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req reportDamageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.damage.ReportDamage(r.Context(), service.ReportDamageRequest{
		ItemRef:             req.ItemRef,
		BookingID:           req.BookingID,
		Severity:            req.Severity,
		Description:         req.Description,
		EstimatedRepairCost: req.EstimatedRepairCost,
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := reportDamageResponse{Report: out.Report}
	if out.NotificationErr != nil {
		resp.NotificationError = domain.Message(out.NotificationErr)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *DamageHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req damageStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.damage.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status, req.RepairCost)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *DamageHandler) AttachPhoto(w http.ResponseWriter, r *http.Request) {
	upload, cleanup, err := readUpload(w, r, h.maxUpload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	asset, err := h.media.AttachDamagePhoto(r.Context(), mux.Vars(r)["id"], upload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (h *DamageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.damage.DeleteReport(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
