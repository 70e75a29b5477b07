package http

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gearrent-backend/internal/metrics"
	"gearrent-backend/internal/security"
	"gearrent-backend/internal/service"
)

// MediaFiles serves locally stored media; implemented by *storage.MockStore
type MediaFiles interface {
	Open(publicID string) (io.ReadCloser, error)
}

// Deps are the services behind the HTTP API
type Deps struct {
	Inventory service.InventoryService
	Bookings  service.BookingService
	Damage    service.DamageService
	Payments  service.PaymentService
	Media     service.MediaService
	Verifier  security.Verifier
	// MediaFiles is nil unless media is kept on the local filesystem
	MediaFiles MediaFiles
	// MaxUploadBytes bounds multipart request bodies
	MaxUploadBytes int64
}

// NewRouter builds the gorilla/mux router with every API route
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware, metrics.Middleware, NewAuthMiddleware(d.Verifier).Handler)

	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if d.MediaFiles != nil {
		RegisterMediaRoutes(router, d.MediaFiles)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	inv := NewInventoryHandler(d.Inventory)
	api.HandleFunc("/inventory", inv.List).Methods(http.MethodGet)
	api.HandleFunc("/inventory", inv.Create).Methods(http.MethodPost)
	api.HandleFunc("/inventory/bootstrap", inv.Bootstrap).Methods(http.MethodPost)
	api.HandleFunc("/inventory/{id}", inv.Get).Methods(http.MethodGet)
	api.HandleFunc("/inventory/{id}", inv.Update).Methods(http.MethodPut)
	api.HandleFunc("/inventory/{id}", inv.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/inventory/{id}/operations", inv.ApplyOperation).Methods(http.MethodPost)

	bk := NewBookingHandler(d.Bookings, d.Payments, d.Media, d.MaxUploadBytes)
	api.HandleFunc("/bookings", bk.Create).Methods(http.MethodPost)
	api.HandleFunc("/bookings", bk.List).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}", bk.Get).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/status", bk.Transition).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/payments", bk.RecordPayment).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/refunds", bk.RecordRefund).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/paypal", bk.CapturePayPal).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/payment-proof", bk.UploadPaymentProof).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/payment-proof/{publicId:.+}", bk.DeletePaymentProof).Methods(http.MethodDelete)

	dmg := NewDamageHandler(d.Damage, d.Media, d.MaxUploadBytes)
	api.HandleFunc("/damage-reports", dmg.List).Methods(http.MethodGet)
	api.HandleFunc("/damage-reports", dmg.Create).Methods(http.MethodPost)
	api.HandleFunc("/damage-reports/{id}", dmg.Get).Methods(http.MethodGet)
	api.HandleFunc("/damage-reports/{id}/status", dmg.UpdateStatus).Methods(http.MethodPost)
	api.HandleFunc("/damage-reports/{id}/photos", dmg.AttachPhoto).Methods(http.MethodPost)
	api.HandleFunc("/damage-reports/{id}", dmg.Delete).Methods(http.MethodDelete)

	return router
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
