package ingest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler exposes ingestion over a small webhook server so upstream systems
// can trigger a run when new files land.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/ingest/run", h.RunIngestion).Methods("POST")
	router.HandleFunc("/api/ingest/objects", h.ListObjects).Methods("GET")
	router.HandleFunc("/healthz", h.Health).Methods("GET")
}

func (h *Handler) RunIngestion(w http.ResponseWriter, r *http.Request) {
	if key := r.URL.Query().Get("key"); key != "" {
		report, err := h.service.IngestObject(r.Context(), key, r.URL.Query().Get("etag"))
		if err != nil {
			http.Error(w, fmt.Sprintf("ingestion failed: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
		return
	}

	count, err := h.service.Run(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("ingestion failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success", "objects_ingested": count})
}

func (h *Handler) ListObjects(w http.ResponseWriter, r *http.Request) {
	objects, err := h.service.store.ListObjects(r.Context(), h.service.prefix)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(objects)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
