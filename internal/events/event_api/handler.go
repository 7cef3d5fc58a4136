package event_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-events/internal/events"
	"ms-events/internal/events/db"
	"ms-events/internal/logger"
	"ms-events/internal/models"
	"ms-events/internal/utils"
)

// Handler exposes the public and admin event endpoints
type Handler struct {
	Service *events.EventService
	Logger  *logger.Logger
}

func NewHandler(service *events.EventService, logger *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger,
	}
}

// RegisterPublicRoutes registers the unauthenticated surface on a chi router
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/events", h.ListEvents)
	r.Get("/healthz", h.Healthz)
}

// RegisterAdminRoutes registers the token-gated surface; the caller wraps
// the group with the admin middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/events", h.ListAdminEvents)
		r.Post("/events", h.CreateEvent)
		r.Put("/events/{eventId}", h.UpdateEvent)
		r.Delete("/events/{eventId}", h.DeleteEvent)
		r.Post("/events/{eventId}/duplicate", h.DuplicateEvent)
		r.Post("/import", h.ImportCSV)
		r.Get("/stats", h.GetStats)
	})
}

// writeServiceError translates service failures into the response taxonomy:
// rejected submissions get their message back with a 400, lookup misses get
// a 404, everything else is logged and kept opaque.
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	var verr *events.ValidationError
	if errors.As(err, &verr) {
		h.Logger.Warn("API", fmt.Sprintf("%s: rejected: %v", op, err))
		utils.WriteError(w, http.StatusBadRequest, verr.Error())
		return
	}
	if errors.Is(err, db.ErrNotFound) {
		h.Logger.Warn("API", fmt.Sprintf("%s: event not found", op))
		utils.WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	utils.WriteServerError(w)
}

func eventID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "eventId"), 10, 64)
}

// ---------------- PUBLIC ----------------

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := db.FilterParams{
		Types:     append(query["types"], query["type"]...),
		Date:      query.Get("date"),
		TimeOfDay: query.Get("timeOfDay"),
		Lat:       query.Get("lat"),
		Lng:       query.Get("lng"),
		Radius:    query.Get("radius"),
	}

	list, err := h.Service.ListPublic(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, "ListEvents", err)
		return
	}

	h.Logger.Debug("API", fmt.Sprintf("ListEvents: returning %d event(s)", len(list)))
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	dbTime, err := h.Service.Health(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Healthz: database unreachable: %v", err))
		utils.WriteServerError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"db_time": dbTime,
	})
}

// ---------------- ADMIN ----------------

func (h *Handler) ListAdminEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListAdmin(r.Context())
	if err != nil {
		h.writeServiceError(w, "ListAdminEvents", err)
		return
	}

	h.Logger.Debug("API", fmt.Sprintf("ListAdminEvents: returning %d event(s)", len(list)))
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "CreateEvent: received request")

	var input models.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: failed to decode request body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ids, err := h.Service.Create(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, "CreateEvent", err)
		return
	}

	h.Logger.LogEvent("CREATE", ids[0], fmt.Sprintf("inserted %d instance(s)", len(ids)))
	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"inserted": len(ids),
		"ids":      ids,
	})
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid event id")
		return
	}
	h.Logger.Info("API", fmt.Sprintf("UpdateEvent: eventId=%d", id))

	var input models.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEvent: failed to decode request body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.Service.Update(r.Context(), id, input); err != nil {
		h.writeServiceError(w, "UpdateEvent", err)
		return
	}

	h.Logger.LogEvent("UPDATE", id, "event updated")
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid event id")
		return
	}
	h.Logger.Info("API", fmt.Sprintf("DeleteEvent: eventId=%d", id))

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, "DeleteEvent", err)
		return
	}

	h.Logger.LogEvent("DELETE", id, "event deleted")
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) DuplicateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid event id")
		return
	}
	h.Logger.Info("API", fmt.Sprintf("DuplicateEvent: eventId=%d", id))

	newID, err := h.Service.Duplicate(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "DuplicateEvent", err)
		return
	}

	h.Logger.LogEvent("DUPLICATE", newID, fmt.Sprintf("copied from event %d", id))
	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"id":      newID,
	})
}

func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "ImportCSV: received request")

	inserted, err := h.Service.Import(r.Context(), r.Body)
	if err != nil {
		h.writeServiceError(w, "ImportCSV", err)
		return
	}

	h.Logger.Info("IMPORT", fmt.Sprintf("inserted %d event(s)", inserted))
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"inserted": inserted,
	})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, "GetStats", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, stats)
}
