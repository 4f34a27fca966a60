package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"vetclinic-api/internal/domain/users"
	"vetclinic-api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, engine *Engine) {
	r.Route("/notifications", func(rr chi.Router) {
		rr.Post("/run", runEngineHandler(engine))
		rr.Get("/", listMineHandler(svc))
		rr.Patch("/read-all", markAllReadHandler(svc))
		rr.Patch("/{notificationID}/read", markReadHandler(svc))
	})
}

type notificationResponse struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	PetID   string    `json:"pet_id"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
	IsRead  bool      `json:"is_read"`
}

// runEngineHandler dispara el motor a demanda. Mismo código que corre el
// scheduler cada hora; aquí un fallo del motor se reporta como 500.
func runEngineHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}
		if users.Role(claims.Role) != users.RoleAdmin {
			writeError(w, http.StatusForbidden, "Acceso denegado: permisos insuficientes")
			return
		}

		if err := engine.Run(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Notificaciones generadas exitosamente",
		})
	}
}

func listMineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		items, err := svc.ListByUser(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		out := make([]notificationResponse, 0, len(items))
		for _, n := range items {
			out = append(out, notificationResponse{
				ID:      n.ID,
				UserID:  n.UserID,
				PetID:   n.PetID,
				Type:    n.Type,
				Message: n.Message,
				SentAt:  n.SentAt,
				IsRead:  n.IsRead,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func markReadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		err := svc.MarkRead(r.Context(), chi.URLParam(r, "notificationID"), claims.UserID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "Notificación no encontrada")
				return
			}
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Notificación marcada como leída",
		})
	}
}

func markAllReadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		if err := svc.MarkAllRead(r.Context(), claims.UserID); err != nil {
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Notificaciones marcadas como leídas",
		})
	}
}

// writeJSON/writeError están duplicados intencionalmente en handlers de
// distintos módulos para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
