package services

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"vetclinic-api/internal/domain/users"
	"vetclinic-api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, cat *Catalog) {
	r.Route("/services", func(sr chi.Router) {
		sr.Get("/", listServicesHandler(cat))
		sr.Get("/{serviceID}", getServiceHandler(cat))

		// Personal
		sr.Post("/", createServiceHandler(cat))
		sr.Put("/{serviceID}", updateServiceHandler(cat))
		sr.Post("/{serviceID}/deactivate", deactivateServiceHandler(cat))

		// Admin
		sr.Delete("/{serviceID}", deleteServiceHandler(cat))
	})
}

type createServiceRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
}

type updateServiceRequest struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	Price           *float64 `json:"price"`
	DurationMinutes *int     `json:"duration_minutes"`
}

type serviceResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Price           float64   `json:"price"`
	DurationMinutes int       `json:"duration_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func listServicesHandler(cat *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		// Clientes ven solo servicios activos; el personal puede pedir todos.
		onlyActive := true
		if users.Role(claims.Role).IsStaff() && r.URL.Query().Get("all") == "true" {
			onlyActive = false
		}

		items, err := cat.List(r.Context(), onlyActive)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		out := make([]serviceResponse, 0, len(items))
		for _, s := range items {
			out = append(out, toServiceResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getServiceHandler(cat *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		s, err := cat.GetByID(r.Context(), chi.URLParam(r, "serviceID"))
		if err != nil {
			writeError(w, http.StatusNotFound, "Servicio no encontrado")
			return
		}
		writeJSON(w, http.StatusOK, toServiceResponse(s))
	}
}

func createServiceHandler(cat *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireStaff(w, r) {
			return
		}

		var req createServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		s, err := cat.Create(r.Context(), CreateInput{
			Title:           req.Title,
			Description:     req.Description,
			Price:           req.Price,
			DurationMinutes: req.DurationMinutes,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, "Datos de servicio inválidos")
			return
		}

		writeJSON(w, http.StatusCreated, toServiceResponse(s))
	}
}

func updateServiceHandler(cat *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireStaff(w, r) {
			return
		}

		var req updateServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		s, err := cat.Update(r.Context(), chi.URLParam(r, "serviceID"), UpdateInput{
			Title:           req.Title,
			Description:     req.Description,
			Price:           req.Price,
			DurationMinutes: req.DurationMinutes,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				writeError(w, http.StatusBadRequest, "Datos de servicio inválidos")
			case ErrNotFound:
				writeError(w, http.StatusNotFound, "Servicio no encontrado")
			default:
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		writeJSON(w, http.StatusOK, toServiceResponse(s))
	}
}

func deactivateServiceHandler(cat *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireStaff(w, r) {
			return
		}

		s, err := cat.Deactivate(r.Context(), chi.URLParam(r, "serviceID"))
		if err != nil {
			writeError(w, http.StatusNotFound, "Servicio no encontrado")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Servicio desactivado exitosamente",
			"service": toServiceResponse(s),
		})
	}
}

func deleteServiceHandler(cat *Catalog) http.HandlerFunc {
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

		if err := cat.Delete(r.Context(), chi.URLParam(r, "serviceID")); err != nil {
			writeError(w, http.StatusNotFound, "Servicio no encontrado")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Servicio eliminado exitosamente",
		})
	}
}

func requireStaff(w http.ResponseWriter, r *http.Request) bool {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		writeError(w, http.StatusUnauthorized, "No autenticado")
		return false
	}
	role := users.Role(claims.Role)
	if role != users.RoleAdmin && role != users.RoleSecretary {
		writeError(w, http.StatusForbidden, "Acceso denegado: permisos insuficientes")
		return false
	}
	return true
}

func toServiceResponse(s Service) serviceResponse {
	return serviceResponse{
		ID:              s.ID,
		Title:           s.Title,
		Description:     s.Description,
		Price:           s.Price,
		DurationMinutes: s.DurationMinutes,
		IsActive:        s.IsActive,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
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
