package products

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"vetclinic-api/internal/domain/users"
	"vetclinic-api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/products", func(pr chi.Router) {
		pr.Get("/", listProductsHandler(svc))
		pr.Get("/{productID}", getProductHandler(svc))

		// Personal
		pr.Post("/", createProductHandler(svc))
		pr.Put("/{productID}", updateProductHandler(svc))
		pr.Delete("/{productID}", deleteProductHandler(svc))
	})
}

type createProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

type updateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
}

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func listProductsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) {
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		out := make([]productResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toProductResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) {
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "productID"))
		if err != nil {
			writeError(w, http.StatusNotFound, "Producto no encontrado")
			return
		}
		writeJSON(w, http.StatusOK, toProductResponse(p))
	}
}

func createProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireStaff(w, r) {
			return
		}

		var req createProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		p, err := svc.Create(r.Context(), CreateInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Stock:       req.Stock,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, "Datos de producto inválidos")
			return
		}

		writeJSON(w, http.StatusCreated, toProductResponse(p))
	}
}

func updateProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireStaff(w, r) {
			return
		}

		var req updateProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		p, err := svc.Update(r.Context(), chi.URLParam(r, "productID"), UpdateInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Stock:       req.Stock,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				writeError(w, http.StatusBadRequest, "Datos de producto inválidos")
			case ErrNotFound:
				writeError(w, http.StatusNotFound, "Producto no encontrado")
			default:
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		writeJSON(w, http.StatusOK, toProductResponse(p))
	}
}

func deleteProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireStaff(w, r) {
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "productID")); err != nil {
			writeError(w, http.StatusNotFound, "Producto no encontrado")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Producto eliminado exitosamente",
		})
	}
}

func authed(w http.ResponseWriter, r *http.Request) bool {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		writeError(w, http.StatusUnauthorized, "No autenticado")
		return false
	}
	return true
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

func toProductResponse(p Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
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
