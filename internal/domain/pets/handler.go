package pets

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"vetclinic-api/internal/domain/users"
	"vetclinic-api/internal/middleware"
	"vetclinic-api/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, purgers ...DependentsPurger) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		// Perfil de mascota (owner o personal de la clínica)
		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))

		// Borrado con cascada de dependientes (solo admin)
		pr.Delete("/{petID}", deletePetHandler(svc, purgers))
	})
}

type createPetRequest struct {
	Name      string  `json:"name"`
	Species   string  `json:"species"`
	Breed     string  `json:"breed"`
	Sex       string  `json:"sex"`
	BirthDate string  `json:"birth_date"` // YYYY-MM-DD opcional
	WeightKg  float64 `json:"weight_kg"`
	Color     string  `json:"color"`
	Notes     string  `json:"notes"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name      *string  `json:"name"`
	Breed     *string  `json:"breed"`
	Sex       *string  `json:"sex"`
	BirthDate *string  `json:"birth_date"` // YYYY-MM-DD
	WeightKg  *float64 `json:"weight_kg"`
	Color     *string  `json:"color"`
	Notes     *string  `json:"notes"`
}

type petResponse struct {
	ID          string     `json:"id"`
	OwnerUserID string     `json:"owner_user_id"`
	Name        string     `json:"name"`
	Species     Species    `json:"species"`
	Breed       string     `json:"breed"`
	Sex         Sex        `json:"sex"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	WeightKg    float64    `json:"weight_kg"`
	Color       string     `json:"color"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authedClaims(w, r)
		if !ok {
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse("2006-01-02", req.BirthDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "birth_date debe ser YYYY-MM-DD")
				return
			}
			bd = &t
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			Sex:       req.Sex,
			BirthDate: bd,
			WeightKg:  req.WeightKg,
			Color:     req.Color,
			Notes:     req.Notes,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, "Datos de mascota inválidos")
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authedClaims(w, r)
		if !ok {
			return
		}

		var (
			items []Pet
			err   error
		)
		if isStaff(claims) && r.URL.Query().Get("all") == "true" {
			items, err = svc.List(r.Context())
		} else {
			items, err = svc.ListByOwner(r.Context(), claims.UserID)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authedClaims(w, r)
		if !ok {
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, http.StatusNotFound, "Mascota no encontrada")
			return
		}

		// Mismo 404 para mascota ajena: no confirmar existencia.
		if p.OwnerUserID != claims.UserID && !isStaff(claims) {
			writeError(w, http.StatusNotFound, "Mascota no encontrada")
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authedClaims(w, r)
		if !ok {
			return
		}

		petID := chi.URLParam(r, "petID")
		current, err := svc.GetByID(r.Context(), petID)
		if err != nil {
			writeError(w, http.StatusNotFound, "Mascota no encontrada")
			return
		}

		if current.OwnerUserID != claims.UserID && !isStaff(claims) {
			writeError(w, http.StatusNotFound, "Mascota no encontrada")
			return
		}

		var req updatePetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		var bd *time.Time
		if req.BirthDate != nil {
			t, err := time.Parse("2006-01-02", *req.BirthDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "birth_date debe ser YYYY-MM-DD")
				return
			}
			bd = &t
		}

		updated, err := svc.Update(r.Context(), petID, UpdateInput{
			Name:      req.Name,
			Breed:     req.Breed,
			Sex:       req.Sex,
			BirthDate: bd,
			WeightKg:  req.WeightKg,
			Color:     req.Color,
			Notes:     req.Notes,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				writeError(w, http.StatusBadRequest, "Datos de mascota inválidos")
			case ErrNotFound:
				writeError(w, http.StatusNotFound, "Mascota no encontrada")
			default:
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

func deletePetHandler(svc *Service, purgers []DependentsPurger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authedClaims(w, r)
		if !ok {
			return
		}
		if users.Role(claims.Role) != users.RoleAdmin {
			writeError(w, http.StatusForbidden, "Acceso denegado: permisos insuficientes")
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID"), purgers...); err != nil {
			switch err {
			case ErrNotFound, ErrInvalidInput:
				writeError(w, http.StatusNotFound, "Mascota no encontrada")
			default:
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Mascota y registros asociados eliminados exitosamente",
		})
	}
}

func authedClaims(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		writeError(w, http.StatusUnauthorized, "No autenticado")
		return auth.Claims{}, false
	}
	return claims, true
}

func isStaff(c auth.Claims) bool {
	return users.Role(c.Role).IsStaff()
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:          p.ID,
		OwnerUserID: p.OwnerUserID,
		Name:        p.Name,
		Species:     p.Species,
		Breed:       p.Breed,
		Sex:         p.Sex,
		BirthDate:   p.BirthDate,
		WeightKg:    p.WeightKg,
		Color:       p.Color,
		Notes:       p.Notes,
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
