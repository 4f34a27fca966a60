package medicalrecords

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"vetclinic-api/internal/domain/pets"
	"vetclinic-api/internal/domain/users"
	"vetclinic-api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Route("/pets/{petID}/records", func(rr chi.Router) {
		rr.Post("/", createRecordHandler(svc))
		rr.Get("/", listRecordsHandler(svc, petsSvc))
	})

	r.Route("/records/{recordID}", func(rr chi.Router) {
		rr.Get("/", getRecordHandler(svc, petsSvc))
		rr.Put("/", updateRecordHandler(svc))
		rr.Delete("/", deleteRecordHandler(svc))
	})
}

type createRecordRequest struct {
	ProcedureType string `json:"procedure_type"`
	Description   string `json:"description"`
	Date          string `json:"date"` // YYYY-MM-DD
}

type updateRecordRequest struct {
	ProcedureType *string `json:"procedure_type"`
	Description   *string `json:"description"`
	Date          *string `json:"date"` // YYYY-MM-DD
}

type recordResponse struct {
	ID            string    `json:"id"`
	PetID         string    `json:"pet_id"`
	VetUserID     string    `json:"vet_user_id"`
	ProcedureType string    `json:"procedure_type"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func createRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}
		if users.Role(claims.Role) != users.RoleVet {
			writeError(w, http.StatusForbidden, "Solo un veterinario puede registrar procedimientos")
			return
		}

		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date debe ser YYYY-MM-DD")
			return
		}

		rec, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			PetID:         chi.URLParam(r, "petID"),
			ProcedureType: req.ProcedureType,
			Description:   req.Description,
			Date:          date,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "Datos de registro inválidos")
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "Mascota no encontrada")
			default:
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

func listRecordsHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		petID := chi.URLParam(r, "petID")
		p, err := petsSvc.GetByID(r.Context(), petID)
		if err != nil {
			writeError(w, http.StatusNotFound, "Mascota no encontrada")
			return
		}

		// Dueño o personal; mismo 404 para mascotas ajenas.
		if p.OwnerUserID != claims.UserID && !users.Role(claims.Role).IsStaff() {
			writeError(w, http.StatusNotFound, "Mascota no encontrada")
			return
		}

		items, err := svc.ListByPet(r.Context(), petID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getRecordHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		rec, err := svc.GetByID(r.Context(), chi.URLParam(r, "recordID"))
		if err != nil {
			writeError(w, http.StatusNotFound, "Registro no encontrado")
			return
		}

		if !users.Role(claims.Role).IsStaff() {
			p, err := petsSvc.GetByID(r.Context(), rec.PetID)
			if err != nil || p.OwnerUserID != claims.UserID {
				writeError(w, http.StatusNotFound, "Registro no encontrado")
				return
			}
		}

		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func updateRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}
		if users.Role(claims.Role) != users.RoleVet {
			writeError(w, http.StatusForbidden, "Solo un veterinario puede modificar procedimientos")
			return
		}

		var req updateRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		var date *time.Time
		if req.Date != nil {
			t, err := time.ParseInLocation("2006-01-02", *req.Date, time.Local)
			if err != nil {
				writeError(w, http.StatusBadRequest, "date debe ser YYYY-MM-DD")
				return
			}
			date = &t
		}

		rec, err := svc.Update(r.Context(), chi.URLParam(r, "recordID"), claims.UserID, UpdateInput{
			ProcedureType: req.ProcedureType,
			Description:   req.Description,
			Date:          date,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "Datos de registro inválidos")
			case errors.Is(err, ErrForbidden):
				writeError(w, http.StatusForbidden, "Solo el veterinario autor puede modificar el registro")
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "Registro no encontrado")
			default:
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func deleteRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		role := users.Role(claims.Role)
		if role != users.RoleVet && role != users.RoleAdmin {
			writeError(w, http.StatusForbidden, "Acceso denegado: permisos insuficientes")
			return
		}

		err := svc.Delete(r.Context(), chi.URLParam(r, "recordID"), claims.UserID, role == users.RoleAdmin)
		if err != nil {
			switch {
			case errors.Is(err, ErrForbidden):
				writeError(w, http.StatusForbidden, "Solo el veterinario autor puede eliminar el registro")
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "Registro no encontrado")
			default:
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Registro eliminado exitosamente",
		})
	}
}

func toRecordResponse(rec MedicalRecord) recordResponse {
	return recordResponse{
		ID:            rec.ID,
		PetID:         rec.PetID,
		VetUserID:     rec.VetUserID,
		ProcedureType: rec.ProcedureType,
		Description:   rec.Description,
		Date:          rec.Date,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
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
