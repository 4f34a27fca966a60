package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"vetclinic-api/internal/domain/users"
	"vetclinic-api/internal/middleware"
	"vetclinic-api/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, usersSvc *users.Service) {
	r.Route("/appointments", func(ar chi.Router) {
		ar.Post("/", createAppointmentHandler(svc))
		ar.Get("/", listAppointmentsHandler(svc))
		ar.Get("/available", availableSlotsHandler(svc))

		ar.Get("/{appointmentID}", getAppointmentHandler(svc))
		ar.Post("/{appointmentID}/cancel", cancelAppointmentHandler(svc))
		ar.Put("/{appointmentID}/status", updateStatusHandler(svc))
		ar.Put("/{appointmentID}/vet", assignVetHandler(svc, usersSvc))
	})
}

type createAppointmentRequest struct {
	PetID     string `json:"pet_id"`
	ServiceID string `json:"service_id"`
	Date      string `json:"date"` // RFC3339 o "2006-01-02T15:04" (hora local)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type assignVetRequest struct {
	VetUserID string `json:"vet_user_id"`
}

type appointmentResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PetID     string    `json:"pet_id"`
	ServiceID string    `json:"service_id"`
	VetUserID string    `json:"vet_user_id,omitempty"`
	Date      time.Time `json:"date"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// createAppointmentHandler godoc
// @Summary Agendar cita
// @Description Crea una cita Pending para una mascota del caller. Reglas: fecha futura, hora entre 8 y 16 en punto, slot libre.
// @Tags appointments
// @Accept json
// @Produce json
// @Param payload body createAppointmentRequest true "Datos de la cita"
// @Success 201 {object} appointmentResponse
// @Failure 400 {object} map[string]string "validación / slot ocupado"
// @Failure 401 {object} map[string]string "no autenticado"
// @Failure 404 {object} map[string]string "mascota o servicio no encontrado"
// @Router /appointments [post]
func createAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authedClaims(w, r)
		if !ok {
			return
		}

		var req createAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		if strings.TrimSpace(req.PetID) == "" || strings.TrimSpace(req.ServiceID) == "" || strings.TrimSpace(req.Date) == "" {
			writeError(w, http.StatusBadRequest, "Faltan campos requeridos: mascota, servicio y fecha")
			return
		}

		date, err := parseAppointmentDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Fecha inválida")
			return
		}

		a, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			PetID:     req.PetID,
			ServiceID: req.ServiceID,
			Date:      date,
		})
		if err != nil {
			writeCreateError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(a))
	}
}

func writeCreateError(w http.ResponseWriter, err error) {
	var hoursErr *OutOfHoursError
	switch {
	case errors.Is(err, ErrMissingFields):
		writeError(w, http.StatusBadRequest, "Faltan campos requeridos: mascota, servicio y fecha")
	case errors.Is(err, ErrPetNotFound):
		writeError(w, http.StatusNotFound, "Mascota no encontrada")
	case errors.Is(err, ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "Servicio no encontrado")
	case errors.Is(err, ErrServiceInactive):
		writeError(w, http.StatusBadRequest, "El servicio no está disponible")
	case errors.Is(err, ErrPastDate):
		writeError(w, http.StatusBadRequest, "La fecha de la cita no puede estar en el pasado")
	case errors.As(err, &hoursErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message":      "Las citas solo pueden agendarse entre las 8:00 y las 17:00",
			"receivedHour": hoursErr.Hour,
		})
	case errors.Is(err, ErrNotOnTheHour):
		writeError(w, http.StatusBadRequest, "Las citas deben agendarse en punto (minutos 00)")
	case errors.Is(err, ErrSlotTaken):
		writeError(w, http.StatusBadRequest, "Ya existe una cita agendada para este horario")
	default:
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
	}
}

func listAppointmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authedClaims(w, r)
		if !ok {
			return
		}

		var (
			items []Appointment
			err   error
		)
		switch users.Role(claims.Role) {
		case users.RoleAdmin, users.RoleSecretary:
			// El listado global barre primero las citas vencidas.
			items, err = svc.List(r.Context())
		case users.RoleVet:
			items, err = svc.ListByVet(r.Context(), claims.UserID)
		default:
			items, err = svc.ListByUser(r.Context(), claims.UserID)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		out := make([]appointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAppointmentResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func availableSlotsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authedClaims(w, r); !ok {
			return
		}

		day, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "El parámetro date debe ser YYYY-MM-DD")
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), day)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		out := make([]string, 0, len(slots))
		for _, s := range slots {
			out = append(out, s.Format(time.RFC3339))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"date":  day.Format("2006-01-02"),
			"slots": out,
		})
	}
}

func getAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authedClaims(w, r)
		if !ok {
			return
		}

		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeError(w, http.StatusNotFound, "Cita no encontrada")
			return
		}

		// Pueden verla: el dueño, el veterinario asignado y el personal.
		role := users.Role(claims.Role)
		if a.UserID != claims.UserID && a.VetUserID != claims.UserID && !role.IsStaff() {
			writeError(w, http.StatusNotFound, "Cita no encontrada")
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(a))
	}
}

func cancelAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authedClaims(w, r)
		if !ok {
			return
		}

		staff := users.Role(claims.Role) == users.RoleAdmin || users.Role(claims.Role) == users.RoleSecretary
		a, err := svc.Cancel(r.Context(), chi.URLParam(r, "appointmentID"), claims.UserID, staff)
		if err != nil {
			var windowErr *CancellationWindowError
			switch {
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "Cita no encontrada")
			case errors.Is(err, ErrAlreadyCancelled):
				writeError(w, http.StatusBadRequest, "La cita ya está cancelada")
			case errors.Is(err, ErrAlreadyCompleted):
				writeError(w, http.StatusBadRequest, "No se puede cancelar una cita completada")
			case errors.As(err, &windowErr):
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"message":              "Las citas solo pueden cancelarse con más de 2 días de anticipación",
					"daysUntilAppointment": windowErr.DaysUntil,
				})
			default:
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message":     "Cita cancelada exitosamente",
			"appointment": toAppointmentResponse(a),
		})
	}
}

func updateStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authedClaims(w, r)
		if !ok {
			return
		}
		if users.Role(claims.Role) != users.RoleVet {
			writeError(w, http.StatusForbidden, "Acceso denegado: permisos insuficientes")
			return
		}

		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		a, err := svc.UpdateStatus(r.Context(), chi.URLParam(r, "appointmentID"), claims.UserID, Status(req.Status))
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidStatus):
				writeError(w, http.StatusBadRequest, "Estado inválido: solo se acepta Completed o Cancelled")
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "Cita no encontrada")
			case errors.Is(err, ErrForbidden):
				writeError(w, http.StatusForbidden, "Solo el veterinario asignado puede actualizar la cita")
			case errors.Is(err, ErrAlreadyCancelled):
				writeError(w, http.StatusBadRequest, "La cita ya está cancelada")
			default:
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message":     "Estado actualizado exitosamente",
			"appointment": toAppointmentResponse(a),
		})
	}
}

func assignVetHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authedClaims(w, r)
		if !ok {
			return
		}
		role := users.Role(claims.Role)
		if role != users.RoleAdmin && role != users.RoleSecretary {
			writeError(w, http.StatusForbidden, "Acceso denegado: permisos insuficientes")
			return
		}

		var req assignVetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		vet, err := usersSvc.GetByID(r.Context(), req.VetUserID)
		if err != nil || vet.Role != users.RoleVet {
			writeError(w, http.StatusBadRequest, "El usuario indicado no es un veterinario")
			return
		}

		a, err := svc.AssignVet(r.Context(), chi.URLParam(r, "appointmentID"), vet.ID)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "Cita no encontrada")
			case errors.Is(err, ErrAlreadyCancelled):
				writeError(w, http.StatusBadRequest, "La cita ya está cancelada")
			case errors.Is(err, ErrAlreadyCompleted):
				writeError(w, http.StatusBadRequest, "La cita ya fue completada")
			default:
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message":     "Veterinario asignado exitosamente",
			"appointment": toAppointmentResponse(a),
		})
	}
}

// parseAppointmentDate acepta RFC3339 o fecha-hora local sin zona.
func parseAppointmentDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04", s, time.Local)
}

func authedClaims(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		writeError(w, http.StatusUnauthorized, "No autenticado")
		return auth.Claims{}, false
	}
	return claims, true
}

func toAppointmentResponse(a Appointment) appointmentResponse {
	return appointmentResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		PetID:     a.PetID,
		ServiceID: a.ServiceID,
		VetUserID: a.VetUserID,
		Date:      a.Date,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
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
