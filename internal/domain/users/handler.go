package users

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"vetclinic-api/internal/middleware"
	"vetclinic-api/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, issuer auth.TokenIssuer) {
	// Público
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", registerHandler(svc))
		ar.Post("/login", loginHandler(svc, issuer))
	})

	r.Route("/users", func(ur chi.Router) {
		// Perfil propio
		ur.Get("/profile", getProfileHandler(svc))
		ur.Put("/profile", updateProfileHandler(svc))

		// Personal
		ur.Get("/", listUsersHandler(svc))
		ur.Get("/vets", listVetsHandler(svc))

		// Admin
		ur.Get("/{userID}", getUserHandler(svc))
		ur.Put("/{userID}/role", updateRoleHandler(svc))
		ur.Delete("/{userID}", deleteUserHandler(svc))
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	LastName *string `json:"last_name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Password *string `json:"password"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// userResponse nunca incluye el hash de la contraseña.
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		u, err := svc.Register(r.Context(), RegisterInput{
			Name:     req.Name,
			LastName: req.LastName,
			Email:    req.Email,
			Password: req.Password,
			Phone:    req.Phone,
			Address:  req.Address,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				writeError(w, http.StatusBadRequest, "Datos de registro inválidos")
			case ErrEmailTaken:
				writeError(w, http.StatusConflict, "El email ya está registrado")
			default:
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Usuario registrado exitosamente",
			"user":    toUserResponse(u),
		})
	}
}

func loginHandler(svc *Service, issuer auth.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		u, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			switch err {
			case ErrInvalidInput:
				writeError(w, http.StatusBadRequest, "Email y contraseña son requeridos")
			case ErrInactiveAccount:
				writeError(w, http.StatusForbidden, "La cuenta está inactiva")
			default:
				writeError(w, http.StatusUnauthorized, "Credenciales inválidas")
			}
			return
		}

		if issuer == nil {
			// Modo dev sin emisor de tokens: el login no tiene sentido aquí.
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		token, err := issuer.Issue(auth.Claims{UserID: u.ID, Role: string(u.Role)})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Inicio de sesión exitoso",
			"token":   token,
			"user":    toUserResponse(u),
		})
	}
}

func getProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		u, err := svc.GetByID(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, http.StatusNotFound, "Usuario no encontrado")
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func updateProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		var req updateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		u, err := svc.UpdateProfile(r.Context(), claims.UserID, UpdateProfileInput{
			Name:     req.Name,
			LastName: req.LastName,
			Phone:    req.Phone,
			Address:  req.Address,
			Password: req.Password,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				writeError(w, http.StatusBadRequest, "Datos de perfil inválidos")
			case ErrNotFound:
				writeError(w, http.StatusNotFound, "Usuario no encontrado")
			default:
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Perfil actualizado exitosamente",
			"user":    toUserResponse(u),
		})
	}
}

func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireRole(w, r, RoleAdmin, RoleSecretary) {
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listVetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireRole(w, r, RoleAdmin, RoleSecretary, RoleVet) {
			return
		}

		items, err := svc.ListByRole(r.Context(), RoleVet)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}

		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireRole(w, r, RoleAdmin, RoleSecretary) {
			return
		}

		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, http.StatusNotFound, "Usuario no encontrado")
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func updateRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireRole(w, r, RoleAdmin) {
			return
		}

		var req updateRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		role, ok := ParseRole(req.Role)
		if !ok {
			writeError(w, http.StatusBadRequest, "Rol inválido")
			return
		}

		u, err := svc.UpdateRole(r.Context(), chi.URLParam(r, "userID"), role)
		if err != nil {
			switch err {
			case ErrNotFound:
				writeError(w, http.StatusNotFound, "Usuario no encontrado")
			default:
				writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Rol actualizado exitosamente",
			"user":    toUserResponse(u),
		})
	}
}

func deleteUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireRole(w, r, RoleAdmin) {
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
			writeError(w, http.StatusNotFound, "Usuario no encontrado")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Usuario eliminado exitosamente",
		})
	}
}

// requireRole corta con 401/403 si el caller no está autenticado
// o su rol no está en la lista. Devuelve true si puede continuar.
func requireRole(w http.ResponseWriter, r *http.Request, roles ...Role) bool {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		writeError(w, http.StatusUnauthorized, "No autenticado")
		return false
	}
	for _, role := range roles {
		if Role(claims.Role) == role {
			return true
		}
	}
	writeError(w, http.StatusForbidden, "Acceso denegado: permisos insuficientes")
	return false
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
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
