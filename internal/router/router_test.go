package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vetclinic-api/internal/adapters/mail/memorymail"
	"vetclinic-api/internal/platform/logger"
	"vetclinic-api/internal/router"
)

func newTestServer(t *testing.T) (*httptest.Server, *memorymail.Sender) {
	t.Helper()

	mailer := memorymail.New()
	handler, _ := router.New(router.Options{
		Mail: mailer,
		Log:  logger.New(logger.Options{Level: logger.Error}),
	})

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts, mailer
}

func TestHTTP_EndToEnd_BookAppointment(t *testing.T) {
	ts, _ := newTestServer(t)

	ownerID := registerUser(t, ts.URL, "ana@example.com")
	petID := createPet(t, ts.URL, ownerID, map[string]any{
		"name":    "Milo",
		"species": "perro",
		"breed":   "mestizo",
		"sex":     "macho",
	})
	serviceID := createService(t, ts.URL, "Checkup")

	tomorrow10 := time.Now().AddDate(0, 0, 1)
	tomorrow10 = time.Date(tomorrow10.Year(), tomorrow10.Month(), tomorrow10.Day(), 10, 0, 0, 0, time.Local)

	// 1) Agendar mañana a las 10:00 => 201, Pending, dueña = caller
	st, body := doReq(t, ts.URL, "POST", "/api/appointments", ownerID, "Client", map[string]any{
		"pet_id":     petID,
		"service_id": serviceID,
		"date":       tomorrow10.Format("2006-01-02T15:04"),
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create appointment, got %d body=%s", st, string(body))
	}
	var created struct {
		ID     string `json:"id"`
		UserID string `json:"user_id"`
		Status string `json:"status"`
	}
	_ = json.Unmarshal(body, &created)
	if created.Status != "Pending" {
		t.Fatalf("status = %q, quiero Pending", created.Status)
	}
	if created.UserID != ownerID {
		t.Fatalf("user_id = %q, quiero %q", created.UserID, ownerID)
	}

	// 2) Mismo horario ya ocupado => 400 con el mensaje exacto
	st, body = doReq(t, ts.URL, "POST", "/api/appointments", ownerID, "Client", map[string]any{
		"pet_id":     petID,
		"service_id": serviceID,
		"date":       tomorrow10.Format("2006-01-02T15:04"),
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 slot taken, got %d body=%s", st, string(body))
	}
	if msg := messageOf(t, body); msg != "Ya existe una cita agendada para este horario" {
		t.Fatalf("mensaje = %q", msg)
	}

	// Fuera de horario => 400 con la hora recibida
	in3days := time.Now().AddDate(0, 0, 3)
	at7 := time.Date(in3days.Year(), in3days.Month(), in3days.Day(), 7, 0, 0, 0, time.Local)
	st, body = doReq(t, ts.URL, "POST", "/api/appointments", ownerID, "Client", map[string]any{
		"pet_id":     petID,
		"service_id": serviceID,
		"date":       at7.Format("2006-01-02T15:04"),
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 out of hours, got %d body=%s", st, string(body))
	}
	var hoursResp struct {
		ReceivedHour int `json:"receivedHour"`
	}
	_ = json.Unmarshal(body, &hoursResp)
	if hoursResp.ReceivedHour != 7 {
		t.Fatalf("receivedHour = %d, quiero 7 body=%s", hoursResp.ReceivedHour, string(body))
	}
}

func TestHTTP_EndToEnd_CancelAppointment(t *testing.T) {
	ts, _ := newTestServer(t)

	ownerID := registerUser(t, ts.URL, "bruno@example.com")
	petID := createPet(t, ts.URL, ownerID, map[string]any{
		"name":    "Nala",
		"species": "gato",
		"sex":     "hembra",
	})
	serviceID := createService(t, ts.URL, "Baño completo")

	in3days := time.Now().AddDate(0, 0, 3)
	at11 := time.Date(in3days.Year(), in3days.Month(), in3days.Day(), 11, 0, 0, 0, time.Local)

	st, body := doReq(t, ts.URL, "POST", "/api/appointments", ownerID, "Client", map[string]any{
		"pet_id":     petID,
		"service_id": serviceID,
		"date":       at11.Format("2006-01-02T15:04"),
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create appointment, got %d body=%s", st, string(body))
	}
	var created struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &created)

	// Cancelar a 3 días => 200, queda Cancelled
	st, body = doReq(t, ts.URL, "POST", "/api/appointments/"+created.ID+"/cancel", ownerID, "Client", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 cancel, got %d body=%s", st, string(body))
	}
	var cancelResp struct {
		Appointment struct {
			Status string `json:"status"`
		} `json:"appointment"`
	}
	_ = json.Unmarshal(body, &cancelResp)
	if cancelResp.Appointment.Status != "Cancelled" {
		t.Fatalf("status tras cancelar = %q", cancelResp.Appointment.Status)
	}

	// Segunda cancelación => 400 con el mensaje exacto
	st, body = doReq(t, ts.URL, "POST", "/api/appointments/"+created.ID+"/cancel", ownerID, "Client", nil)
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 double cancel, got %d body=%s", st, string(body))
	}
	if msg := messageOf(t, body); msg != "La cita ya está cancelada" {
		t.Fatalf("mensaje = %q", msg)
	}
}

func TestHTTP_EndToEnd_VaccineNotification(t *testing.T) {
	ts, mailer := newTestServer(t)

	ownerID := registerUser(t, ts.URL, "carla@example.com")
	petID := createPet(t, ts.URL, ownerID, map[string]any{
		"name":    "Rocky",
		"species": "perro",
		"sex":     "macho",
	})

	// Vacuna registrada hace 13 meses
	st, body := doReq(t, ts.URL, "POST", "/api/pets/"+petID+"/records", "vet-1", "Veterinario", map[string]any{
		"procedure_type": "vacuna",
		"description":    "Rabia anual",
		"date":           time.Now().AddDate(0, -13, 0).Format("2006-01-02"),
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create record, got %d body=%s", st, string(body))
	}

	// Solo admin puede disparar el motor
	st, _ = doReq(t, ts.URL, "POST", "/api/notifications/run", ownerID, "Client", nil)
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 run as client, got %d", st)
	}

	st, body = doReq(t, ts.URL, "POST", "/api/notifications/run", "admin-1", "Admin", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 run engine, got %d body=%s", st, string(body))
	}

	// Exactamente una notificación Vacuna para la dueña + un correo
	notifs := listNotifications(t, ts.URL, ownerID)
	if len(notifs) != 1 || notifs[0].Type != "Vacuna" {
		t.Fatalf("notificaciones = %+v, quiero una de tipo Vacuna", notifs)
	}
	if !strings.Contains(notifs[0].Message, "Rocky") {
		t.Fatalf("mensaje sin nombre de mascota: %q", notifs[0].Message)
	}
	if got := len(mailer.Sent()); got != 1 {
		t.Fatalf("correos = %d, quiero 1", got)
	}

	// Re-ejecución => cero filas y correos adicionales
	st, _ = doReq(t, ts.URL, "POST", "/api/notifications/run", "admin-1", "Admin", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 rerun engine, got %d", st)
	}
	if notifs = listNotifications(t, ts.URL, ownerID); len(notifs) != 1 {
		t.Fatalf("notificaciones tras re-ejecución = %d, quiero 1", len(notifs))
	}
	if got := len(mailer.Sent()); got != 1 {
		t.Fatalf("correos tras re-ejecución = %d, quiero 1", got)
	}
}

func TestHTTP_ForeignPetLooksMissing(t *testing.T) {
	ts, _ := newTestServer(t)

	ownerID := registerUser(t, ts.URL, "diego@example.com")
	otherID := registerUser(t, ts.URL, "eva@example.com")
	petID := createPet(t, ts.URL, ownerID, map[string]any{
		"name":    "Luna",
		"species": "gato",
		"sex":     "hembra",
	})

	// La mascota ajena responde 404, no 403
	st, _ := doReq(t, ts.URL, "GET", "/api/pets/"+petID, otherID, "Client", nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 foreign pet, got %d", st)
	}
}

type notifView struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func listNotifications(t *testing.T, baseURL, userID string) []notifView {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/api/notifications", userID, "Client", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list notifications, got %d body=%s", st, string(body))
	}
	var out []notifView
	_ = json.Unmarshal(body, &out)
	return out
}

func registerUser(t *testing.T, baseURL, email string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/api/auth/register", "", "", map[string]any{
		"name":      "Test",
		"last_name": "User",
		"email":     email,
		"password":  "secreta123",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register, got %d body=%s", st, string(body))
	}

	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.User.ID == "" {
		t.Fatalf("register: missing user id body=%s", string(body))
	}
	return resp.User.ID
}

func createPet(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/api/pets", userID, "Client", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create pet: missing id body=%s", string(body))
	}
	return resp.ID
}

func createService(t *testing.T, baseURL, title string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/api/services", "admin-1", "Admin", map[string]any{
		"title":            title,
		"description":      "test",
		"price":            250.0,
		"duration_minutes": 30,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create service, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create service: missing id body=%s", string(body))
	}
	return resp.ID
}

func messageOf(t *testing.T, body []byte) string {
	t.Helper()

	var resp struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &resp)
	return resp.Message
}

func doReq(t *testing.T, baseURL, method, path, debugUserID, debugRole string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
		req.Header.Set("X-Debug-User-Role", debugRole)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
