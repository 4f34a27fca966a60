package notifications

import (
	"context"
	"fmt"
	"math"
	"time"

	"vetclinic-api/internal/domain/appointments"
	"vetclinic-api/internal/domain/medicalrecords"
	"vetclinic-api/internal/domain/pets"
	"vetclinic-api/internal/domain/users"
	"vetclinic-api/internal/platform/logger"
	"vetclinic-api/internal/ports/mail"

	"github.com/google/uuid"
)

// Ventanas e intervalos del motor. Fijos: no se configuran por
// mascota ni por servicio.
const (
	ReminderWindow = 24 * time.Hour
	ReminderDedup  = 12 * time.Hour

	VaccineIntervalMonths = 12
	BathIntervalMonths    = 3
)

// Interfaces locales sobre los services concretos, para no acoplar el
// motor a más superficie de la que usa.
type AppointmentSource interface {
	ListPendingWindow(ctx context.Context, from, to time.Time) ([]appointments.Appointment, error)
}

type RecordSource interface {
	ListStale(ctx context.Context, procedureType string, cutoff time.Time) ([]medicalrecords.MedicalRecord, error)
}

type PetDirectory interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

// Engine recorre citas y registros médicos y emite notificaciones + correo.
// Es idempotente vía los checks de dedup del Repository; bajo ejecuciones
// concurrentes (cron + trigger manual) el dedup es best-effort.
type Engine struct {
	repo    Repository
	appts   AppointmentSource
	records RecordSource
	pets    PetDirectory
	users   UserDirectory
	mailer  mail.Sender
	log     logger.Logger
	now     func() time.Time
}

func NewEngine(
	repo Repository,
	appts AppointmentSource,
	records RecordSource,
	petDir PetDirectory,
	userDir UserDirectory,
	mailer mail.Sender,
	log logger.Logger,
) *Engine {
	return &Engine{
		repo:    repo,
		appts:   appts,
		records: records,
		pets:    petDir,
		users:   userDir,
		mailer:  mailer,
		log:     log.With(map[string]any{"component": "notifications.engine"}),
		now:     time.Now,
	}
}

// Run ejecuta los tres pases en orden. Un error a nivel de query (o de
// correo en los pases 2 y 3) aborta lo que queda y sube al caller; el
// trigger HTTP lo convierte en 500 y el scheduler lo loggea y descarta.
func (e *Engine) Run(ctx context.Context) error {
	now := e.now()

	if err := e.appointmentReminders(ctx, now); err != nil {
		return fmt.Errorf("pase de recordatorios: %w", err)
	}

	if err := e.staleProcedures(ctx, staleParams{
		procedureType: medicalrecords.ProcedureVaccine,
		notifType:     TypeVaccine,
		cutoff:        now.AddDate(0, -VaccineIntervalMonths, 0),
		subject:       "Recordatorio de vacunación",
		template:      "La última vacuna registrada de %s tiene más de 12 meses. Te recomendamos agendar una cita de vacunación.",
		now:           now,
	}); err != nil {
		return fmt.Errorf("pase de vacunas: %w", err)
	}

	if err := e.staleProcedures(ctx, staleParams{
		procedureType: medicalrecords.ProcedureBath,
		notifType:     TypeBath,
		cutoff:        now.AddDate(0, -BathIntervalMonths, 0),
		subject:       "Recordatorio de baño",
		template:      "El último baño registrado de %s tiene más de 3 meses. Te recomendamos agendar una cita de baño.",
		now:           now,
	}); err != nil {
		return fmt.Errorf("pase de baños: %w", err)
	}

	return nil
}

// appointmentReminders es el pase 1: citas Pending en [now, now+24h].
// Los errores por cita se loggean y no cortan el loop; solo el error de
// la query inicial aborta el pase.
func (e *Engine) appointmentReminders(ctx context.Context, now time.Time) error {
	items, err := e.appts.ListPendingWindow(ctx, now, now.Add(ReminderWindow))
	if err != nil {
		return err
	}

	for _, a := range items {
		if err := e.remindAppointment(ctx, now, a); err != nil {
			e.log.Warn("recordatorio de cita fallido", map[string]any{
				"appointment_id": a.ID,
				"error":          err.Error(),
			})
		}
	}
	return nil
}

func (e *Engine) remindAppointment(ctx context.Context, now time.Time, a appointments.Appointment) error {
	exists, err := e.repo.ExistsRecent(ctx, a.UserID, a.PetID, TypeAppointmentReminder, now.Add(-ReminderDedup))
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	p, err := e.pets.GetByID(ctx, a.PetID)
	if err != nil {
		return fmt.Errorf("mascota %s: %w", a.PetID, err)
	}
	u, err := e.users.GetByID(ctx, a.UserID)
	if err != nil {
		return fmt.Errorf("usuario %s: %w", a.UserID, err)
	}

	hours := int(math.Round(a.Date.Sub(now).Hours()))
	msg := fmt.Sprintf("Tienes una cita para %s en aproximadamente %d horas.", p.Name, hours)

	if err := e.repo.Create(ctx, Notification{
		ID:      uuid.NewString(),
		UserID:  a.UserID,
		PetID:   a.PetID,
		Type:    TypeAppointmentReminder,
		Message: msg,
		SentAt:  now,
	}); err != nil {
		return err
	}

	return e.mailer.Send(ctx, u.Email, "Recordatorio de cita", "<p>"+msg+"</p>")
}

type staleParams struct {
	procedureType string
	notifType     string
	cutoff        time.Time
	subject       string
	template      string // un solo %s: nombre de la mascota
	now           time.Time
}

// staleProcedures implementa los pases 2 y 3. A diferencia del pase 1,
// aquí un fallo de insert o de correo sube y aborta el resto del pase;
// solo los lookups de mascota/dueño fallidos se saltan en silencio.
func (e *Engine) staleProcedures(ctx context.Context, params staleParams) error {
	items, err := e.records.ListStale(ctx, params.procedureType, params.cutoff)
	if err != nil {
		return err
	}

	for _, rec := range items {
		p, err := e.pets.GetByID(ctx, rec.PetID)
		if err != nil {
			continue
		}
		u, err := e.users.GetByID(ctx, p.OwnerUserID)
		if err != nil {
			continue
		}

		msg := fmt.Sprintf(params.template, p.Name)

		exists, err := e.repo.ExistsExact(ctx, u.ID, p.ID, params.notifType, msg)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		if err := e.repo.Create(ctx, Notification{
			ID:      uuid.NewString(),
			UserID:  u.ID,
			PetID:   p.ID,
			Type:    params.notifType,
			Message: msg,
			SentAt:  params.now,
		}); err != nil {
			return err
		}

		if err := e.mailer.Send(ctx, u.Email, params.subject, "<p>"+msg+"</p>"); err != nil {
			return err
		}
	}

	return nil
}
