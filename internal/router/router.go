package router

import (
	"database/sql"
	"net/http"
	"os"

	"vetclinic-api/internal/adapters/mail/memorymail"
	mem "vetclinic-api/internal/adapters/storage/memory"
	pg "vetclinic-api/internal/adapters/storage/postgres"
	"vetclinic-api/internal/domain/appointments"
	"vetclinic-api/internal/domain/medicalrecords"
	"vetclinic-api/internal/domain/notifications"
	"vetclinic-api/internal/domain/pets"
	"vetclinic-api/internal/domain/products"
	"vetclinic-api/internal/domain/services"
	"vetclinic-api/internal/domain/users"
	"vetclinic-api/internal/middleware"
	"vetclinic-api/internal/platform/logger"
	"vetclinic-api/internal/ports/auth"
	"vetclinic-api/internal/ports/mail"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	TokenIssuer  auth.TokenIssuer  // puede ser nil (modo dev: login no emite token firmado)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: sin configurar cae a memorymail (dev/tests).
	Mail mail.Sender

	Log logger.Logger
}

// New arma el router y devuelve además el motor de notificaciones, que
// cmd/api registra en el scheduler (misma instancia que dispara el
// endpoint /api/notifications/run).
func New(opts Options) (http.Handler, *notifications.Engine) {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	log := opts.Log
	if log == nil {
		log = logger.NewFromEnv()
	}

	mailer := opts.Mail
	if mailer == nil {
		mailer = memorymail.New()
	}

	var (
		userRepo    users.Repository
		petRepo     pets.Repository
		serviceRepo services.Repository
		productRepo products.Repository
		apptRepo    appointments.Repository
		recordRepo  medicalrecords.Repository
		notifRepo   notifications.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		userRepo = pg.NewUsersRepo(db)
		petRepo = pg.NewPetsRepo(db)
		serviceRepo = pg.NewServicesRepo(db)
		productRepo = pg.NewProductsRepo(db)
		apptRepo = pg.NewAppointmentsRepo(db)
		recordRepo = pg.NewMedicalRecordsRepo(db)
		notifRepo = pg.NewNotificationsRepo(db)
	} else {
		userRepo = mem.NewUserRepo()
		petRepo = mem.NewPetRepo()
		serviceRepo = mem.NewServiceRepo()
		productRepo = mem.NewProductRepo()
		apptRepo = mem.NewAppointmentRepo()
		recordRepo = mem.NewMedicalRecordRepo()
		notifRepo = mem.NewNotificationRepo()
	}

	// Services por módulo
	usersSvc := users.NewService(userRepo)
	petsSvc := pets.NewService(petRepo)
	catalog := services.NewCatalog(serviceRepo)
	productsSvc := products.NewService(productRepo)
	apptsSvc := appointments.NewService(apptRepo, petsSvc, catalog)
	recordsSvc := medicalrecords.NewService(recordRepo, petsSvc)
	notifSvc := notifications.NewService(notifRepo)

	engine := notifications.NewEngine(notifRepo, apptsSvc, recordsSvc, petsSvc, usersSvc, mailer, log)

	// Rutas por módulo, todas bajo /api
	r.Route("/api", func(api chi.Router) {
		users.RegisterRoutes(api, usersSvc, opts.TokenIssuer)
		// El borrado admin de mascota arrastra citas, historial y notificaciones.
		pets.RegisterRoutes(api, petsSvc, apptsSvc, recordsSvc, notifSvc)
		services.RegisterRoutes(api, catalog)
		products.RegisterRoutes(api, productsSvc)
		appointments.RegisterRoutes(api, apptsSvc, usersSvc)
		medicalrecords.RegisterRoutes(api, recordsSvc, petsSvc)
		notifications.RegisterRoutes(api, notifSvc, engine)
	})

	return r, engine
}
