package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"vetclinic-api/internal/adapters/auth/jwtauth"
	"vetclinic-api/internal/adapters/mail/httpmail"
	pg "vetclinic-api/internal/adapters/storage/postgres"
	"vetclinic-api/internal/platform/logger"
	"vetclinic-api/internal/ports/auth"
	"vetclinic-api/internal/ports/mail"
	"vetclinic-api/internal/router"
	"vetclinic-api/internal/scheduler"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	// Sin JWT_SECRET arranca en modo dev (headers X-Debug-User-*).
	var verifier auth.AuthVerifier
	var issuer auth.TokenIssuer
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		a, err := jwtauth.New(secret)
		if err != nil {
			log.Error("configuración jwt inválida", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		verifier = a
		issuer = a
	} else {
		log.Warn("JWT_SECRET vacío: auth en modo dev", nil)
	}

	var mailer mail.Sender
	if baseURL := os.Getenv("MAIL_API_URL"); baseURL != "" {
		client, err := httpmail.NewClient(httpmail.Config{
			BaseURL: baseURL,
			APIKey:  os.Getenv("MAIL_API_KEY"),
			From:    os.Getenv("MAIL_FROM"),
			Timeout: 10 * time.Second,
		})
		if err != nil {
			log.Error("configuración de correo inválida", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		mailer = client
	}

	opts := router.Options{
		AuthVerifier: verifier,
		TokenIssuer:  issuer,
		Mail:         mailer,
		Log:          log,
	}

	dbReady := false
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		db, err := pg.Open(dsn)
		if err != nil {
			log.Error("no se pudo conectar a postgres", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		opts.DB = db
		dbReady = true
	}

	handler, engine := router.New(opts)

	// La corrida inmediata + el cron horario se registran recién con la
	// conexión a la base confirmada; con repos en memoria no tiene sentido
	// despertar cada hora para tablas vacías, salvo que se pida explícito.
	if dbReady || os.Getenv("NOTIFY_FORCE_CRON") == "1" {
		if os.Getenv("NOTIFY_DISABLE_CRON") != "1" {
			sched := scheduler.New(engine, log)
			if err := sched.Start(context.Background()); err != nil {
				log.Error("no se pudo registrar el cron de notificaciones", map[string]any{"error": err.Error()})
				os.Exit(1)
			}
			defer sched.Stop()
		}
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
