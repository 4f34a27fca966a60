// Package scheduler registra la corrida horaria del motor de
// notificaciones. Asume una sola instancia del proceso: no hay lock
// distribuido ni elección de líder.
package scheduler

import (
	"context"

	"vetclinic-api/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

// Runner es lo único que el scheduler necesita del motor.
type Runner interface {
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron   *cron.Cron
	engine Runner
	log    logger.Logger
}

func New(engine Runner, log logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		engine: engine,
		log:    log.With(map[string]any{"component": "scheduler"}),
	}
}

// Start dispara una corrida inmediata y deja registrada la recurrente
// cada hora. Se llama después de confirmar la conexión a la base; los
// errores de las corridas programadas se loggean y se descartan.
func (s *Scheduler) Start(ctx context.Context) error {
	s.runOnce(ctx)

	_, err := s.cron.AddFunc("@hourly", func() {
		s.runOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("scheduler iniciado", map[string]any{"schedule": "@hourly"})
	return nil
}

// Stop detiene el cron y espera a que termine la corrida en curso.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if err := s.engine.Run(ctx); err != nil {
		s.log.Error("corrida de notificaciones fallida", map[string]any{"error": err.Error()})
		return
	}
	s.log.Info("corrida de notificaciones completada", nil)
}
