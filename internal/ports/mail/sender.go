package mail

import "context"

// Sender envía un correo saliente. Contrato fire-and-forget:
// si la entrega falla, devuelve error y el caller decide qué hacer.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}
