package memorymail

import (
	"context"
	"sync"
)

// Message es un correo capturado en memoria.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender implementa mail.Sender guardando los correos en memoria.
// Se usa en dev (sin API de correo configurada) y en tests.
type Sender struct {
	mu   sync.Mutex
	sent []Message

	// FailWith, si no es nil, hace que Send devuelva ese error.
	FailWith error
}

func New() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, to, subject, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}

	s.sent = append(s.sent, Message{To: to, Subject: subject, HTML: html})
	return nil
}

// Sent devuelve una copia de los correos capturados.
func (s *Sender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}

// Reset descarta lo capturado.
func (s *Sender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}
