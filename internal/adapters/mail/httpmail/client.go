package httpmail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vetclinic-api/internal/platform/httpclient"
)

var (
	ErrMailNotConfigured = errors.New("mail client not configured")
	ErrMailUpstream      = errors.New("mail upstream error")
)

// Config del cliente de correo transaccional.
// BaseURL, APIKey y From normalmente vendrán de env vars en main.
type Config struct {
	BaseURL string
	APIKey  string
	From    string

	// Opcional: nombre del header donde se manda la API key.
	// Si está vacío, se usa "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

// Client implementa mail.Sender contra una API HTTP de correo transaccional.
type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
	from         string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}

	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
		from:         strings.TrimSpace(cfg.From),
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send entrega un correo vía POST /v1/email/send.
func (c *Client) Send(ctx context.Context, to, subject, html string) error {
	if !c.IsConfigured() {
		return ErrMailNotConfigured
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("httpmail: recipient required")
	}

	const sendPath = "/v1/email/send"

	err := c.http.DoJSON(ctx, http.MethodPost, sendPath,
		map[string]string{c.apiKeyHeader: c.apiKey},
		sendRequest{
			From:    c.from,
			To:      to,
			Subject: subject,
			HTML:    html,
		},
		nil,
	)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) {
			return fmt.Errorf("%w: status=%d", ErrMailUpstream, he.StatusCode)
		}
		return fmt.Errorf("%w: %v", ErrMailUpstream, err)
	}
	return nil
}
