package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/andy/timebill/internal/billing"
	"github.com/andy/timebill/internal/domain"
)

// HTTPClient is a thin JSON client for a remote invoicing service.
// It posts the invoice with its positions and expects the created
// record's id back.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	log     zerolog.Logger
}

func NewHTTPClient(baseURL, token string, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("component", "invoicing").Logger(),
	}
}

type invoicePayload struct {
	Key          string            `json:"key,omitempty"`
	Reference    string            `json:"reference"`
	BillingDate  string            `json:"billing_date"`
	DueDate      string            `json:"due_date,omitempty"`
	PeriodFrom   string            `json:"period_from"`
	PeriodTo     string            `json:"period_to"`
	TotalAmount  string            `json:"total_amount"`
	TotalHours   float64           `json:"total_hours"`
	AddVAT       bool              `json:"add_vat"`
	Positions    []positionPayload `json:"positions"`
}

type positionPayload struct {
	Name   string  `json:"name"`
	Hours  float64 `json:"hours"`
	Rate   string  `json:"rate"`
	Amount string  `json:"amount"`
}

type invoiceResponse struct {
	ID string `json:"id"`
}

const dateLayout = "2006-01-02"

// SaveInvoice transmits the invoice. Any transport or service failure
// is returned as *Error so the pipeline can treat it as a validation
// failure.
func (c *HTTPClient) SaveInvoice(ctx context.Context, inv *domain.Invoice, positions []billing.Position) (string, error) {
	payload := invoicePayload{
		Key:         inv.InvoicingKey,
		Reference:   inv.Reference,
		BillingDate: inv.BillingDate.Format(dateLayout),
		PeriodFrom:  inv.PeriodFrom.Format(dateLayout),
		PeriodTo:    inv.PeriodTo.Format(dateLayout),
		TotalAmount: inv.TotalAmount.StringFixed(2),
		TotalHours:  inv.TotalHours,
		AddVAT:      inv.AddVAT,
	}
	if inv.DueDate != nil {
		payload.DueDate = inv.DueDate.Format(dateLayout)
	}
	for _, p := range positions {
		payload.Positions = append(payload.Positions, positionPayload{
			Name:   p.Name(),
			Hours:  p.TotalHours(),
			Rate:   p.Post.OfferedRate.StringFixed(2),
			Amount: p.TotalAmount().StringFixed(2),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &Error{Message: fmt.Sprintf("failed to encode invoice: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoices", bytes.NewReader(body))
	if err != nil {
		return "", &Error{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("reference", inv.Reference).Msg("invoicing request failed")
		return "", &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		c.log.Error().Int("status", resp.StatusCode).Str("reference", inv.Reference).
			Msg("invoicing service rejected invoice")
		return "", &Error{Message: fmt.Sprintf("status %d: %s", resp.StatusCode, string(msg))}
	}

	var result invoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &Error{Message: fmt.Sprintf("failed to decode response: %v", err)}
	}

	c.log.Debug().Str("reference", inv.Reference).Str("key", result.ID).Msg("invoice saved remotely")
	return result.ID, nil
}
