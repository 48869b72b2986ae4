package invoicing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/andy/timebill/internal/billing"
	"github.com/andy/timebill/internal/domain"
)

func testInvoice() *domain.Invoice {
	return &domain.Invoice{
		Reference:   "ACMEWEBB0012",
		BillingDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PeriodFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodTo:    time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.NewFromInt(1500),
		TotalHours:  10,
	}
}

func testPositions() []billing.Position {
	post := &domain.AccountingPost{Name: "Umsetzung", OfferedRate: decimal.NewFromInt(150)}
	return []billing.Position{billing.NewPosition(post, 10, "")}
}

func TestSaveInvoice(t *testing.T) {
	var got invoicePayload
	var auth, requestID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/invoices" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		requestID = r.Header.Get("X-Request-Id")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(invoiceResponse{ID: "R-55"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret", zerolog.Nop())
	key, err := client.SaveInvoice(context.Background(), testInvoice(), testPositions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if key != "R-55" {
		t.Errorf("expected key R-55, got %q", key)
	}
	if auth != "Bearer secret" {
		t.Errorf("unexpected authorization header: %q", auth)
	}
	if requestID == "" {
		t.Error("expected a request id header")
	}
	if got.Reference != "ACMEWEBB0012" {
		t.Errorf("unexpected reference: %q", got.Reference)
	}
	if got.TotalAmount != "1500.00" {
		t.Errorf("unexpected total: %q", got.TotalAmount)
	}
	if len(got.Positions) != 1 || got.Positions[0].Name != "Umsetzung" {
		t.Errorf("unexpected positions: %v", got.Positions)
	}
}

func TestSaveInvoice_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid address", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret", zerolog.Nop())
	_, err := client.SaveInvoice(context.Background(), testInvoice(), testPositions())

	var remoteErr *Error
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !strings.Contains(remoteErr.Message, "status 422") {
		t.Errorf("expected the status in the message, got %q", remoteErr.Message)
	}
	if !strings.Contains(remoteErr.Message, "invalid address") {
		t.Errorf("expected the service message, got %q", remoteErr.Message)
	}
}

func TestSaveInvoice_ConnectionFailure(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1", "secret", zerolog.Nop())
	_, err := client.SaveInvoice(context.Background(), testInvoice(), testPositions())

	var remoteErr *Error
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestNoopKeepsKey(t *testing.T) {
	inv := testInvoice()
	inv.InvoicingKey = "R-1"

	key, err := NewNoop().SaveInvoice(context.Background(), inv, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "R-1" {
		t.Errorf("expected the existing key, got %q", key)
	}
}
