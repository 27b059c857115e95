package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const draftJSON = `{
  "issue_date": "2026-10-01",
  "expiry_date": "2026-10-31",
  "items": [
    {"item_detail": "Design", "quantity": "2", "unit_price": "500", "discount": "0"},
    {"item_detail": "Hosting", "quantity": "1", "unit_price": "120.50", "discount": "20.50"}
  ],
  "adjustments": [{"price_adjustment": "tax", "amount": "79"}]
}`

func TestTotalsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.json")
	require.NoError(t, os.WriteFile(path, []byte(draftJSON), 0o600))

	out, err := run(t, "", "totals", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1. Design  $1,000.00")
	assert.Contains(t, out, "2. Hosting  $100.00")
	assert.Contains(t, out, "Subtotal: $1,141.00")
	assert.Contains(t, out, "Total: $1,220.00")
}

func TestTotalsValidatesKind(t *testing.T) {
	_, err := run(t, `{"issue_date":"2026-10-01","expiry_date":"2026-10-31","items":[]}`, "totals", "-", "--kind", "invoice")
	require.Error(t, err)

	_, err = run(t, draftJSON, "totals", "-", "--kind", "invoice")
	require.NoError(t, err)

	_, err = run(t, draftJSON, "totals", "-", "--kind", "receipt")
	require.Error(t, err)
}

func TestDocumentShow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/quotations/7" || r.Header.Get("Authorization") != "Bearer access" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":                    7,
			"kind":                  "quotation",
			"reference_number":      "QT-JD-2610-0007",
			"customer_display_name": "Acme Ltd",
			"versions": []map[string]any{
				{"id": 1, "version": 1, "status": "pending", "issue_date": "2026-10-01", "expiry_date": "2026-10-31",
					"items": []map[string]any{{"item_detail": "Design", "quantity": "1", "unit_price": "10", "discount": "0", "total_amount": "10"}},
					"subtotal_price": "10", "total_price": "10"},
				{"id": 2, "version": 2, "status": "confirmed", "issue_date": "2026-10-02", "expiry_date": "2026-11-01",
					"items": []map[string]any{{"item_detail": "Design", "quantity": "2", "unit_price": "10", "discount": "0", "total_amount": "20"}},
					"adjustments":    []map[string]any{{"price_adjustment": "tax", "price_adjustment_name": "Tax", "amount": "2"}},
					"subtotal_price": "20", "total_price": "22"},
			},
			"status_changes": []map[string]any{
				{"previous_status": "pending", "new_status": "pending", "version": 1, "changed_by": "Jane Doe", "change_date": "2026-10-01T09:00:00Z"},
				{"previous_status": "pending", "new_status": "confirmed", "version": 2, "changed_by": "Jane Doe", "change_date": "2026-10-02T09:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	out, err := run(t, "", "--api", srv.URL, "--token", "access", "document", "show", "quotation", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "QT-JD-2610-0007  Acme Ltd")
	assert.Contains(t, out, "Version 2 of [1 2]  Confirmed  2026-10-02 to 2026-11-01")
	assert.Contains(t, out, "Tax")
	assert.Contains(t, out, "$22.00")
	assert.Contains(t, out, "Jane Doe created version 1")
	assert.Contains(t, out, "Jane Doe changed the status from Pending to Confirmed in version 2")

	out, err = run(t, "", "--api", srv.URL, "--token", "access", "document", "show", "quotation", "7", "--version", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Version 1 of [1 2]  Pending")

	_, err = run(t, "", "--api", srv.URL, "--token", "access", "document", "show", "quotation", "7", "--version", "5")
	assert.ErrorContains(t, err, "has no version 5")
}

func TestLoginPrintsTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/token" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access": "a1", "refresh": "r1", "id": 4, "email": "jane@example.com"})
	}))
	defer srv.Close()

	out, err := run(t, "", "--api", srv.URL, "login", "--email", "jane@example.com", "--password", "pw")
	require.NoError(t, err)
	assert.Equal(t, "QUOTEDESK_TOKEN=a1\nQUOTEDESK_REFRESH=r1\n", out)
}

func TestLatestNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "INVOICE", r.URL.Query().Get("document_type"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"latest_number": "INV-JD-2610-0003"})
	}))
	defer srv.Close()

	out, err := run(t, "", "--api", srv.URL, "--token", "access", "latest-number", "invoice")
	require.NoError(t, err)
	assert.Equal(t, "INV-JD-2610-0003\n", out)
}
