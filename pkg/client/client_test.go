package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmerrifield20/HospitalLedger/pkg/client"
)

// ── Stub server ─────────────────────────────────────────────────────────

func stubLedgerServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/visits", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req client.VisitRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cost == 0 {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "please fill all fields"})
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{
				"status": "created",
				"record": map[string]any{
					"id":            "550e8400-e29b-41d4-a716-446655440000",
					"patient_key":   strings.ToLower(req.PatientName),
					"treatment":     req.Treatment,
					"cost":          req.Cost,
					"date_of_visit": req.DateOfVisit,
					"digest":        "abc123",
				},
			})
		case http.MethodGet:
			name := strings.ToLower(r.URL.Query().Get("name"))
			if name != "john doe" && name != "smith/jones" {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{
					"code":  "patient_not_found",
					"error": "patient " + name + " not found in the ledger",
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"patient_key": name,
				"visits": []map[string]any{
					{"treatment": "Checkup", "cost": 50, "date_of_visit": "2024-02-02", "digest": "d1"},
					{"treatment": "Follow-up", "cost": 20, "date_of_visit": "2024-02-10", "digest": "d2"},
				},
			})
		}
	})

	mux.HandleFunc("/api/v1/ledger", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"patients": 1, "visits": 2})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// ── Tests ───────────────────────────────────────────────────────────────

func TestNew_requiresBaseURL(t *testing.T) {
	if _, err := client.New(""); err == nil {
		t.Error("expected error for empty base URL")
	}
	if _, err := client.New("http://x", client.WithTimeout(0)); err == nil {
		t.Error("expected error for zero timeout")
	}
}

func TestAddVisit(t *testing.T) {
	srv := stubLedgerServer(t)
	c, err := client.New(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}

	res, err := c.AddVisit(context.Background(), client.VisitRequest{
		PatientName: "Alice", Treatment: "X-Ray", Cost: 150, DateOfVisit: "2024-01-01",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != "created" || res.Record.PatientKey != "alice" || res.Record.Digest != "abc123" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestAddVisit_apiError(t *testing.T) {
	srv := stubLedgerServer(t)
	c := mustClient(t, srv.URL)

	_, err := c.AddVisit(context.Background(), client.VisitRequest{PatientName: "Alice", Treatment: "X-Ray"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "please fill all fields" {
		t.Errorf("unexpected API error: %+v", apiErr)
	}
}

func TestFindVisits(t *testing.T) {
	srv := stubLedgerServer(t)
	c := mustClient(t, srv.URL)

	visits, err := c.FindVisits(context.Background(), "John Doe")
	if err != nil {
		t.Fatal(err)
	}
	if len(visits) != 2 || visits[0].Treatment != "Checkup" || visits[1].Treatment != "Follow-up" {
		t.Errorf("unexpected visits: %+v", visits)
	}
}

func TestFindVisits_notFound(t *testing.T) {
	srv := stubLedgerServer(t)
	c := mustClient(t, srv.URL)

	if _, err := c.FindVisits(context.Background(), "ghost"); !errors.Is(err, client.ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestFindVisits_nameWithSlash(t *testing.T) {
	srv := stubLedgerServer(t)
	c := mustClient(t, srv.URL)

	visits, err := c.FindVisits(context.Background(), "Smith/Jones")
	if err != nil {
		t.Fatal(err)
	}
	if len(visits) != 2 {
		t.Errorf("expected 2 visits, got %d", len(visits))
	}
}

func TestFindVisits_plain404IsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	c := mustClient(t, srv.URL)

	_, err := c.FindVisits(context.Background(), "John Doe")
	if errors.Is(err, client.ErrPatientNotFound) {
		t.Fatal("an unmatched route must not be reported as a missing patient")
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 *APIError, got %v", err)
	}
}

func TestOverview(t *testing.T) {
	srv := stubLedgerServer(t)
	c := mustClient(t, srv.URL)

	o, err := c.Overview(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if o.Patients != 1 || o.Visits != 2 {
		t.Errorf("unexpected overview: %+v", o)
	}
}

func mustClient(t *testing.T, base string) *client.Client {
	t.Helper()
	c, err := client.New(base)
	if err != nil {
		t.Fatal(err)
	}
	return c
}
