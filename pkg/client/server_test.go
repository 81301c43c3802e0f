package client_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/HospitalLedger/internal/hospital/handler"
	"github.com/jmerrifield20/HospitalLedger/internal/hospital/service"
	"github.com/jmerrifield20/HospitalLedger/internal/ledger"
	"github.com/jmerrifield20/HospitalLedger/pkg/client"
	"go.uber.org/zap"
)

// ledgerServer serves the real router over a fresh memory store.
func ledgerServer(t *testing.T) *client.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := service.NewVisitService(ledger.NewMemoryStore(), service.DefaultConfig(), zap.NewNop())
	router := handler.NewRouter(ctx, handler.RouterConfig{}, handler.NewVisitHandler(svc, zap.NewNop()), zap.NewNop())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return mustClient(t, srv.URL)
}

func TestServer_addThenFindFreeTextNames(t *testing.T) {
	c := ledgerServer(t)
	ctx := context.Background()

	for _, name := range []string{"Smith/Jones", "A+B", "100%", "a?b#c", "..", "."} {
		res, err := c.AddVisit(ctx, client.VisitRequest{PatientName: name, Treatment: "X-Ray", Cost: 150, DateOfVisit: "2024-01-01"})
		if err != nil {
			t.Fatalf("add %q: %v", name, err)
		}

		visits, err := c.FindVisits(ctx, name)
		if err != nil {
			t.Fatalf("find %q: %v", name, err)
		}
		if len(visits) != 1 || visits[0].Digest != res.Record.Digest {
			t.Errorf("find %q: unexpected visits %+v", name, visits)
		}
	}
}

func TestServer_unknownPatient(t *testing.T) {
	c := ledgerServer(t)

	if _, err := c.FindVisits(context.Background(), "Nobody"); !errors.Is(err, client.ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}
