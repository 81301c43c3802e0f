package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/HospitalLedger/internal/hospital/handler"
	"github.com/jmerrifield20/HospitalLedger/internal/hospital/service"
	"github.com/jmerrifield20/HospitalLedger/internal/ledger"
	"go.uber.org/zap"
)

func startServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := service.NewVisitService(ledger.NewMemoryStore(), service.DefaultConfig(), zap.NewNop())
	router := handler.NewRouter(ctx, handler.RouterConfig{}, handler.NewVisitHandler(svc, zap.NewNop()), zap.NewNop())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDigestCmd(t *testing.T) {
	out, err := run(t, "digest", "--name", "Alice", "--treatment", "X-Ray", "--cost", "150", "--date", "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	want := ledger.ComputeDigest("alice", "X-Ray", 150, "2024-01-01")
	if strings.TrimSpace(out) != want {
		t.Errorf("digest output: got %q, want %q", out, want)
	}
}

func TestAddAndSearch(t *testing.T) {
	url := startServer(t)

	out, err := run(t, "--server", url, "add", "--name", "Bob", "--treatment", "Checkup", "--cost", "50", "--date", "2024-02-02")
	if err != nil {
		t.Fatalf("add: %v (%s)", err, out)
	}
	if !strings.Contains(out, "Adding new visit record for bob.") {
		t.Errorf("unexpected add output: %s", out)
	}

	out, err = run(t, "--server", url, "add", "--name", "BOB", "--treatment", "Follow-up", "--cost", "20", "--date", "2024-02-10")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Updating visit record for bob.") {
		t.Errorf("unexpected second add output: %s", out)
	}

	out, err = run(t, "--server", url, "search", "bob")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	first := strings.Index(out, "Checkup")
	second := strings.Index(out, "Follow-up")
	if first < 0 || second < 0 || first > second {
		t.Errorf("visits missing or out of order:\n%s", out)
	}

	out, err = run(t, "--server", url, "--format", "json", "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, `"visits": 2`) {
		t.Errorf("unexpected stats output: %s", out)
	}
}

func TestSearch_notFound(t *testing.T) {
	url := startServer(t)

	_, err := run(t, "--server", url, "search", "Nobody")
	if err == nil || !strings.Contains(err.Error(), "patient nobody not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestAdd_zeroCostRejected(t *testing.T) {
	url := startServer(t)

	if _, err := run(t, "--server", url, "add", "--name", "Eve", "--treatment", "Consult", "--cost", "0", "--date", "2024-01-01"); err == nil {
		t.Error("expected zero-cost visit to be rejected")
	}
}
