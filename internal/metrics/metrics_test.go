package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/congo-pay/mockpay/internal/apperr"
)

func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestRecordLoginLabelsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(true)
	c.RecordLogin(false)
	c.RecordLogin(false)

	mf := findFamily(t, reg, "mockpay_logins_total")
	if mf == nil {
		t.Fatal("mockpay_logins_total not found")
	}
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	if got["success"] != 1 || got["failure"] != 2 {
		t.Fatalf("unexpected login counts: %v", got)
	}
}

func TestRecordTransactionEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTransactionCreated()
	c.RecordTransactionCreated()
	c.RecordTransactionDeleted()

	mf := findFamily(t, reg, "mockpay_transactions_total")
	if mf == nil {
		t.Fatal("mockpay_transactions_total not found")
	}
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 series, got %d", len(mf.GetMetric()))
	}
}

func TestMiddlewareUsesErrorStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(nil)})
	app.Use(c.Middleware())
	app.Get("/items/:id", func(ctx *fiber.Ctx) error {
		return apperr.NotFound("missing")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/items/42", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.StatusCode)
	}

	mf := findFamily(t, reg, "mockpay_api_http_requests_total")
	if mf == nil {
		t.Fatal("request counter not found")
	}
	labels := map[string]string{}
	for _, l := range mf.GetMetric()[0].GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	if labels["status"] != "404" || labels["route"] != "/items/:id" {
		t.Fatalf("unexpected labels: %v", labels)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSignup()

	app := fiber.New()
	app.Get("/metrics", Handler(reg))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "mockpay_signups_total 1") {
		t.Fatalf("expected signup counter in exposition, got %s", body)
	}
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordSignup()
	r.RecordLogin(true)
}

func TestUnmatchedRequestsShareOneLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(nil)})
	app.Use(c.Middleware())
	app.Get("/metrics", Handler(reg))

	for _, path := range []string{"/scan-0", "/scan-1", "/scan-22", "/x"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		if err != nil {
			t.Fatalf("app.Test %s: %v", path, err)
		}
		if resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("%s: expected 404 got %d", path, resp.StatusCode)
		}
	}

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
		if err != nil {
			t.Fatalf("scrape: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			t.Fatalf("scrape %d: expected 200 got %d: %s", i, resp.StatusCode, body)
		}
	}

	mf := findFamily(t, reg, "mockpay_api_http_requests_total")
	if mf == nil {
		t.Fatal("request counter not found")
	}
	for _, m := range mf.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "route" && strings.HasPrefix(l.GetValue(), "/scan") {
				t.Fatalf("raw path leaked into route label: %s", l.GetValue())
			}
		}
		labels := map[string]string{}
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		if labels["status"] == "404" && (labels["route"] != unmatchedRoute || m.GetCounter().GetValue() != 4) {
			t.Fatalf("expected 4 unmatched requests under one label, got %v = %v", labels, m.GetCounter().GetValue())
		}
	}
}
