package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"treasurytracker/internal/clock"
	"treasurytracker/internal/logger"
	"treasurytracker/internal/middleware"
	"treasurytracker/internal/repository"
	"treasurytracker/internal/services"
	"treasurytracker/internal/testutil"
	"treasurytracker/internal/validator"
)

const testPipelineKey = "pipeline-test-key"

type testApp struct {
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func setupApp(t *testing.T, today time.Time) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	clk := clock.Fixed(today)
	repo := repository.NewInvestmentRepository(db)
	portfolioService := services.NewPortfolioService(repo, clk, "USD", time.Minute)

	router := NewRouter(Deps{
		UserService:       services.NewUserService(db),
		InvestmentService: services.NewInvestmentService(repo, clk, portfolioService),
		PortfolioService:  portfolioService,
		AuditService:      services.NewAuditService(db),
		Tokens:            middleware.NewTokenManager("router-test-secret", 15*time.Minute, 24*time.Hour),
		AuthLimiter:       middleware.NewIPRateLimiter(100, 100, time.Minute),
		PipelineAPIKey:    testPipelineKey,
		OverdueGraceDays:  7,
	})
	return &testApp{Router: router}
}

func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func (app *testApp) registerUser(t *testing.T, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123","full_name":"Test User"}`, email)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["access_token"].(string)
}

func assertDecimalField(t *testing.T, obj map[string]interface{}, field, want string) {
	t.Helper()
	raw, ok := obj[field].(string)
	if !ok {
		t.Fatalf("%s: expected a decimal string, got %v", field, obj[field])
	}
	got, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("%s: %v", field, err)
	}
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: expected %s, got %s", field, want, raw)
	}
}

const noteBody = `{
	"investment_type": "treasury_note",
	"description": "2Y note",
	"face_value": "100000.00",
	"purchase_price": "98500.00",
	"annual_coupon_rate": "0.1000",
	"purchase_date": "2024-01-15",
	"maturity_date": "2026-01-15"
}`

func TestHealth(t *testing.T) {
	app := setupApp(t, clock.Date(2024, time.March, 1))

	rec := app.request("GET", "/health", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t, clock.Date(2024, time.March, 1))

	for _, path := range []string{"/api/v1/investments", "/api/v1/portfolio/summary", "/api/v1/profile"} {
		rec := app.request("GET", path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestInvestmentLifecycle(t *testing.T) {
	app := setupApp(t, clock.Date(2024, time.March, 1))
	token := app.registerUser(t, "owner@example.com")

	rec := app.request("POST", "/api/v1/investments", noteBody, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
	}
	inv := parseJSON(t, rec)["investment"].(map[string]interface{})
	id := inv["id"].(string)
	payments := inv["payment_schedules"].([]interface{})
	if len(payments) != 4 {
		t.Fatalf("expected 4 scheduled payments, got %d", len(payments))
	}
	last := payments[3].(map[string]interface{})
	if last["payment_type"] != "final_payment" {
		t.Errorf("expected final_payment last, got %v", last["payment_type"])
	}
	assertDecimalField(t, last, "payment_amount", "105000")

	t.Run("summary aggregates outstanding payments", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/portfolio/summary", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		summary := parseJSON(t, rec)
		if summary["total_investments"] != float64(1) || summary["active_investments"] != float64(1) {
			t.Errorf("unexpected counts %v", summary)
		}
		assertDecimalField(t, summary, "expected_returns", "120000")
		assertDecimalField(t, summary, "expected_profit", "21500")
		assertDecimalField(t, summary, "portfolio_yield", "21.83")
	})

	t.Run("upcoming payments respect the window", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/portfolio/upcoming-payments?days_ahead=180", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		data := parseJSON(t, rec)["data"].([]interface{})
		if len(data) != 1 {
			t.Fatalf("expected 1 upcoming payment, got %d", len(data))
		}
		first := data[0].(map[string]interface{})
		if first["formatted_amount"] != "$5,000.00" {
			t.Errorf("unexpected formatted amount %v", first["formatted_amount"])
		}
	})

	t.Run("paid payments drop out of the summary", func(t *testing.T) {
		paymentID := payments[0].(map[string]interface{})["id"].(string)
		rec := app.request("PUT", "/api/v1/investments/"+id+"/payments/"+paymentID,
			`{"payment_status":"paid","actual_payment_date":"2024-07-15","actual_payment_amount":"5000"}`, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("update payment failed: %d %s", rec.Code, rec.Body.String())
		}

		rec = app.request("GET", "/api/v1/portfolio/summary", "", token)
		assertDecimalField(t, parseJSON(t, rec), "expected_returns", "115000")
	})

	t.Run("regeneration resets the schedule", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/investments/"+id+"/regenerate-schedule", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("regenerate failed: %d %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["total"] != float64(4) {
			t.Error("expected 4 regenerated payments")
		}

		rec = app.request("GET", "/api/v1/investments/"+id+"/payments?status=paid", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("list payments failed: %d", rec.Code)
		}
		if parseJSON(t, rec)["total"] != float64(0) {
			t.Error("expected no paid payments after regeneration")
		}
	})

	t.Run("other users cannot see the investment", func(t *testing.T) {
		other := app.registerUser(t, "other@example.com")
		rec := app.request("GET", "/api/v1/investments/"+id, "", other)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("export returns a workbook", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/investments/"+id+"/payments/export", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Content-Disposition"), "schedule_"+id+".xlsx") {
			t.Errorf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
		}
	})

	t.Run("selling removes it from the summary", func(t *testing.T) {
		rec := app.request("PUT", "/api/v1/investments/"+id, `{"status":"sold"}`, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
		}

		rec = app.request("GET", "/api/v1/portfolio/summary", "", token)
		summary := parseJSON(t, rec)
		if summary["total_investments"] != float64(0) {
			t.Errorf("expected no active investments, got %v", summary["total_investments"])
		}
		assertDecimalField(t, summary, "portfolio_yield", "0")
	})

	t.Run("delete removes the investment", func(t *testing.T) {
		rec := app.request("DELETE", "/api/v1/investments/"+id, "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("delete failed: %d", rec.Code)
		}
		rec = app.request("GET", "/api/v1/investments/"+id, "", token)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", rec.Code)
		}
	})
}

func TestCreateRejectsInvalidInvestment(t *testing.T) {
	app := setupApp(t, clock.Date(2024, time.March, 1))
	token := app.registerUser(t, "owner@example.com")

	body := strings.Replace(noteBody, `"maturity_date": "2026-01-15"`, `"maturity_date": "2023-01-15"`, 1)
	rec := app.request("POST", "/api/v1/investments", body, token)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/investments", "", token)
	if parseJSON(t, rec)["total"] != float64(0) {
		t.Error("rejected investment must not be persisted")
	}
}

func TestPipelineRefreshStatuses(t *testing.T) {
	app := setupApp(t, clock.Date(2024, time.August, 1))
	token := app.registerUser(t, "owner@example.com")
	if rec := app.request("POST", "/api/v1/investments", noteBody, token); rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
	}

	t.Run("rejects a missing key", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/pipeline/payments/refresh-statuses", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("moves past payments forward", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/pipeline/payments/refresh-statuses", nil)
		req.Header.Set("X-API-Key", testPipelineKey)
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		// The 2024-07-15 coupon becomes due, then overdue: it is more than
		// seven days past on 2024-08-01.
		if result["became_due"] != float64(1) || result["became_overdue"] != float64(1) {
			t.Errorf("unexpected transition counts %v", result)
		}
	})
}
