package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"bilancio/internal/auth"
	"bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/services"
	"bilancio/internal/storage/memory"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type testServerOptions struct {
	hosted    bool
	rateLimit ratelimit.Config
}

func newTestServer(t *testing.T, opts testServerOptions) *Server {
	t.Helper()
	mem := memory.New()
	snaps := services.NewSnapshotLoader(mem, time.Minute)

	deps := Deps{
		Finance:   services.NewFinanceService(mem, snaps, nil),
		Dashboard: services.NewDashboardService(snaps, func() time.Time { return fixedNow }),
		Snapshots: snaps,
		RateLimit: opts.rateLimit,
		Logger:    log.New(log.Config{Output: io.Discard, Format: "text"}),
	}
	if opts.hosted {
		deps.Auth = auth.NewService(mem, auth.NewTokens("test-secret-0123456789", time.Hour))
	}

	s := NewServer(":0", deps)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.RemoteAddr = "192.0.2.10:4321"
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return do(t, s, req)
}

func postJSON(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(t, s, req)
}

func getSummary(t *testing.T, s *Server, month string) summaryJSON {
	t.Helper()
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/summary?month="+month, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out summaryJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	return out
}

func txForm(typ, amount, date, category, desc string) url.Values {
	return url.Values{
		"type":        {typ},
		"amount":      {amount},
		"date":        {date},
		"category":    {category},
		"description": {desc},
	}
}

func TestCreateTransactionUpdatesSummary(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	rec := postForm(t, s, "/transactions", txForm("income", "2000", "2024-03-01", "Other", "Salary"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("HX-Trigger"); !strings.Contains(got, EventTransactionChanged) {
		t.Errorf("HX-Trigger = %q, want %s", got, EventTransactionChanged)
	}
	postForm(t, s, "/transactions", txForm("expense", "45,50", "2024-03-05", "Food", "Groceries"))
	postForm(t, s, "/transactions", txForm("expense", "10", "2024-02-20", "Food", "Last month"))

	sum := getSummary(t, s, "2024-03")
	if sum.Income != "2000.00" || sum.Expense != "45.50" || sum.Balance != "1954.50" {
		t.Errorf("totals = %s/%s/%s", sum.Income, sum.Expense, sum.Balance)
	}
	if len(sum.Categories) != 1 || sum.Categories[0].Category != "Food" || sum.Categories[0].Amount != "45.50" {
		t.Errorf("categories = %+v", sum.Categories)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	tests := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"bad amount", txForm("expense", "abc", "2024-03-01", "Food", "x"), "amount"},
		{"zero amount", txForm("expense", "0", "2024-03-01", "Food", "x"), "amount"},
		{"bad date", txForm("expense", "1", "2024-02-30", "Food", "x"), "date"},
		{"bad category", txForm("expense", "1", "2024-03-01", "Pets", "x"), "category"},
		{"bad type", txForm("transfer", "1", "2024-03-01", "Food", "x"), "type"},
		{"empty description", txForm("expense", "1", "2024-03-01", "Food", "  "), "description"},
		{"long description", txForm("expense", "1", "2024-03-01", "Food", strings.Repeat("a", 61)), "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(t, s, "/transactions", tt.form)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.field) {
				t.Errorf("body %q does not name field %q", rec.Body.String(), tt.field)
			}
			if rec.Header().Get("HX-Trigger") != "" {
				t.Error("rejected input must not trigger a refresh")
			}
		})
	}

	if sum := getSummary(t, s, "2024-03"); sum.Expense != "0.00" {
		t.Errorf("rejected input was stored: expense %s", sum.Expense)
	}
}

func TestEditAndDeleteTransaction(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	rec := postJSON(t, s, "/transactions",
		`{"type":"expense","amount":12.5,"date":"2024-03-02","category":"Transport","description":"Bus"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created transactionJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Amount != "12.50" {
		t.Fatalf("created = %+v", created)
	}

	rec = postJSON(t, s, "/transactions/"+created.ID,
		`{"type":"expense","amount":"20","date":"2024-03-02","category":"Transport","description":"Train"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	if sum := getSummary(t, s, "2024-03"); sum.Expense != "20.00" {
		t.Errorf("after update expense = %s, want 20.00", sum.Expense)
	}

	page := do(t, s, httptest.NewRequest(http.MethodGet, "/ui/dashboard?month=2024-03&edit="+created.ID, nil))
	if !strings.Contains(page.Body.String(), `value="Train"`) {
		t.Error("edit form is not pre-filled")
	}

	rec = postForm(t, s, "/transactions/"+created.ID+"/delete", url.Values{})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if sum := getSummary(t, s, "2024-03"); sum.Expense != "0.00" {
		t.Errorf("after delete expense = %s", sum.Expense)
	}
}

func TestEditUnknownTransaction(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	rec := postJSON(t, s, "/transactions/no-such-id",
		`{"type":"expense","amount":"20","date":"2024-03-02","category":"Transport","description":"Train"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("JSON edit status = %d, want 404, body %s", rec.Code, rec.Body.String())
	}

	rec = postForm(t, s, "/transactions/no-such-id", txForm("expense", "20", "2024-03-02", "Transport", "Train"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("form edit status = %d, want 404", rec.Code)
	}
	if rec.Header().Get("HX-Trigger") != "" {
		t.Error("failed edit must not trigger a refresh")
	}

	if sum := getSummary(t, s, "2024-03"); sum.Expense != "0.00" {
		t.Errorf("edit of unknown id stored a record: expense %s", sum.Expense)
	}
}

func TestGoalAndReminders(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	postForm(t, s, "/transactions", txForm("income", "1000", "2024-03-01", "Other", "Salary"))
	postForm(t, s, "/transactions", txForm("expense", "600", "2024-03-02", "Housing", "Rent"))

	if rec := postForm(t, s, "/goal", url.Values{"goal": {"800"}}); rec.Code != http.StatusOK {
		t.Fatalf("goal status = %d, body %s", rec.Code, rec.Body.String())
	}
	sum := getSummary(t, s, "2024-03")
	if sum.Goal == nil || sum.Goal.Percent != 50 || sum.Goal.Achieved {
		t.Errorf("goal = %+v", sum.Goal)
	}

	if rec := postForm(t, s, "/goal", url.Values{"goal": {"-5"}}); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative goal status = %d", rec.Code)
	}
	postForm(t, s, "/goal", url.Values{"goal": {""}})
	if sum := getSummary(t, s, "2024-03"); sum.Goal != nil {
		t.Errorf("cleared goal still reported: %+v", sum.Goal)
	}

	rec := postForm(t, s, "/reminders", url.Values{"name": {"Insurance"}, "amount": {"300"}, "due_date": {"2024-03-18"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("reminder status = %d, body %s", rec.Code, rec.Body.String())
	}
	postForm(t, s, "/reminders", url.Values{"name": {"Car tax"}, "due_date": {"2024-03-10"}})

	sum = getSummary(t, s, "2024-03")
	if len(sum.Reminders) != 2 {
		t.Fatalf("reminders = %+v", sum.Reminders)
	}
	if sum.Reminders[0].Name != "Car tax" || sum.Reminders[0].Urgency != "overdue" {
		t.Errorf("first reminder = %+v", sum.Reminders[0])
	}
	if sum.Reminders[1].Urgency != "due-soon" || sum.Reminders[1].DaysLeft != 3 {
		t.Errorf("second reminder = %+v", sum.Reminders[1])
	}

	postForm(t, s, "/reminders/"+sum.Reminders[0].ID+"/delete", url.Values{})
	if sum := getSummary(t, s, "2024-03"); len(sum.Reminders) != 1 {
		t.Errorf("reminders after delete = %d", len(sum.Reminders))
	}
}

func TestDashboardRendering(t *testing.T) {
	s := newTestServer(t, testServerOptions{})
	postForm(t, s, "/transactions", txForm("expense", "1234,56", "2024-03-05", "Food", "Big shop"))
	postForm(t, s, "/transactions", txForm("income", "50", "2024-03-06", "Other", "Gift"))

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("index status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<!doctype html>", "March 2024", "€ 1.234,56", "Big shop", `id="dashboard"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/ui/dashboard?month=2024-03&type=income", nil))
	body = rec.Body.String()
	if strings.Contains(body, "<!doctype html>") {
		t.Error("partial rendered the full page")
	}
	if !strings.Contains(body, "Gift") || strings.Contains(body, "Big shop") {
		t.Error("type filter not applied to the listing")
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/ui/dashboard?month=2023-01", nil))
	if !strings.Contains(rec.Body.String(), "No expenses in January 2023") {
		t.Error("empty month placeholder missing")
	}
}

func TestTrendAPI(t *testing.T) {
	s := newTestServer(t, testServerOptions{})
	postForm(t, s, "/transactions", txForm("expense", "10", "2024-01-10", "Food", "Jan"))

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/trend?month=2024-03", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var tr trendJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &tr); err != nil {
		t.Fatal(err)
	}
	if len(tr.Points) != 6 {
		t.Fatalf("points = %d, want 6", len(tr.Points))
	}
	if tr.Points[0].Period != "2023-10" || tr.Points[5].Period != "2024-03" {
		t.Errorf("range = %s..%s", tr.Points[0].Period, tr.Points[5].Period)
	}
	if tr.Points[3].Expense != "10.00" {
		t.Errorf("january expense = %s", tr.Points[3].Expense)
	}
}

func TestHostedAuthentication(t *testing.T) {
	s := newTestServer(t, testServerOptions{hosted: true})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("anonymous index = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous api = %d", rec.Code)
	}

	signUp := func(email string) *http.Cookie {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/signup",
			strings.NewReader(url.Values{"email": {email}, "password": {"s3cret-pass"}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := do(t, s, req)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("signup %s = %d, body %s", email, rec.Code, rec.Body.String())
		}
		for _, c := range rec.Result().Cookies() {
			if c.Name == auth.SessionCookie {
				if !c.HttpOnly || c.SameSite != http.SameSiteLaxMode {
					t.Errorf("cookie flags = %+v", c)
				}
				return c
			}
		}
		t.Fatal("no session cookie")
		return nil
	}
	alice := signUp("alice@example.com")
	bob := signUp("bob@example.com")

	req := httptest.NewRequest(http.MethodPost, "/transactions",
		strings.NewReader(txForm("expense", "5", "2024-03-01", "Food", "Coffee").Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(alice)
	if rec := do(t, s, req); rec.Code != http.StatusOK {
		t.Fatalf("alice write = %d", rec.Code)
	}

	summaryAs := func(c *http.Cookie) summaryJSON {
		req := httptest.NewRequest(http.MethodGet, "/api/summary?month=2024-03", nil)
		req.AddCookie(c)
		rec := do(t, s, req)
		var out summaryJSON
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
		return out
	}
	if got := summaryAs(alice).Expense; got != "5.00" {
		t.Errorf("alice expense = %s", got)
	}
	if got := summaryAs(bob).Expense; got != "0.00" {
		t.Errorf("bob sees alice's data: expense %s", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(url.Values{"email": {"alice@example.com"}, "password": {"wrong-pass"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rec := do(t, s, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login = %d", rec.Code)
	}

	rec = postJSON(t, s, "/login", `{"email":"alice@example.com","password":"s3cret-pass"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"token"`) {
		t.Errorf("json login = %d %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, s, "/signup", `{"email":"alice@example.com","password":"s3cret-pass"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup = %d", rec.Code)
	}
}

func TestLocalModeHasNoAuthRoutes(t *testing.T) {
	s := newTestServer(t, testServerOptions{})
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("/login in local mode = %d, want 404", rec.Code)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	tests := []struct {
		path string
		want string
	}{
		{"/healthz", `"status":"ok"`},
		{"/readyz", `"status":"ready"`},
		{"/metrics", "http_requests_total"},
		{"/static/style.css", "--income"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, s, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("request id header missing")
			}
		})
	}
}

func TestMutationsAreRateLimited(t *testing.T) {
	s := newTestServer(t, testServerOptions{rateLimit: ratelimit.Config{RequestsPerSecond: 0.001, Burst: 2}})

	for i := 0; i < 2; i++ {
		if rec := postForm(t, s, "/goal", url.Values{"goal": {"10"}}); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec := postForm(t, s, "/goal", url.Values{"goal": {"10"}})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}

	// reads are not limited
	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/summary", nil)); rec.Code != http.StatusOK {
		t.Errorf("read after limit = %d", rec.Code)
	}
}
