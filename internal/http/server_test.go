package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"centime/internal/services"
	"centime/internal/storage/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.New()
	srv := NewServer(":0", Deps{
		Users:        services.NewUserService(store, time.Hour),
		Accounts:     services.NewAccountService(store),
		Categories:   services.NewCategoryService(store),
		Recipients:   services.NewRecipientService(store),
		Transactions: services.NewTransactionService(store, nil),
		Statistics:   services.NewStatisticsService(store),
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		srv.rateLimiter.stop()
	})
	return ts
}

// call sends a JSON request and decodes the response body into out (when out
// is non-nil), returning the status code.
func call(t *testing.T, ts *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// login registers a fresh user and returns a session token.
func login(t *testing.T, ts *httptest.Server, email string) string {
	t.Helper()
	status := call(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "s3cret",
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("register status = %d", status)
	}
	var session struct {
		Token string `json:"token"`
	}
	status = call(t, ts, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "s3cret",
	}, &session)
	if status != http.StatusOK || session.Token == "" {
		t.Fatalf("login status = %d, token = %q", status, session.Token)
	}
	return session.Token
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := ts.Client().Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "ada@example.com")

	// The duplicate address is refused.
	if status := call(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "ada@example.com", "password": "other",
	}, nil); status != http.StatusConflict {
		t.Errorf("duplicate register = %d, want 409", status)
	}

	// Wrong password is a 401, not the taxonomy's 403.
	if status := call(t, ts, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	}, nil); status != http.StatusUnauthorized {
		t.Errorf("bad login = %d, want 401", status)
	}

	if status := call(t, ts, http.MethodGet, "/accounts", token, nil, nil); status != http.StatusOK {
		t.Errorf("authed list = %d, want 200", status)
	}

	if status := call(t, ts, http.MethodPost, "/auth/logout", token, nil, nil); status != http.StatusNoContent {
		t.Errorf("logout = %d, want 204", status)
	}
	// The token is dead after logout.
	if status := call(t, ts, http.MethodGet, "/accounts", token, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("list after logout = %d, want 401", status)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	if status := call(t, ts, http.MethodGet, "/accounts", "", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", status)
	}
	if status := call(t, ts, http.MethodGet, "/accounts", "bogus", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("bogus token = %d, want 401", status)
	}
}

func TestAccountEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "ada@example.com")

	var account struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Balance string `json:"balance"`
	}
	status := call(t, ts, http.MethodPost, "/accounts", token, map[string]string{
		"name": "Checking", "type": "bank", "balance": "100.00", "currency": "EUR",
	}, &account)
	if status != http.StatusCreated {
		t.Fatalf("create = %d, want 201", status)
	}
	if account.Balance != "100.00" {
		t.Errorf("balance = %q, want \"100.00\"", account.Balance)
	}

	name := "Main"
	status = call(t, ts, http.MethodPatch, "/accounts/"+account.ID, token, map[string]*string{
		"name": &name,
	}, &account)
	if status != http.StatusOK || account.Name != "Main" {
		t.Errorf("patch = %d name %q, want 200 Main", status, account.Name)
	}

	// Another user sees 403 on it, and 404 for ids that never existed.
	other := login(t, ts, "eve@example.com")
	if status := call(t, ts, http.MethodGet, "/accounts/"+account.ID, other, nil, nil); status != http.StatusForbidden {
		t.Errorf("foreign get = %d, want 403", status)
	}
	if status := call(t, ts, http.MethodGet, "/accounts/nope", other, nil, nil); status != http.StatusNotFound {
		t.Errorf("missing get = %d, want 404", status)
	}

	if status := call(t, ts, http.MethodDelete, "/accounts/"+account.ID, token, nil, nil); status != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", status)
	}
	if status := call(t, ts, http.MethodGet, "/accounts/"+account.ID, token, nil, nil); status != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", status)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "ada@example.com")

	// Validation failures map to 422.
	if status := call(t, ts, http.MethodPost, "/accounts", token, map[string]string{
		"name": "X", "type": "mattress", "balance": "0", "currency": "EUR",
	}, nil); status != http.StatusUnprocessableEntity {
		t.Errorf("invalid type = %d, want 422", status)
	}

	// Unknown JSON fields are rejected outright.
	if status := call(t, ts, http.MethodPost, "/accounts", token, map[string]string{
		"name": "X", "type": "bank", "balance": "0", "currency": "EUR", "color": "red",
	}, nil); status != http.StatusBadRequest {
		t.Errorf("unknown field = %d, want 400", status)
	}
}

func TestTransactionEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "ada@example.com")

	var account struct {
		ID string `json:"id"`
	}
	if status := call(t, ts, http.MethodPost, "/accounts", token, map[string]string{
		"name": "Checking", "type": "bank", "balance": "0", "currency": "EUR",
	}, &account); status != http.StatusCreated {
		t.Fatalf("create account = %d", status)
	}
	var category struct {
		ID string `json:"id"`
	}
	if status := call(t, ts, http.MethodPost, "/categories", token, map[string]string{
		"name": "Groceries", "type": "expense",
	}, &category); status != http.StatusCreated {
		t.Fatalf("create category = %d", status)
	}

	var transaction struct {
		ID     string `json:"id"`
		Amount string `json:"amount"`
	}
	if status := call(t, ts, http.MethodPost, "/transactions", token, map[string]string{
		"accountId": account.ID, "categoryId": category.ID,
		"date": "2024-01-10", "description": "Weekly shop",
		"amount": "42.50", "type": "expense",
	}, &transaction); status != http.StatusCreated {
		t.Fatalf("create transaction = %d", status)
	}
	if transaction.Amount != "42.50" {
		t.Errorf("amount = %q", transaction.Amount)
	}

	// The account balance reflects the expense.
	var got struct {
		Balance string `json:"balance"`
	}
	if status := call(t, ts, http.MethodGet, "/accounts/"+account.ID, token, nil, &got); status != http.StatusOK {
		t.Fatalf("get account = %d", status)
	}
	if got.Balance != "-42.50" {
		t.Errorf("balance = %q, want \"-42.50\"", got.Balance)
	}

	var list []json.RawMessage
	if status := call(t, ts, http.MethodGet, "/transactions", token, nil, &list); status != http.StatusOK || len(list) != 1 {
		t.Errorf("list = %d with %d rows, want 200 with 1", status, len(list))
	}

	if status := call(t, ts, http.MethodDelete, "/transactions/"+transaction.ID, token, nil, nil); status != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", status)
	}
	if status := call(t, ts, http.MethodGet, "/accounts/"+account.ID, token, nil, &got); status != http.StatusOK {
		t.Fatalf("get account = %d", status)
	}
	if got.Balance != "0.00" {
		t.Errorf("balance after delete = %q, want \"0.00\"", got.Balance)
	}
}

func TestStatisticsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "ada@example.com")

	var account struct {
		ID string `json:"id"`
	}
	call(t, ts, http.MethodPost, "/accounts", token, map[string]string{
		"name": "Checking", "type": "bank", "balance": "0", "currency": "EUR",
	}, &account)
	var category struct {
		ID string `json:"id"`
	}
	call(t, ts, http.MethodPost, "/categories", token, map[string]string{
		"name": "Groceries", "type": "expense",
	}, &category)
	if status := call(t, ts, http.MethodPost, "/transactions", token, map[string]string{
		"accountId": account.ID, "categoryId": category.ID,
		"date": "2024-01-10", "amount": "10.00", "type": "expense",
	}, nil); status != http.StatusCreated {
		t.Fatalf("create transaction = %d", status)
	}

	var balances []struct {
		Month    int    `json:"month"`
		Expenses string `json:"expenses"`
	}
	if status := call(t, ts, http.MethodGet, "/statistics/monthly-balance?year=2024", token, nil, &balances); status != http.StatusOK {
		t.Fatalf("monthly-balance = %d", status)
	}
	if len(balances) != 12 || balances[0].Expenses != "10.00" {
		t.Errorf("balances = %+v, want 12 months with january expenses 10.00", balances)
	}

	// The grouped sums take an inclusive from/to range like the breakdowns.
	var byCategory []struct {
		CategoryName string `json:"categoryName"`
		Amount       string `json:"amount"`
	}
	if status := call(t, ts, http.MethodGet, "/statistics/expenses-by-category?from=2024-01-01&to=2024-03-31", token, nil, &byCategory); status != http.StatusOK {
		t.Fatalf("expenses-by-category = %d", status)
	}
	if len(byCategory) != 1 || byCategory[0].Amount != "10.00" {
		t.Errorf("byCategory = %+v", byCategory)
	}

	var trends []struct {
		PeriodIndex   int    `json:"periodIndex"`
		TotalExpenses string `json:"totalExpenses"`
	}
	body := map[string]any{"periods": []map[string]string{
		{"startDate": "2024-01-01", "endDate": "2024-01-31"},
	}}
	if status := call(t, ts, http.MethodPost, "/statistics/expense-trends", token, body, &trends); status != http.StatusOK {
		t.Fatalf("expense-trends = %d", status)
	}
	if len(trends) != 1 || trends[0].TotalExpenses != "10.00" {
		t.Errorf("trends = %+v", trends)
	}

	var breakdown struct {
		TransactionCount int64  `json:"transactionCount"`
		Net              string `json:"net"`
	}
	path := "/statistics/breakdown/categories/" + category.ID + "?from=2024-01-01&to=2024-01-31"
	if status := call(t, ts, http.MethodGet, path, token, nil, &breakdown); status != http.StatusOK {
		t.Fatalf("category breakdown = %d", status)
	}
	if breakdown.TransactionCount != 1 || breakdown.Net != "-10.00" {
		t.Errorf("breakdown = %+v", breakdown)
	}

	// A reversed range fails validation at the edge.
	bad := "/statistics/breakdown/categories/" + category.ID + "?from=2024-02-01&to=2024-01-01"
	if status := call(t, ts, http.MethodGet, bad, token, nil, nil); status != http.StatusUnprocessableEntity {
		t.Errorf("reversed range = %d, want 422", status)
	}
}

// Bad or missing query parameters are a validation error everywhere, never a
// silent default.
func TestStatisticsQueryValidation(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts, "ada@example.com")

	paths := []string{
		"/statistics/monthly-balance",              // year missing
		"/statistics/monthly-balance?year=abc",     // year not a number
		"/statistics/annual-summary?year=",         // year blank
		"/statistics/expenses-by-category",         // range missing
		"/statistics/expenses-by-category?from=2024-01-01&to=13/2024", // bad date
		"/statistics/incomes-by-category?from=2024-02-01&to=2024-01-01",
		"/statistics/expenses-by-account?from=2024-01-01",
	}
	for _, path := range paths {
		if status := call(t, ts, http.MethodGet, path, token, nil, nil); status != http.StatusUnprocessableEntity {
			t.Errorf("GET %s = %d, want 422", path, status)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Post(ts.URL+"/auth/login", "application/json", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatalf("POST /auth/login: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}
