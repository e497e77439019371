package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/identity"
	"budgetbook/internal/ledger"
	"budgetbook/internal/log"
	"budgetbook/internal/services"
	"budgetbook/internal/storage/memory"
	"budgetbook/internal/users"
)

type fakeAccounts struct {
	codec identity.Codec
	known map[string]string
}

func (f *fakeAccounts) Register(_ context.Context, r users.Registration) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if _, ok := f.known[r.ID]; ok {
		return core.ErrUserExists
	}
	f.known[r.ID] = r.Password
	return nil
}

func (f *fakeAccounts) Login(_ context.Context, id, password string) (users.Session, error) {
	if pw, ok := f.known[id]; !ok || pw != password {
		return users.Session{}, core.ErrInvalidLogin
	}
	return users.Session{Token: identity.BearerToken(f.codec, id), Name: "Name " + id, Nickname: "nick"}, nil
}

// partialLedger fails every reset halfway.
type partialLedger struct {
	Ledger
}

func (partialLedger) ResetScope(context.Context, string, int, int) error {
	return &ledger.PartialFailure{Op: "reset scope", Applied: ledger.HalfBudget, Failed: ledger.HalfExpense, Err: errors.New("disk full")}
}

func (partialLedger) ResetAll(context.Context, string) error {
	return core.NewStorageError("delete budgets", errors.New("pq: connection refused"))
}

type testEnv struct {
	srv   *Server
	codec identity.Codec
}

func newTestEnv(t *testing.T, wrap func(Ledger) Ledger, opts Options) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	codec := identity.NewPlainCodec("")
	var l Ledger = services.NewLedgerService(ledger.New(memory.New()), nil, log.Discard())
	if wrap != nil {
		l = wrap(l)
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	srv := NewServer(":0", l, &fakeAccounts{codec: codec, known: map[string]string{}}, codec, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, codec: codec}
}

func (e *testEnv) do(t *testing.T, method, path, user string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", identity.BearerToken(e.codec, user))
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)

	var out map[string]any
	if rr.Body.Len() > 0 && strings.HasPrefix(strings.TrimSpace(rr.Body.String()), "{") {
		dec := json.NewDecoder(bytes.NewReader(rr.Body.Bytes()))
		dec.UseNumber()
		if err := dec.Decode(&out); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr, out
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr, _ := env.do(t, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := newTestEnv(t, nil, Options{Ready: func(context.Context) error { return errors.New("db down") }})
	rr, _ := down.do(t, http.MethodGet, "/readyz", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing store: %d", rr.Code)
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	rr, body := env.do(t, http.MethodGet, "/nope", "", nil)
	if rr.Code != http.StatusNotFound || body["message"] == nil {
		t.Fatalf("unexpected 404: %d %v", rr.Code, body)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	reg := map[string]string{"id": "alice", "password": "pw", "name": "Alice"}

	rr, _ := env.do(t, http.MethodPost, "/register", "", reg)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: %d", rr.Code)
	}
	rr, _ = env.do(t, http.MethodPost, "/register", "", reg)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate register: %d", rr.Code)
	}
	rr, _ = env.do(t, http.MethodPost, "/register", "", map[string]string{"id": "bob"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("incomplete register: %d", rr.Code)
	}
	rr, _ = env.do(t, http.MethodPost, "/register", "", "{not json")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed register: %d", rr.Code)
	}

	rr, body := env.do(t, http.MethodPost, "/login", "", map[string]string{"id": "alice", "password": "pw"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d", rr.Code)
	}
	if body["token"] != "Bearer dummy-token-for-alice" {
		t.Errorf("token = %v", body["token"])
	}
	if u, ok := body["user"].(map[string]any); !ok || u["nickname"] != "nick" {
		t.Errorf("user = %v", body["user"])
	}

	rr, _ = env.do(t, http.MethodPost, "/login", "", map[string]string{"id": "alice", "password": "wrong"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", rr.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"bearer only", "Bearer ", http.StatusUnauthorized},
		{"wrong prefix", "Bearer token-for-alice", http.StatusForbidden},
		{"empty id", "Bearer dummy-token-for-", http.StatusForbidden},
		{"valid", "Bearer dummy-token-for-alice", http.StatusOK},
		{"valid without scheme", "dummy-token-for-alice", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/budgets/2024", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			env.srv.Handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestBudgetLifecycle(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	rr, body := env.do(t, http.MethodGet, "/api/budgets/2024", "alice", nil)
	if rr.Code != http.StatusOK || len(body) != 0 {
		t.Fatalf("absent year: %d %v", rr.Code, body)
	}

	rr, body = env.do(t, http.MethodPost, "/api/budgets", "alice", map[string]any{
		"year":    2024,
		"budgets": map[string]any{"1": 100000, "6": "2500.50"},
	})
	if rr.Code != http.StatusOK || body["year"] != json.Number("2024") {
		t.Fatalf("submit: %d %v", rr.Code, body)
	}

	rr, body = env.do(t, http.MethodGet, "/api/budgets/2024", "alice", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get: %d", rr.Code)
	}
	if body["1"] != json.Number("100000") || body["6"] != json.Number("2500.5") {
		t.Fatalf("unexpected budget: %v", body)
	}

	// Other users see nothing.
	_, body = env.do(t, http.MethodGet, "/api/budgets/2024", "bob", nil)
	if len(body) != 0 {
		t.Fatalf("bob sees %v", body)
	}

	rr, _ = env.do(t, http.MethodDelete, "/api/budgets/2024/6", "alice", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("reset month: %d", rr.Code)
	}
	_, body = env.do(t, http.MethodGet, "/api/budgets/2024", "alice", nil)
	if body["6"] != json.Number("0") || body["1"] != json.Number("100000") {
		t.Fatalf("after month reset: %v", body)
	}

	rr, _ = env.do(t, http.MethodDelete, "/api/budgets/2024", "alice", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("reset year: %d", rr.Code)
	}
	_, body = env.do(t, http.MethodGet, "/api/budgets/2024", "alice", nil)
	if len(body) != 0 {
		t.Fatalf("after year reset: %v", body)
	}
}

func TestResetMonthZeroClearsYear(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	rr, _ := env.do(t, http.MethodPost, "/api/budgets", "alice", map[string]any{
		"year":    2024,
		"budgets": map[string]any{"1": 100, "6": 200},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("submit budget: %d", rr.Code)
	}
	for _, date := range []string{"2024-1-5", "2024-6-9"} {
		rr, _ := env.do(t, http.MethodPost, "/api/expenses", "alice", map[string]any{"date": date, "amount": 10})
		if rr.Code != http.StatusOK {
			t.Fatalf("submit expense %s: %d", date, rr.Code)
		}
	}

	rr, body := env.do(t, http.MethodDelete, "/api/budgets/2024/0", "alice", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("reset month 0: %d %v", rr.Code, body)
	}
	if body["message"] != "Budgets and expenses for 2024 deleted." {
		t.Fatalf("unexpected message: %v", body)
	}
	_, body = env.do(t, http.MethodGet, "/api/budgets/2024", "alice", nil)
	if len(body) != 0 {
		t.Fatalf("budgets after reset: %v", body)
	}
	for _, path := range []string{"/api/expenses/2024/1", "/api/expenses/2024/6"} {
		_, body = env.do(t, http.MethodGet, path, "alice", nil)
		if len(body) != 0 {
			t.Fatalf("%s after reset: %v", path, body)
		}
	}

	for _, path := range []string{"/api/budgets/2024/13", "/api/budgets/2024/-1", "/api/budgets/2024/jan"} {
		rr, _ := env.do(t, http.MethodDelete, path, "alice", nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("DELETE %s = %d, want 400", path, rr.Code)
		}
	}
}

func TestBudgetValidation(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	tests := []struct {
		name string
		body any
	}{
		{"missing year", map[string]any{"budgets": map[string]any{"1": 1}}},
		{"zero year", map[string]any{"year": 0, "budgets": map[string]any{"1": 1}}},
		{"missing budgets", map[string]any{"year": 2024}},
		{"bad month key", map[string]any{"year": 2024, "budgets": map[string]any{"13": 1}}},
		{"non numeric key", map[string]any{"year": 2024, "budgets": map[string]any{"jan": 1}}},
		{"negative amount", map[string]any{"year": 2024, "budgets": map[string]any{"1": -5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := env.do(t, http.MethodPost, "/api/budgets", "alice", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (%v)", rr.Code, body)
			}
		})
	}

	for _, path := range []string{"/api/budgets/abc", "/api/budgets/0", "/api/expenses/2024/13", "/api/summary/2024/0"} {
		rr, _ := env.do(t, http.MethodGet, path, "alice", nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", path, rr.Code)
		}
	}
}

func TestYearAsString(t *testing.T) {
	env := newTestEnv(t, nil, Options{})
	rr, _ := env.do(t, http.MethodPost, "/api/budgets", "alice", `{"year":"2025","budgets":{"3":10}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("string year: %d", rr.Code)
	}
}

func TestExpensesAndSummary(t *testing.T) {
	env := newTestEnv(t, nil, Options{})

	for _, e := range []map[string]any{
		{"date": "2024-1-5", "amount": 1000},
		{"date": "2024-11-5", "amount": 2000},
		{"date": "2024-01-07", "amount": "-50"},
	} {
		rr, _ := env.do(t, http.MethodPost, "/api/expenses", "alice", e)
		if rr.Code != http.StatusOK {
			t.Fatalf("submit %v: %d", e, rr.Code)
		}
	}
	rr, body := env.do(t, http.MethodPost, "/api/expenses", "alice", map[string]any{"date": "2024-1-5", "amount": 1200})
	if rr.Code != http.StatusOK {
		t.Fatalf("overwrite: %d", rr.Code)
	}
	exp, _ := body["expense"].(map[string]any)
	if exp["date"] != "2024-1-5" || exp["amount"] != json.Number("1200") {
		t.Fatalf("unexpected expense echo: %v", body)
	}

	rr, body = env.do(t, http.MethodGet, "/api/expenses/2024/1", "alice", nil)
	if rr.Code != http.StatusOK || len(body) != 2 || body["5"] != json.Number("1200") || body["7"] != json.Number("-50") {
		t.Fatalf("january: %d %v", rr.Code, body)
	}

	for _, bad := range []map[string]any{
		{"date": "2024-2-30", "amount": 1},
		{"date": "2024-1", "amount": 1},
		{"date": "2024-1-1"},
		{"date": "2024-1-1", "amount": nil},
	} {
		rr, _ := env.do(t, http.MethodPost, "/api/expenses", "alice", bad)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("submit %v = %d, want 400", bad, rr.Code)
		}
	}

	env.do(t, http.MethodPost, "/api/budgets", "alice", map[string]any{"year": 2024, "budgets": map[string]any{"1": 1000}})

	rr, body = env.do(t, http.MethodGet, "/api/summary/2024/1", "alice", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("month summary: %d", rr.Code)
	}
	if body["spent"] != json.Number("1150") || body["remaining"] != json.Number("-150") || body["overspent"] != true {
		t.Fatalf("unexpected summary: %v", body)
	}

	rr, body = env.do(t, http.MethodGet, "/api/summary/2024", "alice", nil)
	months, _ := body["months"].([]any)
	if rr.Code != http.StatusOK || len(months) != 12 {
		t.Fatalf("year summary: %d %v", rr.Code, body)
	}
	feb, _ := months[1].(map[string]any)
	if feb["budget"] != nil {
		t.Errorf("february budget should be null, got %v", feb["budget"])
	}

	rr, _ = env.do(t, http.MethodDelete, "/api/budgets/all", "alice", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("reset all: %d", rr.Code)
	}
	_, body = env.do(t, http.MethodGet, "/api/expenses/2024/11", "alice", nil)
	if len(body) != 0 {
		t.Fatalf("expenses survive reset all: %v", body)
	}
}

func TestPartialAndStorageFailures(t *testing.T) {
	env := newTestEnv(t, func(l Ledger) Ledger { return partialLedger{Ledger: l} }, Options{})

	rr, body := env.do(t, http.MethodDelete, "/api/budgets/2024", "alice", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("partial status: %d", rr.Code)
	}
	if body["partial"] != true || body["applied"] != "budget" || body["failed"] != "expense" {
		t.Fatalf("partial body: %v", body)
	}

	rr, body = env.do(t, http.MethodDelete, "/api/budgets/all", "alice", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("storage status: %d", rr.Code)
	}
	if msg, _ := body["message"].(string); strings.Contains(msg, "pq") {
		t.Errorf("driver error leaked: %q", msg)
	}
	if body["partial"] != nil {
		t.Errorf("storage failure reported as partial: %v", body)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, nil, Options{RateLimitPerMinute: 2})
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr, _ := env.do(t, http.MethodGet, "/api/budgets/2024", "alice", nil)
		codes = append(codes, rr.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
	// Probes are not limited.
	rr, _ := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz limited: %d", rr.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrMissingCredential, 401},
		{core.ErrMalformedCredential, 403},
		{core.ErrExpiredCredential, 403},
		{core.ErrInvalidLogin, 401},
		{core.ErrUserExists, 409},
		{core.ErrInvalidMonth, 400},
		{core.NewStorageError("x", errors.New("boom")), 500},
		{&ledger.PartialFailure{Err: errors.New("boom")}, 500},
		{errors.New("unknown"), 500},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestAmountRendering(t *testing.T) {
	got := amountsByKey(map[int]decimal.Decimal{1: decimal.RequireFromString("10.50"), 12: decimal.Zero})
	if got["1"] != "10.5" || got["12"] != "0" {
		t.Fatalf("amountsByKey = %v", got)
	}
}
