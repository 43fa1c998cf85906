package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seenimoa/stocker/internal/config"
	"github.com/seenimoa/stocker/internal/enrich"
	"github.com/seenimoa/stocker/internal/store"
	"github.com/seenimoa/stocker/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

type fakeEnricher struct {
	fail map[string]error
}

func (f *fakeEnricher) Enrich(_ context.Context, symbol string) (*models.StockRecord, error) {
	if err := f.fail[symbol]; err != nil {
		return nil, err
	}
	return &models.StockRecord{Symbol: symbol, Name: "Name of " + symbol}, nil
}

type fakeOpener struct {
	err error
	dir string
}

func (f *fakeOpener) Open(_ context.Context, dir string) error {
	f.dir = dir
	return f.err
}

type testEnv struct {
	srv    *Server
	mem    *store.MemoryStorage
	opener *fakeOpener
}

func newTestEnv(t *testing.T, mem *store.MemoryStorage, e *fakeEnricher) *testEnv {
	t.Helper()
	if e == nil {
		e = &fakeEnricher{}
	}
	opener := &fakeOpener{}
	srv := NewServer(Options{
		Config:  config.APIConfig{RequestTimeoutSec: 5},
		Stocks:  store.New(mem, e),
		Opener:  opener,
		DataDir: "/srv/data",
		Version: "test",
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Hub().Run(ctx)
	return &testEnv{srv: srv, mem: mem, opener: opener}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func seeded(symbols ...string) *store.MemoryStorage {
	c := make(store.Collection, 0, len(symbols))
	for _, s := range symbols {
		c = append(c, models.StockRecord{Symbol: s, Name: "old"})
	}
	return store.NewMemoryStorage(c)
}

// ════════════════════════════════════════════════════════════════════
// Health
// ════════════════════════════════════════════════════════════════════

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, &store.MemoryStorage{}, nil)
	rec := env.do(t, "GET", "/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	resp := decode[HealthResponse](t, rec)
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("got %+v", resp)
	}
}

// ════════════════════════════════════════════════════════════════════
// GET /api/stocks
// ════════════════════════════════════════════════════════════════════

func TestHandleGetStocks(t *testing.T) {
	env := newTestEnv(t, seeded("AAPL", "MSFT"), nil)
	rec := env.do(t, "GET", "/api/stocks", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	got := decode[[]models.StockRecord](t, rec)
	if len(got) != 2 || got[1].Symbol != "MSFT" {
		t.Errorf("got %+v", got)
	}
}

func TestHandleGetStocks_NotFound(t *testing.T) {
	env := newTestEnv(t, &store.MemoryStorage{}, nil)
	rec := env.do(t, "GET", "/api/stocks", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Error != msgNotFound {
		t.Errorf("error: got %q, want %q", resp.Error, msgNotFound)
	}
}

func TestHandleGetStocks_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stocks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := NewServer(Options{Stocks: store.New(store.NewFileStorage(path), &fakeEnricher{})})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rec.Code)
	}
	if resp := decode[MessageResponse](t, rec); resp.Message != msgListFailed {
		t.Errorf("message: got %q", resp.Message)
	}
}

// ════════════════════════════════════════════════════════════════════
// POST /api/stocks/add
// ════════════════════════════════════════════════════════════════════

func TestHandleAddStock(t *testing.T) {
	env := newTestEnv(t, seeded("MSFT"), nil)
	rec := env.do(t, "POST", "/api/stocks/add", `{"symbol":"volvo b","market":"se"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body)
	}
	resp := decode[AddStockResponse](t, rec)
	if resp.Message != msgStockAdded {
		t.Errorf("message: got %q", resp.Message)
	}
	if resp.Stock == nil || resp.Stock.Symbol != "VOLVO-B.ST" {
		t.Errorf("stock: got %+v", resp.Stock)
	}
	c, _ := env.mem.Read(context.Background())
	if len(c) != 2 {
		t.Errorf("expected 2 stored records, got %d", len(c))
	}
}

func TestHandleAddStock_Errors(t *testing.T) {
	e := &fakeEnricher{fail: map[string]error{
		"EMPTY": &enrich.UpstreamError{Symbol: "EMPTY", Op: enrich.OpHistorical, Err: enrich.ErrNoHistory},
		"DOWN":  &enrich.UpstreamError{Symbol: "DOWN", Op: enrich.OpQuoteSummary, Err: errors.New("connection refused")},
	}}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"invalid json", `{bad`, http.StatusBadRequest, msgMissingSymbol},
		{"missing symbol", `{}`, http.StatusBadRequest, msgMissingSymbol},
		{"blank symbol", `{"symbol":"   "}`, http.StatusBadRequest, msgMissingSymbol},
		{"empty history", `{"symbol":"empty"}`, http.StatusInternalServerError, msgNoHistory},
		{"upstream failure", `{"symbol":"DOWN"}`, http.StatusInternalServerError, msgFetchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &store.MemoryStorage{}, e)
			rec := env.do(t, "POST", "/api/stocks/add", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			resp := decode[ErrorResponse](t, rec)
			if resp.Error != tt.wantError {
				t.Errorf("error: got %q, want %q", resp.Error, tt.wantError)
			}
			if strings.Contains(rec.Body.String(), "connection refused") {
				t.Error("internal error text leaked to client")
			}
		})
	}
}

func TestHandleAddStock_SaveFailure(t *testing.T) {
	mem := &store.MemoryStorage{WriteErr: errors.New("read-only file system")}
	env := newTestEnv(t, mem, nil)
	rec := env.do(t, "POST", "/api/stocks/add", `{"symbol":"AAPL"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Error != msgSaveFailed {
		t.Errorf("error: got %q, want %q", resp.Error, msgSaveFailed)
	}
}

// ════════════════════════════════════════════════════════════════════
// POST /api/stocks/update
// ════════════════════════════════════════════════════════════════════

func TestHandleUpdateStocks(t *testing.T) {
	e := &fakeEnricher{fail: map[string]error{"NOPE": errors.New("not found")}}
	env := newTestEnv(t, seeded("AAPL", "NOPE", "MSFT"), e)
	rec := env.do(t, "POST", "/api/stocks/update", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body)
	}
	resp := decode[UpdateResponse](t, rec)
	if resp.Report == nil || len(resp.Report.Updated) != 2 || len(resp.Report.Failed) != 1 {
		t.Fatalf("report: got %+v", resp.Report)
	}
	if resp.Message != resp.Report.Summary() {
		t.Errorf("message: got %q", resp.Message)
	}

	c, _ := env.mem.Read(context.Background())
	if c[0].Name != "Name of AAPL" || c[1].Name != "old" || c[2].Name != "Name of MSFT" {
		t.Errorf("stored names: %q %q %q", c[0].Name, c[1].Name, c[2].Name)
	}
}

func TestHandleUpdateStocks_WriteFailure(t *testing.T) {
	mem := seeded("AAPL")
	mem.WriteErr = errors.New("disk full")
	env := newTestEnv(t, mem, nil)
	rec := env.do(t, "POST", "/api/stocks/update", "")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rec.Code)
	}
	resp := decode[UpdateResponse](t, rec)
	if resp.Message != msgUpdateFailed || resp.Error != msgSaveFailed {
		t.Errorf("got %+v", resp)
	}
	if resp.Report == nil || len(resp.Report.Updated) != 0 {
		t.Errorf("report: got %+v", resp.Report)
	}
}

// ════════════════════════════════════════════════════════════════════
// GET /api/stocks/open-json
// ════════════════════════════════════════════════════════════════════

func TestHandleOpenJSON(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMessage string
		wantError   string
	}{
		{"success", nil, msgFolderOpened, ""},
		{"command error", errors.New("exit status 1"), msgFolderOpenFail, "exit status 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &store.MemoryStorage{}, nil)
			env.opener.err = tt.err
			rec := env.do(t, "GET", "/api/stocks/open-json", "")

			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d, want 200", rec.Code)
			}
			resp := decode[MessageResponse](t, rec)
			if resp.Message != tt.wantMessage || resp.Error != tt.wantError {
				t.Errorf("got %+v", resp)
			}
			if env.opener.dir != "/srv/data" {
				t.Errorf("opened dir: got %q", env.opener.dir)
			}
		})
	}
}

// ════════════════════════════════════════════════════════════════════
// GET /api/stocks/refreshes
// ════════════════════════════════════════════════════════════════════

func TestHandleRefreshes(t *testing.T) {
	env := newTestEnv(t, &store.MemoryStorage{}, nil)

	rec := env.do(t, "GET", "/api/stocks/refreshes?limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("noop recorder should list nothing, got %s", body)
	}

	rec = env.do(t, "GET", "/api/stocks/refreshes?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid limit: got %d, want 400", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// Static UI
// ════════════════════════════════════════════════════════════════════

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>stocks</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := NewServer(Options{
		Config: config.APIConfig{StaticDir: dir},
		Stocks: store.New(&store.MemoryStorage{}, &fakeEnricher{}),
	})

	for _, path := range []string{"/", "/some/client/route"} {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "stocks") {
			t.Errorf("%s: got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// WebSocket
// ════════════════════════════════════════════════════════════════════

func dialWS(t *testing.T, env *testEnv) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	ts := httptest.NewServer(env.srv.Router())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for env.srv.Hub().ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return ts, conn
}

func TestWebSocketProgress(t *testing.T) {
	e := &fakeEnricher{fail: map[string]error{"NOPE": errors.New("not found")}}
	env := newTestEnv(t, seeded("AAPL", "NOPE"), e)
	ts, conn := dialWS(t, env)

	resp, err := http.Post(ts.URL+"/api/stocks/update", "application/json", nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status: got %d", resp.StatusCode)
	}

	// start, two symbols, summary
	var got []string
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for len(got) < 4 {
		var msg struct {
			Type string        `json:"type"`
			Data ProgressEvent `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read after %d messages: %v", len(got), err)
		}
		if msg.Type != EventStockUpdateProgress {
			t.Errorf("type: got %q", msg.Type)
		}
		got = append(got, msg.Data.Message)
	}
	if got[1] != "Updated AAPL (1/2)" {
		t.Errorf("first symbol: got %q", got[1])
	}
	if !strings.HasPrefix(got[2], "Failed to update NOPE (2/2)") {
		t.Errorf("second symbol: got %q", got[2])
	}
	if !strings.HasPrefix(got[3], "Update finished") {
		t.Errorf("summary: got %q", got[3])
	}
}

func TestWebSocketPingPong(t *testing.T) {
	env := newTestEnv(t, &store.MemoryStorage{}, nil)
	_, conn := dialWS(t, env)

	if err := conn.WriteJSON(WSMessage{Type: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "pong" {
		t.Errorf("type: got %q, want pong", msg.Type)
	}
}

func TestWSHubDropsWithoutClients(t *testing.T) {
	hub := NewWSHub(nil)
	// Hub not running: broadcasts fill the buffer and then drop without blocking.
	for i := 0; i < 300; i++ {
		hub.Notify(fmt.Sprintf("message %d", i))
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount: got %d", hub.ClientCount())
	}
}

func TestAddStockRequestValidate(t *testing.T) {
	req := AddStockRequest{Symbol: "  volvo b ", Market: "se"}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if req.Symbol != "volvo b" {
		t.Errorf("symbol: got %q, want %q", req.Symbol, "volvo b")
	}

	empty := AddStockRequest{Symbol: "\t"}
	if err := empty.Validate(); err == nil {
		t.Error("expected error for blank symbol")
	}
}
