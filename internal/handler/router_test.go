package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/romanetflavia-png/Sales-Resolve1/internal/model"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/ratelimit"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/repository"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/service"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/storage"
	"github.com/romanetflavia-png/Sales-Resolve1/pkg/auth"
)

var adminCreds = auth.Credentials{User: "admin", Pass: "hunter2"}

func newTestServer(t *testing.T, dataDir string, max int) *httptest.Server {
	t.Helper()
	repo := repository.NewJSONMessageRepository(storage.NewLocalStorage(dataDir), "messages.json")
	limiter := ratelimit.NewFixedWindow(ratelimit.Config{Window: time.Minute, Max: max})

	router := NewRouter(RouterConfig{
		Handler:     New(repo, "http://localhost:3000"),
		Messages:    NewMessageHandler(service.NewMessageService(repo)),
		RateLimiter: NewRateLimiter(limiter),
		Admin:       adminCreds,
		Logger:      zerolog.Nop(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postContact(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/contact", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getMessages(t *testing.T, srv *httptest.Server, creds *auth.Credentials) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/messages", nil)
	if err != nil {
		t.Fatal(err)
	}
	if creds != nil {
		req.SetBasicAuth(creds.User, creds.Pass)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeMessages(t *testing.T, resp *http.Response) []model.Message {
	t.Helper()
	var msgs []model.Message
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msgs
}

func TestRouter_MessagesRequireCredentials(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), 6)

	for name, creds := range map[string]*auth.Credentials{
		"none":           nil,
		"wrong password": {User: "admin", Pass: "wrong"},
	} {
		resp := getMessages(t, srv, creds)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, resp.StatusCode)
		}
		if got := resp.Header.Get("WWW-Authenticate"); got != `Basic realm="Admin Area"` {
			t.Errorf("%s: unexpected challenge %q", name, got)
		}
	}
}

func TestRouter_FirstRunReturnsEmptyArray(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), 6)

	resp := getMessages(t, srv, &adminCreds)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

func TestRouter_SubmitThenList(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), 6)

	postContact(t, srv, `{"name":"first","email":"a@example.com","message":"one"}`)
	resp := postContact(t, srv, `{"name":"<script>","email":"b@example.com","message":"two"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	msgs := decodeMessages(t, getMessages(t, srv, &adminCreds))
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Name != "&lt;script&gt;" {
		t.Errorf("expected newest first with escaped name, got %q", msgs[0].Name)
	}
	if msgs[1].Name != "first" {
		t.Errorf("expected oldest last, got %q", msgs[1].Name)
	}
	if msgs[0].SubmitterAddress != "127.0.0.1" {
		t.Errorf("expected submitter address recorded, got %q", msgs[0].SubmitterAddress)
	}
}

func TestRouter_MessageLengthBoundary(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), 100)

	body := func(n int) string {
		b, _ := json.Marshal(map[string]string{
			"name":    "n",
			"email":   "e@example.com",
			"message": strings.Repeat("a", n),
		})
		return string(b)
	}

	if resp := postContact(t, srv, body(5000)); resp.StatusCode != http.StatusCreated {
		t.Errorf("5000 chars: expected 201, got %d", resp.StatusCode)
	}
	if resp := postContact(t, srv, body(5001)); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("5001 chars: expected 400, got %d", resp.StatusCode)
	}
	if resp := postContact(t, srv, `{"name":"","email":"e@example.com","message":"m"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty name: expected 400, got %d", resp.StatusCode)
	}

	msgs := decodeMessages(t, getMessages(t, srv, &adminCreds))
	if len(msgs) != 1 {
		t.Errorf("rejected submissions must not be stored, got %d messages", len(msgs))
	}
}

func TestRouter_SeventhSubmissionRateLimited(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), 6)

	for i := 0; i < 6; i++ {
		if resp := postContact(t, srv, `{"name":"n","email":"e","message":"m"}`); resp.StatusCode != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i+1, resp.StatusCode)
		}
	}
	resp := postContact(t, srv, `{"name":"n","email":"e","message":"m"}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if !strings.HasPrefix(body["error"], "Too many submissions") {
		t.Errorf("unexpected error body %q", body["error"])
	}

	// Reads are not rate limited.
	if resp := getMessages(t, srv, &adminCreds); resp.StatusCode != http.StatusOK {
		t.Errorf("expected admin read to succeed, got %d", resp.StatusCode)
	}
}

func TestRouter_ConcurrentSubmissions(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), 1000)

	const writers = 30
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+"/api/contact", "application/json",
				strings.NewReader(`{"name":"n","email":"e","message":"m"}`))
			if err != nil {
				t.Error(err)
				return
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				t.Errorf("expected 201, got %d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	msgs := decodeMessages(t, getMessages(t, srv, &adminCreds))
	if len(msgs) != writers {
		t.Fatalf("expected %d messages, got %d", writers, len(msgs))
	}
	ids := make(map[string]bool)
	for _, m := range msgs {
		ids[m.ID] = true
	}
	if len(ids) != writers {
		t.Errorf("expected %d distinct ids, got %d", writers, len(ids))
	}
}

func TestRouter_PersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	first := newTestServer(t, dir, 6)
	postContact(t, first, `{"name":"before restart","email":"e","message":"m"}`)
	first.Close()

	second := newTestServer(t, dir, 6)
	msgs := decodeMessages(t, getMessages(t, second, &adminCreds))
	if len(msgs) != 1 || msgs[0].Name != "before restart" {
		t.Errorf("expected message to survive restart, got %+v", msgs)
	}
}

func TestRouter_MalformedStoreReturns500(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "messages.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, dir, 6)

	if resp := getMessages(t, srv, &adminCreds); resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500 for malformed store, got %d", resp.StatusCode)
	}
	if resp := postContact(t, srv, `{"name":"n","email":"e","message":"m"}`); resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500 on append to malformed store, got %d", resp.StatusCode)
	}
}

func TestRouter_ServesStaticSiteAndRequestID(t *testing.T) {
	static := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>hi</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	repo := repository.NewJSONMessageRepository(storage.NewLocalStorage(t.TempDir()), "messages.json")
	router := NewRouter(RouterConfig{
		Handler:     New(repo, "http://localhost:3000"),
		Messages:    NewMessageHandler(service.NewMessageService(repo)),
		RateLimiter: NewRateLimiter(ratelimit.NewFixedWindow(ratelimit.Config{Window: time.Minute, Max: 6})),
		Admin:       adminCreds,
		StaticDir:   static,
		Logger:      zerolog.Nop(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<h1>hi</h1>") {
		t.Errorf("expected index.html, got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected health 200, got %d", rec.Code)
	}
}
