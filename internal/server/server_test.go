package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/docchat/internal/assistant"
	"github.com/ziadkadry99/docchat/internal/config"
	"github.com/ziadkadry99/docchat/internal/db"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/provider"
	"github.com/ziadkadry99/docchat/internal/session"
)

type mockEmbedder struct{}

func (mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 16)
		for j, ch := range text {
			vec[(int(ch)+j)%16] += 1
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v * v)
		}
		norm = math.Sqrt(norm)
		for k := range vec {
			if norm > 0 {
				vec[k] = float32(float64(vec[k]) / norm)
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (mockEmbedder) Dimensions() int { return 16 }
func (mockEmbedder) Name() string    { return "mock-embed" }

type mockProvider struct{ content string }

func (m mockProvider) Name() string { return "mock" }

func (m mockProvider) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: m.content}, nil
}

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	binding := &provider.Binding{
		Provider:   mockProvider{content: "The sky is blue."},
		Model:      "mock-model",
		Embedder:   mockEmbedder{},
		Backend:    provider.BackendLocal,
		ResolvedAt: time.Now(),
	}

	var opts []assistant.Option
	if withStore {
		database, err := db.OpenMemory()
		if err != nil {
			t.Fatalf("OpenMemory: %v", err)
		}
		t.Cleanup(func() { database.Close() })
		opts = append(opts, assistant.WithStore(session.NewStore(database)))
	}
	return New(Config{Port: 0}, assistant.New(cfg, binding, opts...))
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	w := do(t, srv, "POST", "/api/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", w.Code, w.Body.String())
	}
	var resp sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.ID
}

func upload(t *testing.T, srv *Server, sessionID, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if sessionID != "" {
		mw.WriteField("session_id", sessionID)
	}
	fw, err := mw.CreateFormFile("files", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	req := httptest.NewRequest("POST", "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func docx(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, false)

	w := do(t, srv, "GET", "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	binding := &provider.Binding{Provider: mockProvider{}, Embedder: mockEmbedder{}}
	srv := New(Config{AllowAll: true}, assistant.New(cfg, binding))

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestAskBeforeProcessIsConflict(t *testing.T) {
	srv := newTestServer(t, false)
	id := createSession(t, srv)

	w := do(t, srv, "POST", "/api/sessions/"+id+"/ask", askRequest{Question: "What colour is the sky?"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "process a file first") {
		t.Errorf("body lacks hint: %s", w.Body.String())
	}
}

func TestAskValidation(t *testing.T) {
	srv := newTestServer(t, false)
	id := createSession(t, srv)

	w := do(t, srv, "POST", "/api/sessions/"+id+"/ask", askRequest{Question: "Hi"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAskUnknownSession(t *testing.T) {
	srv := newTestServer(t, false)
	w := do(t, srv, "POST", "/api/sessions/nope/ask", askRequest{Question: "What colour is the sky?"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUploadErrors(t *testing.T) {
	srv := newTestServer(t, false)

	if w := upload(t, srv, "", "report.txt", []byte("plain")); w.Code != http.StatusBadRequest {
		t.Errorf("unsupported type: expected 400, got %d", w.Code)
	}
	if w := upload(t, srv, "", "broken.docx", []byte("not a zip")); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("corrupt docx: expected 422, got %d", w.Code)
	}
}

func TestUploadAskTurnsExport(t *testing.T) {
	srv := newTestServer(t, true)
	id := createSession(t, srv)

	w := upload(t, srv, id, "sky.docx", docx(t, "The sky is blue on a clear day."))
	if w.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	var pr processResponse
	json.Unmarshal(w.Body.Bytes(), &pr)
	if pr.Type != "docx" || pr.Chunks != 1 {
		t.Errorf("process response = %+v", pr)
	}

	for _, q := range []string{"What colour is the sky?", "Is the sky blue today?"} {
		w = do(t, srv, "POST", "/api/sessions/"+id+"/ask", askRequest{Question: q})
		if w.Code != http.StatusOK {
			t.Fatalf("ask: %d %s", w.Code, w.Body.String())
		}
	}
	var ar answerResponse
	json.Unmarshal(w.Body.Bytes(), &ar)
	if ar.Answer != "The sky is blue." || len(ar.Context) != 1 || ar.NotFound {
		t.Errorf("answer = %+v", ar)
	}

	w = do(t, srv, "GET", "/api/sessions/"+id+"/turns", nil)
	var turns []turnResponse
	json.Unmarshal(w.Body.Bytes(), &turns)
	if len(turns) != 2 || turns[0].Question != "Is the sky blue today?" {
		t.Errorf("turns should be newest first: %+v", turns)
	}

	w = do(t, srv, "GET", "/api/sessions/"+id+"/export", nil)
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	want := "question,answer\nWhat colour is the sky?,The sky is blue.\nIs the sky blue today?,The sky is blue.\n"
	if w.Body.String() != want {
		t.Errorf("export =\n%s\nwant\n%s", w.Body.String(), want)
	}

	w = do(t, srv, "GET", "/api/documents", nil)
	var docs []documentResponse
	json.Unmarshal(w.Body.Bytes(), &docs)
	if len(docs) != 1 || docs[0].Name != "sky.docx" {
		t.Errorf("documents = %+v", docs)
	}

	w = do(t, srv, "GET", "/api/sessions", nil)
	var sessions []sessionResponse
	json.Unmarshal(w.Body.Bytes(), &sessions)
	if len(sessions) != 1 || sessions[0].Turns != 2 {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv := newTestServer(t, false)
	if w := upload(t, srv, "", "sky.docx", docx(t, "The sky is blue on a clear day.")); w.Code != http.StatusOK {
		t.Fatalf("upload: %d", w.Code)
	}

	w := do(t, srv, "POST", "/api/search", searchRequest{Query: "sky colour", Limit: 3})
	if w.Code != http.StatusOK {
		t.Fatalf("search: %d %s", w.Code, w.Body.String())
	}
	var results []searchResult
	json.Unmarshal(w.Body.Bytes(), &results)
	if len(results) != 1 || results[0].Source != "sky.docx" {
		t.Errorf("results = %+v", results)
	}
}

func TestWebsocketAsk(t *testing.T) {
	srv := newTestServer(t, false)
	if w := upload(t, srv, "", "sky.docx", docx(t, "The sky is blue on a clear day.")); w.Code != http.StatusOK {
		t.Fatalf("upload: %d", w.Code)
	}

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsRequest{Type: "new_session"}); err != nil {
		t.Fatal(err)
	}
	var resp wsResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Type != "session" || resp.SessionID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	id := resp.SessionID

	conn.WriteJSON(wsRequest{Type: "ask", SessionID: id, Question: "Hi"})
	resp = wsResponse{}
	conn.ReadJSON(&resp)
	if resp.Type != "error" || resp.Status != http.StatusBadRequest {
		t.Errorf("short question: %+v", resp)
	}

	conn.WriteJSON(wsRequest{Type: "ask", SessionID: id, Question: "What colour is the sky?"})
	resp = wsResponse{}
	conn.ReadJSON(&resp)
	if resp.Type != "answer" || resp.Answer == nil || resp.Answer.Answer != "The sky is blue." {
		t.Errorf("answer: %+v", resp)
	}
}
