package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/generation"
	"github.com/hyperjump/kotae/internal/guard"
	"github.com/hyperjump/kotae/internal/index"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/internal/storage"
	"go.uber.org/zap"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s stubEmbedder) Embed(context.Context, string, string) ([]float32, error) {
	return s.vec, s.err
}

type stubGenerator struct{ out string }

func (s stubGenerator) Generate(context.Context, string, string, generation.Params) (string, error) {
	return s.out, nil
}

type testEnv struct {
	srv     *Server
	journal *storage.SQLiteJournal
}

func newTestEnv(t *testing.T, emb embedding.Embedder, withJournal bool) *testEnv {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Index.Path = filepath.Join(t.TempDir(), "index.json")
	store := index.FromIndex(&models.Index{
		EmbModel: "m",
		Chunks:   []models.Chunk{{Text: "Loops repeat a block of code.", Embedding: []float32{1, 0}}},
	})
	env := &testEnv{}
	var opts []pipeline.Option
	var journal storage.Journal
	if withJournal {
		cfg.Journal.DatabasePath = filepath.Join(t.TempDir(), "journal.db")
		j, err := storage.NewSQLiteJournal(cfg.Journal.DatabasePath)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = j.Close() })
		env.journal = j
		journal = j
		opts = append(opts, pipeline.WithNotifier(j))
	}
	p := pipeline.New(store, emb, stubGenerator{out: "Loops repeat instructions."},
		pipeline.Config{TopK: 3, SimilarityThreshold: 0.2}, opts...)
	env.srv = NewServer(p, store, journal, cfg, zap.NewNop())
	return env
}

func ask(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleAsk(w, r)
	return w
}

func TestHandleAsk(t *testing.T) {
	env := newTestEnv(t, stubEmbedder{vec: []float32{1, 0}}, false)
	w := ask(t, env.srv, `{"question":"What does a loop do?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body.String())
	}
	var out models.Answer
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Text != "Loops repeat instructions." {
		t.Errorf("text: got %q", out.Text)
	}
}

func TestHandleAsk_refusal(t *testing.T) {
	env := newTestEnv(t, stubEmbedder{vec: []float32{0, 1}}, false)
	w := ask(t, env.srv, `{"question":"Who won?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("refusal is a normal answer, got status %d", w.Code)
	}
	var out models.Answer
	_ = json.NewDecoder(w.Body).Decode(&out)
	if out.Text != guard.CanonicalRefusal {
		t.Errorf("text: got %q", out.Text)
	}
}

func TestHandleAsk_debugIncludesOutcome(t *testing.T) {
	env := newTestEnv(t, stubEmbedder{vec: []float32{0, 1}}, false)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/ask?debug=true", strings.NewReader(`{"question":"Who won?"}`))
	w := httptest.NewRecorder()
	env.srv.handleAsk(w, r)
	if strings.Contains(w.Body.String(), "embedding") {
		t.Errorf("debug output must not carry embeddings: %s", w.Body.String())
	}
	var res debugView
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if !res.Refused || res.Reason != pipeline.ReasonInsufficientRelevance || res.State != pipeline.StateRefused {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(res.Sources) != 1 || res.Sources[0].Text != "Loops repeat a block of code." || res.Sources[0].Score != 0 {
		t.Errorf("sources: %+v", res.Sources)
	}
}

func TestHandleAsk_badRequest(t *testing.T) {
	env := newTestEnv(t, stubEmbedder{vec: []float32{1, 0}}, false)
	for _, body := range []string{`not json`, `{"question":"  "}`} {
		if w := ask(t, env.srv, body); w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status %d", body, w.Code)
		}
	}
}

func TestHandleAsk_embeddingFailureIsBadGateway(t *testing.T) {
	env := newTestEnv(t, stubEmbedder{err: &embedding.ServiceError{Provider: "ollama", StatusCode: 500}}, false)
	w := ask(t, env.srv, `{"question":"q"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status: got %d", w.Code)
	}
	var out map[string]string
	_ = json.NewDecoder(w.Body).Decode(&out)
	if out["error"] == "" {
		t.Error("expected error message")
	}
}

func TestHandleAnswers(t *testing.T) {
	env := newTestEnv(t, stubEmbedder{vec: []float32{1, 0}}, true)
	ask(t, env.srv, `{"question":"first"}`)
	ask(t, env.srv, `{"question":"second"}`)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/answers?limit=1", nil)
	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Answers []models.AnswerEvent `json:"answers"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Answers) != 1 || out.Answers[0].Question != "second" {
		t.Fatalf("answers: %+v", out.Answers)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/answers/"+out.Answers[0].ID, nil)
	w = httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("get status: got %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/answers/missing", nil)
	w = httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing id: got %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/answers?limit=zero", nil)
	w = httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: got %d", w.Code)
	}
}

func TestHandleAnswers_journalDisabled(t *testing.T) {
	env := newTestEnv(t, stubEmbedder{vec: []float32{1, 0}}, false)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/answers", nil)
	w := httptest.NewRecorder()
	env.srv.handleListAnswers(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	env := newTestEnv(t, stubEmbedder{vec: []float32{1, 0}}, true)
	ask(t, env.srv, `{"question":"q"}`)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	env.srv.handleStatus(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Index   index.Stats            `json:"index"`
		Answers int64                  `json:"answers"`
		Config  map[string]interface{} `json:"config"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Index.Chunks != 1 || out.Index.EmbModel != "m" || out.Answers != 1 {
		t.Errorf("unexpected status: %+v", out)
	}
	if out.Config["generation_model"] != "llama3.2:3b" {
		t.Errorf("config: %+v", out.Config)
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, stubEmbedder{}, false)
	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"ok"`)) {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}
}
