package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/guard"
	"github.com/hyperjump/kotae/internal/models"
)

// fakeOllama serves fixed embedding and generation replies.
func fakeOllama(t *testing.T, embedding []float32, response string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embeddings":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"embedding": embedding})
		case "/api/generate":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"response": response, "done": true})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeFixture writes an index and a config pointing at baseURL and returns the config path.
func writeFixture(t *testing.T, baseURL string) string {
	t.Helper()
	for _, k := range []string{"OLLAMA_BASE_URL", "GEN_MODEL", "TOP_K", "SIM_THRESHOLD"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	idx := models.Index{
		EmbModel: "nomic-embed-text",
		Chunks: []models.Chunk{
			{Text: "A for loop repeats a block of code a fixed number of times.", Embedding: []float32{1, 0}},
			{Text: "Variables name stored values.", Embedding: []float32{0, 1}},
		},
	}
	data, err := json.Marshal(idx)
	if err != nil {
		t.Fatal(err)
	}
	indexPath := filepath.Join(dir, "index.json")
	if err := os.WriteFile(indexPath, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg := fmt.Sprintf(`index:
  path: %s
  watch: false
embedding:
  base_url: %s
generation:
  base_url: %s
journal:
  database_path: %s
`, indexPath, baseURL, baseURL, filepath.Join(dir, "journal.db"))
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("1.2.3", "abc123", "2024-05-01")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "kotae 1.2.3 (abc123) built on 2024-05-01") {
		t.Errorf("got %q", out)
	}
}

func TestAskCommand_answersAndJournals(t *testing.T) {
	srv := fakeOllama(t, []float32{1, 0}, "  A for loop repeats code.  ")
	cfgPath := writeFixture(t, srv.URL)

	out, err := execute(t, "--config", cfgPath, "--no-color", "ask", "what", "does", "a", "for", "loop", "do")
	if err != nil {
		t.Fatalf("ask: %v\n%s", err, out)
	}
	if out != "A for loop repeats code.\n" {
		t.Errorf("ask output: %q", out)
	}

	out, err = execute(t, "--config", cfgPath, "-o", "json", "history")
	if err != nil {
		t.Fatalf("history: %v\n%s", err, out)
	}
	var events []models.AnswerEvent
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("history output is not JSON: %v\n%s", err, out)
	}
	if len(events) != 1 || events[0].Question != "what does a for loop do" {
		t.Fatalf("history: %+v", events)
	}
	if events[0].EmbModel != "nomic-embed-text" || events[0].GenModel != "llama3.2:3b" {
		t.Errorf("models: %+v", events[0])
	}

	out, err = execute(t, "--config", cfgPath, "--no-color", "status")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	if !strings.Contains(out, "nomic-embed-text") || !strings.Contains(out, "answers") {
		t.Errorf("status output:\n%s", out)
	}
}

func TestAskCommand_refusesOffTopic(t *testing.T) {
	srv := fakeOllama(t, []float32{-1, -1}, "should not be used")
	cfgPath := writeFixture(t, srv.URL)

	out, err := execute(t, "--config", cfgPath, "-o", "json", "ask", "--sources", "who won the world cup")
	if err != nil {
		t.Fatalf("ask: %v\n%s", err, out)
	}
	var view answerView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out)
	}
	if view.Answer != guard.CanonicalRefusal || !view.Refused || view.Reason != "insufficient_relevance" {
		t.Errorf("unexpected: %+v", view)
	}
	if len(view.Sources) == 0 {
		t.Error("fallback sources should be reported")
	}
}

func TestAskCommand_embeddingFailureIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	cfgPath := writeFixture(t, srv.URL)

	if _, err := execute(t, "--config", cfgPath, "ask", "what is a loop"); err == nil {
		t.Fatal("expected error when the embedding service fails")
	}
}

func TestAskCommand_requiresQuestion(t *testing.T) {
	if _, err := execute(t, "ask"); err == nil {
		t.Fatal("expected error without a question")
	}
}

func TestAskCommand_badOutputFormat(t *testing.T) {
	if _, err := execute(t, "-o", "xml", "ask", "q"); err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestInitCommand_writesLoadableConfig(t *testing.T) {
	for _, k := range []string{"OLLAMA_BASE_URL", "GEN_MODEL", "TOP_K", "SIM_THRESHOLD"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if _, err := execute(t, "init", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if len(cfg.Generation.Stop) != 3 || cfg.Generation.Stop[0] != "\n---" {
		t.Errorf("stop sequences: %q", cfg.Generation.Stop)
	}
	if filepath.Dir(cfg.Index.Path) != filepath.Join(filepath.Dir(path), "data") {
		t.Errorf("index path should resolve next to the config: %s", cfg.Index.Path)
	}

	if _, err := execute(t, "init", path); err == nil {
		t.Error("expected refusal to overwrite without --force")
	}
	if _, err := execute(t, "init", "--force", path); err != nil {
		t.Errorf("--force: %v", err)
	}
}
