// Command scoperesolve-server exposes ParseAsync over HTTP: POST /resolve
// accepts a YAML form, an optional YAML response and a mode, and returns
// the resolved scope tree as an ASCII dump, or a diagnostic report on
// failure. The pass runs with no launch contexts and an empty loader.
package main

import (
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/sdcforms/scoperesolve"
	"github.com/sdcforms/scoperesolve/internal/fixtures"
	"github.com/sdcforms/scoperesolve/pkg/diag"
	"github.com/sdcforms/scoperesolve/pkg/formmodel"
	"github.com/sdcforms/scoperesolve/pkg/loader"
	"github.com/sdcforms/scoperesolve/pkg/patheval/basic"
	"github.com/sdcforms/scoperesolve/pkg/resource"
)

type config struct {
	Addr string
}

func loadConfig() config {
	_ = godotenv.Load()
	addr := os.Getenv("SCOPERESOLVE_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return config{Addr: addr}
}

type resolveRequest struct {
	FormYAML     string `json:"formYaml"`
	ResponseYAML string `json:"responseYaml,omitempty"`
	Mode         string `json:"mode"`
}

type resolveResponse struct {
	ScopeTree   string       `json:"scopeTree,omitempty"`
	Diagnostics []diag.Entry `json:"diagnostics,omitempty"`
	Error       string       `json:"error,omitempty"`
}

func main() {
	cfg := loadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Post("/resolve", handleResolve)

	logger.Info("listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal(err)
	}
}

func handleResolve(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, resolveResponse{Error: err.Error()})
		return
	}

	var in resolveRequest
	if err := json.Unmarshal(body, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, resolveResponse{Error: err.Error()})
		return
	}

	form, err := fixtures.LoadForm([]byte(in.FormYAML))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, resolveResponse{Error: err.Error()})
		return
	}

	var response *formmodel.Response
	if in.ResponseYAML != "" {
		response, err = fixtures.LoadResponse([]byte(in.ResponseYAML))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, resolveResponse{Error: err.Error()})
			return
		}
	}

	rc := scoperesolve.ResolvingPopulation
	if in.Mode == "extraction" {
		rc = scoperesolve.ResolvingExtraction
	}

	report := diag.NewReport()
	scope, err := scoperesolve.ParseAsync(
		req.Context(),
		form,
		response,
		map[string]resource.Resource{},
		loader.NewStatic(nil),
		basic.New(),
		rc,
		scoperesolve.Options{Sink: report},
	)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, resolveResponse{Error: err.Error(), Diagnostics: report.Entries})
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{ScopeTree: diag.DumpScope(scope), Diagnostics: report.Entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
