// Package admin serves a small HTTP API for inspecting and editing the
// effect registry of a running process.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/vk/arcanebooks/internal/definition"
	"github.com/vk/arcanebooks/internal/effects"
	"github.com/vk/arcanebooks/internal/runes"
)

// maxBodyBytes caps the size of an uploaded effects text.
const maxBodyBytes = 1 << 20

// RuneLookup returns the rune design assigned to an effect.
type RuneLookup interface {
	Get(identity string) (runes.Design, bool)
}

// Server exposes the registries over HTTP.
type Server struct {
	effects *effects.Registry
	defs    *definition.Registry
	runes   RuneLookup
	logger  *slog.Logger

	router     *mux.Router
	httpServer *http.Server
}

// New builds a Server and its routes. lookup may be nil.
func New(reg *effects.Registry, defs *definition.Registry, lookup RuneLookup, logger *slog.Logger) *Server {
	s := &Server{effects: reg, defs: defs, runes: lookup, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/effects", s.handleGetEffects).Methods("GET")
	r.HandleFunc("/effects", s.handleReplaceEffects).Methods("PUT")
	r.HandleFunc("/effects", s.handleAddEffects).Methods("POST")
	r.HandleFunc("/effects/{name}", s.handleGetEffect).Methods("GET")
	r.HandleFunc("/effects/{name}", s.handleDeleteEffect).Methods("DELETE")
	r.HandleFunc("/backlog", s.handleUpdateBacklog).Methods("POST")
	r.HandleFunc("/definitions", s.handleGetDefinitions).Methods("GET")
	s.router = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on port in the background. It returns once the listener
// goroutine is running; failures are logged.
func (s *Server) Start(port int) {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Info("🛠 Admin server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Admin server failed unexpectedly", "error", err)
		}
	}()
}

// Shutdown stops a started server, waiting at most five seconds for open
// requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		s.logger.Debug("Admin server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.logger.Info("🛠 Shutting down admin server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("admin server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) handleGetEffects(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, s.effects.Serialize())
}

// effectView is the JSON form of a single effect.
type effectView struct {
	Name    string   `json:"name"`
	Status  string   `json:"status"`
	Body    string   `json:"body"`
	Missing []string `json:"missing,omitempty"`
	Rune    string   `json:"rune,omitempty"`
}

func (s *Server) handleGetEffect(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	body, ok := s.effects.Body(name)
	if !ok {
		http.Error(w, "Effect not found", http.StatusNotFound)
		return
	}
	view := effectView{
		Name:   name,
		Status: s.effects.Status(name).String(),
		Body:   body,
	}
	if view.Status == effects.StatusBacklogged.String() {
		view.Missing = s.effects.Missing()[name]
	}
	if s.runes != nil {
		if d, ok := s.runes.Get(name); ok {
			view.Rune = d.Key()
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// reportView is the JSON form of an ingestion report.
type reportView struct {
	Compiled   []string `json:"compiled"`
	Backlogged []string `json:"backlogged"`
	Skipped    []string `json:"skipped,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

func newReportView(rep effects.Report) reportView {
	v := reportView{
		Compiled:   nonNil(rep.Compiled),
		Backlogged: nonNil(rep.Backlogged),
	}
	for _, i := range rep.Skipped {
		v.Skipped = append(v.Skipped, i.String())
	}
	for _, i := range rep.Warnings {
		v.Warnings = append(v.Warnings, i.String())
	}
	return v
}

func (s *Server) handleReplaceEffects(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r)
	if !ok {
		return
	}
	rep := s.effects.LoadFromString(text, true)
	writeJSON(w, http.StatusOK, newReportView(rep))
}

func (s *Server) handleAddEffects(w http.ResponseWriter, r *http.Request) {
	replace := false
	if q := r.URL.Query().Get("replace"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			http.Error(w, "Invalid 'replace' parameter", http.StatusBadRequest)
			return
		}
		replace = v
	}
	text, ok := readText(w, r)
	if !ok {
		return
	}
	rep := s.effects.AddFromString(text, replace)
	writeJSON(w, http.StatusOK, newReportView(rep))
}

func (s *Server) handleDeleteEffect(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if removed := s.effects.Deregister(name); len(removed) == 0 {
		http.Error(w, "Effect not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateBacklog(w http.ResponseWriter, r *http.Request) {
	moved := s.effects.UpdateBacklog()
	writeJSON(w, http.StatusOK, map[string]any{
		"compiled":   nonNil(moved),
		"backlogged": nonNil(s.effects.Backlogged()),
	})
}

// inputView is the JSON form of a definition input.
type inputView struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Optional    bool   `json:"optional"`
	Description string `json:"description,omitempty"`
}

// definitionView is the JSON form of a definition.
type definitionView struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Inputs      []inputView `json:"inputs"`
}

func (s *Server) handleGetDefinitions(w http.ResponseWriter, r *http.Request) {
	views := make([]definitionView, 0, s.defs.Len())
	for _, name := range s.defs.Names() {
		def, ok := s.defs.Get(name)
		if !ok {
			continue
		}
		v := definitionView{Name: def.Name, Description: def.Description, Inputs: []inputView{}}
		for _, in := range def.Inputs() {
			v.Inputs = append(v.Inputs, inputView{
				Name:        in.Name,
				Type:        in.Type.FriendlyName(),
				Optional:    in.Optional,
				Description: in.Description,
			})
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

// readText reads the request body as effects text. It writes the error
// response itself and reports whether the caller should continue.
func readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return "", false
	}
	return string(b), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
