// Package frontend renders the task list as server-side HTML. It holds no
// state of its own; every read and write goes through a service.Service,
// normally the HTTP client for the task API.
package frontend

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"tasklist/internal/logging"
	"tasklist/internal/otel"
	"tasklist/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Server struct {
	svc       service.Service
	logger    *log.Logger
	telemetry *otel.Provider
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

func WithTelemetry(p *otel.Provider) Option { return func(s *Server) { s.telemetry = p } }

func New(svc service.Service, opts ...Option) *Server {
	s := &Server{svc: svc, logger: logging.Discard(), telemetry: otel.Noop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /home", s.handleHome)
	mux.HandleFunc("GET /create", s.handleCreateForm)
	mux.HandleFunc("POST /create", s.handleCreate)
	mux.HandleFunc("GET /update/{id}", s.handleUpdateForm)
	mux.HandleFunc("POST /update/{id}", s.handleUpdate)
	mux.HandleFunc("GET /complete/{id}", s.handleSetCompleted(true))
	mux.HandleFunc("GET /incomplete/{id}", s.handleSetCompleted(false))
	mux.HandleFunc("GET /delete/{id}", s.handleDelete)
	return s.telemetry.Handler(s.logRequests(mux), "tasklist-frontend")
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()
	s.logger.Info("frontend listening", "addr", addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type homePage struct {
	Tasks []service.Task
}

type formPage struct {
	Title       string
	Action      string
	Submit      string
	Description string
	Error       string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.ListTasks(r.Context())
	if err != nil {
		s.backendErr(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "home", homePage{Tasks: tasks})
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "form", createForm("", ""))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	desc, err := readDescription(r)
	if err == nil {
		err = s.svc.CreateTask(r.Context(), desc)
	}
	if service.IsValidation(err) {
		s.render(w, http.StatusBadRequest, "form", createForm(desc, err.Error()))
		return
	}
	if err != nil {
		s.backendErr(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleUpdateForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r.PathValue("id"))
		return
	}
	t, err := s.svc.GetTask(r.Context(), id)
	if err != nil {
		s.backendErr(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "form", updateForm(id, t.Description, ""))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r.PathValue("id"))
		return
	}
	desc, err := readDescription(r)
	if err == nil {
		err = s.svc.UpdateTask(r.Context(), id, desc)
	}
	if service.IsValidation(err) {
		s.render(w, http.StatusBadRequest, "form", updateForm(id, desc, err.Error()))
		return
	}
	if err != nil {
		s.backendErr(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSetCompleted(completed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			s.notFound(w, r.PathValue("id"))
			return
		}
		if err := s.svc.SetCompleted(r.Context(), id, completed); err != nil {
			s.backendErr(w, r, err)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r.PathValue("id"))
		return
	}
	if err := s.svc.DeleteTask(r.Context(), id); err != nil {
		s.backendErr(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func createForm(desc, errMsg string) formPage {
	return formPage{Title: "Create Task", Action: "/create", Submit: "Add task", Description: desc, Error: errMsg}
}

func updateForm(id int64, desc, errMsg string) formPage {
	return formPage{
		Title:       fmt.Sprintf("Update Task %d", id),
		Action:      fmt.Sprintf("/update/%d", id),
		Submit:      "Save",
		Description: desc,
		Error:       errMsg,
	}
}

// readDescription accepts a urlencoded/multipart form or a JSON body and
// checks the description is not blank.
func readDescription(r *http.Request) (string, error) {
	var desc string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Description string `json:"description"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body); err != nil {
			return "", &service.ValidationError{Reason: "request body is not valid JSON"}
		}
		desc = body.Description
	} else {
		desc = r.FormValue("description")
	}
	if strings.TrimSpace(desc) == "" {
		return desc, &service.ValidationError{Field: "description", Reason: "must not be empty"}
	}
	return desc, nil
}

// backendErr renders not-found as a 404 page. Anything else means the task
// API could not serve the request, which is fatal for this request only.
func (s *Server) backendErr(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrNotFound) {
		s.notFound(w, r.PathValue("id"))
		return
	}
	s.logger.Error("backend call failed", "method", r.Method, "path", r.URL.Path, "err", err)
	http.Error(w, "task backend unavailable", http.StatusBadGateway)
}

func (s *Server) notFound(w http.ResponseWriter, id string) {
	s.render(w, http.StatusNotFound, "notfound", fmt.Sprintf("No task with ID: %s", id))
}

func (s *Server) render(w http.ResponseWriter, code int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("render template", "template", name, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
