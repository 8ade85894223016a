package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"tasklist/internal/logging"
	"tasklist/internal/otel"
	"tasklist/internal/result"
	"tasklist/internal/service"
	"tasklist/internal/store"
	"tasklist/internal/task"
	"tasklist/pkg/mq"
)

type Server struct {
	store     *store.Store
	tasks     *task.Manager
	validator *requestValidator
	logger    *log.Logger
	telemetry *otel.Provider
	metrics   *otel.Metrics
	events    mq.Publisher
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithTelemetry instruments the handler and records request metrics.
func WithTelemetry(p *otel.Provider, m *otel.Metrics) Option {
	return func(s *Server) {
		s.telemetry = p
		s.metrics = m
	}
}

// WithEvents publishes task change events to p.
func WithEvents(p mq.Publisher) Option { return func(s *Server) { s.events = p } }

func New(st *store.Store, opts ...Option) *Server {
	s := &Server{
		store:     st,
		validator: mustCompileValidator(),
		logger:    logging.Discard(),
		telemetry: otel.Noop(),
		events:    mq.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tasks = task.NewManager(st, task.WithPublisher(s.events), task.WithLogger(s.logger))
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /read/allTasks", s.handleReadAll)
	mux.HandleFunc("GET /read/task/{id}", s.handleReadOne)
	mux.HandleFunc("POST /create/task", s.handleCreate)
	mux.HandleFunc("PUT /update/task/{id}", s.handleUpdate)
	mux.HandleFunc("PUT /complete/task/{id}", s.handleSetCompleted(true))
	mux.HandleFunc("PUT /incomplete/task/{id}", s.handleSetCompleted(false))
	mux.HandleFunc("DELETE /delete/task/{id}", s.handleDelete)
	mux.HandleFunc("GET /export/tasks", s.handleExport)

	return s.telemetry.Handler(requestLogger(s.logger, s.metrics, mux), "tasklist-backend")
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()
	s.logger.Info("task api listening", "addr", addr, "driver", s.store.Driver())
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeErr(w, http.StatusServiceUnavailable, err)
		return
	}
	writeText(w, http.StatusOK, "ok")
}

type taskList struct {
	Tasks []service.Task `json:"tasks"`
}

func (s *Server) handleReadAll(w http.ResponseWriter, r *http.Request) {
	all, err := s.tasks.ListTasks(r.Context())
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskList{Tasks: all})
}

func (s *Server) handleReadOne(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w, r.PathValue("id"))
		return
	}
	t, err := s.tasks.GetTask(r.Context(), id)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type descriptionReq struct {
	Description string `json:"description"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req descriptionReq
	if err := s.validator.decode("create_task.json", r.Body, &req); err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	created, err := s.tasks.Create(r.Context(), req.Description)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	s.metrics.RecordMutation(r.Context(), "create")
	s.logger.Debug("task created", "id", created.ID)
	writeText(w, http.StatusCreated, fmt.Sprintf("Added task with description: %s", created.Description))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w, r.PathValue("id"))
		return
	}
	var req descriptionReq
	if err := s.validator.decode("update_task.json", r.Body, &req); err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	if err := s.tasks.UpdateTask(r.Context(), id, req.Description); err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	s.metrics.RecordMutation(r.Context(), "update")
	writeText(w, http.StatusOK, fmt.Sprintf("Updated task (ID: %d) with description: %s", id, req.Description))
}

func (s *Server) handleSetCompleted(completed bool) http.HandlerFunc {
	op := "incomplete"
	if completed {
		op = "complete"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeNotFound(w, r.PathValue("id"))
			return
		}
		if err := s.tasks.SetCompleted(r.Context(), id, completed); err != nil {
			s.writeServiceErr(w, r, err)
			return
		}
		s.metrics.RecordMutation(r.Context(), op)
		writeText(w, http.StatusOK, fmt.Sprintf("Task with ID: %d set to completed = %s", id, titleBool(completed)))
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w, r.PathValue("id"))
		return
	}
	if err := s.tasks.DeleteTask(r.Context(), id); err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	s.metrics.RecordMutation(r.Context(), "delete")
	writeText(w, http.StatusOK, fmt.Sprintf("Deleted task with ID: %d", id))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	ex := result.NewExporter(s.store)
	b, err := ex.Export(r.Context(), format)
	if errors.Is(err, result.ErrUnknownFormat) {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", result.ContentType(format))
	_, _ = w.Write(b)
}

// writeServiceErr maps the task error taxonomy onto HTTP statuses.
func (s *Server) writeServiceErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case service.IsValidation(err):
		writeErr(w, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrNotFound):
		writeNotFound(w, r.PathValue("id"))
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", requestID(r.Context()), "err", err)
		writeErr(w, http.StatusInternalServerError, errors.New("internal server error"))
	}
}

// pathID accepts only positive base-10 integers, like an int route converter.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func titleBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(msg))
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeText(w, code, err.Error())
}

func writeNotFound(w http.ResponseWriter, id string) {
	writeText(w, http.StatusNotFound, fmt.Sprintf("No task with ID: %s", id))
}
