// Package server exposes translation jobs over HTTP.
package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/job"
	"github.com/nerdneilsfield/go-doc-translator/internal/llm"
	"github.com/nerdneilsfield/go-doc-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-doc-translator/internal/storage"
	"github.com/nerdneilsfield/go-doc-translator/internal/translator"
	"github.com/nerdneilsfield/go-doc-translator/internal/worker"
)

const (
	defaultMaxUpload      = 50 << 20
	defaultTargetLanguage = "English"
)

// Options wires a Server.
type Options struct {
	Store      *job.Store
	Storage    *storage.Manager
	Dispatcher *pipeline.Dispatcher
	Runner     *worker.Runner
	// Client serves the synchronous /translate endpoint.
	Client         llm.Client
	MaxUploadBytes int64
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Server handles the job API.
type Server struct {
	store      *job.Store
	storage    *storage.Manager
	dispatcher *pipeline.Dispatcher
	runner     *worker.Runner
	upload     *translator.Upload
	maxUpload  int64
	origins    []string
	logger     *zap.Logger
}

// New creates a server.
func New(opts Options) *Server {
	s := &Server{
		store:      opts.Store,
		storage:    opts.Storage,
		dispatcher: opts.Dispatcher,
		runner:     opts.Runner,
		maxUpload:  opts.MaxUploadBytes,
		origins:    opts.AllowedOrigins,
		logger:     opts.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.maxUpload <= 0 {
		s.maxUpload = defaultMaxUpload
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	if opts.Client != nil {
		s.upload = translator.NewUpload(opts.Client, s.logger)
	}
	return s
}

// Handler returns the router wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(loggingMiddleware(s.logger))

	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	router.HandleFunc("/translate", s.translate).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/jobs", s.createJob).Methods(http.MethodPost)
	api.HandleFunc("/jobs", s.listJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", s.getJob).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}/result", s.downloadResult).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler(router)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readUpload parses the multipart body and returns the "file" part with a
// sanitized name.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (multipart.File, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file too large, maximum is %d MB", s.maxUpload>>20))
			return nil, "", false
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return nil, "", false
	}
	name, err := storage.SanitizeFilename(header.Filename)
	if err != nil {
		file.Close()
		writeError(w, http.StatusBadRequest, "invalid filename")
		return nil, "", false
	}
	return file, name, true
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	file, name, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	if _, err := s.dispatcher.Lookup(name); err != nil {
		writeError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("%s, supported: %s", err, strings.Join(s.dispatcher.Extensions(), ", ")))
		return
	}

	j := job.New(name)
	if err := s.store.Create(j); err != nil {
		s.logger.Error("failed to register job", zap.String("jobID", j.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	if _, err := s.storage.SaveInput(j.ID, name, file); err != nil {
		s.logger.Error("failed to store upload", zap.String("jobID", j.ID), zap.Error(err))
		failed, _ := s.store.Update(j.ID, job.Changes{}.WithStatus(job.StatusFailed).WithProgress(1).WithMessage("failed to store upload"))
		writeJSON(w, http.StatusInternalServerError, NewJobResponse(failed))
		return
	}

	s.runner.Submit(r.Context(), j.ID)
	s.logger.Info("job accepted", zap.String("jobID", j.ID), zap.String("filename", name))

	w.Header().Set("Location", "/api/jobs/"+j.ID)
	writeJSON(w, http.StatusAccepted, NewJobResponse(j))
}

func (s *Server) listJobs(w http.ResponseWriter, _ *http.Request) {
	jobs := s.store.List()
	slices.SortFunc(jobs, func(a, b job.Job) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, NewJobResponse(j))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	j, ok := s.store.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, NewJobResponse(j))
}

func (s *Server) downloadResult(w http.ResponseWriter, r *http.Request) {
	j, ok := s.store.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if !j.HasResult() {
		writeError(w, http.StatusConflict, fmt.Sprintf("job is %s, result not available", j.Status))
		return
	}

	f, err := os.Open(j.ResultPath)
	if err != nil {
		s.logger.Error("result file missing", zap.String("jobID", j.ID), zap.Error(err))
		writeError(w, http.StatusNotFound, "result file not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read result")
		return
	}

	name := filepath.Base(j.ResultPath)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// translate answers synchronously with the translated text of a flat text
// upload.
func (s *Server) translate(w http.ResponseWriter, r *http.Request) {
	if s.upload == nil {
		writeError(w, http.StatusServiceUnavailable, "synchronous translation is not configured")
		return
	}
	file, name, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	lang := strings.TrimSpace(r.FormValue("target_language"))
	if lang == "" {
		lang = defaultTargetLanguage
	}

	res, err := s.upload.Translate(r.Context(), data, name, lang)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, translator.ErrEmptyDocument), errors.Is(err, translator.ErrUndecodable):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Warn("synchronous translation failed", zap.String("filename", name), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
