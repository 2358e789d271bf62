package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muhammadolammi/careerwise/internal/database"
	"github.com/muhammadolammi/careerwise/internal/logger"
	"github.com/muhammadolammi/careerwise/internal/pipeline"
)

const pingMessage = "CareerWise.AI Backend running 🚀"

type RecommendationReader interface {
	RecommendationsFor(ctx context.Context, email string) (database.User, []database.Recommendation, error)
}

type Server struct {
	pipeline       *pipeline.Pipeline
	store          RecommendationReader
	maxUploadBytes int64
	log            logger.Logger
}

// NewServer wires the HTTP handlers. store may be nil, in which case the
// recommendations lookup is not served.
func NewServer(p *pipeline.Pipeline, store RecommendationReader, maxUploadBytes int64, log logger.Logger) *Server {
	return &Server{
		pipeline:       p,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		log:            log.With(map[string]interface{}{"component": "http"}),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload_resume/", s.handleUploadResume)
	mux.HandleFunc("POST /api/readiness_score/", s.handleReadinessScore)
	mux.HandleFunc("GET /api/ping", s.handlePing)
	if s.store != nil {
		mux.HandleFunc("GET /api/recommendations", s.handleRecommendations)
	}
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.logRequests(mux)
}

type errorResponse struct {
	Detail string `json:"detail"`
	Stage  string `json:"stage,omitempty"`
	Code   string `json:"code,omitempty"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": pingMessage})
}

func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	up, cleanup, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	defer cleanup()

	up.Name = r.FormValue("name")
	up.Email = r.FormValue("email")
	up.Preferences = r.FormValue("preferences")

	resp, err := s.pipeline.Analyze(r.Context(), up)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReadinessScore(w http.ResponseWriter, r *http.Request) {
	up, cleanup, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	defer cleanup()

	score, err := s.pipeline.Score(r.Context(), up)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

type storedRecommendation struct {
	CareerPath string    `json:"career_path"`
	Score      float64   `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "email query parameter is required",
			Stage: string(pipeline.StageInput), Code: string(pipeline.ErrCodeInvalidInput)})
		return
	}

	user, recs, err := s.store.RecommendationsFor(r.Context(), email)
	if errors.Is(err, database.ErrUserNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "no user with that email"})
		return
	}
	if err != nil {
		s.log.WithError(err).Error("failed to load recommendations", nil)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "failed to load recommendations",
			Stage: string(pipeline.StagePersistence), Code: string(pipeline.ErrCodePersistenceFailed)})
		return
	}

	out := make([]storedRecommendation, 0, len(recs))
	for _, rec := range recs {
		out = append(out, storedRecommendation{CareerPath: rec.CareerPath, Score: rec.Score, CreatedAt: rec.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":            user.Name,
		"email":           user.Email,
		"recommendations": out,
	})
}

// readUpload parses the multipart form and opens the "file" part. cleanup
// releases the form's temporary files.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (pipeline.Upload, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		detail := "invalid multipart form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			detail = "upload is too large"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: detail,
			Stage: string(pipeline.StageInput), Code: string(pipeline.ErrCodeInvalidInput)})
		return pipeline.Upload{}, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll()
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "file is required",
			Stage: string(pipeline.StageInput), Code: string(pipeline.ErrCodeInvalidInput)})
		return pipeline.Upload{}, nil, false
	}

	cleanup := func() {
		file.Close()
		r.MultipartForm.RemoveAll()
	}
	return pipeline.Upload{Filename: header.Filename, Body: file}, cleanup, true
}

func statusFor(stage pipeline.Stage) int {
	switch stage {
	case pipeline.StageInput:
		return http.StatusBadRequest
	case pipeline.StageExtraction:
		return http.StatusUnprocessableEntity
	case pipeline.StageRecommendation, pipeline.StageParsing:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var se *pipeline.StageError
	if !errors.As(err, &se) {
		s.log.WithError(err).Error("unexpected error", nil)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal error"})
		return
	}
	writeJSON(w, statusFor(se.Stage), errorResponse{
		Detail: se.Err.Error(),
		Stage:  string(se.Stage),
		Code:   string(se.Code),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}
