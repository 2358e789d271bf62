// Package pipeline runs a resume through extraction, the model, normalization
// and persistence, and tags every failure with the stage that produced it.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muhammadolammi/careerwise/internal/assessment"
	"github.com/muhammadolammi/careerwise/internal/database"
	"github.com/muhammadolammi/careerwise/internal/extract"
	"github.com/muhammadolammi/careerwise/internal/logger"
	"github.com/muhammadolammi/careerwise/internal/metrics"
	"github.com/muhammadolammi/careerwise/internal/scoring"
)

// Recommender sends one prompt to the model and returns its raw reply.
type Recommender interface {
	Recommend(ctx context.Context, prompt string) (string, error)
}

type Store interface {
	SaveAssessment(ctx context.Context, name, email, resumeText string, scores []database.CareerScore) (database.User, error)
}

type Options struct {
	Extractor   *extract.Extractor
	Recommender Recommender
	// Store is optional; without it assessments are not persisted.
	Store     Store
	UploadDir string
	Logger    logger.Logger
}

type Pipeline struct {
	extractor   *extract.Extractor
	recommender Recommender
	store       Store
	uploadDir   string
	log         logger.Logger
}

// Upload is one submitted resume.
type Upload struct {
	Name        string
	Email       string
	Filename    string
	Preferences string
	Body        io.Reader
}

// LocalScore is the result of the model-free scoring path.
type LocalScore struct {
	ResumeFile     string        `json:"resume_file"`
	ReadinessScore float64       `json:"readiness_score"`
	Facts          scoring.Facts `json:"facts"`
}

func New(opts Options) (*Pipeline, error) {
	if opts.Recommender == nil {
		return nil, fmt.Errorf("pipeline: recommender is required")
	}
	if opts.UploadDir == "" {
		return nil, fmt.Errorf("pipeline: upload dir is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	ex := opts.Extractor
	if ex == nil {
		ex = extract.New(log)
	}
	return &Pipeline{
		extractor:   ex,
		recommender: opts.Recommender,
		store:       opts.Store,
		uploadDir:   opts.UploadDir,
		log:         log.With(map[string]interface{}{"component": "pipeline"}),
	}, nil
}

// Analyze produces the full model-backed assessment for an upload.
func (p *Pipeline) Analyze(ctx context.Context, up Upload) (*assessment.Response, error) {
	metrics.AnalysesActive.Inc()
	defer metrics.AnalysesActive.Dec()

	if strings.TrimSpace(up.Name) == "" {
		return nil, p.fail(invalidInput("name is required"))
	}
	if strings.TrimSpace(up.Email) == "" {
		return nil, p.fail(invalidInput("email is required"))
	}
	prefs := strings.TrimSpace(up.Preferences)
	if prefs == "" {
		prefs = "{}"
	}
	if !json.Valid([]byte(prefs)) {
		return nil, p.fail(invalidInput("preferences must be valid JSON"))
	}

	text, err := p.stageAndExtract(up)
	if err != nil {
		return nil, p.fail(classify(StageExtraction, err))
	}
	log := p.log.With(map[string]interface{}{"file": up.Filename, "email": up.Email})

	start := time.Now()
	reply, err := p.recommender.Recommend(ctx, assessment.BuildPrompt(text, prefs))
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.LLMRequestDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, p.fail(classify(StageRecommendation, err))
	}
	metrics.ObserveStage(string(StageRecommendation), "ok")

	a, err := assessment.Normalize(reply)
	if err != nil {
		log.Warn("model reply rejected", map[string]interface{}{"reply_chars": len(reply), "cause": err})
		return nil, p.fail(classify(StageParsing, err))
	}
	metrics.ObserveStage(string(StageParsing), "ok")

	if p.store != nil {
		scores := make([]database.CareerScore, 0, len(a.CareerPaths))
		for _, career := range a.CareerPaths {
			scores = append(scores, database.CareerScore{CareerPath: career, Score: a.Breakdown[career].WeightedScore})
		}
		if _, err := p.store.SaveAssessment(ctx, up.Name, up.Email, text, scores); err != nil {
			return nil, p.fail(classify(StagePersistence, err))
		}
		metrics.ObserveStage(string(StagePersistence), "ok")
	}

	log.Info("resume analyzed", map[string]interface{}{
		"careers":         len(a.CareerPaths),
		"readiness_score": a.ReadinessScore,
	})
	return assessment.NewResponse(up.Name, up.Email, up.Filename, a), nil
}

// Score runs extraction and the rule-based scorer without calling the model.
func (p *Pipeline) Score(ctx context.Context, up Upload) (*LocalScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, p.fail(classify(StageInput, err))
	}
	text, err := p.stageAndExtract(up)
	if err != nil {
		return nil, p.fail(classify(StageExtraction, err))
	}
	facts := scoring.ParseFacts(text)
	return &LocalScore{
		ResumeFile:     up.Filename,
		ReadinessScore: scoring.Score(facts),
		Facts:          facts,
	}, nil
}

// CheckFormat rejects a filename whose extension has no extractor, before
// any bytes are fetched for it.
func CheckFormat(filename string) error {
	if _, err := extract.FormatFromFilename(filename); err != nil {
		return classify(StageInput, err)
	}
	return nil
}

// stageAndExtract writes the upload to a temporary file in the upload dir,
// extracts its text and removes the file on every path.
func (p *Pipeline) stageAndExtract(up Upload) (string, error) {
	format, err := extract.FormatFromFilename(up.Filename)
	if err != nil {
		return "", classify(StageInput, err)
	}
	if up.Body == nil {
		return "", invalidInput("file is required")
	}

	if err := os.MkdirAll(p.uploadDir, 0o755); err != nil {
		return "", classify(StageExtraction, fmt.Errorf("%w: upload dir: %w", extract.ErrExtractionFailed, err))
	}
	f, err := os.CreateTemp(p.uploadDir, "resume-*"+strings.ToLower(filepath.Ext(up.Filename)))
	if err != nil {
		return "", classify(StageExtraction, fmt.Errorf("%w: staging upload: %w", extract.ErrExtractionFailed, err))
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.log.Warn("failed to remove staged upload", map[string]interface{}{"path": path, "cause": err})
		}
	}()

	_, copyErr := io.Copy(f, up.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return "", invalidInput("reading upload: %v", copyErr)
	}
	if closeErr != nil {
		return "", classify(StageExtraction, fmt.Errorf("%w: staging upload: %w", extract.ErrExtractionFailed, closeErr))
	}

	text, err := p.extractor.ExtractFile(path, format)
	if err != nil {
		return "", classify(StageExtraction, err)
	}
	metrics.ObserveStage(string(StageExtraction), "ok")
	return text, nil
}

func (p *Pipeline) fail(se *StageError) *StageError {
	metrics.ObserveStage(string(se.Stage), string(se.Code))
	p.log.WithError(se.Err).Error("resume pipeline failed", map[string]interface{}{
		"stage": se.Stage,
		"code":  se.Code,
	})
	return se
}
