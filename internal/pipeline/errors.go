package pipeline

import (
	"errors"
	"fmt"

	"github.com/muhammadolammi/careerwise/internal/assessment"
	"github.com/muhammadolammi/careerwise/internal/extract"
)

// Stage names the pipeline step an error came from.
type Stage string

const (
	StageInput          Stage = "input"
	StageExtraction     Stage = "extraction"
	StageRecommendation Stage = "recommendation"
	StageParsing        Stage = "parsing"
	StagePersistence    Stage = "persistence"
)

// ErrorCode is the machine readable failure reason reported to clients.
type ErrorCode string

const (
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeExtractionFailed  ErrorCode = "EXTRACTION_FAILED"
	ErrCodeLLMFailed         ErrorCode = "LLM_FAILED"
	ErrCodeNoJSONFound       ErrorCode = "NO_JSON_FOUND"
	ErrCodeMalformedJSON     ErrorCode = "MALFORMED_JSON"
	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
)

var ErrInvalidInput = errors.New("invalid input")

type StageError struct {
	Stage     Stage
	Code      ErrorCode
	Retryable bool
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed [%s]: %v", e.Stage, e.Code, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func invalidInput(format string, args ...interface{}) *StageError {
	return &StageError{
		Stage: StageInput,
		Code:  ErrCodeInvalidInput,
		Err:   fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...)),
	}
}

// classify tags err with the stage it happened in. Codes for the
// extraction and parsing stages come from the package sentinels.
func classify(stage Stage, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}

	out := &StageError{Stage: stage, Err: err}
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		out.Stage, out.Code = StageInput, ErrCodeUnsupportedFormat
	case errors.Is(err, extract.ErrExtractionFailed):
		out.Code = ErrCodeExtractionFailed
	case errors.Is(err, assessment.ErrNoJSONFound):
		out.Code = ErrCodeNoJSONFound
	case errors.Is(err, assessment.ErrMalformedJSON):
		out.Code = ErrCodeMalformedJSON
	case stage == StageRecommendation:
		out.Code, out.Retryable = ErrCodeLLMFailed, true
	case stage == StagePersistence:
		out.Code, out.Retryable = ErrCodePersistenceFailed, true
	case stage == StageInput:
		out.Code = ErrCodeInvalidInput
	default:
		out.Code = ErrCodeExtractionFailed
	}
	return out
}
