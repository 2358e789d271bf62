package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/muhammadolammi/careerwise/internal/assessment"
	"github.com/muhammadolammi/careerwise/internal/database"
	"github.com/muhammadolammi/careerwise/internal/logger"
)

type mockRecommender struct {
	mock.Mock
}

func (m *mockRecommender) Recommend(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveAssessment(ctx context.Context, name, email, resumeText string, scores []database.CareerScore) (database.User, error) {
	args := m.Called(ctx, name, email, resumeText, scores)
	return args.Get(0).(database.User), args.Error(1)
}

const resumeText = "Jane Doe\nSkills: Go, SQL\nExperience\nBackend engineer at Acme\n"

const modelReply = "```json\n" + `{
  "career_paths": ["Backend Engineer"],
  "readiness_score": 81,
  "readiness_breakdown": {"Backend Engineer": {
    "Skills": {"points": 85, "advice": "Add Kubernetes"},
    "Education": {"points": 70, "advice": ""},
    "Experience": {"points": 75, "advice": "Lead a project"},
    "Weighted_score": 78,
    "Skills_gap": ["Kubernetes"]
  }},
  "ATS_score": 66,
  "feedback": "Good start",
  "recommended_skills": {"Backend Engineer": ["Kubernetes"]}
}` + "\n```"

func newTestPipeline(t *testing.T, rec Recommender, store Store) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	p, err := New(Options{
		Recommender: rec,
		Store:       store,
		UploadDir:   dir,
		Logger:      logger.NewTest(t),
	})
	require.NoError(t, err)
	return p, dir
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged uploads must be removed")
}

func upload(filename, body string) Upload {
	return Upload{
		Name:        "Jane",
		Email:       "jane@example.com",
		Filename:    filename,
		Preferences: `{"remote": true}`,
		Body:        strings.NewReader(body),
	}
}

func TestNew_RequiresRecommenderAndDir(t *testing.T) {
	_, err := New(Options{UploadDir: t.TempDir()})
	assert.Error(t, err)
	_, err = New(Options{Recommender: &mockRecommender{}})
	assert.Error(t, err)
}

func TestAnalyze_Success(t *testing.T) {
	rec := &mockRecommender{}
	store := &mockStore{}
	rec.On("Recommend", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, resumeText) && strings.Contains(prompt, `{"remote": true}`)
	})).Return(modelReply, nil).Once()
	store.On("SaveAssessment", mock.Anything, "Jane", "jane@example.com", resumeText,
		[]database.CareerScore{{CareerPath: "Backend Engineer", Score: 78}},
	).Return(database.User{Email: "jane@example.com"}, nil).Once()

	p, dir := newTestPipeline(t, rec, store)
	resp, err := p.Analyze(context.Background(), upload("CV.TXT", resumeText))
	require.NoError(t, err)

	assert.Equal(t, "CV.TXT", resp.ResumeFile)
	assert.Equal(t, 81.0, resp.ReadinessScore)
	assert.Equal(t, "Good start", resp.ReadinessFeedback)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, 78.0, resp.Recommendations[0].Score)
	assert.Equal(t, []string{"Kubernetes"}, resp.Recommendations[0].Details.SkillsGap)
	assert.Equal(t, []string{}, resp.Recommendations[0].RecommendedCourses)

	rec.AssertExpectations(t)
	store.AssertExpectations(t)
	assertDirEmpty(t, dir)
}

func TestAnalyze_WithoutStore(t *testing.T) {
	rec := &mockRecommender{}
	rec.On("Recommend", mock.Anything, mock.Anything).Return(modelReply, nil)

	p, dir := newTestPipeline(t, rec, nil)
	resp, err := p.Analyze(context.Background(), upload("cv.txt", resumeText))
	require.NoError(t, err)
	assert.Equal(t, "Jane", resp.Name)
	assertDirEmpty(t, dir)
}

func TestAnalyze_BlankPreferencesDefault(t *testing.T) {
	rec := &mockRecommender{}
	rec.On("Recommend", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "User preferences (if any):\n{}\n")
	})).Return(modelReply, nil).Once()

	p, _ := newTestPipeline(t, rec, nil)
	up := upload("cv.txt", resumeText)
	up.Preferences = ""
	_, err := p.Analyze(context.Background(), up)
	require.NoError(t, err)
	rec.AssertExpectations(t)
}

func TestAnalyze_StageErrors(t *testing.T) {
	tests := []struct {
		name      string
		upload    Upload
		reply     string
		replyErr  error
		storeErr  error
		wantStage Stage
		wantCode  ErrorCode
		wantIs    error
	}{
		{
			name:      "unsupported format",
			upload:    upload("cv.docx", resumeText),
			wantStage: StageInput,
			wantCode:  ErrCodeUnsupportedFormat,
		},
		{
			name:      "missing email",
			upload:    Upload{Name: "Jane", Filename: "cv.txt", Body: strings.NewReader(resumeText)},
			wantStage: StageInput,
			wantCode:  ErrCodeInvalidInput,
			wantIs:    ErrInvalidInput,
		},
		{
			name:      "bad preferences",
			upload:    Upload{Name: "Jane", Email: "j@x.io", Filename: "cv.txt", Preferences: "{remote", Body: strings.NewReader(resumeText)},
			wantStage: StageInput,
			wantCode:  ErrCodeInvalidInput,
		},
		{
			name:      "empty text file",
			upload:    upload("cv.txt", "   \n"),
			wantStage: StageExtraction,
			wantCode:  ErrCodeExtractionFailed,
		},
		{
			name:      "unreadable pdf",
			upload:    upload("cv.pdf", "definitely not a pdf"),
			wantStage: StageExtraction,
			wantCode:  ErrCodeExtractionFailed,
		},
		{
			name:      "read error",
			upload:    Upload{Name: "Jane", Email: "j@x.io", Filename: "cv.txt", Body: iotest.ErrReader(errors.New("client went away"))},
			wantStage: StageInput,
			wantCode:  ErrCodeInvalidInput,
		},
		{
			name:      "model error",
			upload:    upload("cv.txt", resumeText),
			replyErr:  errors.New("quota exceeded"),
			wantStage: StageRecommendation,
			wantCode:  ErrCodeLLMFailed,
		},
		{
			name:      "no json",
			upload:    upload("cv.txt", resumeText),
			reply:     "I cannot help with that.",
			wantStage: StageParsing,
			wantCode:  ErrCodeNoJSONFound,
			wantIs:    assessment.ErrNoJSONFound,
		},
		{
			name:      "malformed json",
			upload:    upload("cv.txt", resumeText),
			reply:     `{"career_paths": [`,
			wantStage: StageParsing,
			wantCode:  ErrCodeMalformedJSON,
			wantIs:    assessment.ErrMalformedJSON,
		},
		{
			name:      "store error",
			upload:    upload("cv.txt", resumeText),
			reply:     modelReply,
			storeErr:  errors.New("db down"),
			wantStage: StagePersistence,
			wantCode:  ErrCodePersistenceFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mockRecommender{}
			rec.On("Recommend", mock.Anything, mock.Anything).Return(tt.reply, tt.replyErr).Maybe()
			store := &mockStore{}
			store.On("SaveAssessment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(database.User{}, tt.storeErr).Maybe()

			p, dir := newTestPipeline(t, rec, store)
			resp, err := p.Analyze(context.Background(), tt.upload)
			require.Error(t, err)
			assert.Nil(t, resp)

			var se *StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantStage, se.Stage)
			assert.Equal(t, tt.wantCode, se.Code)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			assertDirEmpty(t, dir)
		})
	}
}

func TestAnalyze_ParsingFailureSkipsStore(t *testing.T) {
	rec := &mockRecommender{}
	rec.On("Recommend", mock.Anything, mock.Anything).Return("{not json", nil)
	store := &mockStore{}

	p, _ := newTestPipeline(t, rec, store)
	_, err := p.Analyze(context.Background(), upload("cv.txt", resumeText))
	require.Error(t, err)
	store.AssertNotCalled(t, "SaveAssessment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestScore_Local(t *testing.T) {
	p, dir := newTestPipeline(t, &mockRecommender{}, nil)

	got, err := p.Score(context.Background(), upload("resume.txt", resumeText))
	require.NoError(t, err)
	assert.Equal(t, "resume.txt", got.ResumeFile)
	assert.Equal(t, []string{"Go", "SQL"}, got.Facts.Skills)
	assert.Equal(t, []string{"Backend engineer at Acme"}, got.Facts.Experience)
	// 5*2 + 2*1
	assert.Equal(t, 12.0, got.ReadinessScore)
	assertDirEmpty(t, dir)
}

func TestScore_UnsupportedFormat(t *testing.T) {
	p, dir := newTestPipeline(t, &mockRecommender{}, nil)
	_, err := p.Score(context.Background(), upload("resume.rtf", "x"))

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeUnsupportedFormat, se.Code)
	assertDirEmpty(t, dir)
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, CheckFormat("cv.PDF"))
	assert.NoError(t, CheckFormat("notes.txt"))

	err := CheckFormat("cv.docx")
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageInput, se.Stage)
	assert.Equal(t, ErrCodeUnsupportedFormat, se.Code)
}

func TestClassify_KeepsExistingStageError(t *testing.T) {
	orig := &StageError{Stage: StageParsing, Code: ErrCodeMalformedJSON, Err: errors.New("x")}
	assert.Same(t, orig, classify(StageExtraction, orig))
}
