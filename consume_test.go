package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadolammi/careerwise/internal/assessment"
	"github.com/muhammadolammi/careerwise/internal/logger"
	"github.com/muhammadolammi/careerwise/internal/pipeline"
)

type fakeObjects struct {
	objects map[string]string
	fails   int
	calls   int
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	if f.calls <= f.fails {
		return nil, errors.New("connection reset by peer")
	}
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []UploadUpdate
}

func (r *recordingPublisher) Publish(update UploadUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update)
	return nil
}

func newTestWorker(t *testing.T, rec pipeline.Recommender, objects *fakeObjects) (*WorkerConfig, *recordingPublisher) {
	t.Helper()
	p, err := pipeline.New(pipeline.Options{Recommender: rec, UploadDir: t.TempDir(), Logger: logger.NewTest(t)})
	require.NoError(t, err)
	pub := &recordingPublisher{}
	return &WorkerConfig{
		Pipeline: p,
		R2Bucket: "resumes",
		Objects:  objects,
		Updates:  pub,
		Logger:   logger.NewTest(t),
	}, pub
}

func TestHandleMessage_Completed(t *testing.T) {
	objects := &fakeObjects{objects: map[string]string{"uploads/cv.txt": "Jane Doe\nSkills: Go"}, fails: 1}
	wc, pub := newTestWorker(t, &fakeRecommender{reply: testReply}, objects)
	id := uuid.New()

	wc.handleMessage(context.Background(), 0, []byte(`{"id":"`+id.String()+`","name":"Jane","email":"jane@example.com",
		"filename":"cv.txt","object_key":"uploads/cv.txt","preferences":"{}"}`))

	require.Len(t, pub.updates, 2)
	assert.Equal(t, statusProcessing, pub.updates[0].Status)
	assert.Equal(t, id, pub.updates[0].UploadID)

	done := pub.updates[1]
	assert.Equal(t, statusCompleted, done.Status)
	resp, ok := done.Result.(*assessment.Response)
	require.True(t, ok)
	assert.Equal(t, "cv.txt", resp.ResumeFile)
	assert.Equal(t, 2, objects.calls)
}

func TestHandleMessage_PipelineFailure(t *testing.T) {
	objects := &fakeObjects{objects: map[string]string{"k": "some resume"}}
	wc, pub := newTestWorker(t, &fakeRecommender{reply: "no json here"}, objects)

	wc.handleMessage(context.Background(), 1, []byte(`{"id":"`+uuid.NewString()+`","name":"Jane","email":"j@x.io","filename":"cv.txt","object_key":"k"}`))

	require.Len(t, pub.updates, 2)
	failed := pub.updates[1]
	assert.Equal(t, statusFailed, failed.Status)
	assert.Equal(t, "parsing", failed.Stage)
	assert.Equal(t, "NO_JSON_FOUND", failed.Code)
	assert.Nil(t, failed.Result)
}

func TestHandleMessage_DownloadFailure(t *testing.T) {
	objects := &fakeObjects{objects: map[string]string{}}
	wc, pub := newTestWorker(t, &fakeRecommender{reply: testReply}, objects)

	wc.handleMessage(context.Background(), 0, []byte(`{"id":"`+uuid.NewString()+`","name":"J","email":"j@x.io","filename":"cv.pdf","object_key":"missing"}`))

	require.Len(t, pub.updates, 2)
	assert.Equal(t, statusFailed, pub.updates[1].Status)
	assert.Equal(t, stageDownload, pub.updates[1].Stage)
	assert.Equal(t, codeDownload, pub.updates[1].Code)
	assert.Equal(t, 3, objects.calls)
}

func TestHandleMessage_UnsupportedFormatSkipsDownload(t *testing.T) {
	objects := &fakeObjects{objects: map[string]string{"uploads/cv.docx": "binary"}}
	wc, pub := newTestWorker(t, &fakeRecommender{reply: testReply}, objects)

	wc.handleMessage(context.Background(), 0, []byte(`{"id":"`+uuid.NewString()+`","name":"J","email":"j@x.io","filename":"cv.docx","object_key":"uploads/cv.docx"}`))

	require.Len(t, pub.updates, 2)
	assert.Equal(t, statusFailed, pub.updates[1].Status)
	assert.Equal(t, "input", pub.updates[1].Stage)
	assert.Equal(t, "UNSUPPORTED_FORMAT", pub.updates[1].Code)
	assert.False(t, pub.updates[1].Retryable)
	assert.Zero(t, objects.calls)
}

func TestHandleMessage_BadJSON(t *testing.T) {
	objects := &fakeObjects{}
	wc, pub := newTestWorker(t, &fakeRecommender{}, objects)

	wc.handleMessage(context.Background(), 0, []byte(`not json`))

	require.Len(t, pub.updates, 1)
	assert.Equal(t, statusFailed, pub.updates[0].Status)
	assert.Equal(t, "INVALID_INPUT", pub.updates[0].Code)
	assert.Zero(t, objects.calls)
}

func TestRetry(t *testing.T) {
	calls := 0
	got, err := retry(context.Background(), 3, func() (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, calls)
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := retry(ctx, 5, func() (string, error) {
		calls++
		return "", errors.New("down")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestUpdateRoutingKey(t *testing.T) {
	assert.Equal(t, "upload.abc", updateRoutingKey("abc"))
}
