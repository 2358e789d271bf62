package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/muhammadolammi/careerwise/internal/assessment"
	"github.com/muhammadolammi/careerwise/internal/metrics"
	"github.com/muhammadolammi/careerwise/internal/pipeline"
)

const (
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"

	stageDownload = "download"
	codeDownload  = "DOWNLOAD_FAILED"
)

// retry retries a function up to `attempts` times with a linear backoff,
// giving up early when ctx is done.
func retry[T any](ctx context.Context, attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		wait := time.Duration(500*(i+1)) * time.Millisecond
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// processUpload downloads the resume and runs it through the pipeline. Only
// the download is retried; the model call is not.
func (workerConfig *WorkerConfig) processUpload(ctx context.Context, msg UploadMessage) (*assessment.Response, error) {
	if err := pipeline.CheckFormat(msg.Filename); err != nil {
		return nil, err
	}

	fileBytes, err := retry(ctx, 3, func() ([]byte, error) {
		return DownloadFromR2(ctx, workerConfig.Objects, workerConfig.R2Bucket, msg.ObjectKey)
	})
	if err != nil {
		return nil, fmt.Errorf("file download error: %w", err)
	}

	return workerConfig.Pipeline.Analyze(ctx, pipeline.Upload{
		Name:        msg.Name,
		Email:       msg.Email,
		Filename:    msg.Filename,
		Preferences: msg.Preferences,
		Body:        bytes.NewReader(fileBytes),
	})
}

func (workerConfig *WorkerConfig) publish(update UploadUpdate) {
	update.Timestamp = time.Now()
	if err := workerConfig.Updates.Publish(update); err != nil {
		workerConfig.Logger.WithError(err).Warn("failed to publish update", map[string]interface{}{
			"upload_id": update.UploadID,
			"status":    update.Status,
		})
	}
}

func failedUpdate(msg UploadMessage, err error) UploadUpdate {
	update := UploadUpdate{
		UploadID: msg.ID,
		Status:   statusFailed,
		Message:  "analysis failed",
		Stage:    stageDownload,
		Code:     codeDownload,
	}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		update.Stage = string(se.Stage)
		update.Code = string(se.Code)
		update.Retryable = se.Retryable
		update.Message = se.Err.Error()
	}
	return update
}

func (workerConfig *WorkerConfig) handleMessage(ctx context.Context, workerID int, body []byte) {
	log := workerConfig.Logger.With(map[string]interface{}{"worker": workerID + 1})

	msg := UploadMessage{}
	if err := json.Unmarshal(body, &msg); err != nil {
		log.WithError(err).Error("error unmarshalling message body", nil)
		metrics.QueueMessages.WithLabelValues(statusFailed).Inc()
		workerConfig.publish(UploadUpdate{
			UploadID: msg.ID,
			Status:   statusFailed,
			Message:  "invalid upload message",
			Stage:    string(pipeline.StageInput),
			Code:     string(pipeline.ErrCodeInvalidInput),
		})
		return
	}

	log = log.With(map[string]interface{}{"upload_id": msg.ID, "object_key": msg.ObjectKey})
	log.Info("processing upload", nil)
	workerConfig.publish(UploadUpdate{
		UploadID: msg.ID,
		Status:   statusProcessing,
		Message:  "analysis started",
	})

	resp, err := workerConfig.processUpload(ctx, msg)
	if err != nil {
		log.WithError(err).Error("error analyzing upload", nil)
		metrics.QueueMessages.WithLabelValues(statusFailed).Inc()
		workerConfig.publish(failedUpdate(msg, err))
		return
	}

	metrics.QueueMessages.WithLabelValues(statusCompleted).Inc()
	workerConfig.publish(UploadUpdate{
		UploadID: msg.ID,
		Status:   statusCompleted,
		Message:  "analysis completed",
		Result:   resp,
	})
}

func worker(ctx context.Context, id int, workerConfig *WorkerConfig, wg *sync.WaitGroup) {
	defer wg.Done()
	log := workerConfig.Logger.With(map[string]interface{}{"worker": id + 1})

	//    to consume message on the queue
	conn, err := amqp.Dial(workerConfig.RabbitMQ.URL)
	if err != nil {
		log.WithError(err).Error("error dialling rabbitmq", nil)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Error("error connecting to rabbitmq channel", nil)
		return
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		workerConfig.RabbitMQ.Queue, // queue name
		true,                        // durable (survives broker restarts)
		false,                       // auto-delete when unused
		false,                       // exclusive
		false,                       // no-wait
		nil,                         // arguments
	)
	if err != nil {
		log.WithError(err).Error("failed to declare queue", nil)
		return
	}

	msgs, err := ch.Consume(
		workerConfig.RabbitMQ.Queue, // queue name
		"",                          // consumer tag
		true,                        // auto-ack
		false,                       // exclusive
		false,                       // no-local
		false,                       // no-wait
		nil,                         // arguments
	)
	if err != nil {
		log.WithError(err).Error("error consuming rabbitmq message", nil)
		return
	}

	log.Info("worker started", nil)
	for {
		select {
		case <-ctx.Done():
			log.Info("worker stopping", nil)
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed", nil)
				return
			}
			workerConfig.handleMessage(ctx, id, msg.Body)
		}
	}
}

// StartConsumerWorkerPool blocks until every worker has returned.
func (workerConfig *WorkerConfig) StartConsumerWorkerPool(ctx context.Context, numWorkers int) {
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := range numWorkers {
		go worker(ctx, i, workerConfig, &wg)
	}
	wg.Wait()
}
