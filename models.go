package main

import (
	"time"

	"github.com/google/uuid"

	"github.com/muhammadolammi/careerwise/internal/config"
	"github.com/muhammadolammi/careerwise/internal/logger"
	"github.com/muhammadolammi/careerwise/internal/pipeline"
)

type WorkerConfig struct {
	Pipeline *pipeline.Pipeline
	R2Bucket string
	Objects  ObjectGetter
	Updates  UpdatePublisher
	RabbitMQ config.RabbitMQConfig
	Logger   logger.Logger
}

// UploadMessage is published by the upload service once a resume is in R2.
type UploadMessage struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Filename    string    `json:"filename"`
	ObjectKey   string    `json:"object_key"`
	Preferences string    `json:"preferences"`
}

// UploadUpdate is published to the update exchange as an upload moves
// through the worker.
type UploadUpdate struct {
	UploadID  uuid.UUID   `json:"upload_id"`
	Status    string      `json:"status"`
	Message   string      `json:"message"`
	Stage     string      `json:"stage,omitempty"`
	Code      string      `json:"code,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
	Result    interface{} `json:"result,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
