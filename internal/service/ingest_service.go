package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/opengrade/opengrade-api/internal/dto"
	"github.com/opengrade/opengrade-api/internal/models"
	"github.com/opengrade/opengrade-api/internal/observability"
	"github.com/opengrade/opengrade-api/internal/repository"
	"github.com/opengrade/opengrade-api/pkg/extract"
)

// FileStorage abstracts the blob store holding the raw uploads.
type FileStorage interface {
	Put(ctx context.Context, path string, reader io.Reader) (string, error)
}

// IngestService deduplicates uploads by content fingerprint and extracts
// their text. A file whose bytes were seen before resolves to the stored
// record without touching the blob store or the extraction service.
type IngestService interface {
	Ingest(ctx context.Context, file *multipart.FileHeader, meta dto.UploadRequest) (dto.UploadResponse, error)
}

type ingestService struct {
	storage   FileStorage
	extractor extract.Extractor
	repo      repository.SubmissionRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewIngestService constructs the ingestion service.
func NewIngestService(storage FileStorage, extractor extract.Extractor, repo repository.SubmissionRepository, validate *validator.Validate, logger zerolog.Logger) IngestService {
	return &ingestService{
		storage:   storage,
		extractor: extractor,
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "ingest_service").Logger(),
		tracer:    otel.Tracer("github.com/opengrade/opengrade-api/internal/service/ingest"),
	}
}

func (s *ingestService) Ingest(ctx context.Context, file *multipart.FileHeader, meta dto.UploadRequest) (dto.UploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.upload")
	defer span.End()

	if err := s.validator.Struct(meta); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.UploadResponse{}, err
	}

	if file == nil {
		err := errors.New("file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.UploadResponse{}, err
	}

	span.SetAttributes(
		attribute.String("ingest.filename", file.Filename),
		attribute.String("ingest.user_type", meta.UserType),
		attribute.String("ingest.homework", meta.Homework),
	)

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.UploadResponse{}, err
	}
	defer handle.Close()

	data, err := io.ReadAll(handle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.UploadResponse{}, err
	}

	fingerprint := Fingerprint(data)
	span.SetAttributes(attribute.String("ingest.fingerprint", fingerprint))

	existing, err := s.repo.FindByFingerprint(ctx, fingerprint)
	if err == nil {
		observability.DedupHits().Inc()
		span.SetAttributes(attribute.Bool("ingest.dedup_hit", true))
		s.logger.Debug().Str("fingerprint", fingerprint).Msg("upload resolved from existing record")
		return dto.UploadResponse{Text: existing.Text}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fingerprint lookup failed")
		return dto.UploadResponse{}, err
	}

	url, err := s.storage.Put(ctx, blobPath(meta, file.Filename), bytes.NewReader(data))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.UploadResponse{}, fmt.Errorf("store blob: %w", err)
	}

	text, err := s.extractor.Extract(ctx, file.Filename, data)
	if err != nil {
		observability.Extractions().WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return dto.UploadResponse{}, err
	}
	observability.Extractions().WithLabelValues("ok").Inc()

	record := models.SubmissionRecord{
		Fingerprint: fingerprint,
		Text:        text,
		Filename:    file.Filename,
		Username:    meta.Username,
		UserType:    meta.UserType,
		Homework:    meta.Homework,
		BlobURL:     url,
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.UploadResponse{}, err
	}

	observability.Uploads().WithLabelValues(meta.UserType).Inc()
	span.SetStatus(codes.Ok, "stored")

	return dto.UploadResponse{Text: text}, nil
}

// blobPath derives the storage path for a raw upload: teacher task files
// live under a fixed "task" segment, student files under the username.
func blobPath(meta dto.UploadRequest, filename string) string {
	segment := meta.Username
	if meta.UserType == models.UserTypeTeacher {
		segment = "task"
	}
	return meta.Homework + "/" + segment + "/" + filename
}
