package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/opengrade/opengrade-api/internal/dto"
	"github.com/opengrade/opengrade-api/internal/observability"
	"github.com/opengrade/opengrade-api/internal/repository"
	"github.com/opengrade/opengrade-api/pkg/ai"
)

var (
	// ErrNoTeacherTask indicates no teacher uploaded a task description for the homework.
	ErrNoTeacherTask = errors.New("no teacher task found for this homework")
	// ErrNoSubmissions indicates the student has nothing to grade for the homework.
	ErrNoSubmissions = errors.New("no submissions found for this student")
	// ErrUserNotFound indicates the graded user has no account record.
	ErrUserNotFound = errors.New("user not found")
	// ErrHomeworkNotFound indicates the homework is absent from the user's ledger.
	ErrHomeworkNotFound = errors.New("homework not found")
)

// GradingService grades one student's combined submission text against the
// teacher task and records the result in the student's grade ledger.
type GradingService interface {
	Grade(ctx context.Context, payload dto.GradeRequest) (dto.GradeResponse, error)
	UpdateGrade(ctx context.Context, username, homework string, grade float64) error
}

type gradingService struct {
	submissions repository.SubmissionRepository
	users       repository.UserRepository
	grader      ai.Grader
	cache       *redis.Client
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewGradingService constructs the grading service. The cache client may be
// nil; task description lookups then always hit the database.
func NewGradingService(submissions repository.SubmissionRepository, users repository.UserRepository, grader ai.Grader, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		users:       users,
		grader:      grader,
		cache:       cache,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/opengrade/opengrade-api/internal/service/grading"),
	}
}

func (s *gradingService) Grade(ctx context.Context, payload dto.GradeRequest) (dto.GradeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.grade")
	defer span.End()

	span.SetAttributes(
		attribute.String("grading.homework", payload.Homework),
		attribute.String("grading.username", payload.GradedUsername),
	)

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.GradeResponse{}, err
	}

	severity := payload.Severity
	if severity == "" {
		severity = ai.DefaultSeverity
	}

	taskDescription, err := s.taskDescription(ctx, payload.Homework)
	if err != nil {
		observability.Gradings().WithLabelValues("no_task").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "task lookup failed")
		return dto.GradeResponse{}, err
	}

	entries, err := s.submissions.ListStudentEntries(ctx, payload.Homework, payload.GradedUsername)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission lookup failed")
		return dto.GradeResponse{}, err
	}
	if len(entries) == 0 {
		observability.Gradings().WithLabelValues("no_submissions").Inc()
		span.SetStatus(codes.Error, "no submissions")
		return dto.GradeResponse{}, ErrNoSubmissions
	}

	builder := strings.Builder{}
	for _, entry := range entries {
		builder.WriteString("\n")
		builder.WriteString(entry.Text)
	}

	result, err := s.grader.Grade(ctx, ai.GradingInput{
		TaskDescription: taskDescription,
		StudentText:     builder.String(),
		Severity:        severity,
		Preferences:     payload.Preferences,
	})
	if err != nil {
		observability.Gradings().WithLabelValues("model_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading failed")
		return dto.GradeResponse{}, err
	}

	// The grade is trusted as the model returned it; no clamping or range
	// check is applied.
	if err := s.UpdateGrade(ctx, payload.GradedUsername, payload.Homework, result.Grade); err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrHomeworkNotFound) {
			s.logger.Warn().Err(err).
				Str("username", payload.GradedUsername).
				Str("homework", payload.Homework).
				Msg("grade not recorded in ledger")
		} else {
			observability.Gradings().WithLabelValues("ledger_error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "ledger update failed")
			return dto.GradeResponse{}, err
		}
	}

	observability.Gradings().WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Float64("grading.grade", result.Grade))

	return dto.GradeResponse{Grade: result.Grade, Feedback: result.Feedback}, nil
}

// UpdateGrade records the grade on the matching ledger entry. The homework
// must already be present in the user's ledger; enrollment happens elsewhere.
// Concurrent updates against the same user are not serialized, so two
// gradings racing on one ledger can lose one of the writes.
func (s *gradingService) UpdateGrade(ctx context.Context, username, homework string, grade float64) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	entries, err := user.GradeEntries()
	if err != nil {
		return fmt.Errorf("decode ledger: %w", err)
	}

	found := false
	for i := range entries {
		if entries[i].Homework == homework {
			value := grade
			entries[i].Grade = &value
			found = true
			break
		}
	}
	if !found {
		return ErrHomeworkNotFound
	}

	if err := user.SetGradeEntries(entries); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	return s.users.UpdateLedger(ctx, user.ID, user.Ledger)
}

// taskDescription resolves the teacher task text for the homework, consulting
// the cache first. Cache failures are logged and ignored.
func (s *gradingService) taskDescription(ctx context.Context, homework string) (string, error) {
	cacheKey := fmt.Sprintf("task:homework:%s", homework)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			s.logger.Debug().Str("homework", homework).Msg("task description cache hit")
			return cached, nil
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read task description cache")
		}
	}

	task, err := s.submissions.FindTeacherTask(ctx, homework)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoTeacherTask
		}
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, task.Text, s.cacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to store task description cache")
		}
	}

	return task.Text, nil
}
