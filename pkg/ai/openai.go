package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	gradingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "opengrade",
		Subsystem: "ai",
		Name:      "grading_duration_seconds",
		Help:      "Duration of grading completion requests",
	}, []string{"model"})

	gradingFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opengrade",
		Subsystem: "ai",
		Name:      "grading_failures_total",
		Help:      "Number of grading completion failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI grader.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGrader implements Grader against the OpenAI chat completion API.
type OpenAIGrader struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGrader builds a new grader using the provided configuration.
func NewOpenAIGrader(cfg OpenAIConfig) (*OpenAIGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	tracer := otel.Tracer("github.com/opengrade/opengrade-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIGrader{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Grade sends the grading prompt to OpenAI and parses the raw response.
// The completion runs without structured output so the response goes through
// the same repair path regardless of how the model formats its answer.
func (g *OpenAIGrader) Grade(parent context.Context, input GradingInput) (GradingResult, error) {
	ctx, span := g.tracer.Start(parent, "openai.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	if input.Severity == "" {
		input.Severity = DefaultSeverity
	}

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildGradingPrompt(input),
			},
		},
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	gradingDuration.WithLabelValues(g.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingResult{}, fmt.Errorf("openai grade: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingResult{}, err
	}

	raw := resp.Choices[0].Message.Content
	result, err := ParseGradingResponse(raw)
	if err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn().Str("raw", truncate(raw, 512)).Msg("grading response could not be parsed")
		return GradingResult{}, err
	}

	span.SetAttributes(attribute.Float64("grading.grade", result.Grade))

	return result, nil
}

// BuildGradingPrompt composes the fixed-structure grading prompt embedding
// the task description, student answer, severity, and teacher preferences.
func BuildGradingPrompt(input GradingInput) string {
	builder := strings.Builder{}
	builder.WriteString("# CONTEXT #\n")
	builder.WriteString("You are a grading assistant to a teacher. The teacher has to grade many students and you should try to help him. ")
	builder.WriteString("Each grade should be between 0 and 100, where 100 is the perfect answer.\n")
	builder.WriteString("You will receive the task description for the task the students have to solve.\n")
	builder.WriteString("You will receive the student answer.\n")
	builder.WriteString("You will receive the teacher preferences and grading severity.\n\n")

	builder.WriteString("# OBJECTIVE #\n")
	builder.WriteString("Your task is to grade the students. The teacher might provide you with some preferences.\n")
	builder.WriteString("Generally, the most important thing is the answer correctness.\n")
	builder.WriteString("If the teacher provides preferences, then you MUST follow them.\n")
	builder.WriteString("The teacher can also tell you how severe in grading you should be, if you should give out 100 points easily or not. ")
	builder.WriteString("If it wants you to be severe, then you should give 100 points only for the perfect answer.\n\n")

	builder.WriteString("# STYLE #\n")
	builder.WriteString("Write in an informative and instructional style.\n\n")

	builder.WriteString("# TONE #\n")
	builder.WriteString("Maintain a positive and motivational tone throughout, fostering a sense of empowerment and encouragement.\n\n")

	builder.WriteString("# AUDIENCE #\n")
	builder.WriteString("The target audience is students and teachers.\n\n")

	builder.WriteString("# RESPONSE FORMAT #\n")
	builder.WriteString("Please return the grade (a number between 0 and 100) and feedback in JSON format, as a string. ")
	builder.WriteString("I want only 2 fields, grade and feedback. The feedback should be an explanation for the grade.\n\n")

	builder.WriteString("# VARIABLES #\n")
	builder.WriteString("Teacher preferences: ")
	builder.WriteString(input.Preferences)
	builder.WriteString("\n\nGrading severity: ")
	builder.WriteString(input.Severity)
	builder.WriteString("\n\nTask: ")
	builder.WriteString(input.TaskDescription)
	builder.WriteString("\n\nStudent answer: ")
	builder.WriteString(input.StudentText)
	builder.WriteString("\n\n")

	builder.WriteString("# IMPORTANT INSTRUCTIONS #\n")
	builder.WriteString("Make sure to follow the preferences provided by the teacher. They are mandatory and must directly impact the grading.\n\n")
	builder.WriteString("For example, if the teacher specifies:\n")
	builder.WriteString("- \"If the answer is not in Romanian, deduct 20 points\", make sure to apply this rule before grading the accuracy of the content.\n")
	builder.WriteString("- If the teacher states any other preferences, you must follow them exactly.\n\n")
	builder.WriteString("If no preferences are provided or they are empty, proceed with grading based on the correctness and clarity of the answer.\n\n")
	builder.WriteString("YOUR RESPONSE:\n")

	return builder.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
