package extract

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIOCRConfig configures the vision-based OCR engine.
type OpenAIOCRConfig struct {
	APIKey string
	Model  string
	Logger zerolog.Logger
}

// OpenAIOCR recognises document text through an OpenAI vision completion.
type OpenAIOCR struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewOpenAIOCR builds the OCR engine.
func NewOpenAIOCR(cfg OpenAIOCRConfig) (*OpenAIOCR, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIOCR{
		client: openai.NewClientWithConfig(openai.DefaultConfig(cfg.APIKey)),
		model:  model,
		logger: cfg.Logger.With().Str("component", "openai_ocr").Logger(),
	}, nil
}

// Recognize transcribes all readable text from the image, preserving line order.
func (o *OpenAIOCR) Recognize(ctx context.Context, mime string, data []byte) (string, error) {
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a document transcription engine. Return only the text visible in the document, line by line, with no commentary.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: "Transcribe every line of text in this document."},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailHigh}},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai ocr: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai ocr: empty response")
	}

	return resp.Choices[0].Message.Content, nil
}
