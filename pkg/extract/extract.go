package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// ErrUnsupportedFormat indicates no extraction engine can handle the file.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extractor converts raw file bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// OCREngine recognises text in scanned documents and images.
type OCREngine interface {
	Recognize(ctx context.Context, mime string, data []byte) (string, error)
}

// Service routes file bytes to the right extraction engine: plain-text files
// are decoded directly, PDFs are read locally, and images go through OCR.
type Service struct {
	ocr    OCREngine
	logger zerolog.Logger
}

// New constructs an extraction service. The OCR engine may be nil, in which
// case image uploads are rejected as unsupported.
func New(ocr OCREngine, logger zerolog.Logger) *Service {
	return &Service{
		ocr:    ocr,
		logger: logger.With().Str("component", "extract").Logger(),
	}
}

// Extract returns the plain text content of the file.
func (s *Service) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".txt") {
		return decodeText(data)
	}

	mime := mimetype.Detect(data)
	switch {
	case strings.HasPrefix(mime.String(), "text/"):
		return decodeText(data)
	case mime.Is("application/pdf"):
		text, err := ExtractPDF(data)
		if err != nil {
			return "", fmt.Errorf("extract pdf: %w", err)
		}
		return text, nil
	case strings.HasPrefix(mime.String(), "image/"):
		if s.ocr == nil {
			return "", fmt.Errorf("no ocr engine configured: %w", ErrUnsupportedFormat)
		}
		text, err := s.ocr.Recognize(ctx, mime.String(), data)
		if err != nil {
			return "", fmt.Errorf("ocr: %w", err)
		}
		return text, nil
	default:
		s.logger.Warn().Str("filename", filename).Str("mime", mime.String()).Msg("no extraction engine for file")
		return "", ErrUnsupportedFormat
	}
}

func decodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid utf-8 text")
	}
	return string(data), nil
}
