package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
)

func TestNewValidation(t *testing.T) {
	err := apperr.NewValidation("field is required")

	if err.Error() != "field is required" {
		t.Errorf("expected 'field is required', got %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("expected nil unwrap, got %v", err.Unwrap())
	}
}

func TestNewValidationWrap(t *testing.T) {
	inner := fmt.Errorf("parse failed")
	err := apperr.NewValidationWrap("invalid url", inner)

	if err.Error() != "invalid url: parse failed" {
		t.Errorf("expected 'invalid url: parse failed', got %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestValidationError_SurvivesFmtWrapping(t *testing.T) {
	original := apperr.NewValidation("title is required")

	wrapped := fmt.Errorf("normalize item: %w", original)
	doubleWrapped := fmt.Errorf("ingest: %w", wrapped)

	var ve *apperr.ValidationError
	if !errors.As(doubleWrapped, &ve) {
		t.Fatal("errors.As should find ValidationError through double wrapping")
	}
	if ve.Message != "title is required" {
		t.Errorf("expected 'title is required', got %q", ve.Message)
	}
}

func TestValidationError_NotFoundForPlainErrors(t *testing.T) {
	plain := fmt.Errorf("database connection failed")
	wrapped := fmt.Errorf("storage error: %w", plain)

	var ve *apperr.ValidationError
	if errors.As(wrapped, &ve) {
		t.Fatal("errors.As should NOT find ValidationError in plain error chain")
	}
}

func TestNotFoundError_Message(t *testing.T) {
	err := fmt.Errorf("get article: %w", apperr.NewNotFound("article", "42"))

	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatal("errors.As should find NotFoundError")
	}
	if nf.Error() != `article "42" not found` {
		t.Errorf("unexpected message %q", nf.Error())
	}
}

func TestConfigError_Message(t *testing.T) {
	err := apperr.NewConfig("NEWS_API_KEY", "not set")

	if err.Error() != "configuration error: NEWS_API_KEY: not set" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
