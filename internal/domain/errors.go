package domain

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnknownPlatform       = errors.New("unknown platform")
	ErrEmptyResponse         = errors.New("empty backend response")
	ErrMalformedResponse     = errors.New("malformed backend response")
	ErrNoImageContent        = errors.New("backend returned no image content")
	ErrMissingPlatformPrompt = errors.New("missing platform prompt")
	ErrRunInProgress         = errors.New("generation run in progress")
	ErrPlatformBusy          = errors.New("platform render in progress")
	ErrNothingToBundle       = errors.New("no successful assets to bundle")
)

// User-facing messages stored on AssetState. Backend detail is only logged.
const (
	MsgAnalysisFailed   = "Concept analysis failed. Please try again."
	MsgGenerationFailed = "Image generation failed. Try regenerating."
	MsgCancelled        = "Generation cancelled."
)
