package genai

import (
	"context"
	"fmt"
	"strings"

	"brandkit/internal/domain"
)

// RenderImage asks the image model for one picture at the platform's aspect
// ratio. A response without inline image data is a permanent error.
func (c *Client) RenderImage(ctx context.Context, req domain.RenderRequest) (domain.EncodedImage, error) {
	parts := []geminiPart{{Text: buildRenderText(req)}}
	if part, ok := inlinePart(req.Reference); ok {
		parts = append(parts, part)
	}
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        &geminiImageConfig{AspectRatio: string(req.AspectRatio)},
		},
	}

	var resp geminiGenerateContentResponse
	if err := c.invokeGemini(ctx, c.imageModel, payload, &resp); err != nil {
		return domain.EncodedImage{}, err
	}
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if img, ok := decodeInlineImage(part); ok {
				c.logger.Debug().
					Str("model", c.imageModel).
					Str("platform", string(req.Platform)).
					Str("aspect_ratio", string(req.AspectRatio)).
					Int("bytes", len(img.Data)).
					Msg("genai: rendered image")
				return img, nil
			}
		}
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return domain.EncodedImage{}, fmt.Errorf("%w: blocked (%s)", domain.ErrNoImageContent, resp.PromptFeedback.BlockReason)
	}
	return domain.EncodedImage{}, domain.ErrNoImageContent
}

func buildRenderText(req domain.RenderRequest) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.Prompt))
	if spec, ok := domain.LookupPlatform(req.Platform); ok {
		b.WriteString("\nComposition: ")
		b.WriteString(spec.SafeZone)
	}
	if req.AspectRatio != "" {
		b.WriteString("\nAspect ratio: ")
		b.WriteString(string(req.AspectRatio))
	}
	if !req.Reference.IsZero() {
		b.WriteString("\nKeep the subject of the attached reference image recognisable.")
	}
	return b.String()
}
