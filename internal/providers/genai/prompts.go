package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"brandkit/internal/domain"
)

const styleSeedField = "styleSeed"

// DerivePrompts asks the text model for one shared style seed and one prompt
// per platform. An empty or unparsable answer is a permanent error.
func (c *Client) DerivePrompts(ctx context.Context, req domain.DeriveRequest) (domain.VisualPromptSet, error) {
	parts := []geminiPart{{Text: buildConceptText(req)}}
	if part, ok := inlinePart(req.Reference); ok {
		parts = append(parts, part)
	}
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: buildSystemPolicy(req.Locale)}},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.7,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
			ResponseSchema:   promptSetSchema(),
		},
	}

	var resp geminiGenerateContentResponse
	if err := c.invokeGemini(ctx, c.textModel, payload, &resp); err != nil {
		return domain.VisualPromptSet{}, err
	}
	text := extractText(resp)
	if text == "" {
		return domain.VisualPromptSet{}, domain.ErrEmptyResponse
	}
	set, err := parsePromptSet(text)
	if err != nil {
		return domain.VisualPromptSet{}, err
	}

	c.logger.Debug().
		Str("model", c.textModel).
		Str("style_seed", set.StyleSeed).
		Msg("genai: derived platform prompts")
	return set, nil
}

func promptSetSchema() *geminiSchema {
	props := map[string]*geminiSchema{
		styleSeedField: {
			Type:        "STRING",
			Description: "Shared visual style: palette, lighting, medium and mood reused by every platform.",
		},
	}
	required := []string{styleSeedField}
	for _, spec := range domain.Platforms() {
		props[string(spec.Key)] = &geminiSchema{
			Type:        "STRING",
			Description: fmt.Sprintf("Image prompt for %s (%s).", spec.Label, spec.AspectRatio),
		}
		required = append(required, string(spec.Key))
	}
	return &geminiSchema{Type: "OBJECT", Properties: props, Required: required}
}

func buildSystemPolicy(locale string) string {
	sb := &strings.Builder{}
	sb.WriteString("You are an art director producing a consistent social media visual kit. ")
	sb.WriteString("First decide one style seed (palette, lighting, medium, mood) and apply it to every prompt so the assets read as one campaign. ")
	sb.WriteString("Then write one detailed image prompt per platform that follows its composition rule:\n")
	for _, spec := range domain.Platforms() {
		fmt.Fprintf(sb, "- %s (%s, aspect %s): %s\n", spec.Key, spec.Label, spec.AspectRatio, spec.SafeZone)
	}
	sb.WriteString("Never place text, logos or key details inside the reserved areas. ")
	fmt.Fprintf(sb, "If the image should contain any words, write them in %s. ", languageName(locale))
	sb.WriteString("Respond strictly with JSON matching the response schema.")
	return sb.String()
}

func buildConceptText(req domain.DeriveRequest) string {
	concept := strings.TrimSpace(req.Context)
	switch {
	case concept != "" && !req.Reference.IsZero():
		return "Marketing concept: " + concept + "\nUse the attached reference image as the visual anchor for subject and style."
	case concept != "":
		return "Marketing concept: " + concept
	default:
		return "Derive the marketing concept from the attached reference image and keep its subject and style."
	}
}

func languageName(locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || tag == language.Und {
		return "English"
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return "English"
}

func extractText(resp geminiGenerateContentResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

func parsePromptSet(raw string) (domain.VisualPromptSet, error) {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return domain.VisualPromptSet{}, domain.ErrEmptyResponse
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return domain.VisualPromptSet{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	set := domain.VisualPromptSet{
		StyleSeed: stringField(fields, styleSeedField),
		Prompts:   make(map[domain.PlatformKey]string, len(domain.PlatformKeys())),
	}
	for _, key := range domain.PlatformKeys() {
		if v := stringField(fields, string(key)); v != "" {
			set.Prompts[key] = v
		}
	}
	return set, nil
}

func stringField(fields map[string]any, key string) string {
	v, ok := fields[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func extractJSONFragment(raw string) string {
	text := trimCodeFence(strings.TrimSpace(raw))
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	return strings.TrimSuffix(strings.TrimSpace(text), "```")
}
