package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"brandkit/internal/domain"
	"brandkit/internal/infra"
)

var syntheticPalettes = []string{
	"warm amber and charcoal, soft studio light",
	"sage green and kraft brown, diffuse daylight",
	"cobalt blue and crisp white, high-key editorial",
	"terracotta and cream, golden hour glow",
	"midnight navy and neon teal, moody rim light",
}

// Synthetic is an offline backend producing deterministic prompt sets and
// placeholder PNGs shaped like the requested aspect ratio. It is used when
// no Gemini key is configured so the pipeline runs end to end locally.
type Synthetic struct {
	logger *infra.Logger
}

func NewSynthetic(logger *infra.Logger) *Synthetic {
	return &Synthetic{logger: infra.OrDiscard(logger)}
}

// Name identifies the backend in run history.
func (s *Synthetic) Name() string { return "synthetic" }

func (s *Synthetic) DerivePrompts(ctx context.Context, req domain.DeriveRequest) (domain.VisualPromptSet, error) {
	if err := ctx.Err(); err != nil {
		return domain.VisualPromptSet{}, err
	}
	concept := strings.TrimSpace(req.Context)
	if concept == "" {
		concept = "reference product"
	}
	refDigest := ""
	if !req.Reference.IsZero() {
		refDigest = deterministicSeed(req.Reference.Data)
	}
	seed := deterministicSeed(concept, req.Locale, refDigest)
	palette := syntheticPalettes[int(seed[0])%len(syntheticPalettes)]
	headline := cases.Title(localeTag(req.Locale)).String(concept)

	set := domain.VisualPromptSet{
		StyleSeed: fmt.Sprintf("%s #%s", palette, seed[:6]),
		Prompts:   make(map[domain.PlatformKey]string, len(domain.PlatformKeys())),
	}
	for _, spec := range domain.Platforms() {
		set.Prompts[spec.Key] = fmt.Sprintf("%s for %s. Style: %s. %s", headline, spec.Label, palette, spec.SafeZone)
	}

	s.logger.Debug().
		Str("style_seed", set.StyleSeed).
		Msg("genai: derived synthetic prompts")
	return set, nil
}

func (s *Synthetic) RenderImage(ctx context.Context, req domain.RenderRequest) (domain.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return domain.EncodedImage{}, err
	}
	width, height := normalizeAspect(req.AspectRatio)
	seed := deterministicSeed(req.Platform, req.Prompt, req.AspectRatio)
	data := renderSyntheticImage(width, height, seed)
	if len(data) == 0 {
		return domain.EncodedImage{}, domain.ErrNoImageContent
	}

	s.logger.Debug().
		Str("platform", string(req.Platform)).
		Int("width", width).
		Int("height", height).
		Msg("genai: rendered synthetic image")
	return domain.EncodedImage{MimeType: "image/png", Data: data}, nil
}

func localeTag(locale string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return language.English
	}
	return tag
}

func renderSyntheticImage(width, height int, seed string) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	stripeHeight := max(8, height/12)
	for y := 0; y < height; y += stripeHeight * 2 {
		stripe := image.Rect(0, y, width, min(height, y+stripeHeight))
		draw.Draw(img, stripe, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	diagonal := colorFromSeed(seed, 2)
	for x := 0; x < max(width, height); x += max(16, width/32) {
		for y := 0; y < height; y++ {
			xx := x + y
			if xx >= width {
				break
			}
			img.Set(xx, y, diagonal)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if len(seed) < 6 {
		seed = "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{
		R: parseHexByte(segment[0:2]),
		G: parseHexByte(segment[2:4]),
		B: parseHexByte(segment[4:6]),
		A: 255,
	}
}

func parseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(hasher, "%v", part)
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

// normalizeAspect returns placeholder dimensions. They are kept small; only
// the shape matters offline.
func normalizeAspect(aspect domain.AspectRatio) (int, int) {
	switch aspect {
	case domain.AspectWide:
		return 480, 270
	case domain.AspectSquare:
		return 320, 320
	default:
		parts := strings.Split(string(aspect), ":")
		if len(parts) == 2 {
			a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
			b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
			if errA == nil && errB == nil && a > 0 && b > 0 {
				return 320, 320 * b / a
			}
		}
		return 320, 320
	}
}
