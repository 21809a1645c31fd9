package domain

// DeriveRequest is the input to prompt derivation.
type DeriveRequest struct {
	Context   string
	Locale    string
	Reference *EncodedImage
}

// RenderRequest is the input to a single image render.
type RenderRequest struct {
	Platform    PlatformKey
	Prompt      string
	AspectRatio AspectRatio
	Reference   *EncodedImage
}
