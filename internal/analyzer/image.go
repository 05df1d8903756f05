package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
)

const imageAnalysisPrompt = `You are an expert at describing screen captures and photos taken
during work sessions. Describe what the image shows: visible
applications, text content, UI state, and anything a teammate would
need to understand the moment it captures. Return only the analysis.`

// maxImageDimension bounds the longer edge before upload; vision
// models reject or silently downsample oversized inputs.
const maxImageDimension = 2048

// ImageAnalyzer describes image and screenshot artifacts through the
// inference API's vision input.
type ImageAnalyzer struct {
	client *Client
	model  string
}

// NewImageAnalyzer creates an image analyzer. An empty model selects
// the default.
func NewImageAnalyzer(client *Client, model string) *ImageAnalyzer {
	if model == "" {
		model = DefaultImageModel
	}
	return &ImageAnalyzer{client: client, model: model}
}

// Name implements Analyzer.
func (a *ImageAnalyzer) Name() string { return "image" }

// Analyze describes the image content.
func (a *ImageAnalyzer) Analyze(ctx context.Context, data []byte, meta Metadata) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image content for artifact %s", meta.ArtifactID)
	}

	prepared, err := prepareImage(data)
	if err != nil {
		return "", fmt.Errorf("failed to prepare image for artifact %s: %w", meta.ArtifactID, err)
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(prepared)

	messages := []Message{
		{Role: "system", Content: imageAnalysisPrompt},
		{Role: "user", Content: []interface{}{
			ImagePart{Type: "image_url", ImageURL: ImageURL{URL: dataURL}},
			TextPart{Type: "text", Text: fmt.Sprintf("Please analyze this capture (%s).", meta.CaptureName)},
		}},
	}

	analysis, err := a.client.ChatCompletion(ctx, a.model, messages)
	if err != nil {
		return "", fmt.Errorf("image analysis failed for artifact %s: %w", meta.ArtifactID, err)
	}

	return analysis, nil
}

// prepareImage decodes, downscales when oversized, and re-encodes as
// JPEG. Undecodable input is passed through untouched so formats the
// imaging library doesn't know still reach the model.
func prepareImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return data, nil
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxImageDimension || bounds.Dy() > maxImageDimension {
		img = imaging.Fit(img, maxImageDimension, maxImageDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
