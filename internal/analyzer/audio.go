package analyzer

import (
	"context"
	"encoding/base64"
	"fmt"
)

const audioTranscriptionPrompt = `You are an expert audio transcriber. Transcribe the provided audio
content faithfully. Mark distinct speakers as Speaker 1, Speaker 2 and
so on, and note timestamps for speaker changes where they can be
inferred. Return only the transcript.`

// AudioAnalyzer transcribes audio artifacts through the inference API.
type AudioAnalyzer struct {
	client *Client
	model  string
}

// NewAudioAnalyzer creates an audio analyzer. An empty model selects
// the default.
func NewAudioAnalyzer(client *Client, model string) *AudioAnalyzer {
	if model == "" {
		model = DefaultAudioModel
	}
	return &AudioAnalyzer{client: client, model: model}
}

// Name implements Analyzer.
func (a *AudioAnalyzer) Name() string { return "audio" }

// Analyze transcribes the audio content.
func (a *AudioAnalyzer) Analyze(ctx context.Context, data []byte, meta Metadata) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty audio content for artifact %s", meta.ArtifactID)
	}

	encoded := base64.StdEncoding.EncodeToString(data)

	messages := []Message{
		{Role: "system", Content: audioTranscriptionPrompt},
		{Role: "user", Content: fmt.Sprintf("Audio (base64, %s): %s", meta.CaptureName, encoded)},
	}

	transcript, err := a.client.ChatCompletion(ctx, a.model, messages)
	if err != nil {
		return "", fmt.Errorf("audio transcription failed for artifact %s: %w", meta.ArtifactID, err)
	}

	return transcript, nil
}
