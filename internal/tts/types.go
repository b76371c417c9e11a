// Package tts is the anti-corruption layer between longwave and the
// third-party speech-synthesis API. All outbound calls go through Client,
// which enforces circuit breaking, retries with exponential backoff, and
// error mapping; the API key never appears in errors or logs.
package tts

// SynthesizeRequest is the upstream synthesis request body.
type SynthesizeRequest struct {
	Input       SynthesisInput `json:"input"`
	Voice       VoiceSelection `json:"voice"`
	AudioConfig AudioConfig    `json:"audioConfig"`
}

// SynthesisInput carries the speech markup to voice.
type SynthesisInput struct {
	SSML string `json:"ssml"`
}

// VoiceSelection names the upstream voice.
type VoiceSelection struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
}

// AudioConfig selects the output container.
type AudioConfig struct {
	AudioEncoding   string `json:"audioEncoding"`
	SampleRateHertz int    `json:"sampleRateHertz,omitempty"`
}

// SynthesizeResponse is the upstream success body. AudioContent is
// base64-encoded audio in the requested encoding.
type SynthesizeResponse struct {
	AudioContent string      `json:"audioContent"`
	AudioConfig  AudioConfig `json:"audioConfig"`
}

// upstreamError is the error envelope some upstreams return; only the
// message survives into our own (redacted) error details.
type upstreamError struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
