package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"longwave/internal/tts"
	"longwave/internal/types"
)

// maxSSMLLength is the upper bound on markup length a caller may submit.
// A full report renders well under 1000 characters; anything near the
// limit is abuse, not broadcast traffic.
const maxSSMLLength = 5000

// synthesizeRequest is the /synthesize request body. Voice and audioConfig
// are optional; the configured defaults fill the gaps.
type synthesizeRequest struct {
	Input struct {
		SSML string `json:"ssml"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode" validate:"omitempty,bcp47_language_tag"`
		Name         string `json:"name" validate:"omitempty,max=64"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding   string `json:"audioEncoding" validate:"omitempty,oneof=MP3 OGG_OPUS LINEAR16"`
		SampleRateHertz int    `json:"sampleRateHertz" validate:"omitempty,min=8000,max=48000"`
	} `json:"audioConfig"`
}

// synthesizeResponse is the /synthesize success body.
type synthesizeResponse struct {
	AudioContent string          `json:"audioContent"`
	AudioConfig  tts.AudioConfig `json:"audioConfig"`
}

// HandleSynthesize accepts speech markup, validates it, and returns
// base64-encoded audio from the cache or the upstream API. The API key
// never leaves this process; callers only ever see the finished audio.
func (s *Server) HandleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}

	if err := s.validateSynthesizeRequest(&req); err != nil {
		Error(w, r, err)
		return
	}

	upstreamReq := s.buildUpstreamRequest(&req)

	var resp *tts.SynthesizeResponse
	var hit bool
	var err error
	if s.Cache != nil {
		resp, hit, err = s.Cache.GetOrFill(r.Context(), upstreamReq, func(ctx context.Context) (*tts.SynthesizeResponse, error) {
			return s.TTS.Synthesize(ctx, upstreamReq)
		})
	} else {
		resp, err = s.TTS.Synthesize(r.Context(), upstreamReq)
	}
	if err != nil {
		s.Logger.Error("synthesis failed",
			slog.String("request_id", types.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		Error(w, r, err)
		return
	}

	if s.Metrics != nil {
		s.Metrics.RecordCacheLookup(hit)
	}
	if s.Telemetry != nil {
		s.Telemetry.Publish(r.Context(), types.UsageEvent{
			Type:       types.UsageSynthesis,
			ClientIP:   types.GetClientIP(r.Context()),
			RequestID:  types.GetRequestID(r.Context()),
			SSMLBytes:  len(req.Input.SSML),
			CacheHit:   hit,
			OccurredAt: time.Now().UTC(),
		})
	}

	JSON(w, r, http.StatusOK, synthesizeResponse{
		AudioContent: resp.AudioContent,
		AudioConfig:  resp.AudioConfig,
	})
}

// validateSynthesizeRequest applies the markup rules on top of the struct
// tag validation: non-empty, bounded length, and rooted at a speak element
// so the upstream never sees arbitrary markup fragments.
func (s *Server) validateSynthesizeRequest(req *synthesizeRequest) error {
	ssml := strings.TrimSpace(req.Input.SSML)
	switch {
	case ssml == "":
		return types.NewAppError(types.ErrCodeValidationMissingSSML, "input.ssml is required", nil)
	case len(ssml) > maxSSMLLength:
		return types.NewAppError(types.ErrCodeValidationSSMLTooLong, "input.ssml must not exceed 5000 characters", nil)
	case !strings.HasPrefix(ssml, "<speak>") || !strings.HasSuffix(ssml, "</speak>"):
		return types.NewAppError(types.ErrCodeValidationSSMLMalformed, "input.ssml must be a single <speak> document", nil)
	}

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			if strings.Contains(verrs[0].Namespace(), ".AudioConfig.") {
				return types.NewAppError(types.ErrCodeValidationInvalidAudio,
					"audioConfig."+verrs[0].Field()+" is invalid", err)
			}
			return types.NewAppError(types.ErrCodeValidationInvalidVoice,
				"voice."+verrs[0].Field()+" is invalid", err)
		}
		return types.NewAppError(types.ErrCodeValidationInvalidVoice, "voice selection is invalid", err)
	}

	return nil
}

// buildUpstreamRequest merges the caller's overrides with the configured
// voice defaults.
func (s *Server) buildUpstreamRequest(req *synthesizeRequest) tts.SynthesizeRequest {
	ttsCfg := s.Config.TTS

	out := tts.SynthesizeRequest{
		Input: tts.SynthesisInput{SSML: strings.TrimSpace(req.Input.SSML)},
		Voice: tts.VoiceSelection{
			LanguageCode: ttsCfg.VoiceLanguage,
			Name:         ttsCfg.VoiceName,
		},
		AudioConfig: tts.AudioConfig{
			AudioEncoding:   ttsCfg.AudioEncoding,
			SampleRateHertz: ttsCfg.SampleRateHertz,
		},
	}

	if req.Voice.LanguageCode != "" {
		out.Voice.LanguageCode = req.Voice.LanguageCode
	}
	if req.Voice.Name != "" {
		out.Voice.Name = req.Voice.Name
	}
	if req.AudioConfig.AudioEncoding != "" {
		out.AudioConfig.AudioEncoding = req.AudioConfig.AudioEncoding
	}
	if req.AudioConfig.SampleRateHertz != 0 {
		out.AudioConfig.SampleRateHertz = req.AudioConfig.SampleRateHertz
	}

	return out
}

// HandleHealthz reports liveness. Mounted outside the origin and rate
// limit checks so load balancers can probe it.
func (s *Server) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.Config.Service,
	})
}
