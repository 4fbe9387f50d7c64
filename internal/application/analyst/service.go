// Package analyst generates SITREPs from scan results and answers
// follow-up questions grounded in the stored scan artifact.
package analyst

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/SatvikDB/aegis/internal/application"
	"github.com/SatvikDB/aegis/internal/domain/ai"
	domain "github.com/SatvikDB/aegis/internal/domain/detect"
	"github.com/SatvikDB/aegis/internal/domain/sitrep"
	"github.com/SatvikDB/aegis/internal/domain/threat"
	"github.com/SatvikDB/aegis/internal/infra/ai/prompt"
)

// Service holds the LLM client and artifact store. A nil client means
// the analyst is disabled; every operation then reports that instead of
// failing the scan.
type Service struct {
	Client ai.Client
	Store  sitrep.Store
	Clock  application.Clock
	Retain int
}

type SitrepResult struct {
	Success bool   `json:"success"`
	Sitrep  string `json:"sitrep"`
	Model   string `json:"model"`
	Tokens  int    `json:"tokens"`
	Error   string `json:"error,omitempty"`
}

type ChatResult struct {
	Success bool   `json:"success"`
	Answer  string `json:"answer"`
	Tokens  int    `json:"tokens"`
	Error   string `json:"error,omitempty"`
}

// GenerateAndStore builds the detection context, asks the model for a
// SITREP and persists the artifact keyed by scan id. LLM failures are
// reported in the result, never as an error: the scan itself succeeded.
func (s *Service) GenerateAndStore(ctx context.Context, scanID string, detections []domain.Detection, report threat.Report, imageWidth, imageHeight int, inferenceMS float64) SitrepResult {
	detectionContext := prompt.BuildDetectionContext(detections, report, imageWidth, imageHeight, inferenceMS)

	result := SitrepResult{}
	if s.Client == nil {
		result.Error = "AI analyst disabled, no API key configured"
	} else {
		completion, err := s.Client.Generate(ctx, prompt.SystemPrompt,
			prompt.SitrepRequest(detectionContext), nil)
		if err != nil {
			log.Error().Err(err).Str("scan_id", scanID).Msg("sitrep generation failed")
			result.Error = fmt.Sprintf("LLM error: %v", err)
		} else {
			result.Success = true
			result.Sitrep = completion.Text
			result.Model = completion.Model
			result.Tokens = completion.Tokens
			log.Info().Str("scan_id", scanID).Int("tokens", completion.Tokens).Msg("sitrep generated")
		}
	}

	artifact := sitrep.Artifact{
		Timestamp:        s.Clock.Now(),
		DetectionContext: detectionContext,
		Sitrep:           result.Sitrep,
		Model:            result.Model,
		Tokens:           result.Tokens,
	}
	if err := s.Store.Create(ctx, scanID, artifact); err != nil {
		log.Error().Err(err).Str("scan_id", scanID).Msg("storing scan artifact failed")
		return result
	}
	if s.Retain > 0 {
		if err := s.Store.Retain(ctx, s.Retain); err != nil {
			log.Warn().Err(err).Msg("artifact store compaction failed")
		}
	}
	return result
}

// Artifact returns the stored scan artifact, sitrep.ErrNotFound when
// the scan id is unknown.
func (s *Service) Artifact(ctx context.Context, scanID string) (*sitrep.Artifact, error) {
	return s.Store.Get(ctx, scanID)
}

// Chat answers a follow-up question about one scan. The system prompt
// embeds the scan's detection context and SITREP; prior turns come from
// the stored history. Both sides of a successful exchange are appended.
func (s *Service) Chat(ctx context.Context, scanID, userMessage string) (ChatResult, error) {
	if s.Client == nil {
		return ChatResult{Error: "AI analyst disabled, no API key configured"}, nil
	}

	artifact, err := s.Store.Get(ctx, scanID)
	if err != nil {
		return ChatResult{}, err
	}

	history := make([]ai.Message, 0, len(artifact.ChatHistory))
	for _, turn := range artifact.ChatHistory {
		history = append(history, ai.Message{Role: turn.Role, Content: turn.Content})
	}

	system := prompt.ChatSystemPrompt(scanID, artifact.DetectionContext, artifact.Sitrep)
	completion, err := s.Client.Generate(ctx, system, userMessage, history)
	if err != nil {
		return ChatResult{}, err
	}

	if err := s.Store.AppendChatTurn(ctx, scanID, "user", userMessage); err != nil {
		log.Warn().Err(err).Str("scan_id", scanID).Msg("recording user turn failed")
	}
	if err := s.Store.AppendChatTurn(ctx, scanID, "assistant", completion.Text); err != nil {
		log.Warn().Err(err).Str("scan_id", scanID).Msg("recording assistant turn failed")
	}

	return ChatResult{
		Success: true,
		Answer:  completion.Text,
		Tokens:  completion.Tokens,
	}, nil
}
