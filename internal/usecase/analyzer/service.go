package analyzer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-autopilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-autopilot/pkg/config"
)

// LanguageModel is the language-understanding capability boundary. The core
// depends only on this contract, not on a specific model or its envelope.
type LanguageModel interface {
	Extract(ctx context.Context, transcript string) (string, error)
}

// Service turns a raw transcript into a MeetingAnalysis
type Service struct {
	model  LanguageModel
	parser *Parser
	cfg    *config.AnalyzerConfig
	logger *zap.Logger
}

// NewService constructs a new analyzer service
func NewService(model LanguageModel, cfg *config.AnalyzerConfig, logger *zap.Logger) *Service {
	return &Service{
		model:  model,
		parser: NewParser(),
		cfg:    cfg,
		logger: logger,
	}
}

// Analyze runs the language model over the transcript and validates the
// result. It returns either a fully populated MeetingAnalysis or an
// *entities.AnalysisError — never a partial result.
func (s *Service) Analyze(ctx context.Context, transcript string) (*entities.MeetingAnalysis, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, entities.NewAnalysisError(entities.AnalysisParseFailed, entities.ErrEmptyTranscript)
	}

	// Reject oversized input before paying for a remote call doomed to fail
	if s.cfg != nil && s.cfg.MaxTranscriptChars > 0 && len(transcript) > s.cfg.MaxTranscriptChars {
		return nil, entities.NewAnalysisError(entities.AnalysisInputTooLarge,
			fmt.Errorf("transcript is %d chars, limit is %d", len(transcript), s.cfg.MaxTranscriptChars))
	}

	if s.logger != nil {
		s.logger.Info("analyzing transcript",
			zap.Int("transcript_chars", len(transcript)),
		)
	}

	raw, err := s.model.Extract(ctx, transcript)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("language model call failed", zap.Error(err))
		}
		return nil, entities.NewAnalysisError(entities.AnalysisRemoteFailed, err)
	}

	analysis, err := s.parser.ParseAnalysis(raw)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to parse model response",
				zap.Error(err),
				zap.String("raw_response", truncate(raw, 500)),
			)
		}
		return nil, entities.NewAnalysisError(entities.AnalysisParseFailed, err)
	}

	if s.logger != nil {
		s.logger.Info("transcript analyzed",
			zap.Int("decisions", len(analysis.Decisions)),
			zap.Int("action_items", len(analysis.ActionItems)),
		)
	}

	return analysis, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
