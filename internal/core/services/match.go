package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure MatchService implements the interface.
var _ driving.MatchService = (*MatchService)(nil)

// ContentReader reads the extracted text of a stored document.
type ContentReader interface {
	Get(ctx context.Context, documentID string) (*domain.Document, error)
	GetContent(ctx context.Context, documentID string) (string, error)
}

// MatchService ranks candidate profiles against a requirements document.
type MatchService struct {
	reader  ContentReader
	matcher *SkillMatcher
}

// NewMatchService creates a match service. A nil matcher uses the default
// skill vocabulary.
func NewMatchService(reader ContentReader, matcher *SkillMatcher) *MatchService {
	if matcher == nil {
		matcher = NewSkillMatcher()
	}
	return &MatchService{
		reader:  reader,
		matcher: matcher,
	}
}

// MatchTexts ranks profiles against sowText without touching storage.
func (s *MatchService) MatchTexts(profiles []domain.Profile, sowText string) []domain.MatchResult {
	return s.matcher.Match(profiles, sowText)
}

// MatchProfilesToSOW reads the SOW and every profile from the document
// catalogue and ranks the profiles. A SOW that cannot be read fails the
// call; unreadable profiles are skipped and listed in the report warnings.
func (s *MatchService) MatchProfilesToSOW(
	ctx context.Context, profileIDs []string, sowID string,
) (*domain.MatchReport, error) {
	logger.Section("Profile Matching")

	sowID = strings.TrimSpace(sowID)
	if sowID == "" {
		return nil, fmt.Errorf("%w: sow id is required", domain.ErrInvalidInput)
	}
	if len(profileIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one profile id is required", domain.ErrInvalidInput)
	}
	if s.reader == nil {
		return nil, domain.ErrNotImplemented
	}

	sowText, err := s.reader.GetContent(ctx, sowID)
	if err != nil {
		return nil, fmt.Errorf("read sow %s: %w", sowID, err)
	}
	requirements := s.matcher.ExtractSkills(sowText)
	logger.Debug("SOW %s requirements: %v", sowID, requirements)

	report := &domain.MatchReport{Requirements: requirements}

	profiles := make([]domain.Profile, 0, len(profileIDs))
	for _, id := range profileIDs {
		text, err := s.reader.GetContent(ctx, id)
		if err != nil {
			logger.Warn("Skipping profile %s: %v", id, err)
			report.Warnings = append(report.Warnings, fmt.Sprintf("error reading profile %s: %v", id, err))
			continue
		}

		name := id
		if doc, err := s.reader.Get(ctx, id); err == nil && doc.Name != "" {
			name = doc.Name
		}
		profiles = append(profiles, domain.Profile{Name: name, Text: text})
	}

	report.Matches = s.matcher.MatchRequirements(profiles, requirements)
	logger.Debug("Ranked %d profiles against %d requirements", len(report.Matches), len(requirements))

	return report, nil
}
