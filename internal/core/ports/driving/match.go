package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// MatchService ranks candidate profiles against a statement of work.
type MatchService interface {
	// MatchProfilesToSOW reads uploaded documents by id and ranks the profiles.
	// Unreadable profiles are skipped and reported as warnings.
	MatchProfilesToSOW(ctx context.Context, profileIDs []string, sowID string) (*domain.MatchReport, error)

	// MatchTexts ranks already-read profiles against requirements text.
	MatchTexts(profiles []domain.Profile, sowText string) []domain.MatchResult
}
