package order

import (
	"context"
	"fmt"
	"time"

	"github.com/warimas/backoffice/internal/apperr"
)

const (
	// maxYearOffset is the last year that still maps onto a letter (Z).
	maxYearOffset  = 'Z' - 'A'
	sequenceDigits = 6
	maxSequence    = 999999
)

// NumberSequence is what the generator needs from storage.
type NumberSequence interface {
	LockNumbering(ctx context.Context, teamID int64) error
	// LastSequence returns the highest sequence among the team's numbers of
	// the form <prefix><6 digits>, soft-deleted orders included, or 0.
	LastSequence(ctx context.Context, teamID int64, prefix string) (int, error)
}

// NumberGenerator builds order numbers of the form
// <year letter><team id, 3 digits><sequence, 6 digits>, e.g. A007000012.
type NumberGenerator struct {
	launchYear int
	now        func() time.Time
}

func NewNumberGenerator(launchYear int, now func() time.Time) *NumberGenerator {
	if now == nil {
		now = time.Now
	}
	return &NumberGenerator{launchYear: launchYear, now: now}
}

// Prefix returns the year letter and padded team id for the current year.
func (g *NumberGenerator) Prefix(teamID int64) (string, error) {
	offset := g.now().Year() - g.launchYear
	if offset < 0 || offset > maxYearOffset {
		return "", apperr.Invalid(fmt.Sprintf(
			"order numbering supports years %d to %d", g.launchYear, g.launchYear+maxYearOffset))
	}
	return fmt.Sprintf("%c%03d", 'A'+offset, teamID), nil
}

// Next must run inside the order transaction: the advisory lock it takes is
// held until commit, so concurrent creates for one team see each other's rows.
// The sequence follows the highest one in use, so a hand-entered number in
// the generated format is skipped over rather than collided with.
func (g *NumberGenerator) Next(ctx context.Context, seq NumberSequence, teamID int64) (string, error) {
	prefix, err := g.Prefix(teamID)
	if err != nil {
		return "", err
	}
	if err := seq.LockNumbering(ctx, teamID); err != nil {
		return "", err
	}
	n, err := seq.LastSequence(ctx, teamID, prefix)
	if err != nil {
		return "", err
	}
	if n >= maxSequence {
		return "", apperr.Invalid(fmt.Sprintf("order numbers for %s are exhausted", prefix))
	}
	return fmt.Sprintf("%s%0*d", prefix, sequenceDigits, n+1), nil
}
