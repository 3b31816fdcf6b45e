// Package notify is the hand-off point to the external notification
// delivery service. Delivery is fire-and-forget: a failed notification is
// logged and dropped, never allowed to roll back a match.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emberapp/discovery/internal/db"
)

// MatchNotifier is implemented by the push/bot delivery collaborator.
type MatchNotifier interface {
	NotifyMatch(ctx context.Context, match db.Match, userA, userB uint64) error
}

// LogNotifier records match notifications in the log. Stands in for the
// real delivery gateway in development and tests.
type LogNotifier struct {
	Logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) NotifyMatch(ctx context.Context, match db.Match, userA, userB uint64) error {
	n.Logger.Info("match notification",
		"match", MatchID(match),
		"user_a", userA,
		"user_b", userB,
	)
	return nil
}

// MatchID renders the canonical pair as a stable identifier for callers.
func MatchID(m db.Match) string {
	return fmt.Sprintf("%d-%d", m.UserLowID, m.UserHighID)
}
