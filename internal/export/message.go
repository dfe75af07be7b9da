package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rcjk/internal/store"
)

// defaultLookback bounds the updater search when the font has no complete
// previous export window.
const defaultLookback = time.Hour

// ProjectCommitMessage is the message of the final project-wide commit.
const ProjectCommitMessage = "Updated project."

// CommitMessage builds "Updated <font> by: <names>." from the users who
// touched the font since the previous export, or "Updated <font>." when
// nobody did.
func CommitMessage(ctx context.Context, st Store, font *store.Font, prior store.ExportState, now time.Time) (string, error) {
	users, err := st.UpdatersSince(ctx, font.ID, messageCutoff(prior, now))
	if err != nil {
		return "", fmt.Errorf("commit message updaters: %w", err)
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.FullName())
	}
	if len(names) == 0 {
		return fmt.Sprintf("Updated %s.", font.Name), nil
	}
	return fmt.Sprintf("Updated %s by: %s.", font.Name, strings.Join(names, ", ")), nil
}

// messageCutoff is the later bound of the previous export window when both
// bounds exist.
func messageCutoff(prior store.ExportState, now time.Time) time.Time {
	started, completed := prior.ExportStartedAt, prior.ExportCompletedAt
	if started == nil || completed == nil {
		return now.Add(-defaultLookback)
	}
	if started.After(*completed) {
		return *started
	}
	return *completed
}
