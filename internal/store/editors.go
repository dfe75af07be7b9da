package store

import (
	"encoding/json"
	"time"
)

// maxEditors bounds the editor history kept on each entity.
const maxEditors = 20

// pushEditor records user as the newest editor. Consecutive edits by the same
// user collapse into one entry carrying the latest time.
func pushEditor(history []EditorEntry, user *User, at time.Time) []EditorEntry {
	if user == nil || user.ID == 0 {
		return history
	}
	entry := EditorEntry{UserID: user.ID, Username: user.Username, At: at.UTC()}
	if len(history) > 0 && history[0].UserID == user.ID {
		out := make([]EditorEntry, len(history))
		copy(out, history)
		out[0] = entry
		return out
	}
	out := make([]EditorEntry, 0, min(len(history)+1, maxEditors))
	out = append(out, entry)
	for _, existing := range history {
		if len(out) == maxEditors {
			break
		}
		out = append(out, existing)
	}
	return out
}

func encodeEditors(history []EditorEntry) (string, error) {
	if len(history) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(history)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeEditors(raw string) []EditorEntry {
	if raw == "" {
		return nil
	}
	var history []EditorEntry
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil
	}
	return history
}

// touch stamps the shared bookkeeping fields for a save by user.
func (t *Timestamps) touch(user *User, now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if user != nil && user.ID != 0 {
		id := user.ID
		t.UpdatedBy = &id
	}
	t.Editors = pushEditor(t.Editors, user, now)
}

func userID(user *User) *int64 {
	if user == nil || user.ID == 0 {
		return nil
	}
	id := user.ID
	return &id
}
