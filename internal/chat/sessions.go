// Package chat builds session summaries for the history screens out of the
// stored user messages.
package chat

import (
	"sort"
	"unicode/utf8"

	"github.com/iliyamo/voltride-support/internal/model"
)

// PreviewLength is the number of characters shown before the ellipsis.
const PreviewLength = 60

// Preview shortens s to PreviewLength runes, appending "..." when cut.
func Preview(s string) string {
	if utf8.RuneCountInString(s) <= PreviewLength {
		return s
	}
	r := []rune(s)
	return string(r[:PreviewLength]) + "..."
}

// GroupSessions folds user messages into one summary per session and user.
// The earliest message of a session becomes its first message and timestamp.
// Sessions are returned newest first.  withUser controls whether the owning
// user id is filled in, which only the console needs.
func GroupSessions(msgs []model.ChatMessage, withUser bool) []model.ChatSession {
	byID := make(map[string]*model.ChatSession)
	order := make([]string, 0)
	for _, m := range msgs {
		if m.Type != "" && m.Type != model.MessageUser {
			continue
		}
		key := m.SessionID + "\x00" + m.UserID
		s, ok := byID[key]
		if !ok {
			s = &model.ChatSession{
				SessionID:    m.SessionID,
				FirstMessage: m.Content,
				Preview:      Preview(m.Content),
				CreatedAt:    m.CreatedAt,
			}
			if withUser {
				s.UserID = m.UserID
			}
			byID[key] = s
			order = append(order, key)
		} else if m.CreatedAt.Before(s.CreatedAt) {
			s.FirstMessage = m.Content
			s.Preview = Preview(m.Content)
			s.CreatedAt = m.CreatedAt
		}
		s.MessageCount++
	}
	out := make([]model.ChatSession, 0, len(order))
	for _, key := range order {
		out = append(out, *byID[key])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
