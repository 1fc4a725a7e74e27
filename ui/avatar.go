package ui

import (
	"fmt"
	"log"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"pipetop/engine"
	"pipetop/model"
)

// resolveRowUser picks the identity shown next to a row: the job's own user,
// else the pipeline's triggering user, else nil (caller falls back to the
// group key). Panics on an unknown row type: that is an upstream contract
// violation, not a runtime condition.
func resolveRowUser(r engine.Row) *model.User {
	switch r.Type {
	case engine.RowJob:
		if r.Job.User != nil {
			return r.Job.User
		}
		return r.Pipeline.User
	case engine.RowPipeline:
		return r.Pipeline.User
	default:
		panic(fmt.Sprintf("pipetop: unknown row type %d during user resolution", r.Type))
	}
}

// avatarURL resolves a possibly relative GitLab avatar path into an absolute
// URL. Missing avatar URLs are a data-quality condition and return "";
// needing a base URL and not having one is a programmer error and panics.
func avatarURL(u *model.User, baseURL string) string {
	if u == nil || u.AvatarURL == "" {
		return ""
	}
	raw := u.AvatarURL
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if baseURL == "" {
		panic(fmt.Sprintf("pipetop: relative avatar path %q with no base URL configured", raw))
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(raw, "/")
}

// initials derives a 1-2 rune monogram from a display name or group key.
func initials(name string) string {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '/' || r == '-' || r == '_' || r == '.'
	})
	var out []rune
	for _, f := range fields {
		for _, r := range f {
			out = append(out, unicode.ToUpper(r))
			break
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "??"
	}
	if len(out) == 1 {
		return string(out) + " "
	}
	return string(out)
}

// avatarBadge renders the row's identity as a colored initials badge, the
// terminal stand-in for the circular avatar image, and the graceful fallback
// when no avatar exists at all. The identity chain never fails: worst case
// the group key colors the badge.
func avatarBadge(r engine.Row, p *Palette) (string, lipgloss.Style) {
	u := resolveRowUser(r)
	name := r.GroupID
	if u != nil {
		if u.Name != "" {
			name = u.Name
		} else if u.Username != "" {
			name = u.Username
		} else {
			log.Printf("pipetop: user %d has no display name, falling back to group key", u.ID)
		}
	}
	return initials(name), lipgloss.NewStyle().Foreground(p.User(name)).Bold(true)
}
