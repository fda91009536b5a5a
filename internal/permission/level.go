// Package permission defines the ordered capability tiers a folder grant can
// carry and the action vocabulary each tier allows.
package permission

import (
	"strings"

	"github.com/docuvault/access-management/internal"
)

// Level is an ordered capability tier: Read < Edit < Full.
type Level string

const (
	LevelRead Level = "read"
	LevelEdit Level = "edit"
	LevelFull Level = "full"
)

// ordinals back the strict total order between levels.
var ordinals = map[Level]int{
	LevelRead: 1,
	LevelEdit: 2,
	LevelFull: 3,
}

var displayNames = map[Level]string{
	LevelRead: "Read",
	LevelEdit: "Edit",
	LevelFull: "Full",
}

// allowedActions is the fixed action-set mapping per tier. Tokens use the
// resource:verb form; a resource:* entry acts as a wildcard for that resource.
var allowedActions = map[Level][]string{
	LevelRead: {
		"document:read",
		"document:download",
		"rag:query",
		"ai:query",
	},
	LevelEdit: {
		"document:read",
		"document:download",
		"document:update",
		"document:share",
		"rag:query",
		"ai:query",
	},
	LevelFull: {
		"document:read",
		"document:download",
		"document:create",
		"document:update",
		"document:delete",
		"document:share",
		"document:manage",
		"folder:create",
		"folder:update",
		"folder:delete",
		"rag:query",
		"rag:train",
		"ai:query",
		"ai:train",
	},
}

// ParseLevel builds a Level from a raw string, rejecting unknown values.
func ParseLevel(raw string) (Level, error) {
	level := Level(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := ordinals[level]; !ok {
		return "", internal.NewValidationError(
			"invalid permission level: "+raw,
			internal.ErrCodeInvalidPermissionLevel,
		)
	}
	return level, nil
}

// AllLevels returns the tiers in ascending order.
func AllLevels() []Level {
	return []Level{LevelRead, LevelEdit, LevelFull}
}

func (l Level) String() string {
	return string(l)
}

func (l Level) DisplayName() string {
	if name, ok := displayNames[l]; ok {
		return name
	}
	return string(l)
}

// AllowedActions returns a copy of the action tokens this tier permits.
func (l Level) AllowedActions() []string {
	actions := allowedActions[l]
	out := make([]string, len(actions))
	copy(out, actions)
	return out
}

// CanPerform reports whether the tier allows an action, either by exact match
// or through a resource:* wildcard present in the allowed set.
func (l Level) CanPerform(action string) bool {
	actions := allowedActions[l]
	for _, a := range actions {
		if a == action {
			return true
		}
	}

	if resource, _, ok := strings.Cut(action, ":"); ok {
		wildcard := resource + ":*"
		for _, a := range actions {
			if a == wildcard {
				return true
			}
		}
	}

	return false
}

// HigherThan reports whether l strictly outranks other.
func (l Level) HigherThan(other Level) bool {
	return ordinals[l] > ordinals[other]
}

// LowerThan reports whether l is strictly outranked by other.
func (l Level) LowerThan(other Level) bool {
	return other.HigherThan(l)
}

func (l Level) CanCreateFolders() bool {
	return l == LevelFull
}

func (l Level) CanEditDocuments() bool {
	return l == LevelEdit || l == LevelFull
}

func (l Level) CanReadDocuments() bool {
	_, ok := ordinals[l]
	return ok
}

func (l Level) CanUseRAG() bool {
	_, ok := ordinals[l]
	return ok
}

func (l Level) CanTrainRAG() bool {
	return l == LevelFull
}
