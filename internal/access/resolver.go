package access

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/docuvault/access-management/internal/assignment"
	"github.com/docuvault/access-management/internal/grant"
	"github.com/docuvault/access-management/internal/permission"
	"github.com/docuvault/access-management/internal/profile"
)

// ProfileGrants is one assignment with the profile it points at and that
// profile's folder grants, the unit the resolver evaluates.
type ProfileGrants struct {
	Assignment *assignment.Assignment
	Profile    *profile.Profile
	Grants     []*grant.FolderGrant
}

// Decision is the outcome of a point-in-time access check.
type Decision struct {
	UserID           uuid.UUID        `json:"user_id"`
	FolderPath       string           `json:"folder_path"`
	Action           string           `json:"action,omitempty"`
	CanAccess        bool             `json:"can_access"`
	PermissionLevel  permission.Level `json:"permission_level,omitempty"`
	AllowedActions   []string         `json:"allowed_actions,omitempty"`
	Reason           string           `json:"reason"`
	MatchingProfiles []string         `json:"matching_profiles,omitempty"`
	MatchingGrantIDs []uuid.UUID      `json:"matching_grant_ids,omitempty"`
	EvaluatedAt      time.Time        `json:"evaluated_at"`
}

// FolderAccess is one folder a user can reach, with the strongest level any
// of their profiles grants there.
type FolderAccess struct {
	FolderPath      string           `json:"folder_path"`
	PermissionLevel permission.Level `json:"permission_level"`
	AllowedActions  []string         `json:"allowed_actions"`
	ViaProfiles     []string         `json:"via_profiles"`
}

// UserContext aggregates everything a user's valid assignments convey.
type UserContext struct {
	UserID      uuid.UUID      `json:"user_id"`
	Profiles    []string       `json:"profiles"`
	Folders     []FolderAccess `json:"folders"`
	Actions     []string       `json:"actions"`
	EvaluatedAt time.Time      `json:"evaluated_at"`
}

// PermissionMatrix is the folder-by-profile grid for an organization.
type PermissionMatrix struct {
	OrganizationID uuid.UUID                    `json:"organization_id"`
	Folders        map[string]map[string]string `json:"folders"`
	LevelCounts    map[string]int               `json:"level_counts"`
	ProfileCount   int                          `json:"profile_count"`
	GeneratedAt    time.Time                    `json:"generated_at"`
}

// Resolver answers access questions from assignment and grant snapshots. It
// holds no state: callers load the data, the resolver only evaluates it.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// usable filters a bundle down to those that currently convey access: the
// assignment must be valid, the profile active.
func usable(bundle ProfileGrants) bool {
	if bundle.Assignment == nil || !bundle.Assignment.IsValid() {
		return false
	}
	if bundle.Profile == nil || !bundle.Profile.IsActive {
		return false
	}
	return true
}

// CheckAccess decides whether the user may reach folderPath, optionally
// requiring a specific action. When several grants cover the folder the
// highest permission level wins; the action check can still flip the
// decision afterwards.
func (r *Resolver) CheckAccess(userID uuid.UUID, folderPath, action string, bundles []ProfileGrants) (*Decision, error) {
	if err := grant.ValidateFolderPath(folderPath); err != nil {
		return nil, err
	}
	normalized := grant.NormalizeFolderPath(folderPath)

	decision := &Decision{
		UserID:      userID,
		FolderPath:  normalized,
		Action:      action,
		EvaluatedAt: time.Now().UTC(),
	}

	var (
		best         *grant.FolderGrant
		profileNames []string
		grantIDs     []uuid.UUID
	)
	seenProfiles := map[string]bool{}

	for _, bundle := range bundles {
		if !usable(bundle) {
			continue
		}
		for _, g := range bundle.Grants {
			if !g.CanAccess(normalized) {
				continue
			}
			grantIDs = append(grantIDs, g.ID)
			if !seenProfiles[bundle.Profile.Name] {
				seenProfiles[bundle.Profile.Name] = true
				profileNames = append(profileNames, bundle.Profile.Name)
			}
			if best == nil || g.PermissionLevel.HigherThan(best.PermissionLevel) {
				best = g
			}
		}
	}

	if best == nil {
		decision.Reason = "no active grant covers this folder"
		return decision, nil
	}

	decision.PermissionLevel = best.PermissionLevel
	decision.AllowedActions = best.AllowedActions()
	decision.MatchingProfiles = profileNames
	decision.MatchingGrantIDs = grantIDs

	if action != "" && !best.PermissionLevel.CanPerform(action) {
		decision.CanAccess = false
		decision.Reason = fmt.Sprintf("%s access does not permit %s", best.PermissionLevel.DisplayName(), action)
		return decision, nil
	}

	decision.CanAccess = true
	if action != "" {
		decision.Reason = fmt.Sprintf("%s access permits %s", best.PermissionLevel.DisplayName(), action)
	} else {
		decision.Reason = fmt.Sprintf("%s access via %d grant(s)", best.PermissionLevel.DisplayName(), len(grantIDs))
	}
	return decision, nil
}

// BuildUserContext aggregates the folders a user's valid assignments grant,
// keyed by the grant's own folder path. Unlike CheckAccess it does not walk
// the hierarchy: each entry is the subtree root the grant names.
func (r *Resolver) BuildUserContext(userID uuid.UUID, bundles []ProfileGrants) *UserContext {
	ctx := &UserContext{
		UserID:      userID,
		Profiles:    []string{},
		Folders:     []FolderAccess{},
		Actions:     []string{},
		EvaluatedAt: time.Now().UTC(),
	}

	byFolder := map[string]*FolderAccess{}
	actionSet := map[string]bool{}
	seenProfiles := map[string]bool{}

	for _, bundle := range bundles {
		if !usable(bundle) {
			continue
		}
		hasActiveGrant := false
		for _, g := range bundle.Grants {
			if !g.IsActive {
				continue
			}
			hasActiveGrant = true

			for _, a := range g.AllowedActions() {
				actionSet[a] = true
			}

			entry, ok := byFolder[g.FolderPath]
			if !ok {
				byFolder[g.FolderPath] = &FolderAccess{
					FolderPath:      g.FolderPath,
					PermissionLevel: g.PermissionLevel,
					AllowedActions:  g.AllowedActions(),
					ViaProfiles:     []string{bundle.Profile.Name},
				}
				continue
			}
			if g.PermissionLevel.HigherThan(entry.PermissionLevel) {
				entry.PermissionLevel = g.PermissionLevel
				entry.AllowedActions = g.AllowedActions()
			}
			entry.ViaProfiles = appendUnique(entry.ViaProfiles, bundle.Profile.Name)
		}
		if hasActiveGrant && !seenProfiles[bundle.Profile.Name] {
			seenProfiles[bundle.Profile.Name] = true
			ctx.Profiles = append(ctx.Profiles, bundle.Profile.Name)
		}
	}

	for _, entry := range byFolder {
		ctx.Folders = append(ctx.Folders, *entry)
	}
	sort.Slice(ctx.Folders, func(i, j int) bool {
		return ctx.Folders[i].FolderPath < ctx.Folders[j].FolderPath
	})

	for a := range actionSet {
		ctx.Actions = append(ctx.Actions, a)
	}
	sort.Strings(ctx.Actions)
	sort.Strings(ctx.Profiles)

	return ctx
}

// ProfileWithGrants pairs a profile with its grants for matrix building,
// independent of any assignment.
type ProfileWithGrants struct {
	Profile *profile.Profile
	Grants  []*grant.FolderGrant
}

// MatrixFilter narrows a matrix build to specific folders or profiles. An
// empty slice leaves that axis unfiltered.
type MatrixFilter struct {
	FolderPaths     []string
	ProfileIDs      []uuid.UUID
	IncludeInactive bool
}

// BuildMatrix renders the folder-by-profile permission grid for an
// organization, plus per-level grant counts. The filter can restrict the
// grid to named folders or profiles.
func (r *Resolver) BuildMatrix(organizationID uuid.UUID, profiles []ProfileWithGrants, filter MatrixFilter) *PermissionMatrix {
	matrix := &PermissionMatrix{
		OrganizationID: organizationID,
		Folders:        map[string]map[string]string{},
		LevelCounts:    map[string]int{},
		GeneratedAt:    time.Now().UTC(),
	}
	for _, level := range permission.AllLevels() {
		matrix.LevelCounts[string(level)] = 0
	}

	wantFolders := map[string]bool{}
	for _, p := range filter.FolderPaths {
		wantFolders[grant.NormalizeFolderPath(p)] = true
	}
	wantProfiles := map[uuid.UUID]bool{}
	for _, id := range filter.ProfileIDs {
		wantProfiles[id] = true
	}

	for _, entry := range profiles {
		if entry.Profile == nil {
			continue
		}
		if !filter.IncludeInactive && !entry.Profile.IsActive {
			continue
		}
		if len(wantProfiles) > 0 && !wantProfiles[entry.Profile.ID] {
			continue
		}
		matrix.ProfileCount++

		for _, g := range entry.Grants {
			if !filter.IncludeInactive && !g.IsActive {
				continue
			}
			if len(wantFolders) > 0 && !wantFolders[g.FolderPath] {
				continue
			}
			row, ok := matrix.Folders[g.FolderPath]
			if !ok {
				row = map[string]string{}
				matrix.Folders[g.FolderPath] = row
			}
			row[entry.Profile.Name] = string(g.PermissionLevel)
			matrix.LevelCounts[string(g.PermissionLevel)]++
		}
	}
	return matrix
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
