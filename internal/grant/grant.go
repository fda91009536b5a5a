// Package grant holds the folder grant entity: an immutable record binding a
// profile to one folder subtree at one permission level, together with the
// path-hierarchy queries and pairwise conflict detection the write path and
// the access resolver build on.
package grant

import (
	"time"

	"github.com/google/uuid"

	grantDatamodel "github.com/docuvault/access-management/internal/core/datamodel/grant"
	"github.com/docuvault/access-management/internal/permission"
)

// FolderGrant is treated as a value: every mutator returns a new copy with
// updated_at refreshed, the receiver is never changed.
type FolderGrant struct {
	ID              uuid.UUID        `json:"id"`
	ProfileID       uuid.UUID        `json:"profile_id"`
	FolderPath      string           `json:"folder_path"`
	PermissionLevel permission.Level `json:"permission_level"`
	OrganizationID  uuid.UUID        `json:"organization_id"`
	CreatedBy       uuid.UUID        `json:"created_by"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       *time.Time       `json:"updated_at,omitempty"`
	IsActive        bool             `json:"is_active"`
	Notes           *string          `json:"notes,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
}

// NewFolderGrant validates the folder path and builds an active grant with
// the trailing separator stripped.
func NewFolderGrant(profileID uuid.UUID, folderPath string, level permission.Level, organizationID, createdBy uuid.UUID, notes *string, metadata map[string]any) (*FolderGrant, error) {
	if err := ValidateFolderPath(folderPath); err != nil {
		return nil, err
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &FolderGrant{
		ID:              uuid.New(),
		ProfileID:       profileID,
		FolderPath:      NormalizeFolderPath(folderPath),
		PermissionLevel: level,
		OrganizationID:  organizationID,
		CreatedBy:       createdBy,
		CreatedAt:       time.Now().UTC(),
		IsActive:        true,
		Notes:           notes,
		Metadata:        metadata,
	}, nil
}

func (g *FolderGrant) clone() *FolderGrant {
	copied := *g
	copied.Metadata = make(map[string]any, len(g.Metadata))
	for k, v := range g.Metadata {
		copied.Metadata[k] = v
	}
	return &copied
}

func (g *FolderGrant) touched() *FolderGrant {
	copied := g.clone()
	now := time.Now().UTC()
	copied.UpdatedAt = &now
	return copied
}

// WithPermissionLevel returns a copy carrying the new level.
func (g *FolderGrant) WithPermissionLevel(level permission.Level) *FolderGrant {
	copied := g.touched()
	copied.PermissionLevel = level
	return copied
}

// WithFolderPath returns a copy pointing at a new folder, or an error when
// the path is malformed.
func (g *FolderGrant) WithFolderPath(folderPath string) (*FolderGrant, error) {
	if err := ValidateFolderPath(folderPath); err != nil {
		return nil, err
	}
	copied := g.touched()
	copied.FolderPath = NormalizeFolderPath(folderPath)
	return copied, nil
}

func (g *FolderGrant) WithNotes(notes string) *FolderGrant {
	copied := g.touched()
	copied.Notes = &notes
	return copied
}

// MergeMetadata returns a copy with the given keys merged over the existing
// metadata. The grant never inspects metadata contents.
func (g *FolderGrant) MergeMetadata(metadata map[string]any) *FolderGrant {
	copied := g.touched()
	for k, v := range metadata {
		copied.Metadata[k] = v
	}
	return copied
}

func (g *FolderGrant) Deactivate() *FolderGrant {
	copied := g.touched()
	copied.IsActive = false
	return copied
}

func (g *FolderGrant) Activate() *FolderGrant {
	copied := g.touched()
	copied.IsActive = true
	return copied
}

// CanAccess reports whether the grant covers a path: the grant's own folder
// or any descendant of it, and only while the grant is active.
func (g *FolderGrant) CanAccess(folderPath string) bool {
	if !g.IsActive {
		return false
	}

	requested := NormalizeFolderPath(folderPath)
	if requested == g.FolderPath {
		return true
	}
	return IsDescendantPath(requested, g.FolderPath)
}

// CanPerform reports whether the grant's level allows an action; inactive
// grants allow nothing.
func (g *FolderGrant) CanPerform(action string) bool {
	return g.IsActive && g.PermissionLevel.CanPerform(action)
}

// AllowedActions returns the level's action set, or nothing when inactive.
func (g *FolderGrant) AllowedActions() []string {
	if !g.IsActive {
		return []string{}
	}
	return g.PermissionLevel.AllowedActions()
}

// ConflictsWith reports whether two grants make resolution ambiguous: both
// active, on the same profile, and targeting the same folder or folders in an
// ancestor/descendant relationship. The levels involved are irrelevant.
func (g *FolderGrant) ConflictsWith(other *FolderGrant) bool {
	if !g.IsActive || !other.IsActive {
		return false
	}
	if g.ProfileID != other.ProfileID {
		return false
	}
	if g.FolderPath == other.FolderPath {
		return true
	}
	return IsDescendantPath(g.FolderPath, other.FolderPath) ||
		IsDescendantPath(other.FolderPath, g.FolderPath)
}

// Depth counts path segments below the root.
func (g *FolderGrant) Depth() int {
	return PathDepth(g.FolderPath)
}

// IsRoot reports whether the grant covers the document root itself.
func (g *FolderGrant) IsRoot() bool {
	return g.FolderPath == rootPath
}

// ParentPath returns the parent folder, or "" for a root grant.
func (g *FolderGrant) ParentPath() string {
	return ParentFolderPath(g.FolderPath)
}

// FolderName returns the last path segment.
func (g *FolderGrant) FolderName() string {
	normalized := NormalizeFolderPath(g.FolderPath)
	idx := len(normalized) - 1
	for idx >= 0 && normalized[idx] != '/' {
		idx--
	}
	return normalized[idx+1:]
}

// Validate re-checks required identifiers and the path format; it is used at
// creation and defensively on read.
func (g *FolderGrant) Validate() (bool, []string) {
	var errs []string

	if g.ProfileID == uuid.Nil {
		errs = append(errs, "profile ID is required")
	}
	if g.OrganizationID == uuid.Nil {
		errs = append(errs, "organization ID is required")
	}
	if g.CreatedBy == uuid.Nil {
		errs = append(errs, "created by is required")
	}

	// A root grant stores the prefix with its separator stripped, so the
	// stored form is re-checked against the root explicitly.
	if g.FolderPath == "" {
		errs = append(errs, "folder path is required")
	} else if g.FolderPath != rootPath {
		if err := ValidateFolderPath(g.FolderPath); err != nil {
			errs = append(errs, "invalid folder path format: "+g.FolderPath)
		}
	}

	if _, err := permission.ParseLevel(string(g.PermissionLevel)); err != nil {
		errs = append(errs, "invalid permission level: "+string(g.PermissionLevel))
	}

	return len(errs) == 0, errs
}

func ToDataModel(g *FolderGrant) *grantDatamodel.FolderGrant {
	return &grantDatamodel.FolderGrant{
		ID:              g.ID,
		ProfileID:       g.ProfileID,
		FolderPath:      g.FolderPath,
		PermissionLevel: string(g.PermissionLevel),
		OrganizationID:  g.OrganizationID,
		CreatedBy:       g.CreatedBy,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
		IsActive:        g.IsActive,
		Notes:           g.Notes,
		Metadata:        grantDatamodel.EncodeMetadata(g.Metadata),
	}
}

func FromDataModel(m *grantDatamodel.FolderGrant) *FolderGrant {
	return &FolderGrant{
		ID:              m.ID,
		ProfileID:       m.ProfileID,
		FolderPath:      m.FolderPath,
		PermissionLevel: permission.Level(m.PermissionLevel),
		OrganizationID:  m.OrganizationID,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		IsActive:        m.IsActive,
		Notes:           m.Notes,
		Metadata:        grantDatamodel.DecodeMetadata(m.Metadata),
	}
}

func FromDataModelSlice(models []*grantDatamodel.FolderGrant) []*FolderGrant {
	result := make([]*FolderGrant, len(models))
	for i, m := range models {
		result[i] = FromDataModel(m)
	}
	return result
}
