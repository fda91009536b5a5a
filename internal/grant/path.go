package grant

import (
	"strings"

	"github.com/docuvault/access-management/internal"
)

// RootPrefix is the fixed root every grantable folder path lives under.
const RootPrefix = "/documents/"

// rootPath is RootPrefix with the trailing separator stripped, the stored
// form of a root grant.
const rootPath = "/documents"

var invalidPathChars = []string{"<", ">", ":", "\"", "|", "?", "*"}

// ValidateFolderPath checks the raw path format: root prefix, no hostile
// characters, no surrounding whitespace, no doubled separators. It validates
// the path as given; normalization (trailing-separator strip) happens at
// construction. The bare root in its stored form, without the trailing
// separator, is accepted too.
func ValidateFolderPath(folderPath string) error {
	if folderPath != rootPath && !strings.HasPrefix(folderPath, RootPrefix) {
		return invalidPathError(folderPath)
	}
	for _, ch := range invalidPathChars {
		if strings.Contains(folderPath, ch) {
			return invalidPathError(folderPath)
		}
	}
	if folderPath != strings.TrimSpace(folderPath) {
		return invalidPathError(folderPath)
	}
	if strings.Contains(folderPath, "//") {
		return invalidPathError(folderPath)
	}
	return nil
}

func invalidPathError(folderPath string) *internal.AppError {
	return internal.NewValidationError(
		"invalid folder path format: "+folderPath,
		internal.ErrCodeInvalidFolderPath,
	)
}

// NormalizeFolderPath strips the trailing separator, producing the stored
// form of a path.
func NormalizeFolderPath(folderPath string) string {
	return strings.TrimRight(folderPath, "/")
}

// IsDescendantPath reports whether child lives strictly below ancestor. The
// comparison is segment-aware: /documents/ab is not a descendant of
// /documents/a.
func IsDescendantPath(child, ancestor string) bool {
	child = NormalizeFolderPath(child)
	ancestor = NormalizeFolderPath(ancestor)
	return strings.HasPrefix(child, ancestor+"/")
}

// PathDepth counts the segments below the root. The root itself has depth 0.
func PathDepth(folderPath string) int {
	relative := strings.TrimPrefix(NormalizeFolderPath(folderPath), rootPath)
	relative = strings.TrimPrefix(relative, "/")
	if relative == "" {
		return 0
	}
	return strings.Count(relative, "/") + 1
}

// ParentFolderPath returns the parent of a path, or "" for the root. A
// first-level folder's parent is reported as the root prefix.
func ParentFolderPath(folderPath string) string {
	normalized := NormalizeFolderPath(folderPath)
	if normalized == rootPath || normalized == "" {
		return ""
	}
	parent := normalized[:strings.LastIndex(normalized, "/")]
	if parent == rootPath {
		return RootPrefix
	}
	return parent
}
