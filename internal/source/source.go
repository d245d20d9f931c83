// Package source retrieves rule-block and template files from a rule pack,
// either a GitHub repository or local directories.
package source

import (
	"context"
	"errors"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

// File suffixes of the two file families of a rule pack.
const (
	RuleblockSuffix = ".prb"
	TemplateSuffix  = ".txt"
)

// ErrNotFound is wrapped by errors for files or directories that do not
// exist. Fetches failing with it are not retried.
var ErrNotFound = errors.New("not found")

// Source lists and fetches rule-pack files.
type Source interface {
	// ListRuleblocks returns the rule-block files, sorted by name.
	ListRuleblocks(ctx context.Context) ([]catalog.FileInfo, error)

	// ListTemplates returns the template files, sorted by name.
	ListTemplates(ctx context.Context) ([]catalog.FileInfo, error)

	// Fetch returns the full text of file.
	Fetch(ctx context.Context, file catalog.FileInfo) (string, error)
}
