package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

// Local reads a rule pack checked out on disk.
type Local struct {
	RuleblockDir string
	TemplateDir  string
}

// NewLocal creates a source over the given directories.
func NewLocal(ruleblockDir, templateDir string) *Local {
	return &Local{RuleblockDir: ruleblockDir, TemplateDir: templateDir}
}

func (l *Local) ListRuleblocks(ctx context.Context) ([]catalog.FileInfo, error) {
	return listLocal(ctx, l.RuleblockDir, RuleblockSuffix)
}

func (l *Local) ListTemplates(ctx context.Context) ([]catalog.FileInfo, error) {
	return listLocal(ctx, l.TemplateDir, TemplateSuffix)
}

func listLocal(ctx context.Context, dir, suffix string) ([]catalog.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("list %s: %w", dir, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []catalog.FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, catalog.FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
			Type: "file",
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (l *Local) Fetch(ctx context.Context, file catalog.FileInfo) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(file.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read %s: %w", file.Path, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file.Path, err)
	}
	return string(data), nil
}
