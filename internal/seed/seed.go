package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"nodetree/internal/domain/models"
	"nodetree/internal/domain/services"
)

//go:embed default.yaml
var defaultTree []byte

// Entry is one node of a seed file. Entries with children are always folders.
type Entry struct {
	Name     string  `yaml:"name"`
	Folder   bool    `yaml:"folder"`
	Children []Entry `yaml:"children"`
}

// IsFolder reports whether the entry becomes a folder
func (e Entry) IsFolder() bool {
	return e.Folder || len(e.Children) > 0
}

// File is the top-level document of a seed file
type File struct {
	Nodes []Entry `yaml:"nodes"`
}

// Default returns the built-in sample tree
func Default() (*File, error) {
	return parse(defaultTree)
}

// Parse reads a seed file
func Parse(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(f.Nodes) == 0 {
		return nil, errors.New("seed file has no nodes")
	}
	return &f, nil
}

// Seeder creates seed trees through the hierarchy manager
type Seeder struct {
	nodeService services.NodeHierarchyManager
	logger      *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(nodeService services.NodeHierarchyManager, logger *slog.Logger) *Seeder {
	return &Seeder{
		nodeService: nodeService,
		logger:      logger,
	}
}

// Apply creates every entry of f depth-first and returns the number of nodes created.
// It stops at the first failure.
func (s *Seeder) Apply(ctx context.Context, f *File) (int, error) {
	return s.create(ctx, f.Nodes, nil, "")
}

func (s *Seeder) create(ctx context.Context, entries []Entry, parentID *uuid.UUID, parentPath string) (int, error) {
	created := 0
	for _, e := range entries {
		path := parentPath + "/" + e.Name

		node, err := s.nodeService.CreateNode(ctx, &models.CreateNodeRequest{
			Name:     e.Name,
			IsFolder: e.IsFolder(),
			ParentID: parentID,
		})
		if err != nil {
			return created, fmt.Errorf("create %s: %w", path, err)
		}
		created++
		s.logger.Debug("seeded node", "path", path, "id", node.ID)

		if len(e.Children) == 0 {
			continue
		}
		n, err := s.create(ctx, e.Children, &node.ID, path)
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}
