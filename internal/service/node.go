package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"nodetree/internal/config"
	"nodetree/internal/domain"
	"nodetree/internal/domain/models"
	"nodetree/internal/domain/repositories"
	"nodetree/internal/domain/services"
	"nodetree/internal/observability"
)

// Options tunes the hierarchy manager
type Options struct {
	// ChildrenLookup is config.ChildrenLookupStrict (default) or config.ChildrenLookupLegacy
	ChildrenLookup string
	// AutocompleteLimit lowers the autocomplete cap; values outside
	// 1..config.DefaultAutocompleteLimit use the default
	AutocompleteLimit int
}

// nodeService implements the NodeHierarchyManager interface
type nodeService struct {
	store     repositories.NodeStore
	txManager repositories.TransactionManager
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// NewNodeService creates a new node hierarchy manager
func NewNodeService(
	store repositories.NodeStore,
	txManager repositories.TransactionManager,
	opts Options,
	logger *slog.Logger,
) services.NodeHierarchyManager {
	if opts.ChildrenLookup != config.ChildrenLookupLegacy {
		opts.ChildrenLookup = config.ChildrenLookupStrict
	}
	if opts.AutocompleteLimit <= 0 || opts.AutocompleteLimit > config.DefaultAutocompleteLimit {
		opts.AutocompleteLimit = config.DefaultAutocompleteLimit
	}
	return &nodeService{
		store:     store,
		txManager: txManager,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateNode creates a file or folder.
// A parent, when given, must exist and be a folder.
func (s *nodeService) CreateNode(ctx context.Context, req *models.CreateNodeRequest) (node *models.Node, err error) {
	defer s.track("create")(&err)

	if err := s.validateCreateRequest(req); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("%v: %v", domain.ErrValidation, err)}
	}

	if req.ParentID != nil {
		parent, err := s.store.Get(ctx, *req.ParentID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.InvalidParentError{
				Message:  fmt.Sprintf("parent %s does not exist", *req.ParentID),
				ParentID: req.ParentID.String(),
			}
		}
		if err != nil {
			return nil, s.storeFailure("create node", err)
		}
		if !parent.IsFolder {
			return nil, &domain.InvalidParentError{
				Message:  fmt.Sprintf("parent %s is a file", parent.ID),
				ParentID: parent.ID.String(),
			}
		}
	}

	node = &models.Node{
		ID:        uuid.New(),
		Name:      req.Name,
		IsFolder:  req.IsFolder,
		ParentID:  req.ParentID,
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.Insert(ctx, node); err != nil {
		// The parent can vanish between the check and the insert
		if errors.Is(err, domain.ErrInvalidParent) || errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, s.storeFailure("create node", err)
	}

	s.logger.Info("node created",
		"id", node.ID,
		"name", node.Name,
		"is_folder", node.IsFolder,
		"parent_id", node.ParentID,
	)

	return node, nil
}

// DeleteNode deletes a node and every descendant in one atomic store call.
func (s *nodeService) DeleteNode(ctx context.Context, id uuid.UUID) (deleted bool, err error) {
	// A missing id is not an error for the caller but is observed as not_found
	var observed error
	finish := s.track("delete")
	defer func() { finish(&observed) }()

	var removed int64
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		target, err := s.store.Get(txCtx, id)
		if err != nil {
			return err
		}

		descendants, err := s.collectDescendants(txCtx, id)
		if err != nil {
			return fmt.Errorf("collect descendants: %w", err)
		}

		ids := make([]uuid.UUID, 0, len(descendants)+1)
		ids = append(ids, target.ID)
		for _, d := range descendants {
			ids = append(ids, d.ID)
		}

		removed, err = s.store.Delete(txCtx, ids...)
		if err != nil {
			return err
		}

		s.logger.Info("node deleted",
			"id", target.ID,
			"name", target.Name,
			"descendants", len(descendants),
			"removed", removed,
		)
		return nil
	})

	if errors.Is(err, domain.ErrNotFound) {
		observed = err
		return false, nil
	}
	if err != nil {
		observed = s.storeFailure("delete node", err)
		return false, observed
	}

	observability.NodesDeletedTotal.Add(float64(removed))
	return true, nil
}

// GetNode retrieves a node by ID
func (s *nodeService) GetNode(ctx context.Context, id uuid.UUID) (node *models.Node, err error) {
	defer s.track("get")(&err)

	node, err = s.store.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}
	if err != nil {
		return nil, s.storeFailure("get node", err)
	}
	return node, nil
}

// GetChildren lists the direct children of a folder.
// In legacy mode a folder is only found when it has at least one folder child.
func (s *nodeService) GetChildren(ctx context.Context, parentID uuid.UUID) (children []models.Node, err error) {
	defer s.track("children")(&err)

	notFound := &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", parentID)}

	switch s.opts.ChildrenLookup {
	case config.ChildrenLookupLegacy:
		exists, err := s.store.ExistsFolderWithParent(ctx, parentID)
		if err != nil {
			return nil, s.storeFailure("get children", err)
		}
		if !exists {
			return nil, notFound
		}
	default:
		parent, err := s.store.Get(ctx, parentID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, notFound
		}
		if err != nil {
			return nil, s.storeFailure("get children", err)
		}
		if !parent.IsFolder {
			return nil, notFound
		}
	}

	children, err = s.store.FindByParent(ctx, parentID)
	if err != nil {
		return nil, s.storeFailure("get children", err)
	}
	return nonNil(children), nil
}

// SearchInParent finds descendants of parentID, at any depth, named exactly name.
// A missing parent yields no results.
func (s *nodeService) SearchInParent(ctx context.Context, parentID uuid.UUID, name string) (matches []models.Node, err error) {
	defer s.track("search_in_parent")(&err)

	descendants, err := s.collectDescendants(ctx, parentID)
	if err != nil {
		return nil, s.storeFailure("search in parent", err)
	}

	matches = []models.Node{}
	for _, n := range descendants {
		if n.Name == name {
			matches = append(matches, n)
		}
	}

	s.logger.Debug("searched in parent",
		"parent_id", parentID,
		"name", name,
		"scanned", len(descendants),
		"matches", len(matches),
	)
	return matches, nil
}

// SearchAllFilesByName finds every file named exactly name
func (s *nodeService) SearchAllFilesByName(ctx context.Context, name string) (files []models.Node, err error) {
	defer s.track("search_files")(&err)

	files, err = s.store.FindByNameExact(ctx, name, true)
	if err != nil {
		return nil, s.storeFailure("search files", err)
	}
	return nonNil(files), nil
}

// SearchAutocomplete returns files whose name starts with prefix, ordered by
// name and capped at the configured limit. An empty prefix matches nothing.
func (s *nodeService) SearchAutocomplete(ctx context.Context, prefix string) (files []models.Node, err error) {
	defer s.track("autocomplete")(&err)

	if prefix == "" {
		return []models.Node{}, nil
	}

	files, err = s.store.FindFilesByPrefix(ctx, prefix, s.opts.AutocompleteLimit)
	if err != nil {
		return nil, s.storeFailure("autocomplete", err)
	}

	// Stores already order and limit; enforce both here regardless of engine
	files = slices.DeleteFunc(nonNil(files), func(n models.Node) bool {
		return n.IsFolder || !strings.HasPrefix(n.Name, prefix)
	})
	sortByName(files)
	if len(files) > s.opts.AutocompleteLimit {
		files = files[:s.opts.AutocompleteLimit]
	}
	return files, nil
}

// GetTree builds the nested forest from a single flat scan
func (s *nodeService) GetTree(ctx context.Context) (roots []*models.TreeNode, err error) {
	defer s.track("tree")(&err)

	all, err := s.store.All(ctx)
	if err != nil {
		return nil, s.storeFailure("get tree", err)
	}

	// Build hierarchy using 3-pass algorithm
	treeMap := make(map[uuid.UUID]*models.TreeNode, len(all))

	// First pass: create all tree nodes
	for _, n := range all {
		treeMap[n.ID] = &models.TreeNode{Node: n, Children: []*models.TreeNode{}}
	}

	// Second pass: attach children to parents
	roots = []*models.TreeNode{}
	for _, n := range all {
		node := treeMap[n.ID]
		if n.IsRoot() {
			roots = append(roots, node)
			continue
		}
		if parent, exists := treeMap[*n.ParentID]; exists {
			parent.Children = append(parent.Children, node)
		} else {
			s.logger.Warn("node references missing parent", "id", n.ID, "parent_id", *n.ParentID)
		}
	}

	// Third pass: order every level by name
	sortTree(roots)

	s.logger.Info("tree built", "nodes", len(all), "roots", len(roots))

	return roots, nil
}

// Stats summarizes the hierarchy
func (s *nodeService) Stats(ctx context.Context) (stats *models.Stats, err error) {
	defer s.track("stats")(&err)

	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, s.storeFailure("stats", err)
	}
	observability.Nodes.Set(float64(count))
	return &models.Stats{Nodes: count}, nil
}

// collectDescendants walks the subtree under parentID breadth-first, one
// FindByParent per folder. parentID itself is not included.
func (s *nodeService) collectDescendants(ctx context.Context, parentID uuid.UUID) ([]models.Node, error) {
	descendants := []models.Node{}
	queue := []uuid.UUID{parentID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := s.store.FindByParent(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			descendants = append(descendants, child)
			if child.IsFolder {
				queue = append(queue, child.ID)
			}
		}
	}

	return descendants, nil
}

// track starts timing op; the returned func records the outcome held in *errp
func (s *nodeService) track(op string) func(errp *error) {
	started := s.now()
	return func(errp *error) {
		observability.ObserveOperation(op, started, *errp)
	}
}

// storeFailure logs err once and wraps it as domain.ErrStoreFailure
func (s *nodeService) storeFailure(op string, err error) error {
	s.logger.Error(op+" failed", "error", err)
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreFailure, err)
}

// validateCreateRequest validates a node creation request
func (s *nodeService) validateCreateRequest(req *models.CreateNodeRequest) error {
	if req == nil {
		return errors.New("request is required")
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.RuneLength(1, config.MaxNodeNameLength),
		),
	)
}

func sortByName(nodes []models.Node) {
	slices.SortStableFunc(nodes, func(a, b models.Node) int {
		return strings.Compare(a.Name, b.Name)
	})
}

func sortTree(level []*models.TreeNode) {
	slices.SortStableFunc(level, func(a, b *models.TreeNode) int {
		return strings.Compare(a.Name, b.Name)
	})
	for _, n := range level {
		sortTree(n.Children)
	}
}

func nonNil(nodes []models.Node) []models.Node {
	if nodes == nil {
		return []models.Node{}
	}
	return nodes
}
