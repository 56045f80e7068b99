package menu

import (
	"context"
	"fmt"

	"github.com/frahmantamala/visitor-management/internal/permission"
)

// DefaultPlaceholder is the link given to entries without a route of their own.
const DefaultPlaceholder = "#"

// OrphanPolicy decides what happens to a selected node whose parent is not
// selected.
type OrphanPolicy string

const (
	// OrphanDrop leaves the node out; its whole subtree disappears with it.
	OrphanDrop OrphanPolicy = "drop"
	// OrphanIncludeAncestors selects every ancestor of a selected node.
	OrphanIncludeAncestors OrphanPolicy = "include_ancestors"
)

func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch OrphanPolicy(s) {
	case "", OrphanDrop:
		return OrphanDrop, nil
	case OrphanIncludeAncestors:
		return OrphanIncludeAncestors, nil
	}
	return "", fmt.Errorf("unknown orphan policy %q", s)
}

// Item is a stored menu node together with whether the role was granted it.
type Item struct {
	ID           int64
	Label        string
	Link         *string
	Icon         string
	Permission   string
	DisplayOrder int
	ParentID     *int64
	IsSubmenu    bool
	Selected     bool
}

// Node is one entry of an assembled menu.
type Node struct {
	ID       int64   `json:"id"`
	Label    string  `json:"label"`
	Link     string  `json:"link"`
	Icon     string  `json:"icon"`
	Children []*Node `json:"children"`
}

type RepositoryAPI interface {
	// ItemsForRole returns every menu node, flagged with whether roleID has a
	// menu grant for it.
	ItemsForRole(ctx context.Context, roleID int64) ([]Item, error)
}

type PermissionResolver interface {
	Resolve(ctx context.Context, roleID int64) (permission.Set, error)
}

type ServiceAPI interface {
	Assemble(ctx context.Context, roleID int64) ([]*Node, error)
}
