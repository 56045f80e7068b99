package menu

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/visitor-management/internal"
	"github.com/frahmantamala/visitor-management/internal/permission"
)

type Assembler struct {
	repo        RepositoryAPI
	resolver    PermissionResolver
	policy      OrphanPolicy
	placeholder string
	logger      *slog.Logger
}

type Option func(*Assembler)

func WithOrphanPolicy(policy OrphanPolicy) Option {
	return func(a *Assembler) { a.policy = policy }
}

func WithPlaceholder(link string) Option {
	return func(a *Assembler) { a.placeholder = link }
}

func NewAssembler(repo RepositoryAPI, resolver PermissionResolver, logger *slog.Logger, opts ...Option) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Assembler{
		repo:        repo,
		resolver:    resolver,
		policy:      OrphanDrop,
		placeholder: DefaultPlaceholder,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the menu forest of roleID. Roles with an unrestricted
// permission set see every node whatever their menu grants say.
func (a *Assembler) Assemble(ctx context.Context, roleID int64) ([]*Node, error) {
	var (
		items []Item
		set   permission.Set
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = a.repo.ItemsForRole(gctx, roleID)
		return err
	})
	g.Go(func() error {
		var err error
		set, err = a.resolver.Resolve(gctx, roleID)
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.ErrorContext(ctx, "failed to assemble menu", "role_id", roleID, "error", err)
		return nil, internal.NewInternalError("Failed to load menu", err)
	}

	return Build(items, set.Unrestricted(), a.policy, a.placeholder), nil
}

// Build turns a flat node list into a forest. Siblings are ordered by
// display order, then id.
func Build(items []Item, unrestricted bool, policy OrphanPolicy, placeholder string) []*Node {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DisplayOrder != sorted[j].DisplayOrder {
			return sorted[i].DisplayOrder < sorted[j].DisplayOrder
		}
		return sorted[i].ID < sorted[j].ID
	})

	index := make(map[int64]int, len(sorted))
	selected := make([]bool, len(sorted))
	for i, it := range sorted {
		index[it.ID] = i
		selected[i] = unrestricted || it.Selected
	}

	if policy == OrphanIncludeAncestors {
		includeAncestors(sorted, index, selected)
	}

	arena := make([]Node, len(sorted))
	for i, it := range sorted {
		link := placeholder
		if it.Link != nil && *it.Link != "" {
			link = *it.Link
		}
		arena[i] = Node{ID: it.ID, Label: it.Label, Link: link, Icon: it.Icon, Children: []*Node{}}
	}

	roots := make([]*Node, 0)
	for i, it := range sorted {
		if !selected[i] {
			continue
		}
		if it.ParentID == nil {
			roots = append(roots, &arena[i])
			continue
		}
		p, ok := index[*it.ParentID]
		if !ok || !selected[p] {
			continue
		}
		arena[p].Children = append(arena[p].Children, &arena[i])
	}
	return roots
}

// includeAncestors marks the parent chain of every selected node. A chain
// longer than the node count can only be a cycle and is cut there.
func includeAncestors(items []Item, index map[int64]int, selected []bool) {
	for i := range items {
		if !selected[i] {
			continue
		}
		cur := items[i]
		for steps := 0; cur.ParentID != nil && steps < len(items); steps++ {
			p, ok := index[*cur.ParentID]
			if !ok || selected[p] {
				break
			}
			selected[p] = true
			cur = items[p]
		}
	}
}
