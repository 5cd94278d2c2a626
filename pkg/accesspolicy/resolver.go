package accesspolicy

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/warden-lab/warden/dao/model"
)

// Resolver loads caller scopes from the project registry, the permission
// graph and the migration phase store. It holds no per-request state and is
// safe for concurrent use.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// ResolveScope builds the CallerScope for one request. The allowed-owner set
// is computed here exactly once; callers reuse it for every row in the
// request instead of re-deriving it per row.
//
// A missing registry entry is an UnknownProjectError. A missing migration
// status row means the project has not been onboarded to the rollout and is
// treated as pending.
func (r *Resolver) ResolveScope(ctx context.Context, projectID string) (*CallerScope, error) {
	if projectID == "" {
		return nil, &UnknownProjectError{}
	}

	var project model.Project
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &UnknownProjectError{ProjectID: projectID}
	}
	if err != nil {
		return nil, fmt.Errorf("Resolver.ResolveScope: %w", err)
	}

	phase, err := r.projectPhase(ctx, projectID)
	if err != nil {
		return nil, err
	}

	allowed, readsAll, err := r.allowedSet(ctx, &project)
	if err != nil {
		return nil, err
	}

	return &CallerScope{
		ProjectID:   projectID,
		AccessLevel: project.AccessLevel,
		Phase:       phase,
		readsAll:    readsAll,
		allowed:     allowed,
	}, nil
}

func (r *Resolver) projectPhase(ctx context.Context, projectID string) (model.Phase, error) {
	var status model.MigrationStatus
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		klog.V(4).Infof("no migration status for project %s, defaulting to pending", projectID)
		return model.PhasePending, nil
	}
	if err != nil {
		return "", fmt.Errorf("Resolver.projectPhase: %w", err)
	}
	if !status.Enabled {
		return model.PhasePending, nil
	}
	return status.Phase, nil
}

func (r *Resolver) allowedSet(ctx context.Context, project *model.Project) (map[string]struct{}, bool, error) {
	switch project.AccessLevel {
	case model.AccessLevelIsolated:
		return map[string]struct{}{project.ProjectID: {}}, false, nil

	case model.AccessLevelShared:
		var targets []string
		err := r.db.WithContext(ctx).
			Model(&model.ReadPermission{}).
			Where("reader_project_id = ?", project.ProjectID).
			Pluck("target_project_id", &targets).Error
		if err != nil {
			return nil, false, fmt.Errorf("Resolver.allowedSet: %w", err)
		}
		allowed := lo.SliceToMap(targets, func(id string) (string, struct{}) { return id, struct{}{} })
		allowed[project.ProjectID] = struct{}{}
		return allowed, false, nil

	case model.AccessLevelSuper:
		var ids []string
		err := r.db.WithContext(ctx).Model(&model.Project{}).Pluck("project_id", &ids).Error
		if err != nil {
			return nil, false, fmt.Errorf("Resolver.allowedSet: %w", err)
		}
		allowed := lo.SliceToMap(ids, func(id string) (string, struct{}) { return id, struct{}{} })
		return allowed, true, nil

	default:
		return nil, false, fmt.Errorf("Resolver.allowedSet: project %q has invalid access level %q",
			project.ProjectID, project.AccessLevel)
	}
}

// ListProjectIDs returns every registered project id.
func (r *Resolver) ListProjectIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Project{}).Order("project_id").Pluck("project_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("Resolver.ListProjectIDs: %w", err)
	}
	return ids, nil
}
