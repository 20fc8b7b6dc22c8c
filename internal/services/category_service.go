package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"centime/internal/core"
	"centime/internal/storage"
)

// CategoryService manages income/expense categories. Deleting a category is
// refused while any transaction still references it; the count and the
// delete run in one transaction so a concurrent insert cannot slip between
// them.
type CategoryService struct {
	store storage.Store
}

func NewCategoryService(store storage.Store) *CategoryService {
	return &CategoryService{store: store}
}

type CreateCategoryParams struct {
	Name string
	Type string
}

type UpdateCategoryParams struct {
	Name *string
	Type *string
}

func (s *CategoryService) Create(ctx context.Context, userID string, p CreateCategoryParams) (core.Category, error) {
	now := time.Now().UTC()
	category := core.Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(p.Name),
		Type:      core.TransactionType(p.Type),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := category.Validate(); err != nil {
		return core.Category{}, err
	}

	if err := s.store.CreateCategory(ctx, category); err != nil {
		return core.Category{}, boundary(ctx, "create category", err)
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]core.Category, error) {
	categories, err := s.store.CategoriesByUser(ctx, userID)
	if err != nil {
		return nil, boundary(ctx, "list categories", err)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, id, userID string) (core.Category, error) {
	category, err := loadOwned(ctx, s.store.CategoryByID, id, userID, "category")
	if err != nil {
		return core.Category{}, boundary(ctx, "get category", err)
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id, userID string, p UpdateCategoryParams) (core.Category, error) {
	category, err := loadOwned(ctx, s.store.CategoryByID, id, userID, "category")
	if err != nil {
		return core.Category{}, boundary(ctx, "update category", err)
	}

	if p.Name != nil {
		category.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		category.Type = core.TransactionType(*p.Type)
	}
	if err := category.Validate(); err != nil {
		return core.Category{}, err
	}
	category.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return core.Category{}, boundary(ctx, "update category", err)
	}
	return category, nil
}

// Delete removes a category, refusing with Forbidden while transactions
// still reference it. Recipients deliberately have no such guard.
func (s *CategoryService) Delete(ctx context.Context, id, userID string) error {
	if _, err := loadOwned(ctx, s.store.CategoryByID, id, userID, "category"); err != nil {
		return boundary(ctx, "delete category", err)
	}

	err := s.store.InTx(ctx, func(st storage.Store) error {
		count, err := st.CountTransactionsByCategory(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return core.Forbiddenf("cannot delete category with associated transactions")
		}
		return st.DeleteCategory(ctx, id)
	})
	return boundary(ctx, "delete category", err)
}
