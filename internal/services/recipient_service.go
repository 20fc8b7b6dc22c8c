package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"centime/internal/core"
	"centime/internal/storage"
)

// RecipientService manages transaction recipients. Unlike categories,
// deleting a recipient is never blocked: referencing transactions simply
// lose the reference (ON DELETE SET NULL in the schema).
type RecipientService struct {
	store storage.Store
}

func NewRecipientService(store storage.Store) *RecipientService {
	return &RecipientService{store: store}
}

type CreateRecipientParams struct {
	Name string
}

type UpdateRecipientParams struct {
	Name *string
}

func (s *RecipientService) Create(ctx context.Context, userID string, p CreateRecipientParams) (core.Recipient, error) {
	recipient := core.Recipient{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(p.Name),
		CreatedAt: time.Now().UTC(),
	}
	if err := recipient.Validate(); err != nil {
		return core.Recipient{}, err
	}

	if err := s.store.CreateRecipient(ctx, recipient); err != nil {
		return core.Recipient{}, boundary(ctx, "create recipient", err)
	}
	return recipient, nil
}

// List returns the user's recipients newest-first.
func (s *RecipientService) List(ctx context.Context, userID string) ([]core.Recipient, error) {
	recipients, err := s.store.RecipientsByUser(ctx, userID)
	if err != nil {
		return nil, boundary(ctx, "list recipients", err)
	}
	return recipients, nil
}

func (s *RecipientService) Get(ctx context.Context, id, userID string) (core.Recipient, error) {
	recipient, err := loadOwned(ctx, s.store.RecipientByID, id, userID, "recipient")
	if err != nil {
		return core.Recipient{}, boundary(ctx, "get recipient", err)
	}
	return recipient, nil
}

func (s *RecipientService) Update(ctx context.Context, id, userID string, p UpdateRecipientParams) (core.Recipient, error) {
	recipient, err := loadOwned(ctx, s.store.RecipientByID, id, userID, "recipient")
	if err != nil {
		return core.Recipient{}, boundary(ctx, "update recipient", err)
	}

	if p.Name != nil {
		recipient.Name = strings.TrimSpace(*p.Name)
	}
	if err := recipient.Validate(); err != nil {
		return core.Recipient{}, err
	}

	if err := s.store.UpdateRecipient(ctx, recipient); err != nil {
		return core.Recipient{}, boundary(ctx, "update recipient", err)
	}
	return recipient, nil
}

func (s *RecipientService) Delete(ctx context.Context, id, userID string) error {
	if _, err := loadOwned(ctx, s.store.RecipientByID, id, userID, "recipient"); err != nil {
		return boundary(ctx, "delete recipient", err)
	}
	if err := s.store.DeleteRecipient(ctx, id); err != nil {
		return boundary(ctx, "delete recipient", err)
	}
	return nil
}
