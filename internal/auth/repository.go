package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists accounts. Update is the only way to mutate an existing
// account: fn runs against the current record while the record is locked, and
// the mutated record is written back only if fn returns nil.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	FindByIdentifier(ctx context.Context, identifier string) (*Account, error)
	FindByIdentifierAndToken(ctx context.Context, identifier, token string) (*Account, error)
	Update(ctx context.Context, identifier string, fn func(*Account) error) (*Account, error)
	Delete(ctx context.Context, identifier string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, account *Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAccountExists
		}
		return err
	}
	return nil
}

func (r *repository) FindByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	var account Account
	if err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindByIdentifierAndToken(ctx context.Context, identifier, token string) (*Account, error) {
	var account Account
	err := r.db.WithContext(ctx).
		Where("identifier = ? AND verification_token = ?", identifier, token).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) Update(ctx context.Context, identifier string, fn func(*Account) error) (*Account, error) {
	var account Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("identifier = ?", identifier).
			First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		if err := fn(&account); err != nil {
			return err
		}
		account.Identifier = identifier

		return tx.Save(&account).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) Delete(ctx context.Context, identifier string) error {
	result := r.db.WithContext(ctx).Where("identifier = ?", identifier).Delete(&Account{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
