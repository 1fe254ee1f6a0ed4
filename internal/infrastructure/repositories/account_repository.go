package repositories

import (
	"context"
	"time"

	"github.com/you/bankauth/domain"
	"gorm.io/gorm"
)

// AccountRepositoryImpl implements domain.AccountRepository using GORM
type AccountRepositoryImpl struct {
	db *gorm.DB
}

// DBAccount represents the database model for Account (with GORM tags)
type DBAccount struct {
	ID             uint           `gorm:"primaryKey"`
	Email          string         `gorm:"uniqueIndex;size:255"`
	Phone          string         `gorm:"index;size:32"`
	PasswordHash   string         `gorm:"column:password"`
	FaceTemplateID string         `gorm:"size:64"`
	Role           string         `gorm:"index;size:64"`
	IsActive       bool           `gorm:"index"`
	CreatedAt      time.Time      `gorm:"index"`
	UpdatedAt      time.Time      `gorm:"index"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBAccount) TableName() string {
	return "accounts"
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

// Create implements domain.AccountRepository
func (r *AccountRepositoryImpl) Create(ctx context.Context, account *domain.Account) error {
	dbAccount := r.domainToDB(account)
	if err := r.db.WithContext(ctx).Create(dbAccount).Error; err != nil {
		return err
	}
	account.ID = dbAccount.ID
	return nil
}

// FindByEmail implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var dbAccount DBAccount
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&dbAccount).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbAccount), nil
}

// FindByID implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	var dbAccount DBAccount
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbAccount).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbAccount), nil
}

// Update implements domain.AccountRepository
func (r *AccountRepositoryImpl) Update(ctx context.Context, account *domain.Account) error {
	return r.db.WithContext(ctx).Save(r.domainToDB(account)).Error
}

// Deactivate implements domain.AccountRepository
func (r *AccountRepositoryImpl) Deactivate(ctx context.Context, accountID uint) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", accountID).Update("is_active", false).Error
}

func (r *AccountRepositoryImpl) domainToDB(account *domain.Account) *DBAccount {
	return &DBAccount{
		ID:             account.ID,
		Email:          account.Email,
		Phone:          account.Phone,
		PasswordHash:   account.PasswordHash,
		FaceTemplateID: account.FaceTemplateID,
		Role:           account.Role,
		IsActive:       account.IsActive,
	}
}

func (r *AccountRepositoryImpl) dbToDomain(dbAccount *DBAccount) *domain.Account {
	return &domain.Account{
		ID:             dbAccount.ID,
		Email:          dbAccount.Email,
		Phone:          dbAccount.Phone,
		PasswordHash:   dbAccount.PasswordHash,
		FaceTemplateID: dbAccount.FaceTemplateID,
		Role:           dbAccount.Role,
		IsActive:       dbAccount.IsActive,
		CreatedAt:      dbAccount.CreatedAt,
		UpdatedAt:      dbAccount.UpdatedAt,
	}
}
