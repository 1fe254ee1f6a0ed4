package repositories

import (
	"context"
	"time"

	"github.com/you/bankauth/domain"
	"gorm.io/gorm"
)

// EnrollmentRepositoryImpl implements domain.EnrollmentRepository using GORM
type EnrollmentRepositoryImpl struct {
	db *gorm.DB
}

// DBEnrollment represents the database model for MFAEnrollment
type DBEnrollment struct {
	ID         uint      `gorm:"primaryKey"`
	AccountID  uint      `gorm:"uniqueIndex:idx_account_method"`
	Method     string    `gorm:"uniqueIndex:idx_account_method;size:32"`
	EnrolledAt time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBEnrollment) TableName() string {
	return "mfa_enrollments"
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *gorm.DB) domain.EnrollmentRepository {
	return &EnrollmentRepositoryImpl{db: db}
}

// Add implements domain.EnrollmentRepository
func (r *EnrollmentRepositoryImpl) Add(ctx context.Context, enrollment *domain.MFAEnrollment) error {
	return r.db.WithContext(ctx).Create(&DBEnrollment{
		AccountID:  enrollment.AccountID,
		Method:     string(enrollment.Method),
		EnrolledAt: enrollment.EnrolledAt,
	}).Error
}

// Remove implements domain.EnrollmentRepository
func (r *EnrollmentRepositoryImpl) Remove(ctx context.Context, accountID uint, method domain.MFAMethod) error {
	result := r.db.WithContext(ctx).
		Where("account_id = ? AND method = ?", accountID, string(method)).
		Delete(&DBEnrollment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrMethodNotEnrolled
	}
	return nil
}

// ListByAccount implements domain.EnrollmentRepository
func (r *EnrollmentRepositoryImpl) ListByAccount(ctx context.Context, accountID uint) ([]*domain.MFAEnrollment, error) {
	var rows []DBEnrollment
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("enrolled_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	enrollments := make([]*domain.MFAEnrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, &domain.MFAEnrollment{
			AccountID:  row.AccountID,
			Method:     domain.MFAMethod(row.Method),
			EnrolledAt: row.EnrolledAt,
		})
	}
	return enrollments, nil
}

// IsEnrolled implements domain.EnrollmentRepository
func (r *EnrollmentRepositoryImpl) IsEnrolled(ctx context.Context, accountID uint, method domain.MFAMethod) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&DBEnrollment{}).
		Where("account_id = ? AND method = ?", accountID, string(method)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
