package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByPhone retrieves the user registered with phone.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindSupplierByNameAndPhone matches a supplier on exact username and phone.
func (r *Repository) FindSupplierByNameAndPhone(ctx context.Context, username, phone string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("username = ? AND phone = ? AND role = ?", username, phone, enums.RoleSupplier).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListCounterparties returns the distinct users on the other side of the
// caller's orders, ordered by username.
func (r *Repository) ListCounterparties(ctx context.Context, userID uuid.UUID, role enums.Role) ([]CounterpartyDTO, error) {
	own, other := "vendor_id", "supplier_id"
	if role == enums.RoleSupplier {
		own, other = "supplier_id", "vendor_id"
	}

	var rows []CounterpartyDTO
	err := r.db.WithContext(ctx).
		Table("users AS u").
		Select("DISTINCT u.id AS id, u.username AS username, u.phone AS phone").
		Joins("JOIN orders o ON o."+other+" = u.id").
		Where("o."+own+" = ?", userID).
		Order("u.username ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
