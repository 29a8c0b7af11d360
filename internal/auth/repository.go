package auth

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")
)

type Repository interface {
	CreateUser(user *User) error
	GetUserByEmail(email string) (*User, error)
	GetUserByID(id uint) (*User, error)
	GetUserByVerificationToken(token string) (*User, error)

	// ConsumeVerificationToken marks the owning user verified and clears the
	// token and expiry in a single conditional update. It only succeeds when
	// the token matches and has not expired as of now.
	ConsumeVerificationToken(token string, now time.Time) error

	// SetResetToken stores a fresh reset token and expiry on the user,
	// overwriting any outstanding one.
	SetResetToken(userID uint, token string, expiry time.Time) error

	// ConsumeResetToken swaps in the new credential hash and clears the reset
	// token and expiry in a single conditional update. A stale or unknown
	// token leaves the stored hash untouched.
	ConsumeResetToken(token string, now time.Time, newHash string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateUser(user *User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (r *repository) GetUserByEmail(email string) (*User, error) {
	var user User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetUserByID(id uint) (*User, error) {
	var user User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetUserByVerificationToken(token string) (*User, error) {
	var user User
	if err := r.db.Where("verification_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) ConsumeVerificationToken(token string, now time.Time) error {
	res := r.db.Model(&User{}).
		Where("verification_token = ? AND verification_token_expiry > ?", token, now).
		Updates(map[string]interface{}{
			"verified":                  true,
			"verification_token":        nil,
			"verification_token_expiry": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Classify for the caller; this read can never consume the token.
		if _, err := r.GetUserByVerificationToken(token); err != nil {
			return ErrTokenNotFound
		}
		return ErrTokenExpired
	}
	return nil
}

func (r *repository) SetResetToken(userID uint, token string, expiry time.Time) error {
	res := r.db.Model(&User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reset_token":        token,
			"reset_token_expiry": expiry,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) ConsumeResetToken(token string, now time.Time, newHash string) error {
	res := r.db.Model(&User{}).
		Where("reset_token = ? AND reset_token_expiry > ?", token, now).
		Updates(map[string]interface{}{
			"password_hash":      newHash,
			"reset_token":        nil,
			"reset_token_expiry": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTokenExpired
	}
	return nil
}
