package auth

import (
	"sync"
	"time"
)

type mockRepository struct {
	mu     sync.Mutex
	users  map[uint]*User
	nextID uint
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:  make(map[uint]*User),
		nextID: 1,
	}
}

func (r *mockRepository) CreateUser(user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrUserExists
		}
	}

	// Clone so callers cannot mutate stored state.
	stored := *user
	stored.ID = r.nextID
	r.nextID++
	r.users[stored.ID] = &stored

	user.ID = stored.ID
	return nil
}

func (r *mockRepository) GetUserByEmail(email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *mockRepository) GetUserByID(id uint) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *mockRepository) GetUserByVerificationToken(token string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *mockRepository) ConsumeVerificationToken(token string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			if u.VerificationTokenExpiry == nil || !u.VerificationTokenExpiry.After(now) {
				return ErrTokenExpired
			}
			u.Verified = true
			u.VerificationToken = nil
			u.VerificationTokenExpiry = nil
			return nil
		}
	}
	return ErrTokenNotFound
}

func (r *mockRepository) SetResetToken(userID uint, token string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiry
	return nil
}

func (r *mockRepository) ConsumeResetToken(token string, now time.Time, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ResetToken != nil && *u.ResetToken == token && u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now) {
			u.PasswordHash = newHash
			u.ResetToken = nil
			u.ResetTokenExpiry = nil
			return nil
		}
	}
	return ErrTokenExpired
}

// expireVerificationToken backdates the stored expiry for tests.
func (r *mockRepository) expireVerificationToken(userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[userID]; ok && u.VerificationTokenExpiry != nil {
		past := time.Now().Add(-time.Minute)
		u.VerificationTokenExpiry = &past
	}
}

// expireResetToken backdates the stored expiry for tests.
func (r *mockRepository) expireResetToken(userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[userID]; ok && u.ResetTokenExpiry != nil {
		past := time.Now().Add(-time.Minute)
		u.ResetTokenExpiry = &past
	}
}

// deleteUser removes the user outright, simulating account deletion.
func (r *mockRepository) deleteUser(userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, userID)
}
