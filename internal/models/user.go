package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/legatera/legatera/internal/store"
)

// User is the profile record kept alongside the identity-provider account.
// Email uniqueness is enforced by the provider, not by the store: UserByEmail
// is a linear scan with no uniqueness guarantee of its own.
type User struct {
	store.Keys
	ID           string    `json:"id" dynamodbav:"id"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"password_hash" dynamodbav:"password_hash"`
	FirstName    string    `json:"first_name" dynamodbav:"first_name"`
	LastName     string    `json:"last_name" dynamodbav:"last_name"`
	IsTrustee    bool      `json:"is_trustee" dynamodbav:"is_trustee"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
}

func NewUser(email, firstName, lastName string) *User {
	id := uuid.NewString()
	u := &User{
		ID:        id,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: time.Now().UTC(),
	}
	u.PK = UserPK(id)
	u.SK = skPrefixProfile + id
	u.Type = TypeUser
	return u
}

func (u *User) EntityType() string { return TypeUser }

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) Save(ctx context.Context, s store.Store) error {
	return s.Put(ctx, u)
}

func UserByID(ctx context.Context, s store.Store, userID string) (*User, error) {
	u := &User{}
	if err := s.Get(ctx, store.Key{PK: UserPK(userID), SK: skPrefixProfile + userID}, u); err != nil {
		return nil, err
	}
	return u, nil
}

func UserByEmail(ctx context.Context, s store.Store, email string) (*User, error) {
	recs, err := s.Scan(ctx, TypeUser, "email", email, func() store.Record { return &User{} })
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, store.ErrNotFound
	}
	return recs[0].(*User), nil
}
