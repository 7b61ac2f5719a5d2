package memory

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

func (r records) InsertUser(ctx context.Context, u *model.User) error {
	st, done, err := r.view(ctx)
	if err != nil {
		return err
	}
	defer done()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range st.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	ts := r.now()
	u.ID = st.id()
	u.CreatedAt, u.UpdatedAt = ts, ts
	st.users[u.ID] = *u
	return nil
}

func (r records) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return model.User{}, err
	}
	defer done()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (r records) GetUserByID(ctx context.Context, id uint64) (model.User, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return model.User{}, err
	}
	defer done()
	u, ok := st.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (r records) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	st, done, err := r.view(ctx)
	if err != nil {
		return err
	}
	defer done()
	st.tokens[tokenHash] = refreshToken{userID: userID, expiresAt: exp}
	return nil
}

func (r records) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	st, done, err := r.view(ctx)
	if err != nil {
		return 0, err
	}
	defer done()
	t, ok := st.tokens[tokenHash]
	if !ok || t.revoked || r.now().After(t.expiresAt) {
		return 0, repository.ErrNotFound
	}
	return t.userID, nil
}

func (r records) RevokeRefresh(ctx context.Context, tokenHash string) error {
	st, done, err := r.view(ctx)
	if err != nil {
		return err
	}
	defer done()
	if t, ok := st.tokens[tokenHash]; ok {
		t.revoked = true
		st.tokens[tokenHash] = t
	}
	return nil
}
