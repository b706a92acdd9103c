package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
	"github.com/aussiebroadwan/blogd/internal/blog/store"
	"github.com/aussiebroadwan/blogd/pkg/authn"
	"github.com/aussiebroadwan/blogd/pkg/cryptox"
	"github.com/aussiebroadwan/blogd/pkg/idx"
	"github.com/aussiebroadwan/blogd/pkg/jwtx"
	"github.com/aussiebroadwan/blogd/pkg/slogx"
)

type AccountService struct {
	Store  store.Store
	Issuer *authn.Issuer
	Now    func() time.Time
}

// PublicProfile is what anyone may see about a user.
type PublicProfile struct {
	Author domain.Author
	Bio    string
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Register creates a user with an argon2id password hash.
func (s *AccountService) Register(ctx context.Context, username, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	username, ok := domain.NormalizeUsername(username)
	if !ok {
		return domain.User{}, ErrInvalidUsername
	}
	if !domain.ValidPassword(password) {
		return domain.User{}, ErrInvalidPassword
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	now := s.now()
	u := domain.User{
		ID:           idx.NewAt(now).String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUsernameTaken
		}
		log.Error("failed to create user", slog.Any("error", err))
		return domain.User{}, err
	}

	log.Info("user registered", slog.String("user_id", u.ID))
	return u, nil
}

// Login checks the password and mints a session. Hashes imported from the
// bcrypt deployment are replaced with argon2id on success.
func (s *AccountService) Login(ctx context.Context, username, password string) (domain.User, authn.Session, error) {
	log := slogx.FromContext(ctx)
	username, _ = domain.NormalizeUsername(username)

	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		// Spend the same time as a real check so usernames can't be probed.
		_ = cryptox.VerifyPassword(password, dummyHash())
		return domain.User{}, authn.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		log.Error("failed to fetch user", slog.Any("error", err))
		return domain.User{}, authn.Session{}, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Error("stored password hash unreadable", slog.String("user_id", u.ID), slog.Any("error", err))
		}
		return domain.User{}, authn.Session{}, ErrInvalidCredentials
	}

	if cryptox.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, u, password)
	}

	sess, err := s.Issuer.IssueSession(jwtx.Identity{UserID: u.ID, Username: u.Username})
	if err != nil {
		log.Error("failed to issue session", slog.Any("error", err))
		return domain.User{}, authn.Session{}, err
	}

	log.Info("user logged in", slog.String("user_id", u.ID))
	return u, sess, nil
}

// rehash is best effort; a failure leaves the old hash usable.
func (s *AccountService) rehash(ctx context.Context, u domain.User, password string) {
	log := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(password)
	if err == nil {
		err = s.Store.Users().UpdatePasswordHash(ctx, u.ID, hash)
	}
	if err != nil {
		log.Warn("failed to upgrade legacy password hash", slog.String("user_id", u.ID), slog.Any("error", err))
		return
	}
	log.Info("upgraded legacy password hash", slog.String("user_id", u.ID))
}

func (s *AccountService) Profile(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	return u, notFound(err)
}

// PublicProfileOf returns the user's name and bio. A user without a bio
// gets an empty one.
func (s *AccountService) PublicProfileOf(ctx context.Context, userID string) (PublicProfile, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return PublicProfile{}, notFound(err)
	}

	p := PublicProfile{Author: domain.Author{ID: u.ID, Username: u.Username}}
	bio, err := s.Store.Bios().GetBio(ctx, userID)
	switch {
	case err == nil:
		p.Bio = bio.Content
	case !errors.Is(err, store.ErrNotFound):
		return PublicProfile{}, err
	}
	return p, nil
}

var dummyHash = sync.OnceValue(func() string {
	h, err := cryptox.HashPassword(cryptox.MustGenerateSecret(16))
	if err != nil {
		panic(err)
	}
	return h
})
