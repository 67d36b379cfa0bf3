package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/dbx"
	"github.com/dmitrijs2005/notesync/internal/server/auth"
	"github.com/dmitrijs2005/notesync/internal/server/config"
	"github.com/dmitrijs2005/notesync/internal/server/models"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

// argon2id parameters for password hashing.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// UserService handles registration and login. Passwords are hashed with
// argon2id and a per-user random salt; successful logins mint HS256 access
// tokens.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates a new user with the given username and password.
func (s *UserService) Register(ctx context.Context, username string, password string) (*models.User, error) {
	salt := common.GenerateRandByteArray(saltLen)
	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     username,
		PasswordHash: s.hashPassword(password, salt),
		Salt:         salt,
	}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the provided password against the stored hash and, on
// success, returns a signed access token.
func (s *UserService) Login(ctx context.Context, userName string, password string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}
	candidate := s.hashPassword(password, user.Salt)
	if subtle.ConstantTimeCompare(user.PasswordHash, candidate) != 1 {
		return "", common.ErrorUnauthorized
	}
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Wipe deletes every record the user owns and clears the sync token so the
// next device to sync re-binds it. The password must be re-entered; a token
// alone is not enough for a destructive operation.
func (s *UserService) Wipe(ctx context.Context, userID string, password string) error {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorUnauthorized
		}
		return common.ErrorInternal
	}
	candidate := s.hashPassword(password, user.Salt)
	if subtle.ConstantTimeCompare(user.PasswordHash, candidate) != 1 {
		return common.ErrorUnauthorized
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Notes(tx).DeleteAllForUser(ctx, userID); err != nil {
			return fmt.Errorf("delete user notes: %w", err)
		}
		if err := s.repomanager.Users(tx).SetSyncToken(ctx, userID, ""); err != nil {
			return fmt.Errorf("clear sync token: %w", err)
		}
		return nil
	})
}

func (s *UserService) hashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}
