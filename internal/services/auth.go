package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Renal37/campus-canteen/internal/database"
	"github.com/Renal37/campus-canteen/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserIsAlreadyRegistered = errors.New("пользователь уже зарегистрирован")
	ErrUserIsNotExist          = errors.New("пользователь не существует")
	ErrPasswordIsIncorrect     = errors.New("пароль неверен")
)

// AuthService регистрирует пользователей и проверяет их пароли.
type AuthService struct {
	storage AuthStorage
}

type AuthStorage interface {
	// CreateUser создает пользователя и его счёт с нулевым балансом.
	CreateUser(ctx context.Context, user database.UserDB) error

	FindUser(ctx context.Context, login string) (*database.UserDB, error)
}

func NewAuthService(storage AuthStorage) *AuthService {
	return &AuthService{storage: storage}
}

// Register регистрирует пользователя. Роль admin через регистрацию не выдаётся.
func (auth *AuthService) Register(ctx context.Context, user models.UnknownUser) error {
	if err := validateUser(user); err != nil {
		return err
	}

	role := models.RoleUser
	if user.Role != nil {
		switch *user.Role {
		case models.RoleUser, models.RoleVendor:
			role = *user.Role
		default:
			return fmt.Errorf("%w: роль %q недоступна при регистрации", ErrValidation, *user.Role)
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ошибка при хэшировании пароля: %w", err)
	}

	err = auth.storage.CreateUser(ctx, database.UserDB{
		User: models.User{
			ID:    uuid.NewString(),
			Login: *user.Login,
			Hash:  string(hashedPassword),
			Role:  role,
		},
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return ErrUserIsAlreadyRegistered
		}
		return storageError("создание пользователя", err)
	}

	return nil
}

func (auth *AuthService) Login(ctx context.Context, user models.UnknownUser) error {
	if err := validateUser(user); err != nil {
		return err
	}

	u, err := auth.storage.FindUser(ctx, *user.Login)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUserIsNotExist
		}
		return storageError("поиск пользователя", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(*user.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordIsIncorrect
		}
		return fmt.Errorf("ошибка при сравнении паролей: %w", err)
	}

	return nil
}

// GetUser возвращает пользователя по логину из токена.
func (auth *AuthService) GetUser(ctx context.Context, login string) (*models.User, error) {
	user, err := auth.storage.FindUser(ctx, login)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserIsNotExist
		}
		return nil, storageError("поиск пользователя", err)
	}

	return &user.User, nil
}

func validateUser(user models.UnknownUser) error {
	if user.Login == nil || *user.Login == "" {
		return fmt.Errorf("%w: логин не может быть пустым", ErrValidation)
	}
	if user.Password == nil || *user.Password == "" {
		return fmt.Errorf("%w: пароль не может быть пустым", ErrValidation)
	}
	return nil
}
