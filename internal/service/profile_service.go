package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"mtr/training-app/internal/domain"
	"mtr/training-app/internal/repository"
	"mtr/training-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidUsername  = errors.New("username cannot be empty")
	ErrInvalidPhotoType = errors.New("profile photo must be a JPEG, PNG, or WebP image")
)

// allowedPhotoTypes maps accepted upload content types to a file extension.
var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// --- Service Interface ---
type ProfileService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, username, stravaLink string) (*domain.User, error)
	UploadProfilePhoto(ctx context.Context, userID primitive.ObjectID, filename, contentType string, body io.Reader) (string, error)
}

// --- Service Implementation ---

// profileService implements the ProfileService interface.
type profileService struct {
	userRepo    repository.UserRepository
	fileStorage storage.FileStorage
}

// NewProfileService creates a new instance of profileService.
func NewProfileService(userRepo repository.UserRepository, fileStorage storage.FileStorage) ProfileService {
	return &profileService{
		userRepo:    userRepo,
		fileStorage: fileStorage,
	}
}

// GetProfile returns the user's own profile.
func (s *profileService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile sets the editable profile fields and returns the result.
func (s *profileService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, username, stravaLink string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidUsername
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, username, strings.TrimSpace(stravaLink)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

// UploadProfilePhoto stores the image and records its URL on the user.
func (s *profileService) UploadProfilePhoto(ctx context.Context, userID primitive.ObjectID, filename, contentType string, body io.Reader) (string, error) {
	// 1. Validate the content type and pick an extension
	ext, ok := allowedPhotoTypes[strings.ToLower(contentType)]
	if !ok {
		return "", ErrInvalidPhotoType
	}
	if fromName := strings.ToLower(path.Ext(filename)); fromName != "" {
		ext = fromName
	}

	// 2. Verify the user exists before touching storage
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return "", err
	}

	// 3. Upload under a fresh key so stale CDN caches never show old photos
	objectKey := fmt.Sprintf("profile-photos/%s/%s%s", userID.Hex(), uuid.NewString(), ext)
	photoURL, err := s.fileStorage.Upload(ctx, objectKey, contentType, body)
	if err != nil {
		return "", err
	}

	// 4. Record the URL on the user
	if err := s.userRepo.SetProfilePhoto(ctx, userID, photoURL); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return photoURL, nil
}
