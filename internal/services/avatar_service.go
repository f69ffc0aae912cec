package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/storage"

	"github.com/google/uuid"
)

const avatarDir = "avatars"

var (
	ErrNoAvatar               = errors.New("no avatar to delete")
	ErrInvalidImage           = errors.New("invalid image format")
	ErrUnsupportedImageFormat = errors.New("unsupported image format")
	ErrImageTooLarge          = errors.New("image exceeds the size limit")
)

var avatarFormats = map[string]string{
	"png":  "png",
	"jpeg": "jpeg",
	"jpg":  "jpeg",
	"gif":  "gif",
	"webp": "webp",
}

type avatarService struct {
	userRepo    repositories.UserRepositoryInterface
	store       storage.BlobStore
	audit       AuditServiceInterface
	auditLogger AuditLoggerInterface
	metrics     MetricsRecorderInterface
	maxBytes    int64
	logger      *slog.Logger
}

func NewAvatarService(
	userRepo repositories.UserRepositoryInterface,
	store storage.BlobStore,
	audit AuditServiceInterface,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	maxBytes int64,
	logger *slog.Logger,
) AvatarServiceInterface {
	return &avatarService{
		userRepo:    userRepo,
		store:       store,
		audit:       audit,
		auditLogger: auditLogger,
		metrics:     metrics,
		maxBytes:    maxBytes,
		logger:      logger,
	}
}

// SetAvatarFromDataURI accepts "data:image/<format>;base64,<payload>".
func (s *avatarService) SetAvatarFromDataURI(ctx context.Context, userID uuid.UUID, dataURI string) (*models.User, error) {
	image, format, err := decodeDataURI(dataURI)
	if err != nil {
		return nil, err
	}
	return s.SetAvatar(ctx, userID, image, format)
}

// SetAvatar stores the image under a fresh name, points the user at it and
// then removes the previous file.
func (s *avatarService) SetAvatar(ctx context.Context, userID uuid.UUID, image []byte, format string) (*models.User, error) {
	format, err := normalizeImageFormat(image, format)
	if err != nil {
		return nil, err
	}
	if s.maxBytes > 0 && int64(len(image)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrImageTooLarge, len(image), s.maxBytes)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	name := fmt.Sprintf("%s/%s.%s", avatarDir, uuid.NewString(), format)
	if err := s.store.Put(ctx, name, image); err != nil {
		return nil, fmt.Errorf("failed to store avatar: %w", err)
	}

	url := s.store.URLFor(name)
	if err := s.userRepo.UpdateImage(ctx, userID, &url); err != nil {
		if delErr := s.store.Delete(ctx, name); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned avatar", "path", name, "error", delErr)
		}
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	if user.HasAvatar() {
		s.removeBlob(ctx, *user.Image)
	}

	user.Image = &url
	s.recordChange(ctx, userID, "update", name, models.AuditActionAvatarUpdated)
	return user, nil
}

func (s *avatarService) DeleteAvatar(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if !user.HasAvatar() {
		return ErrNoAvatar
	}

	if err := s.userRepo.UpdateImage(ctx, userID, nil); err != nil {
		return fmt.Errorf("failed to clear avatar: %w", err)
	}

	name := s.removeBlob(ctx, *user.Image)
	s.recordChange(ctx, userID, "delete", name, models.AuditActionAvatarDeleted)
	return nil
}

// removeBlob deletes the file behind a stored avatar URL. A missing file is
// not an error since the reference has already been dropped.
func (s *avatarService) removeBlob(ctx context.Context, url string) string {
	name, ok := s.store.PathFromURL(url)
	if !ok {
		s.logger.WarnContext(ctx, "avatar url is outside the public storage", "url", url)
		return ""
	}
	if err := s.store.Delete(ctx, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.WarnContext(ctx, "previous avatar already missing", "path", name)
		} else {
			s.logger.ErrorContext(ctx, "failed to delete previous avatar", "path", name, "error", err)
		}
	}
	return name
}

func (s *avatarService) recordChange(ctx context.Context, userID uuid.UUID, operation, path, action string) {
	s.metrics.IncrementCounter("avatar_operation", map[string]string{"operation": operation})
	s.auditLogger.LogAvatarChanged(ctx, userID, operation, path)
	if err := s.audit.Record(ctx, userID, action, "user", userID.String(), models.AuditMetadata{"path": path}); err != nil {
		s.logger.ErrorContext(ctx, "failed to create audit log", "error", err, "action", action)
	}
}

func decodeDataURI(dataURI string) ([]byte, string, error) {
	header, payload, found := strings.Cut(strings.TrimSpace(dataURI), ";base64,")
	if !found {
		return nil, "", ErrInvalidImage
	}

	_, format, found := strings.Cut(header, "image/")
	if !found || format == "" {
		return nil, "", ErrInvalidImage
	}

	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		image, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
	}

	return image, format, nil
}

// normalizeImageFormat checks the declared format against the allow list and
// the sniffed content type. An empty declaration takes the sniffed format.
func normalizeImageFormat(image []byte, declared string) (string, error) {
	if len(image) == 0 {
		return "", ErrInvalidImage
	}

	sniffed := http.DetectContentType(image)
	if !strings.HasPrefix(sniffed, "image/") {
		return "", ErrInvalidImage
	}

	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared == "" {
		declared = strings.TrimPrefix(sniffed, "image/")
	}

	format, ok := avatarFormats[declared]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImageFormat, declared)
	}
	return format, nil
}
