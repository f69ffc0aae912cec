package handlers

import (
	"encoding/base64"
	stderrors "errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/models"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const (
	// avatarFormField is the multipart field that carries an uploaded image.
	avatarFormField = "image"
	// avatarEnvelopeBytes covers the data URI prefix, JSON and multipart framing.
	avatarEnvelopeBytes = 4 << 10
)

// AvatarHandler manages the caller's profile image
type AvatarHandler struct {
	avatarService services.AvatarServiceInterface
	maxBytes      int64
}

func NewAvatarHandler(avatarService services.AvatarServiceInterface, maxBytes int64) *AvatarHandler {
	return &AvatarHandler{
		avatarService: avatarService,
		maxBytes:      maxBytes,
	}
}

// BodyLimit rejects avatar uploads whose body cannot hold an image within the
// size limit, before anything is read or decoded.
func (h *AvatarHandler) BodyLimit() echo.MiddlewareFunc {
	if h.maxBytes <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	limit := base64.StdEncoding.EncodedLen(int(h.maxBytes)) + avatarEnvelopeBytes
	return echomw.BodyLimit(strconv.Itoa(limit))
}

// SetAvatar stores the caller's profile image. The image arrives either as
// a JSON image_base64 data URI or as a multipart file in the "image" field.
// @Summary Upload avatar
// @Description Upload a PNG, JPEG, GIF or WEBP avatar as a base64 data URI or a multipart file
// @Tags Profile
// @Security BearerAuth
// @Accept json,mpfd
// @Produce json
// @Param request body dto.AvatarRequest false "Base64 data URI"
// @Param image formData file false "Image file"
// @Success 200 {object} dto.AvatarResponse "Avatar saved successfully"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 404 {object} errors.ErrorResponse "USER_001 - User not found"
// @Failure 413 {object} errors.ErrorResponse "VALIDATION_009 - Request body is too large"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_008 - Invalid or unsupported image"
// @Failure 422 {object} errors.ErrorResponse "AVATAR_002 - Avatar image is too large"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /avatar [post]
func (h *AvatarHandler) SetAvatar(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var user *models.User
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		image, format, ok, err := h.readUpload(c)
		if !ok {
			return err
		}
		user, err = h.avatarService.SetAvatar(c.Request().Context(), userID, image, format)
		if err != nil {
			return h.handleError(c, err)
		}
	} else {
		var req dto.AvatarRequest
		if ok, err := bindAndValidate(c, &req); !ok {
			return err
		}
		user, err = h.avatarService.SetAvatarFromDataURI(c.Request().Context(), userID, req.ImageBase64)
		if err != nil {
			return h.handleError(c, err)
		}
	}

	avatarURL := ""
	if user.Image != nil {
		avatarURL = *user.Image
	}

	return c.JSON(http.StatusOK, dto.AvatarResponse{
		Status:    true,
		Message:   "Avatar saved successfully",
		AvatarURL: avatarURL,
	})
}

// DeleteAvatar removes the caller's profile image
// @Summary Delete avatar
// @Tags Profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.MessageResponse "Avatar deleted successfully"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 404 {object} errors.ErrorResponse "AVATAR_001 - No avatar to delete"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /avatar [delete]
func (h *AvatarHandler) DeleteAvatar(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	if err := h.avatarService.DeleteAvatar(c.Request().Context(), userID); err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, dto.MessageResponse{
		Status:  true,
		Message: "Avatar deleted successfully",
	})
}

func (h *AvatarHandler) readUpload(c echo.Context) ([]byte, string, bool, error) {
	fileHeader, err := c.FormFile(avatarFormField)
	if bodyTooLarge(err) {
		return nil, "", false, SendError(c, errors.ValidationBodyTooLarge)
	}
	if err != nil {
		return nil, "", false, SendError(c, errors.ValidationRequiredField, errors.WithDetails("image: is required"))
	}
	if h.maxBytes > 0 && fileHeader.Size > h.maxBytes {
		return nil, "", false, SendError(c, errors.AvatarTooLarge)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", false, SendSystemError(c, err)
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return nil, "", false, SendSystemError(c, err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	return image, format, true, nil
}

func (h *AvatarHandler) handleError(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, services.ErrNoAvatar):
		return SendError(c, errors.AvatarNotFound)
	case stderrors.Is(err, services.ErrImageTooLarge):
		return SendError(c, errors.AvatarTooLarge)
	case stderrors.Is(err, services.ErrInvalidImage), stderrors.Is(err, services.ErrUnsupportedImageFormat):
		return SendError(c, errors.ValidationInvalidImage, errors.WithDetails(err.Error()))
	case stderrors.Is(err, services.ErrUserNotFound):
		return SendError(c, errors.UserNotFound)
	default:
		return SendSystemError(c, err)
	}
}
