package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/services"
	"finance-tracker/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

func TestAvatarHandler(t *testing.T) {
	suite.Run(t, new(AvatarHandlerSuite))
}

type AvatarHandlerSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	avatarService *service_mocks.MockAvatarServiceInterface
	handler       *AvatarHandler
	e             *echo.Echo
	userID        uuid.UUID
}

func (s *AvatarHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.avatarService = service_mocks.NewMockAvatarServiceInterface(s.ctrl)
	s.handler = NewAvatarHandler(s.avatarService, 64)
	s.e = newTestEcho()
	s.userID = uuid.New()
}

func (s *AvatarHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AvatarHandlerSuite) TestSetAvatarFromDataURI() {
	uri := "data:image/png;base64,iVBORw0KGgo="
	url := "http://localhost:8080/storage/avatars/a.png"

	s.avatarService.EXPECT().
		SetAvatarFromDataURI(gomock.Any(), s.userID, uri).
		Return(&models.User{ID: s.userID, Image: &url}, nil)

	c, rec := newJSONContext(s.e, http.MethodPost, "/avatar", map[string]string{"image_base64": uri})
	authenticate(c, s.userID)

	s.NoError(s.handler.SetAvatar(c))
	s.Equal(http.StatusOK, rec.Code)

	var response dto.AvatarResponse
	s.NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.True(response.Status)
	s.Equal(url, response.AvatarURL)
}

func (s *AvatarHandlerSuite) TestSetAvatarMissingImage() {
	c, rec := newJSONContext(s.e, http.MethodPost, "/avatar", map[string]string{})
	authenticate(c, s.userID)

	s.NoError(s.handler.SetAvatar(c))
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *AvatarHandlerSuite) TestSetAvatarMalformed() {
	s.avatarService.EXPECT().
		SetAvatarFromDataURI(gomock.Any(), s.userID, "not-a-data-uri").
		Return(nil, services.ErrInvalidImage)

	c, rec := newJSONContext(s.e, http.MethodPost, "/avatar", map[string]string{"image_base64": "not-a-data-uri"})
	authenticate(c, s.userID)

	s.NoError(s.handler.SetAvatar(c))
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal("VALIDATION_008", decodeError(s.T(), rec).Error.Code)
}

func (s *AvatarHandlerSuite) multipartRequest(filename string, content []byte) (echo.Context, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(avatarFormField, filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/avatar", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	authenticate(c, s.userID)
	return c, rec
}

func (s *AvatarHandlerSuite) TestSetAvatarMultipart() {
	content := []byte("\x89PNG\r\n\x1a\nfake")
	url := "http://localhost:8080/storage/avatars/b.png"

	s.avatarService.EXPECT().
		SetAvatar(gomock.Any(), s.userID, content, "png").
		Return(&models.User{ID: s.userID, Image: &url}, nil)

	c, rec := s.multipartRequest("me.PNG", content)

	s.NoError(s.handler.SetAvatar(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *AvatarHandlerSuite) TestSetAvatarMultipartTooLarge() {
	c, rec := s.multipartRequest("big.png", bytes.Repeat([]byte{1}, 128))

	s.NoError(s.handler.SetAvatar(c))
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal("AVATAR_002", decodeError(s.T(), rec).Error.Code)
}

func (s *AvatarHandlerSuite) oversizedDataURI() map[string]string {
	return map[string]string{"image_base64": "data:image/png;base64," + strings.Repeat("A", 8<<10)}
}

func (s *AvatarHandlerSuite) TestSetAvatarBodyOverLimitByContentLength() {
	c, _ := newJSONContext(s.e, http.MethodPost, "/avatar", s.oversizedDataURI())
	authenticate(c, s.userID)

	err := s.handler.BodyLimit()(s.handler.SetAvatar)(c)

	var httpErr *echo.HTTPError
	s.Require().ErrorAs(err, &httpErr)
	s.Equal(http.StatusRequestEntityTooLarge, httpErr.Code)
}

func (s *AvatarHandlerSuite) TestSetAvatarStreamedBodyOverLimit() {
	c, rec := newJSONContext(s.e, http.MethodPost, "/avatar", s.oversizedDataURI())
	c.Request().ContentLength = -1
	authenticate(c, s.userID)

	s.NoError(s.handler.BodyLimit()(s.handler.SetAvatar)(c))
	s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	s.Equal("VALIDATION_009", decodeError(s.T(), rec).Error.Code)
}

func (s *AvatarHandlerSuite) TestSetAvatarBodyWithinLimit() {
	uri := "data:image/png;base64," + strings.Repeat("A", 64)
	s.avatarService.EXPECT().
		SetAvatarFromDataURI(gomock.Any(), s.userID, uri).
		Return(nil, services.ErrImageTooLarge)

	c, rec := newJSONContext(s.e, http.MethodPost, "/avatar", map[string]string{"image_base64": uri})
	authenticate(c, s.userID)

	s.NoError(s.handler.BodyLimit()(s.handler.SetAvatar)(c))
	s.Equal("AVATAR_002", decodeError(s.T(), rec).Error.Code)
}

func (s *AvatarHandlerSuite) TestDeleteAvatar() {
	s.Run("deleted", func() {
		s.avatarService.EXPECT().DeleteAvatar(gomock.Any(), s.userID).Return(nil)

		c, rec := newJSONContext(s.e, http.MethodDelete, "/avatar", nil)
		authenticate(c, s.userID)

		s.NoError(s.handler.DeleteAvatar(c))
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("nothing to delete", func() {
		s.avatarService.EXPECT().DeleteAvatar(gomock.Any(), s.userID).Return(services.ErrNoAvatar)

		c, rec := newJSONContext(s.e, http.MethodDelete, "/avatar", nil)
		authenticate(c, s.userID)

		s.NoError(s.handler.DeleteAvatar(c))
		s.Equal(http.StatusNotFound, rec.Code)

		resp := decodeError(s.T(), rec)
		s.False(resp.Status)
		s.Equal("AVATAR_001", resp.Error.Code)
		s.Equal("No avatar to delete", resp.Message)
	})
}
