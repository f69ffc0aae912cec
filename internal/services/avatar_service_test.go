package services

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/storage"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

type AvatarServiceTestSuite struct {
	suite.Suite
	db      *database.DB
	ctx     context.Context
	root    string
	store   *storage.LocalStore
	metrics *PrometheusMetrics
	service AvatarServiceInterface
	user    *models.User
}

func TestAvatarServiceSuite(t *testing.T) {
	suite.Run(t, new(AvatarServiceTestSuite))
}

func (s *AvatarServiceTestSuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.ctx = context.Background()
	s.root = s.T().TempDir()
	s.metrics = NewPrometheusMetrics(prometheus.NewRegistry()).(*PrometheusMetrics)

	logger := discardLogger()
	store, err := storage.NewLocalStore(s.root, "/storage", "http://localhost:8080", logger)
	s.Require().NoError(err)
	s.store = store

	s.service = NewAvatarService(
		repositories.NewUserRepository(s.db.DB),
		s.store,
		NewAuditService(repositories.NewAuditLogRepository(s.db.DB)),
		NewAuditLogger(logger),
		s.metrics,
		1024,
		logger,
	)

	s.user = database.CreateTestUser(s.T(), s.db, gofakeit.Email())
}

func (s *AvatarServiceTestSuite) storedFile(url string) string {
	name, ok := s.store.PathFromURL(url)
	s.Require().True(ok, "url %s outside storage", url)
	return filepath.Join(s.root, filepath.FromSlash(name))
}

func (s *AvatarServiceTestSuite) reloadImage() *string {
	var user models.User
	s.Require().NoError(s.db.First(&user, "id = ?", s.user.ID).Error)
	return user.Image
}

func (s *AvatarServiceTestSuite) TestSetAvatar() {
	user, err := s.service.SetAvatar(s.ctx, s.user.ID, pngBytes, "png")
	s.Require().NoError(err)
	s.Require().NotNil(user.Image)

	s.Regexp(`^http://localhost:8080/storage/avatars/[0-9a-f-]{36}\.png$`, *user.Image)
	s.FileExists(s.storedFile(*user.Image))
	s.Equal(*user.Image, *s.reloadImage())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.avatarOperationsTotal.WithLabelValues("update")))
}

func (s *AvatarServiceTestSuite) TestSetAvatar_ReplacesPreviousFile() {
	first, err := s.service.SetAvatar(s.ctx, s.user.ID, pngBytes, "png")
	s.Require().NoError(err)
	firstPath := s.storedFile(*first.Image)

	second, err := s.service.SetAvatar(s.ctx, s.user.ID, pngBytes, "")
	s.Require().NoError(err)

	s.NotEqual(*first.Image, *second.Image)
	s.NoFileExists(firstPath)
	s.FileExists(s.storedFile(*second.Image))
}

func (s *AvatarServiceTestSuite) TestSetAvatar_PreviousFileMissing() {
	first, err := s.service.SetAvatar(s.ctx, s.user.ID, pngBytes, "png")
	s.Require().NoError(err)
	s.Require().NoError(os.Remove(s.storedFile(*first.Image)))

	_, err = s.service.SetAvatar(s.ctx, s.user.ID, pngBytes, "png")
	s.NoError(err)
}

func (s *AvatarServiceTestSuite) TestSetAvatarFromDataURI() {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	user, err := s.service.SetAvatarFromDataURI(s.ctx, s.user.ID, uri)
	s.Require().NoError(err)
	s.FileExists(s.storedFile(*user.Image))
}

func (s *AvatarServiceTestSuite) TestSetAvatarFromDataURI_Malformed() {
	_, err := s.service.SetAvatarFromDataURI(s.ctx, s.user.ID, "not-a-data-uri")
	s.ErrorIs(err, ErrInvalidImage)

	_, err = s.service.SetAvatarFromDataURI(s.ctx, s.user.ID, "data:text/plain;base64,aGVsbG8=")
	s.ErrorIs(err, ErrInvalidImage)

	_, err = s.service.SetAvatarFromDataURI(s.ctx, s.user.ID, "data:image/png;base64,!!!")
	s.ErrorIs(err, ErrInvalidImage)

	s.Nil(s.reloadImage())
}

func (s *AvatarServiceTestSuite) TestSetAvatar_Rejections() {
	_, err := s.service.SetAvatar(s.ctx, s.user.ID, pngBytes, "bmp")
	s.ErrorIs(err, ErrUnsupportedImageFormat)

	_, err = s.service.SetAvatar(s.ctx, s.user.ID, []byte("plain text, not an image"), "png")
	s.ErrorIs(err, ErrInvalidImage)

	large := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 2048)...)
	_, err = s.service.SetAvatar(s.ctx, s.user.ID, large, "png")
	s.ErrorIs(err, ErrImageTooLarge)
}

func (s *AvatarServiceTestSuite) TestDeleteAvatar() {
	user, err := s.service.SetAvatar(s.ctx, s.user.ID, pngBytes, "png")
	s.Require().NoError(err)
	path := s.storedFile(*user.Image)

	s.Require().NoError(s.service.DeleteAvatar(s.ctx, s.user.ID))
	s.NoFileExists(path)
	s.Nil(s.reloadImage())

	s.ErrorIs(s.service.DeleteAvatar(s.ctx, s.user.ID), ErrNoAvatar)
}

func TestNormalizeImageFormat(t *testing.T) {
	jpeg := append([]byte{0xFF, 0xD8, 0xFF}, make([]byte, 16)...)

	format, err := normalizeImageFormat(jpeg, "JPG")
	assert.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	format, err = normalizeImageFormat(jpeg, "")
	assert.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	_, err = normalizeImageFormat(nil, "png")
	assert.ErrorIs(t, err, ErrInvalidImage)
}
