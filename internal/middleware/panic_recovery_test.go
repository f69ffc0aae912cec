package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/handlers"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type PanicRecoveryTestSuite struct {
	suite.Suite
	echo *echo.Echo
}

func (s *PanicRecoveryTestSuite) SetupTest() {
	s.echo = echo.New()
}

func TestPanicRecoveryTestSuite(t *testing.T) {
	suite.Run(t, new(PanicRecoveryTestSuite))
}

func (s *PanicRecoveryTestSuite) serve(handler echo.HandlerFunc, prepare func(echo.Context)) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodPost, "/transactions", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	c.SetPath("/transactions")
	if prepare != nil {
		prepare(c)
	}

	var err error
	s.NotPanics(func() {
		err = PanicRecovery()(handler)(c)
	})
	return rec, err
}

func (s *PanicRecoveryTestSuite) TestRecoversWithSystemError() {
	rec, err := s.serve(func(c echo.Context) error {
		panic("nil map write")
	}, func(c echo.Context) {
		c.Set(TraceIDContextKey, "trace-panic")
		c.Set(handlers.UserIDContextKey, uuid.New())
	})

	s.NoError(err)
	s.Equal(http.StatusInternalServerError, rec.Code)

	var body errors.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(string(errors.SystemInternalError), body.Error.Code)
	s.Equal("trace-panic", body.Error.TraceID)
	s.NotContains(rec.Body.String(), "nil map write")
}

func (s *PanicRecoveryTestSuite) TestCountsRecoveredPanicsPerRoute() {
	before := testutil.ToFloat64(recoveredPanicsTotal.WithLabelValues("/transactions"))

	_, _ = s.serve(func(c echo.Context) error {
		panic(42)
	}, nil)

	s.Equal(before+1, testutil.ToFloat64(recoveredPanicsTotal.WithLabelValues("/transactions")))
}

func (s *PanicRecoveryTestSuite) TestCommittedResponseIsLeftAlone() {
	rec, err := s.serve(func(c echo.Context) error {
		c.Response().WriteHeader(http.StatusOK)
		_, _ = c.Response().Write([]byte("partial"))
		panic("renderer failed mid-stream")
	}, nil)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("partial", rec.Body.String())
}

func (s *PanicRecoveryTestSuite) TestAbortHandlerIsRepanicked() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := s.echo.NewContext(req, httptest.NewRecorder())

	handler := PanicRecovery()(func(c echo.Context) error {
		panic(http.ErrAbortHandler)
	})

	s.PanicsWithValue(http.ErrAbortHandler, func() {
		_ = handler(c)
	})
}

func (s *PanicRecoveryTestSuite) TestPassesThroughNormalFlow() {
	rec, err := s.serve(func(c echo.Context) error {
		return c.JSON(http.StatusCreated, map[string]bool{"status": true})
	}, nil)

	s.NoError(err)
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *PanicRecoveryTestSuite) TestDifferentPanicValues() {
	values := map[string]interface{}{
		"string": "boom",
		"int":    7,
		"struct": struct{ msg string }{"error"},
		"nil":    nil,
	}

	for name, value := range values {
		s.Run(name, func() {
			rec, _ := s.serve(func(c echo.Context) error {
				panic(value)
			}, nil)
			s.Equal(http.StatusInternalServerError, rec.Code)
		})
	}
}
