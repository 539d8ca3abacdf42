package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/cloud66-oss/ipbot/provider"
	"github.com/cloud66-oss/ipbot/utils"
	"github.com/labstack/echo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockProvider struct {
	mock.Mock
}

var _ provider.IPProvider = &mockProvider{}

type statusServerTestSuite struct {
	suite.Suite
	provider *mockProvider
	handler  *statusHandler
}

func (mp *mockProvider) Name() string {
	return "mock"
}

func (mp *mockProvider) Lookup(ctx context.Context) (*utils.IPInfo, error) {
	args := mp.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*utils.IPInfo), args.Error(1)
}

func (suite *statusServerTestSuite) SetupTest() {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	suite.provider = &mockProvider{}
	suite.handler = &statusHandler{resolver: suite.provider}
}

func (suite *statusServerTestSuite) newContext(path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)

	return c, rec
}

func (suite *statusServerTestSuite) TestPing() {
	c, rec := suite.newContext("/_ping")

	if suite.Assert().NoError(ping(c)) {
		suite.Assert().EqualValues(http.StatusOK, rec.Code)
		suite.Assert().Equal("pong", rec.Body.String())
	}
}

func (suite *statusServerTestSuite) TestLookup() {
	suite.provider.On("Lookup", mock.Anything).Return(&utils.IPInfo{Address: "203.0.113.7", City: "Berlin"}, nil)

	c, rec := suite.newContext("/v1/ip")

	if suite.Assert().NoError(suite.handler.getIP(c)) {
		suite.Assert().EqualValues(http.StatusOK, rec.Code)

		var info utils.IPInfo
		suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &info))
		suite.Assert().Equal("203.0.113.7", info.Address)
		suite.Assert().Equal("Berlin", info.City)
	}
}

func (suite *statusServerTestSuite) TestLookupNoProvider() {
	suite.provider.On("Lookup", mock.Anything).Return(nil, utils.ErrNoProviderAvailable)

	c, rec := suite.newContext("/v1/ip")

	if suite.Assert().NoError(suite.handler.getIP(c)) {
		suite.Assert().EqualValues(http.StatusServiceUnavailable, rec.Code)

		var resp utils.ErrorResponse
		suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		suite.Assert().Equal("no provider available", resp.Error)
	}
}

func (suite *statusServerTestSuite) TestLookupFailure() {
	suite.provider.On("Lookup", mock.Anything).Return(nil, errors.New("context canceled"))

	c, rec := suite.newContext("/v1/ip")

	if suite.Assert().NoError(suite.handler.getIP(c)) {
		suite.Assert().EqualValues(http.StatusInternalServerError, rec.Code)
	}
}

func (suite *statusServerTestSuite) TestRoutes() {
	suite.provider.On("Lookup", mock.Anything).Return(&utils.IPInfo{Address: "203.0.113.7"}, nil)

	e := newStatusServer(suite.provider)

	req := httptest.NewRequest(http.MethodGet, "/v1/ip", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	suite.Assert().EqualValues(http.StatusOK, rec.Code)
	suite.Assert().NotEmpty(rec.Header().Get(echo.HeaderXRequestID))
	suite.provider.AssertNumberOfCalls(suite.T(), "Lookup", 1)
}

func TestStatusServerTestSuite(t *testing.T) {
	suite.Run(t, new(statusServerTestSuite))
}
