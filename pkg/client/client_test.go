package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/homeroomhq/homeroom/pkg/models"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/suite"
)

type RoundTripFunc func(req *http.Request) *http.Response

func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

// NewTestClient returns *http.Client with Transport replaced to avoid making real calls
func NewTestClient(fn RoundTripFunc) *http.Client {
	return &http.Client{
		Transport: fn,
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

type ClientTestSuite struct {
	suite.Suite
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) TestDo_decodesList() {
	c := New("http://homeroom.test", WithHTTPClient(NewTestClient(func(req *http.Request) *http.Response {
		s.Equal(http.MethodGet, req.Method)
		s.Equal("http://homeroom.test/api/boards", req.URL.String())
		s.Equal("application/json", req.Header.Get("Accept"))
		s.Empty(req.Header.Get("Content-Type"))
		return jsonResponse(http.StatusOK, `[{"id":"b1","title":"Nature"},{"id":"b2","title":"Math"}]`)
	})))

	var boards []models.Board
	s.Require().NoError(c.Do(context.Background(), http.MethodGet, "/api/boards", nil, &boards))
	s.Require().Len(boards, 2)
	s.Equal(models.ID("b2"), boards[1].ID)
}

func (s *ClientTestSuite) TestDo_sendsJSONBodyAndToken() {
	c := New("http://homeroom.test/", WithAuthToken("secret"), WithHTTPClient(NewTestClient(func(req *http.Request) *http.Response {
		s.Equal(http.MethodPost, req.Method)
		s.Equal("/api/boards/b1/items", req.URL.Path)
		s.Equal("application/json", req.Header.Get("Content-Type"))
		s.Equal("Bearer secret", req.Header.Get("Authorization"))
		body, _ := io.ReadAll(req.Body)
		s.JSONEq(`{"title":"Leaf rubbing"}`, string(body))
		s.Len(req.Header.Get(models.RequestIDHeader), 16)
		return jsonResponse(http.StatusCreated, `{"id":"i1","boardId":"b1","title":"Leaf rubbing"}`)
	})))

	var item models.BoardItem
	err := c.Do(context.Background(), http.MethodPost, "/api/boards/b1/items", models.Patch{"title": "Leaf rubbing"}, &item)
	s.Require().NoError(err)
	s.Equal(models.ID("b1"), item.BoardID)
}

func (s *ClientTestSuite) TestDo_noContentIsNotDecoded() {
	c := New("http://homeroom.test", WithHTTPClient(NewTestClient(func(req *http.Request) *http.Response {
		return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody, Header: make(http.Header)}
	})))

	var out map[string]any
	s.Require().NoError(c.Do(context.Background(), http.MethodDelete, "/api/boards/b1", nil, &out))
	s.Nil(out)
}

func (s *ClientTestSuite) TestDo_statusError() {
	c := New("http://homeroom.test", WithHTTPClient(NewTestClient(func(req *http.Request) *http.Response {
		return jsonResponse(http.StatusNotFound, `{"error":"board not found"}`)
	})))

	err := c.Do(context.Background(), http.MethodGet, "/api/boards/missing", nil, &models.Board{})
	s.Require().Error(err)

	var se *StatusError
	s.Require().ErrorAs(err, &se)
	s.Equal(http.StatusNotFound, se.StatusCode)
	s.Contains(se.Body, "board not found")
	s.False(se.Temporary())
	s.True(IsStatus(err, http.StatusNotFound))
}

func (s *ClientTestSuite) TestDo_decodeError() {
	c := New("http://homeroom.test", WithHTTPClient(NewTestClient(func(req *http.Request) *http.Response {
		return jsonResponse(http.StatusOK, `not json`)
	})))

	err := c.Do(context.Background(), http.MethodGet, "/api/lessons", nil, &[]models.Lesson{})
	s.Require().Error(err)
	s.Contains(err.Error(), "failed to decode response")
}

func (s *ClientTestSuite) TestDo_noBaseURL() {
	s.Require().ErrorIs(New("").Do(context.Background(), http.MethodGet, "/api/boards", nil, nil), ErrNoBaseURL)
}

func (s *ClientTestSuite) TestDo_retriesGET() {
	var calls atomic.Int32
	c := New("http://homeroom.test",
		WithRetryer(NewFixedDelayRetryer(time.Millisecond, 3)),
		WithHTTPClient(NewTestClient(func(req *http.Request) *http.Response {
			if calls.Add(1) < 3 {
				return jsonResponse(http.StatusServiceUnavailable, "")
			}
			return jsonResponse(http.StatusOK, `[]`)
		})),
	)

	var out []models.Resource
	s.Require().NoError(c.Do(context.Background(), http.MethodGet, "/api/resources", nil, &out))
	s.Equal(int32(3), calls.Load())
}

func (s *ClientTestSuite) TestDo_neverRetriesWrites() {
	var calls atomic.Int32
	c := New("http://homeroom.test",
		WithRetryer(NewFixedDelayRetryer(time.Millisecond, 3)),
		WithHTTPClient(NewTestClient(func(req *http.Request) *http.Response {
			calls.Add(1)
			return jsonResponse(http.StatusInternalServerError, "")
		})),
	)

	err := c.Do(context.Background(), http.MethodPut, "/api/resources/r1", models.Patch{"title": "x"}, nil)
	s.Require().Error(err)
	s.Equal(int32(1), calls.Load())
}

func (s *ClientTestSuite) TestDo_retryStopsOnContextCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	c := New("http://homeroom.test",
		WithRetryer(NewFixedDelayRetryer(time.Hour, 3)),
		WithHTTPClient(NewTestClient(func(req *http.Request) *http.Response {
			cancel()
			return jsonResponse(http.StatusBadGateway, "")
		})),
	)

	err := c.Do(ctx, http.MethodGet, "/api/planners", nil, nil)
	s.Require().ErrorIs(err, context.Canceled)
	s.True(IsStatus(err, http.StatusBadGateway))
}

func (s *ClientTestSuite) TestDo_circuitBreakerOpens() {
	var calls atomic.Int32
	c := New("http://homeroom.test",
		WithCircuitBreaker(2, time.Minute),
		WithHTTPClient(NewTestClient(func(req *http.Request) *http.Response {
			calls.Add(1)
			return jsonResponse(http.StatusInternalServerError, "")
		})),
	)

	for range 2 {
		s.Require().Error(c.Do(context.Background(), http.MethodGet, "/api/boards", nil, nil))
	}
	err := c.Do(context.Background(), http.MethodGet, "/api/boards", nil, nil)
	s.Require().ErrorIs(err, gobreaker.ErrOpenState)
	s.Equal(int32(2), calls.Load())
}

func (s *ClientTestSuite) TestDo_clientErrorsDoNotTripBreaker() {
	c := New("http://homeroom.test",
		WithCircuitBreaker(1, time.Minute),
		WithHTTPClient(NewTestClient(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusBadRequest, `{"error":"title is required"}`)
		})),
	)

	for range 3 {
		err := c.Do(context.Background(), http.MethodPost, "/api/boards", models.Patch{}, nil)
		s.Require().True(IsStatus(err, http.StatusBadRequest))
	}
}

func (s *ClientTestSuite) TestHealth() {
	c := New("http://homeroom.test", WithHTTPClient(NewTestClient(func(req *http.Request) *http.Response {
		s.Equal("/api/health", req.URL.Path)
		return jsonResponse(http.StatusOK, `{"status":"ok"}`)
	})))

	health, err := c.Health(context.Background())
	s.Require().NoError(err)
	s.Equal("ok", health["status"])
}

type failingTransport struct{ err error }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) { return nil, f.err }

func (s *ClientTestSuite) TestDo_transportError() {
	boom := errors.New("connection refused")
	c := New("http://homeroom.test", WithHTTPClient(&http.Client{Transport: failingTransport{boom}}))

	err := c.Do(context.Background(), http.MethodGet, "/api/boards", nil, nil)
	s.Require().ErrorIs(err, boom)
	s.False(IsStatus(err, http.StatusInternalServerError))
}

func (s *ClientTestSuite) TestStatusError_message() {
	err := &StatusError{Method: http.MethodGet, Path: "/api/boards", Status: "500 Internal Server Error", Body: "  \n"}
	s.Equal("GET /api/boards: 500 Internal Server Error", err.Error())

	resp := jsonResponse(http.StatusTooManyRequests, "")
	resp.Header.Set("Retry-After", "2")
	req, _ := http.NewRequest(http.MethodGet, "http://homeroom.test/api/boards", bytes.NewReader(nil))
	retry, decodeErr := decodeResponse(New("x").codec, req, resp, nil)
	s.True(retry)
	var se *StatusError
	s.Require().ErrorAs(decodeErr, &se)
	s.Equal(2*time.Second, se.RetryAfter)
}
