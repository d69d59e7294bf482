package customerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stellar/customer-intake-backend/internal/intake"
	"github.com/stellar/customer-intake-backend/internal/monitor"
	"github.com/stellar/customer-intake-backend/internal/serve/httpclient"
)

const testBaseURL = "http://localhost:3001"

func newClientWithMock(t *testing.T) (*Client, *httpclient.HTTPClientMock) {
	t.Helper()

	httpClientMock := httpclient.NewHTTPClientMock(t)
	c, err := NewClient(ClientOptions{
		BaseURL:    testBaseURL,
		HTTPClient: httpClientMock,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return c, httpClientMock
}

func jsonResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func assertRequest(t *testing.T, method, url string) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		req, ok := args.Get(0).(*http.Request)
		require.True(t, ok)
		assert.Equal(t, method, req.Method)
		assert.Equal(t, url, req.URL.String())
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
	}
}

func Test_ClientOptions_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		baseURL   string
		wantError string
	}{
		{"missing", "", "base URL is required"},
		{"relative", "localhost:3001", `base URL "localhost:3001" must use http or https`},
		{"not a URL", "%%", `parsing base URL "%%"`},
		{"valid", testBaseURL, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ClientOptions{BaseURL: tc.baseURL}.Validate()
			if tc.wantError == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantError)
			}
		})
	}
}

func Test_NewClient_defaults(t *testing.T) {
	c, err := NewClient(ClientOptions{BaseURL: testBaseURL})
	require.NoError(t, err)
	assert.NotNil(t, c.httpClient)
	assert.NotNil(t, c.cache)
	assert.Equal(t, uint(DefaultRetryAttempts), c.retryAttempts)
	assert.Equal(t, DefaultRetryDelay, c.retryDelay)
	assert.Equal(t, DefaultLoadCacheTTL, c.cacheTTL)

	c, err = NewClient(ClientOptions{BaseURL: testBaseURL, LoadCacheTTL: -1})
	require.NoError(t, err)
	assert.Nil(t, c.cache)
}

func Test_Client_List(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes legacy and structured records", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusOK, `[
				{"id": 1, "name": "Jane Marie Doe", "dateOfBirth": "1990-01-01T00:00:00Z"},
				{"id": "abc", "name": {"firstName": "John", "lastName": "Roe"}, "identityProofs": [{"type": "Tax ID", "documentNumber": "T1"}]}
			]`), nil).
			Run(assertRequest(t, http.MethodGet, testBaseURL+"/api/customer")).
			Once()

		records, err := c.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, "1", records[0].ID)
		assert.Equal(t, intake.CustomerName{FirstName: "Jane", MiddleName: "Marie", LastName: "Doe"}, records[0].Name)
		assert.Equal(t, intake.Date("1990-01-01"), records[0].DateOfBirth)
		assert.NotNil(t, records[0].IdentityDocuments)

		assert.Equal(t, "abc", records[1].ID)
		assert.Equal(t, intake.VerificationStatusPending, records[1].IdentityProofs[0].VerificationStatus)
	})

	t.Run("retries server errors", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusBadGateway, `upstream down`), nil).
			Once()
		httpClientMock.
			On("Do", mock.Anything).
			Return(nil, errors.New("connection reset")).
			Once()
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusOK, `[]`), nil).
			Once()

		records, err := c.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		for range DefaultRetryAttempts {
			httpClientMock.
				On("Do", mock.Anything).
				Return(jsonResponse(http.StatusInternalServerError, `boom`), nil).
				Once()
		}

		records, err := c.List(ctx)
		assert.Nil(t, records)
		require.ErrorIs(t, err, ErrFetchFailed)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
		assert.Equal(t, "boom", statusErr.Body)
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusBadRequest, `{"error":"bad"}`), nil).
			Once()

		_, err := c.List(ctx)
		require.ErrorIs(t, err, ErrFetchFailed)
		assert.NotErrorIs(t, err, intake.ErrRecordNotFound)
	})

	t.Run("malformed body is not retried", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusOK, `{"not": "a list"}`), nil).
			Once()

		_, err := c.List(ctx)
		assert.ErrorContains(t, err, "decoding response body")
	})
}

func Test_Client_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("missing id", func(t *testing.T) {
		c, _ := newClientWithMock(t)
		_, err := c.Load(ctx, "")
		assert.ErrorIs(t, err, intake.ErrMissingID)
	})

	t.Run("not found", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusNotFound, `{"error":"Customer not found"}`), nil).
			Run(assertRequest(t, http.MethodGet, testBaseURL+"/api/customer/42")).
			Once()

		_, err := c.Load(ctx, "42")
		require.ErrorIs(t, err, intake.ErrRecordNotFound)
		require.ErrorIs(t, err, ErrFetchFailed)
		assert.ErrorContains(t, err, "loading customer 42")
	})

	t.Run("second load is served from the cache", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusOK, `{"id": 42, "name": "Jane Doe"}`), nil).
			Once()

		first, err := c.Load(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "Jane", first.Name.FirstName)

		first.Name.FirstName = "mutated"
		second, err := c.Load(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "Jane", second.Name.FirstName)
	})

	t.Run("update replaces the cached record", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusOK, `{"id": "42", "name": "Jane Doe"}`), nil).
			Run(assertRequest(t, http.MethodGet, testBaseURL+"/api/customer/42")).
			Once()
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusOK, `{"id": "42", "name": {"firstName": "Janet", "lastName": "Doe"}}`), nil).
			Run(assertRequest(t, http.MethodPut, testBaseURL+"/api/customer/42")).
			Once()

		record, err := c.Load(ctx, "42")
		require.NoError(t, err)

		record.Name.FirstName = "Janet"
		_, err = c.Update(ctx, "42", record)
		require.NoError(t, err)

		reloaded, err := c.Load(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "Janet", reloaded.Name.FirstName)
	})
}

func Test_Client_Save(t *testing.T) {
	ctx := context.Background()
	record := intake.CustomerRecord{
		ID:          "ignored",
		Name:        intake.CustomerName{FirstName: "Jane", LastName: "Doe"},
		DateOfBirth: "1990-01-01",
		IdentityProofs: []intake.IdentityProof{
			{Type: intake.ProofTypeTaxID, DocumentNumber: "T1", VerificationStatus: intake.VerificationStatusPending},
		},
	}

	t.Run("posts the record without id", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusCreated, `{"id": 7, "name": {"firstName": "Jane", "lastName": "Doe"}, "dateOfBirth": "1990-01-01"}`), nil).
			Run(func(args mock.Arguments) {
				req := args.Get(0).(*http.Request)
				assert.Equal(t, http.MethodPost, req.Method)
				assert.Equal(t, testBaseURL+"/api/customer", req.URL.String())
				assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

				var sent map[string]any
				require.NoError(t, json.NewDecoder(req.Body).Decode(&sent))
				assert.NotContains(t, sent, "id")
				assert.Equal(t, map[string]any{"firstName": "Jane", "middleName": "", "lastName": "Doe"}, sent["name"])
			}).
			Once()

		saved, err := c.Save(ctx, record)
		require.NoError(t, err)
		assert.Equal(t, "7", saved.ID)
		assert.NotNil(t, saved.IdentityProofs)
	})

	t.Run("writes are not retried", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusServiceUnavailable, ``), nil).
			Once()

		_, err := c.Save(ctx, record)
		require.ErrorIs(t, err, ErrFetchFailed)
		assert.ErrorContains(t, err, "creating customer")
	})

	t.Run("transport error", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		testError := errors.New("dial tcp: refused")
		httpClientMock.
			On("Do", mock.Anything).
			Return(nil, testError).
			Once()

		_, err := c.Save(ctx, record)
		assert.ErrorIs(t, err, testError)
		assert.EqualError(t, err, fmt.Errorf("creating customer: making request: %w", testError).Error())
	})
}

func Test_Client_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("missing id", func(t *testing.T) {
		c, _ := newClientWithMock(t)
		_, err := c.Update(ctx, "", intake.CustomerRecord{})
		assert.ErrorIs(t, err, intake.ErrMissingID)
	})

	t.Run("not found", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusNotFound, ``), nil).
			Once()

		_, err := c.Update(ctx, "9", intake.CustomerRecord{ID: "9"})
		assert.ErrorIs(t, err, intake.ErrRecordNotFound)
	})

	t.Run("a load cached during the write is replaced by the stored record", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		stale := intake.CustomerRecord{ID: "42", Name: intake.CustomerName{FirstName: "Jane", LastName: "Doe"}}
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusOK, `{"id": "42", "name": {"firstName": "Janet", "lastName": "Doe"}}`), nil).
			Run(func(args mock.Arguments) {
				assertRequest(t, http.MethodPut, testBaseURL+"/api/customer/42")(args)
				c.remember("42", stale)
			}).
			Once()

		saved, err := c.Update(ctx, "42", intake.CustomerRecord{ID: "42", Name: intake.CustomerName{FirstName: "Janet", LastName: "Doe"}})
		require.NoError(t, err)
		assert.Equal(t, "Janet", saved.Name.FirstName)

		// Served from the cache: the mock allows no further request.
		reloaded, err := c.Load(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "Janet", reloaded.Name.FirstName)
	})

	t.Run("a failed write drops the cached record", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		stale := intake.CustomerRecord{ID: "42", Name: intake.CustomerName{FirstName: "Jane", LastName: "Doe"}}
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusServiceUnavailable, ``), nil).
			Run(func(args mock.Arguments) {
				assertRequest(t, http.MethodPut, testBaseURL+"/api/customer/42")(args)
				c.remember("42", stale)
			}).
			Once()

		_, err := c.Update(ctx, "42", stale)
		require.ErrorIs(t, err, ErrFetchFailed)

		_, found := c.cached("42")
		assert.False(t, found)
	})
}

func Test_Client_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusNoContent, ``), nil).
			Run(assertRequest(t, http.MethodDelete, testBaseURL+"/api/customer/42")).
			Once()

		require.NoError(t, c.Delete(ctx, "42"))
	})

	t.Run("not found", func(t *testing.T) {
		c, httpClientMock := newClientWithMock(t)
		httpClientMock.
			On("Do", mock.Anything).
			Return(jsonResponse(http.StatusNotFound, ``), nil).
			Once()

		err := c.Delete(ctx, "42")
		assert.ErrorIs(t, err, intake.ErrRecordNotFound)
	})
}

func Test_Client_monitorsRequests(t *testing.T) {
	httpClientMock := httpclient.NewHTTPClientMock(t)
	monitorMock := monitor.NewMockMonitorService(t)
	c, err := NewClient(ClientOptions{
		BaseURL:        testBaseURL,
		HTTPClient:     httpClientMock,
		MonitorService: monitorMock,
		LoadCacheTTL:   -1,
	})
	require.NoError(t, err)

	httpClientMock.
		On("Do", mock.Anything).
		Return(jsonResponse(http.StatusNotFound, ``), nil).
		Once()

	wantLabels := monitor.CustomerAPILabels{
		Method:     http.MethodGet,
		Endpoint:   "/api/customer/{id}",
		Status:     "success",
		StatusCode: "404",
	}.ToMap()
	monitorMock.On("MonitorCounters", monitor.CustomerAPIRequestsTotalTag, wantLabels).Return(nil).Once()
	monitorMock.On("MonitorHistogram", mock.AnythingOfType("float64"), monitor.CustomerAPIRequestDurationTag, wantLabels).Return(nil).Once()

	_, err = c.Load(context.Background(), "42")
	assert.ErrorIs(t, err, intake.ErrRecordNotFound)
}

func Test_StatusError(t *testing.T) {
	err := &StatusError{Method: http.MethodGet, URL: "http://x/api/customer", StatusCode: http.StatusTooManyRequests}
	assert.EqualError(t, err, "GET http://x/api/customer returned status 429")
	assert.False(t, err.IsClientError())
	assert.True(t, errors.Is(err, ErrFetchFailed))

	err = &StatusError{StatusCode: http.StatusConflict, Body: "taken"}
	assert.True(t, err.IsClientError())
	assert.Contains(t, err.Error(), ": taken")
}
