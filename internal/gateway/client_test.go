package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL), WithRateLimit(1000))
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		_ = json.NewEncoder(w).Encode([]core.Account{{ID: "a1", Name: "Wallet", Type: core.Cash}})
	})

	_, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.NotEmpty(t, gotRequestID)

	c.SetToken("abc")
	accounts, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Wallet", accounts[0].Name)

	c.SetToken("")
	_, err = c.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestListTransactionsDecodesEnvelope(t *testing.T) {
	var gotQuery url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transactions", r.URL.Path)
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"transactions":[{"id":"t1","type":"EXPENSE","amount":50.5,"description":"Lunch","date":"2024-03-01T12:00:00Z","categoryId":"c1","accountId":"a1","isRecurring":false}]}`))
	})

	params := core.FilterSet{Type: core.Expense, TagIDs: []string{"x", "y"}}.Params(2, 20)
	txs, err := c.ListTransactions(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(5050), txs[0].Amount.Cents)
	assert.Equal(t, "2", gotQuery.Get("page"))
	assert.Equal(t, "EXPENSE", gotQuery.Get("type"))
	assert.Equal(t, "x,y", gotQuery.Get("tagIds"))
}

func TestLoginDecodesUserAndToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@example.com", body["email"])
		_, _ = w.Write([]byte(`{"user":{"id":"u1","name":"Ana","email":"ana@example.com"},"token":"jwt"}`))
	})

	res, err := c.Login(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
	assert.Equal(t, "u1", res.User.ID)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"invalid token"}`, core.ErrAuthentication},
		{"forbidden", http.StatusForbidden, ``, core.ErrAuthentication},
		{"not found", http.StatusNotFound, `{"message":"missing"}`, core.ErrNotFound},
		{"conflict", http.StatusConflict, `{"message":"cannot delete"}`, core.ErrReferentialIntegrity},
		{"bad request referenced", http.StatusBadRequest, `{"error":"Category is in use by transactions"}`, core.ErrReferentialIntegrity},
		{"bad request validation", http.StatusBadRequest, `{"message":"name is required"}`, core.ErrValidation},
		{"unprocessable", http.StatusUnprocessableEntity, `name too long`, core.ErrValidation},
		{"server error", http.StatusInternalServerError, ``, core.ErrTransientNetwork},
		{"too many requests", http.StatusTooManyRequests, ``, core.ErrTransientNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			err := c.DeleteCategory(context.Background(), "c1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "/api/categories/c1", apiErr.Endpoint)
		})
	}
}

func TestTransportFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(WithBaseURL(srv.URL))

	_, err := c.ListTags(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTransientNetwork)
	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestDeleteAcceptsNoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.DeleteTransaction(context.Background(), "t1"))
}

func TestTransactionsByTagPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags/t%201/transactions", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`[]`))
	})
	txs, err := c.TransactionsByTag(context.Background(), "t 1")
	require.NoError(t, err)
	assert.Empty(t, txs)
}
