package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ssargent/msgstore/internal/mocks"
	"github.com/ssargent/msgstore/pkg/codec"
	"github.com/ssargent/msgstore/pkg/idalloc"
	"github.com/ssargent/msgstore/pkg/memory"
	"github.com/ssargent/msgstore/pkg/message"
	"github.com/ssargent/msgstore/pkg/service"
	"github.com/ssargent/msgstore/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type tickClock struct {
	now atomic.Uint64
}

func (c *tickClock) Now() uint64 {
	return c.now.Add(1)
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	mem, err := memory.Open(memory.Options{InMemory: true, NoSync: true})
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })

	ids, err := idalloc.New(mem.Get(0))
	require.NoError(t, err)
	records := store.NewDurableStore(mem.Get(1), codec.NewRecordCodec())

	svc := service.New(records, ids, &tickClock{}, nil)
	return NewServer(svc, ServerConfig{}, NewMetrics(), nil).WithStorage(mem)
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) message.Message {
	t.Helper()
	var response struct {
		Success bool            `json:"success"`
		Data    message.Message `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.True(t, response.Success)
	return response.Data
}

func addMessage(t *testing.T, server *Server, body string) message.Message {
	t.Helper()
	req := httptest.NewRequest("POST", "/messages", strings.NewReader(body))
	w := httptest.NewRecorder()
	server.handleAddMessage(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeMessage(t, w)
}

func TestServer_handleHealth(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.True(t, response.Success)
	assert.NotNil(t, response.Data)
}

func TestServer_handleAddMessage(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{
			name:           "valid message",
			body:           `{"title":"T","body":"B","attachment_url":"U"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "empty fields are accepted",
			body:           `{}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed json",
			body:           `{"title":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "record too large",
			body:           `{"title":"` + strings.Repeat("x", codec.MaxRecordSize) + `"}`,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:           "body over transport limit",
			body:           `{"title":"` + strings.Repeat("x", maxBodyBytes) + `"}`,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/messages", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			server.handleAddMessage(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestServer_AddThenGet(t *testing.T) {
	server := setupTestServer(t)

	created := addMessage(t, server, `{"title":"T","body":"B","attachment_url":"U"}`)
	assert.Equal(t, uint64(1), created.ID)
	assert.Nil(t, created.UpdatedAt)

	w := httptest.NewRecorder()
	server.handleGetMessage(w, withID(httptest.NewRequest("GET", "/messages/1", nil), "1"))
	require.Equal(t, http.StatusOK, w.Code)

	got := decodeMessage(t, w)
	assert.True(t, created.Equal(got))
	assert.Equal(t, "T", got.Title)
}

func TestServer_handleGetMessage(t *testing.T) {
	server := setupTestServer(t)
	addMessage(t, server, `{"title":"T"}`)

	tests := []struct {
		name           string
		id             string
		expectedStatus int
		expectedError  string
	}{
		{name: "existing", id: "1", expectedStatus: http.StatusOK},
		{name: "missing", id: "5", expectedStatus: http.StatusNotFound, expectedError: "message with id=5 not found"},
		{name: "not a number", id: "abc", expectedStatus: http.StatusBadRequest},
		{name: "negative", id: "-1", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.handleGetMessage(w, withID(httptest.NewRequest("GET", "/messages/"+tt.id, nil), tt.id))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				var response APIResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.False(t, response.Success)
				assert.Equal(t, tt.expectedError, response.Error)
			}
		})
	}
}

func TestServer_handleUpdateMessage(t *testing.T) {
	server := setupTestServer(t)
	created := addMessage(t, server, `{"title":"T","body":"B","attachment_url":"U"}`)

	req := httptest.NewRequest("PUT", "/messages/1", strings.NewReader(`{"title":"T2","body":"B2","attachment_url":"U2"}`))
	w := httptest.NewRecorder()
	server.handleUpdateMessage(w, withID(req, "1"))
	require.Equal(t, http.StatusOK, w.Code)

	updated := decodeMessage(t, w)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "T2", updated.Title)
	require.NotNil(t, updated.UpdatedAt)

	req = httptest.NewRequest("PUT", "/messages/9", strings.NewReader(`{"title":"x"}`))
	w = httptest.NewRecorder()
	server.handleUpdateMessage(w, withID(req, "9"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest("PUT", "/messages/1", strings.NewReader(`not json`))
	w = httptest.NewRecorder()
	server.handleUpdateMessage(w, withID(req, "1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_handleDeleteMessage(t *testing.T) {
	server := setupTestServer(t)
	addMessage(t, server, `{"title":"T"}`)

	w := httptest.NewRecorder()
	server.handleDeleteMessage(w, withID(httptest.NewRequest("DELETE", "/messages/1", nil), "1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "T", decodeMessage(t, w).Title)

	w = httptest.NewRecorder()
	server.handleDeleteMessage(w, withID(httptest.NewRequest("DELETE", "/messages/1", nil), "1"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// ids are never reused after a delete
	assert.Equal(t, uint64(2), addMessage(t, server, `{"title":"next"}`).ID)
}

func TestServer_handleListMessages(t *testing.T) {
	server := setupTestServer(t)
	for i := 0; i < 5; i++ {
		addMessage(t, server, `{"title":"m"}`)
	}

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedIDs    []uint64
		expectedNext   uint64
	}{
		{name: "all", query: "", expectedStatus: http.StatusOK, expectedIDs: []uint64{1, 2, 3, 4, 5}},
		{name: "first page", query: "?limit=2", expectedStatus: http.StatusOK, expectedIDs: []uint64{1, 2}, expectedNext: 2},
		{name: "after cursor", query: "?after=2&limit=2", expectedStatus: http.StatusOK, expectedIDs: []uint64{3, 4}, expectedNext: 4},
		{name: "past the end", query: "?after=5", expectedStatus: http.StatusOK, expectedIDs: []uint64{}},
		{name: "bad after", query: "?after=x", expectedStatus: http.StatusBadRequest},
		{name: "bad limit", query: "?limit=-3", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.handleListMessages(w, httptest.NewRequest("GET", "/messages"+tt.query, nil))

			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var response struct {
				Data MessageList `json:"data"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

			ids := make([]uint64, 0, len(response.Data.Messages))
			for _, m := range response.Data.Messages {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
			assert.Equal(t, tt.expectedNext, response.Data.Next)
		})
	}
}

func TestServer_handleListMessagesCapsPageSize(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()
	total := service.MaxListLimit + 5
	for i := 0; i < total; i++ {
		_, err := server.svc.AddMessage(ctx, message.Payload{Title: "m"})
		require.NoError(t, err)
	}

	fetch := func(query string) MessageList {
		w := httptest.NewRecorder()
		server.handleListMessages(w, httptest.NewRequest("GET", "/messages"+query, nil))
		require.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Data MessageList `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		return response.Data
	}

	first := fetch("?limit=5000")
	require.Len(t, first.Messages, service.MaxListLimit)
	assert.Equal(t, uint64(service.MaxListLimit), first.Next)

	rest := fetch("?limit=5000&after=" + strconv.FormatUint(first.Next, 10))
	assert.Len(t, rest.Messages, 5)
	assert.Zero(t, rest.Next)
}

func TestServer_handleStats(t *testing.T) {
	server := setupTestServer(t)
	addMessage(t, server, `{"title":"a"}`)
	addMessage(t, server, `{"title":"b"}`)

	w := httptest.NewRecorder()
	server.handleDeleteMessage(w, withID(httptest.NewRequest("DELETE", "/messages/1", nil), "1"))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	server.handleStats(w, httptest.NewRequest("GET", "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Success bool          `json:"success"`
		Data    StatsResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.True(t, response.Success)
	assert.Equal(t, 1, response.Data.Messages)
	assert.Equal(t, uint64(2), response.Data.LastID)
}

func TestServer_ServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "not found",
			err:            &service.NotFoundError{Msg: "message with id=7 not found"},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "record too large",
			err:            codec.ErrRecordTooLarge,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:           "storage failure",
			err:            errors.New("disk on fire"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockMessageService(ctrl)
			svc.EXPECT().
				UpdateMessage(gomock.Any(), uint64(7), message.Payload{Title: "x"}).
				Return(message.Message{}, tt.err)

			server := NewServer(svc, ServerConfig{}, nil, nil)

			req := httptest.NewRequest("PUT", "/messages/7", bytes.NewBufferString(`{"title":"x"}`))
			w := httptest.NewRecorder()
			server.handleUpdateMessage(w, withID(req, "7"))

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response APIResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.False(t, response.Success)
			assert.NotEmpty(t, response.Error)
			if tt.expectedStatus == http.StatusInternalServerError {
				assert.NotContains(t, response.Error, "disk on fire")
			}
		})
	}
}

func TestServer_InvalidIDSkipsService(t *testing.T) {
	ctrl := gomock.NewController(t)
	// No expectations: any call fails the test
	svc := mocks.NewMockMessageService(ctrl)
	server := NewServer(svc, ServerConfig{}, nil, nil)

	w := httptest.NewRecorder()
	server.handleDeleteMessage(w, withID(httptest.NewRequest("DELETE", "/messages/x", nil), "x"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
