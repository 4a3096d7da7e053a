package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "userdesk/internal/domain/user"
	"userdesk/pkg/logger"
)

// recordedRequest captures what the fake backend received.
type recordedRequest struct {
	Method    string
	Path      string
	Query     url.Values
	Form      url.Values
	Accept    string
	RequestID string
}

// fakeBackend answers every request with a fixed status and body.
type fakeBackend struct {
	server *httptest.Server
	hits   atomic.Int32
	last   atomic.Pointer[recordedRequest]
}

func newFakeBackend(t *testing.T, status int, body string) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	fb.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.hits.Add(1)
		_ = r.ParseForm()
		fb.last.Store(&recordedRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.Query(),
			Form:      r.PostForm,
			Accept:    r.Header.Get("Accept"),
			RequestID: r.Header.Get(logger.RequestIDHeader),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(fb.server.Close)
	return fb
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: baseURL, Timeout: 2 * time.Second}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func validUser() *domain.User {
	return &domain.User{LastName: "Dupont", FirstName: "Jean", Age: 30}
}

func TestNew(t *testing.T) {
	c, err := New(Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.http.Timeout)

	c, err = New(Config{BaseURL: "http://example.test/backend"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/backend/", c.BaseURL())

	_, err = New(Config{BaseURL: "ftp://example.test/"}, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "http://[::1"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestListUsers(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   []domain.User
	}{
		{
			name:   "users",
			status: http.StatusOK,
			body:   `[{"id":1,"nom":"Dupont","prenom":"Jean","age":30},{"id":2,"nom":"Martin","prenom":"Claire","age":42}]`,
			want: []domain.User{
				{ID: 1, LastName: "Dupont", FirstName: "Jean", Age: 30},
				{ID: 2, LastName: "Martin", FirstName: "Claire", Age: 42},
			},
		},
		{
			name:   "numbers as strings",
			status: http.StatusOK,
			body:   `[{"id":"1","nom":"Dupont","prenom":"Jean","age":"30"}]`,
			want:   []domain.User{{ID: 1, LastName: "Dupont", FirstName: "Jean", Age: 30}},
		},
		{name: "non-numeric age", status: http.StatusOK, body: `[{"id":1,"nom":"Dupont","prenom":"Jean","age":"trente"}]`, want: []domain.User{}},
		{name: "empty array", status: http.StatusOK, body: `[]`, want: []domain.User{}},
		{name: "empty body", status: http.StatusOK, body: ``, want: []domain.User{}},
		{name: "whitespace body", status: http.StatusOK, body: "  \n", want: []domain.User{}},
		{name: "json null", status: http.StatusOK, body: `null`, want: []domain.User{}},
		{name: "malformed json", status: http.StatusOK, body: `[{"id":1,"nom":`, want: []domain.User{}},
		{name: "object instead of array", status: http.StatusOK, body: `{"success":false}`, want: []domain.User{}},
		{name: "server error", status: http.StatusInternalServerError, body: `[{"id":1}]`, want: []domain.User{}},
		{name: "not found", status: http.StatusNotFound, body: ``, want: []domain.User{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t, tt.status, tt.body)
			c := newTestClient(t, fb.server.URL+"/backend/")

			got := c.ListUsers(context.Background())

			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int32(1), fb.hits.Load())

			req := fb.last.Load()
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, "/backend/list.php", req.Path)
			assert.Equal(t, "application/json", req.Accept)
			assert.NotEmpty(t, req.RequestID)
		})
	}
}

func TestListUsers_TransportFailure(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `[]`)
	addr := fb.server.URL
	fb.server.Close()

	c := newTestClient(t, addr)
	got := c.ListUsers(context.Background())
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListUsers_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	got := c.ListUsers(context.Background())
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListUsers_PropagatesRequestID(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `[]`)
	c := newTestClient(t, fb.server.URL)

	ctx := logger.WithRequestID(context.Background(), "req-123")
	c.ListUsers(ctx)

	assert.Equal(t, "req-123", fb.last.Load().RequestID)
}

func TestGetUser(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		fb := newFakeBackend(t, http.StatusOK, `{"id":7,"nom":"Dupont","prenom":"Jean","age":30}`)
		c := newTestClient(t, fb.server.URL)

		got := c.GetUser(context.Background(), 7)

		require.NotNil(t, got)
		assert.Equal(t, domain.User{ID: 7, LastName: "Dupont", FirstName: "Jean", Age: 30}, *got)
		req := fb.last.Load()
		assert.Equal(t, "/details.php", req.Path)
		assert.Equal(t, "7", req.Query.Get("id"))
	})

	t.Run("numbers as strings", func(t *testing.T) {
		fb := newFakeBackend(t, http.StatusOK, `{"id":"7","nom":"Dupont","prenom":"Jean","age":" 30 "}`)
		c := newTestClient(t, fb.server.URL)

		got := c.GetUser(context.Background(), 7)

		require.NotNil(t, got)
		assert.Equal(t, domain.User{ID: 7, LastName: "Dupont", FirstName: "Jean", Age: 30}, *got)
	})

	absent := []struct {
		name   string
		status int
		body   string
	}{
		{"empty body", http.StatusOK, ``},
		{"json null", http.StatusOK, `null`},
		{"empty object", http.StatusOK, `{}`},
		{"error object", http.StatusOK, `{"success":false,"message":"user not found"}`},
		{"malformed json", http.StatusOK, `{"id":`},
		{"non-numeric id", http.StatusOK, `{"id":"seven","nom":"Dupont","prenom":"Jean","age":30}`},
		{"server error", http.StatusInternalServerError, `{"id":7}`},
	}
	for _, tt := range absent {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t, tt.status, tt.body)
			c := newTestClient(t, fb.server.URL)

			assert.Nil(t, c.GetUser(context.Background(), 7))
			assert.Equal(t, int32(1), fb.hits.Load())
		})
	}
}

func TestNonPositiveIDsNeverReachTheNetwork(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{"success":true}`)
	c := newTestClient(t, fb.server.URL)
	ctx := context.Background()

	for _, id := range []int64{0, -1, -99999} {
		assert.Nil(t, c.GetUser(ctx, id), "GetUser(%d)", id)
		assert.False(t, c.DeleteUser(ctx, id), "DeleteUser(%d)", id)

		u := validUser()
		u.ID = id
		assert.False(t, c.UpdateUser(ctx, u), "UpdateUser(id=%d)", id)
	}

	assert.Equal(t, int32(0), fb.hits.Load())
}

func TestInvalidUsersNeverReachTheNetwork(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{"success":true}`)
	c := newTestClient(t, fb.server.URL)
	ctx := context.Background()

	invalid := []struct {
		name string
		user *domain.User
	}{
		{"nil user", nil},
		{"empty last name", &domain.User{ID: 1, FirstName: "Jean", Age: 30}},
		{"empty first name", &domain.User{ID: 1, LastName: "Dupont", Age: 30}},
		{"blank last name", &domain.User{ID: 1, LastName: "   ", FirstName: "Jean", Age: 30}},
		{"blank first name", &domain.User{ID: 1, LastName: "Dupont", FirstName: "\t", Age: 30}},
		{"zero age", &domain.User{ID: 1, LastName: "Dupont", FirstName: "Jean", Age: 0}},
		{"negative age", &domain.User{ID: 1, LastName: "Dupont", FirstName: "Jean", Age: -5}},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, c.CreateUser(ctx, tt.user))
			assert.False(t, c.UpdateUser(ctx, tt.user))
		})
	}

	assert.Equal(t, int32(0), fb.hits.Load())
}

func TestCreateUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fb := newFakeBackend(t, http.StatusOK, `{"success": true}`)
		c := newTestClient(t, fb.server.URL)

		u := validUser()
		u.ID = 55 // ignored on create
		assert.True(t, c.CreateUser(context.Background(), u))

		req := fb.last.Load()
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/create.php", req.Path)
		assert.Equal(t, "Dupont", req.Form.Get("nom"))
		assert.Equal(t, "Jean", req.Form.Get("prenom"))
		assert.Equal(t, "30", req.Form.Get("age"))
		assert.False(t, req.Form.Has("id"))
	})

	// Age above the form's upper bound is still accepted by the client.
	t.Run("client only requires a positive age", func(t *testing.T) {
		fb := newFakeBackend(t, http.StatusOK, `{"success":true}`)
		c := newTestClient(t, fb.server.URL)

		assert.True(t, c.CreateUser(context.Background(), &domain.User{LastName: "Old", FirstName: "Timer", Age: 120}))
	})
}

func TestWriteResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"success true", http.StatusOK, `{"success":true}`, true},
		{"success true with message", http.StatusOK, `{"success":true,"message":"ok"}`, true},
		{"success false", http.StatusOK, `{"success":false}`, false},
		{"success false with message", http.StatusOK, `{"success":false,"message":"user not found"}`, false},
		{"success as string", http.StatusOK, `{"success":"true"}`, false},
		{"success as number", http.StatusOK, `{"success":1}`, false},
		{"missing key", http.StatusOK, `{"ok":true}`, false},
		{"empty body", http.StatusOK, ``, false},
		{"array body", http.StatusOK, `[true]`, false},
		{"malformed json", http.StatusOK, `{"success":tru`, false},
		{"created status", http.StatusCreated, `{"success":true}`, true},
		{"bad request", http.StatusBadRequest, `{"success":true}`, false},
		{"server error", http.StatusInternalServerError, `{"success":true}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t, tt.status, tt.body)
			c := newTestClient(t, fb.server.URL)
			ctx := context.Background()

			u := validUser()
			u.ID = 3

			assert.Equal(t, tt.want, c.CreateUser(ctx, u), "create")
			assert.Equal(t, tt.want, c.UpdateUser(ctx, u), "update")
			assert.Equal(t, tt.want, c.DeleteUser(ctx, 3), "delete")
			assert.Equal(t, int32(3), fb.hits.Load())
		})
	}
}

func TestUpdateUser_SendsAllFields(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{"success":true}`)
	c := newTestClient(t, fb.server.URL)

	u := &domain.User{ID: 12, LastName: "Martin", FirstName: "Claire", Age: 42}
	require.True(t, c.UpdateUser(context.Background(), u))

	req := fb.last.Load()
	assert.Equal(t, "/update.php", req.Path)
	assert.Equal(t, "12", req.Form.Get("id"))
	assert.Equal(t, "Martin", req.Form.Get("nom"))
	assert.Equal(t, "Claire", req.Form.Get("prenom"))
	assert.Equal(t, "42", req.Form.Get("age"))
}

func TestDeleteUser_SendsID(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{"success":true}`)
	c := newTestClient(t, fb.server.URL)

	require.True(t, c.DeleteUser(context.Background(), 9))

	req := fb.last.Load()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/delete.php", req.Path)
	assert.Equal(t, url.Values{"id": {"9"}}, req.Form)
}

func TestWrite_CancelledContext(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{"success":true}`)
	c := newTestClient(t, fb.server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, c.CreateUser(ctx, validUser()))
	assert.Nil(t, c.GetUser(ctx, 1))
	assert.Empty(t, c.ListUsers(ctx))
}

func TestClose_IsRepeatable(t *testing.T) {
	c := newTestClient(t, "http://localhost/")
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
