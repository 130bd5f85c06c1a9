package stackexchange

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves /users/{ids} from a fixed user table, gzipping every
// response the way the real API does.
type fakeAPI struct {
	users    map[int]User
	requests atomic.Int32
	gzip     bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	if !strings.HasPrefix(r.URL.Path, "/users/") {
		http.NotFound(w, r)
		return
	}
	var items []User
	for _, part := range strings.Split(strings.TrimPrefix(r.URL.Path, "/users/"), ";") {
		for id, u := range f.users {
			if part == itoa(id) {
				items = append(items, u)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !f.gzip {
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
		return
	}
	w.Header().Set("Content-Encoding", "gzip")
	zw := gzip.NewWriter(w)
	_ = json.NewEncoder(zw).Encode(map[string]any{"items": items})
	_ = zw.Close()
}

func itoa(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}

func newFakeAPI(t *testing.T, gz bool, users ...User) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{users: make(map[int]User), gzip: gz}
	for _, u := range users {
		api.users[u.ID] = u
	}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func TestBuildQuery(t *testing.T) {
	c := New()
	q, err := c.BuildQuery([]int{1, 22, 333})
	require.NoError(t, err)
	assert.Equal(t, "https://api.stackexchange.com/2.2/users/1;22;333?page=1&pagesize=3&site=ru.stackoverflow", q)
}

func TestBuildQuery_Options(t *testing.T) {
	c := New(WithBaseURL("http://localhost:8080/api/"), WithSite("stackoverflow"), WithKey("k&ey"))
	q, err := c.BuildQuery([]int{7})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/users/7?page=1&pagesize=1&site=stackoverflow&key=k%26ey", q)
}

func TestBuildQuery_BatchTooLarge(t *testing.T) {
	ids := make([]int, MaxBatchSize+1)
	for i := range ids {
		ids[i] = i + 1
	}
	_, err := New().BuildQuery(ids)
	assert.ErrorIs(t, err, ErrBatchTooLarge)

	_, err = New().BuildQuery(ids[:MaxBatchSize])
	assert.NoError(t, err)
}

func TestFetchUsers_PreservesRequestOrder(t *testing.T) {
	_, srv := newFakeAPI(t, false,
		User{ID: 1, DisplayName: "one", ProfileImage: "http://img/1"},
		User{ID: 2, DisplayName: "two", ProfileImage: "http://img/2"},
		User{ID: 3, DisplayName: "three", ProfileImage: "http://img/3"},
	)
	c := New(WithBaseURL(srv.URL))

	users, err := c.FetchUsers(context.Background(), []int{3, 1, 2})
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []int{3, 1, 2}, []int{users[0].ID, users[1].ID, users[2].ID})
	assert.Equal(t, "http://img/3", users[0].ProfileImage)
}

func TestFetchUsers_SkipsUnknownIDs(t *testing.T) {
	_, srv := newFakeAPI(t, false, User{ID: 5, DisplayName: "five"})
	users, err := New(WithBaseURL(srv.URL)).FetchUsers(context.Background(), []int{4, 5, 6})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 5, users[0].ID)
}

func TestFetchUsers_UnescapesDisplayName(t *testing.T) {
	_, srv := newFakeAPI(t, false, User{ID: 9, DisplayName: "Tom &amp; Jerry &#39;s"})
	users, err := New(WithBaseURL(srv.URL)).FetchUsers(context.Background(), []int{9})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Tom & Jerry 's", users[0].DisplayName)
}

func TestFetchUsers_Empty(t *testing.T) {
	api, srv := newFakeAPI(t, false)
	users, err := New(WithBaseURL(srv.URL)).FetchUsers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Zero(t, api.requests.Load())
}

func TestFetchUsers_Gzip(t *testing.T) {
	_, srv := newFakeAPI(t, true, User{ID: 1, DisplayName: "one"})

	t.Run("transport", func(t *testing.T) {
		users, err := New(WithBaseURL(srv.URL)).FetchUsers(context.Background(), []int{1})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "one", users[0].DisplayName)
	})

	t.Run("unrequested", func(t *testing.T) {
		hc := &http.Client{Transport: &http.Transport{DisableCompression: true}}
		users, err := New(WithBaseURL(srv.URL), WithHTTPClient(hc)).FetchUsers(context.Background(), []int{1})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "one", users[0].DisplayName)
	})
}

func TestFetchUsers_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_id":502,"error_name":"throttle_violation","error_message":"too many requests"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(WithBaseURL(srv.URL)).FetchUsers(context.Background(), []int{1})
	require.ErrorIs(t, err, ErrAPI)
	assert.Contains(t, err.Error(), "throttle_violation")
}

func TestFetchUsers_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := New(WithBaseURL(srv.URL)).FetchUsers(context.Background(), []int{1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAPI)
}

func TestUsers_Batches(t *testing.T) {
	var all []User
	var ids []int
	for i := 1; i <= 7; i++ {
		all = append(all, User{ID: i, DisplayName: itoa(i)})
		ids = append(ids, i)
	}
	api, srv := newFakeAPI(t, false, all...)
	c := New(WithBaseURL(srv.URL))

	var got []int
	for u, err := range c.Users(context.Background(), ids, 3) {
		require.NoError(t, err)
		got = append(got, u.ID)
	}
	assert.Equal(t, ids, got)
	assert.Equal(t, int32(3), api.requests.Load())
}

func TestUsers_StopsEarly(t *testing.T) {
	api, srv := newFakeAPI(t, false, User{ID: 1}, User{ID: 2}, User{ID: 3}, User{ID: 4})
	c := New(WithBaseURL(srv.URL))

	for u, err := range c.Users(context.Background(), []int{1, 2, 3, 4}, 2) {
		require.NoError(t, err)
		if u.ID == 1 {
			break
		}
	}
	assert.Equal(t, int32(1), api.requests.Load())
}

func TestUsers_InvalidBatchSize(t *testing.T) {
	for _, size := range []int{0, -1, MaxBatchSize + 1} {
		var errs []error
		for _, err := range New().Users(context.Background(), []int{1}, size) {
			errs = append(errs, err)
		}
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrBatchTooLarge)
	}
}

func TestUsers_YieldsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	n := 0
	for _, err := range New(WithBaseURL(srv.URL)).Users(context.Background(), []int{1, 2, 3}, 1) {
		n++
		assert.Error(t, err)
	}
	assert.Equal(t, 1, n)
}

func TestDownloadAvatar(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/avatar.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	c := New()
	data, err := c.DownloadAvatar(context.Background(), srv.URL+"/avatar.png")
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = c.DownloadAvatar(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)
}

func TestDownloadAvatar_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().DownloadAvatar(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}
