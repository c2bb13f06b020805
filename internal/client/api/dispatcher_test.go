package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/cmsclient/internal/client/apierror"
	"github.com/dmitrijs2005/cmsclient/internal/client/credentials"
	"github.com/dmitrijs2005/cmsclient/internal/client/refresh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct {
	calls atomic.Int32
	out   refresh.Outcome
}

func (s *stubRefresher) Refresh(ctx context.Context) refresh.Outcome {
	s.calls.Add(1)
	return s.out
}

type seen struct {
	Method      string
	Path        string
	Auth        string
	ContentType string
	RequestID   string
	Body        string
}

// recorder captures every request that reaches the test server.
type recorder struct {
	mu   sync.Mutex
	reqs []seen
}

func (rec *recorder) add(r *http.Request) seen {
	b, _ := io.ReadAll(r.Body)
	s := seen{
		Method:      r.Method,
		Path:        r.URL.Path,
		Auth:        r.Header.Get("Authorization"),
		ContentType: r.Header.Get("Content-Type"),
		RequestID:   r.Header.Get(RequestIDHeader),
		Body:        string(b),
	}
	rec.mu.Lock()
	rec.reqs = append(rec.reqs, s)
	rec.mu.Unlock()
	return s
}

func (rec *recorder) all() []seen {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]seen(nil), rec.reqs...)
}

func (rec *recorder) count(path string) int {
	n := 0
	for _, s := range rec.all() {
		if s.Path == path {
			n++
		}
	}
	return n
}

func newDispatcher(t *testing.T, srv *httptest.Server, store credentials.Store, r Refresher, opts ...Option) *Dispatcher {
	t.Helper()
	jar, err := NewJar()
	require.NoError(t, err)
	client := srv.Client()
	client.Jar = jar
	d, err := NewDispatcher(srv.URL, store, r, append([]Option{WithHTTPClient(client)}, opts...)...)
	require.NoError(t, err)
	return d
}

// tokenServer answers 200 only for "Bearer <valid>" and serves the refresh
// endpoint with refreshTo.
func tokenServer(t *testing.T, rec *recorder, valid, refreshTo string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := rec.add(r)
		if r.URL.Path == "/v1/auth/refresh" {
			_ = json.NewEncoder(w).Encode(map[string]string{"token": refreshTo})
			return
		}
		if s.Auth != "Bearer "+valid {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDo_AttachesCredentialAndJSONContentType(t *testing.T) {
	rec := &recorder{}
	srv := tokenServer(t, rec, "tok", "")
	d := newDispatcher(t, srv, credentials.NewMemoryStore("tok"), &stubRefresher{})

	resp, err := d.Do(context.Background(), Request{Method: http.MethodPost, Path: "/v1/posts", Body: JSON(map[string]string{"titulo": "Hola"})})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer tok", reqs[0].Auth)
	assert.Equal(t, "application/json", reqs[0].ContentType)
	assert.JSONEq(t, `{"titulo":"Hola"}`, reqs[0].Body)
	assert.NotEmpty(t, reqs[0].RequestID)
}

func TestDo_NoCredentialNoAuthorization(t *testing.T) {
	rec := &recorder{}
	srv := tokenServer(t, rec, "tok", "")
	d := newDispatcher(t, srv, credentials.NewMemoryStore(""), &stubRefresher{})

	resp, err := d.Get(context.Background(), "/v1/public")
	require.NoError(t, err)
	drain(resp)

	reqs := rec.all()
	require.GreaterOrEqual(t, len(reqs), 1)
	assert.Empty(t, reqs[0].Auth)
	assert.Empty(t, reqs[0].ContentType, "no body, no content type")
}

func TestDo_CallerHeadersWin(t *testing.T) {
	rec := &recorder{}
	srv := tokenServer(t, rec, "mine", "")
	d := newDispatcher(t, srv, credentials.NewMemoryStore("stored"), &stubRefresher{})

	resp, err := d.Do(context.Background(), Request{
		Method: http.MethodPut,
		Path:   "/v1/posts/1",
		Body:   Raw([]byte("plain text")),
		Header: http.Header{"Authorization": {"Bearer mine"}, "Content-Type": {"text/plain"}},
	})
	require.NoError(t, err)
	drain(resp)

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer mine", reqs[0].Auth)
	assert.Equal(t, "text/plain", reqs[0].ContentType)
}

func TestDo_RawBodyDefaultsToJSON(t *testing.T) {
	rec := &recorder{}
	srv := tokenServer(t, rec, "tok", "")
	d := newDispatcher(t, srv, credentials.NewMemoryStore("tok"), &stubRefresher{})

	resp, err := d.Post(context.Background(), "/v1/posts", Raw([]byte(`{"a":1}`)))
	require.NoError(t, err)
	drain(resp)

	assert.Equal(t, "application/json", rec.all()[0].ContentType)
}

func TestDo_RefreshesAndRetriesOnce(t *testing.T) {
	rec := &recorder{}
	srv := tokenServer(t, rec, "new", "new")
	store := credentials.NewMemoryStore("old")
	coord := refresh.NewCoordinator(refresh.NewHTTPRefresher(srv.Client(), srv.URL+"/v1/auth/refresh"), store)
	d := newDispatcher(t, srv, store, coord)

	resp, err := d.Do(context.Background(), Request{Method: http.MethodPost, Path: "/v1/posts", Body: JSON(map[string]int{"n": 1})})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, rec.count("/v1/posts"))
	assert.Equal(t, 1, rec.count("/v1/auth/refresh"))

	var posts []seen
	for _, s := range rec.all() {
		if s.Path == "/v1/posts" {
			posts = append(posts, s)
		}
	}
	assert.Equal(t, "Bearer old", posts[0].Auth)
	assert.Equal(t, "Bearer new", posts[1].Auth)
	assert.Equal(t, posts[0].Body, posts[1].Body)
	assert.Equal(t, posts[0].RequestID, posts[1].RequestID)

	got, _, _ := store.Get(context.Background())
	assert.Equal(t, credentials.Credential("new"), got)
}

func TestDo_NoSecondRetry(t *testing.T) {
	rec := &recorder{}
	srv := tokenServer(t, rec, "never", "new")
	store := credentials.NewMemoryStore("old")
	r := &stubRefresher{out: refresh.Some("new")}
	d := newDispatcher(t, srv, store, r)

	resp, err := d.Get(context.Background(), "/v1/posts")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"token expired"}`, string(body))
	assert.Equal(t, 2, rec.count("/v1/posts"))
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestDo_PurgeOnRejectedRetry(t *testing.T) {
	for _, purge := range []bool{false, true} {
		rec := &recorder{}
		srv := tokenServer(t, rec, "never", "")
		store := credentials.NewMemoryStore("old")
		d := newDispatcher(t, srv, store, &stubRefresher{out: refresh.Some("new")}, WithPurgeOnRejectedRetry(purge))

		require.NoError(t, store.Set(context.Background(), "new"))
		resp, err := d.Get(context.Background(), "/v1/posts")
		require.NoError(t, err)
		drain(resp)

		_, ok, err := store.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, !purge, ok, "purge=%v", purge)
	}
}

func TestDo_AuthPathsAreExempt(t *testing.T) {
	for _, path := range []string{"/v1/auth/refresh", "/v1/auth/login", "/v1/auth/logout?all=1", "v1/auth/login"} {
		t.Run(path, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer srv.Close()

			r := &stubRefresher{out: refresh.Some("new")}
			d := newDispatcher(t, srv, credentials.NewMemoryStore("old"), r)

			resp, err := d.Post(context.Background(), path, nil)
			require.NoError(t, err)
			drain(resp)

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, int32(0), r.calls.Load())
		})
	}
}

func TestDo_BaseURLWithPath(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := rec.add(r)
		switch {
		case r.URL.Path == "/api/v1/auth/refresh":
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "new"})
		case r.URL.Path == "/api/v1/auth/login":
			w.WriteHeader(http.StatusUnauthorized)
		case s.Auth == "Bearer new":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL + "/api")
	require.NoError(t, err)
	refreshURL, err := ResolveURL(base, "/v1/auth/refresh")
	require.NoError(t, err)

	store := credentials.NewMemoryStore("old")
	coord := refresh.NewCoordinator(refresh.NewHTTPRefresher(srv.Client(), refreshURL.String()), store)
	d, err := NewDispatcher(base.String(), store, coord, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	resp, err := d.Get(context.Background(), "/v1/posts")
	require.NoError(t, err)
	drain(resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = d.Post(context.Background(), "v1/auth/login", nil)
	require.NoError(t, err)
	drain(resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var paths []string
	for _, s := range rec.all() {
		paths = append(paths, s.Path)
	}
	assert.Equal(t, []string{"/api/v1/posts", "/api/v1/auth/refresh", "/api/v1/posts", "/api/v1/auth/login"}, paths)
	assert.Equal(t, 1, coord.Epochs())
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{base: "http://h", path: "/v1/me", want: "http://h/v1/me"},
		{base: "http://h/", path: "v1/me", want: "http://h/v1/me"},
		{base: "http://h/api", path: "/v1/posts?limit=5", want: "http://h/api/v1/posts?limit=5"},
		{base: "http://h/api/", path: "v1/auth/refresh", want: "http://h/api/v1/auth/refresh"},
		{base: "http://h/api", path: "https://cdn.example.com/x", want: "https://cdn.example.com/x"},
	}
	for _, tt := range tests {
		base, err := url.Parse(tt.base)
		require.NoError(t, err)
		got, err := ResolveURL(base, tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.String(), tt.base+" + "+tt.path)
	}
}

func TestDo_CustomAuthPrefix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	r := &stubRefresher{}
	d := newDispatcher(t, srv, credentials.NewMemoryStore("old"), r, WithAuthPrefix("/api/session/"))

	resp, err := d.Post(context.Background(), "/api/session/renew", nil)
	require.NoError(t, err)
	drain(resp)
	assert.Equal(t, int32(0), r.calls.Load())

	resp, err = d.Post(context.Background(), "/v1/auth/refresh", nil)
	require.NoError(t, err)
	drain(resp)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestDo_RefreshFailureReturnsOriginal401(t *testing.T) {
	rec := &recorder{}
	srv := tokenServer(t, rec, "new", "")
	r := &stubRefresher{out: refresh.None()}
	d := newDispatcher(t, srv, credentials.NewMemoryStore("old"), r)

	resp, err := d.Get(context.Background(), "/v1/posts")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"message":"token expired"}`, string(body), "original body must be readable")
	assert.Equal(t, 1, rec.count("/v1/posts"))
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestDo_FormPayloadNeverJSON(t *testing.T) {
	rec := &recorder{}
	var fields []url.Values
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/auth/refresh" {
			_, _ = w.Write([]byte(`{"token":"new"}`))
			return
		}
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		mu.Lock()
		fields = append(fields, r.MultipartForm.Value)
		mu.Unlock()
		s := seen{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), ContentType: r.Header.Get("Content-Type")}
		rec.mu.Lock()
		rec.reqs = append(rec.reqs, s)
		rec.mu.Unlock()
		if s.Auth != "Bearer new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		assert.Equal(t, "a.png", hdr.Filename)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store := credentials.NewMemoryStore("old")
	d := newDispatcher(t, srv, store, &stubRefresher{out: refresh.Some("new")})

	form := NewFormData().Set("folder", "posts").AddFile("file", "a.png", []byte("\x89PNG\r\n\x1a\n"))
	resp, err := d.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/v1/media",
		Body:   Form(form),
		Header: http.Header{"Content-Type": {"application/json"}},
	})
	require.NoError(t, err)
	drain(resp)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	reqs := rec.all()
	require.Len(t, reqs, 2)
	for _, s := range reqs {
		assert.Contains(t, s.ContentType, "multipart/form-data; boundary=")
		assert.NotContains(t, s.ContentType, "json")
	}
	require.Len(t, fields, 2)
	assert.Equal(t, []string{"posts"}, fields[1]["folder"])
}

func TestDo_OmitCookies(t *testing.T) {
	var cookies []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session")
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			cookies = append(cookies, "")
			return
		}
		cookies = append(cookies, c.Value)
	}))
	defer srv.Close()

	d := newDispatcher(t, srv, credentials.NewMemoryStore(""), &stubRefresher{})
	d.client.Jar.SetCookies(d.BaseURL(), []*http.Cookie{{Name: "session", Value: "s1", Path: "/"}})

	resp, err := d.Do(context.Background(), Request{Path: "/v1/x"})
	require.NoError(t, err)
	drain(resp)
	resp, err = d.Do(context.Background(), Request{Path: "/v1/x", OmitCookies: true})
	require.NoError(t, err)
	drain(resp)

	assert.Equal(t, []string{"s1", ""}, cookies)
}

func TestDo_ConcurrentCallersShareOneRefresh(t *testing.T) {
	const n = 10
	var coord *refresh.Coordinator
	rec := &recorder{}

	var oldSeen atomic.Int32
	allOld := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := rec.add(r)
		switch {
		case r.URL.Path == "/v1/auth/refresh":
			// answer once every caller has attached to the flight
			assert.Eventually(t, func() bool { return coord.Waiters() == n }, 2*time.Second, time.Millisecond)
			_, _ = w.Write([]byte(`{"token":"new"}`))
		case s.Auth == "Bearer new":
			_, _ = w.Write([]byte(`{}`))
		default:
			if oldSeen.Add(1) == n {
				close(allOld)
			}
			<-allOld
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	store := credentials.NewMemoryStore("old")
	coord = refresh.NewCoordinator(refresh.NewHTTPRefresher(srv.Client(), srv.URL+"/v1/auth/refresh"), store)
	d := newDispatcher(t, srv, store, coord)

	var wg sync.WaitGroup
	statuses := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := d.Get(context.Background(), "/v1/posts")
			if !assert.NoError(t, err) {
				return
			}
			statuses[i] = resp.StatusCode
			drain(resp)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, rec.count("/v1/auth/refresh"))
	assert.Equal(t, 2*n, rec.count("/v1/posts"))
	for _, st := range statuses {
		assert.Equal(t, http.StatusOK, st)
	}
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	d := newDispatcher(t, srv, credentials.NewMemoryStore(""), &stubRefresher{})
	srv.Close()

	_, err := d.Get(context.Background(), "/v1/posts")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestDo_StoreReadError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	d := newDispatcher(t, srv, brokenStore{}, &stubRefresher{})

	_, err := d.Get(context.Background(), "/v1/posts")
	assert.Error(t, err)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context) (credentials.Credential, bool, error) {
	return "", false, errors.New("backend down")
}

func (brokenStore) Set(context.Context, credentials.Credential) error { return nil }

func TestDo_JSONEncodeErrorSendsNothing(t *testing.T) {
	rec := &recorder{}
	srv := tokenServer(t, rec, "tok", "")
	d := newDispatcher(t, srv, credentials.NewMemoryStore("tok"), &stubRefresher{})

	_, err := d.Post(context.Background(), "/v1/posts", map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.Empty(t, rec.all())
}

func TestNewDispatcher_Validation(t *testing.T) {
	_, err := NewDispatcher("not a url", credentials.NewMemoryStore(""), &stubRefresher{})
	assert.Error(t, err)
	_, err = NewDispatcher("http://localhost", nil, &stubRefresher{})
	assert.Error(t, err)

	d, err := NewDispatcher("http://localhost:8080/", credentials.NewMemoryStore(""), &stubRefresher{})
	require.NoError(t, err)
	assert.NotNil(t, d.client.Jar)
	assert.Nil(t, d.bare.Jar)
}

func TestDecodeJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"id":7,"titulo":"Hola"}`))
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		case "/invalid":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":{"message":"Bad input","details":[{"field":"slug","message":"Duplicado"}]}}`))
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"Sin permiso"}`))
		case "/garbage":
			_, _ = w.Write([]byte(`{"id":`))
		}
	}))
	defer srv.Close()
	d := newDispatcher(t, srv, credentials.NewMemoryStore(""), &stubRefresher{})
	ctx := context.Background()

	var post struct {
		ID     int    `json:"id"`
		Titulo string `json:"titulo"`
	}
	require.NoError(t, d.Call(ctx, Request{Path: "/ok"}, &post))
	assert.Equal(t, 7, post.ID)
	assert.Equal(t, "Hola", post.Titulo)

	post.ID = 99
	require.NoError(t, d.Call(ctx, Request{Path: "/empty"}, &post))
	assert.Equal(t, 99, post.ID)

	err := d.Call(ctx, Request{Path: "/invalid"}, &post)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "Duplicado: Slug", apiErr.Summary)
	assert.Equal(t, "Duplicado: Slug", apierror.Text(err))
	assert.False(t, errors.Is(err, ErrUnauthorized))

	err = d.Call(ctx, Request{Path: "/forbidden"}, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Sin permiso", apierror.Text(err))

	assert.Error(t, d.Call(ctx, Request{Path: "/garbage"}, &post))
}

func TestMe(t *testing.T) {
	var authorized atomic.Bool
	authorized.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/me", r.URL.Path)
		if !authorized.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"email":"ana@example.com","role":"admin"}`))
	}))
	defer srv.Close()
	d := newDispatcher(t, srv, credentials.NewMemoryStore("tok"), &stubRefresher{})

	var me struct {
		Email string `json:"email"`
	}
	ok, err := d.Me(context.Background(), &me)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ana@example.com", me.Email)

	authorized.Store(false)
	ok, err = d.Me(context.Background(), &me)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerbHelpers(t *testing.T) {
	rec := &recorder{}
	srv := tokenServer(t, rec, "tok", "")
	d := newDispatcher(t, srv, credentials.NewMemoryStore("tok"), &stubRefresher{})
	ctx := context.Background()

	calls := []func() (*http.Response, error){
		func() (*http.Response, error) { return d.Get(ctx, "/v1/posts?page=2") },
		func() (*http.Response, error) { return d.Post(ctx, "/v1/posts", map[string]string{"a": "b"}) },
		func() (*http.Response, error) { return d.Put(ctx, "/v1/posts/1", NewFormData().Set("a", "b")) },
		func() (*http.Response, error) { return d.Patch(ctx, "/v1/posts/1", nil) },
		func() (*http.Response, error) { return d.Delete(ctx, "/v1/posts/1") },
	}
	for _, call := range calls {
		resp, err := call()
		require.NoError(t, err)
		drain(resp)
	}

	reqs := rec.all()
	require.Len(t, reqs, 5)
	assert.Equal(t, []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		[]string{reqs[0].Method, reqs[1].Method, reqs[2].Method, reqs[3].Method, reqs[4].Method})
	assert.Equal(t, "application/json", reqs[1].ContentType)
	assert.Contains(t, reqs[2].ContentType, "multipart/form-data")
	assert.Empty(t, reqs[3].ContentType)
	assert.Empty(t, reqs[3].Body)
}

func TestDo_ServerErrorsAreNotRetriedByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := &stubRefresher{out: refresh.Some("new")}
	d, err := NewDispatcher(srv.URL, credentials.NewMemoryStore("tok"), r,
		WithHTTPClient(NewHTTPClient(HTTPOptions{Timeout: time.Second})))
	require.NoError(t, err)

	resp, err := d.Get(context.Background(), "/v1/posts")
	require.NoError(t, err)
	drain(resp)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(0), r.calls.Load())
}
