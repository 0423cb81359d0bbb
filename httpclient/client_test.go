package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/restkit/auth"
)

// fakeTransport is a scripted Transport double. Each call consumes the
// next response; the last entry repeats once the script runs out.
type fakeTransport struct {
	responses []*Response
	err       error
	requests  []*http.Request
	bodies    [][]byte
}

func (f *fakeTransport) Send(_ context.Context, req *http.Request) (*Response, error) {
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, nil)
	return f.next()
}

func (f *fakeTransport) SendUpload(_ context.Context, req *http.Request, body []byte) (*Response, error) {
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, body)
	return f.next()
}

func (f *fakeTransport) next() (*Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	idx := len(f.requests) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func expiredJWT(t *testing.T) string {
	t.Helper()
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestClient_Do_GET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/users/123" {
			t.Errorf("expected /users/123, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":123,"name":"John","email":"j@x.com"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users/123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 || !resp.IsSuccess() {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var user struct {
		ID    int    `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if user.ID != 123 || user.Name != "John" || user.Email != "j@x.com" {
		t.Errorf("user = %+v", user)
	}
}

func TestClient_Do_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(404)
		fmt.Fprint(w, `{"message":"not found"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/missing"})
	if !IsHTTP(err) {
		t.Fatalf("err = %v, want http error", err)
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Fatalf("resp = %+v, want 404", resp)
	}

	var herr *Error
	errors.As(err, &herr)
	parsed, ok := herr.Parsed.(map[string]any)
	if !ok || parsed["message"] != "not found" {
		t.Errorf("parsed = %v, want message=not found", herr.Parsed)
	}
}

func TestClient_Do_TransportFailure(t *testing.T) {
	ft := &fakeTransport{err: fmt.Errorf("connection refused")}
	c := newTestClient(t, Config{BaseURL: "https://api.example.com", Transport: ft})

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if !IsUnknown(err) {
		t.Errorf("err = %v, want unknown error", err)
	}
}

func TestClient_Do_RetryBound(t *testing.T) {
	// Transport always returns 401: the client must call it exactly
	// twice (initial + one retry after refresh) and then give up.
	ft := &fakeTransport{responses: []*Response{{StatusCode: 401}}}

	var refreshCalls atomic.Int32
	store := auth.NewStore(auth.Config{
		Refresh: func(ctx context.Context, refreshToken string) (auth.Tokens, error) {
			refreshCalls.Add(1)
			return auth.Tokens{AccessToken: "fresh", RefreshToken: "r2"}, nil
		},
	})
	store.SetTokens("stale", "r1")

	c := newTestClient(t, Config{BaseURL: "https://api.example.com", Transport: ft, Tokens: store})

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if code, ok := StatusCode(err); !ok || code != 401 {
		t.Fatalf("err = %v, want HTTP 401", err)
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Errorf("resp = %+v, want 401", resp)
	}
	if got := len(ft.requests); got != 2 {
		t.Errorf("transport calls = %d, want exactly 2", got)
	}
	if got := refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", got)
	}
	if got := ft.requests[1].Header.Get("Authorization"); got != "Bearer fresh" {
		t.Errorf("retry Authorization = %q, want refreshed token", got)
	}
}

func TestClient_Do_RefreshAndRetrySucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer new-token" {
			w.WriteHeader(401)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	store := auth.NewStore(auth.Config{
		Refresh: func(ctx context.Context, refreshToken string) (auth.Tokens, error) {
			if refreshToken != "r1" {
				t.Errorf("refresh token = %q, want r1", refreshToken)
			}
			return auth.Tokens{AccessToken: "new-token", RefreshToken: "r2"}, nil
		},
	})
	store.SetTokens("old-token", "r1")

	c := newTestClient(t, Config{BaseURL: srv.URL, Tokens: store})

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls = %d, want 2", got)
	}
	if token, _ := store.AccessToken(); token != "new-token" {
		t.Errorf("stored token = %q, want new-token", token)
	}
}

func TestClient_Do_RefreshFailure(t *testing.T) {
	ft := &fakeTransport{responses: []*Response{{StatusCode: 401}}}

	store := auth.NewStore(auth.Config{
		Refresh: func(ctx context.Context, refreshToken string) (auth.Tokens, error) {
			return auth.Tokens{}, fmt.Errorf("refresh token expired")
		},
	})
	store.SetTokens("stale", "r1")

	c := newTestClient(t, Config{BaseURL: "https://api.example.com", Transport: ft, Tokens: store})

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if code, ok := StatusCode(err); !ok || code != 401 {
		t.Fatalf("err = %v, want HTTP 401", err)
	}
	if !errors.Is(err, auth.ErrRefreshFailed) {
		t.Errorf("err chain = %v, want auth.ErrRefreshFailed", err)
	}
	if got := len(ft.requests); got != 1 {
		t.Errorf("transport calls = %d, want 1 (no retry without a token)", got)
	}
	if _, ok := store.AccessToken(); ok {
		t.Error("tokens should be cleared after refresh failure")
	}
}

func TestClient_Do_NoStore_NoRefresh(t *testing.T) {
	ft := &fakeTransport{responses: []*Response{{StatusCode: 401}}}
	c := newTestClient(t, Config{BaseURL: "https://api.example.com", Transport: ft})

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if code, ok := StatusCode(err); !ok || code != 401 {
		t.Fatalf("err = %v, want HTTP 401", err)
	}
	if got := len(ft.requests); got != 1 {
		t.Errorf("transport calls = %d, want 1", got)
	}
	if got := ft.requests[0].Header.Get("Authorization"); got != "" {
		t.Errorf("Authorization = %q, want empty", got)
	}
}

func TestClient_Do_ProactiveRefresh(t *testing.T) {
	ft := &fakeTransport{responses: []*Response{{StatusCode: 200, Body: []byte(`{}`)}}}

	var refreshCalls atomic.Int32
	store := auth.NewStore(auth.Config{
		Refresh: func(ctx context.Context, refreshToken string) (auth.Tokens, error) {
			refreshCalls.Add(1)
			return auth.Tokens{AccessToken: "fresh", RefreshToken: "r2"}, nil
		},
	})
	store.SetTokens(expiredJWT(t), "r1")

	c := newTestClient(t, Config{BaseURL: "https://api.example.com", Transport: ft, Tokens: store})

	if _, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1 (before first attempt)", got)
	}
	if got := len(ft.requests); got != 1 {
		t.Fatalf("transport calls = %d, want 1", got)
	}
	if got := ft.requests[0].Header.Get("Authorization"); got != "Bearer fresh" {
		t.Errorf("Authorization = %q, want proactively refreshed token", got)
	}
}

func TestClient_Upload_Binary(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("Content-Type = %q, want image/png", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if !bytes.Equal(body, data) {
			t.Errorf("body = %v, want raw payload bytes", body)
		}
		w.WriteHeader(201)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	resp, err := c.Upload(context.Background(), Request{Method: http.MethodPost, Path: "/blobs"},
		UploadPayload{Data: data, MIMEType: "image/png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
}

func TestClient_UploadMultipart(t *testing.T) {
	fileData := []byte("file contents")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("userId"); got != "123" {
			t.Errorf("userId = %q, want 123", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		if header.Filename != "profile.jpg" {
			t.Errorf("filename = %q, want profile.jpg", header.Filename)
		}
		body, _ := io.ReadAll(file)
		if !bytes.Equal(body, fileData) {
			t.Errorf("file = %q, want %q", body, fileData)
		}
		w.WriteHeader(200)
		fmt.Fprint(w, `{"uploaded":true}`)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	resp, err := c.UploadMultipart(context.Background(),
		Request{Method: http.MethodPost, Path: "/files"},
		UploadPayload{
			Data:     fileData,
			FileName: "profile.jpg",
			MIMEType: "image/jpeg",
			Fields:   map[string]string{"userId": "123"},
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestClient_Upload_RetriesWithSameBody(t *testing.T) {
	ft := &fakeTransport{responses: []*Response{{StatusCode: 401}, {StatusCode: 200}}}

	store := auth.NewStore(auth.Config{
		Refresh: func(ctx context.Context, refreshToken string) (auth.Tokens, error) {
			return auth.Tokens{AccessToken: "fresh", RefreshToken: "r2"}, nil
		},
	})
	store.SetTokens("stale", "r1")

	c := newTestClient(t, Config{BaseURL: "https://api.example.com", Transport: ft, Tokens: store})

	data := []byte("payload")
	_, err := c.Upload(context.Background(), Request{Method: http.MethodPost, Path: "/blobs"},
		UploadPayload{Data: data})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(ft.bodies); got != 2 {
		t.Fatalf("transport calls = %d, want 2", got)
	}
	if !bytes.Equal(ft.bodies[0], data) || !bytes.Equal(ft.bodies[1], data) {
		t.Error("retry did not resend the same upload body")
	}
}
