package updatecheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.10.0", "1.9.0", 1},
		{"1.9.0", "1.10.0", -1},
		{"2.0", "2.0.0", 0},
		{"v1.2.3", "1.2.3", 0},
		{"1.2.4", "1.2.3", 1},
		{"1.2.0-rc1", "1.2.0", 0},
		{"0.9", "1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
		})
	}
}

func TestCheck_NewerRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/fundquota/releases/latest", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "fundquota/")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tag_name":"v1.10.0","html_url":"https://example.com/releases/v1.10.0"}`))
	}))
	defer server.Close()

	service := NewUpdateService(Config{
		APIBase:        server.URL,
		Owner:          "acme",
		Repo:           "fundquota",
		CurrentVersion: "1.9.0",
	})

	result, err := service.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.10.0", result.Latest)
	assert.Equal(t, "1.9.0", result.Current)
	assert.Equal(t, "https://example.com/releases/v1.10.0", result.URL)
	assert.True(t, result.Newer)
}

func TestCheck_UpToDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name":"1.9.0","html_url":"https://example.com"}`))
	}))
	defer server.Close()

	service := NewUpdateService(Config{APIBase: server.URL, Owner: "acme", Repo: "fundquota", CurrentVersion: "v1.9.0"})

	result, err := service.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Newer)
}

func TestCheck_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "Server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "Malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			},
		},
		{
			name: "Missing tag",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			service := NewUpdateService(Config{APIBase: server.URL, Owner: "acme", Repo: "fundquota", CurrentVersion: "1.0.0"})

			_, err := service.Check(context.Background())
			assert.Error(t, err)
		})
	}
}
