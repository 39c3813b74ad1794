package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalPath(t *testing.T) {
	cases := []struct {
		in    string
		path  string
		local bool
	}{
		{"assets/welcome.json", "assets/welcome.json", true},
		{"/abs/welcome.json", "/abs/welcome.json", true},
		{"file:///abs/welcome.json", "/abs/welcome.json", true},
		{`C:\assets\welcome.json`, `C:\assets\welcome.json`, true},
		{"https://example.com/welcome.json", "", false},
		{"chrome://resources/welcome.json", "", false},
	}
	for _, tc := range cases {
		path, ok := LocalPath(tc.in)
		require.Equal(t, tc.local, ok, tc.in)
		require.Equal(t, tc.path, path, tc.in)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anim.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v":"5.7.4"}`), 0o644))

	asset, err := NewDefaultLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, path, asset.URL)
	require.Equal(t, `{"v":"5.7.4"}`, string(asset.Data))
	require.Len(t, asset.Digest, 64)
	require.Equal(t, Digest(asset.Data), asset.Digest)
}

func TestLoadHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anim.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"v":"5.7.4"}`))
	}))
	defer server.Close()

	loader := NewDefaultLoader()
	asset, err := loader.Load(context.Background(), server.URL+"/anim.json")
	require.NoError(t, err)
	require.Equal(t, `{"v":"5.7.4"}`, string(asset.Data))

	_, err = loader.Load(context.Background(), server.URL+"/missing.json")
	require.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	loader := NewDefaultLoader()

	_, err := loader.Load(context.Background(), "  ")
	require.ErrorIs(t, err, ErrEmptySource)

	_, err = loader.Load(context.Background(), "chrome://resources/anim.json")
	require.ErrorIs(t, err, ErrUnsupportedScheme)

	_, err = loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestDigestStable(t *testing.T) {
	require.Equal(t, Digest([]byte("a")), Digest([]byte("a")))
	require.NotEqual(t, Digest([]byte("a")), Digest([]byte("b")))
}
