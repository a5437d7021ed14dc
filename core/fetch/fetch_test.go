package fetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_UnsupportedScheme(t *testing.T) {
	_, err := New(Options{}).Text(context.Background(), KindSettings, "file:///etc/passwd")

	var fe *FetchError
	require.True(t, errors.As(err, &fe), "expected *FetchError, got %T", err)
	assert.Equal(t, CodeInvalidArgument, fe.Code)
	assert.Equal(t, "fetch_settings", fe.Stage)
}

func TestText_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(":required_mods:\n- \"@ace\"\n"))
	}))
	defer ts.Close()

	text, err := New(Options{}).Text(context.Background(), KindModList, ts.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "@ace")
}

func TestText_NonSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	_, err := New(Options{}).Text(context.Background(), KindMapping, ts.URL)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, CodeFailed, fe.Code)
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.Equal(t, "fetch_mapping", fe.Stage)
}

func TestText_TooLarge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 32)))
	}))
	defer ts.Close()

	_, err := New(Options{MaxBytes: 10}).Text(context.Background(), KindParFile, ts.URL)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, CodeTooLarge, fe.Code)
	assert.Equal(t, "fetch_parfile", fe.Stage)
}

func TestText_InvalidUTF8(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 0xff is always invalid in UTF-8.
		_, _ = w.Write([]byte{0xff, 0xfe, 0xfd})
	}))
	defer ts.Close()

	t.Run("StrictKind", func(t *testing.T) {
		_, err := New(Options{}).Text(context.Background(), KindSettings, ts.URL)
		var fe *FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, CodeInvalidUTF8, fe.Code)
	})

	t.Run("ParFileIsLenient", func(t *testing.T) {
		_, err := New(Options{}).Text(context.Background(), KindParFile, ts.URL)
		assert.NoError(t, err)
	})
}

func TestText_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	_, err := New(Options{Timeout: 20 * time.Millisecond}).Text(context.Background(), KindSettings, ts.URL)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, CodeTimeout, fe.Code)
}

func TestText_TooManyRedirects(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, ts.URL+"/again", http.StatusFound)
	}))
	defer ts.Close()

	_, err := New(Options{MaxRedirects: 2}).Text(context.Background(), KindSettings, ts.URL)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, CodeFailed, fe.Code)
	assert.Contains(t, fe.Message, "too many redirects")
}

func TestDownload(t *testing.T) {
	payload := []byte{0x00, 0x01, 0xff, 0x10}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer ts.Close()

	var buf bytes.Buffer
	n, err := New(Options{}).Download(context.Background(), KindKeyFile, ts.URL+"/ace.bikey", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, buf.Bytes())
}
