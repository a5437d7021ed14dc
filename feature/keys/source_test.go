package keys

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"keymaster/core/fetch"
	"keymaster/core/remote/mocks"
	storagemocks "keymaster/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type bufferCloser struct {
	bytes.Buffer
}

func (b *bufferCloser) Close() error { return nil }

func TestHTTPKeystore(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		_, _ = w.Write([]byte("key:" + r.URL.Path))
	}))
	defer srv.Close()

	ks := &HTTPKeystore{Fetcher: fetch.New(fetch.Options{}), BaseURL: srv.URL + "/store/"}
	var buf bytes.Buffer
	n, err := ks.Fetch(context.Background(), Requirement{Name: "my key.bikey"}, &buf)
	require.NoError(t, err)

	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, []string{"/store/my%20key.bikey"}, paths)
	assert.Equal(t, srv.URL+"/store/my%20key.bikey", ks.URL("my key.bikey"))
}

func TestS3Keystore(t *testing.T) {
	client := new(storagemocks.Client)
	client.On("GetObject", mock.Anything, "keys", "arma/ace.bikey", minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader("ace")), nil)

	ks, err := NewS3Keystore(client, "s3://keys/arma")
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = ks.Fetch(context.Background(), Requirement{Name: "ace.bikey"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "ace", buf.String())

	_, err = NewS3Keystore(client, "https://keys/arma")
	assert.Error(t, err)
}

func TestS3Keystore_Check(t *testing.T) {
	tests := []struct {
		name    string
		exists  bool
		err     error
		wantErr string
	}{
		{"Exists", true, nil, ""},
		{"Missing", false, nil, "does not exist"},
		{"Unreachable", false, errors.New("access denied"), "access denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(storagemocks.Client)
			client.On("BucketExists", mock.Anything, "keys").Return(tt.exists, tt.err)

			ks, err := NewS3Keystore(client, "s3://keys/arma")
			require.NoError(t, err)

			err = ks.Check(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRemoteSource(t *testing.T) {
	client := new(mocks.Client)
	client.On("Retrieve", mock.Anything, "/arma3/@ace/keys/ace.bikey").Return(io.NopCloser(strings.NewReader("ace")), nil)

	src := &RemoteSource{Client: client}
	var buf bytes.Buffer
	_, err := src.Fetch(context.Background(), Requirement{Name: "ace.bikey", Source: "/arma3/@ace/keys/ace.bikey"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "ace", buf.String())

	_, err = src.Fetch(context.Background(), Requirement{Name: "manual.bikey"}, &buf)
	assert.Error(t, err)
}

func TestRemoteSource_FallbackForManualKeys(t *testing.T) {
	client := new(mocks.Client)
	src := &RemoteSource{Client: client, Fallback: mapSource{"manual.bikey": "manual"}}

	var buf bytes.Buffer
	_, err := src.Fetch(context.Background(), Requirement{Name: "manual.bikey", Mods: []string{ManualProvenance}}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "manual", buf.String())
	client.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything)
}

type mapSource map[string]string

func (m mapSource) Fetch(ctx context.Context, req Requirement, w io.Writer) (int64, error) {
	content, ok := m[req.Name]
	if !ok {
		return 0, errors.New("404")
	}
	n, err := io.WriteString(w, content)
	return int64(n), err
}

func TestDownload_SortedWithProvenance(t *testing.T) {
	reqs := NewRequirements()
	reqs.Add("b.bikey", "@b")
	reqs.Add("a.bikey", "@a")
	reqs.Add("a.bikey", ManualProvenance)

	staged := map[string]*bufferCloser{}
	create := func(name string) (io.WriteCloser, error) {
		staged[name] = &bufferCloser{}
		return staged[name], nil
	}
	log := &recordingLogger{}

	total, err := Download(context.Background(), mapSource{"a.bikey": "aa", "b.bikey": "bbb"}, reqs, create, log)
	require.NoError(t, err)

	assert.Equal(t, int64(5), total)
	assert.Equal(t, "aa", staged["a.bikey"].String())
	assert.Equal(t, []string{"\ta.bikey (@a,MANUAL)", "\tb.bikey (@b)"}, log.messages)
}

func TestDownload_Error(t *testing.T) {
	reqs := NewRequirements()
	reqs.Add("missing.bikey", "@a")

	_, err := Download(context.Background(), mapSource{}, reqs, func(name string) (io.WriteCloser, error) {
		return &bufferCloser{}, nil
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.bikey")
}
