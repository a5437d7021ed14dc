package pipeline

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"keymaster/core/remote"
	"keymaster/core/remote/mocks"
	"keymaster/core/staging"
	"keymaster/feature/settings"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
)

const (
	testModList = ":name: Tactical Ops\n:required_mods:\n- \"@CBA_A3\"\n- \"@ace\"\n:version: 1\n"
	testParFile = "class Arma3Params\r\n{\r\n\tmod=\"-mod=@old\";\r\n};\r\n"
	testMapping = `{"@cba_a3": ["cba_a3.bikey"], "@ace": ["ace.bikey"]}`
)

// documents serves the declarative inputs and the keystore.
func documents(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/keys/") {
			_, _ = io.WriteString(w, "KEY:"+strings.TrimPrefix(r.URL.Path, "/keys/"))
			return
		}
		content, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, content)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSettings(baseURL string) (*settings.ServerSettings, *settings.Config) {
	s := &settings.ServerSettings{
		FTPAddress:        "ftp://game.example.com",
		FTPUser:           "arma",
		FTPPassword:       "hunter2",
		FTPBasePath:       "/arma3/",
		FTPParFileName:    "server.par",
		KeystoreURL:       baseURL + "/keys",
		KeyMappingFileURL: baseURL + "/mapping.json",
		KeyStrategy:       settings.StrategyMapping,
	}
	c := &settings.Config{
		Name:       "Main",
		ModListURL: baseURL + "/main.yml",
		ParFileURL: baseURL + "/main.par",
		ExtraFiles: []settings.ExtraFile{
			{Source: baseURL + "/motd.txt", Destination: "/arma3/cfg/motd.txt"},
		},
	}
	s.Configs = []settings.Config{*c}
	return s, c
}

func defaultFiles() map[string]string {
	return map[string]string{
		"/mapping.json": testMapping,
		"/main.yml":     testModList,
		"/main.par":     testParFile,
		"/motd.txt":     "welcome",
	}
}

func entries(dir string, names ...string) []remote.Entry {
	out := make([]remote.Entry, 0, len(names))
	for _, n := range names {
		out = append(out, remote.Entry{Name: n, Path: remote.Join(dir, n)})
	}
	return out
}

// storeRecorder captures uploaded content by path.
type storeRecorder struct {
	mu    sync.Mutex
	order []string
	files map[string]string
}

func newStoreRecorder() *storeRecorder {
	return &storeRecorder{files: make(map[string]string)}
}

func (s *storeRecorder) record(op string) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		s.mu.Lock()
		defer s.mu.Unlock()
		p := args.String(1)
		s.order = append(s.order, op+" "+p)
		if op == "store" {
			data, _ := io.ReadAll(args.Get(2).(io.Reader))
			s.files[p] = string(data)
		}
	}
}

// expectRemote wires the listings and mutations of a standard run.
func expectRemote(client *mocks.Client, rec *storeRecorder, mutate bool) {
	client.On("List", mock.Anything, "/arma3/keys/").Return(entries("/arma3/keys", "a3.bikey", "old.bikey", "ACE.bikey"), nil)
	client.On("List", mock.Anything, "/arma3/cfg/").Return(entries("/arma3/cfg", "motd.txt", "server.cfg"), nil)
	client.On("List", mock.Anything, "/arma3/").Return(append(entries("/arma3", "server.par", "arma3server.exe"),
		remote.Entry{Name: "keys", Path: "/arma3/keys", IsDir: true}), nil)
	client.On("Close").Return(nil)
	if !mutate {
		return
	}
	client.On("Delete", mock.Anything, mock.Anything).Return(nil).Run(rec.record("delete"))
	client.On("Store", mock.Anything, mock.Anything, mock.Anything).Return(nil).Run(rec.record("store"))
}

// phaseRecorder is an Observer that keeps every notification.
type phaseRecorder struct {
	mu     sync.Mutex
	phases []Phase
	lines  []Line
}

func (p *phaseRecorder) PhaseChanged(from, to Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phases = append(p.phases, to)
}

func (p *phaseRecorder) LineLogged(line Line) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, line)
}

func newTestUpdater(s *settings.ServerSettings, c *settings.Config, opts Options, dialer remote.Dialer, obs Observer) (*Updater, *staging.Area) {
	area := staging.New(afero.NewMemMapFs(), "/stage")
	u := NewUpdater(s, c, opts, Deps{
		Dialer:   dialer,
		Staging:  area,
		Observer: obs,
	})
	return u, area
}

// countingDialer counts dials and hands out the same client.
type countingDialer struct {
	mu     sync.Mutex
	client remote.Client
	dials  int
}

func (d *countingDialer) Dial(ctx context.Context) (remote.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	return d.client, nil
}
