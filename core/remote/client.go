package remote

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
)

// Entry is one item in a remote directory listing.
type Entry struct {
	// Name is the base name of the entry.
	Name string
	// Path is the full remote path of the entry.
	Path string
	// IsDir is true for directories.
	IsDir bool
	// Size is the size in bytes (files only).
	Size uint64
}

// Client defines the remote file store operations a sync run needs.
type Client interface {
	// List returns the entries directly under dir.
	List(ctx context.Context, dir string) ([]Entry, error)
	// Delete removes the file at the given path.
	Delete(ctx context.Context, filePath string) error
	// Retrieve opens the file at the given path for reading.
	// The reader must be closed before the next operation is issued.
	Retrieve(ctx context.Context, filePath string) (io.ReadCloser, error)
	// Store writes r to the given path, replacing any existing content.
	Store(ctx context.Context, filePath string, r io.Reader) error
	// Close ends the session.
	Close() error
}

// Dialer opens a session on the remote file store.
type Dialer interface {
	Dial(ctx context.Context) (Client, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context) (Client, error)

// Dial calls f(ctx).
func (f DialerFunc) Dial(ctx context.Context) (Client, error) {
	return f(ctx)
}

// Transport names.
const (
	TransportFTP  = "ftp"
	TransportSFTP = "sftp"
)

// NewDialer returns a Dialer for the transport selected by cfg.Address.
func NewDialer(cfg Config) Dialer {
	return DialerFunc(func(ctx context.Context) (Client, error) {
		transport, host, err := ParseAddress(cfg.Address)
		if err != nil {
			return nil, err
		}
		switch transport {
		case TransportSFTP:
			return dialSFTP(ctx, host, cfg)
		default:
			return dialFTP(ctx, host, cfg)
		}
	})
}

// ParseAddress splits an address into transport and host:port, applying the
// default port of the transport when none is given.
func ParseAddress(address string) (transport, hostPort string, err error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", "", fmt.Errorf("remote address is empty")
	}

	transport = TransportFTP
	host := address
	if strings.Contains(address, "://") {
		u, err := url.Parse(address)
		if err != nil {
			return "", "", fmt.Errorf("invalid remote address %q: %w", address, err)
		}
		switch u.Scheme {
		case TransportFTP, TransportSFTP:
			transport = u.Scheme
		default:
			return "", "", fmt.Errorf("unsupported remote scheme %q", u.Scheme)
		}
		host = u.Host
	}
	if host == "" {
		return "", "", fmt.Errorf("remote address %q has no host", address)
	}

	if !strings.Contains(host, ":") {
		if transport == TransportSFTP {
			host += ":22"
		} else {
			host += ":21"
		}
	}
	return transport, host, nil
}

// Join joins a directory and a name into a remote path.
// Remote paths always use forward slashes.
func Join(dir, name string) string {
	return path.Join(dir, name)
}

// Dir returns the directory part of a remote path, with a trailing slash.
func Dir(filePath string) string {
	d := path.Dir(filePath)
	if !strings.HasSuffix(d, "/") {
		d += "/"
	}
	return d
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
