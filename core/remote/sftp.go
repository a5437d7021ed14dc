package remote

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"go.uber.org/zap"
)

type sftpClient struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

func dialSFTP(ctx context.Context, host string, cfg Config) (Client, error) {
	hostKeyCallback, err := hostKeyCallback(host, cfg)
	if err != nil {
		return nil, err
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.timeout(),
	}

	d := net.Dialer{Timeout: cfg.timeout()}
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sftp server %s: %w", host, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, host, sshCfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s as %s failed: %w", host, cfg.User, err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("failed to start sftp subsystem on %s: %w", host, err)
	}
	return &sftpClient{ssh: sshClient, sftp: client}, nil
}

func hostKeyCallback(host string, cfg Config) (ssh.HostKeyCallback, error) {
	if cfg.KnownHostsFile == "" {
		l := cfg.Logger
		if l == nil {
			l = zap.NewNop()
		}
		l.Warn("SFTP host key is not verified; set RUN_KNOWN_HOSTS_FILE to pin it", zap.String("host", host))
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(cfg.KnownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts %s: %w", cfg.KnownHostsFile, err)
	}
	return cb, nil
}

func (c *sftpClient) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := c.sftp.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Name:  info.Name(),
			Path:  Join(dir, info.Name()),
			IsDir: info.IsDir(),
			Size:  uint64(info.Size()),
		})
	}
	return entries, nil
}

func (c *sftpClient) Delete(ctx context.Context, filePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.sftp.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete %s: %w", filePath, err)
	}
	return nil
}

func (c *sftpClient) Retrieve(ctx context.Context, filePath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := c.sftp.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve %s: %w", filePath, err)
	}
	return f, nil
}

func (c *sftpClient) Store(ctx context.Context, filePath string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := c.sftp.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("failed to open %s for writing: %w", filePath, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to store %s: %w", filePath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to finish %s: %w", filePath, err)
	}
	return nil
}

func (c *sftpClient) Close() error {
	sftpErr := c.sftp.Close()
	sshErr := c.ssh.Close()
	if sftpErr != nil {
		return sftpErr
	}
	return sshErr
}
