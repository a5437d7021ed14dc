package remote

import (
	"context"
	"fmt"
	"io"

	"github.com/jlaffaye/ftp"
)

type ftpClient struct {
	conn *ftp.ServerConn
}

func dialFTP(ctx context.Context, host string, cfg Config) (Client, error) {
	conn, err := ftp.Dial(host,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(cfg.timeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ftp server %s: %w", host, err)
	}
	if err := conn.Login(cfg.User, cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("failed to log in to ftp server %s as %s: %w", host, cfg.User, err)
	}
	// Login switches the connection to binary (TYPE I) transfers.
	return &ftpClient{conn: conn}, nil
}

func (c *ftpClient) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := c.conn.List(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.Name == "." || item.Name == ".." {
			continue
		}
		entries = append(entries, Entry{
			Name:  item.Name,
			Path:  Join(dir, item.Name),
			IsDir: item.Type == ftp.EntryTypeFolder,
			Size:  item.Size,
		})
	}
	return entries, nil
}

func (c *ftpClient) Delete(ctx context.Context, filePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.conn.Delete(filePath); err != nil {
		return fmt.Errorf("failed to delete %s: %w", filePath, err)
	}
	return nil
}

func (c *ftpClient) Retrieve(ctx context.Context, filePath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := c.conn.Retr(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve %s: %w", filePath, err)
	}
	return resp, nil
}

func (c *ftpClient) Store(ctx context.Context, filePath string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.conn.Stor(filePath, r); err != nil {
		return fmt.Errorf("failed to store %s: %w", filePath, err)
	}
	return nil
}

func (c *ftpClient) Close() error {
	return c.conn.Quit()
}
