package mocks

import (
	"context"
	"io"

	"keymaster/core/remote"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of remote.Client
type Client struct {
	mock.Mock
}

func (m *Client) List(ctx context.Context, dir string) ([]remote.Entry, error) {
	args := m.Called(ctx, dir)
	if entries, ok := args.Get(0).([]remote.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Delete(ctx context.Context, filePath string) error {
	args := m.Called(ctx, filePath)
	return args.Error(0)
}

func (m *Client) Retrieve(ctx context.Context, filePath string) (io.ReadCloser, error) {
	args := m.Called(ctx, filePath)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Store(ctx context.Context, filePath string, r io.Reader) error {
	args := m.Called(ctx, filePath, r)
	return args.Error(0)
}

func (m *Client) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Dialer returns a remote.Dialer that always hands out the given client.
func Dialer(c remote.Client) remote.Dialer {
	return remote.DialerFunc(func(ctx context.Context) (remote.Client, error) {
		return c, nil
	})
}
