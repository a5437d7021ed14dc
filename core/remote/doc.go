// Package remote provides an abstraction over the game server's remote file
// store.
//
// The store is reached over a persistent session scoped to one reconciliation
// pass: it is opened, used for several listings, deletions and transfers, and
// then closed. Two transports are supported:
//
//   - FTP (github.com/jlaffaye/ftp), selected by a bare "host:port" address or
//     an "ftp://" URL. Transfers use binary mode.
//   - SFTP (github.com/pkg/sftp over golang.org/x/crypto/ssh), selected by an
//     "sftp://" URL.
//
// # Client Interface
//
// The Client interface abstracts the transport so that the reconciler and the
// key resolution engine can be unit tested with the testify mock in
// core/remote/mocks.
//
// # Usage
//
//	dialer := remote.NewDialer(remote.Config{Address: addr, User: u, Password: p})
//	client, err := dialer.Dial(ctx)
//	defer client.Close()
//	entries, err := client.List(ctx, "/arma3/keys/")
package remote
