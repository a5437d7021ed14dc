package remote

import "go.uber.org/zap"

// Config holds connection settings for the remote file store.
type Config struct {
	// Address is "host[:port]", "ftp://host[:port]" or "sftp://host[:port]".
	Address string
	// User is the login name.
	User string
	// Password is the login password.
	Password string
	// TimeoutSeconds bounds connection setup and each control exchange.
	TimeoutSeconds int
	// KnownHostsFile pins SFTP host keys. Empty disables host key checking.
	KnownHostsFile string
	// Logger receives connection warnings. Nil discards them.
	Logger *zap.Logger
}
