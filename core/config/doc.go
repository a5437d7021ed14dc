// Package config provides configuration management for keymaster.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults come from the `default` struct tags of each
// section.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Run: settings document URL, config name, verbosity, dry-run, staging
//   - Fetch: HTTP download timeout and redirect limit
//   - Storage: S3/MinIO credentials for an s3:// keystore
//   - Server: HTTP control surface port and API key
//   - Log: Logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Run.SettingsURL)
package config
