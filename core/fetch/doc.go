// Package fetch downloads the declarative documents and artifacts a sync run
// depends on: the settings document, the mod-list export, the key mapping,
// the par-file template, key files from an HTTP keystore and extra files.
//
// Every request is bounded: a per-request timeout, a redirect cap and a
// per-kind size limit. Text documents must be valid UTF-8. Failures are
// reported as *FetchError carrying a stable code and the stage (kind) that
// failed, so the transcript can say which source could not be read.
//
// # Usage
//
//	f := fetch.New(fetch.Options{Timeout: 15 * time.Second})
//	text, err := f.Text(ctx, fetch.KindModList, cfg.ModListURL)
//
//	n, err := f.Download(ctx, fetch.KindKeyFile, keyURL, file)
package fetch
