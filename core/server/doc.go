// Package server holds the configuration of the HTTP control surface.
//
// The control surface is optional: `keymaster serve` exposes the run status,
// a start endpoint and the transcript of the last run. This package only
// defines the listen port and the API key that protects those endpoints.
package server
