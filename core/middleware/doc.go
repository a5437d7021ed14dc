// Package middleware contains HTTP middleware for the control surface.
//
// # Components
//
//   - auth: API key validation (X-API-Key header or api_key query parameter).
//   - rayid: Generates a request id for every incoming request, injecting it
//     into the context locals and the X-Ray-ID response header for tracing.
//
// RayID must be registered first so that every later log line carries it.
package middleware
