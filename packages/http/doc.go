// Package http performs the HTTP exchange shared by both execution contexts.
//
// It wraps the standard library's http package with:
//   - Functional options for redirects, TLS, proxy and default headers
//   - Cookie jar support for ambient credentials
//   - Page origin stamping (Origin and Referer) for in-page requests
//   - Header flattening and whole-body text capture
//   - Normalization of transport failures into a Response value
package http
