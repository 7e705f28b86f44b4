// Package request turns raw form input into validated request descriptors.
//
// The Composer is the only entry point for user input:
//   - Persists the raw fields before anything else
//   - Parses the header text as a JSON object
//   - Normalizes and validates the URL and method
//   - Produces an immutable Descriptor or a typed rejection
package request
