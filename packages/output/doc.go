// Package output renders response descriptors for display.
//
// Render turns a response into a View: a status line, pretty-printed
// headers and a body that is pretty-printed when it is JSON. A Surface
// shows views and status messages:
//   - Console: human-readable colored terminal output
//   - JSON: one machine-readable document per submission
package output
