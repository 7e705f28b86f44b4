// Package dispatch executes one request in the selected execution context.
//
// Two interchangeable strategies share one contract:
//   - page: the exchange runs inside the active page's script environment
//     and inherits its cookies and origin
//   - background: the exchange runs in the privileged context with its own
//     network identity
//
// The whole operation is raced against a fixed deadline. A result that
// arrives after the deadline is discarded.
package dispatch
