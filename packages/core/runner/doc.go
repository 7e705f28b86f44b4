// Package runner handles submissions: it composes a request from the form
// fields, dispatches it in the selected execution context and shows the
// outcome on an output surface.
//
// Every failure, from a header typo to a timeout, ends as a single status
// line on the surface and an error returned to the host. Submissions are
// serialized; a runner never has more than one request in flight.
package runner
