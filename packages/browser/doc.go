// Package browser provides the browser session that page-mode requests run in.
//
// A session is a set of tabs, one of them active, plus one cookie store per
// execution context. Scripts are injected into a tab by running them in a
// fresh JavaScript runtime whose fetch carries the page cookie store and the
// tab's origin, so a request behaves like one made by a same-origin script.
package browser
