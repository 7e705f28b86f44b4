// Package form loads the request form used by the watch host.
//
// A form is a YAML document with the five request fields:
//
//	url: https://example.com/api/items
//	method: POST
//	headers:
//	  Content-Type: application/json
//	body:
//	  name: widget
//	runInTab: false
//	env: .env
//
// headers may be JSON text or a mapping; body may be text or any YAML value,
// which is sent as JSON. runInTab defaults to true. env names a dotenv file,
// relative to the form, whose variables fill {{placeholders}}.
package form
