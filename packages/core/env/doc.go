// Package env expands {{placeholder}} references in form fields.
//
// A placeholder names a variable from a dotenv file, a process environment
// variable ({{$HOME}}) or a function call ({{uuid()}}, {{timestamp()}},
// {{now()}}, {{base64(text)}}). Unknown placeholders are left as written.
package env
