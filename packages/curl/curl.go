// Package curl turns a pasted curl command line into form fields.
package curl

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/tabfetch/packages/request"
)

// Error is returned for a command line that does not describe a request.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "curl command: " + e.Reason
}

// Command is a parsed curl invocation.
type Command struct {
	Method    string
	URL       string
	Headers   map[string]string
	Body      string
	BasicAuth string
}

// flags that never take a value
var switches = map[string]bool{
	"-k": true, "--insecure": true,
	"-L": true, "--location": true,
	"-s": true, "--silent": true,
	"-S": true, "--show-error": true,
	"-v": true, "--verbose": true,
	"-i": true, "--include": true,
	"-f": true, "--fail": true,
	"--compressed": true,
}

// Parse parses a curl command line. Line continuations are accepted, so a
// command copied from browser devtools parses as is.
func Parse(cmdline string) (*Command, error) {
	cmdline = strings.TrimSpace(strings.NewReplacer("\\\r\n", " ", "\\\n", " ").Replace(cmdline))

	tokens := tokenize(cmdline)
	if len(tokens) > 0 && tokens[0] == "curl" {
		tokens = tokens[1:]
	}
	tokens = splitAttached(tokens)

	c := &Command{Headers: make(map[string]string)}
	explicitMethod := false

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		value := func() (string, error) {
			if i+1 >= len(tokens) {
				return "", &Error{Reason: "missing value for " + token}
			}
			i++
			return tokens[i], nil
		}

		switch {
		case token == "-X" || token == "--request":
			v, err := value()
			if err != nil {
				return nil, err
			}
			c.Method = strings.ToUpper(v)
			explicitMethod = true

		case token == "-H" || token == "--header":
			v, err := value()
			if err != nil {
				return nil, err
			}
			if name, val, ok := strings.Cut(v, ":"); ok {
				c.Headers[strings.TrimSpace(name)] = strings.TrimSpace(val)
			}

		case token == "-d" || token == "--data" || token == "--data-raw" || token == "--data-binary":
			v, err := value()
			if err != nil {
				return nil, err
			}
			c.Body = v

		case token == "--json":
			v, err := value()
			if err != nil {
				return nil, err
			}
			c.Body = v
			c.Headers["Content-Type"] = "application/json"
			c.Headers["Accept"] = "application/json"

		case token == "-u" || token == "--user":
			v, err := value()
			if err != nil {
				return nil, err
			}
			c.BasicAuth = v

		case token == "-A" || token == "--user-agent":
			v, err := value()
			if err != nil {
				return nil, err
			}
			c.Headers["User-Agent"] = v

		case token == "-e" || token == "--referer":
			v, err := value()
			if err != nil {
				return nil, err
			}
			c.Headers["Referer"] = v

		case token == "-b" || token == "--cookie":
			v, err := value()
			if err != nil {
				return nil, err
			}
			c.Headers["Cookie"] = v

		case token == "--url":
			v, err := value()
			if err != nil {
				return nil, err
			}
			c.URL = v

		case switches[token]:

		case strings.HasPrefix(token, "-"):
			// Unknown option; assume it takes a value unless the next token
			// is another option or the URL.
			if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
				i++
			}

		default:
			if c.URL == "" {
				c.URL = token
			}
		}
	}

	if c.URL == "" {
		return nil, &Error{Reason: "no URL found"}
	}
	if !explicitMethod {
		c.Method = "GET"
		if c.Body != "" {
			c.Method = "POST"
		}
	}
	if c.BasicAuth != "" {
		if _, ok := c.Headers["Authorization"]; !ok {
			c.Headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(c.BasicAuth))
		}
	}
	return c, nil
}

// Apply overwrites the URL, method, headers and body of fields with the
// command's, leaving the execution mode alone.
func (c *Command) Apply(fields request.Fields) (request.Fields, error) {
	fields.URL = c.URL
	fields.Method = c.Method
	fields.Body = c.Body
	fields.Headers = ""
	if len(c.Headers) > 0 {
		data, err := json.Marshal(c.Headers)
		if err != nil {
			return fields, fmt.Errorf("encoding headers: %w", err)
		}
		fields.Headers = string(data)
	}
	return fields, nil
}

// short options that take a value, which curl also accepts attached
// ("-XPUT", "-HAccept: x")
var valuedShort = map[byte]bool{
	'X': true, 'H': true, 'd': true, 'u': true, 'A': true, 'e': true, 'b': true,
}

// splitAttached separates "--opt=value" and attached short option values
// into two tokens.
func splitAttached(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		switch {
		case strings.HasPrefix(token, "--"):
			if name, value, ok := strings.Cut(token, "="); ok {
				out = append(out, name, value)
				continue
			}
		case len(token) > 2 && token[0] == '-' && valuedShort[token[1]]:
			out = append(out, token[:2], token[2:])
			continue
		}
		out = append(out, token)
	}
	return out
}

// tokenize splits a command line into words, honoring shell quoting.
func tokenize(cmd string) []string {
	var (
		tokens        []string
		current       strings.Builder
		inToken       bool
		inSingleQuote bool
		inDoubleQuote bool
		escaped       bool
	)

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch {
		case r == '\\' && !inSingleQuote:
			escaped = true
			inToken = true
		case r == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote
			inToken = true
		case r == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote
			inToken = true
		case (r == ' ' || r == '\t' || r == '\n') && !inSingleQuote && !inDoubleQuote:
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "{{")
}
