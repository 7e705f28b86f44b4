package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/tabfetch/packages/http"
	"github.com/tidwall/gjson"
)

// View is what a surface displays for one response.
type View struct {
	Status  string
	IsError bool
	Headers string
	Body    string
	// Size is the length of the raw body in bytes.
	Size int
}

// Surface is where submissions are displayed.
type Surface interface {
	// Reset clears whatever the previous submission displayed.
	Reset()
	// Status shows a one-line message, flagged as an error or not.
	Status(text string, isError bool)
	// Result shows a rendered response.
	Result(view View)
}

// Render builds the view of resp. It has no side effects, so rendering the
// same response twice yields the same view.
func Render(resp *http.Response) View {
	if resp == nil {
		return View{IsError: true, Headers: "{}"}
	}
	return View{
		Status:  fmt.Sprintf("%d %s", resp.Status, resp.StatusText),
		IsError: !resp.OK,
		Headers: renderHeaders(resp.Headers),
		Body:    PrettyBody(resp.Body),
		Size:    len(resp.Body),
	}
}

// PrettyBody re-indents body with two spaces when it is valid JSON and
// returns it unchanged otherwise.
func PrettyBody(body string) string {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" || !gjson.Valid(trimmed) {
		return body
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return body
	}
	return buf.String()
}

func renderHeaders(headers map[string]string) string {
	if headers == nil {
		headers = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(headers); err != nil {
		return "{}"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
