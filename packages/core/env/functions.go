package env

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Func func(args []string) string

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

func defaultFuncs(now func() time.Time) map[string]Func {
	return map[string]Func{
		"uuid": func([]string) string {
			return uuid.NewString()
		},
		"timestamp": func([]string) string {
			return strconv.FormatInt(now().Unix(), 10)
		},
		"timestampMs": func([]string) string {
			return strconv.FormatInt(now().UnixMilli(), 10)
		},
		"now": func([]string) string {
			return now().UTC().Format(time.RFC3339)
		},
		"base64": func(args []string) string {
			if len(args) == 0 {
				return ""
			}
			return base64.StdEncoding.EncodeToString([]byte(args[0]))
		},
	}
}

// splitArgs splits a comma-separated argument list, honoring single and
// double quotes.
func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var (
		args    []string
		current strings.Builder
		quote   byte
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote == 0 && (ch == '"' || ch == '\''):
			quote = ch
		case quote != 0 && ch == quote:
			quote = 0
		case quote == 0 && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	return append(args, strings.TrimSpace(current.String()))
}
