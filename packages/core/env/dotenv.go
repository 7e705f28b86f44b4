package env

import (
	"fmt"
	"os"

	"github.com/subosito/gotenv"
)

// LoadDotEnv parses a dotenv file. Values are not exported to the process
// environment.
func LoadDotEnv(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer f.Close()

	vars, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing env file %s: %w", path, err)
	}
	return vars, nil
}
