package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/tabfetch/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

const starterForm = `# tabfetch form. Run 'tabfetch watch %[1]s' and save this file to send it.
url: https://httpbin.org/anything/{{uuid()}}
method: POST
headers:
  Content-Type: application/json
  X-Request-Time: "{{timestamp()}}"
body:
  name: Test Resource
  description: Created by tabfetch
# Send from the active tab with its cookies; false uses the background context.
runInTab: false
`

var initCmd = &cobra.Command{
	Use:   "init [form.yaml]",
	Short: "Create a starter form and config file",
	Long: `Create a starter form and a config file in the current directory.

This creates:
  - request.yaml   - Form to edit and send with 'tabfetch watch'
  - .tabfetch.json - Configuration file

Examples:
  tabfetch init
  tabfetch init login.yaml --force`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
	rootCmd.AddCommand(initCmd)
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	formName := "request.yaml"
	if len(args) == 1 {
		formName = args[0]
	}
	formFile := formName
	if !filepath.IsAbs(formFile) {
		formFile = filepath.Join(cwd, formFile)
	}
	configFile := filepath.Join(cwd, config.ConfigFilenames[0])

	if !forceInit {
		for _, f := range []string{configFile, formFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	configJSON, err := json.MarshalIndent(config.DefaultConfig(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFile, append(configJSON, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(formFile, []byte(fmt.Sprintf(starterForm, formName)), 0o644); err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", formFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nRun 'tabfetch watch %s' and save the form to send it.\n", formName)
	return nil
}
