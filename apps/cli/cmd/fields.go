package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Print the last-used form fields",
	Long: `Print the form fields saved by the last submission, as JSON. These are the
values a bare 'tabfetch send' starts from.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context(), appConfig)
		if err != nil {
			return err
		}
		defer sess.Close()

		fields, err := sess.fields.Load(cmd.Context())
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(fields, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
