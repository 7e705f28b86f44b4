package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cookieBackgroundFlag bool

var cookieCmd = &cobra.Command{
	Use:   "cookie",
	Short: "Inspect and seed the cookie stores",
	Long: `Inspect and seed the cookie stores. The page store belongs to the browser
profile and is used by requests run in a tab; --background selects the
independent store of the background context.

Examples:
  tabfetch cookie set https://app.example.com session abc123
  tabfetch cookie list
  tabfetch cookie list --background`,
}

var cookieSetCmd = &cobra.Command{
	Use:   "set <url> <name> <value>",
	Short: "Store a cookie as if the site at url had set it",
	Args:  usageArgs(cobra.ExactArgs(3)),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := openSession(ctx, appConfig)
		if err != nil {
			return err
		}
		defer sess.Close()

		jar := sess.jar(cookieBackgroundFlag)
		if err := jar.Set(ctx, args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s for %s (%s)\n", args[1], args[0], jar.Scope())
		return nil
	},
}

var cookieListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored cookies",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := openSession(ctx, appConfig)
		if err != nil {
			return err
		}
		defer sess.Close()

		cookies, err := sess.jar(cookieBackgroundFlag).List(ctx)
		if err != nil {
			return err
		}
		if len(cookies) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No cookies stored.")
			return nil
		}

		for _, c := range cookies {
			expires := "session"
			if !c.Expires.IsZero() {
				expires = "expires " + humanize.RelTime(c.Expires, time.Now(), "ago", "from now")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s  %s=%s  (%s)\n", c.Domain, c.Path, c.Name, c.Value, expires)
		}
		return nil
	},
}

func init() {
	cookieCmd.PersistentFlags().BoolVar(&cookieBackgroundFlag, "background", false, "Use the background context's cookie store")
	cookieCmd.AddCommand(cookieSetCmd, cookieListCmd)
	rootCmd.AddCommand(cookieCmd)
}
