package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/tabfetch/packages/dispatch"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var tabCmd = &cobra.Command{
	Use:   "tab",
	Short: "Manage the tabs of the browser session",
	Long: `Manage the tabs of the browser session. Requests sent with --in-tab run
inside the active tab, with its cookies and origin.

Examples:
  tabfetch tab open https://app.example.com/dashboard
  tabfetch tab list
  tabfetch tab use 3f2a
  tabfetch tab close 3f2a`,
}

var tabOpenCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "Open a tab and make it active",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context(), appConfig)
		if err != nil {
			return err
		}
		defer sess.Close()

		tab, err := sess.tabs.Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Opened %s %s\n", shortID(tab.ID), tab.URL)
		if !dispatch.IsScriptablePage(tab.URL) {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s requests cannot run in this tab\n", yellow("note:"))
		}
		return nil
	},
}

var tabListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tabs; the active one is marked with *",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context(), appConfig)
		if err != nil {
			return err
		}
		defer sess.Close()

		tabs, err := sess.tabs.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(tabs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No tabs open.")
			return nil
		}

		green := color.New(color.FgGreen).SprintFunc()
		for _, tab := range tabs {
			marker := " "
			if tab.Active {
				marker = green("*")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", marker, shortID(tab.ID), tab.URL)
		}
		return nil
	},
}

var tabUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Make a tab active (any unique id prefix works)",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context(), appConfig)
		if err != nil {
			return err
		}
		defer sess.Close()

		tab, err := sess.tabs.Use(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Active: %s %s\n", shortID(tab.ID), tab.URL)
		return nil
	},
}

var tabCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close a tab",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context(), appConfig)
		if err != nil {
			return err
		}
		defer sess.Close()

		tab, err := sess.tabs.Close(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Closed %s %s\n", shortID(tab.ID), tab.URL)
		return nil
	},
}

func init() {
	tabCmd.AddCommand(tabOpenCmd, tabListCmd, tabUseCmd, tabCloseCmd)
	rootCmd.AddCommand(tabCmd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
