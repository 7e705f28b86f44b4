package cmd

import (
	"github.com/abdul-hamid-achik/tabfetch/packages/curl"
	"github.com/abdul-hamid-achik/tabfetch/packages/request"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send [url]",
	Short: "Send one request",
	Long: `Send one request and print its status, headers and body.

Every field not given on the command line is taken from the last
submission, so repeating a request only needs the parts that change.
With --curl the request comes from a pasted curl command; other flags
still override it.

Examples:
  tabfetch send https://example.com/api/me
  tabfetch send -X POST --headers '{"Content-Type":"application/json"}' --body '{"a":1}'
  tabfetch send --background https://api.example.com/health
  tabfetch send --env-file .env 'https://{{HOST}}/items'
  tabfetch send --curl "curl -H 'Accept: application/json' https://api.example.com/me"`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: sendCommand,
}

var (
	sendURLFlag        string
	sendMethodFlag     string
	sendHeadersFlag    string
	sendBodyFlag       string
	sendInTabFlag      bool
	sendBackgroundFlag bool
	sendEnvFileFlag    string
	sendCurlFlag       string
)

func init() {
	sendCmd.Flags().StringVarP(&sendURLFlag, "url", "u", "", "Request URL")
	sendCmd.Flags().StringVarP(&sendMethodFlag, "method", "X", "", "Method: GET, POST, PUT, PATCH or DELETE")
	sendCmd.Flags().StringVarP(&sendHeadersFlag, "headers", "H", "", "Headers as a JSON object")
	sendCmd.Flags().StringVarP(&sendBodyFlag, "body", "d", "", "Request body, sent with POST, PUT, PATCH and DELETE")
	sendCmd.Flags().BoolVar(&sendInTabFlag, "in-tab", false, "Run inside the active tab")
	sendCmd.Flags().BoolVar(&sendBackgroundFlag, "background", false, "Run from the background context")
	sendCmd.Flags().StringVar(&sendEnvFileFlag, "env-file", getEnvString("TABFETCH_ENV_FILE", ""), "Dotenv file for {{placeholders}} (env: TABFETCH_ENV_FILE)")
	sendCmd.Flags().StringVar(&sendCurlFlag, "curl", "", "Take URL, method, headers and body from a curl command line")
	sendCmd.MarkFlagsMutuallyExclusive("in-tab", "background")

	rootCmd.AddCommand(sendCmd)
}

func sendCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := appConfig

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	fields, err := sess.fields.Load(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Ignoring unreadable last-used fields")
		fields = request.Fields{RunInTab: true}
	}

	flags := cmd.Flags()
	if flags.Changed("curl") {
		parsed, err := curl.Parse(sendCurlFlag)
		if err != nil {
			return err
		}
		if fields, err = parsed.Apply(fields); err != nil {
			return err
		}
	}
	if flags.Changed("url") {
		fields.URL = sendURLFlag
	}
	if len(args) == 1 {
		fields.URL = args[0]
	}
	if flags.Changed("method") {
		fields.Method = sendMethodFlag
	}
	if fields.Method == "" {
		fields.Method = "GET"
	}
	if flags.Changed("headers") {
		fields.Headers = sendHeadersFlag
	}
	if flags.Changed("body") {
		fields.Body = sendBodyFlag
	}
	switch {
	case sendInTabFlag:
		fields.RunInTab = true
	case sendBackgroundFlag:
		fields.RunInTab = false
	}

	expander, err := newExpander(sendEnvFileFlag)
	if err != nil {
		return err
	}

	r := sess.newRunner(cfg, newSurface(cmd, cfg), expander)
	resp, err := r.Submit(ctx, fields)
	if err != nil {
		return &renderedError{err: err}
	}
	if !resp.OK {
		return &renderedError{err: &exchangeFailure{resp: resp}}
	}
	return nil
}
