package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/rawes/elastic"
	"github.com/kbukum/rawes/errors"
)

// failedItems counts bulk items whose result carries an error.
const failedItems = `[.items[]? | to_entries[0].value | select(has("error"))] | length`

func newBulkCommand(a *app) *cobra.Command {
	var (
		file   string
		params []string
	)

	cmd := &cobra.Command{
		Use:   "bulk [INDEX[/TYPE]]",
		Short: "Send newline-delimited actions to the bulk endpoint",
		Long: `Send a file of newline-delimited action and source lines to the bulk
endpoint. INDEX and TYPE become the defaults for actions that omit them.

Example:
  rawes bulk tweets/tweet --file tweets.ndjson
  cat actions.ndjson | rawes bulk --file -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "_bulk"
			if len(args) == 1 {
				if p := strings.Trim(args[0], "/"); p != "" {
					target = p + "/_bulk"
				}
			}

			body, err := a.readSource(sourceArg(file))
			if err != nil {
				return err
			}
			if len(strings.TrimSpace(string(body))) == 0 {
				return errors.InvalidInput("file", "bulk body is empty")
			}
			if body[len(body)-1] != '\n' {
				body = append(body, '\n')
			}
			qp, err := parseParams(params)
			if err != nil {
				return err
			}

			return a.withClient(cmd, func(ctx context.Context, c *elastic.Client) error {
				resp, err := c.Execute(ctx, elastic.Request{
					Method: "POST",
					Path:   target,
					Body:   string(body),
					Params: qp,
				})
				if err != nil {
					return err
				}
				if err := render(a.out, resp.Body, a.flags.output, a.flags.jq); err != nil {
					return err
				}

				if failed, err := resp.Body.Query(failedItems); err == nil && len(failed) == 1 {
					if n, _ := failed[0].Int(); n > 0 {
						fmt.Fprintf(a.errOut, "%d of %d bulk items failed\n", n, resp.Body.Get("items").Len())
						if a.flags.fail {
							return fmt.Errorf("%d bulk items failed", n)
						}
					}
				}
				return a.checkStatus(resp.Status)
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "NDJSON file with action and source lines, or - for stdin")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "query parameter key=value (repeatable)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// sourceArg maps a --file value onto readSource's "@" convention.
func sourceArg(file string) string {
	if file == "-" {
		return "@-"
	}
	return "@" + file
}
