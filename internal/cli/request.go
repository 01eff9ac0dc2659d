package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/rawes/elastic"
	"github.com/kbukum/rawes/errors"
	"github.com/kbukum/rawes/value"
)

func newVerbCommand(a *app, method string) *cobra.Command {
	var (
		data   string
		params []string
	)

	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " PATH",
		Short: fmt.Sprintf("Send a %s request to PATH", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := elastic.Request{Method: method, Path: requestPath(args[0])}

			body, err := a.readData(data)
			if err != nil {
				return err
			}
			req.Body = body
			if req.Params, err = parseParams(params); err != nil {
				return err
			}

			return a.withClient(cmd, func(ctx context.Context, c *elastic.Client) error {
				resp, err := c.Execute(ctx, req)
				if err != nil {
					return err
				}
				if method == http.MethodHead {
					fmt.Fprintln(a.out, resp.Status)
				} else if err := render(a.out, resp.Body, a.flags.output, a.flags.jq); err != nil {
					return err
				}
				return a.checkStatus(resp.Status)
			})
		},
	}

	if method != http.MethodHead {
		cmd.Flags().StringVarP(&data, "data", "d", "", "request body: JSON text, @file, or @- for stdin")
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "query parameter key=value (repeatable)")
	return cmd
}

// requestPath drops one leading slash so "/idx/_search" and "idx/_search"
// address the same resource.
func requestPath(p string) string {
	return strings.TrimPrefix(p, "/")
}

// readData resolves --data. The body must be JSON; it is decoded here so
// malformed input fails before any request is sent.
func (a *app) readData(data string) (any, error) {
	if data == "" {
		return nil, nil
	}
	raw, err := a.readSource(data)
	if err != nil {
		return nil, err
	}
	v, err := value.Decode(raw)
	if err != nil {
		return nil, errors.InvalidInput("data", "body is not valid JSON").WithCause(err)
	}
	return v, nil
}

// readSource returns s itself, or the contents named by "@file" or "@-".
func (a *app) readSource(s string) ([]byte, error) {
	switch {
	case s == "@-" || s == "-":
		return io.ReadAll(a.in)
	case strings.HasPrefix(s, "@"):
		return os.ReadFile(s[1:])
	default:
		return []byte(s), nil
	}
}

func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, errors.InvalidInput("param", fmt.Sprintf("expected key=value, got %q", p))
		}
		params[k] = v
	}
	return params, nil
}

func (a *app) checkStatus(status int) error {
	if a.flags.fail && status >= http.StatusBadRequest {
		return fmt.Errorf("service replied with status %d", status)
	}
	return nil
}
