package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var rawFlag bool

func init() {
	queryCmd.Flags().BoolVar(&rawFlag, "raw", false, "Print the raw payload instead of a table.")
	rootCmd.AddCommand(queryCmd)
}

// parseQueryArgs turns key=value arguments into query arguments.
func parseQueryArgs(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not of the form key=value", arg)
		}
		out[key] = value
	}
	return out, nil
}

var queryCmd = &cobra.Command{
	Use:   "query <query id> [key=value...]",
	Short: "Runs a portal query, ex. `query ag222 arg01=106 arg02=1`.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := currentToken()
		if err != nil {
			return err
		}
		queryArgs, err := parseQueryArgs(args[1:])
		if err != nil {
			return err
		}

		res, err := newClient(token).Query(cmd.Context(), args[0], queryArgs)
		if err != nil {
			return err
		}
		if rawFlag {
			fmt.Println(res.Payload)
			return nil
		}

		t := newTable()
		for _, row := range res.Rows {
			tr := make(table.Row, len(row))
			for i, cell := range row {
				tr[i] = cell
			}
			t.AppendRow(tr)
		}
		t.Render()
		return nil
	},
}
