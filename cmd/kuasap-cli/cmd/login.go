package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var passwordFlag string

func init() {
	loginCmd.Flags().StringVarP(&passwordFlag, "password", "p", "", "Password, prompted for when omitted.")
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Logs into the portal and saves the issued token.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := passwordFlag
		if password == "" {
			fmt.Fprint(os.Stderr, "Password: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			password = string(raw)
		}

		res, err := newClient("").Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		err = saveToken(res.Token)
		if err != nil {
			return fmt.Errorf("save token: %w", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Username", "Token", "Expires after idle"})
		t.AppendRow(table.Row{args[0], res.Token, (time.Duration(res.Duration) * time.Second).String()})
		t.Render()
		return nil
	},
}
