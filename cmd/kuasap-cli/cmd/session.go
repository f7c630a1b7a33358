package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(validCmd)
	rootCmd.AddCommand(logoutCmd)
}

var validCmd = &cobra.Command{
	Use:   "valid",
	Short: "Prints whether the current token is still valid.",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := currentToken()
		if err != nil {
			return err
		}
		valid, err := newClient("").IsValid(cmd.Context(), token)
		if err != nil {
			return err
		}
		fmt.Println(valid)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revokes the current token and forgets it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := currentToken()
		if err != nil {
			return err
		}
		revoked, err := newClient(token).Logout(cmd.Context())
		if err != nil {
			return err
		}
		if !revoked {
			fmt.Println("token was already invalid")
		}
		return clearToken()
	},
}
