package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"kuasap-backend/lib/serviceutil"
	"kuasap-backend/services/api"

	"connectrpc.com/connect"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var BaseUrl = "http://localhost:14769"

var tokenFlag string

var rootCmd = &cobra.Command{
	Use:   "kuasap-cli",
	Short: "kuasap-cli is a CLI interface for the KUAS AP bridge.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&BaseUrl, "server", BaseUrl, "Base url of the kuasap server.")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Token to use instead of the saved one.")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient(token string) *api.Client {
	var opts []connect.ClientOption
	if token != "" {
		opts = append(opts, connect.WithInterceptors(serviceutil.ProvideTokenInterceptor(token)))
	}
	return api.NewClient(http.DefaultClient, strings.TrimSuffix(BaseUrl, "/"), opts...)
}

func newTable() table.Writer {
	return newTableTo(os.Stdout)
}

func newTableTo(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func tokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kuasap-cli", "token"), nil
}

func saveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0600)
}

func clearToken() error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// currentToken prefers --token over the token saved by `login`.
func currentToken() (string, error) {
	if tokenFlag != "" {
		return tokenFlag, nil
	}
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	saved, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("not logged in, run `kuasap-cli login` first")
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(saved)), nil
}
