package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	configlibsql "kuasap-backend/lib/configutil/libsql"
	"kuasap-backend/services/news"
	newsdb "kuasap-backend/services/news/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var newsDB configlibsql.Struct

var newsAddFlags news.News

func init() {
	newsCmd.PersistentFlags().StringVar(&newsDB.File, "db", ".data/news.db", "Path to the news database file.")
	newsCmd.PersistentFlags().StringVar(&newsDB.Url, "db-url", "", "Remote libsql url, takes precedence over --db.")
	newsCmd.PersistentFlags().StringVar(&newsDB.AuthToken, "db-token", os.Getenv("KUASAP_NEWS_DB_TOKEN"), "Auth token of the remote libsql database.")

	newsAddCmd.Flags().StringVar(&newsAddFlags.Title, "title", "", "Title of the news.")
	newsAddCmd.Flags().StringVar(&newsAddFlags.Content, "content", "", "Content of the news.")
	newsAddCmd.Flags().StringVar(&newsAddFlags.Link, "url", "", "Url the news links to.")
	newsAddCmd.Flags().StringVar(&newsAddFlags.Image, "image", "", "Url of the news image.")
	newsAddCmd.Flags().Int64Var(&newsAddFlags.Weight, "weight", 0, "Extra weight when picking news at random.")
	_ = newsAddCmd.MarkFlagRequired("title")

	newsCmd.AddCommand(newsListCmd, newsAddCmd, newsEnableCmd, newsDisableCmd, newsDeleteCmd)
	rootCmd.AddCommand(newsCmd)
}

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Manages the news served by the server, works on the database directly.",
}

func withNewsService(fn func(ctx context.Context, svc *news.Service) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		db, err := newsDB.OpenDB(newsdb.Schema)
		if err != nil {
			return fmt.Errorf("open news database: %w", err)
		}
		defer db.Close()
		return fn(cmd.Context(), news.NewService(db))
	}
}

func renderNews(w io.Writer, items []news.News) {
	t := newTableTo(w)
	t.AppendHeader(table.Row{"Id", "Title", "Weight", "Enabled", "Url"})
	for _, n := range items {
		t.AppendRow(table.Row{n.ID, n.Title, n.Weight, n.Enabled, n.Link})
	}
	t.Render()
}

func listNews(ctx context.Context, svc *news.Service, w io.Writer) error {
	items, err := svc.List(ctx)
	if err != nil {
		return err
	}
	renderNews(w, items)
	return nil
}

func parseNewsId(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("news id must be a positive integer, got %q", raw)
	}
	return id, nil
}

var newsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every news item, disabled ones included.",
	Args:  cobra.NoArgs,
	RunE: withNewsService(func(ctx context.Context, svc *news.Service) error {
		return listNews(ctx, svc, os.Stdout)
	}),
}

var newsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Adds an enabled news item.",
	Args:  cobra.NoArgs,
	RunE: withNewsService(func(ctx context.Context, svc *news.Service) error {
		id, err := svc.Add(ctx, newsAddFlags)
		if err != nil {
			return err
		}
		fmt.Println("added news", id)
		return nil
	}),
}

// newsIdCmd runs fn on the news item whose id is the only argument.
func newsIdCmd(use, short string, fn func(ctx context.Context, svc *news.Service, id int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNewsId(args[0])
			if err != nil {
				return err
			}
			return withNewsService(func(ctx context.Context, svc *news.Service) error {
				return fn(ctx, svc, id)
			})(cmd, args)
		},
	}
}

var newsEnableCmd = newsIdCmd("enable", "Enables a news item.", func(ctx context.Context, svc *news.Service, id int64) error {
	return svc.SetEnabled(ctx, id, true)
})

var newsDisableCmd = newsIdCmd("disable", "Disables a news item.", func(ctx context.Context, svc *news.Service, id int64) error {
	return svc.SetEnabled(ctx, id, false)
})

var newsDeleteCmd = newsIdCmd("delete", "Deletes a news item.", func(ctx context.Context, svc *news.Service, id int64) error {
	return svc.Delete(ctx, id)
})
