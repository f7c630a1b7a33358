package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"kuasap-backend/lib/testutil"
	"kuasap-backend/services/news"
	newsdb "kuasap-backend/services/news/db"

	"github.com/stretchr/testify/require"
)

func TestParseNewsId(t *testing.T) {
	cases := []struct {
		raw    string
		expect int64
		err    bool
	}{
		{raw: "12", expect: 12},
		{raw: "0", err: true},
		{raw: "-3", err: true},
		{raw: "abc", err: true},
	}

	for _, test := range cases {
		id, err := parseNewsId(test.raw)
		if test.err {
			require.Error(t, err, test.raw)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, test.expect, id)
	}
}

func TestListNews(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "cmd/kuasap-cli",
		DbSchema: newsdb.Schema,
	})
	defer cleanup()

	svc := news.NewService(res.DB)
	ctx := context.Background()
	id, err := svc.Add(ctx, news.News{Title: "Course Selection", Link: "https://example.com", Weight: 3})
	require.NoError(t, err)
	require.NoError(t, svc.SetEnabled(ctx, id, false))

	out := bytes.NewBuffer(nil)
	require.NoError(t, listNews(ctx, svc, out))
	require.Contains(t, out.String(), "Course Selection")
	require.Contains(t, out.String(), "false")
}

func TestNewsCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "news.db")

	cases := [][]string{
		{"news", "--db", dbPath, "add", "--title", "社團博覽會", "--url", "https://example.com", "--weight", "5"},
		{"news", "--db", dbPath, "disable", "1"},
	}
	for _, args := range cases {
		rootCmd.SetArgs(args)
		require.NoError(t, rootCmd.ExecuteContext(context.Background()), args)
	}

	rootCmd.SetArgs([]string{"news", "--db", dbPath, "delete", "2"})
	require.ErrorIs(t, rootCmd.ExecuteContext(context.Background()), news.ErrNotFound)

	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "cmd/kuasap-cli",
		DbSchema: newsdb.Schema,
		DbPath:   dbPath,
	})
	defer cleanup()

	listed, err := news.NewService(res.DB).List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "社團博覽會", listed[0].Title)
	require.Equal(t, int64(5), listed[0].Weight)
	require.False(t, listed[0].Enabled)
}
