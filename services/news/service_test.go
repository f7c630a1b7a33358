package news

import (
	"context"
	"math/rand"
	"testing"

	"kuasap-backend/lib/testutil"
	"kuasap-backend/services/news/db"

	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Service, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/news",
		DbSchema: db.Schema,
	})
	return NewService(res.DB), cleanup
}

var fixtures = []News{
	{Title: "第八屆泰北團-夢想，「泰」不一樣", Image: "http://i.imgur.com/iNbbd4B.jpg", Link: "https://example.com/a", Weight: 3},
	{Title: "體委幹部體驗營", Image: "http://i.imgur.com/aJyQlJp.jpg", Link: "https://example.com/b", Weight: 4},
	{Title: "Course Selection Announcement", Image: "http://i.imgur.com/WkI23R2.jpg", Link: "https://example.com/c", Weight: 0},
}

func seed(t *testing.T, s *Service) []int64 {
	ids := make([]int64, len(fixtures))
	for i, n := range fixtures {
		id, err := s.Add(context.Background(), n)
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}

func TestAll(t *testing.T) {
	s, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	ids := seed(t, s)
	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(fixtures))
	for i, n := range all {
		require.Equal(t, ids[i], n.ID)
		require.Equal(t, fixtures[i].Title, n.Title)
		require.Equal(t, fixtures[i].Weight, n.Weight)
		require.True(t, n.Enabled)
	}

	require.NoError(t, s.SetEnabled(ctx, ids[0], false))
	all, err = s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(fixtures)-1)

	require.NoError(t, s.Delete(ctx, ids[1]))
	require.ErrorIs(t, s.Delete(ctx, ids[1]), ErrNotFound)
	require.ErrorIs(t, s.SetEnabled(ctx, 9999, true), ErrNotFound)
	all, err = s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestAddNegativeWeight(t *testing.T) {
	s, cleanup := setup(t)
	defer cleanup()

	_, err := s.Add(context.Background(), News{Title: "x", Weight: -1})
	require.Error(t, err)
}

func TestRandom(t *testing.T) {
	s, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := s.Random(ctx)
	require.ErrorIs(t, err, ErrNoNews)

	seed(t, s)
	s.rndm = rand.New(rand.NewSource(1))

	// weights become 13, 14 and 10
	counts := map[string]int{}
	const total = 5000
	for range total {
		n, err := s.Random(ctx)
		require.NoError(t, err)
		counts[n.Title]++
	}
	require.InDelta(t, 13.0/37, float64(counts[fixtures[0].Title])/total, 0.03)
	require.InDelta(t, 14.0/37, float64(counts[fixtures[1].Title])/total, 0.03)
	require.InDelta(t, 10.0/37, float64(counts[fixtures[2].Title])/total, 0.03)
}

func TestPickWeightRatio(t *testing.T) {
	s, cleanup := setup(t)
	defer cleanup()
	s.rndm = rand.New(rand.NewSource(7))

	cases := []struct {
		heavy int64
		light int64
		ratio float64
	}{
		{heavy: 5, light: 0, ratio: 1.5},
		{heavy: 10, light: 0, ratio: 2},
		{heavy: 0, light: 0, ratio: 1},
	}

	for _, test := range cases {
		items := []News{{Weight: test.heavy}, {Weight: test.light}}
		counts := [2]int{}
		for range 40000 {
			idx, err := s.pick(items)
			require.NoError(t, err)
			counts[idx]++
		}
		require.InDelta(t, test.ratio, float64(counts[0])/float64(counts[1]), 0.08)
	}
}

func TestSeed(t *testing.T) {
	s, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	added, err := s.Seed(ctx, DefaultNews)
	require.NoError(t, err)
	require.Equal(t, len(DefaultNews), added)

	n, err := s.Random(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, n.Title)

	added, err = s.Seed(ctx, DefaultNews)
	require.NoError(t, err)
	require.Equal(t, 0, added)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(DefaultNews))
	require.Equal(t, DefaultNews[2].Title, all[2].Title)
	require.Equal(t, DefaultNews[2].Weight, all[2].Weight)
}

func TestSeedKeepsDisabledNews(t *testing.T) {
	s, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	id, err := s.Add(ctx, fixtures[0])
	require.NoError(t, err)
	require.NoError(t, s.SetEnabled(ctx, id, false))

	added, err := s.Seed(ctx, DefaultNews)
	require.NoError(t, err)
	require.Equal(t, 0, added)

	listed, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.False(t, listed[0].Enabled)

	_, err = s.Random(ctx)
	require.ErrorIs(t, err, ErrNoNews)
}

func TestSearch(t *testing.T) {
	s, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()
	seed(t, s)

	results, err := s.Search(ctx, "course selection", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, fixtures[2].Title, results[0].News.Title)
	require.Equal(t, 1.0, results[0].Score)

	results, err = s.Search(ctx, "體驗營", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, fixtures[1].Title, results[0].News.Title)

	results, err = s.Search(ctx, "zzzzqqqq", 0)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestLegacy(t *testing.T) {
	n := News{Title: "title", Image: "http://img", Content: "", Link: "http://link"}
	legacy := Legacy(n)
	require.Equal(t, []any{
		1, 0, "title",
		"<div style='text-align:center;'><div><img style='display:block;margin-left:auto;margin-right:auto;max-width:80%;min-height:150px;height:auto;' src='http://img'></img></div></div>",
		"http://link",
	}, legacy)
}
