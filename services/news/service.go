package news

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"kuasap-backend/lib/randutil"
	"kuasap-backend/lib/telemetry"
	"kuasap-backend/lib/textutil"
	"kuasap-backend/lib/timezone"
	"kuasap-backend/services/news/db"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("kuasap.services.news")

var (
	ErrNoNews   = errors.New("news: no news available")
	ErrNotFound = errors.New("news: not found")
)

// DefaultWeight is added to every item's weight when picking at random so
// that items with a weight of 0 can still be shown.
const DefaultWeight = 10

// DefaultSearchThreshold is the minimum title similarity of a search hit.
const DefaultSearchThreshold = 0.75

type News struct {
	ID      int64  `json:"-"`
	Title   string `json:"news_title"`
	Content string `json:"news_content"`
	Link    string `json:"news_url"`
	Image   string `json:"news_image"`
	Weight  int64  `json:"news_weight"`
	Enabled bool   `json:"-"`
}

func fromRow(row db.News) News {
	return News{
		ID:      row.ID,
		Title:   row.Title,
		Content: row.Content,
		Link:    row.Link,
		Image:   row.Image,
		Weight:  row.Weight,
		Enabled: row.Enabled,
	}
}

type Service struct {
	qry *db.Queries

	rndmLock sync.Mutex
	rndm     *rand.Rand
}

func NewService(database *sql.DB) *Service {
	return &Service{
		qry:  db.New(database),
		rndm: rand.New(rand.NewSource(timezone.Now().UnixNano())),
	}
}

// Add stores an enabled news item and returns its id.
func (s *Service) Add(ctx context.Context, n News) (int64, error) {
	ctx, span := tracer.Start(ctx, "Add")
	defer span.End()

	if n.Weight < 0 {
		return 0, fmt.Errorf("news weight must not be negative, got %d", n.Weight)
	}
	id, err := s.qry.CreateNews(ctx, db.CreateNewsParams{
		Title:     n.Title,
		Content:   n.Content,
		Link:      n.Link,
		Image:     n.Image,
		Weight:    n.Weight,
		Enabled:   true,
		CreatedAt: timezone.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create news")
		return 0, err
	}
	return id, nil
}

// All returns every enabled news item.
func (s *Service) All(ctx context.Context) ([]News, error) {
	ctx, span := tracer.Start(ctx, "All")
	defer span.End()

	rows, err := s.qry.GetNews(ctx, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get news")
		return nil, err
	}
	out := make([]News, len(rows))
	for i, r := range rows {
		out[i] = fromRow(r)
	}
	return out, nil
}

// List returns every news item including disabled ones.
func (s *Service) List(ctx context.Context) ([]News, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	rows, err := s.qry.GetNews(ctx, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list news")
		return nil, err
	}
	out := make([]News, len(rows))
	for i, r := range rows {
		out[i] = fromRow(r)
	}
	return out, nil
}

// Seed adds items when there is no news at all, disabled news included. It
// returns the number of items added.
func (s *Service) Seed(ctx context.Context, items []News) (int, error) {
	ctx, span := tracer.Start(ctx, "Seed")
	defer span.End()

	existing, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, n := range items {
		_, err := s.Add(ctx, n)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to seed news")
			return i, err
		}
	}
	return len(items), nil
}

// pick returns the index of a random item, an item of weight w is picked
// with probability proportional to DefaultWeight + w.
func (s *Service) pick(items []News) (int, error) {
	weights := make([]int, len(items))
	for i, n := range items {
		weights[i] = DefaultWeight + int(n.Weight)
	}
	choose, err := randutil.RandomSwitch(weights...)
	if err != nil {
		return 0, err
	}

	s.rndmLock.Lock()
	defer s.rndmLock.Unlock()
	return choose(s.rndm), nil
}

// Random picks an enabled news item weighted by its weight.
func (s *Service) Random(ctx context.Context) (News, error) {
	ctx, span := tracer.Start(ctx, "Random")
	defer span.End()

	items, err := s.All(ctx)
	if err != nil {
		return News{}, err
	}
	if len(items) == 0 {
		return News{}, ErrNoNews
	}

	idx, err := s.pick(items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid news weights")
		return News{}, err
	}
	span.SetAttributes(attribute.Int64("news_id", items[idx].ID))
	return items[idx], nil
}

type SearchResult struct {
	News  News    `json:"news"`
	Score float64 `json:"score"`
}

// Search ranks enabled news by how similar their title is to query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()

	items, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	results := []SearchResult{}
	for _, n := range items {
		score := textutil.Similarity(n.Title, query)
		if score < DefaultSearchThreshold {
			continue
		}
		results = append(results, SearchResult{News: n, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *Service) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	affected, err := s.qry.SetNewsEnabled(ctx, id, enabled)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	affected, err := s.qry.DeleteNews(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
