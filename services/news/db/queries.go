package db

import (
	"context"
)

const createNews = `insert into news(title, content, link, image, weight, enabled, created_at)
values (?, ?, ?, ?, ?, ?, ?)
returning id`

type CreateNewsParams struct {
	Title     string
	Content   string
	Link      string
	Image     string
	Weight    int64
	Enabled   bool
	CreatedAt int64
}

func (q *Queries) CreateNews(ctx context.Context, arg CreateNewsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createNews,
		arg.Title,
		arg.Content,
		arg.Link,
		arg.Image,
		arg.Weight,
		arg.Enabled,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getNews = `select id, title, content, link, image, weight, enabled, created_at from news
where (? = 0 or enabled = 1)
order by id`

// GetNews returns every news item, only the enabled ones when enabledOnly is set.
func (q *Queries) GetNews(ctx context.Context, enabledOnly bool) ([]News, error) {
	rows, err := q.db.QueryContext(ctx, getNews, enabledOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []News
	for rows.Next() {
		var i News
		if err := rows.Scan(
			&i.ID,
			&i.Title,
			&i.Content,
			&i.Link,
			&i.Image,
			&i.Weight,
			&i.Enabled,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setNewsEnabled = `update news set enabled = ? where id = ?`

func (q *Queries) SetNewsEnabled(ctx context.Context, id int64, enabled bool) (int64, error) {
	result, err := q.db.ExecContext(ctx, setNewsEnabled, enabled, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteNews = `delete from news where id = ?`

func (q *Queries) DeleteNews(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteNews, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
