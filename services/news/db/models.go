package db

type News struct {
	ID        int64
	Title     string
	Content   string
	Link      string
	Image     string
	Weight    int64
	Enabled   bool
	CreatedAt int64
}
