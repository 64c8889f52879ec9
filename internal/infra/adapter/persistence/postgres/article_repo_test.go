package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/lib/pq"

	"github.com/mkk2026/Security.News.Scraper/internal/domain/entity"
	pg "github.com/mkk2026/Security.News.Scraper/internal/infra/adapter/persistence/postgres"
	"github.com/mkk2026/Security.News.Scraper/internal/repository"
)

func testArticle() *entity.Article {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &entity.Article{
		URL:           "https://example.com/advisory",
		Title:         "Critical advisory",
		Summary:       "summary",
		Body:          "body",
		SourceID:      "krebs",
		SourceName:    "Krebs on Security",
		PublishedAt:   now,
		ScrapedAt:     now.Add(time.Hour),
		ContentHash:   "abc123",
		SeverityScore: 8.5,
		SeverityLevel: "high",
	}
}

func TestArticleRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	a := testArticle()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO articles")).
		WithArgs(a.URL, a.Title, a.Summary, a.Body, a.SourceID, a.SourceName,
			a.PublishedAt, a.ScrapedAt, a.ContentHash, a.SeverityScore, a.SeverityLevel).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	repo := pg.NewArticleRepo(db)
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if a.ID != 42 {
		t.Errorf("ID = %d, want 42 from RETURNING", a.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_Create_UniqueViolation(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	a := testArticle()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO articles")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "articles_url_key"})

	repo := pg.NewArticleRepo(db)
	err := repo.Create(context.Background(), a)
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("Create err=%v, want ErrDuplicate", err)
	}
}

func TestArticleRepo_ExistsByURLBatch(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	urls := []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT url FROM articles WHERE url = ANY($1)")).
		WithArgs(pq.Array(urls)).
		WillReturnRows(sqlmock.NewRows([]string{"url"}).
			AddRow("https://example.com/a").
			AddRow("https://example.com/c"))

	repo := pg.NewArticleRepo(db)
	got, err := repo.ExistsByURLBatch(context.Background(), urls)
	if err != nil {
		t.Fatalf("ExistsByURLBatch err=%v", err)
	}

	want := map[string]bool{
		"https://example.com/a": true,
		"https://example.com/b": false,
		"https://example.com/c": true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_ExistsByURLBatch_Empty(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	repo := pg.NewArticleRepo(db)
	got, err := repo.ExistsByURLBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("ExistsByURLBatch err=%v", err)
	}
	if len(got) != 0 {
		t.Errorf("result = %v, want empty map without querying", got)
	}
}

func TestArticleRepo_ListRecentDigests(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("ORDER BY published_at DESC").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"title", "summary"}).
			AddRow("Newest", "n").
			AddRow("Older", ""))

	repo := pg.NewArticleRepo(db)
	got, err := repo.ListRecentDigests(context.Background(), 100)
	if err != nil {
		t.Fatalf("ListRecentDigests err=%v", err)
	}

	want := []repository.ArticleDigest{
		{Title: "Newest", Summary: "n"},
		{Title: "Older", Summary: ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestArticleRepo_CountArticles(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM articles")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	repo := pg.NewArticleRepo(db)
	got, err := repo.CountArticles(context.Background())
	if err != nil || got != 7 {
		t.Fatalf("CountArticles = %d, err=%v; want 7", got, err)
	}
}
