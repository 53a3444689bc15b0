package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"wenshu-novel-api/internal/domain/entity"
)

func openTemp(t *testing.T) *LibraryRepository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "data", "wenshu.db"), "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestLoadEmpty(t *testing.T) {
	repo := openTemp(t)
	lib, err := repo.Load(context.Background())
	if err != nil || lib != nil {
		t.Fatalf("Load = (%v, %v), want (nil, nil)", lib, err)
	}
}

func TestSaveUpsertsSingleRow(t *testing.T) {
	repo := openTemp(t)
	ctx := context.Background()

	n := entity.NewNovel("问道", "少年问道", entity.GenreXianxia)
	done := entity.NewChapter("入山", "拜师")
	done.Content = "山门之下，少年叩首。"
	done.Complete()
	n.Chapters = []entity.Chapter{done, entity.NewChapter("下山", "历练")}
	for _, title := range []string{"第一版", "第二版"} {
		n.Title = title
		if err := repo.Save(ctx, &entity.Library{Novels: []*entity.Novel{n}}); err != nil {
			t.Fatalf("Save(%s): %v", title, err)
		}
	}

	var rows int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Novels) != 1 || got.Novels[0].Title != "第二版" {
		t.Fatalf("loaded = %+v", got.Novels)
	}
	chapters := got.Novels[0].Chapters
	if len(chapters) != 2 {
		t.Fatalf("chapters = %d, want 2", len(chapters))
	}
	if c := chapters[0]; c.Status != entity.ChapterStatusCompleted || c.Content != "山门之下，少年叩首。" {
		t.Fatalf("completed chapter = %q/%s", c.Content, c.Status)
	}
	if c := chapters[1]; c.Status != entity.ChapterStatusDraft || c.Content != "" {
		t.Fatalf("draft chapter = %q/%s", c.Content, c.Status)
	}
}

type codeErr int

func (c codeErr) Error() string { return "sqlite error" }
func (c codeErr) Code() int     { return int(c) }

func TestRetryOnBusy(t *testing.T) {
	attempts := 0
	err := retryOnBusy(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return codeErr(sqliteBusyCode)
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("retryOnBusy = %v after %d attempts, want nil after 3", err, attempts)
	}

	attempts = 0
	other := errors.New("constraint failed")
	if err := retryOnBusy(context.Background(), func() error {
		attempts++
		return other
	}); !errors.Is(err, other) || attempts != 1 {
		t.Fatalf("non-busy error retried %d times (%v)", attempts, err)
	}
}
