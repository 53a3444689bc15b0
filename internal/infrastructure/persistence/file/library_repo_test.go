package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"wenshu-novel-api/internal/domain/entity"
)

func TestLoadMissingFileReturnsNil(t *testing.T) {
	repo, err := NewLibraryRepository(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLibraryRepository: %v", err)
	}
	lib, err := repo.Load(context.Background())
	if err != nil || lib != nil {
		t.Fatalf("Load = (%v, %v), want (nil, nil)", lib, err)
	}
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewLibraryRepository(dir, "shelf")
	if err != nil {
		t.Fatalf("NewLibraryRepository: %v", err)
	}
	if repo.Path() != filepath.Join(dir, "shelf.json") {
		t.Fatalf("path = %q", repo.Path())
	}

	n := entity.NewNovel("问道", "少年问道", entity.GenreXianxia)
	done := entity.NewChapter("入山", "拜师")
	done.Content = "山门之下，少年叩首。"
	done.Complete()
	n.Chapters = []entity.Chapter{done, entity.NewChapter("下山", "历练")}
	n.SetCoverage(12.5)
	ctx := context.Background()
	if err := repo.Save(ctx, &entity.Library{Novels: []*entity.Novel{n}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	n.Title = "另一本"
	if err := repo.Save(ctx, &entity.Library{Novels: []*entity.Novel{n}}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Novels) != 1 || got.Novels[0].Title != "另一本" || got.Novels[0].Coverage() != 12.5 {
		t.Fatalf("loaded = %+v", got.Novels)
	}
	chapters := got.Novels[0].Chapters
	if len(chapters) != 2 {
		t.Fatalf("chapters = %d, want 2", len(chapters))
	}
	if c := chapters[0]; c.Status != entity.ChapterStatusCompleted || c.Content != "山门之下，少年叩首。" || c.ID != done.ID {
		t.Fatalf("completed chapter = %+v", c)
	}
	if c := chapters[1]; c.Status != entity.ChapterStatusDraft || c.Content != "" || c.Outline != "历练" {
		t.Fatalf("draft chapter = %+v", c)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLoadCorruptFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	repo, _ := NewLibraryRepository(dir, "")
	if err := os.WriteFile(repo.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatal("expected decode error for corrupt file")
	}
}
