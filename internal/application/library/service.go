package library

import (
	"context"
	"fmt"
	"strings"

	"wenshu-novel-api/internal/domain/entity"
	apperrors "wenshu-novel-api/pkg/errors"
	"wenshu-novel-api/pkg/logger"
)

// Service 书库编辑命令
type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Store 返回底层书库
func (s *Service) Store() *Store {
	return s.store
}

// CreateNovelInput 手动建书参数
type CreateNovelInput struct {
	Title         string
	Premise       string
	Genre         entity.Genre
	StyleKeywords []string
	Characters    []entity.Character
}

// NovelPatch 作品信息补丁，nil 字段不修改
type NovelPatch struct {
	Title         *string
	Premise       *string
	Genre         *entity.Genre
	StyleKeywords *[]string
}

// ChapterPatch 章节补丁，nil 字段不修改
type ChapterPatch struct {
	Title   *string
	Outline *string
	Content *string
}

func validateGenre(g entity.Genre) error {
	if !g.Valid() {
		return apperrors.ErrInvalidParam.WithDetail(fmt.Sprintf("unknown genre %q", g))
	}
	return nil
}

// CreateNovel 手动建书，附带一个空白章节
func (s *Service) CreateNovel(ctx context.Context, in CreateNovelInput) (*entity.Novel, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("title is required")
	}
	if err := validateGenre(in.Genre); err != nil {
		return nil, err
	}

	n := entity.NewNovel(title, strings.TrimSpace(in.Premise), in.Genre)
	if in.StyleKeywords != nil {
		n.StyleKeywords = append([]string{}, in.StyleKeywords...)
	}
	if in.Characters != nil {
		n.Characters = append([]entity.Character{}, in.Characters...)
	}
	n.Chapters = []entity.Chapter{entity.NewChapter(entity.DefaultChapterTitle, "")}

	created := s.store.Create(n)
	logger.Info(ctx, "novel created", "novel_id", created.ID, "title", created.Title)
	return created, nil
}

// GetNovel 获取作品
func (s *Service) GetNovel(_ context.Context, id string) (*entity.Novel, error) {
	return s.store.Get(id)
}

// ListNovels 全部作品
func (s *Service) ListNovels(_ context.Context) []*entity.Novel {
	return s.store.List()
}

// UpdateInfo 更新书名、简介、题材与风格关键词
func (s *Service) UpdateInfo(_ context.Context, id string, patch NovelPatch) (*entity.Novel, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("title must not be empty")
	}
	if patch.Genre != nil {
		if err := validateGenre(*patch.Genre); err != nil {
			return nil, err
		}
	}
	return s.store.Update(id, func(n *entity.Novel) error {
		if patch.Title != nil {
			n.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Premise != nil {
			n.Premise = *patch.Premise
		}
		if patch.Genre != nil {
			n.Genre = *patch.Genre
		}
		if patch.StyleKeywords != nil {
			n.StyleKeywords = append([]string{}, (*patch.StyleKeywords)...)
		}
		return nil
	})
}

// ReplaceCharacters 整体替换角色表
func (s *Service) ReplaceCharacters(_ context.Context, id string, characters []entity.Character) (*entity.Novel, error) {
	for i, c := range characters {
		if strings.TrimSpace(c.Name) == "" {
			return nil, apperrors.ErrInvalidParam.WithDetail(fmt.Sprintf("characters[%d].name is required", i))
		}
	}
	return s.store.Update(id, func(n *entity.Novel) error {
		n.Characters = append([]entity.Character{}, characters...)
		return nil
	})
}

// DeleteNovel 删除作品
func (s *Service) DeleteNovel(ctx context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	logger.Info(ctx, "novel deleted", "novel_id", id)
	return nil
}

// AddChapter 在 afterID 之后插入空白章节，afterID 为空时追加到末尾
func (s *Service) AddChapter(_ context.Context, novelID, afterID string) (*entity.Chapter, error) {
	ch := entity.NewChapter(entity.DefaultChapterTitle, "")
	_, err := s.store.Update(novelID, func(n *entity.Novel) error {
		if afterID != "" && n.ChapterIndex(afterID) < 0 {
			return apperrors.ErrChapterNotFound
		}
		n.InsertChaptersAfter(afterID, ch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetChapter 获取章节
func (s *Service) GetChapter(_ context.Context, novelID, chapterID string) (*entity.Chapter, int, error) {
	n, err := s.store.Get(novelID)
	if err != nil {
		return nil, -1, err
	}
	i := n.ChapterIndex(chapterID)
	if i < 0 {
		return nil, -1, apperrors.ErrChapterNotFound
	}
	return &n.Chapters[i], i, nil
}

// UpdateChapter 修改章节标题、细纲或正文
func (s *Service) UpdateChapter(_ context.Context, novelID, chapterID string, patch ChapterPatch) (*entity.Chapter, error) {
	var updated entity.Chapter
	_, err := s.store.UpdateChapter(novelID, chapterID, func(_ *entity.Novel, c *entity.Chapter) error {
		if patch.Title != nil {
			c.Title = *patch.Title
		}
		if patch.Outline != nil {
			c.Outline = *patch.Outline
		}
		if patch.Content != nil {
			c.Content = *patch.Content
		}
		updated = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteChapter 删除章节并返回相邻章节作为新的当前章节；不允许删除最后一章
func (s *Service) DeleteChapter(ctx context.Context, novelID, chapterID string) (string, error) {
	var active string
	_, err := s.store.Update(novelID, func(n *entity.Novel) error {
		if n.ChapterIndex(chapterID) < 0 {
			return apperrors.ErrChapterNotFound
		}
		if len(n.Chapters) <= 1 {
			return apperrors.ErrLastChapter
		}
		active, _ = n.RemoveChapter(chapterID)
		return nil
	})
	if err != nil {
		return "", err
	}
	logger.Info(ctx, "chapter deleted", "novel_id", novelID, "chapter_id", chapterID, "active_chapter_id", active)
	return active, nil
}

// ReorderChapters 按完整 ID 排列重排章节
func (s *Service) ReorderChapters(_ context.Context, novelID string, ids []string) (*entity.Novel, error) {
	return s.store.Update(novelID, func(n *entity.Novel) error {
		if !n.Reorder(ids) {
			return apperrors.ErrInvalidParam.WithDetail("ids must be a permutation of the novel's chapter ids")
		}
		return nil
	})
}

// AppendOutline 将续写得到的大纲作为草稿章节追加到末尾
func (s *Service) AppendOutline(_ context.Context, novelID, title, outline string) (*entity.Chapter, error) {
	ch := entity.NewChapter(title, outline)
	_, err := s.store.Update(novelID, func(n *entity.Novel) error {
		n.InsertChaptersAfter("", ch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}
