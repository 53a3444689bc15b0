package entity

// LibraryNamespace 书库快照的固定存储键
const LibraryNamespace = "wenshu_library"

// Library 书库，整体作为一个 JSON 文档持久化
type Library struct {
	Novels []*Novel `json:"novels"`
}

// NewLibrary 创建空书库
func NewLibrary() *Library {
	return &Library{Novels: []*Novel{}}
}

// Find 按 ID 查找作品下标，不存在时返回 -1
func (l *Library) Find(id string) int {
	for i, n := range l.Novels {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// NovelIDs 全部作品 ID，按书库顺序
func (l *Library) NovelIDs() []string {
	ids := make([]string, 0, len(l.Novels))
	for _, n := range l.Novels {
		ids = append(ids, n.ID)
	}
	return ids
}

// Clone 深拷贝
func (l *Library) Clone() *Library {
	cp := &Library{Novels: make([]*Novel, 0, len(l.Novels))}
	for _, n := range l.Novels {
		cp.Novels = append(cp.Novels, n.Clone())
	}
	return cp
}

// Normalize 修正反序列化后的空字段，丢弃无效条目
func (l *Library) Normalize() {
	novels := l.Novels[:0]
	for _, n := range l.Novels {
		if n == nil || n.ID == "" {
			continue
		}
		if n.StyleKeywords == nil {
			n.StyleKeywords = []string{}
		}
		if n.Characters == nil {
			n.Characters = []Character{}
		}
		if n.Chapters == nil {
			n.Chapters = []Chapter{}
		}
		// 进程中断时遗留的生成中章节不会再有写入方
		for i := range n.Chapters {
			if n.Chapters[i].IsGenerating() {
				n.Chapters[i].Revert()
			}
		}
		novels = append(novels, n)
	}
	l.Novels = novels
}
