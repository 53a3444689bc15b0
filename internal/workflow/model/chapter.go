package model

// ChapterContentInput 章节正文生成输入
type ChapterContentInput struct {
	LLMOptions

	NovelContext string
	// PreviousTail 上章结尾衔接块或首章标记
	PreviousTail   string
	ChapterTitle   string
	ChapterOutline string
	// Progress 已格式化的进度百分比，如 "33.3"
	Progress    string
	Instruction string
}
