package model

// BrainstormInput 灵感咨询输入
type BrainstormInput struct {
	LLMOptions

	NovelContext   string
	ChapterTitle   string
	ChapterOutline string
	Query          string
	Excerpt        string
}
