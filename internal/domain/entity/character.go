package entity

// Character 角色，无独立 ID，角色表整体替换
type Character struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
}
