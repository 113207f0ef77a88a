package model

// 商品カテゴリ（親子あり）
type Category struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	ParentID *int64 `gorm:"index" json:"parentId"`
}
