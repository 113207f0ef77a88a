package model

import "time"

type SearchCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// 検索インデックスに入れる商品ドキュメント。price は常に数値
type SearchDocument struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	CategoryID  *int64          `json:"categoryId"`
	Status      ProductStatus   `json:"status"`
	Price       float64         `json:"price"`
	Quantity    int64           `json:"quantity"`
	CreatedAt   time.Time       `json:"createdAt"`
	Category    *SearchCategory `json:"category"`
}

func NewSearchDocument(p Product) SearchDocument {
	price, _ := p.Price.Float64()
	doc := SearchDocument{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CategoryID:  p.CategoryID,
		Status:      p.Status,
		Price:       price,
		Quantity:    p.Quantity,
		CreatedAt:   p.CreatedAt,
	}
	if p.Category != nil {
		doc.Category = &SearchCategory{ID: p.Category.ID, Name: p.Category.Name}
	}
	return doc
}
