package model

import (
	"strings"
	"time"
)

// 登録済みの配送先住所
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"userId"`

	//宛名
	FullName string `gorm:"type:varchar(255);not null" json:"fullName"`

	//電話番号
	Phone string `gorm:"type:varchar(30);not null" json:"phone"`

	//番地
	Street string `gorm:"type:varchar(255);not null" json:"street"`

	//坊・区・省
	Ward     string `gorm:"type:varchar(255);not null" json:"ward"`
	District string `gorm:"type:varchar(255);not null" json:"district"`
	Province string `gorm:"type:varchar(255);not null" json:"province"`

	//このユーザーのデフォルト住所か
	IsDefault bool `gorm:"not null;default:false" json:"isDefault"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

// ShippingAddress は注文時に渡される配送先
type ShippingAddress struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	Ward     string `json:"ward"`
	District string `json:"district"`
	Province string `json:"province"`
}

// IsComplete は全項目が空白以外で埋まっているか
func (a ShippingAddress) IsComplete() bool {
	for _, v := range []string{a.FullName, a.Phone, a.Street, a.Ward, a.District, a.Province} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// ToShipping は登録住所を配送先の形にする
func (a Address) ToShipping() ShippingAddress {
	return ShippingAddress{
		FullName: a.FullName,
		Phone:    a.Phone,
		Street:   a.Street,
		Ward:     a.Ward,
		District: a.District,
		Province: a.Province,
	}
}
