package models

import (
	"time"
)

// Link 推广链接
// 创作者为某个商品申请的追踪链接，创作者×商品 1:1，短码全局唯一
type Link struct {
	ID        uint      `json:"id" gorm:"primaryKey"`                                           // 主键ID
	CreatorID uint      `json:"creator_id" gorm:"not null;uniqueIndex:idx_links_creator_product"` // 创作者ID（身份域引用）
	ProductID uint      `json:"product_id" gorm:"not null;uniqueIndex:idx_links_creator_product"` // 商品ID
	ShortCode string    `json:"short_code" gorm:"size:16;not null;uniqueIndex"`                 // 跳转用唯一短码，如"aB3kX9Qw"
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`                               // 创建时间
}

// TableName 指定模型对应的数据库表名
func (Link) TableName() string {
	return "links"
}
