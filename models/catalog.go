// Package models 定义了应用程序的数据模型
// 包含所有与数据库表对应的结构体定义和相关方法
package models

import (
	"time"
)

// Store 卖家店铺
// 卖家在外部电商平台上的店铺，由目录同步服务写入
// 本服务只读取，用于把转化事件关联到店铺下的商品
type Store struct {
	ID              uint      `json:"id" gorm:"primaryKey"`                                              // 主键ID
	SellerID        uint      `json:"seller_id" gorm:"not null;index"`                                   // 卖家ID（身份域引用）
	PlatformID      uint      `json:"platform_id" gorm:"not null;uniqueIndex:idx_stores_platform_ext"`   // 平台ID
	ExternalStoreID string    `json:"external_store_id" gorm:"size:100;not null;uniqueIndex:idx_stores_platform_ext"` // 平台分配的店铺ID
	Name            string    `json:"name" gorm:"size:200"`                                              // 店铺名称
	IsActive        bool      `json:"is_active" gorm:"default:true"`                                     // 是否启用
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`                                  // 创建时间
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`                                  // 更新时间
}

// TableName 指定模型对应的数据库表名
func (Store) TableName() string {
	return "stores"
}

// Product 店铺商品
// 以平台API同步为准的商品单位，product_url是点击跳转的目标地址
type Product struct {
	ID                uint      `json:"id" gorm:"primaryKey"`                                               // 主键ID
	StoreID           uint      `json:"store_id" gorm:"not null;uniqueIndex:idx_products_store_ext"`        // 店铺ID
	ExternalProductID string    `json:"external_product_id" gorm:"size:100;not null;uniqueIndex:idx_products_store_ext"` // 平台分配的商品ID
	Name              string    `json:"name" gorm:"size:200"`                                               // 商品名称
	ImageURL          string    `json:"image_url" gorm:"type:text"`                                         // 商品主图URL
	ProductURL        string    `json:"product_url" gorm:"type:text"`                                       // 商品详情页URL（跳转目标）
	Price             float64   `json:"price"`                                                              // 商品价格
	IsActive          bool      `json:"is_active" gorm:"default:true"`                                      // 是否上架
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`                                   // 创建时间
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`                                   // 更新时间
}

// TableName 指定模型对应的数据库表名
func (Product) TableName() string {
	return "products"
}

// Campaign 佣金活动
// 每个商品同一时间最多一个活跃活动，佣金条款在点击时会被快照到Click上
type Campaign struct {
	ID               uint      `json:"id" gorm:"primaryKey"`                      // 主键ID
	ProductID        uint      `json:"product_id" gorm:"not null;index"`          // 商品ID
	SellerID         uint      `json:"seller_id" gorm:"not null;index"`           // 卖家ID（身份域引用）
	CommissionAmount float64   `json:"commission_amount"`                         // 每单固定佣金金额（KRW）
	CommissionRate   *float64  `json:"commission_rate"`                           // 佣金比例，例如0.03表示3%，可为空
	MinCommission    float64   `json:"min_commission" gorm:"default:3000"`        // 最低佣金（max(比例佣金, 最低佣金)策略）
	StartsAt         time.Time `json:"starts_at" gorm:"not null;index:idx_campaigns_period"` // 活动开始时间
	EndsAt           time.Time `json:"ends_at" gorm:"not null;index:idx_campaigns_period"`   // 活动结束时间
	IsActive         bool      `json:"is_active" gorm:"default:true"`             // 是否启用（卖家可手动停用）
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`          // 创建时间
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`          // 更新时间
}

// TableName 指定模型对应的数据库表名
func (Campaign) TableName() string {
	return "campaigns"
}

// IsActiveInPeriod 判断活动当前是否处于活跃期
// 需要同时满足：未被手动停用、当前时间在起止区间内（边界含）
func (c *Campaign) IsActiveInPeriod(now time.Time) bool {
	return c.IsActive && !now.Before(c.StartsAt) && !now.After(c.EndsAt)
}
