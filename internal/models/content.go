package models

import (
	"time"

	"gorm.io/gorm"
)

// Content 课程内容表
type Content struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                            // 主键
	SellerID      uint           `gorm:"not null;index" json:"seller_id"`                                 // 卖家ID
	Title         string         `gorm:"type:varchar(255);not null" json:"title"`                         // 标题
	Description   string         `gorm:"type:text" json:"description"`                                    // 简介
	Price         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`              // 售价
	Status        string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"` // 审核状态
	AlwaysOnSale  bool           `gorm:"not null;default:false" json:"always_on_sale"`                    // 是否常驻销售
	SaleStartDate *time.Time     `json:"sale_start_date,omitempty"`                                       // 销售开始时间
	SaleEndDate   *time.Time     `json:"sale_end_date,omitempty"`                                         // 销售结束时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                                      // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间

	Seller *Seller `gorm:"foreignKey:SellerID" json:"seller,omitempty"` // 卖家
}

// TableName 指定表名
func (Content) TableName() string {
	return "contents"
}

// OnSaleAt 判断指定时间是否处于销售窗口内
// 非常驻销售的课程按自然日比较，开始与结束日期均包含在内。
func (c Content) OnSaleAt(now time.Time) bool {
	if c.AlwaysOnSale {
		return true
	}
	if c.SaleStartDate == nil || c.SaleEndDate == nil {
		return false
	}
	const layout = "2006-01-02"
	loc := now.Location()
	today := now.Format(layout)
	start := c.SaleStartDate.In(loc).Format(layout)
	end := c.SaleEndDate.In(loc).Format(layout)
	return today >= start && today <= end
}
