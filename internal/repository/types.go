package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// BuyerListFilter 查询买家档案列表的过滤条件
type BuyerListFilter struct {
	Page        int
	PageSize    int
	Tier        string
	RollingOnly bool
}

// SellerListFilter 查询卖家档案列表的过滤条件
type SellerListFilter struct {
	Page        int
	PageSize    int
	Tier        string
	RollingOnly bool
}

// ContentListFilter 查询课程列表的过滤条件
type ContentListFilter struct {
	Page     int
	PageSize int
	SellerID uint
	Status   string
	Keyword  string
}

// PurchaseListFilter 查询购买记录的过滤条件
type PurchaseListFilter struct {
	Page        int
	PageSize    int
	BuyerID     uint
	SellerID    uint
	ContentID   uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// SettlementListFilter 查询结算记录的过滤条件
type SettlementListFilter struct {
	Page        int
	PageSize    int
	SellerID    uint
	BatchID     uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// SettlementBatchListFilter 查询结算批次的过滤条件
type SettlementBatchListFilter struct {
	Page     int
	PageSize int
	SellerID uint
	Statuses []string
}

// GradeHistoryListFilter 查询等级变更记录的过滤条件
type GradeHistoryListFilter struct {
	Page        int
	PageSize    int
	SubjectType string
	SubjectID   uint
}

// SettlementAggregate 待结算记录聚合结果
type SettlementAggregate struct {
	IDs              []uint
	TotalAmount      decimal.Decimal
	CommissionAmount decimal.Decimal
	SellerAmount     decimal.Decimal
}

// Count 返回聚合记录数
func (a SettlementAggregate) Count() int {
	return len(a.IDs)
}

// GradeStateUpdate 等级档案的一次整体写入
// LastTierUpdate 为空时保留原值。
type GradeStateUpdate struct {
	Tier           string
	Rate           decimal.Decimal
	TotalAmount    decimal.Decimal
	RecentAmount   decimal.Decimal
	WindowMonths   int
	LastTierUpdate *time.Time
	UpdatedAt      time.Time
}
