package i18n

var catalog = map[string]map[string]string{
	LocaleZhCN: {
		"error.bad_request":                    "请求参数错误",
		"error.unauthorized":                   "未登录或登录已过期",
		"error.forbidden":                      "没有访问权限",
		"error.jwt_secret_missing":             "服务端未配置 JWT 密钥",
		"error.auth_header_missing":            "缺少 Authorization 请求头",
		"error.auth_header_invalid":            "Authorization 请求头格式错误",
		"error.token_invalid":                  "登录凭证无效",
		"error.token_revoked":                  "登录凭证已失效，请重新登录",
		"error.user_disabled":                  "账号已被禁用",
		"error.user_id_invalid":                "用户 ID 无效",
		"error.user_id_type_invalid":           "用户 ID 类型错误",
		"error.admin_id_invalid":               "管理员 ID 无效",
		"error.admin_id_type_invalid":          "管理员 ID 类型错误",
		"error.rate_limited":                   "请求过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable":         "限流服务不可用",
		"error.internal":                       "服务内部错误",
		"error.user_not_found":                 "用户不存在",
		"error.account_exists":                 "账号档案已存在",
		"error.buyer_not_found":                "买家档案不存在",
		"error.buyer_fetch_failed":             "获取买家信息失败",
		"error.seller_not_found":               "卖家档案不存在",
		"error.seller_fetch_failed":            "获取卖家信息失败",
		"error.bank_account_invalid":           "收款信息不完整",
		"error.content_not_found":              "课程不存在或未上架",
		"error.content_invalid":                "课程信息不完整",
		"error.content_status_invalid":         "课程状态无效",
		"error.content_fetch_failed":           "获取课程失败",
		"error.sale_window_invalid":            "销售时间设置错误",
		"error.outside_sale_window":            "课程不在销售期内",
		"error.already_purchased":              "已购买过该课程",
		"error.payment_method_invalid":         "支付方式无效",
		"error.purchase_not_found":             "购买记录不存在",
		"error.purchase_status_invalid":        "购买记录状态不允许该操作",
		"error.purchase_failed":                "购买失败",
		"error.purchase_fetch_failed":          "获取购买记录失败",
		"error.settlement_already_batched":     "结算已进入批次，无法取消",
		"error.settlement_fetch_failed":        "获取结算记录失败",
		"error.settlement_period_invalid":      "结算周期无效",
		"error.settlement_duplicate_request":   "该周期已提交过结算申请",
		"error.settlement_nothing_to_settle":   "该周期内没有待结算记录",
		"error.settlement_busy":                "结算申请处理中，请稍后重试",
		"error.settlement_request_failed":      "结算申请失败",
		"error.settlement_batch_not_found":     "结算批次不存在",
		"error.settlement_batch_processed":     "结算批次已处理",
		"error.settlement_batch_status":        "结算批次状态不允许该操作",
		"error.settlement_batch_update_failed": "结算批次更新失败",
		"error.tier_policy_invalid":            "等级规则无效",
		"error.tier_policy_fetch_failed":       "获取等级规则失败",
		"error.tier_policy_save_failed":        "保存等级规则失败",
		"error.subject_type_invalid":           "主体类型无效",
		"error.discount_rate_invalid":          "折扣率需在 0-100 之间",
		"error.grade_update_failed":            "等级更新失败",
		"error.grade_history_fetch_failed":     "获取等级变更记录失败",
		"error.queue_unavailable":              "任务队列不可用",
	},
	LocaleEnUS: {
		"error.bad_request":                    "Invalid request parameters",
		"error.unauthorized":                   "Not signed in or session expired",
		"error.forbidden":                      "Permission denied",
		"error.jwt_secret_missing":             "JWT secret is not configured",
		"error.auth_header_missing":            "Missing Authorization header",
		"error.auth_header_invalid":            "Malformed Authorization header",
		"error.token_invalid":                  "Invalid token",
		"error.token_revoked":                  "Token revoked, please sign in again",
		"error.user_disabled":                  "Account disabled",
		"error.user_id_invalid":                "Invalid user id",
		"error.user_id_type_invalid":           "Invalid user id type",
		"error.admin_id_invalid":               "Invalid admin id",
		"error.admin_id_type_invalid":          "Invalid admin id type",
		"error.rate_limited":                   "Too many requests, retry in %d seconds",
		"error.rate_limit_unavailable":         "Rate limiter unavailable",
		"error.internal":                       "Internal server error",
		"error.user_not_found":                 "User not found",
		"error.account_exists":                 "Profile already exists",
		"error.buyer_not_found":                "Buyer profile not found",
		"error.buyer_fetch_failed":             "Failed to load buyer",
		"error.seller_not_found":               "Seller profile not found",
		"error.seller_fetch_failed":            "Failed to load seller",
		"error.bank_account_invalid":           "Incomplete payout account",
		"error.content_not_found":              "Content not found or not on sale",
		"error.content_invalid":                "Incomplete content information",
		"error.content_status_invalid":         "Invalid content status",
		"error.content_fetch_failed":           "Failed to load content",
		"error.sale_window_invalid":            "Invalid sale window",
		"error.outside_sale_window":            "Content is outside its sale window",
		"error.already_purchased":              "Content already purchased",
		"error.payment_method_invalid":         "Invalid payment method",
		"error.purchase_not_found":             "Purchase not found",
		"error.purchase_status_invalid":        "Purchase status does not allow this operation",
		"error.purchase_failed":                "Purchase failed",
		"error.purchase_fetch_failed":          "Failed to load purchases",
		"error.settlement_already_batched":     "Settlement is already in a batch",
		"error.settlement_fetch_failed":        "Failed to load settlements",
		"error.settlement_period_invalid":      "Invalid settlement period",
		"error.settlement_duplicate_request":   "A settlement request already exists for this period",
		"error.settlement_nothing_to_settle":   "No pending settlements in this period",
		"error.settlement_busy":                "Settlement request in progress, retry later",
		"error.settlement_request_failed":      "Settlement request failed",
		"error.settlement_batch_not_found":     "Settlement batch not found",
		"error.settlement_batch_processed":     "Settlement batch already processed",
		"error.settlement_batch_status":        "Settlement batch status does not allow this operation",
		"error.settlement_batch_update_failed": "Failed to update settlement batch",
		"error.tier_policy_invalid":            "Invalid tier policy",
		"error.tier_policy_fetch_failed":       "Failed to load tier policies",
		"error.tier_policy_save_failed":        "Failed to save tier policies",
		"error.subject_type_invalid":           "Invalid subject type",
		"error.discount_rate_invalid":          "Discount rate must be between 0 and 100",
		"error.grade_update_failed":            "Failed to update grade",
		"error.grade_history_fetch_failed":     "Failed to load grade history",
		"error.queue_unavailable":              "Task queue unavailable",
	},
}
