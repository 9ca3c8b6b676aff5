package dto

type ReorderSuggestion struct {
	ProductID             string  `json:"product_id"`
	ProductName           string  `json:"product_name"`
	SuggestedReorderPoint int     `json:"suggested_reorder_point"`
	CurrentReorderPoint   int     `json:"current_reorder_point"`
	AverageDailySales     float64 `json:"average_daily_sales"`
	TotalSold             int     `json:"total_sold"`
	WindowDays            int     `json:"window_days"`
	LeadTimeDays          int     `json:"lead_time_days"`
	SafetyStockDays       int     `json:"safety_stock_days"`
	SafetyStock           int     `json:"safety_stock"`
	UsedFallback          bool    `json:"used_fallback"`
}

type ReorderValidation struct {
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

type ReorderChange struct {
	ProductID       string `json:"product_id"`
	SKU             string `json:"sku"`
	Name            string `json:"name"`
	OldReorderPoint int    `json:"old_reorder_point"`
	NewReorderPoint int    `json:"new_reorder_point"`
}

type ReorderSkip struct {
	ProductID    string `json:"product_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	ReorderPoint int    `json:"reorder_point"`
	Reason       string `json:"reason"`
}

type BulkReorderResult struct {
	Updated []ReorderChange `json:"updated"`
	Skipped []ReorderSkip   `json:"skipped"`
}
