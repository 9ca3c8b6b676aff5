package dto

type AlertFilters struct {
	ProductID  string
	ActiveOnly bool
	Page       int
	PageSize   int
}

type AlertStatistics struct {
	Active             int     `json:"active_alerts" db:"active_alerts"`
	ResolvedLast30Days int     `json:"resolved_last_30_days" db:"resolved_recent"`
	AvgResolutionHours float64 `json:"avg_resolution_hours" db:"avg_resolution_hours"`
	OutOfStockProducts int     `json:"out_of_stock_products" db:"out_of_stock_products"`
}

type SyncResult struct {
	Created    int      `json:"alerts_created"`
	ProductIDs []string `json:"product_ids"`
}
