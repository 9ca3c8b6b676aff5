package dto

type OrderFilters struct {
	CustomerID string
	Status     string
	Page       int
	PageSize   int
}

type ItemAvailability struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
	Sufficient  bool   `json:"sufficient"`
}

// AvailabilityReport is a point-in-time read. It reserves nothing.
type AvailabilityReport struct {
	AllAvailable bool               `json:"all_available"`
	Items        []ItemAvailability `json:"items"`
}
