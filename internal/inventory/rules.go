package inventory

type AdjustmentRules struct {
	// DoubleConfirmRatio: decreases above this share of current stock need confirmed=true.
	DoubleConfirmRatio float64
	// SignificantRatio: adjustments above this share of current stock are flagged.
	SignificantRatio float64
	MinReasonLength  int
	MaxReasonLength  int
}

type ReorderRules struct {
	DefaultReorderPoint    int
	MaxReorderPoint        int
	SalesWindowDays        int
	FallbackSuggestion     int
	DefaultLeadTimeDays    int
	DefaultSafetyStockDays int
}

type Rules struct {
	MaxVersionRetries int
	Adjustment        AdjustmentRules
	Reorder           ReorderRules
}

func DefaultRules() Rules {
	return Rules{
		MaxVersionRetries: 3,
		Adjustment: AdjustmentRules{
			DoubleConfirmRatio: 0.5,
			SignificantRatio:   0.2,
			MinReasonLength:    10,
			MaxReasonLength:    500,
		},
		Reorder: ReorderRules{
			DefaultReorderPoint:    10,
			MaxReorderPoint:        10000,
			SalesWindowDays:        30,
			FallbackSuggestion:     10,
			DefaultLeadTimeDays:    7,
			DefaultSafetyStockDays: 3,
		},
	}
}
