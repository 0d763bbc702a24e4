package domain

// Metrics is the fixed-shape summary computed for an uploaded dataset.
type Metrics struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalOrders    int     `json:"total_orders"`
	AvgOrderValue  float64 `json:"avg_order_value"`
	TotalItemsSold float64 `json:"total_items_sold"`

	PopularPizzas []PizzaSales    `json:"popular_pizzas"`
	CategorySales []CategorySales `json:"category_sales"`
	SizeSales     []SizeSales     `json:"size_sales"`
	DailySales    []DailySales    `json:"daily_sales"`
	HourlySales   []HourlySales   `json:"hourly_sales"`
	DataPreview   []Row           `json:"data_preview"`
}

// PizzaSales is the quantity and revenue sold for one pizza
type PizzaSales struct {
	PizzaName string  `json:"pizza_name"`
	Quantity  float64 `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// CategorySales is the revenue for one pizza category
type CategorySales struct {
	PizzaCategory string  `json:"pizza_category"`
	Revenue       float64 `json:"revenue"`
}

// SizeSales is the revenue for one pizza size
type SizeSales struct {
	PizzaSize string  `json:"pizza_size"`
	Revenue   float64 `json:"revenue"`
}

// DailySales is the revenue for one calendar date (YYYY-MM-DD)
type DailySales struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// HourlySales is the revenue for one hour of the day
type HourlySales struct {
	Hour    int     `json:"hour"`
	Revenue float64 `json:"revenue"`
}
