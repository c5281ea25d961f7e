// backend-go/internal/domain/models.go
package domain

import "time"

// Store represents a store location
type Store struct {
	ID        int64      `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Area      string     `json:"area" db:"area"`
	City      string     `json:"city" db:"city"`
	OpenedAt  *time.Time `json:"opened_at" db:"opened_at"`
	Active    bool       `json:"active" db:"active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// MonthlySales represents one booked month of net sales for a store
type MonthlySales struct {
	ID           int64     `json:"id" db:"id"`
	StoreID      int64     `json:"store_id" db:"store_id"`
	Month        time.Time `json:"month" db:"month"`
	NetSales     float64   `json:"net_sales" db:"net_sales"`
	Transactions int64     `json:"transactions" db:"transactions"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// BudgetEntry represents the sales target for a store in one month
type BudgetEntry struct {
	ID      int64     `json:"id" db:"id"`
	StoreID int64     `json:"store_id" db:"store_id"`
	Month   time.Time `json:"month" db:"month"`
	Amount  float64   `json:"amount" db:"amount"`
}

// SeriesPoint represents one month on a store's actual-vs-budget chart
type SeriesPoint struct {
	Month    string   `json:"month" db:"month"`
	NetSales float64  `json:"net_sales" db:"net_sales"`
	Budget   float64  `json:"budget" db:"budget"`
	MAT      *float64 `json:"mat"`
}

// StoreSeries represents the assembled monthly history for a store
type StoreSeries struct {
	StoreID   int64         `json:"store_id"`
	StoreName string        `json:"store_name"`
	Points    []SeriesPoint `json:"points"`
}

// StoreFilter represents filters for store listing queries
type StoreFilter struct {
	StoreIDs   []int64  `json:"store_ids"`
	Areas      []string `json:"areas"`
	Search     string   `json:"search"`
	ActiveOnly bool     `json:"active_only"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	SortBy     string   `json:"sort_by"`
	SortDir    string   `json:"sort_dir"`
}

// StoresResponse represents the paginated response for the store list
type StoresResponse struct {
	Items      []Store `json:"items"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}
