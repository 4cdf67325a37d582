package analytics

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/olumuyiwaa/afrohub-backend/internal/models"
)

// Service aggregates sales figures from settled transactions.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// PlatformSummary is the cross-event rollup shown on the admin dashboard.
type PlatformSummary struct {
	TotalRevenue     float64        `json:"total_revenue"`
	TotalTicketsSold int            `json:"total_tickets_sold"`
	ByStatus         map[string]int `json:"transactions_by_status"`
}

// EventSales represents aggregated sales data for one event.
type EventSales struct {
	TicketID         string              `json:"ticket_id"`
	TotalRevenue     float64             `json:"total_revenue"`
	TotalTicketsSold int                 `json:"total_tickets_sold"`
	SalesByTier      []TierSalesMetrics  `json:"sales_by_tier"`
	DailySales       []DailySalesMetrics `json:"daily_sales"`
}

// TierSalesMetrics contains sales metrics for a single tier.
type TierSalesMetrics struct {
	TicketType  string  `json:"ticket_type"`
	TicketsSold int     `json:"tickets_sold"`
	Revenue     float64 `json:"revenue"`
}

// DailySalesMetrics contains metrics for a single day.
type DailySalesMetrics struct {
	Date        string  `json:"date"`
	Revenue     float64 `json:"revenue"`
	TicketsSold int     `json:"tickets_sold"`
}

// GetPlatformSummary returns revenue and ticket totals across every event.
// Only COMPLETED transactions count toward revenue.
func (s *Service) GetPlatformSummary(ctx context.Context) (*PlatformSummary, error) {
	summary := &PlatformSummary{ByStatus: map[string]int{}}

	type statusCount struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}
	var counts []statusCount
	err := s.db.NewSelect().
		Model((*models.Transaction)(nil)).
		ColumnExpr("status, COUNT(*) AS count").
		Group("status").
		Scan(ctx, &counts)
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		summary.ByStatus[c.Status] = c.Count
	}

	type totals struct {
		Revenue float64 `bun:"revenue"`
		Tickets int     `bun:"tickets"`
	}
	var t totals
	err = s.db.NewSelect().
		Model((*models.Transaction)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0) AS revenue, COALESCE(SUM(ticket_count), 0) AS tickets").
		Where("status = ?", models.StatusCompleted).
		Scan(ctx, &t)
	if err != nil {
		return nil, err
	}
	summary.TotalRevenue = t.Revenue
	summary.TotalTicketsSold = t.Tickets

	return summary, nil
}

// GetEventSales returns per-tier and per-day sales for a single event.
func (s *Service) GetEventSales(ctx context.Context, ticketID string) (*EventSales, error) {
	sales := &EventSales{TicketID: ticketID}

	type tierRow struct {
		TicketType string  `bun:"ticket_type"`
		Tickets    int     `bun:"tickets"`
		Revenue    float64 `bun:"revenue"`
	}
	var tiers []tierRow
	err := s.db.NewSelect().
		Model((*models.Transaction)(nil)).
		ColumnExpr("ticket_type, COALESCE(SUM(ticket_count), 0) AS tickets, COALESCE(SUM(amount), 0) AS revenue").
		Where("ticket_id = ?", ticketID).
		Where("status = ?", models.StatusCompleted).
		Group("ticket_type").
		Scan(ctx, &tiers)
	if err != nil {
		return nil, err
	}
	for _, row := range tiers {
		sales.SalesByTier = append(sales.SalesByTier, TierSalesMetrics{
			TicketType:  row.TicketType,
			TicketsSold: row.Tickets,
			Revenue:     row.Revenue,
		})
		sales.TotalTicketsSold += row.Tickets
		sales.TotalRevenue += row.Revenue
	}

	type dailyRow struct {
		Date    string  `bun:"date"`
		Revenue float64 `bun:"revenue"`
		Tickets int     `bun:"tickets"`
	}
	var days []dailyRow
	err = s.db.NewSelect().
		Model((*models.Transaction)(nil)).
		ColumnExpr("DATE(created_at)::text AS date, COALESCE(SUM(amount), 0) AS revenue, COALESCE(SUM(ticket_count), 0) AS tickets").
		Where("ticket_id = ?", ticketID).
		Where("status = ?", models.StatusCompleted).
		GroupExpr("DATE(created_at)").
		OrderExpr("DATE(created_at)").
		Scan(ctx, &days)
	if err != nil {
		return nil, err
	}
	for _, row := range days {
		sales.DailySales = append(sales.DailySales, DailySalesMetrics{
			Date:        row.Date,
			Revenue:     row.Revenue,
			TicketsSold: row.Tickets,
		})
	}

	return sales, nil
}
