package repository

import (
	"context"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-parser/internal/entity"
)

type ReportRepository interface {
	// TotalSpent sums total_amount over every receipt of the user.
	TotalSpent(ctx context.Context, userID uuid.UUID) (decimal.Decimal, int64, error)
	// CategorySummary groups line items by category for receipts dated in [from, until),
	// highest spend first and ties broken by name.
	CategorySummary(ctx context.Context, userID uuid.UUID, from, until *time.Time) ([]entity.CategorySummary, error)
}

type reportRepository struct {
	client *Client
	logger *slog.Logger
}

func NewReportRepository(client *Client, logger *slog.Logger) ReportRepository {
	return &reportRepository{
		client: client,
		logger: logger,
	}
}

func (r *reportRepository) TotalSpent(ctx context.Context, userID uuid.UUID) (decimal.Decimal, int64, error) {
	b := entsql.Dialect(r.client.Dialect())
	t := b.Table(tableReceipts)
	q := b.Select(entsql.As(entsql.Sum(t.C("total_amount")), "total"), entsql.As(entsql.Count("*"), "cnt")).
		From(t).
		Where(entsql.EQ(t.C("user_id"), userID))
	rows, err := queryRows(ctx, r.client.drv, q)
	if err != nil {
		r.logger.Error("failed to sum receipts", "user_id", userID, "error", err)
		return decimal.Zero, 0, err
	}
	defer rows.Close()

	var (
		total decimal.NullDecimal
		count int64
	)
	if rows.Next() {
		if err := rows.Scan(&total, &count); err != nil {
			return decimal.Zero, 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, 0, err
	}
	if !total.Valid {
		return decimal.Zero, count, nil
	}
	return total.Decimal.Round(2), count, nil
}

func (r *reportRepository) CategorySummary(ctx context.Context, userID uuid.UUID, from, until *time.Time) ([]entity.CategorySummary, error) {
	b := entsql.Dialect(r.client.Dialect())
	// Joined tables need explicit aliases so column references match the JOIN.
	li := b.Table(tableLineItems).As("li")
	rc := b.Table(tableReceipts).As("r")
	c := b.Table(tableCategories).As("c")
	q := b.Select(
		entsql.As(c.C("name"), "category_name"),
		entsql.As(entsql.Count(li.C("id")), "item_count"),
		entsql.As(entsql.Sum(li.C("total_line_amount")), "total_spent"),
	).
		From(li).
		Join(rc).On(li.C("receipt_id"), rc.C("id")).
		Join(c).On(li.C("category_id"), c.C("id")).
		Where(ownedInWindow(rc, userID, from, until)).
		GroupBy(c.C("name")).
		OrderBy(entsql.Desc("total_spent"), c.C("name"))
	rows, err := queryRows(ctx, r.client.drv, q)
	if err != nil {
		r.logger.Error("failed to summarize categories", "user_id", userID, "error", err)
		return nil, err
	}
	defer rows.Close()

	result := []entity.CategorySummary{}
	for rows.Next() {
		var (
			s     entity.CategorySummary
			spent decimal.NullDecimal
		)
		if err := rows.Scan(&s.CategoryName, &s.ItemCount, &spent); err != nil {
			return nil, err
		}
		s.TotalSpent = spent.Decimal.Round(2)
		result = append(result, s)
	}
	return result, rows.Err()
}
