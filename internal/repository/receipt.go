package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/entity"
)

type ReceiptRepository interface {
	// Create stores the receipt and all of its line items in one transaction.
	Create(ctx context.Context, r *entity.Receipt) error
	// Get returns a receipt with its line items, or ErrNotFound when it is missing or
	// owned by someone else.
	Get(ctx context.Context, userID, receiptID uuid.UUID) (*entity.Receipt, error)
	// Delete removes a receipt and its line items; ErrNotFound as for Get.
	Delete(ctx context.Context, userID, receiptID uuid.UUID) error
	// ListReceipts returns headers with receipt_date in [from, until), newest first.
	ListReceipts(ctx context.Context, userID uuid.UUID, from, until *time.Time) ([]entity.ReceiptSummary, error)
	// ListWithItems is ListReceipts including line items.
	ListWithItems(ctx context.Context, userID uuid.UUID, from, until *time.Time) ([]*entity.Receipt, error)
}

type receiptRepository struct {
	client *Client
	logger *slog.Logger
}

func NewReceiptRepository(client *Client, logger *slog.Logger) ReceiptRepository {
	return &receiptRepository{
		client: client,
		logger: logger,
	}
}

func (r *receiptRepository) Create(ctx context.Context, rec *entity.Receipt) error {
	d := r.client.Dialect()
	return r.client.withTx(ctx, func(tx dialect.Tx) error {
		q := entsql.Dialect(d).
			Insert(tableReceipts).
			Columns("id", "user_id", "store_name", "receipt_date", "total_amount", "raw_text", "uploaded_at").
			Values(rec.ID, rec.UserID, rec.StoreName, rec.ReceiptDate.UTC(), rec.TotalAmount, rec.RawText, rec.UploadedAt.UTC())
		if _, err := execQuery(ctx, tx, q); err != nil {
			return fmt.Errorf("insert receipt: %w", err)
		}
		if len(rec.LineItems) == 0 {
			return nil
		}

		items := entsql.Dialect(d).
			Insert(tableLineItems).
			Columns("id", "line_no", "item_name", "quantity", "unit_price", "total_line_amount", "receipt_id", "category_id")
		for i, li := range rec.LineItems {
			items = items.Values(li.ID, i+1, li.ItemName, li.Quantity, li.UnitPrice, li.TotalLineAmount, rec.ID, li.CategoryID)
		}
		if _, err := execQuery(ctx, tx, items); err != nil {
			return fmt.Errorf("insert line items: %w", err)
		}
		return nil
	})
}

func (r *receiptRepository) Get(ctx context.Context, userID, receiptID uuid.UUID) (*entity.Receipt, error) {
	b := entsql.Dialect(r.client.Dialect())
	t := b.Table(tableReceipts)
	q := b.Select(t.C("id"), t.C("user_id"), t.C("store_name"), t.C("receipt_date"), t.C("total_amount"), t.C("raw_text"), t.C("uploaded_at")).
		From(t).
		Where(entsql.And(entsql.EQ(t.C("id"), receiptID), entsql.EQ(t.C("user_id"), userID)))
	rows, err := queryRows(ctx, r.client.drv, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, notFound(receiptID)
	}
	rec := &entity.Receipt{}
	if err := rows.Scan(&rec.ID, &rec.UserID, &rec.StoreName, &rec.ReceiptDate, &rec.TotalAmount, &rec.RawText, &rec.UploadedAt); err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	items, err := r.lineItems(ctx, []uuid.UUID{rec.ID})
	if err != nil {
		return nil, err
	}
	rec.LineItems = items[rec.ID]
	if rec.LineItems == nil {
		rec.LineItems = []entity.LineItem{}
	}
	return rec, nil
}

func (r *receiptRepository) Delete(ctx context.Context, userID, receiptID uuid.UUID) error {
	d := r.client.Dialect()
	err := r.client.withTx(ctx, func(tx dialect.Tx) error {
		// Items go first so engines running without foreign keys stay consistent.
		owned := entsql.Dialect(d).Select("id").From(entsql.Dialect(d).Table(tableReceipts)).
			Where(entsql.And(entsql.EQ("id", receiptID), entsql.EQ("user_id", userID)))
		items := entsql.Dialect(d).Delete(tableLineItems).Where(entsql.In("receipt_id", owned))
		if _, err := execQuery(ctx, tx, items); err != nil {
			return fmt.Errorf("delete line items: %w", err)
		}

		head := entsql.Dialect(d).Delete(tableReceipts).
			Where(entsql.And(entsql.EQ("id", receiptID), entsql.EQ("user_id", userID)))
		res, err := execQuery(ctx, tx, head)
		if err != nil {
			return fmt.Errorf("delete receipt: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound(receiptID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Info("receipt deleted", "receipt_id", receiptID, "user_id", userID)
	return nil
}

func (r *receiptRepository) ListReceipts(ctx context.Context, userID uuid.UUID, from, until *time.Time) ([]entity.ReceiptSummary, error) {
	b := entsql.Dialect(r.client.Dialect())
	t := b.Table(tableReceipts)
	q := b.Select(t.C("id"), t.C("store_name"), t.C("total_amount"), t.C("receipt_date"), t.C("uploaded_at")).
		From(t).
		Where(ownedInWindow(t, userID, from, until)).
		OrderBy(entsql.Desc(t.C("receipt_date")), entsql.Desc(t.C("uploaded_at")))
	rows, err := queryRows(ctx, r.client.drv, q)
	if err != nil {
		r.logger.Error("failed to list receipts", "user_id", userID, "error", err)
		return nil, err
	}
	defer rows.Close()

	result := []entity.ReceiptSummary{}
	for rows.Next() {
		var s entity.ReceiptSummary
		if err := rows.Scan(&s.ID, &s.StoreName, &s.TotalAmount, &s.ReceiptDate, &s.UploadedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *receiptRepository) ListWithItems(ctx context.Context, userID uuid.UUID, from, until *time.Time) ([]*entity.Receipt, error) {
	heads, err := r.ListReceipts(ctx, userID, from, until)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(heads))
	for i, h := range heads {
		ids[i] = h.ID
	}
	items, err := r.lineItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*entity.Receipt, len(heads))
	for i, h := range heads {
		lis := items[h.ID]
		if lis == nil {
			lis = []entity.LineItem{}
		}
		result[i] = &entity.Receipt{
			ID:          h.ID,
			UserID:      userID,
			StoreName:   h.StoreName,
			ReceiptDate: h.ReceiptDate,
			TotalAmount: h.TotalAmount,
			UploadedAt:  h.UploadedAt,
			LineItems:   lis,
		}
	}
	return result, nil
}

// lineItems loads the items of the given receipts, keyed by receipt id, in line order.
func (r *receiptRepository) lineItems(ctx context.Context, receiptIDs []uuid.UUID) (map[uuid.UUID][]entity.LineItem, error) {
	out := make(map[uuid.UUID][]entity.LineItem, len(receiptIDs))
	if len(receiptIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(receiptIDs))
	for i, id := range receiptIDs {
		args[i] = id
	}

	b := entsql.Dialect(r.client.Dialect())
	li := b.Table(tableLineItems).As("li")
	c := b.Table(tableCategories).As("c")
	q := b.Select(li.C("id"), li.C("receipt_id"), li.C("item_name"), li.C("quantity"), li.C("unit_price"),
		li.C("total_line_amount"), li.C("category_id"), c.C("name")).
		From(li).
		Join(c).On(li.C("category_id"), c.C("id")).
		Where(entsql.In(li.C("receipt_id"), args...)).
		OrderBy(li.C("receipt_id"), li.C("line_no"))
	rows, err := queryRows(ctx, r.client.drv, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it entity.LineItem
		if err := rows.Scan(&it.ID, &it.ReceiptID, &it.ItemName, &it.Quantity, &it.UnitPrice,
			&it.TotalLineAmount, &it.CategoryID, &it.CategoryName); err != nil {
			return nil, err
		}
		out[it.ReceiptID] = append(out[it.ReceiptID], it)
	}
	return out, rows.Err()
}

// ownedInWindow restricts t to the user's rows with receipt_date in [from, until).
func ownedInWindow(t *entsql.SelectTable, userID uuid.UUID, from, until *time.Time) *entsql.Predicate {
	preds := []*entsql.Predicate{entsql.EQ(t.C("user_id"), userID)}
	if from != nil {
		preds = append(preds, entsql.GTE(t.C("receipt_date"), from.UTC()))
	}
	if until != nil {
		preds = append(preds, entsql.LT(t.C("receipt_date"), until.UTC()))
	}
	return entsql.And(preds...)
}

func notFound(id uuid.UUID) error {
	return common.NewAppError(common.CodeNotFound, fmt.Sprintf("receipt %s", id), common.ErrNotFound)
}
