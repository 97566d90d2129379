package repository

import (
	"context"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared by the queries in this package.
const (
	tableCategories = "categories"
	tableReceipts   = "receipts"
	tableLineItems  = "line_items"
)

var (
	amountType   = map[string]string{dialect.Postgres: "numeric(12,2)"}
	quantityType = map[string]string{dialect.Postgres: "numeric(12,3)"}

	// CategoriesColumns holds the columns for the "categories" table.
	CategoriesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString, Size: 100},
		{Name: "name_key", Type: field.TypeString, Size: 100},
	}
	// CategoriesTable holds the schema information for the "categories" table.
	CategoriesTable = &schema.Table{
		Name:       tableCategories,
		Columns:    CategoriesColumns,
		PrimaryKey: []*schema.Column{CategoriesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "category_name_key",
				Unique:  true,
				Columns: []*schema.Column{CategoriesColumns[2]},
			},
		},
	}
	// ReceiptsColumns holds the columns for the "receipts" table.
	ReceiptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID},
		{Name: "store_name", Type: field.TypeString, Size: 200},
		{Name: "receipt_date", Type: field.TypeTime, SchemaType: map[string]string{dialect.Postgres: "date"}},
		{Name: "total_amount", Type: field.TypeFloat64, SchemaType: amountType},
		{Name: "raw_text", Type: field.TypeString, Size: 2147483647},
		{Name: "uploaded_at", Type: field.TypeTime},
	}
	// ReceiptsTable holds the schema information for the "receipts" table.
	ReceiptsTable = &schema.Table{
		Name:       tableReceipts,
		Columns:    ReceiptsColumns,
		PrimaryKey: []*schema.Column{ReceiptsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "receipt_user_id_receipt_date",
				Unique:  false,
				Columns: []*schema.Column{ReceiptsColumns[1], ReceiptsColumns[3]},
			},
		},
	}
	// LineItemsColumns holds the columns for the "line_items" table.
	LineItemsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "line_no", Type: field.TypeInt},
		{Name: "item_name", Type: field.TypeString, Size: 200},
		{Name: "quantity", Type: field.TypeFloat64, SchemaType: quantityType},
		{Name: "unit_price", Type: field.TypeFloat64, SchemaType: amountType},
		{Name: "total_line_amount", Type: field.TypeFloat64, SchemaType: amountType},
		{Name: "receipt_id", Type: field.TypeUUID},
		{Name: "category_id", Type: field.TypeUUID},
	}
	// LineItemsTable holds the schema information for the "line_items" table.
	LineItemsTable = &schema.Table{
		Name:       tableLineItems,
		Columns:    LineItemsColumns,
		PrimaryKey: []*schema.Column{LineItemsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "line_items_receipts_line_items",
				Columns:    []*schema.Column{LineItemsColumns[6]},
				RefColumns: []*schema.Column{ReceiptsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "line_items_categories_line_items",
				Columns:    []*schema.Column{LineItemsColumns[7]},
				RefColumns: []*schema.Column{CategoriesColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "lineitem_receipt_id_line_no",
				Unique:  true,
				Columns: []*schema.Column{LineItemsColumns[6], LineItemsColumns[1]},
			},
			{
				Name:    "lineitem_category_id",
				Unique:  false,
				Columns: []*schema.Column{LineItemsColumns[7]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		CategoriesTable,
		ReceiptsTable,
		LineItemsTable,
	}
)

func init() {
	LineItemsTable.ForeignKeys[0].RefTable = ReceiptsTable
	LineItemsTable.ForeignKeys[1].RefTable = CategoriesTable
}

// Migrate creates or upgrades the tables through ent's migration engine.
func Migrate(ctx context.Context, c *Client, logger *slog.Logger) error {
	m, err := schema.NewMigrate(c.drv, schema.WithForeignKeys(true))
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		logger.Error("schema migration failed", "error", err)
		return fmt.Errorf("create schema: %w", err)
	}
	logger.Info("schema migrated", "tables", len(Tables))
	return nil
}
