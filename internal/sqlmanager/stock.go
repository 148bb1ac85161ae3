package sqlmanager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/stockroomhq/stockroom/internal/dispatch"
	"github.com/stockroomhq/stockroom/internal/domain/dberror"
	"github.com/stockroomhq/stockroom/internal/domain/event"
	"github.com/stockroomhq/stockroom/internal/domain/model"
	"github.com/stockroomhq/stockroom/internal/imaging"
)

// StockManager handles the stock domain commands.
type StockManager struct {
	conn *pgx.Conn
	deps Deps
}

// NewStockManager creates a stock manager bound to the live connection.
func NewStockManager(conn *pgx.Conn, deps Deps) *StockManager {
	return &StockManager{conn: conn, deps: deps.normalized()}
}

// StockFactory returns the dispatch factory for the stock domain.
func StockFactory(deps Deps) dispatch.ManagerFactory {
	return func(conn *pgx.Conn) dispatch.Manager {
		return NewStockManager(conn, deps)
	}
}

// Execute dispatches a stock command.
func (m *StockManager) Execute(ctx context.Context, req dispatch.QueryRequest) dispatch.QueryResult {
	return execute(ctx, req, map[string]operation{
		"add_new_stock_item":     m.addNewStockItem,
		"view_stock_items":       m.viewStockItems,
		"view_stock_categories":  m.viewStockCategories,
		"remove_stock_item":      m.removeStockItem,
		"undo_remove_stock_item": m.undoRemoveStockItem,
	})
}

func (m *StockManager) addNewStockItem(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	params := req.Params

	category := strings.TrimSpace(params.String("category"))
	item := strings.TrimSpace(params.String("item"))
	unit := strings.TrimSpace(params.String("unit"))
	switch {
	case category == "":
		return nil, dberror.InvalidArguments("Category name is required.")
	case item == "":
		return nil, dberror.InvalidArguments("Item name is required.")
	case unit == "":
		return nil, dberror.InvalidArguments("Unit is required.")
	}
	if quantity := params.Float64("quantity"); quantity < 0 {
		return nil, dberror.InvalidArguments("Quantity cannot be negative.")
	}

	image, err := imaging.Encode(params.String("image_source"))
	if err != nil {
		return nil, dberror.New(dberror.CodeInvalidArguments, err.Error(), "Failed to read the item image.")
	}

	now := m.deps.Now()
	userID := m.deps.Session.UserID()

	var itemID, categoryID, unitID int64
	err = withTransaction(ctx, m.conn, m.deps.Logger, func(tx pgx.Tx) error {
		categoryNoteID, err := insertNote(ctx, tx, m.deps, params.String("category_note"), dberror.CodeAddItemFailure)
		if err != nil {
			return err
		}
		itemNoteID, err := insertNote(ctx, tx, m.deps, params.String("item_note"), dberror.CodeAddItemFailure)
		if err != nil {
			return err
		}

		categoryID, err = m.insertOrReuseCategory(ctx, tx, category, categoryNoteID)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO item (category_id, item, short_form, description, barcode, divisible, image,
			                   note_id, archived, created, last_edited, user_id)
			 VALUES ($1, $2, NULL, $3, NULL, $4, $5, $6, false, $7, $7, $8)
			 RETURNING id`,
			categoryID, item, params.String("description"), params.Bool("divisible"),
			image, itemNoteID, now, userID,
		).Scan(&itemID)
		if err != nil {
			if isDuplicateKey(err) {
				return dberror.New(dberror.CodeDuplicateEntryFailure, err.Error(),
					"Failed to insert item because item already exists.")
			}
			return dberror.New(dberror.CodeAddItemFailure, err.Error(), "Failed to insert item.")
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO unit (item_id, unit, short_form, base_unit_equivalent, cost_price, retail_price,
			                   preferred, currency, note_id, archived, created, last_edited, user_id)
			 VALUES ($1, $2, NULL, 1, $3, $4, true, $5, NULL, false, $6, $6, $7)
			 RETURNING id`,
			itemID, unit, params.Float64("cost_price"), params.Float64("retail_price"),
			defaultCurrency, now, userID,
		).Scan(&unitID)
		if err != nil {
			return dberror.New(dberror.CodeAddItemFailure, err.Error(), "Failed to insert unit.")
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO initial_quantity (item_id, quantity, unit_id, reason, archived, created, last_edited, user_id)
			 VALUES ($1, $2, $3, $4, false, $5, $5, $6)`,
			itemID, params.Float64("quantity"), unitID, req.Command, now, userID,
		)
		if err != nil {
			return dberror.New(dberror.CodeAddItemFailure, err.Error(),
				"Failed to insert quantity into initial_quantity.")
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO current_quantity (item_id, quantity, unit_id, created, last_edited, user_id)
			 VALUES ($1, $2, $3, $4, $4, $5)`,
			itemID, params.Float64("quantity"), unitID, now, userID,
		)
		if err != nil {
			return dberror.New(dberror.CodeAddItemFailure, err.Error(),
				"Failed to insert quantity into current_quantity.")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, m.deps, event.NewStockItemAdded(itemID, categoryID, item, category))

	return dispatch.Outcome{
		"item_id":     itemID,
		"category_id": categoryID,
		"unit_id":     unitID,
	}, nil
}

// insertOrReuseCategory attempts an idempotent insert keyed on the
// category name. Zero rows affected means the category already exists, in
// which case the existing row's id is re-selected instead of treating the
// collision as an error.
func (m *StockManager) insertOrReuseCategory(ctx context.Context, tx pgx.Tx, category string, noteID any) (int64, error) {
	now := m.deps.Now()

	var categoryID int64
	err := tx.QueryRow(ctx,
		`INSERT INTO category (category, short_form, note_id, archived, created, last_edited, user_id)
		 VALUES ($1, NULL, $2, false, $3, $3, $4)
		 ON CONFLICT (category) DO NOTHING
		 RETURNING id`,
		category, noteID, now, m.deps.Session.UserID(),
	).Scan(&categoryID)
	if err == nil {
		return categoryID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, dberror.New(dberror.CodeAddItemFailure, err.Error(), "Failed to insert category.")
	}

	err = tx.QueryRow(ctx, `SELECT id FROM category WHERE category = $1`, category).Scan(&categoryID)
	if err != nil {
		return 0, dberror.Newf(dberror.CodeAddItemFailure,
			"Failed to insert category.",
			"expected existing id for category %q: %v", category, err)
	}
	return categoryID, nil
}

func (m *StockManager) viewStockItems(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	direction, err := sortDirection(req.Params.String("sort_order"))
	if err != nil {
		return nil, err
	}

	filter, args, err := stockItemFilter(req.Params)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT item.id, category.id, category.category, item.item,
		        COALESCE(item.description, ''), item.divisible, item.image,
		        current_quantity.quantity, unit.id, unit.unit, unit.cost_price,
		        unit.retail_price, unit.currency, item.created, item.last_edited, item.user_id
		 FROM item
		 INNER JOIN category ON item.category_id = category.id
		 INNER JOIN unit ON item.id = unit.item_id AND unit.base_unit_equivalent = 1
		 INNER JOIN current_quantity ON item.id = current_quantity.item_id
		 WHERE item.archived = false%s
		 ORDER BY LOWER(item.item) %s, LOWER(category.category) %s`,
		filter, direction, direction,
	)

	rows, err := m.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, dberror.New(dberror.CodeViewStockItemsFailed, err.Error(),
			"Failed to fetch tracked stock items.")
	}
	defer rows.Close()

	var items []model.StockItem
	for rows.Next() {
		var it model.StockItem
		var image []byte
		if err := rows.Scan(
			&it.ItemID, &it.CategoryID, &it.Category, &it.Item,
			&it.Description, &it.Divisible, &image,
			&it.Quantity, &it.UnitID, &it.Unit, &it.CostPrice,
			&it.RetailPrice, &it.Currency, &it.Created, &it.LastEdited, &it.UserID,
		); err != nil {
			return nil, dberror.New(dberror.CodeViewStockItemsFailed, err.Error(),
				"Failed to fetch tracked stock items.")
		}
		it.Image = imaging.Decode(image)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.New(dberror.CodeViewStockItemsFailed, err.Error(),
			"Failed to fetch tracked stock items.")
	}

	return dispatch.Outcome{
		"categories":   groupByCategory(items),
		"record_count": len(items),
	}, nil
}

// groupByCategory folds the ordered item rows into a category-name keyed
// mapping, preserving the query's row order within each group.
func groupByCategory(items []model.StockItem) map[string][]model.StockItem {
	grouped := make(map[string][]model.StockItem)
	for _, it := range items {
		grouped[it.Category] = append(grouped[it.Category], it)
	}
	return grouped
}

// sortDirection maps the sort_order parameter onto a SQL direction.
// Anything outside {ascending, descending, ""} is rejected.
func sortDirection(sortOrder string) (string, error) {
	switch sortOrder {
	case "", "ascending":
		return "ASC", nil
	case "descending":
		return "DESC", nil
	default:
		return "", dberror.Newf(dberror.CodeInvalidArguments,
			"Sort order must be ascending or descending.",
			"invalid sort_order %q", sortOrder)
	}
}

// stockItemFilter builds the optional substring filter clause. The filter
// applies only when both a column and text are supplied, and the column
// must name exactly one of the two filterable columns.
func stockItemFilter(params dispatch.Params) (string, []any, error) {
	filterText := params.String("filter_text")
	filterColumn := params.String("filter_column")
	if filterText == "" || filterColumn == "" {
		return "", nil, nil
	}

	pattern := "%" + filterText + "%"
	switch filterColumn {
	case "item":
		return " AND item.item ILIKE $1", []any{pattern}, nil
	case "category":
		return " AND category.category ILIKE $1", []any{pattern}, nil
	default:
		return "", nil, dberror.Newf(dberror.CodeInvalidArguments,
			"Filter column must be item or category.",
			"invalid filter_column %q", filterColumn)
	}
}

func (m *StockManager) viewStockCategories(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	rows, err := m.conn.Query(ctx,
		`SELECT id, category FROM category WHERE archived = false ORDER BY LOWER(category) ASC`)
	if err != nil {
		return nil, dberror.New(dberror.CodeViewStockCategoriesFailed, err.Error(),
			"Failed to fetch categories.")
	}
	defer rows.Close()

	var categories []model.StockCategory
	for rows.Next() {
		var c model.StockCategory
		if err := rows.Scan(&c.CategoryID, &c.Category); err != nil {
			return nil, dberror.New(dberror.CodeViewStockCategoriesFailed, err.Error(),
				"Failed to fetch categories.")
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.New(dberror.CodeViewStockCategoriesFailed, err.Error(),
			"Failed to fetch categories.")
	}

	return dispatch.Outcome{
		"categories":   categories,
		"record_count": len(categories),
	}, nil
}

func (m *StockManager) removeStockItem(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	outcome, err := m.toggleItemArchived(ctx, req, true, dberror.CodeRemoveStockItemFailed,
		"Failed to remove stock item.")
	if err != nil {
		return nil, err
	}

	publish(ctx, m.deps, event.NewStockItemArchived(
		outcome["item_id"].(int64), outcome["category_id"].(int64)))
	return outcome, nil
}

func (m *StockManager) undoRemoveStockItem(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	outcome, err := m.toggleItemArchived(ctx, req, false, dberror.CodeUndoFailed,
		"Failed to undo stock item removal.")
	if err != nil {
		return nil, err
	}

	publish(ctx, m.deps, event.NewStockItemRestored(
		outcome["item_id"].(int64), outcome["category_id"].(int64)))
	return outcome, nil
}

// toggleItemArchived flips the soft-delete flag inside a transaction and
// re-fetches the affected item's and category's identifiers.
func (m *StockManager) toggleItemArchived(ctx context.Context, req dispatch.QueryRequest, archived bool, failCode dberror.Code, failMessage string) (dispatch.Outcome, error) {
	itemID := req.Params.Int64("item_id")
	if itemID <= 0 {
		return nil, dberror.InvalidArguments("Item ID is null.")
	}

	now := m.deps.Now()
	userID := m.deps.Session.UserID()

	var categoryID int64
	err := withTransaction(ctx, m.conn, m.deps.Logger, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE item SET archived = $1, last_edited = $2, user_id = $3 WHERE id = $4`,
			archived, now, userID, itemID,
		)
		if err != nil {
			return dberror.New(failCode, err.Error(), failMessage)
		}

		err = tx.QueryRow(ctx,
			`SELECT category.id, item.id
			 FROM item
			 INNER JOIN category ON item.category_id = category.id
			 WHERE item.id = $1`,
			itemID,
		).Scan(&categoryID, &itemID)
		if err != nil {
			return dberror.New(failCode, err.Error(), "Failed to retrieve category ID.")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dispatch.Outcome{
		"item_id":     itemID,
		"category_id": categoryID,
	}, nil
}

const defaultCurrency = "NGN"
