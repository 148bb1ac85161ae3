package sqlmanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/stockroomhq/stockroom/internal/dispatch"
	"github.com/stockroomhq/stockroom/internal/domain/dberror"
	"github.com/stockroomhq/stockroom/internal/domain/event"
	"github.com/stockroomhq/stockroom/internal/domain/model"
)

// IncomeManager handles the income domain commands.
type IncomeManager struct {
	conn *pgx.Conn
	deps Deps
}

// NewIncomeManager creates an income manager bound to the live connection.
func NewIncomeManager(conn *pgx.Conn, deps Deps) *IncomeManager {
	return &IncomeManager{conn: conn, deps: deps.normalized()}
}

// IncomeFactory returns the dispatch factory for the income domain.
func IncomeFactory(deps Deps) dispatch.ManagerFactory {
	return func(conn *pgx.Conn) dispatch.Manager {
		return NewIncomeManager(conn, deps)
	}
}

// Execute dispatches an income command.
func (m *IncomeManager) Execute(ctx context.Context, req dispatch.QueryRequest) dispatch.QueryResult {
	return execute(ctx, req, map[string]operation{
		"add_new_income_transaction": m.addNewIncomeTransaction,
		"view_income_transactions":   m.viewIncomeTransactions,
		"view_income_report":         m.viewIncomeReport,
	})
}

func (m *IncomeManager) addNewIncomeTransaction(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	params := req.Params

	clientName := strings.TrimSpace(params.String("client_name"))
	purpose := strings.TrimSpace(params.String("purpose"))
	amount := params.Float64("amount")
	switch {
	case clientName == "":
		return nil, dberror.InvalidArguments("Client name is required.")
	case purpose == "":
		return nil, dberror.InvalidArguments("Purpose is required.")
	case amount <= 0:
		return nil, dberror.InvalidArguments("Amount must be greater than zero.")
	}

	paymentMethod := params.String("payment_method")
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	now := m.deps.Now()

	var incomeID int64
	err := withTransaction(ctx, m.conn, m.deps.Logger, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO income (client_name, purpose, amount, payment_method, currency,
			                     archived, created, last_edited, user_id)
			 VALUES ($1, $2, $3, $4, $5, false, $6, $6, $7)
			 RETURNING id`,
			clientName, purpose, amount, paymentMethod, defaultCurrency,
			now, m.deps.Session.UserID(),
		).Scan(&incomeID)
		if err != nil {
			return dberror.New(dberror.CodeAddTransactionFailure, err.Error(),
				"Failed to record income transaction.")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, m.deps, event.NewIncomeRecorded(incomeID, purpose, amount))

	return dispatch.Outcome{"income_id": incomeID}, nil
}

func (m *IncomeManager) viewIncomeTransactions(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	window, args := incomeDateWindow(req.Params)
	query := `SELECT id, client_name, purpose, amount, payment_method, currency, created, user_id
	          FROM income
	          WHERE archived = false` + window + ` ORDER BY created ASC, id ASC`

	rows, err := m.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, dberror.New(dberror.CodeViewTransactionsFailed, err.Error(),
			"Failed to fetch income transactions.")
	}
	defer rows.Close()

	var transactions []model.IncomeTransaction
	for rows.Next() {
		var t model.IncomeTransaction
		if err := rows.Scan(
			&t.IncomeID, &t.ClientName, &t.Purpose, &t.Amount,
			&t.PaymentMethod, &t.Currency, &t.Created, &t.UserID,
		); err != nil {
			return nil, dberror.New(dberror.CodeViewTransactionsFailed, err.Error(),
				"Failed to fetch income transactions.")
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.New(dberror.CodeViewTransactionsFailed, err.Error(),
			"Failed to fetch income transactions.")
	}

	return dispatch.Outcome{
		"transactions": transactions,
		"record_count": len(transactions),
	}, nil
}

func (m *IncomeManager) viewIncomeReport(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	window, args := incomeDateWindow(req.Params)
	query := `SELECT purpose, SUM(amount), COUNT(*)
	          FROM income
	          WHERE archived = false` + window + `
	          GROUP BY purpose
	          ORDER BY LOWER(purpose) ASC`

	rows, err := m.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, dberror.New(dberror.CodeViewReportFailed, err.Error(),
			"Failed to build income report.")
	}
	defer rows.Close()

	var report []model.IncomeReportRow
	for rows.Next() {
		var r model.IncomeReportRow
		if err := rows.Scan(&r.Purpose, &r.TotalAmount, &r.Count); err != nil {
			return nil, dberror.New(dberror.CodeViewReportFailed, err.Error(),
				"Failed to build income report.")
		}
		report = append(report, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.New(dberror.CodeViewReportFailed, err.Error(),
			"Failed to build income report.")
	}

	return dispatch.Outcome{
		"report":       report,
		"record_count": len(report),
	}, nil
}

// incomeDateWindow builds the optional created-timestamp window shared by
// the listing and the report. Both bounds are inclusive and independent.
func incomeDateWindow(params dispatch.Params) (string, []any) {
	var (
		clause string
		args   []any
	)
	if from := params.Time("from"); !from.IsZero() {
		args = append(args, from)
		clause += fmt.Sprintf(" AND created >= $%d", len(args))
	}
	if to := params.Time("to"); !to.IsZero() {
		args = append(args, to)
		clause += fmt.Sprintf(" AND created <= $%d", len(args))
	}
	return clause, args
}
