package sqlmanager

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/stockroomhq/stockroom/internal/dispatch"
	"github.com/stockroomhq/stockroom/internal/domain/dberror"
	"github.com/stockroomhq/stockroom/internal/domain/event"
	"github.com/stockroomhq/stockroom/internal/domain/model"
	"github.com/stockroomhq/stockroom/internal/imaging"
)

// DebtorManager handles the debtor domain commands.
type DebtorManager struct {
	conn *pgx.Conn
	deps Deps
}

// NewDebtorManager creates a debtor manager bound to the live connection.
func NewDebtorManager(conn *pgx.Conn, deps Deps) *DebtorManager {
	return &DebtorManager{conn: conn, deps: deps.normalized()}
}

// DebtorFactory returns the dispatch factory for the debtor domain.
func DebtorFactory(deps Deps) dispatch.ManagerFactory {
	return func(conn *pgx.Conn) dispatch.Manager {
		return NewDebtorManager(conn, deps)
	}
}

// Execute dispatches a debtor command.
func (m *DebtorManager) Execute(ctx context.Context, req dispatch.QueryRequest) dispatch.QueryResult {
	return execute(ctx, req, map[string]operation{
		"add_new_debtor":     m.addNewDebtor,
		"view_debtors":       m.viewDebtors,
		"remove_debtor":      m.removeDebtor,
		"undo_remove_debtor": m.undoRemoveDebtor,
	})
}

func (m *DebtorManager) addNewDebtor(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	params := req.Params

	preferredName := strings.TrimSpace(params.String("preferred_name"))
	phoneNumber := strings.TrimSpace(params.String("phone_number"))
	debts := params.List("debts")
	switch {
	case preferredName == "":
		return nil, dberror.InvalidArguments("Preferred name is required.")
	case phoneNumber == "":
		return nil, dberror.InvalidArguments("Phone number is required.")
	case len(debts) == 0:
		return nil, dberror.InvalidArguments("At least one debt is required.")
	}
	for _, debt := range debts {
		if debt.Float64("amount") <= 0 {
			return nil, dberror.InvalidArguments("Debt amount must be greater than zero.")
		}
		if debt.Time("due_date").IsZero() {
			return nil, dberror.InvalidArguments("Debt due date is required.")
		}
	}

	image, err := imaging.Encode(params.String("image_source"))
	if err != nil {
		return nil, dberror.New(dberror.CodeInvalidArguments, err.Error(), "Failed to read the client image.")
	}

	now := m.deps.Now()
	userID := m.deps.Session.UserID()

	var clientID, debtorID int64
	err = withTransaction(ctx, m.conn, m.deps.Logger, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO client (preferred_name, first_name, last_name, phone_number, image,
			                     archived, created, last_edited, user_id)
			 VALUES ($1, $2, $3, $4, $5, false, $6, $6, $7)
			 RETURNING id`,
			preferredName, params.String("first_name"), params.String("last_name"),
			phoneNumber, image, now, userID,
		).Scan(&clientID)
		if err != nil {
			if isDuplicateKey(err) {
				return dberror.Newf(dberror.CodeDuplicateEntryFailure,
					"A client with this phone number already exists.",
					"duplicate client phone number %q: %v", phoneNumber, err)
			}
			return dberror.New(dberror.CodeAddDebtorFailure, err.Error(), "Failed to insert client.")
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO debtor (client_id, archived, created, last_edited, user_id)
			 VALUES ($1, false, $2, $2, $3)
			 RETURNING id`,
			clientID, now, userID,
		).Scan(&debtorID)
		if err != nil {
			return dberror.New(dberror.CodeAddDebtorFailure, err.Error(), "Failed to insert debtor.")
		}

		for _, debt := range debts {
			noteID, err := insertNote(ctx, tx, m.deps, debt.String("note"), dberror.CodeAddDebtorFailure)
			if err != nil {
				return err
			}

			_, err = tx.Exec(ctx,
				`INSERT INTO debt_transaction (debtor_id, total_debt, due_date, note_id, archived, created, last_edited, user_id)
				 VALUES ($1, $2, $3, $4, false, $5, $5, $6)`,
				debtorID, debt.Float64("amount"), debt.Time("due_date"), noteID, now, userID,
			)
			if err != nil {
				return dberror.New(dberror.CodeAddDebtorFailure, err.Error(),
					"Failed to insert debt transaction.")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, m.deps, event.NewDebtorAdded(debtorID, clientID))

	return dispatch.Outcome{
		"debtor_id": debtorID,
		"client_id": clientID,
	}, nil
}

func (m *DebtorManager) viewDebtors(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	rows, err := m.conn.Query(ctx,
		`SELECT debtor.id, client.id, client.preferred_name, client.first_name,
		        client.last_name, client.phone_number,
		        COALESCE(SUM(debt_transaction.total_debt), 0), debtor.created
		 FROM debtor
		 INNER JOIN client ON debtor.client_id = client.id
		 LEFT JOIN debt_transaction
		        ON debt_transaction.debtor_id = debtor.id AND debt_transaction.archived = false
		 WHERE debtor.archived = false
		 GROUP BY debtor.id, client.id
		 ORDER BY LOWER(client.preferred_name) ASC`)
	if err != nil {
		return nil, dberror.New(dberror.CodeViewDebtorsFailed, err.Error(), "Failed to fetch debtors.")
	}
	defer rows.Close()

	var debtors []model.Debtor
	for rows.Next() {
		var d model.Debtor
		if err := rows.Scan(
			&d.DebtorID, &d.ClientID, &d.PreferredName, &d.FirstName,
			&d.LastName, &d.PhoneNumber, &d.TotalDebt, &d.Created,
		); err != nil {
			return nil, dberror.New(dberror.CodeViewDebtorsFailed, err.Error(), "Failed to fetch debtors.")
		}
		debtors = append(debtors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.New(dberror.CodeViewDebtorsFailed, err.Error(), "Failed to fetch debtors.")
	}

	return dispatch.Outcome{
		"debtors":      debtors,
		"record_count": len(debtors),
	}, nil
}

func (m *DebtorManager) removeDebtor(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	return m.toggleDebtorArchived(ctx, req, true, dberror.CodeRemoveDebtorFailed,
		"Failed to remove debtor.")
}

func (m *DebtorManager) undoRemoveDebtor(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	return m.toggleDebtorArchived(ctx, req, false, dberror.CodeUndoFailed,
		"Failed to undo debtor removal.")
}

// toggleDebtorArchived flips the soft-delete flag inside a transaction and
// re-fetches the debtor's and client's identifiers.
func (m *DebtorManager) toggleDebtorArchived(ctx context.Context, req dispatch.QueryRequest, archived bool, failCode dberror.Code, failMessage string) (dispatch.Outcome, error) {
	debtorID := req.Params.Int64("debtor_id")
	if debtorID <= 0 {
		return nil, dberror.InvalidArguments("Debtor ID is null.")
	}

	now := m.deps.Now()
	userID := m.deps.Session.UserID()

	var clientID int64
	err := withTransaction(ctx, m.conn, m.deps.Logger, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE debtor SET archived = $1, last_edited = $2, user_id = $3 WHERE id = $4`,
			archived, now, userID, debtorID,
		)
		if err != nil {
			return dberror.New(failCode, err.Error(), failMessage)
		}

		err = tx.QueryRow(ctx,
			`SELECT debtor.id, client.id
			 FROM debtor
			 INNER JOIN client ON debtor.client_id = client.id
			 WHERE debtor.id = $1`,
			debtorID,
		).Scan(&debtorID, &clientID)
		if err != nil {
			return dberror.New(failCode, err.Error(), "Failed to retrieve client ID.")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dispatch.Outcome{
		"debtor_id": debtorID,
		"client_id": clientID,
	}, nil
}
