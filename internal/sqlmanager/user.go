package sqlmanager

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroomhq/stockroom/internal/dispatch"
	"github.com/stockroomhq/stockroom/internal/domain/dberror"
	"github.com/stockroomhq/stockroom/internal/domain/event"
	"github.com/stockroomhq/stockroom/internal/domain/model"
)

// UserManager handles the user domain commands.
type UserManager struct {
	conn *pgx.Conn
	deps Deps
}

// NewUserManager creates a user manager bound to the live connection.
func NewUserManager(conn *pgx.Conn, deps Deps) *UserManager {
	return &UserManager{conn: conn, deps: deps.normalized()}
}

// UserFactory returns the dispatch factory for the user domain.
func UserFactory(deps Deps) dispatch.ManagerFactory {
	return func(conn *pgx.Conn) dispatch.Manager {
		return NewUserManager(conn, deps)
	}
}

// Execute dispatches a user command.
func (m *UserManager) Execute(ctx context.Context, req dispatch.QueryRequest) dispatch.QueryResult {
	return execute(ctx, req, map[string]operation{
		"sign_in_user": m.signInUser,
		"sign_up_user": m.signUpUser,
		"remove_user":  m.removeUser,
		"view_users":   m.viewUsers,
	})
}

func (m *UserManager) signInUser(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	userName, password, err := credentials(req.Params)
	if err != nil {
		return nil, err
	}

	var (
		userID int64
		hash   string
	)
	err = m.conn.QueryRow(ctx,
		`SELECT id, password FROM app_user WHERE user_name = $1 AND archived = false`,
		userName,
	).Scan(&userID, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dberror.Newf(dberror.CodeSignInFailure,
				"Incorrect user name or password.",
				"no active user named %q", userName)
		}
		return nil, dberror.New(dberror.CodeSignInFailure, err.Error(), "Failed to sign in.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, dberror.Newf(dberror.CodeSignInFailure,
			"Incorrect user name or password.",
			"password mismatch for user %q", userName)
	}

	publish(ctx, m.deps, event.NewUserSignedIn(userID, userName))

	return dispatch.Outcome{
		"user_id":   userID,
		"user_name": userName,
	}, nil
}

func (m *UserManager) signUpUser(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	userName, password, err := credentials(req.Params)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dberror.New(dberror.CodeSignUpFailure, err.Error(), "Failed to sign up.")
	}

	now := m.deps.Now()

	var userID int64
	err = withTransaction(ctx, m.conn, m.deps.Logger, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO app_user (user_name, password, archived, created, last_edited, user_id)
			 VALUES ($1, $2, false, $3, $3, $4)
			 RETURNING id`,
			userName, string(hash), now, m.deps.Session.UserID(),
		).Scan(&userID)
		if err != nil {
			if isDuplicateKey(err) {
				return dberror.Newf(dberror.CodeDuplicateEntryFailure,
					"A user with this name already exists.",
					"duplicate user name %q: %v", userName, err)
			}
			return dberror.New(dberror.CodeSignUpFailure, err.Error(), "Failed to sign up.")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dispatch.Outcome{"user_id": userID}, nil
}

func (m *UserManager) removeUser(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	userName := strings.TrimSpace(req.Params.String("user_name"))
	if userName == "" {
		return nil, dberror.InvalidArguments("User name is required.")
	}

	now := m.deps.Now()

	err := withTransaction(ctx, m.conn, m.deps.Logger, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE app_user SET archived = true, last_edited = $1, user_id = $2 WHERE user_name = $3`,
			now, m.deps.Session.UserID(), userName,
		)
		if err != nil {
			return dberror.New(dberror.CodeRemoveUserFailure, err.Error(), "Failed to remove user.")
		}
		if tag.RowsAffected() == 0 {
			return dberror.Newf(dberror.CodeRemoveUserFailure,
				"No such user.",
				"no user named %q to remove", userName)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dispatch.Outcome{"user_name": userName}, nil
}

func (m *UserManager) viewUsers(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error) {
	rows, err := m.conn.Query(ctx,
		`SELECT id, user_name, created FROM app_user WHERE archived = false ORDER BY LOWER(user_name) ASC`)
	if err != nil {
		return nil, dberror.New(dberror.CodeViewUsersFailed, err.Error(), "Failed to fetch users.")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.UserID, &u.UserName, &u.Created); err != nil {
			return nil, dberror.New(dberror.CodeViewUsersFailed, err.Error(), "Failed to fetch users.")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.New(dberror.CodeViewUsersFailed, err.Error(), "Failed to fetch users.")
	}

	return dispatch.Outcome{
		"users":        users,
		"record_count": len(users),
	}, nil
}

// credentials validates the user_name/password pair shared by sign-in and
// sign-up.
func credentials(params dispatch.Params) (userName, password string, err error) {
	userName = strings.TrimSpace(params.String("user_name"))
	if userName == "" {
		return "", "", dberror.InvalidArguments("User name is required.")
	}
	password = params.String("password")
	if password == "" {
		return "", "", dberror.InvalidArguments("Password is required.")
	}
	return userName, password, nil
}
