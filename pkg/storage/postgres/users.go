package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/platinummonkey/gvserver/pkg/auth"
	"github.com/platinummonkey/gvserver/pkg/storage"
)

const selectUser = `
SELECT u.id, u.email, u.username, u.phash, u.salt, r.id, r.title, c.description, c.attachment
FROM users u
JOIN user_roles ur ON ur.user_id = u.id
JOIN roles r ON r.id = ur.role_id
LEFT JOIN user_contents uc ON uc.user_id = u.id
LEFT JOIN contents c ON c.id = uc.contents_id
`

// LookupCredentials returns the stored hash and salt for username, or nil
// when there is no such user
func (s *Store) LookupCredentials(ctx context.Context, username string) (*auth.StoredCredentials, error) {
	var creds *auth.StoredCredentials

	err := s.withConn(ctx, "lookup_credentials", func(ctx context.Context, conn *sql.Conn) error {
		c := &auth.StoredCredentials{}
		err := conn.QueryRowContext(ctx,
			`SELECT id, username, phash, salt FROM users WHERE username = $1`,
			username,
		).Scan(&c.UserID, &c.Username, &c.PasswordHash, &c.Salt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return translateError("lookup credentials", err)
		}
		creds = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return creds, nil
}

// CreateUser inserts the user, its role and optional contents in one
// transaction
func (s *Store) CreateUser(ctx context.Context, user storage.NewUser) (uuid.UUID, error) {
	id := uuid.New()

	err := s.withTx(ctx, "create_user", func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, username, phash, salt) VALUES ($1, $2, $3, $4, $5)`,
			id, user.Email, user.Username, user.PasswordHash, user.Salt,
		); err != nil {
			return translateError("insert user", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`,
			id, storage.RoleUser,
		); err != nil {
			return translateError("insert user role", err)
		}

		if user.HasContents() {
			if err := insertUserContents(ctx, tx, id, user.ContentsDescription, user.ContentsAttachment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func insertUserContents(ctx context.Context, tx DBTX, userID uuid.UUID, description *string, attachment []byte) error {
	contentsID := uuid.New()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO contents (id, description, attachment) VALUES ($1, $2, $3)`,
		contentsID, nullString(description), nullBytes(attachment),
	); err != nil {
		return translateError("insert contents", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_contents (user_id, contents_id) VALUES ($1, $2)`,
		userID, contentsID,
	); err != nil {
		return translateError("link user contents", err)
	}
	return nil
}

// GetUser returns the user matching filter, or storage.ErrNotFound
func (s *Store) GetUser(ctx context.Context, filter storage.UserFilter) (*storage.User, error) {
	var (
		where string
		arg   any
	)
	switch {
	case filter.ID != nil:
		where, arg = "WHERE u.id = $1", *filter.ID
	case filter.Username != "":
		where, arg = "WHERE u.username = $1", filter.Username
	case filter.Email != "":
		where, arg = "WHERE u.email = $1", filter.Email
	default:
		return nil, errors.New("get user: empty filter")
	}

	var user *storage.User
	err := s.withConn(ctx, "get_user", func(ctx context.Context, conn *sql.Conn) error {
		u := &storage.User{}
		var description sql.NullString
		err := conn.QueryRowContext(ctx, selectUser+where+" LIMIT 1", arg).Scan(
			&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Salt,
			&u.RoleID, &u.RoleTitle, &description, &u.ContentsAttachment,
		)
		if err != nil {
			return translateError("get user", err)
		}
		if description.Valid {
			u.ContentsDescription = &description.String
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UsernameTaken reports whether any user already has username
func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := s.withConn(ctx, "username_taken", func(ctx context.Context, conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
		).Scan(&taken)
		return translateError("username taken", err)
	})
	return taken, err
}

// UpdateUser applies the non-nil fields of update in one transaction.
// storage.ErrNotFound means no user has id.
func (s *Store) UpdateUser(ctx context.Context, id uuid.UUID, update storage.UserUpdate) error {
	return s.withTx(ctx, "update_user", func(ctx context.Context, tx DBTX) error {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, id,
		).Scan(&exists); err != nil {
			return translateError("lock user", err)
		}

		sets := make([]string, 0, 4)
		args := make([]any, 0, 5)
		add := func(column string, value any) {
			args = append(args, value)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}
		if update.Username != nil {
			add("username", *update.Username)
		}
		if update.Email != nil {
			add("email", *update.Email)
		}
		if update.PasswordHash != nil && update.Salt != nil {
			add("phash", *update.PasswordHash)
			add("salt", *update.Salt)
		}

		if len(sets) > 0 {
			args = append(args, id)
			query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return translateError("update user", err)
			}
		}

		if !update.HasContents() {
			return nil
		}

		var contentsID uuid.UUID
		err := tx.QueryRowContext(ctx,
			`SELECT contents_id FROM user_contents WHERE user_id = $1`, id,
		).Scan(&contentsID)
		if errors.Is(err, sql.ErrNoRows) {
			return insertUserContents(ctx, tx, id, update.ContentsDescription, update.ContentsAttachment)
		}
		if err != nil {
			return translateError("find user contents", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE contents SET description = COALESCE($2, description), attachment = COALESCE($3, attachment) WHERE id = $1`,
			contentsID, nullString(update.ContentsDescription), nullBytes(update.ContentsAttachment),
		); err != nil {
			return translateError("update contents", err)
		}
		return nil
	})
}

// DeleteUser removes the user with its pinpoints and all their contents in
// one transaction
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	return s.withTx(ctx, "delete_user", func(ctx context.Context, tx DBTX) error {
		var id uuid.UUID
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE username = $1 FOR UPDATE`, username,
		).Scan(&id); err != nil {
			return translateError("lock user", err)
		}

		statements := []struct {
			op    string
			query string
		}{
			{"delete pinpoint contents", `DELETE FROM contents WHERE id IN (
				SELECT pc.contents_id FROM pinpoint_contents pc
				JOIN user_pinpoints up ON up.pinpoint_id = pc.pinpoint_id
				WHERE up.user_id = $1)`},
			{"delete pinpoints", `DELETE FROM pinpoints WHERE id IN (
				SELECT pinpoint_id FROM user_pinpoints WHERE user_id = $1)`},
			{"delete user contents", `DELETE FROM contents WHERE id IN (
				SELECT contents_id FROM user_contents WHERE user_id = $1)`},
			{"delete user", `DELETE FROM users WHERE id = $1`},
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt.query, id); err != nil {
				return translateError(stmt.op, err)
			}
		}
		return nil
	})
}
