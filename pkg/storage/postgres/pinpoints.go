package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/platinummonkey/gvserver/pkg/storage"
)

const selectPinpoints = `
SELECT p.id, p.latitude, p.longitude, p.added_at, c.id, c.description, c.attachment, u.id, u.username
FROM pinpoints p
JOIN pinpoint_contents pc ON pc.pinpoint_id = p.id
JOIN contents c ON c.id = pc.contents_id
JOIN user_pinpoints up ON up.pinpoint_id = p.id
JOIN users u ON u.id = up.user_id
`

// CreatePinpoint stores a pinpoint owned by username together with its
// contents in one transaction
func (s *Store) CreatePinpoint(ctx context.Context, username string, pinpoint storage.NewPinpoint) (uuid.UUID, error) {
	id := uuid.New()
	contentsID := uuid.New()

	err := s.withTx(ctx, "create_pinpoint", func(ctx context.Context, tx DBTX) error {
		var userID uuid.UUID
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE username = $1`, username,
		).Scan(&userID); err != nil {
			return translateError("find owner", err)
		}

		statements := []struct {
			op    string
			query string
			args  []any
		}{
			{"insert pinpoint", `INSERT INTO pinpoints (id, latitude, longitude) VALUES ($1, $2, $3)`,
				[]any{id, pinpoint.Latitude, pinpoint.Longitude}},
			{"insert contents", `INSERT INTO contents (id, description, attachment) VALUES ($1, $2, $3)`,
				[]any{contentsID, pinpoint.Description, nullBytes(pinpoint.Attachment)}},
			{"link pinpoint contents", `INSERT INTO pinpoint_contents (pinpoint_id, contents_id) VALUES ($1, $2)`,
				[]any{id, contentsID}},
			{"link user pinpoint", `INSERT INTO user_pinpoints (pinpoint_id, user_id) VALUES ($1, $2)`,
				[]any{id, userID}},
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
				return translateError(stmt.op, err)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// ListPinpoints returns every pinpoint, or only those owned by username when
// it is non-empty, newest first
func (s *Store) ListPinpoints(ctx context.Context, username string) ([]storage.Pinpoint, error) {
	query := selectPinpoints
	var args []any
	if username != "" {
		query += "WHERE u.username = $1\n"
		args = append(args, username)
	}
	query += "ORDER BY p.added_at DESC"

	var pinpoints []storage.Pinpoint
	err := s.withConn(ctx, "list_pinpoints", func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return translateError("list pinpoints", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				p                   storage.Pinpoint
				latitude, longitude sql.NullFloat64
				description         sql.NullString
			)
			if err := rows.Scan(&p.ID, &latitude, &longitude, &p.AddedAt, &p.ContentsID,
				&description, &p.Attachment, &p.UserID, &p.Username); err != nil {
				return translateError("scan pinpoint", err)
			}
			if latitude.Valid {
				p.Latitude = &latitude.Float64
			}
			if longitude.Valid {
				p.Longitude = &longitude.Float64
			}
			if description.Valid {
				p.Description = &description.String
			}
			pinpoints = append(pinpoints, p)
		}
		return translateError("iterate pinpoints", rows.Err())
	})
	if err != nil {
		return nil, err
	}
	return pinpoints, nil
}

// DeletePinpoints removes the pinpoint id owned by username, or all of the
// user's pinpoints when id is nil, and returns how many were deleted
func (s *Store) DeletePinpoints(ctx context.Context, username string, id *uuid.UUID) (int64, error) {
	filter := ""
	args := []any{username}
	if id != nil {
		filter = " AND up.pinpoint_id = $2"
		args = append(args, *id)
	}

	var deleted int64
	err := s.withTx(ctx, "delete_pinpoints", func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM contents c
			USING pinpoint_contents pc, user_pinpoints up, users u
			WHERE c.id = pc.contents_id AND pc.pinpoint_id = up.pinpoint_id
			AND up.user_id = u.id AND u.username = $1`+filter, args...); err != nil {
			return translateError("delete pinpoint contents", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM pinpoints p
			USING user_pinpoints up, users u
			WHERE p.id = up.pinpoint_id AND up.user_id = u.id AND u.username = $1`+filter, args...)
		if err != nil {
			return translateError("delete pinpoints", err)
		}
		deleted, err = res.RowsAffected()
		return translateError("delete pinpoints", err)
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
