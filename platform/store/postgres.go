package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/platform"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code for a unique constraint failure.
const uniqueViolation pq.ErrorCode = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS posts (
	id        TEXT PRIMARY KEY,
	seq       BIGSERIAL,
	parent_id TEXT REFERENCES posts(id),
	user_id   TEXT NOT NULL REFERENCES users(id),
	content   TEXT NOT NULL,
	timestamp BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS posts_parent_idx ON posts(parent_id);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	seq        BIGSERIAL,
	user_id    TEXT NOT NULL REFERENCES users(id),
	kind       TEXT NOT NULL,
	post_id    TEXT NOT NULL REFERENCES posts(id),
	parent_id  TEXT NOT NULL REFERENCES posts(id),
	delivered  BOOLEAN NOT NULL DEFAULT FALSE
);`

// PostgresStore is a Store backed by PostgreSQL through lib/pq.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore opens the database, verifies the connection and creates the
// tables if they do not exist yet.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// RegisterUser implements Store.
func (s *PostgresStore) RegisterUser(ctx context.Context, name string) (*platform.User, error) {
	user := platform.User{ID: uuid.NewString(), Name: name}

	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, name) VALUES ($1, $2)`, user.ID, user.Name)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("user %q: %w", name, core.ErrRegistrationConflict)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	return &user, nil
}

// SubmitPost implements Store.
func (s *PostgresStore) SubmitPost(ctx context.Context, req platform.SubmitRequest, timestamp int64) (*platform.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	post := platform.Post{
		ID:        uuid.NewString(),
		ParentID:  req.ParentID,
		Content:   req.Content,
		Timestamp: timestamp,
	}

	err = tx.QueryRowContext(ctx, `SELECT id, name FROM users WHERE id = $1`, req.UserID).
		Scan(&post.User.ID, &post.User.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", req.UserID, platform.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var parentAuthor string
	if req.ParentID != "" {
		err = tx.QueryRowContext(ctx, `SELECT user_id FROM posts WHERE id = $1`, req.ParentID).Scan(&parentAuthor)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("parent post %q: %w", req.ParentID, platform.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to load parent post: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO posts (id, parent_id, user_id, content, timestamp) VALUES ($1, $2, $3, $4, $5)`,
		post.ID, sql.NullString{String: req.ParentID, Valid: req.ParentID != ""}, req.UserID, req.Content, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	if parentAuthor != "" && parentAuthor != req.UserID {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO notifications (id, user_id, kind, post_id, parent_id) VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), parentAuthor, string(platform.NotificationReply), post.ID, req.ParentID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit post: %w", err)
	}

	return &post, nil
}

// RecentPosts implements Store.
func (s *PostgresStore) RecentPosts(ctx context.Context, limit int) ([]platform.Post, error) {
	query := `
		SELECT p.id, u.id, u.name, p.content, p.timestamp,
		       (SELECT COUNT(*) FROM posts r WHERE r.parent_id = p.id)
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.parent_id IS NULL
		ORDER BY p.seq DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent posts: %w", err)
	}
	defer rows.Close()

	posts := []platform.Post{}
	for rows.Next() {
		var p platform.Post
		if err := rows.Scan(&p.ID, &p.User.ID, &p.User.Name, &p.Content, &p.Timestamp, &p.Replies); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// Thread implements Store.
func (s *PostgresStore) Thread(ctx context.Context, postID string) (*platform.Thread, error) {
	query := `
		SELECT p.id, COALESCE(p.parent_id, ''), u.id, u.name, p.content, p.timestamp,
		       (SELECT COUNT(*) FROM posts r WHERE r.parent_id = p.id)
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1 OR p.parent_id = $1
		ORDER BY (p.id = $1) DESC, p.seq ASC`

	rows, err := s.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query thread: %w", err)
	}
	defer rows.Close()

	var posts []platform.Post
	for rows.Next() {
		var p platform.Post
		if err := rows.Scan(&p.ID, &p.ParentID, &p.User.ID, &p.User.Name, &p.Content, &p.Timestamp, &p.Replies); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read thread: %w", err)
	}

	if len(posts) == 0 || posts[0].ID != postID {
		return nil, fmt.Errorf("post %q: %w", postID, platform.ErrNotFound)
	}

	return &platform.Thread{ID: postID, Root: posts[0], Replies: posts[1:]}, nil
}

// Notifications implements Store.
func (s *PostgresStore) Notifications(ctx context.Context, userID string) ([]platform.Notification, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("user %q: %w", userID, platform.ErrNotFound)
	}

	query := `
		WITH delivered AS (
			UPDATE notifications SET delivered = TRUE
			WHERE user_id = $1 AND NOT delivered
			RETURNING id, seq, kind, post_id, parent_id
		)
		SELECT d.id, d.kind, d.post_id, d.parent_id, u.id, u.name, p.content, p.timestamp
		FROM delivered d
		JOIN posts p ON p.id = d.post_id
		JOIN users u ON u.id = p.user_id
		ORDER BY d.seq ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []platform.Notification{}
	for rows.Next() {
		var n platform.Notification
		var kind string
		if err := rows.Scan(&n.ID, &kind, &n.PostID, &n.ParentID, &n.From.ID, &n.From.Name, &n.Content, &n.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Kind = platform.NotificationKind(kind)
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
