package store

import (
	"database/sql"
	"strings"
	"time"
)

// UpsertUser inserts or renames a user.
func (db *DB) UpsertUser(u *User) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO users (id, name, username, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			username = excluded.username,
			updated_at = excluded.updated_at`,
		u.ID, u.Name, u.Username, now, now)
	return err
}

// GetUser returns a user by id, or nil if it does not exist.
func (db *DB) GetUser(id string) (*User, error) {
	var u User
	err := db.QueryRow(`SELECT id, name, username, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Username, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every user except excludeID, alphabetically by name.
func (db *DB) ListUsers(excludeID string) ([]User, error) {
	rows, err := db.Query(`
		SELECT id, name, username, created_at
		FROM users
		WHERE id != ?
		ORDER BY name COLLATE NOCASE, id`, excludeID)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

// UsersByIDs returns the users among ids that exist, in no particular order.
func (db *DB) UsersByIDs(ids []string) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.Query(`
		SELECT id, name, username, created_at
		FROM users
		WHERE id IN (?`+strings.Repeat(",?", len(ids)-1)+`)`, args...)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

// UserCount returns the number of registered users.
func (db *DB) UserCount() (int64, error) {
	return db.count("users")
}

func scanUsers(rows *sql.Rows) ([]User, error) {
	defer func() { _ = rows.Close() }()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
