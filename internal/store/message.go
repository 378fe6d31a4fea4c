package store

import (
	"database/sql"
	"slices"
)

// InsertMessage appends a message and moves its conversation's latest-message
// summary forward. m.Seq is set on success.
func (db *DB) InsertMessage(m *Message) error {
	return db.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO messages (id, conversation_id, sender_id, text, timestamp)
			VALUES (?, ?, ?, ?, ?)`,
			m.ID, m.ConversationID, m.SenderID, m.Text, m.Timestamp)
		if err != nil {
			return err
		}
		if m.Seq, err = res.LastInsertId(); err != nil {
			return err
		}
		_, err = tx.Exec(`
			UPDATE conversations
			SET latest_message_id = ?, latest_message_at = ?
			WHERE id = ? AND latest_message_at <= ?`,
			m.ID, m.Timestamp, m.ConversationID, m.Timestamp)
		return err
	})
}

// GetMessage returns a message by id, or nil if it does not exist.
func (db *DB) GetMessage(id string) (*Message, error) {
	var m Message
	err := db.QueryRow(`
		SELECT m.seq, m.id, m.conversation_id, m.sender_id, COALESCE(u.name, ''), m.text, m.timestamp
		FROM messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.id = ?`, id).
		Scan(&m.Seq, &m.ID, &m.ConversationID, &m.SenderID, &m.SenderName, &m.Text, &m.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns the newest limit messages of a conversation, oldest
// first.
func (db *DB) ListMessages(conversationID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT m.seq, m.id, m.conversation_id, m.sender_id, COALESCE(u.name, ''), m.text, m.timestamp
		FROM messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.conversation_id = ?
		ORDER BY m.timestamp DESC, m.seq DESC
		LIMIT ?`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Seq, &m.ID, &m.ConversationID, &m.SenderID, &m.SenderName, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// MessageCount returns the total number of stored messages.
func (db *DB) MessageCount() (int64, error) {
	return db.count("messages")
}
