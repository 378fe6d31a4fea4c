package store

import (
	"database/sql"
	"slices"
	"strings"
	"time"
)

// MemberKey returns the canonical key of a member set: sorted, de-duplicated
// ids joined by commas.
func MemberKey(memberIDs []string) string {
	ids := slices.Clone(memberIDs)
	slices.Sort(ids)
	return strings.Join(slices.Compact(ids), ",")
}

// FindConversationByMembers returns the conversation with exactly the given
// members, or nil.
func (db *DB) FindConversationByMembers(memberIDs []string) (*Conversation, error) {
	var c Conversation
	err := db.QueryRow(`
		SELECT id, member_key, latest_message_id, latest_message_at, created_at
		FROM conversations WHERE member_key = ?`, MemberKey(memberIDs)).
		Scan(&c.ID, &c.MemberKey, &c.LatestMessageID, &c.LatestMessageAt, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateConversation stores a new conversation and its members.
func (db *DB) CreateConversation(id string, memberIDs []string) (*Conversation, error) {
	c := &Conversation{
		ID:        id,
		MemberKey: MemberKey(memberIDs),
		CreatedAt: time.Now().UnixMilli(),
	}
	err := db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO conversations (id, member_key, created_at) VALUES (?, ?, ?)`,
			c.ID, c.MemberKey, c.CreatedAt); err != nil {
			return err
		}
		for _, uid := range strings.Split(c.MemberKey, ",") {
			if _, err := tx.Exec(`INSERT INTO conversation_members (conversation_id, user_id) VALUES (?, ?)`, c.ID, uid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// IsMember reports whether userID belongs to the conversation.
func (db *DB) IsMember(conversationID, userID string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM conversation_members WHERE conversation_id = ? AND user_id = ?`,
		conversationID, userID).Scan(&n)
	return n > 0, err
}

// ListConversations returns userID's conversations, most recent activity
// first, each with its members sorted by name.
func (db *DB) ListConversations(userID string) ([]Conversation, error) {
	rows, err := db.Query(`
		SELECT c.id, c.member_key, c.latest_message_id, c.latest_message_at, c.created_at,
			u.id, u.name, u.username, u.created_at
		FROM conversations c
		JOIN conversation_members me ON me.conversation_id = c.id AND me.user_id = ?
		JOIN conversation_members m ON m.conversation_id = c.id
		JOIN users u ON u.id = m.user_id
		ORDER BY MAX(c.latest_message_at, c.created_at) DESC, c.id, u.name COLLATE NOCASE, u.id`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		var u User
		if err := rows.Scan(&c.ID, &c.MemberKey, &c.LatestMessageID, &c.LatestMessageAt, &c.CreatedAt,
			&u.ID, &u.Name, &u.Username, &u.CreatedAt); err != nil {
			return nil, err
		}
		if n := len(convs); n > 0 && convs[n-1].ID == c.ID {
			convs[n-1].Members = append(convs[n-1].Members, u)
			continue
		}
		c.Members = []User{u}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// ConversationCount returns the number of conversations.
func (db *DB) ConversationCount() (int64, error) {
	return db.count("conversations")
}
