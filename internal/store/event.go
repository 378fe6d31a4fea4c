package store

// AppendEvent adds e to its channel's log and sets e.Position.
func (db *DB) AppendEvent(e *Event) error {
	res, err := db.Exec(`
		INSERT INTO events (channel, conversation_id, message_id, published_at)
		VALUES (?, ?, ?, ?)`,
		e.Channel, e.ConversationID, e.MessageID, e.PublishedAt)
	if err != nil {
		return err
	}
	e.Position, err = res.LastInsertId()
	return err
}

// EventsAfter returns up to limit events of channel with a position greater
// than after, in position order.
func (db *DB) EventsAfter(channel string, after int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := db.Query(`
		SELECT position, channel, conversation_id, message_id, published_at
		FROM events
		WHERE channel = ? AND position > ?
		ORDER BY position
		LIMIT ?`, channel, after, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Position, &e.Channel, &e.ConversationID, &e.MessageID, &e.PublishedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// LastPosition returns the highest position in the log, or 0 when empty.
func (db *DB) LastPosition() (int64, error) {
	var pos int64
	err := db.QueryRow(`SELECT COALESCE(MAX(position), 0) FROM events`).Scan(&pos)
	return pos, err
}

// PruneEvents deletes all but the newest keep events and returns how many
// rows went. Positions are never reused, so subscribers resuming from a
// pruned position simply get the oldest retained event next.
func (db *DB) PruneEvents(keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := db.Exec(`
		DELETE FROM events
		WHERE position <= (SELECT COALESCE(MAX(position), 0) FROM events) - ?`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
