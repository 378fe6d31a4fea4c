package store

// User is a registered account.
type User struct {
	ID        string
	Name      string
	Username  string
	CreatedAt int64
}

// Conversation is a set of members and the summary of their latest message.
// MemberKey is the sorted, comma-joined member ids and is unique.
type Conversation struct {
	ID              string
	MemberKey       string
	LatestMessageID string
	LatestMessageAt int64
	CreatedAt       int64
	Members         []User
}

// Message is one text message. Seq breaks timestamp ties.
type Message struct {
	Seq            int64
	ID             string
	ConversationID string
	SenderID       string
	SenderName     string
	Text           string
	Timestamp      int64
}

// Event is one entry of a realtime channel's log.
type Event struct {
	Position       int64
	Channel        string
	ConversationID string
	MessageID      string
	PublishedAt    int64
}
