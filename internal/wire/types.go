// Package wire is the gRPC contract between chatterd and its clients.
//
// Requests and responses are plain structs carried by the JSON codec
// registered in codec.go; empty messages use emptypb.Empty.
package wire

// User is a registered account.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

// Conversation is the caller's summary of one conversation.
type Conversation struct {
	ID                      string `json:"id"`
	FormattedRecipientNames string `json:"formattedRecipientNames"`
	LatestMessageID         string `json:"latestMessageId,omitempty"`
	LatestMessageAtUnixMs   int64  `json:"latestMessageAtUnixMs,omitempty"`
}

type Message struct {
	ID              string `json:"id"`
	ConversationID  string `json:"conversationId"`
	SenderID        string `json:"senderId"`
	SenderName      string `json:"senderName,omitempty"`
	Text            string `json:"text"`
	TimestampUnixMs int64  `json:"timestampUnixMs"`
}

// MessageEvent is one entry of a realtime channel.
type MessageEvent struct {
	Channel           string `json:"channel"`
	ConversationID    string `json:"conversationId"`
	MessageID         string `json:"messageId"`
	Position          int64  `json:"position"`
	PublishedAtUnixMs int64  `json:"publishedAtUnixMs"`
}

type RegisterUserRequest struct {
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

type RegisterUserResponse struct {
	User User `json:"user"`
}

type GetConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

type GetConversationRequest struct {
	ConversationID string `json:"conversationId"`
}

// GetConversationResponse carries messages oldest first.
type GetConversationResponse struct {
	Messages []Message `json:"messages"`
}

type SearchUsersRequest struct {
	Query string `json:"query"`
}

type SearchUsersResponse struct {
	Users []User `json:"users"`
}

// SendMessageRequest starts or continues the conversation whose members are
// the caller plus RecipientIDs (comma separated).
type SendMessageRequest struct {
	Text         string `json:"text"`
	RecipientIDs string `json:"recipientIds"`
}

type SendMessageResponse struct {
	ConversationID string `json:"conversationId"`
	ID             string `json:"id"`
}

type ReplyToMessageRequest struct {
	Text          string `json:"text"`
	LastMessageID string `json:"lastMessageId"`
}

type ReplyToMessageResponse struct {
	ID string `json:"id"`
}

type PublishMessageEventRequest struct {
	Channel        string `json:"channel,omitempty"`
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

// SubscribeRequest opens a realtime channel. ReplayFrom is -1 for new events
// only, -2 for every retained event, or a position to resume after.
type SubscribeRequest struct {
	Channel    string `json:"channel"`
	ReplayFrom int64  `json:"replayFrom"`
}

type GetStatusResponse struct {
	Session       string `json:"session"`
	State         string `json:"state"`
	UptimeMs      int64  `json:"uptimeMs"`
	Users         int64  `json:"users"`
	Conversations int64  `json:"conversations"`
	Messages      int64  `json:"messages"`
	LastPosition  int64  `json:"lastPosition"`
	Subscribers   int    `json:"subscribers"`
}

const (
	ReplayNew int64 = -1
	ReplayAll int64 = -2
)
