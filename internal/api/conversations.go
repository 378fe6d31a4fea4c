package api

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/chatter/internal/store"
	"github.com/matheus3301/chatter/internal/wire"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// GetConversations lists the caller's conversations, most recent first.
func (s *Service) GetConversations(ctx context.Context, _ *emptypb.Empty) (*wire.GetConversationsResponse, error) {
	me := callerID(ctx)
	convs, err := s.db.ListConversations(me)
	if err != nil {
		return nil, internal("list conversations", err)
	}
	resp := &wire.GetConversationsResponse{Conversations: make([]wire.Conversation, 0, len(convs))}
	for _, c := range convs {
		resp.Conversations = append(resp.Conversations, wire.Conversation{
			ID:                      c.ID,
			FormattedRecipientNames: formatRecipients(c.Members, me),
			LatestMessageID:         c.LatestMessageID,
			LatestMessageAtUnixMs:   c.LatestMessageAt,
		})
	}
	return resp, nil
}

// formatRecipients joins the names of every member except me. Members arrive
// sorted by name.
func formatRecipients(members []store.User, me string) string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		if m.ID != me {
			names = append(names, m.Name)
		}
	}
	return strings.Join(names, ", ")
}

// GetConversation returns the newest messages of a conversation, oldest first.
func (s *Service) GetConversation(ctx context.Context, req *wire.GetConversationRequest) (*wire.GetConversationResponse, error) {
	if err := s.requireMember(req.ConversationID, callerID(ctx)); err != nil {
		return nil, err
	}
	msgs, err := s.db.ListMessages(req.ConversationID, threadLimit)
	if err != nil {
		return nil, internal("list messages", err)
	}
	resp := &wire.GetConversationResponse{Messages: make([]wire.Message, 0, len(msgs))}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, messageToWire(m))
	}
	return resp, nil
}

// SendMessage posts text to the conversation of the caller and the given
// recipients, creating it on first use.
func (s *Service) SendMessage(ctx context.Context, req *wire.SendMessageRequest) (*wire.SendMessageResponse, error) {
	me := callerID(ctx)
	text, err := messageText(req.Text)
	if err != nil {
		return nil, err
	}
	recipients, err := parseRecipients(req.RecipientIDs, me)
	if err != nil {
		return nil, err
	}
	known, err := s.db.UsersByIDs(recipients)
	if err != nil {
		return nil, internal("load recipients", err)
	}
	if len(known) != len(recipients) {
		return nil, grpcstatus.Errorf(codes.NotFound, "unknown recipient in %q", req.RecipientIDs)
	}

	conv, err := s.conversationFor(append(recipients, me))
	if err != nil {
		return nil, err
	}
	msg, err := s.appendMessage(conv.ID, me, text)
	if err != nil {
		return nil, err
	}
	return &wire.SendMessageResponse{ConversationID: conv.ID, ID: msg.ID}, nil
}

// ReplyToMessage posts text to the conversation that owns lastMessageId.
func (s *Service) ReplyToMessage(ctx context.Context, req *wire.ReplyToMessageRequest) (*wire.ReplyToMessageResponse, error) {
	me := callerID(ctx)
	text, err := messageText(req.Text)
	if err != nil {
		return nil, err
	}
	last, err := s.db.GetMessage(req.LastMessageID)
	if err != nil {
		return nil, internal("load message", err)
	}
	if last == nil {
		return nil, grpcstatus.Errorf(codes.NotFound, "message %q not found", req.LastMessageID)
	}
	if err := s.requireMember(last.ConversationID, me); err != nil {
		return nil, err
	}
	msg, err := s.appendMessage(last.ConversationID, me, text)
	if err != nil {
		return nil, err
	}
	return &wire.ReplyToMessageResponse{ID: msg.ID}, nil
}

func (s *Service) requireMember(conversationID, userID string) error {
	ok, err := s.db.IsMember(conversationID, userID)
	if err != nil {
		return internal("check membership", err)
	}
	if !ok {
		return grpcstatus.Errorf(codes.NotFound, "conversation %q not found", conversationID)
	}
	return nil
}

// conversationFor returns the conversation with exactly members, creating it
// if needed. A concurrent create of the same member set wins the race.
func (s *Service) conversationFor(members []string) (*store.Conversation, error) {
	conv, err := s.db.FindConversationByMembers(members)
	if err != nil {
		return nil, internal("find conversation", err)
	}
	if conv != nil {
		return conv, nil
	}
	conv, createErr := s.db.CreateConversation(uuid.NewString(), members)
	if createErr == nil {
		s.logger.Info("conversation created", zap.String("conversation_id", conv.ID), zap.String("members", conv.MemberKey))
		return conv, nil
	}
	conv, err = s.db.FindConversationByMembers(members)
	if err != nil || conv == nil {
		return nil, internal("create conversation", createErr)
	}
	return conv, nil
}

func (s *Service) appendMessage(conversationID, senderID, text string) (*store.Message, error) {
	m := &store.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		Timestamp:      time.Now().UnixMilli(),
	}
	if err := s.db.InsertMessage(m); err != nil {
		return nil, internal("insert message", err)
	}
	return m, nil
}

func messageText(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", grpcstatus.Error(codes.InvalidArgument, "text is required")
	}
	return text, nil
}

// parseRecipients splits a comma-joined id list, dropping blanks and
// duplicates.
func parseRecipients(raw, me string) ([]string, error) {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(ids, id) {
			continue
		}
		if id == me {
			return nil, grpcstatus.Error(codes.InvalidArgument, "cannot send a message to yourself")
		}
		ids = append(ids, id)
	}
	switch {
	case len(ids) == 0:
		return nil, grpcstatus.Error(codes.InvalidArgument, "at least one recipient is required")
	case len(ids) > MaxRecipients:
		return nil, grpcstatus.Error(codes.InvalidArgument, fmt.Sprintf("at most %d recipients are allowed", MaxRecipients))
	}
	return ids, nil
}

func messageToWire(m store.Message) wire.Message {
	return wire.Message{
		ID:              m.ID,
		ConversationID:  m.ConversationID,
		SenderID:        m.SenderID,
		SenderName:      m.SenderName,
		Text:            m.Text,
		TimestampUnixMs: m.Timestamp,
	}
}
