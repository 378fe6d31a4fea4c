package api

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matheus3301/chatter/internal/bus"
	"github.com/matheus3301/chatter/internal/status"
	"github.com/matheus3301/chatter/internal/store"
	"github.com/matheus3301/chatter/internal/wire"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpcstatus "google.golang.org/grpc/status"
)

type testEnv struct {
	db     *store.DB
	bus    *bus.Bus
	client *wire.MessengerClient
}

// newTestEnv serves a Service on a unix socket and returns a client for it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	// Keep the socket path short for the 104-char limit on macOS.
	tmpDir, err := os.MkdirTemp("/tmp", "chatter-api-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	db, err := store.Open(filepath.Join(tmpDir, "chatter.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	b := bus.New()
	svc := NewService("test", db, b, status.NewMachine(b), zap.NewNop(), "/event/other")

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(svc.UnaryInterceptor()),
		grpc.ChainStreamInterceptor(svc.StreamInterceptor()),
	)
	wire.RegisterMessengerServer(srv, svc)
	lis, err := net.Listen("unix", filepath.Join(tmpDir, "d.sock"))
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("unix://"+lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &testEnv{db: db, bus: b, client: wire.NewMessengerClient(conn)}
}

func as(userID string) context.Context {
	return wire.WithUser(context.Background(), userID)
}

func (e *testEnv) register(t *testing.T, id, name string) {
	t.Helper()
	if _, err := e.client.RegisterUser(as(id), &wire.RegisterUserRequest{Name: name, Username: strings.ToLower(name)}); err != nil {
		t.Fatalf("RegisterUser(%s): %v", id, err)
	}
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if got := grpcstatus.Code(err); got != code {
		t.Fatalf("code = %v (%v), want %v", got, err, code)
	}
}

func TestIdentityIsRequired(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.client.GetConversations(context.Background())
	wantCode(t, err, codes.Unauthenticated)

	_, err = env.client.GetConversations(as("ghost"))
	wantCode(t, err, codes.FailedPrecondition)

	_, err = env.client.RegisterUser(as("me"), &wire.RegisterUserRequest{Name: "  "})
	wantCode(t, err, codes.InvalidArgument)

	// Status is anonymous.
	resp, err := env.client.GetStatus(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if resp.Session != "test" || resp.State != "BOOTING" {
		t.Errorf("status = %+v", resp)
	}
}

func TestSendReplyAndList(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "me", "Me")
	env.register(t, "u1", "Zoe")
	env.register(t, "u2", "Adam")

	sent, err := env.client.SendMessage(as("me"), &wire.SendMessageRequest{Text: "hello", RecipientIDs: "u1, u2,u1"})
	if err != nil {
		t.Fatal(err)
	}
	if sent.ConversationID == "" || sent.ID == "" {
		t.Fatalf("SendMessage = %+v", sent)
	}

	// Same member set, any order, reuses the conversation.
	again, err := env.client.SendMessage(as("u2"), &wire.SendMessageRequest{Text: "hey", RecipientIDs: "me,u1"})
	if err != nil {
		t.Fatal(err)
	}
	if again.ConversationID != sent.ConversationID {
		t.Errorf("conversation = %s, want reuse of %s", again.ConversationID, sent.ConversationID)
	}

	reply, err := env.client.ReplyToMessage(as("u1"), &wire.ReplyToMessageRequest{Text: "yo", LastMessageID: again.ID})
	if err != nil {
		t.Fatal(err)
	}

	convs, err := env.client.GetConversations(as("me"))
	if err != nil {
		t.Fatal(err)
	}
	if len(convs.Conversations) != 1 {
		t.Fatalf("got %d conversations, want 1", len(convs.Conversations))
	}
	c := convs.Conversations[0]
	if c.FormattedRecipientNames != "Adam, Zoe" {
		t.Errorf("names = %q, want \"Adam, Zoe\"", c.FormattedRecipientNames)
	}
	if c.LatestMessageID != reply.ID {
		t.Errorf("latest = %q, want reply %q", c.LatestMessageID, reply.ID)
	}

	thread, err := env.client.GetConversation(as("me"), &wire.GetConversationRequest{ConversationID: c.ID})
	if err != nil {
		t.Fatal(err)
	}
	var texts []string
	for _, m := range thread.Messages {
		texts = append(texts, m.Text)
	}
	if strings.Join(texts, "|") != "hello|hey|yo" {
		t.Errorf("thread = %v, want oldest first", texts)
	}
	if thread.Messages[2].SenderName != "Zoe" {
		t.Errorf("sender = %q, want Zoe", thread.Messages[2].SenderName)
	}
}

func TestSendMessageValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "me", "Me")
	env.register(t, "u1", "One")

	tests := []struct {
		name     string
		text, to string
		code     codes.Code
	}{
		{"blank text", " ", "u1", codes.InvalidArgument},
		{"no recipients", "hi", " , ", codes.InvalidArgument},
		{"self", "hi", "me,u1", codes.InvalidArgument},
		{"unknown", "hi", "u1,ghost", codes.NotFound},
		{"too many", "hi", "a,b,c,d,e,f,g,h,i,j", codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.client.SendMessage(as("me"), &wire.SendMessageRequest{Text: tt.text, RecipientIDs: tt.to})
			wantCode(t, err, tt.code)
		})
	}
}

func TestConversationsArePrivate(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a", "A")
	env.register(t, "b", "B")
	env.register(t, "eve", "Eve")

	sent, err := env.client.SendMessage(as("a"), &wire.SendMessageRequest{Text: "secret", RecipientIDs: "b"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = env.client.GetConversation(as("eve"), &wire.GetConversationRequest{ConversationID: sent.ConversationID})
	wantCode(t, err, codes.NotFound)
	_, err = env.client.ReplyToMessage(as("eve"), &wire.ReplyToMessageRequest{Text: "hi", LastMessageID: sent.ID})
	wantCode(t, err, codes.NotFound)
	_, err = env.client.ReplyToMessage(as("a"), &wire.ReplyToMessageRequest{Text: "hi", LastMessageID: "missing"})
	wantCode(t, err, codes.NotFound)

	convs, err := env.client.GetConversations(as("eve"))
	if err != nil {
		t.Fatal(err)
	}
	if len(convs.Conversations) != 0 {
		t.Errorf("eve sees %d conversations", len(convs.Conversations))
	}
}

func TestSearchUsers(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "me", "Me")
	env.register(t, "u1", "Carol")
	env.register(t, "u2", "alice")
	env.register(t, "u3", "Bob")

	all, err := env.client.SearchUsers(as("me"), &wire.SearchUsersRequest{})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, u := range all.Users {
		names = append(names, u.Name)
	}
	if strings.Join(names, ",") != "alice,Bob,Carol" {
		t.Errorf("empty query = %v, want alphabetical without caller", names)
	}

	found, err := env.client.SearchUsers(as("me"), &wire.SearchUsersRequest{Query: "CAR"})
	if err != nil {
		t.Fatal(err)
	}
	if len(found.Users) != 1 || found.Users[0].ID != "u1" {
		t.Errorf("query CAR = %+v, want Carol", found.Users)
	}

	none, err := env.client.SearchUsers(as("me"), &wire.SearchUsersRequest{Query: "zzz"})
	if err != nil {
		t.Fatal(err)
	}
	if len(none.Users) != 0 {
		t.Errorf("query zzz = %+v, want none", none.Users)
	}
}

func TestPublishValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a", "A")
	env.register(t, "b", "B")
	sent, err := env.client.SendMessage(as("a"), &wire.SendMessageRequest{Text: "x", RecipientIDs: "b"})
	if err != nil {
		t.Fatal(err)
	}

	err = env.client.PublishMessageEvent(as("a"), &wire.PublishMessageEventRequest{Channel: "/nope", ConversationID: sent.ConversationID, MessageID: sent.ID})
	wantCode(t, err, codes.NotFound)
	err = env.client.PublishMessageEvent(as("a"), &wire.PublishMessageEventRequest{ConversationID: "other", MessageID: sent.ID})
	wantCode(t, err, codes.InvalidArgument)
	err = env.client.PublishMessageEvent(as("a"), &wire.PublishMessageEventRequest{ConversationID: sent.ConversationID, MessageID: sent.ID})
	if err != nil {
		t.Fatal(err)
	}
}
