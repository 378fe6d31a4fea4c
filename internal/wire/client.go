package wire

import (
	"context"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
)

// UserMetadataKey carries the caller's user id on every call.
const UserMetadataKey = "x-chatter-user"

// WithUser attaches the caller's identity to an outgoing context.
func WithUser(ctx context.Context, userID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, UserMetadataKey, userID)
}

// UserFromIncoming reads the caller's identity from a server context.
func UserFromIncoming(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	vals := md.Get(UserMetadataKey)
	if len(vals) == 0 || vals[0] == "" {
		return "", false
	}
	return vals[0], true
}

// StartPositionKey is the Subscribe header field holding the position the
// stream starts after.
const StartPositionKey = "x-chatter-start-position"

// StartPositionHeader builds the Subscribe header for a stream starting after
// position after.
func StartPositionHeader(after int64) metadata.MD {
	return metadata.Pairs(StartPositionKey, strconv.FormatInt(after, 10))
}

// StartPosition reads the start position from a Subscribe header.
func StartPosition(md metadata.MD) (int64, bool) {
	vals := md.Get(StartPositionKey)
	if len(vals) == 0 {
		return 0, false
	}
	after, err := strconv.ParseInt(vals[0], 10, 64)
	if err != nil || after < 0 {
		return 0, false
	}
	return after, true
}

// MessengerClient is the client API for chatter.v1.Messenger.
type MessengerClient struct {
	cc grpc.ClientConnInterface
}

func NewMessengerClient(cc grpc.ClientConnInterface) *MessengerClient {
	return &MessengerClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MessengerClient) RegisterUser(ctx context.Context, in *RegisterUserRequest, opts ...grpc.CallOption) (*RegisterUserResponse, error) {
	return invoke[RegisterUserResponse](ctx, c.cc, "RegisterUser", in, opts)
}

func (c *MessengerClient) GetConversations(ctx context.Context, opts ...grpc.CallOption) (*GetConversationsResponse, error) {
	return invoke[GetConversationsResponse](ctx, c.cc, "GetConversations", &emptypb.Empty{}, opts)
}

func (c *MessengerClient) GetConversation(ctx context.Context, in *GetConversationRequest, opts ...grpc.CallOption) (*GetConversationResponse, error) {
	return invoke[GetConversationResponse](ctx, c.cc, "GetConversation", in, opts)
}

func (c *MessengerClient) SearchUsers(ctx context.Context, in *SearchUsersRequest, opts ...grpc.CallOption) (*SearchUsersResponse, error) {
	return invoke[SearchUsersResponse](ctx, c.cc, "SearchUsers", in, opts)
}

func (c *MessengerClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageResponse](ctx, c.cc, "SendMessage", in, opts)
}

func (c *MessengerClient) ReplyToMessage(ctx context.Context, in *ReplyToMessageRequest, opts ...grpc.CallOption) (*ReplyToMessageResponse, error) {
	return invoke[ReplyToMessageResponse](ctx, c.cc, "ReplyToMessage", in, opts)
}

func (c *MessengerClient) PublishMessageEvent(ctx context.Context, in *PublishMessageEventRequest, opts ...grpc.CallOption) error {
	_, err := invoke[emptypb.Empty](ctx, c.cc, "PublishMessageEvent", in, opts)
	return err
}

func (c *MessengerClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*GetStatusResponse, error) {
	return invoke[GetStatusResponse](ctx, c.cc, "GetStatus", &emptypb.Empty{}, opts)
}

// Subscribe opens the server stream of a realtime channel.
func (c *MessengerClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[MessageEvent], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod("Subscribe"), opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubscribeRequest, MessageEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
