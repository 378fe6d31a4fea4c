package wire

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ServiceName = "chatter.v1.Messenger"

// MessengerServer is the server API for chatter.v1.Messenger.
type MessengerServer interface {
	RegisterUser(context.Context, *RegisterUserRequest) (*RegisterUserResponse, error)
	GetConversations(context.Context, *emptypb.Empty) (*GetConversationsResponse, error)
	GetConversation(context.Context, *GetConversationRequest) (*GetConversationResponse, error)
	SearchUsers(context.Context, *SearchUsersRequest) (*SearchUsersResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	ReplyToMessage(context.Context, *ReplyToMessageRequest) (*ReplyToMessageResponse, error)
	PublishMessageEvent(context.Context, *PublishMessageEventRequest) (*emptypb.Empty, error)
	GetStatus(context.Context, *emptypb.Empty) (*GetStatusResponse, error)
	Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[MessageEvent]) error
}

// UnimplementedMessengerServer answers every call with codes.Unimplemented.
type UnimplementedMessengerServer struct{}

func (UnimplementedMessengerServer) RegisterUser(context.Context, *RegisterUserRequest) (*RegisterUserResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RegisterUser not implemented")
}
func (UnimplementedMessengerServer) GetConversations(context.Context, *emptypb.Empty) (*GetConversationsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetConversations not implemented")
}
func (UnimplementedMessengerServer) GetConversation(context.Context, *GetConversationRequest) (*GetConversationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetConversation not implemented")
}
func (UnimplementedMessengerServer) SearchUsers(context.Context, *SearchUsersRequest) (*SearchUsersResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SearchUsers not implemented")
}
func (UnimplementedMessengerServer) SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendMessage not implemented")
}
func (UnimplementedMessengerServer) ReplyToMessage(context.Context, *ReplyToMessageRequest) (*ReplyToMessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ReplyToMessage not implemented")
}
func (UnimplementedMessengerServer) PublishMessageEvent(context.Context, *PublishMessageEventRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method PublishMessageEvent not implemented")
}
func (UnimplementedMessengerServer) GetStatus(context.Context, *emptypb.Empty) (*GetStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStatus not implemented")
}
func (UnimplementedMessengerServer) Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[MessageEvent]) error {
	return status.Error(codes.Unimplemented, "method Subscribe not implemented")
}

// RegisterMessengerServer registers srv on s.
func RegisterMessengerServer(s grpc.ServiceRegistrar, srv MessengerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary builds the method descriptor of one unary RPC.
func unary[Req, Resp any](name string, call func(MessengerServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MessengerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(MessengerServer), ctx, req.(*Req))
			})
		},
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(SubscribeRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(MessengerServer).Subscribe(in, &grpc.GenericServerStream[SubscribeRequest, MessageEvent]{ServerStream: stream})
}

// ServiceDesc describes chatter.v1.Messenger.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MessengerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("RegisterUser", MessengerServer.RegisterUser),
		unary("GetConversations", MessengerServer.GetConversations),
		unary("GetConversation", MessengerServer.GetConversation),
		unary("SearchUsers", MessengerServer.SearchUsers),
		unary("SendMessage", MessengerServer.SendMessage),
		unary("ReplyToMessage", MessengerServer.ReplyToMessage),
		unary("PublishMessageEvent", MessengerServer.PublishMessageEvent),
		unary("GetStatus", MessengerServer.GetStatus),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
}
