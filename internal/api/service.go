package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "linkedcommunity.v1.FeedService"

const (
	MethodSignUp             = "/" + ServiceName + "/SignUp"
	MethodSignIn             = "/" + ServiceName + "/SignIn"
	MethodRefreshToken       = "/" + ServiceName + "/RefreshToken"
	MethodSignOut            = "/" + ServiceName + "/SignOut"
	MethodGetProfile         = "/" + ServiceName + "/GetProfile"
	MethodCreateProfile      = "/" + ServiceName + "/CreateProfile"
	MethodUpdateProfile      = "/" + ServiceName + "/UpdateProfile"
	MethodListPosts          = "/" + ServiceName + "/ListPosts"
	MethodCreatePost         = "/" + ServiceName + "/CreatePost"
	MethodGetAvatarUploadURL = "/" + ServiceName + "/GetAvatarUploadURL"
	MethodPing               = "/" + ServiceName + "/Ping"
)

// FeedServiceServer is implemented by the backend.
type FeedServiceServer interface {
	SignUp(context.Context, *SignUpRequest) (*AuthResponse, error)
	SignIn(context.Context, *SignInRequest) (*AuthResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*AuthResponse, error)
	SignOut(context.Context, *SignOutRequest) (*Empty, error)
	GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error)
	CreateProfile(context.Context, *CreateProfileRequest) (*ProfileResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
	ListPosts(context.Context, *ListPostsRequest) (*ListPostsResponse, error)
	CreatePost(context.Context, *CreatePostRequest) (*CreatePostResponse, error)
	GetAvatarUploadURL(context.Context, *AvatarUploadURLRequest) (*AvatarUploadURLResponse, error)
	Ping(context.Context, *Empty) (*PingResponse, error)
}

// UnimplementedFeedServiceServer answers every method with codes.Unimplemented.
type UnimplementedFeedServiceServer struct{}

func (UnimplementedFeedServiceServer) SignUp(context.Context, *SignUpRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignUp not implemented")
}
func (UnimplementedFeedServiceServer) SignIn(context.Context, *SignInRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignIn not implemented")
}
func (UnimplementedFeedServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedFeedServiceServer) SignOut(context.Context, *SignOutRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method SignOut not implemented")
}
func (UnimplementedFeedServiceServer) GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProfile not implemented")
}
func (UnimplementedFeedServiceServer) CreateProfile(context.Context, *CreateProfileRequest) (*ProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateProfile not implemented")
}
func (UnimplementedFeedServiceServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateProfile not implemented")
}
func (UnimplementedFeedServiceServer) ListPosts(context.Context, *ListPostsRequest) (*ListPostsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListPosts not implemented")
}
func (UnimplementedFeedServiceServer) CreatePost(context.Context, *CreatePostRequest) (*CreatePostResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreatePost not implemented")
}
func (UnimplementedFeedServiceServer) GetAvatarUploadURL(context.Context, *AvatarUploadURLRequest) (*AvatarUploadURLResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAvatarUploadURL not implemented")
}
func (UnimplementedFeedServiceServer) Ping(context.Context, *Empty) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

func RegisterFeedServiceServer(s grpc.ServiceRegistrar, srv FeedServiceServer) {
	s.RegisterService(&FeedService_ServiceDesc, srv)
}

type methodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

func unary[Req, Resp any](fullMethod string, call func(FeedServiceServer, context.Context, *Req) (*Resp, error)) methodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FeedServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(FeedServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FeedService_ServiceDesc is the grpc.ServiceDesc for FeedService.
var FeedService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FeedServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unary(MethodSignUp, FeedServiceServer.SignUp)},
		{MethodName: "SignIn", Handler: unary(MethodSignIn, FeedServiceServer.SignIn)},
		{MethodName: "RefreshToken", Handler: unary(MethodRefreshToken, FeedServiceServer.RefreshToken)},
		{MethodName: "SignOut", Handler: unary(MethodSignOut, FeedServiceServer.SignOut)},
		{MethodName: "GetProfile", Handler: unary(MethodGetProfile, FeedServiceServer.GetProfile)},
		{MethodName: "CreateProfile", Handler: unary(MethodCreateProfile, FeedServiceServer.CreateProfile)},
		{MethodName: "UpdateProfile", Handler: unary(MethodUpdateProfile, FeedServiceServer.UpdateProfile)},
		{MethodName: "ListPosts", Handler: unary(MethodListPosts, FeedServiceServer.ListPosts)},
		{MethodName: "CreatePost", Handler: unary(MethodCreatePost, FeedServiceServer.CreatePost)},
		{MethodName: "GetAvatarUploadURL", Handler: unary(MethodGetAvatarUploadURL, FeedServiceServer.GetAvatarUploadURL)},
		{MethodName: "Ping", Handler: unary(MethodPing, FeedServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "linkedcommunity/v1/feed.proto",
}

// FeedServiceClient is the client API for FeedService.
type FeedServiceClient interface {
	SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*Empty, error)
	GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error)
	CreateProfile(ctx context.Context, in *CreateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error)
	UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error)
	ListPosts(ctx context.Context, in *ListPostsRequest, opts ...grpc.CallOption) (*ListPostsResponse, error)
	CreatePost(ctx context.Context, in *CreatePostRequest, opts ...grpc.CallOption) (*CreatePostResponse, error)
	GetAvatarUploadURL(ctx context.Context, in *AvatarUploadURLRequest, opts ...grpc.CallOption) (*AvatarUploadURLResponse, error)
	Ping(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PingResponse, error)
}

type feedServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewFeedServiceClient returns a client that always sends the JSON
// content-subtype so the server picks the matching codec.
func NewFeedServiceClient(cc grpc.ClientConnInterface) FeedServiceClient {
	return &feedServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *feedServiceClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodSignUp, in, opts)
}

func (c *feedServiceClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodSignIn, in, opts)
}

func (c *feedServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *feedServiceClient) SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodSignOut, in, opts)
}

func (c *feedServiceClient) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, MethodGetProfile, in, opts)
}

func (c *feedServiceClient) CreateProfile(ctx context.Context, in *CreateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, MethodCreateProfile, in, opts)
}

func (c *feedServiceClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, MethodUpdateProfile, in, opts)
}

func (c *feedServiceClient) ListPosts(ctx context.Context, in *ListPostsRequest, opts ...grpc.CallOption) (*ListPostsResponse, error) {
	return invoke[ListPostsResponse](ctx, c.cc, MethodListPosts, in, opts)
}

func (c *feedServiceClient) CreatePost(ctx context.Context, in *CreatePostRequest, opts ...grpc.CallOption) (*CreatePostResponse, error) {
	return invoke[CreatePostResponse](ctx, c.cc, MethodCreatePost, in, opts)
}

func (c *feedServiceClient) GetAvatarUploadURL(ctx context.Context, in *AvatarUploadURLRequest, opts ...grpc.CallOption) (*AvatarUploadURLResponse, error) {
	return invoke[AvatarUploadURLResponse](ctx, c.cc, MethodGetAvatarUploadURL, in, opts)
}

func (c *feedServiceClient) Ping(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}
