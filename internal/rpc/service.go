package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"quorumfs/internal/cluster"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "quorumfs.FileService"

// ForwardedMetadataKey marks a request a replica forwarded to the
// coordinator; its value is the forwarding node's address.
const ForwardedMetadataKey = "x-forwarded-by"

// FileServiceServer is the server API of the file service. Handlers report
// operation failures inside the returned message; a non-nil error is
// reserved for transport-level problems.
type FileServiceServer interface {
	Join(context.Context, *cluster.NodeIdentity) (*cluster.Result, error)
	Write(context.Context, *WriteRequest) (*cluster.Result, error)
	Read(context.Context, *wrapperspb.StringValue) (*cluster.Result, error)
	PerformWrite(context.Context, *PerformWriteRequest) (*cluster.Result, error)
	PerformRead(context.Context, *wrapperspb.StringValue) (*cluster.Result, error)
	FileMetadata(context.Context, *wrapperspb.StringValue) (*cluster.FileMetadata, error)
	Update(context.Context, *emptypb.Empty) (*cluster.Result, error)
	RandomMember(context.Context, *emptypb.Empty) (*MemberReply, error)
	AllFiles(context.Context, *emptypb.Empty) (*FileList, error)
	AllFileVersions(context.Context, *emptypb.Empty) (*FileList, error)
}

// UnimplementedFileServiceServer answers every method with Unimplemented.
// Embed it to satisfy FileServiceServer partially.
type UnimplementedFileServiceServer struct{}

func (UnimplementedFileServiceServer) Join(context.Context, *cluster.NodeIdentity) (*cluster.Result, error) {
	return nil, status.Error(codes.Unimplemented, "method Join not implemented")
}
func (UnimplementedFileServiceServer) Write(context.Context, *WriteRequest) (*cluster.Result, error) {
	return nil, status.Error(codes.Unimplemented, "method Write not implemented")
}
func (UnimplementedFileServiceServer) Read(context.Context, *wrapperspb.StringValue) (*cluster.Result, error) {
	return nil, status.Error(codes.Unimplemented, "method Read not implemented")
}
func (UnimplementedFileServiceServer) PerformWrite(context.Context, *PerformWriteRequest) (*cluster.Result, error) {
	return nil, status.Error(codes.Unimplemented, "method PerformWrite not implemented")
}
func (UnimplementedFileServiceServer) PerformRead(context.Context, *wrapperspb.StringValue) (*cluster.Result, error) {
	return nil, status.Error(codes.Unimplemented, "method PerformRead not implemented")
}
func (UnimplementedFileServiceServer) FileMetadata(context.Context, *wrapperspb.StringValue) (*cluster.FileMetadata, error) {
	return nil, status.Error(codes.Unimplemented, "method FileMetadata not implemented")
}
func (UnimplementedFileServiceServer) Update(context.Context, *emptypb.Empty) (*cluster.Result, error) {
	return nil, status.Error(codes.Unimplemented, "method Update not implemented")
}
func (UnimplementedFileServiceServer) RandomMember(context.Context, *emptypb.Empty) (*MemberReply, error) {
	return nil, status.Error(codes.Unimplemented, "method RandomMember not implemented")
}
func (UnimplementedFileServiceServer) AllFiles(context.Context, *emptypb.Empty) (*FileList, error) {
	return nil, status.Error(codes.Unimplemented, "method AllFiles not implemented")
}
func (UnimplementedFileServiceServer) AllFileVersions(context.Context, *emptypb.Empty) (*FileList, error) {
	return nil, status.Error(codes.Unimplemented, "method AllFileVersions not implemented")
}

// FileServiceDesc describes the file service for grpc.Server.
var FileServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Join", Handler: unaryHandler("Join", FileServiceServer.Join)},
		{MethodName: "Write", Handler: unaryHandler("Write", FileServiceServer.Write)},
		{MethodName: "Read", Handler: unaryHandler("Read", FileServiceServer.Read)},
		{MethodName: "PerformWrite", Handler: unaryHandler("PerformWrite", FileServiceServer.PerformWrite)},
		{MethodName: "PerformRead", Handler: unaryHandler("PerformRead", FileServiceServer.PerformRead)},
		{MethodName: "FileMetadata", Handler: unaryHandler("FileMetadata", FileServiceServer.FileMetadata)},
		{MethodName: "Update", Handler: unaryHandler("Update", FileServiceServer.Update)},
		{MethodName: "RandomMember", Handler: unaryHandler("RandomMember", FileServiceServer.RandomMember)},
		{MethodName: "AllFiles", Handler: unaryHandler("AllFiles", FileServiceServer.AllFiles)},
		{MethodName: "AllFileVersions", Handler: unaryHandler("AllFileVersions", FileServiceServer.AllFileVersions)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "quorumfs/file_service",
}

// RegisterFileServiceServer registers srv on s.
func RegisterFileServiceServer(s grpc.ServiceRegistrar, srv FileServiceServer) {
	s.RegisterService(&FileServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[Req, Resp any](method string, call func(FileServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FileServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(FileServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// DialOptions returns the options every peer and client connection uses.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}
}

// FileServiceClient is the client API of the file service.
type FileServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewFileServiceClient(cc grpc.ClientConnInterface) *FileServiceClient {
	return &FileServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *FileServiceClient) Join(ctx context.Context, in *cluster.NodeIdentity, opts ...grpc.CallOption) (*cluster.Result, error) {
	return invoke[cluster.Result](ctx, c.cc, "Join", in, opts)
}

func (c *FileServiceClient) Write(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*cluster.Result, error) {
	return invoke[cluster.Result](ctx, c.cc, "Write", in, opts)
}

func (c *FileServiceClient) Read(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*cluster.Result, error) {
	return invoke[cluster.Result](ctx, c.cc, "Read", in, opts)
}

func (c *FileServiceClient) PerformWrite(ctx context.Context, in *PerformWriteRequest, opts ...grpc.CallOption) (*cluster.Result, error) {
	return invoke[cluster.Result](ctx, c.cc, "PerformWrite", in, opts)
}

func (c *FileServiceClient) PerformRead(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*cluster.Result, error) {
	return invoke[cluster.Result](ctx, c.cc, "PerformRead", in, opts)
}

func (c *FileServiceClient) FileMetadata(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*cluster.FileMetadata, error) {
	return invoke[cluster.FileMetadata](ctx, c.cc, "FileMetadata", in, opts)
}

func (c *FileServiceClient) Update(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*cluster.Result, error) {
	return invoke[cluster.Result](ctx, c.cc, "Update", in, opts)
}

func (c *FileServiceClient) RandomMember(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*MemberReply, error) {
	return invoke[MemberReply](ctx, c.cc, "RandomMember", in, opts)
}

func (c *FileServiceClient) AllFiles(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*FileList, error) {
	return invoke[FileList](ctx, c.cc, "AllFiles", in, opts)
}

func (c *FileServiceClient) AllFileVersions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*FileList, error) {
	return invoke[FileList](ctx, c.cc, "AllFileVersions", in, opts)
}

// ErrorMessage extracts the human-readable part of a gRPC error.
func ErrorMessage(err error) string {
	if s, ok := status.FromError(err); ok {
		return s.Message()
	}
	return err.Error()
}
