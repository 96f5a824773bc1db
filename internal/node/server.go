package node

import (
	"context"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"quorumfs/internal/cluster"
	"quorumfs/internal/rpc"
)

// Server implements the file service gRPC API over a Handler. Every
// operation outcome travels in the reply; errors are never returned.
type Server struct {
	rpc.UnimplementedFileServiceServer
	handler *Handler
	log     logrus.FieldLogger
}

// NewServer creates a new gRPC server instance.
func NewServer(handler *Handler, log logrus.FieldLogger) *Server {
	return &Server{handler: handler, log: log}
}

// trace logs a request at debug level, noting the forwarding replica if any.
func (s *Server) trace(ctx context.Context, method string, fields logrus.Fields) {
	entry := s.log.WithField("method", method).WithFields(fields)
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if from := md.Get(rpc.ForwardedMetadataKey); len(from) > 0 {
			entry = entry.WithField("forwarded_by", from[0])
		}
	}
	entry.Debug("Request")
}

func (s *Server) Join(ctx context.Context, req *cluster.NodeIdentity) (*cluster.Result, error) {
	s.trace(ctx, "Join", logrus.Fields{"peer": req.Addr()})
	res := s.handler.Join(ctx, *req)
	return &res, nil
}

func (s *Server) Write(ctx context.Context, req *rpc.WriteRequest) (*cluster.Result, error) {
	s.trace(ctx, "Write", logrus.Fields{"file": req.Filename, "bytes": len(req.Contents)})
	res := s.handler.Write(ctx, req.Filename, req.Contents)
	return &res, nil
}

func (s *Server) Read(ctx context.Context, req *wrapperspb.StringValue) (*cluster.Result, error) {
	s.trace(ctx, "Read", logrus.Fields{"file": req.GetValue()})
	res := s.handler.Read(ctx, req.GetValue())
	return &res, nil
}

func (s *Server) PerformWrite(ctx context.Context, req *rpc.PerformWriteRequest) (*cluster.Result, error) {
	s.trace(ctx, "PerformWrite", logrus.Fields{"file": req.Filename, "version": req.Version})
	res := s.handler.PerformWrite(ctx, req.Filename, req.Contents, req.Version)
	return &res, nil
}

func (s *Server) PerformRead(ctx context.Context, req *wrapperspb.StringValue) (*cluster.Result, error) {
	s.trace(ctx, "PerformRead", logrus.Fields{"file": req.GetValue()})
	res := s.handler.PerformRead(ctx, req.GetValue())
	return &res, nil
}

func (s *Server) FileMetadata(ctx context.Context, req *wrapperspb.StringValue) (*cluster.FileMetadata, error) {
	s.trace(ctx, "FileMetadata", logrus.Fields{"file": req.GetValue()})
	meta := s.handler.FileMetadata(ctx, req.GetValue())
	return &meta, nil
}

func (s *Server) Update(ctx context.Context, _ *emptypb.Empty) (*cluster.Result, error) {
	s.trace(ctx, "Update", nil)
	res := s.handler.Update(ctx)
	return &res, nil
}

func (s *Server) RandomMember(ctx context.Context, _ *emptypb.Empty) (*rpc.MemberReply, error) {
	s.trace(ctx, "RandomMember", nil)
	member, res := s.handler.RandomMember(ctx)
	return &rpc.MemberReply{Result: res, Member: member}, nil
}

func (s *Server) AllFiles(ctx context.Context, _ *emptypb.Empty) (*rpc.FileList, error) {
	s.trace(ctx, "AllFiles", nil)
	return &rpc.FileList{Result: cluster.Success(), Files: s.handler.AllFiles(ctx)}, nil
}

func (s *Server) AllFileVersions(ctx context.Context, _ *emptypb.Empty) (*rpc.FileList, error) {
	s.trace(ctx, "AllFileVersions", nil)
	files, res := s.handler.AllFileVersions(ctx)
	return &rpc.FileList{Result: res, Files: files}, nil
}
