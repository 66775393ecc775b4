package control

import (
	"context"

	"google.golang.org/grpc"
)

// serviceName is the fully-qualified gRPC service name, used both in the
// ServiceDesc and as the prefix grpc-gateway-less clients dial.
const serviceName = "docmark.control.v1.ControlService"

// Reader is the read-side subset of the Queue Repository this surface
// exposes (§6.1's "Reads"), kept narrow so the control plane cannot
// mutate state.
type Reader interface {
	GetDocumentByID(ctx context.Context, id string) (*DocumentMessage, error)
	GetBatchByID(ctx context.Context, id string) (*BatchMessage, error)
	GetBatchDocumentsByID(ctx context.Context, batchID string) ([]*DocumentMessage, error)
	ListBatchesForUser(ctx context.Context, userID string, limit int) ([]*BatchMessage, error)
	GetJobByID(ctx context.Context, id string) (*JobMessage, error)
}

func handleGetDocument(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetDocumentRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	reader := srv.(Reader)
	if interceptor == nil {
		return reader.GetDocumentByID(ctx, req.ID)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/GetDocument"}
	handler := func(ctx context.Context, req any) (any, error) {
		return reader.GetDocumentByID(ctx, req.(*GetDocumentRequest).ID)
	}
	return interceptor(ctx, req, info, handler)
}

func handleGetBatch(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetBatchRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	reader := srv.(Reader)
	if interceptor == nil {
		return reader.GetBatchByID(ctx, req.ID)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/GetBatch"}
	handler := func(ctx context.Context, req any) (any, error) {
		return reader.GetBatchByID(ctx, req.(*GetBatchRequest).ID)
	}
	return interceptor(ctx, req, info, handler)
}

func handleGetBatchDocuments(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetBatchDocumentsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	reader := srv.(Reader)
	run := func(ctx context.Context, req any) (any, error) {
		docs, err := reader.GetBatchDocumentsByID(ctx, req.(*GetBatchDocumentsRequest).BatchID)
		if err != nil {
			return nil, err
		}
		return &BatchDocumentsResponse{Documents: docs}, nil
	}
	if interceptor == nil {
		return run(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/GetBatchDocuments"}
	return interceptor(ctx, req, info, run)
}

func handleListBatches(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ListBatchesRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	reader := srv.(Reader)
	run := func(ctx context.Context, req any) (any, error) {
		r := req.(*ListBatchesRequest)
		batches, err := reader.ListBatchesForUser(ctx, r.UserID, r.Limit)
		if err != nil {
			return nil, err
		}
		return &ListBatchesResponse{Batches: batches}, nil
	}
	if interceptor == nil {
		return run(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/ListBatches"}
	return interceptor(ctx, req, info, run)
}

func handleGetJob(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetJobRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	reader := srv.(Reader)
	if interceptor == nil {
		return reader.GetJobByID(ctx, req.ID)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/GetJob"}
	handler := func(ctx context.Context, req any) (any, error) {
		return reader.GetJobByID(ctx, req.(*GetJobRequest).ID)
	}
	return interceptor(ctx, req, info, handler)
}

// serviceDesc is the hand-authored equivalent of a protoc-gen-go-grpc
// _grpc.pb.go's ServiceDesc — same shape, same registration call
// (grpc.Server.RegisterService), but written by hand since this
// environment cannot run protoc.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Reader)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetDocument", Handler: handleGetDocument},
		{MethodName: "GetBatch", Handler: handleGetBatch},
		{MethodName: "GetBatchDocuments", Handler: handleGetBatchDocuments},
		{MethodName: "ListBatches", Handler: handleListBatches},
		{MethodName: "GetJob", Handler: handleGetJob},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docmark/control/v1/control.proto",
}

// RegisterControlServer wires reader into grpcServer under the narrow
// read-only control surface's ServiceDesc.
func RegisterControlServer(grpcServer *grpc.Server, reader Reader) {
	grpcServer.RegisterService(&serviceDesc, reader)
}
