package control

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
)

type fakeReader struct {
	doc     *DocumentMessage
	batch   *BatchMessage
	docs    []*DocumentMessage
	batches []*BatchMessage
	job     *JobMessage
	err     error
}

func (f *fakeReader) GetDocumentByID(ctx context.Context, id string) (*DocumentMessage, error) {
	return f.doc, f.err
}
func (f *fakeReader) GetBatchByID(ctx context.Context, id string) (*BatchMessage, error) {
	return f.batch, f.err
}
func (f *fakeReader) GetBatchDocumentsByID(ctx context.Context, batchID string) ([]*DocumentMessage, error) {
	return f.docs, f.err
}
func (f *fakeReader) ListBatchesForUser(ctx context.Context, userID string, limit int) ([]*BatchMessage, error) {
	return f.batches, f.err
}
func (f *fakeReader) GetJobByID(ctx context.Context, id string) (*JobMessage, error) {
	return f.job, f.err
}

var _ Reader = (*fakeReader)(nil)

func decodeInto(v any) func(any) error {
	return func(dst any) error {
		switch d := dst.(type) {
		case *GetDocumentRequest:
			*d = *v.(*GetDocumentRequest)
		case *GetBatchRequest:
			*d = *v.(*GetBatchRequest)
		case *GetBatchDocumentsRequest:
			*d = *v.(*GetBatchDocumentsRequest)
		case *ListBatchesRequest:
			*d = *v.(*ListBatchesRequest)
		case *GetJobRequest:
			*d = *v.(*GetJobRequest)
		}
		return nil
	}
}

func TestHandleGetDocumentReturnsReaderResult(t *testing.T) {
	reader := &fakeReader{doc: &DocumentMessage{ID: "doc-1"}}
	resp, err := handleGetDocument(reader, context.Background(), decodeInto(&GetDocumentRequest{ID: "doc-1"}), nil)
	if err != nil {
		t.Fatalf("handleGetDocument: %v", err)
	}
	msg, ok := resp.(*DocumentMessage)
	if !ok || msg.ID != "doc-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleGetDocumentPropagatesDecodeError(t *testing.T) {
	reader := &fakeReader{}
	decodeErr := errors.New("bad wire format")
	_, err := handleGetDocument(reader, context.Background(), func(any) error { return decodeErr }, nil)
	if !errors.Is(err, decodeErr) {
		t.Fatalf("expected the decode error to propagate, got %v", err)
	}
}

func TestHandleGetDocumentRunsInterceptorWhenPresent(t *testing.T) {
	reader := &fakeReader{doc: &DocumentMessage{ID: "doc-1"}}
	var interceptorCalled bool
	interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		interceptorCalled = true
		if info.FullMethod != serviceName+"/GetDocument" {
			t.Fatalf("unexpected FullMethod: %s", info.FullMethod)
		}
		return handler(ctx, req)
	}
	resp, err := handleGetDocument(reader, context.Background(), decodeInto(&GetDocumentRequest{ID: "doc-1"}), interceptor)
	if err != nil {
		t.Fatalf("handleGetDocument: %v", err)
	}
	if !interceptorCalled {
		t.Fatalf("expected the interceptor to run")
	}
	if resp.(*DocumentMessage).ID != "doc-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleGetBatchDocumentsWrapsResultsInResponse(t *testing.T) {
	reader := &fakeReader{docs: []*DocumentMessage{{ID: "doc-1"}, {ID: "doc-2"}}}
	resp, err := handleGetBatchDocuments(reader, context.Background(), decodeInto(&GetBatchDocumentsRequest{BatchID: "batch-1"}), nil)
	if err != nil {
		t.Fatalf("handleGetBatchDocuments: %v", err)
	}
	wrapped, ok := resp.(*BatchDocumentsResponse)
	if !ok || len(wrapped.Documents) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleListBatchesWrapsResultsInResponse(t *testing.T) {
	reader := &fakeReader{batches: []*BatchMessage{{ID: "batch-1"}}}
	resp, err := handleListBatches(reader, context.Background(), decodeInto(&ListBatchesRequest{UserID: "user-1", Limit: 10}), nil)
	if err != nil {
		t.Fatalf("handleListBatches: %v", err)
	}
	wrapped, ok := resp.(*ListBatchesResponse)
	if !ok || len(wrapped.Batches) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleGetJobReturnsReaderResult(t *testing.T) {
	reader := &fakeReader{job: &JobMessage{ID: "job-1"}}
	resp, err := handleGetJob(reader, context.Background(), decodeInto(&GetJobRequest{ID: "job-1"}), nil)
	if err != nil {
		t.Fatalf("handleGetJob: %v", err)
	}
	if resp.(*JobMessage).ID != "job-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRegisterControlServerWiresServiceDesc(t *testing.T) {
	grpcServer := grpc.NewServer()
	reader := &fakeReader{}
	RegisterControlServer(grpcServer, reader)

	info := grpcServer.GetServiceInfo()
	svc, ok := info[serviceName]
	if !ok {
		t.Fatalf("expected %q to be registered, got %v", serviceName, info)
	}
	if len(svc.Methods) != 5 {
		t.Fatalf("expected 5 methods registered, got %d", len(svc.Methods))
	}
}
