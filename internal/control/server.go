package control

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/docmark/internal/apperr"
	"github.com/joseph-ayodele/docmark/internal/common"
	"github.com/joseph-ayodele/docmark/internal/queue"
)

// service adapts queue.Repository's read paths to the Reader contract,
// translating apperr values into gRPC status codes at the boundary —
// the pattern the teacher's internal/server package follows for its
// ent-backed lookups.
type service struct {
	queue queue.Repository
	log   *slog.Logger
}

// NewReader builds the Reader the control surface serves, backed by q.
func NewReader(q queue.Repository, log *slog.Logger) Reader {
	if log == nil {
		log = slog.Default()
	}
	return &service{queue: q, log: log}
}

func (s *service) GetDocumentByID(ctx context.Context, id string) (*DocumentMessage, error) {
	if id == "" {
		return nil, common.InvalidArgumentError("id is required")
	}
	doc, err := s.queue.GetDocument(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, err)
	}
	return newDocumentMessage(doc), nil
}

func (s *service) GetBatchByID(ctx context.Context, id string) (*BatchMessage, error) {
	if id == "" {
		return nil, common.InvalidArgumentError("id is required")
	}
	batch, err := s.queue.GetBatch(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, err)
	}
	return newBatchMessage(batch), nil
}

func (s *service) GetBatchDocumentsByID(ctx context.Context, batchID string) ([]*DocumentMessage, error) {
	if batchID == "" {
		return nil, common.InvalidArgumentError("batch_id is required")
	}
	docs, err := s.queue.GetBatchDocuments(ctx, batchID)
	if err != nil {
		return nil, s.translate(ctx, err)
	}
	out := make([]*DocumentMessage, len(docs))
	for i, d := range docs {
		out[i] = newDocumentMessage(d)
	}
	return out, nil
}

func (s *service) ListBatchesForUser(ctx context.Context, userID string, limit int) ([]*BatchMessage, error) {
	if userID == "" {
		return nil, common.InvalidArgumentError("user_id is required")
	}
	batches, err := s.queue.ListBatches(ctx, userID, limit)
	if err != nil {
		return nil, s.translate(ctx, err)
	}
	out := make([]*BatchMessage, len(batches))
	for i, b := range batches {
		out[i] = newBatchMessage(b)
	}
	return out, nil
}

func (s *service) GetJobByID(ctx context.Context, id string) (*JobMessage, error) {
	if id == "" {
		return nil, common.InvalidArgumentError("id is required")
	}
	job, err := s.queue.GetJob(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, err)
	}
	return newJobMessage(job), nil
}

// translate maps the store/queue error taxonomy (§7) onto gRPC status
// codes at this read-only boundary.
func (s *service) translate(ctx context.Context, err error) error {
	if apperr.IsNotFound(err) {
		return common.NotFoundError(err.Error())
	}
	s.log.Error("control surface read failed", "request_id", common.RequestIDFromContext(ctx), "error", err)
	return common.InternalError(err.Error())
}
