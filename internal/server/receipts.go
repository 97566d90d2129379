package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/entity"
	"github.com/joseph-ayodele/receipt-parser/internal/export"
	"github.com/joseph-ayodele/receipt-parser/internal/ingest"
	"github.com/joseph-ayodele/receipt-parser/internal/receipts"
	"github.com/joseph-ayodele/receipt-parser/internal/utils"
)

type dateRangeRequest struct {
	StartDate string `validate:"omitempty,ymd"`
	EndDate   string `validate:"omitempty,ymd"`
}

type receiptIDRequest struct {
	ReceiptID string `validate:"required,uuid"`
}

type ReceiptService struct {
	uploader  ingest.Uploader
	receipts  *receipts.Service
	exporter  *export.Service
	validator *common.Validator
	logger    *slog.Logger
}

func NewReceiptService(
	uploader ingest.Uploader,
	receiptsSvc *receipts.Service,
	exporter *export.Service,
	logger *slog.Logger,
) *ReceiptService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReceiptService{
		uploader:  uploader,
		receipts:  receiptsSvc,
		exporter:  exporter,
		validator: common.NewValidator(),
		logger:    logger,
	}
}

var _ ReceiptsServiceServer = (*ReceiptService)(nil)

func (s *ReceiptService) AnalyzeReceipt(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	userID, err := common.UserIDFromContext(ctx)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	res, err := s.uploader.Upload(ctx, userID, req.GetValue(), "")
	if err != nil {
		s.logger.Error("analyze receipt failed", "user_id", userID, "req_id", common.RequestIDFromContext(ctx), "error", err)
		return nil, common.ToStatus(err)
	}

	out := map[string]*structpb.Value{
		"success":    structpb.NewBoolValue(res.Succeeded()),
		"receipt_id": structpb.NewStringValue(""),
		"error_kind": structpb.NewStringValue(""),
		"message":    structpb.NewStringValue(""),
	}
	if res.Succeeded() {
		out["receipt_id"] = structpb.NewStringValue(res.ReceiptID.String())
	} else {
		out["error_kind"] = structpb.NewStringValue(string(res.Failure.Kind))
		out["message"] = structpb.NewStringValue(res.Failure.Message)
	}
	return &structpb.Struct{Fields: out}, nil
}

func (s *ReceiptService) TotalSpent(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	userID, err := common.UserIDFromContext(ctx)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	total, err := s.receipts.TotalSpent(ctx, userID)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return utils.ToPBTotalSpent(total), nil
}

func (s *ReceiptService) CategorySummary(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	userID, r, err := s.rangeRequest(ctx, req)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	rows, err := s.receipts.CategorySummary(ctx, userID, r)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out := make([]*structpb.Value, 0, len(rows))
	for _, row := range rows {
		out = append(out, structpb.NewStructValue(utils.ToPBCategorySummary(row)))
	}
	return &structpb.ListValue{Values: out}, nil
}

func (s *ReceiptService) ListReceipts(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	userID, r, err := s.rangeRequest(ctx, req)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	recs, err := s.receipts.ReceiptList(ctx, userID, r)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out := make([]*structpb.Value, 0, len(recs))
	for _, rec := range recs {
		out = append(out, structpb.NewStructValue(utils.ToPBReceiptSummary(rec)))
	}
	return &structpb.ListValue{Values: out}, nil
}

func (s *ReceiptService) ListCategories(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	cats, err := s.receipts.ListCategories(ctx)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out := make([]*structpb.Value, 0, len(cats))
	for _, c := range cats {
		out = append(out, structpb.NewStructValue(utils.ToPBCategory(c)))
	}
	return &structpb.ListValue{Values: out}, nil
}

func (s *ReceiptService) GetReceipt(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	userID, receiptID, err := s.receiptRequest(ctx, req)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	rec, err := s.receipts.GetReceipt(ctx, userID, receiptID)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return utils.ToPBReceipt(rec), nil
}

func (s *ReceiptService) DeleteReceipt(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	userID, receiptID, err := s.receiptRequest(ctx, req)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	if err := s.receipts.DeleteReceipt(ctx, userID, receiptID); err != nil {
		return nil, common.ToStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *ReceiptService) ExportReceipts(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error) {
	userID, r, err := s.rangeRequest(ctx, req)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	xlsx, err := s.exporter.ReceiptsXLSX(ctx, userID, r)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "user_id", userID, "error", err)
		return nil, common.ToStatus(err)
	}
	return wrapperspb.Bytes(xlsx), nil
}

func (s *ReceiptService) rangeRequest(ctx context.Context, req *structpb.Struct) (uuid.UUID, entity.DateRange, error) {
	userID, err := common.UserIDFromContext(ctx)
	if err != nil {
		return uuid.Nil, entity.DateRange{}, err
	}
	in := dateRangeRequest{
		StartDate: strings.TrimSpace(utils.StringField(req, "start_date")),
		EndDate:   strings.TrimSpace(utils.StringField(req, "end_date")),
	}
	if err := s.validator.Struct(in); err != nil {
		return uuid.Nil, entity.DateRange{}, err
	}
	r, err := utils.ParseDateRange(in.StartDate, in.EndDate)
	if err != nil {
		return uuid.Nil, entity.DateRange{}, err
	}
	return userID, r, nil
}

func (s *ReceiptService) receiptRequest(ctx context.Context, req *wrapperspb.StringValue) (uuid.UUID, uuid.UUID, error) {
	userID, err := common.UserIDFromContext(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	in := receiptIDRequest{ReceiptID: strings.TrimSpace(req.GetValue())}
	if err := s.validator.Struct(in); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	receiptID, err := uuid.Parse(in.ReceiptID)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.Join(common.ErrInvalidInput, err)
	}
	return userID, receiptID, nil
}
