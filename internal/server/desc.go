package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ReceiptsServiceName = "receipts.v1.ReceiptsService"

const (
	ReceiptsService_AnalyzeReceipt_FullMethodName  = "/receipts.v1.ReceiptsService/AnalyzeReceipt"
	ReceiptsService_TotalSpent_FullMethodName      = "/receipts.v1.ReceiptsService/TotalSpent"
	ReceiptsService_CategorySummary_FullMethodName = "/receipts.v1.ReceiptsService/CategorySummary"
	ReceiptsService_ListReceipts_FullMethodName    = "/receipts.v1.ReceiptsService/ListReceipts"
	ReceiptsService_ListCategories_FullMethodName  = "/receipts.v1.ReceiptsService/ListCategories"
	ReceiptsService_GetReceipt_FullMethodName      = "/receipts.v1.ReceiptsService/GetReceipt"
	ReceiptsService_DeleteReceipt_FullMethodName   = "/receipts.v1.ReceiptsService/DeleteReceipt"
	ReceiptsService_ExportReceipts_FullMethodName  = "/receipts.v1.ReceiptsService/ExportReceipts"
)

// ReceiptsServiceServer is the server API for the receipts service.
// Messages are well-known types so no generated code is needed:
// date filters travel as a Struct with optional "start_date" and "end_date" strings.
type ReceiptsServiceServer interface {
	AnalyzeReceipt(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	TotalSpent(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	CategorySummary(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	ListReceipts(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	ListCategories(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetReceipt(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	DeleteReceipt(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	ExportReceipts(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
}

func RegisterReceiptsServiceServer(s grpc.ServiceRegistrar, srv ReceiptsServiceServer) {
	s.RegisterService(&ReceiptsService_ServiceDesc, srv)
}

// unaryHandler builds a grpc.MethodHandler the way protoc-gen-go-grpc does for each method.
func unaryHandler[Req proto.Message, Resp proto.Message](
	fullMethod string,
	newReq func() Req,
	call func(ReceiptsServiceServer, context.Context, Req) (Resp, error),
) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ReceiptsServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ReceiptsServiceServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func newStruct() *structpb.Struct        { return &structpb.Struct{} }
func newEmpty() *emptypb.Empty           { return &emptypb.Empty{} }
func newBytes() *wrapperspb.BytesValue   { return &wrapperspb.BytesValue{} }
func newString() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }

// ReceiptsService_ServiceDesc is the grpc.ServiceDesc for the receipts service.
var ReceiptsService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ReceiptsServiceName,
	HandlerType: (*ReceiptsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AnalyzeReceipt",
			Handler: unaryHandler(ReceiptsService_AnalyzeReceipt_FullMethodName, newBytes,
				ReceiptsServiceServer.AnalyzeReceipt),
		},
		{
			MethodName: "TotalSpent",
			Handler: unaryHandler(ReceiptsService_TotalSpent_FullMethodName, newEmpty,
				ReceiptsServiceServer.TotalSpent),
		},
		{
			MethodName: "CategorySummary",
			Handler: unaryHandler(ReceiptsService_CategorySummary_FullMethodName, newStruct,
				ReceiptsServiceServer.CategorySummary),
		},
		{
			MethodName: "ListReceipts",
			Handler: unaryHandler(ReceiptsService_ListReceipts_FullMethodName, newStruct,
				ReceiptsServiceServer.ListReceipts),
		},
		{
			MethodName: "ListCategories",
			Handler: unaryHandler(ReceiptsService_ListCategories_FullMethodName, newEmpty,
				ReceiptsServiceServer.ListCategories),
		},
		{
			MethodName: "GetReceipt",
			Handler: unaryHandler(ReceiptsService_GetReceipt_FullMethodName, newString,
				ReceiptsServiceServer.GetReceipt),
		},
		{
			MethodName: "DeleteReceipt",
			Handler: unaryHandler(ReceiptsService_DeleteReceipt_FullMethodName, newString,
				ReceiptsServiceServer.DeleteReceipt),
		},
		{
			MethodName: "ExportReceipts",
			Handler: unaryHandler(ReceiptsService_ExportReceipts_FullMethodName, newStruct,
				ReceiptsServiceServer.ExportReceipts),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "receipts/v1/receipts.proto",
}

// ReceiptsServiceClient is the client API for the receipts service.
type ReceiptsServiceClient interface {
	AnalyzeReceipt(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	TotalSpent(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	CategorySummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error)
	ListReceipts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error)
	ListCategories(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	GetReceipt(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	DeleteReceipt(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ExportReceipts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type receiptsServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewReceiptsServiceClient(cc grpc.ClientConnInterface) ReceiptsServiceClient {
	return &receiptsServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *receiptsServiceClient) AnalyzeReceipt(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, ReceiptsService_AnalyzeReceipt_FullMethodName, in, opts)
}

func (c *receiptsServiceClient) TotalSpent(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, ReceiptsService_TotalSpent_FullMethodName, in, opts)
}

func (c *receiptsServiceClient) CategorySummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, ReceiptsService_CategorySummary_FullMethodName, in, opts)
}

func (c *receiptsServiceClient) ListReceipts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, ReceiptsService_ListReceipts_FullMethodName, in, opts)
}

func (c *receiptsServiceClient) ListCategories(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, ReceiptsService_ListCategories_FullMethodName, in, opts)
}

func (c *receiptsServiceClient) GetReceipt(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, ReceiptsService_GetReceipt_FullMethodName, in, opts)
}

func (c *receiptsServiceClient) DeleteReceipt(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, ReceiptsService_DeleteReceipt_FullMethodName, in, opts)
}

func (c *receiptsServiceClient) ExportReceipts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c.cc, ReceiptsService_ExportReceipts_FullMethodName, in, opts)
}
