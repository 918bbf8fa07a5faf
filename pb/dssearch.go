// Package pb holds the gRPC service contract for DS-Search's Ask and
// FetchUrl operations (spec.md §6), hand-authored in the same
// struct-plus-interface shape the teacher used for its own service
// contracts rather than committing protoc output.
package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AskRequest carries one user utterance into the Ask RPC.
type AskRequest struct {
	Query      string
	UserId     string
	Language   string
	WantFacts  bool
}

// RankedResultProto mirrors model.RankedResult's wire shape.
type RankedResultProto struct {
	Url        string
	Title      string
	Snippet    string
	Domain     string
	SourceType string
	Relevance  float64
	Trust      float64
	Freshness  float64
	TitleMatch float64
	Total      float64
}

// AskResponse is Ask's wire response.
type AskResponse struct {
	Success   bool
	Query     string
	Results   []*RankedResultProto
	Formatted string
	Source    string
	Score     float64
	Intent    string
	Metadata  map[string]string
}

// FetchUrlRequest carries a specific URL into the FetchUrl RPC.
type FetchUrlRequest struct {
	Url    string
	UserId string
}

// FetchUrlResponse is FetchUrl's wire response.
type FetchUrlResponse struct {
	Success   bool
	Title     string
	Summary   string
	Content   string
	KeyPoints []string
	Links     []string
}

// DSSearchServiceClient is the client-side contract consumed by the NL
// rendering collaborator (spec.md §6's "primary operation").
type DSSearchServiceClient interface {
	Ask(ctx context.Context, in *AskRequest, opts ...grpc.CallOption) (*AskResponse, error)
	FetchUrl(ctx context.Context, in *FetchUrlRequest, opts ...grpc.CallOption) (*FetchUrlResponse, error)
}

// DSSearchServiceServer is the server-side contract the Orchestrator
// implements.
type DSSearchServiceServer interface {
	Ask(context.Context, *AskRequest) (*AskResponse, error)
	FetchUrl(context.Context, *FetchUrlRequest) (*FetchUrlResponse, error)
}

// UnimplementedDSSearchServiceServer provides default not-implemented
// behaviour, same forward-compatibility convention protoc-gen-go-grpc
// generates for every service.
type UnimplementedDSSearchServiceServer struct{}

func (UnimplementedDSSearchServiceServer) Ask(context.Context, *AskRequest) (*AskResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Ask not implemented")
}

func (UnimplementedDSSearchServiceServer) FetchUrl(context.Context, *FetchUrlRequest) (*FetchUrlResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method FetchUrl not implemented")
}

// dsSearchServiceClient is the concrete DSSearchServiceClient, mirroring
// protoc-gen-go-grpc's generated client shape around ClientConnInterface.
type dsSearchServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDSSearchServiceClient builds a client over an existing connection.
func NewDSSearchServiceClient(cc grpc.ClientConnInterface) DSSearchServiceClient {
	return &dsSearchServiceClient{cc: cc}
}

func (c *dsSearchServiceClient) Ask(ctx context.Context, in *AskRequest, opts ...grpc.CallOption) (*AskResponse, error) {
	out := new(AskResponse)
	if err := c.cc.Invoke(ctx, "/dssearch.DSSearchService/Ask", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dsSearchServiceClient) FetchUrl(ctx context.Context, in *FetchUrlRequest, opts ...grpc.CallOption) (*FetchUrlResponse, error) {
	out := new(FetchUrlResponse)
	if err := c.cc.Invoke(ctx, "/dssearch.DSSearchService/FetchUrl", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _DSSearchService_Ask_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AskRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DSSearchServiceServer).Ask(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/dssearch.DSSearchService/Ask"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DSSearchServiceServer).Ask(ctx, req.(*AskRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _DSSearchService_FetchUrl_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(FetchUrlRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DSSearchServiceServer).FetchUrl(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/dssearch.DSSearchService/FetchUrl"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DSSearchServiceServer).FetchUrl(ctx, req.(*FetchUrlRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// DSSearchService_ServiceDesc is the grpc.ServiceDesc for DSSearchService,
// shaped the way protoc-gen-go-grpc emits it.
var DSSearchService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "dssearch.DSSearchService",
	HandlerType: (*DSSearchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ask", Handler: _DSSearchService_Ask_Handler},
		{MethodName: "FetchUrl", Handler: _DSSearchService_FetchUrl_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dssearch.proto",
}

// RegisterDSSearchServiceServer registers srv on s.
func RegisterDSSearchServiceServer(s grpc.ServiceRegistrar, srv DSSearchServiceServer) {
	s.RegisterService(&DSSearchService_ServiceDesc, srv)
}
