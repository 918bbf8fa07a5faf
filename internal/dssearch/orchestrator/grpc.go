package orchestrator

import (
	"context"

	"github.com/dssahayak/search/internal/dssearch/model"
	"github.com/dssahayak/search/pb"
)

// GRPCServer adapts an Orchestrator to pb.DSSearchServiceServer.
type GRPCServer struct {
	pb.UnimplementedDSSearchServiceServer
	orch *Orchestrator
}

// NewGRPCServer builds a GRPCServer around an Orchestrator.
func NewGRPCServer(orch *Orchestrator) *GRPCServer {
	return &GRPCServer{orch: orch}
}

// Ask implements pb.DSSearchServiceServer.
func (g *GRPCServer) Ask(ctx context.Context, req *pb.AskRequest) (*pb.AskResponse, error) {
	language := model.LangHindi
	if req.Language == string(model.LangEnglish) {
		language = model.LangEnglish
	}

	resp := g.orch.Ask(ctx, req.Query, req.UserId, language, req.WantFacts)

	results := make([]*pb.RankedResultProto, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = &pb.RankedResultProto{
			Url:        r.URL,
			Title:      r.Title,
			Snippet:    r.Snippet,
			Domain:     r.Domain,
			SourceType: string(r.SourceType),
			Relevance:  r.Scores.Relevance,
			Trust:      r.Scores.Trust,
			Freshness:  r.Scores.Freshness,
			TitleMatch: r.Scores.TitleMatch,
			Total:      r.Scores.Total,
		}
	}

	return &pb.AskResponse{
		Success:   resp.Success,
		Query:     resp.Query,
		Results:   results,
		Formatted: resp.Formatted,
		Source:    string(resp.Source),
		Score:     resp.Score,
		Intent:    string(resp.Intent),
		Metadata:  resp.Metadata,
	}, nil
}

// FetchUrl implements pb.DSSearchServiceServer.
func (g *GRPCServer) FetchUrl(ctx context.Context, req *pb.FetchUrlRequest) (*pb.FetchUrlResponse, error) {
	result := g.orch.FetchUrl(ctx, req.Url, req.UserId)
	return &pb.FetchUrlResponse{
		Success:   result.Success,
		Title:     result.Title,
		Summary:   result.Summary,
		Content:   result.Content,
		KeyPoints: result.KeyPoints,
		Links:     result.Links,
	}, nil
}
