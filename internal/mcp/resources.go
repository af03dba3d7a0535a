package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"otc-signals/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, analyzer Analyzer, market MarketReader) {
	server.AddResource(&mcp.Resource{
		URI:         "otc://pairs",
		Name:        "trading-pairs",
		Description: "OTC and stock pairs that signals can be generated for",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, domain.TradingPairs)
	})

	server.AddResource(&mcp.Resource{
		URI:         "otc://indicators",
		Name:        "indicator-catalog",
		Description: "Indicator catalog with default enabled flags",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, domain.DefaultIndicators())
	})

	server.AddResource(&mcp.Resource{
		URI:         "otc://timeframes",
		Name:        "timeframes",
		Description: "Supported trade durations",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, domain.SupportedTimeframes)
	})

	server.AddResource(&mcp.Resource{
		URI:         "otc://market/status",
		Name:        "market-status",
		Description: "Whether the live quote feed is connected",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if market == nil {
			return nil, fmt.Errorf("market data service unavailable")
		}
		return jsonResource(req.Params.URI, market.Status())
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "otc://evaluation{?pair,timeframe,threshold}",
		Name:        "pair-evaluation",
		Description: "Indicator evaluation for one pair; the pair query param must be URL encoded",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if analyzer == nil {
			return nil, fmt.Errorf("analysis service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "otc" || parsed.Host != "evaluation" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		query := parsed.Query()
		pair, err := normalizePair(query.Get("pair"))
		if err != nil {
			return nil, err
		}
		tf, err := normalizeTimeframe(query.Get("timeframe"))
		if err != nil {
			return nil, err
		}
		threshold := 0
		if raw := strings.TrimSpace(query.Get("threshold")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid threshold: %s", raw)
			}
			threshold = n
		}
		threshold, err = normalizeThreshold(threshold)
		if err != nil {
			return nil, err
		}

		eval, err := analyzer.Evaluate(ctx, pair, tf, nil, threshold)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, pairEvaluateOutput{Evaluation: eval})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
