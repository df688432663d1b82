package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/campaignserve/adengine/internal/config"
	"github.com/campaignserve/adengine/internal/engine"
	"github.com/campaignserve/adengine/internal/store"
)

// AdServerTool exposes the ad-serving core as MCP tools, for operators and
// agents to drive the engine without a full HTTP round trip.
type AdServerTool struct {
	store  *store.Postgres
	engine *engine.Engine
	logger *zap.Logger
}

type SelectAdInput struct {
	ClientID string `json:"client_id"`
}

type SelectAdOutput struct {
	CampaignID   string `json:"campaign_id"`
	AdvertiserID string `json:"advertiser_id"`
	AdTitle      string `json:"ad_title"`
	AdText       string `json:"ad_text"`
	AdPhotoURL   string `json:"ad_photo_url,omitempty"`
}

func toolError(msg string) (*mcp.CallToolResult, SelectAdOutput, error) {
	return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: msg}}}, SelectAdOutput{}, nil
}

// SelectAd implements the select_ad tool: resolve the client, rank eligible
// campaigns, and record the first impression on the winner.
func (s *AdServerTool) SelectAd(ctx context.Context, req *mcp.CallToolRequest, input SelectAdInput) (*mcp.CallToolResult, SelectAdOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientID, err := uuid.Parse(input.ClientID)
	if err != nil {
		return toolError("invalid client_id: must be a uuid")
	}

	ad, err := s.engine.Select(ctx, clientID)
	if err != nil {
		return toolError(fmt.Sprintf("no ad served: %v", err))
	}

	return nil, SelectAdOutput{
		CampaignID:   ad.CampaignID.String(),
		AdvertiserID: ad.AdvertiserID.String(),
		AdTitle:      ad.AdTitle,
		AdText:       ad.AdText,
		AdPhotoURL:   ad.AdPhotoURL,
	}, nil
}

type RecordClickInput struct {
	CampaignID string `json:"campaign_id"`
	ClientID   string `json:"client_id"`
}

type RecordClickOutput struct {
	Recorded bool `json:"recorded"`
}

// RecordClick implements the record_click tool.
func (s *AdServerTool) RecordClick(ctx context.Context, req *mcp.CallToolRequest, input RecordClickInput) (*mcp.CallToolResult, RecordClickOutput, error) {
	campaignID, err := uuid.Parse(input.CampaignID)
	if err != nil {
		return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: "invalid campaign_id"}}}, RecordClickOutput{}, nil
	}
	clientID, err := uuid.Parse(input.ClientID)
	if err != nil {
		return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: "invalid client_id"}}}, RecordClickOutput{}, nil
	}

	ok, err := s.store.RecordClick(ctx, campaignID, clientID)
	if err != nil {
		return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}}}, RecordClickOutput{}, nil
	}
	return nil, RecordClickOutput{Recorded: ok}, nil
}

type SetDayInput struct {
	Day int `json:"day"`
}

type SetDayOutput struct {
	Day int `json:"day"`
}

// SetDay implements the set_day tool: operator control over the virtual clock.
func (s *AdServerTool) SetDay(ctx context.Context, req *mcp.CallToolRequest, input SetDayInput) (*mcp.CallToolResult, SetDayOutput, error) {
	if err := s.store.SetDay(ctx, input.Day); err != nil {
		return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}}}, SetDayOutput{}, nil
	}
	return nil, SetDayOutput{Day: input.Day}, nil
}

type CampaignTotalsInput struct {
	CampaignID string `json:"campaign_id"`
}

type CampaignTotalsOutput struct {
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	SpentTotal  float64 `json:"spent_total"`
	Conversion  float64 `json:"conversion"`
}

// CampaignTotals implements the campaign_totals tool.
func (s *AdServerTool) CampaignTotals(ctx context.Context, req *mcp.CallToolRequest, input CampaignTotalsInput) (*mcp.CallToolResult, CampaignTotalsOutput, error) {
	campaignID, err := uuid.Parse(input.CampaignID)
	if err != nil {
		return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: "invalid campaign_id"}}}, CampaignTotalsOutput{}, nil
	}
	totals, err := s.store.CampaignTotals(ctx, campaignID)
	if err != nil {
		return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}}}, CampaignTotalsOutput{}, nil
	}
	return nil, CampaignTotalsOutput{
		Impressions: totals.Impressions,
		Clicks:      totals.Clicks,
		SpentTotal:  totals.SpentTotal,
		Conversion:  totals.Conversion,
	}, nil
}

func main() {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.NameKey = "logger"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.StacktraceKey = "stacktrace"

	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("adserve-mcp").With(zap.String("service", "adserve-mcp"))

	appCfg := config.Load()

	pg, err := store.InitPostgres(appCfg.PostgresDSN, appCfg.DBMaxOpenConns, appCfg.DBMaxIdleConns, appCfg.DBConnMaxLifetime, appCfg.DBConnMaxIdleTime)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pg.Close()

	tool := &AdServerTool{store: pg, engine: engine.New(pg), logger: logger}

	server := mcp.NewServer(&mcp.Implementation{Name: "adserve", Version: "1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_ad",
		Description: "Select the best eligible campaign for a client and record the first impression",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"client_id": map[string]interface{}{"type": "string", "description": "Client UUID"},
			},
			"required": []string{"client_id"},
		},
	}, tool.SelectAd)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "record_click",
		Description: "Record a click by a client against a campaign",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"campaign_id": map[string]interface{}{"type": "string", "description": "Campaign UUID"},
				"client_id":   map[string]interface{}{"type": "string", "description": "Client UUID"},
			},
			"required": []string{"campaign_id", "client_id"},
		},
	}, tool.RecordClick)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_day",
		Description: "Set the virtual current day used for validity-window filtering",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"day": map[string]interface{}{"type": "integer", "description": "New virtual day"},
			},
			"required": []string{"day"},
		},
	}, tool.SetDay)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "campaign_totals",
		Description: "Get unique-viewer totals and spend for a campaign",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"campaign_id": map[string]interface{}{"type": "string", "description": "Campaign UUID"},
			},
			"required": []string{"campaign_id"},
		},
	}, tool.CampaignTotals)

	stdioTransport := &mcp.StdioTransport{}
	var logBuffer bytes.Buffer
	loggingTransport := &mcp.LoggingTransport{Transport: stdioTransport, Writer: &logBuffer}

	logger.Info("mcp server running via stdio")
	if err := server.Run(context.Background(), loggingTransport); err != nil {
		logger.Fatal("server error", zap.Error(err), zap.String("mcp_logs", logBuffer.String()))
	}
}
