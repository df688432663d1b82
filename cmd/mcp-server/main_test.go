package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The tools validate their UUID inputs before touching any store, so the
// rejection paths are testable without a database.

func TestSelectAdRejectsInvalidClientID(t *testing.T) {
	tool := &AdServerTool{}
	result, out, err := tool.SelectAd(context.Background(), nil, SelectAdInput{ClientID: "not-a-uuid"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Empty(t, out.CampaignID)
}

func TestRecordClickRejectsInvalidCampaignID(t *testing.T) {
	tool := &AdServerTool{}
	result, out, err := tool.RecordClick(context.Background(), nil, RecordClickInput{CampaignID: "nope", ClientID: "also nope"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.False(t, out.Recorded)
}

func TestRecordClickRejectsInvalidClientID(t *testing.T) {
	tool := &AdServerTool{}
	result, _, err := tool.RecordClick(context.Background(), nil, RecordClickInput{
		CampaignID: "5b7f6a52-3a70-4c8e-9a64-0f0f3f2b9f10",
		ClientID:   "nope",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

func TestCampaignTotalsRejectsInvalidCampaignID(t *testing.T) {
	tool := &AdServerTool{}
	result, _, err := tool.CampaignTotals(context.Background(), nil, CampaignTotalsInput{CampaignID: "nope"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}
