// backend-go/internal/service/analytics_service_test.go
package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowmart/storesight/backend-go/internal/domain"
	"github.com/glowmart/storesight/backend-go/internal/repository"
)

func TestGetOverview_AggregatesChainAndAreas(t *testing.T) {
	stores := &fakeStoreRepo{stores: map[int64]*domain.Store{}}
	models := &fakeModelRepo{models: map[int64]*domain.StoreModel{}}
	analytics := &fakeAnalyticsRepo{
		rows: []repository.MonthlyRow{
			{StoreID: 1, Month: month(2025, time.January), Actual: 120, Budget: 100, HasActual: true},
			{StoreID: 1, Month: month(2025, time.February), Actual: 130, Budget: 100, HasActual: true},
			{StoreID: 1, Month: month(2025, time.March), Budget: 100},
			{StoreID: 2, Month: month(2025, time.January), Actual: 80, Budget: 100, HasActual: true},
			{StoreID: 2, Month: month(2025, time.February), Budget: 100},
		},
		totals: []repository.StoreTotal{
			{StoreID: 1, Name: "Glowmart Surabaya", Area: "Jawa Timur", Active: true, Total: 250},
			{StoreID: 2, Name: "Glowmart Medan", Area: "Sumatera", Active: true, Total: 80},
		},
	}
	svc := NewAnalyticsService(stores, models, analytics, nil, 1)

	ov, err := svc.GetOverview(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, 2025, ov.FiscalYear)
	assert.Equal(t, 2, ov.TotalStores)
	assert.Equal(t, 2, ov.ActiveStores)
	assert.InDelta(t, 330, ov.CumulativeActual, 1e-9)
	assert.InDelta(t, 300, ov.CumulativeBudget, 1e-9)
	assert.InDelta(t, 500, ov.TotalBudget, 1e-9)
	// both stores carry budget through their open months
	assert.InDelta(t, 530, ov.Landing, 1e-9)
	assert.InDelta(t, 30, ov.LandingDiff, 1e-9)
	assert.InDelta(t, 106, ov.LandingAchievement, 1e-9)
	assert.Equal(t, 1, ov.StoresOnTarget, "only Surabaya beats its full budget")

	require.Len(t, ov.Areas, 2)
	assert.Equal(t, "Jawa Timur", ov.Areas[0].Area)
	assert.InDelta(t, 350, ov.Areas[0].Landing, 1e-9)
	assert.InDelta(t, 350.0/300.0*100, ov.Areas[0].Achievement, 1e-9)
	assert.Equal(t, "Sumatera", ov.Areas[1].Area)
	assert.InDelta(t, 90, ov.Areas[1].Achievement, 1e-9)
}

func TestGetConcentration_RanksAndScores(t *testing.T) {
	analytics := &fakeAnalyticsRepo{
		totals: []repository.StoreTotal{
			{StoreID: 1, Name: "Glowmart Surabaya", Total: 500},
			{StoreID: 2, Name: "Glowmart Medan", Total: 250},
			{StoreID: 3, Name: "Glowmart Palembang", Total: 150},
			{StoreID: 4, Name: "Glowmart Bandung", Total: 60},
			{StoreID: 5, Name: "Glowmart Kupang", Total: 40},
		},
	}
	svc := NewAnalyticsService(&fakeStoreRepo{}, &fakeModelRepo{}, analytics, nil, 1)

	summary, err := svc.GetConcentration(context.Background(), 2025, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TopN)
	assert.InDelta(t, 0.75, summary.TopShare, 1e-9, "top two stores hold three quarters")
	assert.InDelta(t, 0.444, summary.Gini, 1e-9)
	require.Len(t, summary.Entries, 5)
	assert.Equal(t, "Glowmart Surabaya", summary.Entries[0].Name)
	assert.Equal(t, "A", summary.Entries[0].Class)

	defaulted, err := svc.GetConcentration(context.Background(), 2025, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultTopN, defaulted.TopN)
}

func TestGetSimilarity_RanksPeersAndAreaCohesion(t *testing.T) {
	stores := &fakeStoreRepo{stores: map[int64]*domain.Store{
		1: {ID: 1, Name: "Glowmart Surabaya", Area: "Jawa Timur", Active: true},
	}}
	analytics := &fakeAnalyticsRepo{
		totals: []repository.StoreTotal{
			{StoreID: 2, Name: "Glowmart Malang", Area: "Jawa Timur", Active: true, Total: 5760},
			{StoreID: 1, Name: "Glowmart Surabaya", Area: "Jawa Timur", Active: true, Total: 2880},
			{StoreID: 3, Name: "Glowmart Medan", Area: "Sumatera", Active: true, Total: 1920},
			{StoreID: 4, Name: "Glowmart Kupang", Area: "Jawa Timur", Active: true, Total: 600},
		},
	}
	// two aligned years: store 2 doubles store 1, store 3 mirrors it, store 4
	// has too little history to count
	start := month(2024, time.January)
	for i := 0; i < 24; i++ {
		m := start.AddDate(0, i, 0)
		v := 100.0 + float64(i%2)*40
		analytics.cells = append(analytics.cells,
			repository.SalesCell{StoreID: 1, Month: m, NetSales: v},
			repository.SalesCell{StoreID: 2, Month: m, NetSales: 2 * v},
			repository.SalesCell{StoreID: 3, Month: m, NetSales: 180 - v},
		)
		if i < 6 {
			analytics.cells = append(analytics.cells, repository.SalesCell{StoreID: 4, Month: m, NetSales: v})
		}
	}
	svc := NewAnalyticsService(stores, &fakeModelRepo{}, analytics, nil, 1)

	resp, err := svc.GetSimilarity(context.Background(), 2025, 1, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.StoreID)
	require.Len(t, resp.Peers, 2, "short-history store drops out")
	assert.Equal(t, int64(2), resp.Peers[0].StoreID)
	assert.InDelta(t, 1.0, resp.Peers[0].Correlation, 1e-9, "scale does not matter")
	assert.Equal(t, int64(3), resp.Peers[1].StoreID)
	assert.InDelta(t, -1.0, resp.Peers[1].Correlation, 1e-9)

	require.Len(t, resp.Areas, 1, "single-store areas carry no cohesion")
	assert.Equal(t, "Jawa Timur", resp.Areas[0].Area)
	assert.Equal(t, 2, resp.Areas[0].Stores)
	assert.InDelta(t, 1.0, resp.Areas[0].Cohesion, 1e-9)
}

func TestGetSimilarity_NoAnchor(t *testing.T) {
	svc := NewAnalyticsService(&fakeStoreRepo{}, &fakeModelRepo{}, &fakeAnalyticsRepo{}, nil, 1)

	resp, err := svc.GetSimilarity(context.Background(), 2025, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, resp.StoreID)
	assert.Empty(t, resp.Peers)
}

func TestGetBridge_ExplainsYearOverYear(t *testing.T) {
	analytics := &fakeAnalyticsRepo{
		rows: []repository.MonthlyRow{
			{StoreID: 1, Month: month(2025, time.January), Actual: 600, HasActual: true},
			{StoreID: 1, Month: month(2025, time.February), Actual: 500, HasActual: true},
			{StoreID: 2, Month: month(2025, time.January), Actual: 550, HasActual: true},
			{StoreID: 4, Month: month(2025, time.January), Actual: 400, HasActual: true},
		},
		totalsByYear: map[int][]repository.StoreTotal{
			2024: {
				{StoreID: 1, Name: "Glowmart Surabaya", Area: "Jawa Timur", Active: true, Total: 1000},
				{StoreID: 2, Name: "Glowmart Medan", Area: "Sumatera", Active: true, Total: 500},
				{StoreID: 3, Name: "Glowmart Palembang", Area: "Sumatera", Active: false, Total: 300},
			},
			2025: {
				{StoreID: 1, Name: "Glowmart Surabaya", Area: "Jawa Timur", Active: true, Total: 1100},
				{StoreID: 2, Name: "Glowmart Medan", Area: "Sumatera", Active: true, Total: 550},
				{StoreID: 3, Name: "Glowmart Palembang", Area: "Sumatera", Active: false, Total: 0},
				{StoreID: 4, Name: "Glowmart Bandung", Area: "Jawa Barat", Active: true, Total: 400},
			},
		},
	}
	svc := NewAnalyticsService(&fakeStoreRepo{}, &fakeModelRepo{}, analytics, nil, 1)

	bridge, err := svc.GetBridge(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, 2024, bridge.PriorYear)
	assert.InDelta(t, 1800, bridge.PriorTotal, 1e-9)
	assert.InDelta(t, 2050, bridge.CurrentTotal, 1e-9)

	require.Len(t, bridge.Steps, 5, "fully explained walk needs no residual bar")
	labels := make([]string, 0, len(bridge.Steps))
	for _, s := range bridge.Steps {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []string{"prior_year", "like_for_like", "new_stores", "closed_stores", "current_year"}, labels)

	assert.InDelta(t, 150, bridge.Steps[1].Delta, 1e-9)
	assert.InDelta(t, 400, bridge.Steps[2].Delta, 1e-9)
	assert.InDelta(t, -300, bridge.Steps[3].Delta, 1e-9)
	assert.InDelta(t, 2050, bridge.Steps[4].RunningTotal, 1e-9)
}

func TestGetDecomposition_TrendingStore(t *testing.T) {
	series := &domain.StoreSeries{StoreID: 5, Points: make([]domain.SeriesPoint, 0, 36)}
	start := month(2023, time.January)
	for i := 0; i < 36; i++ {
		series.Points = append(series.Points, domain.SeriesPoint{
			Month:    start.AddDate(0, i, 0).Format("2006-01"),
			NetSales: 100 + float64(i),
		})
	}
	stores := &fakeStoreRepo{
		stores: map[int64]*domain.Store{5: {ID: 5, Name: "Glowmart Palembang", Area: "Sumatera", Active: true}},
		series: map[int64]*domain.StoreSeries{5: series},
	}
	svc := NewAnalyticsService(stores, &fakeModelRepo{}, &fakeAnalyticsRepo{}, nil, 1)

	resp, err := svc.GetDecomposition(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, "Glowmart Palembang", resp.StoreName)
	require.Len(t, resp.Months, 36)
	assert.Equal(t, "2023-01", resp.Months[0])

	require.Len(t, resp.Trend, 36)
	assert.Nil(t, resp.Trend[0], "moving average cannot cover the edges")
	require.NotNil(t, resp.Trend[17])
	assert.InDelta(t, 117, *resp.Trend[17], 1e-6, "linear series recovers its own trend")

	for slot, f := range resp.SeasonalIndex {
		assert.InDelta(t, 1.0, f, 0.05, fmt.Sprintf("slot %d", slot))
	}
	assert.Greater(t, resp.TrendShare, 0.9, "a pure trend owns the variance")
}

func TestGetDecomposition_UnknownStore(t *testing.T) {
	svc := NewAnalyticsService(&fakeStoreRepo{}, &fakeModelRepo{}, &fakeAnalyticsRepo{}, nil, 1)

	_, err := svc.GetDecomposition(context.Background(), 404)
	assert.Error(t, err)
}
