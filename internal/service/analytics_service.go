// backend-go/internal/service/analytics_service.go
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glowmart/storesight/backend-go/internal/cache"
	"github.com/glowmart/storesight/backend-go/internal/domain"
	"github.com/glowmart/storesight/backend-go/internal/forecast"
	"github.com/glowmart/storesight/backend-go/internal/repository"
)

const (
	defaultTopN       = 5
	defaultPeerLimit  = 10
	similarityMinimum = 12
	cohesionTopStores = 5
)

// AnalyticsService answers the chain-level dashboard endpoints.
type AnalyticsService struct {
	stores      repository.StoreRepository
	models      repository.ModelRepository
	analytics   repository.AnalyticsRepository
	cache       cache.AnalyticsCache
	fiscalStart int
}

func NewAnalyticsService(
	stores repository.StoreRepository,
	models repository.ModelRepository,
	analytics repository.AnalyticsRepository,
	analyticsCache cache.AnalyticsCache,
	fiscalStart int,
) *AnalyticsService {
	if analyticsCache == nil {
		analyticsCache = cache.NewNoopAnalyticsCache()
	}
	if fiscalStart < 1 || fiscalStart > 12 {
		fiscalStart = 1
	}

	return &AnalyticsService{
		stores:      stores,
		models:      models,
		analytics:   analytics,
		cache:       analyticsCache,
		fiscalStart: fiscalStart,
	}
}

// storeLanding pairs a store's identity with its assembled fiscal year.
type storeLanding struct {
	meta    repository.StoreTotal
	summary forecast.LandingSummary
}

// storeLandings assembles a landing for every store in the chain: the bulk
// rows come in two queries instead of one round trip per store.
func (s *AnalyticsService) storeLandings(ctx context.Context, year int) ([]storeLanding, error) {
	from, to := fiscalWindow(year, s.fiscalStart)

	rows, err := s.analytics.GetMonthlyRows(ctx, from, to)
	if err != nil {
		log.Error().Err(err).Int("fiscal_year", year).Msg("analytics service: load monthly rows failed")
		return nil, fmt.Errorf("failed to load monthly rows: %w", err)
	}

	totals, err := s.analytics.GetStoreTotals(ctx, from, to)
	if err != nil {
		log.Error().Err(err).Int("fiscal_year", year).Msg("analytics service: load store totals failed")
		return nil, fmt.Errorf("failed to load store totals: %w", err)
	}

	models, err := s.models.GetModels(ctx)
	if err != nil {
		log.Error().Err(err).Msg("analytics service: load models failed")
		return nil, fmt.Errorf("failed to load fitted models: %w", err)
	}

	rowsByStore := make(map[int64][]repository.MonthlyRow)
	for _, row := range rows {
		rowsByStore[row.StoreID] = append(rowsByStore[row.StoreID], row)
	}
	modelByStore := make(map[int64]*domain.StoreModel, len(models))
	for _, m := range models {
		modelByStore[m.StoreID] = m
	}

	out := make([]storeLanding, 0, len(totals))
	for _, meta := range totals {
		summary, _, _ := assembleLanding(storeYear{
			rows:   rowsByStore[meta.StoreID],
			model:  modelByStore[meta.StoreID],
			active: meta.Active,
		})
		out = append(out, storeLanding{meta: meta, summary: summary})
	}

	return out, nil
}

// GetOverview aggregates every store's landing into the chain header and the
// per-area breakdown.
func (s *AnalyticsService) GetOverview(ctx context.Context, year int) (*domain.ChainOverview, error) {
	if year <= 0 {
		year = currentFiscalYear(time.Now().UTC(), s.fiscalStart)
	}

	if overview, ok, err := s.cache.GetOverview(ctx, year); err == nil && ok {
		return overview, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("analytics service: cache get overview failed")
	}

	landings, err := s.storeLandings(ctx, year)
	if err != nil {
		return nil, err
	}

	overview := &domain.ChainOverview{FiscalYear: year}
	areas := make(map[string]*domain.AreaOverview)
	for _, sl := range landings {
		overview.TotalStores++
		if sl.meta.Active {
			overview.ActiveStores++
		}
		overview.CumulativeActual += sl.summary.CumulativeActual
		overview.CumulativeBudget += sl.summary.CumulativeBudget
		overview.TotalBudget += sl.summary.TotalBudget
		overview.Landing += sl.summary.Landing
		if sl.summary.TotalBudget > 0 && sl.summary.Landing >= sl.summary.TotalBudget {
			overview.StoresOnTarget++
		}

		name := sl.meta.Area
		if name == "" {
			name = "unassigned"
		}
		area, ok := areas[name]
		if !ok {
			area = &domain.AreaOverview{Area: name}
			areas[name] = area
		}
		area.Stores++
		area.Actual += sl.summary.CumulativeActual
		area.Budget += sl.summary.TotalBudget
		area.Landing += sl.summary.Landing
	}

	overview.LandingDiff = overview.Landing - overview.TotalBudget
	if overview.TotalBudget > 0 {
		overview.LandingAchievement = overview.Landing / overview.TotalBudget * 100
	}

	names := make([]string, 0, len(areas))
	for name := range areas {
		names = append(names, name)
	}
	sort.Strings(names)
	overview.Areas = make([]domain.AreaOverview, 0, len(names))
	for _, name := range names {
		area := areas[name]
		if area.Budget > 0 {
			area.Achievement = area.Landing / area.Budget * 100
		}
		overview.Areas = append(overview.Areas, *area)
	}

	if err := s.cache.SetOverview(ctx, year, overview); err != nil {
		log.Warn().Err(err).Msg("analytics service: cache set overview failed")
	}

	return overview, nil
}

// GetConcentration ranks stores by fiscal-year sales and reports ABC classes,
// the Gini coefficient and the share held by the top N stores.
func (s *AnalyticsService) GetConcentration(ctx context.Context, year, topN int) (*domain.ConcentrationSummary, error) {
	if year <= 0 {
		year = currentFiscalYear(time.Now().UTC(), s.fiscalStart)
	}
	if topN <= 0 {
		topN = defaultTopN
	}

	if summary, ok, err := s.cache.GetConcentration(ctx, year, topN); err == nil && ok {
		return summary, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("analytics service: cache get concentration failed")
	}

	from, to := fiscalWindow(year, s.fiscalStart)
	totals, err := s.analytics.GetStoreTotals(ctx, from, to)
	if err != nil {
		log.Error().Err(err).Int("fiscal_year", year).Msg("analytics service: load store totals failed")
		return nil, fmt.Errorf("failed to load store totals: %w", err)
	}

	values := make(map[string]float64, len(totals))
	raw := make([]float64, 0, len(totals))
	for _, t := range totals {
		values[t.Name] = t.Total
		raw = append(raw, t.Total)
	}

	entries := forecast.ClassifyABC(values)
	topShare := 0.0
	for i, e := range entries {
		if i >= topN {
			break
		}
		topShare += e.Share
	}

	summary := &domain.ConcentrationSummary{
		FiscalYear: year,
		Gini:       forecast.Gini(raw),
		TopShare:   topShare,
		TopN:       topN,
		Entries:    entries,
	}

	if err := s.cache.SetConcentration(ctx, year, topN, summary); err != nil {
		log.Warn().Err(err).Msg("analytics service: cache set concentration failed")
	}

	return summary, nil
}

// GetSimilarity correlates monthly sales rhythms across the chain over the
// two years ending with the requested fiscal year. Pearson ignores scale, so
// a kiosk and a flagship with the same seasonal shape still score high.
// An anchor store adds a ranked peer list on top of the area cohesion table.
func (s *AnalyticsService) GetSimilarity(ctx context.Context, year int, anchorID int64, limit int) (*domain.SimilarityResponse, error) {
	if year <= 0 {
		year = currentFiscalYear(time.Now().UTC(), s.fiscalStart)
	}
	if limit <= 0 {
		limit = defaultPeerLimit
	}

	_, to := fiscalWindow(year, s.fiscalStart)
	from := to.AddDate(-2, 0, 0)

	cells, err := s.analytics.GetSalesMatrix(ctx, from, to)
	if err != nil {
		log.Error().Err(err).Int("fiscal_year", year).Msg("analytics service: load sales matrix failed")
		return nil, fmt.Errorf("failed to load sales matrix: %w", err)
	}

	totals, err := s.analytics.GetStoreTotals(ctx, from, to)
	if err != nil {
		log.Error().Err(err).Int("fiscal_year", year).Msg("analytics service: load store totals failed")
		return nil, fmt.Errorf("failed to load store totals: %w", err)
	}

	series := make(map[int64]map[int]float64)
	for _, cell := range cells {
		obs, ok := series[cell.StoreID]
		if !ok {
			obs = make(map[int]float64)
			series[cell.StoreID] = obs
		}
		obs[monthsBetween(from, cell.Month)] = cell.NetSales
	}

	resp := &domain.SimilarityResponse{}

	if anchorID > 0 {
		anchor, err := s.stores.GetStore(ctx, anchorID)
		if err != nil {
			return nil, err
		}
		resp.StoreID = anchor.ID
		resp.StoreName = anchor.Name

		peers := make([]domain.SimilarityPair, 0, len(totals))
		for _, meta := range totals {
			if meta.StoreID == anchorID {
				continue
			}
			corr, ok := alignedCorrelation(series[anchorID], series[meta.StoreID])
			if !ok {
				continue
			}
			peers = append(peers, domain.SimilarityPair{
				StoreID:     meta.StoreID,
				StoreName:   meta.Name,
				Correlation: corr,
			})
		}
		sort.Slice(peers, func(i, j int) bool {
			if peers[i].Correlation != peers[j].Correlation {
				return peers[i].Correlation > peers[j].Correlation
			}
			return peers[i].StoreName < peers[j].StoreName
		})
		if len(peers) > limit {
			peers = peers[:limit]
		}
		resp.Peers = peers
	}

	resp.Areas = areaCohesion(totals, series)

	return resp, nil
}

// areaCohesion averages pairwise correlations among each area's biggest
// stores. Totals arrive sorted by revenue, so the first matches per area are
// the top stores.
func areaCohesion(totals []repository.StoreTotal, series map[int64]map[int]float64) []domain.AreaCohesion {
	topByArea := make(map[string][]int64)
	for _, meta := range totals {
		if meta.Area == "" {
			continue
		}
		if len(topByArea[meta.Area]) >= cohesionTopStores {
			continue
		}
		if len(series[meta.StoreID]) < similarityMinimum {
			continue
		}
		topByArea[meta.Area] = append(topByArea[meta.Area], meta.StoreID)
	}

	names := make([]string, 0, len(topByArea))
	for name := range topByArea {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]domain.AreaCohesion, 0, len(names))
	for _, name := range names {
		ids := topByArea[name]
		if len(ids) < 2 {
			continue
		}

		var sum float64
		var pairs int
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				if corr, ok := alignedCorrelation(series[ids[i]], series[ids[j]]); ok {
					sum += corr
					pairs++
				}
			}
		}
		if pairs == 0 {
			continue
		}

		out = append(out, domain.AreaCohesion{
			Area:     name,
			Stores:   len(ids),
			Cohesion: sum / float64(pairs),
		})
	}

	return out
}

// alignedCorrelation compares two stores over the months both actually have
// on record. Months missing on either side are dropped pairwise rather than
// zero-filled, so an opening gap does not read as a sales crash.
func alignedCorrelation(a, b map[int]float64) (float64, bool) {
	if len(a) == 0 || len(b) == 0 {
		return 0, false
	}

	common := make([]int, 0, len(a))
	for idx := range a {
		if _, ok := b[idx]; ok {
			common = append(common, idx)
		}
	}
	if len(common) < similarityMinimum {
		return 0, false
	}
	sort.Ints(common)

	left := make([]float64, len(common))
	right := make([]float64, len(common))
	for i, idx := range common {
		left[i] = a[idx]
		right[i] = b[idx]
	}

	return forecast.Pearson(left, right), true
}

// GetBridge explains the year-over-year move as a waterfall: stores trading
// in both years, stores new this year and stores that stopped selling.
func (s *AnalyticsService) GetBridge(ctx context.Context, year int) (*domain.BridgeResponse, error) {
	if year <= 0 {
		year = currentFiscalYear(time.Now().UTC(), s.fiscalStart)
	}

	priorFrom, priorTo := fiscalWindow(year-1, s.fiscalStart)
	priorTotals, err := s.analytics.GetStoreTotals(ctx, priorFrom, priorTo)
	if err != nil {
		log.Error().Err(err).Int("fiscal_year", year-1).Msg("analytics service: load prior totals failed")
		return nil, fmt.Errorf("failed to load prior year totals: %w", err)
	}

	landings, err := s.storeLandings(ctx, year)
	if err != nil {
		return nil, err
	}

	priorByStore := make(map[int64]float64, len(priorTotals))
	var priorTotal float64
	for _, t := range priorTotals {
		priorByStore[t.StoreID] = t.Total
		priorTotal += t.Total
	}

	var currentTotal, likeForLike, newStores, closedStores float64
	for _, sl := range landings {
		landing := sl.summary.Landing
		currentTotal += landing

		prior := priorByStore[sl.meta.StoreID]
		switch {
		case prior > 0 && landing > 0:
			likeForLike += landing - prior
		case prior <= 0 && landing > 0:
			newStores += landing
		case prior > 0 && landing <= 0:
			closedStores -= prior
		}
	}

	steps := forecast.BuildBridge(priorTotal, currentTotal, []forecast.BridgeDelta{
		{Label: "like_for_like", Value: likeForLike},
		{Label: "new_stores", Value: newStores},
		{Label: "closed_stores", Value: closedStores},
	})

	return &domain.BridgeResponse{
		FiscalYear:   year,
		PriorYear:    year - 1,
		PriorTotal:   priorTotal,
		CurrentTotal: currentTotal,
		Steps:        steps,
	}, nil
}

// GetDecomposition splits a store's full history into trend, seasonal and
// residual components.
func (s *AnalyticsService) GetDecomposition(ctx context.Context, storeID int64) (*domain.DecompositionResponse, error) {
	store, err := s.stores.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	series, err := s.stores.GetStoreSeries(ctx, storeID)
	if err != nil {
		log.Error().Err(err).Int64("store_id", storeID).Msg("analytics service: load series failed")
		return nil, fmt.Errorf("failed to load store series: %w", err)
	}

	months := make([]string, len(series.Points))
	raw := make([]float64, len(series.Points))
	for i, p := range series.Points {
		months[i] = p.Month
		raw[i] = p.NetSales
	}

	startMonthIdx := 0
	if len(months) > 0 {
		if first, err := time.Parse(monthKeyLayout, months[0]); err == nil {
			startMonthIdx = int(first.Month()) - 1
		}
	}

	d := forecast.Decompose(raw, startMonthIdx)

	return &domain.DecompositionResponse{
		StoreID:       store.ID,
		StoreName:     store.Name,
		Months:        months,
		Trend:         nullableSeries(d.Trend),
		Seasonal:      d.Seasonal,
		Residual:      nullableSeries(d.Residual),
		SeasonalIndex: d.SeasonalIndex,
		TrendShare:    d.TrendShare,
		SeasonalShare: d.SeasonalShare,
		ResidualShare: d.ResidualShare,
	}, nil
}

// InvalidateCache drops the cached chain aggregates.
func (s *AnalyticsService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}
