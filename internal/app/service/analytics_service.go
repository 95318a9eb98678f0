package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAnalyticsLocked    = errors.New("analytics require a premium plan or an active trial")
	ErrInvalidEventType   = errors.New("invalid analytics event type")
	ErrEventItemNotOnMenu = errors.New("item does not belong to this menu")
)

const (
	DefaultAnalyticsDays = 30
	MaxAnalyticsDays     = 365
	topItemsLimit        = 10
)

type TopItem struct {
	ItemID uint   `json:"item_id"`
	Name   string `json:"name"`
	Views  int64  `json:"views"`
}

type DailyPoint struct {
	Date      string `json:"date"` // YYYY-MM-DD, server local time
	MenuViews int64  `json:"menu_views"`
	QRScans   int64  `json:"qr_scans"`
	ItemViews int64  `json:"item_views"`
}

// AnalyticsSnapshot is computed from recorded events only.
type AnalyticsSnapshot struct {
	RestaurantID      uint         `json:"restaurant_id"`
	Days              int          `json:"days"`
	Since             time.Time    `json:"since"`
	TotalViews        int64        `json:"total_views"` // menu views + QR scans
	MenuViews         int64        `json:"menu_views"`
	QRScans           int64        `json:"qr_scans"`
	ItemViews         int64        `json:"item_views"`
	UniqueSessions    int          `json:"unique_sessions"`
	AvgSessionSeconds float64      `json:"avg_session_seconds"`
	BounceRate        float64      `json:"bounce_rate"` // percent of single-event sessions
	TopItems          []TopItem    `json:"top_items"`
	Daily             []DailyPoint `json:"daily"`
	GeneratedAt       time.Time    `json:"generated_at"`
}

// EventInput is one guest interaction reported by the public menu.
type EventInput struct {
	RestaurantID uint
	EventType    model.AnalyticsEventType
	ItemID       *uint
	SessionID    string
	UserAgent    string
	Language     string
}

type AnalyticsService interface {
	// Snapshot checks ownership and the analytics entitlement.
	Snapshot(ctx context.Context, userID, restaurantID uint, days int) (*AnalyticsSnapshot, error)
	// Compute skips all checks; callers must have authorized the restaurant.
	Compute(ctx context.Context, restaurantID uint, days int) (*AnalyticsSnapshot, error)
	Record(input EventInput) error
}

type analyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	itemRepo      repository.MenuItemRepository
	restaurants   RestaurantService
	subscriptions SubscriptionService
}

func NewAnalyticsService(
	analyticsRepo repository.AnalyticsRepository,
	itemRepo repository.MenuItemRepository,
	restaurants RestaurantService,
	subscriptions SubscriptionService,
) AnalyticsService {
	return &analyticsService{
		analyticsRepo: analyticsRepo,
		itemRepo:      itemRepo,
		restaurants:   restaurants,
		subscriptions: subscriptions,
	}
}

func clampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultAnalyticsDays
	case days > MaxAnalyticsDays:
		return MaxAnalyticsDays
	}
	return days
}

func (s *analyticsService) Snapshot(ctx context.Context, userID, restaurantID uint, days int) (*AnalyticsSnapshot, error) {
	if _, err := s.restaurants.Get(userID, restaurantID); err != nil {
		return nil, err
	}
	ent, err := s.subscriptions.Entitlement(userID)
	if err != nil {
		return nil, err
	}
	if !ent.HasAnalytics() {
		return nil, ErrAnalyticsLocked
	}
	return s.Compute(ctx, restaurantID, days)
}

func (s *analyticsService) Compute(ctx context.Context, restaurantID uint, days int) (*AnalyticsSnapshot, error) {
	days = clampDays(days)
	now := time.Now()
	y, m, d := now.AddDate(0, 0, -(days - 1)).Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	var (
		counts map[model.AnalyticsEventType]int64
		top    []repository.ItemViewCount
		events []model.MenuAnalytics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.analyticsRepo.CountByType(gctx, restaurantID, since)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = s.analyticsRepo.TopItems(gctx, restaurantID, since, topItemsLimit)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.analyticsRepo.Events(gctx, restaurantID, since)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("Failed to aggregate analytics", err, map[string]interface{}{
			"restaurant_id": restaurantID,
			"days":          days,
		})
		return nil, err
	}

	snapshot := &AnalyticsSnapshot{
		RestaurantID: restaurantID,
		Days:         days,
		Since:        since,
		MenuViews:    counts[model.EventMenuView],
		QRScans:      counts[model.EventQRScan],
		ItemViews:    counts[model.EventItemView],
		GeneratedAt:  now,
	}
	snapshot.TotalViews = snapshot.MenuViews + snapshot.QRScans

	sessions := SummarizeSessions(events)
	snapshot.UniqueSessions = sessions.Count
	snapshot.AvgSessionSeconds = sessions.AvgSeconds
	snapshot.BounceRate = sessions.BounceRate
	snapshot.Daily = DailySeries(events, since, days)

	topItems, err := s.nameTopItems(restaurantID, top)
	if err != nil {
		return nil, err
	}
	snapshot.TopItems = topItems

	return snapshot, nil
}

func (s *analyticsService) nameTopItems(restaurantID uint, top []repository.ItemViewCount) ([]TopItem, error) {
	out := make([]TopItem, 0, len(top))
	if len(top) == 0 {
		return out, nil
	}

	ids := make([]uint, len(top))
	for i, t := range top {
		ids[i] = t.ItemID
	}
	items, err := s.itemRepo.FindByIDs(restaurantID, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}

	for _, t := range top {
		out = append(out, TopItem{ItemID: t.ItemID, Name: names[t.ItemID], Views: t.Views})
	}
	return out, nil
}

// SessionSummary aggregates events by session id. Events without a session are ignored.
type SessionSummary struct {
	Count      int
	AvgSeconds float64
	BounceRate float64
}

func SummarizeSessions(events []model.MenuAnalytics) SessionSummary {
	type span struct {
		first, last time.Time
		events      int
	}
	spans := make(map[string]*span)
	for _, e := range events {
		if e.SessionID == "" {
			continue
		}
		sp, ok := spans[e.SessionID]
		if !ok {
			spans[e.SessionID] = &span{first: e.CreatedAt, last: e.CreatedAt, events: 1}
			continue
		}
		sp.events++
		if e.CreatedAt.Before(sp.first) {
			sp.first = e.CreatedAt
		}
		if e.CreatedAt.After(sp.last) {
			sp.last = e.CreatedAt
		}
	}

	if len(spans) == 0 {
		return SessionSummary{}
	}

	var total time.Duration
	bounces := 0
	for _, sp := range spans {
		total += sp.last.Sub(sp.first)
		if sp.events == 1 {
			bounces++
		}
	}
	n := float64(len(spans))
	return SessionSummary{
		Count:      len(spans),
		AvgSeconds: math.Round(total.Seconds()/n*10) / 10,
		BounceRate: math.Round(float64(bounces)/n*1000) / 10,
	}
}

// DailySeries buckets events per local calendar day, oldest first, with one
// point for every day even when it had no events.
func DailySeries(events []model.MenuAnalytics, since time.Time, days int) []DailyPoint {
	points := make([]DailyPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		key := since.AddDate(0, 0, i).Format("2006-01-02")
		points[i].Date = key
		index[key] = i
	}

	for _, e := range events {
		i, ok := index[e.CreatedAt.In(since.Location()).Format("2006-01-02")]
		if !ok {
			continue
		}
		switch e.EventType {
		case model.EventMenuView:
			points[i].MenuViews++
		case model.EventQRScan:
			points[i].QRScans++
		case model.EventItemView:
			points[i].ItemViews++
		}
	}

	return points
}

func (s *analyticsService) Record(input EventInput) error {
	if !input.EventType.IsValid() {
		return ErrInvalidEventType
	}
	if input.EventType == model.EventItemView {
		if input.ItemID == nil {
			return ErrInvalidEventType
		}
		item, err := s.itemRepo.FindByID(*input.ItemID)
		if err != nil || item.RestaurantID != input.RestaurantID {
			return ErrEventItemNotOnMenu
		}
	} else {
		input.ItemID = nil
	}

	sessionID := input.SessionID
	if len(sessionID) > 64 {
		sessionID = sessionID[:64]
	}
	language := input.Language
	if len(language) > 5 {
		language = language[:5]
	}

	return s.analyticsRepo.Record(&model.MenuAnalytics{
		RestaurantID: input.RestaurantID,
		EventType:    input.EventType,
		ItemID:       input.ItemID,
		SessionID:    sessionID,
		UserAgent:    input.UserAgent,
		Language:     language,
	})
}
