package service

import (
	"context"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

const peakHourCount = 3

// OwnerSummary is the owner dashboard projection.
type OwnerSummary struct {
	StadiumCount          int        `json:"stadium_count"`
	TotalBookings         int        `json:"total_bookings"`
	PendingBookings       int        `json:"pending_bookings"`
	AcceptedBookings      int        `json:"accepted_bookings"`
	RejectedBookings      int        `json:"rejected_bookings"`
	EstimatedRevenueCents uint64     `json:"estimated_revenue_cents"`
	PeakHours             []PeakHour `json:"peak_hours"`
}

type PeakHour struct {
	StartTime string `json:"start_time"`
	Bookings  int    `json:"bookings"`
}

type AnalyticsService struct {
	store repository.Store
}

func NewAnalyticsService(store repository.Store) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// Summary computes the owner's totals from their stadiums and bookings,
// fetched concurrently.
func (s *AnalyticsService) Summary(ctx context.Context, actor model.Identity) (OwnerSummary, error) {
	if !actor.IsOwner() {
		return OwnerSummary{}, repository.ErrUnauthorized
	}

	var (
		stadiums []model.Stadium
		bookings []model.BookingView
	)
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		stadiums, err = s.store.ListStadiums(ctx, repository.StadiumFilter{OwnerID: actor.UserID})
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		bookings, err = s.store.ListBookingsByOwner(ctx, actor.UserID)
		return err
	})
	if err := p.Wait(); err != nil {
		return OwnerSummary{}, err
	}
	return summarize(stadiums, bookings), nil
}

func summarize(stadiums []model.Stadium, bookings []model.BookingView) OwnerSummary {
	price := make(map[uint64]uint32, len(stadiums))
	for _, st := range stadiums {
		price[st.ID] = st.PricePerHourCents
	}

	out := OwnerSummary{StadiumCount: len(stadiums), TotalBookings: len(bookings), PeakHours: []PeakHour{}}
	perHour := map[string]int{}
	for _, b := range bookings {
		switch b.Status {
		case model.BookingPending:
			out.PendingBookings++
		case model.BookingAccepted:
			out.AcceptedBookings++
			out.EstimatedRevenueCents += uint64(price[b.StadiumID])
			perHour[b.StartTime]++
		case model.BookingRejected:
			out.RejectedBookings++
		}
	}

	for start, n := range perHour {
		out.PeakHours = append(out.PeakHours, PeakHour{StartTime: start, Bookings: n})
	}
	sort.Slice(out.PeakHours, func(i, j int) bool {
		if out.PeakHours[i].Bookings != out.PeakHours[j].Bookings {
			return out.PeakHours[i].Bookings > out.PeakHours[j].Bookings
		}
		return out.PeakHours[i].StartTime < out.PeakHours[j].StartTime
	})
	if len(out.PeakHours) > peakHourCount {
		out.PeakHours = out.PeakHours[:peakHourCount]
	}
	return out
}
