package service

import (
	"context"
	"testing"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRidePersistsAndAudits(t *testing.T) {
	t.Parallel()

	f := newFixture()
	result, err := f.svc.CreateRide(context.Background(), ports.CreateRideInput{
		PassengerID:   "p1",
		ServiceType:   ride.ServiceTaxi,
		Timing:        ride.TimingInstant,
		PaymentMethod: ride.PayAccountBalance,
		EstimatedCost: 12_500,
	})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", result.State)
	assert.Equal(t, ride.LegacyPending, result.LegacyStatus)

	stored := f.rides.get(result.RideID)
	require.NotNil(t, stored)
	assert.Equal(t, ride.StatePending, stored.State)
	assert.Equal(t, ride.PaymentPending, stored.PaymentStatus)
	assert.Equal(t, []ride.EventType{ride.EventRideRequested}, f.events.types())
}

func TestCreateErrandRequiresTasks(t *testing.T) {
	t.Parallel()

	f := newFixture()
	_, err := f.svc.CreateRide(context.Background(), ports.CreateRideInput{
		PassengerID:   "p1",
		ServiceType:   ride.ServiceErrand,
		Timing:        ride.TimingInstant,
		PaymentMethod: ride.PayCash,
	})
	assert.ErrorIs(t, err, ride.ErrErrandNeedsTasks)
	assert.Empty(t, f.events.types(), "nothing is persisted on a rejected create")
}

func TestCreateSeriesLinkage(t *testing.T) {
	t.Parallel()

	f := newFixture()
	result, err := f.svc.CreateRide(context.Background(), ports.CreateRideInput{
		PassengerID:   "p1",
		ServiceType:   ride.ServiceSchoolRun,
		Timing:        ride.TimingRecurring,
		PaymentMethod: ride.PayAccountBalance,
		EstimatedCost: 20_000,
		SeriesID:      "series-7",
		LegsTotal:     10,
	})
	require.NoError(t, err)

	stored := f.rides.get(result.RideID)
	require.NotNil(t, stored.SeriesID)
	assert.Equal(t, "series-7", *stored.SeriesID)
	assert.Equal(t, 10, stored.LegsTotal)
	assert.Equal(t, int64(2_000), stored.LegDeduction(), "each leg settles its share")
}

func TestGetRideUnknown(t *testing.T) {
	t.Parallel()

	f := newFixture()
	_, err := f.svc.GetRide(context.Background(), "missing")
	assert.ErrorIs(t, err, ride.ErrNotFound)
}
