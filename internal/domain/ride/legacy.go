package ride

import "strings"

// The legacy status string is a one-way projection of the canonical phase,
// kept only for consumers that predate the (state, sub-state) model. Nothing
// outside this file may construct a legacy status by hand.

const (
	LegacyPending       = "pending"
	LegacyAccepted      = "accepted"
	LegacyDriverOnWay   = "driver_on_way"
	LegacyDriverArrived = "driver_arrived"
	LegacyTripStarted   = "trip_started"
	LegacyTripCompleted = "trip_completed"
	LegacyCompleted     = "completed"
	LegacyCancelled     = "cancelled"
)

// ProjectLegacyStatus maps a canonical phase to its legacy status string.
// Total over every reachable phase; unknown input projects to "pending" so a
// legacy consumer never sees an empty status.
func ProjectLegacyStatus(state State, sub SubState) string {
	switch state {
	case StatePending:
		return LegacyPending
	case StateActivePreTrip:
		return LegacyAccepted
	case StateActiveExecution:
		switch sub {
		case SubDriverOnTheWay:
			return LegacyDriverOnWay
		case SubDriverArrived:
			return LegacyDriverArrived
		case SubTripStarted:
			return LegacyTripStarted
		case SubTripCompleted:
			// same legacy bucket as COMPLETED_INSTANCE: the trip is over,
			// the record is not yet finalized
			return LegacyTripCompleted
		}
		return LegacyAccepted
	case StateCompletedInstance:
		return LegacyTripCompleted
	case StateCompletedFinal:
		return LegacyCompleted
	case StateCancelled:
		return LegacyCancelled
	}
	return LegacyPending
}

// ClassifyLegacyStatus maps an arbitrary legacy status spelling back to the
// canonical phase. The match is total: every historical spelling observed in
// the wild lands in a bucket, and anything unknown falls through to
// (PENDING, none) with ok=false.
func ClassifyLegacyStatus(raw string) (State, SubState, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")

	switch s {
	case "pending", "requested", "created", "new", "searching", "waiting":
		return StatePending, SubNone, true

	case "accepted", "assigned", "matched", "driver_assigned", "confirmed":
		return StateActivePreTrip, SubNone, true

	case "driver_on_way", "driver_on_the_way", "on_the_way", "en_route", "enroute", "approaching":
		return StateActiveExecution, SubDriverOnTheWay, true

	case "driver_arrived", "arrived", "at_pickup", "waiting_for_passenger":
		return StateActiveExecution, SubDriverArrived, true

	case "trip_started", "started", "ongoing", "in_progress", "inprogress", "on_trip", "picked_up":
		return StateActiveExecution, SubTripStarted, true

	case "trip_completed", "trip_complete", "dropped_off", "awaiting_confirmation", "ended":
		return StateCompletedInstance, SubNone, true

	case "completed", "complete", "finalized", "done", "finished", "closed", "rated":
		return StateCompletedFinal, SubNone, true

	case "cancelled", "canceled", "cancelled_by_passenger", "cancelled_by_driver",
		"canceled_by_passenger", "canceled_by_driver", "aborted", "expired", "rejected":
		return StateCancelled, SubNone, true
	}

	return StatePending, SubNone, false
}
