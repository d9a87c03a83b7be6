package scheduling

import (
	"sort"

	"github.com/Abubaker23alluhaibi/new-backend/pkg/phone"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/types"
)

// ListCandidateBookers groups a doctor's proxy bookings by normalized booker
// phone and returns one candidate per booker, busiest first. Each candidate
// is flagged when the doctor already tracks them.
func (s *Service) ListCandidateBookers(doctorID string) ([]*types.CandidateBooker, error) {
	bookings, err := s.repo.GetBookingsForOthers(doctorID)
	if err != nil {
		return nil, err
	}

	tracked, err := s.trackedPhoneSet(doctorID)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*types.CandidateBooker)
	var order []string

	// Bookings arrive newest first, so the first name seen per phone is the
	// booker's latest display name.
	for _, apt := range bookings {
		key := phone.Normalize(apt.BookerPhone)
		if key == "" {
			continue
		}
		c, ok := groups[key]
		if !ok {
			name := apt.BookerName
			if name == "" {
				name = apt.UserName
			}
			c = &types.CandidateBooker{
				Name:      name,
				Phone:     key,
				IsTracked: tracked[key],
			}
			groups[key] = c
			order = append(order, key)
		}
		c.TotalBookings++
	}

	candidates := make([]*types.CandidateBooker, 0, len(groups))
	for _, key := range order {
		candidates = append(candidates, groups[key])
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TotalBookings > candidates[j].TotalBookings
	})

	return candidates, nil
}

// TrackBooker opts the doctor in to tracking a booker. The booker must have
// at least one proxy booking with this doctor; tracking an already-tracked
// phone refreshes the stored name instead of failing.
func (s *Service) TrackBooker(doctorID, bookerPhone, bookerName string) (*types.TrackedBooker, error) {
	if bookerPhone == "" || bookerName == "" {
		return nil, types.NewValidationError(types.ErrCodeMissingFields,
			"bookerPhone and bookerName are required")
	}

	normalized := phone.Normalize(bookerPhone)

	bookings, err := s.repo.GetBookingsForOthers(doctorID)
	if err != nil {
		return nil, err
	}

	found := false
	for _, apt := range bookings {
		if phone.Normalize(apt.BookerPhone) == normalized {
			found = true
			break
		}
	}
	if !found {
		return nil, types.NewValidationError(types.ErrCodeNoMatchingBookings,
			"no bookings for others found for this phone")
	}

	tb, err := s.repo.UpsertTrackedBooker(doctorID, normalized, bookerName)
	if err != nil {
		return nil, err
	}

	s.logger.WithDoctorID(doctorID).WithField("booker_phone", normalized).Info("Booker tracked")
	return tb, nil
}

// UntrackBooker soft-deletes a tracking record. History is untouched; only
// the registry entry goes dormant.
func (s *Service) UntrackBooker(doctorID, personID string) (*types.TrackedBooker, error) {
	tb, err := s.repo.DeactivateTrackedBooker(doctorID, personID)
	if err != nil {
		return nil, err
	}

	s.logger.WithDoctorID(doctorID).WithField("tracked_booker_id", personID).Info("Booker untracked")
	return tb, nil
}

// ListTrackedBookers returns the doctor's active tracking records joined
// with each booker's proxy-booking history.
func (s *Service) ListTrackedBookers(doctorID string) ([]*types.TrackedBookerWithHistory, error) {
	tracked, err := s.repo.GetActiveTrackedBookers(doctorID)
	if err != nil {
		return nil, err
	}
	if len(tracked) == 0 {
		return []*types.TrackedBookerWithHistory{}, nil
	}

	bookings, err := s.repo.GetBookingsForOthers(doctorID)
	if err != nil {
		return nil, err
	}

	byPhone := make(map[string][]types.TrackedBookerBooking)
	for _, apt := range bookings {
		key := phone.Normalize(apt.BookerPhone)
		byPhone[key] = append(byPhone[key], types.TrackedBookerBooking{
			ID:           apt.ID,
			Date:         apt.Date,
			Time:         apt.Time,
			Attendance:   apt.Attendance,
			PatientName:  apt.PatientName,
			PatientAge:   apt.PatientAge,
			PatientPhone: apt.PatientPhone,
			CreatedAt:    apt.CreatedAt,
		})
	}

	out := make([]*types.TrackedBookerWithHistory, 0, len(tracked))
	for _, tb := range tracked {
		history := byPhone[tb.BookerPhone]
		if history == nil {
			history = []types.TrackedBookerBooking{}
		}
		out = append(out, &types.TrackedBookerWithHistory{
			ID:        tb.ID,
			Name:      tb.BookerName,
			Phone:     tb.BookerPhone,
			IsTracked: true,
			Bookings:  history,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Bookings) > len(out[j].Bookings)
	})

	return out, nil
}

// trackedPhoneSet returns the set of phones the doctor actively tracks.
func (s *Service) trackedPhoneSet(doctorID string) (map[string]bool, error) {
	tracked, err := s.repo.GetActiveTrackedBookers(doctorID)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(tracked))
	for _, tb := range tracked {
		set[tb.BookerPhone] = true
	}
	return set, nil
}
