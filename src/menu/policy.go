package menu

import "tracking_ivr/src/model"

// Availability says which status-dependent sections a record may offer
type Availability struct {
	Location bool
	Schedule bool
}

// Policy is the status to section availability table. Sections not listed
// here (general, costs, unit) only depend on being populated.
var Policy = map[model.Status]Availability{
	model.StatusToContact:  {Location: true, Schedule: false},
	model.StatusInProgress: {Location: false, Schedule: true},
	model.StatusConcluded:  {Location: false, Schedule: true},
	model.StatusDeadRun:    {Location: false, Schedule: true},
	model.StatusCancelled:  {Location: false, Schedule: false},
}

// AvailabilityFor looks status up in Policy. Unknown statuses offer neither
// section and report false.
func AvailabilityFor(status model.Status) (Availability, bool) {
	a, ok := Policy[status]
	return a, ok
}
