package discipline

// Shared status vocabulary across incidents, case records and escalations.
const (
	StatusPending      = "Pending"
	StatusReported     = "Reported"
	StatusApproved     = "Approved"
	StatusUnderReview  = "UnderReview"
	StatusParentOnHold = "ParentOnHold"
	StatusCalling      = "Calling"
	StatusArrived      = "Arrived"
	StatusActive       = "Active"
	StatusResolved     = "Resolved"
	StatusClosed       = "Closed"
	StatusWithdrawn    = "Withdrawn"
	StatusRejected     = "Rejected"
)

var terminalStatuses = map[string]struct{}{
	StatusResolved:  {},
	StatusClosed:    {},
	StatusWithdrawn: {},
	StatusRejected:  {},
}

func IsTerminal(status string) bool {
	_, ok := terminalStatuses[status]
	return ok
}

// Minor incidents in these statuses follow an escalation's status changes.
var siblingSyncStatuses = []string{
	StatusPending, StatusApproved, StatusReported, StatusCalling,
	StatusArrived, StatusUnderReview, StatusParentOnHold,
}

// Incidents in these statuses do not count toward the escalation threshold.
var thresholdExcludedStatuses = []string{StatusRejected, StatusWithdrawn}

// transitions is the closed transition table. Free-form status strings were
// accepted by the system this one replaces; transitions outside this table
// now fail unless the status-override config is set.
var transitions = map[string][]string{
	StatusPending:      {StatusApproved, StatusUnderReview, StatusCalling, StatusRejected, StatusWithdrawn},
	StatusReported:     {StatusApproved, StatusUnderReview, StatusCalling, StatusRejected, StatusWithdrawn},
	StatusApproved:     {StatusUnderReview, StatusCalling, StatusParentOnHold, StatusResolved, StatusClosed, StatusWithdrawn},
	StatusUnderReview:  {StatusCalling, StatusArrived, StatusParentOnHold, StatusResolved, StatusClosed, StatusWithdrawn},
	StatusParentOnHold: {StatusCalling, StatusArrived, StatusUnderReview, StatusResolved, StatusClosed, StatusWithdrawn},
	StatusCalling:      {StatusArrived, StatusParentOnHold, StatusResolved, StatusClosed, StatusWithdrawn},
	StatusArrived:      {StatusUnderReview, StatusResolved, StatusClosed, StatusWithdrawn},
	StatusActive:       {StatusCalling, StatusArrived, StatusUnderReview, StatusParentOnHold, StatusResolved, StatusClosed, StatusWithdrawn, StatusRejected},
	StatusResolved:     {},
	StatusClosed:       {},
	StatusWithdrawn:    {},
	StatusRejected:     {},
}

func KnownStatus(status string) bool {
	_, ok := transitions[status]
	return ok
}

func CanTransition(from, to string) bool {
	next, ok := transitions[from]
	if !ok {
		// Legacy rows may carry statuses outside the vocabulary; allow
		// them to move anywhere valid rather than wedging the record.
		return KnownStatus(to)
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Violation severity categories.
const (
	CategoryMinor      = "Minor"
	CategoryMajor      = "Major"
	CategoryProhibited = "Prohibited"
)
