package workflow

// TeamTargetLedger is a view over a pitch's Teams slice. Target values are
// remaining open positions, so the conservation law is
// assigned(team) + Remaining(team) == total configured for that team.
type TeamTargetLedger struct {
	teams *[]TeamSlot
}

func NewTeamTargetLedger(teams *[]TeamSlot) *TeamTargetLedger {
	return &TeamTargetLedger{teams: teams}
}

func (l *TeamTargetLedger) slot(teamID string) *TeamSlot {
	for i := range *l.teams {
		if (*l.teams)[i].TeamID == teamID {
			return &(*l.teams)[i]
		}
	}
	return nil
}

// Remaining returns the open position count for teamID, zero if the team has
// no slot entry on this pitch.
func (l *TeamTargetLedger) Remaining(teamID string) int {
	if s := l.slot(teamID); s != nil {
		return s.Target
	}
	return 0
}

// Decrement consumes one open position. The target never goes negative; at
// zero the caller gets a capacity error instead.
func (l *TeamTargetLedger) Decrement(teamID string) error {
	s := l.slot(teamID)
	if s == nil || s.Target <= 0 {
		return capacityError("no open positions remain for this team")
	}
	s.Target--
	return nil
}

// Increment frees one position, creating the slot entry if the team has none.
func (l *TeamTargetLedger) Increment(teamID string) {
	if s := l.slot(teamID); s != nil {
		s.Target++
		return
	}
	*l.teams = append(*l.teams, TeamSlot{TeamID: teamID, Target: 1})
}

// SetRemaining overwrites the open position count, creating the slot entry if
// needed. Negative values are the caller's validation problem and are clamped.
func (l *TeamTargetLedger) SetRemaining(teamID string, n int) {
	if n < 0 {
		n = 0
	}
	if s := l.slot(teamID); s != nil {
		s.Target = n
		return
	}
	*l.teams = append(*l.teams, TeamSlot{TeamID: teamID, Target: n})
}
