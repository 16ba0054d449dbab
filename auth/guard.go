package auth

// Outcome is what a guarded view renders.
type Outcome int

const (
	OutcomeRedirect Outcome = iota
	OutcomeLoading
	OutcomeDenied
	OutcomeAllow
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRedirect:
		return "redirect"
	case OutcomeLoading:
		return "loading"
	case OutcomeDenied:
		return "denied"
	default:
		return "allow"
	}
}

// Decide gates a view on the session and an optional allowed-role set.
// An empty allowed set admits any signed-in role.
func Decide(s *Session, allowed []Role) Outcome {
	if s == nil {
		return OutcomeRedirect
	}
	if !s.Resolved {
		return OutcomeLoading
	}
	if s.Token == "" {
		return OutcomeRedirect
	}
	if len(allowed) > 0 && !s.RoleID.In(allowed) {
		return OutcomeDenied
	}
	return OutcomeAllow
}
