package services

import "github.com/cardhouse/tournament-engine/models"

// reportPolicy gates who may submit a result for a match. The rule differs
// by format, so the policy is resolved once per tournament and injected into
// the reporting path instead of being re-derived at every call site.
type reportPolicy interface {
	authorizeReport(t *models.Tournament, m *models.Match, reporter Principal) error
}

func reportPolicyFor(format models.TournamentFormat) reportPolicy {
	if format == models.FormatSwiss {
		return organizerReportPolicy{}
	}
	return selfReportPolicy{}
}

// selfReportPolicy lets either participant of the match submit the score.
// The first valid report wins; there is no confirmation step.
type selfReportPolicy struct{}

func (selfReportPolicy) authorizeReport(t *models.Tournament, m *models.Match, reporter Principal) error {
	if reporter.IsAdmin || reporter.organizes(t) {
		return nil
	}
	if m.HasParticipant(reporter.ID) {
		return nil
	}
	return ErrNotMatchParticipant
}

// organizerReportPolicy restricts reporting to the tournament organizer or a
// platform administrator; participants cannot self-report.
type organizerReportPolicy struct{}

func (organizerReportPolicy) authorizeReport(t *models.Tournament, _ *models.Match, reporter Principal) error {
	if reporter.IsAdmin || reporter.organizes(t) {
		return nil
	}
	return ErrOrganizerReportOnly
}
