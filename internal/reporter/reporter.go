package reporter

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"admute/internal/monitor"
	"admute/pkg/utils"
)

// Report is a snapshot of one monitoring session
type Report struct {
	StartedAt     time.Time `json:"started_at"`
	GeneratedAt   time.Time `json:"generated_at"`
	Cycles        int       `json:"cycles"`
	TargetsFound  int       `json:"targets_found"`
	TargetsLost   int       `json:"targets_lost"`
	TitlesSeen    int       `json:"titles_seen"`
	Adverts       int       `json:"adverts"`
	MuteCalls     int       `json:"mute_calls"`
	UnmuteCalls   int       `json:"unmute_calls"`
	Failures      int       `json:"failures"`
	MutedSeconds  int64     `json:"muted_seconds"`
	LastTitle     string    `json:"last_title,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	CurrentlyMute bool      `json:"currently_muted"`
}

// Reporter aggregates monitor results in memory. It satisfies
// monitor.Recorder.
type Reporter struct {
	mu         sync.Mutex
	report     Report
	mutedSince time.Time
	muted      time.Duration
	now        func() time.Time
}

// New creates a reporter whose session starts now
func New() *Reporter {
	r := &Reporter{now: time.Now}
	r.report.StartedAt = r.now()
	return r
}

// Record folds one cycle result into the session totals
func (r *Reporter) Record(res monitor.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.report.Cycles++

	if res.Found {
		r.report.TargetsFound++
	}
	if res.Lost {
		r.report.TargetsLost++
		r.stopMuted(res.At)
	}
	if res.TitleChanged {
		r.report.TitlesSeen++
		r.report.LastTitle = res.Title
	}

	if res.Err != nil {
		r.report.Failures++
		r.report.LastError = res.Err.Error()
		return
	}

	if !res.MuteRequested {
		return
	}
	if res.Mute {
		r.report.MuteCalls++
		r.report.Adverts++
	} else {
		r.report.UnmuteCalls++
	}

	if !res.MuteChanged {
		return
	}
	if res.Mute {
		if r.mutedSince.IsZero() {
			r.mutedSince = res.At
		}
	} else {
		r.stopMuted(res.At)
	}
}

func (r *Reporter) stopMuted(at time.Time) {
	if r.mutedSince.IsZero() {
		return
	}
	if at.After(r.mutedSince) {
		r.muted += at.Sub(r.mutedSince)
	}
	r.mutedSince = time.Time{}
}

// Report returns the totals so far. Time muted includes an advertisement
// still in progress.
func (r *Reporter) Report() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := r.report
	rep.GeneratedAt = r.now()

	muted := r.muted
	if !r.mutedSince.IsZero() {
		rep.CurrentlyMute = true
		if rep.GeneratedAt.After(r.mutedSince) {
			muted += rep.GeneratedAt.Sub(r.mutedSince)
		}
	}
	rep.MutedSeconds = int64(muted / time.Second)

	return &rep
}

// FormatReportText formats the report as human-readable text
func FormatReportText(report *Report) string {
	elapsed := int64(report.GeneratedAt.Sub(report.StartedAt) / time.Second)

	output := "Session Report\n"
	output += fmt.Sprintf("Period: %s to %s (%s)\n",
		report.StartedAt.Format("2006-01-02 15:04"),
		report.GeneratedAt.Format("2006-01-02 15:04"),
		utils.FormatRoundedUnit(elapsed))
	output += fmt.Sprintf("%s\n", "----------------------------------------")

	output += fmt.Sprintf("%-24s %10d\n", "Poll cycles", report.Cycles)
	output += fmt.Sprintf("%-24s %10d\n", "Player found", report.TargetsFound)
	output += fmt.Sprintf("%-24s %10d\n", "Player lost", report.TargetsLost)
	output += fmt.Sprintf("%-24s %10d\n", "Titles seen", report.TitlesSeen)
	output += fmt.Sprintf("%-24s %10d\n", "Advertisements", report.Adverts)
	output += fmt.Sprintf("%-24s %10d\n", "Mute requests", report.MuteCalls)
	output += fmt.Sprintf("%-24s %10d\n", "Unmute requests", report.UnmuteCalls)
	output += fmt.Sprintf("%-24s %10d\n", "Failures", report.Failures)
	output += fmt.Sprintf("%-24s %10s\n", "Time muted", utils.FormatRoundedUnit(report.MutedSeconds))

	if report.LastTitle != "" {
		output += fmt.Sprintf("Last title: %s\n", truncate(report.LastTitle, 60))
	}
	if report.LastError != "" {
		output += fmt.Sprintf("Last error: %s\n", truncate(report.LastError, 60))
	}

	return output
}

// FormatReportJSON formats the report as JSON
func FormatReportJSON(report *Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal JSON")
	}
	return string(data), nil
}

// truncate shortens s to maxLen runes, marking the cut with "..."
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
