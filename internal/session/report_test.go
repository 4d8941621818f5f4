package session

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/teleops/respawn/internal/health"
)

func TestReportHealthy(t *testing.T) {
	now := time.Now()
	s := &Session{
		StartedAt:   now,
		FinishedAt:  now.Add(17 * time.Second),
		LaunchedPID: 1234,
		Outcome:     OutcomeOK,
		LogTail:     []string{"Bot running with menu…"},
	}
	var buf bytes.Buffer
	Report(&buf, s, "/srv/bot/bot.log")
	out := buf.String()

	assert.Contains(t, out, "session outcome: ok")
	assert.Contains(t, out, "worker pid: 1234")
	assert.Contains(t, out, "Bot running with menu…")
	assert.NotContains(t, out, "next step")
}

func TestReportResidualGuidance(t *testing.T) {
	s := &Session{
		Outcome:    OutcomeResidual,
		KillCycles: 2, KilledProcesses: 4,
		Err: &ResidualError{PIDs: []int32{100, 101}, Cycles: 2},
	}
	var buf bytes.Buffer
	Report(&buf, s, "bot.log")
	out := buf.String()

	assert.Contains(t, out, "still running after 2 kill cycle(s)")
	assert.Contains(t, out, "pids [100 101]")
	assert.Contains(t, out, "no new instance was launched")
}

func TestReportGuidancePerOutcome(t *testing.T) {
	cases := map[Outcome]string{
		OutcomePreflightFailed: "left untouched",
		OutcomeLaunchFailed:    "interpreter",
		OutcomeDead:            "warm-up",
		OutcomeFatalMarker:     "fatal marker",
	}
	for outcome, want := range cases {
		var buf bytes.Buffer
		Report(&buf, &Session{Outcome: outcome}, "bot.log")
		assert.Contains(t, buf.String(), want, "outcome %s", outcome)
	}
}

func TestReportDryRun(t *testing.T) {
	var buf bytes.Buffer
	Report(&buf, &Session{Outcome: OutcomeOK, DryRun: true}, "bot.log")
	assert.Contains(t, buf.String(), "dry run")
}

func TestVerifyErrorStrings(t *testing.T) {
	dead := &VerifyError{State: health.Dead}
	assert.Contains(t, dead.Error(), "died")
	fatal := &VerifyError{State: health.FatalMarker, Line: "ОШИБКА: no token"}
	assert.Contains(t, fatal.Error(), "ОШИБКА")
}
