package health

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teleops/respawn/internal/proctable"
)

func writeLog(t *testing.T, lines string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "bot.log")
	require.NoError(t, os.WriteFile(p, []byte(lines), 0o640))
	return p
}

func TestVerifyHealthy(t *testing.T) {
	ft := proctable.NewFake(proctable.Proc{PID: 42, Cmdline: "python3 main.py"})
	log := writeLog(t, "Токен загружен: 12345...\nBot running with menu…\n")
	v := Verifier{Table: ft, FatalMarker: []string{"ОШИБКА", "Traceback"}, TailLines: 15}

	res, err := v.Verify(42, log)
	require.NoError(t, err)
	assert.Equal(t, Healthy, res.State)
}

func TestVerifyDead(t *testing.T) {
	ft := proctable.NewFake() // pid not present
	log := writeLog(t, "Bot running with menu…\n")
	v := Verifier{Table: ft, TailLines: 15}

	res, err := v.Verify(42, log)
	require.NoError(t, err)
	assert.Equal(t, Dead, res.State)
}

func TestVerifyFatalMarker(t *testing.T) {
	ft := proctable.NewFake(proctable.Proc{PID: 42, Cmdline: "python3 main.py"})
	log := writeLog(t, "Токен загружен: 12345...\nОшибка при polling: unauthorized\n")
	v := Verifier{Table: ft, FatalMarker: []string{"ОШИБКА", "Ошибка при polling"}, TailLines: 15}

	res, err := v.Verify(42, log)
	require.NoError(t, err)
	assert.Equal(t, FatalMarker, res.State)
	assert.Contains(t, res.Line, "Ошибка при polling")
}

func TestVerifyMarkerOutsideTailIgnored(t *testing.T) {
	ft := proctable.NewFake(proctable.Proc{PID: 1, Cmdline: "w"})
	var body string
	body += "ОШИБКА: old startup failure\n"
	for i := 0; i < 20; i++ {
		body += "ok line\n"
	}
	log := writeLog(t, body)
	v := Verifier{Table: ft, FatalMarker: []string{"ОШИБКА"}, TailLines: 10}

	res, err := v.Verify(1, log)
	require.NoError(t, err)
	assert.Equal(t, Healthy, res.State)
}

func TestVerifyMissingSinkIsHealthy(t *testing.T) {
	ft := proctable.NewFake(proctable.Proc{PID: 1, Cmdline: "w"})
	v := Verifier{Table: ft, FatalMarker: []string{"ОШИБКА"}, TailLines: 10}

	res, err := v.Verify(1, filepath.Join(t.TempDir(), "absent.log"))
	require.NoError(t, err)
	assert.Equal(t, Healthy, res.State)
}

func TestVerifyWarmupElapses(t *testing.T) {
	ft := proctable.NewFake(proctable.Proc{PID: 1, Cmdline: "w"})
	log := writeLog(t, "ok\n")
	v := Verifier{Table: ft, Warmup: 30 * time.Millisecond, TailLines: 5}

	start := time.Now()
	_, err := v.Verify(1, log)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestTail(t *testing.T) {
	p := writeLog(t, "a\nb\nc\nd\n")
	lines, err := Tail(p, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, lines)

	lines, err = Tail(p, 10)
	require.NoError(t, err)
	assert.Len(t, lines, 4)

	lines, err = Tail(p, 0)
	require.NoError(t, err)
	assert.Nil(t, lines)

	empty := writeLog(t, "")
	lines, err = Tail(empty, 3)
	require.NoError(t, err)
	assert.Nil(t, lines)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "healthy", Healthy.String())
	assert.Equal(t, "dead", Dead.String())
	assert.Equal(t, "fatal-marker", FatalMarker.String())
}
