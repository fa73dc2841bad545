package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prolabora/concilia/internal/common"
)

func newTestBrowserConfig() *common.BrowserConfig {
	return &common.BrowserConfig{
		Headless:       true,
		ActionTimeout:  "30s",
		SessionTimeout: "5m",
		MinHumanDelay:  "500ms",
		MaxHumanDelay:  "1500ms",
	}
}

func TestExecutorCoversEveryActionKind(t *testing.T) {
	kinds := []ActionKind{
		ActionClick,
		ActionType,
		ActionClear,
		ActionSelect,
		ActionCheck,
		ActionWaitVisible,
		ActionWaitHidden,
		ActionEvaluate,
		ActionUpload,
		ActionSleep,
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			exec, ok := executors[kind]
			require.True(t, ok, "no executor registered for %s", kind)

			action := Action{Kind: kind, Selector: "#field", Value: "1s"}
			task, err := exec(action)
			require.NoError(t, err)
			assert.NotNil(t, task)
		})
	}

	assert.Len(t, executors, len(kinds), "executor map has kinds the closed set does not")
}

func TestSleepActionRejectsBadDuration(t *testing.T) {
	exec := executors[ActionSleep]

	_, err := exec(Action{Kind: ActionSleep, Value: "not-a-duration"})
	assert.Error(t, err)

	task, err := exec(Action{Kind: ActionSleep, Value: "250ms"})
	require.NoError(t, err)
	assert.NotNil(t, task)
}

func TestUnknownActionKindFails(t *testing.T) {
	_, ok := executors[ActionKind("teleport")]
	assert.False(t, ok)
}

func TestHumanDelayBounds(t *testing.T) {
	// The delay window collapses when max <= min; Execute must not stall
	s := &Session{timings: timings{
		minHumanDelay: 50 * time.Millisecond,
		maxHumanDelay: 50 * time.Millisecond,
	}}

	start := time.Now()
	err := s.humanDelay(t.Context())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 40*time.Millisecond)
}

func TestParseTimings(t *testing.T) {
	tm, err := parseTimings(newTestBrowserConfig())
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, tm.actionTimeout)
	assert.Equal(t, 5*time.Minute, tm.sessionTimeout)
	assert.Equal(t, 500*time.Millisecond, tm.minHumanDelay)
	assert.Equal(t, 1500*time.Millisecond, tm.maxHumanDelay)
}

func TestParseTimingsRejectsBadDuration(t *testing.T) {
	config := newTestBrowserConfig()
	config.SessionTimeout = "five minutes"

	_, err := parseTimings(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session timeout")
}

func TestParseTimingsFromConfigDefaults(t *testing.T) {
	// The built-in defaults must round-trip through the same parser the
	// session uses
	_, err := parseTimings(&common.NewDefaultConfig().Browser)
	require.NoError(t, err)
}
