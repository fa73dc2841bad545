package browser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/chromedp"
)

// ActionKind enumerates every form interaction the agent can perform.
// The set is closed: the pipeline composes stages from these kinds only,
// so portal drift surfaces as a failed action rather than undefined
// behavior.
type ActionKind string

const (
	ActionClick       ActionKind = "click"
	ActionType        ActionKind = "type"
	ActionClear       ActionKind = "clear"
	ActionSelect      ActionKind = "select"
	ActionCheck       ActionKind = "check"
	ActionWaitVisible ActionKind = "wait_visible"
	ActionWaitHidden  ActionKind = "wait_hidden"
	ActionEvaluate    ActionKind = "evaluate"
	ActionUpload      ActionKind = "upload"
	ActionSleep       ActionKind = "sleep"
)

// Action is one interaction against the current page. Selector is a CSS
// selector; Value carries the text to type, the option value to select,
// the script to evaluate, or a duration string for sleeps.
type Action struct {
	Kind     ActionKind
	Selector string
	Value    string
}

// executor builds the chromedp tasks for one action kind
type executor func(a Action) (chromedp.Action, error)

var executors = map[ActionKind]executor{
	ActionClick: func(a Action) (chromedp.Action, error) {
		return chromedp.Tasks{
			chromedp.WaitVisible(a.Selector, chromedp.ByQuery),
			chromedp.Click(a.Selector, chromedp.ByQuery),
		}, nil
	},
	ActionType: func(a Action) (chromedp.Action, error) {
		return chromedp.Tasks{
			chromedp.WaitVisible(a.Selector, chromedp.ByQuery),
			chromedp.Clear(a.Selector, chromedp.ByQuery),
			chromedp.SendKeys(a.Selector, a.Value, chromedp.ByQuery),
		}, nil
	},
	ActionClear: func(a Action) (chromedp.Action, error) {
		return chromedp.Clear(a.Selector, chromedp.ByQuery), nil
	},
	ActionSelect: func(a Action) (chromedp.Action, error) {
		return chromedp.Tasks{
			chromedp.WaitVisible(a.Selector, chromedp.ByQuery),
			chromedp.SetValue(a.Selector, a.Value, chromedp.ByQuery),
		}, nil
	},
	ActionCheck: func(a Action) (chromedp.Action, error) {
		return chromedp.Tasks{
			chromedp.WaitVisible(a.Selector, chromedp.ByQuery),
			chromedp.Click(a.Selector, chromedp.ByQuery),
		}, nil
	},
	ActionWaitVisible: func(a Action) (chromedp.Action, error) {
		return chromedp.WaitVisible(a.Selector, chromedp.ByQuery), nil
	},
	ActionWaitHidden: func(a Action) (chromedp.Action, error) {
		return chromedp.WaitNotVisible(a.Selector, chromedp.ByQuery), nil
	},
	ActionEvaluate: func(a Action) (chromedp.Action, error) {
		return chromedp.Evaluate(a.Value, nil), nil
	},
	ActionUpload: func(a Action) (chromedp.Action, error) {
		return chromedp.Tasks{
			chromedp.WaitVisible(a.Selector, chromedp.ByQuery),
			chromedp.SetUploadFiles(a.Selector, []string{a.Value}, chromedp.ByQuery),
		}, nil
	},
	ActionSleep: func(a Action) (chromedp.Action, error) {
		d, err := time.ParseDuration(a.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid sleep duration %q: %w", a.Value, err)
		}
		return chromedp.Sleep(d), nil
	},
}

// Execute runs one action under the per-action timeout, preceded by a
// randomized human-scale delay. The delay applies to every action, not
// just typing: constant-interval interaction is the easiest automation
// signal to detect.
func (s *Session) Execute(ctx context.Context, action Action) error {
	exec, ok := executors[action.Kind]
	if !ok {
		return fmt.Errorf("unknown action kind: %s", action.Kind)
	}

	task, err := exec(action)
	if err != nil {
		return err
	}

	if err := s.humanDelay(ctx); err != nil {
		return err
	}

	actionCtx, cancel := context.WithTimeout(s.browserCtx, s.timings.actionTimeout)
	defer cancel()

	if err := chromedp.Run(actionCtx, task); err != nil {
		return fmt.Errorf("action %s on %q failed: %w", action.Kind, action.Selector, err)
	}
	return nil
}

// ExecuteAll runs a sequence of actions, stopping at the first failure
func (s *Session) ExecuteAll(ctx context.Context, actions []Action) error {
	for i, action := range actions {
		if err := s.Execute(ctx, action); err != nil {
			return fmt.Errorf("action %d/%d: %w", i+1, len(actions), err)
		}
	}
	return nil
}

// humanDelay sleeps a random interval inside the configured window
func (s *Session) humanDelay(ctx context.Context) error {
	min := s.timings.minHumanDelay
	max := s.timings.maxHumanDelay
	if max <= min {
		return nil
	}

	delay := min + time.Duration(rand.Int63n(int64(max-min)))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
