// -----------------------------------------------------------------------
// Step pipeline - runs the ordered filing stages against an open portal
// session, preserving a screenshot trail and aborting on first failure
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/models"
	"github.com/prolabora/concilia/internal/services/browser"
	"github.com/prolabora/concilia/internal/services/captcha"
)

const (
	captchaImageSelector = "#imgCaptcha"
	captchaInputSelector = "#inputCaptcha"
	submitSelector       = "#btnEnviarSolicitud"
	confirmationAnchor   = "#acuseRecibo"
)

// StepObserver receives each stage outcome as it happens. The orchestrator
// uses it to persist screenshots, advance progress and append job logs.
type StepObserver func(result models.StepResult)

// Runner executes the filing sequence on one browser session
type Runner struct {
	session  *browser.Session
	resolver *captcha.Resolver
	logger   arbor.ILogger
	observe  StepObserver
}

// NewRunner creates a pipeline runner bound to a session
func NewRunner(session *browser.Session, resolver *captcha.Resolver, logger arbor.ILogger, observe StepObserver) *Runner {
	if observe == nil {
		observe = func(models.StepResult) {}
	}
	return &Runner{
		session:  session,
		resolver: resolver,
		logger:   logger,
		observe:  observe,
	}
}

// Run executes every stage in order. The context is checked at each stage
// boundary so cancellation takes effect before new portal work starts.
// The first stage failure aborts the whole run; the screenshot trail up
// to and including the failed stage is preserved through the observer.
func (r *Runner) Run(ctx context.Context, c *models.CaseSnapshot, modality string) error {
	for _, stage := range Stages() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.runStage(ctx, stage, c, modality); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runStage(ctx context.Context, stage Stage, c *models.CaseSnapshot, modality string) error {
	r.logger.Debug().Str("stage", string(stage.Name)).Msg("Stage starting")

	fail := func(err error) error {
		stageErr := &models.StageError{Stage: stage.Name, Err: err}
		// Capture the page as it failed; best effort
		shot, shotErr := r.session.Screenshot()
		if shotErr != nil {
			r.logger.Warn().Err(shotErr).Str("stage", string(stage.Name)).Msg("Failure screenshot unavailable")
		}
		r.observe(models.StepResult{
			Stage:      stage.Name,
			Success:    false,
			Error:      stageErr.Error(),
			Screenshot: shot,
		})
		return stageErr
	}

	// Wait for the stage's anchor field to render
	if err := r.session.Execute(ctx, browser.Action{Kind: browser.ActionWaitVisible, Selector: stage.Anchor}); err != nil {
		return fail(fmt.Errorf("anchor never appeared: %w", err))
	}

	if actions := stage.Build(c, modality); len(actions) > 0 {
		if err := r.session.ExecuteAll(ctx, actions); err != nil {
			return fail(err)
		}
	}

	// The final stage clears any challenge and submits instead of advancing
	if stage.Name == models.StepSubmit {
		if err := r.submit(ctx); err != nil {
			return fail(err)
		}
	} else if stage.Advance != "" {
		if err := r.session.Execute(ctx, browser.Action{Kind: browser.ActionClick, Selector: stage.Advance}); err != nil {
			return fail(fmt.Errorf("advance control failed: %w", err))
		}
	}

	shot, err := r.session.Screenshot()
	if err != nil {
		r.logger.Warn().Err(err).Str("stage", string(stage.Name)).Msg("Stage screenshot unavailable")
	}
	r.observe(models.StepResult{
		Stage:      stage.Name,
		Success:    true,
		Screenshot: shot,
		Advanced:   true,
	})

	r.logger.Debug().Str("stage", string(stage.Name)).Msg("Stage completed")
	return nil
}

// submit clears a verification challenge if one is present, then sends
// the solicitud and waits for the confirmation page
func (r *Runner) submit(ctx context.Context) error {
	html, err := r.session.HTML()
	if err != nil {
		return fmt.Errorf("failed to inspect review page: %w", err)
	}

	switch challenge := captcha.Classify(html); {
	case challenge == captcha.ChallengeNone:
		// No gate on this portal today
	case captcha.Solvable(challenge):
		if err := r.solveChallenge(ctx, challenge); err != nil {
			return err
		}
	default:
		return &models.ChallengeError{
			Kind:   "captcha_unsupported",
			Detail: fmt.Sprintf("challenge type %s cannot be solved without user interaction", challenge),
		}
	}

	if err := r.session.Execute(ctx, browser.Action{Kind: browser.ActionClick, Selector: submitSelector}); err != nil {
		return fmt.Errorf("submit click failed: %w", err)
	}

	// The portal renders the acuse block only after the filing is accepted
	if err := r.session.Execute(ctx, browser.Action{Kind: browser.ActionWaitVisible, Selector: confirmationAnchor}); err != nil {
		return &models.ChallengeError{
			Kind:   "blocked",
			Detail: "confirmation page never rendered; submission likely rejected",
		}
	}
	return nil
}

func (r *Runner) solveChallenge(ctx context.Context, challenge captcha.ChallengeType) error {
	image, err := r.session.ElementScreenshot(captchaImageSelector)
	if err != nil {
		return fmt.Errorf("failed to capture challenge image: %w", err)
	}

	solution, err := r.resolver.Solve(ctx, image, challenge)
	if err != nil {
		return err
	}

	if err := r.session.Execute(ctx, browser.Action{
		Kind:     browser.ActionType,
		Selector: captchaInputSelector,
		Value:    solution.Text,
	}); err != nil {
		return fmt.Errorf("failed to enter challenge solution: %w", err)
	}

	r.logger.Info().Str("provider", solution.Provider).Msg("Verification challenge solved")
	return nil
}
