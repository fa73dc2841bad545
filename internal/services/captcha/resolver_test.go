package captcha

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/models"
)

type stubVision struct {
	answer string
	err    error
}

func (s *stubVision) Complete(ctx context.Context, prompt string) (string, error) {
	return s.answer, s.err
}

func (s *stubVision) AnalyzeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	return s.answer, s.err
}

func (s *stubVision) Provider() interfaces.VisionProvider { return interfaces.VisionProviderClaude }
func (s *stubVision) HealthCheck(ctx context.Context) error { return nil }
func (s *stubVision) Close() error                          { return nil }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected ChallengeType
	}{
		{"no challenge", "<html><body><form></form></body></html>", ChallengeNone},
		{"image captcha", `<img id="captchaImage" src="/captcha.png">`, ChallengeImage},
		{"math captcha", `<label>Resuelva la operación</label><img src="/captcha.png">`, ChallengeMath},
		{"image grid", `<p>Seleccione las imágenes con semáforos</p><div class="captcha-grid"></div>`, ChallengeImageSelect},
		{"recaptcha widget", `<div class="g-recaptcha" data-sitekey="x"></div>`, ChallengeRecaptcha},
		{"recaptcha script", `<script src="https://www.google.com/recaptcha/api.js"></script>`, ChallengeRecaptcha},
		{"hcaptcha", `<div class="h-captcha"></div>`, ChallengeUnsupported},
		{"turnstile", `<div class="cf-turnstile"></div>`, ChallengeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.html))
		})
	}
}

func TestSolvable(t *testing.T) {
	assert.True(t, Solvable(ChallengeImage))
	assert.True(t, Solvable(ChallengeMath))
	assert.False(t, Solvable(ChallengeImageSelect))
	assert.False(t, Solvable(ChallengeRecaptcha))
	assert.False(t, Solvable(ChallengeUnsupported))
	assert.False(t, Solvable(ChallengeNone))
}

func TestSolveCleansModelAnswer(t *testing.T) {
	r := NewResolver(&stubVision{answer: "The code in the image is:\nA7 X-9Q"}, arbor.NewLogger())

	solution, err := r.Solve(context.Background(), []byte{0x89, 0x50}, ChallengeImage)
	require.NoError(t, err)
	assert.Equal(t, "A7X9Q", solution.Text)
	assert.Equal(t, "claude", solution.Provider)
}

func TestSolveMathAcceptsShortNumericAnswer(t *testing.T) {
	// "12" is two characters; the text length window must not reject it
	r := NewResolver(&stubVision{answer: "12"}, arbor.NewLogger())

	solution, err := r.Solve(context.Background(), []byte{0x89, 0x50}, ChallengeMath)
	require.NoError(t, err)
	assert.Equal(t, "12", solution.Text)
}

func TestSolveMathRejectsNonNumericAnswer(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"letters", "twelve"},
		{"mixed", "12a"},
		{"too many digits", "1234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(&stubVision{answer: tt.answer}, arbor.NewLogger())
			_, err := r.Solve(context.Background(), []byte{0x01}, ChallengeMath)
			require.Error(t, err)

			var challengeErr *models.ChallengeError
			assert.ErrorAs(t, err, &challengeErr)
		})
	}
}

func TestSolveRejectsOutOfRangeSolutions(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"too short", "ab"},
		{"too long", "abcdefghijklmnop"},
		{"unreadable", "UNREADABLE"},
		{"empty after cleaning", "???"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(&stubVision{answer: tt.answer}, arbor.NewLogger())
			_, err := r.Solve(context.Background(), []byte{0x01}, ChallengeImage)
			require.Error(t, err)

			var challengeErr *models.ChallengeError
			assert.ErrorAs(t, err, &challengeErr)
		})
	}
}

func TestSolveUnsolvableChallengeType(t *testing.T) {
	r := NewResolver(&stubVision{answer: "ABC123"}, arbor.NewLogger())

	_, err := r.Solve(context.Background(), []byte{0x01}, ChallengeImageSelect)
	require.Error(t, err)

	var challengeErr *models.ChallengeError
	require.ErrorAs(t, err, &challengeErr)
	assert.Equal(t, "captcha_unsupported", challengeErr.Kind)
}

func TestSolvePropagatesVisionErrors(t *testing.T) {
	r := NewResolver(&stubVision{err: errors.New("api down")}, arbor.NewLogger())

	_, err := r.Solve(context.Background(), []byte{0x01}, ChallengeImage)
	require.Error(t, err)

	var challengeErr *models.ChallengeError
	assert.False(t, errors.As(err, &challengeErr), "infrastructure errors must not masquerade as challenge failures")
}

func TestSolveEmptyImage(t *testing.T) {
	r := NewResolver(&stubVision{answer: "ABC123"}, arbor.NewLogger())

	_, err := r.Solve(context.Background(), nil, ChallengeImage)
	assert.Error(t, err)
}
