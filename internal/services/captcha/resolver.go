// -----------------------------------------------------------------------
// Captcha resolver - reads portal challenge images with a vision model
// -----------------------------------------------------------------------

package captcha

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/models"
)

const (
	// Portal text captchas are short alphanumeric codes. Anything outside
	// this range is a misread, not a valid solution.
	minSolutionLen = 3
	maxSolutionLen = 10

	// Arithmetic challenges resolve to small numbers
	maxMathSolutionLen = 6
)

// ChallengeType classifies what kind of anti-automation gate is on the page
type ChallengeType string

const (
	ChallengeNone        ChallengeType = "none"
	ChallengeImage       ChallengeType = "image"
	ChallengeMath        ChallengeType = "math"
	ChallengeImageSelect ChallengeType = "image_select"
	ChallengeRecaptcha   ChallengeType = "recaptcha"
	ChallengeUnsupported ChallengeType = "unsupported"
)

// Known challenge markers in portal markup. First match wins, so the
// specific markers come before the generic "captcha" catch-all.
var challengeMarkers = []struct {
	Marker string
	Type   ChallengeType
}{
	{"g-recaptcha", ChallengeRecaptcha},
	{"recaptcha/api.js", ChallengeRecaptcha},
	{"h-captcha", ChallengeUnsupported},
	{"cf-turnstile", ChallengeUnsupported},
	{"seleccione las imágenes", ChallengeImageSelect},
	{"seleccione todas las imágenes", ChallengeImageSelect},
	{"select all images", ChallengeImageSelect},
	{"resuelva la operación", ChallengeMath},
	{"resuelve la operación", ChallengeMath},
	{"cuánto es", ChallengeMath},
	{"captcha", ChallengeImage},
}

var (
	nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)
	allDigits       = regexp.MustCompile(`^\d+$`)
)

// Resolver solves image and arithmetic captchas through the vision
// service. Challenge types that need real user interaction (reCAPTCHA
// checkboxes, turnstile, image grids) are reported as unsupported so the
// job fails with a clear reason instead of looping.
type Resolver struct {
	vision interfaces.VisionService
	logger arbor.ILogger
}

// NewResolver creates a new captcha resolver
func NewResolver(vision interfaces.VisionService, logger arbor.ILogger) *Resolver {
	return &Resolver{
		vision: vision,
		logger: logger,
	}
}

// Classify inspects page HTML and reports what challenge, if any, is present
func Classify(html string) ChallengeType {
	lower := strings.ToLower(html)
	for _, m := range challengeMarkers {
		if strings.Contains(lower, m.Marker) {
			return m.Type
		}
	}
	return ChallengeNone
}

// Solvable reports whether the resolver can clear this challenge type
// without user interaction
func Solvable(challenge ChallengeType) bool {
	return challenge == ChallengeImage || challenge == ChallengeMath
}

// Solve reads a challenge image and returns the cleaned solution text.
// The prompt and the plausibility check both depend on the challenge
// type: distorted-text codes are 3-10 alphanumerics, arithmetic answers
// are short digit runs.
func (r *Resolver) Solve(ctx context.Context, image []byte, challenge ChallengeType) (*models.CaptchaSolution, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("challenge image is empty")
	}
	if !Solvable(challenge) {
		return nil, &models.ChallengeError{
			Kind:   "captcha_unsupported",
			Detail: fmt.Sprintf("challenge type %s cannot be solved without user interaction", challenge),
		}
	}

	answer, err := r.vision.AnalyzeImage(ctx, image, promptFor(challenge))
	if err != nil {
		return nil, fmt.Errorf("vision model failed to read challenge: %w", err)
	}

	cleaned := CleanSolution(answer)
	if cleaned == "" || strings.EqualFold(cleaned, "UNREADABLE") {
		return nil, &models.ChallengeError{
			Kind:   "captcha_" + string(challenge),
			Detail: "model could not read the challenge image",
		}
	}
	if err := checkSolution(cleaned, challenge); err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("challenge", string(challenge)).
		Int("length", len(cleaned)).
		Str("provider", string(r.vision.Provider())).
		Msg("Challenge image solved")

	return &models.CaptchaSolution{
		Text:       cleaned,
		Confidence: 0.9,
		Provider:   string(r.vision.Provider()),
	}, nil
}

// promptFor returns the vision prompt for a solvable challenge type
func promptFor(challenge ChallengeType) string {
	if challenge == ChallengeMath {
		return "This image shows an arithmetic problem. Solve it and reply with ONLY the numeric result, " +
			"nothing else. If you cannot read it, reply with UNREADABLE."
	}
	return "This image contains a CAPTCHA. Reply with ONLY the characters shown, nothing else. " +
		"Read character by character and be careful with similar glyphs: 0 vs O, 1 vs I vs l, 5 vs S. " +
		"If the image shows an arithmetic problem instead, reply with only the numeric result. " +
		"If you cannot read it, reply with UNREADABLE."
}

// checkSolution rejects answers that cannot be valid for the challenge
// type. Math answers like "12" are shorter than any text code, so the
// text length window never applies to them.
func checkSolution(cleaned string, challenge ChallengeType) error {
	if challenge == ChallengeMath {
		if !allDigits.MatchString(cleaned) || len(cleaned) > maxMathSolutionLen {
			return &models.ChallengeError{
				Kind:   "captcha_math",
				Detail: fmt.Sprintf("answer %q is not a plausible arithmetic result", cleaned),
			}
		}
		return nil
	}
	if len(cleaned) < minSolutionLen || len(cleaned) > maxSolutionLen {
		return &models.ChallengeError{
			Kind:   "captcha_image",
			Detail: fmt.Sprintf("solution length %d outside expected range [%d,%d]", len(cleaned), minSolutionLen, maxSolutionLen),
		}
	}
	return nil
}

// CleanSolution strips everything but alphanumerics from a model answer
func CleanSolution(answer string) string {
	// Keep only the last line; models sometimes preface with commentary
	lines := strings.Split(strings.TrimSpace(answer), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	return nonAlphanumeric.ReplaceAllString(last, "")
}
