package language

import (
	"fmt"
	"strings"

	lingua "github.com/pemistahl/lingua-go"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Detector guesses the ISO 639-1 language code of post bodies among a fixed
// set of target languages.
type Detector struct {
	detector  lingua.LanguageDetector
	targets   []lingua.Language
	threshold float64
}

// NewDetector returns a detector for the given ISO 639-1 codes. English is
// always among the candidates. Texts below threshold confidence are left
// undetected.
func NewDetector(codes []string, threshold float64) (*Detector, error) {
	targets := []lingua.Language{lingua.English}
	for _, code := range codes {
		lang, ok := isoToLingua(strings.ToLower(strings.TrimSpace(code)))
		if !ok {
			return nil, fmt.Errorf("unsupported language code %q", code)
		}
		targets = append(targets, lang)
	}
	targets = lo.Uniq(targets)

	if len(targets) < 2 {
		return nil, fmt.Errorf("need at least one language besides english")
	}

	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(targets...).
			WithMinimumRelativeDistance(0.25).
			Build(),
		targets:   targets,
		threshold: threshold,
	}, nil
}

// Detect returns the code of the most likely target language of text.
func (d *Detector) Detect(text string) (string, bool) {
	if !HasEnoughLetters(text) {
		return "", false
	}

	var highestConf float64
	var detected lingua.Language
	for _, lang := range d.targets {
		conf := d.detector.ComputeLanguageConfidence(text, lang)
		if conf > highestConf {
			highestConf = conf
			detected = lang
		}
	}

	if highestConf < d.threshold {
		return "", false
	}

	log.WithFields(log.Fields{
		"language":   detected.String(),
		"confidence": highestConf,
	}).Debug("Detected language")

	return linguaToISO(detected), true
}

// HasEnoughLetters reports whether at least 30% of text are letters
func HasEnoughLetters(text string) bool {
	if len(text) == 0 {
		return false
	}

	letterCount := 0
	for _, char := range text {
		// a-z, A-Z, æøå, ÆØÅ
		if (char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			char == 'æ' || char == 'ø' || char == 'å' ||
			char == 'Æ' || char == 'Ø' || char == 'Å' {
			letterCount++
		}
	}

	ratio := float64(letterCount) / float64(len(text))
	return ratio > 0.30
}

func linguaToISO(lang lingua.Language) string {
	return strings.ToLower(lang.IsoCode639_1().String())
}

func isoToLingua(code string) (lingua.Language, bool) {
	for _, lang := range lingua.AllLanguages() {
		if linguaToISO(lang) == code {
			return lang, true
		}
	}
	return lingua.Unknown, false
}
