package langid

// Result is the outcome of a detection. Either field may be absent: Language
// when no speech was found, Confidence when the backend does not report one.
type Result struct {
	Language   *string
	Confidence *float64
}

// Detected returns a Result with both fields present. p is clamped to [0, 1].
func Detected(lang string, p float64) Result {
	switch {
	case p != p: // NaN
		p = 0
	case p < 0:
		p = 0
	case p > 1:
		p = 1
	}
	return Result{Language: &lang, Confidence: &p}
}

// LanguageOnly returns a Result without a confidence.
func LanguageOnly(lang string) Result {
	return Result{Language: &lang}
}

// Score returns the confidence, treating an absent one as 0.
func (r Result) Score() float64 {
	if r.Confidence == nil {
		return 0
	}
	return *r.Confidence
}
