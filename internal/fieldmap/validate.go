package fieldmap

import (
	"regexp"
	"strings"
)

var (
	digitsRe     = regexp.MustCompile(`\d+`)
	allDigitsRe  = regexp.MustCompile(`^\d+$`)
	yearRe       = regexp.MustCompile(`(19|20)\d{2}`)
	phoneShapeRe = regexp.MustCompile(`^[0-9\s\-\+\(\)\.]{7,}$`)
)

// Generative output is never trusted as-is. cleanResult runs the type-specific
// validators over a model-produced resolution and either repairs the value or
// nulls it. The returned rejection string is non-empty when a value was
// discarded, for logging only.
func cleanResult(f Field, res resolution) (resolution, string) {
	if !res.hasValue() {
		return res, ""
	}
	value := strings.TrimSpace(*res.value)
	text := f.searchText()
	kind := classifyField(f)

	if rejectsPhoneShape(kind, text) && phoneShaped(value) {
		return nullified(res, "value rejected by field type check"), "phone shaped value in " + displayKind(kind, text) + " field"
	}

	if isExperienceYears(text) || strings.EqualFold(f.Type, "number") {
		if m := digitsRe.FindString(value); m != "" {
			if m != value {
				res.value = strPtr(m)
				res.reason = "extracted number from: " + value
			}
			return res, ""
		}
		if strings.EqualFold(f.Type, "number") {
			return nullified(res, "no numeric content"), "non numeric value for numeric field"
		}
	}

	if expectsCalendarYear(text) && !allDigitsRe.MatchString(value) {
		if y := yearRe.FindString(value); y != "" {
			res.value = strPtr(y)
			if res.confidence > 0.9 {
				res.confidence = 0.9
			}
			res.reason = "salvaged year from: " + value
			return res, ""
		}
		return nullified(res, "no year found"), "free text where a year was expected"
	}

	if isChoiceField(f) {
		return matchOption(f, res, value, text)
	}

	return res, ""
}

func nullified(res resolution, reason string) resolution {
	res.value = nil
	res.confidence = 0
	res.reason = reason
	res.profileKey = ""
	return res
}

// matchOption forces a choice-field value into the given option list:
// exact, then case/apostrophe-insensitive, then substring against
// semantically compatible options, else null. An invented string must never
// reach the form.
func matchOption(f Field, res resolution, value, text string) (resolution, string) {
	for _, opt := range f.Options {
		if opt == value {
			return res, ""
		}
	}
	folded := foldOption(value)
	for _, opt := range f.Options {
		if foldOption(opt) == folded {
			res.value = strPtr(opt)
			if res.confidence > 0.95 {
				res.confidence = 0.95
			}
			res.reason = "matched to dropdown option: " + opt
			return res, ""
		}
	}
	countryField := isCountryField(text)
	for _, opt := range f.Options {
		optFolded := foldOption(opt)
		if optFolded == "" {
			continue
		}
		if !strings.Contains(optFolded, folded) && !strings.Contains(folded, optFolded) {
			continue
		}
		if countryField && incompatibleCountryOption(optFolded) {
			continue
		}
		res.value = strPtr(opt)
		if res.confidence > 0.85 {
			res.confidence = 0.85
		}
		res.reason = "partial match to dropdown option: " + opt
		return res, ""
	}
	return nullified(res, "no matching option"), "value not among options"
}

func rejectsPhoneShape(kind, text string) bool {
	switch kind {
	case "first_name", "last_name", "full_name", "email", "school":
		return true
	}
	return strings.Contains(text, "school") || strings.Contains(text, "university") || strings.Contains(text, "college")
}

func phoneShaped(value string) bool {
	if !phoneShapeRe.MatchString(value) {
		return false
	}
	digits := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7
}

func displayKind(kind, text string) string {
	if kind != "" {
		return strings.ReplaceAll(kind, "_", " ")
	}
	if strings.Contains(text, "school") || strings.Contains(text, "university") || strings.Contains(text, "college") {
		return "school"
	}
	return "text"
}

func isExperienceYears(text string) bool {
	return strings.Contains(text, "experience") && strings.Contains(text, "year")
}

func expectsCalendarYear(text string) bool {
	for _, kw := range []string{"graduation year", "grad year", "year of graduation", "start year", "end year"} {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func isChoiceField(f Field) bool {
	if len(f.Options) == 0 {
		return false
	}
	switch strings.ToLower(f.Type) {
	case "select", "select-one", "combobox", "dropdown", "radio":
		return true
	}
	return false
}

func isCountryField(text string) bool {
	for _, kw := range []string{"country", "location", "nationality", "citizenship"} {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Country dropdowns are full of options that substring-match real countries
// without meaning them ("United States Minor Outlying Islands" for "United
// States"). Those never get picked by partial match.
func incompatibleCountryOption(optFolded string) bool {
	for _, kw := range []string{"territory", "territories", "ocean", "island"} {
		if strings.Contains(optFolded, kw) {
			return true
		}
	}
	return false
}

func foldOption(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")
	return strings.Join(strings.Fields(s), " ")
}
