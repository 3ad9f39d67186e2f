package fieldmap

import "regexp"

// Canonical field kinds recognized without any generative help. Matching is
// cheap regex over label, name and element id; the first hit wins, so the
// table is ordered most-specific first ("email" must beat "location"'s
// "address" on an Email Address field).
var classifyTable = []struct {
	key      string
	patterns []*regexp.Regexp
}{
	{"first_name", compilePatterns(`first\s*name`, `fname`, `given\s*name`)},
	{"last_name", compilePatterns(`last\s*name`, `lname`, `surname`, `family\s*name`)},
	{"full_name", compilePatterns(`^name$`, `full\s*name`, `candidate\s*name`)},
	{"email", compilePatterns(`email`, `e-mail`)},
	{"phone", compilePatterns(`phone`, `mobile`, `cell`, `contact\s*number`)},
	{"linkedin", compilePatterns(`linkedin`)},
	{"github", compilePatterns(`github`)},
	{"portfolio", compilePatterns(`portfolio`, `website`, `personal\s*site`)},
	{"resume", compilePatterns(`resume`, `\bcv\b`, `curriculum\s*vitae`)},
	{"cover_letter", compilePatterns(`cover\s*letter`)},
	{"work_authorization", compilePatterns(`authorized\s*to\s*work`, `work\s*authorization`, `legally\s*authorized`)},
	{"sponsorship", compilePatterns(`sponsorship`, `require.*sponsor`, `\bvisa\b`)},
	{"salary", compilePatterns(`salary`, `compensation`, `pay\s*expectation`)},
	{"start_date", compilePatterns(`start\s*date`, `available\s*from`, `when\s*can\s*you\s*start`)},
	{"school", compilePatterns(`university`, `college`, `\bschool\b`, `institution`)},
	{"company", compilePatterns(`current\s*company`, `company\s*name`, `employer`)},
	{"title", compilePatterns(`job\s*title`, `current\s*title`, `position`)},
	{"location", compilePatterns(`location`, `\bcity\b`, `address`)},
}

func compilePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+e))
	}
	return out
}

// Classify maps a field to a canonical kind from its label, name or id.
// Returns "" when nothing matches; callers fall through to alias and
// generative resolution.
func Classify(label, name, id string) string {
	signals := []string{label, name, id}
	for _, entry := range classifyTable {
		for _, re := range entry.patterns {
			for _, s := range signals {
				if s != "" && re.MatchString(s) {
					return entry.key
				}
			}
		}
	}
	return ""
}

// classifyField runs Classify over a field's own signals.
func classifyField(f Field) string {
	return Classify(f.Label, f.Name, f.ID)
}
