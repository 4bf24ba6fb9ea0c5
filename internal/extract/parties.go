package extract

import (
	"regexp"
	"strings"
)

const companyName = `([A-Z][A-Za-z&' ]*?(?:Ltd|Limited|Inc|Corporation|Company)\.?)`

var partyPatterns = []struct {
	role string
	re   *regexp.Regexp
}{
	{"insurer", regexp.MustCompile(`(?i:insurer|underwriter)s?[\s:]+` + companyName)},
	{"broker", regexp.MustCompile(`(?i:broker|agent)s?[\s:]+` + companyName)},
	{"assured", regexp.MustCompile(`(?i:assured|insured)[\s:]+` + companyName)},
}

var claimReference = regexp.MustCompile(`(?i)\b(?:claim|policy|reference)\s*(?:no\.?|number|#)\s*:?\s*([A-Za-z0-9][A-Za-z0-9/-]*)`)

// extractParties returns the first company named after each role label
func extractParties(text string) map[string]string {
	parties := make(map[string]string)
	for _, p := range partyPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			parties[p.role] = strings.TrimSpace(m[1])
		}
	}
	return parties
}

// countClaimReferences counts distinct claim, policy and reference numbers
func countClaimReferences(text string) int {
	seen := make(map[string]bool)
	for _, m := range claimReference.FindAllStringSubmatch(text, -1) {
		ref := strings.ToUpper(strings.Trim(m[1], "-/"))
		if strings.IndexFunc(ref, isDigit) < 0 {
			continue
		}
		seen[ref] = true
	}
	return len(seen)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
