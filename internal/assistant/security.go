package assistant

import "regexp"

// RefusalMessage is returned for input that looks like it carries secrets.
const RefusalMessage = "That message looks like it contains a secret or credential, so I did not process it. Please remove keys, tokens and passwords and try again."

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`),
	regexp.MustCompile(`(?i)aws_secret_access_key`),
	regexp.MustCompile(`-----BEGIN (?:[A-Z]+ )*PRIVATE KEY-----`),
	regexp.MustCompile(`(?i)\bbearer\s+[a-z0-9._~+/-]{16,}=*`),
	regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}`),
	regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`\bxox[abprs]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`(?i)\b(?:api[_-]?key|secret|access[_-]?token|auth[_-]?token|token|password|passwd)\s*[:=]\s*\S{6,}`),
}

// ContainsSecret reports whether message resembles a credential.
func ContainsSecret(message string) bool {
	for _, re := range secretPatterns {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}
