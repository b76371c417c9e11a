package types

import "regexp"

// redactedPlaceholder is the string used to replace secret values in logs and serialization.
const redactedPlaceholder = "***REDACTED***"

// redactedJSON is the pre-computed JSON encoding of the redacted placeholder.
var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString is a string type that prevents accidental logging or serialization
// of sensitive values. It overrides String() and MarshalJSON() to return a redacted
// placeholder, ensuring secrets are never leaked through fmt functions or JSON output.
//
// Use Unmask() to retrieve the raw plaintext value when it is genuinely needed
// (e.g., passing to an HTTP client in an Authorization header).
type SecretString string

// String returns a redacted placeholder instead of the raw value.
// This is invoked by fmt.Sprintf, fmt.Println, and any other function
// that uses the fmt.Stringer interface.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string.
// This prevents secret values from being included in JSON-serialized
// config dumps, API responses, or structured log entries.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// Unmask returns the raw plaintext value of the secret.
// Usage of this method should be strictly audited and limited to cases
// where the actual secret value is required.
func (s SecretString) Unmask() string {
	return string(s)
}

// credentialPatterns matches credential fragments that upstream error bodies
// have been observed to echo back: API keys passed as query parameters,
// bearer tokens, and Google-style "AIza..." keys.
var credentialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(key|token|apikey|api_key)=[\w-]+`),
	regexp.MustCompile(`(?i)bearer\s+[\w.~+/-]+`),
	regexp.MustCompile(`AIza[\w-]{10,}`),
}

// RedactCredentials strips credential fragments from text before it is
// included in any client-facing error body or log entry. Upstream services
// sometimes echo the full request URL, key included, into their error
// messages; everything matching a known credential shape is replaced.
func RedactCredentials(text string) string {
	for _, p := range credentialPatterns {
		text = p.ReplaceAllString(text, redactedPlaceholder)
	}
	return text
}
