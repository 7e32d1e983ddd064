package statement

import (
	"regexp"
	"strings"
)

// Phone numbers appear in statement details either in the national format
// (0 followed by 9 digits) or the international format (254 followed by 9
// digits). No normalization happens here; the scorer normalizes both sides.
var phonePattern = regexp.MustCompile(`(?:254|0)\d{9}`)

// Sender names follow a "received from" anchor and run until the next digit.
var senderPattern = regexp.MustCompile(`(?i)received\s+from\s+([A-Za-z][A-Za-z ]*)`)

// Extract pulls the payer phone number and sender name out of a free-text
// statement description. Either result may be empty. The function is pure so
// format drift can be caught by unit tests against fixed strings.
func Extract(description string) (phone, senderName string) {
	phone = phonePattern.FindString(description)

	if m := senderPattern.FindStringSubmatch(description); m != nil {
		senderName = strings.TrimSpace(m[1])
	}
	return phone, senderName
}
