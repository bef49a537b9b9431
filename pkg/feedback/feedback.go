// Package feedback carries a dispatch outcome across one redirect as query
// parameters and turns it back into a notice.
package feedback

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/morezero/bulk-actions/pkg/dispatcher"
)

const logPrefix = "feedback:feedback"

// Signal field names.
const (
	FieldDone    = "bulk_action_done"
	FieldCount   = "bulk_action_count"
	FieldError   = "bulk_action_error"
	FieldMessage = "bulk_action_message"
)

// Notice classes.
const (
	ClassSuccess = "success"
	ClassError   = "error"
)

var fields = []string{FieldDone, FieldCount, FieldError, FieldMessage}

// Notice is the user-facing message decoded from a signal.
type Notice struct {
	Action      string `json:"action"`
	Class       string `json:"class"`
	Text        string `json:"text"`
	Count       int    `json:"count"`
	Dismissible bool   `json:"dismissible"`
}

// KnownActions answers whether an action key is registered in the current scope.
type KnownActions interface {
	Has(key string) bool
}

// Signal is the decoded transport form of an outcome.
type Signal struct {
	Done    string
	Count   int
	Error   bool
	Message string
}

// Encode appends the outcome's fields to target's query, replacing any earlier
// signal. The rest of target is kept byte for byte. Unhandled outcomes return
// target unchanged.
func Encode(outcome dispatcher.Outcome, target string) string {
	if !outcome.Handled() {
		return target
	}

	pairs := []string{
		FieldDone + "=" + url.QueryEscape(outcome.Action),
		FieldCount + "=" + strconv.Itoa(outcome.Count),
	}
	if outcome.Error {
		pairs = append(pairs, FieldError+"=1")
	}
	if outcome.Message != "" {
		pairs = append(pairs, FieldMessage+"="+url.QueryEscape(outcome.Message))
	}

	base, query, fragment := splitTarget(target)
	query, _ = stripRaw(query)
	if query != "" {
		query += "&"
	}
	return base + "?" + query + strings.Join(pairs, "&") + fragment
}

// Parse reads a signal from query values. ok is false when no done field is present.
func Parse(values url.Values) (sig Signal, ok bool) {
	done := sanitizeKey(values.Get(FieldDone))
	if done == "" {
		return Signal{}, false
	}
	sig = Signal{
		Done:    done,
		Count:   absInt(values.Get(FieldCount)),
		Message: values.Get(FieldMessage),
	}
	_, sig.Error = values[FieldError]
	return sig, true
}

// Decode turns query values into a Notice. It returns nil when there is no
// signal or the signal names an action that known does not contain.
func Decode(values url.Values, known KnownActions) *Notice {
	sig, ok := Parse(values)
	if !ok {
		return nil
	}
	if known == nil || !known.Has(sig.Done) {
		slog.Debug(fmt.Sprintf("%s - ignoring signal for unknown action %q", logPrefix, sig.Done))
		return nil
	}

	text := sig.Message
	if text == "" {
		text = DefaultMessage(sig.Count)
	}
	class := ClassSuccess
	if sig.Error {
		class = ClassError
	}
	return &Notice{
		Action:      sig.Done,
		Class:       class,
		Text:        text,
		Count:       sig.Count,
		Dismissible: true,
	}
}

// Strip removes every signal field from target so it is not carried into the
// next redirect. Other parameters are left as they were.
func Strip(target string) string {
	base, query, fragment := splitTarget(target)
	query, found := stripRaw(query)
	if !found {
		return target
	}
	if query == "" {
		return base + fragment
	}
	return base + "?" + query + fragment
}

// splitTarget cuts target into the part before '?', the raw query and the
// fragment (including its '#').
func splitTarget(target string) (base, query, fragment string) {
	base = target
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base, fragment = base[:i], base[i:]
	}
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base, query = base[:i], base[i+1:]
	}
	return base, query, fragment
}

// stripRaw drops the '&'-separated pairs of a raw query whose key is a signal
// field. Every other pair is kept verbatim.
func stripRaw(query string) (string, bool) {
	if query == "" {
		return "", false
	}
	kept := make([]string, 0, 4)
	found := false
	for _, pair := range strings.Split(query, "&") {
		if isSignalKey(pair) {
			found = true
			continue
		}
		kept = append(kept, pair)
	}
	if !found {
		return query, false
	}
	return strings.Join(kept, "&"), true
}

func isSignalKey(pair string) bool {
	key := pair
	if i := strings.IndexByte(key, '='); i >= 0 {
		key = key[:i]
	}
	if k, err := url.QueryUnescape(key); err == nil {
		key = k
	}
	for _, f := range fields {
		if key == f {
			return true
		}
	}
	return false
}

// DefaultMessage is the pluralised count message used when a handler supplies none.
func DefaultMessage(count int) string {
	if count == 1 {
		return "1 item processed."
	}
	return fmt.Sprintf("%d items processed.", count)
}

// sanitizeKey lowercases s and drops everything outside [a-z0-9_-].
func sanitizeKey(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// absInt parses the leading integer of s and returns its absolute value, or 0.
func absInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && s[end] == '-') {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	if n < 0 {
		return -n
	}
	return n
}
