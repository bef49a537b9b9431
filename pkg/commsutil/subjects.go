package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectBulkActions = "cap.admin.bulk_actions.v1"
	SubjectDispatched  = "bulkactions.dispatched"
)

// BuildDispatchedSubject builds the per-scope subject dispatch events are published on.
// Tokens are sanitised so subtypes containing dots or spaces stay a single subject token.
func BuildDispatchedSubject(objectType, objectSubtype string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectDispatched, subjectToken(objectType), subjectToken(objectSubtype))
}

func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	r := strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")
	return r.Replace(s)
}
