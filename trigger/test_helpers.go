package trigger

import "github.com/stretchr/testify/mock"

// MatchRecord creates a custom matcher for audit record arguments in mocks
func MatchRecord(matcher func(AuditRecord) bool) interface{} {
	return mock.MatchedBy(matcher)
}
