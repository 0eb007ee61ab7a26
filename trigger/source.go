package trigger

/* Source tells which resolution branch produced a target
 * Directory targets come from an admin session, Environment targets from the shared secret
 */
type Source int

const (
	FromDirectory Source = iota + 1
	FromEnvironment
)

// EnvironmentTargetName is the synthetic name of the environment webhook
const EnvironmentTargetName = "env:GO_LIVE_WEBHOOK_URL"

// String returns the string representation of the source
func (s Source) String() string {
	switch s {
	case FromDirectory:
		return "directory"
	case FromEnvironment:
		return "environment"
	default:
		return "unknown"
	}
}
