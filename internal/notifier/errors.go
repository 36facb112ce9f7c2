package notifier

// invalidPolicyError signals an unknown failure policy name.
type invalidPolicyError struct{ value string }

func (e invalidPolicyError) Error() string { return "invalid failure policy: " + e.value }

// IsInvalidPolicy reports whether err came from ParseFailurePolicy rejecting its input.
func IsInvalidPolicy(err error) bool {
	_, ok := err.(invalidPolicyError)
	return ok
}
