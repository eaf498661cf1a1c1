package utils

// MergeJSONObjects concatenates the members of two compact JSON objects
// into one object. Both inputs must be encoder output ("{...}" with no
// surrounding whitespace); duplicate keys are the caller's problem.
func MergeJSONObjects(a, b []byte) []byte {
	if isEmptyObject(a) {
		return b
	}
	if isEmptyObject(b) {
		return a
	}

	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a[:len(a)-1]...)
	out = append(out, ',')
	out = append(out, b[1:]...)
	return out
}

func isEmptyObject(obj []byte) bool {
	return len(obj) <= 2
}
