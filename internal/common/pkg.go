package common

// UnknownStr is the fallback rendering for enum values outside their
// defined range.
const UnknownStr = "unknown"
