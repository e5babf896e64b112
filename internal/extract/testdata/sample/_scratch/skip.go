package scratch

// Skipped lives in an underscore directory.
func Skipped() {}
