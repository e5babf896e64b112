package hidden

// Hidden lives in a hidden directory.
func Hidden() {}
