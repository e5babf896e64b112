package broken

// Broken does not parse.
func Broken( {
