package butterbrot

type Real = float64

var (
	Debug = false // set to true for verbose debug output
	Color = false // set to true to colorize status reports with ANSI escapes
)
