package grading

// Letter maps a percentage to a letter grade with strict >= breakpoints:
// exactly 90.0 is an A-, 89.99 is a B+. Quiz attempts and assignment
// submissions share this one table.
func Letter(pct float64) string {
	switch {
	case pct >= 97:
		return "A+"
	case pct >= 93:
		return "A"
	case pct >= 90:
		return "A-"
	case pct >= 87:
		return "B+"
	case pct >= 83:
		return "B"
	case pct >= 80:
		return "B-"
	case pct >= 77:
		return "C+"
	case pct >= 73:
		return "C"
	case pct >= 70:
		return "C-"
	case pct >= 67:
		return "D+"
	case pct >= 63:
		return "D"
	case pct >= 60:
		return "D-"
	default:
		return "F"
	}
}
