package services

// estimateBulletLines classifies one bullet by character length. After
// tailoring, bullets target 100-130 chars and usually wrap to 2 rendered
// lines on the document template.
func estimateBulletLines(text string, wrap2, wrap3 int) int {
	switch n := len(text); {
	case n > wrap3:
		return 3
	case n > wrap2:
		return 2
	default:
		return 1
	}
}

// estimateRenderedLines sums the wrap estimate across an entry's bullets.
// The entry's header line is accounted for by the caller.
func estimateRenderedLines(bullets []string, wrap2, wrap3 int) int {
	lines := 0
	for _, b := range bullets {
		lines += estimateBulletLines(b, wrap2, wrap3)
	}
	return lines
}
