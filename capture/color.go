package capture

// hasGoodBlackLevel reports whether auto exposure has settled, judged by the
// share of dark samples.
func hasGoodBlackLevel(img []byte) bool {
	if len(img) == 0 {
		return false
	}
	dark := 0
	total := len(img)
	for i := 0; i < total; i++ {
		if img[i] < 80 {
			dark++
		}
	}
	darkness := float64(dark) / float64(total)
	return darkness > 0.1 && darkness < 0.7
}
