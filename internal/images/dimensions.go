package images

import (
	"net/url"
	"regexp"
	"strconv"
)

var reDimensionPattern = regexp.MustCompile(`\b(\d{3,4})x(\d{3,4})\b`)

// backfillDimensions infers width/height from the URL when the tag itself
// carried no dimension attributes: first an embedded \bNxN\b pattern (common
// in CDN path segments), else w=/width=/h=/height= query parameters.
func backfillDimensions(rawURL string) (width, height int) {
	if m := reDimensionPattern.FindStringSubmatch(rawURL); m != nil {
		w, errW := strconv.Atoi(m[1])
		h, errH := strconv.Atoi(m[2])
		if errW == nil && errH == nil {
			return w, h
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, 0
	}
	q := u.Query()
	w := firstIntParam(q, "w", "width")
	h := firstIntParam(q, "h", "height")
	return w, h
}

func firstIntParam(q url.Values, keys ...string) int {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return 0
}
