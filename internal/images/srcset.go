package images

import (
	"strconv"
	"strings"
)

type srcsetEntry struct {
	url        string
	widthDesc  int // Nw, 0 if absent
	densityDesc float64 // Nx, 0 if absent
}

// parseSrcset parses a srcset attribute value into its candidate entries.
func parseSrcset(value string) []srcsetEntry {
	var entries []srcsetEntry
	for _, raw := range strings.Split(value, ",") {
		fields := strings.Fields(strings.TrimSpace(raw))
		if len(fields) == 0 {
			continue
		}
		entry := srcsetEntry{url: fields[0]}
		if len(fields) > 1 {
			desc := fields[1]
			switch {
			case strings.HasSuffix(desc, "w"):
				if n, err := strconv.Atoi(strings.TrimSuffix(desc, "w")); err == nil {
					entry.widthDesc = n
				}
			case strings.HasSuffix(desc, "x"):
				if f, err := strconv.ParseFloat(strings.TrimSuffix(desc, "x"), 64); err == nil {
					entry.densityDesc = f
				}
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// bestSrcsetEntry picks the entry most likely to be a usable article image:
// the width descriptor closest to 1000 (ties toward the larger width), else
// the largest density descriptor, else the last entry listed.
func bestSrcsetEntry(entries []srcsetEntry) string {
	if len(entries) == 0 {
		return ""
	}

	hasWidth := false
	for _, e := range entries {
		if e.widthDesc > 0 {
			hasWidth = true
			break
		}
	}
	if hasWidth {
		best := entries[0]
		bestDist := widthDistance(best)
		for _, e := range entries[1:] {
			dist := widthDistance(e)
			if dist < bestDist || (dist == bestDist && e.widthDesc > best.widthDesc) {
				best = e
				bestDist = dist
			}
		}
		return best.url
	}

	hasDensity := false
	for _, e := range entries {
		if e.densityDesc > 0 {
			hasDensity = true
			break
		}
	}
	if hasDensity {
		best := entries[0]
		for _, e := range entries[1:] {
			if e.densityDesc > best.densityDesc {
				best = e
			}
		}
		return best.url
	}

	return entries[len(entries)-1].url
}

func widthDistance(e srcsetEntry) int {
	d := e.widthDesc - 1000
	if d < 0 {
		d = -d
	}
	return d
}
