package fonts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// widthRange is a run of CIDs starting at Start. Interval marks a run
// of one repeated width.
type widthRange struct {
	Start    int   `json:"start"`
	Widths   []int `json:"widths"`
	Interval bool  `json:"interval,omitempty"`
}

// rangeState is the collapse state after a prefix of CIDs. The state
// after CID 127 depends only on the width table and is cached.
type rangeState struct {
	Ranges    []widthRange `json:"ranges"`
	PrevCID   int          `json:"prevcid"`
	PrevWidth int          `json:"prevwidth"`
	Interval  bool         `json:"interval"`
}

func newRangeState() *rangeState {
	return &rangeState{PrevCID: -2, PrevWidth: -1}
}

func (s *rangeState) clone() *rangeState {
	c := *s
	c.Ranges = make([]widthRange, len(s.Ranges))
	for i, r := range s.Ranges {
		r.Widths = append([]int(nil), r.Widths...)
		c.Ranges[i] = r
	}
	return &c
}

func (s *rangeState) add(cid, width int) {
	cur := len(s.Ranges) - 1
	switch {
	case cid != s.PrevCID+1:
		s.Ranges = append(s.Ranges, widthRange{Start: cid, Widths: []int{width}})
		s.Interval = false
	case width == s.PrevWidth:
		if r := &s.Ranges[cur]; width == r.Widths[0] {
			r.Widths = append(r.Widths, width)
			r.Interval = true
		} else {
			// The previous CID opens a new interval.
			r.Widths = r.Widths[:len(r.Widths)-1]
			s.Ranges = append(s.Ranges, widthRange{Start: s.PrevCID, Widths: []int{s.PrevWidth, width}, Interval: true})
		}
		s.Interval = true
	default:
		if s.Interval {
			s.Ranges = append(s.Ranges, widthRange{Start: cid, Widths: []int{width}})
		} else {
			s.Ranges[cur].Widths = append(s.Ranges[cur].Widths, width)
		}
		s.Interval = false
	}
	s.PrevCID = cid
	s.PrevWidth = width
}

// WidthArray returns the /W array of a TTF font: widths of CIDs 1
// through 255 plus every drawn CID above, with runs of one width
// collapsed to "first last w". The state after CID 127 is cached per font
// file when the cache has a directory.
func (c *MetricsCache) WidthArray(f *Font, maxUni rune) string {
	state, start := c.loadRanges(f.File)
	fresh := start == 1

	for cid := start; cid <= int(maxUni) && 2*cid+1 < len(f.CW); cid++ {
		if cid == 128 && fresh {
			c.saveRanges(f.File, state)
			fresh = false
		}
		w := int(f.CW[2*cid])<<8 | int(f.CW[2*cid+1])
		if w == 0 {
			continue
		}
		if w == zeroWidth {
			w = 0
		}
		if cid > 255 && !f.Used(rune(cid)) {
			continue
		}
		state.add(cid, w)
	}
	if fresh {
		c.saveRanges(f.File, state)
	}
	return "/W [" + formatRanges(mergeRanges(state.Ranges)) + " ]"
}

// mergeRanges joins lists that directly follow a list or a short
// interval, so that only intervals of four or more CIDs stay separate.
func mergeRanges(in []widthRange) []widthRange {
	var out []widthRange
	nextCID := -1
	prevInterval := false
	for _, r := range in {
		size := len(r.Widths)
		if r.Interval {
			// An interval accounts for one slot more than its widths.
			size++
		}
		if r.Start == nextCID && !prevInterval && (!r.Interval || size < 4) && len(out) > 0 {
			last := &out[len(out)-1]
			last.Widths = append(last.Widths, r.Widths...)
		} else {
			out = append(out, widthRange{Start: r.Start, Widths: append([]int(nil), r.Widths...)})
		}
		nextCID = r.Start + size
		if r.Interval {
			prevInterval = size > 3
			nextCID--
		} else {
			prevInterval = false
		}
	}
	return out
}

func formatRanges(ranges []widthRange) string {
	var b strings.Builder
	for _, r := range ranges {
		if len(r.Widths) == 0 {
			continue
		}
		same := true
		for _, w := range r.Widths[1:] {
			if w != r.Widths[0] {
				same = false
				break
			}
		}
		if same {
			b.WriteString(" " + strconv.Itoa(r.Start) + " " + strconv.Itoa(r.Start+len(r.Widths)-1) + " " + strconv.Itoa(r.Widths[0]))
			continue
		}
		b.WriteString(" " + strconv.Itoa(r.Start) + " [ ")
		for i, w := range r.Widths {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.Itoa(w))
		}
		b.WriteString(" ]\n")
	}
	return b.String()
}

func (c *MetricsCache) rangesPath(file string) string {
	if c.Dir() == "" || file == "" {
		return ""
	}
	return filepath.Join(c.dir, widthsPrefix+baseName(file)+".json")
}

// loadRanges returns the cached state after CID 127 and the next CID to
// process, or a fresh state starting at CID 1.
func (c *MetricsCache) loadRanges(file string) (*rangeState, int) {
	path := c.rangesPath(file)
	if path == "" {
		return newRangeState(), 1
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return newRangeState(), 1
	}
	var s rangeState
	if err := json.Unmarshal(raw, &s); err != nil {
		c.logger.Debug("discarding malformed width range cache")
		return newRangeState(), 1
	}
	for _, r := range s.Ranges {
		if len(r.Widths) == 0 {
			return newRangeState(), 1
		}
	}
	return &s, 128
}

func (c *MetricsCache) saveRanges(file string, s *rangeState) {
	path := c.rangesPath(file)
	if path == "" {
		return
	}
	raw, err := json.Marshal(s.clone())
	if err == nil {
		err = writeFileAtomic(path, raw)
	}
	if err != nil {
		c.logger.Warn("width range cache write failed")
	}
}
