package index

import "github.com/FocuswithJustin/bibleref/core/ref"

// versesPerChapter spaces chapters on one number line so that a range of
// any kind becomes a closed interval of positions.
const versesPerChapter = 1000

// span returns the first and last position covered by rg. Whole chapters
// run from verse 0 to the last slot of the chapter; a whole book covers
// everything. Backwards ranges ("5-3") are turned around.
func span(rg ref.Range) (start, end int) {
	start, end = bounds(rg)
	if end < start {
		start, end = end, start
	}
	return start, end
}

func bounds(rg ref.Range) (start, end int) {
	pos := func(ch, v int) int { return ch*versesPerChapter + v }
	switch rg.Kind {
	case ref.WholeBook:
		return 0, 1<<31 - 1
	case ref.WholeChapters:
		first, last := rg.Chapter1, rg.Chapter2
		if last == 0 {
			last = first
		}
		first, last = min(first, last), max(first, last)
		return pos(first, 0), pos(last, versesPerChapter-1)
	case ref.InnerVerses:
		last := rg.Verse2
		if last == 0 {
			last = rg.Verse1
		}
		return pos(rg.Chapter1, rg.Verse1), pos(rg.Chapter1, last)
	default:
		return pos(rg.Chapter1, rg.Verse1), pos(rg.Chapter2, rg.Verse2)
	}
}
