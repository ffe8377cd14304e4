package pdf2img

import (
	"strconv"
	"strings"
)

// SelectionKind tags a PageSelection.
type SelectionKind int

const (
	SelectAll SelectionKind = iota
	SelectFirst
	SelectLast
	SelectIndex
	SelectList
	SelectRange
)

// PageSelection says which 1-based pages to render. The zero value selects
// every page. Build one with All, First, Last, Page, Pages, Range, RangeFrom
// or RangeTo.
type PageSelection struct {
	Kind  SelectionKind
	Index int
	List  []int
	// Start and End bound a range; zero means the first and last page.
	Start int
	End   int
}

func All() PageSelection   { return PageSelection{Kind: SelectAll} }
func First() PageSelection { return PageSelection{Kind: SelectFirst} }
func Last() PageSelection  { return PageSelection{Kind: SelectLast} }

// Page selects a single page. Values below 1 are raised to 1; values past
// the end of the document fail when that page is rendered.
func Page(n int) PageSelection { return PageSelection{Kind: SelectIndex, Index: n} }

// Pages selects an explicit list, rendered in the given order. An empty list
// selects page 1.
func Pages(list ...int) PageSelection { return PageSelection{Kind: SelectList, List: list} }

func Range(start, end int) PageSelection {
	return PageSelection{Kind: SelectRange, Start: start, End: end}
}

func RangeFrom(start int) PageSelection { return Range(start, 0) }

func RangeTo(end int) PageSelection { return Range(0, end) }

// Resolve returns the ordered page indices for a document of total pages.
func (s PageSelection) Resolve(total int) ([]int, error) {
	switch s.Kind {
	case SelectAll:
		return pageRange(1, total), nil
	case SelectFirst:
		return []int{1}, nil
	case SelectLast:
		return []int{total}, nil
	case SelectIndex:
		return []int{max(s.Index, 1)}, nil
	case SelectList:
		if len(s.List) == 0 {
			return []int{1}, nil
		}
		return append([]int(nil), s.List...), nil
	case SelectRange:
		start, end := s.Start, s.End
		if start == 0 {
			start = 1
		}
		if end == 0 {
			end = total
		}
		return pageRange(start, end), nil
	default:
		return nil, ErrInvalidPagesOption
	}
}

func (s PageSelection) String() string {
	switch s.Kind {
	case SelectAll:
		return "all"
	case SelectFirst:
		return "first"
	case SelectLast:
		return "last"
	case SelectIndex:
		return strconv.Itoa(s.Index)
	case SelectList:
		parts := make([]string, len(s.List))
		for i, n := range s.List {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, ",")
	case SelectRange:
		var b strings.Builder
		if s.Start != 0 {
			b.WriteString(strconv.Itoa(s.Start))
		}
		b.WriteByte('-')
		if s.End != 0 {
			b.WriteString(strconv.Itoa(s.End))
		}
		return b.String()
	default:
		return "invalid"
	}
}

// ParseSelection reads the textual form used by the CLI and HTTP API:
// "all", "first", "last", "3", "1,3,5", "2-4", "2-" or "-4".
func ParseSelection(s string) (PageSelection, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "all":
		return All(), nil
	case "first":
		return First(), nil
	case "last":
		return Last(), nil
	}

	if strings.Contains(s, ",") {
		fields := strings.Split(s, ",")
		list := make([]int, 0, len(fields))
		for _, f := range fields {
			n, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return PageSelection{}, ErrInvalidPagesOption
			}
			list = append(list, n)
		}
		return Pages(list...), nil
	}

	if before, after, ok := strings.Cut(s, "-"); ok {
		start, err := parseBound(before)
		if err != nil {
			return PageSelection{}, err
		}
		end, err := parseBound(after)
		if err != nil {
			return PageSelection{}, err
		}
		if start == 0 && end == 0 {
			return PageSelection{}, ErrInvalidPagesOption
		}
		return Range(start, end), nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return PageSelection{}, ErrInvalidPagesOption
	}
	return Page(n), nil
}

func parseBound(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, ErrInvalidPagesOption
	}
	return n, nil
}

func pageRange(start, end int) []int {
	if start > end {
		return []int{}
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}
