package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

const (
	// MarkerComment opens the generated region. The region runs through the
	// end of the <section> element that follows it.
	MarkerComment = "Coming Soon Section"

	// Anchors used only when the page has never had a generated region.
	// The first one found in this order wins, and neither is used unless
	// AnchorScheduleInfo is present.
	AnchorPostsContinued = "Blog Posts (continued for schedule info)"
	AnchorScheduleInfo   = "Blog Schedule Info"
)

var (
	ErrMarkerNotFound  = errors.New("insertion point not found")
	ErrMarkerAmbiguous = errors.New("marker region appears more than once")
	ErrMarkerMalformed = errors.New("marker region is malformed")
)

type region struct{ start, end int }

type scanResult struct {
	regions []region
	anchors map[string]int
}

// scan walks the document with the HTML tokenizer, tracking byte offsets,
// and records marker regions and anchor comments.
func scan(doc []byte) (scanResult, error) {
	res := scanResult{anchors: make(map[string]int)}

	const (
		stateOutside = iota
		stateAfterMarker
		stateInSection
	)
	state := stateOutside
	var cur region
	depth := 0
	offset := 0

	z := html.NewTokenizer(bytes.NewReader(doc))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if !errors.Is(z.Err(), io.EOF) {
				return res, z.Err()
			}
			break
		}
		start := offset
		offset += len(z.Raw())

		switch state {
		case stateOutside:
			if tt != html.CommentToken {
				continue
			}
			text := strings.TrimSpace(string(z.Text()))
			switch text {
			case MarkerComment:
				cur = region{start: start}
				state = stateAfterMarker
			case AnchorPostsContinued, AnchorScheduleInfo:
				if _, seen := res.anchors[text]; !seen {
					res.anchors[text] = start
				}
			}

		case stateAfterMarker:
			switch {
			case tt == html.TextToken && len(bytes.TrimSpace(z.Text())) == 0:
			case tt == html.StartTagToken && tagIs(z, "section"):
				depth = 1
				state = stateInSection
			default:
				return res, fmt.Errorf("%w: <!-- %s --> at byte %d is not followed by <section>", ErrMarkerMalformed, MarkerComment, cur.start)
			}

		case stateInSection:
			switch {
			case tt == html.StartTagToken && tagIs(z, "section"):
				depth++
			case tt == html.EndTagToken && tagIs(z, "section"):
				depth--
				if depth == 0 {
					cur.end = offset
					res.regions = append(res.regions, cur)
					state = stateOutside
				}
			}
		}
	}

	if state != stateOutside {
		return res, fmt.Errorf("%w: <section> after <!-- %s --> at byte %d is never closed", ErrMarkerMalformed, MarkerComment, cur.start)
	}
	return res, nil
}

func tagIs(z *html.Tokenizer, name string) bool {
	n, _ := z.TagName()
	return string(n) == name
}

// Splice places fragment into doc. An existing marker region is replaced in
// place, so splicing the same fragment twice yields the same bytes. Without
// a region the fragment is inserted before the first anchor comment. Any
// other situation is an error and doc is not modified.
func Splice(doc, fragment []byte) ([]byte, error) {
	res, err := scan(doc)
	if err != nil {
		return nil, err
	}

	switch len(res.regions) {
	case 0:
	case 1:
		r := res.regions[0]
		out := make([]byte, 0, len(doc)-(r.end-r.start)+len(fragment))
		out = append(out, doc[:r.start]...)
		out = append(out, fragment...)
		out = append(out, doc[r.end:]...)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: found %d <!-- %s --> regions", ErrMarkerAmbiguous, len(res.regions), MarkerComment)
	}

	// The posts-continued anchor only counts on pages that also carry the
	// schedule info block.
	if _, ok := res.anchors[AnchorScheduleInfo]; ok {
		for _, name := range []string{AnchorPostsContinued, AnchorScheduleInfo} {
			at, ok := res.anchors[name]
			if !ok {
				continue
			}
			return insertAt(doc, fragment, at), nil
		}
	}

	return nil, fmt.Errorf("%w: looked for <!-- %s --> and <!-- %s -->",
		ErrMarkerNotFound, MarkerComment, AnchorScheduleInfo)
}

// insertAt places fragment on its own line before the anchor at offset at.
// The anchor's leading blanks are repeated in front of the marker line.
func insertAt(doc, fragment []byte, at int) []byte {
	start := lineStart(doc, at)
	indent := doc[start:at]
	out := make([]byte, 0, len(doc)+len(indent)+len(fragment)+2)
	out = append(out, doc[:start]...)
	out = append(out, indent...)
	out = append(out, fragment...)
	out = append(out, "\n\n"...)
	out = append(out, doc[start:]...)
	return out
}

// lineStart moves at back to the start of its line when only blanks precede
// it there, so the anchor keeps its indentation.
func lineStart(doc []byte, at int) int {
	i := at
	for i > 0 && (doc[i-1] == ' ' || doc[i-1] == '\t') {
		i--
	}
	if i == 0 || doc[i-1] == '\n' {
		return i
	}
	return at
}
