package stego

import (
	"fmt"
	"image"
	"sort"
)

type Extractor struct {
	tagChannel TagChannel
}

func NewExtractor(opts Options) *Extractor {
	return &Extractor{tagChannel: opts.TagChannel}
}

type taggedCarrier struct {
	tag     int
	carrier *image.NRGBA
}

// Extract reorders carriers by tag, reads one byte per pixel and stops at
// the first run of EndMarkerSize marker bytes. The marker is not returned.
// Carriers are only read.
func (x *Extractor) Extract(carriers []*image.NRGBA) ([]byte, error) {
	if len(carriers) == 0 {
		return nil, &FormatError{Message: "no carrier images supplied"}
	}

	tagged := make([]taggedCarrier, 0, len(carriers))
	seen := make(map[int]int, len(carriers))
	for i, c := range carriers {
		if err := validateCarrier(c, i); err != nil {
			return nil, err
		}
		tag := readTag(c, x.tagChannel)
		if prev, ok := seen[tag]; ok {
			return nil, &CorruptionError{Message: fmt.Sprintf("carriers %d and %d share sequence tag %d", prev, i, tag)}
		}
		seen[tag] = i
		tagged = append(tagged, taggedCarrier{tag: tag, carrier: c})
	}

	sort.SliceStable(tagged, func(i, j int) bool {
		return tagged[i].tag < tagged[j].tag
	})

	var capacity int64
	for _, t := range tagged {
		capacity += UsablePixels(t.carrier)
	}
	buf := make([]byte, 0, capacity)

	run := 0
	found := false
	scanned := 0
	for _, t := range tagged {
		scanned++
		forEachPixel(t.carrier, func(pix []uint8) bool {
			b := extractByte(pix)
			buf = append(buf, b)
			if b == EndMarkerByte {
				run++
			} else {
				run = 0
			}
			if run == EndMarkerSize {
				found = true
				return false
			}
			return true
		})
		if found {
			break
		}
	}

	if !found {
		return nil, &CorruptionError{
			Message:        "no end signal found: corrupted or incomplete image set",
			ImagesScanned:  scanned,
			BytesRecovered: len(buf),
		}
	}

	return buf[:len(buf)-EndMarkerSize], nil
}
