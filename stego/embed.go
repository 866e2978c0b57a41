package stego

import (
	"context"
	"fmt"
	"image"
)

// Encoded is a carrier that received payload bytes.
type Encoded struct {
	Tag          int
	Source       int // index in the caller's carrier slice
	Carrier      *image.NRGBA
	BytesWritten int
}

// Sink receives each encoded carrier as soon as it is complete.
type Sink interface {
	Put(ctx context.Context, enc Encoded) error
}

type Embedder struct {
	tagChannel TagChannel
}

func NewEmbedder(opts Options) *Embedder {
	return &Embedder{tagChannel: opts.TagChannel}
}

// Embed writes container into carriers in order, mutating them in place.
// Carriers after the one that completes the payload are left untouched.
// On a deficit the already written carriers are returned inside a PartialWriteError.
func (e *Embedder) Embed(ctx context.Context, container []byte, carriers []*image.NRGBA, sink Sink) ([]Encoded, error) {
	written := make([]Encoded, 0)
	cursor := 0

	for i, c := range carriers {
		if cursor >= len(container) {
			break
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := validateCarrier(c, i); err != nil {
			return written, err
		}
		if i >= MaxCarriers {
			return written, &PartialWriteError{
				Written: written,
				Err: &CapacityError{
					RequiredBits:  RequiredBits(container),
					AvailableBits: AvailableBits(carriers),
					CarrierLimit:  true,
				},
			}
		}

		writeTag(c, e.tagChannel, i)

		start := cursor
		forEachPixel(c, func(pix []uint8) bool {
			embedByte(pix, container[cursor])
			cursor++
			return cursor < len(container)
		})

		enc := Encoded{Tag: i, Source: i, Carrier: c, BytesWritten: cursor - start}
		written = append(written, enc)

		if sink != nil {
			if err := sink.Put(ctx, enc); err != nil {
				return written, fmt.Errorf("failed to store encoded carrier %d: %w", i, err)
			}
		}
	}

	if cursor < len(container) {
		return written, &PartialWriteError{
			Written: written,
			Err: &CapacityError{
				RequiredBits:  RequiredBits(container),
				AvailableBits: int64(cursor) * BitsPerPixel,
			},
		}
	}

	return written, nil
}
