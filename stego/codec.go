package stego

import (
	"context"
	"fmt"
	"image"
	"imgstego-backend/models"
)

// Options fix the deployment choices shared by encode and decode.
type Options struct {
	TagChannel TagChannel
	Alignment  AlignmentPolicy
}

func OptionsFromConfig(config *models.StegoConfig) (Options, error) {
	if config == nil {
		return Options{}, nil
	}
	tagChannel, err := ParseTagChannel(config.TagChannel)
	if err != nil {
		return Options{}, err
	}
	alignment, err := ParseAlignmentPolicy(config.Alignment)
	if err != nil {
		return Options{}, err
	}
	return Options{TagChannel: tagChannel, Alignment: alignment}, nil
}

// EncodeResult describes a successful encode.
type EncodeResult struct {
	Encoded        []Encoded
	ContainerBytes int
	AvailableBits  int64
}

// Encode packs clip and hides it in carriers. The capacity gate runs before
// any carrier is modified, so a CapacityError leaves every carrier untouched.
func Encode(ctx context.Context, clip models.AudioClip, carriers []*image.NRGBA, sink Sink, opts Options) (*EncodeResult, error) {
	if len(carriers) == 0 {
		return nil, &FormatError{Message: "no carrier images supplied"}
	}

	container, err := Pack(clip)
	if err != nil {
		return nil, err
	}

	if err := CheckCapacity(container, carriers); err != nil {
		return nil, err
	}

	encoded, err := NewEmbedder(opts).Embed(ctx, container, carriers, sink)
	if err != nil {
		return &EncodeResult{Encoded: encoded, ContainerBytes: len(container)}, err
	}

	return &EncodeResult{
		Encoded:        encoded,
		ContainerBytes: len(container),
		AvailableBits:  AvailableBits(carriers),
	}, nil
}

// Decode recovers the audio clip from carriers supplied in any order.
func Decode(carriers []*image.NRGBA, opts Options) (*models.AudioClip, *AlignmentWarning, error) {
	raw, err := NewExtractor(opts).Extract(carriers)
	if err != nil {
		return nil, nil, err
	}

	clip, warning, err := Unpack(raw, opts.Alignment)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to unpack extracted payload: %w", err)
	}
	return clip, warning, nil
}
