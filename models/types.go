// Package models contain needed models
package models

// AudioClip is a decoded audio stream: interleaved little-endian PCM plus
// the properties needed to interpret it.
type AudioClip struct {
	FrameRate   int
	SampleWidth int // bytes per sample per channel
	Channels    int
	Samples     []byte
}

// FrameSize is the number of bytes in one sample across all channels.
func (c *AudioClip) FrameSize() int {
	return c.SampleWidth * c.Channels
}

// Duration returns the clip length in seconds.
func (c *AudioClip) Duration() float64 {
	frameSize := c.FrameSize()
	if frameSize == 0 || c.FrameRate == 0 {
		return 0
	}
	return float64(len(c.Samples)/frameSize) / float64(c.FrameRate)
}

// AudioTags holds the ID3v2 fields we carry between uploads and exports
type AudioTags struct {
	Title  string
	Artist string
	Album  string
	Genre  string
	Year   string
}

// MP3Info summarizes the MPEG frames found in an MP3 upload
type MP3Info struct {
	HasID3v2    bool
	TotalFrames int
	SampleRate  int
	Bitrate     int // of the first frame, bits per second
	VBR         bool
}

// StegoConfig represents configuration for steganography operations
type StegoConfig struct {
	// TagChannel selects where pixel (0,0) keeps the sequence tag: "alpha" or "red".
	TagChannel string
	// Alignment selects the frame misalignment policy on decode: "pad" or "strict".
	Alignment string
}

// HideResponse is returned as JSON when hiding fails. Written and Archived
// list what had already been produced when the run stopped; archived
// objects are removed before the response is sent.
type HideResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Written  []string `json:"written,omitempty"`
	Archived []string `json:"archived,omitempty"`
}

// ExtractResponse represents the response after extraction
type ExtractResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CapacityResponse reports how many carrier pixels an audio upload needs
type CapacityResponse struct {
	Success        bool        `json:"success"`
	Message        string      `json:"message,omitempty"`
	ContainerBytes int         `json:"container_bytes"`
	RequiredBits   int64       `json:"required_bits"`
	RequiredPixels int64       `json:"required_pixels"`
	Suggestions    []Dimension `json:"suggestions,omitempty"`
	ImagesNeeded   int         `json:"images_needed,omitempty"`
	TotalPixels    int64       `json:"total_pixels,omitempty"`
}

// Dimension is a carrier width and height in pixels
type Dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
