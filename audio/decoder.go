// Package audio converts between audio files and raw PCM clips
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"imgstego-backend/models"
	"io"
	"os"
	"os/exec"

	"github.com/bogem/id3v2"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tosone/minimp3"
)

const (
	BitsInByte = 8
	mp3Width   = 2 // minimp3 always yields 16-bit samples
	pcmFormat  = 1
)

type AudioDecoder struct{}

func NewAudioDecoder() *AudioDecoder {
	return &AudioDecoder{}
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// Decode picks the WAV or MP3 decoder from the file header.
func (ad *AudioDecoder) Decode(data []byte) (*models.AudioClip, error) {
	if IsWAV(data) {
		return ad.DecodeWAV(data)
	}
	return ad.DecodeMP3(data)
}

func (ad *AudioDecoder) DecodeMP3(mp3Data []byte) (*models.AudioClip, error) {
	decoder, data, err := minimp3.DecodeFull(mp3Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %v", err)
	}
	defer decoder.Close()

	if decoder.SampleRate == 0 || decoder.Channels == 0 || len(data) == 0 {
		return nil, fmt.Errorf("failed to decode MP3: no audio frames found")
	}

	// The data is already interleaved little-endian PCM
	return &models.AudioClip{
		FrameRate:   decoder.SampleRate,
		SampleWidth: mp3Width,
		Channels:    decoder.Channels,
		Samples:     data,
	}, nil
}

func (ad *AudioDecoder) DecodeWAV(wavData []byte) (*models.AudioClip, error) {
	decoder := wav.NewDecoder(bytes.NewReader(wavData))
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("failed to decode WAV: invalid file")
	}
	if decoder.WavAudioFormat != pcmFormat {
		return nil, fmt.Errorf("failed to decode WAV: unsupported audio format %d, only PCM is supported", decoder.WavAudioFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %v", err)
	}

	width := int(decoder.BitDepth) / BitsInByte
	samples, err := IntsToPCM(buf.Data, width)
	if err != nil {
		return nil, err
	}

	return &models.AudioClip{
		FrameRate:   int(decoder.SampleRate),
		SampleWidth: width,
		Channels:    int(decoder.NumChans),
		Samples:     samples,
	}, nil
}

// PCMToInts splits little-endian PCM into one int per sample. 8-bit PCM is unsigned.
func PCMToInts(pcmData []byte, width int) ([]int, error) {
	if width < 1 || width > 4 {
		return nil, fmt.Errorf("unsupported sample width %d", width)
	}
	if len(pcmData)%width != 0 {
		return nil, fmt.Errorf("PCM data length %d is not a multiple of sample width %d", len(pcmData), width)
	}

	sampleCount := len(pcmData) / width
	samples := make([]int, sampleCount)
	for i := range sampleCount {
		b := pcmData[i*width : i*width+width]
		switch width {
		case 1:
			samples[i] = int(b[0])
		case 2:
			samples[i] = int(int16(binary.LittleEndian.Uint16(b)))
		case 3:
			samples[i] = int(int32(uint32(b[0])|uint32(b[1])<<8|uint32(b[2])<<16) << 8 >> 8)
		case 4:
			samples[i] = int(int32(binary.LittleEndian.Uint32(b)))
		}
	}
	return samples, nil
}

// IntsToPCM is the inverse of PCMToInts.
func IntsToPCM(samples []int, width int) ([]byte, error) {
	if width < 1 || width > 4 {
		return nil, fmt.Errorf("unsupported sample width %d", width)
	}

	pcmData := make([]byte, len(samples)*width)
	for i, s := range samples {
		v := uint32(int32(s))
		for j := range width {
			pcmData[i*width+j] = byte(v >> (8 * j))
		}
	}
	return pcmData, nil
}

func (ad *AudioDecoder) EncodeWAV(clip *models.AudioClip) ([]byte, error) {
	samples, err := PCMToInts(clip.Samples, clip.SampleWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to encode WAV: %v", err)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: clip.Channels,
			SampleRate:  clip.FrameRate,
		},
		Data:           samples,
		SourceBitDepth: clip.SampleWidth * BitsInByte,
	}

	// Create a temporary file for WAV encoding since wav.NewEncoder needs WriteSeeker
	tempFile, err := os.CreateTemp("", "temp_*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %v", err)
	}
	defer tempFile.Close()
	defer os.Remove(tempFile.Name())

	encoder := wav.NewEncoder(tempFile, clip.FrameRate, clip.SampleWidth*BitsInByte, clip.Channels, pcmFormat)

	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to encode WAV: %v", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to close WAV encoder: %v", err)
	}

	// Read the file content back
	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind WAV data: %v", err)
	}
	wavData, err := io.ReadAll(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV data: %v", err)
	}

	return wavData, nil
}

// CheckLAME verifies that LAME encoder is installed and accessible
func CheckLAME() error {
	return exec.Command("lame", "--version").Run()
}

// EncodeMP3 hands the clip to LAME through a temporary WAV and tags the result.
func (ad *AudioDecoder) EncodeMP3(clip *models.AudioClip, tags *models.AudioTags) ([]byte, error) {
	tempWAV, err := os.CreateTemp("", "temp_*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary WAV file: %v", err)
	}
	defer os.Remove(tempWAV.Name())
	defer tempWAV.Close()

	tempMP3, err := os.CreateTemp("", "temp_*.mp3")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary MP3 file: %v", err)
	}
	defer os.Remove(tempMP3.Name())
	defer tempMP3.Close()

	wavData, err := ad.EncodeWAV(clip)
	if err != nil {
		return nil, fmt.Errorf("failed to encode PCM to WAV: %v", err)
	}

	if _, err := tempWAV.Write(wavData); err != nil {
		return nil, fmt.Errorf("failed to write WAV data: %v", err)
	}
	tempWAV.Close()
	tempMP3.Close()

	cmd := exec.Command("lame", "--preset", "standard", "-h", "-q", "0", "--add-id3v2", "--pad-id3v2", "--nohist", tempWAV.Name(), tempMP3.Name())
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to encode MP3 (lame not installed?): %v", err)
	}

	if tags != nil {
		if err := writeTags(tempMP3.Name(), tags); err != nil {
			return nil, err
		}
	}

	mp3Data, err := os.ReadFile(tempMP3.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read MP3 file: %v", err)
	}
	return mp3Data, nil
}

func writeTags(path string, tags *models.AudioTags) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open MP3 tags: %v", err)
	}
	defer tag.Close()

	tag.SetTitle(tags.Title)
	tag.SetArtist(tags.Artist)
	tag.SetAlbum(tags.Album)
	tag.SetGenre(tags.Genre)
	tag.SetYear(tags.Year)

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save MP3 tags: %v", err)
	}
	return nil
}

// ReadTags returns the ID3v2 fields of an MP3 upload. Files without a tag yield empty fields.
func (ad *AudioDecoder) ReadTags(mp3Data []byte) (*models.AudioTags, error) {
	tag, err := id3v2.ParseReader(bytes.NewReader(mp3Data), id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to parse MP3 tags: %v", err)
	}

	return &models.AudioTags{
		Title:  tag.Title(),
		Artist: tag.Artist(),
		Album:  tag.Album(),
		Genre:  tag.Genre(),
		Year:   tag.Year(),
	}, nil
}
