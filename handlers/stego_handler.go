// Package handlers is made to handle requests
package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"imgstego-backend/audio"
	"imgstego-backend/imaging"
	"imgstego-backend/models"
	"imgstego-backend/mp3parser"
	"imgstego-backend/stego"
	"imgstego-backend/storage"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"
)

// SinkFactory builds an extra sink for one hide run, e.g. a bucket prefix.
type SinkFactory func(runID string) stego.Sink

type StegoHandler struct {
	audioDecoder *audio.AudioDecoder
	opts         stego.Options
	logger       *logrus.Logger
	maxUpload    int64
	timeout      time.Duration
	archive      SinkFactory
	minPSNR      float64
}

// archiveSink is the optional surface of an archive sink: the keys it
// stored and a way to take them back after a failed run.
type archiveSink interface {
	Keys() []string
	Cleanup(ctx context.Context) error
}

var _ archiveSink = (*storage.MinioSink)(nil)

type HandlerConfig struct {
	Options        stego.Options
	MaxUploadBytes int64
	RequestTimeout time.Duration
	Archive        SinkFactory
	// MinPSNR is the mean carrier PSNR in dB below which a hide is flagged low quality.
	MinPSNR        float64
}

func NewStegoHandler(cfg HandlerConfig, logger *logrus.Logger) *StegoHandler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20 // 32MB limit
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = time.Minute
	}
	return &StegoHandler{
		audioDecoder: audio.NewAudioDecoder(),
		opts:         cfg.Options,
		logger:       logger,
		maxUpload:    cfg.MaxUploadBytes,
		timeout:      cfg.RequestTimeout,
		archive:      cfg.Archive,
		minPSNR:      cfg.MinPSNR,
	}
}

func (h *StegoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Audio-in-image steganography API is running",
		"version": "1.0.0",
	})
}

// HideAudio embeds the uploaded audio into the uploaded PNG carriers and
// streams back a zip of the carriers that received data.
func (h *StegoHandler) HideAudio(c *gin.Context) {
	log := requestLogger(c, h.logger)

	if err := c.Request.ParseMultipartForm(h.maxUpload); err != nil {
		c.JSON(http.StatusBadRequest, models.HideResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
		})
		return
	}

	audioData, _, err := readFormFile(c, "audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.HideResponse{
			Success: false,
			Message: "Audio file is required",
		})
		return
	}

	clip, err := h.decodeAudio(audioData, log)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.HideResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to decode audio file: %v", err),
		})
		return
	}

	carriers, err := readCarriers(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.HideResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	originals := make([]*image.NRGBA, len(carriers))
	for i, carrier := range carriers {
		originals[i] = imaging.Clone(carrier)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var bundle bytes.Buffer
	zipSink := storage.NewZipSink(&bundle)
	sinks := storage.MultiSink{zipSink}
	var archive stego.Sink
	if h.archive != nil {
		archive = h.archive(requestID(c))
		sinks = append(sinks, archive)
	}

	result, err := stego.Encode(ctx, *clip, carriers, sinks, h.opts)
	if err != nil {
		resp := models.HideResponse{
			Success: false,
			Message: err.Error(),
		}
		if result != nil && len(result.Encoded) > 0 {
			resp.Written = encodedNames(result.Encoded)
			resp.Archived = h.discardArchive(ctx, archive, log)
			log.WithFields(logrus.Fields{
				"written":  len(resp.Written),
				"archived": len(resp.Archived),
			}).Warn("encode stopped after partial write")
		}
		log.WithError(err).Info("hide rejected")
		c.JSON(statusFor(err), resp)
		return
	}

	if err := zipSink.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, models.HideResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to finish archive: %v", err),
		})
		return
	}

	stegos := make([]*image.NRGBA, 0, len(result.Encoded))
	pairs := make([]*image.NRGBA, 0, len(result.Encoded))
	for _, enc := range result.Encoded {
		stegos = append(stegos, enc.Carrier)
		pairs = append(pairs, originals[enc.Source])
	}
	psnr := imaging.MeanPSNR(pairs, stegos)
	digest := blake3.Sum256(clip.Samples)

	quality := "ok"
	if !imaging.ValidatePSNR(psnr, h.minPSNR) {
		quality = "low"
		log.WithFields(logrus.Fields{
			"psnr":      formatPSNR(psnr),
			"threshold": h.minPSNR,
		}).Warn("encoded images are visibly degraded")
	}

	fields := logrus.Fields{
		"images_used":     zipSink.Count(),
		"images_supplied": len(carriers),
		"container_bytes": result.ContainerBytes,
		"psnr":            formatPSNR(psnr),
	}
	if keys, ok := archive.(archiveSink); ok {
		fields["archived"] = keys.Keys()
	}
	log.WithFields(fields).Info("audio hidden")

	// Set headers for file download
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", "attachment; filename=encoded_images.zip")
	c.Header("X-Stego-Message", "Audio hidden successfully in the images")
	c.Header("X-Stego-Images", strconv.Itoa(zipSink.Count()))
	c.Header("X-Stego-Capacity", strconv.FormatInt(result.AvailableBits/stego.BitsPerPixel, 10))
	c.Header("X-Stego-PSNR", formatPSNR(psnr))
	c.Header("X-Stego-Quality", quality)
	c.Header("X-Stego-Digest", hex.EncodeToString(digest[:]))

	c.Data(http.StatusOK, "application/zip", bundle.Bytes())
}

// ExtractAudio rebuilds the hidden audio from carriers uploaded in any order.
func (h *StegoHandler) ExtractAudio(c *gin.Context) {
	log := requestLogger(c, h.logger)

	if err := c.Request.ParseMultipartForm(h.maxUpload); err != nil {
		c.JSON(http.StatusBadRequest, models.ExtractResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
		})
		return
	}

	format := c.DefaultPostForm("format", "wav")
	if format != "wav" && format != "mp3" {
		c.JSON(http.StatusBadRequest, models.ExtractResponse{
			Success: false,
			Message: "Output format must be wav or mp3",
		})
		return
	}

	carriers, err := readCarriers(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ExtractResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	clip, warning, err := stego.Decode(carriers, h.opts)
	if err != nil {
		log.WithError(err).Info("extract rejected")
		c.JSON(statusFor(err), models.ExtractResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	if warning != nil {
		log.Warn(warning.String())
		c.Header("X-Stego-Warning", warning.String())
	}

	var out []byte
	contentType := "audio/wav"
	if format == "mp3" {
		contentType = "audio/mpeg"
		out, err = h.audioDecoder.EncodeMP3(clip, &models.AudioTags{Title: "extracted audio"})
	} else {
		out, err = h.audioDecoder.EncodeWAV(clip)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ExtractResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to export audio: %v", err),
		})
		return
	}

	digest := blake3.Sum256(unpadded(clip, warning))
	log.WithFields(logrus.Fields{
		"images_supplied": len(carriers),
		"audio_bytes":     len(clip.Samples),
		"duration":        clip.Duration(),
	}).Info("audio extracted")

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=extracted_audio.%s", format))
	c.Header("X-Stego-Digest", hex.EncodeToString(digest[:]))

	c.Data(http.StatusOK, contentType, out)
}

// Capacity reports how many carrier pixels an audio upload needs, and how
// many carriers of an optional width and height that is.
func (h *StegoHandler) Capacity(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(h.maxUpload); err != nil {
		c.JSON(http.StatusBadRequest, models.CapacityResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to parse form: %v", err),
		})
		return
	}

	audioData, _, err := readFormFile(c, "audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.CapacityResponse{
			Success: false,
			Message: "Audio file is required",
		})
		return
	}

	clip, err := h.audioDecoder.Decode(audioData)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.CapacityResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to decode audio file: %v", err),
		})
		return
	}

	width, _ := strconv.Atoi(c.PostForm("width"))
	height, _ := strconv.Atoi(c.PostForm("height"))
	plan := stego.Plan(stego.ContainerSize(len(clip.Samples)), width, height)

	resp := models.CapacityResponse{
		Success:        true,
		ContainerBytes: plan.ContainerBytes,
		RequiredBits:   plan.RequiredBits,
		RequiredPixels: plan.RequiredPixels,
		Suggestions:    plan.Suggestions,
		ImagesNeeded:   plan.ImagesNeeded,
		TotalPixels:    plan.TotalPixels,
	}
	if plan.ImagesNeeded > stego.MaxCarriers {
		resp.Message = fmt.Sprintf("%d images exceed the limit of %d", plan.ImagesNeeded, stego.MaxCarriers)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *StegoHandler) decodeAudio(data []byte, log *logrus.Entry) (*models.AudioClip, error) {
	if !audio.IsWAV(data) {
		if info, err := mp3parser.Probe(data); err == nil {
			log.WithFields(logrus.Fields{
				"frames":  info.TotalFrames,
				"bitrate": info.Bitrate,
				"vbr":     info.VBR,
			}).Debug("mp3 upload")
		}
		if tags, err := h.audioDecoder.ReadTags(data); err == nil && tags.Title != "" {
			log.WithField("title", tags.Title).Debug("mp3 tags")
		}
	}
	return h.audioDecoder.Decode(data)
}

// discardArchive removes what the archive sink stored for a failed run and
// returns the keys it held.
func (h *StegoHandler) discardArchive(ctx context.Context, archive stego.Sink, log *logrus.Entry) []string {
	sink, ok := archive.(archiveSink)
	if !ok {
		return nil
	}
	keys := sink.Keys()
	if err := sink.Cleanup(context.WithoutCancel(ctx)); err != nil {
		log.WithError(err).Warn("failed to remove archived images")
	}
	return keys
}

func encodedNames(encoded []stego.Encoded) []string {
	names := make([]string, 0, len(encoded))
	for _, enc := range encoded {
		names = append(names, storage.EncodedName(enc.Tag))
	}
	return names
}

// unpadded drops the zero bytes the pad policy appended, so the digest
// matches the one reported at hide time.
func unpadded(clip *models.AudioClip, warning *stego.AlignmentWarning) []byte {
	if warning == nil || warning.PaddedBytes > len(clip.Samples) {
		return clip.Samples
	}
	return clip.Samples[:len(clip.Samples)-warning.PaddedBytes]
}

func readFormFile(c *gin.Context, field string) ([]byte, string, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

// readCarriers loads the "images" PNG uploads in order, followed by the
// PNG entries of an optional "bundle" zip.
func readCarriers(c *gin.Context) ([]*image.NRGBA, error) {
	var headers []*multipart.FileHeader
	if c.Request.MultipartForm != nil {
		headers = c.Request.MultipartForm.File["images"]
	}

	carriers := make([]*image.NRGBA, 0, len(headers))
	for _, header := range headers {
		carrier, err := loadCarrier(header)
		if err != nil {
			return nil, fmt.Errorf("invalid image %s: %v", header.Filename, err)
		}
		carriers = append(carriers, carrier)
	}

	if bundle, _, err := readFormFile(c, "bundle"); err == nil {
		files, names, err := storage.ReadZipPNGs(bundle)
		if err != nil {
			return nil, fmt.Errorf("invalid bundle: %v", err)
		}
		for _, name := range names {
			carrier, err := imaging.LoadPNG(files[name])
			if err != nil {
				return nil, fmt.Errorf("invalid image %s: %v", name, err)
			}
			carriers = append(carriers, carrier)
		}
	}

	if len(carriers) == 0 {
		return nil, fmt.Errorf("at least one PNG image is required")
	}
	return carriers, nil
}

func loadCarrier(header *multipart.FileHeader) (*image.NRGBA, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return imaging.DecodePNG(f)
}

func statusFor(err error) int {
	var capErr *stego.CapacityError
	var formatErr *stego.FormatError
	var alignErr *stego.AlignmentError
	var corruptErr *stego.CorruptionError
	switch {
	case errors.As(err, &corruptErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &capErr), errors.As(err, &formatErr), errors.As(err, &alignErr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func formatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", psnr)
}

const requestIDKey = "request_id"

// RequestID tags every request with an id, echoed in X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	if id := c.GetString(requestIDKey); id != "" {
		return id
	}
	return uuid.NewString()
}

func requestLogger(c *gin.Context, logger *logrus.Logger) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		requestIDKey: requestID(c),
		"path":       c.FullPath(),
	})
}
