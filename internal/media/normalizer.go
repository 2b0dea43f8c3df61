package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strings"
	"time"

	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/heic"
	"golang.org/x/image/draw"
)

// DecodeFunc decodes a HEIC/HEIF stream.
type DecodeFunc func(r io.Reader) (image.Image, error)

// Normalizer converts HEIC/HEIF uploads to JPEG and renames every upload.
type Normalizer struct {
	quality int
	maxDim  int
	decode  DecodeFunc
	now     func() time.Time
	log     *logger.Logger
}

// NewNormalizer creates a Normalizer using the pure-Go HEIC decoder.
func NewNormalizer(cfg Config, log *logger.Logger) *Normalizer {
	quality := cfg.GetMediaJPEGQuality()
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	maxDim := cfg.GetMediaMaxDimension()
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	return &Normalizer{
		quality: quality,
		maxDim:  maxDim,
		decode:  heic.Decode,
		now:     time.Now,
		log:     log,
	}
}

// WithDecoder replaces the HEIC decoder.
func (n *Normalizer) WithDecoder(decode DecodeFunc) *Normalizer {
	n.decode = decode
	return n
}

// Normalize never fails the submission: a HEIC file that cannot be converted
// is returned unchanged apart from its name, and the failure is logged.
func (n *Normalizer) Normalize(ctx context.Context, f File) Result {
	if f.ContentType == "" {
		f.ContentType = mimetype.Detect(f.Data).String()
	}

	if !IsHEIC(f) {
		metrics.MediaNormalizations.WithLabelValues("passthrough").Inc()
		return Result{File: n.rename(f, extensionFor(f))}
	}

	converted, err := n.toJPEG(ctx, f.Data)
	if err != nil {
		metrics.MediaNormalizations.WithLabelValues("failed").Inc()
		n.log.Warn("media conversion failed, storing original upload",
			"error", err, "file", f.Name, "contentType", f.ContentType, "bytes", len(f.Data))
		return Result{File: n.rename(f, extensionFor(f)), Err: err}
	}

	metrics.MediaNormalizations.WithLabelValues("converted").Inc()
	out := n.rename(File{ContentType: ContentTypeJPEG, Data: converted}, ".jpg")
	n.log.Debug("converted heic upload", "file", f.Name, "stored", out.Name, "bytes", len(converted))
	return Result{File: out, Converted: true}
}

func (n *Normalizer) rename(f File, ext string) File {
	f.Name = storageName(n.now(), ext)
	return f
}

func (n *Normalizer) toJPEG(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := n.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode heic: %w", err)
	}
	img = downscale(img, n.maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: n.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale shrinks img so its longest edge is at most maxDim.
func downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	if w >= h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// IsHEIC reports whether f is a HEIC/HEIF still image by extension, declared
// content type, or content signature.
func IsHEIC(f File) bool {
	switch f.Ext() {
	case ".heic", ".heif":
		return true
	}
	switch strings.ToLower(strings.TrimSpace(strings.Split(f.ContentType, ";")[0])) {
	case ContentTypeHEIC, ContentTypeHEIF:
		return true
	}
	if len(f.Data) == 0 {
		return false
	}
	detected := mimetype.Detect(f.Data)
	return detected.Is(ContentTypeHEIC) || detected.Is(ContentTypeHEIF)
}
