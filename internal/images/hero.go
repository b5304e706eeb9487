package images

import (
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Hero rejection reasons.
const (
	ReasonLogoOrIconURL      = "logo_or_icon_url"
	ReasonUnreachable        = "unreachable"
	ReasonNotAnImage         = "not_an_image"
	ReasonAnimatedOrVector   = "animated_or_vector"
	ReasonTooSmallBytes      = "too_small_bytes"
	ReasonTooSmallDimensions = "too_small_dimensions"
	ReasonTransparentPNG     = "transparent_png_likely_logo"
)

const (
	heroRangeBytes = 32768
	minHeroWidth   = 300
	minHeroHeight  = 200

	// Transparent PNGs are usually logos. A transparent PNG is only
	// trusted as a photograph when it is heavy or panoramic.
	transparentPhotoMinBytes = 150 * 1024
	panoramicAspectRatio     = 1.7

	// PNG IHDR layout: 8-byte signature, 4-byte length, 4-byte "IHDR",
	// then width, height (big-endian uint32) and, after bit depth, the
	// color type byte.
	pngWidthOffset     = 16
	pngHeightOffset    = 20
	pngColorTypeOffset = 25
	pngHeaderMin       = 26
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// HeroVerdict reports whether a hero URL is acceptable, why it was
// rejected, and the URL actually verified (which may be an https upgrade
// of the stored one).
type HeroVerdict struct {
	OK       bool
	Reason   string
	FinalURL string
}

// ValidateHeroImage runs the full hero check: local-path short circuit,
// https upgrade, syntactic rejection, a ranged GET with the acquisition
// content checks, and for PNG payloads a binary header inspection.
func (e *Engine) ValidateHeroImage(ctx context.Context, rawURL string) HeroVerdict {
	if strings.HasPrefix(rawURL, "/") {
		// Locally served assets are always valid.
		return HeroVerdict{OK: true, FinalURL: rawURL}
	}

	if strings.HasPrefix(rawURL, "http://") {
		upgraded := "https://" + strings.TrimPrefix(rawURL, "http://")
		if verdict := e.validateRemoteHero(ctx, upgraded); verdict.OK {
			return verdict
		}
	}

	return e.validateRemoteHero(ctx, rawURL)
}

func (e *Engine) validateRemoteHero(ctx context.Context, rawURL string) HeroVerdict {
	lower := strings.ToLower(rawURL)
	if strings.Contains(lower, "logo") || strings.Contains(lower, "favicon") || strings.Contains(lower, "icon") {
		return HeroVerdict{Reason: ReasonLogoOrIconURL, FinalURL: rawURL}
	}

	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return HeroVerdict{Reason: ReasonUnreachable, FinalURL: rawURL}
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Range", "bytes=0-"+strconv.Itoa(heroRangeBytes-1))

	resp, err := e.client.Do(req)
	if err != nil {
		return HeroVerdict{Reason: ReasonUnreachable, FinalURL: rawURL}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return HeroVerdict{Reason: ReasonUnreachable, FinalURL: rawURL}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return HeroVerdict{Reason: ReasonNotAnImage, FinalURL: rawURL}
	}
	if strings.Contains(contentType, "gif") || strings.Contains(contentType, "svg") {
		return HeroVerdict{Reason: ReasonAnimatedOrVector, FinalURL: rawURL}
	}

	header, _ := io.ReadAll(io.LimitReader(resp.Body, heroRangeBytes))

	totalSize := resourceSize(resp, len(header))
	if totalSize > 0 && totalSize < minImageBytes {
		return HeroVerdict{Reason: ReasonTooSmallBytes, FinalURL: rawURL}
	}

	if isPNG(contentType, header) {
		if reason := inspectPNGHeader(header, totalSize); reason != "" {
			return HeroVerdict{Reason: reason, FinalURL: rawURL}
		}
	}

	return HeroVerdict{OK: true, FinalURL: rawURL}
}

// resourceSize resolves the full byte size of the resource from the
// response headers, falling back to the bytes actually received.
func resourceSize(resp *http.Response, received int) int {
	if cr := resp.Header.Get("Content-Range"); cr != "" {
		// "bytes 0-32767/81920"
		if idx := strings.LastIndex(cr, "/"); idx >= 0 {
			if total, err := strconv.Atoi(cr[idx+1:]); err == nil {
				return total
			}
		}
	}
	if resp.StatusCode == http.StatusOK {
		if raw := resp.Header.Get("Content-Length"); raw != "" {
			if size, err := strconv.Atoi(raw); err == nil {
				return size
			}
		}
	}
	return received
}

func isPNG(contentType string, header []byte) bool {
	if strings.Contains(contentType, "png") {
		return true
	}
	return len(header) >= len(pngSignature) && string(header[:len(pngSignature)]) == string(pngSignature)
}

// inspectPNGHeader reads width, height and color type straight out of the
// IHDR chunk. Returns a rejection reason or "".
func inspectPNGHeader(header []byte, totalSize int) string {
	if len(header) < pngHeaderMin {
		return ""
	}

	width := int(binary.BigEndian.Uint32(header[pngWidthOffset : pngWidthOffset+4]))
	height := int(binary.BigEndian.Uint32(header[pngHeightOffset : pngHeightOffset+4]))
	colorType := header[pngColorTypeOffset]

	if width < minHeroWidth || height < minHeroHeight {
		return ReasonTooSmallDimensions
	}

	// Color types 4 and 6 carry an alpha channel.
	hasAlpha := colorType == 4 || colorType == 6
	if hasAlpha && height > 0 {
		aspect := float64(width) / float64(height)
		if totalSize < transparentPhotoMinBytes && aspect < panoramicAspectRatio {
			return ReasonTransparentPNG
		}
	}

	return ""
}
