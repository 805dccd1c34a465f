// ABOUTME: Content delta detection for downloaded feed bodies
// ABOUTME: Hashing, conditional GET metadata and non-feed sniffing, all free of network access

package delta

import (
	"fmt"
	"net/http"
	"strings"

	"digests-refresher/core/domain"
	"digests-refresher/core/interfaces"
	"github.com/cespare/xxhash/v2"
	"github.com/gabriel-vasile/mimetype"
)

const (
	headerETag            = "ETag"
	headerLastModified    = "Last-Modified"
	headerIfNoneMatch     = "If-None-Match"
	headerIfModifiedSince = "If-Modified-Since"
)

// notFeedPrefixes are MIME prefixes that can never hold a feed document
var notFeedPrefixes = []string{
	"image/",
	"audio/",
	"video/",
	"font/",
	"application/pdf",
	"application/zip",
}

// Hash returns a deterministic digest of a feed body
func Hash(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// HasChanged reports whether data differs from the body that produced storedHash.
// An empty stored hash always counts as changed.
func HasChanged(data []byte, storedHash string) bool {
	if storedHash == "" {
		return true
	}
	return Hash(data) != storedHash
}

// NextMetadata extracts the cache validators of a successful response.
// Returns nil when the response carries neither ETag nor Last-Modified.
func NextMetadata(resp interfaces.Response) *domain.ConditionalGetInfo {
	if resp == nil {
		return nil
	}

	info := &domain.ConditionalGetInfo{
		ETag:         strings.TrimSpace(resp.Header(headerETag)),
		LastModified: strings.TrimSpace(resp.Header(headerLastModified)),
	}
	if info.IsEmpty() {
		return nil
	}
	return info
}

// AddRequestHeaders attaches validators from a previous response to header
func AddRequestHeaders(info *domain.ConditionalGetInfo, header http.Header) {
	if info.IsEmpty() || header == nil {
		return
	}
	if info.ETag != "" {
		header.Set(headerIfNoneMatch, info.ETag)
	}
	if info.LastModified != "" {
		header.Set(headerIfModifiedSince, info.LastModified)
	}
}

// IsDefinitelyNotFeed reports whether the leading bytes carry a binary signature
// (images, media, documents) that rules out a feed. Text of any kind is not rejected,
// including SVG, which mimetype reports for XML that merely contains "<svg".
func IsDefinitelyNotFeed(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	detected := mimetype.Detect(data)
	if isText(detected) {
		return false
	}
	for _, prefix := range notFeedPrefixes {
		if strings.HasPrefix(detected.String(), prefix) {
			return true
		}
	}
	return false
}

// isText walks the detection tree; every text format descends from text/plain
func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") || m.Is("image/svg+xml") {
			return true
		}
	}
	return false
}
