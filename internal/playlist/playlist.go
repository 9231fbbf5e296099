// Package playlist adapts HLS media playlists, as handed over by the
// catalog/metadata service, into the pipeline's variant stream model.
package playlist

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/grafov/m3u8"

	"github.com/famomatic/segmux/internal/types"
)

// KeyFetch resolves an encryption key URI to its raw key bytes. It is
// supplied by the caller because key endpoints usually require the catalog
// session's credentials.
type KeyFetch func(uri string) ([]byte, error)

// Params configures ParseVariant.
type Params struct {
	// Base resolves relative segment and key URIs.
	Base *url.URL
	// Bandwidth is the nominal stream bitrate in bits per second, taken
	// from the master playlist entry that referenced this media playlist.
	Bandwidth uint64
	// FetchKey is invoked once per distinct key URI. Nil is valid for
	// cleartext streams.
	FetchKey KeyFetch
}

// ParseVariant decodes an HLS media playlist into a VariantStream. Segment
// indices are assigned contiguously from zero in playlist order.
func ParseVariant(manifest []byte, params Params) (types.VariantStream, error) {
	decoded, listType, err := m3u8.DecodeFrom(bytes.NewReader(manifest), true)
	if err != nil {
		return types.VariantStream{}, fmt.Errorf("decode media playlist: %w", err)
	}
	media, ok := decoded.(*m3u8.MediaPlaylist)
	if !ok || listType != m3u8.MEDIA {
		return types.VariantStream{}, fmt.Errorf("expected a media playlist, got list type %d", listType)
	}

	stream := types.VariantStream{Bandwidth: params.Bandwidth}
	keyCache := make(map[string][]byte)

	index := 0
	for _, seg := range media.Segments {
		if seg == nil {
			continue
		}
		segment := types.Segment{
			Index:    index,
			URL:      resolveRef(params.Base, seg.URI),
			Duration: time.Duration(seg.Duration * float64(time.Second)),
		}

		key := seg.Key
		if key == nil {
			key = media.Key
		}
		if key != nil && strings.EqualFold(key.Method, "AES-128") {
			material, err := fetchKeyCached(params, keyCache, key.URI)
			if err != nil {
				return types.VariantStream{}, err
			}
			segment.Key = material
			segment.IV, err = segmentIV(key.IV, media.SeqNo+uint64(index))
			if err != nil {
				return types.VariantStream{}, err
			}
		}

		stream.Segments = append(stream.Segments, segment)
		index++
	}
	return stream, nil
}

func fetchKeyCached(params Params, cache map[string][]byte, uri string) ([]byte, error) {
	resolved := resolveRef(params.Base, uri)
	if material, ok := cache[resolved]; ok {
		return material, nil
	}
	if params.FetchKey == nil {
		return nil, fmt.Errorf("playlist requires key %s but no key fetcher is configured", resolved)
	}
	material, err := params.FetchKey(resolved)
	if err != nil {
		return nil, fmt.Errorf("fetch key %s: %w", resolved, err)
	}
	cache[resolved] = material
	return material, nil
}

// segmentIV returns the explicit IV when the playlist carries one, otherwise
// the media sequence number as a big-endian 16-byte value per the HLS spec.
func segmentIV(raw string, sequence uint64) ([]byte, error) {
	if raw == "" {
		iv := make([]byte, 16)
		binary.BigEndian.PutUint64(iv[8:], sequence)
		return iv, nil
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	iv, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decode IV %q: %w", raw, err)
	}
	return iv, nil
}

func resolveRef(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
