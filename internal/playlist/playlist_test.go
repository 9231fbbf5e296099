package playlist

import (
	"bytes"
	"net/url"
	"testing"
	"time"
)

const encryptedManifest = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:4
#EXT-X-MEDIA-SEQUENCE:5
#EXT-X-KEY:METHOD=AES-128,URI="key.bin"
#EXTINF:4.000,
seg0.ts
#EXTINF:3.500,
seg1.ts
#EXT-X-ENDLIST
`

func TestParseVariantEncrypted(t *testing.T) {
	base, _ := url.Parse("https://cdn.example/video/")
	key := []byte("0123456789abcdef")

	var fetches []string
	stream, err := ParseVariant([]byte(encryptedManifest), Params{
		Base:      base,
		Bandwidth: 8_000_000,
		FetchKey: func(uri string) ([]byte, error) {
			fetches = append(fetches, uri)
			return key, nil
		},
	})
	if err != nil {
		t.Fatalf("ParseVariant failed: %v", err)
	}

	if stream.Bandwidth != 8_000_000 {
		t.Errorf("Bandwidth = %d, want 8000000", stream.Bandwidth)
	}
	if len(stream.Segments) != 2 {
		t.Fatalf("segment count = %d, want 2", len(stream.Segments))
	}

	// one distinct key URI means one fetch, shared across segments
	if len(fetches) != 1 || fetches[0] != "https://cdn.example/video/key.bin" {
		t.Errorf("key fetches = %v, want one fetch of the resolved URI", fetches)
	}

	seg0 := stream.Segments[0]
	if seg0.Index != 0 || seg0.URL != "https://cdn.example/video/seg0.ts" {
		t.Errorf("segment 0 = {Index: %d, URL: %s}", seg0.Index, seg0.URL)
	}
	if seg0.Duration != 4*time.Second {
		t.Errorf("segment 0 duration = %v, want 4s", seg0.Duration)
	}
	if !bytes.Equal(seg0.Key, key) {
		t.Errorf("segment 0 key = %x", seg0.Key)
	}

	// without an explicit IV the media sequence number is used, big endian
	wantIV := make([]byte, 16)
	wantIV[15] = 5
	if !bytes.Equal(seg0.IV, wantIV) {
		t.Errorf("segment 0 IV = %x, want %x", seg0.IV, wantIV)
	}
	wantIV[15] = 6
	if !bytes.Equal(stream.Segments[1].IV, wantIV) {
		t.Errorf("segment 1 IV = %x, want %x", stream.Segments[1].IV, wantIV)
	}
	if stream.Segments[1].Duration != 3500*time.Millisecond {
		t.Errorf("segment 1 duration = %v, want 3.5s", stream.Segments[1].Duration)
	}
}

func TestParseVariantExplicitIV(t *testing.T) {
	manifest := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:4
#EXT-X-KEY:METHOD=AES-128,URI="https://keys.example/k1",IV=0x000102030405060708090a0b0c0d0e0f
#EXTINF:4.000,
https://cdn.example/seg0.ts
#EXT-X-ENDLIST
`
	stream, err := ParseVariant([]byte(manifest), Params{
		FetchKey: func(string) ([]byte, error) { return []byte("0123456789abcdef"), nil },
	})
	if err != nil {
		t.Fatalf("ParseVariant failed: %v", err)
	}
	want := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	if !bytes.Equal(stream.Segments[0].IV, want) {
		t.Errorf("IV = %x, want %x", stream.Segments[0].IV, want)
	}
}

func TestParseVariantCleartext(t *testing.T) {
	manifest := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:4
#EXTINF:4.000,
https://cdn.example/seg0.ts
#EXT-X-ENDLIST
`
	stream, err := ParseVariant([]byte(manifest), Params{})
	if err != nil {
		t.Fatalf("ParseVariant failed: %v", err)
	}
	if seg := stream.Segments[0]; seg.Key != nil || seg.IV != nil {
		t.Errorf("cleartext segment carries key material: key=%x iv=%x", seg.Key, seg.IV)
	}
}

func TestParseVariantMissingKeyFetcher(t *testing.T) {
	if _, err := ParseVariant([]byte(encryptedManifest), Params{}); err == nil {
		t.Fatal("expected an error for an encrypted playlist without a key fetcher")
	}
}

func TestParseVariantRejectsMasterPlaylist(t *testing.T) {
	master := `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=8000000,RESOLUTION=1920x1080
video/stream.m3u8
`
	if _, err := ParseVariant([]byte(master), Params{}); err == nil {
		t.Fatal("expected an error for a master playlist")
	}
}
