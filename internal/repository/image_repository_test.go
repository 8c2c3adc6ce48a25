package repository

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/anime-shed/photo-curator-go/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 7), uint8(y * 5), 90, 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// withEXIF inserts an APP1 segment carrying IFD0 Make and Model after SOI
func withEXIF(t *testing.T, jpg []byte, cameraMake, cameraModel string) []byte {
	t.Helper()
	le := binary.LittleEndian

	makeBytes := append([]byte(cameraMake), 0)
	modelBytes := append([]byte(cameraModel), 0)

	const ifdOffset = 8
	dataOffset := uint32(ifdOffset + 2 + 2*12 + 4)

	var tiff bytes.Buffer
	tiff.WriteString("II")
	_ = binary.Write(&tiff, le, uint16(42))
	_ = binary.Write(&tiff, le, uint32(ifdOffset))
	_ = binary.Write(&tiff, le, uint16(2))
	writeEntry := func(tag uint16, count, offset uint32) {
		_ = binary.Write(&tiff, le, tag)
		_ = binary.Write(&tiff, le, uint16(2)) // ASCII
		_ = binary.Write(&tiff, le, count)
		_ = binary.Write(&tiff, le, offset)
	}
	writeEntry(0x010F, uint32(len(makeBytes)), dataOffset)
	writeEntry(0x0110, uint32(len(modelBytes)), dataOffset+uint32(len(makeBytes)))
	_ = binary.Write(&tiff, le, uint32(0))
	tiff.Write(makeBytes)
	tiff.Write(modelBytes)

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	var out bytes.Buffer
	out.Write(jpg[:2])
	out.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(jpg[2:])
	return out.Bytes()
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h grayscale
// pixels with no image data behind it.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := make([]byte, 0, 17)
	chunk = append(chunk, "IHDR"...)
	chunk = binary.BigEndian.AppendUint32(chunk, w)
	chunk = binary.BigEndian.AppendUint32(chunk, h)
	chunk = append(chunk, 8, 0, 0, 0, 0)

	_ = binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func newRepo(t *testing.T, maxBytes, maxPixels int64) (ImageRepository, storage.ImageStore) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewLocalStorage(filepath.Join(root, "uploads"), filepath.Join(root, "processed"))
	require.NoError(t, err)
	return NewStoreImageRepository(store, maxBytes, maxPixels), store
}

func TestLoadImage_DecodesSupportedFormats(t *testing.T) {
	repo, store := newRepo(t, 0, 0)
	ctx := context.Background()
	src := sampleImage(12, 8)

	var gifBuf bytes.Buffer
	require.NoError(t, gif.Encode(&gifBuf, src, nil))

	files := map[string][]byte{
		"a.png": encodePNG(t, src),
		"b.jpg": encodeJPEG(t, src),
		"c.gif": gifBuf.Bytes(),
	}
	for name, data := range files {
		_, err := store.Save(ctx, name, bytes.NewReader(data))
		require.NoError(t, err)
	}

	for name := range files {
		img, err := repo.LoadImage(ctx, name)
		require.NoError(t, err, name)
		assert.Equal(t, image.Rect(0, 0, 12, 8), img.Bounds(), name)
	}
}

func TestLoadImage_Errors(t *testing.T) {
	repo, store := newRepo(t, 64, 0)
	ctx := context.Background()

	_, err := store.Save(ctx, "garbage.jpg", bytes.NewReader([]byte("definitely not a jpeg")))
	require.NoError(t, err)
	_, err = store.Save(ctx, "big.png", bytes.NewReader(encodePNG(t, sampleImage(64, 64))))
	require.NoError(t, err)

	_, err = repo.LoadImage(ctx, "missing.png")
	assert.True(t, errors.Is(err, ErrImageNotFound))

	_, err = repo.LoadImage(ctx, "../escape.png")
	assert.True(t, errors.Is(err, ErrImageNotFound))

	_, err = repo.LoadImage(ctx, "garbage.jpg")
	assert.True(t, errors.Is(err, ErrUndecodable))

	_, err = repo.LoadImage(ctx, "big.png")
	assert.True(t, errors.Is(err, ErrImageTooLarge))
}

func TestReadMetadata_PNG(t *testing.T) {
	meta, err := ReadMetadata(encodePNG(t, sampleImage(30, 20)), 0)
	require.NoError(t, err)

	assert.Equal(t, 30, meta.Width)
	assert.Equal(t, 20, meta.Height)
	assert.Equal(t, "PNG", meta.Format)
	assert.Equal(t, "image/png", meta.ContentType)
	assert.Nil(t, meta.Camera)
}

func TestReadMetadata_JPEGWithCamera(t *testing.T) {
	data := withEXIF(t, encodeJPEG(t, sampleImage(40, 25)), "Canon", "EOS R5")

	meta, err := ReadMetadata(data, 0)
	require.NoError(t, err)

	assert.Equal(t, 40, meta.Width)
	assert.Equal(t, 25, meta.Height)
	assert.Equal(t, "JPEG", meta.Format)
	require.NotNil(t, meta.Camera)
	assert.Equal(t, "Canon", meta.Camera.Make)
	assert.Equal(t, "EOS R5", meta.Camera.Model)
	assert.Nil(t, meta.Camera.TakenAt)
}

func TestReadMetadata_Undecodable(t *testing.T) {
	_, err := ReadMetadata([]byte("GIF89a-but-truncated"), 0)
	assert.ErrorIs(t, err, ErrUndecodable)

	// A valid header with no pixel data passes DecodeConfig alone
	_, err = ReadMetadata(pngHeader(20, 10), 0)
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestReadMetadata_PixelLimit(t *testing.T) {
	_, err := ReadMetadata(encodePNG(t, sampleImage(40, 30)), 1000)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	// Rejected from the header before any pixel data is read
	_, err = ReadMetadata(pngHeader(100000, 100000), 50_000_000)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	meta, err := ReadMetadata(encodePNG(t, sampleImage(40, 25)), 1000)
	require.NoError(t, err)
	assert.Equal(t, 40, meta.Width)
}

func TestLoadImage_PixelLimit(t *testing.T) {
	repo, store := newRepo(t, 0, 1000)
	ctx := context.Background()

	_, err := store.Save(ctx, "wide.png", bytes.NewReader(encodePNG(t, sampleImage(50, 30))))
	require.NoError(t, err)
	_, err = store.Save(ctx, "bomb.png", bytes.NewReader(pngHeader(100000, 100000)))
	require.NoError(t, err)
	_, err = store.Save(ctx, "small.png", bytes.NewReader(encodePNG(t, sampleImage(20, 20))))
	require.NoError(t, err)

	_, err = repo.LoadImage(ctx, "wide.png")
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = repo.LoadImage(ctx, "bomb.png")
	assert.ErrorIs(t, err, ErrImageTooLarge)

	img, err := repo.LoadImage(ctx, "small.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 20), img.Bounds())
}
