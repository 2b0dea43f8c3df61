package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"time"
)

const (
	tiffASCII    = 2
	tiffLong     = 4
	tiffRational = 5

	tagModel     = 0x0110
	tagDateTime  = 0x0132
	tagGPSIFD    = 0x8825
	tagGPSLatRef = 0x0001
	tagGPSLat    = 0x0002
	tagGPSLonRef = 0x0003
	tagGPSLon    = 0x0004
)

type ifdEntry struct {
	tag   uint16
	kind  uint16
	count uint32
	value []byte
}

func asciiEntry(tag uint16, s string) ifdEntry {
	value := append([]byte(s), 0)
	return ifdEntry{tag: tag, kind: tiffASCII, count: uint32(len(value)), value: value}
}

func longEntry(tag uint16, v uint32) ifdEntry {
	value := binary.LittleEndian.AppendUint32(nil, v)
	return ifdEntry{tag: tag, kind: tiffLong, count: 1, value: value}
}

func degreesEntry(tag uint16, deg, mins, secs uint32) ifdEntry {
	var value []byte
	for _, n := range []uint32{deg, mins, secs} {
		value = binary.LittleEndian.AppendUint32(value, n)
		value = binary.LittleEndian.AppendUint32(value, 1)
	}
	return ifdEntry{tag: tag, kind: tiffRational, count: 3, value: value}
}

// ifdSize is the encoded size of a directory plus its out-of-line values.
func ifdSize(entries []ifdEntry) uint32 {
	size := uint32(2 + 12*len(entries) + 4)
	for _, e := range entries {
		if len(e.value) > 4 {
			size += uint32(len(e.value))
		}
	}
	return size
}

// writeIFD encodes a directory at offset start, with values longer than four
// bytes placed right after it.
func writeIFD(buf *bytes.Buffer, start uint32, entries []ifdEntry) {
	le := binary.LittleEndian
	dataOffset := start + uint32(2+12*len(entries)+4)
	var data bytes.Buffer

	_ = binary.Write(buf, le, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(buf, le, e.tag)
		_ = binary.Write(buf, le, e.kind)
		_ = binary.Write(buf, le, e.count)
		if len(e.value) <= 4 {
			field := make([]byte, 4)
			copy(field, e.value)
			buf.Write(field)
			continue
		}
		_ = binary.Write(buf, le, dataOffset+uint32(data.Len()))
		data.Write(e.value)
	}
	_ = binary.Write(buf, le, uint32(0))
	buf.Write(data.Bytes())
}

// exifJPEG returns a small JPEG carrying an APP1 Exif segment with the camera
// model, the capture time and, when withGPS is set, a GPS position.
func exifJPEG(t *testing.T, model, dateTime string, withGPS bool) []byte {
	t.Helper()

	const headerSize = 8
	ifd0 := []ifdEntry{asciiEntry(tagModel, model), asciiEntry(tagDateTime, dateTime)}
	var gps []ifdEntry
	if withGPS {
		gps = []ifdEntry{
			asciiEntry(tagGPSLatRef, "N"),
			degreesEntry(tagGPSLat, 51, 30, 0),
			asciiEntry(tagGPSLonRef, "W"),
			degreesEntry(tagGPSLon, 0, 7, 0),
		}
		// The pointer entry adds 12 bytes to IFD0 and keeps its value inline.
		gpsOffset := headerSize + ifdSize(ifd0) + 12
		ifd0 = append(ifd0, longEntry(tagGPSIFD, gpsOffset))
	}

	var tiff bytes.Buffer
	tiff.WriteString("II")
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(42))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(headerSize))
	writeIFD(&tiff, headerSize, ifd0)
	if withGPS {
		writeIFD(&tiff, uint32(tiff.Len()), gps)
	}

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	segment := []byte{0xFF, 0xE1}
	segment = binary.BigEndian.AppendUint16(segment, uint16(len(payload)+2))
	segment = append(segment, payload...)

	plain := encodeJPEG(t, solidImage(2, 2))
	out := append([]byte{}, plain[:2]...)
	out = append(out, segment...)
	return append(out, plain[2:]...)
}

func TestInspectReadsCameraAndCaptureTime(t *testing.T) {
	md, ok := Inspect(File{Data: exifJPEG(t, "Pixel 8", "2026:09:14 10:30:00", false)})
	if !ok {
		t.Fatal("expected exif to be found")
	}
	if md.CameraModel != "Pixel 8" {
		t.Fatalf("unexpected camera model %q", md.CameraModel)
	}
	want := time.Date(2026, 9, 14, 10, 30, 0, 0, time.Local)
	if !md.CapturedAt.Equal(want) {
		t.Fatalf("expected capture time %v, got %v", want, md.CapturedAt)
	}
	if md.HasLocation {
		t.Fatal("expected no location without gps tags")
	}
}

func TestInspectReportsLocation(t *testing.T) {
	md, ok := Inspect(File{Data: exifJPEG(t, "iPhone 15", "2026:09:14 10:30:00", true)})
	if !ok {
		t.Fatal("expected exif to be found")
	}
	if !md.HasLocation {
		t.Fatal("expected gps tags to be reported as a location")
	}
	if md.CameraModel != "iPhone 15" {
		t.Fatalf("unexpected camera model %q", md.CameraModel)
	}
}

func TestInspectedJPEGStillNormalizes(t *testing.T) {
	data := exifJPEG(t, "Pixel 8", "2026:09:14 10:30:00", true)
	n := newTestNormalizer(nil)

	res := n.Normalize(context.Background(), File{Name: "photo.jpg", ContentType: "image/jpeg", Data: data})
	if res.Converted || !bytes.Equal(res.File.Data, data) {
		t.Fatal("expected a jpeg with exif to pass through untouched")
	}
}
