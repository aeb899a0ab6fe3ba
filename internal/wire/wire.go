// Package wire implements the frame object framing the network consumer
// uses to stream composited frames over a QUIC connection: a varint
// object header in the same style as a MoQ subgroup object (object ID,
// extension block, length-prefixed payload), adapted to carry a raw
// composited media.Frame instead of an encoded NALU/ADTS payload.
package wire

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/quic-go/quic-go/quicvarint"

	"github.com/zsiec/vista/media"
)

// Frame kind tags, written right after the object ID in an object's
// extension block so a reader can dispatch before parsing the rest.
const (
	tagEmpty uint64 = iota
	tagPayload
	tagEOF
)

// Writer frames and writes successive media.Frame values onto w as a
// sequence of objects: each object is {extLen varint, ext bytes,
// payloadLen varint, payload bytes}, where ext holds the objectID varint,
// the frame kind tag varint and, for payload frames, the display picture
// number varint.
type Writer struct {
	w        io.Writer
	objectID uint64
}

// NewWriter returns a Writer that writes objects to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFrame serializes frame as one object. Composite frames (carrying
// Layers rather than a flat Image/Audio) must already have been flattened
// by the mixer before reaching the wire — only leaf payload/empty/eof
// frames are sent.
func (wr *Writer) WriteFrame(frame media.Frame) (int64, error) {
	var ext []byte
	ext = quicvarint.Append(ext, wr.objectID)

	var payload []byte
	switch frame.Kind {
	case media.KindEOF:
		ext = quicvarint.Append(ext, tagEOF)
	case media.KindEmpty:
		ext = quicvarint.Append(ext, tagEmpty)
	default:
		ext = quicvarint.Append(ext, tagPayload)
		ext = quicvarint.Append(ext, uint64(frame.DisplayPictureNumber))
		payload = encodePayload(frame)
	}

	var hdr []byte
	hdr = quicvarint.Append(hdr, uint64(len(ext)))
	hdr = append(hdr, ext...)
	hdr = quicvarint.Append(hdr, uint64(len(payload)))

	wr.objectID++

	n1, err := wr.w.Write(hdr)
	if err != nil {
		return int64(n1), err
	}
	n2, err := wr.w.Write(payload)
	return int64(n1 + n2), err
}

// encodePayload serializes the image/audio buffers of a leaf payload
// frame: image present flag, format/width/height/stride varints, data
// length + bytes; then audio present flag, sampleRate/channels varints,
// sample count + raw int16 samples (little-endian).
func encodePayload(frame media.Frame) []byte {
	var buf []byte

	if frame.Image != nil {
		buf = append(buf, 1)
		buf = quicvarint.Append(buf, uint64(frame.Image.Format))
		buf = quicvarint.Append(buf, uint64(frame.Image.Width))
		buf = quicvarint.Append(buf, uint64(frame.Image.Height))
		buf = quicvarint.Append(buf, uint64(frame.Image.Stride))
		buf = quicvarint.Append(buf, uint64(len(frame.Image.Data)))
		buf = append(buf, frame.Image.Data...)
	} else {
		buf = append(buf, 0)
	}

	if frame.Audio != nil {
		buf = append(buf, 1)
		buf = quicvarint.Append(buf, uint64(frame.Audio.SampleRate))
		buf = quicvarint.Append(buf, uint64(frame.Audio.Channels))
		buf = quicvarint.Append(buf, uint64(len(frame.Audio.Samples)))
		for _, s := range frame.Audio.Samples {
			buf = append(buf, byte(uint16(s)), byte(uint16(s)>>8))
		}
	} else {
		buf = append(buf, 0)
	}

	return buf
}

// Reader parses the object stream a Writer produces. It wraps r in a
// single bufio.Reader used for both raw byte reads and quicvarint reads,
// since quicvarint.Read only requires io.ByteReader and mixing a separate
// buffered wrapper with direct reads on the underlying stream would
// desynchronize the two.
type Reader struct {
	br *bufio.Reader
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadFrame reads the next frame object. Errors from the underlying
// reader (including io.EOF at an object boundary) propagate unwrapped so
// callers can distinguish a clean transport close from a malformed
// object.
func (rd *Reader) ReadFrame() (media.Frame, error) {
	extLen, err := quicvarint.Read(rd.br)
	if err != nil {
		return media.Frame{}, err
	}
	ext := make([]byte, extLen)
	if _, err := io.ReadFull(rd.br, ext); err != nil {
		return media.Frame{}, fmt.Errorf("wire: read extension block: %w", err)
	}

	extReader := bufio.NewReader(bytes.NewReader(ext))
	if _, err := quicvarint.Read(extReader); err != nil { // object ID, unused on read
		return media.Frame{}, fmt.Errorf("wire: read object id: %w", err)
	}
	tag, err := quicvarint.Read(extReader)
	if err != nil {
		return media.Frame{}, fmt.Errorf("wire: read tag: %w", err)
	}

	payloadLen, err := quicvarint.Read(rd.br)
	if err != nil {
		return media.Frame{}, fmt.Errorf("wire: read payload length: %w", err)
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(rd.br, payload); err != nil {
		return media.Frame{}, fmt.Errorf("wire: read payload: %w", err)
	}

	switch tag {
	case tagEOF:
		return media.EOF(), nil
	case tagEmpty:
		return media.Empty(), nil
	case tagPayload:
		dpn, err := quicvarint.Read(extReader)
		if err != nil {
			return media.Frame{}, fmt.Errorf("wire: read display picture number: %w", err)
		}
		return decodePayload(payload, int64(dpn))
	default:
		return media.Frame{}, fmt.Errorf("wire: unknown frame tag %d", tag)
	}
}

func decodePayload(payload []byte, dpn int64) (media.Frame, error) {
	br := bufio.NewReader(bytes.NewReader(payload))

	var img *media.ImageBuffer
	hasImage, err := br.ReadByte()
	if err != nil {
		return media.Frame{}, err
	}
	if hasImage == 1 {
		format, err := quicvarint.Read(br)
		if err != nil {
			return media.Frame{}, err
		}
		width, err := quicvarint.Read(br)
		if err != nil {
			return media.Frame{}, err
		}
		height, err := quicvarint.Read(br)
		if err != nil {
			return media.Frame{}, err
		}
		stride, err := quicvarint.Read(br)
		if err != nil {
			return media.Frame{}, err
		}
		dataLen, err := quicvarint.Read(br)
		if err != nil {
			return media.Frame{}, err
		}
		data := make([]byte, dataLen)
		if _, err := io.ReadFull(br, data); err != nil {
			return media.Frame{}, err
		}
		img = &media.ImageBuffer{
			Format: media.PixelFormat(format),
			Width:  int(width),
			Height: int(height),
			Stride: int(stride),
			Data:   data,
		}
	}

	var audio *media.AudioBuffer
	hasAudio, err := br.ReadByte()
	if err != nil {
		return media.Frame{}, err
	}
	if hasAudio == 1 {
		sampleRate, err := quicvarint.Read(br)
		if err != nil {
			return media.Frame{}, err
		}
		channels, err := quicvarint.Read(br)
		if err != nil {
			return media.Frame{}, err
		}
		count, err := quicvarint.Read(br)
		if err != nil {
			return media.Frame{}, err
		}
		samples := make([]int16, count)
		for i := range samples {
			lo, err := br.ReadByte()
			if err != nil {
				return media.Frame{}, err
			}
			hi, err := br.ReadByte()
			if err != nil {
				return media.Frame{}, err
			}
			samples[i] = int16(uint16(lo) | uint16(hi)<<8)
		}
		audio = &media.AudioBuffer{
			SampleRate: int(sampleRate),
			Channels:   int(channels),
			Samples:    samples,
		}
	}

	return media.NewPayload(img, audio, dpn), nil
}
