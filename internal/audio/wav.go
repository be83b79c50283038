package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the length of the canonical RIFF/WAVE header written by
// EncodeWAV and WriteWAVHeader.
const HeaderSize = 44

// WAVMimeType is the media type of EncodeWAV output.
const WAVMimeType = "audio/wav"

// maxDataLen keeps ChunkSize (36 + n) inside 32 bits.
const maxDataLen = 1<<32 - 1 - 36

// ErrDataTooLarge is returned when the PCM payload cannot be described by
// 32-bit RIFF size fields.
var ErrDataTooLarge = errors.New("PCM data exceeds WAV size limit")

// putHeader fills hdr with the canonical 44-byte header for dataLen bytes of
// PCM in format f. f must already be validated.
func putHeader(hdr []byte, dataLen int, f PCMFormat) {
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataLen))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(f.ByteRate()))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(f.BlockAlign()))
	binary.LittleEndian.PutUint16(hdr[34:36], uint16(f.BitDepth))
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataLen))
}

func checkEncodable(dataLen int, f PCMFormat) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if dataLen < 0 || uint64(dataLen) > maxDataLen {
		return fmt.Errorf("%w: %d bytes", ErrDataTooLarge, dataLen)
	}

	return nil
}

// EncodeWAV wraps raw PCM in a canonical 44-byte WAV header. The result is
// exactly HeaderSize+len(pcm) bytes and pcm is copied verbatim after the
// header.
//
// Frame alignment is not enforced: a trailing partial frame is passed
// through and Subchunk2Size always equals len(pcm). Use f.Aligned to check.
func EncodeWAV(pcm []byte, f PCMFormat) ([]byte, error) {
	if err := checkEncodable(len(pcm), f); err != nil {
		return nil, err
	}

	out := make([]byte, HeaderSize+len(pcm))
	putHeader(out[:HeaderSize], len(pcm), f)
	copy(out[HeaderSize:], pcm)

	return out, nil
}

// WriteWAVHeader writes the 44-byte header for a payload of dataLen bytes.
// The caller writes the PCM data afterwards.
func WriteWAVHeader(w io.Writer, dataLen int, f PCMFormat) (int, error) {
	if err := checkEncodable(dataLen, f); err != nil {
		return 0, err
	}

	var hdr [HeaderSize]byte
	putHeader(hdr[:], dataLen, f)

	return w.Write(hdr[:])
}

// EncodeWAVBase64 returns the standard base64 encoding of EncodeWAV(pcm, f).
func EncodeWAVBase64(pcm []byte, f PCMFormat) (string, error) {
	wav, err := EncodeWAV(pcm, f)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(wav), nil
}

// WAVDataURI returns a directly playable data:audio/wav;base64 URI.
func WAVDataURI(pcm []byte, f PCMFormat) (string, error) {
	wav, err := EncodeWAV(pcm, f)
	if err != nil {
		return "", err
	}

	return DataURI(WAVMimeType, wav), nil
}
