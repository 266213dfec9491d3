package models

const (
	// AudioFilename is the multipart file name used for uploads.
	AudioFilename = "recording.wav"
	// AudioMimeType is the content type of captured audio.
	AudioMimeType = "audio/wav"
)

// AudioBlob is the result of one recording session: every captured chunk
// concatenated in arrival order.
type AudioBlob struct {
	Data     []byte
	Filename string
	MimeType string
}

// NewAudioBlob concatenates chunks into a single WAV blob.
func NewAudioBlob(chunks [][]byte) AudioBlob {
	size := 0
	for _, c := range chunks {
		size += len(c)
	}
	data := make([]byte, 0, size)
	for _, c := range chunks {
		data = append(data, c...)
	}
	return AudioBlob{Data: data, Filename: AudioFilename, MimeType: AudioMimeType}
}

// Empty reports whether nothing was captured.
func (b AudioBlob) Empty() bool {
	return len(b.Data) == 0
}
