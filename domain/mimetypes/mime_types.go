package mimetypes

import "mime"

type MIME string

const (
	Unknown   MIME = "unknown"
	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
)

// extensions of the media types accepted as post attachments.
var extensions = map[MIME]string{
	ImagePNG:  ".png",
	ImageJPEG: ".jpg",
	ImageGIF:  ".gif",
}

func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}

// Image returns the accepted image type of a detected content type.
func Image(detected string) (MIME, bool) {
	for m := range extensions {
		if _, ok := Matches(detected, m); ok {
			return m, true
		}
	}
	return Unknown, false
}

// Extension is the file extension used when storing m, empty if m is not accepted.
func Extension(m MIME) string {
	return extensions[m]
}
