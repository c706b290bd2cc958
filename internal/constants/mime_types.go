package constants

// MimeTypes maps attachment file extensions to their MIME types. The device
// app only ever materializes files from this set.
var MimeTypes = map[string]string{
	// Image formats
	".avif": "image/avif",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",

	// Audio formats
	".ogg": "audio/ogg",
	".oga": "audio/ogg",
	".m4a": "audio/mp4",

	// Video formats
	".mp4": "video/mp4",
}

// DefaultMimeType is the fallback MIME type for unknown file extensions
const DefaultMimeType = "application/octet-stream"
