package http

// MIMEType is a media type from the closed table below. The "all"
// members carry the wildcard forms used by Accept headers.
type MIMEType int8

const (
	MIMEInvalid MIMEType = -1
	MIMEAll     MIMEType = iota - 1
	MIMEApplicationAll
	MIMEApplicationEcmascript
	MIMEApplicationJavascript
	MIMEApplicationJSON
	MIMEApplicationOctetStream
	MIMEApplicationPDF
	MIMEApplicationFormURLEncoded
	MIMEApplicationXHTMLXML
	MIMEApplicationXML
	MIMEApplicationZip
	MIMEAudioAll
	MIMEAudioMpeg
	MIMEAudioVorbis
	MIMEFontAll
	MIMEFontOTF
	MIMEFontTTF
	MIMEFontWOFF
	MIMEImageAll
	MIMEImageAPNG
	MIMEImageAVIF
	MIMEImageGIF
	MIMEImageJPEG
	MIMEImagePNG
	MIMEImageSVGXML
	MIMEImageIcon
	MIMEImageWebp
	MIMEModelAll
	MIMEModel3MF
	MIMEModelVRML
	MIMEMultipartByteranges
	MIMEMultipartFormData
	MIMETextAll
	MIMETextCSS
	MIMETextCSV
	MIMETextHTML
	MIMETextJavascript
	MIMETextPlain
)

var mimeTable = EnumTable{names: []string{
	"*/*",
	"application/*",
	"application/ecmascript",
	"application/javascript",
	"application/json",
	"application/octet-stream",
	"application/pdf",
	"application/x-www-form-urlencoded",
	"application/xhtml+xml",
	"application/xml",
	"application/zip",
	"audio/*",
	"audio/mpeg",
	"audio/vorbis",
	"font/*",
	"font/otf",
	"font/ttf",
	"font/woff",
	"image/*",
	"image/apng",
	"image/avif",
	"image/gif",
	"image/jpeg",
	"image/png",
	"image/svg+xml",
	"image/vnd.microsoft.icon",
	"image/webp",
	"model/*",
	"model/3mf",
	"model/vrml",
	"multipart/byteranges",
	"multipart/form-data",
	"text/*",
	"text/css",
	"text/csv",
	"text/html",
	"text/javascript",
	"text/plain",
}}

// MIMEFromName resolves a media type token, case-insensitively.
func MIMEFromName(name []byte) MIMEType { return MIMEType(mimeTable.Find(name)) }

func (m MIMEType) String() string { return mimeTable.Name(int8(m)) }

// MIMEFromExtension maps a file extension (without the dot) to the type
// served for it. Anything unknown downgrades to an octet stream.
func MIMEFromExtension(ext string) MIMEType {
	switch ext {
	case "html", "htm":
		return MIMETextHTML
	case "css":
		return MIMETextCSS
	case "js":
		return MIMEApplicationJavascript
	case "png":
		return MIMEImagePNG
	case "jpg", "jpeg":
		return MIMEImageJPEG
	case "gif":
		return MIMEImageGIF
	case "svg":
		return MIMEImageSVGXML
	case "webp":
		return MIMEImageWebp
	case "xml":
		return MIMEApplicationXML
	case "txt":
		return MIMETextPlain
	default:
		return MIMEApplicationOctetStream
	}
}
