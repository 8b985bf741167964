package entities

// BookImage is the cover reference attached to a book. It is one of two
// variants: RemoteImage for a cover hosted by the metadata service, or
// LocalImage for a file owned by the app's image storage. Callers dispatch
// with a type switch, never by inspecting strings.
type BookImage interface {
	isBookImage()
}

// RemoteImage is a network-hosted cover fetched from metadata lookup.
type RemoteImage struct {
	URL string
}

// LocalImage is a file in app storage, or transiently a temp-directory path
// before promotion. The base file name is the stable identity: the containing
// directory can change between runs, so display paths must be re-resolved
// through the image manager rather than trusted verbatim.
type LocalImage struct {
	Path string
}

func (RemoteImage) isBookImage() {}
func (LocalImage) isBookImage()  {}

const (
	ImageKindRemote = "url"
	ImageKindFile   = "file"
)

// EncodeImage flattens an image reference into the kind/ref column pair.
func EncodeImage(img BookImage) (kind, ref string) {
	switch v := img.(type) {
	case RemoteImage:
		return ImageKindRemote, v.URL
	case LocalImage:
		return ImageKindFile, v.Path
	default:
		return "", ""
	}
}

// DecodeImage is the inverse of EncodeImage. Unknown kinds decode to nil so
// stale rows never break reads.
func DecodeImage(kind, ref string) BookImage {
	switch kind {
	case ImageKindRemote:
		return RemoteImage{URL: ref}
	case ImageKindFile:
		return LocalImage{Path: ref}
	default:
		return nil
	}
}
