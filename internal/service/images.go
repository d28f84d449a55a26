package service

// ResolveImages returns the image list a product should hold after a write.
// New uploads replace the list entirely; without uploads the existing list is
// kept as is. The result never aliases either argument.
func ResolveImages(existing, uploads []string) []string {
	source := existing
	if len(uploads) > 0 {
		source = uploads
	}

	images := make([]string, len(source))
	copy(images, source)
	return images
}
