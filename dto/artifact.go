package dto

type UploadArtifact struct {
	Key string
	URL string
}

func (a UploadArtifact) Available() bool {
	return a.URL != ""
}
