package model

type FirmwareArtifact struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Version      string `json:"version"`
	Channel      string `json:"channel"`
	Checksum     string `json:"checksum"`
	Size         int64  `json:"size"`
	FileKey      string `json:"file_key"`
	ReleaseNotes string `json:"release_notes,omitempty"`
	UploadedBy   string `json:"uploaded_by"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}
