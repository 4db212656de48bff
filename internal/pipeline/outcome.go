package pipeline

// Status is the terminal result kind for one input file.
type Status string

const (
	// StatusSuccess means clips and metadata were appended to the dataset.
	StatusSuccess Status = "success"
	// StatusError means the file was skipped; Message says why.
	StatusError Status = "error"
)

// Outcome is the per-file result. A success carries the path to the updated
// label file so callers can locate partial progress mid-batch; an error
// carries a human-readable message.
type Outcome struct {
	Status    Status `json:"status"`
	LabelPath string `json:"path,omitempty"`
	Message   string `json:"message,omitempty"`
}

func success(labelPath string) Outcome {
	return Outcome{Status: StatusSuccess, LabelPath: labelPath}
}

func failure(message string) Outcome {
	return Outcome{Status: StatusError, Message: message}
}
