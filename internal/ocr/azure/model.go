package azure

type OperationStatus string

const (
	OperationStatusSucceeded  OperationStatus = "succeeded"
	OperationStatusRunning    OperationStatus = "running"
	OperationStatusNotStarted OperationStatus = "notStarted"
	OperationStatusFailed     OperationStatus = "failed"
)

type AnalyzeOperation struct {
	Status OperationStatus `json:"status"`

	Result AnalyzeResult `json:"analyzeResult"`
}

type AnalyzeResult struct {
	ModelID string `json:"modelId"`

	Content string `json:"content"`
	Pages   []Page `json:"pages"`
}

type Page struct {
	PageNumber int `json:"pageNumber"`

	Lines []Line `json:"lines"`
	Words []Word `json:"words"`
}

type Line struct {
	Content string `json:"content"`

	Polygon []float64 `json:"polygon"`
	Spans   []Span    `json:"spans"`
}

type Word struct {
	Content string `json:"content"`

	Span    Span      `json:"span"`
	Polygon []float64 `json:"polygon"`

	Confidence float64 `json:"confidence"`
}

type Span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

func (s Span) contains(other Span) bool {
	return other.Offset >= s.Offset && other.Offset+other.Length <= s.Offset+s.Length
}
