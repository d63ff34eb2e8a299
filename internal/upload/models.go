package upload

// ExtractedRFPData is what the factbook backend extracts from an RFP document.
type ExtractedRFPData struct {
	CompanyName   string   `json:"company_name"`
	ProductName   string   `json:"product_name"`
	Competitors   []string `json:"competitors"`
	ProposalAreas []string `json:"proposal_areas"`
	Category      *string  `json:"category"`
}

// User-facing messages, shown verbatim by the admin UI.
const (
	msgMissingFile  = "파일이 없습니다."
	msgInvalidFile  = "유효하지 않은 파일입니다. (10MB 이하의 pdf, pptx, docx, hwp)"
	msgUploadFailed = "파일 업로드 중 오류가 발생했습니다."
)
