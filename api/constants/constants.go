package constants

// Common error messages
const (
	ErrInvalidJSON        = "invalid json or missing fields"
	ErrInvalidRequestBody = "Invalid request body"
	ErrMethodNotAllowed   = "Method Not Allowed"
	ErrInternal           = "Something went wrong. Please try again"
)

// Upload errors
const (
	ErrParseMultipart   = "Failed to parse multipart form"
	ErrNoFileUploaded   = "No file uploaded"
	ErrFileTooLarge     = "File is larger than the 32 MB upload limit"
	ErrOpenFile         = "Failed to open file: "
	ErrUnsupportedFile  = "Unsupported file type. Upload a .csv, .xlsx or .xls file"
	ErrUnreadableFile   = "The file could not be read. Check that it is not corrupted or password protected"
	ErrEmptyFile        = "The file has no rows"
	ErrMissingHeaders   = "Required columns are missing: "
	ErrHeaderOutOfRange = "The configured header row is outside the file"
	ErrMallIDRequired   = "mall_id is required"
)

// Mall errors
const (
	ErrUnknownMall         = "No template is registered for this mall"
	ErrTemplateDisabled    = "The template for this mall is disabled"
	ErrInvalidDataStart    = "The data start row must come after the header row"
	ErrInvalidTemplate     = "Invalid template: "
	ErrUploadIDRequired    = "uploadId is required"
	ErrUploadNotFound      = "Upload not found"
	ErrNotMallUpload       = "Only shopping-mall uploads can be exported"
	ErrNoSnapshot          = "This upload has no stored source snapshot and cannot be exported"
	ErrTemplateUnavailable = "The mall template is missing or disabled"
	ErrNoExportConfig      = "The mall template has no export configuration"
	ErrMalformedSnapshot   = "The stored source snapshot is damaged and cannot be exported"
	ErrMalformedConfig     = "The export configuration is invalid: "
)

// Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "Content-Type"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
