package httputil

// Machine-readable error codes returned next to the human message.
const (
	CodeInvalidRequestBody  = "INVALID_REQUEST_BODY"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeEmailAlreadyExists  = "EMAIL_ALREADY_EXISTS"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeDuplicateSKU        = "DUPLICATE_SKU"
	CodeFileRequired        = "FILE_REQUIRED"
	CodeFileTooLarge        = "FILE_TOO_LARGE"
	CodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	CodeUploadFailed        = "UPLOAD_FAILED"
	CodeTooManyRequests     = "TOO_MANY_REQUESTS"
)
