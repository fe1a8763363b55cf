package utils

const (
	ErrorCloseResponseBody = "failed to close response body"
	ErrorCloseFile         = "failed to close file"
	ErrorOpenFile          = "failed to open file"
	ErrorParseUrl          = "failed to parse url"
	ErrorReadBody          = "failed to read body"
	ErrorDecodeBody        = "failed to decode body"
	ErrorCreateRequest     = "failed to create request"
	ErrorRequestStarted    = "request already started"
	ErrorSendUpload        = "failed to send upload"
	ErrorMarshalJobBody    = "failed to marshal job body"
	ErrorUnmarshalJobBody  = "failed to unmarshal job body"
)
