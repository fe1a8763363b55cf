package nethttp

const (
	MIMEApplicationJSON        = "application/json"
	MIMEApplicationForm        = "application/x-www-form-urlencoded"
	MIMEApplicationOctetStream = "application/octet-stream"
	MIMEApplicationZIP         = "application/zip"
	MIMEMultipartFormData      = "multipart/form-data"
	MIMETextCSV                = "text/csv"
	MIMETextPlain              = "text/plain"
)
