package nethttp

const (
	HeaderAuthorization      = "Authorization"
	HeaderContentDisposition = "Content-Disposition"
	HeaderContentLength      = "Content-Length"
	HeaderContentType        = "Content-Type"
	HeaderUserAgent          = "User-Agent"

	AuthSchemeBearer = "Bearer "

	// DispositionFormData is the Content-Disposition type of every form part.
	DispositionFormData = "form-data"
)
