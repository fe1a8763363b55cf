package httpclient

type (
	reqOptBuilder struct {
		setters []func(*reqOpt)
	}

	// reqOpt controls logging and retries of a single Do call. Request
	// bodies are only read for logging when one of the request body flags
	// is set, which must not be done for streamed uploads.
	reqOpt struct {
		canLog                      bool
		canLogRequestBody           bool
		canLogResponseBody          bool
		canLogRequestBodyOnlyError  bool
		canLogResponseBodyOnlyError bool
		loggedRequestBody           []string
		loggedResponseBody          []string
		markedQueryParamKeys        []string
		retryTimes                  uint
	}
)

func ReqOptBuilder() *reqOptBuilder {
	return &reqOptBuilder{}
}

func (b *reqOptBuilder) set(setter func(*reqOpt)) *reqOptBuilder {
	b.setters = append(b.setters, setter)
	return b
}

func (b *reqOptBuilder) Log() *reqOptBuilder {
	return b.set(func(ro *reqOpt) { ro.canLog = true })
}

func (b *reqOptBuilder) LogReqBody() *reqOptBuilder {
	return b.set(func(ro *reqOpt) { ro.canLogRequestBody = true })
}

func (b *reqOptBuilder) LogResBody() *reqOptBuilder {
	return b.set(func(ro *reqOpt) { ro.canLogResponseBody = true })
}

func (b *reqOptBuilder) LogReqBodyOnlyError() *reqOptBuilder {
	return b.set(func(ro *reqOpt) { ro.canLogRequestBodyOnlyError = true })
}

func (b *reqOptBuilder) LogResBodyOnlyError() *reqOptBuilder {
	return b.set(func(ro *reqOpt) { ro.canLogResponseBodyOnlyError = true })
}

// LoggedReqBody limits a logged JSON request body to keys.
func (b *reqOptBuilder) LoggedReqBody(keys []string) *reqOptBuilder {
	return b.set(func(ro *reqOpt) { ro.loggedRequestBody = keys })
}

// LoggedResBody limits a logged JSON response body to keys.
func (b *reqOptBuilder) LoggedResBody(keys []string) *reqOptBuilder {
	return b.set(func(ro *reqOpt) { ro.loggedResponseBody = keys })
}

// MarkedQueryParamKeys masks these query parameters in logged urls.
func (b *reqOptBuilder) MarkedQueryParamKeys(keys []string) *reqOptBuilder {
	return b.set(func(ro *reqOpt) { ro.markedQueryParamKeys = keys })
}

// RetryTimes is ignored for bodies that cannot be replayed.
func (b *reqOptBuilder) RetryTimes(retries uint) *reqOptBuilder {
	return b.set(func(ro *reqOpt) { ro.retryTimes = retries })
}

func (b *reqOptBuilder) Build() *reqOpt {
	opt := &reqOpt{}
	for _, setter := range b.setters {
		setter(opt)
	}
	return opt
}
