package status

// HTTPError is an error carrying the status code it must be answered with.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrBadRequest              = NewError(BadRequest, "bad request")
	ErrNotFound                = NewError(NotFound, "not found")
	ErrMethodNotAllowed        = NewError(MethodNotAllowed, "method not allowed")
	ErrRequestTimeout          = NewError(RequestTimeout, "request timeout")
	ErrBodyTooLarge            = NewError(RequestEntityTooLarge, "request body is too large")
	ErrHeaderFieldsTooLarge    = NewError(RequestHeaderFieldsTooLarge, "too large headers section")
	ErrUnauthorized            = NewError(Unauthorized, "unauthorized")
	ErrForbidden               = NewError(Forbidden, "forbidden")
	ErrConflict                = NewError(Conflict, "conflict")
	ErrUnsupportedMediaType    = NewError(UnsupportedMediaType, "unsupported media type")
	ErrUnprocessableEntity     = NewError(UnprocessableEntity, "unprocessable entity")
	ErrTooManyRequests         = NewError(TooManyRequests, "too many requests")
	ErrInternalServerError     = NewError(InternalServerError, "internal server error")
	ErrNotImplemented          = NewError(NotImplemented, "not implemented")
	ErrServiceUnavailable      = NewError(ServiceUnavailable, "service unavailable")
	ErrGatewayTimeout          = NewError(GatewayTimeout, "gateway timeout")
	ErrHTTPVersionNotSupported = NewError(HTTPVersionNotSupported, "HTTP version not supported")
)
