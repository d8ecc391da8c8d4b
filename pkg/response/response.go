package response

// Generic response envelope
type APIResponseCode int

const (
	APIResponseCodeOK           APIResponseCode = 0
	APIResponseCodeBadRequest   APIResponseCode = 40000
	APIResponseCodeUnauthorized APIResponseCode = 40100
	APIResponseCodeForbidden    APIResponseCode = 40300
	APIResponseCodeError        APIResponseCode = 50000
)

var codeToMsg = map[APIResponseCode]string{
	APIResponseCodeOK:           "ok",
	APIResponseCodeBadRequest:   "bad request",
	APIResponseCodeUnauthorized: "unauthorized",
	APIResponseCodeForbidden:    "forbidden",
	APIResponseCodeError:        "unexpected error",
}

// APIResponse is the envelope used by the admin and health APIs.
// Use OKT / ErrorT helpers to construct instances.
type APIResponse[T any] struct {
	Code    APIResponseCode `json:"code"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Code: APIResponseCodeOK, Message: codeToMsg[APIResponseCodeOK], Data: data}
}

// ErrorT returns an error response with message and optional data.
func ErrorT[T any](code APIResponseCode, data T) *APIResponse[T] {
	return &APIResponse[T]{Code: code, Message: codeToMsg[code], Data: data}
}

// Error codes carried by ErrorBody on the membership routes.
const (
	CodeUnauthorized  = "unauthorized"
	CodeInvalidEvent  = "invalid_event"
	CodeNotFound      = "not_found"
	CodeProviderError = "provider_error"
	CodeStorageError  = "storage_error"
	CodeInternal      = "internal_error"
)

// ErrorBody is the flat error shape the browser client reads on the
// membership and webhook routes.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func NewErrorBody(code, msg string) ErrorBody {
	return ErrorBody{Error: msg, Code: code}
}
