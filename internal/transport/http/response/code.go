package response

// 业务码直接沿用 HTTP 语义；HTTP 状态码恒为 200
const (
	CodeOK                 = 0
	CodeBadRequest         = 400
	CodeUnauthorized       = 401
	CodeForbidden          = 403
	CodeNotFound           = 404
	CodeTooLarge           = 413
	CodeUnprocessable      = 422 // 字段校验未通过，data.errors 带全部原因
	CodeTooManyRequests    = 429
	CodeServerError        = 500
	CodeServiceUnavailable = 503 // 存储不可用，可重试
	CodeTimeout            = 504
)

var CodeMsgMap = map[int]string{
	CodeOK:                 "OK",
	CodeBadRequest:         "Bad Request",
	CodeUnauthorized:       "Unauthorized",
	CodeForbidden:          "Forbidden",
	CodeNotFound:           "Not Found",
	CodeTooLarge:           "Request Entity Too Large",
	CodeUnprocessable:      "The given data was invalid.",
	CodeTooManyRequests:    "Too Many Requests",
	CodeServerError:        "Internal Server Error",
	CodeServiceUnavailable: "Service Unavailable",
	CodeTimeout:            "Gateway Timeout",
}
