package model

// Response is the envelope of every JSON answer: data on success, an error message
// otherwise. A widget error can carry both.
type Response struct {
	Data    interface{} `json:"data,omitempty"`
	Error   *string     `json:"error,omitempty"`
	Message string      `json:"message"`
}

func SuccessResponse(data interface{}) Response {
	return Response{Data: data, Message: "Success"}
}

// ErrorResponse builds an envelope for errMsg under the given status message.
func ErrorResponse(message, errMsg string) Response {
	return Response{Error: &errMsg, Message: message}
}
