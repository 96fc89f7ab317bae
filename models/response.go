package models

type ApiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func NewApiResponse(statusCode int, data any, message string) ApiResponse {
	return ApiResponse{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    statusCode < 400,
	}
}

type ApiErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	Success    bool     `json:"success"`
}

func NewApiErrorResponse(e *APIError) ApiErrorResponse {
	errs := e.Errors
	if errs == nil {
		errs = []string{}
	}
	return ApiErrorResponse{
		StatusCode: e.StatusCode,
		Message:    e.Message,
		Errors:     errs,
		Success:    false,
	}
}
