package services

// ServiceError is a typed error carrying the HTTP status the controller
// should answer with.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError builds a ServiceError.
func NewServiceError(statusCode int, message string) *ServiceError {
	return &ServiceError{StatusCode: statusCode, Message: message}
}
