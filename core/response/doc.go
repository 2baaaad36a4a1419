// Package response builds handler.Response values for JSON bodies and
// structured HTTP errors.
//
//	return response.JSON(payload)
//
//	return response.Error(response.ErrBadRequest.WithMessage("email is required"))
//
// Errors reach the router's error handler. ErrorHandler renders an HTTPError
// as is and anything else as a generic 500 so internal messages never reach
// clients.
package response
