package function

import "errors"

// ErrNotAFunc is delivered when a submission dispatched to the function
// subsystem (by having no Kind method of its own) isn't a Func.
var ErrNotAFunc = errors.New("function: submission is not a function.Func")
